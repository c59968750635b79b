// Package yolov8pose - preprocess frames for the YOLOv8 pose model.
package yolov8pose

import (
	"image"

	"github.com/nvr-ai/go-pose/models/model/preprocess"
)

// PreProcess resizes the frame to the model input and converts it to a
// planar [1, 3, S, S] tensor normalized to [0, 1].
//
// Arguments:
//   - img: The frame to convert.
//
// Returns:
//   - The input tensor. Hand it back with Release once inference is done.
//   - An error if the frame is nil or empty.
func (m *YOLOv8Pose) PreProcess(img image.Image) (*preprocess.Tensor, error) {
	return m.preprocessor.Preprocess(img)
}

// Release returns an input tensor to the model's buffer pool.
func (m *YOLOv8Pose) Release(tensor *preprocess.Tensor) {
	m.preprocessor.Release(tensor)
}
