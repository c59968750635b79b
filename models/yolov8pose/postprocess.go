// Package yolov8pose - postprocess YOLOv8 pose model outputs.
package yolov8pose

import (
	"github.com/nvr-ai/go-pose/models/postprocess"
)

// PostProcess postprocesses the output of the YOLOv8 pose model.
//
// The [56, 8400] output is decoded into corner-form candidates above the
// confidence threshold, which are then reduced with greedy NMS.
//
// Arguments:
//   - output: The raw output of the YOLOv8 pose model.
//
// Returns:
//   - A slice of detections in descending confidence, possibly empty.
//   - postprocess.ErrShapeMismatch if the output is malformed.
func (m *YOLOv8Pose) PostProcess(output *postprocess.RawOutput) ([]postprocess.Candidate, error) {
	candidates, err := postprocess.Decode(output, m.options.Decode)
	if err != nil {
		return nil, err
	}
	return postprocess.ApplyNMS(candidates, m.options.NMS), nil
}
