// Package model - Definitions shared by pose model implementations.
package model

import (
	"image"

	"github.com/nvr-ai/go-pose/models/model/preprocess"
	"github.com/nvr-ai/go-pose/models/postprocess"
)

// Family is the family of models.
type Family string

const (
	// ModelFamilyYOLO is the Ultralytics YOLO model family.
	ModelFamilyYOLO Family = "yolo"
)

// Name is the unique identifier of a model.
type Name string

const (
	// ModelNameYOLOv8nPose is the nano YOLOv8 pose estimation model.
	ModelNameYOLOv8nPose Name = "yolov8n-pose"
)

// Options describes a configured model: where it lives, how its tensors are
// named and shaped, and how its output is filtered.
type Options struct {
	Name        Name                     `json:"name"         yaml:"name"`
	Family      Family                   `json:"family"       yaml:"family"`
	Path        string                   `json:"path"         yaml:"path"`
	Inputs      []string                 `json:"inputs"       yaml:"inputs"`
	Outputs     []string                 `json:"outputs"      yaml:"outputs"`
	InputShape  []int64                  `json:"input_shape"  yaml:"input_shape"`
	OutputShape []int64                  `json:"output_shape" yaml:"output_shape"`
	Decode      postprocess.DecodeConfig `json:"decode"       yaml:"decode"`
	NMS         *postprocess.NMSConfig   `json:"nms"          yaml:"nms"`
	// KeypointThreshold is the confidence a keypoint needs to be shown.
	KeypointThreshold float32 `json:"keypoint_threshold" yaml:"keypoint_threshold"`
}

// Model converts frames to network input and raw network output to
// detections.
type Model interface {
	Options() Options
	PreProcess(img image.Image) (*preprocess.Tensor, error)
	PostProcess(output *postprocess.RawOutput) ([]postprocess.Candidate, error)
	Release(tensor *preprocess.Tensor)
}

// NewModelArgs is the arguments for creating a new model. Zero values fall
// back to the model's defaults.
type NewModelArgs struct {
	Name                Name                   `json:"name"                 yaml:"name"`
	Family              Family                 `json:"family"               yaml:"family"`
	Path                string                 `json:"path"                 yaml:"path"`
	Inputs              []string               `json:"inputs"               yaml:"inputs"`
	Outputs             []string               `json:"outputs"              yaml:"outputs"`
	InputSize           int                    `json:"input_size"           yaml:"input_size"`
	Anchors             int                    `json:"anchors"              yaml:"anchors"`
	ConfidenceThreshold float32                `json:"confidence_threshold" yaml:"confidence_threshold"`
	KeypointThreshold   float32                `json:"keypoint_threshold"   yaml:"keypoint_threshold"`
	NMS                 *postprocess.NMSConfig `json:"nms"                  yaml:"nms"`
}
