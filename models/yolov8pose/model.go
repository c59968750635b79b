// Package yolov8pose - YOLOv8 pose estimation model.
package yolov8pose

import (
	"fmt"

	"github.com/nvr-ai/go-pose/models/model"
	"github.com/nvr-ai/go-pose/models/model/preprocess"
	"github.com/nvr-ai/go-pose/models/postprocess"
)

const (
	// DefaultInput is the input tensor name exported by Ultralytics.
	DefaultInput = "images"
	// DefaultOutput is the output tensor name exported by Ultralytics.
	DefaultOutput = "output0"
	// DefaultInputSize is the side of the square network input.
	DefaultInputSize = 640
	// DefaultAnchors is the number of anchors for a 640x640 input
	// (80² + 40² + 20²).
	DefaultAnchors = 8400
)

// YOLOv8Pose is the instance of the YOLOv8 pose model.
type YOLOv8Pose struct {
	options      model.Options
	preprocessor *preprocess.Preprocessor
}

// Options returns the options for the YOLOv8 pose model.
//
// Returns:
//   - The options for the YOLOv8 pose model.
func (m *YOLOv8Pose) Options() model.Options {
	return m.options
}

// NewModel creates a new model.
//
// Arguments:
//   - args: The arguments for creating a new model. Unset thresholds and
//     sizes use the YOLOv8n-pose defaults.
//
// Returns:
//   - The model.
//   - An error if a threshold or size is out of range.
func NewModel(args model.NewModelArgs) (*YOLOv8Pose, error) {
	if args.Path == "" {
		return nil, fmt.Errorf("NewModel requires path to be set")
	}

	inputs := args.Inputs
	if len(inputs) == 0 {
		inputs = []string{DefaultInput}
	}
	outputs := args.Outputs
	if len(outputs) == 0 {
		outputs = []string{DefaultOutput}
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, fmt.Errorf("NewModel requires exactly one input and one output, got %d and %d", len(inputs), len(outputs))
	}

	decode := postprocess.DefaultDecodeConfig()
	if args.InputSize != 0 {
		decode.InputSize = args.InputSize
	}
	if args.Anchors != 0 {
		decode.Anchors = args.Anchors
	}
	if args.ConfidenceThreshold != 0 {
		decode.ConfidenceThreshold = args.ConfidenceThreshold
	}
	if decode.InputSize <= 0 {
		return nil, fmt.Errorf("NewModel requires a positive input size, got %d", decode.InputSize)
	}
	if decode.Anchors <= 0 {
		return nil, fmt.Errorf("NewModel requires a positive anchor count, got %d", decode.Anchors)
	}
	if err := checkUnit("confidence threshold", decode.ConfidenceThreshold); err != nil {
		return nil, err
	}

	keypointThreshold := postprocess.DefaultKeypointThreshold
	if args.KeypointThreshold != 0 {
		keypointThreshold = args.KeypointThreshold
	}
	if err := checkUnit("keypoint threshold", keypointThreshold); err != nil {
		return nil, err
	}

	nms := postprocess.DefaultNMSConfig()
	if args.NMS != nil {
		nms = &postprocess.NMSConfig{IoUThreshold: args.NMS.IoUThreshold}
	}
	if err := checkUnit("IoU threshold", nms.IoUThreshold); err != nil {
		return nil, err
	}

	pcfg := preprocess.DefaultConfig()
	pcfg.InputSize = decode.InputSize
	preprocessor, err := preprocess.NewPreprocessor(pcfg)
	if err != nil {
		return nil, err
	}

	family := args.Family
	if family == "" {
		family = model.ModelFamilyYOLO
	}

	return &YOLOv8Pose{
		options: model.Options{
			Name:              model.ModelNameYOLOv8nPose,
			Family:            family,
			Path:              args.Path,
			Inputs:            inputs,
			Outputs:           outputs,
			InputShape:        pcfg.Shape(),
			OutputShape:       []int64{1, postprocess.CandidateSize, int64(decode.Anchors)},
			Decode:            decode,
			NMS:               nms,
			KeypointThreshold: keypointThreshold,
		},
		preprocessor: preprocessor,
	}, nil
}

func checkUnit(name string, v float32) error {
	if v <= 0 || v >= 1 {
		return fmt.Errorf("NewModel requires %s in (0, 1), got %v", name, v)
	}
	return nil
}
