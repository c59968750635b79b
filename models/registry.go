// Package models - registry for models.
package models

import (
	"fmt"

	"github.com/nvr-ai/go-pose/models/model"
	"github.com/nvr-ai/go-pose/models/yolov8pose"
)

// NewModel creates a new pose model instance based on the specified model name.
//
// This factory function is the entry point for model creation, routing
// requests to the model-specific constructor.
//
// Arguments:
//   - args: Configuration parameters specifying the model name and location.
//
// Returns:
//   - model.Model: A fully configured model instance implementing the Model interface.
//   - error: An error if the name is unsupported or validation fails.
//
// Example:
//
// ```go
//
//	m, err := NewModel(model.NewModelArgs{
//	    Name: model.ModelNameYOLOv8nPose,
//	    Path: "/models/yolov8n-pose.onnx",
//	})
//	if err != nil {
//	    log.Fatalf("Failed to create pose model: %v", err)
//	}
//
// ```
func NewModel(args model.NewModelArgs) (model.Model, error) {
	switch args.Name {
	case model.ModelNameYOLOv8nPose, "":
		m, err := yolov8pose.NewModel(args)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported model name: %s", args.Name)
	}
}

// Names lists the model names NewModel accepts.
func Names() []model.Name {
	return []model.Name{model.ModelNameYOLOv8nPose}
}
