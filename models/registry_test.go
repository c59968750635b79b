package models

import (
	"testing"

	"github.com/nvr-ai/go-pose/models/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModel(t *testing.T) {
	m, err := NewModel(model.NewModelArgs{Name: model.ModelNameYOLOv8nPose, Path: "m.onnx"})
	require.NoError(t, err)
	assert.Equal(t, model.ModelNameYOLOv8nPose, m.Options().Name)

	m, err = NewModel(model.NewModelArgs{Path: "m.onnx"})
	require.NoError(t, err, "empty name selects the default model")
	assert.Equal(t, model.ModelNameYOLOv8nPose, m.Options().Name)

	_, err = NewModel(model.NewModelArgs{Name: "yolov4", Path: "m.onnx"})
	assert.EqualError(t, err, "unsupported model name: yolov4")

	assert.Contains(t, Names(), model.ModelNameYOLOv8nPose)
}
