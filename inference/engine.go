// Package inference - Inference engine interface and implementations.
package inference

import (
	"context"
	"sync"
	"time"

	"github.com/nvr-ai/go-pose/inference/providers"
	"github.com/nvr-ai/go-pose/models/model"
	"github.com/nvr-ai/go-pose/models/model/preprocess"
	"github.com/nvr-ai/go-pose/models/postprocess"
	"github.com/pkg/errors"
)

// Engine runs the network: a planar input tensor in, raw output out.
type Engine interface {
	Run(ctx context.Context, input *preprocess.Tensor) (*postprocess.RawOutput, error)
	Close() error
}

// Runner executes a model on flat buffers. *providers.Session implements it.
type Runner interface {
	Run(input []float32) ([]float32, error)
	Close() error
}

// Metrics summarizes engine runs.
type Metrics struct {
	InferenceCount int64         `json:"inference_count"`
	TotalTime      time.Duration `json:"total_time"`
	AverageTime    time.Duration `json:"average_time"`
}

// ONNXEngine adapts a Runner to the Engine interface and records timing.
type ONNXEngine struct {
	runner Runner
	rows   int
	cols   int

	mu             sync.RWMutex
	inferenceCount int64
	totalTime      time.Duration
}

// NewONNXEngine opens an ONNX Runtime session for the model.
//
// Arguments:
//   - opts: The model options; path, tensor names and shapes are read from here.
//   - provider: The execution provider configuration.
//
// Returns:
//   - *ONNXEngine: The engine. Close it to release the native session.
//   - error: If the options are incomplete or the session cannot be created.
//
// Example:
//
// ```go
//
//	m, _ := models.NewModel(model.NewModelArgs{Path: "yolov8n-pose.onnx"})
//	engine, err := inference.NewONNXEngine(m.Options(), providers.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
//
// ```
func NewONNXEngine(opts model.Options, provider providers.Config) (*ONNXEngine, error) {
	if len(opts.Inputs) != 1 || len(opts.Outputs) != 1 {
		return nil, errors.Errorf("engine requires one input and one output, got %d and %d", len(opts.Inputs), len(opts.Outputs))
	}

	session, err := providers.NewSession(providers.NewSessionArgs{
		ModelPath:   opts.Path,
		Input:       opts.Inputs[0],
		Output:      opts.Outputs[0],
		InputShape:  opts.InputShape,
		OutputShape: opts.OutputShape,
		Provider:    provider,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", opts.Path)
	}

	engine, err := NewEngine(session, opts.OutputShape)
	if err != nil {
		session.Close()
		return nil, err
	}
	return engine, nil
}

// NewEngine wraps a runner whose output has the given shape. The shape is
// [1, rows, cols] or [rows, cols].
func NewEngine(runner Runner, outputShape []int64) (*ONNXEngine, error) {
	var rows, cols int64
	switch len(outputShape) {
	case 3:
		if outputShape[0] != 1 {
			return nil, errors.Errorf("only batch size 1 is supported, got output shape %v", outputShape)
		}
		rows, cols = outputShape[1], outputShape[2]
	case 2:
		rows, cols = outputShape[0], outputShape[1]
	default:
		return nil, errors.Errorf("unsupported output shape %v", outputShape)
	}

	return &ONNXEngine{runner: runner, rows: int(rows), cols: int(cols)}, nil
}

// Run executes one inference. The context is checked before the native
// call; a started run always completes.
//
// Arguments:
//   - ctx: The request context.
//   - input: The planar input tensor.
//
// Returns:
//   - *postprocess.RawOutput: A fresh copy of the network output.
//   - error: The context error or the wrapped runtime error.
func (e *ONNXEngine) Run(ctx context.Context, input *preprocess.Tensor) (*postprocess.RawOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if input == nil {
		return nil, errors.New("input tensor is nil")
	}

	start := time.Now()
	data, err := e.runner.Run(input.Data)
	elapsed := time.Since(start)
	if err != nil {
		return nil, errors.Wrap(err, "inference failed")
	}

	e.mu.Lock()
	e.inferenceCount++
	e.totalTime += elapsed
	e.mu.Unlock()

	return postprocess.NewRawOutput(e.rows, e.cols, data)
}

// Metrics returns counters for successful runs.
func (e *ONNXEngine) Metrics() Metrics {
	e.mu.RLock()
	defer e.mu.RUnlock()

	m := Metrics{InferenceCount: e.inferenceCount, TotalTime: e.totalTime}
	if e.inferenceCount > 0 {
		m.AverageTime = e.totalTime / time.Duration(e.inferenceCount)
	}
	return m
}

// ResetMetrics clears all performance counters.
func (e *ONNXEngine) ResetMetrics() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.inferenceCount = 0
	e.totalTime = 0
}

// Close releases the underlying session.
func (e *ONNXEngine) Close() error {
	return e.runner.Close()
}
