package inference

import (
	"context"
	"errors"
	"testing"

	"github.com/nvr-ai/go-pose/models/model/preprocess"
	"github.com/nvr-ai/go-pose/models/postprocess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	out    []float32
	err    error
	calls  int
	closed bool
}

func (f *fakeRunner) Run(input []float32) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func (f *fakeRunner) Close() error {
	f.closed = true
	return nil
}

func TestEngine_Run(t *testing.T) {
	runner := &fakeRunner{out: make([]float32, 56*4)}
	e, err := NewEngine(runner, []int64{1, 56, 4})
	require.NoError(t, err)

	out, err := e.Run(context.Background(), &preprocess.Tensor{Data: make([]float32, 12)})
	require.NoError(t, err)
	assert.Equal(t, 56, out.Rows)
	assert.Equal(t, 4, out.Cols)
	assert.Equal(t, int64(1), e.Metrics().InferenceCount)

	e.ResetMetrics()
	assert.Zero(t, e.Metrics().InferenceCount)

	require.NoError(t, e.Close())
	assert.True(t, runner.closed)
}

func TestEngine_RunCancelled(t *testing.T) {
	runner := &fakeRunner{out: make([]float32, 56)}
	e, err := NewEngine(runner, []int64{56, 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.Run(ctx, &preprocess.Tensor{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, runner.calls, "cancelled runs never reach the session")
}

func TestEngine_RunErrors(t *testing.T) {
	boom := errors.New("boom")
	e, err := NewEngine(&fakeRunner{err: boom}, []int64{1, 56, 8400})
	require.NoError(t, err)

	_, err = e.Run(context.Background(), &preprocess.Tensor{})
	assert.ErrorIs(t, err, boom)

	_, err = e.Run(context.Background(), nil)
	assert.Error(t, err)

	// A runner returning the wrong number of values is a shape mismatch.
	e, err = NewEngine(&fakeRunner{out: make([]float32, 10)}, []int64{1, 56, 8400})
	require.NoError(t, err)
	_, err = e.Run(context.Background(), &preprocess.Tensor{})
	assert.ErrorIs(t, err, postprocess.ErrShapeMismatch)
}

func TestNewEngine_Shapes(t *testing.T) {
	_, err := NewEngine(&fakeRunner{}, []int64{2, 56, 8400})
	assert.Error(t, err)
	_, err = NewEngine(&fakeRunner{}, []int64{56})
	assert.Error(t, err)
}
