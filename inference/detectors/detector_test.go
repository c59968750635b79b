package detectors

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/go-pose/config"
	"github.com/nvr-ai/go-pose/models/model"
	"github.com/nvr-ai/go-pose/models/model/preprocess"
	"github.com/nvr-ai/go-pose/models/postprocess"
	"github.com/nvr-ai/go-pose/models/yolov8pose"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const anchors = 16

// stubEngine returns a fixed raw output and records the tensor it was given.
type stubEngine struct {
	out    *postprocess.RawOutput
	err    error
	shape  []int64
	closed bool
}

func (s *stubEngine) Run(ctx context.Context, input *preprocess.Tensor) (*postprocess.RawOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.shape = input.Shape
	return s.out, s.err
}

func (s *stubEngine) Close() error {
	s.closed = true
	return nil
}

func rawWithPeople(t *testing.T) *postprocess.RawOutput {
	t.Helper()
	data := make([]float32, postprocess.CandidateSize*anchors)
	put := func(col int, values ...float32) {
		for row, v := range values {
			data[row*anchors+col] = v
		}
	}
	put(0, 100, 200, 80, 240, 0.55)
	put(1, 102, 198, 80, 240, 0.85)
	put(2, 400, 300, 60, 200, 0.7)
	put(3, 500, 500, 50, 50, 0.2)

	raw, err := postprocess.NewRawOutput(postprocess.CandidateSize, anchors, data)
	require.NoError(t, err)
	return raw
}

func newModel(t *testing.T) model.Model {
	t.Helper()
	m, err := yolov8pose.NewModel(model.NewModelArgs{Path: "m.onnx", Anchors: anchors})
	require.NoError(t, err)
	return m
}

func TestDetector_Detect(t *testing.T) {
	engine := &stubEngine{out: rawWithPeople(t)}
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	d, err := NewDetector(newModel(t), engine, WithLogger(logger))
	require.NoError(t, err)

	res, err := d.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 1280, 720)))
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 3, 640, 640}, engine.shape)
	assert.Equal(t, image.Pt(1280, 720), res.Size)
	require.Len(t, res.Detections, 2)
	assert.InDelta(t, 0.85, res.Detections[0].Confidence(), 1e-6)
	assert.InDelta(t, 0.7, res.Detections[1].Confidence(), 1e-6)
	assert.GreaterOrEqual(t, res.Timings.Total, res.Timings.Inference)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "frame processed", hook.LastEntry().Message)
	assert.Equal(t, 2, hook.LastEntry().Data["detections"])

	require.NoError(t, d.Close())
	assert.True(t, engine.closed)
}

func TestDetector_EmptyFrameResult(t *testing.T) {
	raw, err := postprocess.NewRawOutput(postprocess.CandidateSize, anchors, make([]float32, postprocess.CandidateSize*anchors))
	require.NoError(t, err)

	d, err := NewDetector(newModel(t), &stubEngine{out: raw})
	require.NoError(t, err)

	res, err := d.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 64, 64)))
	require.NoError(t, err)
	assert.NotNil(t, res.Detections)
	assert.Empty(t, res.Detections)
}

func TestDetector_Errors(t *testing.T) {
	_, err := NewDetector(nil, &stubEngine{})
	assert.Error(t, err)
	_, err = NewDetector(newModel(t), nil)
	assert.Error(t, err)

	boom := errors.New("engine down")
	d, err := NewDetector(newModel(t), &stubEngine{err: boom})
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	_, err = d.Detect(context.Background(), img)
	assert.ErrorIs(t, err, boom)

	_, err = d.Detect(context.Background(), nil)
	assert.ErrorIs(t, err, preprocess.ErrNilImage)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Detect(ctx, img)
	assert.ErrorIs(t, err, context.Canceled)

	bad, err := postprocess.NewRawOutput(10, 10, make([]float32, 100))
	require.NoError(t, err)
	d, err = NewDetector(newModel(t), &stubEngine{out: bad})
	require.NoError(t, err)
	_, err = d.Detect(context.Background(), img)
	assert.ErrorIs(t, err, postprocess.ErrShapeMismatch)
}

func TestOpen_Errors(t *testing.T) {
	logger, _ := test.NewNullLogger()

	cfg := config.Default()
	cfg.IoUThreshold = 0
	_, err := Open(cfg, logger)
	assert.ErrorContains(t, err, "invalid configuration")

	cfg = config.Default()
	cfg.ModelPath = filepath.Join(t.TempDir(), "missing.onnx")
	cfg.ModelCacheDir = t.TempDir()
	_, err = Open(cfg, logger)
	assert.ErrorIs(t, err, os.ErrNotExist)

	cfg = config.Default()
	cfg.ModelName = "yolov1"
	_, err = Open(cfg, logger)
	assert.ErrorContains(t, err, "unsupported model name")
}
