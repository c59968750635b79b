package postprocess

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// anchor describes one column of a synthetic raw output in centre/size form.
type anchor struct {
	cx, cy, w, h, conf float32
	keypoints          [NumKeypoints * 3]float32
}

// rawOutput lays anchors out attribute-major, padding to cols columns.
func rawOutput(t testing.TB, cols int, anchors ...anchor) *RawOutput {
	t.Helper()
	require.LessOrEqual(t, len(anchors), cols)

	data := make([]float32, CandidateSize*cols)
	set := func(row, col int, v float32) { data[row*cols+col] = v }

	for col, a := range anchors {
		set(0, col, a.cx)
		set(1, col, a.cy)
		set(2, col, a.w)
		set(3, col, a.h)
		set(4, col, a.conf)
		for i, v := range a.keypoints {
			set(keypointOffset+i, col, v)
		}
	}

	out, err := NewRawOutput(CandidateSize, cols, data)
	require.NoError(t, err)
	return out
}

func smallConfig(anchors int) DecodeConfig {
	cfg := DefaultDecodeConfig()
	cfg.Anchors = anchors
	return cfg
}

// TestDecode_CentreToCorners converts a single confident anchor.
func TestDecode_CentreToCorners(t *testing.T) {
	out := rawOutput(t, 8400, anchor{cx: 320, cy: 320, w: 100, h: 100, conf: 0.9})

	got, err := Decode(out, DefaultDecodeConfig())
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, float32(270), got[0][0])
	assert.Equal(t, float32(270), got[0][1])
	assert.Equal(t, float32(370), got[0][2])
	assert.Equal(t, float32(370), got[0][3])
	assert.InDelta(t, 0.9, got[0].Confidence(), 1e-6)
}

func TestDecode_ConfidenceThresholdIsExclusive(t *testing.T) {
	out := rawOutput(t, 4,
		anchor{cx: 100, cy: 100, w: 10, h: 10, conf: 0.4},
		anchor{cx: 200, cy: 200, w: 10, h: 10, conf: 0.41},
		anchor{cx: 300, cy: 300, w: 10, h: 10, conf: 0.1},
	)

	got, err := Decode(out, smallConfig(4))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.41, got[0].Confidence(), 1e-6)

	for _, c := range got {
		assert.Greater(t, c.Confidence(), float32(0.4))
	}
}

func TestDecode_ClampsToInputFrame(t *testing.T) {
	out := rawOutput(t, 5,
		anchor{cx: 10, cy: 5, w: 100, h: 40, conf: 0.9},
		anchor{cx: 630, cy: 635, w: 100, h: 40, conf: 0.9},
		anchor{cx: 320, cy: 320, w: 2000, h: 2000, conf: 0.9},
		anchor{cx: 700, cy: 320, w: 10, h: 10, conf: 0.9},
		anchor{cx: -50, cy: -40, w: 20, h: 20, conf: 0.9},
	)

	got, err := Decode(out, smallConfig(5))
	require.NoError(t, err)
	require.Len(t, got, 5)

	assert.Equal(t, []float32{0, 0, 60, 25, 0.9}, got[0][:5])
	assert.Equal(t, []float32{580, 615, 639, 639, 0.9}, got[1][:5])
	assert.Equal(t, []float32{0, 0, 639, 639, 0.9}, got[2][:5])
	// Boxes entirely outside the frame collapse onto its edge.
	assert.Equal(t, []float32{639, 315, 639, 325, 0.9}, got[3][:5])
	assert.Equal(t, []float32{0, 0, 0, 0, 0.9}, got[4][:5])

	for _, c := range got {
		for i := 0; i < 4; i++ {
			assert.GreaterOrEqual(t, c[i], float32(0))
			assert.LessOrEqual(t, c[i], float32(639))
		}
		assert.LessOrEqual(t, c[0], c[2])
		assert.LessOrEqual(t, c[1], c[3])
	}
}

func TestDecode_KeypointsPassThrough(t *testing.T) {
	a := anchor{cx: 320, cy: 320, w: 100, h: 200, conf: 0.8}
	for k := 0; k < NumKeypoints; k++ {
		a.keypoints[k*3] = float32(300 + k)
		a.keypoints[k*3+1] = float32(250 + 2*k)
		a.keypoints[k*3+2] = float32(k) / 20
	}

	got, err := Decode(rawOutput(t, 2, a), smallConfig(2))
	require.NoError(t, err)
	require.Len(t, got, 1)

	nose := got[0].Keypoint(Nose)
	assert.Equal(t, KeypointValue{X: 300, Y: 250, Confidence: 0}, nose)

	ankle := got[0].Keypoint(LeftAnkle)
	assert.Equal(t, float32(316), ankle.X)
	assert.Equal(t, float32(282), ankle.Y)
	assert.InDelta(t, 0.8, ankle.Confidence, 1e-6)
	assert.True(t, ankle.Visible(DefaultKeypointThreshold))
	assert.False(t, nose.Visible(DefaultKeypointThreshold))
}

// TestDecode_Idempotent decodes twice and checks the raw buffer is untouched.
func TestDecode_Idempotent(t *testing.T) {
	out := rawOutput(t, 16,
		anchor{cx: 50, cy: 60, w: 30, h: 40, conf: 0.7},
		anchor{cx: 5, cy: 6, w: 30, h: 40, conf: 0.95},
	)
	before := append([]float32(nil), out.Data...)

	first, err := Decode(out, smallConfig(16))
	require.NoError(t, err)
	second, err := Decode(out, smallConfig(16))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, out.Data)
}

func TestDecode_NoSurvivorsIsEmpty(t *testing.T) {
	got, err := Decode(rawOutput(t, 8400), DefaultDecodeConfig())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDecode_ShapeMismatch(t *testing.T) {
	tests := []struct {
		name string
		out  *RawOutput
		cfg  DecodeConfig
	}{
		{"nil", nil, DefaultDecodeConfig()},
		{"too few rows", &RawOutput{Rows: 55, Cols: 8400, Data: make([]float32, 55*8400)}, DefaultDecodeConfig()},
		{"wrong anchors", &RawOutput{Rows: 56, Cols: 8000, Data: make([]float32, 56*8000)}, DefaultDecodeConfig()},
		{"short data", &RawOutput{Rows: 56, Cols: 8400, Data: make([]float32, 56*8400-1)}, DefaultDecodeConfig()},
		{"zero cols", &RawOutput{Rows: 56, Cols: 0}, smallConfig(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.out, tt.cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrShapeMismatch), "got %v", err)
		})
	}
}

func TestDecode_AnyAnchorCount(t *testing.T) {
	out := rawOutput(t, 7, anchor{cx: 20, cy: 20, w: 10, h: 10, conf: 0.5})
	got, err := Decode(out, smallConfig(0))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRawOutputFromRows(t *testing.T) {
	rows := make([][]float32, CandidateSize)
	for i := range rows {
		rows[i] = []float32{float32(i), float32(i) + 0.5}
	}

	out, err := RawOutputFromRows(rows)
	require.NoError(t, err)
	assert.Equal(t, CandidateSize, out.Rows)
	assert.Equal(t, 2, out.Cols)
	assert.Equal(t, float32(4.5), out.Data[4*2+1])

	rows[10] = []float32{1}
	_, err = RawOutputFromRows(rows)
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	_, err = RawOutputFromRows(nil)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestNewRawOutput_LengthMismatch(t *testing.T) {
	_, err := NewRawOutput(56, 10, make([]float32, 559))
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func BenchmarkDecode(b *testing.B) {
	anchors := make([]anchor, 0, 64)
	for i := 0; i < 64; i++ {
		anchors = append(anchors, anchor{cx: float32(i * 10), cy: 320, w: 40, h: 120, conf: 0.5})
	}
	out := rawOutput(b, 8400, anchors...)
	cfg := DefaultDecodeConfig()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(out, cfg); err != nil {
			b.Fatal(err)
		}
	}
}
