package postprocess

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// ErrShapeMismatch is returned when raw network output does not have the
// expected 56 x anchors layout.
var ErrShapeMismatch = errors.New("raw output shape mismatch")

// RawOutput is the network output in attribute-major layout: Rows attributes
// (56) by Cols anchors (8400), stored row-major in Data.
type RawOutput struct {
	Rows int
	Cols int
	Data []float32
}

// NewRawOutput wraps a flat output buffer. The buffer is referenced, not
// copied; Decode never writes to it.
//
// Arguments:
//   - rows: Attributes per anchor.
//   - cols: Number of anchors.
//   - data: Row-major values, len(data) must equal rows*cols.
//
// Returns:
//   - *RawOutput: The wrapped output.
//   - error: ErrShapeMismatch if the length does not match the dimensions.
func NewRawOutput(rows, cols int, data []float32) (*RawOutput, error) {
	if rows <= 0 || cols <= 0 || len(data) != rows*cols {
		return nil, errors.Wrapf(ErrShapeMismatch, "%d values for %dx%d", len(data), rows, cols)
	}
	return &RawOutput{Rows: rows, Cols: cols, Data: data}, nil
}

// RawOutputFromRows flattens nested rows into a RawOutput. Every row must
// have the same length; ragged input is rejected rather than padded.
func RawOutputFromRows(rows [][]float32) (*RawOutput, error) {
	if len(rows) == 0 {
		return nil, errors.Wrap(ErrShapeMismatch, "no rows")
	}

	cols := len(rows[0])
	data := make([]float32, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, errors.Wrapf(ErrShapeMismatch, "row %d has %d values, expected %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return NewRawOutput(len(rows), cols, data)
}

// DecodeConfig controls candidate extraction.
type DecodeConfig struct {
	// ConfidenceThreshold is the exclusive lower bound on detection confidence.
	ConfidenceThreshold float32
	// InputSize is the square model input side; box corners are clamped to
	// [0, InputSize-1].
	InputSize int
	// Anchors is the expected number of columns. Zero accepts any count.
	Anchors int
}

// DefaultDecodeConfig returns the YOLOv8n-pose decode settings.
func DefaultDecodeConfig() DecodeConfig {
	return DecodeConfig{
		ConfidenceThreshold: 0.4,
		InputSize:           640,
		Anchors:             8400,
	}
}

// Decode validates the raw output, transposes it to one record per anchor,
// drops records whose confidence is not above the threshold and converts
// the surviving boxes from centre/size to clamped corners.
//
// The returned candidates are fresh values. out.Data is left untouched, so
// decoding the same output twice yields identical results.
//
// Arguments:
//   - out: The raw network output.
//   - cfg: Threshold, input size and expected anchor count.
//
// Returns:
//   - []Candidate: Surviving candidates in anchor order, possibly empty.
//   - error: ErrShapeMismatch for malformed output.
func Decode(out *RawOutput, cfg DecodeConfig) ([]Candidate, error) {
	if err := validate(out, cfg); err != nil {
		return nil, err
	}

	records, err := transpose(out)
	if err != nil {
		return nil, err
	}

	limit := float32(cfg.InputSize - 1)
	candidates := make([]Candidate, 0)

	for a := 0; a < out.Cols; a++ {
		record := records[a*CandidateSize : (a+1)*CandidateSize]
		if record[confidenceOffset] <= cfg.ConfidenceThreshold {
			continue
		}

		var c Candidate
		copy(c[:], record)

		cx, cy, w, h := record[0], record[1], record[2], record[3]
		c[0] = clamp(cx-w/2, limit)
		c[1] = clamp(cy-h/2, limit)
		c[2] = clamp(cx+w/2, limit)
		c[3] = clamp(cy+h/2, limit)

		candidates = append(candidates, c)
	}

	return candidates, nil
}

// clamp limits v to [0, limit].
func clamp(v, limit float32) float32 {
	return math32.Min(math32.Max(v, 0), limit)
}

func validate(out *RawOutput, cfg DecodeConfig) error {
	if out == nil {
		return errors.Wrap(ErrShapeMismatch, "nil output")
	}
	if out.Rows != CandidateSize {
		return errors.Wrapf(ErrShapeMismatch, "got %d rows, expected %d", out.Rows, CandidateSize)
	}
	if cfg.Anchors > 0 && out.Cols != cfg.Anchors {
		return errors.Wrapf(ErrShapeMismatch, "got %d anchors, expected %d", out.Cols, cfg.Anchors)
	}
	if out.Cols <= 0 || len(out.Data) != out.Rows*out.Cols {
		return errors.Wrapf(ErrShapeMismatch, "%d values for %dx%d", len(out.Data), out.Rows, out.Cols)
	}
	return nil
}

// transpose returns a cols x rows copy of the output.
func transpose(out *RawOutput) ([]float32, error) {
	backing := make([]float32, len(out.Data))
	copy(backing, out.Data)

	t := tensor.New(tensor.WithShape(out.Rows, out.Cols), tensor.WithBacking(backing))
	if err := t.T(); err != nil {
		return nil, errors.Wrap(err, "transpose")
	}
	if err := t.Transpose(); err != nil {
		return nil, errors.Wrap(err, "materialize transpose")
	}
	return t.Float32s(), nil
}
