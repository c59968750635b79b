// Package detectors - Single-frame pose detection.
package detectors

import (
	"context"
	"image"
	"time"

	"github.com/nvr-ai/go-pose/inference"
	"github.com/nvr-ai/go-pose/models/model"
	"github.com/nvr-ai/go-pose/models/postprocess"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Timings records how long each stage of a frame took.
type Timings struct {
	Preprocess  time.Duration `json:"preprocess"`
	Inference   time.Duration `json:"inference"`
	Postprocess time.Duration `json:"postprocess"`
	Total       time.Duration `json:"total"`
}

// Result is the outcome of one frame.
type Result struct {
	// Detections are in descending confidence with pairwise IoU below the
	// NMS threshold. The slice is never nil.
	Detections []postprocess.Candidate
	// Size is the source frame size.
	Size    image.Point
	Timings Timings
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the logger used for per-frame debug output.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(d *Detector) {
		d.logger = logger
	}
}

// Detector runs preprocess, inference, decode and NMS for one frame at a time.
type Detector struct {
	model  model.Model
	engine inference.Engine
	logger logrus.FieldLogger
}

// NewDetector creates a detector over a model and an engine.
//
// Arguments:
//   - m: The model that converts frames and decodes output.
//   - e: The engine that runs the network.
//   - opts: Optional settings.
//
// Returns:
//   - *Detector: The detector.
//   - error: If the model or engine is missing.
func NewDetector(m model.Model, e inference.Engine, opts ...Option) (*Detector, error) {
	if m == nil {
		return nil, errors.New("detector requires a model")
	}
	if e == nil {
		return nil, errors.New("detector requires an engine")
	}

	d := &Detector{
		model:  m,
		engine: e,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Model returns the model the detector was built with.
func (d *Detector) Model() model.Model {
	return d.model
}

// Detect runs one frame through the pipeline.
//
// Arguments:
//   - ctx: Cancels the frame before inference starts.
//   - img: The source frame.
//
// Returns:
//   - *Result: The detections and stage timings.
//   - error: A preprocessing, engine or decode error.
func (d *Detector) Detect(ctx context.Context, img image.Image) (*Result, error) {
	start := time.Now()

	tensor, err := d.model.PreProcess(img)
	if err != nil {
		return nil, errors.Wrap(err, "preprocess")
	}
	defer d.model.Release(tensor)
	preprocessed := time.Now()

	raw, err := d.engine.Run(ctx, tensor)
	if err != nil {
		return nil, errors.Wrap(err, "inference")
	}
	inferred := time.Now()

	detections, err := d.model.PostProcess(raw)
	if err != nil {
		return nil, errors.Wrap(err, "postprocess")
	}
	done := time.Now()

	result := &Result{
		Detections: detections,
		Size:       img.Bounds().Size(),
		Timings: Timings{
			Preprocess:  preprocessed.Sub(start),
			Inference:   inferred.Sub(preprocessed),
			Postprocess: done.Sub(inferred),
			Total:       done.Sub(start),
		},
	}

	d.logger.WithFields(logrus.Fields{
		"detections": len(detections),
		"duration":   result.Timings.Total,
	}).Debug("frame processed")

	return result, nil
}

// Close releases the engine.
func (d *Detector) Close() error {
	return d.engine.Close()
}
