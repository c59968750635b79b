// Package controller - Keep-latest frame scheduling for the pose detector.
package controller

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nvr-ai/go-pose/inference/detectors"
	"github.com/sirupsen/logrus"
)

// Frame is a single frame of video.
type Frame struct {
	ID        uint64
	Image     image.Image
	Timestamp time.Time
}

// Detector is the part of detectors.Detector the controller needs.
type Detector interface {
	Detect(ctx context.Context, img image.Image) (*detectors.Result, error)
}

// Handler receives each processed frame with its result or error.
type Handler func(frame Frame, result *detectors.Result, err error)

// Stats counts frames through the controller.
type Stats struct {
	Submitted uint64 `json:"submitted"`
	Processed uint64 `json:"processed"`
	Dropped   uint64 `json:"dropped"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger for frame drops and failures.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// Controller hands frames to the detector one at a time. Frames that arrive
// while a frame is being processed replace each other; only the newest is
// processed next.
type Controller struct {
	detector Detector
	logger   logrus.FieldLogger

	mu      sync.Mutex
	pending *Frame
	wake    chan struct{}

	submitted atomic.Uint64
	processed atomic.Uint64
	dropped   atomic.Uint64
}

// New creates a controller for the detector.
func New(detector Detector, opts ...Option) *Controller {
	c := &Controller{
		detector: detector,
		logger:   logrus.StandardLogger(),
		wake:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit queues a frame without blocking. A frame still waiting from an
// earlier call is discarded.
//
// Arguments:
//   - frame: The newest frame.
//
// Returns:
//   - bool: true if a stale pending frame was dropped.
func (c *Controller) Submit(frame Frame) bool {
	c.submitted.Add(1)

	c.mu.Lock()
	stale := c.pending
	c.pending = &frame
	c.mu.Unlock()

	if stale != nil {
		c.dropped.Add(1)
		c.logger.WithFields(logrus.Fields{
			"frame":    stale.ID,
			"replaced": frame.ID,
		}).Debug("dropping stale frame")
	}

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return stale != nil
}

// Run processes frames until ctx is cancelled. Each frame runs to completion
// before the next is taken; a frame in flight when ctx is cancelled still
// finishes and reaches the handler.
//
// Arguments:
//   - ctx: Stops the loop.
//   - handler: Called once per processed frame from the Run goroutine.
//
// Returns:
//   - error: ctx.Err() once the loop stops.
func (c *Controller) Run(ctx context.Context, handler Handler) error {
	detectCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.wake:
		}

		frame, ok := c.take()
		if !ok {
			continue
		}

		result, err := c.detector.Detect(detectCtx, frame.Image)
		c.processed.Add(1)
		if err != nil {
			c.logger.WithError(err).WithField("frame", frame.ID).Warn("frame failed")
		}
		if handler != nil {
			handler(frame, result, err)
		}
	}
}

// take removes and returns the pending frame.
func (c *Controller) take() (Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return Frame{}, false
	}
	frame := *c.pending
	c.pending = nil
	return frame, true
}

// Stats returns the frame counters.
func (c *Controller) Stats() Stats {
	return Stats{
		Submitted: c.submitted.Load(),
		Processed: c.processed.Load(),
		Dropped:   c.dropped.Load(),
	}
}
