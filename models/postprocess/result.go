// Package postprocess - Postprocessing utilities for pose models.
package postprocess

import "github.com/nvr-ai/go-pose/images"

const (
	// NumKeypoints is the number of body keypoints per detection.
	NumKeypoints = 17
	// CandidateSize is the length of one candidate record: four box values,
	// one confidence and seventeen keypoint triplets.
	CandidateSize = 5 + NumKeypoints*3

	confidenceOffset = 4
	keypointOffset   = 5
)

// Candidate is one decoded detection record.
//
// Offsets 0-3 hold the box corners x1, y1, x2, y2 in model input pixels,
// offset 4 holds the detection confidence, and keypoint k occupies offsets
// 5+3k (x), 6+3k (y) and 7+3k (confidence).
type Candidate [CandidateSize]float32

// Box returns the bounding box corners.
func (c *Candidate) Box() images.Rect {
	return images.Rect{X1: c[0], Y1: c[1], X2: c[2], Y2: c[3]}
}

// Confidence returns the detection confidence.
func (c *Candidate) Confidence() float32 {
	return c[confidenceOffset]
}

// Keypoint returns the coordinates and confidence of keypoint k.
func (c *Candidate) Keypoint(k Keypoint) KeypointValue {
	base := keypointOffset + int(k)*3
	return KeypointValue{
		X:          c[base],
		Y:          c[base+1],
		Confidence: c[base+2],
	}
}

// Keypoints returns all seventeen keypoints in index order.
func (c *Candidate) Keypoints() [NumKeypoints]KeypointValue {
	var out [NumKeypoints]KeypointValue
	for k := range out {
		out[k] = c.Keypoint(Keypoint(k))
	}
	return out
}

// KeypointValue is a single keypoint in model input pixels.
type KeypointValue struct {
	X          float32
	Y          float32
	Confidence float32
}

// Visible reports whether the keypoint confidence is strictly above threshold.
func (k KeypointValue) Visible(threshold float32) bool {
	return k.Confidence > threshold
}
