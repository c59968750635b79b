// Package render - Maps pose detections from model input space onto a view
// and draws skeleton overlays.
package render

import (
	"github.com/nvr-ai/go-pose/models/postprocess"
)

// Point is a keypoint in view coordinates.
type Point struct {
	X, Y float32
	// Visible is set when the keypoint confidence is above the threshold and
	// the projected point lies at positive view coordinates.
	Visible bool
}

// Projection maps model input pixels to view pixels:
// x' = x*ScaleX, y' = y*ScaleY - OffsetY.
type Projection struct {
	ScaleX  float32
	ScaleY  float32
	OffsetY float32
}

// FillWidth returns the projection for a square model input shown in a view
// whose width is filled by a frame of the given aspect ratio (16:9 for the
// phone camera preview), centred vertically.
//
// Arguments:
//   - viewW, viewH: The view size in pixels.
//   - inputSize: The model input side.
//   - aspectW, aspectH: The frame aspect ratio.
//
// Returns:
//   - Projection: ScaleX = viewW/inputSize, ScaleY = ScaleX*aspectH/aspectW,
//     OffsetY = (viewW*aspectH/aspectW - viewH)/2.
func FillWidth(viewW, viewH, inputSize int, aspectW, aspectH float32) Projection {
	scaleX := float32(viewW) / float32(inputSize)
	realH := float32(viewW) * aspectH / aspectW
	return Projection{
		ScaleX:  scaleX,
		ScaleY:  scaleX * aspectH / aspectW,
		OffsetY: (realH - float32(viewH)) / 2,
	}
}

// Stretch returns the projection that maps the square model input onto the
// whole view, the inverse of resizing the frame to the input.
func Stretch(viewW, viewH, inputSize int) Projection {
	return Projection{
		ScaleX: float32(viewW) / float32(inputSize),
		ScaleY: float32(viewH) / float32(inputSize),
	}
}

// Apply maps one point.
func (p Projection) Apply(x, y float32) (float32, float32) {
	return x * p.ScaleX, y*p.ScaleY - p.OffsetY
}

// Project maps all keypoints of a detection into the view.
//
// Arguments:
//   - c: The detection.
//   - p: The projection.
//   - threshold: The keypoint confidence a point needs to be visible.
//
// Returns:
//   - [17]Point: Keypoints in index order. Hidden points are left at 0,0.
func Project(c *postprocess.Candidate, p Projection, threshold float32) [postprocess.NumKeypoints]Point {
	var points [postprocess.NumKeypoints]Point
	for k := range points {
		kp := c.Keypoint(postprocess.Keypoint(k))
		if !kp.Visible(threshold) {
			continue
		}
		x, y := p.Apply(kp.X, kp.Y)
		points[k] = Point{X: x, Y: y, Visible: x > 0 && y > 0}
	}
	return points
}

// Segment is a skeleton edge in view coordinates.
type Segment struct {
	Limb     postprocess.Limb
	From, To Point
}

// Segments returns the skeleton edges whose endpoints are both visible.
func Segments(points [postprocess.NumKeypoints]Point) []Segment {
	segments := make([]Segment, 0, len(postprocess.Skeleton))
	for _, limb := range postprocess.Skeleton {
		from, to := points[limb.From], points[limb.To]
		if from.Visible && to.Visible {
			segments = append(segments, Segment{Limb: limb, From: from, To: to})
		}
	}
	return segments
}
