// Package images - Geometry primitives for detection boxes.
package images

import "github.com/chewxy/math32"

// Rect is an axis-aligned box in model input coordinates.
type Rect struct {
	// X1,Y1 is the top-left corner, X2,Y2 the bottom-right corner.
	X1, Y1, X2, Y2 float32
}

// Width returns the horizontal extent of the box.
func (r Rect) Width() float32 {
	return r.X2 - r.X1
}

// Height returns the vertical extent of the box.
func (r Rect) Height() float32 {
	return r.Y2 - r.Y1
}

// Center returns the centre point of the box.
func (r Rect) Center() (float32, float32) {
	return (r.X1 + r.X2) / 2, (r.Y1 + r.Y2) / 2
}

// Area returns Width * Height. Inverted boxes produce a negative area.
func (r Rect) Area() float32 {
	return r.Width() * r.Height()
}

// Overlap returns the 1-D overlap length of the intervals c1±w1/2 and c2±w2/2.
//
// The result is not clamped: a negative value means the intervals are disjoint
// by that distance, and callers must treat it as "no intersection".
//
// Arguments:
//   - c1, w1: Centre and width of the first interval.
//   - c2, w2: Centre and width of the second interval.
//
// Returns:
//   - float32: The signed overlap length.
func Overlap(c1, w1, c2, w2 float32) float32 {
	left := math32.Max(c1-w1/2, c2-w2/2)
	right := math32.Min(c1+w1/2, c2+w2/2)
	return right - left
}

// IntersectionArea returns the area shared by two boxes.
//
// Each axis overlap is taken straight from the corners, the same quantity
// Overlap measures in centre/width form. When either axis overlap is
// negative the boxes are disjoint and the area is 0.
//
// Arguments:
//   - a: The first box.
//   - b: The second box.
//
// Returns:
//   - float32: The intersection area, never negative and never larger than
//     either box.
func IntersectionArea(a, b Rect) float32 {
	w := math32.Min(a.X2, b.X2) - math32.Max(a.X1, b.X1)
	h := math32.Min(a.Y2, b.Y2) - math32.Max(a.Y1, b.Y1)
	if w < 0 || h < 0 {
		return 0
	}
	return w * h
}

// UnionArea returns area(a) + area(b) - IntersectionArea(a, b).
func UnionArea(a, b Rect) float32 {
	return a.Area() + b.Area() - IntersectionArea(a, b)
}

// CalculateIoU measures how much two boxes overlap as
// IntersectionArea / UnionArea.
//
//   - 1.0 means the boxes are identical.
//   - 0.0 means they do not overlap at all.
//
// Two degenerate (zero-area) boxes have a union of 0; the result is then 0
// instead of NaN.
//
// Arguments:
//   - a: The first box.
//   - b: The second box.
//
// Returns:
//   - float32: A value in [0, 1].
//
// Example:
//
// ```go
//
//	a := Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}
//	b := Rect{X1: 5, Y1: 5, X2: 15, Y2: 15}
//	iou := CalculateIoU(a, b) // 25 / 175 = 0.142857
//
// ```
func CalculateIoU(a, b Rect) float32 {
	union := UnionArea(a, b)
	if union <= 0 {
		return 0
	}
	return math32.Min(IntersectionArea(a, b)/union, 1)
}
