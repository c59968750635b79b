package render

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nvr-ai/go-pose/models/postprocess"
	"gocv.io/x/gocv"
)

// Style controls overlay appearance.
type Style struct {
	PointColor     color.RGBA
	PointRadius    int
	LineThickness  int
	KeypointThresh float32
	// LimbColors colours postprocess.Skeleton edge i with LimbColors[i%len].
	// Empty draws every limb in LineColor.
	LimbColors []color.RGBA
	LineColor  color.RGBA
	// BoxColor draws the detection box when its alpha is non-zero.
	BoxColor color.RGBA
}

// DefaultStyle draws red joints and one hue per limb.
func DefaultStyle() Style {
	return Style{
		PointColor:     color.RGBA{R: 255, A: 255},
		PointRadius:    5,
		LineThickness:  3,
		KeypointThresh: postprocess.DefaultKeypointThreshold,
		LimbColors:     Palette(len(postprocess.Skeleton)),
		LineColor:      color.RGBA{R: 255, G: 255, A: 255},
	}
}

// Palette returns n colours with evenly spaced hues at constant chroma and
// lightness.
func Palette(n int) []color.RGBA {
	out := make([]color.RGBA, n)
	for i := range out {
		c := colorful.Hcl(float64(i)*360/float64(n), 0.7, 0.7).Clamped()
		r, g, b := c.RGB255()
		out[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

// Draw renders detections onto mat: the box when enabled, skeleton limbs
// between visible keypoints, then the keypoints themselves.
//
// Arguments:
//   - mat: The BGR frame to draw on.
//   - detections: Detections in model input coordinates.
//   - p: The model-to-frame projection.
//   - style: Colours, sizes and the keypoint threshold.
func Draw(mat *gocv.Mat, detections []postprocess.Candidate, p Projection, style Style) {
	for i := range detections {
		det := &detections[i]

		if style.BoxColor.A != 0 {
			box := det.Box()
			x1, y1 := p.Apply(box.X1, box.Y1)
			x2, y2 := p.Apply(box.X2, box.Y2)
			gocv.Rectangle(mat, image.Rect(int(x1), int(y1), int(x2), int(y2)), style.BoxColor, 2)
		}

		points := Project(det, p, style.KeypointThresh)
		for _, s := range Segments(points) {
			gocv.Line(mat, toPoint(s.From), toPoint(s.To), style.limbColor(s.Limb), style.LineThickness)
		}
		for _, pt := range points {
			if pt.Visible {
				gocv.Circle(mat, toPoint(pt), style.PointRadius, style.PointColor, -1)
			}
		}
	}
}

func (s Style) limbColor(limb postprocess.Limb) color.RGBA {
	if len(s.LimbColors) == 0 {
		return s.LineColor
	}
	for i, l := range postprocess.Skeleton {
		if l == limb {
			return s.LimbColors[i%len(s.LimbColors)]
		}
	}
	return s.LineColor
}

func toPoint(p Point) image.Point {
	return image.Pt(int(p.X+0.5), int(p.Y+0.5))
}
