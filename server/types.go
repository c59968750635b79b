package server

import (
	"time"

	"github.com/nvr-ai/go-pose/inference/detectors"
	"github.com/nvr-ai/go-pose/models/postprocess"
)

// Box is a bounding box in model input pixels.
type Box struct {
	X1 float32 `json:"x1"`
	Y1 float32 `json:"y1"`
	X2 float32 `json:"x2"`
	Y2 float32 `json:"y2"`
}

// Keypoint is one named body keypoint.
type Keypoint struct {
	Name       string  `json:"name"`
	X          float32 `json:"x"`
	Y          float32 `json:"y"`
	Confidence float32 `json:"confidence"`
	Visible    bool    `json:"visible"`
}

// Detection is one person.
type Detection struct {
	Box        Box        `json:"box"`
	Confidence float32    `json:"confidence"`
	Keypoints  []Keypoint `json:"keypoints"`
}

// Timings reports stage durations in milliseconds.
type Timings struct {
	Decode      float64 `json:"decode_ms"`
	Preprocess  float64 `json:"preprocess_ms"`
	Inference   float64 `json:"inference_ms"`
	Postprocess float64 `json:"postprocess_ms"`
	Total       float64 `json:"total_ms"`
}

// Response is the body of a successful pose request and of each stream
// message.
type Response struct {
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Detections []Detection `json:"detections"`
	Timings    Timings     `json:"timings"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewResponse converts a detector result.
//
// Arguments:
//   - res: The detector result.
//   - decode: Time spent decoding the request body.
//   - threshold: Keypoint confidence required for Visible.
func NewResponse(res *detectors.Result, decode time.Duration, threshold float32) Response {
	out := Response{
		Width:      res.Size.X,
		Height:     res.Size.Y,
		Detections: make([]Detection, 0, len(res.Detections)),
		Timings: Timings{
			Decode:      ms(decode),
			Preprocess:  ms(res.Timings.Preprocess),
			Inference:   ms(res.Timings.Inference),
			Postprocess: ms(res.Timings.Postprocess),
			Total:       ms(decode + res.Timings.Total),
		},
	}

	for i := range res.Detections {
		c := &res.Detections[i]
		box := c.Box()
		det := Detection{
			Box:        Box{X1: box.X1, Y1: box.Y1, X2: box.X2, Y2: box.Y2},
			Confidence: c.Confidence(),
			Keypoints:  make([]Keypoint, postprocess.NumKeypoints),
		}
		for k, kp := range c.Keypoints() {
			det.Keypoints[k] = Keypoint{
				Name:       postprocess.Keypoint(k).String(),
				X:          kp.X,
				Y:          kp.Y,
				Confidence: kp.Confidence,
				Visible:    kp.Visible(threshold),
			}
		}
		out.Detections = append(out.Detections, det)
	}
	return out
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
