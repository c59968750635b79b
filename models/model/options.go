// Package model - Inference precision hints.
//
// See:
// https://onnxruntime.ai/docs/execution-providers/OpenVINO-ExecutionProvider.html#summary-of-options
package model

import "fmt"

// Precision represents the numeric precision an accelerator runs the model at.
type Precision string

const (
	// PrecisionAccuracy keeps the model's own input precision.
	// (OpenVINO's default input precision type.)
	PrecisionAccuracy Precision = "ACCURACY"
	// PrecisionFP32 represents 32-bit floating point precision.
	PrecisionFP32 Precision = "FP32"
	// PrecisionFP16 represents 16-bit floating point precision.
	PrecisionFP16 Precision = "FP16"
	// PrecisionINT8 represents 8-bit integer precision.
	PrecisionINT8 Precision = "INT8"
)

// ParsePrecision validates a precision name. An empty string selects
// PrecisionFP32.
func ParsePrecision(s string) (Precision, error) {
	switch p := Precision(s); p {
	case "":
		return PrecisionFP32, nil
	case PrecisionAccuracy, PrecisionFP32, PrecisionFP16, PrecisionINT8:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported precision %q", s)
	}
}
