// Package postprocess - provides Non-Maximum Suppression for pose candidates.
package postprocess

import (
	"sort"

	"github.com/nvr-ai/go-pose/images"
)

// NMSConfig defines parameters for Non-Maximum Suppression.
type NMSConfig struct {
	IoUThreshold float32 // Candidates overlapping a kept one by at least this much are dropped.
}

// DefaultNMSConfig returns an IoU threshold of 0.5.
func DefaultNMSConfig() *NMSConfig {
	return &NMSConfig{IoUThreshold: 0.5}
}

// ApplyNMS performs greedy Non-Maximum Suppression.
//
// Candidates are sorted once by descending confidence; ties keep their input
// order. The highest remaining candidate is kept and every other candidate
// whose IoU with it is at or above the threshold is dropped, until none remain.
//
// Arguments:
//   - candidates: Decoded candidates in any order. The slice is not modified.
//   - config: NMS configuration. nil uses DefaultNMSConfig.
//
// Returns:
//   - Kept candidates in descending confidence, never nil.
func ApplyNMS(candidates []Candidate, config *NMSConfig) []Candidate {
	if config == nil {
		config = DefaultNMSConfig()
	}

	n := len(candidates)
	filtered := make([]Candidate, 0, n)
	if n == 0 {
		return filtered
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return candidates[order[a]].Confidence() > candidates[order[b]].Confidence()
	})

	boxes := make([]images.Rect, n)
	for i := range candidates {
		boxes[i] = candidates[i].Box()
	}

	used := make([]bool, n)
	for i, anchor := range order {
		if used[i] {
			continue
		}
		filtered = append(filtered, candidates[anchor])
		used[i] = true

		for j := i + 1; j < n; j++ {
			if used[j] {
				continue
			}
			if images.CalculateIoU(boxes[anchor], boxes[order[j]]) >= config.IoUThreshold {
				used[j] = true
			}
		}
	}

	return filtered
}
