// Package benchmark - Functionality for running benchmarks.
package benchmark

import (
	"sort"
	"time"
)

// PerformanceMetrics captures detailed performance data
type PerformanceMetrics struct {
	Scenario            Scenario        `json:"scenario"`
	Timestamp           time.Time       `json:"timestamp"`
	TotalDuration       time.Duration   `json:"total_duration"`
	PreprocessDuration  time.Duration   `json:"preprocess_duration"`
	InferenceDuration   time.Duration   `json:"inference_duration"`
	PostProcessDuration time.Duration   `json:"post_process_duration"`
	Latency             LatencyMetrics  `json:"latency"`
	FramesPerSecond     float64         `json:"frames_per_second"`
	MemoryStats         MemoryMetrics   `json:"memory_stats"`
	DetectionCount      int             `json:"detection_count"`
	KeypointCount       int             `json:"keypoint_count"`
	ErrorRate           float64         `json:"error_rate"`
	Errors              map[string]int  `json:"errors,omitempty"`
	Frames              []time.Duration `json:"-"`
}

// LatencyMetrics summarizes per-frame wall time.
type LatencyMetrics struct {
	Min  time.Duration `json:"min"`
	Mean time.Duration `json:"mean"`
	P50  time.Duration `json:"p50"`
	P95  time.Duration `json:"p95"`
	P99  time.Duration `json:"p99"`
	Max  time.Duration `json:"max"`
}

// MemoryMetrics captures memory usage statistics
type MemoryMetrics struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	SysBytes        uint64 `json:"sys_bytes"`
	NumGC           uint32 `json:"num_gc"`
	HeapAllocBytes  uint64 `json:"heap_alloc_bytes"`
	HeapSysBytes    uint64 `json:"heap_sys_bytes"`
}

// NewLatencyMetrics computes latency statistics with nearest-rank
// percentiles. The input is not modified.
func NewLatencyMetrics(frames []time.Duration) LatencyMetrics {
	if len(frames) == 0 {
		return LatencyMetrics{}
	}

	sorted := append([]time.Duration(nil), frames...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}

	return LatencyMetrics{
		Min:  sorted[0],
		Mean: total / time.Duration(len(sorted)),
		P50:  percentile(sorted, 50),
		P95:  percentile(sorted, 95),
		P99:  percentile(sorted, 99),
		Max:  sorted[len(sorted)-1],
	}
}

func percentile(sorted []time.Duration, p int) time.Duration {
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
