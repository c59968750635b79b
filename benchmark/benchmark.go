package benchmark

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/nvr-ai/go-pose/inference/detectors"
	"github.com/nvr-ai/go-pose/models/postprocess"
	"github.com/nvr-ai/go-pose/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Detector runs pose detection on one frame.
type Detector interface {
	Detect(ctx context.Context, img image.Image) (*detectors.Result, error)
}

// Scenario defines a specific test configuration
type Scenario struct {
	Name              string  `json:"name"`
	Model             string  `json:"model"`
	Provider          string  `json:"provider"`
	Iterations        int     `json:"iterations"`
	WarmupRuns        int     `json:"warmup_runs"`
	KeypointThreshold float32 `json:"keypoint_threshold"`
}

// Suite manages and executes benchmark scenarios
type Suite struct {
	detector  Detector
	outputDir string
	logger    logrus.FieldLogger

	mu         sync.RWMutex
	scenarios  []Scenario
	testImages []image.Image
	results    []PerformanceMetrics
}

// NewSuite creates a new benchmark suite
func NewSuite(detector Detector, outputDir string, logger logrus.FieldLogger) *Suite {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Suite{
		detector:  detector,
		outputDir: outputDir,
		logger:    logger,
	}
}

// AddScenario adds a test scenario to the benchmark suite
func (bs *Suite) AddScenario(scenario Scenario) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.scenarios = append(bs.scenarios, scenario)
}

// AddImages appends frames to the test set.
func (bs *Suite) AddImages(images ...image.Image) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.testImages = append(bs.testImages, images...)
}

// LoadTestImages loads test images from a directory.
func (bs *Suite) LoadTestImages(dir string) error {
	files, err := util.LoadDirectoryImageFiles(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.Errorf("no valid images found in directory: %s", dir)
	}
	for _, f := range files {
		bs.AddImages(f.Image)
	}
	return nil
}

// AddResult records a result from an earlier run so SaveResults includes it.
func (bs *Suite) AddResult(result PerformanceMetrics) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.results = append(bs.results, result)
}

// RunScenario executes a single benchmark scenario
func (bs *Suite) RunScenario(ctx context.Context, scenario Scenario) (*PerformanceMetrics, error) {
	bs.mu.RLock()
	frames := bs.testImages
	bs.mu.RUnlock()

	if len(frames) == 0 {
		return nil, errors.New("no test images loaded")
	}
	if scenario.Iterations <= 0 {
		return nil, errors.Errorf("scenario %s: iterations must be positive", scenario.Name)
	}
	threshold := scenario.KeypointThreshold
	if threshold == 0 {
		threshold = postprocess.DefaultKeypointThreshold
	}

	for i := 0; i < scenario.WarmupRuns; i++ {
		if _, err := bs.detector.Detect(ctx, frames[i%len(frames)]); err != nil {
			bs.logger.WithError(err).WithField("scenario", scenario.Name).Debug("warmup frame failed")
		}
	}

	metrics := &PerformanceMetrics{
		Scenario:  scenario,
		Timestamp: time.Now(),
		Frames:    make([]time.Duration, 0, scenario.Iterations),
	}

	var startMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&startMem)

	failures := 0
	startTime := time.Now()
	for i := 0; i < scenario.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frameStart := time.Now()
		result, err := bs.detector.Detect(ctx, frames[i%len(frames)])
		if err != nil {
			failures++
			if metrics.Errors == nil {
				metrics.Errors = make(map[string]int)
			}
			metrics.Errors[err.Error()]++
			continue
		}
		metrics.Frames = append(metrics.Frames, time.Since(frameStart))

		metrics.PreprocessDuration += result.Timings.Preprocess
		metrics.InferenceDuration += result.Timings.Inference
		metrics.PostProcessDuration += result.Timings.Postprocess
		metrics.DetectionCount += len(result.Detections)
		for j := range result.Detections {
			for _, kp := range result.Detections[j].Keypoints() {
				if kp.Visible(threshold) {
					metrics.KeypointCount++
				}
			}
		}
	}
	metrics.TotalDuration = time.Since(startTime)

	var endMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&endMem)

	metrics.Latency = NewLatencyMetrics(metrics.Frames)
	if metrics.TotalDuration > 0 {
		metrics.FramesPerSecond = float64(len(metrics.Frames)) / metrics.TotalDuration.Seconds()
	}
	metrics.ErrorRate = float64(failures) / float64(scenario.Iterations)
	metrics.MemoryStats = MemoryMetrics{
		AllocBytes:      endMem.Alloc,
		TotalAllocBytes: endMem.TotalAlloc - startMem.TotalAlloc,
		SysBytes:        endMem.Sys,
		NumGC:           endMem.NumGC - startMem.NumGC,
		HeapAllocBytes:  endMem.HeapAlloc,
		HeapSysBytes:    endMem.HeapSys,
	}

	return metrics, nil
}

// RunAllScenarios executes all configured benchmark scenarios
func (bs *Suite) RunAllScenarios(ctx context.Context) error {
	bs.mu.Lock()
	scenarios := make([]Scenario, len(bs.scenarios))
	copy(scenarios, bs.scenarios)
	bs.mu.Unlock()

	for _, scenario := range scenarios {
		metrics, err := bs.RunScenario(ctx, scenario)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			bs.logger.WithError(err).WithField("scenario", scenario.Name).Error("scenario failed")
			continue
		}

		bs.mu.Lock()
		bs.results = append(bs.results, *metrics)
		bs.mu.Unlock()

		bs.logger.WithFields(logrus.Fields{
			"scenario": scenario.Name,
			"fps":      fmt.Sprintf("%.2f", metrics.FramesPerSecond),
			"p95":      metrics.Latency.P95,
		}).Info("scenario completed")
	}

	return nil
}

// SaveResults persists benchmark results to filesystem
//
// Returns:
//   - string: The JSON results file.
//   - string: The CSV summary file.
//   - error: If the output directory or files cannot be written.
func (bs *Suite) SaveResults() (string, string, error) {
	results := bs.GetResults()

	if err := os.MkdirAll(bs.outputDir, 0o755); err != nil {
		return "", "", errors.Wrap(err, "failed to create output directory")
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	resultsFile := filepath.Join(bs.outputDir, fmt.Sprintf("benchmark_results_%s.json", timestamp))

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", "", errors.Wrap(err, "failed to marshal results")
	}
	if err := os.WriteFile(resultsFile, data, 0o644); err != nil {
		return "", "", errors.Wrap(err, "failed to write results file")
	}

	summaryFile := filepath.Join(bs.outputDir, fmt.Sprintf("benchmark_summary_%s.csv", timestamp))
	if err := saveSummaryCSV(summaryFile, results); err != nil {
		return "", "", errors.Wrap(err, "failed to save summary CSV")
	}

	return resultsFile, summaryFile, nil
}

func saveSummaryCSV(filename string, results []PerformanceMetrics) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	rows := [][]string{{
		"Scenario", "Model", "Provider", "FPS", "P50_ms", "P95_ms",
		"Total_Duration_ms", "Detections", "Keypoints", "Error_Rate",
	}}
	for _, r := range results {
		rows = append(rows, []string{
			r.Scenario.Name,
			r.Scenario.Model,
			r.Scenario.Provider,
			strconv.FormatFloat(r.FramesPerSecond, 'f', 2, 64),
			strconv.FormatFloat(msec(r.Latency.P50), 'f', 2, 64),
			strconv.FormatFloat(msec(r.Latency.P95), 'f', 2, 64),
			strconv.FormatFloat(msec(r.TotalDuration), 'f', 2, 64),
			strconv.Itoa(r.DetectionCount),
			strconv.Itoa(r.KeypointCount),
			strconv.FormatFloat(r.ErrorRate, 'f', 4, 64),
		})
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return file.Close()
}

func msec(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// GetResults returns all benchmark results
func (bs *Suite) GetResults() []PerformanceMetrics {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	results := make([]PerformanceMetrics, len(bs.results))
	copy(results, bs.results)
	return results
}
