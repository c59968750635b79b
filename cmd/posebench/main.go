package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nvr-ai/go-pose/benchmark"
	"github.com/nvr-ai/go-pose/config"
	"github.com/nvr-ai/go-pose/inference/detectors"
	"github.com/nvr-ai/go-pose/inference/providers"
	log "github.com/sirupsen/logrus"
)

func main() {
	var (
		envFile    = flag.String("env", ".env", "Path to a .env file")
		outputDir  = flag.String("output", "./benchmark_results", "Output directory for results")
		testImages = flag.String("images", "", "Path to test images directory")
		modelPath  = flag.String("model", "", "Path to ONNX model file")
		backends   = flag.String("providers", "cpu", "Comma-separated execution providers to compare")
		iterations = flag.Int("iterations", 100, "Measured frames per scenario")
		warmup     = flag.Int("warmup", 5, "Unmeasured frames before each scenario")
		timeout    = flag.Duration("timeout", 30*time.Minute, "Benchmark timeout duration")
	)
	flag.Parse()

	if *testImages == "" {
		log.Fatal("Test images path is required (-images)")
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if *modelPath != "" {
		cfg.ModelPath = *modelPath
	}
	logger, err := cfg.Logger()
	if err != nil {
		log.WithError(err).Fatal("failed to configure logging")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer providers.DestroyEnvironment()

	var saved *benchmark.Suite
	for _, backend := range strings.Split(*backends, ",") {
		backend = strings.TrimSpace(backend)
		run := cfg
		run.Provider = backend

		detector, err := detectors.Open(run, logger)
		if err != nil {
			logger.WithError(err).WithField("provider", backend).Error("skipping provider")
			continue
		}

		suite := benchmark.NewSuite(detector, *outputDir, logger)
		if saved != nil {
			for _, r := range saved.GetResults() {
				suite.AddResult(r)
			}
		}
		if err := suite.LoadTestImages(*testImages); err != nil {
			detector.Close()
			logger.WithError(err).Fatal("failed to load test images")
		}
		suite.AddScenario(benchmark.Scenario{
			Name:              run.ModelName + "-" + backend,
			Model:             run.ModelName,
			Provider:          backend,
			Iterations:        *iterations,
			WarmupRuns:        *warmup,
			KeypointThreshold: run.KeypointThreshold,
		})

		err = suite.RunAllScenarios(ctx)
		detector.Close()
		if err != nil {
			logger.WithError(err).Error("benchmark interrupted")
			break
		}
		saved = suite
	}

	if saved == nil {
		logger.Fatal("no scenario completed")
	}
	resultsFile, summaryFile, err := saved.SaveResults()
	if err != nil {
		logger.WithError(err).Fatal("failed to save results")
	}
	logger.WithFields(log.Fields{"results": resultsFile, "summary": summaryFile}).Info("benchmark complete")
}
