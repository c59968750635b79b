package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nvr-ai/go-pose/config"
	"github.com/nvr-ai/go-pose/inference/detectors"
	"github.com/nvr-ai/go-pose/inference/providers"
	"github.com/nvr-ai/go-pose/server"
	log "github.com/sirupsen/logrus"
)

func main() {
	var (
		envFile  = flag.String("env", ".env", "Path to a .env file")
		addr     = flag.String("addr", "", "Listen address (overrides POSE_ADDR)")
		model    = flag.String("model", "", "Path to the yolov8n-pose ONNX model (overrides POSE_MODEL_PATH)")
		provider = flag.String("provider", "", "Execution provider: cpu, coreml, cuda or openvino")
	)
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *model != "" {
		cfg.ModelPath = *model
	}
	if *provider != "" {
		cfg.Provider = *provider
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	logger, err := cfg.Logger()
	if err != nil {
		log.WithError(err).Fatal("failed to configure logging")
	}

	detector, err := detectors.Open(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to open pose detector")
	}
	defer func() {
		if err := detector.Close(); err != nil {
			logger.WithError(err).Warn("failed to close detector")
		}
		if err := providers.DestroyEnvironment(); err != nil {
			logger.WithError(err).Warn("failed to destroy onnxruntime environment")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(detector,
		server.WithLogger(logger),
		server.WithKeypointThreshold(cfg.KeypointThreshold),
	)
	go srv.Run(ctx)

	httpServer := &http.Server{
		Handler:      srv.Router(),
		Addr:         cfg.Addr,
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("shutdown did not complete")
		}
	}()

	logger.WithField("addr", httpServer.Addr).Info("starting pose server")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("server stopped")
	}
}
