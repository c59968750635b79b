// Package config - Runtime configuration for the pose binaries.
package config

import (
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/nvr-ai/go-pose/inference/providers"
	"github.com/nvr-ai/go-pose/models/model"
	"github.com/nvr-ai/go-pose/models/postprocess"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "POSE_"

// Config holds the pipeline constants and the service settings.
type Config struct {
	ModelName     string
	ModelPath     string
	ModelCacheDir string
	Provider      string
	LibraryPath   string

	InputSize           int
	Channels            int
	BatchSize           int
	Anchors             int
	ConfidenceThreshold float32
	IoUThreshold        float32
	KeypointThreshold   float32

	Addr      string
	LogLevel  string
	LogFormat string
}

// Default returns the yolov8n-pose defaults.
func Default() Config {
	return Config{
		ModelName:           string(model.ModelNameYOLOv8nPose),
		ModelPath:           "models/yolov8n-pose.onnx",
		Provider:            string(providers.CPUProviderBackend),
		InputSize:           640,
		Channels:            3,
		BatchSize:           1,
		Anchors:             8400,
		ConfidenceThreshold: 0.4,
		IoUThreshold:        0.5,
		KeypointThreshold:   0.35,
		Addr:                ":8080",
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

// Load reads the optional .env files and POSE_* environment variables on top
// of the defaults. Missing .env files are ignored. Variables already set in
// the environment win over .env values.
//
// Arguments:
//   - paths: .env files to read. Empty reads ./.env.
//
// Returns:
//   - Config: The merged configuration.
//   - error: Error if a file cannot be parsed or a value is malformed.
func Load(paths ...string) (Config, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, errors.Wrapf(err, "load %s", p)
		}
	}

	cfg := Default()
	cfg.ModelName = getEnv("MODEL_NAME", cfg.ModelName)
	cfg.ModelPath = getEnv("MODEL_PATH", cfg.ModelPath)
	cfg.ModelCacheDir = getEnv("MODEL_CACHE_DIR", cfg.ModelCacheDir)
	cfg.Provider = getEnv("PROVIDER", cfg.Provider)
	cfg.LibraryPath = getEnv("LIBRARY_PATH", cfg.LibraryPath)
	cfg.Addr = getEnv("ADDR", cfg.Addr)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)

	var err error
	if cfg.InputSize, err = getEnvAsInt("INPUT_SIZE", cfg.InputSize); err != nil {
		return Config{}, err
	}
	if cfg.Anchors, err = getEnvAsInt("ANCHORS", cfg.Anchors); err != nil {
		return Config{}, err
	}
	if cfg.ConfidenceThreshold, err = getEnvAsFloat("CONFIDENCE_THRESHOLD", cfg.ConfidenceThreshold); err != nil {
		return Config{}, err
	}
	if cfg.IoUThreshold, err = getEnvAsFloat("IOU_THRESHOLD", cfg.IoUThreshold); err != nil {
		return Config{}, err
	}
	if cfg.KeypointThreshold, err = getEnvAsFloat("KEYPOINT_THRESHOLD", cfg.KeypointThreshold); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks sizes, thresholds and enumerated values.
func (c Config) Validate() error {
	if c.ModelPath == "" {
		return errors.New("model path is required")
	}
	if c.InputSize <= 0 {
		return errors.Errorf("input size must be positive, got %d", c.InputSize)
	}
	if c.Channels != 3 {
		return errors.Errorf("channels must be 3, got %d", c.Channels)
	}
	if c.BatchSize != 1 {
		return errors.Errorf("batch size must be 1, got %d", c.BatchSize)
	}
	if c.Anchors <= 0 {
		return errors.Errorf("anchors must be positive, got %d", c.Anchors)
	}
	for name, v := range map[string]float32{
		"confidence threshold": c.ConfidenceThreshold,
		"iou threshold":        c.IoUThreshold,
		"keypoint threshold":   c.KeypointThreshold,
	} {
		if v <= 0 || v >= 1 {
			return errors.Errorf("%s must be in (0, 1), got %v", name, v)
		}
	}
	if _, err := providers.ParseBackend(c.Provider); err != nil {
		return err
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log level")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return errors.Errorf("log format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// ModelArgs returns the model constructor arguments.
func (c Config) ModelArgs() model.NewModelArgs {
	return model.NewModelArgs{
		Name:                model.Name(c.ModelName),
		Family:              model.ModelFamilyYOLO,
		Path:                c.ModelPath,
		InputSize:           c.InputSize,
		Anchors:             c.Anchors,
		ConfidenceThreshold: c.ConfidenceThreshold,
		KeypointThreshold:   c.KeypointThreshold,
		NMS:                 &postprocess.NMSConfig{IoUThreshold: c.IoUThreshold},
	}
}

// ProviderConfig returns the execution provider configuration with the
// provider's default options.
func (c Config) ProviderConfig() (providers.Config, error) {
	backend, err := providers.ParseBackend(c.Provider)
	if err != nil {
		return providers.Config{}, err
	}
	cfg := providers.DefaultConfig()
	cfg.Backend = backend
	cfg.LibraryPath = c.LibraryPath
	return cfg, nil
}

// Logger configures a logrus logger from LogLevel and LogFormat.
func (c Config) Logger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	logger := logrus.New()
	logger.SetLevel(level)
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, errors.Wrapf(err, "%s%s", EnvPrefix, key)
	}
	return n, nil
}

func getEnvAsFloat(key string, defaultValue float32) (float32, error) {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 32)
	if err != nil {
		return 0, errors.Wrapf(err, "%s%s", EnvPrefix, key)
	}
	return float32(f), nil
}
