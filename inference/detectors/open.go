package detectors

import (
	"path/filepath"

	"github.com/nvr-ai/go-pose/config"
	"github.com/nvr-ai/go-pose/inference"
	"github.com/nvr-ai/go-pose/models"
	"github.com/nvr-ai/go-pose/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Open builds a detector backed by an ONNX Runtime session from cfg.
//
// When cfg.ModelCacheDir is set the model is first copied there and the
// session loads the copy. The session is never created when that copy fails.
//
// Arguments:
//   - cfg: A validated configuration.
//   - logger: Receives per-frame debug output.
//
// Returns:
//   - *Detector: The detector. Close it to release the session.
//   - error: If the model, provider or session cannot be set up.
func Open(cfg config.Config, logger logrus.FieldLogger) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	if cfg.ModelCacheDir != "" {
		dst := filepath.Join(cfg.ModelCacheDir, filepath.Base(cfg.ModelPath))
		if err := util.MaterializeModel(cfg.ModelPath, dst); err != nil {
			return nil, err
		}
		cfg.ModelPath = dst
	}

	m, err := models.NewModel(cfg.ModelArgs())
	if err != nil {
		return nil, err
	}

	provider, err := cfg.ProviderConfig()
	if err != nil {
		return nil, err
	}

	engine, err := inference.NewONNXEngine(m.Options(), provider)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"model":    m.Options().Name,
		"path":     cfg.ModelPath,
		"provider": provider.Backend,
	}).Info("pose detector ready")

	return NewDetector(m, engine, WithLogger(logger))
}
