package util

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// MaterializeModel copies a bundled model file to a writable location.
//
// The copy is skipped when dst already exists with the same size as src. The
// data is written to a temporary file in the destination directory and renamed
// into place, so a failed copy never leaves a partial model at dst.
//
// Arguments:
//   - src: Path to the bundled model.
//   - dst: Path the session will load the model from.
//
// Returns:
//   - error: Error if src cannot be read or dst cannot be written.
func MaterializeModel(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return errors.Wrapf(err, "model asset %s", src)
	}
	if info.IsDir() {
		return errors.Errorf("model asset %s is a directory", src)
	}

	if existing, err := os.Stat(dst); err == nil && existing.Size() == info.Size() {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "open model asset %s", src)
	}
	defer in.Close()

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create model directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(dst)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temporary model file")
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "copy model to %s", dst)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "flush model to %s", dst)
	}

	return errors.Wrapf(os.Rename(tmp.Name(), dst), "install model at %s", dst)
}
