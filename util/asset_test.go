package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterializeModel(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bundle", "yolov8n-pose.onnx")
	dst := filepath.Join(dir, "cache", "models", "yolov8n-pose.onnx")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("onnx-model-bytes"), 0o644))

	require.NoError(t, MaterializeModel(src, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "onnx-model-bytes", string(data))

	// A second call with an up-to-date copy leaves it untouched.
	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(dst, past, past))
	require.NoError(t, MaterializeModel(src, dst))
	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(past))

	entries, err := os.ReadDir(filepath.Dir(dst))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestMaterializeModel_ReplacesStaleCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.onnx")
	dst := filepath.Join(dir, "dst.onnx")
	require.NoError(t, os.WriteFile(src, []byte("new model"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0o644))

	require.NoError(t, MaterializeModel(src, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new model", string(data))
}

func TestMaterializeModel_MissingSource(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst.onnx")

	err := MaterializeModel(filepath.Join(dir, "missing.onnx"), dst)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NoFileExists(t, dst)

	assert.Error(t, MaterializeModel(dir, dst))
}
