package util

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, A: 255})
	require.NoError(t, imaging.Save(img, path))
}

func TestLoadDirectoryImages(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "frame-2.png"), 8, 4)
	writeImage(t, filepath.Join(dir, "frame-1.jpg"), 16, 9)
	writeImage(t, filepath.Join(dir, "frame-3.BMP"), 2, 2)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0o755))

	images, err := LoadDirectoryImageFiles(dir)
	require.NoError(t, err)
	require.Len(t, images, 3)

	assert.Equal(t, "frame-1.jpg", filepath.Base(images[0].Path))
	assert.Equal(t, "frame-2.png", filepath.Base(images[1].Path))
	assert.Equal(t, "frame-3.BMP", filepath.Base(images[2].Path))
	assert.Equal(t, image.Pt(16, 9), images[0].Image.Bounds().Size())
	assert.Equal(t, image.Pt(8, 4), images[1].Image.Bounds().Size())
}

func TestLoadDirectoryImages_Errors(t *testing.T) {
	_, err := LoadDirectoryImageFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0o644))
	_, err = LoadDirectoryImageFiles(dir)
	assert.ErrorContains(t, err, "broken.png")
}
