// Package util - File helpers for model assets and image directories.
package util

import (
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// ImageFile represents a decoded image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Image is the decoded image, rotated according to its EXIF orientation.
	Image image.Image
}

// LoadDirectoryImageFiles decodes all image files in a directory.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: The decoded images sorted by file name.
// - error: Error if the directory cannot be read or an image fails to decode.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read image directory %s", dir)
	}

	var images []ImageFile
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		switch strings.ToLower(filepath.Ext(file.Name())) {
		case ".jpg", ".jpeg", ".png", ".bmp":
			imgPath := filepath.Join(dir, file.Name())
			img, err := imaging.Open(imgPath, imaging.AutoOrientation(true))
			if err != nil {
				return nil, errors.Wrapf(err, "decode %s", imgPath)
			}
			images = append(images, ImageFile{Path: imgPath, Image: img})
		}
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].Path < images[j].Path
	})

	return images, nil
}
