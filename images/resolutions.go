package images

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AspectRatio represents a camera aspect ratio by name (e.g., "16:9").
type AspectRatio string

// Defines standard and common aspect ratios for capture devices.
const (
	AspectRatio169 AspectRatio = "16:9"
	AspectRatio43  AspectRatio = "4:3"
	AspectRatio54  AspectRatio = "5:4"
	AspectRatio11  AspectRatio = "1:1"
)

// Ratio returns the width and height terms of the ratio.
//
// Returns:
//   - float32: The width term.
//   - float32: The height term.
//   - error: If the ratio is not of the form "W:H" with positive terms.
func (a AspectRatio) Ratio() (float32, float32, error) {
	w, h, ok := strings.Cut(string(a), ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid aspect ratio %q", a)
	}
	fw, err := strconv.ParseFloat(w, 32)
	if err != nil || fw <= 0 {
		return 0, 0, fmt.Errorf("invalid aspect ratio %q", a)
	}
	fh, err := strconv.ParseFloat(h, 32)
	if err != nil || fh <= 0 {
		return 0, 0, fmt.Errorf("invalid aspect ratio %q", a)
	}
	return float32(fw), float32(fh), nil
}

// ResolutionType represents a common name for a capture resolution.
type ResolutionType string

// Capture resolutions offered by webcams and IP cameras.
const (
	ResolutionTypeVGA      ResolutionType = "VGA"
	ResolutionTypeNHD      ResolutionType = "nHD"
	ResolutionTypeQHD540   ResolutionType = "qHD 540p"
	ResolutionTypeHD720p   ResolutionType = "HD 720p"
	ResolutionType1MP54    ResolutionType = "1MP (5:4)"
	ResolutionTypeFHD1080p ResolutionType = "Full HD 1080p"
	ResolutionType2MP43    ResolutionType = "2MP (4:3)"
	ResolutionTypeQHD1440p ResolutionType = "QHD 1440p"
	ResolutionType4KUHD    ResolutionType = "4K UHD"
)

// ResolutionPixels describes the exact dimensions of a resolution.
type ResolutionPixels struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Resolution describes a capture resolution standard.
type Resolution struct {
	Name        ResolutionType   `json:"name"`
	Alias       string           `json:"alias"`
	AspectRatio AspectRatio      `json:"aspectRatio"`
	Pixels      ResolutionPixels `json:"pixels"`
}

// GetMegaPixels calculates the megapixel value based on the resolution's pixel dimensions.
// It returns the value rounded to two decimal places (e.g., 2.07 for 1080p).
func (r Resolution) GetMegaPixels() float64 {
	if r.Pixels.Width <= 0 || r.Pixels.Height <= 0 {
		return 0.0
	}
	mp := float64(r.Pixels.Width*r.Pixels.Height) / 1_000_000.0
	return math.Round(mp*100) / 100
}

// String returns a human-readable summary of the resolution.
func (r Resolution) String() string {
	return fmt.Sprintf("%s (%dx%d, %.2fMP)", r.Name, r.Pixels.Width, r.Pixels.Height, r.GetMegaPixels())
}

// resolutions lists the presets from smallest to largest.
var resolutions = []Resolution{
	{Name: ResolutionTypeVGA, Alias: "480p", AspectRatio: AspectRatio43, Pixels: ResolutionPixels{Width: 640, Height: 480}},
	{Name: ResolutionTypeNHD, Alias: "360p", AspectRatio: AspectRatio169, Pixels: ResolutionPixels{Width: 640, Height: 360}},
	{Name: ResolutionTypeQHD540, Alias: "540p", AspectRatio: AspectRatio169, Pixels: ResolutionPixels{Width: 960, Height: 540}},
	{Name: ResolutionTypeHD720p, Alias: "720p", AspectRatio: AspectRatio169, Pixels: ResolutionPixels{Width: 1280, Height: 720}},
	{Name: ResolutionType1MP54, Alias: "1mp", AspectRatio: AspectRatio54, Pixels: ResolutionPixels{Width: 1280, Height: 1024}},
	{Name: ResolutionTypeFHD1080p, Alias: "1080p", AspectRatio: AspectRatio169, Pixels: ResolutionPixels{Width: 1920, Height: 1080}},
	{Name: ResolutionType2MP43, Alias: "2mp", AspectRatio: AspectRatio43, Pixels: ResolutionPixels{Width: 1600, Height: 1200}},
	{Name: ResolutionTypeQHD1440p, Alias: "1440p", AspectRatio: AspectRatio169, Pixels: ResolutionPixels{Width: 2560, Height: 1440}},
	{Name: ResolutionType4KUHD, Alias: "4k", AspectRatio: AspectRatio169, Pixels: ResolutionPixels{Width: 3840, Height: 2160}},
}

// GetAllResolutions returns every preset ordered by pixel count.
func GetAllResolutions() []Resolution {
	return append([]Resolution(nil), resolutions...)
}

// ParseResolution finds a preset by alias ("720p") or name ("HD 720p"),
// ignoring case.
//
// Arguments:
//   - s: The alias or name.
//
// Returns:
//   - Resolution: The preset.
//   - error: If no preset matches.
func ParseResolution(s string) (Resolution, error) {
	for _, r := range resolutions {
		if strings.EqualFold(s, r.Alias) || strings.EqualFold(s, string(r.Name)) {
			return r, nil
		}
	}
	return Resolution{}, fmt.Errorf("unknown resolution %q", s)
}

// GetHighestResolutionUnderDimensions retrieves the highest resolution that fits within the
// given width and height.
//
// Arguments:
//   - width: The maximum possible width of the image.
//   - height: The maximum possible height of the image.
//
// Returns:
//   - Resolution: The highest resolution that is under the given width and height.
//   - bool: True if a resolution was found, otherwise false.
func GetHighestResolutionUnderDimensions(width, height int) (Resolution, bool) {
	var highest Resolution
	var found bool

	for _, res := range resolutions {
		if res.Pixels.Width <= width && res.Pixels.Height <= height {
			if !found || res.GetMegaPixels() > highest.GetMegaPixels() {
				highest = res
				found = true
			}
		}
	}
	return highest, found
}
