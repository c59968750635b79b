package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolution_GetMegaPixels(t *testing.T) {
	testCases := []struct {
		name     string
		res      Resolution
		expected float64
	}{
		{name: "1080p", res: mustParse(t, "1080p"), expected: 2.07},
		{name: "4K UHD", res: mustParse(t, "4k"), expected: 8.29},
		{name: "1MP (5:4)", res: mustParse(t, "1MP (5:4)"), expected: 1.31},
		{name: "zero width", res: Resolution{Pixels: ResolutionPixels{Width: 0, Height: 1080}}},
		{name: "negative height", res: Resolution{Pixels: ResolutionPixels{Width: 1920, Height: -1}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, tc.res.GetMegaPixels(), 1e-9)
		})
	}
}

func mustParse(t *testing.T, s string) Resolution {
	t.Helper()
	r, err := ParseResolution(s)
	require.NoError(t, err)
	return r
}

func TestParseResolution(t *testing.T) {
	r := mustParse(t, "720P")
	assert.Equal(t, ResolutionTypeHD720p, r.Name)
	assert.Equal(t, ResolutionPixels{Width: 1280, Height: 720}, r.Pixels)
	assert.Equal(t, "HD 720p (1280x720, 0.92MP)", r.String())

	assert.Equal(t, ResolutionTypeFHD1080p, mustParse(t, "full hd 1080p").Name)

	_, err := ParseResolution("8k")
	assert.Error(t, err)
}

func TestAspectRatio_Ratio(t *testing.T) {
	w, h, err := AspectRatio169.Ratio()
	require.NoError(t, err)
	assert.Equal(t, float32(16), w)
	assert.Equal(t, float32(9), h)

	for _, bad := range []AspectRatio{"", "16", "16:0", "a:b", "-4:3"} {
		_, _, err := bad.Ratio()
		assert.Error(t, err, "ratio %q", bad)
	}

	for _, r := range GetAllResolutions() {
		w, h, err := r.AspectRatio.Ratio()
		require.NoError(t, err, r.Name)
		assert.InDelta(t, float64(w)/float64(h), float64(r.Pixels.Width)/float64(r.Pixels.Height), 0.02, r.Name)
	}
}

func TestGetHighestResolutionUnderDimensions(t *testing.T) {
	r, ok := GetHighestResolutionUnderDimensions(1920, 1200)
	require.True(t, ok)
	assert.Equal(t, ResolutionTypeFHD1080p, r.Name)

	r, ok = GetHighestResolutionUnderDimensions(1600, 1200)
	require.True(t, ok)
	assert.Equal(t, ResolutionType2MP43, r.Name)

	r, ok = GetHighestResolutionUnderDimensions(1300, 800)
	require.True(t, ok)
	assert.Equal(t, ResolutionTypeHD720p, r.Name)

	_, ok = GetHighestResolutionUnderDimensions(320, 240)
	assert.False(t, ok)
}

func TestGetAllResolutions_Copy(t *testing.T) {
	all := GetAllResolutions()
	all[0].Alias = "changed"
	assert.Equal(t, "480p", GetAllResolutions()[0].Alias)
}
