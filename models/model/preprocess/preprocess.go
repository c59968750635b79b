// Package preprocess converts camera frames into planar float32 tensors.
package preprocess

import (
	"image"
	"image/color"
	"sync"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// Normalization divisor: 8-bit channel values are mapped to [0, 1].
const imageSTD = 255.0

var (
	// ErrNilImage is returned when Preprocess is called without an image.
	ErrNilImage = errors.New("image is nil")
	// ErrEmptyImage is returned for images with no pixels.
	ErrEmptyImage = errors.New("image has no pixels")
	// ErrBufferTooSmall is returned when a destination cannot hold the tensor.
	ErrBufferTooSmall = errors.New("destination buffer too small")
)

// Config defines the tensor shape expected by the pose network.
type Config struct {
	// InputSize is the side of the square network input, in pixels.
	InputSize int `json:"input_size" yaml:"input_size"`
	// Channels is the number of colour planes (3 for RGB).
	Channels int `json:"channels" yaml:"channels"`
	// BatchSize is the number of frames per tensor.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// DefaultConfig returns the YOLOv8-pose input shape [1, 3, 640, 640].
func DefaultConfig() Config {
	return Config{
		InputSize: 640,
		Channels:  3,
		BatchSize: 1,
	}
}

// Len returns the number of floats in a tensor of this shape.
func (c Config) Len() int {
	return c.BatchSize * c.Channels * c.InputSize * c.InputSize
}

// Shape returns the NCHW tensor shape.
func (c Config) Shape() []int64 {
	return []int64{int64(c.BatchSize), int64(c.Channels), int64(c.InputSize), int64(c.InputSize)}
}

// Validate checks that the configuration describes a single planar RGB frame.
func (c Config) Validate() error {
	if c.InputSize <= 0 {
		return errors.Errorf("input size must be positive, got %d", c.InputSize)
	}
	if c.Channels != 3 {
		return errors.Errorf("only 3-channel RGB input is supported, got %d", c.Channels)
	}
	if c.BatchSize != 1 {
		return errors.Errorf("only batch size 1 is supported, got %d", c.BatchSize)
	}
	return nil
}

// Tensor is a channel-major float32 buffer: all red values, then all green,
// then all blue.
type Tensor struct {
	// Data holds BatchSize*Channels*InputSize*InputSize values in [0, 1].
	Data []float32
	// Shape is [batch, channels, height, width].
	Shape []int64
}

// Preprocessor turns frames into network input tensors. It is safe for
// concurrent use; tensors are recycled through an internal pool.
type Preprocessor struct {
	config  Config
	tensors *sync.Pool
	pixels  *sync.Pool
}

// NewPreprocessor creates a new preprocessor with the given configuration.
//
// Arguments:
//   - config: The tensor shape to produce.
//
// Returns:
//   - *Preprocessor: A configured Preprocessor instance.
//   - error: If the configuration is invalid.
//
// @example
//
//	p, err := NewPreprocessor(DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tensor, err := p.Preprocess(frame)
//	defer p.Release(tensor)
func NewPreprocessor(config Config) (*Preprocessor, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid preprocess config")
	}

	area := config.InputSize * config.InputSize
	return &Preprocessor{
		config: config,
		tensors: &sync.Pool{
			New: func() interface{} {
				return &Tensor{
					Data:  make([]float32, config.Len()),
					Shape: config.Shape(),
				}
			},
		},
		pixels: &sync.Pool{
			New: func() interface{} {
				buf := make([]uint32, area)
				return &buf
			},
		},
	}, nil
}

// Config returns the shape this preprocessor produces.
func (p *Preprocessor) Config() Config {
	return p.config
}

// Preprocess resizes img to InputSize x InputSize, unpacks each pixel's ARGB
// value and writes the normalized channels in planar layout.
//
// Every pixel of the square input is written, including the last row and
// column.
//
// Arguments:
//   - img: The source frame at any resolution.
//
// Returns:
//   - *Tensor: The network input. Return it with Release when done.
//   - error: If the image is nil or empty.
func (p *Preprocessor) Preprocess(img image.Image) (*Tensor, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	if img.Bounds().Empty() {
		return nil, errors.Wrapf(ErrEmptyImage, "bounds %v", img.Bounds())
	}

	size := p.config.InputSize
	scaled := Resize(img, size)

	pixels := p.pixels.Get().(*[]uint32)
	defer p.pixels.Put(pixels)

	PackARGB(scaled, *pixels)

	tensor := p.tensors.Get().(*Tensor)
	if err := FillPlanar(tensor.Data, *pixels, size); err != nil {
		p.tensors.Put(tensor)
		return nil, errors.Wrap(err, "tensor conversion failed")
	}
	return tensor, nil
}

// Release returns a tensor produced by Preprocess to the pool. The tensor
// must not be used afterwards.
func (p *Preprocessor) Release(t *Tensor) {
	if t == nil || len(t.Data) != p.config.Len() {
		return
	}
	p.tensors.Put(t)
}

// Resize scales img to a size x size square with a bilinear filter. Images
// that already have the target dimensions are returned unchanged.
func Resize(img image.Image, size int) image.Image {
	b := img.Bounds()
	if b.Dx() == size && b.Dy() == size {
		return img
	}
	return resize.Resize(uint(size), uint(size), img, resize.Bilinear)
}

// PackARGB reads img row by row into dst as packed 0xAARRGGBB integers,
// the layout of an Android Bitmap pixel array. dst must hold at least
// width*height values; pixels beyond len(dst) are ignored.
func PackARGB(img image.Image, dst []uint32) {
	b := img.Bounds()
	width := b.Dx()

	if rgba, ok := img.(*image.RGBA); ok {
		packRGBA(rgba, dst)
		return
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			idx := (y-b.Min.Y)*width + (x - b.Min.X)
			if idx >= len(dst) {
				return
			}
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dst[idx] = uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
		}
	}
}

// packRGBA reads RGBA pixels straight from the backing slice and
// un-premultiplies translucent ones the way color.NRGBAModel does.
func packRGBA(img *image.RGBA, dst []uint32) {
	b := img.Bounds()
	width := b.Dx()

	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for x := 0; x < width; x++ {
			idx := y*width + x
			if idx >= len(dst) {
				return
			}
			px := row[x*4 : x*4+4]
			r, g, b, a := uint32(px[0]), uint32(px[1]), uint32(px[2]), uint32(px[3])
			if a != 0xFF {
				r, g, b = unpremultiply(r, a), unpremultiply(g, a), unpremultiply(b, a)
			}
			dst[idx] = a<<24 | r<<16 | g<<8 | b
		}
	}
}

// unpremultiply returns the straight 8-bit value of premultiplied channel v
// under alpha a, rounding as color.NRGBAModel does.
func unpremultiply(v, a uint32) uint32 {
	if a == 0 {
		return 0
	}
	return (v * 0x101 * 0xFFFF / (a * 0x101)) >> 8
}

// UnpackARGB extracts the red (bits 16-23), green (bits 8-15) and blue
// (bits 0-7) channels of a packed ARGB pixel, normalized to [0, 1].
//
// @example
// r, g, b := UnpackARGB(0xFF804020) // 0.502, 0.251, 0.125
func UnpackARGB(pixel uint32) (float32, float32, float32) {
	r := float32(pixel>>16&0xFF) / imageSTD
	g := float32(pixel>>8&0xFF) / imageSTD
	b := float32(pixel&0xFF) / imageSTD
	return r, g, b
}

// FillPlanar writes size*size packed ARGB pixels into dst in channel-major
// order: red at idx, green at idx+size², blue at idx+2·size².
//
// Arguments:
//   - dst: Destination of at least 3*size*size floats.
//   - pixels: Row-major packed pixels, at least size*size values.
//   - size: The side of the square frame.
//
// Returns:
//   - error: ErrBufferTooSmall when dst or pixels are short.
func FillPlanar(dst []float32, pixels []uint32, size int) error {
	area := size * size
	if len(dst) < area*3 {
		return errors.Wrapf(ErrBufferTooSmall, "destination holds %d floats, needs %d", len(dst), area*3)
	}
	if len(pixels) < area {
		return errors.Wrapf(ErrBufferTooSmall, "pixel grid holds %d values, needs %d", len(pixels), area)
	}

	red := dst[0:area]
	green := dst[area : area*2]
	blue := dst[area*2 : area*3]

	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			idx := size*row + col
			red[idx], green[idx], blue[idx] = UnpackARGB(pixels[idx])
		}
	}
	return nil
}
