package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"
)

var (
	// ErrIO reports that the image bytes could not be read.
	ErrIO = errors.New("failed to read image")

	// ErrDecode reports that the image bytes are not a valid raster.
	ErrDecode = errors.New("failed to decode image")

	// ErrOutOfBounds reports a coordinate outside the image grid.
	ErrOutOfBounds = errors.New("coordinates outside image bounds")

	// ErrTooLarge reports an image whose header declares more pixels than
	// the decoder accepts. It is always reported together with ErrDecode.
	ErrTooLarge = errors.New("image exceeds pixel limit")
)

// DefaultMaxPixels is the pixel limit Decode applies. It admits an 8K
// frame (7680x4320) with room to spare.
const DefaultMaxPixels = 50_000_000

// RGB is a single pixel with 8-bit channels.
type RGB struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// Image is a read-only width x height grid of RGB pixels stored row-major.
//
// The zero value is not usable; construct Images with Load, Decode or
// FromImage.
type Image struct {
	width  int
	height int
	pix    []uint8 // 3 bytes per pixel
}

// Load reads and decodes the image file at path.
//
// Supported formats are those understood by imaging.Decode (PNG, JPEG, GIF,
// BMP and TIFF). Open and read failures wrap ErrIO; anything that reads
// but does not decode wraps ErrDecode.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads all of r and decodes it into an Image, rejecting images
// larger than DefaultMaxPixels.
func Decode(r io.Reader) (*Image, error) {
	return DecodeLimit(r, DefaultMaxPixels)
}

// DecodeLimit is Decode with an explicit pixel limit; maxPixels <= 0
// disables the check.
//
// The bytes are read completely before decoding so that a short read is
// reported as ErrIO rather than as a truncated-image ErrDecode. The header
// is checked before any pixel buffer is allocated, so an oversized image
// costs only its compressed size. EXIF orientation is applied.
func DecodeLimit(r io.Reader, maxPixels int) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("%w: %w: %dx%d is more than %d pixels",
			ErrDecode, ErrTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return FromImage(src)
}

// FromImage copies src into a new Image, dropping the alpha channel.
//
// Channels are taken non-premultiplied, so a translucent pixel keeps its
// stored color rather than being darkened toward black. An empty src
// wraps ErrDecode.
func FromImage(src image.Image) (*Image, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", ErrDecode)
	}

	nrgba := imaging.Clone(src)
	w, h := nrgba.Bounds().Dx(), nrgba.Bounds().Dy()

	pix := make([]uint8, w*h*3)
	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		out := pix[y*w*3 : (y+1)*w*3]
		for x := 0; x < w; x++ {
			out[x*3] = row[x*4]
			out[x*3+1] = row[x*4+1]
			out[x*3+2] = row[x*4+2]
		}
	}

	return &Image{width: w, height: h, pix: pix}, nil
}

// Dimensions returns the width and height in pixels.
func (img *Image) Dimensions() (width, height int) {
	return img.width, img.height
}

// Width returns the image width in pixels.
func (img *Image) Width() int { return img.width }

// Height returns the image height in pixels.
func (img *Image) Height() int { return img.height }

// Validate reports whether (x, y) addresses a pixel of the image.
func (img *Image) Validate(x, y int) bool {
	return x >= 0 && y >= 0 && x < img.width && y < img.height
}

// Clamp constrains (x, y) to the nearest valid pixel coordinate.
func (img *Image) Clamp(x, y int) (int, int) {
	return clamp(x, 0, img.width-1), clamp(y, 0, img.height-1)
}

// Get returns the pixel at (x, y) or an error wrapping ErrOutOfBounds.
func (img *Image) Get(x, y int) (RGB, error) {
	if !img.Validate(x, y) {
		return RGB{}, fmt.Errorf("%w: (%d,%d) not within %dx%d", ErrOutOfBounds, x, y, img.width, img.height)
	}
	return img.at(x, y), nil
}

// At returns the pixel at (x, y) without a recoverable bounds check.
//
// Calling At with a coordinate outside the image is a programming error and
// panics with an error wrapping ErrOutOfBounds.
func (img *Image) At(x, y int) RGB {
	if !img.Validate(x, y) {
		panic(fmt.Errorf("%w: (%d,%d) not within %dx%d", ErrOutOfBounds, x, y, img.width, img.height))
	}
	return img.at(x, y)
}

func (img *Image) at(x, y int) RGB {
	i := (y*img.width + x) * 3
	return RGB{R: img.pix[i], G: img.pix[i+1], B: img.pix[i+2]}
}

// ToNRGBA returns an opaque copy of the image suitable for drawing on.
func (img *Image) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.width, img.height))
	for i, j := 0, 0; i < len(img.pix); i, j = i+3, j+4 {
		out.Pix[j] = img.pix[i]
		out.Pix[j+1] = img.pix[i+1]
		out.Pix[j+2] = img.pix[i+2]
		out.Pix[j+3] = 0xff
	}
	return out
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
