package raster

import (
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// HSLColor represents a color in HSL space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// ColorResult contains the color of one pixel in several representations.
type ColorResult struct {
	X   int      `json:"x"`
	Y   int      `json:"y"`
	Hex string   `json:"hex"` // "#RRGGBB"
	RGB RGB      `json:"rgb"`
	HSL HSLColor `json:"hsl"`
}

// Colorful converts the pixel into a go-colorful Color in [0,1] sRGB.
func (p RGB) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(p.R) / 255.0,
		G: float64(p.G) / 255.0,
		B: float64(p.B) / 255.0,
	}
}

// Hex formats the pixel as "#RRGGBB".
func (p RGB) Hex() string {
	return strings.ToUpper(p.Colorful().Hex())
}

// SampleColor reports the color at (x, y).
//
// Out-of-range coordinates return an error wrapping ErrOutOfBounds.
func SampleColor(img *Image, x, y int) (*ColorResult, error) {
	px, err := img.Get(x, y)
	if err != nil {
		return nil, err
	}

	h, s, l := px.Colorful().Hsl()
	if math.IsNaN(h) {
		h = 0
	}

	return &ColorResult{
		X:   x,
		Y:   y,
		Hex: px.Hex(),
		RGB: px,
		HSL: HSLColor{H: int(h), S: int(s * 100), L: int(l * 100)},
	}, nil
}
