package overlay

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/pixel-ruler/internal/boundary"
	"github.com/ironsheep/pixel-ruler/internal/raster"
)

// Options controls overlay colors.
type Options struct {
	LineColor   color.RGBA
	LabelBG     color.RGBA
	LabelBorder color.RGBA
	LabelText   color.RGBA
	HideLabel   bool
}

// DefaultOptions returns red guide lines with a dark label box.
func DefaultOptions() Options {
	return Options{
		LineColor:   color.RGBA{255, 0, 0, 255},
		LabelBG:     color.RGBA{26, 26, 26, 230},
		LabelBorder: color.RGBA{51, 51, 51, 255},
		LabelText:   color.RGBA{255, 255, 255, 255},
	}
}

// RenderResult contains a rendered overlay encoded as base64 PNG.
type RenderResult struct {
	Width       int                  `json:"width"`
	Height      int                  `json:"height"`
	ImageBase64 string               `json:"image_base64"`
	MimeType    string               `json:"mime_type"`
	Result      boundary.Result      `json:"result"`
	Measurement boundary.Measurement `json:"measurement"`
}

// Render draws the guide lines, caps, origin dot and measurement label for
// res on top of a copy of img.
func Render(img *raster.Image, res boundary.Result, mode boundary.Mode, opts Options) *image.RGBA {
	canvas := clone.AsRGBA(img.ToNRGBA())
	Draw(canvas, Plan(res, mode, canvas.Bounds()), opts)
	return canvas
}

// RenderPNG renders the overlay and encodes it as base64 PNG.
func RenderPNG(img *raster.Image, res boundary.Result, mode boundary.Mode, opts Options) (*RenderResult, error) {
	canvas := Render(img, res, mode, opts)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode overlay: %w", err)
	}

	return &RenderResult{
		Width:       canvas.Bounds().Dx(),
		Height:      canvas.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
		Result:      res,
		Measurement: boundary.Measure(res, mode),
	}, nil
}

// Save writes a rendered overlay to path as PNG.
func Save(path string, canvas image.Image) error {
	if err := imgio.Save(path, canvas, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("failed to save overlay: %w", err)
	}
	return nil
}

// Draw paints l onto dst. Pixels outside dst's bounds are skipped.
func Draw(dst draw.Image, l Layout, opts Options) {
	for _, s := range l.Segments {
		drawSegment(dst, s, opts.LineColor)
	}

	if l.ShowDot {
		r := l.DotRadius
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if dx*dx+dy*dy <= r*r {
					setClipped(dst, l.Center.X+dx, l.Center.Y+dy, opts.LineColor)
				}
			}
		}
	}

	if opts.HideLabel || l.Label == "" {
		return
	}
	label := LabelImage(l, opts)
	draw.Draw(dst, l.LabelBox, label, image.Point{}, draw.Over)
}

// LabelImage renders the label box of l into its own image whose origin is
// the top-left of l.LabelBox.
func LabelImage(l Layout, opts Options) *image.RGBA {
	w, h := l.LabelBox.Dx(), l.LabelBox.Dy()
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	draw.Draw(img, img.Bounds(), image.NewUniform(opts.LabelBG), image.Point{}, draw.Src)
	for x := 0; x < w; x++ {
		img.SetRGBA(x, 0, opts.LabelBorder)
		img.SetRGBA(x, h-1, opts.LabelBorder)
	}
	for y := 0; y < h; y++ {
		img.SetRGBA(0, y, opts.LabelBorder)
		img.SetRGBA(w-1, y, opts.LabelBorder)
	}

	origin := l.TextOrigin.Sub(l.LabelBox.Min)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(opts.LabelText),
		Face: Face,
		Dot:  fixed.P(origin.X, origin.Y),
	}
	d.DrawString(l.Label)
	return img
}

func drawSegment(dst draw.Image, s Segment, c color.RGBA) {
	x0, x1 := order(s.From.X, s.To.X)
	y0, y1 := order(s.From.Y, s.To.Y)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			setClipped(dst, x, y, c)
		}
	}
}

func setClipped(dst draw.Image, x, y int, c color.Color) {
	if image.Pt(x, y).In(dst.Bounds()) {
		dst.Set(x, y, c)
	}
}

func order(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
