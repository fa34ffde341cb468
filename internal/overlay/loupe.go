package overlay

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/pixel-ruler/internal/boundary"
	"github.com/ironsheep/pixel-ruler/internal/raster"
)

const (
	DefaultLoupeRadius = 8
	DefaultLoupeZoom   = 8
	maxLoupeZoom       = 32
	maxLoupeRadius     = 256
)

// LoupeResult is a magnified view of the pixels around a point.
type LoupeResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	Zoom        int    `json:"zoom"`
	// Region is the source rectangle that was magnified (max exclusive).
	Region struct {
		X1 int `json:"x1"`
		Y1 int `json:"y1"`
		X2 int `json:"x2"`
		Y2 int `json:"y2"`
	} `json:"region"`
}

// Loupe crops a (2*radius+1)-pixel square around center, clipped to the
// image, and scales it up by zoom with nearest-neighbour sampling so single
// pixels stay crisp. The center pixel is outlined.
func Loupe(img *raster.Image, center boundary.Point, radius, zoom int) (*LoupeResult, error) {
	if _, err := img.Get(center.X, center.Y); err != nil {
		return nil, err
	}
	if radius <= 0 {
		radius = DefaultLoupeRadius
	}
	if radius > maxLoupeRadius {
		return nil, fmt.Errorf("radius %d exceeds maximum %d", radius, maxLoupeRadius)
	}
	if zoom <= 0 {
		zoom = DefaultLoupeZoom
	}
	if zoom > maxLoupeZoom {
		return nil, fmt.Errorf("zoom %d exceeds maximum %d", zoom, maxLoupeZoom)
	}

	w, h := img.Dimensions()
	region := image.Rect(center.X-radius, center.Y-radius, center.X+radius+1, center.Y+radius+1).
		Intersect(image.Rect(0, 0, w, h))

	cropped := imaging.Crop(img.ToNRGBA(), region)
	zoomed := imaging.Resize(cropped, region.Dx()*zoom, region.Dy()*zoom, imaging.NearestNeighbor)

	// Outline the center pixel.
	outline := color.NRGBA{255, 0, 0, 255}
	cx := (center.X - region.Min.X) * zoom
	cy := (center.Y - region.Min.Y) * zoom
	for i := 0; i < zoom; i++ {
		zoomed.SetNRGBA(cx+i, cy, outline)
		zoomed.SetNRGBA(cx+i, cy+zoom-1, outline)
		zoomed.SetNRGBA(cx, cy+i, outline)
		zoomed.SetNRGBA(cx+zoom-1, cy+i, outline)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, zoomed, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode loupe: %w", err)
	}

	result := &LoupeResult{
		Width:       zoomed.Bounds().Dx(),
		Height:      zoomed.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
		Zoom:        zoom,
	}
	result.Region.X1, result.Region.Y1 = region.Min.X, region.Min.Y
	result.Region.X2, result.Region.Y2 = region.Max.X, region.Max.Y
	return result, nil
}
