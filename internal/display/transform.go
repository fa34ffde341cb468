package display

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/ironsheep/pixel-ruler/internal/boundary"
	"github.com/ironsheep/pixel-ruler/internal/overlay"
)

// aspectFitTransform returns scale and offsets to fit frame into view with letterboxing.
func aspectFitTransform(viewW, viewH, frameW, frameH float64) (scale, offsetX, offsetY float64) {
	scale = math.Min(viewW/frameW, viewH/frameH)
	offsetX = (viewW - frameW*scale) / 2
	offsetY = (viewH - frameH*scale) / 2
	return
}

// view maps between window pixels and frame pixels.
type view struct {
	scale, offsetX, offsetY float64
	frameW, frameH          int
}

func newView(viewW, viewH, frameW, frameH int) view {
	s, ox, oy := aspectFitTransform(float64(viewW), float64(viewH), float64(frameW), float64(frameH))
	return view{scale: s, offsetX: ox, offsetY: oy, frameW: frameW, frameH: frameH}
}

// toFrame converts a cursor position to the frame pixel under it, clamped
// into the frame so the letterbox maps to the nearest edge pixel.
func (v view) toFrame(x, y int) image.Point {
	fx := int(math.Floor((float64(x) - v.offsetX) / v.scale))
	fy := int(math.Floor((float64(y) - v.offsetY) / v.scale))
	return image.Pt(clampInt(fx, 0, v.frameW-1), clampInt(fy, 0, v.frameH-1))
}

// toScreen returns the window position of the top-left corner of frame
// pixel p.
func (v view) toScreen(p image.Point) (float32, float32) {
	return float32(float64(p.X)*v.scale + v.offsetX), float32(float64(p.Y)*v.scale + v.offsetY)
}

// screenBounds is the window rectangle the frame occupies.
func (v view) screenBounds() image.Rectangle {
	x0, y0 := v.toScreen(image.Pt(0, 0))
	x1, y1 := v.toScreen(image.Pt(v.frameW, v.frameH))
	return image.Rect(int(x0), int(y0), int(x1), int(y1))
}

// placeLabel positions l's label in window pixels around the screen
// position of its center, flipping against the visible frame.
func (v view) placeLabel(l overlay.Layout) (image.Rectangle, image.Point) {
	cx, cy := v.toScreen(l.Center)
	return overlay.PlaceLabel(l.Label, image.Pt(int(cx), int(cy)), v.screenBounds())
}

// geoM positions the frame image in the window.
func (v view) geoM() ebiten.GeoM {
	var g ebiten.GeoM
	g.Scale(v.scale, v.scale)
	g.Translate(v.offsetX, v.offsetY)
	return g
}

// thresholdDelta converts a vertical wheel offset to a threshold delta.
// Ebitengine reports wheel-up as positive; scrolling down raises the
// threshold.
func thresholdDelta(wheelY float64) float64 {
	return -wheelY
}

var modeKeys = []struct {
	key  ebiten.Key
	mode boundary.Mode
}{
	{ebiten.Key1, boundary.Both},
	{ebiten.Key2, boundary.HorizontalOnly},
	{ebiten.Key3, boundary.VerticalOnly},
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
