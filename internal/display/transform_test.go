package display

import (
	"image"
	"strings"
	"testing"

	"github.com/ironsheep/pixel-ruler/internal/boundary"
	"github.com/ironsheep/pixel-ruler/internal/overlay"
	"github.com/ironsheep/pixel-ruler/internal/session"
)

func TestAspectFitTransform(t *testing.T) {
	tests := []struct {
		name                    string
		viewW, viewH            float64
		frameW, frameH          float64
		wantScale, wantX, wantY float64
	}{
		{"identity", 1920, 1080, 1920, 1080, 1, 0, 0},
		{"pillarbox", 1000, 500, 500, 500, 1, 250, 0},
		{"letterbox", 800, 800, 1600, 800, 0.5, 0, 200},
		{"hidpi capture", 1280, 720, 2560, 1440, 0.5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, x, y := aspectFitTransform(tt.viewW, tt.viewH, tt.frameW, tt.frameH)
			if s != tt.wantScale || x != tt.wantX || y != tt.wantY {
				t.Errorf("got (%v, %v, %v), want (%v, %v, %v)", s, x, y, tt.wantScale, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestView_ToFrame(t *testing.T) {
	// A 200x100 frame shown at half size in a 100x100 window sits in a
	// 100x50 band starting at y=25.
	v := newView(100, 100, 200, 100)

	tests := []struct {
		name string
		x, y int
		want image.Point
	}{
		{"origin of band", 0, 25, image.Pt(0, 0)},
		{"center", 50, 50, image.Pt(100, 50)},
		{"last pixel", 99, 74, image.Pt(198, 98)},
		{"above band clamps", 10, 0, image.Pt(20, 0)},
		{"below band clamps", 10, 99, image.Pt(20, 99)},
		{"outside window clamps", -40, 500, image.Pt(0, 99)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.toFrame(tt.x, tt.y); got != tt.want {
				t.Errorf("toFrame(%d, %d): got %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestView_ToScreenInvertsToFrame(t *testing.T) {
	v := newView(1280, 800, 640, 400)
	for _, p := range []image.Point{{0, 0}, {10, 20}, {639, 399}} {
		sx, sy := v.toScreen(p)
		if got := v.toFrame(int(sx), int(sy)); got != p {
			t.Errorf("round trip of %v via (%v, %v): got %v", p, sx, sy, got)
		}
	}
}

func TestView_PlaceLabelIgnoresScale(t *testing.T) {
	l := overlay.Layout{Center: image.Pt(100, 100), Label: "22 × 12"}

	offset := func(v view) image.Point {
		box, _ := v.placeLabel(l)
		sx, sy := v.toScreen(l.Center)
		return box.Min.Sub(image.Pt(int(sx), int(sy)))
	}

	actual := offset(newView(1000, 1000, 1000, 1000))
	zoomed := offset(newView(4000, 4000, 1000, 1000))
	if actual != zoomed {
		t.Errorf("label offset depends on scale: %v at 1x, %v at 4x", actual, zoomed)
	}
	if actual.X <= 0 || actual.Y <= 0 {
		t.Errorf("label should sit below-right of the origin, offset %v", actual)
	}
}

func TestView_PlaceLabelFlipsOnScreen(t *testing.T) {
	// Near the right and bottom edges of a 4x view the label must flip in
	// window pixels, not frame pixels.
	v := newView(4000, 4000, 1000, 1000)
	l := overlay.Layout{Center: image.Pt(995, 995), Label: "22 × 12"}

	box, _ := v.placeLabel(l)
	if !box.In(v.screenBounds()) {
		t.Errorf("label box %v leaves the frame %v", box, v.screenBounds())
	}
}

func TestThresholdDelta(t *testing.T) {
	// Wheel down reports negative in ebiten and must raise the threshold.
	if got := boundary.AdjustThreshold(20, thresholdDelta(-1)); got <= 20 {
		t.Errorf("wheel down should raise the threshold, got %v", got)
	}
	if got := boundary.AdjustThreshold(20, thresholdDelta(1)); got >= 20 {
		t.Errorf("wheel up should lower the threshold, got %v", got)
	}
}

func TestModeKeys(t *testing.T) {
	want := []boundary.Mode{boundary.Both, boundary.HorizontalOnly, boundary.VerticalOnly}
	if len(modeKeys) != len(want) {
		t.Fatalf("expected %d mode keys, got %d", len(want), len(modeKeys))
	}
	for i, mk := range modeKeys {
		if mk.mode != want[i] {
			t.Errorf("key %d: got %v, want %v", i+1, mk.mode, want[i])
		}
	}
}

func TestPaletteText(t *testing.T) {
	text := paletteText(session.State{Mode: boundary.VerticalOnly, Threshold: 21.5, Metric: boundary.MetricCIE76})
	for _, want := range []string{"[3]*vertical", "[1] cross", "threshold 21.5", "cie76"} {
		if !strings.Contains(text, want) {
			t.Errorf("palette %q missing %q", text, want)
		}
	}
}
