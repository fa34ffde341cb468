package overlay

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/ironsheep/pixel-ruler/internal/boundary"
)

// Layout constants, in the pixels of whatever space they are applied to.
const (
	capHalfWidth  = 4
	dotRadius     = 3
	labelOffset   = 25
	labelPadding  = 6
	labelGapLeft  = 15
	labelGapAbove = 25
)

// Segment is an axis-aligned line between two inclusive endpoints.
type Segment struct {
	From image.Point
	To   image.Point
}

// Layout is everything the overlay draws for one scan result, in image
// coordinates. Both the PNG renderer and the overlay window draw from it.
type Layout struct {
	// Segments are the guide lines followed by the limit caps.
	Segments []Segment

	// ShowDot marks the origin with a filled circle of DotRadius.
	ShowDot   bool
	Center    image.Point
	DotRadius int

	// Label is the measurement text, drawn with its baseline at TextOrigin
	// inside the LabelBox background.
	Label      string
	LabelBox   image.Rectangle
	TextOrigin image.Point
}

// Face is the font used for measurement labels.
var Face font.Face = basicfont.Face7x13

// Plan computes the layout for res within bounds.
//
// Each limit is the coordinate of the pixel that differed, so every cap is
// drawn twice: at the limit and one pixel back toward the origin. The label
// sits below-right of the origin and flips left or up when it would leave
// bounds.
func Plan(res boundary.Result, mode boundary.Mode, bounds image.Rectangle) Layout {
	cx, cy := res.Origin.X, res.Origin.Y
	l := Layout{Center: image.Pt(cx, cy), DotRadius: dotRadius}

	if mode.Vertical() {
		lo, hi := max(cx-capHalfWidth, 0), cx+capHalfWidth
		l.Segments = append(l.Segments,
			Segment{image.Pt(cx, cy), image.Pt(cx, res.Top)},
			Segment{image.Pt(cx, cy), image.Pt(cx, res.Bottom)},
			Segment{image.Pt(lo, res.Top), image.Pt(hi, res.Top)},
			Segment{image.Pt(lo, res.Top+1), image.Pt(hi, res.Top+1)},
			Segment{image.Pt(lo, res.Bottom), image.Pt(hi, res.Bottom)},
			Segment{image.Pt(lo, res.Bottom-1), image.Pt(hi, res.Bottom-1)},
		)
	}
	if mode.Horizontal() {
		lo, hi := max(cy-capHalfWidth, 0), cy+capHalfWidth
		l.Segments = append(l.Segments,
			Segment{image.Pt(cx, cy), image.Pt(res.Left, cy)},
			Segment{image.Pt(cx, cy), image.Pt(res.Right, cy)},
			Segment{image.Pt(res.Left, lo), image.Pt(res.Left, hi)},
			Segment{image.Pt(res.Left+1, lo), image.Pt(res.Left+1, hi)},
			Segment{image.Pt(res.Right, lo), image.Pt(res.Right, hi)},
			Segment{image.Pt(res.Right-1, lo), image.Pt(res.Right-1, hi)},
		)
		l.ShowDot = true
	}

	l.Label = boundary.Measure(res, mode).Label()
	l.LabelBox, l.TextOrigin = PlaceLabel(l.Label, l.Center, bounds)
	return l
}

// PlaceLabel positions a label box for text near anchor: below-right by
// default, flipped left or up when it would leave bounds. It returns the box
// and the text baseline origin. Plan uses image pixels; the overlay window
// calls it with screen pixels so the offset does not scale with the frame.
func PlaceLabel(text string, anchor image.Point, bounds image.Rectangle) (box image.Rectangle, origin image.Point) {
	textW := font.MeasureString(Face, text).Ceil()
	textH := Face.Metrics().Ascent.Ceil()

	x := anchor.X + labelOffset
	y := anchor.Y + labelOffset + textH
	if x+textW+labelPadding > bounds.Max.X {
		x = max(anchor.X-textW-labelPadding-labelGapLeft, bounds.Min.X+labelPadding)
	}
	if y > bounds.Max.Y-labelPadding {
		y = anchor.Y - labelGapAbove
	}

	origin = image.Pt(x, y)
	box = image.Rect(x-labelPadding, y-textH-labelPadding, x+textW+labelPadding, y+labelPadding)
	return box, origin
}
