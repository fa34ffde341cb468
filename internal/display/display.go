// Package display runs the fullscreen ruler window over a captured frame.
//
// The frame is shown aspect-fit. Moving the pointer rescans from the pixel
// under it, the wheel adjusts the threshold, keys 1, 2 and 3 pick the cross,
// horizontal and vertical tools, and Escape closes the window. Holding Ctrl
// shows the tool palette.
package display

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/pixel-ruler/internal/boundary"
	"github.com/ironsheep/pixel-ruler/internal/logger"
	"github.com/ironsheep/pixel-ruler/internal/overlay"
	"github.com/ironsheep/pixel-ruler/internal/session"
)

var paletteBG = color.RGBA{20, 20, 20, 204}

// Window is the ebiten.Game for one ruler session.
type Window struct {
	ctx  context.Context
	sess *session.Session
	opts overlay.Options

	frame        *ebiten.Image
	viewW, viewH int

	cursor      image.Point
	cursorKnown bool
	palette     bool

	labelKey string
	label    *ebiten.Image
}

// New creates a window over the session's frame.
func New(sess *session.Session) *Window {
	return &Window{ctx: context.Background(), sess: sess, opts: overlay.DefaultOptions()}
}

// Run opens the window fullscreen and blocks until it is closed or ctx is
// done. Must be called from the main goroutine.
func (w *Window) Run(ctx context.Context) error {
	w.ctx = ctx
	ebiten.SetWindowTitle("Pixel Ruler")
	ebiten.SetFullscreen(true)
	ebiten.SetCursorShape(ebiten.CursorShapeCrosshair)

	err := ebiten.RunGame(w)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// --- ebiten.Game interface ---

func (w *Window) Update() error {
	if w.ctx.Err() != nil {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	w.palette = ebiten.IsKeyPressed(ebiten.KeyControl)

	for _, mk := range modeKeys {
		if inpututil.IsKeyJustPressed(mk.key) {
			w.apply(w.sess.SetMode(mk.mode))
		}
	}

	if w.viewW > 0 && w.viewH > 0 {
		mx, my := ebiten.CursorPosition()
		if cur := image.Pt(mx, my); !w.cursorKnown || cur != w.cursor {
			w.cursor, w.cursorKnown = cur, true
			p := w.view().toFrame(mx, my)
			w.apply(w.sess.MoveTo(p.X, p.Y))
		}
	}

	if _, wy := ebiten.Wheel(); wy != 0 {
		st, err := w.sess.Scroll(thresholdDelta(wy))
		w.apply(st, err)
		logger.WithField("threshold", st.Threshold).Debug("Threshold adjusted")
	}
	return nil
}

func (w *Window) Draw(screen *ebiten.Image) {
	if w.frame == nil {
		w.frame = ebiten.NewImageFromImage(w.sess.Image().ToNRGBA())
	}
	v := w.view()

	op := &ebiten.DrawImageOptions{GeoM: v.geoM()}
	screen.DrawImage(w.frame, op)

	st := w.sess.Snapshot()
	if st.Initialized {
		w.drawLayout(screen, v, overlay.Plan(st.Result, st.Mode, w.frame.Bounds()))
	}
	if w.palette {
		w.drawPalette(screen, st)
	}
}

func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	w.viewW, w.viewH = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

func (w *Window) view() view {
	img := w.sess.Image()
	return newView(w.viewW, w.viewH, img.Width(), img.Height())
}

func (w *Window) apply(st session.State, err error) {
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"origin": st.Origin,
			"mode":   st.Mode.String(),
		}).Warn("Scan failed")
	}
}

// drawLayout strokes the guide lines and caps as filled pixel rectangles so
// they stay one frame pixel wide at any scale.
func (w *Window) drawLayout(screen *ebiten.Image, v view, l overlay.Layout) {
	px := float32(v.scale)
	if px < 1 {
		px = 1
	}
	for _, s := range l.Segments {
		minP := image.Pt(min(s.From.X, s.To.X), min(s.From.Y, s.To.Y))
		maxP := image.Pt(max(s.From.X, s.To.X), max(s.From.Y, s.To.Y))
		x0, y0 := v.toScreen(minP)
		x1, y1 := v.toScreen(maxP)
		vector.DrawFilledRect(screen, x0, y0, x1-x0+px, y1-y0+px, w.opts.LineColor, false)
	}

	// The dot and the label keep a fixed on-screen size at any scale.
	if l.ShowDot {
		cx, cy := v.toScreen(l.Center)
		vector.DrawFilledCircle(screen, cx+px/2, cy+px/2, float32(l.DotRadius), w.opts.LineColor, true)
	}

	if w.opts.HideLabel || l.Label == "" {
		return
	}
	l.LabelBox, l.TextOrigin = v.placeLabel(l)
	key := fmt.Sprintf("%s|%dx%d", l.Label, l.LabelBox.Dx(), l.LabelBox.Dy())
	if key != w.labelKey {
		if w.label != nil {
			w.label.Deallocate()
		}
		w.label = ebiten.NewImageFromImage(overlay.LabelImage(l, w.opts))
		w.labelKey = key
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(l.LabelBox.Min.X), float64(l.LabelBox.Min.Y))
	screen.DrawImage(w.label, op)
}

func (w *Window) drawPalette(screen *ebiten.Image, st session.State) {
	text := paletteText(st)
	const width, height = 420, 40
	x := (w.viewW - width) / 2
	vector.DrawFilledRect(screen, float32(x), 0, width, height, paletteBG, false)
	vector.StrokeRect(screen, float32(x), 0, width, height, 2, w.opts.LabelBorder, false)
	ebitenutil.DebugPrintAt(screen, text, x+12, 12)
}

func paletteText(st session.State) string {
	mark := func(m boundary.Mode) string {
		if st.Mode == m {
			return "*"
		}
		return " "
	}
	return fmt.Sprintf("[1]%scross [2]%shorizontal [3]%svertical  threshold %.1f  %s",
		mark(boundary.Both), mark(boundary.HorizontalOnly), mark(boundary.VerticalOnly),
		st.Threshold, st.Metric)
}
