package boundary

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/pixel-ruler/internal/raster"
)

// ErrInvalidThreshold reports a threshold that is not a positive number.
var ErrInvalidThreshold = errors.New("threshold must be a positive number")

// Point represents a pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Query is one boundary measurement request.
type Query struct {
	Origin    Point   `json:"origin"`
	Threshold float64 `json:"threshold"`
	Mode      Mode    `json:"mode"`
	Metric    Metric  `json:"metric"`
}

// Result holds the four limits of a query.
//
// Top <= Origin.Y <= Bottom and Left <= Origin.X <= Right. Axes the query's
// mode did not scan report the origin coordinate.
type Result struct {
	Origin Point `json:"origin"`
	Top    int   `json:"top"`
	Bottom int   `json:"bottom"`
	Left   int   `json:"left"`
	Right  int   `json:"right"`
}

// Limit walks from origin in direction dir and returns the coordinate of the
// first pixel whose color differs from the previous pixel of the walk by
// more than threshold. If no such pixel exists, the image edge is returned.
//
// The returned coordinate is on the scanned axis and is the differing pixel
// itself, not the last similar one. origin must lie inside img.
func Limit(img *raster.Image, origin Point, dir Direction, threshold float64, metric Metric) int {
	w, h := img.Dimensions()

	start, fixed, end := origin.X, origin.Y, 0
	switch dir {
	case Up:
		start, fixed = origin.Y, origin.X
	case Down:
		start, fixed, end = origin.Y, origin.X, h-1
	case Right:
		end = w - 1
	}

	pixel := func(pos int) raster.RGB {
		if dir.Vertical() {
			return img.At(fixed, pos)
		}
		return img.At(pos, fixed)
	}

	step := 1
	if start > end {
		step = -1
	}

	last := pixel(start)
	for pos := start; ; pos += step {
		current := pixel(pos)
		if metric.Distance(last, current) > threshold {
			return pos
		}
		last = current
		if pos == end {
			break
		}
	}
	return end
}

// Scan computes the limits for q against img.
//
// It returns an error wrapping raster.ErrOutOfBounds when the origin lies
// outside the image and ErrInvalidThreshold for a non-positive or NaN
// threshold. Callers clamp pointer positions before scanning.
func Scan(img *raster.Image, q Query) (Result, error) {
	if err := validate(img, q); err != nil {
		return Result{}, err
	}

	res := Result{
		Origin: q.Origin,
		Top:    q.Origin.Y,
		Bottom: q.Origin.Y,
		Left:   q.Origin.X,
		Right:  q.Origin.X,
	}

	if q.Mode.Vertical() {
		res.Top = Limit(img, q.Origin, Up, q.Threshold, q.Metric)
		res.Bottom = Limit(img, q.Origin, Down, q.Threshold, q.Metric)
	}
	if q.Mode.Horizontal() {
		res.Left = Limit(img, q.Origin, Left, q.Threshold, q.Metric)
		res.Right = Limit(img, q.Origin, Right, q.Threshold, q.Metric)
	}

	return res, nil
}

// ScanParallel is Scan with the directional walks run concurrently.
//
// The walks read disjoint pixels of an immutable image, so the result is
// identical to Scan's.
func ScanParallel(img *raster.Image, q Query) (Result, error) {
	if err := validate(img, q); err != nil {
		return Result{}, err
	}

	res := Result{
		Origin: q.Origin,
		Top:    q.Origin.Y,
		Bottom: q.Origin.Y,
		Left:   q.Origin.X,
		Right:  q.Origin.X,
	}

	var g errgroup.Group
	walk := func(dir Direction, dst *int) {
		g.Go(func() error {
			*dst = Limit(img, q.Origin, dir, q.Threshold, q.Metric)
			return nil
		})
	}

	if q.Mode.Vertical() {
		walk(Up, &res.Top)
		walk(Down, &res.Bottom)
	}
	if q.Mode.Horizontal() {
		walk(Left, &res.Left)
		walk(Right, &res.Right)
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return res, nil
}

func validate(img *raster.Image, q Query) error {
	if !img.Validate(q.Origin.X, q.Origin.Y) {
		w, h := img.Dimensions()
		return fmt.Errorf("%w: origin (%d,%d) not within %dx%d",
			raster.ErrOutOfBounds, q.Origin.X, q.Origin.Y, w, h)
	}
	if math.IsNaN(q.Threshold) || q.Threshold <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, q.Threshold)
	}
	if !q.Mode.Valid() {
		return fmt.Errorf("unknown mode: %d", int(q.Mode))
	}
	return nil
}
