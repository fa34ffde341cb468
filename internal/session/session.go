// Package session holds the mutable measurement state of one overlay run:
// the current origin, threshold, mode and metric, and the latest scan result
// over a single captured frame.
package session

import (
	"fmt"
	"sync"

	"github.com/ironsheep/pixel-ruler/internal/boundary"
	"github.com/ironsheep/pixel-ruler/internal/raster"
)

// State is a snapshot of a session.
type State struct {
	Origin      boundary.Point  `json:"origin"`
	Threshold   float64         `json:"threshold"`
	Mode        boundary.Mode   `json:"mode"`
	Metric      boundary.Metric `json:"metric"`
	Result      boundary.Result `json:"result"`
	Initialized bool            `json:"initialized"`
}

// Measurement returns the span for the current result and mode.
func (s State) Measurement() boundary.Measurement {
	return boundary.Measure(s.Result, s.Mode)
}

// Options are the initial session settings.
type Options struct {
	Threshold float64
	Mode      boundary.Mode
	Metric    boundary.Metric
}

// Session owns the state for one image. Every mutation rescans; readers
// take snapshots.
type Session struct {
	mu    sync.RWMutex
	img   *raster.Image
	state State
}

// New starts a session over img. The threshold is clamped into the
// adjustable range; zero selects the default.
func New(img *raster.Image, opts Options) *Session {
	th := opts.Threshold
	if th == 0 {
		th = boundary.DefaultThreshold
	}
	return &Session{
		img: img,
		state: State{
			Threshold: boundary.ClampThreshold(th),
			Mode:      opts.Mode,
			Metric:    opts.Metric,
		},
	}
}

// Image returns the session's frame.
func (s *Session) Image() *raster.Image { return s.img }

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// MoveTo sets the origin, clamped into the image, and rescans.
func (s *Session) MoveTo(x, y int) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	x, y = s.img.Clamp(x, y)
	s.state.Origin = boundary.Point{X: x, Y: y}
	s.state.Initialized = true
	return s.rescanLocked()
}

// Scroll applies one threshold adjustment and rescans if an origin is set.
func (s *Session) Scroll(delta float64) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Threshold = boundary.AdjustThreshold(s.state.Threshold, delta)
	return s.rescanLocked()
}

// SetMode switches the active tool and rescans if an origin is set. An
// unknown mode is rejected and leaves the state unchanged.
func (s *Session) SetMode(m boundary.Mode) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !m.Valid() {
		return s.state, fmt.Errorf("unknown mode: %d", int(m))
	}
	s.state.Mode = m
	return s.rescanLocked()
}

// SetMetric switches the color-distance metric and rescans if an origin is
// set. An unknown metric is rejected and leaves the state unchanged.
func (s *Session) SetMetric(m boundary.Metric) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !m.Valid() {
		return s.state, fmt.Errorf("unknown metric: %d", int(m))
	}
	s.state.Metric = m
	return s.rescanLocked()
}

func (s *Session) rescanLocked() (State, error) {
	if !s.state.Initialized {
		return s.state, nil
	}
	res, err := boundary.Scan(s.img, boundary.Query{
		Origin:    s.state.Origin,
		Threshold: s.state.Threshold,
		Mode:      s.state.Mode,
		Metric:    s.state.Metric,
	})
	if err != nil {
		return s.state, err
	}
	s.state.Result = res
	return s.state, nil
}
