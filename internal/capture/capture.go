// Package capture grabs the screen into a temporary PNG and loads it as the
// frame every scan runs against.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/kbinani/screenshot"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/pixel-ruler/internal/config"
	"github.com/ironsheep/pixel-ruler/internal/logger"
	"github.com/ironsheep/pixel-ruler/internal/raster"
)

// ErrCaptureFailed reports that no frame could be produced.
var ErrCaptureFailed = errors.New("screen capture failed")

// Frame is a captured screen image and the file backing it.
type Frame struct {
	Path       string
	Image      *raster.Image
	CapturedAt time.Time
}

// Cleanup removes the frame's file.
func (f *Frame) Cleanup() error {
	return Cleanup(f.Path)
}

// Capturer produces a frame of the current screen.
type Capturer interface {
	Capture(ctx context.Context) (*Frame, error)
}

// New returns the backend selected by cfg.
func New(cfg *config.Config) Capturer {
	if cfg.CaptureBackend == config.CaptureNative {
		return &NativeCapturer{Display: cfg.DisplayIndex}
	}
	fields := strings.Fields(cfg.CaptureCommand)
	if len(fields) == 0 {
		fields = []string{"grim"}
	}
	return &CommandCapturer{Command: fields[0], Args: fields[1:]}
}

// CommandCapturer runs an external screenshot tool that takes the output
// path as its last argument, such as grim.
type CommandCapturer struct {
	Command string
	Args    []string
	// TempDir defaults to os.TempDir().
	TempDir string
}

func (c *CommandCapturer) Capture(ctx context.Context) (*Frame, error) {
	now := time.Now()
	path := tempPath(c.TempDir, now)

	args := append(append([]string{}, c.Args...), path)
	cmd := exec.CommandContext(ctx, c.Command, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		discard(path)
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return nil, fmt.Errorf("%w: %s: %v: %s", ErrCaptureFailed, c.Command, err, msg)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrCaptureFailed, c.Command, err)
	}

	logger.WithFields(logrus.Fields{
		"command": c.Command,
		"path":    path,
	}).Debug("Screen captured")

	return load(path, now)
}

// NativeCapturer grabs a display directly through the platform screenshot
// API.
type NativeCapturer struct {
	Display int
	TempDir string
}

func (c *NativeCapturer) Capture(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Display < 0 {
		return nil, fmt.Errorf("%w: invalid display index %d", ErrCaptureFailed, c.Display)
	}
	if n := screenshot.NumActiveDisplays(); c.Display >= n {
		return nil, fmt.Errorf("%w: display %d not found (%d active)", ErrCaptureFailed, c.Display, n)
	}

	img, err := screenshot.CaptureDisplay(c.Display)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}

	now := time.Now()
	path := tempPath(c.TempDir, now)
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		discard(path)
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}

	logger.WithFields(logrus.Fields{
		"display": c.Display,
		"bounds":  img.Bounds().String(),
		"path":    path,
	}).Debug("Screen captured")

	return load(path, now)
}

// Cleanup removes a captured file. A file that is already gone is not an
// error.
func Cleanup(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove capture %s: %w", path, err)
	}
	return nil
}

// discard removes a partial capture on a failure path, where the capture
// error is the one returned and a removal failure is only logged.
func discard(path string) {
	if err := Cleanup(path); err != nil {
		logger.WithError(err).WithField("path", path).Warn("Failed to remove captured frame")
	}
}

func tempPath(dir string, t time.Time) string {
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, fmt.Sprintf("pixel-ruler_capture_%d.png", t.UnixNano()))
}

func load(path string, at time.Time) (*Frame, error) {
	img, err := raster.Load(path)
	if err != nil {
		discard(path)
		return nil, fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}
	return &Frame{Path: path, Image: img, CapturedAt: at}, nil
}
