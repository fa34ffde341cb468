package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/pixel-ruler/internal/config"
	"github.com/ironsheep/pixel-ruler/internal/logger"
	"github.com/ironsheep/pixel-ruler/internal/raster"
)

func writeFixture(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 9))
	for y := 0; y < 9; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 10), uint8(y * 20), 100, 255})
		}
	}
	path := filepath.Join(dir, "fixture.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create fixture: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode fixture: %v", err)
	}
	return path
}

func requireCommand(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestCommandCapturer_Success(t *testing.T) {
	requireCommand(t, "cp")
	dir := t.TempDir()
	fixture := writeFixture(t, dir)

	c := &CommandCapturer{Command: "cp", Args: []string{fixture}, TempDir: dir}
	frame, err := c.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if !strings.HasPrefix(filepath.Base(frame.Path), "pixel-ruler_capture_") {
		t.Errorf("unexpected capture name: %s", frame.Path)
	}
	if w, h := frame.Image.Dimensions(); w != 16 || h != 9 {
		t.Errorf("dimensions: got %dx%d, want 16x9", w, h)
	}
	if got := frame.Image.At(3, 2); got != (raster.RGB{R: 30, G: 40, B: 100}) {
		t.Errorf("pixel (3,2): got %+v", got)
	}
	if frame.CapturedAt.IsZero() {
		t.Error("CapturedAt not set")
	}

	if err := frame.Cleanup(); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if _, err := os.Stat(frame.Path); !os.IsNotExist(err) {
		t.Errorf("capture file should be removed, stat err=%v", err)
	}
	// A second cleanup finds nothing and succeeds.
	if err := frame.Cleanup(); err != nil {
		t.Errorf("Cleanup of missing file should succeed, got %v", err)
	}
}

func TestCommandCapturer_Failures(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		command string
	}{
		{"exit status", "false"},
		{"missing binary", "pixel-ruler-no-such-tool"},
		{"not an image", "touch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.command != "pixel-ruler-no-such-tool" {
				requireCommand(t, tt.command)
			}
			c := &CommandCapturer{Command: tt.command, TempDir: dir}
			_, err := c.Capture(context.Background())
			if !errors.Is(err, ErrCaptureFailed) {
				t.Fatalf("expected ErrCaptureFailed, got %v", err)
			}

			leftovers, _ := filepath.Glob(filepath.Join(dir, "pixel-ruler_capture_*"))
			if len(leftovers) != 0 {
				t.Errorf("failed capture left files behind: %v", leftovers)
			}
		})
	}
}

func TestCommandCapturer_Cancelled(t *testing.T) {
	requireCommand(t, "sleep")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &CommandCapturer{Command: "sleep", Args: []string{"5"}, TempDir: t.TempDir()}
	if _, err := c.Capture(ctx); !errors.Is(err, ErrCaptureFailed) {
		t.Errorf("expected ErrCaptureFailed for cancelled context, got %v", err)
	}
}

func TestNativeCapturer_InvalidDisplay(t *testing.T) {
	c := &NativeCapturer{Display: -1}
	if _, err := c.Capture(context.Background()); !errors.Is(err, ErrCaptureFailed) {
		t.Errorf("expected ErrCaptureFailed, got %v", err)
	}
}

func TestCleanup(t *testing.T) {
	if err := Cleanup(""); err != nil {
		t.Errorf("empty path: %v", err)
	}
	if err := Cleanup(filepath.Join(t.TempDir(), "missing.png")); err != nil {
		t.Errorf("missing file: %v", err)
	}
}

func TestDiscard_LogsRemovalFailure(t *testing.T) {
	// A non-empty directory cannot be removed with os.Remove.
	path := filepath.Join(t.TempDir(), "busy")
	if err := os.MkdirAll(filepath.Join(path, "child"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := Cleanup(path); err == nil {
		t.Fatal("expected Cleanup to report the failed removal")
	}

	var buf bytes.Buffer
	logger.Logger.SetOutput(&buf)
	defer logger.Logger.SetOutput(os.Stderr)

	discard(path)
	if !strings.Contains(buf.String(), "Failed to remove captured frame") {
		t.Errorf("removal failure was not logged: %q", buf.String())
	}
}

func TestNew(t *testing.T) {
	cfg := config.Default()
	cfg.CaptureCommand = "grim -o DP-1"

	c, ok := New(cfg).(*CommandCapturer)
	if !ok {
		t.Fatalf("expected CommandCapturer, got %T", New(cfg))
	}
	if c.Command != "grim" || len(c.Args) != 2 || c.Args[1] != "DP-1" {
		t.Errorf("unexpected command: %+v", c)
	}

	cfg.CaptureBackend = config.CaptureNative
	cfg.DisplayIndex = 2
	n, ok := New(cfg).(*NativeCapturer)
	if !ok || n.Display != 2 {
		t.Errorf("expected NativeCapturer on display 2, got %#v", New(cfg))
	}
}
