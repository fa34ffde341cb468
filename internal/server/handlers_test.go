package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ironsheep/pixel-ruler/internal/boundary"
	"github.com/ironsheep/pixel-ruler/internal/capture"
	"github.com/ironsheep/pixel-ruler/internal/raster"
)

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return writePNG(t, img)
}

// createBoxImageFile draws a black box covering [10,30) x [5,15) on a white
// 40x20 image.
func createBoxImageFile(t *testing.T) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			c := color.RGBA{255, 255, 255, 255}
			if x >= 10 && x < 30 && y >= 5 && y < 15 {
				c = color.RGBA{0, 0, 0, 255}
			}
			img.Set(x, y, c)
		}
	}
	return writePNG(t, img)
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "handler-test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool runs a tools/call request and decodes the text content into out.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}, out interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	}

	resp := s.handleRequest(context.Background(), req)
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil || out == nil {
		return resp
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("unexpected content: %v", result["content"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("failed to decode tool result %q: %v", text, err)
	}
	return resp
}

type fakeCapturer struct {
	path string
	err  error
}

func (f *fakeCapturer) Capture(ctx context.Context) (*capture.Frame, error) {
	if f.err != nil {
		return nil, f.err
	}
	img, err := raster.Load(f.path)
	if err != nil {
		return nil, err
	}
	return &capture.Frame{Path: f.path, Image: img, CapturedAt: time.Now()}, nil
}

func TestHandleToolsCall_Load(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 100, 80, color.RGBA{255, 0, 0, 255})

	var info raster.Info
	resp := callTool(t, s, "ruler_load", map[string]interface{}{"path": imgPath}, &info)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if info.Width != 100 || info.Height != 80 || info.Format != "png" {
		t.Errorf("unexpected info: %+v", info)
	}
	if s.cache.Len() != 1 {
		t.Errorf("image should be cached, cache has %d entries", s.cache.Len())
	}
}

func TestHandleToolsCall_Dimensions(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 200, 150, color.RGBA{0, 255, 0, 255})

	var dims DimensionsResult
	resp := callTool(t, s, "ruler_dimensions", map[string]interface{}{"path": imgPath}, &dims)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if dims.Width != 200 || dims.Height != 150 {
		t.Errorf("dimensions: got %+v", dims)
	}
}

func TestHandleToolsCall_NonExistentFile(t *testing.T) {
	s := New()

	resp := callTool(t, s, "ruler_load", map[string]interface{}{"path": "/nonexistent/image.png"}, nil)
	if resp.Error == nil {
		t.Fatal("expected error for non-existent file")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
	if data, _ := resp.Error.Data.(string); !strings.Contains(data, "failed to read image") {
		t.Errorf("error data should describe the IO failure, got %q", data)
	}
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s := New()

	resp := callTool(t, s, "nonexistent_tool", map[string]interface{}{}, nil)
	if resp.Error == nil {
		t.Fatal("Expected error for invalid tool")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
}

func TestHandleToolsCall_MissingPath(t *testing.T) {
	s := New()

	for _, name := range []string{"ruler_load", "ruler_dimensions", "ruler_scan", "ruler_measure", "ruler_sample_color", "ruler_render_overlay", "ruler_loupe"} {
		t.Run(name, func(t *testing.T) {
			resp := callTool(t, s, name, map[string]interface{}{"x": 1, "y": 1}, nil)
			if resp.Error == nil {
				t.Fatal("expected error for missing path")
			}
		})
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New()
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Params:  json.RawMessage(`{"name": 42}`),
	}

	resp := s.handleToolsCall(context.Background(), req)
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected -32602 for invalid params, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_Scan(t *testing.T) {
	s := New()
	imgPath := createBoxImageFile(t)

	tests := []struct {
		name string
		args map[string]interface{}
		want boundary.Result
	}{
		{
			"inside box",
			map[string]interface{}{"path": imgPath, "x": 20, "y": 10},
			boundary.Result{Origin: boundary.Point{X: 20, Y: 10}, Top: 4, Bottom: 15, Left: 9, Right: 30},
		},
		{
			"outside box",
			map[string]interface{}{"path": imgPath, "x": 2, "y": 2},
			boundary.Result{Origin: boundary.Point{X: 2, Y: 2}, Top: 0, Bottom: 19, Left: 0, Right: 39},
		},
		{
			"horizontal only",
			map[string]interface{}{"path": imgPath, "x": 20, "y": 10, "mode": "horizontal"},
			boundary.Result{Origin: boundary.Point{X: 20, Y: 10}, Top: 10, Bottom: 10, Left: 9, Right: 30},
		},
		{
			"vertical only",
			map[string]interface{}{"path": imgPath, "x": 20, "y": 10, "mode": "vertical", "threshold": 255},
			boundary.Result{Origin: boundary.Point{X: 20, Y: 10}, Top: 4, Bottom: 15, Left: 20, Right: 20},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got boundary.Result
			resp := callTool(t, s, "ruler_scan", tt.args, &got)
			if resp.Error != nil {
				t.Fatalf("Unexpected error: %v", resp.Error)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHandleToolsCall_ScanErrors(t *testing.T) {
	s := New()
	imgPath := createBoxImageFile(t)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"origin outside", map[string]interface{}{"path": imgPath, "x": 40, "y": 0}},
		{"negative origin", map[string]interface{}{"path": imgPath, "x": -1, "y": 0}},
		{"zero threshold", map[string]interface{}{"path": imgPath, "x": 1, "y": 1, "threshold": 0}},
		{"unknown mode", map[string]interface{}{"path": imgPath, "x": 1, "y": 1, "mode": "diagonal"}},
		{"unknown metric", map[string]interface{}{"path": imgPath, "x": 1, "y": 1, "metric": "cmyk"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, "ruler_scan", tt.args, nil)
			if resp.Error == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestHandleToolsCall_Measure(t *testing.T) {
	s := New()
	imgPath := createBoxImageFile(t)

	var m MeasureResult
	resp := callTool(t, s, "ruler_measure", map[string]interface{}{"path": imgPath, "x": 20, "y": 10, "metric": "ciede2000"}, &m)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if m.Width != 22 || m.Height != 12 {
		t.Errorf("spans: got %dx%d, want 22x12", m.Width, m.Height)
	}
	if m.Label != "22 × 12" {
		t.Errorf("Label: got %q", m.Label)
	}
	if m.Metric != boundary.MetricCIEDE2000 || m.Threshold != 20 {
		t.Errorf("settings: got %v %v", m.Metric, m.Threshold)
	}
	if m.OriginColor != "#000000" {
		t.Errorf("OriginColor: got %q", m.OriginColor)
	}
}

func TestHandleToolsCall_MeasureUsesServerDefaults(t *testing.T) {
	s := New(WithDefaults(Defaults{Threshold: 255, Mode: boundary.HorizontalOnly}))
	imgPath := createBoxImageFile(t)

	var m MeasureResult
	callTool(t, s, "ruler_measure", map[string]interface{}{"path": imgPath, "x": 20, "y": 10}, &m)
	if m.Mode != boundary.HorizontalOnly || m.Threshold != 255 || m.Label != "22" {
		t.Errorf("expected default mode and threshold to apply, got %+v", m)
	}
}

func TestHandleToolsCall_AdjustThreshold(t *testing.T) {
	s := New()

	tests := []struct {
		name  string
		args  map[string]interface{}
		check func(t *testing.T, r ThresholdResult)
	}{
		{"default raise", map[string]interface{}{"delta": 1}, func(t *testing.T, r ThresholdResult) {
			if r.Previous != 20 || r.Threshold != 21 {
				t.Errorf("got %+v", r)
			}
		}},
		{"lower", map[string]interface{}{"current": 20, "delta": -1}, func(t *testing.T, r ThresholdResult) {
			if r.Threshold >= 20 {
				t.Errorf("got %+v", r)
			}
		}},
		{"saturate high", map[string]interface{}{"current": 250, "delta": 3, "steps": 50}, func(t *testing.T, r ThresholdResult) {
			if r.Threshold != boundary.MaxThreshold {
				t.Errorf("got %+v", r)
			}
		}},
		{"saturate low", map[string]interface{}{"current": 2, "delta": -1, "steps": 100}, func(t *testing.T, r ThresholdResult) {
			if r.Threshold != boundary.MinThreshold {
				t.Errorf("got %+v", r)
			}
		}},
		{"zero only clamps", map[string]interface{}{"current": 400, "delta": 0}, func(t *testing.T, r ThresholdResult) {
			if r.Threshold != boundary.MaxThreshold {
				t.Errorf("got %+v", r)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r ThresholdResult
			resp := callTool(t, s, "ruler_adjust_threshold", tt.args, &r)
			if resp.Error != nil {
				t.Fatalf("Unexpected error: %v", resp.Error)
			}
			tt.check(t, r)
		})
	}

	resp := callTool(t, s, "ruler_adjust_threshold", map[string]interface{}{"delta": 1, "steps": 5000}, nil)
	if resp.Error == nil {
		t.Error("expected error for excessive steps")
	}
}

func TestHandleToolsCall_SampleColor(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 50, 50, color.RGBA{128, 64, 192, 255})

	var c raster.ColorResult
	resp := callTool(t, s, "ruler_sample_color", map[string]interface{}{"path": imgPath, "x": 25, "y": 25}, &c)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if c.Hex != "#8040C0" {
		t.Errorf("Hex: got %s, want #8040C0", c.Hex)
	}

	resp = callTool(t, s, "ruler_sample_color", map[string]interface{}{"path": imgPath, "x": 50, "y": 0}, nil)
	if resp.Error == nil {
		t.Error("expected error for out-of-bounds sample")
	}
}

func TestHandleToolsCall_RenderOverlay(t *testing.T) {
	s := New()
	imgPath := createBoxImageFile(t)
	outPath := filepath.Join(t.TempDir(), "overlay.png")

	var r struct {
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		ImageBase64 string `json:"image_base64"`
		MimeType    string `json:"mime_type"`
		Label       string `json:"label"`
		OutputPath  string `json:"output_path"`
	}
	resp := callTool(t, s, "ruler_render_overlay", map[string]interface{}{
		"path": imgPath, "x": 20, "y": 10, "output_path": outPath,
	}, &r)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if r.Width != 40 || r.Height != 20 || r.MimeType != "image/png" {
		t.Errorf("unexpected header: %+v", r)
	}
	if r.Label != "22 × 12" || r.OutputPath != outPath {
		t.Errorf("label/output: %q %q", r.Label, r.OutputPath)
	}
	if _, err := base64.StdEncoding.DecodeString(r.ImageBase64); err != nil {
		t.Errorf("invalid base64: %v", err)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("overlay not written: %v", err)
	}
}

func TestHandleToolsCall_Loupe(t *testing.T) {
	s := New()
	imgPath := createBoxImageFile(t)

	var l struct {
		Width  int `json:"width"`
		Height int `json:"height"`
		Zoom   int `json:"zoom"`
	}
	resp := callTool(t, s, "ruler_loupe", map[string]interface{}{"path": imgPath, "x": 10, "y": 5, "radius": 3, "zoom": 4}, &l)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if l.Width != 28 || l.Height != 28 || l.Zoom != 4 {
		t.Errorf("unexpected loupe: %+v", l)
	}
}

func TestHandleToolsCall_Capture(t *testing.T) {
	src := createBoxImageFile(t)
	// The server removes captured frames on Close, so capture a copy.
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	framePath := filepath.Join(t.TempDir(), "frame.png")
	if err := os.WriteFile(framePath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(WithCapturer(&fakeCapturer{path: framePath}))

	var c CaptureResult
	resp := callTool(t, s, "ruler_capture", map[string]interface{}{}, &c)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if c.Path != framePath || c.Width != 40 || c.Height != 20 {
		t.Errorf("unexpected capture: %+v", c)
	}

	var res boundary.Result
	callTool(t, s, "ruler_scan", map[string]interface{}{"path": c.Path, "x": 20, "y": 10}, &res)
	if res.Right != 30 {
		t.Errorf("scan on captured frame: got %+v", res)
	}

	s.Close()
	if _, err := os.Stat(framePath); !os.IsNotExist(err) {
		t.Errorf("captured frame should be removed on Close, stat err=%v", err)
	}
	if s.cache.Len() != 0 {
		t.Errorf("captured frame should be evicted, cache has %d", s.cache.Len())
	}
}

func TestHandleToolsCall_CaptureErrors(t *testing.T) {
	resp := callTool(t, New(), "ruler_capture", map[string]interface{}{}, nil)
	if resp.Error == nil {
		t.Error("expected error without a capturer")
	}

	s := New(WithCapturer(&fakeCapturer{err: capture.ErrCaptureFailed}))
	resp = callTool(t, s, "ruler_capture", map[string]interface{}{}, nil)
	if resp.Error == nil {
		t.Fatal("expected capture error")
	}
	if data, _ := resp.Error.Data.(string); !strings.Contains(data, capture.ErrCaptureFailed.Error()) {
		t.Errorf("unexpected error data: %q", data)
	}
}

func TestExecuteTool_AllTools(t *testing.T) {
	s := New()
	imgPath := createBoxImageFile(t)

	for _, tool := range GetToolDefinitions(builtinDefaults()) {
		if tool.Name == "ruler_capture" {
			continue
		}
		t.Run(tool.Name, func(t *testing.T) {
			args, _ := json.Marshal(map[string]interface{}{"path": imgPath, "x": 5, "y": 5, "delta": 1})
			if _, err := s.executeTool(context.Background(), tool.Name, args); err != nil {
				t.Errorf("executeTool(%s) failed: %v", tool.Name, err)
			}
		})
	}
}

func TestExecuteTool_UnknownTool(t *testing.T) {
	s := New()
	_, err := s.executeTool(context.Background(), "unknown_tool", json.RawMessage(`{}`))
	if err == nil {
		t.Error("Expected error for unknown tool")
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := New()
	_, err := s.executeTool(context.Background(), "ruler_load", json.RawMessage(`{invalid}`))
	if err == nil {
		t.Error("Expected error for invalid JSON")
	}
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Errorf("expected a JSON syntax error, got %T", err)
	}
}
