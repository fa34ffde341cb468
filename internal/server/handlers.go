package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/pixel-ruler/internal/boundary"
	"github.com/ironsheep/pixel-ruler/internal/logger"
	"github.com/ironsheep/pixel-ruler/internal/overlay"
	"github.com/ironsheep/pixel-ruler/internal/raster"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "ruler_scan").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	entry := logger.WithFields(logrus.Fields{
		"tool":        params.Name,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Warn("Tool execution failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	entry.Debug("Tool executed")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image source
	case "ruler_load":
		return s.handleLoad(args)
	case "ruler_dimensions":
		return s.handleDimensions(args)
	case "ruler_capture":
		return s.handleCapture(ctx)

	// Boundary scanning
	case "ruler_scan":
		return s.handleScan(args)
	case "ruler_measure":
		return s.handleMeasure(args)
	case "ruler_adjust_threshold":
		return s.handleAdjustThreshold(args)

	// Inspection
	case "ruler_sample_color":
		return s.handleSampleColor(args)
	case "ruler_render_overlay":
		return s.handleRenderOverlay(args)
	case "ruler_loupe":
		return s.handleLoupe(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Image Source Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (a pathArgs) validate() error {
	if a.Path == "" {
		return errors.New("path is required")
	}
	return nil
}

func (s *Server) handleLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return raster.LoadInfo(s.cache, a.Path)
}

// DimensionsResult is the size of a loaded image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Server) handleDimensions(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	w, h := img.Dimensions()
	return &DimensionsResult{Width: w, Height: h}, nil
}

// CaptureResult describes a freshly captured frame. Path can be passed to
// every other tool until the server exits.
type CaptureResult struct {
	Path       string `json:"path"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	CapturedAt string `json:"captured_at"`
}

func (s *Server) handleCapture(ctx context.Context) (interface{}, error) {
	if s.capturer == nil {
		return nil, errors.New("screen capture is not configured")
	}
	frame, err := s.capturer.Capture(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.Put(frame.Path, frame.Image)
	s.mu.Lock()
	s.frames = append(s.frames, frame.Path)
	s.mu.Unlock()

	w, h := frame.Image.Dimensions()
	return &CaptureResult{
		Path:       frame.Path,
		Width:      w,
		Height:     h,
		CapturedAt: frame.CapturedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

// === Boundary Scanning Handlers ===

type scanArgs struct {
	Path      string   `json:"path"`
	X         int      `json:"x"`
	Y         int      `json:"y"`
	Mode      string   `json:"mode"`
	Threshold *float64 `json:"threshold"`
	Metric    string   `json:"metric"`
}

// query resolves optional arguments against the server defaults.
func (s *Server) query(a scanArgs) (boundary.Query, error) {
	q := boundary.Query{
		Origin:    boundary.Point{X: a.X, Y: a.Y},
		Threshold: s.defaults.Threshold,
		Mode:      s.defaults.Mode,
		Metric:    s.defaults.Metric,
	}
	if a.Path == "" {
		return q, errors.New("path is required")
	}
	if a.Threshold != nil {
		q.Threshold = *a.Threshold
	}
	if a.Mode != "" {
		m, err := boundary.ParseMode(a.Mode)
		if err != nil {
			return q, err
		}
		q.Mode = m
	}
	if a.Metric != "" {
		m, err := boundary.ParseMetric(a.Metric)
		if err != nil {
			return q, err
		}
		q.Metric = m
	}
	return q, nil
}

func (s *Server) scan(args json.RawMessage) (*raster.Image, boundary.Query, boundary.Result, error) {
	var a scanArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, boundary.Query{}, boundary.Result{}, err
	}
	q, err := s.query(a)
	if err != nil {
		return nil, q, boundary.Result{}, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, q, boundary.Result{}, err
	}
	res, err := boundary.Scan(img, q)
	return img, q, res, err
}

func (s *Server) handleScan(args json.RawMessage) (interface{}, error) {
	_, _, res, err := s.scan(args)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// MeasureResult is a scan with its spans and the settings that produced it.
type MeasureResult struct {
	Result      boundary.Result `json:"result"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	Label       string          `json:"label"`
	Mode        boundary.Mode   `json:"mode"`
	Metric      boundary.Metric `json:"metric"`
	Threshold   float64         `json:"threshold"`
	OriginColor string          `json:"origin_color"`
}

func (s *Server) handleMeasure(args json.RawMessage) (interface{}, error) {
	img, q, res, err := s.scan(args)
	if err != nil {
		return nil, err
	}
	m := boundary.Measure(res, q.Mode)
	return &MeasureResult{
		Result:      res,
		Width:       m.Width,
		Height:      m.Height,
		Label:       m.Label(),
		Mode:        q.Mode,
		Metric:      q.Metric,
		Threshold:   q.Threshold,
		OriginColor: img.At(res.Origin.X, res.Origin.Y).Hex(),
	}, nil
}

type adjustThresholdArgs struct {
	Current *float64 `json:"current"`
	Delta   float64  `json:"delta"`
	Steps   int      `json:"steps"`
}

// ThresholdResult is the threshold after adjustment.
type ThresholdResult struct {
	Previous  float64 `json:"previous"`
	Threshold float64 `json:"threshold"`
}

func (s *Server) handleAdjustThreshold(args json.RawMessage) (interface{}, error) {
	var a adjustThresholdArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	current := s.defaults.Threshold
	if a.Current != nil {
		current = *a.Current
	}
	if a.Steps <= 0 {
		a.Steps = 1
	}
	if a.Steps > 1000 {
		return nil, fmt.Errorf("steps %d exceeds maximum 1000", a.Steps)
	}

	t := current
	for i := 0; i < a.Steps; i++ {
		t = boundary.AdjustThreshold(t, a.Delta)
	}
	return &ThresholdResult{Previous: current, Threshold: t}, nil
}

// === Inspection Handlers ===

type pointArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleSampleColor(args json.RawMessage) (interface{}, error) {
	var a pointArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return raster.SampleColor(img, a.X, a.Y)
}

// renderArgs are the options ruler_render_overlay takes on top of scanArgs.
type renderArgs struct {
	OutputPath string `json:"output_path"`
	HideLabel  bool   `json:"hide_label"`
}

// RenderOverlayResult is a rendered overlay, optionally also written to
// disk.
type RenderOverlayResult struct {
	*overlay.RenderResult
	Label      string `json:"label"`
	OutputPath string `json:"output_path,omitempty"`
}

func (s *Server) handleRenderOverlay(args json.RawMessage) (interface{}, error) {
	var a renderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, q, res, err := s.scan(args)
	if err != nil {
		return nil, err
	}

	opts := overlay.DefaultOptions()
	opts.HideLabel = a.HideLabel

	if a.OutputPath != "" {
		if err := overlay.Save(a.OutputPath, overlay.Render(img, res, q.Mode, opts)); err != nil {
			return nil, err
		}
	}

	out, err := overlay.RenderPNG(img, res, q.Mode, opts)
	if err != nil {
		return nil, err
	}
	return &RenderOverlayResult{
		RenderResult: out,
		Label:        out.Measurement.Label(),
		OutputPath:   a.OutputPath,
	}, nil
}

type loupeArgs struct {
	Path   string `json:"path"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Radius int    `json:"radius"`
	Zoom   int    `json:"zoom"`
}

func (s *Server) handleLoupe(args json.RawMessage) (interface{}, error) {
	var a loupeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return overlay.Loupe(img, boundary.Point{X: a.X, Y: a.Y}, a.Radius, a.Zoom)
}
