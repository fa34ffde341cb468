package server

import "fmt"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file, or a path returned by ruler_capture",
	}
}

func coordinateProperties() (x, y map[string]interface{}) {
	x = map[string]interface{}{
		"type":        "integer",
		"description": "X coordinate of the origin (0-based, from left)",
	}
	y = map[string]interface{}{
		"type":        "integer",
		"description": "Y coordinate of the origin (0-based, from top)",
	}
	return x, y
}

// scanProperties are shared by every tool that runs a boundary scan. The
// advertised defaults are the ones the server applies.
func scanProperties(d Defaults) map[string]interface{} {
	x, y := coordinateProperties()
	return map[string]interface{}{
		"path": pathProperty(),
		"x":    x,
		"y":    y,
		"mode": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"both", "horizontal", "vertical"},
			"description": "Which axes to scan. Default " + d.Mode.String(),
			"default":     d.Mode.String(),
		},
		"threshold": map[string]interface{}{
			"type":        "number",
			"description": fmt.Sprintf("Color difference between neighbouring pixels that counts as an edge (exclusive). Default %g", d.Threshold),
			"default":     d.Threshold,
		},
		"metric": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"rgb", "cie76", "ciede2000"},
			"description": "Color distance: Euclidean RGB, or perceptual Delta E scaled by 100. Default " + d.Metric.String(),
			"default":     d.Metric.String(),
		},
	}
}

// GetToolDefinitions returns all available tools, advertising d as the
// defaults for omitted scan settings.
func GetToolDefinitions(d Defaults) []Tool {
	renderProps := scanProperties(d)
	renderProps["output_path"] = map[string]interface{}{
		"type":        "string",
		"description": "Optional path to also write the rendered PNG to",
	}
	renderProps["hide_label"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Draw guide lines only. Default false",
		"default":     false,
	}

	x, y := coordinateProperties()

	return []Tool{
		// Image Source
		{
			Name:        "ruler_load",
			Description: "Load an image file and return its dimensions, format and file size. The image is cached for subsequent calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "ruler_dimensions",
			Description: "Get the width and height of an image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "ruler_capture",
			Description: "Capture the screen and return the path of the frame. The frame is removed when the server exits.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Boundary Scanning
		{
			Name:        "ruler_scan",
			Description: "Walk from the origin toward each image edge and return the first pixel in each direction whose color differs from the previous one by more than the threshold (top, bottom, left, right).",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": scanProperties(d),
				"required":   []string{"path", "x", "y"},
			},
		},
		{
			Name:        "ruler_measure",
			Description: "Scan from the origin and report the enclosed width and height in pixels (limits inclusive), with the label the overlay shows.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": scanProperties(d),
				"required":   []string{"path", "x", "y"},
			},
		},
		{
			Name:        "ruler_adjust_threshold",
			Description: "Apply scroll-wheel threshold adjustment. Positive delta raises the threshold, negative lowers it; the step is proportional and the result stays within [1, 255].",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"current": map[string]interface{}{
						"type":        "number",
						"description": fmt.Sprintf("Threshold to adjust. Default %g", d.Threshold),
						"default":     d.Threshold,
					},
					"delta": map[string]interface{}{
						"type":        "number",
						"description": "Scroll direction: >0 raises, <0 lowers, 0 only clamps",
					},
					"steps": map[string]interface{}{
						"type":        "integer",
						"description": "Number of notches to apply. Default 1",
						"default":     1,
					},
				},
				"required": []string{"delta"},
			},
		},

		// Inspection
		{
			Name:        "ruler_sample_color",
			Description: "Get the exact color at a pixel as hex, RGB and HSL.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x":    x,
					"y":    y,
				},
				"required": []string{"path", "x", "y"},
			},
		},
		{
			Name:        "ruler_render_overlay",
			Description: "Scan from the origin and return the image with guide lines, end caps and the measurement label drawn on it, as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": renderProps,
				"required":   []string{"path", "x", "y"},
			},
		},
		{
			Name:        "ruler_loupe",
			Description: "Return a magnified, pixel-exact view of the area around a point with the center pixel outlined.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x":    x,
					"y":    y,
					"radius": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels to include on each side of the center (max 256). Default 8",
						"default":     8,
					},
					"zoom": map[string]interface{}{
						"type":        "integer",
						"description": "Magnification factor (max 32). Default 8",
						"default":     8,
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(s.defaults),
		},
	}
}
