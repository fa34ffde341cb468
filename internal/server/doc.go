// Package server implements the MCP (Model Context Protocol) server for the
// pixel ruler.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image Source:
//   - ruler_load: Load image and get metadata
//   - ruler_dimensions: Get width and height
//   - ruler_capture: Capture the screen into a temporary frame
//
// Boundary Scanning:
//   - ruler_scan: Limits in each direction from an origin
//   - ruler_measure: Enclosed width and height with the overlay label
//   - ruler_adjust_threshold: Scroll-wheel threshold stepping
//
// Inspection:
//   - ruler_sample_color: Color at a pixel
//   - ruler_render_overlay: Scan drawn onto the image
//   - ruler_loupe: Magnified view around a point
//
// Scan tools take optional mode, threshold and metric arguments; omitted
// values come from the server defaults (see WithDefaults).
//
// # Image Caching
//
// Images are cached by path and reused across tool calls. Frames produced by
// ruler_capture are cached under their temporary path and deleted from disk
// when Serve returns.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(server.WithCapturer(capture.New(cfg)))
//	if err := srv.Run(ctx); err != nil {
//	    logger.WithError(err).Fatal("Server error")
//	}
package server
