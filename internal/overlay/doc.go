// Package overlay draws scan results: guide lines from the origin to each
// limit, caps at the limits, an origin dot and a measurement label.
//
// Plan turns a boundary.Result into a Layout in image coordinates. Render
// rasterizes a Layout onto a copy of the captured frame for PNG output; the
// overlay window strokes the same Layout on the GPU. Loupe produces a
// magnified crop around a point for precise placement.
package overlay
