// Package boundary finds how far a guide line can extend from a point before
// it crosses a perceptible color edge.
//
// A scan walks pixel by pixel from an origin toward the image edge along one
// axis, comparing each pixel with the previous one. The first pixel whose
// color distance exceeds the threshold is the limit; if none does, the edge
// coordinate is. Scan runs up to four such walks (up, down, left, right) as
// selected by a Mode.
//
// Scans are pure functions of the image and the query. They never clamp
// coordinates and never cache results.
package boundary
