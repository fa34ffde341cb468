// Package raster provides the immutable RGB image source that boundary scans
// read from.
//
// An Image is decoded once per session from a captured frame and is never
// mutated afterwards, so a single Image may be shared by any number of
// concurrent readers.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with the origin at the top-left corner:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//
// # Error Handling
//
// Failures are reported by wrapping one of the package sentinels so callers
// can classify them with errors.Is:
//   - ErrIO: the underlying bytes could not be read
//   - ErrDecode: the bytes are not a decodable raster image
//   - ErrOutOfBounds: a coordinate fell outside the image
//
// ErrOutOfBounds is a caller contract violation. Hosts clamp pointer
// positions with Image.Clamp before forming a query.
package raster
