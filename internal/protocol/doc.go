// Package protocol defines the boundary between the Go host and a pixel engine.
//
// The engine owns image objects that live outside the host's own accounting.
// The host only ever sees an opaque, non-zero Ref per object and talks to the
// engine through the function-call protocol captured by the Engine interface.
// Every operation that can fail returns a ResultCode; zero means success and
// there are no partial-success codes.
//
// # Formats
//
// Three codec paths exist, identified by numeric format IDs shared with the
// engine:
//   - FormatJPEGRGB (1): JPEG decoded/encoded as 3 bytes per pixel
//   - FormatPNGRGB (2): PNG without alpha
//   - FormatPNGRGBA (3): PNG with alpha
//
// # Metadata
//
// Engine metadata is returned as a small JSON object with the keys
// "imageWidth" and "imageHeight". Callers must re-read it after every mutating
// call; the engine is the only authority on the current dimensions.
package protocol
