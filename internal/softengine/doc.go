// Package softengine is a pure-Go pixel engine implementing protocol.Engine.
//
// Every engine object is a packed pixel buffer of 3 (RGB) or 4 (non
// premultiplied RGBA) bytes per pixel, addressed by a generation-tagged
// reference so a stale reference never aliases a newer object:
//
//	ref = generation<<32 | (slot index + 1)
//
// Buffers are allocated from a budget (Options.MaxBytes); exceeding it yields
// CodeOutOfMemory the way a native allocator failure would. Options.MaxObjects
// caps the number of live objects, beyond which Init returns 0.
//
// # Operations
//
//   - LoadImage decodes JPEG and PNG files. 16-bit PNGs are rejected with
//     CodeUnsupportedPNGConfig.
//   - SaveImage encodes through disintegration/imaging, honoring jpegQuality.
//   - ApplyEffect parses the command with effect.Decode and runs the kernels
//     from anthonynsimon/bild.
//   - Rotate turns the buffer clockwise. The slow path permutes pixels in
//     place by following cycles; the fast path renders into a second buffer
//     and therefore needs twice the memory while it runs.
//   - SetPixels copies a source rectangle into a 4-byte view, SetScaledPixels
//     resamples it with golang.org/x/image/draw.
//
// Calls on different references may run concurrently. Each object carries its
// own lock, so concurrent calls on one reference are serialized too.
package softengine
