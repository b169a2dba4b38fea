// Package effect defines the declarative command protocol used to request
// pixel transformations from the engine.
//
// A command is a flat, ordered mapping from string keys to scalar values that
// always contains the "effect" key naming the kind:
//
//	{"effect":"crop","offsetX":0,"offsetY":0,"width":320,"height":240}
//
// Internally each kind is a typed value implementing Effect, so parameters are
// validated where they are built. Only numeric-range preconditions are checked
// here (brightness and contrast deltas in [-255, 255], gamma > 0); whether a
// crop or resize fits the actual image is decided by the engine.
//
// # Building
//
// Builder mirrors the incremental style of the wire format: each call sets
// "effect" and overwrites the keys it owns, leaving other keys in place.
// Build returns an immutable snapshot of the builder's state at that moment,
// or the first validation error recorded.
//
//	cmd, err := effect.NewBuilder().Brightness(40).Build()
//
// # Decoding
//
// Decode is the engine-side parser. It turns wire bytes back into a typed
// Effect and reports ErrMalformed or ErrNotDefined.
package effect
