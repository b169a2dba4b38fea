// Package imgerr defines the error taxonomy for engine-backed images.
//
// Every failure surfaced by the nimage package is an *Error carrying a Kind.
// Kinds fall into two groups: those translated from engine result codes and
// those detected locally before any engine call is made.
//
// Errors compare by kind, so callers can write
//
//	if errors.Is(err, imgerr.ErrOutOfMemory) {
//	    // shed load, dispose caches, retry smaller
//	}
//
// or switch on imgerr.KindOf(err).
package imgerr
