package nimage

import "github.com/ironsheep/nativeimage-mcp/internal/protocol"

// Leak tracking for handles that were never disposed.
//
// Build with -tags leakcheck to record the creation stack of every live
// handle. In default builds the tracker calls are no-ops.
//
//	h, _ := rt.Create(protocol.RGBA)
//	// ... forget h.Dispose() ...
//	for _, rec := range nimage.DumpLeaks() {
//		log.Printf("leaked ref %d:\n%s", rec.Ref, rec.Stack)
//	}

// LeakRecord describes a handle that has not been disposed.
type LeakRecord struct {
	Ref           protocol.Ref
	BytesPerPixel int
	Stack         string // call stack at creation time
}
