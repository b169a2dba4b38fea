//go:build leakcheck

package nimage

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/ironsheep/nativeimage-mcp/internal/protocol"
)

var (
	trackerMu sync.Mutex
	tracked   = make(map[protocol.Ref]LeakRecord)
)

func callerStack(skip int) string {
	var pcs [8]uintptr
	n := runtime.Callers(skip+2, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	var b strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "  %s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return b.String()
}

func trackCreate(ref protocol.Ref, bpp int) {
	trackerMu.Lock()
	defer trackerMu.Unlock()
	tracked[ref] = LeakRecord{
		Ref:           ref,
		BytesPerPixel: bpp,
		Stack:         callerStack(3),
	}
}

func trackDispose(ref protocol.Ref) {
	trackerMu.Lock()
	defer trackerMu.Unlock()
	delete(tracked, ref)
}

// DumpLeaks returns every handle created and not yet disposed.
func DumpLeaks() []LeakRecord {
	trackerMu.Lock()
	defer trackerMu.Unlock()
	result := make([]LeakRecord, 0, len(tracked))
	for _, rec := range tracked {
		result = append(result, rec)
	}
	return result
}

// ResetTracker clears all tracking state.
func ResetTracker() {
	trackerMu.Lock()
	defer trackerMu.Unlock()
	tracked = make(map[protocol.Ref]LeakRecord)
}

// TrackedCount returns the number of handles not yet disposed.
func TrackedCount() int {
	trackerMu.Lock()
	defer trackerMu.Unlock()
	return len(tracked)
}
