//go:build !leakcheck

package nimage

import "github.com/ironsheep/nativeimage-mcp/internal/protocol"

func trackCreate(protocol.Ref, int) {}
func trackDispose(protocol.Ref)     {}

// DumpLeaks always returns nil without the leakcheck tag.
func DumpLeaks() []LeakRecord { return nil }

// ResetTracker is a no-op without the leakcheck tag.
func ResetTracker() {}

// TrackedCount always returns 0 without the leakcheck tag.
func TrackedCount() int { return 0 }
