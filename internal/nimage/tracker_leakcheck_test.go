//go:build leakcheck

package nimage

import (
	"strings"
	"testing"

	"github.com/ironsheep/nativeimage-mcp/internal/admission"
	"github.com/ironsheep/nativeimage-mcp/internal/protocol"
	"github.com/ironsheep/nativeimage-mcp/internal/softengine"
)

func TestLeakTracker(t *testing.T) {
	ResetTracker()
	t.Cleanup(ResetTracker)

	f := newFixture(t, 4*admission.GiB, softengine.Options{})
	kept, err := f.rt.Create(protocol.RGB)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer kept.Dispose()
	disposed, err := f.rt.Create(protocol.RGBA)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if n := TrackedCount(); n != 2 {
		t.Fatalf("TrackedCount after two creates: got %d, want 2", n)
	}

	disposed.Dispose()
	if n := TrackedCount(); n != 1 {
		t.Fatalf("TrackedCount after dispose: got %d, want 1", n)
	}

	leaks := DumpLeaks()
	if len(leaks) != 1 {
		t.Fatalf("DumpLeaks: got %d records, want 1", len(leaks))
	}
	rec := leaks[0]
	if rec.Ref != kept.Ref() || rec.BytesPerPixel != protocol.RGB {
		t.Errorf("record: got ref=%d bpp=%d, want ref=%d bpp=%d", rec.Ref, rec.BytesPerPixel, kept.Ref(), protocol.RGB)
	}
	if !strings.Contains(rec.Stack, "TestLeakTracker") {
		t.Errorf("stack does not name the creating test:\n%s", rec.Stack)
	}

	ResetTracker()
	if n := TrackedCount(); n != 0 {
		t.Errorf("TrackedCount after reset: got %d, want 0", n)
	}
}
