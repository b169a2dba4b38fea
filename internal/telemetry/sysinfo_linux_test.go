//go:build linux

package telemetry

import (
	"context"
	"testing"
)

func TestSysinfo(t *testing.T) {
	snap, err := Sysinfo{}.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Sysinfo failed: %v", err)
	}
	if snap.TotalBytes <= 0 {
		t.Errorf("TotalBytes: got %d, want > 0", snap.TotalBytes)
	}
	if snap.FreeBytes < 0 || snap.FreeBytes > snap.TotalBytes {
		t.Errorf("FreeBytes %d outside [0, %d]", snap.FreeBytes, snap.TotalBytes)
	}
}
