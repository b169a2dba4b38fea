//go:build linux

package telemetry

import (
	"context"
	"fmt"

	"golang.org/x/sys/unix"
)

// Sysinfo queries the kernel with sysinfo(2).
type Sysinfo struct{}

// Snapshot implements Source.
func (Sysinfo) Snapshot(context.Context) (Snapshot, error) {
	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err != nil {
		return Snapshot{}, fmt.Errorf("sysinfo failed: %w", err)
	}
	unit := uint64(si.Unit)
	if unit == 0 {
		unit = 1
	}
	return Snapshot{
		TotalBytes: int64(uint64(si.Totalram) * unit),
		FreeBytes:  int64(uint64(si.Freeram) * unit),
	}, nil
}
