//go:build !linux

package telemetry

import "context"

// Sysinfo is only available on Linux.
type Sysinfo struct{}

// Snapshot implements Source.
func (Sysinfo) Snapshot(context.Context) (Snapshot, error) {
	return Snapshot{}, ErrUnsupported
}
