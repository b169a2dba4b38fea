package telemetry

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DefaultMeminfoPath is where Linux exposes memory counters.
const DefaultMeminfoPath = "/proc/meminfo"

// Meminfo reads a /proc/meminfo style file.
type Meminfo struct {
	Path string
}

// Snapshot implements Source.
func (m Meminfo) Snapshot(context.Context) (Snapshot, error) {
	path := m.Path
	if path == "" {
		path = DefaultMeminfoPath
	}
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to open meminfo: %w", err)
	}
	defer f.Close()
	return ParseMeminfo(f)
}

// ParseMeminfo extracts MemTotal and free memory from meminfo text. Values are
// in kB. MemAvailable is preferred over MemFree when both are present.
func ParseMeminfo(r io.Reader) (Snapshot, error) {
	var (
		total, free, available int64
		haveTotal, haveAvail   bool
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		name, rest, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		switch name {
		case "MemTotal", "MemFree", "MemAvailable":
		default:
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return Snapshot{}, fmt.Errorf("meminfo: %s has no value", name)
		}
		kb, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return Snapshot{}, fmt.Errorf("meminfo: invalid %s value %q: %w", name, fields[0], err)
		}
		bytes := kb * 1024
		switch name {
		case "MemTotal":
			total, haveTotal = bytes, true
		case "MemFree":
			free = bytes
		case "MemAvailable":
			available, haveAvail = bytes, true
		}
	}
	if err := scanner.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("failed to read meminfo: %w", err)
	}
	if !haveTotal {
		return Snapshot{}, fmt.Errorf("meminfo: MemTotal not found")
	}
	if haveAvail {
		free = available
	}
	return Snapshot{TotalBytes: total, FreeBytes: free}, nil
}
