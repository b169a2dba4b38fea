package telemetry

import (
	"fmt"
	"runtime"
	"strings"
)

// Source kinds accepted by New.
const (
	KindSysinfo = "sysinfo"
	KindMeminfo = "meminfo"
	KindStatic  = "static"
)

// Options selects and parameterizes a source.
type Options struct {
	Kind        string
	MeminfoPath string
	Static      Snapshot
}

// Default returns the preferred source for the current platform.
func Default() Source {
	if runtime.GOOS == "linux" {
		return Sysinfo{}
	}
	return Static{}
}

// New builds the source named by opts.Kind. An empty kind selects Default.
func New(opts Options) (Source, error) {
	switch strings.ToLower(opts.Kind) {
	case "":
		return Default(), nil
	case KindSysinfo:
		return Sysinfo{}, nil
	case KindMeminfo:
		return Meminfo{Path: opts.MeminfoPath}, nil
	case KindStatic:
		return Static(opts.Static), nil
	default:
		return nil, fmt.Errorf("unknown telemetry source %q", opts.Kind)
	}
}
