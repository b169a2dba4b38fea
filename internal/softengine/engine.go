package softengine

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ironsheep/nativeimage-mcp/internal/protocol"
)

// Options bounds the engine's resources.
type Options struct {
	// MaxBytes caps the sum of all pixel buffers, including transient rotate
	// buffers. Zero means unlimited.
	MaxBytes int64

	// MaxObjects caps the number of live objects. Zero means unlimited.
	MaxObjects int

	Logger *zap.Logger
}

// Stats reports engine usage.
type Stats struct {
	Objects   int   `json:"objects"`
	UsedBytes int64 `json:"usedBytes"`
	MaxBytes  int64 `json:"maxBytes"`
}

type slot struct {
	gen uint32
	obj *object
}

// Engine is a protocol.Engine backed by Go memory.
type Engine struct {
	opts   Options
	logger *zap.Logger

	mu    sync.Mutex
	slots []slot
	free  []uint32
	live  int
	used  int64
}

var _ protocol.Engine = (*Engine)(nil)

// New returns an engine with the given limits.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{opts: opts, logger: logger}
}

func makeRef(index, gen uint32) protocol.Ref {
	return protocol.Ref(uint64(gen)<<32 | uint64(index+1))
}

func splitRef(ref protocol.Ref) (index, gen uint32, ok bool) {
	low := uint32(uint64(ref) & 0xffffffff)
	if low == 0 {
		return 0, 0, false
	}
	return low - 1, uint32(uint64(ref) >> 32), true
}

// Init implements protocol.Engine.
func (e *Engine) Init(bytesPerPixel int) protocol.Ref {
	if bytesPerPixel != protocol.RGB && bytesPerPixel != protocol.RGBA {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.opts.MaxObjects > 0 && e.live >= e.opts.MaxObjects {
		e.logger.Debug("engine object limit reached", zap.Int("max_objects", e.opts.MaxObjects))
		return 0
	}

	obj := &object{engine: e, bpp: bytesPerPixel}

	var index uint32
	if n := len(e.free); n > 0 {
		index = e.free[n-1]
		e.free = e.free[:n-1]
	} else {
		index = uint32(len(e.slots))
		e.slots = append(e.slots, slot{gen: 1})
	}
	e.slots[index].obj = obj
	e.live++
	return makeRef(index, e.slots[index].gen)
}

func (e *Engine) lookup(ref protocol.Ref) *object {
	index, gen, ok := splitRef(ref)
	if !ok {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if int(index) >= len(e.slots) {
		return nil
	}
	s := e.slots[index]
	if s.gen != gen {
		return nil
	}
	return s.obj
}

// Dispose implements protocol.Engine.
func (e *Engine) Dispose(ref protocol.Ref) {
	index, gen, ok := splitRef(ref)
	if !ok {
		return
	}

	e.mu.Lock()
	if int(index) >= len(e.slots) || e.slots[index].gen != gen || e.slots[index].obj == nil {
		e.mu.Unlock()
		return
	}
	obj := e.slots[index].obj
	e.slots[index].obj = nil
	e.slots[index].gen++
	if e.slots[index].gen == 0 {
		e.slots[index].gen = 1
	}
	e.free = append(e.free, index)
	e.live--
	e.mu.Unlock()

	obj.mu.Lock()
	obj.release()
	obj.mu.Unlock()
}

// MetadataJSON implements protocol.Engine. Unknown references yield "".
func (e *Engine) MetadataJSON(ref protocol.Ref) string {
	obj := e.lookup(ref)
	if obj == nil {
		return ""
	}
	obj.mu.Lock()
	defer obj.mu.Unlock()
	return protocol.EncodeDimensions(obj.w, obj.h)
}

// Stats returns current usage.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{Objects: e.live, UsedBytes: e.used, MaxBytes: e.opts.MaxBytes}
}

// reserve charges n bytes against the budget.
func (e *Engine) reserve(n int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.opts.MaxBytes > 0 && e.used+n > e.opts.MaxBytes {
		return false
	}
	e.used += n
	return true
}

func (e *Engine) unreserve(n int64) {
	e.mu.Lock()
	e.used -= n
	e.mu.Unlock()
}
