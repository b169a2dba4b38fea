package admission

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ironsheep/nativeimage-mcp/internal/protocol"
)

// Ledger tracks bytes held by live engine objects and the references that own
// them. All methods are safe for concurrent use.
type Ledger struct {
	logger *zap.Logger

	mu       sync.Mutex
	live     int64
	reserved int64
	tracked  map[protocol.Ref]struct{}
}

// NewLedger returns an empty ledger. A nil logger disables logging.
func NewLedger(logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		logger:  logger,
		tracked: make(map[protocol.Ref]struct{}),
	}
}

// Track adds ref to the tracked set. It returns false if ref was already
// tracked or is zero.
func (l *Ledger) Track(ref protocol.Ref) bool {
	if ref == 0 {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.tracked[ref]; ok {
		return false
	}
	l.tracked[ref] = struct{}{}
	return true
}

// Untrack removes ref from the tracked set and reports whether it was there.
func (l *Ledger) Untrack(ref protocol.Ref) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.tracked[ref]; !ok {
		return false
	}
	delete(l.tracked, ref)
	return true
}

// Tracked reports whether ref is in the tracked set.
func (l *Ledger) Tracked(ref protocol.Ref) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.tracked[ref]
	return ok
}

// TrackedCount returns the number of tracked references.
func (l *Ledger) TrackedCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tracked)
}

// Adjust adds delta to the live total and returns the new value. The total is
// clamped at zero; reaching below zero indicates an accounting bug and is
// logged.
func (l *Ledger) Adjust(delta int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.adjustLocked(delta)
}

func (l *Ledger) adjustLocked(delta int64) int64 {
	next := l.live + delta
	if next < 0 {
		l.logger.Warn("live allocation counter would go negative, clamping",
			zap.Int64("live", l.live),
			zap.Int64("delta", delta))
		next = 0
	}
	l.live = next
	return next
}

// Live returns the bytes currently held by live engine objects.
func (l *Ledger) Live() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.live
}

// Reserved returns the bytes held by outstanding reservations.
func (l *Ledger) Reserved() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reserved
}

func (l *Ledger) release(n int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reserved -= n
	if l.reserved < 0 {
		l.reserved = 0
	}
}
