package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Snapshot is a point-in-time reading of device memory.
type Snapshot struct {
	TotalBytes int64 `json:"totalBytes"`
	FreeBytes  int64 `json:"freeBytes"`
}

// Known reports whether the total is known.
func (s Snapshot) Known() bool { return s.TotalBytes > 0 }

// Source reports device memory.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// ErrUnsupported is returned by sources that do not work on this platform.
var ErrUnsupported = errors.New("memory telemetry not supported on this platform")

// Static always returns the same snapshot.
type Static Snapshot

// Snapshot implements Source.
func (s Static) Snapshot(context.Context) (Snapshot, error) {
	return Snapshot(s), nil
}

// Cached memoizes another source.
type Cached struct {
	source Source
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	snap    Snapshot
	readAt  time.Time
	hasSnap bool
}

// CachedOption configures a Cached source.
type CachedOption func(*Cached)

// WithLogger sets the logger used to report failed refreshes.
func WithLogger(l *zap.Logger) CachedOption {
	return func(c *Cached) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CachedOption {
	return func(c *Cached) { c.now = now }
}

// NewCached wraps source. ttl <= 0 reads once and never refreshes.
func NewCached(source Source, ttl time.Duration, opts ...CachedOption) *Cached {
	c := &Cached{
		source: source,
		ttl:    ttl,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the cached reading, refreshing it when stale. If a refresh
// fails and an older reading exists, the older reading is returned.
func (c *Cached) Snapshot(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hasSnap && (c.ttl <= 0 || c.now().Sub(c.readAt) < c.ttl) {
		return c.snap, nil
	}

	snap, err := c.source.Snapshot(ctx)
	if err != nil {
		if c.hasSnap {
			c.logger.Warn("memory telemetry refresh failed, keeping previous snapshot", zap.Error(err))
			return c.snap, nil
		}
		return Snapshot{}, err
	}

	c.snap = snap
	c.readAt = c.now()
	c.hasSnap = true
	c.logger.Debug("memory telemetry refreshed",
		zap.Int64("total_bytes", snap.TotalBytes),
		zap.Int64("free_bytes", snap.FreeBytes))
	return snap, nil
}

// Invalidate drops the cached reading.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	c.hasSnap = false
	c.mu.Unlock()
}
