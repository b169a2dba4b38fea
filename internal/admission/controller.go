package admission

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ironsheep/nativeimage-mcp/internal/imgerr"
	"github.com/ironsheep/nativeimage-mcp/internal/telemetry"
)

// Controller gates engine allocations.
type Controller struct {
	source        telemetry.Source
	ledger        *Ledger
	tiers         []Tier
	fallbackTotal int64
	strict        bool
	logger        *zap.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithTiers replaces the default tiers.
func WithTiers(tiers []Tier) Option {
	return func(c *Controller) {
		if len(tiers) > 0 {
			c.tiers = sortTiers(tiers)
		}
	}
}

// WithFallbackTotal sets the device total assumed when telemetry reports zero.
func WithFallbackTotal(n int64) Option {
	return func(c *Controller) {
		if n > 0 {
			c.fallbackTotal = n
		}
	}
}

// WithStrict selects whether Reserve holds bytes (true, the default) or only
// checks.
func WithStrict(strict bool) Option {
	return func(c *Controller) { c.strict = strict }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewController returns a controller reading source and accounting in ledger.
func NewController(source telemetry.Source, ledger *Ledger, opts ...Option) *Controller {
	c := &Controller{
		source:        source,
		ledger:        ledger,
		tiers:         DefaultTiers(),
		fallbackTotal: DefaultFallbackTotal,
		strict:        true,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ledger == nil {
		c.ledger = NewLedger(c.logger)
	}
	return c
}

// Ledger returns the ledger the controller accounts against.
func (c *Controller) Ledger() *Ledger { return c.ledger }

// Strict reports whether Reserve holds bytes.
func (c *Controller) Strict() bool { return c.strict }

// Decision describes one admission evaluation.
type Decision struct {
	Requested  int64   `json:"requestedBytes"`
	Live       int64   `json:"liveBytes"`
	Reserved   int64   `json:"reservedBytes"`
	TotalBytes int64   `json:"totalBytes"`
	TotalKnown bool    `json:"totalKnown"`
	Ratio      float64 `json:"ratio"`
	MaxRatio   float64 `json:"maxRatio"`
	Allowed    bool    `json:"allowed"`
}

// total returns the effective device total and whether it came from telemetry.
func (c *Controller) total(ctx context.Context) (int64, bool, error) {
	snap, err := c.source.Snapshot(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read memory telemetry: %w", err)
	}
	if !snap.Known() {
		return c.fallbackTotal, false, nil
	}
	return snap.TotalBytes, true, nil
}

func (c *Controller) decide(total int64, known bool, live, reserved, requested int64) Decision {
	if requested < 0 {
		requested = 0
	}
	d := Decision{
		Requested:  requested,
		Live:       live,
		Reserved:   reserved,
		TotalBytes: total,
		TotalKnown: known,
		MaxRatio:   maxRatio(c.tiers, total),
	}
	d.Ratio = float64(live+reserved+requested) / float64(total)
	d.Allowed = d.Ratio <= d.MaxRatio
	return d
}

// Evaluate computes a decision without reserving anything.
func (c *Controller) Evaluate(ctx context.Context, requested int64) (Decision, error) {
	total, known, err := c.total(ctx)
	if err != nil {
		return Decision{}, err
	}
	c.ledger.mu.Lock()
	live, reserved := c.ledger.live, c.ledger.reserved
	c.ledger.mu.Unlock()
	return c.decide(total, known, live, reserved, requested), nil
}

// Check returns an out_of_memory error if requested bytes would cross the
// threshold. A telemetry failure is logged and treated as an unknown total.
func (c *Controller) Check(ctx context.Context, op string, requested int64) error {
	d, err := c.Evaluate(ctx, requested)
	if err != nil {
		c.logger.Warn("admission using fallback total", zap.String("op", op), zap.Error(err))
		d = c.decide(c.fallbackTotal, false, c.ledger.Live(), c.ledger.Reserved(), requested)
	}
	return c.verdict(op, d)
}

func (c *Controller) verdict(op string, d Decision) error {
	if d.Allowed {
		return nil
	}
	c.logger.Warn("allocation denied",
		zap.String("op", op),
		zap.Int64("requested_bytes", d.Requested),
		zap.Int64("live_bytes", d.Live),
		zap.Int64("reserved_bytes", d.Reserved),
		zap.Int64("total_bytes", d.TotalBytes),
		zap.Float64("ratio", d.Ratio),
		zap.Float64("max_ratio", d.MaxRatio))
	return imgerr.OutOfMemory(op, d.Requested, d.TotalBytes)
}

// Reservation holds admitted bytes until released.
type Reservation struct {
	ledger *Ledger
	bytes  int64
	once   sync.Once
}

// Bytes returns the number of bytes held.
func (r *Reservation) Bytes() int64 {
	if r == nil {
		return 0
	}
	return r.bytes
}

// Release returns the held bytes. Safe to call more than once and on nil.
func (r *Reservation) Release() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		if r.bytes > 0 {
			r.ledger.release(r.bytes)
		}
	})
}

// Reserve admits requested bytes. In strict mode the check and the hold happen
// under the ledger lock, so concurrent callers account for each other.
// The caller must Release the reservation once the engine call has returned
// and the live total has been updated.
func (c *Controller) Reserve(ctx context.Context, op string, requested int64) (*Reservation, error) {
	if !c.strict {
		if err := c.Check(ctx, op, requested); err != nil {
			return nil, err
		}
		return &Reservation{ledger: c.ledger}, nil
	}

	total, known, err := c.total(ctx)
	if err != nil {
		c.logger.Warn("admission using fallback total", zap.String("op", op), zap.Error(err))
		total, known = c.fallbackTotal, false
	}

	c.ledger.mu.Lock()
	d := c.decide(total, known, c.ledger.live, c.ledger.reserved, requested)
	if d.Allowed {
		c.ledger.reserved += d.Requested
	}
	c.ledger.mu.Unlock()

	if err := c.verdict(op, d); err != nil {
		return nil, err
	}
	return &Reservation{ledger: c.ledger, bytes: d.Requested}, nil
}

// Status is a point-in-time view of admission state.
type Status struct {
	LiveBytes     int64              `json:"liveBytes"`
	ReservedBytes int64              `json:"reservedBytes"`
	TrackedRefs   int                `json:"trackedRefs"`
	Snapshot      telemetry.Snapshot `json:"snapshot"`
	TotalBytes    int64              `json:"effectiveTotalBytes"`
	MaxRatio      float64            `json:"maxRatio"`
	Strict        bool               `json:"strict"`
}

// Status reports the ledger and the active tier.
func (c *Controller) Status(ctx context.Context) (Status, error) {
	snap, err := c.source.Snapshot(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("failed to read memory telemetry: %w", err)
	}
	total := snap.TotalBytes
	if !snap.Known() {
		total = c.fallbackTotal
	}

	c.ledger.mu.Lock()
	s := Status{
		LiveBytes:     c.ledger.live,
		ReservedBytes: c.ledger.reserved,
		TrackedRefs:   len(c.ledger.tracked),
	}
	c.ledger.mu.Unlock()

	s.Snapshot = snap
	s.TotalBytes = total
	s.MaxRatio = maxRatio(c.tiers, total)
	s.Strict = c.strict
	return s, nil
}
