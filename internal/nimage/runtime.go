package nimage

import (
	"context"

	"go.uber.org/zap"

	"github.com/ironsheep/nativeimage-mcp/internal/admission"
	"github.com/ironsheep/nativeimage-mcp/internal/imgerr"
	"github.com/ironsheep/nativeimage-mcp/internal/protocol"
)

// Runtime creates handles over one engine.
type Runtime struct {
	engine    protocol.Engine
	admission *admission.Controller
	logger    *zap.Logger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRuntime returns a runtime. The controller's ledger becomes the shared
// live-allocation counter for every handle the runtime creates.
func NewRuntime(engine protocol.Engine, controller *admission.Controller, opts ...Option) *Runtime {
	r := &Runtime{
		engine:    engine,
		admission: controller,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Admission returns the controller.
func (r *Runtime) Admission() *admission.Controller { return r.admission }

// Ledger returns the shared live-allocation ledger.
func (r *Runtime) Ledger() *admission.Ledger { return r.admission.Ledger() }

// Create allocates an engine object with the given bytes per pixel.
func (r *Runtime) Create(bytesPerPixel int) (*Handle, error) {
	const op = "create"

	if bytesPerPixel != protocol.RGB && bytesPerPixel != protocol.RGBA {
		return nil, imgerr.InvalidConfiguration(op, "bytes per pixel must be %d or %d, got %d",
			protocol.RGB, protocol.RGBA, bytesPerPixel)
	}

	ref := r.engine.Init(bytesPerPixel)
	if ref == 0 {
		return nil, imgerr.NativeInitFailure(op)
	}
	if !r.Ledger().Track(ref) {
		r.engine.Dispose(ref)
		return nil, imgerr.New(op, imgerr.KindUnknownInternal).
			Detail("engine returned reference %d which is already owned", ref).
			Build()
	}

	h := newHandle(r, ref, bytesPerPixel)
	r.logger.Debug("handle created", zap.Uint64("ref", uint64(ref)), zap.Int("bpp", bytesPerPixel))
	return h, nil
}

// deviceTotal returns the device memory used for diagnostics.
func (r *Runtime) deviceTotal(ctx context.Context) int64 {
	d, err := r.admission.Evaluate(ctx, 0)
	if err != nil {
		return 0
	}
	return d.TotalBytes
}
