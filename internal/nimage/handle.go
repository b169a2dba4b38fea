package nimage

import (
	"context"
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ironsheep/nativeimage-mcp/internal/effect"
	"github.com/ironsheep/nativeimage-mcp/internal/imgerr"
	"github.com/ironsheep/nativeimage-mcp/internal/protocol"
)

// Handle owns one engine object.
type Handle struct {
	rt  *Runtime
	bpp int

	// ref is zero once disposed.
	ref atomic.Uint64

	// charged is what this handle currently contributes to the ledger.
	charged atomic.Int64
}

func newHandle(rt *Runtime, ref protocol.Ref, bpp int) *Handle {
	h := &Handle{rt: rt, bpp: bpp}
	h.ref.Store(uint64(ref))
	trackCreate(ref, bpp)
	runtime.SetFinalizer(h, (*Handle).finalize)
	return h
}

// Metadata is a fresh reading of the engine object's geometry.
type Metadata struct {
	Width          int   `json:"width"`
	Height         int   `json:"height"`
	BytesPerPixel  int   `json:"bytesPerPixel"`
	AllocatedBytes int64 `json:"allocatedBytes"`
}

// Ref returns the engine reference, or 0 after Dispose.
func (h *Handle) Ref() protocol.Ref { return protocol.Ref(h.ref.Load()) }

// BytesPerPixel returns the configured pixel layout.
func (h *Handle) BytesPerPixel() int { return h.bpp }

// Disposed reports whether Dispose has run.
func (h *Handle) Disposed() bool { return h.ref.Load() == 0 }

func (h *Handle) liveRef(op string) (protocol.Ref, error) {
	ref := protocol.Ref(h.ref.Load())
	if ref == 0 {
		return 0, imgerr.UseAfterDispose(op)
	}
	return ref, nil
}

// Dispose releases the engine object and debits the ledger. Calling it again
// does nothing.
func (h *Handle) Dispose() {
	ref := protocol.Ref(h.ref.Swap(0))
	if ref == 0 {
		return
	}
	runtime.SetFinalizer(h, nil)
	h.release(ref)
	h.rt.logger.Debug("handle disposed", zap.Uint64("ref", uint64(ref)))
}

// Close implements io.Closer.
func (h *Handle) Close() error {
	h.Dispose()
	return nil
}

func (h *Handle) finalize() {
	ref := protocol.Ref(h.ref.Swap(0))
	if ref == 0 {
		return
	}
	h.rt.logger.Warn("handle reclaimed by finalizer, Dispose was never called",
		zap.Uint64("ref", uint64(ref)),
		zap.Int64("bytes", h.charged.Load()))
	h.release(ref)
}

func (h *Handle) release(ref protocol.Ref) {
	ledger := h.rt.Ledger()
	ledger.Adjust(-h.charged.Swap(0))
	ledger.Untrack(ref)
	h.rt.engine.Dispose(ref)
	trackDispose(ref)
}

func (h *Handle) metadata(op string, ref protocol.Ref) (Metadata, error) {
	raw := h.rt.engine.MetadataJSON(ref)
	d, err := protocol.DecodeDimensions(raw)
	if err != nil {
		return Metadata{}, imgerr.New(op, imgerr.KindUnknownInternal).
			Detail("engine returned unreadable metadata %q", raw).
			Cause(err).
			Build()
	}
	return Metadata{
		Width:          d.Width,
		Height:         d.Height,
		BytesPerPixel:  h.bpp,
		AllocatedBytes: int64(d.Width) * int64(d.Height) * int64(h.bpp),
	}, nil
}

// Metadata queries the engine for the current geometry.
func (h *Handle) Metadata() (Metadata, error) {
	defer runtime.KeepAlive(h)
	ref, err := h.liveRef("metadata")
	if err != nil {
		return Metadata{}, err
	}
	return h.metadata("metadata", ref)
}

// AllocatedBytes returns width*height*bytesPerPixel from fresh metadata.
func (h *Handle) AllocatedBytes() (int64, error) {
	md, err := h.Metadata()
	if err != nil {
		return 0, err
	}
	return md.AllocatedBytes, nil
}

// resync sets the handle's ledger contribution to its current footprint.
func (h *Handle) resync(op string, ref protocol.Ref) (Metadata, error) {
	md, err := h.metadata(op, ref)
	if err != nil {
		return Metadata{}, err
	}
	h.adjust(md.AllocatedBytes - h.charged.Load())
	return md, nil
}

func (h *Handle) adjust(delta int64) {
	if delta == 0 {
		return
	}
	h.charged.Add(delta)
	h.rt.Ledger().Adjust(delta)
}

// fail translates an engine code, adding size context to out-of-memory.
func (h *Handle) fail(ctx context.Context, op string, code protocol.ResultCode, requested int64) error {
	if code == protocol.CodeOutOfMemory {
		e := imgerr.OutOfMemory(op, requested, h.rt.deviceTotal(ctx))
		e.Code = code
		return e
	}
	return imgerr.FromCode(op, code)
}

// Load decodes the file at path. The codec is chosen by extension: ".png"
// selects the RGBA PNG path, ".jpg" and ".jpeg" the JPEG path.
//
// After a failed load the handle's content is unspecified and it should be
// disposed.
func (h *Handle) Load(ctx context.Context, path string) error {
	format, ok := protocol.FormatFromPath(path)
	if !ok {
		return imgerr.UnrecognizedFormat("load", path)
	}
	return h.load(ctx, path, format)
}

// LoadFormat decodes the file at path with an explicit codec.
func (h *Handle) LoadFormat(ctx context.Context, path string, format protocol.Format) error {
	if !format.Valid() {
		return imgerr.InvalidParameter("load", "unknown format id %d", int(format))
	}
	return h.load(ctx, path, format)
}

func (h *Handle) load(ctx context.Context, path string, format protocol.Format) error {
	const op = "load"
	defer runtime.KeepAlive(h)

	ref, err := h.liveRef(op)
	if err != nil {
		return err
	}

	bounds, err := probeBounds(op, path)
	if err != nil {
		return err
	}
	requested := int64(bounds.Width) * int64(bounds.Height) * int64(h.bpp)

	res, err := h.rt.admission.Reserve(ctx, op, requested)
	if err != nil {
		return err
	}
	defer res.Release()

	code := h.rt.engine.LoadImage(ref, path, format)
	if _, err := h.resync(op, ref); err != nil && code == protocol.CodeOK {
		return err
	}
	if code != protocol.CodeOK {
		return h.fail(ctx, op, code, requested)
	}

	h.rt.logger.Debug("image loaded",
		zap.Uint64("ref", uint64(ref)),
		zap.String("path", path),
		zap.Stringer("format", format),
		zap.Int("width", bounds.Width),
		zap.Int("height", bounds.Height))
	return nil
}

// Rotate turns the image clockwise. angle is reduced modulo 360 and must then
// be a non-negative multiple of 90; 0 does nothing. The fast path needs a
// second buffer while it runs, so it is admission-checked.
func (h *Handle) Rotate(ctx context.Context, angle int, fast bool) error {
	const op = "rotate"
	defer runtime.KeepAlive(h)

	ref, err := h.liveRef(op)
	if err != nil {
		return err
	}

	normalized := angle % 360
	if normalized < 0 || normalized%90 != 0 {
		return imgerr.InvalidAngle(op, angle)
	}
	if normalized == 0 {
		return nil
	}

	var requested int64
	if fast {
		md, err := h.metadata(op, ref)
		if err != nil {
			return err
		}
		requested = md.AllocatedBytes
		res, err := h.rt.admission.Reserve(ctx, op, requested)
		if err != nil {
			return err
		}
		defer res.Release()
	}

	if code := h.rt.engine.Rotate(ref, normalized, fast); code != protocol.CodeOK {
		return h.fail(ctx, op, code, requested)
	}
	_, err = h.resync(op, ref)
	return err
}

// ApplyEffect runs one effect command and adjusts the ledger by the change
// in allocated bytes.
func (h *Handle) ApplyEffect(ctx context.Context, cmd effect.Command) error {
	const op = "apply_effect"
	defer runtime.KeepAlive(h)

	ref, err := h.liveRef(op)
	if err != nil {
		return err
	}
	if cmd.Len() == 0 {
		return imgerr.InvalidParameter(op, "empty effect command")
	}

	before, err := h.metadata(op, ref)
	if err != nil {
		return err
	}
	if code := h.rt.engine.ApplyEffect(ref, cmd.String()); code != protocol.CodeOK {
		return h.fail(ctx, op, code, before.AllocatedBytes)
	}
	after, err := h.metadata(op, ref)
	if err != nil {
		return err
	}
	h.adjust(after.AllocatedBytes - before.AllocatedBytes)
	return nil
}

// Apply builds a single-effect command from e and applies it.
func (h *Handle) Apply(ctx context.Context, e effect.Effect) error {
	cmd, err := effect.CommandFor(e)
	if err != nil {
		return err
	}
	return h.ApplyEffect(ctx, cmd)
}

// ApplyBuilder builds b and applies the result.
func (h *Handle) ApplyBuilder(ctx context.Context, b *effect.Builder) error {
	cmd, err := b.Build()
	if err != nil {
		return err
	}
	return h.ApplyEffect(ctx, cmd)
}
