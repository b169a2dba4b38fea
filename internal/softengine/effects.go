package softengine

import (
	"errors"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/adjust"
	bildeffect "github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/transform"
	"go.uber.org/zap"

	"github.com/ironsheep/nativeimage-mcp/internal/effect"
	"github.com/ironsheep/nativeimage-mcp/internal/protocol"
)

// ApplyEffect implements protocol.Engine.
func (e *Engine) ApplyEffect(ref protocol.Ref, command string) protocol.ResultCode {
	obj := e.lookup(ref)
	if obj == nil {
		return protocol.CodeUnknown
	}

	eff, err := effect.Decode([]byte(command))
	switch {
	case errors.Is(err, effect.ErrNotDefined):
		return protocol.CodeEffectNotDefined
	case err != nil:
		e.logger.Debug("rejected effect command", zap.String("command", command), zap.Error(err))
		return protocol.CodeInvalidJSON
	}
	if err := eff.Validate(); err != nil {
		return protocol.CodeInvalidJSON
	}

	obj.mu.Lock()
	defer obj.mu.Unlock()
	if obj.empty() {
		return protocol.CodeNoData
	}

	out, code := run(obj.image(), eff)
	if code != protocol.CodeOK {
		return code
	}
	return obj.replace(out)
}

func run(src image.Image, eff effect.Effect) (image.Image, protocol.ResultCode) {
	bounds := src.Bounds()

	switch v := eff.(type) {
	case effect.Grayscale:
		return bildeffect.Grayscale(src), protocol.CodeOK

	case effect.Crop:
		r := image.Rect(v.OffsetX, v.OffsetY, v.OffsetX+v.Width, v.OffsetY+v.Height)
		if v.Width <= 0 || v.Height <= 0 || !r.In(bounds) {
			return nil, protocol.CodeInvalidResolution
		}
		return transform.Crop(src, r), protocol.CodeOK

	case effect.Brightness:
		delta := v.Delta
		return adjust.Apply(src, func(c color.RGBA) color.RGBA {
			return color.RGBA{
				R: shift(c.R, delta, c.A),
				G: shift(c.G, delta, c.A),
				B: shift(c.B, delta, c.A),
				A: c.A,
			}
		}), protocol.CodeOK

	case effect.Contrast:
		return adjust.Contrast(src, float64(v.Delta)/effect.MaxDelta), protocol.CodeOK

	case effect.Gamma:
		return adjust.Gamma(src, v.Value), protocol.CodeOK

	case effect.Inverse:
		return bildeffect.Invert(src), protocol.CodeOK

	case effect.FlipVertical:
		return transform.FlipV(src), protocol.CodeOK

	case effect.FlipHorizontal:
		return transform.FlipH(src), protocol.CodeOK

	case effect.NaiveResize:
		if v.Width <= 0 || v.Height <= 0 || v.Width > bounds.Dx() || v.Height > bounds.Dy() {
			return nil, protocol.CodeInvalidResolution
		}
		return transform.Resize(src, v.Width, v.Height, transform.NearestNeighbor), protocol.CodeOK

	default:
		return nil, protocol.CodeEffectNotDefined
	}
}

// shift adds delta to a premultiplied channel, keeping it within [0, limit].
func shift(v uint8, delta int, limit uint8) uint8 {
	n := int(v) + delta
	if n < 0 {
		return 0
	}
	if n > int(limit) {
		return limit
	}
	return uint8(n)
}
