package nimage

import (
	"image"
	"image/draw"
	"math"
	"runtime"

	"github.com/ironsheep/nativeimage-mcp/internal/imgerr"
	"github.com/ironsheep/nativeimage-mcp/internal/protocol"
)

// checkView accepts only 4-byte-per-pixel views.
func checkView(op string, dst draw.Image) error {
	switch dst.(type) {
	case *image.RGBA, *image.NRGBA:
		return nil
	}
	return imgerr.UnsupportedViewFormat(op, dst)
}

// MaterializeFull copies the whole image into dst. A nil dst allocates an
// *image.RGBA of the current size; a non-nil dst must match it exactly.
func (h *Handle) MaterializeFull(dst draw.Image) (draw.Image, error) {
	const op = "materialize_full"
	defer runtime.KeepAlive(h)

	ref, err := h.liveRef(op)
	if err != nil {
		return nil, err
	}
	md, err := h.metadata(op, ref)
	if err != nil {
		return nil, err
	}

	if dst == nil {
		dst = image.NewRGBA(image.Rect(0, 0, md.Width, md.Height))
	} else {
		if err := checkView(op, dst); err != nil {
			return nil, err
		}
		b := dst.Bounds()
		if b.Dx() != md.Width || b.Dy() != md.Height {
			return nil, imgerr.DimensionMismatch(op, b.Dx(), b.Dy(), md.Width, md.Height)
		}
	}

	if code := h.rt.engine.SetPixels(ref, dst, 0, 0, md.Width, md.Height); code != protocol.CodeOK {
		return nil, imgerr.FromCode(op, code)
	}
	return dst, nil
}

// MaterializeCropped copies the source rectangle (x, y, width, height) into
// dst, allocating it when nil. The engine decides whether the rectangle fits.
func (h *Handle) MaterializeCropped(dst draw.Image, x, y, width, height int) (draw.Image, error) {
	const op = "materialize_cropped"
	defer runtime.KeepAlive(h)

	ref, err := h.liveRef(op)
	if err != nil {
		return nil, err
	}
	if dst == nil {
		dst = image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
	} else if err := checkView(op, dst); err != nil {
		return nil, err
	}

	if code := h.rt.engine.SetPixels(ref, dst, x, y, width, height); code != protocol.CodeOK {
		return nil, imgerr.FromCode(op, code)
	}
	return dst, nil
}

// scaledSize fills in a zero target side from the source aspect ratio.
func scaledSize(op string, width, height, srcW, srcH int) (int, int, error) {
	if width < 0 || height < 0 || (width == 0 && height == 0) {
		return 0, 0, imgerr.InvalidParameter(op, "target size %dx%d needs one positive side and no negative side", width, height)
	}
	if srcW == 0 || srcH == 0 {
		return 0, 0, imgerr.New(op, imgerr.KindNoData).Detail("image is empty").Build()
	}
	if height == 0 {
		height = max(int(int64(width)*int64(srcH)/int64(srcW)), 1)
	}
	if width == 0 {
		width = max(int(int64(height)*int64(srcW)/int64(srcH)), 1)
	}
	return width, height, nil
}

// MaterializeScaled resamples the whole image to width x height. One side may
// be 0 and is then inferred from the aspect ratio.
func (h *Handle) MaterializeScaled(width, height int) (*image.RGBA, error) {
	const op = "materialize_scaled"
	defer runtime.KeepAlive(h)

	ref, err := h.liveRef(op)
	if err != nil {
		return nil, err
	}
	md, err := h.metadata(op, ref)
	if err != nil {
		return nil, err
	}
	width, height, err = scaledSize(op, width, height, md.Width, md.Height)
	if err != nil {
		return nil, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if code := h.rt.engine.SetScaledPixels(ref, dst, 0, 0, md.Width, md.Height); code != protocol.CodeOK {
		return nil, imgerr.FromCode(op, code)
	}
	return dst, nil
}

// MaterializeScaledFactor resamples the whole image by scale in (0, 1].
func (h *Handle) MaterializeScaledFactor(scale float64) (*image.RGBA, error) {
	const op = "materialize_scaled"

	if math.IsNaN(scale) || scale <= 0 || scale > 1 {
		return nil, imgerr.InvalidParameter(op, "scale %v must be in (0,1]", scale)
	}
	md, err := h.Metadata()
	if err != nil {
		return nil, err
	}
	if md.Width == 0 || md.Height == 0 {
		return nil, imgerr.New(op, imgerr.KindNoData).Detail("image is empty").Build()
	}
	width := max(int(math.Round(float64(md.Width)*scale)), 1)
	height := max(int(math.Round(float64(md.Height)*scale)), 1)
	return h.MaterializeScaled(width, height)
}

// MaterializeScaledRegion resamples the source rectangle (x, y, width,
// height) to fill dst.
func (h *Handle) MaterializeScaledRegion(dst draw.Image, x, y, width, height int) error {
	const op = "materialize_scaled_region"
	defer runtime.KeepAlive(h)

	ref, err := h.liveRef(op)
	if err != nil {
		return err
	}
	if dst == nil {
		return imgerr.InvalidParameter(op, "a target view is required")
	}
	if err := checkView(op, dst); err != nil {
		return err
	}
	return imgerr.FromCode(op, h.rt.engine.SetScaledPixels(ref, dst, x, y, width, height))
}
