package softengine

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/ironsheep/nativeimage-mcp/internal/protocol"
)

func fourByte(dst draw.Image) bool {
	switch dst.(type) {
	case *image.RGBA, *image.NRGBA:
		return true
	}
	return false
}

// sourceRect validates the requested source rectangle. Callers hold o.mu.
func (o *object) sourceRect(x, y, w, h int) (image.Rectangle, protocol.ResultCode) {
	if o.empty() {
		return image.Rectangle{}, protocol.CodeNoData
	}
	r := image.Rect(x, y, x+w, y+h)
	if w <= 0 || h <= 0 || !r.In(image.Rect(0, 0, o.w, o.h)) {
		return image.Rectangle{}, protocol.CodeInvalidResolution
	}
	return r, protocol.CodeOK
}

// SetPixels implements protocol.Engine.
func (e *Engine) SetPixels(ref protocol.Ref, dst draw.Image, x, y, w, h int) protocol.ResultCode {
	obj := e.lookup(ref)
	if obj == nil {
		return protocol.CodeUnknown
	}
	if dst == nil || !fourByte(dst) {
		return protocol.CodeInvalidBitmapFormat
	}

	obj.mu.Lock()
	defer obj.mu.Unlock()
	r, code := obj.sourceRect(x, y, w, h)
	if code != protocol.CodeOK {
		return code
	}
	db := dst.Bounds()
	if db.Dx() != w || db.Dy() != h {
		return protocol.CodeNotSameResolution
	}
	draw.Draw(dst, db, obj.image(), r.Min, draw.Src)
	return protocol.CodeOK
}

// SetScaledPixels implements protocol.Engine.
func (e *Engine) SetScaledPixels(ref protocol.Ref, dst draw.Image, x, y, w, h int) protocol.ResultCode {
	obj := e.lookup(ref)
	if obj == nil {
		return protocol.CodeUnknown
	}
	if dst == nil || !fourByte(dst) {
		return protocol.CodeInvalidBitmapFormat
	}

	obj.mu.Lock()
	defer obj.mu.Unlock()
	r, code := obj.sourceRect(x, y, w, h)
	if code != protocol.CodeOK {
		return code
	}
	db := dst.Bounds()
	if db.Empty() {
		return protocol.CodeInvalidResolution
	}
	draw.BiLinear.Scale(dst, db, obj.image(), r, draw.Src, nil)
	return protocol.CodeOK
}
