package softengine

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/nativeimage-mcp/internal/protocol"
)

// Rotate implements protocol.Engine. angle is clockwise and must be 90, 180
// or 270.
func (e *Engine) Rotate(ref protocol.Ref, angle int, fast bool) protocol.ResultCode {
	obj := e.lookup(ref)
	if obj == nil {
		return protocol.CodeUnknown
	}
	if angle != 90 && angle != 180 && angle != 270 {
		return protocol.CodeUnknown
	}

	obj.mu.Lock()
	defer obj.mu.Unlock()
	if obj.empty() {
		return protocol.CodeNoData
	}

	if fast {
		return obj.rotateCopy(angle)
	}
	obj.rotateInPlace(angle)
	return protocol.CodeOK
}

// rotateCopy renders the rotation into a second buffer and writes it back.
func (o *object) rotateCopy(angle int) protocol.ResultCode {
	scratch := int64(o.w) * int64(o.h) * 4
	if !o.engine.reserve(scratch) {
		return protocol.CodeOutOfMemory
	}
	defer o.engine.unreserve(scratch)

	var rotated *image.NRGBA
	switch angle {
	case 90:
		rotated = imaging.Rotate270(o.image())
	case 180:
		rotated = imaging.Rotate180(o.image())
	default:
		rotated = imaging.Rotate90(o.image())
	}

	b := rotated.Bounds()
	o.w, o.h = b.Dx(), b.Dy()
	render(o.image(), rotated)
	return protocol.CodeOK
}

// rotateInPlace permutes pixels by following each permutation cycle once,
// using one bit per pixel to mark visited positions.
func (o *object) rotateInPlace(angle int) {
	w, h, bpp := o.w, o.h, o.bpp
	n := w * h

	var dest func(i int) int
	switch angle {
	case 90:
		dest = func(i int) int {
			x, y := i%w, i/w
			return x*h + (h - 1 - y)
		}
	case 180:
		dest = func(i int) int { return n - 1 - i }
	default:
		dest = func(i int) int {
			x, y := i%w, i/w
			return (w-1-x)*h + y
		}
	}

	visited := make([]uint64, (n+63)/64)
	var carry, tmp [4]byte
	for start := 0; start < n; start++ {
		if visited[start/64]&(1<<(start%64)) != 0 {
			continue
		}
		copy(carry[:bpp], o.pix[start*bpp:])
		i := start
		for {
			j := dest(i)
			visited[j/64] |= 1 << (j % 64)
			copy(tmp[:bpp], o.pix[j*bpp:])
			copy(o.pix[j*bpp:j*bpp+bpp], carry[:bpp])
			carry = tmp
			if j == start {
				break
			}
			i = j
		}
	}

	if angle != 180 {
		o.w, o.h = h, w
	}
}
