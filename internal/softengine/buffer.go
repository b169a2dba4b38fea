package softengine

import (
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"

	"github.com/ironsheep/nativeimage-mcp/internal/protocol"
)

// object is one engine-side image.
type object struct {
	engine *Engine

	mu  sync.Mutex
	bpp int
	w   int
	h   int
	pix []byte
}

func (o *object) empty() bool { return o.pix == nil || o.w == 0 || o.h == 0 }

// release returns the buffer to the budget. Callers hold o.mu.
func (o *object) release() {
	if o.pix != nil {
		o.engine.unreserve(int64(len(o.pix)))
	}
	o.pix = nil
	o.w, o.h = 0, 0
}

// view wraps pix as a drawable image of the object's layout.
func view(bpp int, pix []byte, w, h int) draw.Image {
	r := image.Rect(0, 0, w, h)
	if bpp == protocol.RGBA {
		return &image.NRGBA{Pix: pix, Stride: w * 4, Rect: r}
	}
	return &rgbImage{Pix: pix, Stride: w * 3, Rect: r}
}

// image returns a view sharing the object's buffer.
func (o *object) image() draw.Image {
	return view(o.bpp, o.pix, o.w, o.h)
}

func render(dst draw.Image, src image.Image) {
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
}

// replace makes img the object's content. When the size is unchanged the
// existing buffer is reused; otherwise the new buffer is charged before the
// old one is released, so a failed allocation leaves the object intact.
// Callers hold o.mu.
func (o *object) replace(img image.Image) protocol.ResultCode {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == o.w && h == o.h && o.pix != nil {
		render(o.image(), img)
		return protocol.CodeOK
	}

	n := int64(w) * int64(h) * int64(o.bpp)
	if !o.engine.reserve(n) {
		return protocol.CodeOutOfMemory
	}
	pix := make([]byte, n)
	render(view(o.bpp, pix, w, h), img)

	o.release()
	o.pix, o.w, o.h = pix, w, h
	return protocol.CodeOK
}

// rgbImage is a packed 3-byte-per-pixel image.
type rgbImage struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

func (p *rgbImage) ColorModel() color.Model { return color.RGBAModel }

func (p *rgbImage) Bounds() image.Rectangle { return p.Rect }

func (p *rgbImage) offset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
}

func (p *rgbImage) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := p.offset(x, y)
	return color.RGBA{p.Pix[i], p.Pix[i+1], p.Pix[i+2], 0xff}
}

func (p *rgbImage) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	i := p.offset(x, y)
	p.Pix[i], p.Pix[i+1], p.Pix[i+2] = n.R, n.G, n.B
}

// Opaque reports that the image has no transparency.
func (p *rgbImage) Opaque() bool { return true }
