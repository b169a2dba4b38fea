package effect

import (
	"math"

	"github.com/ironsheep/nativeimage-mcp/internal/imgerr"
)

// Kind is the wire tag stored under the "effect" key.
type Kind string

const (
	KindGrayscale      Kind = "grayScale"
	KindCrop           Kind = "crop"
	KindBrightness     Kind = "brightness"
	KindContrast       Kind = "contrast"
	KindGamma          Kind = "gamma"
	KindInverse        Kind = "inverse"
	KindFlipVertical   Kind = "flipv"
	KindFlipHorizontal Kind = "fliph"
	KindNaiveResize    Kind = "naiveResize"
)

// Kinds lists every effect the protocol defines.
var Kinds = []Kind{
	KindGrayscale,
	KindCrop,
	KindBrightness,
	KindContrast,
	KindGamma,
	KindInverse,
	KindFlipVertical,
	KindFlipHorizontal,
	KindNaiveResize,
}

// Wire keys.
const (
	KeyEffect     = "effect"
	KeyOffsetX    = "offsetX"
	KeyOffsetY    = "offsetY"
	KeyWidth      = "width"
	KeyHeight     = "height"
	KeyBrightness = "brightness"
	KeyContrast   = "contrast"
	KeyGamma      = "gamma"
)

// MaxDelta bounds brightness and contrast deltas.
const MaxDelta = 255

// Effect is one transformation kind with its parameters.
// The set of implementations is closed.
type Effect interface {
	Kind() Kind
	Validate() error
	params() []param
}

type param struct {
	key   string
	value any
}

// Grayscale converts the image to luminance.
type Grayscale struct{}

// Crop keeps the rectangle at (OffsetX, OffsetY) of size Width x Height.
type Crop struct {
	OffsetX int
	OffsetY int
	Width   int
	Height  int
}

// Brightness adds Delta to every color channel.
type Brightness struct {
	Delta int
}

// Contrast stretches channels away from (positive) or toward (negative) mid-gray.
type Contrast struct {
	Delta int
}

// Gamma applies gamma correction with the given exponent.
type Gamma struct {
	Value float64
}

// Inverse inverts every color channel.
type Inverse struct{}

// FlipVertical mirrors the image top to bottom.
type FlipVertical struct{}

// FlipHorizontal mirrors the image left to right.
type FlipHorizontal struct{}

// NaiveResize downscales to Width x Height by sampling the nearest source
// pixel. No interpolation quality is guaranteed.
type NaiveResize struct {
	Width  int
	Height int
}

func (Grayscale) Kind() Kind      { return KindGrayscale }
func (Crop) Kind() Kind           { return KindCrop }
func (Brightness) Kind() Kind     { return KindBrightness }
func (Contrast) Kind() Kind       { return KindContrast }
func (Gamma) Kind() Kind          { return KindGamma }
func (Inverse) Kind() Kind        { return KindInverse }
func (FlipVertical) Kind() Kind   { return KindFlipVertical }
func (FlipHorizontal) Kind() Kind { return KindFlipHorizontal }
func (NaiveResize) Kind() Kind    { return KindNaiveResize }

func (Grayscale) Validate() error      { return nil }
func (Crop) Validate() error           { return nil }
func (Inverse) Validate() error        { return nil }
func (FlipVertical) Validate() error   { return nil }
func (FlipHorizontal) Validate() error { return nil }
func (NaiveResize) Validate() error    { return nil }

func (e Brightness) Validate() error { return validateDelta(KindBrightness, e.Delta) }
func (e Contrast) Validate() error   { return validateDelta(KindContrast, e.Delta) }

func (e Gamma) Validate() error {
	if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) || e.Value <= 0 {
		return imgerr.InvalidParameter("effect."+string(KindGamma), "gamma %v must be a finite value > 0", e.Value)
	}
	return nil
}

func validateDelta(kind Kind, delta int) error {
	if delta < -MaxDelta || delta > MaxDelta {
		return imgerr.InvalidParameter("effect."+string(kind), "%s delta %d outside [-%d,%d]", kind, delta, MaxDelta, MaxDelta)
	}
	return nil
}

func (Grayscale) params() []param      { return nil }
func (Inverse) params() []param        { return nil }
func (FlipVertical) params() []param   { return nil }
func (FlipHorizontal) params() []param { return nil }

func (e Crop) params() []param {
	return []param{
		{KeyOffsetX, e.OffsetX},
		{KeyOffsetY, e.OffsetY},
		{KeyWidth, e.Width},
		{KeyHeight, e.Height},
	}
}

func (e Brightness) params() []param { return []param{{KeyBrightness, e.Delta}} }
func (e Contrast) params() []param   { return []param{{KeyContrast, e.Delta}} }
func (e Gamma) params() []param      { return []param{{KeyGamma, e.Value}} }

func (e NaiveResize) params() []param {
	return []param{{KeyWidth, e.Width}, {KeyHeight, e.Height}}
}
