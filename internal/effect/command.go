package effect

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/ironsheep/nativeimage-mcp/internal/imgerr"
)

// Command is an immutable, serializable effect request.
type Command struct {
	keys   []string
	values map[string]any
}

// Kind returns the value of the "effect" key.
func (c Command) Kind() Kind {
	s, _ := c.values[KeyEffect].(string)
	return Kind(s)
}

// Keys returns the keys in insertion order.
func (c Command) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Get returns the value stored under key.
func (c Command) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Len returns the number of keys.
func (c Command) Len() int { return len(c.keys) }

// MarshalJSON renders the command as a flat JSON object in insertion order.
func (c Command) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(c.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String returns the wire form of the command.
func (c Command) String() string {
	b, err := c.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(b)
}

// Builder accumulates effect parameters. It is not safe for concurrent use.
type Builder struct {
	keys   []string
	values map[string]any
	err    error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{values: make(map[string]any)}
}

func (b *Builder) set(key string, value any) {
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = value
}

// Add validates e and writes its tag and parameters. An invalid effect leaves
// the builder state untouched and is reported by Build.
func (b *Builder) Add(e Effect) *Builder {
	if err := e.Validate(); err != nil {
		if b.err == nil {
			b.err = err
		}
		return b
	}
	b.set(KeyEffect, string(e.Kind()))
	for _, p := range e.params() {
		b.set(p.key, p.value)
	}
	return b
}

// Grayscale sets a grayscale effect.
func (b *Builder) Grayscale() *Builder { return b.Add(Grayscale{}) }

// Crop sets a crop effect.
func (b *Builder) Crop(offsetX, offsetY, width, height int) *Builder {
	return b.Add(Crop{OffsetX: offsetX, OffsetY: offsetY, Width: width, Height: height})
}

// Brightness sets a brightness effect; delta must be in [-255, 255].
func (b *Builder) Brightness(delta int) *Builder { return b.Add(Brightness{Delta: delta}) }

// Contrast sets a contrast effect; delta must be in [-255, 255].
func (b *Builder) Contrast(delta int) *Builder { return b.Add(Contrast{Delta: delta}) }

// Gamma sets a gamma effect; value must be > 0.
func (b *Builder) Gamma(value float64) *Builder { return b.Add(Gamma{Value: value}) }

// Inverse sets an inverse effect.
func (b *Builder) Inverse() *Builder { return b.Add(Inverse{}) }

// FlipVertical sets a vertical flip.
func (b *Builder) FlipVertical() *Builder { return b.Add(FlipVertical{}) }

// FlipHorizontal sets a horizontal flip.
func (b *Builder) FlipHorizontal() *Builder { return b.Add(FlipHorizontal{}) }

// NaiveDownscale sets a nearest-neighbour resize to width x height.
func (b *Builder) NaiveDownscale(width, height int) *Builder {
	return b.Add(NaiveResize{Width: width, Height: height})
}

// NaiveDownscaleBy sets a nearest-neighbour resize of a width x height image
// by scale, which must lie strictly between 0 and 1.
func (b *Builder) NaiveDownscaleBy(width, height int, scale float64) *Builder {
	if math.IsNaN(scale) || scale <= 0 || scale >= 1 {
		if b.err == nil {
			b.err = imgerr.InvalidParameter("effect."+string(KindNaiveResize), "scale %v must be in (0,1)", scale)
		}
		return b
	}
	return b.NaiveDownscale(int(math.Round(scale*float64(width))), int(math.Round(scale*float64(height))))
}

// Build returns a snapshot of the current state. The builder may keep being
// used; later calls do not affect commands already built.
func (b *Builder) Build() (Command, error) {
	if b.err != nil {
		return Command{}, b.err
	}
	if _, ok := b.values[KeyEffect]; !ok {
		return Command{}, imgerr.InvalidParameter("effect.build", "no effect set")
	}
	c := Command{
		keys:   append([]string(nil), b.keys...),
		values: make(map[string]any, len(b.values)),
	}
	for k, v := range b.values {
		c.values[k] = v
	}
	return c, nil
}

// CommandFor builds a single-effect command.
func CommandFor(e Effect) (Command, error) {
	return NewBuilder().Add(e).Build()
}
