package effect

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformed means the command is not a flat JSON object with a string
	// "effect" key and well-typed parameters.
	ErrMalformed = errors.New("malformed effect command")

	// ErrNotDefined means the "effect" key names no known kind.
	ErrNotDefined = errors.New("effect not defined")
)

// Decode parses a wire command into a typed Effect. Parameter ranges are not
// checked; call Validate on the result.
func Decode(data []byte) (Effect, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	tag, ok := m[KeyEffect].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing string %q key", ErrMalformed, KeyEffect)
	}

	r := reader{m: m}
	var e Effect
	switch Kind(tag) {
	case KindGrayscale:
		e = Grayscale{}
	case KindCrop:
		e = Crop{
			OffsetX: r.int(KeyOffsetX),
			OffsetY: r.int(KeyOffsetY),
			Width:   r.int(KeyWidth),
			Height:  r.int(KeyHeight),
		}
	case KindBrightness:
		e = Brightness{Delta: r.int(KeyBrightness)}
	case KindContrast:
		e = Contrast{Delta: r.int(KeyContrast)}
	case KindGamma:
		e = Gamma{Value: r.float(KeyGamma)}
	case KindInverse:
		e = Inverse{}
	case KindFlipVertical:
		e = FlipVertical{}
	case KindFlipHorizontal:
		e = FlipHorizontal{}
	case KindNaiveResize:
		e = NaiveResize{Width: r.int(KeyWidth), Height: r.int(KeyHeight)}
	default:
		return nil, fmt.Errorf("%w: %q", ErrNotDefined, tag)
	}
	if r.err != nil {
		return nil, r.err
	}
	return e, nil
}

// reader pulls typed parameters out of a decoded command and keeps the first
// failure.
type reader struct {
	m   map[string]any
	err error
}

func (r *reader) number(key string) json.Number {
	if r.err != nil {
		return ""
	}
	n, ok := r.m[key].(json.Number)
	if !ok {
		r.err = fmt.Errorf("%w: %q must be a number", ErrMalformed, key)
		return ""
	}
	return n
}

func (r *reader) int(key string) int {
	n := r.number(key)
	if r.err != nil {
		return 0
	}
	v, err := n.Int64()
	if err != nil {
		r.err = fmt.Errorf("%w: %q must be an integer", ErrMalformed, key)
		return 0
	}
	return int(v)
}

func (r *reader) float(key string) float64 {
	n := r.number(key)
	if r.err != nil {
		return 0
	}
	v, err := n.Float64()
	if err != nil {
		r.err = fmt.Errorf("%w: %q must be a number", ErrMalformed, key)
		return 0
	}
	return v
}
