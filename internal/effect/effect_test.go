package effect

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/ironsheep/nativeimage-mcp/internal/imgerr"
)

func TestBuild_Grayscale(t *testing.T) {
	cmd, err := NewBuilder().Grayscale().Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got := cmd.String(); got != `{"effect":"grayScale"}` {
		t.Errorf("String: got %s, want {\"effect\":\"grayScale\"}", got)
	}
	if cmd.Len() != 1 {
		t.Errorf("Len: got %d, want 1", cmd.Len())
	}
	if cmd.Kind() != KindGrayscale {
		t.Errorf("Kind: got %s, want %s", cmd.Kind(), KindGrayscale)
	}
}

func TestBuild_TagsMatchKind(t *testing.T) {
	tests := []struct {
		effect Effect
		want   string
	}{
		{Grayscale{}, `{"effect":"grayScale"}`},
		{Crop{OffsetX: 1, OffsetY: 2, Width: 30, Height: 40}, `{"effect":"crop","offsetX":1,"offsetY":2,"width":30,"height":40}`},
		{Brightness{Delta: -20}, `{"effect":"brightness","brightness":-20}`},
		{Contrast{Delta: 255}, `{"effect":"contrast","contrast":255}`},
		{Gamma{Value: 2.2}, `{"effect":"gamma","gamma":2.2}`},
		{Inverse{}, `{"effect":"inverse"}`},
		{FlipVertical{}, `{"effect":"flipv"}`},
		{FlipHorizontal{}, `{"effect":"fliph"}`},
		{NaiveResize{Width: 10, Height: 5}, `{"effect":"naiveResize","width":10,"height":5}`},
	}

	for _, tt := range tests {
		t.Run(string(tt.effect.Kind()), func(t *testing.T) {
			cmd, err := CommandFor(tt.effect)
			if err != nil {
				t.Fatalf("CommandFor failed: %v", err)
			}
			if got := cmd.String(); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
			if cmd.Kind() != tt.effect.Kind() {
				t.Errorf("Kind: got %s, want %s", cmd.Kind(), tt.effect.Kind())
			}
		})
	}
}

func TestBuild_OutOfRange(t *testing.T) {
	tests := []struct {
		name string
		b    *Builder
	}{
		{"brightness 300", NewBuilder().Brightness(300)},
		{"brightness -256", NewBuilder().Brightness(-256)},
		{"contrast 256", NewBuilder().Contrast(256)},
		{"gamma zero", NewBuilder().Gamma(0)},
		{"gamma negative", NewBuilder().Gamma(-1)},
		{"gamma NaN", NewBuilder().Gamma(math.NaN())},
		{"gamma Inf", NewBuilder().Gamma(math.Inf(1))},
		{"downscale by 1", NewBuilder().NaiveDownscaleBy(100, 100, 1)},
		{"downscale by 0", NewBuilder().NaiveDownscaleBy(100, 100, 0)},
		{"nothing set", NewBuilder()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.b.Build()
			if !errors.Is(err, imgerr.ErrInvalidParameter) {
				t.Errorf("Build error: got %v, want invalid_parameter", err)
			}
		})
	}
}

func TestBuild_BoundaryDeltas(t *testing.T) {
	for _, d := range []int{-255, 0, 255} {
		if _, err := NewBuilder().Brightness(d).Build(); err != nil {
			t.Errorf("Brightness(%d): %v", d, err)
		}
		if _, err := NewBuilder().Contrast(d).Build(); err != nil {
			t.Errorf("Contrast(%d): %v", d, err)
		}
	}
}

func TestBuild_FirstErrorSticks(t *testing.T) {
	b := NewBuilder().Brightness(400).Grayscale()
	_, err := b.Build()
	if !errors.Is(err, imgerr.ErrInvalidParameter) {
		t.Fatalf("got %v, want invalid_parameter", err)
	}
}

func TestBuild_Overwrite(t *testing.T) {
	cmd, err := NewBuilder().Brightness(10).Contrast(20).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	// Keys accumulate, the tag follows the last call.
	want := `{"effect":"contrast","brightness":10,"contrast":20}`
	if got := cmd.String(); got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	cmd, err = NewBuilder().Brightness(10).Brightness(-10).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got := cmd.String(); got != `{"effect":"brightness","brightness":-10}` {
		t.Errorf("overwrite: got %s", got)
	}
}

func TestBuild_Snapshot(t *testing.T) {
	b := NewBuilder().Crop(0, 0, 10, 10)
	first, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	before := first.String()

	b.Crop(5, 5, 1, 1)
	second, err := b.Build()
	if err != nil {
		t.Fatalf("second Build failed: %v", err)
	}

	if first.String() != before {
		t.Errorf("first command changed after builder reuse: %s", first.String())
	}
	if second.String() == before {
		t.Errorf("second command did not observe new state")
	}

	keys := first.Keys()
	keys[0] = "mutated"
	if first.Keys()[0] != KeyEffect {
		t.Errorf("Keys exposes internal state")
	}
}

func TestNaiveDownscaleBy(t *testing.T) {
	cmd, err := NewBuilder().NaiveDownscaleBy(201, 99, 0.5).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	w, _ := cmd.Get(KeyWidth)
	h, _ := cmd.Get(KeyHeight)
	if w != 101 || h != 50 {
		t.Errorf("got %vx%v, want 101x50", w, h)
	}
}

func TestCommand_MarshalJSON(t *testing.T) {
	cmd, err := NewBuilder().Gamma(1.8).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	wrapped, err := json.Marshal(map[string]any{"command": cmd})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(wrapped) != `{"command":{"effect":"gamma","gamma":1.8}}` {
		t.Errorf("got %s", wrapped)
	}
}

func TestDecode(t *testing.T) {
	for _, e := range []Effect{
		Grayscale{},
		Crop{OffsetX: 3, OffsetY: 4, Width: 5, Height: 6},
		Brightness{Delta: 12},
		Contrast{Delta: -12},
		Gamma{Value: 0.45},
		Inverse{},
		FlipVertical{},
		FlipHorizontal{},
		NaiveResize{Width: 7, Height: 8},
	} {
		t.Run(string(e.Kind()), func(t *testing.T) {
			cmd, err := CommandFor(e)
			if err != nil {
				t.Fatalf("CommandFor failed: %v", err)
			}
			got, err := Decode([]byte(cmd.String()))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if got != e {
				t.Errorf("got %#v, want %#v", got, e)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"not json", `effect=grayScale`, ErrMalformed},
		{"array", `["grayScale"]`, ErrMalformed},
		{"missing effect", `{"brightness":1}`, ErrMalformed},
		{"numeric effect", `{"effect":3}`, ErrMalformed},
		{"missing param", `{"effect":"brightness"}`, ErrMalformed},
		{"string param", `{"effect":"crop","offsetX":"1","offsetY":0,"width":1,"height":1}`, ErrMalformed},
		{"fractional int", `{"effect":"contrast","contrast":1.5}`, ErrMalformed},
		{"unknown effect", `{"effect":"sepia"}`, ErrNotDefined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}
