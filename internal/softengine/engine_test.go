package softengine

import (
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/nativeimage-mcp/internal/effect"
	"github.com/ironsheep/nativeimage-mcp/internal/protocol"
)

// patternColor encodes the pixel position into the color.
func patternColor(x, y int) color.NRGBA {
	return color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 77, A: 255}
}

// createTestPNG writes a width x height pattern PNG and returns its path.
func createTestPNG(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, patternColor(x, y))
		}
	}
	path := filepath.Join(t.TempDir(), "test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return path
}

func createTestJPEG(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	path := filepath.Join(t.TempDir(), "test.jpg")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}
	return path
}

func loaded(t *testing.T, e *Engine, bpp int, path string) protocol.Ref {
	t.Helper()
	ref := e.Init(bpp)
	if ref == 0 {
		t.Fatal("Init returned 0")
	}
	if code := e.LoadImage(ref, path, protocol.FormatPNGRGBA); code != protocol.CodeOK {
		t.Fatalf("LoadImage: %s", code)
	}
	return ref
}

func dims(t *testing.T, e *Engine, ref protocol.Ref) (int, int) {
	t.Helper()
	d, err := protocol.DecodeDimensions(e.MetadataJSON(ref))
	if err != nil {
		t.Fatalf("bad metadata: %v", err)
	}
	return d.Width, d.Height
}

func pixels(t *testing.T, e *Engine, ref protocol.Ref) *image.NRGBA {
	t.Helper()
	w, h := dims(t, e, ref)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if code := e.SetPixels(ref, dst, 0, 0, w, h); code != protocol.CodeOK {
		t.Fatalf("SetPixels: %s", code)
	}
	return dst
}

func TestInit(t *testing.T) {
	e := New(Options{})
	for _, bpp := range []int{0, 1, 2, 5, -3} {
		if ref := e.Init(bpp); ref != 0 {
			t.Errorf("Init(%d) = %d, want 0", bpp, ref)
		}
	}
	a, b := e.Init(protocol.RGB), e.Init(protocol.RGBA)
	if a == 0 || b == 0 || a == b {
		t.Errorf("Init refs: %d, %d", a, b)
	}
	if got := e.MetadataJSON(a); got != `{"imageWidth":0,"imageHeight":0}` {
		t.Errorf("empty metadata: %s", got)
	}
	if s := e.Stats(); s.Objects != 2 {
		t.Errorf("Objects: got %d, want 2", s.Objects)
	}
}

func TestInit_MaxObjects(t *testing.T) {
	e := New(Options{MaxObjects: 1})
	ref := e.Init(protocol.RGBA)
	if ref == 0 {
		t.Fatal("first Init failed")
	}
	if e.Init(protocol.RGBA) != 0 {
		t.Error("second Init should fail")
	}
	e.Dispose(ref)
	if e.Init(protocol.RGBA) == 0 {
		t.Error("Init after Dispose should succeed")
	}
}

func TestDispose_StaleRef(t *testing.T) {
	e := New(Options{})
	path := createTestPNG(t, 4, 4)
	old := loaded(t, e, protocol.RGBA, path)
	e.Dispose(old)
	e.Dispose(old)

	reused := e.Init(protocol.RGBA)
	if reused == old {
		t.Fatal("slot reuse produced the same ref")
	}
	if e.MetadataJSON(old) != "" {
		t.Error("stale ref still resolves")
	}
	if code := e.LoadImage(old, path, protocol.FormatPNGRGBA); code != protocol.CodeUnknown {
		t.Errorf("LoadImage on stale ref: got %s", code)
	}
	if s := e.Stats(); s.UsedBytes != 0 {
		t.Errorf("UsedBytes after dispose: got %d", s.UsedBytes)
	}
}

func TestLoadImage(t *testing.T) {
	e := New(Options{})
	pngPath := createTestPNG(t, 20, 10)
	jpgPath := createTestJPEG(t, 8, 6)
	garbage := filepath.Join(t.TempDir(), "bad.png")
	os.WriteFile(garbage, []byte("not an image"), 0o644)

	tests := []struct {
		name   string
		bpp    int
		path   string
		format protocol.Format
		want   protocol.ResultCode
		w, h   int
	}{
		{"png rgba", protocol.RGBA, pngPath, protocol.FormatPNGRGBA, protocol.CodeOK, 20, 10},
		{"png into rgb", protocol.RGB, pngPath, protocol.FormatPNGRGBA, protocol.CodeOK, 20, 10},
		{"jpeg", protocol.RGB, jpgPath, protocol.FormatJPEGRGB, protocol.CodeOK, 8, 6},
		{"missing", protocol.RGBA, filepath.Join(t.TempDir(), "none.png"), protocol.FormatPNGRGBA, protocol.CodeCantOpenFile, 0, 0},
		{"garbage", protocol.RGBA, garbage, protocol.FormatPNGRGBA, protocol.CodeInvalidImage, 0, 0},
		{"jpeg as png", protocol.RGBA, jpgPath, protocol.FormatPNGRGBA, protocol.CodeInvalidImage, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := e.Init(tt.bpp)
			defer e.Dispose(ref)

			if code := e.LoadImage(ref, tt.path, tt.format); code != tt.want {
				t.Fatalf("LoadImage: got %s, want %s", code, tt.want)
			}
			w, h := dims(t, e, ref)
			if w != tt.w || h != tt.h {
				t.Errorf("dims: got %dx%d, want %dx%d", w, h, tt.w, tt.h)
			}
		})
	}
}

func TestLoadImage_SixteenBit(t *testing.T) {
	img := image.NewRGBA64(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA64{R: 0x1234, G: 0x5678, B: 0x9abc, A: 0xffff})
	path := filepath.Join(t.TempDir(), "deep.png")
	f, _ := os.Create(path)
	png.Encode(f, img)
	f.Close()

	e := New(Options{})
	ref := e.Init(protocol.RGBA)
	if code := e.LoadImage(ref, path, protocol.FormatPNGRGBA); code != protocol.CodeUnsupportedPNGConfig {
		t.Errorf("got %s, want %s", code, protocol.CodeUnsupportedPNGConfig)
	}
}

func TestLoadImage_Budget(t *testing.T) {
	e := New(Options{MaxBytes: 100})
	ref := e.Init(protocol.RGBA)
	if code := e.LoadImage(ref, createTestPNG(t, 10, 10), protocol.FormatPNGRGBA); code != protocol.CodeOutOfMemory {
		t.Errorf("got %s, want OUT_OF_MEMORY", code)
	}
	if code := e.LoadImage(ref, createTestPNG(t, 5, 5), protocol.FormatPNGRGBA); code != protocol.CodeOK {
		t.Errorf("small load: got %s", code)
	}
	if s := e.Stats(); s.UsedBytes != 100 {
		t.Errorf("UsedBytes: got %d, want 100", s.UsedBytes)
	}
}

func TestRotate(t *testing.T) {
	for _, bpp := range []int{protocol.RGB, protocol.RGBA} {
		for _, angle := range []int{90, 180, 270} {
			e := New(Options{})
			path := createTestPNG(t, 5, 3)
			slow := loaded(t, e, bpp, path)
			fast := loaded(t, e, bpp, path)

			if code := e.Rotate(slow, angle, false); code != protocol.CodeOK {
				t.Fatalf("slow rotate %d: %s", angle, code)
			}
			if code := e.Rotate(fast, angle, true); code != protocol.CodeOK {
				t.Fatalf("fast rotate %d: %s", angle, code)
			}

			a, b := pixels(t, e, slow), pixels(t, e, fast)
			if a.Bounds() != b.Bounds() {
				t.Fatalf("bpp %d angle %d: bounds %v vs %v", bpp, angle, a.Bounds(), b.Bounds())
			}
			for i := range a.Pix {
				if a.Pix[i] != b.Pix[i] {
					t.Fatalf("bpp %d angle %d: slow and fast differ at byte %d", bpp, angle, i)
				}
			}
		}
	}
}

func TestRotate_Clockwise(t *testing.T) {
	e := New(Options{})
	ref := loaded(t, e, protocol.RGBA, createTestPNG(t, 3, 2))

	if code := e.Rotate(ref, 90, false); code != protocol.CodeOK {
		t.Fatalf("Rotate: %s", code)
	}
	w, h := dims(t, e, ref)
	if w != 2 || h != 3 {
		t.Fatalf("dims after 90: %dx%d, want 2x3", w, h)
	}
	img := pixels(t, e, ref)
	// The bottom-left source pixel ends up top-left.
	if got, want := img.NRGBAAt(0, 0), patternColor(0, 1); got != want {
		t.Errorf("top-left: got %v, want %v", got, want)
	}
	if got, want := img.NRGBAAt(1, 2), patternColor(2, 0); got != want {
		t.Errorf("bottom-right: got %v, want %v", got, want)
	}
}

func TestRotate_FastNeedsScratch(t *testing.T) {
	e := New(Options{MaxBytes: 4 * 4 * 4})
	ref := loaded(t, e, protocol.RGBA, createTestPNG(t, 4, 4))

	if code := e.Rotate(ref, 90, true); code != protocol.CodeOutOfMemory {
		t.Errorf("fast: got %s, want OUT_OF_MEMORY", code)
	}
	if code := e.Rotate(ref, 90, false); code != protocol.CodeOK {
		t.Errorf("slow: got %s", code)
	}
}

func TestRotate_Errors(t *testing.T) {
	e := New(Options{})
	empty := e.Init(protocol.RGBA)
	if code := e.Rotate(empty, 90, false); code != protocol.CodeNoData {
		t.Errorf("empty: got %s", code)
	}
	ref := loaded(t, e, protocol.RGBA, createTestPNG(t, 2, 2))
	if code := e.Rotate(ref, 45, false); code == protocol.CodeOK {
		t.Error("45 degrees accepted")
	}
}

func apply(t *testing.T, e *Engine, ref protocol.Ref, eff effect.Effect) protocol.ResultCode {
	t.Helper()
	cmd, err := effect.CommandFor(eff)
	if err != nil {
		t.Fatalf("CommandFor: %v", err)
	}
	return e.ApplyEffect(ref, cmd.String())
}

func TestApplyEffect_Geometry(t *testing.T) {
	tests := []struct {
		name   string
		effect effect.Effect
		want   protocol.ResultCode
		w, h   int
	}{
		{"grayscale", effect.Grayscale{}, protocol.CodeOK, 10, 8},
		{"crop", effect.Crop{OffsetX: 2, OffsetY: 1, Width: 5, Height: 4}, protocol.CodeOK, 5, 4},
		{"crop out of bounds", effect.Crop{OffsetX: 8, OffsetY: 0, Width: 5, Height: 4}, protocol.CodeInvalidResolution, 10, 8},
		{"crop empty", effect.Crop{Width: 0, Height: 4}, protocol.CodeInvalidResolution, 10, 8},
		{"resize", effect.NaiveResize{Width: 5, Height: 2}, protocol.CodeOK, 5, 2},
		{"resize up", effect.NaiveResize{Width: 20, Height: 2}, protocol.CodeInvalidResolution, 10, 8},
		{"flip", effect.FlipHorizontal{}, protocol.CodeOK, 10, 8},
		{"gamma", effect.Gamma{Value: 2.2}, protocol.CodeOK, 10, 8},
		{"contrast", effect.Contrast{Delta: 40}, protocol.CodeOK, 10, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(Options{})
			ref := loaded(t, e, protocol.RGB, createTestPNG(t, 10, 8))

			if code := apply(t, e, ref, tt.effect); code != tt.want {
				t.Fatalf("got %s, want %s", code, tt.want)
			}
			w, h := dims(t, e, ref)
			if w != tt.w || h != tt.h {
				t.Errorf("dims: got %dx%d, want %dx%d", w, h, tt.w, tt.h)
			}
			if s := e.Stats(); s.UsedBytes != int64(w*h*protocol.RGB) {
				t.Errorf("UsedBytes: got %d, want %d", s.UsedBytes, w*h*protocol.RGB)
			}
		})
	}
}

func TestApplyEffect_Pixels(t *testing.T) {
	e := New(Options{})
	ref := loaded(t, e, protocol.RGBA, createTestPNG(t, 4, 4))

	apply(t, e, ref, effect.Inverse{})
	if got := pixels(t, e, ref).NRGBAAt(1, 2); got != (color.NRGBA{R: 245, G: 235, B: 178, A: 255}) {
		t.Errorf("inverse: got %v", got)
	}

	apply(t, e, ref, effect.Brightness{Delta: 20})
	if got := pixels(t, e, ref).NRGBAAt(0, 0); got != (color.NRGBA{R: 255, G: 255, B: 198, A: 255}) {
		t.Errorf("brightness clamp: got %v", got)
	}

	apply(t, e, ref, effect.FlipVertical{})
	if got := pixels(t, e, ref).NRGBAAt(1, 3); got != (color.NRGBA{R: 255, G: 255, B: 198, A: 255}) {
		t.Errorf("flip: got %v", got)
	}
}

func TestApplyEffect_Commands(t *testing.T) {
	e := New(Options{})
	ref := loaded(t, e, protocol.RGBA, createTestPNG(t, 4, 4))

	tests := []struct {
		command string
		want    protocol.ResultCode
	}{
		{`{"effect":"sepia"}`, protocol.CodeEffectNotDefined},
		{`{"effect":`, protocol.CodeInvalidJSON},
		{`{"effect":"brightness","brightness":999}`, protocol.CodeInvalidJSON},
		{`{"effect":"grayScale"}`, protocol.CodeOK},
	}
	for _, tt := range tests {
		if code := e.ApplyEffect(ref, tt.command); code != tt.want {
			t.Errorf("%s: got %s, want %s", tt.command, code, tt.want)
		}
	}

	empty := e.Init(protocol.RGBA)
	if code := e.ApplyEffect(empty, `{"effect":"grayScale"}`); code != protocol.CodeNoData {
		t.Errorf("empty: got %s", code)
	}
}

func TestSetPixels(t *testing.T) {
	e := New(Options{})
	ref := loaded(t, e, protocol.RGB, createTestPNG(t, 6, 4))

	crop := image.NewRGBA(image.Rect(0, 0, 2, 2))
	if code := e.SetPixels(ref, crop, 3, 1, 2, 2); code != protocol.CodeOK {
		t.Fatalf("SetPixels: %s", code)
	}
	want := patternColor(3, 1)
	if got := crop.RGBAAt(0, 0); got.R != want.R || got.G != want.G || got.B != want.B {
		t.Errorf("crop origin: got %v, want %v", got, want)
	}

	tests := []struct {
		name       string
		dst        draw.Image
		x, y, w, h int
		want       protocol.ResultCode
	}{
		{"gray view", image.NewGray(image.Rect(0, 0, 2, 2)), 0, 0, 2, 2, protocol.CodeInvalidBitmapFormat},
		{"size mismatch", image.NewRGBA(image.Rect(0, 0, 3, 2)), 0, 0, 2, 2, protocol.CodeNotSameResolution},
		{"out of bounds", image.NewRGBA(image.Rect(0, 0, 2, 2)), 5, 3, 2, 2, protocol.CodeInvalidResolution},
		{"negative", image.NewRGBA(image.Rect(0, 0, 2, 2)), -1, 0, 2, 2, protocol.CodeInvalidResolution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := e.SetPixels(ref, tt.dst, tt.x, tt.y, tt.w, tt.h); code != tt.want {
				t.Errorf("got %s, want %s", code, tt.want)
			}
		})
	}
}

func TestSetScaledPixels(t *testing.T) {
	e := New(Options{})
	ref := loaded(t, e, protocol.RGBA, createTestPNG(t, 20, 40))

	dst := image.NewRGBA(image.Rect(0, 0, 10, 20))
	if code := e.SetScaledPixels(ref, dst, 0, 0, 20, 40); code != protocol.CodeOK {
		t.Fatalf("SetScaledPixels: %s", code)
	}
	if code := e.SetScaledPixels(ref, image.NewRGBA(image.Rect(0, 0, 0, 0)), 0, 0, 20, 40); code != protocol.CodeInvalidResolution {
		t.Errorf("empty view: got %s", code)
	}
	if code := e.SetScaledPixels(ref, dst, 0, 0, 21, 40); code != protocol.CodeInvalidResolution {
		t.Errorf("oversized source: got %s", code)
	}
}

func TestSaveImage(t *testing.T) {
	e := New(Options{})
	ref := loaded(t, e, protocol.RGBA, createTestPNG(t, 7, 5))
	dir := t.TempDir()

	tests := []struct {
		name   string
		file   string
		format protocol.Format
		params string
		want   protocol.ResultCode
	}{
		{"png", "out.png", protocol.FormatPNGRGBA, "", protocol.CodeOK},
		{"png rgb", "rgb.png", protocol.FormatPNGRGB, "", protocol.CodeOK},
		{"jpeg", "out.jpg", protocol.FormatJPEGRGB, `{"jpegQuality":80}`, protocol.CodeOK},
		{"bad params", "bad.jpg", protocol.FormatJPEGRGB, `{"jpegQuality":`, protocol.CodeInvalidJSON},
		{"bad quality", "bad.jpg", protocol.FormatJPEGRGB, `{"jpegQuality":0}`, protocol.CodeInvalidJSON},
		{"no dir", "missing/out.png", protocol.FormatPNGRGBA, "", protocol.CodeCantOpenFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if code := e.SaveImage(ref, path, tt.format, tt.params); code != tt.want {
				t.Fatalf("got %s, want %s", code, tt.want)
			}
			if tt.want != protocol.CodeOK {
				return
			}
			back := e.Init(protocol.RGBA)
			defer e.Dispose(back)
			if code := e.LoadImage(back, path, tt.format); code != protocol.CodeOK {
				t.Fatalf("reload: %s", code)
			}
			if w, h := dims(t, e, back); w != 7 || h != 5 {
				t.Errorf("reloaded dims: %dx%d", w, h)
			}
		})
	}

	empty := e.Init(protocol.RGBA)
	if code := e.SaveImage(empty, filepath.Join(dir, "e.png"), protocol.FormatPNGRGBA, ""); code != protocol.CodeNoData {
		t.Errorf("empty save: got %s", code)
	}
}
