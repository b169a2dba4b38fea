package protocol

import (
	"fmt"
	"image/draw"
	"path/filepath"
	"strings"
)

// Ref is an opaque reference to one engine-side image object.
// The zero Ref never names a live object.
type Ref uint64

// ResultCode is the status returned by every fallible engine operation.
type ResultCode int

const (
	CodeOK                   ResultCode = 0
	CodeCantOpenFile         ResultCode = -1
	CodeOutOfMemory          ResultCode = -2
	CodeNoData               ResultCode = -3
	CodeNotSameResolution    ResultCode = -201
	CodeInvalidBitmapFormat  ResultCode = -202
	CodeInvalidResolution    ResultCode = -203
	CodeInvalidJSON          ResultCode = -301
	CodeInvalidImage         ResultCode = -401
	CodeUnsupportedPNGConfig ResultCode = -402
	CodeEffectNotDefined     ResultCode = -800
	CodeUnknown              ResultCode = -999
)

// String returns the symbolic name of the code.
func (c ResultCode) String() string {
	switch c {
	case CodeOK:
		return "NO_ERR"
	case CodeCantOpenFile:
		return "CANT_OPEN_FILE"
	case CodeOutOfMemory:
		return "OUT_OF_MEMORY"
	case CodeNoData:
		return "NO_DATA"
	case CodeNotSameResolution:
		return "NOT_SAME_RESOLUTION"
	case CodeInvalidBitmapFormat:
		return "INVALID_BITMAP_FORMAT"
	case CodeInvalidResolution:
		return "INVALID_RESOLUTION"
	case CodeInvalidJSON:
		return "INVALID_JSON"
	case CodeInvalidImage:
		return "INVALID_IMAGE"
	case CodeUnsupportedPNGConfig:
		return "NOT_SUPPORTED_PNG_CONFIGURATION"
	case CodeEffectNotDefined:
		return "ERR_EFFECT_NOT_DEFINED"
	case CodeUnknown:
		return "ERR_UNKNOWN"
	default:
		return fmt.Sprintf("CODE(%d)", int(c))
	}
}

// Bytes per pixel for the two supported pixel layouts.
const (
	RGB  = 3
	RGBA = 4
)

// Format selects the codec path used by the engine.
type Format int

const (
	FormatJPEGRGB Format = 1
	FormatPNGRGB  Format = 2
	FormatPNGRGBA Format = 3
)

// String returns a lower-case format name.
func (f Format) String() string {
	switch f {
	case FormatJPEGRGB:
		return "jpeg"
	case FormatPNGRGB:
		return "png"
	case FormatPNGRGBA:
		return "png_rgba"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Valid reports whether f is one of the known format IDs.
func (f Format) Valid() bool {
	return f == FormatJPEGRGB || f == FormatPNGRGB || f == FormatPNGRGBA
}

// ParseFormat maps a user-facing name ("jpeg", "jpg", "png", "png_rgb",
// "png_rgba") to a Format.
func ParseFormat(name string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "jpeg", "jpg", "jpeg_rgb":
		return FormatJPEGRGB, true
	case "png", "png_rgb":
		return FormatPNGRGB, true
	case "png_rgba":
		return FormatPNGRGBA, true
	}
	return 0, false
}

// FormatFromPath detects the load format from a file extension.
// ".png" selects the RGBA PNG path, ".jpg" and ".jpeg" the JPEG path.
// The comparison is case-insensitive.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNGRGBA, true
	case ".jpg", ".jpeg":
		return FormatJPEGRGB, true
	}
	return 0, false
}

// Metadata JSON keys.
const (
	KeyImageWidth  = "imageWidth"
	KeyImageHeight = "imageHeight"
)

// Engine is the function-call protocol of the pixel engine.
//
// Implementations must be safe for concurrent calls on different refs. Calls on
// the same ref are serialized by the host.
type Engine interface {
	// Init allocates an engine object for the given bytes per pixel and returns
	// its reference, or 0 when the control structure cannot be allocated.
	Init(bytesPerPixel int) Ref

	// LoadImage decodes the file at path into the object.
	LoadImage(ref Ref, path string, format Format) ResultCode

	// SaveImage encodes the object to path. params is a JSON object or empty.
	SaveImage(ref Ref, path string, format Format, params string) ResultCode

	// MetadataJSON returns {"imageWidth":w,"imageHeight":h}.
	MetadataJSON(ref Ref) string

	// Dispose releases the object. Unknown refs are ignored.
	Dispose(ref Ref)

	// SetPixels copies the source rectangle (x, y, w, h) into dst.
	SetPixels(ref Ref, dst draw.Image, x, y, w, h int) ResultCode

	// SetScaledPixels scales the source rectangle (x, y, w, h) to fill dst.
	SetScaledPixels(ref Ref, dst draw.Image, x, y, w, h int) ResultCode

	// Rotate rotates clockwise by 90, 180 or 270 degrees. The fast path
	// allocates a second full buffer for the duration of the call.
	Rotate(ref Ref, angle int, fast bool) ResultCode

	// ApplyEffect executes one JSON effect command.
	ApplyEffect(ref Ref, command string) ResultCode
}
