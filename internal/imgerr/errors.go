package imgerr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ironsheep/nativeimage-mcp/internal/protocol"
)

// Kind categorizes the error
type Kind string

// Kinds translated from engine result codes.
const (
	KindCannotOpenFile                Kind = "cannot_open_file"
	KindOutOfMemory                   Kind = "out_of_memory"
	KindNoData                        Kind = "no_data"
	KindResolutionMismatch            Kind = "resolution_mismatch"
	KindInvalidResolution             Kind = "invalid_resolution"
	KindInvalidBitmapFormat           Kind = "invalid_bitmap_format"
	KindInvalidCommandEncoding        Kind = "invalid_command_encoding"
	KindInvalidImageEncoding          Kind = "invalid_image_encoding"
	KindUnsupportedImageConfiguration Kind = "unsupported_image_configuration"
	KindEffectNotDefined              Kind = "effect_not_defined"
	KindUnknownInternal               Kind = "unknown_internal"
)

// Kinds detected before reaching the engine.
const (
	KindInvalidConfiguration  Kind = "invalid_configuration"
	KindNativeInitFailure     Kind = "native_init_failure"
	KindUnrecognizedFormat    Kind = "unrecognized_format"
	KindInvalidAngle          Kind = "invalid_angle"
	KindInvalidParameter      Kind = "invalid_parameter"
	KindDimensionMismatch     Kind = "dimension_mismatch"
	KindUnsupportedViewFormat Kind = "unsupported_view_format"
	KindUseAfterDispose       Kind = "use_after_dispose"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrCannotOpenFile                = &Error{Kind: KindCannotOpenFile}
	ErrOutOfMemory                   = &Error{Kind: KindOutOfMemory}
	ErrNoData                        = &Error{Kind: KindNoData}
	ErrResolutionMismatch            = &Error{Kind: KindResolutionMismatch}
	ErrInvalidResolution             = &Error{Kind: KindInvalidResolution}
	ErrInvalidBitmapFormat           = &Error{Kind: KindInvalidBitmapFormat}
	ErrInvalidCommandEncoding        = &Error{Kind: KindInvalidCommandEncoding}
	ErrInvalidImageEncoding          = &Error{Kind: KindInvalidImageEncoding}
	ErrUnsupportedImageConfiguration = &Error{Kind: KindUnsupportedImageConfiguration}
	ErrEffectNotDefined              = &Error{Kind: KindEffectNotDefined}
	ErrUnknownInternal               = &Error{Kind: KindUnknownInternal}
	ErrInvalidConfiguration          = &Error{Kind: KindInvalidConfiguration}
	ErrNativeInitFailure             = &Error{Kind: KindNativeInitFailure}
	ErrUnrecognizedFormat            = &Error{Kind: KindUnrecognizedFormat}
	ErrInvalidAngle                  = &Error{Kind: KindInvalidAngle}
	ErrInvalidParameter              = &Error{Kind: KindInvalidParameter}
	ErrDimensionMismatch             = &Error{Kind: KindDimensionMismatch}
	ErrUnsupportedViewFormat         = &Error{Kind: KindUnsupportedViewFormat}
	ErrUseAfterDispose               = &Error{Kind: KindUseAfterDispose}
)

const mib = 1024.0 * 1024.0

// Error is the structured error returned for image operations.
type Error struct {
	Cause  error
	Kind   Kind
	Op     string
	Detail string

	// Code is the engine result code, zero for locally detected errors.
	Code protocol.ResultCode

	// Requested and DeviceTotal are set on admission denials.
	Requested   int64
	DeviceTotal int64
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))

	if e.Code != protocol.CodeOK {
		fmt.Fprintf(&b, " (engine code %d %s)", int(e.Code), e.Code)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(op string, kind Kind) *Builder {
	return &Builder{err: Error{Op: op, Kind: kind}}
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Code sets the engine result code
func (b *Builder) Code(code protocol.ResultCode) *Builder {
	b.err.Code = code
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	e := b.err
	return &e
}

// Convenience constructors for the locally detected kinds

// InvalidConfiguration reports an unsupported handle configuration.
func InvalidConfiguration(op, msg string, args ...any) *Error {
	return New(op, KindInvalidConfiguration).Detail(msg, args...).Build()
}

// NativeInitFailure reports that the engine could not allocate an object.
func NativeInitFailure(op string) *Error {
	return New(op, KindNativeInitFailure).Detail("engine returned a null reference").Build()
}

// UnrecognizedFormat reports a path whose extension selects no codec.
func UnrecognizedFormat(op, path string) *Error {
	return New(op, KindUnrecognizedFormat).Detail("unable to detect format based on file %q", path).Build()
}

// InvalidAngle reports a rotation that is not a non-negative multiple of 90.
func InvalidAngle(op string, angle int) *Error {
	return New(op, KindInvalidAngle).Detail("invalid angle %d, must be a non-negative multiple of 90", angle).Build()
}

// InvalidParameter reports a numeric precondition violation.
func InvalidParameter(op, msg string, args ...any) *Error {
	return New(op, KindInvalidParameter).Detail(msg, args...).Build()
}

// DimensionMismatch reports a view whose size differs from the image.
func DimensionMismatch(op string, viewW, viewH, imageW, imageH int) *Error {
	return New(op, KindDimensionMismatch).
		Detail("view has %dx%d, image has %dx%d", viewW, viewH, imageW, imageH).
		Build()
}

// UnsupportedViewFormat reports a view that is not 4 bytes per pixel.
func UnsupportedViewFormat(op string, view any) *Error {
	return New(op, KindUnsupportedViewFormat).
		Detail("view has type %T, only 4-byte RGBA views are supported", view).
		Build()
}

// UseAfterDispose reports an operation on a disposed handle.
func UseAfterDispose(op string) *Error {
	return New(op, KindUseAfterDispose).Detail("handle has been disposed").Build()
}

// OutOfMemory reports an admission denial. The message carries the attempted
// size and the known device memory.
func OutOfMemory(op string, requested, deviceTotal int64) *Error {
	detail := fmt.Sprintf("allocating needs %.2f MiB, device has %.2f MiB; getting this close to total device memory risks the process being killed",
		float64(requested)/mib, float64(deviceTotal)/mib)
	return &Error{
		Op:          op,
		Kind:        KindOutOfMemory,
		Detail:      detail,
		Requested:   requested,
		DeviceTotal: deviceTotal,
	}
}
