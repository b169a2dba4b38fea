package imgerr

import (
	"github.com/ironsheep/nativeimage-mcp/internal/protocol"
)

// KindForCode maps an engine result code to its error kind.
// Codes without a dedicated kind map to KindUnknownInternal.
func KindForCode(code protocol.ResultCode) Kind {
	switch code {
	case protocol.CodeCantOpenFile:
		return KindCannotOpenFile
	case protocol.CodeOutOfMemory:
		return KindOutOfMemory
	case protocol.CodeNoData:
		return KindNoData
	case protocol.CodeNotSameResolution:
		return KindResolutionMismatch
	case protocol.CodeInvalidResolution:
		return KindInvalidResolution
	case protocol.CodeInvalidBitmapFormat:
		return KindInvalidBitmapFormat
	case protocol.CodeInvalidJSON:
		return KindInvalidCommandEncoding
	case protocol.CodeInvalidImage:
		return KindInvalidImageEncoding
	case protocol.CodeUnsupportedPNGConfig:
		return KindUnsupportedImageConfiguration
	case protocol.CodeEffectNotDefined:
		return KindEffectNotDefined
	default:
		return KindUnknownInternal
	}
}

var codeDetail = map[Kind]string{
	KindCannotOpenFile:                "unable to open file",
	KindOutOfMemory:                   "engine allocation failed",
	KindNoData:                        "no image data to process",
	KindResolutionMismatch:            "invalid resolution, source and target differ",
	KindInvalidResolution:             "invalid resolution",
	KindInvalidBitmapFormat:           "invalid bitmap format, only 4-byte RGBA is supported",
	KindInvalidCommandEncoding:        "invalid command json",
	KindInvalidImageEncoding:          "invalid image data",
	KindUnsupportedImageConfiguration: "image has an unsupported configuration",
	KindEffectNotDefined:              "effect not found",
	KindUnknownInternal:               "unknown engine error",
}

// FromCode translates an engine result code into an error. CodeOK yields nil.
func FromCode(op string, code protocol.ResultCode) error {
	if code == protocol.CodeOK {
		return nil
	}
	kind := KindForCode(code)
	return New(op, kind).Code(code).Detail(codeDetail[kind]).Build()
}
