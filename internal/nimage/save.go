package nimage

import (
	"encoding/json"
	"runtime"

	"github.com/ironsheep/nativeimage-mcp/internal/imgerr"
	"github.com/ironsheep/nativeimage-mcp/internal/protocol"
)

// SaveParams tunes encoding. The zero value uses engine defaults.
type SaveParams struct {
	// JPEGQuality is 1..100, or 0 for the engine default.
	JPEGQuality int `json:"jpegQuality,omitempty"`
}

// Validate checks parameter ranges.
func (p SaveParams) Validate() error {
	if p.JPEGQuality < 0 || p.JPEGQuality > 100 {
		return imgerr.InvalidParameter("save", "jpeg quality %d outside [1,100]", p.JPEGQuality)
	}
	return nil
}

// Encode returns the params JSON sent to the engine, or "" for defaults.
func (p SaveParams) Encode() string {
	if p == (SaveParams{}) {
		return ""
	}
	b, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(b)
}

// Save encodes the image to path with the given codec.
func (h *Handle) Save(path string, format protocol.Format, params SaveParams) error {
	const op = "save"
	defer runtime.KeepAlive(h)

	ref, err := h.liveRef(op)
	if err != nil {
		return err
	}
	if !format.Valid() {
		return imgerr.InvalidParameter(op, "unknown format id %d", int(format))
	}
	if err := params.Validate(); err != nil {
		return err
	}
	return imgerr.FromCode(op, h.rt.engine.SaveImage(ref, path, format, params.Encode()))
}

// SaveAuto picks the codec from the extension of path. PNG keeps the alpha
// channel only for 4-byte handles.
func (h *Handle) SaveAuto(path string, params SaveParams) error {
	format, ok := protocol.FormatFromPath(path)
	if !ok {
		return imgerr.UnrecognizedFormat("save", path)
	}
	if format == protocol.FormatPNGRGBA && h.bpp == protocol.RGB {
		format = protocol.FormatPNGRGB
	}
	return h.Save(path, format, params)
}
