package softengine

import (
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/ironsheep/nativeimage-mcp/internal/protocol"
)

// LoadImage implements protocol.Engine. The previous content is released
// before the new buffer is charged.
func (e *Engine) LoadImage(ref protocol.Ref, path string, format protocol.Format) protocol.ResultCode {
	obj := e.lookup(ref)
	if obj == nil {
		return protocol.CodeUnknown
	}

	f, err := os.Open(path)
	if err != nil {
		return protocol.CodeCantOpenFile
	}
	defer f.Close()

	img, code := decode(f, format)
	if code != protocol.CodeOK {
		e.logger.Debug("decode failed", zap.String("path", path), zap.Stringer("format", format), zap.Stringer("code", code))
		return code
	}

	obj.mu.Lock()
	defer obj.mu.Unlock()
	obj.release()
	return obj.replace(img)
}

func decode(r io.ReadSeeker, format protocol.Format) (image.Image, protocol.ResultCode) {
	switch format {
	case protocol.FormatJPEGRGB:
		img, err := jpeg.Decode(r)
		if err != nil {
			return nil, protocol.CodeInvalidImage
		}
		return img, protocol.CodeOK

	case protocol.FormatPNGRGB, protocol.FormatPNGRGBA:
		cfg, err := png.DecodeConfig(r)
		if err != nil {
			return nil, protocol.CodeInvalidImage
		}
		switch cfg.ColorModel {
		case color.RGBA64Model, color.NRGBA64Model, color.Gray16Model:
			return nil, protocol.CodeUnsupportedPNGConfig
		}
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, protocol.CodeCantOpenFile
		}
		img, err := png.Decode(r)
		if err != nil {
			return nil, protocol.CodeInvalidImage
		}
		return img, protocol.CodeOK

	default:
		return nil, protocol.CodeInvalidImage
	}
}

type saveParams struct {
	JPEGQuality *int `json:"jpegQuality"`
}

// SaveImage implements protocol.Engine.
func (e *Engine) SaveImage(ref protocol.Ref, path string, format protocol.Format, params string) protocol.ResultCode {
	obj := e.lookup(ref)
	if obj == nil {
		return protocol.CodeUnknown
	}

	var opts []imaging.EncodeOption
	if params != "" {
		var p saveParams
		if err := json.Unmarshal([]byte(params), &p); err != nil {
			return protocol.CodeInvalidJSON
		}
		if p.JPEGQuality != nil {
			if *p.JPEGQuality < 1 || *p.JPEGQuality > 100 {
				return protocol.CodeInvalidJSON
			}
			opts = append(opts, imaging.JPEGQuality(*p.JPEGQuality))
		}
	}

	var codec imaging.Format
	switch format {
	case protocol.FormatJPEGRGB:
		codec = imaging.JPEG
	case protocol.FormatPNGRGB, protocol.FormatPNGRGBA:
		codec = imaging.PNG
	default:
		return protocol.CodeInvalidImage
	}

	obj.mu.Lock()
	defer obj.mu.Unlock()
	if obj.empty() {
		return protocol.CodeNoData
	}

	var img image.Image = obj.image()
	if format == protocol.FormatPNGRGB && obj.bpp == protocol.RGBA {
		rgb := view(protocol.RGB, make([]byte, obj.w*obj.h*3), obj.w, obj.h)
		render(rgb, img)
		img = rgb
	}

	out, err := os.Create(path)
	if err != nil {
		return protocol.CodeCantOpenFile
	}
	if err := imaging.Encode(out, img, codec, opts...); err != nil {
		out.Close()
		os.Remove(path)
		e.logger.Warn("encode failed", zap.String("path", path), zap.Error(err))
		return protocol.CodeUnknown
	}
	if err := out.Close(); err != nil {
		return protocol.CodeCantOpenFile
	}
	return protocol.CodeOK
}
