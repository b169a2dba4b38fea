package nimage

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/ironsheep/nativeimage-mcp/internal/imgerr"
	"github.com/ironsheep/nativeimage-mcp/internal/protocol"
)

// ProbeBounds reads only the image header at path and returns its size.
func ProbeBounds(path string) (protocol.Dimensions, error) {
	return probeBounds("probe", path)
}

func probeBounds(op, path string) (protocol.Dimensions, error) {
	f, err := os.Open(path)
	if err != nil {
		return protocol.Dimensions{}, imgerr.New(op, imgerr.KindCannotOpenFile).
			Detail("unable to open %q", path).
			Cause(err).
			Build()
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return protocol.Dimensions{}, imgerr.New(op, imgerr.KindInvalidImageEncoding).
			Detail("unable to read image header of %q", path).
			Cause(err).
			Build()
	}
	return protocol.Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}
