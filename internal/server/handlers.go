package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/draw"

	"go.uber.org/zap"

	"github.com/ironsheep/nativeimage-mcp/internal/admission"
	"github.com/ironsheep/nativeimage-mcp/internal/effect"
	"github.com/ironsheep/nativeimage-mcp/internal/imgerr"
	"github.com/ironsheep/nativeimage-mcp/internal/inspect"
	"github.com/ironsheep/nativeimage-mcp/internal/nimage"
	"github.com/ironsheep/nativeimage-mcp/internal/protocol"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_rotate").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// ErrorData is the data member of a tool execution error.
type ErrorData struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Kinds reported for errors that do not come from the image layer.
const (
	kindUnknownHandle    = "unknown_handle"
	kindInvalidArguments = "invalid_arguments"
	kindInternal         = "internal"
)

// errInvalidArguments marks malformed tool arguments.
var errInvalidArguments = errors.New("invalid arguments")

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000
// whose data carries the error kind.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		data := errorData(err)
		s.logger.Info("tool failed",
			zap.String("tool", params.Name),
			zap.String("kind", data.Kind),
			zap.Error(err))
		return s.errorResponse(req.ID, -32000, "Tool execution failed", data)
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// errorData classifies err for the client.
func errorData(err error) ErrorData {
	kind := string(imgerr.KindOf(err))
	switch {
	case kind != "":
	case errors.Is(err, ErrUnknownHandle):
		kind = kindUnknownHandle
	case errors.Is(err, errInvalidArguments):
		kind = kindInvalidArguments
	default:
		kind = kindInternal
	}
	return ErrorData{Kind: kind, Message: err.Error()}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Handle lifecycle
	case "image_open":
		return s.handleImageOpen(args)
	case "image_load":
		return s.handleImageLoad(ctx, args)
	case "image_save":
		return s.handleImageSave(args)
	case "image_metadata":
		return s.handleImageMetadata(args)
	case "image_dispose":
		return s.handleImageDispose(args)

	// Transformations
	case "image_rotate":
		return s.handleImageRotate(ctx, args)
	case "image_effect":
		return s.handleImageEffect(ctx, args)

	// Pixel access
	case "image_materialize":
		return s.handleImageMaterialize(ctx, args)
	case "image_sample_colors":
		return s.handleImageSampleColors(args)

	// Memory
	case "image_probe":
		return s.handleImageProbe(ctx, args)
	case "memory_status":
		return s.handleMemoryStatus(ctx)

	default:
		return nil, fmt.Errorf("%w: unknown tool: %s", errInvalidArguments, name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments. Missing arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArguments, err)
	}
	return nil
}

// handleInfo describes one open handle.
type handleInfo struct {
	Handle string `json:"handle"`
	nimage.Metadata
}

func (s *Server) describe(id string, h *nimage.Handle) (*handleInfo, error) {
	md, err := h.Metadata()
	if err != nil {
		return nil, err
	}
	return &handleInfo{Handle: id, Metadata: md}, nil
}

type handleArgs struct {
	Handle string `json:"handle"`
}

// === Handle Lifecycle Handlers ===

type imageOpenArgs struct {
	BytesPerPixel int `json:"bytes_per_pixel"`
}

func (s *Server) handleImageOpen(args json.RawMessage) (interface{}, error) {
	var a imageOpenArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.BytesPerPixel == 0 {
		a.BytesPerPixel = protocol.RGBA
	}

	h, err := s.rt.Create(a.BytesPerPixel)
	if err != nil {
		return nil, err
	}
	return s.describe(s.handles.add(h), h)
}

type imageLoadArgs struct {
	Path          string `json:"path"`
	Handle        string `json:"handle"`
	BytesPerPixel int    `json:"bytes_per_pixel"`
	Format        string `json:"format"`
}

func (s *Server) handleImageLoad(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("%w: path is required", errInvalidArguments)
	}

	var format protocol.Format
	if a.Format != "" {
		f, ok := protocol.ParseFormat(a.Format)
		if !ok {
			return nil, imgerr.UnrecognizedFormat("image_load", a.Format)
		}
		format = f
	}
	load := func(h *nimage.Handle) error {
		if format != 0 {
			return h.LoadFormat(ctx, a.Path, format)
		}
		return h.Load(ctx, a.Path)
	}

	if a.Handle != "" {
		h, err := s.handles.get(a.Handle)
		if err != nil {
			return nil, err
		}
		if a.BytesPerPixel != 0 && a.BytesPerPixel != h.BytesPerPixel() {
			return nil, fmt.Errorf("%w: handle has %d bytes per pixel, not %d", errInvalidArguments, h.BytesPerPixel(), a.BytesPerPixel)
		}
		if err := load(h); err != nil {
			return nil, err
		}
		return s.describe(a.Handle, h)
	}

	if a.BytesPerPixel == 0 {
		a.BytesPerPixel = protocol.RGBA
	}
	h, err := s.rt.Create(a.BytesPerPixel)
	if err != nil {
		return nil, err
	}
	if err := load(h); err != nil {
		h.Dispose()
		return nil, err
	}
	return s.describe(s.handles.add(h), h)
}

type imageSaveArgs struct {
	Handle      string `json:"handle"`
	Path        string `json:"path"`
	Format      string `json:"format"`
	JPEGQuality int    `json:"jpeg_quality"`
}

func (s *Server) handleImageSave(args json.RawMessage) (interface{}, error) {
	var a imageSaveArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	h, err := s.handles.get(a.Handle)
	if err != nil {
		return nil, err
	}

	params := nimage.SaveParams{JPEGQuality: a.JPEGQuality}
	if a.Format == "" {
		err = h.SaveAuto(a.Path, params)
	} else {
		format, ok := protocol.ParseFormat(a.Format)
		if !ok {
			return nil, imgerr.UnrecognizedFormat("image_save", a.Format)
		}
		err = h.Save(a.Path, format, params)
	}
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"handle": a.Handle, "path": a.Path}, nil
}

func (s *Server) handleImageMetadata(args json.RawMessage) (interface{}, error) {
	var a handleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	h, err := s.handles.get(a.Handle)
	if err != nil {
		return nil, err
	}
	return s.describe(a.Handle, h)
}

func (s *Server) handleImageDispose(args json.RawMessage) (interface{}, error) {
	var a handleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	h, err := s.handles.remove(a.Handle)
	if err != nil {
		return nil, err
	}
	h.Dispose()
	return map[string]interface{}{"handle": a.Handle, "disposed": true}, nil
}

// === Transformation Handlers ===

type imageRotateArgs struct {
	Handle string `json:"handle"`
	Angle  int    `json:"angle"`
	Fast   bool   `json:"fast"`
}

func (s *Server) handleImageRotate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageRotateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	h, err := s.handles.get(a.Handle)
	if err != nil {
		return nil, err
	}
	if err := h.Rotate(ctx, a.Angle, a.Fast); err != nil {
		return nil, err
	}
	return s.describe(a.Handle, h)
}

type imageEffectArgs struct {
	Handle  string          `json:"handle"`
	Command json.RawMessage `json:"command"`
}

func (s *Server) handleImageEffect(ctx context.Context, args json.RawMessage) (interface{}, error) {
	const op = "image_effect"

	var a imageEffectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	h, err := s.handles.get(a.Handle)
	if err != nil {
		return nil, err
	}

	e, err := effect.Decode(a.Command)
	if errors.Is(err, effect.ErrNotDefined) {
		return nil, imgerr.New(op, imgerr.KindEffectNotDefined).Cause(err).Build()
	}
	if err != nil {
		return nil, imgerr.New(op, imgerr.KindInvalidCommandEncoding).Cause(err).Build()
	}
	if err := h.Apply(ctx, e); err != nil {
		return nil, err
	}
	return s.describe(a.Handle, h)
}

// === Pixel Access Handlers ===

type imageMaterializeArgs struct {
	Handle       string  `json:"handle"`
	Mode         string  `json:"mode"`
	X            int     `json:"x"`
	Y            int     `json:"y"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Scale        float64 `json:"scale"`
	TargetWidth  int     `json:"target_width"`
	TargetHeight int     `json:"target_height"`
	MaxSide      int     `json:"max_side"`
}

// fitSize shrinks width x height to fit within limit on both sides,
// keeping the aspect ratio.
func fitSize(width, height, limit int) (int, int) {
	if width >= height {
		return limit, max(height*limit/width, 1)
	}
	return max(width*limit/height, 1), limit
}

// handleImageMaterialize copies pixels onto the Go heap, so the copy is
// admission-checked like an engine allocation. A full view larger than
// max_side is resampled by the engine instead of copied at 1:1.
func (s *Server) handleImageMaterialize(ctx context.Context, args json.RawMessage) (interface{}, error) {
	const op = "image_materialize"

	var a imageMaterializeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	h, err := s.handles.get(a.Handle)
	if err != nil {
		return nil, err
	}
	md, err := h.Metadata()
	if err != nil {
		return nil, err
	}

	mode := a.Mode
	if mode == "" {
		mode = "full"
	}
	if mode == "full" && a.MaxSide > 0 && (md.Width > a.MaxSide || md.Height > a.MaxSide) {
		mode = "scaled"
		a.Scale = 0
		a.TargetWidth, a.TargetHeight = fitSize(md.Width, md.Height, a.MaxSide)
	}

	var viewW, viewH int
	switch mode {
	case "full":
		viewW, viewH = md.Width, md.Height
	case "crop":
		viewW, viewH = a.Width, a.Height
	case "scaled":
		if a.Scale > 0 && a.Scale <= 1 {
			viewW, viewH = int(float64(md.Width)*a.Scale+0.5), int(float64(md.Height)*a.Scale+0.5)
		} else {
			viewW, viewH = a.TargetWidth, a.TargetHeight
			if viewW == 0 && md.Height > 0 {
				viewW = viewH * md.Width / md.Height
			}
			if viewH == 0 && md.Width > 0 {
				viewH = viewW * md.Height / md.Width
			}
		}
	case "region":
		if a.TargetWidth <= 0 || a.TargetHeight <= 0 {
			return nil, imgerr.InvalidParameter(op, "region mode needs a positive target_width and target_height")
		}
		viewW, viewH = a.TargetWidth, a.TargetHeight
	default:
		return nil, fmt.Errorf("%w: unknown mode %q, want full, crop, scaled or region", errInvalidArguments, a.Mode)
	}
	if viewW > 0 && viewH > 0 {
		if err := s.rt.Admission().Check(ctx, op, int64(viewW)*int64(viewH)*protocol.RGBA); err != nil {
			return nil, err
		}
	}

	var img image.Image
	switch mode {
	case "full":
		var view draw.Image
		view, err = h.MaterializeFull(nil)
		img = view
	case "crop":
		var view draw.Image
		view, err = h.MaterializeCropped(nil, a.X, a.Y, a.Width, a.Height)
		img = view
	case "scaled":
		var view *image.RGBA
		if a.Scale != 0 {
			view, err = h.MaterializeScaledFactor(a.Scale)
		} else {
			view, err = h.MaterializeScaled(a.TargetWidth, a.TargetHeight)
		}
		img = view
	case "region":
		view := image.NewRGBA(image.Rect(0, 0, a.TargetWidth, a.TargetHeight))
		err = h.MaterializeScaledRegion(view, a.X, a.Y, a.Width, a.Height)
		img = view
	}
	if err != nil {
		return nil, err
	}

	return inspect.EncodePNG(img, a.MaxSide)
}

type imageSampleColorsArgs struct {
	Handle string                 `json:"handle"`
	Points []inspect.LabeledPoint `json:"points"`
}

// handleImageSampleColors copies out one pixel per point instead of the
// whole image.
func (s *Server) handleImageSampleColors(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Points) == 0 {
		return nil, fmt.Errorf("%w: at least one point is required", errInvalidArguments)
	}
	h, err := s.handles.get(a.Handle)
	if err != nil {
		return nil, err
	}

	result := &inspect.MultiColorResult{Samples: make([]inspect.LabeledColorResult, 0, len(a.Points))}
	for _, p := range a.Points {
		pixel, err := h.MaterializeCropped(nil, p.X, p.Y, 1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to sample point (%d,%d): %w", p.X, p.Y, err)
		}
		c, err := inspect.SampleColor(pixel, 0, 0)
		if err != nil {
			return nil, err
		}
		result.Samples = append(result.Samples, inspect.LabeledColorResult{
			Label: p.Label,
			X:     p.X,
			Y:     p.Y,
			Color: *c,
		})
	}
	return result, nil
}

// === Memory Handlers ===

type imageProbeArgs struct {
	Path          string `json:"path"`
	BytesPerPixel int    `json:"bytes_per_pixel"`
}

// ProbeResult is the size of an image file and whether loading it would be
// admitted now.
type ProbeResult struct {
	Width         int                `json:"width"`
	Height        int                `json:"height"`
	BytesPerPixel int                `json:"bytesPerPixel"`
	Decision      admission.Decision `json:"decision"`
}

// Probe reads the header of path and evaluates the load against the
// admission controller without reserving anything.
func Probe(ctx context.Context, rt *nimage.Runtime, path string, bytesPerPixel int) (*ProbeResult, error) {
	if bytesPerPixel == 0 {
		bytesPerPixel = protocol.RGBA
	}
	if bytesPerPixel != protocol.RGB && bytesPerPixel != protocol.RGBA {
		return nil, imgerr.InvalidConfiguration("probe", "bytes per pixel must be %d or %d, got %d",
			protocol.RGB, protocol.RGBA, bytesPerPixel)
	}

	dims, err := nimage.ProbeBounds(path)
	if err != nil {
		return nil, err
	}
	requested := int64(dims.Width) * int64(dims.Height) * int64(bytesPerPixel)
	d, err := rt.Admission().Evaluate(ctx, requested)
	if err != nil {
		return nil, err
	}
	return &ProbeResult{
		Width:         dims.Width,
		Height:        dims.Height,
		BytesPerPixel: bytesPerPixel,
		Decision:      d,
	}, nil
}

func (s *Server) handleImageProbe(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageProbeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return Probe(ctx, s.rt, a.Path, a.BytesPerPixel)
}

// memoryStatus adds the server's handle count to the admission status.
type memoryStatus struct {
	admission.Status
	OpenHandles int `json:"openHandles"`
}

func (s *Server) handleMemoryStatus(ctx context.Context) (interface{}, error) {
	st, err := s.rt.Admission().Status(ctx)
	if err != nil {
		return nil, err
	}
	return &memoryStatus{Status: st, OpenHandles: s.handles.len()}, nil
}
