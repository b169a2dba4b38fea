package server

import "github.com/ironsheep/nativeimage-mcp/internal/effect"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var handleProperty = map[string]interface{}{
	"type":        "string",
	"description": "Handle id returned by image_open or image_load",
}

var bytesPerPixelProperty = map[string]interface{}{
	"type":        "integer",
	"enum":        []int{3, 4},
	"description": "Pixel layout: 3 for RGB, 4 for RGBA. Default 4",
	"default":     4,
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Handle lifecycle
		{
			Name:        "image_open",
			Description: "Create an empty engine image and return its handle. Load pixels into it with image_load.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"bytes_per_pixel": bytesPerPixelProperty,
				},
			},
		},
		{
			Name:        "image_load",
			Description: "Decode a JPEG or PNG file into engine memory. Without a handle a new one is created. The load is refused with out_of_memory when it would push engine memory past the safe share of device RAM.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"handle":          handleProperty,
					"bytes_per_pixel": bytesPerPixelProperty,
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"jpeg", "png", "png_rgba"},
						"description": "Codec to use. Default: detected from the file extension",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_save",
			Description: "Encode an image to a file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"handle": handleProperty,
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute output path",
					},
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"jpeg", "png", "png_rgba"},
						"description": "Codec to use. Default: detected from the file extension",
					},
					"jpeg_quality": map[string]interface{}{
						"type":        "integer",
						"minimum":     1,
						"maximum":     100,
						"description": "JPEG quality. Default: engine default",
					},
				},
				"required": []string{"handle", "path"},
			},
		},
		{
			Name:        "image_metadata",
			Description: "Get the current width, height, pixel layout and engine memory of an image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"handle": handleProperty,
				},
				"required": []string{"handle"},
			},
		},
		{
			Name:        "image_dispose",
			Description: "Release an image and its engine memory. The handle is invalid afterwards.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"handle": handleProperty,
				},
				"required": []string{"handle"},
			},
		},

		// Transformations
		{
			Name:        "image_rotate",
			Description: "Rotate an image clockwise by a multiple of 90 degrees. The fast path temporarily needs a second copy of the image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"handle": handleProperty,
					"angle": map[string]interface{}{
						"type":        "integer",
						"description": "Clockwise angle, a non-negative multiple of 90",
					},
					"fast": map[string]interface{}{
						"type":        "boolean",
						"description": "Use the double-buffered path. Default false",
						"default":     false,
					},
				},
				"required": []string{"handle", "angle"},
			},
		},
		{
			Name:        "image_effect",
			Description: "Apply one effect command in place. The command is a flat object with an \"effect\" key: grayScale, crop (offsetX, offsetY, width, height), brightness (brightness), contrast (contrast), gamma (gamma), inverse, flipv, fliph, naiveResize (width, height).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"handle": handleProperty,
					"command": map[string]interface{}{
						"type":        "object",
						"description": "Effect command, e.g. {\"effect\":\"brightness\",\"brightness\":40}",
						"properties": map[string]interface{}{
							"effect": map[string]interface{}{
								"type": "string",
								"enum": effect.Kinds,
							},
						},
						"required": []string{"effect"},
					},
				},
				"required": []string{"handle", "command"},
			},
		},

		// Pixel access
		{
			Name:        "image_materialize",
			Description: "Copy pixels out of engine memory and return them as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"handle": handleProperty,
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"full", "crop", "scaled", "region"},
						"description": "full: whole image; crop: x/y/width/height at 1:1; scaled: whole image resampled to scale or target size; region: x/y/width/height resampled to target size. Default full",
						"default":     "full",
					},
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge of the source rectangle",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge of the source rectangle",
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Width of the source rectangle",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Height of the source rectangle",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor in (0, 1] for scaled mode",
					},
					"target_width": map[string]interface{}{
						"type":        "integer",
						"description": "Output width; in scaled mode 0 keeps the aspect ratio",
					},
					"target_height": map[string]interface{}{
						"type":        "integer",
						"description": "Output height; in scaled mode 0 keeps the aspect ratio",
					},
					"max_side": map[string]interface{}{
						"type":        "integer",
						"description": "Shrink the returned PNG to fit this many pixels per side. Default: no limit",
					},
				},
				"required": []string{"handle"},
			},
		},
		{
			Name:        "image_sample_colors",
			Description: "Get color values at one or more pixel coordinates.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"handle": handleProperty,
					"points": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":     map[string]interface{}{"type": "integer"},
								"y":     map[string]interface{}{"type": "integer"},
								"label": map[string]interface{}{"type": "string"},
							},
							"required": []string{"x", "y"},
						},
						"description": "Points to sample",
					},
				},
				"required": []string{"handle", "points"},
			},
		},

		// Memory
		{
			Name:        "image_probe",
			Description: "Read an image file header and report whether loading it would be admitted right now.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"bytes_per_pixel": bytesPerPixelProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "memory_status",
			Description: "Report live engine memory, device memory and the active admission limit.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
