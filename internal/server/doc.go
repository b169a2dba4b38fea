// Package server implements the MCP (Model Context Protocol) server that
// exposes engine-backed images to clients.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Handle lifecycle:
//   - image_open: Create an empty image of 3 or 4 bytes per pixel
//   - image_load: Decode a file into a new or existing image
//   - image_save: Encode an image to a file
//   - image_metadata: Current size and engine memory
//   - image_dispose: Release an image
//
// Transformations:
//   - image_rotate: Clockwise rotation by multiples of 90
//   - image_effect: One effect command (grayScale, crop, brightness, ...)
//
// Pixel access:
//   - image_materialize: Full, cropped, scaled or region view as PNG
//   - image_sample_colors: Colors at given points
//
// Memory:
//   - image_probe: Header size and admission decision for a file
//   - memory_status: Live bytes, device memory, active limit
//
// # Handles
//
// Images live in engine memory and are referred to by UUID handle ids. Each
// handle stays allocated until image_dispose or until the server stops, at
// which point every remaining handle is disposed.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: {"kind": ..., "message": ...} where kind is the image error kind
//     (out_of_memory, invalid_angle, ...), unknown_handle, invalid_arguments
//     or internal
//
// # Usage
//
//	srv := server.New(rt, server.WithLogger(logger))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
