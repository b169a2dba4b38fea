// Package inspect reports on materialized image views.
//
// Views produced by nimage are ordinary image.Image values in memory, so
// clients can ask what a pixel looks like or receive the view itself as an
// inline PNG.
//
// # Coordinate System
//
// Coordinates are 0-based with the origin at the top-left corner:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//
// # Color Representation
//
// Colors are returned in several formats:
//   - Hex: "#RRGGBB" (alpha excluded)
//   - RGB / RGBA: 8-bit components
//   - HSL: Hue (0-360), Saturation (0-100), Lightness (0-100)
package inspect
