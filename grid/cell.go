// Package grid implements the GPU-instanced terminal cell grid: two
// per-cell vertex buffers sampled by a shared quad mesh, a shader program
// wired to the glyph atlas's texture array, and the selection/content-hash
// bookkeeping layered on top (spec.md sections 3, 5).
package grid

import "github.com/bloeys/gputerm/glyph"

// CellStatic holds the part of a cell's GPU state that never changes after
// a resize: its grid position. Uploaded once per Resize call, not per
// frame (spec.md section 5.1).
type CellStatic struct {
	// Col, Row locate the cell in the grid. Stored as float32 because the
	// vertex shader consumes them directly in its position computation.
	Col, Row float32
}

// CellDynamic holds the part of a cell's GPU state that changes as content
// updates: its packed glyph id and its foreground/background colors,
// exactly 8 bytes with no padding (spec.md sections 3.4, 4.8, 9):
// glyph_id_le:[u8;2] + fg_rgb:[u8;3] + bg_rgb:[u8;3]. Colors carry no alpha
// channel; the fragment shader always renders foreground opaque and scales
// only the background's alpha by the uBgAlpha uniform.
//
// The two fields below are the same 8 bytes read back as the pair of
// 32-bit words the vertex shader fetches them as: Word0 is bytes 0-3
// (glyph id, then the first two fg_rgb bytes), Word1 is bytes 4-7 (the
// last fg_rgb byte, then all three bg_rgb bytes). Two same-sized uint32
// fields need no alignment padding between them, unlike a uint16 followed
// by a uint32.
type CellDynamic struct {
	Word0 uint32
	Word1 uint32
}

// NewCellDynamic packs a styled glyph id and an RGB color pair into a
// CellDynamic ready for upload. fg and bg are 0xRRGGBB values;
// any alpha byte a caller passes in the high byte is ignored.
func NewCellDynamic(id glyph.ID, fg, bg uint32) CellDynamic {
	fgR, fgG, fgB := byte(fg>>16), byte(fg>>8), byte(fg)
	bgR, bgG, bgB := byte(bg>>16), byte(bg>>8), byte(bg)
	return CellDynamic{
		Word0: uint32(id) | uint32(fgR)<<16 | uint32(fgG)<<24,
		Word1: uint32(fgB) | uint32(bgR)<<8 | uint32(bgG)<<16 | uint32(bgB)<<24,
	}
}

// GlyphID extracts the 16-bit styled glyph identifier.
func (c CellDynamic) GlyphID() glyph.ID {
	return glyph.ID(c.Word0 & 0xFFFF)
}

// FgRGB extracts the foreground color as a 0xRRGGBB value.
func (c CellDynamic) FgRGB() uint32 {
	r := (c.Word0 >> 16) & 0xFF
	g := (c.Word0 >> 24) & 0xFF
	b := c.Word1 & 0xFF
	return r<<16 | g<<8 | b
}

// BgRGB extracts the background color as a 0xRRGGBB value.
func (c CellDynamic) BgRGB() uint32 {
	r := (c.Word1 >> 8) & 0xFF
	g := (c.Word1 >> 16) & 0xFF
	b := (c.Word1 >> 24) & 0xFF
	return r<<16 | g<<8 | b
}

// Index converts a (col, row) position into a flat cell index, row-major,
// matching the layout UpdateCellsByPosition and the selection tracker both
// assume.
func Index(cols, col, row int) int {
	return row*cols + col
}

// Position converts a flat cell index back into (col, row) for a grid of
// the given width.
func Position(cols, index int) (col, row int) {
	return index % cols, index / cols
}
