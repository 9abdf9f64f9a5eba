package atlas

import "github.com/bloeys/gputerm/glyph"

// SlotID is an index into an atlas's texture-layer arena: layer = id/32,
// strip position = id%32 (spec.md section 4.3).
type SlotID uint16

// GlyphSlot is the closed set of ways a grapheme can occupy atlas slots
// (spec.md section 3.3). It is intentionally a sum type rather than an
// open interface: adding a variant is a breaking change to the atlas
// format, so callers are expected to switch exhaustively.
type GlyphSlot struct {
	kind slotKind
	id   SlotID
}

type slotKind uint8

const (
	slotNormal slotKind = iota
	slotWide
	slotEmoji
)

// Normal builds a single-cell-width glyph slot.
func Normal(id SlotID) GlyphSlot { return GlyphSlot{kind: slotNormal, id: id} }

// Wide builds a double-width (CJK) glyph slot. id must be even; id+1 is the
// reserved right-half slot.
func Wide(id SlotID) GlyphSlot { return GlyphSlot{kind: slotWide, id: id} }

// Emoji builds a double-width emoji glyph slot. id must already carry
// glyph.EmojiFlag and be even (ignoring the flag bit).
func Emoji(id SlotID) GlyphSlot { return GlyphSlot{kind: slotEmoji, id: id} }

// ID returns the slot's base id (left half, for Wide/Emoji).
func (s GlyphSlot) ID() SlotID { return s.id }

// IsNormal reports whether s occupies a single cell.
func (s GlyphSlot) IsNormal() bool { return s.kind == slotNormal }

// IsWide reports whether s is a double-width non-emoji glyph.
func (s GlyphSlot) IsWide() bool { return s.kind == slotWide }

// IsEmoji reports whether s is a double-width emoji glyph.
func (s GlyphSlot) IsEmoji() bool { return s.kind == slotEmoji }

// DoubleWidth reports whether s occupies two consecutive cells.
func (s GlyphSlot) DoubleWidth() bool { return s.kind != slotNormal }

// GlyphID returns the 16-bit styled glyph.ID for this slot with style and
// decoration bits OR-ed in. For Wide/Emoji, it returns the left-half id;
// RightHalf derives the companion id.
func (s GlyphSlot) GlyphID(style glyph.Style, decoration glyph.ID) glyph.ID {
	base := glyph.ID(s.id)
	if s.kind == slotEmoji {
		// Emoji base ids already include glyph.EmojiFlag (set by the
		// allocator); style is meaningless for emoji so it is not applied.
		return base | (decoration & glyph.DecorationMask)
	}
	return glyph.Build(base, style, decoration)
}

// RightHalf returns the companion slot rendering the right half of a
// Wide/Emoji glyph. Panics if s is not double-width; callers are expected
// to check DoubleWidth first.
func (s GlyphSlot) RightHalf() GlyphSlot {
	if !s.DoubleWidth() {
		panic("gputerm/atlas: RightHalf called on a single-width slot")
	}
	return GlyphSlot{kind: s.kind, id: s.id + 1}
}

// LineDecoration describes an underline/strikethrough bar as two fractions
// of the cell height (spec.md section 3.2).
type LineDecoration struct {
	// Position is 0 at the top of the cell, 1 at the bottom.
	Position float32
	// Thickness is a fraction of the cell height.
	Thickness float32
}

// NewLineDecoration clamps both fields into [0,1], matching the atlas
// generator's contract.
func NewLineDecoration(position, thickness float32) LineDecoration {
	return LineDecoration{Position: clamp01(position), Thickness: clamp01(thickness)}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// DebugSpacePattern selects a checkerboard substitution for the space
// glyph, used to visually verify pixel alignment (spec.md section 6.4).
// Dynamic atlas only.
type DebugSpacePattern uint8

const (
	DebugSpaceNone DebugSpacePattern = iota
	DebugSpaceOnePixel
	DebugSpaceTwoByTwo
)

// MissingGlyphs records graphemes a resolve() call couldn't find, for
// diagnostics (spec.md section 4.4). Missing lookups never produce errors;
// they are recorded here and the caller substitutes a fallback glyph.
type MissingGlyphs struct {
	symbols map[string]struct{}
}

// NewMissingGlyphs returns an empty tracker.
func NewMissingGlyphs() *MissingGlyphs {
	return &MissingGlyphs{symbols: make(map[string]struct{})}
}

// Record adds symbol to the tracked set.
func (m *MissingGlyphs) Record(symbol string) {
	m.symbols[symbol] = struct{}{}
}

// Symbols returns the distinct missing graphemes seen so far.
func (m *MissingGlyphs) Symbols() []string {
	out := make([]string, 0, len(m.symbols))
	for s := range m.symbols {
		out = append(out, s)
	}
	return out
}

// Clear empties the tracker. Called when a dynamic atlas re-seeds after a
// pixel-ratio change.
func (m *MissingGlyphs) Clear() {
	m.symbols = make(map[string]struct{})
}
