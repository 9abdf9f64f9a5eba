package atlas

import "github.com/bloeys/gputerm/glyph"

// Atlas is the contract shared by the static (C4) and dynamic (C6) atlas
// implementations, per spec.md section 3.3/4.4/4.5. The terminal grid (C9)
// only depends on this interface, never on the concrete type, so
// Grid.ReplaceAtlas can swap between them freely.
type Atlas interface {
	// Resolve maps a grapheme rendered in the given style to a glyph slot.
	// style bits (bold/italic/underline/strikethrough) are ORed into the
	// returned slot's glyph id; Resolve never fails — unknown graphemes are
	// recorded in the missing-glyph tracker and the caller substitutes a
	// fallback glyph id of its choosing.
	Resolve(grapheme string, style glyph.Style, decoration glyph.ID) (GlyphSlot, bool)

	// Symbol reverse-looks-up the grapheme for id, masking by
	// BaseLookupMask first. Used by replace-atlas translation and text
	// extraction from a selection.
	Symbol(id glyph.ID) (string, bool)

	// BaseLookupMask is the mask that isolates the base-id portion of a
	// glyph id for this atlas: glyph.EmojiBaseMask for the static atlas
	// (base ids share the flat id space with the emoji flag folded in), a
	// flat 12-bit mask for a dynamic atlas whose slot space has no separate
	// emoji/non-emoji split. Surfaced to the fragment shader as
	// texture_lookup_mask.
	BaseLookupMask() glyph.ID

	// CellSize returns the logical (unpadded) cell dimensions in pixels.
	CellSize() (w, h int32)

	// TextureCellSize returns the physical, padded cell dimensions as
	// stored in the texture.
	TextureCellSize() (w, h int32)

	// Underline and Strikethrough return the decoration metadata used by
	// the fragment shader's overlay pass.
	Underline() LineDecoration
	Strikethrough() LineDecoration

	// Missing returns the tracker of graphemes this atlas failed to
	// resolve, for diagnostics.
	Missing() *MissingGlyphs

	// Texture returns the GL texture name bound during rendering.
	Texture() uint32

	// Delete releases the GPU texture. Safe to call once per atlas.
	Delete()
}
