// Package glyph implements the 16-bit styled-glyph identifier shared by the
// CPU-side atlas code and the fragment shader that samples it.
package glyph

// ID is a styled glyph identifier: a base glyph index packed together with
// font-style and decoration-effect bits. See the bit layout table in
// spec.md section 3.1.
type ID uint16

const (
	// BaseMask isolates the base glyph index for a non-emoji glyph (bits 0-9).
	BaseMask ID = 0x03FF
	// EmojiBaseMask isolates the base glyph index for an emoji glyph,
	// including the EMOJI flag bit itself (bits 0-12).
	EmojiBaseMask ID = 0x1FFF
	// DynamicBaseMask is the base_lookup_mask a dynamic atlas reports: its
	// 4096 slots form one flat space (bits 0-11), since emoji and wide
	// glyphs already live past the halfwidth boundary without needing the
	// EMOJI flag folded into the lookup key.
	DynamicBaseMask ID = 0x0FFF

	// BoldFlag selects the bold variant of the base glyph.
	BoldFlag ID = 0x0400
	// ItalicFlag selects the italic variant of the base glyph.
	ItalicFlag ID = 0x0800
	// EmojiFlag marks the ID as an emoji glyph. When set, BoldFlag and
	// ItalicFlag must be clear.
	EmojiFlag ID = 0x1000
	// UnderlineFlag requests the underline decoration overlay.
	UnderlineFlag ID = 0x2000
	// StrikethroughFlag requests the strikethrough decoration overlay.
	StrikethroughFlag ID = 0x4000
	// ReservedFlag must always be zero.
	ReservedFlag ID = 0x8000

	// StyleMask isolates the font-style bits (bold/italic).
	StyleMask ID = BoldFlag | ItalicFlag
	// DecorationMask isolates the decoration-effect bits (underline/strikethrough).
	DecorationMask ID = UnderlineFlag | StrikethroughFlag
)

// Style enumerates the four font-style combinations a non-emoji glyph can
// have in the atlas. It is a closed set: adding a variant is a breaking
// change to the atlas format.
type Style uint8

const (
	StyleNormal Style = iota
	StyleBold
	StyleItalic
	StyleBoldItalic
)

// Mask returns the ID bits this style contributes.
func (s Style) Mask() ID {
	switch s {
	case StyleBold:
		return BoldFlag
	case StyleItalic:
		return ItalicFlag
	case StyleBoldItalic:
		return BoldFlag | ItalicFlag
	default:
		return 0
	}
}

// StyleFromOrdinal decodes the wire-format style ordinal used by the atlas
// binary format (spec.md section 6.1). Returns false for any ordinal
// outside 0..3.
func StyleFromOrdinal(ordinal uint8) (Style, bool) {
	if ordinal > uint8(StyleBoldItalic) {
		return 0, false
	}
	return Style(ordinal), true
}

// StyleFromBits extracts the font style encoded in id's style bits. The
// EMOJI flag, if set, always yields StyleNormal regardless of the style
// bits (emoji have no style variants).
func StyleFromBits(id ID) Style {
	if id&EmojiFlag != 0 {
		return StyleNormal
	}
	switch id & StyleMask {
	case BoldFlag:
		return StyleBold
	case ItalicFlag:
		return StyleItalic
	case BoldFlag | ItalicFlag:
		return StyleBoldItalic
	default:
		return StyleNormal
	}
}

// Build packs a base glyph index and style bits into a styled ID. base must
// already be shifted into its field (i.e. in 0..1023 for non-emoji, or
// include EmojiFlag for emoji); style and decoration bits are OR-ed in
// as-is.
func Build(base ID, style Style, decoration ID) ID {
	return base | style.Mask() | (decoration & DecorationMask)
}

// BaseID extracts the base glyph index from id, masking with mask. BaseMask
// isolates only the 10-bit non-emoji index; the atlases use EmojiBaseMask
// (static) and DynamicBaseMask (dynamic). See Atlas.BaseLookupMask in the
// atlas package for which mask a given atlas implementation expects.
func (id ID) BaseID(mask ID) ID {
	return id & mask
}

// Decoration returns the decoration-effect bits of id (underline and/or
// strikethrough), independent of which texel id addresses.
func (id ID) Decoration() ID {
	return id & DecorationMask
}

// IsEmoji reports whether the EMOJI flag is set.
func (id ID) IsEmoji() bool {
	return id&EmojiFlag != 0
}

// HasUnderline reports whether the underline decoration bit is set.
func (id ID) HasUnderline() bool {
	return id&UnderlineFlag != 0
}

// HasStrikethrough reports whether the strikethrough decoration bit is set.
func (id ID) HasStrikethrough() bool {
	return id&StrikethroughFlag != 0
}

// Valid reports whether id obeys the encoding invariants from spec.md
// section 3.1: the reserved bit must be zero, and an emoji glyph must not
// also carry bold/italic style bits.
func (id ID) Valid() bool {
	if id&ReservedFlag != 0 {
		return false
	}
	if id.IsEmoji() && id&StyleMask != 0 {
		return false
	}
	return true
}

// ASCIIBase returns the base id for a single-byte ASCII grapheme (0x20-0x7E)
// rendered in Style Normal. This is the fast path contract from spec.md
// section 3.1: base_id equals the code point itself.
func ASCIIBase(r rune) (ID, bool) {
	if r < 0x20 || r > 0x7E {
		return 0, false
	}
	return ID(r), true
}
