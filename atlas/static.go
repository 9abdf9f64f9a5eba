package atlas

import (
	"io"

	"github.com/bloeys/gputerm/glyph"
)

// StaticAtlas serves glyph lookups from a pre-generated binary atlas: no
// rasterization happens at runtime, so Resolve is just a map lookup
// (spec.md section 4.4).
type StaticAtlas struct {
	data *Data
	tex  *arrayTexture

	symbolToID map[symbolKey]glyph.ID
	idToSymbol map[glyph.ID]string
	missing    *MissingGlyphs
}

type symbolKey struct {
	symbol string
	style  glyph.Style
}

// LoadStaticAtlas decodes a binary atlas from r and uploads its texture
// payload to the GPU.
func LoadStaticAtlas(r io.Reader) (*StaticAtlas, error) {
	data, err := Decode(r)
	if err != nil {
		return nil, err
	}
	a, err := NewStaticAtlasFromData(data)
	if err != nil {
		return nil, err
	}
	if err := a.UploadTexture(); err != nil {
		return nil, err
	}
	return a, nil
}

// NewStaticAtlasFromData builds a StaticAtlas from already-parsed data
// without uploading its texture payload (see UploadTexture). Exposed
// separately from LoadStaticAtlas so tests can exercise the
// lookup/classification logic without a GL context.
func NewStaticAtlasFromData(data *Data) (*StaticAtlas, error) {
	a := &StaticAtlas{
		data:       data,
		symbolToID: make(map[symbolKey]glyph.ID, len(data.Glyphs)),
		idToSymbol: make(map[glyph.ID]string, len(data.Glyphs)),
		missing:    NewMissingGlyphs(),
	}
	for _, g := range data.Glyphs {
		style := g.Style
		if g.IsEmoji {
			style = glyph.StyleNormal
		}
		a.symbolToID[symbolKey{symbol: g.Symbol, style: style}] = g.ID
		a.idToSymbol[g.ID&glyph.EmojiBaseMask] = g.Symbol
	}
	return a, nil
}

// UploadTexture allocates and populates this atlas's GPU texture. Split
// from construction so NewStaticAtlasFromData stays usable in tests without
// a live GL context.
func (a *StaticAtlas) UploadTexture() error {
	dims := a.data.TextureDimensions
	tex, err := newArrayTexture(dims[0], a.data.PaddedCellSize[1], dims[2])
	if err != nil {
		return err
	}
	tex.uploadAll(a.data.TextureData)
	a.tex = tex
	return nil
}

// IsWide reports whether base exceeds the atlas's halfwidth boundary, per
// spec.md section 4.4: base glyph ids at or below
// max_halfwidth_base_glyph_id are single-cell, everything past it is
// double-width.
func (a *StaticAtlas) IsWide(base glyph.ID) bool {
	return uint16(base) > a.data.MaxHalfwidthBaseGlyphID
}

// Resolve implements Atlas.
func (a *StaticAtlas) Resolve(grapheme string, style glyph.Style, decoration glyph.ID) (GlyphSlot, bool) {
	id, ok := a.symbolToID[symbolKey{symbol: grapheme, style: style}]
	if !ok && style != glyph.StyleNormal {
		// emoji are stored under StyleNormal only; the requested style does
		// not select a different emoji glyph.
		if eid, found := a.symbolToID[symbolKey{symbol: grapheme, style: glyph.StyleNormal}]; found && eid.IsEmoji() {
			id, ok = eid, true
		}
	}
	if !ok {
		a.missing.Record(grapheme)
		return GlyphSlot{}, false
	}

	base := id & glyph.EmojiBaseMask
	switch {
	case id.IsEmoji():
		return Emoji(SlotID(base)), true
	case a.IsWide(base & glyph.BaseMask):
		return Wide(SlotID(base)), true
	default:
		return Normal(SlotID(base)), true
	}
}

// Symbol implements Atlas.
func (a *StaticAtlas) Symbol(id glyph.ID) (string, bool) {
	s, ok := a.idToSymbol[id.BaseID(a.BaseLookupMask())]
	return s, ok
}

// BaseLookupMask implements Atlas: the static atlas's flat id space already
// folds the emoji flag into the base glyph id, so lookups mask with
// glyph.EmojiBaseMask.
func (a *StaticAtlas) BaseLookupMask() glyph.ID {
	return glyph.EmojiBaseMask
}

// CellSize implements Atlas.
func (a *StaticAtlas) CellSize() (w, h int32) {
	return a.data.CellSize()
}

// TextureCellSize implements Atlas.
func (a *StaticAtlas) TextureCellSize() (w, h int32) {
	return a.data.PaddedCellSize[0], a.data.PaddedCellSize[1]
}

// Underline implements Atlas.
func (a *StaticAtlas) Underline() LineDecoration { return a.data.Underline }

// Strikethrough implements Atlas.
func (a *StaticAtlas) Strikethrough() LineDecoration { return a.data.Strikethrough }

// Missing implements Atlas.
func (a *StaticAtlas) Missing() *MissingGlyphs { return a.missing }

// Texture implements Atlas.
func (a *StaticAtlas) Texture() uint32 {
	if a.tex == nil {
		return 0
	}
	return a.tex.id
}

// Delete implements Atlas.
func (a *StaticAtlas) Delete() {
	if a.tex != nil {
		a.tex.delete()
		a.tex = nil
	}
}

// CellScaleForDPR implements the atlas generator's device-pixel-ratio
// snapping policy (spec.md section 4.4, supplemented from
// original_source's cell_scale_for_dpr): ratios at or below 0.5 snap down
// to a flat half scale; otherwise the ratio rounds to the nearest integer,
// clamped to a minimum of 1.
func CellScaleForDPR(dpr float64) float64 {
	if dpr <= 0.5 {
		return 0.5
	}
	rounded := float64(int64(dpr + 0.5))
	if rounded < 1 {
		return 1
	}
	return rounded
}
