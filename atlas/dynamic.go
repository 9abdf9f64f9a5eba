package atlas

import (
	"github.com/bloeys/gputerm/glyph"
	"github.com/bloeys/gputerm/internal/glog"
	"github.com/bloeys/gputerm/ring"
)

const (
	dynamicTotalSlots = asciiSlotCount + normalSlotCount + wideSlotCount*2 // 4096, spec.md section 4.5
	// dynamicLayers rounds up to a whole number of texture-array layers;
	// any trailing slots past dynamicTotalSlots in the last layer are
	// simply never addressed.
	dynamicLayers = (dynamicTotalSlots + glyphsPerLayer - 1) / glyphsPerLayer

	// pendingQueueCapacity bounds the backlog of not-yet-rasterized glyph
	// requests a single frame can accumulate before Flush drains it. A
	// frame that resolves more new glyphs than this within itself slides
	// the window and silently drops the oldest requests from that frame;
	// in practice a screen has far fewer distinct new glyphs per frame.
	pendingQueueCapacity = 8192
)

// DynamicAtlas rasterizes glyphs on demand and evicts the least recently
// used ones once its fixed slot budget is exhausted (spec.md section 4.6).
// Unlike StaticAtlas, requests accumulate in a pending queue and are only
// rasterized and uploaded to the GPU when Flush is called, so a frame can
// batch every new glyph it discovered into a single rasterizer call and a
// handful of texture sub-uploads.
type DynamicAtlas struct {
	cache      *GlyphCache
	rasterizer Rasterizer
	tex        textureBackend

	cellW, cellH  int32
	underline     LineDecoration
	strikethrough LineDecoration

	pending *ring.Buffer[GlyphRequest]
	missing *MissingGlyphs

	debugSpace DebugSpacePattern
	pixelRatio float64
}

// NewDynamicAtlas seeds the ASCII fast-path slots and allocates (but does
// not populate beyond ASCII) the backing texture.
func NewDynamicAtlas(rasterizer Rasterizer, underline, strikethrough LineDecoration) (*DynamicAtlas, error) {
	cellW, cellH := rasterizer.CellSize()

	tex, err := newTextureBackend(cellW, cellH, dynamicLayers)
	if err != nil {
		return nil, err
	}

	a := &DynamicAtlas{
		cache:         NewGlyphCache(),
		rasterizer:    rasterizer,
		tex:           tex,
		cellW:         cellW,
		cellH:         cellH,
		underline:     underline,
		strikethrough: strikethrough,
		missing:       NewMissingGlyphs(),
		pending:       ring.NewBuffer[GlyphRequest](pendingQueueCapacity),
		pixelRatio:    1.0,
	}

	if err := a.seedASCII(); err != nil {
		return nil, err
	}
	return a, nil
}

// seedASCII rasterizes and uploads every printable ASCII code point in
// StyleNormal up front, so the overwhelmingly common case never needs a
// Flush round-trip.
func (a *DynamicAtlas) seedASCII() error {
	reqs := make([]GlyphRequest, 0, asciiSlotCount)
	for r := rune(0x20); r <= 0x7E; r++ {
		reqs = append(reqs, GlyphRequest{Symbol: string(r), Style: glyph.StyleNormal})
	}

	rendered, err := a.rasterizer.Rasterize(reqs)
	if err != nil {
		return err
	}
	for _, g := range rendered {
		base, _ := glyph.ASCIIBase([]rune(g.Request.Symbol)[0])
		slot := SlotID(base) - 0x20
		a.tex.uploadSlot(slot, g.Pixels)
	}
	return nil
}

// Resolve implements Atlas. New graphemes are queued for rasterization
// rather than rasterized inline; until the next Flush, Resolve still
// returns a slot assignment (the cache allocates eagerly) but the texels at
// that slot are not yet valid for sampling this frame.
func (a *DynamicAtlas) Resolve(grapheme string, style glyph.Style, decoration glyph.ID) (GlyphSlot, bool) {
	runes := []rune(grapheme)
	if len(runes) == 1 && style == glyph.StyleNormal {
		if base, ok := glyph.ASCIIBase(runes[0]); ok {
			return Normal(SlotID(base) - 0x20), true
		}
	}

	isEmoji := classifyEmoji(grapheme)
	wide := isEmoji || classifyWide(grapheme)

	lookupStyle := style
	if isEmoji {
		lookupStyle = glyph.StyleNormal
	}

	slot, evicted := a.cache.GetOrInsert(grapheme, lookupStyle, wide)
	if evicted != nil {
		glog.Debugf("dynamic atlas: evicted %q (slot %d) for %q", evicted.Symbol, evicted.Slot, grapheme)
	}

	a.pending.Append(GlyphRequest{Symbol: grapheme, Style: lookupStyle})

	switch {
	case isEmoji:
		return Emoji(slot | SlotID(glyph.EmojiFlag)), true
	case wide:
		return Wide(slot), true
	default:
		return Normal(slot), true
	}
}

// Flush rasterizes every pending request accumulated since the last Flush
// and uploads the results to the GPU. Call once per frame after all
// Resolve calls for that frame are done (spec.md section 4.6).
func (a *DynamicAtlas) Flush() error {
	if a.pending.Len == 0 {
		return nil
	}

	v1, v2 := a.pending.Views()
	batch := make([]GlyphRequest, 0, len(v1)+len(v2))
	batch = append(batch, v1...)
	batch = append(batch, v2...)
	a.pending.Start, a.pending.Len = 0, 0

	maxBatch := a.rasterizer.MaxBatchSize()
	for len(batch) > 0 {
		n := len(batch)
		if n > maxBatch {
			n = maxBatch
		}
		chunk := batch[:n]
		batch = batch[n:]

		rendered, err := a.rasterizer.Rasterize(chunk)
		if err != nil {
			return err
		}
		for _, g := range rendered {
			slot, _, found := a.slotFor(g.Request)
			if !found {
				continue
			}
			a.tex.uploadSlot(slot, g.Pixels)
		}
	}
	return nil
}

// slotFor returns the slot currently assigned to req, if the cache still
// holds it (a glyph queued for rasterization may have been evicted again
// before Flush ran, in degenerate cases where the pending queue vastly
// exceeds the cache's capacity within a single frame).
func (a *DynamicAtlas) slotFor(req GlyphRequest) (SlotID, glyph.Style, bool) {
	runes := []rune(req.Symbol)
	if len(runes) == 1 && req.Style == glyph.StyleNormal {
		if base, ok := glyph.ASCIIBase(runes[0]); ok {
			return SlotID(base) - 0x20, req.Style, true
		}
	}
	wide := classifyEmoji(req.Symbol) || classifyWide(req.Symbol)
	cache := a.cache.normal
	if wide {
		cache = a.cache.wide
	}
	slot, ok := cache.Peek(cacheKey{symbol: req.Symbol, style: req.Style})
	return slot, req.Style, ok
}

// UpdatePixelRatio re-seeds the atlas for a new device pixel ratio: the
// rasterizer is rebuilt at font_size*ratio, the GPU texture is reallocated
// at the newly measured cell size, every non-ASCII cache entry is
// discarded (the previously rasterized glyphs are the wrong physical size
// to keep around), and the ASCII range is re-seeded at the new size so it
// keeps occupying slots 0..asciiSlotCount-1 (spec.md section 4.6). A
// change smaller than the epsilon below is treated as a no-op, matching
// the original implementation's guard against float jitter from the
// windowing layer.
func (a *DynamicAtlas) UpdatePixelRatio(ratio float64) error {
	const epsilon = 1e-6
	diff := ratio - a.pixelRatio
	if diff < 0 {
		diff = -diff
	}
	if diff < epsilon {
		return nil
	}

	if err := a.rasterizer.Rescale(ratio); err != nil {
		return err
	}
	cellW, cellH := a.rasterizer.CellSize()

	tex, err := newTextureBackend(cellW, cellH, dynamicLayers)
	if err != nil {
		return err
	}
	if a.tex != nil {
		a.tex.delete()
	}

	a.pixelRatio = ratio
	a.cellW, a.cellH = cellW, cellH
	a.tex = tex
	a.cache = NewGlyphCache()
	a.pending.Start, a.pending.Len = 0, 0
	a.missing.Clear()

	return a.seedASCII()
}

// SetDebugSpacePattern records the checkerboard pattern selection for the
// space glyph. Only the value is stored: no code path in this package
// rewrites the space glyph's pixels with it.
func (a *DynamicAtlas) SetDebugSpacePattern(p DebugSpacePattern) {
	a.debugSpace = p
}

// Symbol implements Atlas.
func (a *DynamicAtlas) Symbol(id glyph.ID) (string, bool) {
	base := id.BaseID(a.BaseLookupMask())
	if int(base) < asciiSlotCount {
		return string(rune(base) + 0x20), true
	}
	sym, _, ok := a.cache.Symbol(SlotID(base))
	return sym, ok
}

// BaseLookupMask implements Atlas: the dynamic atlas's 4096 slots form one
// flat id space with no separate emoji encoding, so DynamicBaseMask (12
// bits) is sufficient.
func (a *DynamicAtlas) BaseLookupMask() glyph.ID {
	return glyph.DynamicBaseMask
}

// CellSize implements Atlas.
func (a *DynamicAtlas) CellSize() (w, h int32) { return a.cellW, a.cellH }

// TextureCellSize implements Atlas. The dynamic atlas rasterizes glyphs
// directly at their logical size; there is no extra padding border to
// subtract, unlike the pre-generated static atlas.
func (a *DynamicAtlas) TextureCellSize() (w, h int32) { return a.cellW, a.cellH }

// Underline implements Atlas.
func (a *DynamicAtlas) Underline() LineDecoration { return a.underline }

// Strikethrough implements Atlas.
func (a *DynamicAtlas) Strikethrough() LineDecoration { return a.strikethrough }

// Missing implements Atlas.
func (a *DynamicAtlas) Missing() *MissingGlyphs { return a.missing }

// Texture implements Atlas.
func (a *DynamicAtlas) Texture() uint32 {
	if a.tex == nil {
		return 0
	}
	return a.tex.textureID()
}

// Delete implements Atlas.
func (a *DynamicAtlas) Delete() {
	if a.tex != nil {
		a.tex.delete()
		a.tex = nil
	}
}
