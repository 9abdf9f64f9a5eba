package atlas

import (
	"github.com/bloeys/gputerm/glyph"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	asciiSlotCount = 0x7E - 0x20 + 1 // 95 printable ASCII code points, spec.md section 4.5

	// normalIDSpace is the total id budget of the non-wide region (spec.md
	// section 4.5 caps normal glyph ids at 2047). asciiSlotCount of those
	// ids are claimed by the ASCII fast path below normalSlotBase, so the
	// LRU itself only manages the remainder.
	normalIDSpace   = 2048
	normalSlotCount = normalIDSpace - asciiSlotCount
	normalSlotBase  = SlotID(asciiSlotCount)

	// wideSlotCount counts double-width glyphs, not individual texture
	// slots: each occupies two consecutive slot ids (left + right half), so
	// the region spans 2*wideSlotCount slot ids (spec.md section 4.5).
	// wideSlotBase is the fixed id 2048, not normalSlotBase+normalSlotCount:
	// the normal region's id space (ASCII fast path plus its LRU) always
	// totals normalIDSpace regardless of how that budget is split.
	wideSlotCount = 1024
	wideSlotBase  = SlotID(normalIDSpace)
)

type cacheKey struct {
	symbol string
	style  glyph.Style
}

// GlyphCache assigns and evicts glyph slots for a dynamic atlas. ASCII in
// StyleNormal bypasses both LRUs with a deterministic slot (slot = rune -
// 0x20); everything else competes for one of two partitioned LRU regions,
// one for single-width glyphs and one for double-width (CJK/emoji) glyphs,
// grounded on beamterm-renderer's glyph_cache.rs partitioning scheme.
//
// Slot ids within a partition are managed by an explicit free list rather
// than left to the LRU's own automatic eviction, so that a forced eviction
// can hand its freed slot straight back to the entry that triggered it.
type GlyphCache struct {
	normal *lru.Cache[cacheKey, SlotID]
	wide   *lru.Cache[cacheKey, SlotID]

	reverse map[SlotID]cacheKey

	normalFree []SlotID
	wideFree   []SlotID
}

// NewGlyphCache builds an empty cache with the partition sizes spec.md
// section 4.5 mandates.
func NewGlyphCache() *GlyphCache {
	c := &GlyphCache{reverse: make(map[SlotID]cacheKey)}

	c.normal, _ = lru.New[cacheKey, SlotID](normalSlotCount)
	c.wide, _ = lru.New[cacheKey, SlotID](wideSlotCount)

	c.normalFree = make([]SlotID, normalSlotCount)
	for i := range c.normalFree {
		c.normalFree[i] = normalSlotBase + SlotID(i)
	}

	c.wideFree = make([]SlotID, wideSlotCount)
	for i := range c.wideFree {
		c.wideFree[i] = wideSlotBase + SlotID(i*2)
	}

	return c
}

// asciiFastPath returns the deterministic slot for an ASCII, StyleNormal,
// single-rune grapheme, bypassing both LRUs entirely.
func asciiFastPath(symbol string, style glyph.Style) (SlotID, bool) {
	if style != glyph.StyleNormal {
		return 0, false
	}
	r := []rune(symbol)
	if len(r) != 1 {
		return 0, false
	}
	if base, ok := glyph.ASCIIBase(r[0]); ok {
		return SlotID(base) - 0x20, true
	}
	return 0, false
}

// Eviction describes an LRU entry that was displaced to make room for a new
// insertion, so the caller can drop the corresponding symbol-to-id mapping
// it keeps elsewhere (the atlas's own reverse lookup map).
type Eviction struct {
	Symbol string
	Style  glyph.Style
	Slot   SlotID
}

// GetOrInsert returns the slot assigned to (symbol, style). If the pair is
// new and its partition is full, the partition's least-recently-used entry
// is evicted and reported via the second return value.
//
// Reinserting an existing key returns the same slot without evicting
// anything: a cache hit still refreshes the LRU recency order but never
// displaces another entry.
func (c *GlyphCache) GetOrInsert(symbol string, style glyph.Style, wide bool) (slot SlotID, evicted *Eviction) {
	if s, ok := asciiFastPath(symbol, style); ok {
		return s, nil
	}

	key := cacheKey{symbol: symbol, style: style}
	cache, free := c.normal, &c.normalFree
	if wide {
		cache, free = c.wide, &c.wideFree
	}

	if s, ok := cache.Get(key); ok {
		return s, nil
	}

	if len(*free) == 0 {
		evictedKey, evictedSlot, ok := cache.RemoveOldest()
		if !ok {
			panic("gputerm/atlas: glyph cache partition full but has no oldest entry")
		}
		delete(c.reverse, evictedSlot)
		*free = append(*free, evictedSlot)
		evicted = &Eviction{Symbol: evictedKey.symbol, Style: evictedKey.style, Slot: evictedSlot}
	}

	s := (*free)[len(*free)-1]
	*free = (*free)[:len(*free)-1]

	c.reverse[s] = key
	cache.Add(key, s)
	return s, evicted
}

// Symbol reverse-looks-up the (symbol, style) pair owning slot, if any.
func (c *GlyphCache) Symbol(slot SlotID) (string, glyph.Style, bool) {
	key, ok := c.reverse[slot]
	return key.symbol, key.style, ok
}

// Len returns the total number of occupied non-ASCII slots across both
// partitions.
func (c *GlyphCache) Len() int {
	return c.normal.Len() + c.wide.Len()
}
