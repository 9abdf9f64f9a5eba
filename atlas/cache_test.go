package atlas

import (
	"fmt"
	"testing"

	"github.com/bloeys/gputerm/glyph"
	"github.com/stretchr/testify/require"
)

func TestCacheASCIIFastPath(t *testing.T) {
	c := NewGlyphCache()

	slot, evicted := c.GetOrInsert("A", glyph.StyleNormal, false)
	require.Nil(t, evicted)
	require.Equal(t, SlotID('A'-0x20), slot)
	require.Equal(t, 0, c.Len(), "ASCII fast path must not touch either LRU partition")
}

func TestCacheNormalInsertGet(t *testing.T) {
	c := NewGlyphCache()

	slot, evicted := c.GetOrInsert("λ", glyph.StyleNormal, false)
	require.Nil(t, evicted)
	require.GreaterOrEqual(t, slot, normalSlotBase)

	again, evicted := c.GetOrInsert("λ", glyph.StyleNormal, false)
	require.Nil(t, evicted)
	require.Equal(t, slot, again)
}

func TestCacheWideInsertGet(t *testing.T) {
	c := NewGlyphCache()

	slot, evicted := c.GetOrInsert("文", glyph.StyleNormal, true)
	require.Nil(t, evicted)
	require.GreaterOrEqual(t, slot, wideSlotBase)
	require.Zero(t, (slot-wideSlotBase)%2, "wide slots must be even-aligned")
}

func TestCacheWideCJK(t *testing.T) {
	c := NewGlyphCache()

	a, _ := c.GetOrInsert("漢", glyph.StyleNormal, true)
	b, _ := c.GetOrInsert("字", glyph.StyleNormal, true)
	require.NotEqual(t, a, b)
}

func TestCacheMixedInsert(t *testing.T) {
	c := NewGlyphCache()

	n, _ := c.GetOrInsert("λ", glyph.StyleNormal, false)
	w, _ := c.GetOrInsert("文", glyph.StyleNormal, true)
	require.NotEqual(t, n, w)
	require.Equal(t, 2, c.Len())
}

func TestCacheStyleDifferentiation(t *testing.T) {
	c := NewGlyphCache()

	normal, _ := c.GetOrInsert("λ", glyph.StyleNormal, false)
	bold, _ := c.GetOrInsert("λ", glyph.StyleBold, false)
	require.NotEqual(t, normal, bold)
}

func TestCacheReinsertExistingReturnsNoEviction(t *testing.T) {
	c := NewGlyphCache()

	for i := 0; i < normalSlotCount; i++ {
		_, evicted := c.GetOrInsert(fmt.Sprintf("glyph-%d", i), glyph.StyleNormal, false)
		require.Nil(t, evicted)
	}

	first, _ := c.GetOrInsert("glyph-0", glyph.StyleNormal, false)
	again, evicted := c.GetOrInsert("glyph-0", glyph.StyleNormal, false)
	require.Nil(t, evicted)
	require.Equal(t, first, again)
}

func TestCacheWideSlotIDsStayBelowEmojiFlagRange(t *testing.T) {
	c := NewGlyphCache()

	var max SlotID
	for i := 0; i < wideSlotCount; i++ {
		slot, evicted := c.GetOrInsert(fmt.Sprintf("wide-%d", i), glyph.StyleNormal, true)
		require.Nil(t, evicted)
		if slot > max {
			max = slot
		}
	}

	// the right half of the highest wide glyph must still land below 4096
	// (glyph.EmojiFlag), or glyph.Build would spuriously tag a CJK glyph as
	// an emoji.
	require.Less(t, max+1, SlotID(0x1000))
}

func TestCacheEvictsLRUWhenFull(t *testing.T) {
	c := NewGlyphCache()

	for i := 0; i < normalSlotCount; i++ {
		_, evicted := c.GetOrInsert(fmt.Sprintf("glyph-%d", i), glyph.StyleNormal, false)
		require.Nil(t, evicted)
	}

	_, evicted := c.GetOrInsert("overflow", glyph.StyleNormal, false)
	require.NotNil(t, evicted)
	require.Equal(t, "glyph-0", evicted.Symbol)

	// the evicted slot id should now resolve to the new overflow entry, not
	// the stale "glyph-0" mapping the caller already removed.
	sym, _, ok := c.Symbol(evicted.Slot)
	require.True(t, ok)
	require.Equal(t, "overflow", sym)
}
