package grid

import (
	"os"
	"testing"

	"github.com/bloeys/gputerm/atlas"
	"github.com/bloeys/gputerm/glyph"
	"github.com/stretchr/testify/require"
)

// TestMain swaps the package's GPU-buffer factory for a fake that records
// uploads in plain slices instead of issuing real GL calls, so this
// package's tests can exercise Grid without a live GL context (the same
// reason atlas.NewStaticAtlasFromData is split from its own UploadTexture).
func TestMain(m *testing.M) {
	newBuffers = newFakeBufferSet
	os.Exit(m.Run())
}

// fakeBufferSet is a bufferSet that just remembers what it was told to
// upload.
type fakeBufferSet struct {
	statics []CellStatic
	dynamic []CellDynamic
}

func newFakeBufferSet(capacity int) bufferSet {
	return &fakeBufferSet{dynamic: make([]CellDynamic, capacity)}
}

func (f *fakeBufferSet) uploadStatic(cells []CellStatic) {
	f.statics = append([]CellStatic(nil), cells...)
}

func (f *fakeBufferSet) uploadDynamicRange(start int, cells []CellDynamic) {
	copy(f.dynamic[start:], cells)
}

func (f *fakeBufferSet) draw(instanceCount int) {}
func (f *fakeBufferSet) delete()                {}

// testGlyph is one entry a testAtlas resolves.
type testGlyph struct {
	symbol string
	id     glyph.ID
	wide   bool
	emoji  bool
}

// testAtlas is a minimal atlas.Atlas backed by a fixed symbol table, with
// no rasterizer or GL texture behind it, so grid tests can control exactly
// which graphemes resolve without depending on atlas/dynamic.go or a font
// file.
type testAtlas struct {
	bySymbol map[string]testGlyph
	byID     map[glyph.ID]testGlyph
	missing  *atlas.MissingGlyphs
	cellW    int32
	cellH    int32
}

func newTestAtlas(cellW, cellH int32, glyphs ...testGlyph) *testAtlas {
	a := &testAtlas{
		bySymbol: make(map[string]testGlyph, len(glyphs)),
		byID:     make(map[glyph.ID]testGlyph, len(glyphs)),
		missing:  atlas.NewMissingGlyphs(),
		cellW:    cellW,
		cellH:    cellH,
	}
	for _, g := range glyphs {
		a.bySymbol[g.symbol] = g
		a.byID[g.id] = g
	}
	return a
}

func (a *testAtlas) Resolve(grapheme string, style glyph.Style, decoration glyph.ID) (atlas.GlyphSlot, bool) {
	g, ok := a.bySymbol[grapheme]
	if !ok {
		a.missing.Record(grapheme)
		return atlas.GlyphSlot{}, false
	}
	switch {
	case g.emoji:
		return atlas.Emoji(atlas.SlotID(g.id)), true
	case g.wide:
		return atlas.Wide(atlas.SlotID(g.id)), true
	default:
		return atlas.Normal(atlas.SlotID(g.id)), true
	}
}

func (a *testAtlas) Symbol(id glyph.ID) (string, bool) {
	g, ok := a.byID[id&a.BaseLookupMask()]
	return g.symbol, ok
}

func (a *testAtlas) BaseLookupMask() glyph.ID { return glyph.EmojiBaseMask }

func (a *testAtlas) CellSize() (w, h int32)        { return a.cellW, a.cellH }
func (a *testAtlas) TextureCellSize() (w, h int32) { return a.cellW, a.cellH }
func (a *testAtlas) Underline() atlas.LineDecoration { return atlas.LineDecoration{} }
func (a *testAtlas) Strikethrough() atlas.LineDecoration {
	return atlas.LineDecoration{}
}
func (a *testAtlas) Missing() *atlas.MissingGlyphs { return a.missing }
func (a *testAtlas) Texture() uint32               { return 0 }
func (a *testAtlas) Delete()                       {}

// newTestGrid builds a Grid without going through New, which would compile
// and link a real shader program against a GL context this test binary
// doesn't have. FlushCells/UpdateCells*/ReplaceAtlas never touch g.shader,
// only g.buffers (faked via TestMain's newBuffers override).
func newTestGrid(cols, rows int, a atlas.Atlas) *Grid {
	g := &Grid{
		atlas:     a,
		selection: NewSelectionTracker(),
		bgAlpha:   1.0,
	}
	g.Resize(cols, rows)
	return g
}

func TestUpdateCellsSingleCellWrite(t *testing.T) {
	a := newTestAtlas(8, 16, testGlyph{symbol: "A", id: 0x0041})
	g := newTestGrid(2, 2, a)

	g.UpdateCells(Index(g.Cols(), 0, 0), []string{"A"}, glyph.StyleNormal, 0xFFFFFF, 0x000000)
	require.NoError(t, g.FlushCells())

	require.Equal(t, glyph.ID(0x0041), g.dynamics[0].GlyphID())
	require.Equal(t, uint32(0xFFFFFF), g.dynamics[0].FgRGB())
	require.Equal(t, uint32(0x000000), g.dynamics[0].BgRGB())

	for i := 1; i < len(g.dynamics); i++ {
		require.Zero(t, g.dynamics[i].GlyphID(), "untouched cell %d should keep its zero-value glyph id", i)
	}
}

func TestUpdateCellsEmojiPairSharesColorsAndConsecutiveIDs(t *testing.T) {
	rocketID := glyph.EmojiFlag | 0x0002
	a := newTestAtlas(8, 16, testGlyph{symbol: "\U0001F680", id: rocketID, wide: true, emoji: true})
	g := newTestGrid(4, 1, a)

	g.UpdateCells(Index(g.Cols(), 1, 0), []string{"\U0001F680"}, glyph.StyleNormal, 0xFF0000, 0x00FF00)
	require.NoError(t, g.FlushCells())

	left := g.dynamics[1].GlyphID()
	right := g.dynamics[2].GlyphID()

	require.True(t, left.IsEmoji())
	require.Zero(t, uint16(left)%2, "emoji glyph id must be even")
	require.Equal(t, left+1, right)

	require.Equal(t, uint32(0xFF0000), g.dynamics[1].FgRGB())
	require.Equal(t, uint32(0x00FF00), g.dynamics[1].BgRGB())
	require.Equal(t, uint32(0xFF0000), g.dynamics[2].FgRGB())
	require.Equal(t, uint32(0x00FF00), g.dynamics[2].BgRGB())
}

func TestFlushCellsInvertsSelectionForUploadAndRestoresCPUState(t *testing.T) {
	a := newTestAtlas(8, 16, testGlyph{symbol: "A", id: 1})
	g := newTestGrid(3, 1, a)

	g.UpdateCells(0, []string{"A", "A", "A"}, glyph.StyleNormal, 0x111111, 0x222222)
	require.NoError(t, g.FlushCells())

	g.Selection().Set(SelectionLinear, Point{Col: 0, Row: 0})
	g.Selection().UpdateEnd(Point{Col: 2, Row: 0})

	// Touch every cell again before this flush; the selected cells are also
	// marked dirty by the inversion itself, so the upload covers them
	// either way.
	g.UpdateCells(0, []string{"A", "A", "A"}, glyph.StyleNormal, 0x111111, 0x222222)
	require.NoError(t, g.FlushCells())

	for i := 0; i < 3; i++ {
		require.Equal(t, uint32(0x111111), g.dynamics[i].FgRGB(), "CPU-side fg must be unchanged after FlushCells")
		require.Equal(t, uint32(0x222222), g.dynamics[i].BgRGB(), "CPU-side bg must be unchanged after FlushCells")
	}

	fake := g.buffers.(*fakeBufferSet)
	for i := 0; i < 3; i++ {
		require.Equal(t, uint32(0x222222), fake.dynamic[i].FgRGB(), "uploaded fg must be inverted for a selected cell")
		require.Equal(t, uint32(0x111111), fake.dynamic[i].BgRGB(), "uploaded bg must be inverted for a selected cell")
	}
}

func TestFlushCellsClearsStaleSelection(t *testing.T) {
	a := newTestAtlas(8, 16, testGlyph{symbol: "A", id: 1}, testGlyph{symbol: "B", id: 2})
	g := newTestGrid(3, 1, a)

	g.UpdateCells(0, []string{"A", "A", "A"}, glyph.StyleNormal, 0x111111, 0x222222)
	require.NoError(t, g.FlushCells())

	g.Selection().Set(SelectionLinear, Point{Col: 0, Row: 0})
	g.Selection().UpdateEnd(Point{Col: 2, Row: 0})

	require.NoError(t, g.FlushCells())
	_, active := g.Selection().Active()
	require.True(t, active, "selection should survive a flush where nothing under it changed")

	g.UpdateCells(1, []string{"B"}, glyph.StyleNormal, 0x111111, 0x222222)
	require.NoError(t, g.FlushCells())

	_, active = g.Selection().Active()
	require.False(t, active, "selection must be cleared once its content changes underneath it")

	require.NoError(t, g.FlushCells())
	_, active = g.Selection().Active()
	require.False(t, active)
}

func TestClearSelectionReuploadsTrueColorsOverInvertedGPUState(t *testing.T) {
	a := newTestAtlas(8, 16, testGlyph{symbol: "A", id: 1})
	g := newTestGrid(3, 1, a)

	g.UpdateCells(0, []string{"A", "A", "A"}, glyph.StyleNormal, 0x111111, 0x222222)
	require.NoError(t, g.FlushCells())

	g.Selection().Set(SelectionLinear, Point{Col: 0, Row: 0})
	g.Selection().UpdateEnd(Point{Col: 2, Row: 0})
	require.NoError(t, g.FlushCells())

	fake := g.buffers.(*fakeBufferSet)
	for i := 0; i < 3; i++ {
		require.Equal(t, uint32(0x222222), fake.dynamic[i].FgRGB(), "selected cell should be inverted in the GPU buffer after this flush")
	}

	g.ClearSelection()
	require.NoError(t, g.FlushCells())

	for i := 0; i < 3; i++ {
		require.Equal(t, uint32(0x111111), fake.dynamic[i].FgRGB(), "clearing the selection must re-upload true colors over the inverted GPU state")
		require.Equal(t, uint32(0x222222), fake.dynamic[i].BgRGB())
	}
}

func TestReplaceAtlasTranslatesCellsAndFallsBackToSpace(t *testing.T) {
	oldAtlas := newTestAtlas(8, 16,
		testGlyph{symbol: "h", id: 1},
		testGlyph{symbol: "e", id: 2},
		testGlyph{symbol: "l", id: 3},
		testGlyph{symbol: "o", id: 4},
	)
	g := newTestGrid(5, 1, oldAtlas)
	g.UpdateCells(0, []string{"h", "e", "l", "l", "o"}, glyph.StyleNormal, 0xFFFFFF, 0x000000)
	require.NoError(t, g.FlushCells())

	newAtlas := newTestAtlas(10, 20,
		testGlyph{symbol: " ", id: 100},
		testGlyph{symbol: "h", id: 10},
		testGlyph{symbol: "l", id: 11},
		testGlyph{symbol: "o", id: 12},
		// "e" is deliberately missing from the new atlas.
	)

	g.ReplaceAtlas(newAtlas)

	want := []glyph.ID{10, 100, 11, 11, 12}
	for i, id := range want {
		require.Equal(t, id, g.dynamics[i].GlyphID(), "cell %d", i)
	}

	_, active := g.Selection().Active()
	require.False(t, active, "ReplaceAtlas must clear the active selection")
}
