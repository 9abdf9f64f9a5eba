package atlas

import (
	"testing"

	"github.com/bloeys/gputerm/glyph"
	"github.com/bloeys/gputerm/ring"
	"github.com/stretchr/testify/require"
)

// fakeRasterizer is a Rasterizer that never touches a font file or a real
// font.Face, so dynamic_test.go can exercise DynamicAtlas without GL or
// disk access. Rescale resizes the cell box in direct proportion to the
// requested ratio off an 8x16 baseline.
type fakeRasterizer struct {
	cellW, cellH int32
}

func (r *fakeRasterizer) Rasterize(batch []GlyphRequest) ([]RasterizedGlyph, error) {
	out := make([]RasterizedGlyph, len(batch))
	for i, req := range batch {
		out[i] = RasterizedGlyph{Request: req, Pixels: make([]byte, int(r.cellW)*int(r.cellH)*4)}
	}
	return out, nil
}

func (r *fakeRasterizer) CellSize() (w, h int32) { return r.cellW, r.cellH }
func (r *fakeRasterizer) MaxBatchSize() int       { return 4096 }

func (r *fakeRasterizer) Rescale(ratio float64) error {
	r.cellW = int32(float64(8) * ratio)
	r.cellH = int32(float64(16) * ratio)
	return nil
}

// fakeTextureBackend is a textureBackend that records nothing and touches
// no GL state.
type fakeTextureBackend struct{}

func (fakeTextureBackend) uploadSlot(id SlotID, rgba []byte) {}
func (fakeTextureBackend) delete()                           {}
func (fakeTextureBackend) textureID() uint32                 { return 1 }

// newDynamicAtlasForTest builds a DynamicAtlas around fakeRasterizer/
// fakeTextureBackend instead of a live GL context and font file, which
// unit tests don't have, so this exercises the real UpdatePixelRatio path
// (rasterizer rescale, texture reallocation, ASCII re-seed) without
// touching either.
func newDynamicAtlasForTest() *DynamicAtlas {
	return &DynamicAtlas{
		cache:      NewGlyphCache(),
		rasterizer: &fakeRasterizer{cellW: 8, cellH: 16},
		tex:        fakeTextureBackend{},
		cellW:      8,
		cellH:      16,
		missing:    NewMissingGlyphs(),
		pending:    ring.NewBuffer[GlyphRequest](16),
		pixelRatio: 1.0,
	}
}

func TestDynamicAtlasUpdatePixelRatioNoopBelowEpsilon(t *testing.T) {
	a := newDynamicAtlasForTest()
	before := a.cache

	require.NoError(t, a.UpdatePixelRatio(1.0000000001))
	require.Same(t, before, a.cache, "sub-epsilon ratio change must not reset the cache")
}

func TestDynamicAtlasUpdatePixelRatioResetsCache(t *testing.T) {
	newTextureBackend = func(cellW, cellH, layers int32) (textureBackend, error) {
		return fakeTextureBackend{}, nil
	}
	defer func() { newTextureBackend = func(cellW, cellH, layers int32) (textureBackend, error) {
		return newArrayTexture(cellW, cellH, layers)
	} }()

	a := newDynamicAtlasForTest()
	before := a.cache

	require.NoError(t, a.UpdatePixelRatio(2.0))
	require.NotSame(t, before, a.cache)
	require.Equal(t, 2.0, a.pixelRatio)
	require.Equal(t, int32(16), a.cellW, "cell size must be rescaled")
	require.Equal(t, int32(32), a.cellH)
}

func TestDynamicAtlasBaseLookupMaskIsFlat12Bit(t *testing.T) {
	a := newDynamicAtlasForTest()
	require.Equal(t, glyph.DynamicBaseMask, a.BaseLookupMask())
}

func TestDynamicAtlasCellSize(t *testing.T) {
	a := newDynamicAtlasForTest()
	w, h := a.CellSize()
	require.Equal(t, int32(8), w)
	require.Equal(t, int32(16), h)
}
