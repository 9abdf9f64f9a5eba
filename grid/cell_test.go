package grid

import (
	"testing"
	"unsafe"

	"github.com/bloeys/gputerm/glyph"
	"github.com/stretchr/testify/require"
)

func TestCellDynamicSizeIsEightBytes(t *testing.T) {
	require.EqualValues(t, 8, unsafe.Sizeof(CellDynamic{}))
}

func TestCellDynamicRoundTripsGlyphIDAndColors(t *testing.T) {
	c := NewCellDynamic(glyph.ID(0x1234), 0x11FF8800, 0x00204060)
	require.Equal(t, glyph.ID(0x1234), c.GlyphID())
	require.Equal(t, uint32(0xFF8800), c.FgRGB())
	require.Equal(t, uint32(0x204060), c.BgRGB())
}

func TestIndexPositionRoundTrip(t *testing.T) {
	const cols = 80
	for _, tc := range []struct{ col, row int }{
		{0, 0}, {5, 2}, {79, 23}, {1, 0},
	} {
		idx := Index(cols, tc.col, tc.row)
		col, row := Position(cols, idx)
		require.Equal(t, tc.col, col)
		require.Equal(t, tc.row, row)
	}
}
