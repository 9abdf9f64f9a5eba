package atlas

import (
	"bytes"
	"testing"

	"github.com/bloeys/gputerm/glyph"
	"github.com/stretchr/testify/require"
)

func sampleData() *Data {
	return &Data{
		FontName:                "JetBrains Mono",
		FontSize:                14.0,
		MaxHalfwidthBaseGlyphID: 400,
		TextureDimensions:       [3]int32{16, 64, 2},
		PaddedCellSize:          [2]int32{10, 18},
		Underline:               NewLineDecoration(0.9, 0.08),
		Strikethrough:           NewLineDecoration(0.5, 0.08),
		Glyphs: []GlyphEntry{
			{ID: glyph.ID('A'), Style: glyph.StyleNormal, Symbol: "A", PixelCoords: [2]int32{0, 0}, IsEmoji: false},
			{ID: glyph.ID(500), Style: glyph.StyleBold, Symbol: "λ", PixelCoords: [2]int32{0, 18}, IsEmoji: false},
			{ID: glyph.ID(900) | glyph.EmojiFlag, Style: glyph.StyleNormal, Symbol: "😀", PixelCoords: [2]int32{10, 0}, IsEmoji: true},
		},
		TextureData: bytes.Repeat([]byte{0xAB}, 16*64*2*4),
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := sampleData()
	raw, err := in.EncodeToBytes()
	require.NoError(t, err)

	out, err := Decode(bytes.NewReader(raw))
	require.NoError(t, err)

	require.Equal(t, in.FontName, out.FontName)
	require.Equal(t, in.FontSize, out.FontSize)
	require.Equal(t, in.MaxHalfwidthBaseGlyphID, out.MaxHalfwidthBaseGlyphID)
	require.Equal(t, in.TextureDimensions, out.TextureDimensions)
	require.Equal(t, in.PaddedCellSize, out.PaddedCellSize)
	require.Equal(t, in.Underline, out.Underline)
	require.Equal(t, in.Strikethrough, out.Strikethrough)
	require.Equal(t, in.Glyphs, out.Glyphs)
	require.Equal(t, in.TextureData, out.TextureData)
}

func TestCellSizeSubtractsPadding(t *testing.T) {
	d := sampleData()
	w, h := d.CellSize()
	require.Equal(t, int32(8), w)
	require.Equal(t, int32(16), h)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	raw, err := sampleData().EncodeToBytes()
	require.NoError(t, err)
	raw[0] = 'X'

	_, err = Decode(bytes.NewReader(raw))
	require.Error(t, err)
	var dataErr *DataError
	require.ErrorAs(t, err, &dataErr)
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	raw, err := sampleData().EncodeToBytes()
	require.NoError(t, err)
	raw[4] = 0xFF
	raw[5] = 0xFF

	_, err = Decode(bytes.NewReader(raw))
	require.Error(t, err)
}

func TestDecodeRejectsTruncatedTexturePayload(t *testing.T) {
	raw, err := sampleData().EncodeToBytes()
	require.NoError(t, err)

	_, err = Decode(bytes.NewReader(raw[:len(raw)-10]))
	require.Error(t, err)
}

func TestDecodeRejectsOutOfRangeStyleOrdinal(t *testing.T) {
	d := sampleData()
	raw, err := d.EncodeToBytes()
	require.NoError(t, err)

	// Locate and corrupt the first glyph table entry's style-ordinal byte:
	// magic(4) + version(2) + fontname(2+len) + fontsize(4) + maxhalfwidth(2)
	// + texdims(12) + paddedcell(8) + underline(8) + strikethrough(8) +
	// glyphcount(4) + id(2) -> style ordinal byte follows.
	offset := 4 + 2 + 2 + len(d.FontName) + 4 + 2 + 12 + 8 + 8 + 8 + 4 + 2
	raw[offset] = 0xFF

	_, err = Decode(bytes.NewReader(raw))
	require.Error(t, err)
}
