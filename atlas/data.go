package atlas

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/bloeys/gputerm/glyph"
)

// magic identifies the atlas binary format (spec.md section 6.1). The
// offline atlas generator (an external collaborator, out of scope here) is
// expected to emit exactly this header; we only implement the consumer/
// producer contract, not the generator itself.
var magic = [4]byte{'G', 'T', 'A', 'T'}

// FormatVersion1 is the only format version this package understands.
const FormatVersion1 uint16 = 1

const (
	maxGraphemeBytes = 16
	cellsPerSlice    = 32 // glyphs per texture layer, spec.md section 4.3
	atlasPadding     = 1  // pixels of padding per edge, spec.md section 4.3
)

// GlyphEntry is one row of the atlas's glyph table (spec.md section 6.1 §2).
type GlyphEntry struct {
	ID          glyph.ID
	Style       glyph.Style
	Symbol      string
	PixelCoords [2]int32
	IsEmoji     bool
}

// Data is the fully-parsed contents of an atlas binary blob: everything a
// StaticAtlas needs to serve Resolve/Symbol lookups and to upload its
// texture (spec.md section 4.2).
type Data struct {
	FontName                string
	FontSize                float32
	MaxHalfwidthBaseGlyphID uint16
	TextureDimensions       [3]int32 // w, h, layers
	PaddedCellSize          [2]int32 // w, h
	Underline               LineDecoration
	Strikethrough           LineDecoration
	Glyphs                  []GlyphEntry
	TextureData             []byte // w*h*layers*4 bytes, RGBA8 per pixel
}

// CellSize returns the logical (unpadded) cell size: spec.md section 4.4
// reports (padded_w-2, padded_h-2) so that the atlas's logical cell size
// excludes the 1px border each edge carries for texture-bleed protection.
func (d *Data) CellSize() (w, h int32) {
	return d.PaddedCellSize[0] - 2*atlasPadding, d.PaddedCellSize[1] - 2*atlasPadding
}

// TerminalSize computes how many (cols, rows) fit a viewport of the given
// pixel dimensions using this atlas's logical cell size. Supplemented from
// original_source's FontAtlasData::terminal_size (spec.md section 2, C9
// "Orchestrates atlas + buffers").
func (d *Data) TerminalSize(viewportW, viewportH int32) (cols, rows int32) {
	w, h := d.CellSize()
	return viewportW / w, viewportH / h
}

// Decode parses a binary atlas blob per spec.md section 6.1. Any field
// whose value implies out-of-range indexing or an impossible dimension
// yields a *DataError; the texture payload length is validated against
// w*h*layers*4.
func Decode(r io.Reader) (*Data, error) {
	br := &byteReader{r: r}

	var gotMagic [4]byte
	if err := br.read(gotMagic[:]); err != nil {
		return nil, newDataError("truncated header: %v", err)
	}
	if gotMagic != magic {
		return nil, newDataError("bad magic tag %q", gotMagic[:])
	}

	version, err := br.readU16()
	if err != nil {
		return nil, newDataError("truncated version: %v", err)
	}
	if version != FormatVersion1 {
		return nil, newDataError("unknown format version %d", version)
	}

	fontName, err := br.readString(0xFFFF)
	if err != nil {
		return nil, newDataError("font name: %v", err)
	}

	fontSizeBits, err := br.readU32()
	if err != nil {
		return nil, newDataError("font size: %v", err)
	}
	fontSize := math.Float32frombits(fontSizeBits)

	maxHalfwidth, err := br.readU16()
	if err != nil {
		return nil, newDataError("max_halfwidth_base_glyph_id: %v", err)
	}

	w, err := br.readI32()
	if err != nil {
		return nil, newDataError("texture width: %v", err)
	}
	h, err := br.readI32()
	if err != nil {
		return nil, newDataError("texture height: %v", err)
	}
	layers, err := br.readI32()
	if err != nil {
		return nil, newDataError("texture layers: %v", err)
	}
	if w <= 0 || h <= 0 || layers <= 0 {
		return nil, newDataError("implausible texture dimensions (%d,%d,%d)", w, h, layers)
	}
	// guard against overflow when computing w*h*layers*4 below.
	if int64(w)*int64(h)*int64(layers) > (1<<31)/4 {
		return nil, newDataError("texture dimensions too large (%d,%d,%d)", w, h, layers)
	}

	paddedW, err := br.readI32()
	if err != nil {
		return nil, newDataError("padded cell width: %v", err)
	}
	paddedH, err := br.readI32()
	if err != nil {
		return nil, newDataError("padded cell height: %v", err)
	}
	if paddedW <= 0 || paddedH <= 0 {
		return nil, newDataError("implausible padded cell size (%d,%d)", paddedW, paddedH)
	}

	underline, err := br.readLineDecoration()
	if err != nil {
		return nil, newDataError("underline: %v", err)
	}
	strikethrough, err := br.readLineDecoration()
	if err != nil {
		return nil, newDataError("strikethrough: %v", err)
	}

	glyphCount, err := br.readU32()
	if err != nil {
		return nil, newDataError("glyph count: %v", err)
	}

	glyphs := make([]GlyphEntry, 0, glyphCount)
	for i := uint32(0); i < glyphCount; i++ {
		id, err := br.readU16()
		if err != nil {
			return nil, newDataError("glyph[%d] id: %v", i, err)
		}
		styleOrdinal, err := br.readU8()
		if err != nil {
			return nil, newDataError("glyph[%d] style: %v", i, err)
		}
		style, ok := glyph.StyleFromOrdinal(styleOrdinal)
		if !ok {
			return nil, newDataError("glyph[%d] style ordinal %d out of range", i, styleOrdinal)
		}
		symbol, err := br.readString(maxGraphemeBytes)
		if err != nil {
			return nil, newDataError("glyph[%d] symbol: %v", i, err)
		}
		px, err := br.readI32()
		if err != nil {
			return nil, newDataError("glyph[%d] pixel_x: %v", i, err)
		}
		py, err := br.readI32()
		if err != nil {
			return nil, newDataError("glyph[%d] pixel_y: %v", i, err)
		}
		isEmojiByte, err := br.readU8()
		if err != nil {
			return nil, newDataError("glyph[%d] is_emoji: %v", i, err)
		}

		glyphs = append(glyphs, GlyphEntry{
			ID:          glyph.ID(id),
			Style:       style,
			Symbol:      symbol,
			PixelCoords: [2]int32{px, py},
			IsEmoji:     isEmojiByte != 0,
		})
	}

	wantLen := int64(w) * int64(h) * int64(layers) * 4
	texture := make([]byte, wantLen)
	if _, err := io.ReadFull(br.r, texture); err != nil {
		return nil, newDataError("texture payload: expected %d bytes: %v", wantLen, err)
	}

	return &Data{
		FontName:                fontName,
		FontSize:                fontSize,
		MaxHalfwidthBaseGlyphID: maxHalfwidth,
		TextureDimensions:       [3]int32{w, h, layers},
		PaddedCellSize:          [2]int32{paddedW, paddedH},
		Underline:               underline,
		Strikethrough:           strikethrough,
		Glyphs:                  glyphs,
		TextureData:             texture,
	}, nil
}

// Encode serializes d back into the binary format Decode understands.
// parse(serialize(a)) round-trips every observable field (spec.md section
// 8, "round-trip / idempotence laws").
func (d *Data) Encode(w io.Writer) error {
	bw := &byteWriter{w: w}

	bw.write(magic[:])
	bw.writeU16(FormatVersion1)
	if err := bw.writeString(d.FontName, 0xFFFF); err != nil {
		return err
	}
	bw.writeU32(math.Float32bits(d.FontSize))
	bw.writeU16(d.MaxHalfwidthBaseGlyphID)
	bw.writeI32(d.TextureDimensions[0])
	bw.writeI32(d.TextureDimensions[1])
	bw.writeI32(d.TextureDimensions[2])
	bw.writeI32(d.PaddedCellSize[0])
	bw.writeI32(d.PaddedCellSize[1])
	bw.writeLineDecoration(d.Underline)
	bw.writeLineDecoration(d.Strikethrough)
	bw.writeU32(uint32(len(d.Glyphs)))

	for i, g := range d.Glyphs {
		bw.writeU16(uint16(g.ID))
		bw.writeU8(uint8(g.Style))
		if err := bw.writeString(g.Symbol, maxGraphemeBytes); err != nil {
			return fmt.Errorf("glyph[%d]: %w", i, err)
		}
		bw.writeI32(g.PixelCoords[0])
		bw.writeI32(g.PixelCoords[1])
		if g.IsEmoji {
			bw.writeU8(1)
		} else {
			bw.writeU8(0)
		}
	}

	bw.write(d.TextureData)
	return bw.err
}

// byteReader/byteWriter are small little-endian helpers kept local to this
// file; the atlas wire format needs bit-exact control that no marshaling
// library in the pack provides for a bespoke binary layout (see DESIGN.md).

type byteReader struct {
	r   io.Reader
	err error
}

func (b *byteReader) read(buf []byte) error {
	if b.err != nil {
		return b.err
	}
	_, err := io.ReadFull(b.r, buf)
	if err != nil {
		b.err = err
	}
	return err
}

func (b *byteReader) readU8() (uint8, error) {
	var buf [1]byte
	if err := b.read(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (b *byteReader) readU16() (uint16, error) {
	var buf [2]byte
	if err := b.read(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

func (b *byteReader) readU32() (uint32, error) {
	var buf [4]byte
	if err := b.read(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (b *byteReader) readI32() (int32, error) {
	v, err := b.readU32()
	return int32(v), err
}

func (b *byteReader) readF32() (float32, error) {
	v, err := b.readU32()
	return math.Float32frombits(v), err
}

func (b *byteReader) readLineDecoration() (LineDecoration, error) {
	pos, err := b.readF32()
	if err != nil {
		return LineDecoration{}, err
	}
	thickness, err := b.readF32()
	if err != nil {
		return LineDecoration{}, err
	}
	return NewLineDecoration(pos, thickness), nil
}

// readString reads a u8-length-prefixed UTF-8 string when maxLen<=255, or a
// u16-length-prefixed one otherwise (used for the font name field, whose
// length cap is 0xFFFF per spec.md section 6.1 item 1).
func (b *byteReader) readString(maxLen int) (string, error) {
	var n int
	if maxLen <= 255 {
		v, err := b.readU8()
		if err != nil {
			return "", err
		}
		n = int(v)
	} else {
		v, err := b.readU16()
		if err != nil {
			return "", err
		}
		n = int(v)
	}
	if n > maxLen {
		return "", fmt.Errorf("string length %d exceeds max %d", n, maxLen)
	}
	buf := make([]byte, n)
	if err := b.read(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

type byteWriter struct {
	w   io.Writer
	err error
}

func (b *byteWriter) write(buf []byte) {
	if b.err != nil {
		return
	}
	_, b.err = b.w.Write(buf)
}

func (b *byteWriter) writeU8(v uint8) { b.write([]byte{v}) }

func (b *byteWriter) writeU16(v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	b.write(buf[:])
}

func (b *byteWriter) writeU32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	b.write(buf[:])
}

func (b *byteWriter) writeI32(v int32) { b.writeU32(uint32(v)) }

func (b *byteWriter) writeF32(v float32) { b.writeU32(math.Float32bits(v)) }

func (b *byteWriter) writeLineDecoration(d LineDecoration) {
	b.writeF32(d.Position)
	b.writeF32(d.Thickness)
}

func (b *byteWriter) writeString(s string, maxLen int) error {
	if len(s) > maxLen {
		return fmt.Errorf("string %q exceeds max length %d", s, maxLen)
	}
	if maxLen <= 255 {
		b.writeU8(uint8(len(s)))
	} else {
		b.writeU16(uint16(len(s)))
	}
	b.write([]byte(s))
	return nil
}

// EncodeToBytes is a convenience wrapper around Encode for tests and small
// in-memory round trips.
func (d *Data) EncodeToBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
