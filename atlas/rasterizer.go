package atlas

import (
	"image"
	"image/draw"
	"math"
	"os"

	"github.com/bloeys/gputerm/glyph"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// GlyphRequest describes one glyph a dynamic atlas needs rasterized.
type GlyphRequest struct {
	Symbol string
	Style  glyph.Style
}

// RasterizedGlyph is a rasterizer's output for one request: an RGBA buffer
// exactly CellSize() pixels, ready for uploadSlot.
type RasterizedGlyph struct {
	Request GlyphRequest
	Pixels  []byte // tightly packed RGBA8, width*height*4 bytes
}

// Rasterizer renders glyphs on demand for the dynamic atlas. Batched rather
// than one-at-a-time so a backend that benefits from shared setup (a single
// font.Drawer, a single canvas context) only pays that cost once per flush
// (spec.md section 4.6).
type Rasterizer interface {
	Rasterize(batch []GlyphRequest) ([]RasterizedGlyph, error)
	CellSize() (w, h int32)
	MaxBatchSize() int

	// Rescale rebuilds the rasterizer for a new device pixel ratio relative
	// to its 1.0 baseline, recomputing cell size and glyph metrics so
	// glyphs rasterized afterward come out at the right physical size
	// (spec.md section 4.6).
	Rescale(pixelRatio float64) error
}

// FreetypeRasterizer is the default Rasterizer, adapted from the teacher's
// monospace font-atlas builder: one truetype.Font and one font.Face per
// style, each glyph drawn into its own tightly-cropped RGBA cell.
type FreetypeRasterizer struct {
	font *truetype.Font

	faces map[glyph.Style]font.Face

	cellW, cellH int32
	ascent       fixed.Int26_6

	maxBatch int

	// baseFontSize/baseCellW/baseCellH/dpi/hinting are the pixelRatio=1.0
	// values Rescale scales from, so repeated rescales never compound.
	baseFontSize float64
	baseCellW    int32
	baseCellH    int32
	dpi          float64
	hinting      font.Hinting
}

// FreetypeOptions configures NewFreetypeRasterizer.
type FreetypeOptions struct {
	FontFile  string
	FontSize  float64
	CellW     int32
	CellH     int32
	MaxBatch  int
	DPI       float64
	Hinting   font.Hinting
}

// NewFreetypeRasterizer loads fontFile and builds one font.Face per style,
// all four from the same font with the same options (matching the
// teacher's single-face approach in font_atlas.go): bold and italic
// requests render with the regular outlines, and no bold or italic
// variant is synthesized.
func NewFreetypeRasterizer(opts FreetypeOptions) (*FreetypeRasterizer, error) {
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = 256
	}
	if opts.DPI == 0 {
		opts.DPI = 72
	}

	raw, err := os.ReadFile(opts.FontFile)
	if err != nil {
		return nil, newRasterizerError("read font file %q: %v", opts.FontFile, err)
	}
	f, err := truetype.Parse(raw)
	if err != nil {
		return nil, newRasterizerError("parse font %q: %v", opts.FontFile, err)
	}

	faceFor := func() font.Face {
		return truetype.NewFace(f, &truetype.Options{
			Size:    opts.FontSize,
			DPI:     opts.DPI,
			Hinting: opts.Hinting,
		})
	}

	faces := map[glyph.Style]font.Face{
		glyph.StyleNormal:     faceFor(),
		glyph.StyleBold:       faceFor(),
		glyph.StyleItalic:     faceFor(),
		glyph.StyleBoldItalic: faceFor(),
	}

	r := &FreetypeRasterizer{
		font:         f,
		faces:        faces,
		cellW:        opts.CellW,
		cellH:        opts.CellH,
		ascent:       fixed.I(int(opts.CellH)) * 3 / 4,
		maxBatch:     opts.MaxBatch,
		baseFontSize: opts.FontSize,
		baseCellW:    opts.CellW,
		baseCellH:    opts.CellH,
		dpi:          opts.DPI,
		hinting:      opts.Hinting,
	}
	return r, nil
}

// CellSize implements Rasterizer.
func (r *FreetypeRasterizer) CellSize() (w, h int32) { return r.cellW, r.cellH }

// MaxBatchSize implements Rasterizer.
func (r *FreetypeRasterizer) MaxBatchSize() int { return r.maxBatch }

// Rescale implements Rasterizer by rebuilding every style's font.Face at
// pixelRatio*baseFontSize and recomputing the cell box and ascent from the
// same ratio, matching the teacher's single-face-per-style construction in
// NewFreetypeRasterizer (spec.md section 4.6).
func (r *FreetypeRasterizer) Rescale(pixelRatio float64) error {
	size := r.baseFontSize * pixelRatio
	cellW := int32(math.Round(float64(r.baseCellW) * pixelRatio))
	cellH := int32(math.Round(float64(r.baseCellH) * pixelRatio))

	faceFor := func() font.Face {
		return truetype.NewFace(r.font, &truetype.Options{
			Size:    size,
			DPI:     r.dpi,
			Hinting: r.hinting,
		})
	}

	r.faces = map[glyph.Style]font.Face{
		glyph.StyleNormal:     faceFor(),
		glyph.StyleBold:       faceFor(),
		glyph.StyleItalic:     faceFor(),
		glyph.StyleBoldItalic: faceFor(),
	}
	r.cellW, r.cellH = cellW, cellH
	r.ascent = fixed.I(int(cellH)) * 3 / 4
	return nil
}

// Rasterize implements Rasterizer by drawing each requested grapheme into
// its own cellW x cellH RGBA image, matching the letter-boxing approach of
// the teacher's atlas builder (glyph bearing/descent applied, then cropped
// to the cell box rather than laid out on a shared strip).
func (r *FreetypeRasterizer) Rasterize(batch []GlyphRequest) ([]RasterizedGlyph, error) {
	if len(batch) > r.maxBatch {
		return nil, newRasterizerError("batch of %d exceeds max batch size %d", len(batch), r.maxBatch)
	}

	out := make([]RasterizedGlyph, 0, len(batch))
	for _, req := range batch {
		face, ok := r.faces[req.Style]
		if !ok {
			face = r.faces[glyph.StyleNormal]
		}

		runes := []rune(req.Symbol)
		if len(runes) == 0 {
			return nil, newRasterizerError("empty grapheme requested")
		}

		img := image.NewRGBA(image.Rect(0, 0, int(r.cellW), int(r.cellH)))
		drawer := &font.Drawer{
			Dst:  img,
			Src:  image.White,
			Face: face,
			Dot:  fixed.P(0, r.ascent.Ceil()),
		}

		for _, ru := range runes {
			imgRect, mask, maskp, advance, ok := face.Glyph(drawer.Dot, ru)
			if !ok {
				continue
			}
			draw.DrawMask(drawer.Dst, imgRect, drawer.Src, image.Point{}, mask, maskp, draw.Over)
			drawer.Dot.X += advance
		}

		out = append(out, RasterizedGlyph{Request: req, Pixels: img.Pix})
	}

	return out, nil
}
