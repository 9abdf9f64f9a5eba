package grid

import (
	"fmt"

	"github.com/bloeys/gputerm/atlas"
	"github.com/bloeys/gputerm/glyph"
	"github.com/bloeys/gputerm/internal/glog"
)

// Grid orchestrates the atlas, instance buffers and shader program into a
// renderable terminal cell surface (spec.md section 5). It owns the
// authoritative CPU-side cell arrays and only pushes the cells that
// actually changed to the GPU each frame.
type Grid struct {
	cols, rows int

	atlas atlas.Atlas

	statics  []CellStatic
	dynamics []CellDynamic

	dirtyFrom, dirtyTo int // half-open [from,to) range of dynamics touched since last FlushCells; dirtyTo==0 means clean

	buffers bufferSet
	shader  *shaderProgram

	selection *SelectionTracker

	bgAlpha float32
}

// newBuffers constructs the GPU buffer set for a grid of the given cell
// capacity. Overridden in grid_test.go with a fake that records uploads
// without touching a live GL context.
var newBuffers = func(capacity int) bufferSet { return newInstanceBuffers(capacity) }

// New creates a Grid sized cols x rows, backed by the given atlas.
func New(cols, rows int, a atlas.Atlas) (*Grid, error) {
	shader, err := newShaderProgram()
	if err != nil {
		return nil, err
	}

	g := &Grid{
		atlas:     a,
		shader:    shader,
		selection: NewSelectionTracker(),
		bgAlpha:   1.0,
	}
	g.Resize(cols, rows)
	return g, nil
}

// Resize reallocates the cell arrays and GPU buffers for a new grid size,
// uploading fresh CellStatic positions. Existing dynamic content beyond
// the new bounds is discarded; content within the overlapping region is
// preserved (spec.md section 5.3).
func (g *Grid) Resize(cols, rows int) {
	if cols <= 0 || rows <= 0 {
		panic("gputerm/grid: Resize requires positive cols and rows")
	}

	newCount := cols * rows
	newStatics := make([]CellStatic, newCount)
	newDynamics := make([]CellDynamic, newCount)

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			idx := Index(cols, col, row)
			newStatics[idx] = CellStatic{Col: float32(col), Row: float32(row)}
			if g.cols > 0 && col < g.cols && row < g.rows {
				newDynamics[idx] = g.dynamics[Index(g.cols, col, row)]
			}
		}
	}

	g.cols, g.rows = cols, rows
	g.statics = newStatics
	g.dynamics = newDynamics
	g.markAllDirty()

	if g.buffers != nil {
		g.buffers.delete()
	}
	g.buffers = newBuffers(newCount)
	g.buffers.uploadStatic(g.statics)
}

func (g *Grid) markAllDirty() {
	g.dirtyFrom, g.dirtyTo = 0, len(g.dynamics)
}

func (g *Grid) markDirty(from, to int) {
	if g.dirtyTo == 0 {
		g.dirtyFrom, g.dirtyTo = from, to
		return
	}
	if from < g.dirtyFrom {
		g.dirtyFrom = from
	}
	if to > g.dirtyTo {
		g.dirtyTo = to
	}
}

// UpdateCells replaces the text content of the grid starting at flat index
// start, one grapheme per cell. A double-width glyph consumes two cells:
// the right half inherits the left half's fg/bg colors, the convention
// applied uniformly by every update entry point in this package.
func (g *Grid) UpdateCells(start int, graphemes []string, style glyph.Style, fg, bg uint32) {
	g.UpdateCellsByIndex(start, graphemes, style, fg, bg)
}

// UpdateCellsByIndex is UpdateCells under its full name; UpdateCells is
// kept as the common-path alias.
func (g *Grid) UpdateCellsByIndex(start int, graphemes []string, style glyph.Style, fg, bg uint32) {
	idx := start
	for _, grapheme := range graphemes {
		if idx >= len(g.dynamics) {
			break
		}

		slot, ok := g.atlas.Resolve(grapheme, style, 0)
		if !ok {
			glog.Warnf("grid: no glyph for %q, substituting space", grapheme)
			slot, _ = g.atlas.Resolve(" ", glyph.StyleNormal, 0)
		}

		id := slot.GlyphID(style, 0)
		g.dynamics[idx] = NewCellDynamic(id, fg, bg)

		if slot.DoubleWidth() && idx+1 < len(g.dynamics) {
			rightID := slot.RightHalf().GlyphID(style, 0)
			g.dynamics[idx+1] = NewCellDynamic(rightID, fg, bg)
			idx++
		}
		idx++
	}
	g.markDirty(start, idx)
}

// UpdateCellsByPosition is UpdateCellsByIndex addressed by (col, row)
// rather than a flat index.
func (g *Grid) UpdateCellsByPosition(col, row int, graphemes []string, style glyph.Style, fg, bg uint32) {
	g.UpdateCellsByIndex(Index(g.cols, col, row), graphemes, style, fg, bg)
}

// FlushCells uploads every dynamic cell touched since the last flush (and
// flushes the atlas, in case new glyphs were rasterized this frame). It
// also owns the selection's whole render-time lifecycle (spec.md sections
// 4.7, 4.9): check whether the content under the active selection changed
// since the hash was last recorded (clearing the selection if so), invert
// fg/bg for the selected cells, upload, then restore the CPU-side values
// so the inversion never outlives this call. Call once per frame after
// all UpdateCells* calls for that frame are done.
func (g *Grid) FlushCells() error {
	if flusher, ok := g.atlas.(interface{ Flush() error }); ok {
		if err := flusher.Flush(); err != nil {
			return fmt.Errorf("gputerm/grid: flush atlas: %w", err)
		}
	}

	if _, active := g.selection.Active(); active {
		from, to := g.selectionIndexRange()
		hash := g.HashCells(from, to)
		if g.selection.IsStale(hash) {
			g.selection.Clear()
			g.markDirty(from, to) // re-upload true colors over whatever inverted values a prior flush left in the GPU buffer
		} else {
			g.selection.SetContentHash(hash)
		}
	}

	var inverted []selectionInversion
	if _, active := g.selection.Active(); active {
		inverted = g.invertSelectionCells()
	}

	if g.dirtyTo != 0 {
		g.buffers.uploadDynamicRange(g.dirtyFrom, g.dynamics[g.dirtyFrom:g.dirtyTo])
		g.dirtyFrom, g.dirtyTo = 0, 0
	}

	g.restoreSelectionCells(inverted)
	return nil
}

// ReplaceAtlas swaps the grid's glyph atlas (e.g. after a device-pixel-
// ratio change rebuilds a dynamic atlas). Every live cell is translated to
// the new atlas rather than left pointing at slot ids the new atlas didn't
// assign: its grapheme is reverse-looked-up against the old atlas, then
// re-resolved against the new one, falling back to the new atlas's space
// glyph for anything it doesn't carry (spec.md section 4.9 - this
// translation pass is the core contract of the operation, not an edge
// case). The active selection is cleared, since its anchors may no longer
// make sense against the new content, and the grid is resized at its
// current cols/rows, which recreates the GPU buffers and re-uploads every
// cell; the cell count stays the same, and the new atlas's cell size
// reaches the shader through Render's vertex UBO.
func (g *Grid) ReplaceAtlas(newAtlas atlas.Atlas) {
	old := g.atlas

	spaceSlot, haveSpace := newAtlas.Resolve(" ", glyph.StyleNormal, 0)
	var spaceID glyph.ID
	if haveSpace {
		spaceID = spaceSlot.GlyphID(glyph.StyleNormal, 0)
	}

	// Right halves of double-width cells are skipped on their own: their
	// old slot id was never a reverse-lookup key (atlas.Symbol only indexes
	// the left half), so they are translated as part of handling the left
	// half below, the same way UpdateCellsByIndex writes both halves from
	// one resolved slot.
	for i := 0; i < len(g.dynamics); i++ {
		cell := g.dynamics[i]
		id := cell.GlyphID()
		style := glyph.StyleFromBits(id)
		decoration := id.Decoration()

		symbol, ok := old.Symbol(id)
		if !ok {
			g.dynamics[i] = NewCellDynamic(spaceID, cell.FgRGB(), cell.BgRGB())
			continue
		}

		slot, resolved := newAtlas.Resolve(symbol, style, decoration)
		if !resolved {
			g.dynamics[i] = NewCellDynamic(spaceID, cell.FgRGB(), cell.BgRGB())
			continue
		}

		g.dynamics[i] = NewCellDynamic(slot.GlyphID(style, decoration), cell.FgRGB(), cell.BgRGB())

		if slot.DoubleWidth() && i+1 < len(g.dynamics) {
			right := g.dynamics[i+1]
			rightID := slot.RightHalf().GlyphID(style, decoration)
			g.dynamics[i+1] = NewCellDynamic(rightID, right.FgRGB(), right.BgRGB())
			i++
		}
	}

	old.Delete()
	g.atlas = newAtlas
	g.selection.Clear()
	g.Resize(g.cols, g.rows)
}

// Cols and Rows report the current grid dimensions.
func (g *Grid) Cols() int { return g.cols }
func (g *Grid) Rows() int { return g.rows }

// Selection returns the grid's selection tracker. Mutating it directly
// (e.g. Selection().Clear()) cancels the selection but does not itself
// restore any inverted colors a prior FlushCells already uploaded to the
// GPU for it; callers that need to cancel a selection a host is displaying
// should use ClearSelection instead.
func (g *Grid) Selection() *SelectionTracker { return g.selection }

// ClearSelection cancels the active selection and marks its cells dirty, so
// the next FlushCells re-uploads their true colors and undoes any
// inversion already visible in the GPU buffer for it. A no-op if there is
// no active selection.
func (g *Grid) ClearSelection() {
	from, to := g.selectionIndexRange()
	g.selection.Clear()
	if to > from {
		g.markDirty(from, to)
	}
}

// SetBackgroundAlpha sets the uniform background opacity applied by the
// fragment shader (spec.md section 5.2, FragmentUBO.bg_alpha).
func (g *Grid) SetBackgroundAlpha(alpha float32) {
	g.bgAlpha = alpha
}

// Render draws every cell instance in one DrawElementsInstanced call.
// projection is the orthographic pixel-space projection matrix (16
// column-major float32s, std140 mat4 layout).
func (g *Grid) Render(projection [16]float32, viewportOriginX, viewportOriginY float32) {
	cellW, cellH := g.atlas.CellSize()

	g.shader.use()
	g.shader.setVertexUBO(vertexUBOData{
		Projection: projection,
		CellSize:   [2]float32{float32(cellW), float32(cellH)},
		GridOrigin: [2]float32{viewportOriginX, viewportOriginY},
	})

	underline := g.atlas.Underline()
	strike := g.atlas.Strikethrough()
	g.shader.setFragmentUBO(fragmentUBOData{
		TextureLookupMask: uint32(g.atlas.BaseLookupMask()),
		DecorationMask:    uint32(glyph.DecorationMask),
		UnderlinePos:      underline.Position,
		UnderlineThick:    underline.Thickness,
		StrikePos:         strike.Position,
		StrikeThick:       strike.Thickness,
		BgAlpha:           g.bgAlpha,
	})

	g.shader.bindAtlasTexture(g.atlas.Texture())
	g.buffers.draw(len(g.dynamics))
}

// RecreateResources rebuilds the GPU-side buffers and shader program after
// a context loss event, re-uploading the CPU-authoritative cell arrays
// unchanged (spec.md section 4.11). Native GL has no context-loss concept,
// so this is provided for API parity with a WebGL-style host but is never
// invoked by cmd/gputerm-demo.
func (g *Grid) RecreateResources() error {
	shader, err := newShaderProgram()
	if err != nil {
		return err
	}
	if g.shader != nil {
		g.shader.delete()
	}
	g.shader = shader

	if g.buffers != nil {
		g.buffers.delete()
	}
	g.buffers = newBuffers(len(g.dynamics))
	g.buffers.uploadStatic(g.statics)
	g.markAllDirty()
	return nil
}

// Delete releases every GPU resource the grid owns, including its atlas.
func (g *Grid) Delete() {
	if g.buffers != nil {
		g.buffers.delete()
		g.buffers = nil
	}
	if g.shader != nil {
		g.shader.delete()
		g.shader = nil
	}
	if g.atlas != nil {
		g.atlas.Delete()
	}
}
