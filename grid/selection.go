package grid

import "hash/maphash"

// SelectionKind distinguishes a linear text selection (wraps at row
// boundaries, like dragging through terminal output) from a rectangular
// block selection (spec.md section 3.6).
type SelectionKind uint8

const (
	SelectionLinear SelectionKind = iota
	SelectionBlock
)

// Point is a (col, row) grid position.
type Point struct {
	Col, Row int
}

// CellQuery describes an active selection: its kind, its start/end
// anchors, and an optional content hash used to detect whether the
// underlying cells changed since the hash was taken (spec.md section 3.6).
type CellQuery struct {
	Kind        SelectionKind
	Start, End  Point
	ContentHash uint64
	hasHash     bool
}

// SelectionTracker wraps an optional CellQuery behind set/clear/update
// methods, the Go equivalent of the original's Option<CellQuery> with
// interior mutability: a nil active query means no selection, mirroring
// that sum type without needing a second boolean flag.
type SelectionTracker struct {
	active *CellQuery
	seed   maphash.Seed
}

// NewSelectionTracker returns an empty tracker.
func NewSelectionTracker() *SelectionTracker {
	return &SelectionTracker{seed: maphash.MakeSeed()}
}

// Set begins a new selection anchored at start, with end initially equal
// to start.
func (t *SelectionTracker) Set(kind SelectionKind, start Point) {
	t.active = &CellQuery{Kind: kind, Start: start, End: start}
}

// Clear ends the current selection, if any.
func (t *SelectionTracker) Clear() {
	t.active = nil
}

// Active reports whether a selection is in progress, and returns a copy of
// it if so.
func (t *SelectionTracker) Active() (CellQuery, bool) {
	if t.active == nil {
		return CellQuery{}, false
	}
	return *t.active, true
}

// UpdateEnd moves the end anchor of the active selection, a no-op if there
// is no active selection (dragging after the mouse button was released,
// for instance).
func (t *SelectionTracker) UpdateEnd(end Point) {
	if t.active == nil {
		return
	}
	t.active.End = end
}

// SetContentHash records the hash of the cells currently under the
// selection, so a later call to IsStale can detect if they changed.
func (t *SelectionTracker) SetContentHash(hash uint64) {
	if t.active == nil {
		return
	}
	t.active.ContentHash = hash
	t.active.hasHash = true
}

// IsStale reports whether the active selection has a recorded content hash
// that no longer matches currentHash (e.g. the program overwrote the
// selected region). Returns false if there is no active selection or no
// hash was ever recorded.
func (t *SelectionTracker) IsStale(currentHash uint64) bool {
	if t.active == nil || !t.active.hasHash {
		return false
	}
	return t.active.ContentHash != currentHash
}

// HashCells computes a content hash over the dynamic glyph ids of the
// given cell index range, for SetContentHash/IsStale. hash/maphash is used
// rather than a cryptographic hash since this is a staleness fingerprint,
// not a security boundary.
func (g *Grid) HashCells(fromIdx, toIdx int) uint64 {
	var h maphash.Hash
	h.SetSeed(g.selection.seed)
	for i := fromIdx; i < toIdx && i < len(g.dynamics); i++ {
		id := g.dynamics[i].GlyphID()
		var buf [2]byte
		buf[0] = byte(id)
		buf[1] = byte(id >> 8)
		h.Write(buf[:])
	}
	return h.Sum64()
}

// CellIteration is one step of Iterate: the flat cell index under the
// selection, and whether a newline should be emitted after it (linear
// selections wrapping past the end of a row, or the end of each row in a
// block selection).
type CellIteration struct {
	Index           int
	EmitNewlineAfter bool
}

// Iterate walks every cell index covered by the active selection, in
// reading order, yielding the (index, emit-newline) pairs a text-extraction
// caller needs to reconstruct the selected text with line breaks in the
// right places (spec.md section 3.6). Returns nil if there is no active
// selection.
func (t *SelectionTracker) Iterate(cols int) []CellIteration {
	if t.active == nil {
		return nil
	}
	q := *t.active

	start, end := q.Start, q.End
	if after(start, end) {
		start, end = end, start
	}

	var out []CellIteration
	switch q.Kind {
	case SelectionBlock:
		loCol, hiCol := start.Col, end.Col
		if loCol > hiCol {
			loCol, hiCol = hiCol, loCol
		}
		for row := start.Row; row <= end.Row; row++ {
			for col := loCol; col <= hiCol; col++ {
				out = append(out, CellIteration{
					Index:            Index(cols, col, row),
					EmitNewlineAfter: col == hiCol && row != end.Row,
				})
			}
		}
	default: // SelectionLinear
		for row := start.Row; row <= end.Row; row++ {
			colStart, colEnd := 0, cols-1
			if row == start.Row {
				colStart = start.Col
			}
			if row == end.Row {
				colEnd = end.Col
			}
			for col := colStart; col <= colEnd; col++ {
				out = append(out, CellIteration{
					Index:            Index(cols, col, row),
					EmitNewlineAfter: col == colEnd && row != end.Row,
				})
			}
		}
	}
	return out
}

// after reports whether a comes strictly after b in reading order.
func after(a, b Point) bool {
	if a.Row != b.Row {
		return a.Row > b.Row
	}
	return a.Col > b.Col
}

// invertForFlush returns fg/bg with colors swapped, the convention the
// fragment shader relies on for rendering selected cells: rather than a
// separate selection uniform, selected cells simply have their dynamic
// buffer entries rewritten with fg/bg inverted before FlushCells uploads
// them, and restored immediately after (spec.md section 3.6,
// "color-inversion-at-flush").
func invertForFlush(c CellDynamic) CellDynamic {
	return NewCellDynamic(c.GlyphID(), c.BgRGB(), c.FgRGB())
}

// selectionInversion is the pre-inversion value of one cell, saved so
// FlushCells can restore it after uploading the inverted colors.
type selectionInversion struct {
	index    int
	original CellDynamic
}

// selectionIndexRange returns the half-open flat-index range spanning the
// active selection, for HashCells. Returns (0, 0) if there is no active
// selection.
func (g *Grid) selectionIndexRange() (from, to int) {
	iter := g.selection.Iterate(g.cols)
	if len(iter) == 0 {
		return 0, 0
	}
	from, to = iter[0].Index, iter[0].Index
	for _, step := range iter[1:] {
		if step.Index < from {
			from = step.Index
		}
		if step.Index > to {
			to = step.Index
		}
	}
	return from, to + 1
}

// invertSelectionCells swaps fg/bg for every cell under the active
// selection and marks them dirty, returning the pre-inversion values so
// FlushCells can restore them after uploading.
func (g *Grid) invertSelectionCells() []selectionInversion {
	iter := g.selection.Iterate(g.cols)
	if len(iter) == 0 {
		return nil
	}
	saved := make([]selectionInversion, 0, len(iter))
	for _, step := range iter {
		if step.Index < 0 || step.Index >= len(g.dynamics) {
			continue
		}
		saved = append(saved, selectionInversion{index: step.Index, original: g.dynamics[step.Index]})
		g.dynamics[step.Index] = invertForFlush(g.dynamics[step.Index])
		g.markDirty(step.Index, step.Index+1)
	}
	return saved
}

// restoreSelectionCells undoes invertSelectionCells, so that after
// FlushCells returns, the CPU-side dynamics are identical to what they were
// before it ran (spec.md section 3.6): inversion is a render-time effect
// only, never a permanent content change.
func (g *Grid) restoreSelectionCells(saved []selectionInversion) {
	for _, s := range saved {
		g.dynamics[s.index] = s.original
	}
}
