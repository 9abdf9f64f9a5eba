package grid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectionTrackerSetAndClear(t *testing.T) {
	s := NewSelectionTracker()
	_, ok := s.Active()
	require.False(t, ok)

	s.Set(SelectionLinear, Point{Col: 2, Row: 1})
	q, ok := s.Active()
	require.True(t, ok)
	require.Equal(t, Point{Col: 2, Row: 1}, q.Start)
	require.Equal(t, Point{Col: 2, Row: 1}, q.End)

	s.Clear()
	_, ok = s.Active()
	require.False(t, ok)
}

func TestSelectionTrackerUpdateEndNoopWhenInactive(t *testing.T) {
	s := NewSelectionTracker()
	s.UpdateEnd(Point{Col: 5, Row: 5})
	_, ok := s.Active()
	require.False(t, ok)
}

func TestSelectionTrackerLinearIterateSingleRow(t *testing.T) {
	s := NewSelectionTracker()
	s.Set(SelectionLinear, Point{Col: 1, Row: 0})
	s.UpdateEnd(Point{Col: 3, Row: 0})

	steps := s.Iterate(10)
	require.Len(t, steps, 3)
	require.Equal(t, []int{1, 2, 3}, indices(steps))
	require.True(t, steps[2].EmitNewlineAfter == false)
}

func TestSelectionTrackerLinearIterateMultiRowWrapsFullWidth(t *testing.T) {
	s := NewSelectionTracker()
	s.Set(SelectionLinear, Point{Col: 8, Row: 0})
	s.UpdateEnd(Point{Col: 2, Row: 1})

	steps := s.Iterate(10)
	// row 0: cols 8,9 ; row1: cols 0,1,2
	require.Len(t, steps, 5)
	require.True(t, steps[1].EmitNewlineAfter)
}

func TestSelectionTrackerBlockIterate(t *testing.T) {
	s := NewSelectionTracker()
	s.Set(SelectionBlock, Point{Col: 1, Row: 0})
	s.UpdateEnd(Point{Col: 2, Row: 1})

	steps := s.Iterate(10)
	require.Len(t, steps, 4)
}

func TestSelectionTrackerReverseAnchorsNormalized(t *testing.T) {
	s := NewSelectionTracker()
	s.Set(SelectionLinear, Point{Col: 5, Row: 2})
	s.UpdateEnd(Point{Col: 1, Row: 0})

	steps := s.Iterate(10)
	require.NotEmpty(t, steps)
	require.Equal(t, Index(10, 1, 0), steps[0].Index)
}

func TestSelectionTrackerStaleness(t *testing.T) {
	s := NewSelectionTracker()
	s.Set(SelectionLinear, Point{Col: 0, Row: 0})
	require.False(t, s.IsStale(123))

	s.SetContentHash(123)
	require.False(t, s.IsStale(123))
	require.True(t, s.IsStale(456))
}

func indices(steps []CellIteration) []int {
	out := make([]int, len(steps))
	for i, s := range steps {
		out[i] = s.Index
	}
	return out
}
