package flow

import (
	"testing"

	"github.com/dociq/pagepdf/css"
	"github.com/dociq/pagepdf/numeric"
)

func TestGridTrackSizingSplitsFractionalTracks(t *testing.T) {
	s := css.Initial()
	s.Display = css.DisplayGrid
	s.GridTemplateColumns = []css.TrackSize{{IsFr: true, Fr: 1}, {IsFr: true, Fr: 2}}

	g := NewGrid(s, []Flowable{
		sizedLeaf(numeric.FromPoints(10), numeric.FromPoints(10)),
		sizedLeaf(numeric.FromPoints(10), numeric.FromPoints(10)),
	})
	g.Wrap(numeric.FromPoints(300), numeric.FromPoints(1000), 0)

	if len(g.cols) != 2 {
		t.Fatalf("expected 2 resolved columns, got %d", len(g.cols))
	}
	if g.cols[0].Points() != 100 || g.cols[1].Points() != 200 {
		t.Fatalf("expected 1fr/2fr to split 300pt as 100/200, got %v/%v", g.cols[0].Points(), g.cols[1].Points())
	}
}

func TestGridExplicitAnchorMigratesForwardOnConflict(t *testing.T) {
	s1 := css.Initial()
	s1.GridColumnStart, s1.GridRowStart = 1, 1
	a := sizedLeaf(numeric.FromPoints(10), numeric.FromPoints(10))
	a.Style.GridColumnStart, a.Style.GridRowStart = 1, 1

	b := sizedLeaf(numeric.FromPoints(10), numeric.FromPoints(10))
	b.Style.GridColumnStart, b.Style.GridRowStart = 1, 1

	cells := placeItems([]Flowable{a, b}, 2)
	if cells[0].col != 0 || cells[0].row != 0 {
		t.Fatalf("expected first anchor at (0,0), got (%d,%d)", cells[0].col, cells[0].row)
	}
	if cells[0].col == cells[1].col && cells[0].row == cells[1].row {
		t.Fatalf("expected conflicting anchor to migrate forward, both landed at (%d,%d)", cells[1].col, cells[1].row)
	}
}
