package flow

import (
	"testing"

	"github.com/dociq/pagepdf/css"
	"github.com/dociq/pagepdf/numeric"
)

func tableStyle() css.ComputedStyle {
	s := css.Initial()
	s.Display = css.DisplayTable
	return s
}

func cellRow(header bool, cellH numeric.Length) TableRow {
	return TableRow{
		Cells:    []Flowable{sizedLeaf(numeric.FromPoints(50), cellH), sizedLeaf(numeric.FromPoints(50), cellH)},
		IsHeader: header,
	}
}

func TestTableHeaderRowRepeatsAfterSplit(t *testing.T) {
	rows := []TableRow{
		cellRow(true, numeric.FromPoints(10)),
		cellRow(false, numeric.FromPoints(20)),
		cellRow(false, numeric.FromPoints(20)),
		cellRow(false, numeric.FromPoints(20)),
	}
	tbl := NewTable(tableStyle(), rows, false)
	tbl.Wrap(numeric.FromPoints(200), numeric.FromPoints(1000), 0)

	// Header (10) + first body row (20) = 30 fits; second body row would
	// end at 50, past the 35pt boundary, so it and the remainder roll to
	// the next frame.
	split := tbl.Split(numeric.FromPoints(35))
	if split.Outcome != SplitPartial {
		t.Fatalf("expected partial split, got %v", split.Outcome)
	}
	remainder, ok := split.Remainder.(*Table)
	if !ok {
		t.Fatalf("expected remainder to be a *Table")
	}
	if !remainder.Rows[0].IsHeader {
		t.Fatalf("expected header row to repeat at the start of the remainder")
	}
}

func TestTableFixedColumnsSplitWidthEvenly(t *testing.T) {
	rows := []TableRow{cellRow(false, numeric.FromPoints(10))}
	tbl := NewTable(tableStyle(), rows, true)
	tbl.Wrap(numeric.FromPoints(200), numeric.FromPoints(1000), 0)
	if tbl.colWidths[0].Points() != 100 || tbl.colWidths[1].Points() != 100 {
		t.Fatalf("expected fixed columns to split 200pt evenly, got %v/%v", tbl.colWidths[0].Points(), tbl.colWidths[1].Points())
	}
}
