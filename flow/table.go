package flow

import (
	"github.com/dociq/pagepdf/canvas"
	"github.com/dociq/pagepdf/css"
	"github.com/dociq/pagepdf/numeric"
)

// TableRow is one row of a Table, carrying its cell flowables, whether
// it repeats as a header on each page, and a Splittable flag that
// Table.Split does not read.
type TableRow struct {
	Cells       []Flowable
	IsHeader    bool
	Splittable  bool
}

// Table implements §4.4 "Tables": header rows repeat after a page
// boundary, and every row is placed or moved whole (no row is split
// internally, whatever its Splittable flag). Auto layout sizes columns from
// cell content; fixed layout takes the column count from the first row and
// divides the available width equally, without reading cell widths.
type Table struct {
	baseFlowable
	Rows      []TableRow
	FixedCols bool

	colWidths []numeric.Length
	rowRects  []numeric.Rect
	rowHeight []numeric.Length
}

func NewTable(style css.ComputedStyle, rows []TableRow, fixedCols bool) *Table {
	return &Table{baseFlowable: baseFlowable{Style: style}, Rows: rows, FixedCols: fixedCols}
}

func (t *Table) StyleRef() *css.ComputedStyle { return &t.Style }

func (t *Table) Wrap(availW, availH numeric.Length, epoch int) WrapResult {
	if r, ok := t.cached(availW, availH, epoch); ok {
		t.lastWrap = r
		return r
	}
	if len(t.Rows) == 0 {
		result := WrapResult{Size: numeric.Size{W: availW, H: 0}}
		t.store(availW, availH, epoch, result)
		return result
	}
	numCols := len(t.Rows[0].Cells)
	t.colWidths = make([]numeric.Length, numCols)

	if t.FixedCols {
		w := availW.Div(float64(numCols))
		for i := range t.colWidths {
			t.colWidths[i] = w
		}
	} else {
		for _, row := range t.Rows {
			for ci, cell := range row.Cells {
				if ci >= numCols {
					continue
				}
				wr := cell.Wrap(availW.Div(float64(numCols)), availH, epoch)
				if wr.Size.W > t.colWidths[ci] {
					t.colWidths[ci] = wr.Size.W
				}
			}
		}
		var sum numeric.Length
		for _, w := range t.colWidths {
			sum = sum.Add(w)
		}
		if sum > availW && sum > 0 {
			scale := availW.Points() / sum.Points()
			for i := range t.colWidths {
				t.colWidths[i] = t.colWidths[i].Mul(scale)
			}
		}
	}

	t.rowRects = make([]numeric.Rect, len(t.Rows))
	t.rowHeight = make([]numeric.Length, len(t.Rows))
	var y numeric.Length
	for ri, row := range t.Rows {
		var rowH numeric.Length
		for ci, cell := range row.Cells {
			if ci >= numCols {
				continue
			}
			wr := cell.Wrap(t.colWidths[ci], availH, epoch)
			if wr.Size.H > rowH {
				rowH = wr.Size.H
			}
		}
		t.rowRects[ri] = numeric.Rect{X: 0, Y: y, W: availW, H: rowH}
		t.rowHeight[ri] = rowH
		y = y.Add(rowH)
	}

	result := WrapResult{Size: numeric.Size{W: availW, H: y}, CanSplit: true}
	t.store(availW, availH, epoch, result)
	t.lastWrap = result
	return result
}

// Split implements row-granularity splitting: each row is placed or moved
// whole, with header rows carried into the remainder so they
// repeat on the next frame (§4.4 "Tables", §4.5 "Headers/footers").
func (t *Table) Split(boundary numeric.Length) SplitResult {
	if t.lastWrap.Size.H <= boundary {
		return SplitResult{Outcome: SplitPlaced, Placed: t, PlacedH: t.lastWrap.Size.H}
	}
	var headerRows []TableRow
	for _, r := range t.Rows {
		if r.IsHeader {
			headerRows = append(headerRows, r)
		} else {
			break
		}
	}
	idx := -1
	var h numeric.Length
	for i, rect := range t.rowRects {
		if t.Rows[i].IsHeader {
			continue
		}
		if rect.Top() > boundary {
			break
		}
		h = rect.Top()
		idx = i
	}
	if idx < 0 {
		return SplitResult{Outcome: SplitOverflow, Reason: "no table row fits in remaining frame"}
	}
	placedRows := t.Rows[:idx+1]
	remRows := append(append([]TableRow{}, headerRows...), t.Rows[idx+1:]...)
	placed := NewTable(t.Style, placedRows, t.FixedCols)
	remainder := NewTable(t.Style, remRows, t.FixedCols)
	return SplitResult{Outcome: SplitPartial, Placed: placed, PlacedH: h, Remainder: remainder}
}

func (t *Table) Draw(cv *canvas.Canvas, box numeric.Rect) {
	cv.SaveState()
	drawBackground(cv, box, t.Style)
	for ri, row := range t.Rows {
		rowRect := t.rowRects[ri]
		var x numeric.Length
		for ci, cell := range row.Cells {
			if ci >= len(t.colWidths) {
				continue
			}
			childBox := numeric.Rect{
				X: box.X.Add(x),
				Y: box.Y.Add(box.H).Sub(rowRect.Y).Sub(rowRect.H),
				W: t.colWidths[ci],
				H: t.rowHeight[ri],
			}
			cell.Draw(cv, childBox)
			x = x.Add(t.colWidths[ci])
		}
	}
	cv.RestoreState()
}
