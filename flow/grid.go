package flow

import (
	"github.com/dociq/pagepdf/canvas"
	"github.com/dociq/pagepdf/css"
	"github.com/dociq/pagepdf/numeric"
)

// Grid implements the baseline grid solver of §4.4: track sizing for
// fixed/percent/repeat(n,T) tracks and deterministic slot-based placement
// (explicit anchor, forward-migrate on conflict, row-major auto-fill).
// Open Question (a) is resolved in DESIGN.md: no full track-sizing
// algorithm beyond this baseline.
type Grid struct {
	baseFlowable
	Children []Flowable

	cols, rows []numeric.Length
	cells      []gridCell
}

type gridCell struct {
	flowable   Flowable
	col, row   int // 0-based
	rect       numeric.Rect
}

func NewGrid(style css.ComputedStyle, children []Flowable) *Grid {
	return &Grid{baseFlowable: baseFlowable{Style: style}, Children: children}
}

func (g *Grid) StyleRef() *css.ComputedStyle { return &g.Style }

func resolveTracks(tracks []css.TrackSize, totalSpace, gap numeric.Length) []numeric.Length {
	n := len(tracks)
	if n == 0 {
		return nil
	}
	out := make([]numeric.Length, n)
	var fixedSum numeric.Length
	var frSum float64
	autoCount := 0
	for i, t := range tracks {
		switch {
		case t.IsFr:
			frSum += t.Fr
		case t.Percent > 0:
			out[i] = numeric.Percent(t.Percent, totalSpace)
			fixedSum = fixedSum.Add(out[i])
		case t.IsAuto:
			autoCount++
		default:
			out[i] = t.Fixed
			fixedSum = fixedSum.Add(t.Fixed)
		}
	}
	remaining := totalSpace.Sub(fixedSum).Sub(gap.Mul(float64(n - 1)))
	autoShare := numeric.Zero
	if autoCount > 0 && frSum == 0 {
		autoShare = remaining.Div(float64(autoCount))
	}
	for i, t := range tracks {
		if t.IsFr && frSum > 0 {
			out[i] = remaining.Mul(t.Fr / frSum)
		} else if t.IsAuto && frSum == 0 {
			out[i] = autoShare
		}
	}
	return out
}

// placeItems implements the deterministic slot placement of §4.4: explicit
// anchors first; on conflict the later item migrates forward to the next
// free slot; remaining items auto-place row-major.
func placeItems(children []Flowable, numCols int) []gridCell {
	occupied := map[[2]int]bool{}
	cells := make([]gridCell, len(children))
	var autoQueue []int

	for i, child := range children {
		s := child.(styleHaver).StyleRef()
		if s.GridColumnStart > 0 && s.GridRowStart > 0 {
			col, row := s.GridColumnStart-1, s.GridRowStart-1
			for occupied[[2]int{col, row}] {
				col++
				if numCols > 0 && col >= numCols {
					col = 0
					row++
				}
			}
			occupied[[2]int{col, row}] = true
			cells[i] = gridCell{flowable: child, col: col, row: row}
		} else {
			autoQueue = append(autoQueue, i)
		}
	}

	col, row := 0, 0
	for _, i := range autoQueue {
		for occupied[[2]int{col, row}] {
			col++
			if numCols > 0 && col >= numCols {
				col = 0
				row++
			}
		}
		occupied[[2]int{col, row}] = true
		cells[i] = gridCell{flowable: children[i], col: col, row: row}
		col++
		if numCols > 0 && col >= numCols {
			col = 0
			row++
		}
	}
	return cells
}

func (g *Grid) Wrap(availW, availH numeric.Length, epoch int) WrapResult {
	if r, ok := g.cached(availW, availH, epoch); ok {
		g.lastWrap = r
		return r
	}
	s := g.Style
	contentW := resolveAxis(s.Width, s.WidthAuto, availW, s.MinWidth, s.MaxWidth)

	cols := s.GridTemplateColumns
	rows := s.GridTemplateRows
	if len(cols) == 0 {
		cols = []css.TrackSize{{IsAuto: true}}
	}
	if len(rows) == 0 {
		// Derive the implicit axis deterministically from item count when
		// only one axis is explicit (§4.4 "(d)").
		rowCount := (len(g.Children) + len(cols) - 1) / len(cols)
		if rowCount < 1 {
			rowCount = 1
		}
		for i := 0; i < rowCount; i++ {
			rows = append(rows, css.TrackSize{IsAuto: true})
		}
	}

	g.cols = resolveTracks(cols, contentW, s.GapColumn)
	g.cells = placeItems(g.Children, len(cols))

	maxRow := 0
	for _, c := range g.cells {
		if c.row > maxRow {
			maxRow = c.row
		}
	}
	for len(rows) <= maxRow {
		rows = append(rows, css.TrackSize{IsAuto: true})
	}

	// First pass: measure auto-row heights from content.
	rowHeights := make([]numeric.Length, len(rows))
	for i := range g.cells {
		c := &g.cells[i]
		colW := trackAt(g.cols, c.col)
		wr := c.flowable.Wrap(colW, availH, epoch)
		if wr.Size.H > rowHeights[c.row] {
			rowHeights[c.row] = wr.Size.H
		}
	}
	g.rows = rowHeights

	var y numeric.Length
	rowOffsets := make([]numeric.Length, len(rowHeights))
	for i, h := range rowHeights {
		rowOffsets[i] = y
		y = y.Add(h).Add(s.GapRow)
	}
	totalH := y.Sub(s.GapRow)
	if len(rowHeights) == 0 {
		totalH = 0
	}

	for i := range g.cells {
		c := &g.cells[i]
		colX := colOffset(g.cols, c.col, s.GapColumn)
		colW := trackAt(g.cols, c.col)
		c.rect = numeric.Rect{X: colX, Y: rowOffsets[c.row], W: colW, H: rowHeights[c.row]}
	}

	result := WrapResult{Size: numeric.Size{W: contentW, H: totalH}, CanSplit: true}
	g.store(availW, availH, epoch, result)
	g.lastWrap = result
	return result
}

func trackAt(tracks []numeric.Length, idx int) numeric.Length {
	if idx < len(tracks) {
		return tracks[idx]
	}
	if len(tracks) > 0 {
		return tracks[len(tracks)-1]
	}
	return 0
}

func colOffset(tracks []numeric.Length, idx int, gap numeric.Length) numeric.Length {
	var x numeric.Length
	for i := 0; i < idx && i < len(tracks); i++ {
		x = x.Add(tracks[i]).Add(gap)
	}
	return x
}

func (g *Grid) Split(boundary numeric.Length) SplitResult {
	if g.lastWrap.Size.H <= boundary {
		return SplitResult{Outcome: SplitPlaced, Placed: g, PlacedH: g.lastWrap.Size.H}
	}
	return SplitResult{Outcome: SplitOverflow, Reason: "grid row splitting not supported; whole grid moves to next frame"}
}

func (g *Grid) Draw(cv *canvas.Canvas, box numeric.Rect) {
	cv.SaveState()
	drawBackground(cv, box, g.Style)
	drawBorder(cv, box, g.Style)
	for _, c := range g.cells {
		childBox := numeric.Rect{X: box.X.Add(c.rect.X), Y: box.Y.Add(box.H).Sub(c.rect.Y).Sub(c.rect.H), W: c.rect.W, H: c.rect.H}
		c.flowable.Draw(cv, childBox)
	}
	cv.RestoreState()
}
