package flow

import (
	"github.com/dociq/pagepdf/canvas"
	"github.com/dociq/pagepdf/css"
	"github.com/dociq/pagepdf/numeric"
)

// Flex implements the flexbox layout of §4.4: main-axis base-size
// freezing plus grow/shrink distribution in deterministic iteration
// order, cross-axis alignment, and row wrapping with align-content.
type Flex struct {
	baseFlowable
	Children []Flowable

	lines []flexLine
}

type flexItemBox struct {
	flowable Flowable
	rect     numeric.Rect
}

type flexLine struct {
	items     []flexItemBox
	crossSize numeric.Length
}

func NewFlex(style css.ComputedStyle, children []Flowable) *Flex {
	return &Flex{baseFlowable: baseFlowable{Style: style}, Children: children}
}

func (c *Flex) StyleRef() *css.ComputedStyle { return &c.Style }

func (f *Flex) isRowMain() bool {
	return f.Style.FlexDirection == css.FlexRow || f.Style.FlexDirection == css.FlexRowReverse
}

func (f *Flex) Wrap(availW, availH numeric.Length, epoch int) WrapResult {
	if r, ok := f.cached(availW, availH, epoch); ok {
		f.lastWrap = r
		return r
	}
	s := f.Style
	contentW := resolveAxis(s.Width, s.WidthAuto, availW.Sub(s.Margin.Horizontal()), s.MinWidth, s.MaxWidth)
	mainAxisSize := contentW
	if !f.isRowMain() {
		mainAxisSize = resolveAxis(s.Height, s.HeightAuto, availH, s.MinHeight, s.MaxHeight)
	}

	type baseItem struct {
		flowable Flowable
		baseSize numeric.Length
		wr       WrapResult
	}
	items := make([]baseItem, 0, len(f.Children))
	for _, child := range f.Children {
		wr := child.Wrap(contentW, availH, epoch)
		base := wr.Size.W
		if !f.isRowMain() {
			base = wr.Size.H
		}
		items = append(items, baseItem{flowable: child, baseSize: base, wr: wr})
	}

	wrap := s.FlexWrap != css.FlexNoWrap
	gap := s.GapColumn
	if !f.isRowMain() {
		gap = s.GapRow
	}

	var lines [][]int
	if !wrap {
		idxs := make([]int, len(items))
		for i := range items {
			idxs[i] = i
		}
		lines = [][]int{idxs}
	} else {
		var cur []int
		var curSize numeric.Length
		for i, it := range items {
			add := it.baseSize
			if len(cur) > 0 {
				add = add.Add(gap)
			}
			if len(cur) > 0 && curSize.Add(add) > mainAxisSize {
				lines = append(lines, cur)
				cur = []int{i}
				curSize = it.baseSize
				continue
			}
			cur = append(cur, i)
			curSize = curSize.Add(add)
		}
		if len(cur) > 0 {
			lines = append(lines, cur)
		}
	}

	f.lines = make([]flexLine, len(lines))
	var totalCross numeric.Length
	for li, idxs := range lines {
		sumBase := numeric.Zero
		for _, idx := range idxs {
			sumBase = sumBase.Add(items[idx].baseSize)
		}
		sumBase = sumBase.Add(gap.Mul(float64(len(idxs) - 1)))
		freeSpace := mainAxisSize.Sub(sumBase)

		var sumGrow, sumShrink float64
		for _, idx := range idxs {
			sumGrow += f.Children[idx].(styleHaver).StyleRef().FlexGrow
			sumShrink += f.Children[idx].(styleHaver).StyleRef().FlexShrink
		}

		boxes := make([]flexItemBox, len(idxs))
		var lineCross numeric.Length
		var mainCursor numeric.Length
		for pos, idx := range idxs {
			it := items[idx]
			grow := it.flowable.(styleHaver).StyleRef().FlexGrow
			shrink := it.flowable.(styleHaver).StyleRef().FlexShrink
			size := it.baseSize
			if freeSpace > 0 && sumGrow > 0 {
				size = size.Add(freeSpace.Mul(grow / sumGrow))
			} else if freeSpace < 0 && sumShrink > 0 {
				size = size.Add(freeSpace.Mul(shrink / sumShrink))
			}
			cross := it.wr.Size.H
			if !f.isRowMain() {
				cross = it.wr.Size.W
			}
			if cross > lineCross {
				lineCross = cross
			}

			var rect numeric.Rect
			if f.isRowMain() {
				rect = numeric.Rect{X: mainCursor, W: size, H: cross}
			} else {
				rect = numeric.Rect{Y: mainCursor, H: size, W: cross}
			}
			boxes[pos] = flexItemBox{flowable: it.flowable, rect: rect}
			mainCursor = mainCursor.Add(size).Add(gap)
		}
		f.lines[li] = flexLine{items: boxes, crossSize: lineCross}
		totalCross = totalCross.Add(lineCross)
		if li > 0 {
			totalCross = totalCross.Add(gap)
		}
	}

	positionCrossAxis(f.lines, totalCross, f.isRowMain(), s.AlignContent, s.AlignItems)

	var mainExtent, crossExtent numeric.Length
	if f.isRowMain() {
		mainExtent, crossExtent = mainAxisSize, totalCross
	} else {
		mainExtent, crossExtent = totalCross, mainAxisSize
	}
	w, h := mainExtent, crossExtent
	if !f.isRowMain() {
		w, h = crossExtent, mainExtent
	}

	result := WrapResult{Size: numeric.Size{W: w, H: h}, CanSplit: true}
	f.store(availW, availH, epoch, result)
	f.lastWrap = result
	return result
}

type styleHaver interface{ StyleRef() *css.ComputedStyle }

// positionCrossAxis assigns each line's cross-axis offset per
// align-content (for multi-line) and each item's offset within its line
// per align-items/align-self (§4.4 "Flex": cross axis).
func positionCrossAxis(lines []flexLine, totalCross numeric.Length, rowMain bool, alignContent, alignItems css.Align) {
	n := len(lines)
	if n == 0 {
		return
	}
	sumLineCross := numeric.Zero
	for _, l := range lines {
		sumLineCross = sumLineCross.Add(l.crossSize)
	}
	free := totalCross.Sub(sumLineCross)

	var offset numeric.Length
	gapBetween := numeric.Zero
	switch alignContent {
	case css.AlignCenter:
		offset = free.Div(2)
	case css.AlignEnd:
		offset = free
	case css.AlignSpaceBetween:
		if n > 1 {
			gapBetween = free.Div(float64(n - 1))
		}
	case css.AlignSpaceAround:
		if n > 0 {
			gapBetween = free.Div(float64(n))
			offset = gapBetween.Div(2)
		}
	}

	cur := offset
	for li := range lines {
		for ii := range lines[li].items {
			it := &lines[li].items[ii]
			itemCross := it.rect.H
			if rowMain {
				itemCross = it.rect.H
			} else {
				itemCross = it.rect.W
			}
			crossOffset := numeric.Zero
			align := alignItems
			if sr, ok := it.flowable.(styleHaver); ok && !sr.StyleRef().AlignSelfAuto {
				align = sr.StyleRef().AlignSelf
			}
			switch align {
			case css.AlignCenter:
				crossOffset = lines[li].crossSize.Sub(itemCross).Div(2)
			case css.AlignEnd:
				crossOffset = lines[li].crossSize.Sub(itemCross)
			case css.AlignStretch:
				itemCross = lines[li].crossSize
			}
			if rowMain {
				it.rect.Y = cur.Add(crossOffset)
				if align == css.AlignStretch {
					it.rect.H = itemCross
				}
			} else {
				it.rect.X = cur.Add(crossOffset)
				if align == css.AlignStretch {
					it.rect.W = itemCross
				}
			}
		}
		cur = cur.Add(lines[li].crossSize).Add(gapBetween)
	}
}

func (f *Flex) Split(boundary numeric.Length) SplitResult {
	// Row flex splits after complete lines (§4.4 "Split for pagination").
	// A column flex is not split: when it does not fit whole it is
	// reported as overflow.
	if f.lastWrap.Size.H <= boundary {
		return SplitResult{Outcome: SplitPlaced, Placed: f, PlacedH: f.lastWrap.Size.H}
	}
	if f.isRowMain() {
		var h numeric.Length
		idx := -1
		for i, l := range f.lines {
			lineBottom := numeric.Zero
			for _, it := range l.items {
				if b := it.rect.Y.Add(it.rect.H); b > lineBottom {
					lineBottom = b
				}
			}
			if lineBottom > boundary {
				break
			}
			h = lineBottom
			idx = i
		}
		if idx < 0 {
			return SplitResult{Outcome: SplitOverflow, Reason: "no complete flex row fits"}
		}
		var placedChildren, remChildren []Flowable
		for i := 0; i <= idx; i++ {
			for _, it := range f.lines[i].items {
				placedChildren = append(placedChildren, it.flowable)
			}
		}
		for i := idx + 1; i < len(f.lines); i++ {
			for _, it := range f.lines[i].items {
				remChildren = append(remChildren, it.flowable)
			}
		}
		placed := NewFlex(f.Style, placedChildren)
		remainder := NewFlex(f.Style, remChildren)
		return SplitResult{Outcome: SplitPartial, Placed: placed, PlacedH: h, Remainder: remainder}
	}
	return SplitResult{Outcome: SplitOverflow, Reason: "column flex item cannot fit"}
}

func (f *Flex) Draw(cv *canvas.Canvas, box numeric.Rect) {
	cv.SaveState()
	drawBackground(cv, box, f.Style)
	drawBorder(cv, box, f.Style)
	for _, line := range f.lines {
		for _, it := range line.items {
			childBox := numeric.Rect{X: box.X.Add(it.rect.X), Y: box.Y.Add(box.H).Sub(it.rect.Y).Sub(it.rect.H), W: it.rect.W, H: it.rect.H}
			it.flowable.Draw(cv, childBox)
		}
	}
	cv.RestoreState()
}
