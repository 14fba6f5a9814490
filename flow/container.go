package flow

import (
	"github.com/dociq/pagepdf/canvas"
	"github.com/dociq/pagepdf/css"
	"github.com/dociq/pagepdf/numeric"
)

// Container implements block and inline flow (§4.4 "Block & inline"):
// computed inline axis sizes the content width, the block axis grows from
// children, and adjacent vertical block siblings collapse margins.
type Container struct {
	baseFlowable
	Children []Flowable
	Marker   string // generated list-item marker prefix, if any

	childBoxes []numeric.Rect
}

// NewContainer constructs a block/inline container flowable.
func NewContainer(style css.ComputedStyle, children []Flowable, marker string) *Container {
	return &Container{baseFlowable: baseFlowable{Style: style}, Children: children, Marker: marker}
}

func (c *Container) Wrap(availW, availH numeric.Length, epoch int) WrapResult {
	if r, ok := c.cached(availW, availH, epoch); ok {
		c.lastWrap = r
		return r
	}

	s := c.Style
	contentW := resolveAxis(s.Width, s.WidthAuto, availW.Sub(s.Margin.Horizontal()).Sub(s.Padding.Horizontal()).Sub(s.Border.Horizontal()), s.MinWidth, s.MaxWidth)

	var y numeric.Length
	var prevMarginBottom numeric.Length
	var havePrev bool
	c.childBoxes = make([]numeric.Rect, len(c.Children))
	maxChildW := numeric.Zero

	for i, child := range c.Children {
		childAvailW := contentW
		wr := child.Wrap(childAvailW, availH, epoch)

		topMargin := childTopMargin(child)
		gap := topMargin
		if havePrev && canCollapse(child) {
			gap = numeric.Max(prevMarginBottom, topMargin).Sub(numeric.Min(prevMarginBottom, topMargin).Mul(0)) // collapse: max(adjoining)
			if prevMarginBottom > topMargin {
				gap = prevMarginBottom
			} else {
				gap = topMargin
			}
		} else if havePrev {
			gap = gap.Add(prevMarginBottom)
		}
		y = y.Add(gap)

		c.childBoxes[i] = numeric.Rect{X: 0, Y: y, W: wr.Size.W, H: wr.Size.H}
		y = y.Add(wr.Size.H)
		prevMarginBottom = childBottomMargin(child)
		havePrev = true
		if wr.Size.W > maxChildW {
			maxChildW = wr.Size.W
		}
	}
	if havePrev {
		y = y.Add(prevMarginBottom)
	}

	contentH := y
	totalH := resolveAxis(s.Height, s.HeightAuto, contentH, s.MinHeight, s.MaxHeight)
	totalH = totalH.Add(s.Padding.Vertical()).Add(s.Border.Vertical())

	width := contentW
	if !s.WidthAuto {
		width = contentW
	} else if s.Display == css.DisplayInlineBlock || s.Display == css.DisplayInline {
		width = numeric.Min(maxChildW, contentW)
	}
	totalW := width.Add(s.Padding.Horizontal()).Add(s.Border.Horizontal())

	result := WrapResult{Size: numeric.Size{W: totalW, H: totalH}, CanSplit: true, BreakBefore: s.BreakBefore == css.BreakAlways}
	c.store(availW, availH, epoch, result)
	c.lastWrap = result
	return result
}

// resolveAxis applies the width/height auto + min/max clamp chain common
// to both axes (§4.4 containing-block model).
func resolveAxis(v numeric.Length, isAuto bool, fallback, min, max numeric.Length) numeric.Length {
	out := fallback
	if !isAuto {
		out = v
	}
	if max > 0 {
		out = numeric.Min(out, max)
	}
	return numeric.Max(out, min)
}

func childTopMargin(f Flowable) numeric.Length {
	type styled interface{ StyleRef() *css.ComputedStyle }
	if s, ok := f.(styled); ok {
		return s.StyleRef().Margin.Top
	}
	return 0
}

func childBottomMargin(f Flowable) numeric.Length {
	type styled interface{ StyleRef() *css.ComputedStyle }
	if s, ok := f.(styled); ok {
		return s.StyleRef().Margin.Bottom
	}
	return 0
}

// canCollapse reports whether this child participates in adjacent
// vertical margin collapsing: not for flex/grid items or across
// positioned boundaries (§3 Invariants, §4.4).
func canCollapse(f Flowable) bool {
	if f.Position() != css.PositionStatic {
		return false
	}
	return true
}

func (c *Container) StyleRef() *css.ComputedStyle { return &c.Style }

func (c *Container) Split(boundary numeric.Length) SplitResult {
	if c.lastWrap.Size.H <= boundary {
		return SplitResult{Outcome: SplitPlaced, Placed: c, PlacedH: c.lastWrap.Size.H}
	}
	if c.Style.BreakInside == css.BreakAvoid {
		return SplitResult{Outcome: SplitOverflow, Reason: "break-inside:avoid cannot fit in remaining frame"}
	}
	// Split at the last child boundary that fits.
	var fitH numeric.Length
	splitIdx := -1
	for i, box := range c.childBoxes {
		if box.Top() > boundary {
			break
		}
		fitH = box.Top()
		splitIdx = i
	}
	if splitIdx < 0 {
		return SplitResult{Outcome: SplitOverflow, Reason: "no child fits in remaining frame"}
	}
	placed := NewContainer(c.Style, c.Children[:splitIdx+1], c.Marker)
	remainder := NewContainer(c.Style, c.Children[splitIdx+1:], "")
	return SplitResult{Outcome: SplitPartial, Placed: placed, PlacedH: fitH, Remainder: remainder}
}

func (c *Container) Draw(cv *canvas.Canvas, box numeric.Rect) {
	cv.SaveState()
	drawBackground(cv, box, c.Style)
	drawBorder(cv, box, c.Style)

	for i, child := range c.Children {
		if child.Position() != css.PositionStatic {
			continue // out-of-flow; painted after in-flow children, §4.4
		}
		cb := c.childBoxes[i]
		childBox := numeric.Rect{X: box.X.Add(cb.X), Y: box.Y.Add(box.H).Sub(cb.Y).Sub(cb.H), W: cb.W, H: cb.H}
		child.Draw(cv, childBox)
	}
	for i, child := range c.Children {
		if child.Position() == css.PositionStatic {
			continue
		}
		cb := c.childBoxes[i]
		childBox := numeric.Rect{X: box.X.Add(cb.X), Y: box.Y.Add(box.H).Sub(cb.Y).Sub(cb.H), W: cb.W, H: cb.H}
		child.Draw(cv, childBox)
	}

	if c.Style.Overflow == "hidden" || c.Style.Overflow == "clip" {
		cv.ClipRect(box, false)
	}
	cv.RestoreState()
}

func drawBackground(cv *canvas.Canvas, box numeric.Rect, s css.ComputedStyle) {
	if s.Background.Color.A > 0 {
		cv.SetFillColor(toRGBA(s.Background.Color))
		cv.FillRect(box)
	}
}

func drawBorder(cv *canvas.Canvas, box numeric.Rect, s css.ComputedStyle) {
	if s.Border.Top > 0 || s.Border.Right > 0 || s.Border.Bottom > 0 || s.Border.Left > 0 {
		cv.SetStrokeColor(toRGBA(s.BorderColor[0]))
		cv.StrokeRect(box)
	}
}

// toRGBA converts a computed-style color to the canvas paint color.
func toRGBA(c css.Color) canvas.RGBA { return canvas.RGBA{R: c.R, G: c.G, B: c.B, A: c.A} }
