package flow

import (
	"github.com/dociq/pagepdf/canvas"
	"github.com/dociq/pagepdf/css"
	"github.com/dociq/pagepdf/numeric"
)

// PositionedRelative preserves the child's in-flow slot and applies
// top/right/bottom/left offsets only at draw time (§4.4 "Positioning").
type PositionedRelative struct {
	baseFlowable
	Child Flowable
}

func NewPositionedRelative(style css.ComputedStyle, child Flowable) *PositionedRelative {
	return &PositionedRelative{baseFlowable: baseFlowable{Style: style}, Child: child}
}

func (p *PositionedRelative) StyleRef() *css.ComputedStyle { return &p.Style }

func (p *PositionedRelative) Wrap(availW, availH numeric.Length, epoch int) WrapResult {
	r := p.Child.Wrap(availW, availH, epoch)
	p.lastWrap = r
	return r
}

func (p *PositionedRelative) Split(boundary numeric.Length) SplitResult {
	return p.Child.Split(boundary)
}

// relativeOffset resolves the top/right/bottom/left insets, preferring
// left/top over right/bottom when both are specified (§4.4).
func relativeOffset(s css.ComputedStyle, box numeric.Rect) (dx, dy numeric.Length) {
	if !s.InsetAuto[3] { // left
		dx = s.Inset.Left
	} else if !s.InsetAuto[1] { // right
		dx = -s.Inset.Right
	}
	if !s.InsetAuto[0] { // top
		dy = -s.Inset.Top
	} else if !s.InsetAuto[2] { // bottom
		dy = s.Inset.Bottom
	}
	return dx, dy
}

func (p *PositionedRelative) Draw(cv *canvas.Canvas, box numeric.Rect) {
	dx, dy := relativeOffset(p.Style, box)
	offset := numeric.Rect{X: box.X.Add(dx), Y: box.Y.Add(dy), W: box.W, H: box.H}
	p.Child.Draw(cv, offset)
}

// PositionedAbsolute removes the child from flow and resolves its box
// against the nearest positioned/transformed ancestor's content box, or
// the page's initial containing block (§4.4 "absolute").
type PositionedAbsolute struct {
	baseFlowable
	Child     Flowable
	Fixed     bool
	StaticPos numeric.Point // fallback for auto-inset pairs
}

func NewPositionedAbsolute(style css.ComputedStyle, child Flowable, fixed bool, staticPos numeric.Point) *PositionedAbsolute {
	return &PositionedAbsolute{baseFlowable: baseFlowable{Style: style}, Child: child, Fixed: fixed, StaticPos: staticPos}
}

func (p *PositionedAbsolute) StyleRef() *css.ComputedStyle { return &p.Style }

func (p *PositionedAbsolute) Wrap(availW, availH numeric.Length, epoch int) WrapResult {
	w := availW
	if !p.Style.WidthAuto {
		w = p.Style.Width
	}
	h := availH
	if !p.Style.HeightAuto {
		h = p.Style.Height
	}
	r := p.Child.Wrap(w, h, epoch)
	if p.Style.WidthAuto {
		r.Size.W = numeric.Min(r.Size.W, availW)
	} else {
		r.Size.W = w
	}
	if !p.Style.HeightAuto {
		r.Size.H = h
	}
	p.lastWrap = r
	return r
}

func (p *PositionedAbsolute) Split(boundary numeric.Length) SplitResult {
	// Positioned/fixed content is painted per-page by the pagination
	// machine's underlay/overlay lanes, not split across frames.
	return SplitResult{Outcome: SplitPlaced, Placed: p, PlacedH: 0}
}

// ResolveBox computes the absolute box against the given containing
// block, honoring "opposing inset pairs with explicit size preserve
// explicit size (no clamp)" and the static-position fallback for
// auto-inset pairs (§4.4).
func (p *PositionedAbsolute) ResolveBox(cb numeric.Rect) numeric.Rect {
	s := p.Style
	var x, w numeric.Length
	switch {
	case !s.InsetAuto[3] && !s.InsetAuto[1]:
		x = cb.X.Add(s.Inset.Left)
		w = cb.W.Sub(s.Inset.Left).Sub(s.Inset.Right)
		if !s.WidthAuto {
			w = s.Width
		}
	case !s.InsetAuto[3]:
		x = cb.X.Add(s.Inset.Left)
		w = p.lastWrap.Size.W
	case !s.InsetAuto[1]:
		w = p.lastWrap.Size.W
		x = cb.Right().Sub(s.Inset.Right).Sub(w)
	default:
		x = p.StaticPos.X
		w = p.lastWrap.Size.W
	}

	var y, h numeric.Length
	switch {
	case !s.InsetAuto[0] && !s.InsetAuto[2]:
		h = cb.H.Sub(s.Inset.Top).Sub(s.Inset.Bottom)
		if !s.HeightAuto {
			h = s.Height
		}
		y = cb.Top().Sub(s.Inset.Top).Sub(h)
	case !s.InsetAuto[0]:
		h = p.lastWrap.Size.H
		y = cb.Top().Sub(s.Inset.Top).Sub(h)
	case !s.InsetAuto[2]:
		h = p.lastWrap.Size.H
		y = cb.Y.Add(s.Inset.Bottom)
	default:
		y = p.StaticPos.Y
		h = p.lastWrap.Size.H
	}
	return numeric.Rect{X: x, Y: y, W: w, H: h}
}

func (p *PositionedAbsolute) Draw(cv *canvas.Canvas, box numeric.Rect) {
	p.Child.Draw(cv, box)
}
