package flow

import (
	"testing"

	"github.com/dociq/pagepdf/css"
	"github.com/dociq/pagepdf/numeric"
)

func TestPositionedAbsoluteResolvesAgainstContainingBlock(t *testing.T) {
	s := css.Initial()
	s.Position = css.PositionAbsolute
	s.Inset.Top, s.InsetAuto[0] = numeric.FromPoints(10), false
	s.Inset.Left, s.InsetAuto[3] = numeric.FromPoints(20), false
	s.WidthAuto, s.HeightAuto = false, false
	s.Width, s.Height = numeric.FromPoints(50), numeric.FromPoints(30)

	child := sizedLeaf(numeric.FromPoints(50), numeric.FromPoints(30))
	p := NewPositionedAbsolute(s, child, false, numeric.Point{})
	p.Wrap(numeric.FromPoints(200), numeric.FromPoints(200), 0)

	cb := numeric.Rect{X: 0, Y: 0, W: numeric.FromPoints(200), H: numeric.FromPoints(200)}
	box := p.ResolveBox(cb)
	if box.X.Points() != 20 {
		t.Fatalf("expected left inset of 20pt, got %v", box.X.Points())
	}
	// Top inset measures from the top edge of the containing block; this
	// containing block's top is at Y=200.
	wantY := cb.Top().Sub(s.Inset.Top).Sub(box.H)
	if box.Y != wantY {
		t.Fatalf("expected y=%v from top-inset resolution, got %v", wantY.Points(), box.Y.Points())
	}
}

func TestPositionedRelativeOffsetsAtDrawTimeOnly(t *testing.T) {
	s := css.Initial()
	s.Position = css.PositionRelative
	s.Inset.Top, s.InsetAuto[0] = numeric.FromPoints(5), false
	s.Inset.Left, s.InsetAuto[3] = numeric.FromPoints(5), false

	child := sizedLeaf(numeric.FromPoints(10), numeric.FromPoints(10))
	p := NewPositionedRelative(s, child)
	wr := p.Wrap(numeric.FromPoints(100), numeric.FromPoints(100), 0)
	if wr.Size.W.Points() != 10 || wr.Size.H.Points() != 10 {
		t.Fatalf("expected relative positioning to preserve the in-flow measured size")
	}
}
