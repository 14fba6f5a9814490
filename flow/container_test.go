package flow

import (
	"testing"

	"github.com/dociq/pagepdf/canvas"
	"github.com/dociq/pagepdf/css"
	"github.com/dociq/pagepdf/numeric"
)

func blockStyle() css.ComputedStyle {
	s := css.Initial()
	s.Display = css.DisplayBlock
	return s
}

func sizedLeaf(w, h numeric.Length) *leaf {
	s := css.Initial()
	s.Width, s.WidthAuto = w, false
	s.Height, s.HeightAuto = h, false
	return &leaf{baseFlowable: baseFlowable{Style: s}, w: w, h: h}
}

func TestContainerStacksChildrenVertically(t *testing.T) {
	a := sizedLeaf(numeric.FromPoints(100), numeric.FromPoints(20))
	b := sizedLeaf(numeric.FromPoints(100), numeric.FromPoints(30))
	c := NewContainer(blockStyle(), []Flowable{a, b}, "")

	r := c.Wrap(numeric.FromPoints(200), numeric.FromPoints(1000), 0)
	if r.Size.H.Points() != 50 {
		t.Fatalf("expected stacked height 50pt, got %v", r.Size.H.Points())
	}
}

func TestContainerMarginCollapseUsesMax(t *testing.T) {
	s1 := css.Initial()
	s1.Width, s1.WidthAuto = numeric.FromPoints(100), false
	s1.Height, s1.HeightAuto = numeric.FromPoints(10), false
	s1.Margin.Bottom = numeric.FromPoints(20)
	a := &leaf{baseFlowable: baseFlowable{Style: s1}, w: s1.Width, h: s1.Height}

	s2 := css.Initial()
	s2.Width, s2.WidthAuto = numeric.FromPoints(100), false
	s2.Height, s2.HeightAuto = numeric.FromPoints(10), false
	s2.Margin.Top = numeric.FromPoints(10)
	b := &leaf{baseFlowable: baseFlowable{Style: s2}, w: s2.Width, h: s2.Height}

	cont := NewContainer(blockStyle(), []Flowable{a, b}, "")
	r := cont.Wrap(numeric.FromPoints(200), numeric.FromPoints(1000), 0)
	// 10 (a) + max(20,10) collapsed gap + 10 (b) = 40
	if r.Size.H.Points() != 40 {
		t.Fatalf("expected collapsed height 40pt, got %v", r.Size.H.Points())
	}
}

func TestContainerSplitAtChildBoundary(t *testing.T) {
	a := sizedLeaf(numeric.FromPoints(100), numeric.FromPoints(40))
	b := sizedLeaf(numeric.FromPoints(100), numeric.FromPoints(40))
	c := NewContainer(blockStyle(), []Flowable{a, b}, "")
	c.Wrap(numeric.FromPoints(200), numeric.FromPoints(1000), 0)

	split := c.Split(numeric.FromPoints(50))
	if split.Outcome != SplitPartial {
		t.Fatalf("expected partial split, got %v", split.Outcome)
	}
	if split.PlacedH.Points() != 40 {
		t.Fatalf("expected placed height 40pt, got %v", split.PlacedH.Points())
	}
}

func TestContainerDrawIsBalanced(t *testing.T) {
	a := sizedLeaf(numeric.FromPoints(100), numeric.FromPoints(20))
	c := NewContainer(blockStyle(), []Flowable{a}, "")
	c.Wrap(numeric.FromPoints(200), numeric.FromPoints(1000), 0)
	cv := canvas.New()
	c.Draw(cv, numeric.Rect{W: numeric.FromPoints(200), H: numeric.FromPoints(20)})
	if !cv.Balanced() {
		t.Fatalf("expected balanced save/restore stack after draw")
	}
}
