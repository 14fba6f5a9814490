package flow

import (
	"testing"

	"github.com/dociq/pagepdf/css"
	"github.com/dociq/pagepdf/numeric"
)

func flexStyle() css.ComputedStyle {
	s := css.Initial()
	s.Display = css.DisplayFlex
	return s
}

func TestFlexGrowDistributesFreeSpace(t *testing.T) {
	a := sizedLeaf(numeric.FromPoints(50), numeric.FromPoints(10))
	a.Style.FlexGrow = 1
	b := sizedLeaf(numeric.FromPoints(50), numeric.FromPoints(10))
	b.Style.FlexGrow = 1

	f := NewFlex(flexStyle(), []Flowable{a, b})
	f.Wrap(numeric.FromPoints(300), numeric.FromPoints(1000), 0)

	if len(f.lines) != 1 || len(f.lines[0].items) != 2 {
		t.Fatalf("expected a single line with two items")
	}
	w0 := f.lines[0].items[0].rect.W
	w1 := f.lines[0].items[1].rect.W
	if w0.Points() != 150 || w1.Points() != 150 {
		t.Fatalf("expected grow to split the 200pt of free space evenly, got %v and %v", w0.Points(), w1.Points())
	}
}

// S6 — two flex rows, align-content: space-between; items keep source order
// within each line (spec.md §8 scenario S6).
func TestFlexWrapKeepsSourceOrderAcrossLines(t *testing.T) {
	s := flexStyle()
	s.FlexWrap = css.FlexWrapOn
	s.AlignContent = css.AlignSpaceBetween

	var children []Flowable
	for i := 0; i < 4; i++ {
		children = append(children, sizedLeaf(numeric.FromPoints(80), numeric.FromPoints(20)))
	}
	f := NewFlex(s, children)
	f.Wrap(numeric.FromPoints(170), numeric.FromPoints(200), 0)

	if len(f.lines) != 2 {
		t.Fatalf("expected two wrapped lines, got %d", len(f.lines))
	}
	if len(f.lines[0].items) != 2 || len(f.lines[1].items) != 2 {
		t.Fatalf("expected 2 items per line, got %d and %d", len(f.lines[0].items), len(f.lines[1].items))
	}
	for i, it := range f.lines[0].items {
		if it.flowable != children[i] {
			t.Fatalf("line 0 item %d lost source order", i)
		}
	}
	for i, it := range f.lines[1].items {
		if it.flowable != children[2+i] {
			t.Fatalf("line 1 item %d lost source order", i)
		}
	}
	if f.lines[1].items[0].rect.Y <= f.lines[0].items[0].rect.Y {
		t.Fatalf("expected second line positioned after the first on the cross axis")
	}
}
