package css

import (
	"testing"

	"github.com/dociq/pagepdf/diagnostics"
	"github.com/dociq/pagepdf/numeric"
)

type fakeElement struct {
	tag      string
	id       string
	classes  []string
	attrs    map[string]string
	parent   *fakeElement
	prevSib  *fakeElement
	index    int
	siblings int
	root     bool
	hasKids  bool
}

func (f *fakeElement) TagName() string { return f.tag }
func (f *fakeElement) ElementID() string { return f.id }
func (f *fakeElement) ClassList() []string { return f.classes }
func (f *fakeElement) Attr(name string) (string, bool) { v, ok := f.attrs[name]; return v, ok }
func (f *fakeElement) Parent() Element {
	if f.parent == nil {
		return nil
	}
	return f.parent
}
func (f *fakeElement) PrevSiblingElement() Element {
	if f.prevSib == nil {
		return nil
	}
	return f.prevSib
}
func (f *fakeElement) ChildIndex() int          { return f.index }
func (f *fakeElement) SiblingCount() int        { return f.siblings }
func (f *fakeElement) IsRootElement() bool      { return f.root }
func (f *fakeElement) HasElementChildren() bool { return f.hasKids }

// S3 — custom-property cycle (spec.md §8 scenario S3).
func TestCustomPropertyCycleFallsBackToFallback(t *testing.T) {
	src := `p{--a: var(--b); --b: var(--a, 12pt); width: var(--a)}`
	report := &diagnostics.Report{}
	sheet := Parse(src, "print", report)
	el := &fakeElement{tag: "p", index: 1, siblings: 1, root: true}
	style := Compute(sheet, el, nil, numeric.Size{W: numeric.FromPoints(500)}, report)
	if style.Width.Points() != 12 {
		t.Fatalf("expected width 12pt from fallback, got %v", style.Width.Points())
	}
	if !report.HasKind(diagnostics.KindKnownLoss) {
		t.Fatalf("expected a known-loss diagnostic recording the cycle")
	}
}

func TestSpecificitySourceOrderTieBreak(t *testing.T) {
	src := `p{color:red} p{color:blue}`
	sheet := Parse(src, "print", nil)
	el := &fakeElement{tag: "p", index: 1, siblings: 1, root: true}
	style := Compute(sheet, el, nil, numeric.Size{}, nil)
	if style.Color != (Color{0, 0, 1, 1}) {
		t.Fatalf("expected later same-specificity rule (blue) to win, got %+v", style.Color)
	}
}

func TestImportantWinsOverNormalLaterRule(t *testing.T) {
	src := `p{color:red !important} p{color:blue}`
	sheet := Parse(src, "print", nil)
	el := &fakeElement{tag: "p", index: 1, siblings: 1, root: true}
	style := Compute(sheet, el, nil, numeric.Size{}, nil)
	if style.Color != (Color{1, 0, 0, 1}) {
		t.Fatalf("expected !important rule (red) to win, got %+v", style.Color)
	}
}

func TestAttributeAndClassSelectors(t *testing.T) {
	src := `.big{font-size:20pt} [data-x~="two"]{color:green}`
	sheet := Parse(src, "print", nil)
	el := &fakeElement{tag: "div", classes: []string{"big"}, attrs: map[string]string{"data-x": "one two three"}, index: 1, siblings: 1, root: true}
	style := Compute(sheet, el, nil, numeric.Size{}, nil)
	if style.Font.Size.Points() != 20 {
		t.Fatalf("expected font-size 20pt, got %v", style.Font.Size.Points())
	}
	if style.Color != (Color{0, 0.5, 0, 1}) {
		t.Fatalf("expected green from attribute include-word match, got %+v", style.Color)
	}
}

func TestNthChildOddEven(t *testing.T) {
	n := parseNth("odd")
	if !n.Matches(1) || n.Matches(2) || !n.Matches(3) {
		t.Fatalf("odd nth-child matched wrong indices")
	}
	n2 := parseNth("2n+1")
	if !n2.Matches(1) || n2.Matches(2) || !n2.Matches(3) {
		t.Fatalf("2n+1 nth-child matched wrong indices")
	}
}
