package flow

import (
	"testing"

	"github.com/dociq/pagepdf/css"
	"github.com/dociq/pagepdf/numeric"
)

func TestTextRunWrapsAtSpaceBoundaries(t *testing.T) {
	style := css.Initial()
	run := NewTextRun(style, "aaaa aaaa aaaa aaaa", nil, nil)

	wide := run.Wrap(numeric.FromPoints(500), numeric.FromPoints(1000), 0)
	if wide.Size.H <= 0 {
		t.Fatalf("expected nonzero measured height")
	}
	wideLines := len(run.lines)

	run2 := NewTextRun(style, "aaaa aaaa aaaa aaaa", nil, nil)
	run2.Wrap(numeric.FromPoints(30), numeric.FromPoints(1000), 0)
	narrowLines := len(run2.lines)

	if narrowLines <= wideLines {
		t.Fatalf("expected narrower available width to produce more lines: wide=%d narrow=%d", wideLines, narrowLines)
	}
}

func fakeLines(n int) []textLine {
	lines := make([]textLine, n)
	for i := range lines {
		lines[i] = textLine{graphemes: []grapheme{{text: "x"}}, width: numeric.FromPoints(5)}
	}
	return lines
}

func TestTextRunSplitRejectsBelowOrphanMinimum(t *testing.T) {
	style := css.Initial()
	run := NewTextRun(style, "", DefaultMetrics{}, nil)
	lineH := DefaultMetrics{}.LineHeight(style.Font.Size)
	run.lines = fakeLines(4)

	split := run.Split(lineH) // fits exactly 1 line: below the 2-line orphan minimum
	if split.Outcome != SplitOverflow {
		t.Fatalf("expected overflow when only 1 line fits, got %v", split.Outcome)
	}
}

func TestTextRunSplitEnforcesWidowMinimum(t *testing.T) {
	style := css.Initial()
	run := NewTextRun(style, "", DefaultMetrics{}, nil)
	lineH := DefaultMetrics{}.LineHeight(style.Font.Size)
	run.lines = fakeLines(4)

	// 3 of 4 lines fit, which would leave a 1-line widow; the split must
	// back off to 2/2 instead (spec.md §4.5 widow/orphan enforcement).
	split := run.Split(lineH.Mul(3))
	if split.Outcome != SplitPartial {
		t.Fatalf("expected partial split, got %v", split.Outcome)
	}
	placed := split.Placed.(*TextRun)
	remainder := split.Remainder.(*TextRun)
	if len(placed.lines) != 2 || len(remainder.lines) != 2 {
		t.Fatalf("expected widow-safe 2/2 split, got placed=%d remainder=%d", len(placed.lines), len(remainder.lines))
	}
}
