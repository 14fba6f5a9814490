package flow

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/dociq/pagepdf/canvas"
	"github.com/dociq/pagepdf/css"
	"github.com/dociq/pagepdf/diagnostics"
	"github.com/dociq/pagepdf/numeric"
)

// Metrics resolves per-rune advance widths for a font at a given size,
// the narrow seam flow needs from the font subsystem. The production
// implementation (wired at the engine layer) reads advances from the
// registered font bytes; a simple proportional-width model is used by
// default so layout tests don't need embedded font bytes.
type Metrics interface {
	// Advance returns the advance width of r at the given font size, and
	// whether the font covers the glyph (false makes TextRun record a
	// glyph-coverage diagnostic).
	Advance(r rune, family []string, size numeric.Length, weight int, italic bool) (numeric.Length, bool)
	LineHeight(size numeric.Length) numeric.Length
}

// DefaultMetrics is a proportional-width approximation: each rune
// advances by a fixed fraction of the font's em size, close enough to
// common sans-serif metrics for deterministic layout without embedded
// font bytes.
type DefaultMetrics struct{}

func (DefaultMetrics) Advance(r rune, _ []string, size numeric.Length, _ int, _ bool) (numeric.Length, bool) {
	frac := 0.55
	switch {
	case r == ' ':
		frac = 0.28
	case unicode.IsUpper(r):
		frac = 0.62
	case unicode.IsDigit(r):
		frac = 0.56
	case unicode.IsPunct(r):
		frac = 0.3
	}
	return size.Mul(frac), true
}

func (DefaultMetrics) LineHeight(size numeric.Length) numeric.Length { return size.Mul(1.2) }

// grapheme is one source grapheme cluster with its measured advance.
type grapheme struct {
	text    string
	advance numeric.Length
	// breakable reports whether a line break may occur immediately after
	// this grapheme (§4.4 "breakable-opportunity positions").
	breakable bool
	isSpace   bool
}

// TextRun is a single unbreakable-font run of text (§3 Flowable variants)
// and performs its own line breaking.
type TextRun struct {
	baseFlowable
	Text      string
	graphemes []grapheme
	metrics   Metrics
	report    *diagnostics.Report

	lines []textLine
}

type textLine struct {
	graphemes []grapheme
	width     numeric.Length
}

// NewTextRun builds a text-run flowable, normalizing to NFC and
// segmenting into grapheme clusters without re-ordering (§4.2 "Pseudo
// text content").
func NewTextRun(style css.ComputedStyle, text string, metrics Metrics, report *diagnostics.Report) *TextRun {
	if metrics == nil {
		metrics = DefaultMetrics{}
	}
	normalized := norm.NFC.String(text)
	t := &TextRun{baseFlowable: baseFlowable{Style: style}, Text: normalized, metrics: metrics, report: report}
	t.graphemes = segmentGraphemes(normalized)
	return t
}

// segmentGraphemes performs a practical grapheme-cluster split: a base
// rune followed by any combining marks forms one cluster. This covers the
// common case without a full Unicode text-segmentation table.
func segmentGraphemes(s string) []grapheme {
	var out []grapheme
	runes := []rune(s)
	i := 0
	for i < len(runes) {
		start := i
		i++
		for i < len(runes) && unicode.Is(unicode.Mn, runes[i]) {
			i++
		}
		cluster := string(runes[start:i])
		isSpace := runes[start] == ' ' || runes[start] == '\t'
		breakable := isSpace || runes[start] == '­' // soft hyphen
		out = append(out, grapheme{text: cluster, isSpace: isSpace, breakable: breakable})
	}
	return out
}

func (t *TextRun) measure(size numeric.Length) {
	fam := t.Style.Font.Family
	for i := range t.graphemes {
		r := []rune(t.graphemes[i].text)[0]
		adv, covered := t.metrics.Advance(r, fam, size, t.Style.Font.Weight, t.Style.Font.Italic)
		t.graphemes[i].advance = adv
		if !covered && t.report != nil {
			t.report.Add(diagnostics.Record{Kind: diagnostics.KindGlyphCoverage, Where: "flow.text", Requested: string(r)})
		}
	}
}

// wrapLines performs fixed-point line breaking at breakable-opportunity
// positions (§4.4 "Text"). nowrap disables breaking; anywhere permits
// grapheme-level splitting when no breakable opportunity exists.
func wrapLines(gs []grapheme, availW numeric.Length, nowrap, anywhere bool) []textLine {
	if len(gs) == 0 {
		return nil
	}
	if nowrap {
		var w numeric.Length
		for _, g := range gs {
			w = w.Add(g.advance)
		}
		return []textLine{{graphemes: gs, width: w}}
	}

	var lines []textLine
	var cur []grapheme
	var curW numeric.Length
	lastBreak := -1
	lastBreakW := numeric.Zero

	flushTo := func(idx int, w numeric.Length) {
		lines = append(lines, textLine{graphemes: append([]grapheme{}, cur[:idx]...), width: w})
		rest := append([]grapheme{}, cur[idx:]...)
		cur = rest
		curW = curW.Sub(w)
		lastBreak = -1
	}

	for _, g := range gs {
		cur = append(cur, g)
		curW = curW.Add(g.advance)
		if curW > availW && len(cur) > 1 {
			if lastBreak >= 0 {
				flushTo(lastBreak+1, lastBreakW)
				continue
			}
			if anywhere {
				flushTo(len(cur)-1, curW.Sub(g.advance))
				continue
			}
			// No break opportunity and not anywhere: overflow, keep going.
		}
		if g.breakable {
			lastBreak = len(cur) - 1
			lastBreakW = curW
		}
	}
	if len(cur) > 0 {
		lines = append(lines, textLine{graphemes: cur, width: curW})
	}
	return lines
}

func (t *TextRun) Wrap(availW, availH numeric.Length, epoch int) WrapResult {
	if r, ok := t.cached(availW, availH, epoch); ok {
		t.lastWrap = r
		return r
	}
	t.measure(t.Style.Font.Size)
	nowrap := false // white-space is not consulted: TextRun always wraps at break opportunities
	anywhere := false
	t.lines = wrapLines(t.graphemes, availW, nowrap, anywhere)

	lineH := t.metrics.LineHeight(t.Style.Font.Size)
	var maxW numeric.Length
	for _, l := range t.lines {
		if l.width > maxW {
			maxW = l.width
		}
	}
	h := lineH.Mul(float64(len(t.lines)))
	result := WrapResult{Size: numeric.Size{W: maxW, H: h}, Baseline: lineH.Mul(0.8), CanSplit: len(t.lines) > 1}
	t.store(availW, availH, epoch, result)
	t.lastWrap = result
	return result
}

func (t *TextRun) StyleRef() *css.ComputedStyle { return &t.Style }

// Split splits at a line boundary, enforcing widow/orphan minimums (§4.5,
// §8 "Widows/orphans satisfied even when the last line of a paragraph
// starts in the last available line of a page").
func (t *TextRun) Split(boundary numeric.Length) SplitResult {
	lineH := t.metrics.LineHeight(t.Style.Font.Size)
	if lineH <= 0 || len(t.lines) == 0 {
		return SplitResult{Outcome: SplitOverflow, Reason: "no content to split"}
	}
	maxLines := int(boundary / lineH)
	const minOrphans, minWidows = 2, 2

	if maxLines >= len(t.lines) {
		return SplitResult{Outcome: SplitPlaced, Placed: t, PlacedH: lineH.Mul(float64(len(t.lines)))}
	}
	if maxLines < minOrphans {
		return SplitResult{Outcome: SplitOverflow, Reason: "orphan minimum not satisfied in remaining frame"}
	}
	if len(t.lines)-maxLines < minWidows {
		maxLines = len(t.lines) - minWidows
		if maxLines < minOrphans {
			return SplitResult{Outcome: SplitOverflow, Reason: "widow minimum not satisfiable"}
		}
	}
	placedLines := t.lines[:maxLines]
	remLines := t.lines[maxLines:]

	placedText := joinLines(placedLines)
	remText := joinLines(remLines)

	placed := NewTextRun(t.Style, placedText, t.metrics, t.report)
	placed.lines = placedLines
	remainder := NewTextRun(t.Style, remText, t.metrics, t.report)
	remainder.lines = remLines

	return SplitResult{Outcome: SplitPartial, Placed: placed, PlacedH: lineH.Mul(float64(maxLines)), Remainder: remainder}
}

func joinLines(lines []textLine) string {
	var b strings.Builder
	for _, l := range lines {
		for _, g := range l.graphemes {
			b.WriteString(g.text)
		}
	}
	return b.String()
}

func (t *TextRun) Draw(cv *canvas.Canvas, box numeric.Rect) {
	lineH := t.metrics.LineHeight(t.Style.Font.Size)
	cv.BeginText()
	cv.SetFont(primaryFont(t.Style.Font), t.Style.Font.Size, lineH)
	cv.SetFillColor(toRGBA(t.Style.Color))
	y := box.Y.Add(box.H).Sub(t.lastWrap.Baseline)
	for i, line := range t.lines {
		if i == 0 {
			cv.MoveText(box.X, y)
		} else {
			cv.MoveText(numeric.Zero, lineH.Mul(-1))
		}
		cv.ShowText(joinLines([]textLine{line}))
	}
	cv.EndText()
}

func primaryFont(f css.Font) string {
	if len(f.Family) > 0 {
		return f.Family[0]
	}
	return "Helvetica"
}
