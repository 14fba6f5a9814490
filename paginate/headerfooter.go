package paginate

import (
	"strconv"
	"strings"

	"github.com/dociq/pagepdf/canvas"
	"github.com/dociq/pagepdf/css"
	"github.com/dociq/pagepdf/diagnostics"
	"github.com/dociq/pagepdf/flow"
	"github.com/dociq/pagepdf/numeric"
)

// HeaderFooter is a fixed-geometry sub-frame (§4.5 "HTML header/footer
// content is laid out inside a dedicated sub-frame with explicit x,
// y-from-edge, width, height") whose text varies by page via the
// first/each/last variant rule.
type HeaderFooter struct {
	X, Y, W, H numeric.Length // Y is measured from the nearest page edge: top for a header, bottom for a footer.
	Style      css.ComputedStyle

	First string
	Each  string
	Last  string
}

// textFor resolves which variant's template string applies to a page.
// "each" is used whenever neither "first" nor "last" applies (§4.5).
func (hf *HeaderFooter) textFor(pageNumber, totalPages int) string {
	if pageNumber == 1 && hf.First != "" {
		return hf.First
	}
	if pageNumber == totalPages && hf.Last != "" {
		return hf.Last
	}
	return hf.Each
}

// SubstContext carries the values available to {page}/{pages}/{sum:key}/
// {total:key} substitutions (§4.5 "Headers/footers").
type SubstContext struct {
	Page     int
	Pages    int
	PageSums map[string]float64
	Totals   map[string]float64
}

// substitute expands every {..} placeholder in raw against ctx. Unknown
// placeholders and unresolvable aggregator keys are left as empty string
// and recorded as a template_error diagnostic rather than propagated as
// a render failure.
func substitute(raw string, ctx SubstContext, report *diagnostics.Report) string {
	var b strings.Builder
	rest := raw
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		closeIdx := strings.IndexByte(rest[open:], '}')
		if closeIdx < 0 {
			b.WriteString(rest)
			break
		}
		closeIdx += open
		b.WriteString(rest[:open])
		key := rest[open+1 : closeIdx]
		b.WriteString(resolvePlaceholder(key, ctx, report))
		rest = rest[closeIdx+1:]
	}
	return b.String()
}

func resolvePlaceholder(key string, ctx SubstContext, report *diagnostics.Report) string {
	switch {
	case key == "page":
		return strconv.Itoa(ctx.Page)
	case key == "pages":
		return strconv.Itoa(ctx.Pages)
	case strings.HasPrefix(key, "sum:"):
		name := strings.TrimPrefix(key, "sum:")
		if v, ok := ctx.PageSums[name]; ok {
			return formatAggValue(v)
		}
	case strings.HasPrefix(key, "total:"):
		name := strings.TrimPrefix(key, "total:")
		if v, ok := ctx.Totals[name]; ok {
			return formatAggValue(v)
		}
	}
	if report != nil {
		report.Add(diagnostics.Record{Kind: diagnostics.KindTemplateError, Where: "paginate.header_footer", Requested: key})
	}
	return ""
}

// formatAggValue formats an aggregate as an integer when it carries no
// fractional part (the common case for counts and whole-unit sums), and
// with two fixed decimal places otherwise.
func formatAggValue(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// paintHeaderFooter resolves the variant template for this page, expands
// its substitutions, lays the result out as a single text run inside the
// frame, and draws it. It returns the resolved text (before layout) so
// callers can inspect what was actually painted.
func paintHeaderFooter(cv *canvas.Canvas, hf *HeaderFooter, ctx SubstContext, page numeric.Size, margins numeric.Edges, isHeader bool, metrics flow.Metrics, report *diagnostics.Report) string {
	if hf == nil {
		return ""
	}
	raw := hf.textFor(ctx.Page, ctx.Pages)
	text := substitute(raw, ctx, report)
	if text == "" {
		return ""
	}

	var box numeric.Rect
	if isHeader {
		top := page.H.Sub(hf.Y)
		box = numeric.Rect{X: hf.X, Y: top.Sub(hf.H), W: hf.W, H: hf.H}
	} else {
		box = numeric.Rect{X: hf.X, Y: hf.Y, W: hf.W, H: hf.H}
	}

	run := flow.NewTextRun(hf.Style, text, metrics, report)
	run.Wrap(box.W, box.H, 0)
	run.Draw(cv, box)
	return text
}
