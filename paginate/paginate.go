// Package paginate implements the pagination state machine (§4.5): it
// fragments a flowable story across frames and pages, applies per-page
// template rotation and margin overrides, and paints headers, footers,
// and watermarks around the placed content.
//
// The teacher's layout.Engine (layout/layout.go) drives a single running
// cursor and calls checkPageBreak before each block to decide whether to
// start a fresh page; this package generalizes that cursor-and-threshold
// idea to the flowable Wrap/Split contract, where the "threshold" is the
// remaining block-axis extent of the current frame rather than a fixed
// line height.
package paginate

import (
	"strconv"

	"github.com/dociq/pagepdf/canvas"
	"github.com/dociq/pagepdf/diagnostics"
	"github.com/dociq/pagepdf/flow"
	"github.com/dociq/pagepdf/numeric"
)

// maxConvergenceIterations bounds the percent-dependent re-wrap loop
// (§4.5 "Convergence"). Exceeding it is a non-convergence diagnostic, not
// an error: the engine keeps the last stable layout.
const maxConvergenceIterations = 4

// maxEmptyFrameAdvances bounds how many times the state machine may
// advance to a fresh page without placing anything before it gives up
// and reports the remaining story as overflow (content that can never
// fit, e.g. a box wider than every template's content area).
const maxEmptyFrameAdvances = 8

// DocTemplate is the ordered list of page templates a document rotates
// through. Page i uses templates[min(i, len(templates)-1)] (§4.5
// "Page-template selection").
type DocTemplate struct {
	Pages []PageTemplate
}

// TemplateFor returns the template that applies to the given zero-based
// page index, clamping to the last template once the list is exhausted.
func (d DocTemplate) TemplateFor(pageIndex int) PageTemplate {
	if len(d.Pages) == 0 {
		return PageTemplate{Size: numeric.Size{W: numeric.FromPoints(612), H: numeric.FromPoints(792)}}
	}
	if pageIndex >= len(d.Pages) {
		pageIndex = len(d.Pages) - 1
	}
	return d.Pages[pageIndex]
}

// PageTemplate describes one page's geometry, margin overrides,
// header/footer sub-frames, and watermark layers.
type PageTemplate struct {
	Size    numeric.Size
	Margins numeric.Edges

	// MarginOverrides keys are "1", "2", ... for specific 1-based page
	// numbers, and "n" for "each remaining page" (§4.5). Missing keys
	// fall back to Margins.
	MarginOverrides map[string]numeric.Edges

	// Header and Footer sub-frames keep one fixed geometry across the
	// first/each/last text variants (§4.5): only the substituted text
	// differs by page, not the frame's box.
	Header *HeaderFooter
	Footer *HeaderFooter

	Watermarks []Watermark
}

// marginsFor resolves the effective margin for a 1-based page number
// against this template's base margin and overrides.
func (pt PageTemplate) marginsFor(pageNumber int) numeric.Edges {
	if pt.MarginOverrides != nil {
		if m, ok := pt.MarginOverrides[strconv.Itoa(pageNumber)]; ok {
			return m
		}
		if m, ok := pt.MarginOverrides["n"]; ok {
			return m
		}
	}
	return pt.Margins
}

// Page is one finished page: its painted canvas, the content box placed
// content occupied, and the per-page aggregate sums available for
// callers that want to inspect substitution inputs after the fact.
type Page struct {
	Canvas     *canvas.Canvas
	Size       numeric.Size
	ContentBox numeric.Rect
	PageNumber int // 1-based
	HeaderText string
	FooterText string
	PageSums   map[string]float64
}

// Result is the outcome of a full pagination run.
type Result struct {
	Pages      []Page
	Totals     map[string]float64 // document-wide aggregate totals, §4.5
	Overflowed bool                // true if some story content could never be placed
}

// Paginator drives the state machine described in §4.5 over one story
// tree. A Paginator is single-use: construct one per render.
type Paginator struct {
	Template DocTemplate
	Aggs     AggregatorSpec
	Report   *diagnostics.Report
	Metrics  flow.Metrics
}

// NewPaginator builds a Paginator bound to a document template, the
// declared aggregators, and the diagnostics sink shared with the rest of
// the pipeline.
func NewPaginator(tmpl DocTemplate, aggs AggregatorSpec, report *diagnostics.Report, metrics flow.Metrics) *Paginator {
	if metrics == nil {
		metrics = flow.DefaultMetrics{}
	}
	return &Paginator{Template: tmpl, Aggs: aggs, Report: report, Metrics: metrics}
}

// placement records one page's frame decisions made during the first
// pass, before {pages} and document totals are known.
type placement struct {
	pageNumber int
	tmpl       PageTemplate
	margins    numeric.Edges
	contentBox numeric.Rect
	placed     flow.Flowable
	pageSums   map[string]float64
}

// Paginate fragments story across pages per §4.5 and paints each page's
// content, header, footer, and watermark layers into its own canvas.
//
// Document-wide aggregate totals (§4.5 "{total:key}") only depend on the
// data-feed markers present in the story, not on how it gets split across
// pages, so they're computed once up front. The total page count that
// {pages} substitutes does depend on the split, so headers/footers are
// painted in a second pass once every page boundary is known.
func (p *Paginator) Paginate(story flow.Flowable) Result {
	totals := computeTotals(story, p.Aggs)
	placements, overflowed := p.place(story)
	totalPages := len(placements)

	pages := make([]Page, 0, totalPages)
	for _, pl := range placements {
		ctx := SubstContext{Page: pl.pageNumber, Pages: totalPages, PageSums: pl.pageSums, Totals: totals}
		cv := canvas.New()

		paintWatermarks(cv, pl.tmpl.Watermarks, WatermarkBackground, pl.pageNumber)
		if pl.placed != nil {
			pl.placed.Draw(cv, pl.contentBox)
		}

		headerText := paintHeaderFooter(cv, pl.tmpl.Header, ctx, pl.tmpl.Size, pl.margins, true, p.Metrics, p.Report)
		footerText := paintHeaderFooter(cv, pl.tmpl.Footer, ctx, pl.tmpl.Size, pl.margins, false, p.Metrics, p.Report)
		paintWatermarks(cv, pl.tmpl.Watermarks, WatermarkOverlay, pl.pageNumber)

		pages = append(pages, Page{
			Canvas: cv, Size: pl.tmpl.Size, ContentBox: pl.contentBox,
			PageNumber: pl.pageNumber, HeaderText: headerText, FooterText: footerText,
			PageSums: pl.pageSums,
		})
	}

	if len(pages) == 0 {
		// Empty document still produces one page (§8 boundary behavior).
		tmpl := p.Template.TemplateFor(0)
		margins := tmpl.marginsFor(1)
		box := contentArea(tmpl.Size, margins, frameH(tmpl.Header), frameH(tmpl.Footer))
		pages = append(pages, Page{Canvas: canvas.New(), Size: tmpl.Size, ContentBox: box, PageNumber: 1})
	}

	return Result{Pages: pages, Totals: totals, Overflowed: overflowed}
}

// place runs the Placed/Split/Overflow state machine (§4.5) to find every
// page boundary, without painting anything yet.
func (p *Paginator) place(story flow.Flowable) ([]placement, bool) {
	var placements []placement
	current := story
	pageIndex := 0
	emptyAdvances := 0
	overflowed := false

	for current != nil {
		pageNumber := pageIndex + 1
		tmpl := p.Template.TemplateFor(pageIndex)
		margins := tmpl.marginsFor(pageNumber)
		contentBox := contentArea(tmpl.Size, margins, frameH(tmpl.Header), frameH(tmpl.Footer))

		wrapConverged(current, contentBox.W, contentBox.H, pageIndex, p.Report)
		split := current.Split(contentBox.H)

		switch split.Outcome {
		case flow.SplitPlaced, flow.SplitPartial:
			placements = append(placements, placement{
				pageNumber: pageNumber, tmpl: tmpl, margins: margins,
				contentBox: contentBox, placed: split.Placed, pageSums: pageLocalSums(split.Placed, p.Aggs),
			})
			if split.Outcome == flow.SplitPlaced {
				current = nil
			} else {
				current = split.Remainder
				pageIndex++
			}
			emptyAdvances = 0

		case flow.SplitOverflow:
			emptyAdvances++
			if emptyAdvances > maxEmptyFrameAdvances {
				if p.Report != nil {
					p.Report.Add(diagnostics.Record{Kind: diagnostics.KindLayoutOverflow, Where: "paginate", Requested: split.Reason})
				}
				overflowed = true
				current = nil
				continue
			}
			placements = append(placements, placement{
				pageNumber: pageNumber, tmpl: tmpl, margins: margins,
				contentBox: contentBox, pageSums: map[string]float64{},
			})
			pageIndex++
		}
	}
	return placements, overflowed
}

// wrapConverged re-wraps the flowable up to maxConvergenceIterations
// times, stopping as soon as the measured size stabilizes. Percent-based
// sizing that depends on a child's own content size (§4.5 "Convergence")
// can require more than one pass to settle; most trees converge in one.
func wrapConverged(f flow.Flowable, availW, availH numeric.Length, epoch int, report *diagnostics.Report) flow.WrapResult {
	var last flow.WrapResult
	for i := 0; i < maxConvergenceIterations; i++ {
		wr := f.Wrap(availW, availH, epoch)
		if i > 0 && wr.Size == last.Size {
			return wr
		}
		last = wr
	}
	if report != nil {
		report.Add(diagnostics.Record{Kind: diagnostics.KindNonConvergence, Where: "paginate.wrap"})
	}
	return last
}

// frameH returns a header/footer frame's reserved height, or zero if the
// frame is absent.
func frameH(hf *HeaderFooter) numeric.Length {
	if hf == nil {
		return 0
	}
	return hf.H
}

// contentArea computes the content frame box inset from the page edges
// by margins and the header/footer sub-frame heights.
func contentArea(page numeric.Size, margins numeric.Edges, headerH, footerH numeric.Length) numeric.Rect {
	x := margins.Left
	w := page.W.Sub(margins.Horizontal())
	y := margins.Bottom.Add(footerH)
	h := page.H.Sub(margins.Vertical()).Sub(headerH).Sub(footerH)
	return numeric.Rect{X: x, Y: y, W: w, H: h}
}
