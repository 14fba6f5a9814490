package flow

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/dociq/pagepdf/canvas"
	"github.com/dociq/pagepdf/css"
	"github.com/dociq/pagepdf/diagnostics"
	"github.com/dociq/pagepdf/numeric"
)

// Lowerer walks a parsed DOM under a cascade and produces the Flowable tree
// (C3): style computation dispatches each element to the right flowable
// constructor, generated ::before/::after content becomes extra child
// flowables, and position/transform wrap the in-flow result (§4.2, §4.4).
type Lowerer struct {
	Sheet   *css.Stylesheet
	Metrics Metrics
	Report  *diagnostics.Report
}

// NewLowerer builds a Lowerer bound to a stylesheet, glyph metrics source,
// and the diagnostics sink shared with the rest of the render pipeline.
func NewLowerer(sheet *css.Stylesheet, metrics Metrics, report *diagnostics.Report) *Lowerer {
	if metrics == nil {
		metrics = DefaultMetrics{}
	}
	return &Lowerer{Sheet: sheet, Metrics: metrics, Report: report}
}

// Lower builds the flowable tree rooted at the given DOM element, against
// the initial containing block (the page content box, §4.2).
func (lw *Lowerer) Lower(root *DOMNode, page numeric.Size) Flowable {
	style := css.Compute(lw.Sheet, root, nil, page, lw.Report)
	return lw.lowerElement(root, style, page)
}

// leaf is a replaced-element flowable (img/svg/embedded form XObject):
// fixed intrinsic box, no children, painted via canvas.DrawImage/DrawForm
// (§4.2 "img/svg/embedded-PDF leaf flowables").
type leaf struct {
	baseFlowable
	ref    string
	asForm bool
	w, h   numeric.Length
}

func (l *leaf) StyleRef() *css.ComputedStyle { return &l.Style }

func (l *leaf) Wrap(availW, availH numeric.Length, epoch int) WrapResult {
	w := l.w
	if !l.Style.WidthAuto {
		w = l.Style.Width
	} else if w == 0 {
		w = availW
	}
	h := l.h
	if !l.Style.HeightAuto {
		h = l.Style.Height
	} else if h == 0 && l.w > 0 {
		h = l.h.Mul(w.Points() / l.w.Points())
	}
	result := WrapResult{Size: numeric.Size{W: w, H: h}}
	l.lastWrap = result
	return result
}

func (l *leaf) Split(boundary numeric.Length) SplitResult {
	if l.lastWrap.Size.H <= boundary {
		return SplitResult{Outcome: SplitPlaced, Placed: l, PlacedH: l.lastWrap.Size.H}
	}
	return SplitResult{Outcome: SplitOverflow, Reason: "replaced element does not split"}
}

func (l *leaf) Draw(cv *canvas.Canvas, box numeric.Rect) {
	m := canvas.Matrix{box.W.Points(), 0, 0, box.H.Points(), box.X.Points(), box.Y.Points()}
	if l.asForm {
		cv.DrawForm(l.ref, m)
	} else {
		cv.DrawImage(l.ref, m)
	}
}

// lowerElement takes dom's already-computed style and dispatches to the
// matching Flowable constructor, wrapping the result
// in Positioned/Transformed shells as needed.
func (lw *Lowerer) lowerElement(dom *DOMNode, style css.ComputedStyle, cb numeric.Size) Flowable {
	if style.Display == css.DisplayNone {
		return nil
	}

	tag := strings.ToLower(dom.TagName())
	var built Flowable
	switch {
	case tag == "img" || tag == "svg":
		src, _ := dom.Attr("src")
		built = lw.lowerLeaf(style, src, false)
	case tag == "object" && hasPDFType(dom):
		src, _ := dom.Attr("data")
		built = lw.lowerLeaf(style, src, true)
	case style.Display == css.DisplayFlex:
		built = lw.lowerFlex(dom, style, cb)
	case style.Display == css.DisplayGrid:
		built = lw.lowerGrid(dom, style, cb)
	case style.Display == css.DisplayTable:
		built = lw.lowerTable(dom, style, cb)
	default:
		built = lw.lowerContainer(dom, style, cb, tag)
	}
	if built == nil {
		return nil
	}
	if feeds := parseDataFeeds(dom); len(feeds) > 0 {
		if fs, ok := built.(interface{ setDataFeeds(map[string]float64) }); ok {
			fs.setDataFeeds(feeds)
		}
	}

	if len(style.Transform) > 0 {
		built = NewTransformed(style, built)
	}
	switch style.Position {
	case css.PositionRelative:
		built = NewPositionedRelative(style, built)
	case css.PositionAbsolute:
		built = NewPositionedAbsolute(style, built, false, numeric.Point{})
	case css.PositionFixed:
		built = NewPositionedAbsolute(style, built, true, numeric.Point{})
	}
	return built
}

// parseDataFeeds reads the `data-fb` attribute, formatted "key=value"
// (§4.5 "Paginated context"), into an aggregator contribution map. Absent
// or malformed attributes contribute nothing.
func parseDataFeeds(dom *DOMNode) map[string]float64 {
	raw, ok := dom.Attr("data-fb")
	if !ok {
		return nil
	}
	key, val, found := strings.Cut(raw, "=")
	if !found {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return nil
	}
	return map[string]float64{strings.TrimSpace(key): f}
}

func hasPDFType(dom *DOMNode) bool {
	v, _ := dom.Attr("type")
	return v == "application/pdf"
}

func (lw *Lowerer) lowerLeaf(style css.ComputedStyle, ref string, asForm bool) Flowable {
	w, h := style.Width, style.Height
	if style.WidthAuto {
		w = 0
	}
	if style.HeightAuto {
		h = 0
	}
	return &leaf{baseFlowable: baseFlowable{Style: style}, ref: ref, asForm: asForm, w: w, h: h}
}

// lowerChildren computes style for, and lowers, each in-DOM-order child of
// dom, inserting generated ::before/::after content first/last (§4.2).
func (lw *Lowerer) lowerChildren(dom *DOMNode, parentStyle css.ComputedStyle, cb numeric.Size) []Flowable {
	var out []Flowable
	if before := lw.lowerPseudo(dom, parentStyle, css.PseudoElemBefore, cb); before != nil {
		out = append(out, before)
	}
	for _, kid := range dom.kids {
		if kid.N.Type == html.TextNode {
			if strings.TrimSpace(kid.N.Data) == "" {
				continue
			}
			out = append(out, NewTextRun(parentStyle, kid.N.Data, lw.Metrics, lw.Report))
			continue
		}
		childStyle := css.Compute(lw.Sheet, kid, &parentStyle, cb, lw.Report)
		if f := lw.lowerElement(kid, childStyle, cb); f != nil {
			out = append(out, f)
		}
	}
	if after := lw.lowerPseudo(dom, parentStyle, css.PseudoElemAfter, cb); after != nil {
		out = append(out, after)
	}
	return out
}

func (lw *Lowerer) lowerPseudo(dom *DOMNode, parentStyle css.ComputedStyle, pe css.PseudoElement, cb numeric.Size) Flowable {
	style, raw, ok := css.ComputePseudoElement(lw.Sheet, dom, pe, parentStyle, cb, lw.Report)
	if !ok {
		return nil
	}
	text, ok := css.ResolveContent(raw, dom, lw.Report)
	if !ok {
		return nil
	}
	return NewTextRun(style, text, lw.Metrics, lw.Report)
}

func (lw *Lowerer) lowerContainer(dom *DOMNode, style css.ComputedStyle, cb numeric.Size, tag string) Flowable {
	children := lw.lowerChildren(dom, style, cb)
	marker := ""
	if style.Display == css.DisplayListItem {
		marker = listMarker(dom, tag)
	}
	return NewContainer(style, children, marker)
}

// listMarker produces a deterministic bullet/ordinal marker for a
// list-item element based on its position among element siblings and
// whether the nearest list ancestor is ordered (§4.2 supplemented feature:
// list-style rendering, not explicit in the distilled spec but present in
// every HTML+CSS renderer the corpus models).
func listMarker(dom *DOMNode, tag string) string {
	ordered := false
	for p := dom.parent; p != nil; p = p.parent {
		if strings.ToLower(p.TagName()) == "ol" {
			ordered = true
			break
		}
		if strings.ToLower(p.TagName()) == "ul" {
			break
		}
	}
	if !ordered {
		return "• "
	}
	idx := 0
	if dom.parent != nil {
		for _, sib := range dom.parent.kids {
			if sib.N.Type != html.ElementNode {
				continue
			}
			idx++
			if sib == dom {
				break
			}
		}
	}
	return strconv.Itoa(idx) + ". "
}

func (lw *Lowerer) lowerFlex(dom *DOMNode, style css.ComputedStyle, cb numeric.Size) Flowable {
	children := lw.lowerChildren(dom, style, cb)
	return NewFlex(style, children)
}

func (lw *Lowerer) lowerGrid(dom *DOMNode, style css.ComputedStyle, cb numeric.Size) Flowable {
	children := lw.lowerChildren(dom, style, cb)
	return NewGrid(style, children)
}

// lowerTable flattens table-row-group/table-header-group wrappers to find
// the row elements directly, since Table (§4.4) is row-granular and does
// not model the grouping elements as their own flowables.
func (lw *Lowerer) lowerTable(dom *DOMNode, style css.ComputedStyle, cb numeric.Size) Flowable {
	rows := lw.collectRows(dom, style, cb, false)
	fixed := false
	if v, ok := dom.Attr("style"); ok && strings.Contains(v, "table-layout: fixed") {
		fixed = true
	}
	return NewTable(style, rows, fixed)
}

func (lw *Lowerer) collectRows(dom *DOMNode, parentStyle css.ComputedStyle, cb numeric.Size, inHeader bool) []TableRow {
	var rows []TableRow
	for _, kid := range dom.kids {
		if kid.N.Type != html.ElementNode {
			continue
		}
		childStyle := css.Compute(lw.Sheet, kid, &parentStyle, cb, lw.Report)
		switch childStyle.Display {
		case css.DisplayTableHeaderGroup:
			rows = append(rows, lw.collectRows(kid, childStyle, cb, true)...)
		case css.DisplayTableRowGroup:
			rows = append(rows, lw.collectRows(kid, childStyle, cb, inHeader)...)
		case css.DisplayTableRow:
			rows = append(rows, lw.lowerRow(kid, childStyle, cb, inHeader))
		}
	}
	return rows
}

func (lw *Lowerer) lowerRow(dom *DOMNode, rowStyle css.ComputedStyle, cb numeric.Size, isHeader bool) TableRow {
	var cells []Flowable
	for _, kid := range dom.kids {
		if kid.N.Type != html.ElementNode {
			continue
		}
		cellStyle := css.Compute(lw.Sheet, kid, &rowStyle, cb, lw.Report)
		if f := lw.lowerElement(kid, cellStyle, cb); f != nil {
			cells = append(cells, f)
		}
	}
	return TableRow{Cells: cells, IsHeader: isHeader, Splittable: false}
}
