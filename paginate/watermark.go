package paginate

import (
	"github.com/dociq/pagepdf/canvas"
	"github.com/dociq/pagepdf/css"
	"github.com/dociq/pagepdf/flow"
	"github.com/dociq/pagepdf/numeric"
)

// WatermarkLayer is below-flow or above-flow paint order (§4.5
// "Watermark").
type WatermarkLayer int

const (
	WatermarkBackground WatermarkLayer = iota
	WatermarkOverlay
)

// WatermarkKind selects what a watermark paints.
type WatermarkKind int

const (
	WatermarkText WatermarkKind = iota
	WatermarkHTML
	WatermarkImage
)

// WatermarkSemantic tags how the watermark should be exposed to PDF
// consumers: a normal visible mark, a non-content artifact (excluded from
// accessible structure and text extraction), or an optional-content-group
// layer a viewer can toggle.
type WatermarkSemantic int

const (
	SemanticVisual WatermarkSemantic = iota
	SemanticArtifact
	SemanticOCG
)

// Watermark is one layer applied on every page unless Pages filters it
// down to a subset (§4.5).
type Watermark struct {
	Layer    WatermarkLayer
	Kind     WatermarkKind
	Semantic WatermarkSemantic

	// Pages restricts which 1-based page numbers this watermark applies
	// to. A nil or empty map means every page.
	Pages map[int]bool

	Box numeric.Rect // placement within the page, in the page's own coordinate space

	// WatermarkText fields.
	Text    string
	Style   css.ComputedStyle
	Metrics flow.Metrics

	// WatermarkHTML fields: pre-lowered content (§4.2), sized by the caller.
	Content flow.Flowable

	// WatermarkImage fields.
	ImageRef string
}

func (w Watermark) appliesTo(pageNumber int) bool {
	if len(w.Pages) == 0 {
		return true
	}
	return w.Pages[pageNumber]
}

// paint emits this watermark's commands into cv.
func (w Watermark) paint(cv *canvas.Canvas) {
	switch w.Kind {
	case WatermarkText:
		metrics := w.Metrics
		if metrics == nil {
			metrics = flow.DefaultMetrics{}
		}
		run := flow.NewTextRun(w.Style, w.Text, metrics, nil)
		run.Wrap(w.Box.W, w.Box.H, 0)
		run.Draw(cv, w.Box)
	case WatermarkHTML:
		if w.Content == nil {
			return
		}
		w.Content.Wrap(w.Box.W, w.Box.H, 0)
		w.Content.Draw(cv, w.Box)
	case WatermarkImage:
		m := canvas.Matrix{w.Box.W.Points(), 0, 0, w.Box.H.Points(), w.Box.X.Points(), w.Box.Y.Points()}
		cv.DrawImage(w.ImageRef, m)
	}
}

// paintWatermarks paints every watermark in layer that applies to
// pageNumber, in declaration order.
func paintWatermarks(cv *canvas.Canvas, watermarks []Watermark, layer WatermarkLayer, pageNumber int) {
	for _, wm := range watermarks {
		if wm.Layer == layer && wm.appliesTo(pageNumber) {
			wm.paint(cv)
		}
	}
}
