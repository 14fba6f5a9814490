package engine

import (
	"github.com/dociq/pagepdf/flow"
	"github.com/dociq/pagepdf/numeric"
	"github.com/dociq/pagepdf/paginate"
)

// buildDocTemplate turns Config's flat page geometry/margins/header/
// footer/watermark options into the single-entry paginate.DocTemplate
// every render uses. §8 scenario S5 exercises per-page margin rotation
// via PageMargins, not a list of distinct PageTemplates, so one
// PageTemplate with a margin-override map is sufficient to cover the
// rotation model DocTemplate.TemplateFor/`templates[min(index,last)]`
// implements for the degenerate (but common) single-template case.
func buildDocTemplate(cfg Config, metrics flow.Metrics) paginate.DocTemplate {
	pt := paginate.PageTemplate{
		Size: numeric.Size{
			W: numeric.FromPoints(cfg.PageWidth),
			H: numeric.FromPoints(cfg.PageHeight),
		},
		Margins:         cfg.Margin,
		MarginOverrides: cfg.PageMargins,
	}

	if cfg.Header.HeaderFooterConfig != nil {
		pt.Header = buildHeaderFooter(*cfg.Header.HeaderFooterConfig)
	}
	if cfg.Footer.HeaderFooterConfig != nil {
		pt.Footer = buildHeaderFooter(*cfg.Footer.HeaderFooterConfig)
	}
	for _, wm := range cfg.Watermarks {
		pt.Watermarks = append(pt.Watermarks, buildWatermark(wm, metrics))
	}

	return paginate.DocTemplate{Pages: []paginate.PageTemplate{pt}}
}

func buildHeaderFooter(c HeaderFooterConfig) *paginate.HeaderFooter {
	return &paginate.HeaderFooter{
		X: numeric.FromPoints(c.X), Y: numeric.FromPoints(c.Y),
		W: numeric.FromPoints(c.W), H: numeric.FromPoints(c.H),
		First: c.First, Each: c.Each, Last: c.Last,
	}
}

func buildWatermark(c WatermarkConfig, metrics flow.Metrics) paginate.Watermark {
	w := paginate.Watermark{
		Layer:    c.Layer,
		Kind:     c.Kind,
		Semantic: c.Semantic,
		Pages:    c.Pages,
		Box:      c.Box,
		Text:     c.Text,
		ImageRef: c.ImageRef,
		Metrics:  metrics,
	}
	w.Style.Color.R, w.Style.Color.G, w.Style.Color.B = c.Color[0], c.Color[1], c.Color[2]
	w.Style.Color.A = 1
	w.Style.Opacity = c.Opacity
	return w
}
