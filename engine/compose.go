package engine

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/dociq/pagepdf/css"
	"github.com/dociq/pagepdf/diagnostics"
	"github.com/dociq/pagepdf/flow"
	"github.com/dociq/pagepdf/fonts"
	"github.com/dociq/pagepdf/ir/semantic"
	"github.com/dociq/pagepdf/numeric"
	"github.com/dociq/pagepdf/optimize"
	"github.com/dociq/pagepdf/paginate"
	"github.com/dociq/pagepdf/reparse"
	"github.com/dociq/pagepdf/writer"
)

// ComposeConfig selects, per overlay page, which registered template PDF
// asset backs it (§4.10 "Composition binding"). TemplateNames lists the
// candidate template assets in the order reparse.CompositionPlan indexes
// them; ByFeature/ByPageTemplate/DefaultTemplateID/FeatureMarkers/
// Translate carry straight through to reparse.CompositionPlan.
type ComposeConfig struct {
	TemplateNames     []string
	ByFeature         map[string]int
	ByPageTemplate    map[int]int
	DefaultTemplateID int
	FeatureMarkers    map[int]string
	TranslateX        float64
	TranslateY        float64
}

// Compose renders htmlSrc/cssSrc as an overlay document, then recomposes
// it over the bound set of vendored templates (§4.10, scenario S4): each
// output page embeds its bound template page as a background Form
// XObject, with the overlay content appended per the binding plan.
func Compose(htmlSrc, cssSrc string, assets *Registry, cfg Config, compose ComposeConfig) (*Result, error) {
	if assets == nil {
		assets = NewRegistry()
	}
	report := &diagnostics.Report{}

	templates := make([]*semantic.Document, 0, len(compose.TemplateNames))
	for _, name := range compose.TemplateNames {
		asset, ok := assets.Get(name)
		if !ok || asset.Kind != AssetPDF {
			return nil, fmt.Errorf("engine: compose: template asset %q not registered as a PDF", name)
		}
		doc, err := reparse.ParseTemplate(asset.Bytes, name, report)
		if err != nil {
			return nil, fmt.Errorf("engine: compose: template %q: %w", name, err)
		}
		templates = append(templates, doc)
	}

	overlayDoc, placed, _, _, err := buildOverlayDocument(htmlSrc, cssSrc, assets, cfg, report, false)
	if err != nil {
		return nil, err
	}

	plan := reparse.CompositionPlan{
		ByFeature:         compose.ByFeature,
		ByPageTemplate:    compose.ByPageTemplate,
		DefaultTemplateID: compose.DefaultTemplateID,
		FeatureMarkers:    compose.FeatureMarkers,
		Translate:         [2]float64{compose.TranslateX, compose.TranslateY},
	}
	composed, err := reparse.Compose(templates, overlayDoc, plan, report)
	if err != nil {
		return nil, fmt.Errorf("engine: compose: %w", err)
	}

	if cfg.SubsetFonts {
		fonts.Subset(composed)
	}

	if err := optimize.New(optimize.Config{
		CombineIdenticalIndirectObjects: cfg.ReuseXObjects,
		CombineDuplicateStreams:         cfg.ReuseXObjects,
		CleanUnusedResources:            true,
		ImageQuality:                    cfg.ImageQuality,
		ImageUpperPPI:                   cfg.ImageMaxPPI,
	}).Optimize(context.Background(), composed); err != nil {
		return nil, fmt.Errorf("engine: compose: optimize document: %w", err)
	}

	writerCfg := writer.Config{
		Version:       cfg.PDFVersion,
		Profile:       cfg.PDFProfile,
		ColorSpace:    cfg.ColorSpace,
		ContentFilter: writer.FilterFlate,
		OutputIntent:  cfg.OutputIntent,
		Metadata:      writer.Metadata{Lang: cfg.DocumentLang, Title: cfg.DocumentTitle},
		PDFALevel:     cfg.PDFALevel,
	}
	pdfBytes, _, err := writer.Write(composed, writerCfg)
	if err != nil {
		return nil, fmt.Errorf("engine: compose: write pdf: %w", err)
	}

	if kind, gated := cfg.Gate.diagnosticsGate().Check(report); gated {
		return nil, &GatedError{Kind: kind}
	}

	return &Result{
		PDF:        pdfBytes,
		SHA256:     sha256.Sum256(pdfBytes),
		Report:     report,
		Totals:     placed.Totals,
		Overflowed: placed.Overflowed,
	}, nil
}

// buildOverlayDocument runs the forward render pipeline through to an
// in-memory semantic.Document, stopping short of Write, so Compose can
// pass it directly into reparse.Compose without a PDF-bytes round trip.
func buildOverlayDocument(htmlSrc, cssSrc string, assets *Registry, cfg Config, report *diagnostics.Report, tagged bool) (*semantic.Document, paginate.Result, *fontCatalog, *imageCatalog, error) {
	var placed paginate.Result

	body, err := parseBody(htmlSrc)
	if err != nil {
		return nil, placed, nil, nil, fmt.Errorf("engine: parse html: %w", err)
	}

	source := assets.CSS()
	if source != "" {
		source += "\n"
	}
	source += cssSrc
	sheet := css.Parse(source, "print", report)

	fc := newFontCatalog(assets, report)
	ic := newImageCatalog(assets)

	page := numeric.Size{W: numeric.FromPoints(cfg.PageWidth), H: numeric.FromPoints(cfg.PageHeight)}
	lw := flow.NewLowerer(sheet, fc, report)
	story := lw.Lower(body, page)

	tmpl := buildDocTemplate(cfg, fc)
	paginator := paginate.NewPaginator(tmpl, cfg.PaginatedContext, report, fc)
	placed = paginator.Paginate(story)

	doc := writer.BuildDocument(writer.BuildInput{
		Pages:  placed.Pages,
		Fonts:  fc,
		Images: ic,
		Metadata: writer.Metadata{
			Lang:  cfg.DocumentLang,
			Title: cfg.DocumentTitle,
		},
		Tagged: tagged,
	}, report)
	return doc, placed, fc, ic, nil
}
