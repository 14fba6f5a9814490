// Package engine is the render entry point (§6): it parses HTML+CSS,
// drives cascade → lowering → layout → pagination → paint → PDF/raster
// emission, and returns the emitted bytes plus the accumulated
// diagnostics report. See config.go for the builder-configuration
// surface and assets.go for the asset registry this package resolves
// fonts and images against.
package engine

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"

	"github.com/dociq/pagepdf/diagnostics"
	"github.com/dociq/pagepdf/flow"
	"github.com/dociq/pagepdf/fonts"
	"github.com/dociq/pagepdf/observability"
	"github.com/dociq/pagepdf/optimize"
	"github.com/dociq/pagepdf/raster"
	"github.com/dociq/pagepdf/writer"
)

// Result is everything one render produces (§6.4): the PDF bytes, their
// content hash, optional page-image bytes, and the diagnostics gathered
// along the way.
type Result struct {
	PDF        []byte
	SHA256     [32]byte
	PageImages [][]byte // populated only when Config.Raster is set
	Report     *diagnostics.Report
	Totals     map[string]float64
	Overflowed bool
}

// GatedError is returned by Render/Batch when the accumulated diagnostics
// report trips the configured Gate (§7 "Gating policy").
type GatedError struct {
	Kind diagnostics.Kind
}

func (e *GatedError) Error() string {
	return fmt.Sprintf("engine: render gated on diagnostic kind %q", e.Kind)
}

// Render runs one document through the full pipeline: HTML parse → CSS
// cascade → flowable lowering (C3) → pagination (C5) → PDF emission (C7),
// with an optional raster pass (C9). assets may be nil for documents that
// reference no registered fonts/images/CSS/templates.
func Render(htmlSrc, cssSrc string, assets *Registry, cfg Config) (*Result, error) {
	if assets == nil {
		assets = NewRegistry()
	}
	report := &diagnostics.Report{}
	sink := buildSink(cfg)
	done := sink.bracket("render")

	doc, placed, fc, ic, err := buildOverlayDocument(htmlSrc, cssSrc, assets, cfg, report, cfg.PDFProfile == writer.ProfileTagged)
	if err != nil {
		done(err)
		return nil, err
	}

	if cfg.SubsetFonts {
		fonts.Subset(doc)
	}

	if err := optimize.New(optimize.Config{
		CombineIdenticalIndirectObjects: cfg.ReuseXObjects,
		CombineDuplicateStreams:         cfg.ReuseXObjects,
		CleanUnusedResources:            true,
		ImageQuality:                    cfg.ImageQuality,
		ImageUpperPPI:                   cfg.ImageMaxPPI,
	}).Optimize(context.Background(), doc); err != nil {
		done(err)
		return nil, fmt.Errorf("engine: optimize document: %w", err)
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
	pdfBytes, _, err := writer.Write(doc, writerCfg)
	if err != nil {
		done(err)
		return nil, fmt.Errorf("engine: write pdf: %w", err)
	}

	if kind, gated := cfg.Gate.diagnosticsGate().Check(report); gated {
		done(&GatedError{Kind: kind})
		return nil, &GatedError{Kind: kind}
	}

	res := &Result{
		PDF:        pdfBytes,
		SHA256:     sha256.Sum256(pdfBytes),
		Report:     report,
		Totals:     placed.Totals,
		Overflowed: placed.Overflowed,
	}

	if cfg.Raster {
		images, err := raster.RasterizePages(placed.Pages, cfg.RasterOptions, fc, ic)
		if err != nil {
			done(err)
			return nil, fmt.Errorf("engine: rasterize pages: %w", err)
		}
		res.PageImages = images
	}

	done(nil)
	return res, nil
}

// diagnosticsGate adapts engine.Gate to diagnostics.Gate.
func (g Gate) diagnosticsGate() diagnostics.Gate {
	return diagnostics.Gate{
		FailOnOverflow:     g.FailOnOverflow,
		FailOnMissingGlyph: g.FailOnMissingGlyph,
		FailOnFontSubst:    g.FailOnFontSubst,
		FailOnBudget:       g.FailOnBudget,
		AllowFallbacks:     g.AllowFallbacks,
	}
}

// buildSink opens this render's JSONL sink (§5 "bracketed per render and
// serialized"): DebugOut when debug is on, otherwise PerfOut when perf is
// on, so with both on only DebugOut is written. A render with neither
// path, or whose file cannot be opened, gets a sink whose writes are no-ops.
func buildSink(cfg Config) *jsonlSink {
	var path string
	switch {
	case cfg.Debug && cfg.DebugOut != "":
		path = cfg.DebugOut
	case cfg.Perf && cfg.PerfOut != "":
		path = cfg.PerfOut
	default:
		return newJSONLSink(nil)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return newJSONLSink(nil)
	}
	return newJSONLSink(f)
}

// parseBody parses htmlSrc and locates its <body> element, the root
// Lower() walks (§4.2 "the initial containing block is the page content
// box", rooted at the document body rather than the synthetic <html>
// wrapper).
func parseBody(htmlSrc string) (*flow.DOMNode, error) {
	doc, err := html.Parse(strings.NewReader(htmlSrc))
	if err != nil {
		return nil, err
	}
	var body *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if body != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
			if body != nil {
				return
			}
		}
	}
	walk(doc)
	if body == nil {
		return nil, fmt.Errorf("no <body> element found")
	}
	return flow.WrapDOM(body), nil
}

// observabilityLogger exposes the render's JSONL sink as a plain
// observability.Logger for collaborators (font/image catalogs, the
// pagination state machine) that only need to log, not bracket.
func observabilityLogger(s *jsonlSink) observability.Logger { return s }
