// Package engine is the builder-configuration surface, asset registry, and
// render entry point (§6) that sits above the ten core components: it
// parses HTML+CSS, drives cascade → lowering → layout → pagination →
// paint → PDF/raster emission, and returns the emitted bytes plus the
// accumulated diagnostics report.
//
// Grounded on the teacher's builder.PDFBuilder fluent interface
// (builder/builder.go), generalized from "append pages/fonts to an
// in-progress document" to "configure one render of an HTML+CSS
// document" — the With* chaining style carries over, the receiver
// changes from a page-at-a-time PDF assembler to a whole-document
// render configuration.
package engine

import (
	"github.com/dociq/pagepdf/numeric"
	"github.com/dociq/pagepdf/paginate"
	"github.com/dociq/pagepdf/pdfa"
	"github.com/dociq/pagepdf/raster"
	"github.com/dociq/pagepdf/writer"
)

// JITMode selects the diagnostics verbosity of §6.1 `jit_mode`.
type JITMode string

const (
	JITOff    JITMode = "off"
	JITPlan   JITMode = "plan"
	JITLayout JITMode = "layout"
	JITPaint  JITMode = "paint"
)

// HeaderFooterConfig configures one header or footer sub-frame (§4.5,
// §6.1 `header_first|each|last`/`footer_first|each|last`): fixed
// geometry, and the three text-variant templates substituted per page.
type HeaderFooterConfig struct {
	X, Y, W, H float64 // points; Y measured from the relevant page edge
	First      string
	Each       string
	Last       string
}

// WatermarkConfig configures one watermark layer (§4.5 "Watermark", §6.1
// `watermark`/`watermark_*`).
type WatermarkConfig struct {
	Layer    paginate.WatermarkLayer
	Kind     paginate.WatermarkKind
	Semantic paginate.WatermarkSemantic
	Text     string
	ImageRef string
	Content  []byte // HTML fragment, for WatermarkHTML
	Box      numeric.Rect
	Opacity  float64
	Rotation float64
	Font     string
	Color    [3]float64
	Pages    map[int]bool
}

// Config is the full set of engine options of §6.1. It is immutable once
// built by Builder; Render/Batch never mutate it.
type Config struct {
	PageWidth, PageHeight float64 // points
	Margin                numeric.Edges
	PageMargins           map[string]numeric.Edges // "1","2",...,"n" (§4.5)

	ReuseXObjects     bool
	SVGFormXObjects   bool
	SVGRasterFallback bool
	SubsetFonts       bool // fonts.Subset: shrink embedded fonts to used glyphs (default true)

	// ImageQuality (1-100) and ImageMaxPPI re-encode and downsample placed
	// images to their actual on-page display resolution (0 disables both;
	// optimize.Optimizer.optimizeImages, driven by a content-stream trace
	// of each image's placed size).
	ImageQuality int
	ImageMaxPPI  float64

	UnicodeSupport bool
	ShapeText      bool
	UnicodeMetrics bool

	PDFVersion writer.PDFVersion
	PDFProfile writer.Profile
	ColorSpace writer.ColorSpace

	OutputIntent *writer.OutputIntentConfig
	PDFALevel    pdfa.Level

	DocumentLang  string
	DocumentTitle string

	Header HeaderFooterVariants
	Footer HeaderFooterVariants

	PaginatedContext paginate.AggregatorSpec

	Watermarks []WatermarkConfig

	JITMode JITMode
	Debug   bool
	DebugOut string
	Perf     bool
	PerfOut  string

	Raster        bool
	RasterOptions raster.Options

	Gate Gate
}

// HeaderFooterVariants groups the three page-position variants (§4.5
// "first, each, last") under one fixed frame geometry; most documents
// configure at most one of these per header/footer.
type HeaderFooterVariants struct {
	*HeaderFooterConfig
}

// Gate mirrors diagnostics.Gate at the config surface (§7 "Gating
// policy") so callers configure fail-on behavior alongside every other
// render option instead of threading a second argument through Render.
type Gate struct {
	FailOnOverflow     bool
	FailOnMissingGlyph bool
	FailOnFontSubst    bool
	FailOnBudget       bool
	AllowFallbacks     bool
}

// DefaultConfig is Letter-ish A4-free defaults: US Letter at 1in margins,
// PDF 1.7, RGB, no tagging — the common case for transactional documents.
func DefaultConfig() Config {
	return Config{
		PageWidth:  612,
		PageHeight: 792,
		Margin:     numeric.Edges{Top: numeric.FromInches(1), Right: numeric.FromInches(1), Bottom: numeric.FromInches(1), Left: numeric.FromInches(1)},
		PDFVersion: writer.PDF17,
		PDFProfile: writer.ProfileNone,
		ColorSpace:  writer.ColorSpaceRGB,
		ShapeText:   true,
		SubsetFonts: true,
	}
}

// Builder is the fluent configuration surface of §6.1. Each With* method
// returns the same *Builder so calls chain; Build snapshots the
// accumulated Config by value.
type Builder struct {
	cfg Config
}

// NewBuilder starts from DefaultConfig.
func NewBuilder() *Builder {
	b := &Builder{cfg: DefaultConfig()}
	return b
}

func (b *Builder) WithPageSize(widthPt, heightPt float64) *Builder {
	b.cfg.PageWidth, b.cfg.PageHeight = widthPt, heightPt
	return b
}

// WithPaperSize accepts a named paper key (§6.1 "lengths with unit, or
// named paper key"). Unknown keys leave the current page size untouched.
func (b *Builder) WithPaperSize(name string) *Builder {
	if w, h, ok := paperSize(name); ok {
		b.cfg.PageWidth, b.cfg.PageHeight = w, h
	}
	return b
}

func paperSize(name string) (w, h float64, ok bool) {
	switch name {
	case "letter", "Letter", "LETTER":
		return 612, 792, true
	case "legal", "Legal":
		return 612, 1008, true
	case "a4", "A4":
		return 595.28, 841.89, true
	case "a3", "A3":
		return 841.89, 1190.55, true
	case "a5", "A5":
		return 419.53, 595.28, true
	}
	return 0, 0, false
}

func (b *Builder) WithMargin(topPt, rightPt, bottomPt, leftPt float64) *Builder {
	b.cfg.Margin = numeric.Edges{
		Top: numeric.FromPoints(topPt), Right: numeric.FromPoints(rightPt),
		Bottom: numeric.FromPoints(bottomPt), Left: numeric.FromPoints(leftPt),
	}
	return b
}

// WithPageMargins sets the per-page margin override map (§4.5 "Per-page
// margin overrides use keys 1, 2, ..., n"). key is "1", "2", ... or "n".
func (b *Builder) WithPageMargins(key string, topPt, rightPt, bottomPt, leftPt float64) *Builder {
	if b.cfg.PageMargins == nil {
		b.cfg.PageMargins = map[string]numeric.Edges{}
	}
	b.cfg.PageMargins[key] = numeric.Edges{
		Top: numeric.FromPoints(topPt), Right: numeric.FromPoints(rightPt),
		Bottom: numeric.FromPoints(bottomPt), Left: numeric.FromPoints(leftPt),
	}
	return b
}

func (b *Builder) WithReuseXObjects(v bool) *Builder     { b.cfg.ReuseXObjects = v; return b }
func (b *Builder) WithSVGFormXObjects(v bool) *Builder   { b.cfg.SVGFormXObjects = v; return b }
func (b *Builder) WithSVGRasterFallback(v bool) *Builder { b.cfg.SVGRasterFallback = v; return b }
func (b *Builder) WithSubsetFonts(v bool) *Builder       { b.cfg.SubsetFonts = v; return b }

// WithImageOptimization enables the placed-resolution image re-encode pass
// (§4.7 "Resource deduplication" sibling concern): quality is a 1-100
// JPEG quality target (0 leaves image bytes untouched), maxPPI caps the
// downsampled resolution relative to each image's largest on-page display
// size (0 disables downsampling).
func (b *Builder) WithImageOptimization(quality int, maxPPI float64) *Builder {
	b.cfg.ImageQuality, b.cfg.ImageMaxPPI = quality, maxPPI
	return b
}

func (b *Builder) WithUnicodeSupport(v bool) *Builder { b.cfg.UnicodeSupport = v; return b }
func (b *Builder) WithShapeText(v bool) *Builder       { b.cfg.ShapeText = v; return b }
func (b *Builder) WithUnicodeMetrics(v bool) *Builder   { b.cfg.UnicodeMetrics = v; return b }

func (b *Builder) WithPDFVersion(v writer.PDFVersion) *Builder { b.cfg.PDFVersion = v; return b }
func (b *Builder) WithPDFProfile(v writer.Profile) *Builder     { b.cfg.PDFProfile = v; return b }
func (b *Builder) WithColorSpace(v writer.ColorSpace) *Builder  { b.cfg.ColorSpace = v; return b }

func (b *Builder) WithOutputIntent(identifier, info string, icc []byte) *Builder {
	b.cfg.OutputIntent = &writer.OutputIntentConfig{Identifier: identifier, Info: info, ICCProfile: icc}
	return b
}

func (b *Builder) WithDocumentLang(v string) *Builder  { b.cfg.DocumentLang = v; return b }
func (b *Builder) WithDocumentTitle(v string) *Builder { b.cfg.DocumentTitle = v; return b }

func (b *Builder) WithHeader(v HeaderFooterConfig) *Builder {
	b.cfg.Header = HeaderFooterVariants{&v}
	return b
}

func (b *Builder) WithFooter(v HeaderFooterConfig) *Builder {
	b.cfg.Footer = HeaderFooterVariants{&v}
	return b
}

func (b *Builder) WithPaginatedContext(aggs paginate.AggregatorSpec) *Builder {
	b.cfg.PaginatedContext = aggs
	return b
}

func (b *Builder) WithWatermark(v WatermarkConfig) *Builder {
	b.cfg.Watermarks = append(b.cfg.Watermarks, v)
	return b
}

func (b *Builder) WithJITMode(v JITMode) *Builder { b.cfg.JITMode = v; return b }

func (b *Builder) WithDebug(out string) *Builder {
	b.cfg.Debug, b.cfg.DebugOut = true, out
	return b
}

func (b *Builder) WithPerf(out string) *Builder {
	b.cfg.Perf, b.cfg.PerfOut = true, out
	return b
}

func (b *Builder) WithRaster(opts raster.Options) *Builder {
	b.cfg.Raster, b.cfg.RasterOptions = true, opts
	return b
}

func (b *Builder) WithGate(g Gate) *Builder { b.cfg.Gate = g; return b }

// Build snapshots the accumulated configuration.
func (b *Builder) Build() Config { return b.cfg }
