package engine

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/dociq/pagepdf/diagnostics"
	"github.com/dociq/pagepdf/flow"
	"github.com/dociq/pagepdf/fonts"
	"github.com/dociq/pagepdf/ir/semantic"
	"github.com/dociq/pagepdf/numeric"
)

// standard14 are the base-14 PDF font names that need no embedded font
// program (§6.2 "standard-14 fallback for unregistered family names").
// CSS family names are matched case-insensitively against this table's
// keys; anything else falls back to Helvetica.
var standard14 = map[string]string{
	"helvetica":   "Helvetica",
	"arial":       "Helvetica",
	"sans-serif":  "Helvetica",
	"times":       "Times-Roman",
	"times new roman": "Times-Roman",
	"serif":       "Times-Roman",
	"courier":     "Courier",
	"monospace":   "Courier",
	"courier new": "Courier",
}

// fontCatalog is the asset-backed font resolver of §6.2: it implements
// writer.FontResolver (embedding decisions at emission time) and
// flow.Metrics (advance-width decisions at layout time) off the same
// registered font bytes, so layout and emission never disagree about a
// glyph's width.
//
// Grounded on fonts.LoadOpenType/LoadTrueType/ParseType1 for embedding and
// golang.org/x/image/font/sfnt directly for the per-rune advance lookups
// layout needs ahead of embedding.
type fontCatalog struct {
	registry *Registry
	report   *diagnostics.Report

	mu           sync.Mutex
	embedded     map[string]*semantic.Font
	sfntByFamily map[string]*sfnt.Font
}

func newFontCatalog(registry *Registry, report *diagnostics.Report) *fontCatalog {
	return &fontCatalog{
		registry:     registry,
		report:       report,
		embedded:     map[string]*semantic.Font{},
		sfntByFamily: map[string]*sfnt.Font{},
	}
}

// ResolveFont implements writer.FontResolver.
func (c *fontCatalog) ResolveFont(family string) (*semantic.Font, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.embedded[family]; ok {
		return f, nil
	}
	f, substituted, err := c.loadFont(family)
	if err != nil {
		return nil, err
	}
	c.embedded[family] = f
	if substituted && c.report != nil {
		c.report.Add(diagnostics.Record{
			Kind:      diagnostics.KindFontSubstitution,
			Where:     family,
			Requested: family,
			Produced:  f.BaseFont,
		})
	}
	return f, nil
}

func (c *fontCatalog) loadFont(family string) (f *semantic.Font, substituted bool, err error) {
	if asset, ok := c.registry.Get(family); ok && asset.Kind == AssetFont {
		loaded, err := loadEmbeddableFont(family, asset.Bytes)
		if err != nil {
			return nil, false, fmt.Errorf("engine: embed font %q: %w", family, err)
		}
		return loaded, false, nil
	}
	base, ok := standard14[lower(family)]
	if !ok {
		base = "Helvetica"
		substituted = true
	}
	return &semantic.Font{
		Subtype:  "Type1",
		BaseFont: base,
		Encoding: "WinAnsiEncoding",
	}, substituted, nil
}

func loadEmbeddableFont(name string, data []byte) (*semantic.Font, error) {
	if len(data) >= 1 && data[0] == 0x80 {
		return fonts.ParseType1(name, data)
	}
	return fonts.LoadOpenType(name, data)
}

func lower(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b >= 'A' && b <= 'Z' {
			b += 'a' - 'A'
		}
		out[i] = b
	}
	return string(out)
}

// sfntFor returns the parsed sfnt.Font backing a registered family, for
// per-rune advance measurement, parsing and caching it on first use.
// Families without embedded font bytes (standard-14 or unregistered)
// return (nil, false) and the caller measures with flow.DefaultMetrics.
func (c *fontCatalog) sfntFor(family string) (*sfnt.Font, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.sfntByFamily[family]; ok {
		return f, f != nil
	}
	asset, ok := c.registry.Get(family)
	if !ok || asset.Kind != AssetFont || (len(asset.Bytes) >= 1 && asset.Bytes[0] == 0x80) {
		c.sfntByFamily[family] = nil
		return nil, false
	}
	f, err := sfnt.Parse(asset.Bytes)
	if err != nil {
		c.sfntByFamily[family] = nil
		return nil, false
	}
	c.sfntByFamily[family] = f
	return f, true
}

// Advance implements flow.Metrics against registered font bytes, falling
// back to the proportional approximation for standard-14/unregistered
// families (§4.2, §4.4 line breaking needs an advance per grapheme).
func (c *fontCatalog) Advance(r rune, family []string, size numeric.Length, weight int, italic bool) (numeric.Length, bool) {
	for _, fam := range family {
		f, ok := c.sfntFor(fam)
		if !ok {
			continue
		}
		unitsPerEm := f.UnitsPerEm()
		ppem := fixed.Int26_6(int32(unitsPerEm) << 6)
		buf := &sfnt.Buffer{}
		gid, err := f.GlyphIndex(buf, r)
		if err != nil || gid == 0 {
			continue
		}
		adv, err := f.GlyphAdvance(buf, gid, ppem, font.HintingNone)
		if err != nil {
			continue
		}
		scale := float64(adv) / 64.0 / float64(unitsPerEm)
		return size.Mul(scale), true
	}
	return flow.DefaultMetrics{}.Advance(r, family, size, weight, italic)
}

// LineHeight implements flow.Metrics with the same proportional rule
// DefaultMetrics uses; embedded fonts' own line-gap metrics are not
// threaded through here since §4.4 line height is a CSS value (possibly
// `normal`), not a per-glyph measurement.
func (c *fontCatalog) LineHeight(size numeric.Length) numeric.Length {
	return flow.DefaultMetrics{}.LineHeight(size)
}
