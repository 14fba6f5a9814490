package fonts

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/dociq/pagepdf/ir/semantic"
)

// LoadTrueType parses a glyf-outline OpenType/TrueType font and embeds it
// as a Type0/CIDFontType2 composite font under Identity-H: the engine's
// own text shaping (fonts.ShapeText) already emits glyph IDs as CIDs, so
// Identity-H/Identity CIDToGIDMap needs no remapping at embed time (§4
// "Font (Type1 standard / Type0 composite with CIDFontType2)").
func LoadTrueType(name string, data []byte) (*semantic.Font, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse sfnt: %w", err)
	}

	fontName := name
	if fontName == "" {
		fontName = "Font"
	}

	unitsPerEm := f.UnitsPerEm()
	ppem := fixed.Int26_6(int32(unitsPerEm) << 6)
	buf := &sfnt.Buffer{}

	metrics, _ := f.Metrics(buf, ppem, font.HintingNone)
	bounds, _ := f.Bounds(buf, ppem, font.HintingNone)

	descriptor := &semantic.FontDescriptor{
		FontName:    fontName,
		Flags:       4, // Symbolic: CID-keyed glyph indices have no standard encoding
		ItalicAngle: italicAngle(f),
		Ascent:      scaleFixed(metrics.Ascent, unitsPerEm),
		Descent:     scaleFixed(metrics.Descent, unitsPerEm),
		CapHeight:   scaleFixed(metrics.Ascent, unitsPerEm), // approximation absent an OS/2 read
		StemV:       80,
		FontBBox: [4]float64{
			scaleFixed(bounds.Min.X, unitsPerEm),
			scaleFixed(bounds.Min.Y, unitsPerEm),
			scaleFixed(bounds.Max.X, unitsPerEm),
			scaleFixed(bounds.Max.Y, unitsPerEm),
		},
		FontFile:     data,
		FontFileType: "FontFile2",
	}

	widths := glyphWidths(f, buf, unitsPerEm, ppem)
	cidInfo := semantic.CIDSystemInfo{Registry: "Adobe", Ordering: "Identity", Supplement: 0}
	descendant := &semantic.CIDFont{
		Subtype:         "CIDFontType2",
		BaseFont:        fontName,
		CIDSystemInfo:   cidInfo,
		DW:              1000,
		W:               widths,
		CIDToGIDMapName: "Identity",
		Descriptor:      descriptor,
	}

	return &semantic.Font{
		Subtype:        "Type0",
		BaseFont:       fontName,
		Encoding:       "Identity-H",
		CIDSystemInfo:  &cidInfo,
		DescendantFont: descendant,
		ToUnicode:      buildToUnicodeMap(f, buf),
	}, nil
}

// scaleFixed converts a 26.6 fixed-point value measured at ppem=unitsPerEm
// (so 1 font unit == 1 raw fixed-point pixel) into a 1000-unit em, the
// scale PDF font metrics/FontMatrix assume.
func scaleFixed(v fixed.Int26_6, unitsPerEm sfnt.Units) float64 {
	if unitsPerEm == 0 {
		return 0
	}
	return float64(v) / 64.0 * 1000.0 / float64(unitsPerEm)
}

// italicAngle reports the font's slant angle in degrees. The post table's
// italicAngle field is the authoritative source; parsing it is not wired
// here, so every embedded font is treated as upright (0 degrees) and any
// visual slant is expected to come from an explicit CSS transform/
// font-style synthesis upstream rather than the glyph outlines themselves.
func italicAngle(f *sfnt.Font) float64 { return 0 }

// glyphWidths returns each glyph's advance width, scaled to a 1000-unit
// em, indexed by glyph index. Indexing by GID (not character code)
// matches how this package always embeds CID-keyed fonts under
// Identity-H, where CID == GID (§4 Font model).
func glyphWidths(f *sfnt.Font, buf *sfnt.Buffer, unitsPerEm sfnt.Units, ppem fixed.Int26_6) map[int]int {
	n := f.NumGlyphs()
	widths := make(map[int]int, n)
	for gid := 0; gid < n; gid++ {
		adv, err := f.GlyphAdvance(buf, sfnt.GlyphIndex(gid), ppem, font.HintingNone)
		if err != nil {
			continue
		}
		widths[gid] = int(scaleFixed(adv, unitsPerEm))
	}
	return widths
}

// buildToUnicodeMap inverts the font's cmap over the Basic Multilingual
// Plane so the writer can emit a /ToUnicode CMap for copy/search/
// accessibility even though the content stream itself only carries CIDs.
func buildToUnicodeMap(f *sfnt.Font, buf *sfnt.Buffer) map[int][]rune {
	out := make(map[int][]rune)
	for r := rune(0x20); r < 0x3000; r++ {
		gi, err := f.GlyphIndex(buf, r)
		if err != nil || gi == 0 {
			continue
		}
		gid := int(gi)
		if _, exists := out[gid]; !exists {
			out[gid] = []rune{r}
		}
	}
	return out
}
