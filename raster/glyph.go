package raster

import (
	"image/color"
	"sync"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/dociq/pagepdf/fonts"
	"github.com/dociq/pagepdf/ir/semantic"
)

// glyphKey identifies one glyph outline by the embeddable font it came
// from and its glyph index — CID and GID coincide for the CIDFontType2
// fonts this module embeds (Identity-H, §4 Font model), so the shaped
// glyph ID fonts.ShapeText returns is already the sfnt glyph index.
type glyphKey struct {
	fontKey string
	gid     sfnt.GlyphIndex
}

// GlyphCache holds parsed outlines keyed by (font, glyph id), populated
// monotonically as pages are rasterized (§4.9 "glyph-outline cache").
// Safe for concurrent use: outlines are pure functions of (font, gid), so
// a duplicate computation from a race is wasted work, never a wrong
// answer, and the map itself is guarded by a mutex.
type GlyphCache struct {
	mu       sync.Mutex
	fontsByKey map[string]*sfnt.Font
	outlines map[glyphKey]sfnt.Segments
}

func newGlyphCache() *GlyphCache {
	return &GlyphCache{fontsByKey: map[string]*sfnt.Font{}, outlines: map[glyphKey]sfnt.Segments{}}
}

func (c *GlyphCache) parsedFont(key string, fontFile []byte) *sfnt.Font {
	c.mu.Lock()
	if f, ok := c.fontsByKey[key]; ok {
		c.mu.Unlock()
		return f
	}
	c.mu.Unlock()

	f, err := sfnt.Parse(fontFile)
	if err != nil {
		return nil
	}
	c.mu.Lock()
	c.fontsByKey[key] = f
	c.mu.Unlock()
	return f
}

func (c *GlyphCache) outline(key string, f *sfnt.Font, gid sfnt.GlyphIndex, unitsPerEm sfnt.Units) sfnt.Segments {
	gk := glyphKey{fontKey: key, gid: gid}
	c.mu.Lock()
	if segs, ok := c.outlines[gk]; ok {
		c.mu.Unlock()
		return segs
	}
	c.mu.Unlock()

	var buf sfnt.Buffer
	ppem := fixed.Int26_6(int32(unitsPerEm) << 6)
	segs, err := f.LoadGlyph(&buf, gid, ppem, nil)
	if err != nil {
		segs = nil
	}
	// Copy out of sfnt's reused buffer before caching.
	out := make(sfnt.Segments, len(segs))
	copy(out, segs)

	c.mu.Lock()
	c.outlines[gk] = out
	c.mu.Unlock()
	return out
}

// resolveFont maps a canvas font ref through the FontResolver, caching
// nothing itself (writer.FontResolver implementations are expected to be
// cheap lookups into an already-built catalog, §6.2 Asset registry).
func (st *rasterState) resolveFont(ref string) *semantic.Font {
	if st.fonts == nil {
		return nil
	}
	f, err := st.fonts.ResolveFont(ref)
	if err != nil {
		return nil
	}
	return f
}

// showText shapes and rasterizes one run of text at the current cursor,
// advancing the cursor exactly as fonts.ShapeText reports (§4.2 text
// shaping), so raster glyph placement and embedded-font glyph coverage
// never disagree.
func (st *rasterState) showText(text string) {
	if st.font == nil || st.font.Descriptor == nil || len(st.font.Descriptor.FontFile) == 0 {
		return
	}
	glyphs, err := fonts.ShapeText(text, st.font)
	if err != nil || len(glyphs) == 0 {
		return
	}
	fontKey := st.font.BaseFont
	sf := st.caches.glyphs.parsedFont(fontKey, st.font.Descriptor.FontFile)
	if sf == nil {
		return
	}
	unitsPerEm := sf.UnitsPerEm()

	cursorX, cursorY := st.textX, st.textY
	col := st.fillColor
	for _, g := range glyphs {
		gid := sfnt.GlyphIndex(g.ID)
		segs := st.caches.glyphs.outline(fontKey, sf, gid, unitsPerEm)
		if len(segs) > 0 {
			st.paintGlyph(segs, unitsPerEm, cursorX+g.XOffset*st.fontSize/1000, cursorY+g.YOffset*st.fontSize/1000, col)
		}
		cursorX += g.XAdvance * st.fontSize / 1000
		cursorY += g.YAdvance * st.fontSize / 1000
	}
	st.textX, st.textY = cursorX, cursorY
}

// paintGlyph rasterizes one glyph outline (in font units, already scaled
// to a unitsPerEm-sized em square by sfnt.LoadGlyph) at originX/originY
// (page points, text space), scaled by the current font size and mapped
// through the page CTM into device pixels.
func (st *rasterState) paintGlyph(segs sfnt.Segments, unitsPerEm sfnt.Units, originX, originY float64, col color.RGBA) {
	scale := st.fontSize / float64(unitsPerEm)
	rz := vector.NewRasterizer(st.pm.Width, st.pm.Height)
	toPagePoint := func(p fixed.Point26_6) (float64, float64) {
		gx := float64(p.X) / 64.0 * scale
		gy := float64(p.Y) / 64.0 * scale
		return originX + gx, originY + gy
	}
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			x, y := toPagePoint(seg.Args[0])
			dx, dy := st.toDevice(x, y)
			rz.MoveTo(float32(dx), float32(dy))
		case sfnt.SegmentOpLineTo:
			x, y := toPagePoint(seg.Args[0])
			dx, dy := st.toDevice(x, y)
			rz.LineTo(float32(dx), float32(dy))
		case sfnt.SegmentOpQuadTo:
			cx, cy := toPagePoint(seg.Args[0])
			x, y := toPagePoint(seg.Args[1])
			cdx, cdy := st.toDevice(cx, cy)
			dx, dy := st.toDevice(x, y)
			rz.QuadTo(float32(cdx), float32(cdy), float32(dx), float32(dy))
		case sfnt.SegmentOpCubeTo:
			c1x, c1y := toPagePoint(seg.Args[0])
			c2x, c2y := toPagePoint(seg.Args[1])
			x, y := toPagePoint(seg.Args[2])
			c1dx, c1dy := st.toDevice(c1x, c1y)
			c2dx, c2dy := st.toDevice(c2x, c2y)
			dx, dy := st.toDevice(x, y)
			rz.CubeTo(float32(c1dx), float32(c1dy), float32(c2dx), float32(c2dy), float32(dx), float32(dy))
		}
	}
	st.composite(rz, col)
}
