// Package raster rasterizes a paginated page's command canvas into a
// deterministic RGBA pixmap (C9). It walks the same canvas.Canvas log the
// writer package serializes into PDF content operators, so a rendered
// preview and the PDF a document ends up producing are built from
// identical paint decisions — shared font shaping (fonts.ShapeText) and
// image decoding (optimize.ToImage) rather than a second interpretation
// of the page.
package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"runtime"
	"sync"

	"github.com/dociq/pagepdf/canvas"
	"github.com/dociq/pagepdf/numeric"
	"github.com/dociq/pagepdf/paginate"
	"github.com/dociq/pagepdf/writer"
)

// Pixmap is a deterministic RGBA raster surface, top-left origin (§4.9
// "pixel (0,0) is the top-left of the page, independent of worker count
// or scheduling").
type Pixmap struct {
	Width, Height int
	Pix           []byte // 4 bytes/pixel, row-major, stride = Width*4
}

func newPixmap(w, h int, bg color.RGBA) *Pixmap {
	pm := &Pixmap{Width: w, Height: h, Pix: make([]byte, w*h*4)}
	for i := 0; i < len(pm.Pix); i += 4 {
		pm.Pix[i+0] = bg.R
		pm.Pix[i+1] = bg.G
		pm.Pix[i+2] = bg.B
		pm.Pix[i+3] = bg.A
	}
	return pm
}

// image converts the pixmap to a stdlib image.Image for PNG encoding.
func (pm *Pixmap) image() *image.RGBA {
	return &image.RGBA{Pix: pm.Pix, Stride: pm.Width * 4, Rect: image.Rect(0, 0, pm.Width, pm.Height)}
}

// Options controls how a page is rasterized.
type Options struct {
	// DPI is the output resolution; page points are scaled by DPI/72.
	DPI float64
	// Background is the color painted before any page content (opaque
	// white by default — PDF pages have no implicit transparency).
	Background color.RGBA
}

func (o Options) normalized() Options {
	if o.DPI <= 0 {
		o.DPI = 96
	}
	if o.Background == (color.RGBA{}) {
		o.Background = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return o
}

// Caches holds the glyph-outline and decoded-image caches shared across a
// batch of pages. Both are insert-only and safe for concurrent read/write
// across the worker pool RasterizePages spins up (§4.9 "the glyph-outline
// cache is keyed by (font key, glyph id) and is populated monotonically").
type Caches struct {
	glyphs *GlyphCache
	images *imageCache
}

// NewCaches returns empty, ready-to-use caches.
func NewCaches() *Caches {
	return &Caches{glyphs: newGlyphCache(), images: newImageCache()}
}

// RasterizePage paints one page's canvas into a Pixmap at the given
// resolution (§4.9 "Raster backend").
func RasterizePage(cv *canvas.Canvas, size numeric.Size, opts Options, fonts writer.FontResolver, images writer.ImageResolver, caches *Caches) (*Pixmap, error) {
	opts = opts.normalized()
	if caches == nil {
		caches = NewCaches()
	}
	scale := opts.DPI / 72.0
	w := int(size.W.Points()*scale + 0.5)
	h := int(size.H.Points()*scale + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	pm := newPixmap(w, h, opts.Background)

	st := &rasterState{
		pm:         pm,
		pageHeight: size.H.Points(),
		scale:      scale,
		ctm:        canvas.Identity(),
		fillColor:  color.RGBA{A: 255},
		strokeColor: color.RGBA{A: 255},
		fonts:      fonts,
		images:     images,
		caches:     caches,
	}
	for _, cmd := range cv.Commands {
		st.apply(cmd)
	}
	return pm, nil
}

// RasterizePages rasterizes every page of a paginated result in parallel,
// returning PNG-encoded bytes ordered by page index regardless of
// scheduling (§4.9, §5 "a deterministic, page-indexed ordering of
// parallel work"). Each page gets its own glyph/image cache misses
// resolved into the shared Caches, so repeated fonts/images across pages
// are decoded once.
func RasterizePages(pages []paginate.Page, opts Options, fonts writer.FontResolver, images writer.ImageResolver) ([][]byte, error) {
	caches := NewCaches()
	out := make([][]byte, len(pages))
	errs := make([]error, len(pages))

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	if workers > len(pages) {
		workers = len(pages)
	}
	if workers == 0 {
		return out, nil
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := range pages {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			pg := pages[i]
			pm, err := RasterizePage(pg.Canvas, pg.Size, opts, fonts, images, caches)
			if err != nil {
				errs[i] = err
				return
			}
			var buf bytes.Buffer
			enc := &png.Encoder{CompressionLevel: png.BestCompression}
			if err := enc.Encode(&buf, pm.image()); err != nil {
				errs[i] = err
				return
			}
			out[i] = buf.Bytes()
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
