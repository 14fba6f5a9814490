package raster

import (
	"image"
	"sync"

	"github.com/dociq/pagepdf/canvas"
	"github.com/dociq/pagepdf/ir/semantic"
	"github.com/dociq/pagepdf/optimize"
)

// imageCache decodes each distinct XObject ref at most once across a
// batch of pages, reusing optimize.ToImage's ColorSpace/BitsPerComponent/
// Filter decode path rather than a second one (§4.9 shares decode with
// the PDF emission path).
type imageCache struct {
	mu     sync.Mutex
	images map[string]image.Image
}

func newImageCache() *imageCache { return &imageCache{images: map[string]image.Image{}} }

func (c *imageCache) get(ref string, resolver writerImageResolver) image.Image {
	c.mu.Lock()
	if img, ok := c.images[ref]; ok {
		c.mu.Unlock()
		return img
	}
	c.mu.Unlock()

	xo, err := resolver.ResolveImage(ref)
	if err != nil || xo == nil {
		return nil
	}
	img, err := optimize.ToImage(*xo)
	if err != nil || img == nil {
		return nil
	}
	c.mu.Lock()
	c.images[ref] = img
	c.mu.Unlock()
	return img
}

// writerImageResolver is the subset of writer.ImageResolver this file
// needs, declared locally so image.go doesn't import writer just for one
// method signature already satisfied by rasterState.images.
type writerImageResolver interface {
	ResolveImage(ref string) (*semantic.XObject, error)
}

// drawXObject paints an image or form XObject into the unit square
// [0,1]x[0,1] of local space (the PDF image-placement convention),
// transformed by m then the current CTM — inverse-mapped per device
// pixel so arbitrary rotation/skew from the CTM renders correctly, not
// just axis-aligned scaling (§4.9 "Image/Form XObject painting").
func (st *rasterState) drawXObject(ref string, m canvas.Matrix, isForm bool) {
	if isForm {
		// Form XObjects (SVG-as-form, §4.2) are not rasterized: the
		// writer embeds them as a PDF Form XObject, but this walk does
		// not re-enter a form's own operator list, which the
		// canvas/XObject seam here doesn't expose, so a DrawForm command
		// paints nothing. engine.Config.SVGRasterFallback is not read by
		// any package, so setting it does not turn forms into images.
		return
	}
	img := st.images
	if img == nil {
		return
	}
	src := st.caches.images.get(ref, st.images)
	if src == nil {
		return
	}
	full := m.Multiply(st.ctm)
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	if sw == 0 || sh == 0 {
		return
	}

	corners := [4][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	minX, minY := 1e18, 1e18
	maxX, maxY := -1e18, -1e18
	for _, c := range corners {
		dx, dy := applyDevice(full, st.pageHeight, st.scale, c[0], c[1])
		minX, maxX = minF(minX, dx), maxF(maxX, dx)
		minY, maxY = minF(minY, dy), maxF(maxY, dy)
	}
	x0, y0 := clampInt(minX, 0, st.pm.Width), clampInt(minY, 0, st.pm.Height)
	x1, y1 := clampInt(maxX+1, 0, st.pm.Width), clampInt(maxY+1, 0, st.pm.Height)
	if st.clip.active {
		cx0, cy0, cx1, cy1 := clampClip(st.clip, st.pm.Width, st.pm.Height)
		x0, y0 = maxInt(x0, cx0), maxInt(y0, cy0)
		x1, y1 = minInt(x1, cx1), minInt(y1, cy1)
	}

	inv, ok := invertMatrix(full)
	if !ok {
		return
	}
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			ux, uy := deviceToUnit(inv, st.pageHeight, st.scale, float64(px)+0.5, float64(py)+0.5)
			if ux < 0 || ux >= 1 || uy < 0 || uy >= 1 {
				continue
			}
			sx := b.Min.X + int(ux*float64(sw))
			sy := b.Min.Y + int((1-uy)*float64(sh)) // image row 0 is the top of the unit square's y=1 edge
			r, g, bl, a := src.At(sx, sy).RGBA()
			if a == 0 {
				continue
			}
			col := toColor(canvas.RGBA{R: float64(r) / 65535, G: float64(g) / 65535, B: float64(bl) / 65535, A: float64(a) / 65535})
			blendPixel(st.pm, px, py, col, 255)
		}
	}
}

func applyDevice(m canvas.Matrix, pageHeight, scale, x, y float64) (float64, float64) {
	px := x*m[0] + y*m[2] + m[4]
	py := x*m[1] + y*m[3] + m[5]
	return px * scale, (pageHeight - py) * scale
}

// deviceToUnit maps a device pixel back to the XObject's local unit
// square via inv, the inverse of (local->page CTM).
func deviceToUnit(inv canvas.Matrix, pageHeight, scale, devX, devY float64) (float64, float64) {
	px := devX / scale
	py := pageHeight - devY/scale
	ux := px*inv[0] + py*inv[2] + inv[4]
	uy := px*inv[1] + py*inv[3] + inv[5]
	return ux, uy
}

// invertMatrix inverts a 2x3 affine matrix; ok is false for a singular
// (zero-area) transform, which happens for a zero-size image placement.
func invertMatrix(m canvas.Matrix) (canvas.Matrix, bool) {
	det := m[0]*m[3] - m[1]*m[2]
	if det == 0 {
		return canvas.Matrix{}, false
	}
	inv := 1 / det
	a, b, c, d, e, f := m[0], m[1], m[2], m[3], m[4], m[5]
	ia, ib, ic, id := d*inv, -b*inv, -c*inv, a*inv
	ie := -(e*ia + f*ic)
	ifv := -(e*ib + f*id)
	return canvas.Matrix{ia, ib, ic, id, ie, ifv}, true
}

func clampInt(v float64, lo, hi int) int {
	i := int(v)
	if i < lo {
		return lo
	}
	if i > hi {
		return hi
	}
	return i
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
