package raster

import (
	"image"
	"image/color"

	"golang.org/x/image/vector"

	"github.com/dociq/pagepdf/canvas"
	"github.com/dociq/pagepdf/numeric"
)

// fillRectPath and strokeRectPath turn a rectangle (the overwhelming
// majority of box backgrounds/borders, §4.4 "Container paint") into a
// closed four-segment path and paint it through fillSegs/strokeSegs like
// any other path.
func (st *rasterState) fillRectPath(r numeric.Rect, col color.RGBA) {
	st.fillSegs(rectSegs(r), col)
}

func (st *rasterState) strokeRectPath(r numeric.Rect, col color.RGBA) {
	st.strokeSegs(rectSegs(r), col)
}

func rectSegs(r numeric.Rect) []canvas.PathSeg {
	x, y, w, h := r.X, r.Y, r.W, r.H
	return []canvas.PathSeg{
		{MoveTo: true, X: x, Y: y},
		{LineTo: true, X: x.Add(w), Y: y},
		{LineTo: true, X: x.Add(w), Y: y.Add(h)},
		{LineTo: true, X: x, Y: y.Add(h)},
		{Close: true},
	}
}

// fillSegs rasterizes a closed path's fill using a scan-converting
// rasterizer in device space, then composites the result with the
// current fill color (§4.9 "antialiased fill").
func (st *rasterState) fillSegs(path []canvas.PathSeg, col color.RGBA) {
	if len(path) == 0 || col.A == 0 {
		return
	}
	rz := vector.NewRasterizer(st.pm.Width, st.pm.Height)
	st.buildPath(rz, path)
	st.composite(rz, col)
}

// strokeSegs approximates a stroke as a thin (roughly hairline-width)
// outline fill, since canvas.PathSeg/Command carries no line-width
// operand (§4.6 command set has no stroke-width field) — good enough for
// table/box borders, not for arbitrary stroke-width CSS borders rendered
// as vector paths.
func (st *rasterState) strokeSegs(path []canvas.PathSeg, col color.RGBA) {
	if len(path) == 0 || col.A == 0 {
		return
	}
	const halfWidth = 0.5 // device pixels
	rz := vector.NewRasterizer(st.pm.Width, st.pm.Height)
	var start, cur struct{ x, y float64 }
	haveStart := false
	emit := func(ax, ay, bx, by float64) {
		dx, dy := bx-ax, by-ay
		length := dx*dx + dy*dy
		if length == 0 {
			return
		}
		nx, ny := -dy, dx
		inv := halfWidth / sqrt(length)
		nx, ny = nx*inv, ny*inv
		rz.MoveTo(float32(ax+nx), float32(ay+ny))
		rz.LineTo(float32(bx+nx), float32(by+ny))
		rz.LineTo(float32(bx-nx), float32(by-ny))
		rz.LineTo(float32(ax-nx), float32(ay-ny))
		rz.ClosePath()
	}
	for _, seg := range path {
		switch {
		case seg.MoveTo:
			dx, dy := st.toDevice(seg.X.Points(), seg.Y.Points())
			cur.x, cur.y = dx, dy
			start = cur
			haveStart = true
		case seg.LineTo:
			dx, dy := st.toDevice(seg.X.Points(), seg.Y.Points())
			if haveStart {
				emit(cur.x, cur.y, dx, dy)
			}
			cur.x, cur.y = dx, dy
		case seg.CurveTo:
			dx, dy := st.toDevice(seg.X.Points(), seg.Y.Points())
			if haveStart {
				emit(cur.x, cur.y, dx, dy)
			}
			cur.x, cur.y = dx, dy
		case seg.Close:
			if haveStart {
				emit(cur.x, cur.y, start.x, start.y)
			}
			cur = start
		}
	}
	st.composite(rz, col)
}

func sqrt(v float64) float64 {
	if v <= 0 {
		return 0
	}
	// Newton's method: paths never need more than a handful of iterations
	// at the magnitudes a page-sized stroke produces.
	z := v
	for i := 0; i < 8; i++ {
		z -= (z*z - v) / (2 * z)
	}
	return z
}

// buildPath feeds a path's segments into a vector.Rasterizer in device
// space, applying the current CTM to every coordinate.
func (st *rasterState) buildPath(rz *vector.Rasterizer, path []canvas.PathSeg) {
	var startX, startY float32
	for _, seg := range path {
		switch {
		case seg.MoveTo:
			x, y := st.toDevice(seg.X.Points(), seg.Y.Points())
			startX, startY = float32(x), float32(y)
			rz.MoveTo(startX, startY)
		case seg.LineTo:
			x, y := st.toDevice(seg.X.Points(), seg.Y.Points())
			rz.LineTo(float32(x), float32(y))
		case seg.CurveTo:
			c1x, c1y := st.toDevice(seg.C1X.Points(), seg.C1Y.Points())
			c2x, c2y := st.toDevice(seg.C2X.Points(), seg.C2Y.Points())
			x, y := st.toDevice(seg.X.Points(), seg.Y.Points())
			rz.CubeTo(float32(c1x), float32(c1y), float32(c2x), float32(c2y), float32(x), float32(y))
		case seg.Close:
			rz.ClosePath()
		}
	}
}

// composite draws the rasterizer's accumulated coverage mask onto the
// pixmap in the given color, honoring the current clip box.
func (st *rasterState) composite(rz *vector.Rasterizer, col color.RGBA) {
	bounds := image.Rect(0, 0, st.pm.Width, st.pm.Height)
	mask := image.NewAlpha(bounds)
	rz.Draw(mask, bounds, image.NewUniform(color.Opaque), image.Point{})

	x0, y0, x1, y1 := 0, 0, st.pm.Width, st.pm.Height
	if st.clip.active {
		x0, y0, x1, y1 = clampClip(st.clip, st.pm.Width, st.pm.Height)
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			a := mask.AlphaAt(x, y).A
			if a == 0 {
				continue
			}
			blendPixel(st.pm, x, y, col, a)
		}
	}
}

func clampClip(c clipBox, w, h int) (int, int, int, int) {
	x0, y0, x1, y1 := int(c.x0), int(c.y0), int(c.x1+0.5), int(c.y1+0.5)
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > w {
		x1 = w
	}
	if y1 > h {
		y1 = h
	}
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return x0, y0, x1, y1
}

// blendPixel composites col (with coverage alpha cov, 0-255) over the
// pixmap's existing opaque pixel using source-over, always leaving the
// result fully opaque (PDF pages carry no page-level transparency).
func blendPixel(pm *Pixmap, x, y int, col color.RGBA, cov uint8) {
	i := (y*pm.Width + x) * 4
	if i < 0 || i+3 >= len(pm.Pix) {
		return
	}
	srcA := uint32(col.A) * uint32(cov) / 255
	if srcA == 0 {
		return
	}
	blend := func(dst, src uint8) uint8 {
		return uint8((uint32(src)*srcA + uint32(dst)*(255-srcA)) / 255)
	}
	pm.Pix[i+0] = blend(pm.Pix[i+0], col.R)
	pm.Pix[i+1] = blend(pm.Pix[i+1], col.G)
	pm.Pix[i+2] = blend(pm.Pix[i+2], col.B)
	pm.Pix[i+3] = 255
}

func (st *rasterState) intersectClipRect(r numeric.Rect) {
	st.intersectClipPath(rectSegs(r))
}

func (st *rasterState) intersectClipPath(path []canvas.PathSeg) {
	minX, minY := st.pm.Width, st.pm.Height
	maxX, maxY := 0, 0
	for _, seg := range path {
		if !seg.MoveTo && !seg.LineTo && !seg.CurveTo {
			continue
		}
		x, y := st.toDevice(seg.X.Points(), seg.Y.Points())
		if x < float64(minX) {
			minX = int(x)
		}
		if y < float64(minY) {
			minY = int(y)
		}
		if x > float64(maxX) {
			maxX = int(x + 0.5)
		}
		if y > float64(maxY) {
			maxY = int(y + 0.5)
		}
	}
	nb := clipBox{x0: float64(minX), y0: float64(minY), x1: float64(maxX), y1: float64(maxY), active: true}
	if st.clip.active {
		nb.x0 = maxF(nb.x0, st.clip.x0)
		nb.y0 = maxF(nb.y0, st.clip.y0)
		nb.x1 = minF(nb.x1, st.clip.x1)
		nb.y1 = minF(nb.y1, st.clip.y1)
	}
	st.clip = nb
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
