package raster

import (
	"image/color"

	"github.com/dociq/pagepdf/canvas"
	"github.com/dociq/pagepdf/ir/semantic"
	"github.com/dociq/pagepdf/writer"
)

// clipBox is an axis-aligned device-space clip rectangle. Canvas paths are
// never skewed by more than the CTM allows, but clip regions in this
// backend are approximated by their bounding box rather than tracked as
// exact polygons — adequate for overflow clipping, not for non-rectangular
// masks (§4.9 known simplification, like the hairline stroke in
// paint.go).
type clipBox struct {
	x0, y0, x1, y1 float64
	active         bool
}

type gstate struct {
	ctm         canvas.Matrix
	fillColor   color.RGBA
	strokeColor color.RGBA
	clip        clipBox
}

// rasterState walks one page's command log, mirroring the q/Q stack
// discipline canvas.Canvas itself enforces (§4.6) and the operator
// dispatch writer/content.go performs for PDF emission — the two should
// read as siblings.
type rasterState struct {
	pm         *Pixmap
	pageHeight float64 // in points
	scale      float64 // device pixels per point

	ctm         canvas.Matrix
	fillColor   color.RGBA
	strokeColor color.RGBA
	clip        clipBox
	stack       []gstate

	textX, textY float64 // points, in the current text block's local space
	fontRef      string
	fontSize     float64
	font         *semantic.Font

	fonts  writer.FontResolver
	images writer.ImageResolver
	caches *Caches
}

func (st *rasterState) apply(cmd canvas.Command) {
	switch cmd.Kind {
	case canvas.CmdSaveState:
		st.stack = append(st.stack, gstate{ctm: st.ctm, fillColor: st.fillColor, strokeColor: st.strokeColor, clip: st.clip})
	case canvas.CmdRestoreState:
		if n := len(st.stack); n > 0 {
			g := st.stack[n-1]
			st.stack = st.stack[:n-1]
			st.ctm, st.fillColor, st.strokeColor, st.clip = g.ctm, g.fillColor, g.strokeColor, g.clip
		}
	case canvas.CmdConcatMatrix:
		st.ctm = cmd.Matrix.Multiply(st.ctm)
	case canvas.CmdSetFillColor:
		st.fillColor = toColor(cmd.Color)
	case canvas.CmdSetStrokeColor:
		st.strokeColor = toColor(cmd.Color)
	case canvas.CmdFillRect:
		st.fillRectPath(cmd.Rect, st.fillColor)
	case canvas.CmdStrokeRect:
		st.strokeRectPath(cmd.Rect, st.strokeColor)
	case canvas.CmdFillPath:
		st.fillSegs(cmd.Path, st.fillColor)
	case canvas.CmdStrokePath:
		st.strokeSegs(cmd.Path, st.strokeColor)
	case canvas.CmdBeginText:
		st.textX, st.textY = 0, 0
	case canvas.CmdSetFont:
		st.fontRef = cmd.FontRef
		st.fontSize = cmd.FontSize.Points()
		st.font = st.resolveFont(cmd.FontRef)
	case canvas.CmdMoveText:
		st.textX += cmd.DX.Points()
		st.textY += cmd.DY.Points()
	case canvas.CmdShowText:
		st.showText(cmd.Text)
	case canvas.CmdEndText:
	case canvas.CmdDrawImage:
		st.drawXObject(cmd.ImageRef, cmd.Matrix, false)
	case canvas.CmdDrawForm:
		st.drawXObject(cmd.FormRef, cmd.Matrix, true)
	case canvas.CmdClipRect:
		st.intersectClipRect(cmd.Rect)
	case canvas.CmdClipPath:
		st.intersectClipPath(cmd.Path)
	}
}

func toColor(c canvas.RGBA) color.RGBA {
	clamp := func(v float64) uint8 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return uint8(v*255 + 0.5)
	}
	return color.RGBA{R: clamp(c.R), G: clamp(c.G), B: clamp(c.B), A: clamp(c.A)}
}

// toDevice maps a page-space point (origin bottom-left, Y-up, points) to
// device pixels (origin top-left, Y-down) through the current CTM.
func (st *rasterState) toDevice(x, y float64) (float64, float64) {
	m := st.ctm
	px := x*m[0] + y*m[2] + m[4]
	py := x*m[1] + y*m[3] + m[5]
	return px * st.scale, (st.pageHeight - py) * st.scale
}
