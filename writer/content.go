package writer

import (
	"fmt"

	"github.com/dociq/pagepdf/canvas"
	"github.com/dociq/pagepdf/diagnostics"
	"github.com/dociq/pagepdf/ir/semantic"
)

// resourceSet accumulates the resources one page's content stream refers
// to, assigning deterministic names in first-reference order (§4.7
// "Resource deduplication... ordering is fully determined by first-
// reference order").
type resourceSet struct {
	fontNames  map[string]string // family -> resource name
	fontOrder  []string
	fonts      map[string]*semantic.Font // family -> resolved font
	xobjNames  map[string]string         // ref -> resource name
	xobjOrder  []string
	xobjs      map[string]*semantic.XObject
	nextImgNum int
	nextFormNum int
}

func newResourceSet() *resourceSet {
	return &resourceSet{
		fontNames: map[string]string{},
		fonts:     map[string]*semantic.Font{},
		xobjNames: map[string]string{},
		xobjs:     map[string]*semantic.XObject{},
	}
}

func (rs *resourceSet) fontName(family string, resolver FontResolver, report *diagnostics.Report) string {
	if name, ok := rs.fontNames[family]; ok {
		return name
	}
	name := fmt.Sprintf("F%d", len(rs.fontOrder)+1)
	rs.fontNames[family] = name
	rs.fontOrder = append(rs.fontOrder, family)
	font, err := resolver.ResolveFont(family)
	if err != nil {
		if report != nil {
			report.Add(diagnostics.Record{Kind: diagnostics.KindFontSubstitution, Where: family, Requested: family})
		}
		font = nil
	}
	rs.fonts[family] = font
	return name
}

func (rs *resourceSet) xobjName(ref string, asForm bool, resolver ImageResolver, report *diagnostics.Report) string {
	if name, ok := rs.xobjNames[ref]; ok {
		return name
	}
	var name string
	if asForm {
		rs.nextFormNum++
		name = fmt.Sprintf("Fm%d", rs.nextFormNum)
	} else {
		rs.nextImgNum++
		name = fmt.Sprintf("Im%d", rs.nextImgNum)
	}
	rs.xobjNames[ref] = name
	rs.xobjOrder = append(rs.xobjOrder, ref)
	xo, err := resolver.ResolveImage(ref)
	if err != nil || xo == nil {
		if report != nil {
			report.Add(diagnostics.Record{Kind: diagnostics.KindAssetError, Where: ref, Requested: ref})
		}
		xo = &semantic.XObject{Subtype: "Image", Width: 1, Height: 1, ColorSpace: semantic.DeviceColorSpace{Name: "DeviceGray"}, BitsPerComponent: 8, Data: []byte{0}}
	}
	rs.xobjs[ref] = xo
	return name
}

// toResources builds the semantic.Resources dict for a page from the
// fonts/xobjects it actually referenced, in first-use order.
func (rs *resourceSet) toResources() *semantic.Resources {
	res := &semantic.Resources{
		Fonts:    map[string]*semantic.Font{},
		XObjects: map[string]semantic.XObject{},
	}
	for _, family := range rs.fontOrder {
		if f := rs.fonts[family]; f != nil {
			res.Fonts[rs.fontNames[family]] = f
		}
	}
	for _, ref := range rs.xobjOrder {
		if xo := rs.xobjs[ref]; xo != nil {
			res.XObjects[rs.xobjNames[ref]] = *xo
		}
	}
	return res
}

// gstateSet holds one named ExtGState per distinct fill/stroke alpha
// pair; name creates and names it on first use (§4.7 "ExtGStates are
// deduplicated by stable content key").
type gstateSet struct {
	byAlpha map[[2]float64]string
	order   [][2]float64
}

func newGStateSet() *gstateSet { return &gstateSet{byAlpha: map[[2]float64]string{}} }

func (g *gstateSet) name(fillAlpha, strokeAlpha float64) string {
	key := [2]float64{fillAlpha, strokeAlpha}
	if name, ok := g.byAlpha[key]; ok {
		return name
	}
	name := fmt.Sprintf("GS%d", len(g.order)+1)
	g.byAlpha[key] = name
	g.order = append(g.order, key)
	return name
}

func (g *gstateSet) toExtGStates() map[string]semantic.ExtGState {
	if len(g.order) == 0 {
		return nil
	}
	out := make(map[string]semantic.ExtGState, len(g.order))
	for _, key := range g.order {
		fa, sa := key[0], key[1]
		out[g.byAlpha[key]] = semantic.ExtGState{FillAlpha: &fa, StrokeAlpha: &sa}
	}
	return out
}

// buildPageContent translates a command-canvas log into PDF content
// operations, collecting the resources referenced along the way (§4.7
// "Emission": flatten command stream into content-stream operators).
func buildPageContent(cv *canvas.Canvas, fonts FontResolver, images ImageResolver, report *diagnostics.Report) (semantic.ContentStream, *semantic.Resources) {
	rs := newResourceSet()
	gs := newGStateSet()
	var ops []semantic.Operation
	fillAlpha, strokeAlpha := 1.0, 1.0

	op := func(operator string, operands ...semantic.Operand) {
		ops = append(ops, semantic.Operation{Operator: operator, Operands: operands})
	}
	num := func(v float64) semantic.Operand { return semantic.NumberOperand{Value: v} }
	name := func(v string) semantic.Operand { return semantic.NameOperand{Value: v} }

	emitPath := func(path []canvas.PathSeg) {
		for _, seg := range path {
			switch {
			case seg.MoveTo:
				op("m", num(seg.X.Points()), num(seg.Y.Points()))
			case seg.LineTo:
				op("l", num(seg.X.Points()), num(seg.Y.Points()))
			case seg.CurveTo:
				op("c", num(seg.C1X.Points()), num(seg.C1Y.Points()), num(seg.C2X.Points()), num(seg.C2Y.Points()), num(seg.X.Points()), num(seg.Y.Points()))
			case seg.Close:
				op("h")
			}
		}
	}

	for _, cmd := range cv.Commands {
		switch cmd.Kind {
		case canvas.CmdSaveState:
			op("q")
		case canvas.CmdRestoreState:
			op("Q")
		case canvas.CmdConcatMatrix:
			m := cmd.Matrix
			op("cm", num(m[0]), num(m[1]), num(m[2]), num(m[3]), num(m[4]), num(m[5]))
		case canvas.CmdSetFillColor:
			op("rg", num(cmd.Color.R), num(cmd.Color.G), num(cmd.Color.B))
			if cmd.Color.A < 1 {
				fillAlpha = cmd.Color.A
				op("gs", name(gs.name(fillAlpha, strokeAlpha)))
			}
		case canvas.CmdSetStrokeColor:
			op("RG", num(cmd.Color.R), num(cmd.Color.G), num(cmd.Color.B))
			if cmd.Color.A < 1 {
				strokeAlpha = cmd.Color.A
				op("gs", name(gs.name(fillAlpha, strokeAlpha)))
			}
		case canvas.CmdFillRect:
			r := cmd.Rect
			op("re", num(r.X.Points()), num(r.Y.Points()), num(r.W.Points()), num(r.H.Points()))
			op("f")
		case canvas.CmdStrokeRect:
			r := cmd.Rect
			op("re", num(r.X.Points()), num(r.Y.Points()), num(r.W.Points()), num(r.H.Points()))
			op("S")
		case canvas.CmdFillPath:
			emitPath(cmd.Path)
			op("f")
		case canvas.CmdStrokePath:
			emitPath(cmd.Path)
			op("S")
		case canvas.CmdBeginText:
			op("BT")
		case canvas.CmdSetFont:
			fname := rs.fontName(cmd.FontRef, fonts, report)
			op("Tf", name(fname), num(cmd.FontSize.Points()))
			op("TL", num(cmd.Leading.Points()))
		case canvas.CmdMoveText:
			op("Td", num(cmd.DX.Points()), num(cmd.DY.Points()))
		case canvas.CmdShowText:
			op("Tj", semantic.StringOperand{Value: []byte(cmd.Text)})
		case canvas.CmdEndText:
			op("ET")
		case canvas.CmdDrawImage:
			xname := rs.xobjName(cmd.ImageRef, false, images, report)
			op("q")
			m := cmd.Matrix
			op("cm", num(m[0]), num(m[1]), num(m[2]), num(m[3]), num(m[4]), num(m[5]))
			op("Do", name(xname))
			op("Q")
		case canvas.CmdDrawForm:
			xname := rs.xobjName(cmd.FormRef, true, images, report)
			op("q")
			m := cmd.Matrix
			op("cm", num(m[0]), num(m[1]), num(m[2]), num(m[3]), num(m[4]), num(m[5]))
			op("Do", name(xname))
			op("Q")
		case canvas.CmdClipRect:
			r := cmd.Rect
			op("re", num(r.X.Points()), num(r.Y.Points()), num(r.W.Points()), num(r.H.Points()))
			if cmd.ClipEvenOdd {
				op("W*")
			} else {
				op("W")
			}
			op("n")
		case canvas.CmdClipPath:
			emitPath(cmd.Path)
			if cmd.ClipEvenOdd {
				op("W*")
			} else {
				op("W")
			}
			op("n")
		}
	}

	res := rs.toResources()
	if extg := gs.toExtGStates(); extg != nil {
		res.ExtGStates = extg
	}
	return semantic.ContentStream{Operations: ops}, res
}
