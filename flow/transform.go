package flow

import (
	"math"

	"github.com/dociq/pagepdf/canvas"
	"github.com/dociq/pagepdf/css"
	"github.com/dociq/pagepdf/numeric"
)

// Transformed wraps a child flowable with a CSS transform list, applied at
// draw time as translate(origin) -> ops in source order -> translate(-origin)
// (§4.4 "Transforms"). The child's in-flow box is unaffected; only the
// painted result moves.
type Transformed struct {
	baseFlowable
	Child Flowable
}

func NewTransformed(style css.ComputedStyle, child Flowable) *Transformed {
	return &Transformed{baseFlowable: baseFlowable{Style: style}, Child: child}
}

func (t *Transformed) StyleRef() *css.ComputedStyle { return &t.Style }

func (t *Transformed) Wrap(availW, availH numeric.Length, epoch int) WrapResult {
	r := t.Child.Wrap(availW, availH, epoch)
	t.lastWrap = r
	return r
}

func (t *Transformed) Split(boundary numeric.Length) SplitResult {
	// A transformed subtree is atomic for pagination purposes: it either
	// fits whole on the current frame or moves entirely to the next one.
	if t.lastWrap.Size.H <= boundary {
		return SplitResult{Outcome: SplitPlaced, Placed: t, PlacedH: t.lastWrap.Size.H}
	}
	return SplitResult{Outcome: SplitOverflow, Reason: "transformed subtree does not split across frames"}
}

// transformMatrix composes the style's transform list in source order into
// a single affine matrix, used for both drawing and any downstream
// containing-block math that needs the subtree's effective transform.
func transformMatrix(ops []css.TransformOp) canvas.Matrix {
	m := canvas.Identity()
	for _, op := range ops {
		var step canvas.Matrix
		switch op.Kind {
		case "translate":
			step = canvas.Translate(op.A.Points(), op.B.Points())
		case "scale":
			step = canvas.Scale(op.A.Points(), op.B.Points())
		case "rotate":
			c, s := math.Cos(op.Angle), math.Sin(op.Angle)
			step = canvas.Matrix{c, s, -s, c, 0, 0}
		case "skewX":
			step = canvas.Matrix{1, 0, math.Tan(op.Angle), 1, 0, 0}
		case "skewY":
			step = canvas.Matrix{1, math.Tan(op.Angle), 0, 1, 0, 0}
		case "matrix":
			step = canvas.Matrix{op.A.Points(), op.B.Points(), op.C.Points(), op.D.Points(), op.E.Points(), op.F.Points()}
		default:
			continue
		}
		m = m.Multiply(step)
	}
	return m
}

func (t *Transformed) Draw(cv *canvas.Canvas, box numeric.Rect) {
	originX := box.X.Add(t.Style.TransformOrigin[0])
	originY := box.Y.Add(t.Style.TransformOrigin[1])

	cv.SaveState()
	cv.ConcatMatrix(canvas.Translate(originX.Points(), originY.Points()))
	cv.ConcatMatrix(transformMatrix(t.Style.Transform))
	cv.ConcatMatrix(canvas.Translate(-originX.Points(), -originY.Points()))
	t.Child.Draw(cv, box)
	cv.RestoreState()
}
