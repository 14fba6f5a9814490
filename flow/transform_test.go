package flow

import (
	"math"
	"testing"

	"github.com/dociq/pagepdf/canvas"
	"github.com/dociq/pagepdf/css"
	"github.com/dociq/pagepdf/numeric"
)

func TestTransformMatrixSingleTranslateMatchesCanvasTranslate(t *testing.T) {
	ops := []css.TransformOp{{Kind: "translate", A: numeric.FromPoints(10), B: numeric.FromPoints(5)}}
	m := transformMatrix(ops)
	want := canvas.Translate(10, 5)
	if m != want {
		t.Fatalf("expected %v, got %v", want, m)
	}
}

func TestTransformMatrixSingleScaleMatchesCanvasScale(t *testing.T) {
	ops := []css.TransformOp{{Kind: "scale", A: 2000, B: 3000}} // the parser stores a scale factor of N as Length(N*1000)
	m := transformMatrix(ops)
	want := canvas.Scale(2, 3)
	if m != want {
		t.Fatalf("expected %v, got %v", want, m)
	}
}

func TestTransformMatrixRotateZeroIsIdentity(t *testing.T) {
	ops := []css.TransformOp{{Kind: "rotate", Angle: 0}}
	m := transformMatrix(ops)
	if math.Abs(m[0]-1) > 1e-9 || math.Abs(m[3]-1) > 1e-9 {
		t.Fatalf("expected rotate(0) to be identity-like, got %v", m)
	}
}

func TestTransformedDrawBalancesSaveRestore(t *testing.T) {
	s := css.Initial()
	s.Transform = []css.TransformOp{{Kind: "rotate", Angle: 0}}
	child := sizedLeaf(numeric.FromPoints(10), numeric.FromPoints(10))
	tr := NewTransformed(s, child)
	tr.Wrap(numeric.FromPoints(100), numeric.FromPoints(100), 0)

	cv := canvas.New()
	tr.Draw(cv, numeric.Rect{W: numeric.FromPoints(10), H: numeric.FromPoints(10)})
	if !cv.Balanced() {
		t.Fatalf("expected balanced save/restore around transformed draw")
	}
}
