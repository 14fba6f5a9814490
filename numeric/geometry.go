package numeric

// Point is a 2D coordinate in millipoints.
type Point struct{ X, Y Length }

// Rect is an axis-aligned rectangle in millipoints, origin at lower-left
// to match PDF user space, as carried through layout boxes and frames.
type Rect struct {
	X, Y, W, H Length
}

// Right returns the rectangle's right edge.
func (r Rect) Right() Length { return r.X.Add(r.W) }

// Top returns the rectangle's top edge.
func (r Rect) Top() Length { return r.Y.Add(r.H) }

// Inset shrinks the rectangle by the given edge widths (top/right/bottom/left).
func (r Rect) Inset(top, right, bottom, left Length) Rect {
	return Rect{
		X: r.X.Add(left),
		Y: r.Y.Add(bottom),
		W: r.W.Sub(left).Sub(right),
		H: r.H.Sub(top).Sub(bottom),
	}
}

// Edges carries the four per-side values common to margin/padding/border.
type Edges struct {
	Top, Right, Bottom, Left Length
}

// Horizontal returns Left+Right.
func (e Edges) Horizontal() Length { return e.Left.Add(e.Right) }

// Vertical returns Top+Bottom.
func (e Edges) Vertical() Length { return e.Top.Add(e.Bottom) }

// Size is a measured (width, height) pair.
type Size struct{ W, H Length }
