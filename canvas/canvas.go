// Package canvas implements the command canvas (C6): a thin, append-only
// log of graphics commands with a state-stack discipline. Ordering is
// authoritative for both paint (raster) and PDF content-stream
// serialization (writer) — §4.6.
package canvas

import "github.com/dociq/pagepdf/numeric"

// Matrix is a 2x3 affine transform [a b c d e f], matching the PDF content
// stream `cm` operand order.
type Matrix [6]float64

// Identity returns the identity transform.
func Identity() Matrix { return Matrix{1, 0, 0, 1, 0, 0} }

// Multiply composes m then o (o applied in the outer coordinate space),
// matching PDF's `cm` concatenation semantics.
func (m Matrix) Multiply(o Matrix) Matrix {
	return Matrix{
		m[0]*o[0] + m[1]*o[2],
		m[0]*o[1] + m[1]*o[3],
		m[2]*o[0] + m[3]*o[2],
		m[2]*o[1] + m[3]*o[3],
		m[4]*o[0] + m[5]*o[2] + o[4],
		m[4]*o[1] + m[5]*o[3] + o[5],
	}
}

func Translate(tx, ty float64) Matrix { return Matrix{1, 0, 0, 1, tx, ty} }
func Scale(sx, sy float64) Matrix     { return Matrix{sx, 0, 0, sy, 0, 0} }

// CommandKind enumerates the CommandStream variants of §3.
type CommandKind int

const (
	CmdSaveState CommandKind = iota
	CmdRestoreState
	CmdConcatMatrix
	CmdSetFillColor
	CmdSetStrokeColor
	CmdFillRect
	CmdStrokeRect
	CmdFillPath
	CmdStrokePath
	CmdBeginText
	CmdSetFont
	CmdMoveText
	CmdShowText
	CmdEndText
	CmdDrawImage
	CmdDrawForm
	CmdClipRect
	CmdClipPath
)

// PathSeg is one segment of a filled/stroked path, in local (pre-CTM)
// coordinates.
type PathSeg struct {
	MoveTo  bool
	LineTo  bool
	CurveTo bool
	Close   bool
	X, Y    numeric.Length
	C1X, C1Y, C2X, C2Y numeric.Length
}

// RGBA is a resolved paint color; components in [0,1].
type RGBA struct{ R, G, B, A float64 }

// Command is one self-describing entry in the append-only log (§4.6).
// Only the fields relevant to Kind are populated.
type Command struct {
	Kind CommandKind

	Matrix Matrix
	Color  RGBA

	Rect numeric.Rect
	Path []PathSeg

	FontRef  string
	FontSize numeric.Length
	Leading  numeric.Length
	Text     string

	ImageRef string
	FormRef  string

	DX, DY numeric.Length

	ClipEvenOdd bool
}

// Canvas is the append-only command log plus a state-stack discipline for
// Save/Restore balance checking (§4.6).
type Canvas struct {
	Commands []Command
	depth    int
}

// New returns an empty canvas.
func New() *Canvas { return &Canvas{} }

func (c *Canvas) push(cmd Command) { c.Commands = append(c.Commands, cmd) }

// SaveState emits `q` and increments the save-stack depth.
func (c *Canvas) SaveState() {
	c.push(Command{Kind: CmdSaveState})
	c.depth++
}

// RestoreState emits `Q`. Panics if the stack is already empty — a
// programmer error inside the layout/paint pipeline, not a user-facing
// one, mirroring the teacher's contentstream.GraphicsState.Restore
// discipline.
func (c *Canvas) RestoreState() {
	if c.depth == 0 {
		panic("canvas: RestoreState without matching SaveState")
	}
	c.push(Command{Kind: CmdRestoreState})
	c.depth--
}

// Balanced reports whether every SaveState has a matching RestoreState.
func (c *Canvas) Balanced() bool { return c.depth == 0 }

func (c *Canvas) ConcatMatrix(m Matrix)      { c.push(Command{Kind: CmdConcatMatrix, Matrix: m}) }
func (c *Canvas) SetFillColor(col RGBA)      { c.push(Command{Kind: CmdSetFillColor, Color: col}) }
func (c *Canvas) SetStrokeColor(col RGBA)    { c.push(Command{Kind: CmdSetStrokeColor, Color: col}) }
func (c *Canvas) FillRect(r numeric.Rect)    { c.push(Command{Kind: CmdFillRect, Rect: r}) }
func (c *Canvas) StrokeRect(r numeric.Rect)  { c.push(Command{Kind: CmdStrokeRect, Rect: r}) }
func (c *Canvas) FillPath(p []PathSeg)       { c.push(Command{Kind: CmdFillPath, Path: p}) }
func (c *Canvas) StrokePath(p []PathSeg)     { c.push(Command{Kind: CmdStrokePath, Path: p}) }
func (c *Canvas) BeginText()                 { c.push(Command{Kind: CmdBeginText}) }
func (c *Canvas) EndText()                   { c.push(Command{Kind: CmdEndText}) }

func (c *Canvas) SetFont(ref string, size, leading numeric.Length) {
	c.push(Command{Kind: CmdSetFont, FontRef: ref, FontSize: size, Leading: leading})
}

func (c *Canvas) ShowText(text string) { c.push(Command{Kind: CmdShowText, Text: text}) }

// MoveText advances the text line position by (dx, dy) in unscaled text
// space, matching the PDF `Td` operator (next line starts dy below the
// current one, typically dx=0, dy=-lineHeight).
func (c *Canvas) MoveText(dx, dy numeric.Length) {
	c.push(Command{Kind: CmdMoveText, DX: dx, DY: dy})
}

func (c *Canvas) DrawImage(ref string, m Matrix) {
	c.push(Command{Kind: CmdDrawImage, ImageRef: ref, Matrix: m})
}

func (c *Canvas) DrawForm(ref string, m Matrix) {
	c.push(Command{Kind: CmdDrawForm, FormRef: ref, Matrix: m})
}

func (c *Canvas) ClipRect(r numeric.Rect, evenOdd bool) {
	c.push(Command{Kind: CmdClipRect, Rect: r, ClipEvenOdd: evenOdd})
}

func (c *Canvas) ClipPath(p []PathSeg, evenOdd bool) {
	c.push(Command{Kind: CmdClipPath, Path: p, ClipEvenOdd: evenOdd})
}

// Append concatenates another canvas's commands onto this one (used when
// merging a child flowable's painted output into its parent's stream in
// DOM paint order, §4.4 "Paint order within a container").
func (c *Canvas) Append(other *Canvas) {
	c.Commands = append(c.Commands, other.Commands...)
}
