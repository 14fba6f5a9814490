// Package css implements the deterministic cascade/compute stage (C2):
// parsing, selector matching, cascade resolution, custom-property graph
// resolution, and value computation into a per-element ComputedStyle
// snapshot.
package css

import "github.com/dociq/pagepdf/numeric"

// Display enumerates the subset of CSS display values the lowering stage
// (flow) understands.
type Display int

const (
	DisplayNone Display = iota
	DisplayBlock
	DisplayInline
	DisplayInlineBlock
	DisplayFlex
	DisplayGrid
	DisplayTable
	DisplayTableRow
	DisplayTableCell
	DisplayTableHeaderGroup
	DisplayTableRowGroup
	DisplayListItem
)

// Position enumerates the position modes of §3.
type Position int

const (
	PositionStatic Position = iota
	PositionRelative
	PositionAbsolute
	PositionFixed
)

// FlexDirection enumerates main-axis direction.
type FlexDirection int

const (
	FlexRow FlexDirection = iota
	FlexRowReverse
	FlexColumn
	FlexColumnReverse
)

// FlexWrap enumerates wrap behavior.
type FlexWrap int

const (
	FlexNoWrap FlexWrap = iota
	FlexWrapOn
	FlexWrapReverse
)

// Align enumerates the align-items/align-self/justify-content family.
type Align int

const (
	AlignStart Align = iota
	AlignEnd
	AlignCenter
	AlignStretch
	AlignSpaceBetween
	AlignSpaceAround
	AlignSpaceEvenly
	AlignBaseline
)

// BreakRule enumerates break-before/after/inside values (§4.5).
type BreakRule int

const (
	BreakAuto BreakRule = iota
	BreakAlways
	BreakAvoid
	BreakPage
)

// Color is a resolved sRGB(+alpha) color; alpha in [0,1].
type Color struct {
	R, G, B, A float64
}

// GradientKind enumerates the background-image gradient functions.
type GradientKind int

const (
	GradientNone GradientKind = iota
	GradientLinear
	GradientRadial
	GradientConic
)

// GradientStop is one color-stop of a gradient.
type GradientStop struct {
	Color    Color
	Position float64 // 0..1, fraction along the gradient axis
}

// Gradient is a resolved background gradient.
type Gradient struct {
	Kind   GradientKind
	Angle  float64 // radians, for linear/conic
	Stops  []GradientStop
}

// Background carries a flat color plus an optional gradient layered above it.
type Background struct {
	Color    Color
	Gradient Gradient
}

// TransformOp is one function in a transform list (§4.4).
type TransformOp struct {
	Kind string // "translate","scale","rotate","skew","skewX","skewY","matrix"
	A, B, C, D, E, F numeric.Length // translate/scale use A,B; matrix uses all six (E,F in length)
	Angle            float64        // radians, for rotate/skew
}

// TrackSize describes one grid track (§4.4).
type TrackSize struct {
	Fixed   numeric.Length
	Percent float64
	Repeat  int // not set by parseTrackList (repeat(n, T) is expanded into n entries) and not read by grid layout
	IsAuto  bool
	IsFr    bool
	Fr      float64
}

// Font carries the resolved font shorthand.
type Font struct {
	Family []string
	Size   numeric.Length
	Weight int // 100..900
	Italic bool
}

// BoxShadow is one entry of the box-shadow list.
type BoxShadow struct {
	OffsetX, OffsetY, Blur, Spread numeric.Length
	Color                          Color
	Inset                          bool
}

// ComputedStyle is the immutable per-element snapshot produced by the
// cascade (§3). Zero value is the CSS initial state for every field that
// has a sensible zero initial (position:static, etc); Display's zero value
// is DisplayNone, so Initial is the source of the full initial state.
type ComputedStyle struct {
	Display Display

	Margin  numeric.Edges
	Padding numeric.Edges
	Border  numeric.Edges
	BorderColor [4]Color // top,right,bottom,left

	Width, MinWidth, MaxWidth    numeric.Length
	Height, MinHeight, MaxHeight numeric.Length
	WidthAuto, HeightAuto        bool

	Position Position
	Inset    numeric.Edges
	InsetAuto [4]bool // top,right,bottom,left

	FlexDirection   FlexDirection
	FlexWrap        FlexWrap
	FlexGrow        float64
	FlexShrink      float64
	FlexBasis       numeric.Length
	FlexBasisAuto   bool
	JustifyContent  Align
	AlignItems      Align
	AlignContent    Align
	AlignSelf       Align
	AlignSelfAuto   bool

	GridTemplateRows    []TrackSize
	GridTemplateColumns []TrackSize
	GridColumnStart     int // 0 = auto
	GridRowStart        int

	GapRow, GapColumn numeric.Length

	Font       Font
	Color      Color
	Background Background

	Transform       []TransformOp
	TransformOrigin [2]numeric.Length

	Opacity float64

	Overflow string // "visible","hidden","clip","auto"

	BreakBefore, BreakAfter, BreakInside BreakRule

	ZIndex     int
	ZIndexAuto bool

	ClipPathInset numeric.Edges
	ClipPathSet   bool

	FilterBlur, BackdropBlur float64
	FilterSaturate           float64

	MixBlendMode string

	BoxShadow []BoxShadow

	WritingMode string // only "horizontal-tb" is supported; others diagnosed

	// CustomProps carries this element's custom-property values after
	// var() substitution (properties that fail to resolve are omitted);
	// child elements seed their custom-property graph from it.
	CustomProps map[string]string
}

// Initial returns the CSS initial computed style.
func Initial() ComputedStyle {
	return ComputedStyle{
		Display:        DisplayInline,
		Position:       PositionStatic,
		FlexGrow:       0,
		FlexShrink:     1,
		FlexBasisAuto:  true,
		JustifyContent: AlignStart,
		AlignItems:     AlignStretch,
		AlignContent:   AlignStart,
		AlignSelfAuto:  true,
		Font:           Font{Family: []string{"Helvetica"}, Size: numeric.FromPoints(12), Weight: 400},
		Color:          Color{0, 0, 0, 1},
		Opacity:        1,
		Overflow:       "visible",
		ZIndexAuto:     true,
		WritingMode:    "horizontal-tb",
		WidthAuto:      true,
		HeightAuto:     true,
		InsetAuto:      [4]bool{true, true, true, true},
		FilterSaturate: 1,
	}
}
