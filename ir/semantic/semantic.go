package semantic

import (
	"context"

	"github.com/dociq/pagepdf/ir/decoded"
	"github.com/dociq/pagepdf/ir/raw"
)

// Document is the semantic representation of a re-parsed PDF, built by
// walking the decoded IR. It carries only what the template-composition
// re-parser (§4.10) needs to recompose pages into a new document: page
// geometry, content streams, resources, and structure for tagged output.
type Document struct {
	Pages         []*Page
	Info          *DocumentInfo
	Metadata      *XMPMetadata
	Lang          string
	Marked        bool
	PageLabels    map[int]string // page index -> prefix
	Outlines      []OutlineItem
	StructTree    *StructureTree
	OutputIntents []OutputIntent
	Encrypted     bool
	decoded       *decoded.DecodedDocument
}

// Decoded returns the underlying decoded document (if set).
func (d *Document) Decoded() *decoded.DecodedDocument { return d.decoded }

// Page models a single PDF page.
type Page struct {
	Index       int
	MediaBox    Rectangle
	CropBox     Rectangle
	TrimBox     Rectangle
	BleedBox    Rectangle
	ArtBox      Rectangle
	Rotate      int // degrees: 0/90/180/270
	Resources   *Resources
	Contents    []ContentStream
	Annotations []Annotation
	UserUnit    float64
	ref         raw.ObjectRef
	OriginalRef raw.ObjectRef
}

// ContentStream is a sequence of operations on a page or Form XObject.
type ContentStream struct {
	Operations []Operation
	RawBytes   []byte
}

// Operation represents a PDF operator and operands.
type Operation struct {
	Operator string
	Operands []Operand
}

// Operand is a type-safe operand value.
type Operand interface {
	operand()
	Type() string
}

type NumberOperand struct{ Value float64 }

func (NumberOperand) operand()     {}
func (NumberOperand) Type() string { return "number" }

type NameOperand struct{ Value string }

func (NameOperand) operand()     {}
func (NameOperand) Type() string { return "name" }

type StringOperand struct{ Value []byte }

func (StringOperand) operand()     {}
func (StringOperand) Type() string { return "string" }

type ArrayOperand struct{ Values []Operand }

func (ArrayOperand) operand()     {}
func (ArrayOperand) Type() string { return "array" }

type DictOperand struct{ Values map[string]Operand }

func (DictOperand) operand()     {}
func (DictOperand) Type() string { return "dict" }

type InlineImageOperand struct {
	Image DictOperand
	Data  []byte
}

func (InlineImageOperand) operand()     {}
func (InlineImageOperand) Type() string { return "inline_image" }

// Resources holds per-page resources with optional inheritance (§4.10).
type Resources struct {
	Fonts       map[string]*Font
	ExtGStates  map[string]ExtGState
	ColorSpaces map[string]ColorSpace
	XObjects    map[string]XObject
	Patterns    map[string]Pattern
	Shadings    map[string]Shading
	OriginalRef raw.ObjectRef
}

// Font represents a font resource referenced by a content stream.
type Font struct {
	Subtype        string // Type1 (default), TrueType, Type0, Type3
	BaseFont       string
	Encoding       string
	EncodingDict   *EncodingDict // For custom encodings
	EncodingCMap   []byte        // For custom CMap (Type 0)
	ToUnicodeCMap  []byte        // ToUnicode CMap stream
	Widths         map[int]int   // character code -> width
	ToUnicode      map[int][]rune
	CIDSystemInfo  *CIDSystemInfo
	DescendantFont *CIDFont
	Descriptor     *FontDescriptor
	CharProcs      map[string][]byte // Type 3 specific
	FontMatrix     []float64
	Resources      *Resources
	FontBBox       Rectangle

	ref         raw.ObjectRef
	OriginalRef raw.ObjectRef
}

// EncodingDict represents a custom encoding dictionary.
type EncodingDict struct {
	BaseEncoding string
	Differences  []EncodingDifference
}

// EncodingDifference represents a difference in encoding.
type EncodingDifference struct {
	Code int
	Name string
}

// ExtGState captures graphics state defaults such as transparency.
type ExtGState struct {
	LineWidth     *float64
	StrokeAlpha   *float64
	FillAlpha     *float64
	BlendMode     string // /BM
	OverprintFill *bool  // /op
	SoftMask      *SoftMaskDict
	OriginalRef   raw.ObjectRef
}

// SoftMaskDict represents a soft-mask dictionary used in ExtGState.
type SoftMaskDict struct {
	Subtype       string   // /S (Alpha, Luminosity)
	Group         *XObject // /G (Transparency Group XObject)
	BackdropColor []float64
}

// TransparencyGroup describes the attributes of a transparency group XObject.
type TransparencyGroup struct {
	CS       ColorSpace
	Isolated bool
	Knockout bool
}

// ColorSpace references a named colorspace.
type ColorSpace interface {
	ColorSpaceName() string
}

type DeviceColorSpace struct{ Name string }

func (cs DeviceColorSpace) ColorSpaceName() string { return cs.Name }

// ICCBasedColorSpace represents an ICC-based color space.
type ICCBasedColorSpace struct {
	Profile     []byte
	Alternate   ColorSpace
	Range       []float64
	OriginalRef raw.ObjectRef
}

func (cs *ICCBasedColorSpace) ColorSpaceName() string { return "ICCBased" }

// SeparationColorSpace represents a Separation color space.
type SeparationColorSpace struct {
	Name          string
	Alternate     ColorSpace
	TintTransform Function
	OriginalRef   raw.ObjectRef
}

func (cs *SeparationColorSpace) ColorSpaceName() string { return "Separation" }

// DeviceNColorSpace represents a DeviceN color space.
type DeviceNColorSpace struct {
	Names         []string
	Alternate     ColorSpace
	TintTransform Function
	OriginalRef   raw.ObjectRef
}

func (cs *DeviceNColorSpace) ColorSpaceName() string { return "DeviceN" }

// IndexedColorSpace represents an Indexed color space.
type IndexedColorSpace struct {
	Base        ColorSpace
	Hival       int
	Lookup      []byte // stream or string
	OriginalRef raw.ObjectRef
}

func (cs *IndexedColorSpace) ColorSpaceName() string { return "Indexed" }

// PatternColorSpace represents the Pattern color space.
type PatternColorSpace struct {
	Underlying ColorSpace // set for uncolored patterns
}

func (cs *PatternColorSpace) ColorSpaceName() string { return "Pattern" }

// SpectrallyDefinedColorSpace represents a SpectrallyDefined color space.
type SpectrallyDefinedColorSpace struct {
	Data []byte
}

func (cs *SpectrallyDefinedColorSpace) ColorSpaceName() string { return "SpectrallyDefined" }

// XObject describes a referenced object: an Image or a Form.
type XObject struct {
	Subtype          string // Image, Form
	Width            int
	Height           int
	ColorSpace       ColorSpace
	BitsPerComponent int
	Data             []byte
	Filter           string // e.g. DCTDecode, set when Data is still encoded
	BBox             Rectangle
	Matrix           []float64
	Resources        *Resources
	Interpolate      bool
	SMask            *XObject
	Group            *TransparencyGroup
	OriginalRef      raw.ObjectRef
}

// Image is an alias for XObject for image convenience APIs.
type Image = XObject

// Pattern represents a PDF pattern.
type Pattern interface {
	PatternType() int
	Reference() raw.ObjectRef
	SetReference(raw.ObjectRef)
}

type BasePattern struct {
	Type        int
	Matrix      []float64
	Ref         raw.ObjectRef
	OriginalRef raw.ObjectRef
}

func (p *BasePattern) PatternType() int             { return p.Type }
func (p *BasePattern) Reference() raw.ObjectRef     { return p.Ref }
func (p *BasePattern) SetReference(r raw.ObjectRef) { p.Ref = r }

// TilingPattern (Type 1)
type TilingPattern struct {
	BasePattern
	PaintType  int // 1 = Colored, 2 = Uncolored
	TilingType int
	BBox       Rectangle
	XStep      float64
	YStep      float64
	Resources  *Resources
	Content    []byte
}

// ShadingPattern (Type 2)
type ShadingPattern struct {
	BasePattern
	Shading   Shading
	ExtGState *ExtGState
}

// Shading is the interface for all shading types.
type Shading interface {
	ShadingType() int
	ShadingColorSpace() ColorSpace
	Reference() raw.ObjectRef
	SetReference(raw.ObjectRef)
}

// BaseShading provides common fields for shadings.
type BaseShading struct {
	Type        int
	ColorSpace  ColorSpace
	BBox        Rectangle
	AntiAlias   bool
	Ref         raw.ObjectRef
	OriginalRef raw.ObjectRef
}

func (s *BaseShading) ShadingType() int              { return s.Type }
func (s *BaseShading) ShadingColorSpace() ColorSpace { return s.ColorSpace }
func (s *BaseShading) Reference() raw.ObjectRef      { return s.Ref }
func (s *BaseShading) SetReference(r raw.ObjectRef)  { s.Ref = r }

// FunctionShading represents function-based shadings (Type 1, 2, 3).
type FunctionShading struct {
	BaseShading
	Coords   []float64
	Domain   []float64
	Function []Function
	Extend   []bool
}

// MeshShading represents mesh-based shadings (Type 4-7).
type MeshShading struct {
	BaseShading
	BitsPerCoordinate int
	BitsPerComponent  int
	BitsPerFlag       int
	Decode            []float64
	Function          Function
	Stream            []byte
}

// Rectangle represents a PDF rectangle.
type Rectangle struct {
	LLX, LLY, URX, URY float64
}

// CIDSystemInfo describes the registry/ordering of a CID font.
type CIDSystemInfo struct {
	Registry   string
	Ordering   string
	Supplement int
}

// CIDFont describes a descendant font for Type0 fonts.
type CIDFont struct {
	Subtype         string // CIDFontType0 or CIDFontType2
	BaseFont        string
	CIDSystemInfo   CIDSystemInfo
	DW              int
	W               map[int]int // CID -> width
	CIDToGIDMap     []byte
	CIDToGIDMapName string
	Descriptor      *FontDescriptor
}

// FontDescriptor carries metrics and font file embedding details.
type FontDescriptor struct {
	FontName        string
	Flags           int
	ItalicAngle     float64
	Ascent          float64
	Descent         float64
	CapHeight       float64
	StemV           int
	FontBBox        [4]float64
	FontFile        []byte
	FontFileType    string // FontFile2 (TrueType) or FontFile3
	FontFileSubtype string
}

// EmbeddedFile models an associated file; only present to give structure
// parsing somewhere to put /AF entries it encounters, not acted upon.
type EmbeddedFile struct {
	Name         string
	Relationship string
	Subtype      string
	Data         []byte
	OriginalRef  raw.ObjectRef
}

// DocumentInfo models /Info dictionary values.
type DocumentInfo struct {
	Title       string
	Author      string
	Subject     string
	Creator     string
	Producer    string
	Keywords    []string
	OriginalRef raw.ObjectRef
}

type XMPMetadata struct {
	Raw         []byte
	OriginalRef raw.ObjectRef
}

// OutputIntent models color output intent metadata.
type OutputIntent struct {
	S                         string
	OutputConditionIdentifier string
	Info                      string
	DestOutputProfile         []byte
	OriginalRef               raw.ObjectRef
}

// Annotation represents a page annotation (appearance-only for re-parse;
// form-field editing is out of scope, §1 Non-goals).
type Annotation interface {
	Type() string
	Rect() Rectangle
	Reference() raw.ObjectRef
}

// BaseAnnotation provides common fields for annotations.
type BaseAnnotation struct {
	Subtype     string
	RectVal     Rectangle
	Appearance  []byte // normal appearance stream content, if any
	Flags       int
	Ref         raw.ObjectRef
	OriginalRef raw.ObjectRef
}

func (a *BaseAnnotation) Type() string             { return a.Subtype }
func (a *BaseAnnotation) Rect() Rectangle          { return a.RectVal }
func (a *BaseAnnotation) Reference() raw.ObjectRef { return a.Ref }

// GenericAnnotation represents any annotation carried for appearance replay.
type GenericAnnotation struct {
	BaseAnnotation
}

// OutlineItem describes a bookmark entry (carried through for PDF viewers
// that build a navigation panel from composed output).
type OutlineItem struct {
	Title       string
	PageIndex   int
	Dest        *OutlineDestination
	Children    []OutlineItem
	OriginalRef raw.ObjectRef
}

// OutlineDestination describes an outline destination using XYZ coordinates.
// Nil fields indicate "leave unchanged" semantics per PDF spec.
type OutlineDestination struct {
	X    *float64
	Y    *float64
	Zoom *float64
}

// Builder produces a Semantic document from Decoded IR.
type Builder interface {
	Build(ctx context.Context, dec *decoded.DecodedDocument) (*Document, error)
}

// Function represents a PDF function (needed to evaluate Separation/DeviceN
// tint transforms and shading color ramps during raster recomposition).
type Function interface {
	FunctionType() int
	FunctionDomain() []float64
	FunctionRange() []float64
	Reference() raw.ObjectRef
	SetReference(raw.ObjectRef)
}

type BaseFunction struct {
	Type        int
	Domain      []float64
	Range       []float64
	Ref         raw.ObjectRef
	OriginalRef raw.ObjectRef
}

func (f *BaseFunction) FunctionType() int            { return f.Type }
func (f *BaseFunction) FunctionDomain() []float64    { return f.Domain }
func (f *BaseFunction) FunctionRange() []float64     { return f.Range }
func (f *BaseFunction) Reference() raw.ObjectRef     { return f.Ref }
func (f *BaseFunction) SetReference(r raw.ObjectRef) { f.Ref = r }

// SampledFunction (Type 0)
type SampledFunction struct {
	BaseFunction
	Size          []int
	BitsPerSample int
	Order         int
	Encode        []float64
	Decode        []float64
	Samples       []byte
}

// ExponentialFunction (Type 2)
type ExponentialFunction struct {
	BaseFunction
	C0 []float64
	C1 []float64
	N  float64
}

// StitchingFunction (Type 3)
type StitchingFunction struct {
	BaseFunction
	Functions []Function
	Bounds    []float64
	Encode    []float64
}
