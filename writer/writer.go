// Package writer implements the PDF linker (C7): it builds a
// ir/semantic.Document forward from a paginated set of command canvases
// and serializes it to bytes with deterministic object numbering,
// sorted dictionary keys, and a canonical numeric format (§4.7, §6.5).
package writer

import (
	"github.com/dociq/pagepdf/pdfa"
)

// PDFVersion selects the emitted PDF header version (§6.1 `pdf_version`).
type PDFVersion string

const (
	PDF17 PDFVersion = "1.7"
	PDF20 PDFVersion = "2.0"
)

// Profile selects the tagged/output-intent posture of §6.1 `pdf_profile`.
type Profile string

const (
	ProfileNone      Profile = "none"
	ProfileTagged    Profile = "tagged"
	ProfilePDFX4Like Profile = "pdfx4-like"
)

// ColorSpace selects the page-content default color model (§6.1
// `color_space`).
type ColorSpace string

const (
	ColorSpaceRGB  ColorSpace = "rgb"
	ColorSpaceCMYK ColorSpace = "cmyk"
)

// ContentFilter selects the stream encoding for content/image data (§4.7
// "Streams").
type ContentFilter int

const (
	FilterNone ContentFilter = iota
	FilterFlate
)

// OutputIntentConfig carries the ICC output-intent metadata of §6.1
// `output_intent_*`.
type OutputIntentConfig struct {
	Identifier string
	Info       string
	ICCProfile []byte
}

// Metadata carries the catalog-level document metadata of §6.1
// `document_lang`/`document_title` and §4.7 "Metadata".
type Metadata struct {
	Lang     string
	Title    string
	Author   string
	Subject  string
	Creator  string
	Producer string
}

// Config configures one Write call (§4.7 determinism invariants, §6.1
// pdf_version/pdf_profile/color_space/output_intent_*).
type Config struct {
	Version       PDFVersion
	Profile       Profile
	ColorSpace    ColorSpace
	Compression   int // deflate.Options.Workers analog: 0 = default
	ContentFilter ContentFilter
	FlateMinBytes int // below this, streams are emitted raw (§4.7 "Streams")
	OutputIntent  *OutputIntentConfig
	Metadata      Metadata
	PDFALevel     pdfa.Level
}

// DefaultFlateMinBytes is the small-stream threshold below which
// compression overhead is not worth paying (§4.7 "Streams").
const DefaultFlateMinBytes = 256

func (c Config) pdfVersion() string {
	if c.Version == "" {
		return string(PDF17)
	}
	return string(c.Version)
}

func (c Config) flateMinBytes() int {
	if c.FlateMinBytes > 0 {
		return c.FlateMinBytes
	}
	return DefaultFlateMinBytes
}

// Counters reports the perf figures §4.7 "Counters (perf)" requires.
type Counters struct {
	RawBytes        int64
	EncodedBytes    int64
	ObjectCount     int
	PageCount       int
	DedupHits       int
	CompressionRate float64 // EncodedBytes / RawBytes, 0 when RawBytes == 0
}
