// Package reparse implements the PDF re-parser (C10, §4.10): it turns an
// existing PDF's bytes — engine-emitted or a vendored template — back into
// the ir/semantic.Document representation the rest of the pipeline already
// understands, so the same writer (C7) and raster (C9) machinery that
// serves forward-built documents also serves re-parsed and recomposed
// ones.
//
// Grounded on the teacher's pdfparse/ir chain: pdfparse.ParseDocument
// builds the raw object table (with xref repair, see objScan in
// pdfparse/document.go),
// ir/decoded.Decoder applies stream filters, and ir/semantic.Builder walks
// the decoded IR into pages/resources/content streams.
package reparse

import (
	"context"
	"fmt"

	"github.com/dociq/pagepdf/diagnostics"
	"github.com/dociq/pagepdf/filters"
	"github.com/dociq/pagepdf/ir/decoded"
	"github.com/dociq/pagepdf/ir/semantic"
	"github.com/dociq/pagepdf/pdfparse"
)

// defaultPipeline wires the baseline filter set §4.10 puts in scope
// (FlateDecode, LZWDecode, RunLengthDecode, ASCIIHex/85Decode,
// DCTDecode); CCITTFaxDecode/JPXDecode/JBIG2Decode are out of scope.
func defaultPipeline() *filters.Pipeline {
	return filters.NewPipeline([]filters.Decoder{
		filters.NewFlateDecoder(),
		filters.NewLZWDecoder(),
		filters.NewRunLengthDecoder(),
		filters.NewASCII85Decoder(),
		filters.NewASCIIHexDecoder(),
		filters.NewDCTDecoder(),
	}, filters.Limits{})
}

// Parse re-parses PDF bytes into a semantic.Document (§4.10). Encrypted
// PDFs are rejected per the determinism/Non-goals boundary (no signature
// or decryption workflows); parse failures are wrapped with context so
// callers can record a structured TemplateError diagnostic.
func Parse(data []byte) (*semantic.Document, error) {
	rawDoc, err := pdfparse.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("reparse: parse raw document: %w", err)
	}
	if rawDoc.Encrypted {
		return nil, fmt.Errorf("reparse: encrypted PDFs are not supported")
	}
	dec, err := decoded.NewDecoder(defaultPipeline()).Decode(context.Background(), rawDoc)
	if err != nil {
		return nil, fmt.Errorf("reparse: decode streams: %w", err)
	}
	doc, err := semantic.NewBuilder().Build(context.Background(), dec)
	if err != nil {
		return nil, fmt.Errorf("reparse: build semantic document: %w", err)
	}
	return doc, nil
}

// ParseTemplate is Parse with a diagnostics hook: a TemplateError record
// is added to report (rather than the caller constructing one itself)
// whenever the template PDF is rejected, per §7 TemplateError.
func ParseTemplate(data []byte, name string, report *diagnostics.Report) (*semantic.Document, error) {
	doc, err := Parse(data)
	if err != nil {
		if report != nil {
			report.Add(diagnostics.Record{Kind: diagnostics.KindTemplateError, Where: name, Requested: err.Error()})
		}
		return nil, err
	}
	return doc, nil
}
