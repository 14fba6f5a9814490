package pdfparse

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/dociq/pagepdf/ir/raw"
)

// buildMinimalPDF hand-assembles a one-page classic-xref PDF so tests
// don't depend on the writer package, keeping pdfparse's own test suite
// self-contained.
func buildMinimalPDF() []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")

	offsets := make([]int, 4)
	write := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}
	write(1, "<< /Type /Catalog /Pages 2 0 R >>")
	write(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	write(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")

	xrefOffset := buf.Len()
	buf.WriteString("xref\n")
	fmt.Fprintf(&buf, "0 4\n")
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= 3; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	buf.WriteString("trailer\n")
	buf.WriteString("<< /Size 4 /Root 1 0 R >>\n")
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF", xrefOffset)
	return buf.Bytes()
}

func TestParseDocumentClassicXref(t *testing.T) {
	doc, err := ParseDocument(buildMinimalPDF())
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if doc.Version != "1.7" {
		t.Fatalf("version = %q, want 1.7", doc.Version)
	}
	if doc.Encrypted {
		t.Fatal("unexpected Encrypted=true")
	}
	root, ok := doc.Trailer.Get(raw.NameLiteral("Root"))
	if !ok {
		t.Fatal("trailer missing /Root")
	}
	ref, ok := root.(raw.RefObj)
	if !ok || ref.R.Num != 1 {
		t.Fatalf("unexpected /Root value: %#v", root)
	}
	catalog, ok := doc.Objects[raw.ObjectRef{Num: 1, Gen: 0}].(*raw.DictObj)
	if !ok {
		t.Fatalf("object 1 not resolved as a dict: %#v", doc.Objects[raw.ObjectRef{Num: 1}])
	}
	if n, ok := nameOf(catalog, "Type"); !ok || n != "Catalog" {
		t.Fatalf("object 1 /Type = %q", n)
	}
	if len(doc.Objects) != 3 {
		t.Fatalf("expected 3 resolved objects, got %d", len(doc.Objects))
	}
}

func TestParseDocumentRecoversFromBrokenXref(t *testing.T) {
	data := buildMinimalPDF()
	// Corrupt the startxref offset so the classic-table path fails and
	// objScan must rebuild the object table from "N G obj" headers.
	corrupted := bytes.Replace(data, []byte("startxref\n"), []byte("startxref\n999999999\n"), 1)

	doc, err := ParseDocument(corrupted)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if len(doc.Objects) != 3 {
		t.Fatalf("expected recovery scan to find 3 objects, got %d", len(doc.Objects))
	}
	root, ok := doc.Trailer.Get(raw.NameLiteral("Root"))
	if !ok {
		t.Fatal("recovered trailer missing /Root")
	}
	if ref, ok := root.(raw.RefObj); !ok || ref.R.Num != 1 {
		t.Fatalf("unexpected recovered /Root: %#v", root)
	}
}
