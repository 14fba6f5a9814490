package pdfparse

import (
	"bytes"
	"fmt"

	"github.com/dociq/pagepdf/ir/raw"
)

// xrefEntry is one classic cross-reference table entry (§4.10).
type xrefEntry struct {
	offset int64
	gen    int
}

// ParseDocument parses a complete PDF file into a raw.Document (§4.10):
// it locates startxref, walks the classic cross-reference table
// (following /Prev chains across incremental updates), and resolves
// every object the table names. Files whose xref table is missing,
// malformed, or cross-reference-stream-based (PDF 1.5+) fall back to
// objScan, a linear "N G obj" recovery scan that rebuilds the object
// table directly from the byte stream — the same fallback the teacher's
// xref.Resolver performs when the declared table doesn't parse
// (SPEC_FULL.md "xref repair on re-parse").
func ParseDocument(data []byte) (*raw.Document, error) {
	doc := &raw.Document{Objects: map[raw.ObjectRef]raw.Object{}, Version: sniffVersion(data)}

	trailer, err := parseViaXref(data, doc)
	if err != nil || trailer == nil {
		trailer = objScan(data, doc)
	}
	doc.Trailer = trailer
	if trailer != nil {
		if _, ok := trailer.Get(raw.NameLiteral("Encrypt")); ok {
			doc.Encrypted = true
		}
	}
	return doc, nil
}

func sniffVersion(data []byte) string {
	const magic = "%PDF-"
	idx := bytes.Index(data, []byte(magic))
	if idx < 0 {
		return "1.7"
	}
	rest := data[idx+len(magic):]
	end := bytes.IndexAny(rest, "\r\n")
	if end < 0 {
		end = len(rest)
	}
	if end > 8 {
		end = 8
	}
	return string(rest[:end])
}

// parseViaXref follows the startxref chain. It returns (nil, nil) rather
// than an error when the chain leads somewhere objScan should take over
// instead (e.g. an xref stream at the target offset), keeping the
// classic-table path and the recovery path mutually exclusive but
// equally valid.
func parseViaXref(data []byte, doc *raw.Document) (*raw.DictObj, error) {
	sxIdx := bytes.LastIndex(data, []byte("startxref"))
	if sxIdx < 0 {
		return nil, fmt.Errorf("pdfparse: startxref not found")
	}
	sc := NewScanner(data)
	if err := sc.Seek(int64(sxIdx + len("startxref"))); err != nil {
		return nil, err
	}
	tok, err := sc.Next()
	if err != nil || tok.Type != TokenNumber || !tok.IsInt {
		return nil, fmt.Errorf("pdfparse: malformed startxref")
	}
	offset := tok.Int

	p := NewParser(data)
	var primary *raw.DictObj
	visited := map[int64]bool{}
	for offset > 0 && !visited[offset] {
		visited[offset] = true
		trailer, ok, err := parseXrefSectionAt(data, p, doc, offset)
		if err != nil {
			return nil, err
		}
		if !ok {
			if primary != nil {
				// A broken /Prev link still leaves the primary (most
				// recent) section usable; stop following the chain.
				break
			}
			return nil, nil
		}
		if primary == nil {
			primary = trailer
		} else {
			for _, k := range trailer.Keys() {
				if _, exists := primary.Get(k); !exists {
					v, _ := trailer.Get(k)
					primary.Set(k, v)
				}
			}
		}
		prevObj, hasPrev := trailer.Get(raw.NameLiteral("Prev"))
		if !hasPrev {
			break
		}
		n, ok := prevObj.(raw.NumberObj)
		if !ok {
			break
		}
		offset = n.Int()
	}
	if primary == nil {
		return nil, fmt.Errorf("pdfparse: no trailer found")
	}
	return primary, nil
}

// parseXrefSectionAt parses one classic "xref ... trailer <<...>>" section
// at offset, populating doc.Objects for every "n" (in-use) entry not
// already resolved by a more recent section. ok is false (with a nil
// error) when offset does not begin a classic table — most likely an
// xref stream — signaling the caller to fall back to objScan instead of
// treating it as a parse failure.
func parseXrefSectionAt(data []byte, p *Parser, doc *raw.Document, offset int64) (*raw.DictObj, bool, error) {
	sc := NewScanner(data)
	if err := sc.Seek(offset); err != nil {
		return nil, false, err
	}
	tok, err := sc.Next()
	if err != nil {
		return nil, false, err
	}
	if tok.Type != TokenKeyword || tok.Str != "xref" {
		return nil, false, nil
	}

	entries := map[int]xrefEntry{}
	for {
		tok, err = sc.Next()
		if err != nil {
			return nil, false, err
		}
		if tok.Type == TokenKeyword && tok.Str == "trailer" {
			break
		}
		if tok.Type != TokenNumber || !tok.IsInt {
			return nil, false, fmt.Errorf("pdfparse: malformed xref subsection header")
		}
		start := int(tok.Int)
		countTok, err := sc.Next()
		if err != nil || countTok.Type != TokenNumber || !countTok.IsInt {
			return nil, false, fmt.Errorf("pdfparse: malformed xref subsection count")
		}
		count := int(countTok.Int)
		for i := 0; i < count; i++ {
			offTok, err := sc.Next()
			if err != nil || offTok.Type != TokenNumber {
				return nil, false, fmt.Errorf("pdfparse: malformed xref entry offset")
			}
			genTok, err := sc.Next()
			if err != nil || genTok.Type != TokenNumber {
				return nil, false, fmt.Errorf("pdfparse: malformed xref entry generation")
			}
			kindTok, err := sc.Next()
			if err != nil || kindTok.Type != TokenKeyword {
				return nil, false, fmt.Errorf("pdfparse: malformed xref entry marker")
			}
			objNum := start + i
			if kindTok.Str == "n" {
				if _, exists := entries[objNum]; !exists {
					entries[objNum] = xrefEntry{offset: offTok.Int, gen: int(genTok.Int)}
				}
			}
		}
	}

	for objNum, e := range entries {
		ref := raw.ObjectRef{Num: objNum, Gen: e.gen}
		if _, exists := doc.Objects[ref]; exists {
			continue
		}
		obj, parsedRef, err := p.ParseObjectAt(e.offset)
		if err != nil {
			continue
		}
		doc.Objects[parsedRef] = obj
	}

	// Resolving entries moved p; the trailer dictionary starts right
	// after the "trailer" keyword sc consumed.
	p.sc.pos = sc.pos
	p.peek = nil
	trailerVal, err := p.ParseValue()
	if err != nil {
		return nil, false, err
	}
	dict, ok := trailerVal.(*raw.DictObj)
	if !ok {
		return nil, false, fmt.Errorf("pdfparse: trailer is not a dictionary")
	}
	return dict, true, nil
}

// objScan rebuilds the object table by linearly scanning for "N G obj"
// headers, bypassing the tokenizer entirely across each object's stream
// payload (binary stream bytes are not valid PDF syntax and would
// otherwise desync the scanner). This is the last resort for broken
// xref tables and the only path taken for PDF 1.5+ cross-reference
// streams, which this package does not decode (§4.10 baseline scope).
func objScan(data []byte, doc *raw.Document) *raw.DictObj {
	p := NewParser(data)
	for _, off := range findObjectHeaders(data) {
		obj, ref, err := p.ParseObjectAt(off)
		if err != nil {
			continue
		}
		doc.Objects[ref] = obj
	}
	return findTrailer(data, doc)
}

// findObjectHeaders scans data for "<int> <int> obj" header positions,
// skipping each object's body up to its "endobj" so that binary stream
// content is never tokenized.
func findObjectHeaders(data []byte) []int64 {
	sc := NewScanner(data)
	var offsets []int64
	var window [3]Token
	filled := 0
	for {
		tok, err := sc.Next()
		if err != nil || tok.Type == TokenEOF {
			break
		}
		window[0], window[1], window[2] = window[1], window[2], tok
		if filled < 3 {
			filled++
		}
		if filled == 3 &&
			window[0].Type == TokenNumber && window[0].IsInt &&
			window[1].Type == TokenNumber && window[1].IsInt &&
			window[2].Type == TokenKeyword && window[2].Str == "obj" {
			offsets = append(offsets, window[0].Pos)
			if idx := bytes.Index(data[sc.pos:], []byte("endobj")); idx >= 0 {
				sc.pos += int64(idx + len("endobj"))
			}
			filled = 0
		}
	}
	return offsets
}

// findTrailer locates the document's trailer dictionary after a recovery
// scan: the classic "trailer" keyword if present, else the /XRef stream
// object's own dictionary (which carries /Root directly), else a
// synthetic trailer built from any /Catalog object found.
func findTrailer(data []byte, doc *raw.Document) *raw.DictObj {
	if idx := bytes.LastIndex(data, []byte("trailer")); idx >= 0 {
		p := NewParser(data)
		p.sc.pos = int64(idx + len("trailer"))
		if v, err := p.ParseValue(); err == nil {
			if d, ok := v.(*raw.DictObj); ok {
				return d
			}
		}
	}
	for _, obj := range doc.Objects {
		d := asDict(obj)
		if d == nil {
			continue
		}
		if n, ok := nameOf(d, "Type"); ok && n == "XRef" {
			if _, ok := d.Get(raw.NameLiteral("Root")); ok {
				return d
			}
		}
	}
	for ref, obj := range doc.Objects {
		d := asDict(obj)
		if d == nil {
			continue
		}
		if n, ok := nameOf(d, "Type"); ok && n == "Catalog" {
			trailer := raw.Dict()
			trailer.Set(raw.NameLiteral("Root"), raw.Ref(ref.Num, ref.Gen))
			return trailer
		}
	}
	return raw.Dict()
}

func asDict(o raw.Object) *raw.DictObj {
	switch v := o.(type) {
	case *raw.DictObj:
		return v
	case *raw.StreamObj:
		return v.Dict
	}
	return nil
}

func nameOf(d *raw.DictObj, key string) (string, bool) {
	v, ok := d.Get(raw.NameLiteral(key))
	if !ok {
		return "", false
	}
	n, ok := v.(raw.NameObj)
	if !ok {
		return "", false
	}
	return n.Val, true
}
