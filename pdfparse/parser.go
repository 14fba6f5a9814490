package pdfparse

import (
	"fmt"

	"github.com/dociq/pagepdf/ir/raw"
)

// Parser builds raw.Object values out of a token stream. It implements the
// lookahead PDF needs to disambiguate a bare integer from the first two
// numbers of an indirect reference ("12 0 R") or an object header
// ("12 0 obj").
type Parser struct {
	sc   *Scanner
	peek []Token
}

// NewParser constructs a Parser over raw PDF bytes.
func NewParser(data []byte) *Parser {
	return &Parser{sc: NewScanner(data)}
}

func (p *Parser) next() (Token, error) {
	if len(p.peek) > 0 {
		t := p.peek[len(p.peek)-1]
		p.peek = p.peek[:len(p.peek)-1]
		return t, nil
	}
	return p.sc.Next()
}

func (p *Parser) pushback(t Token) {
	p.peek = append(p.peek, t)
}

// ParseObjectAt parses a single indirect object ("N G obj ... endobj") at the
// given byte offset and returns its value (the dictionary/array/stream/etc,
// not including the "N G obj" wrapper).
func (p *Parser) ParseObjectAt(offset int64) (raw.Object, raw.ObjectRef, error) {
	if err := p.sc.Seek(offset); err != nil {
		return nil, raw.ObjectRef{}, err
	}
	p.peek = nil

	numTok, err := p.next()
	if err != nil {
		return nil, raw.ObjectRef{}, err
	}
	genTok, err := p.next()
	if err != nil {
		return nil, raw.ObjectRef{}, err
	}
	kwTok, err := p.next()
	if err != nil {
		return nil, raw.ObjectRef{}, err
	}
	if numTok.Type != TokenNumber || genTok.Type != TokenNumber || kwTok.Type != TokenKeyword || kwTok.Str != "obj" {
		return nil, raw.ObjectRef{}, fmt.Errorf("pdfparse: expected \"N G obj\" at offset %d", offset)
	}
	ref := raw.ObjectRef{Num: int(numTok.Int), Gen: int(genTok.Int)}

	val, err := p.ParseValue()
	if err != nil {
		return nil, ref, err
	}

	// A stream dictionary is followed by "stream" ... data ... "endstream".
	if dict, ok := val.(*raw.DictObj); ok {
		tok, err := p.next()
		if err != nil {
			return nil, ref, err
		}
		if tok.Type == TokenKeyword && tok.Str == "stream" {
			data, err := p.readStreamData(dict)
			if err != nil {
				return nil, ref, err
			}
			return raw.NewStream(dict, data), ref, nil
		}
		p.pushback(tok)
	}
	return val, ref, nil
}

// readStreamData reads the raw (still filter-encoded) bytes of a stream
// whose "stream" keyword has just been consumed. Per spec, "stream" is
// followed by CRLF or LF (never bare CR) and exactly Length bytes of data.
func (p *Parser) readStreamData(dict *raw.DictObj) ([]byte, error) {
	pos := p.sc.pos
	if pos < int64(len(p.sc.data)) && p.sc.data[pos] == '\r' {
		pos++
	}
	if pos < int64(len(p.sc.data)) && p.sc.data[pos] == '\n' {
		pos++
	}

	length, ok := streamLength(dict)
	if !ok {
		// Length missing or indirect-and-unresolved: fall back to scanning
		// for the next "endstream" keyword.
		idx := indexOf(p.sc.data[pos:], []byte("endstream"))
		if idx < 0 {
			return nil, fmt.Errorf("pdfparse: endstream not found")
		}
		data := p.sc.data[pos : pos+int64(idx)]
		p.sc.pos = pos + int64(idx)
		if _, err := p.expectKeyword("endstream"); err != nil {
			return nil, err
		}
		return trimTrailingEOL(data), nil
	}

	end := pos + length
	if end > int64(len(p.sc.data)) {
		return nil, fmt.Errorf("pdfparse: stream length %d exceeds remaining input", length)
	}
	data := p.sc.data[pos:end]
	p.sc.pos = end
	p.sc.skipWhitespaceAndComments()
	if _, err := p.expectKeyword("endstream"); err != nil {
		return nil, err
	}
	return data, nil
}

func (p *Parser) expectKeyword(kw string) (Token, error) {
	tok, err := p.next()
	if err != nil {
		return tok, err
	}
	if tok.Type != TokenKeyword || tok.Str != kw {
		return tok, fmt.Errorf("pdfparse: expected keyword %q, got %q", kw, tok.Str)
	}
	return tok, nil
}

func streamLength(dict *raw.DictObj) (int64, bool) {
	v, ok := dict.Get(raw.NameLiteral("Length"))
	if !ok {
		return 0, false
	}
	n, ok := v.(raw.NumberObj)
	if !ok || !n.IsInteger() {
		return 0, false
	}
	return n.Int(), true
}

func indexOf(haystack, needle []byte) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if string(haystack[i:i+len(needle)]) == string(needle) {
			return i
		}
	}
	return -1
}

func trimTrailingEOL(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

// ParseValue parses a single PDF value (number, name, string, bool, null,
// array, dictionary, or indirect reference) from the current position.
func (p *Parser) ParseValue() (raw.Object, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case TokenNumber:
		return p.parseNumberOrRef(tok)
	case TokenName:
		return raw.NameLiteral(tok.Str), nil
	case TokenString:
		return raw.Str(tok.Bytes), nil
	case TokenBoolean:
		return raw.Bool(tok.Bool), nil
	case TokenNull:
		return raw.NullObj{}, nil
	case TokenArrayOpen:
		return p.parseArray()
	case TokenDictOpen:
		return p.parseDict()
	default:
		return nil, fmt.Errorf("pdfparse: unexpected token %v at offset %d", tok.Type, tok.Pos)
	}
}

// parseNumberOrRef disambiguates "N", "N.N", and "N G R" via two-token
// lookahead: an integer followed by another integer followed by the literal
// keyword "R" is an indirect reference, not three separate numbers.
func (p *Parser) parseNumberOrRef(first Token) (raw.Object, error) {
	if !first.IsInt {
		return raw.NumberFloat(first.Float), nil
	}
	second, err := p.next()
	if err != nil {
		return nil, err
	}
	if second.Type == TokenNumber && second.IsInt {
		third, err := p.next()
		if err != nil {
			return nil, err
		}
		if third.Type == TokenKeyword && third.Str == "R" {
			return raw.Ref(int(first.Int), int(second.Int)), nil
		}
		p.pushback(third)
	}
	p.pushback(second)
	return raw.NumberInt(first.Int), nil
}

func (p *Parser) parseArray() (raw.Object, error) {
	arr := raw.NewArray()
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		if tok.Type == TokenArrClose {
			return arr, nil
		}
		p.pushback(tok)
		v, err := p.ParseValue()
		if err != nil {
			return nil, err
		}
		arr.Items = append(arr.Items, v)
	}
}

func (p *Parser) parseDict() (raw.Object, error) {
	dict := raw.Dict()
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		if tok.Type == TokenDictClose {
			return dict, nil
		}
		if tok.Type != TokenName {
			return nil, fmt.Errorf("pdfparse: expected dictionary key, got %v at offset %d", tok.Type, tok.Pos)
		}
		key := tok.Str
		v, err := p.ParseValue()
		if err != nil {
			return nil, err
		}
		dict.KV[key] = v
	}
}
