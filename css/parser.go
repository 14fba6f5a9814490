package css

import (
	"strconv"
	"strings"

	"github.com/dociq/pagepdf/diagnostics"
)

// Declaration is one `property: value` pair. Typed declarations are those
// the cascade models via the ComputedStyle enum; Unparsed declarations
// retain the raw token run for fallback/diagnostics (§4.1).
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// Rule is one `selector-list { declarations }` block with its source
// position, used for the stable (origin, specificity, source-order)
// cascade sort of §4.1.
type Rule struct {
	Selectors    []Selector
	Declarations []Declaration
	SourceOrder  int
	Media        string // "" = unconditional; else the @media condition text
}

// PageRule models an `@page` at-rule (§4.1): page geometry and margin-box
// declarations.
type PageRule struct {
	Selector     string // "" or a page pseudo-class like ":first"
	Declarations []Declaration
}

// FontFace models an `@font-face` at-rule.
type FontFace struct {
	Declarations []Declaration
}

// Stylesheet is the parsed result of one CSS source string.
type Stylesheet struct {
	Rules     []Rule
	PageRules []PageRule
	FontFaces []FontFace
}

// Parse parses a CSS source string into a Stylesheet. Malformed
// declarations/rules are skipped with a diagnostic; parsing never halts
// (§4.1 "Failures").
func Parse(source string, mediaTarget string, report *diagnostics.Report) *Stylesheet {
	p := &parser{src: stripComments(source), report: report, mediaTarget: mediaTarget}
	return p.parseStylesheet()
}

type parser struct {
	src         string
	pos         int
	order       int
	report      *diagnostics.Report
	mediaTarget string
	mediaScope  string // current @media condition, "" outside any
}

func stripComments(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if i+1 < len(s) && s[i] == '/' && s[i+1] == '*' {
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				break
			}
			i += end + 3
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func (p *parser) parseStylesheet() *Stylesheet {
	sheet := &Stylesheet{}
	for p.pos < len(p.src) {
		p.skipSpace()
		if p.pos >= len(p.src) {
			break
		}
		if p.src[p.pos] == '@' {
			p.parseAtRule(sheet)
			continue
		}
		p.parseQualifiedRule(sheet)
	}
	return sheet
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' }

// findBlockEnd finds the index of the matching '}' for the '{' at p.pos
// (which must be '{'), honoring string literals.
func (p *parser) findBlockEnd(open int) int {
	depth := 0
	inStr := byte(0)
	for i := open; i < len(p.src); i++ {
		c := p.src[i]
		if inStr != 0 {
			if c == inStr && p.src[i-1] != '\\' {
				inStr = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			inStr = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func (p *parser) parseAtRule(sheet *Stylesheet) {
	start := p.pos
	// Find the at-rule keyword.
	i := p.pos + 1
	for i < len(p.src) && (isAlphaNum(p.src[i]) || p.src[i] == '-') {
		i++
	}
	keyword := p.src[p.pos+1 : i]

	// Find either ';' (no-block at-rule) or the next '{' at this nesting
	// level, whichever comes first.
	semi := strings.IndexByte(p.src[i:], ';')
	brace := strings.IndexByte(p.src[i:], '{')
	if brace < 0 || (semi >= 0 && semi < brace) {
		// No-block at-rule (e.g. @import); record as diagnostic and skip.
		end := i + semi
		if semi < 0 {
			end = len(p.src)
		}
		if p.report != nil {
			p.report.Add(diagnostics.Record{
				Kind:      diagnostics.KindKnownLoss,
				Where:     "css.parser",
				Requested: strings.TrimSpace(p.src[start:end]),
				Produced:  "at-rule without block skipped",
			})
		}
		p.pos = end + 1
		return
	}

	preludeEnd := i + brace
	prelude := strings.TrimSpace(p.src[i:preludeEnd])
	blockStart := preludeEnd
	blockEnd := p.findBlockEnd(blockStart)
	if blockEnd < 0 {
		p.pos = len(p.src)
		return
	}
	body := p.src[blockStart+1 : blockEnd]
	p.pos = blockEnd + 1

	switch keyword {
	case "media":
		if p.mediaApplies(prelude) {
			prevScope := p.mediaScope
			p.mediaScope = prelude
			sub := &parser{src: body, report: p.report, mediaTarget: p.mediaTarget, order: p.order, mediaScope: prelude}
			inner := sub.parseStylesheet()
			sheet.Rules = append(sheet.Rules, inner.Rules...)
			sheet.PageRules = append(sheet.PageRules, inner.PageRules...)
			sheet.FontFaces = append(sheet.FontFaces, inner.FontFaces...)
			p.order = sub.order
			p.mediaScope = prevScope
		}
	case "supports":
		// Basic support: always descend (§4.1 treats @supports as scoping;
		// baseline engine supports its own declared feature set).
		sub := &parser{src: body, report: p.report, mediaTarget: p.mediaTarget, order: p.order}
		inner := sub.parseStylesheet()
		sheet.Rules = append(sheet.Rules, inner.Rules...)
		p.order = sub.order
	case "page":
		decls := p.parseDeclarations(body)
		sheet.PageRules = append(sheet.PageRules, PageRule{Selector: prelude, Declarations: decls})
	case "font-face":
		decls := p.parseDeclarations(body)
		sheet.FontFaces = append(sheet.FontFaces, FontFace{Declarations: decls})
	default:
		if p.report != nil {
			p.report.Add(diagnostics.Record{
				Kind:      diagnostics.KindKnownLoss,
				Where:     "css.parser",
				Requested: "@" + keyword,
				Produced:  "unknown at-rule preserved as diagnostic, not applied",
			})
		}
	}
}

// mediaApplies implements the minimal `@media print`/`@media screen`/
// `@media all` scoping of §4.1 ("@media (scoped by print target)").
func (p *parser) mediaApplies(condition string) bool {
	cond := strings.ToLower(condition)
	if strings.Contains(cond, "all") || cond == "" {
		return true
	}
	if p.mediaTarget == "" {
		p.mediaTarget = "print"
	}
	return strings.Contains(cond, p.mediaTarget)
}

func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func (p *parser) parseQualifiedRule(sheet *Stylesheet) {
	brace := strings.IndexByte(p.src[p.pos:], '{')
	if brace < 0 {
		p.pos = len(p.src)
		return
	}
	selText := strings.TrimSpace(p.src[p.pos : p.pos+brace])
	blockStart := p.pos + brace
	blockEnd := p.findBlockEnd(blockStart)
	if blockEnd < 0 {
		p.pos = len(p.src)
		return
	}
	body := p.src[blockStart+1 : blockEnd]
	p.pos = blockEnd + 1

	if selText == "" {
		return
	}
	selectors := p.parseSelectorList(selText)
	decls := p.parseDeclarations(body)
	if len(selectors) == 0 || len(decls) == 0 {
		return
	}
	p.order++
	sheet.Rules = append(sheet.Rules, Rule{
		Selectors:    selectors,
		Declarations: decls,
		SourceOrder:  p.order,
		Media:        p.mediaScope,
	})
}

func (p *parser) parseSelectorList(text string) []Selector {
	parts := splitTopLevelComma(text)
	out := make([]Selector, 0, len(parts))
	for _, part := range parts {
		sel, ok := parseSelector(strings.TrimSpace(part))
		if !ok {
			if p.report != nil {
				p.report.Add(diagnostics.Record{
					Kind:      diagnostics.KindKnownLoss,
					Where:     "css.selector",
					Requested: part,
					Produced:  "unparseable selector skipped",
				})
			}
			continue
		}
		sel.Source = part
		out = append(out, sel)
	}
	return out
}

func splitTopLevelComma(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, c := range s {
		switch c {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func (p *parser) parseDeclarations(body string) []Declaration {
	var decls []Declaration
	for _, raw := range splitTopLevelSemicolon(body) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		colon := strings.IndexByte(raw, ':')
		if colon < 0 {
			if p.report != nil {
				p.report.Add(diagnostics.Record{
					Kind:      diagnostics.KindKnownLoss,
					Where:     "css.parser",
					Requested: raw,
					Produced:  "declaration missing ':' skipped",
				})
			}
			continue
		}
		prop := strings.TrimSpace(raw[:colon])
		val := strings.TrimSpace(raw[colon+1:])
		important := false
		if idx := strings.LastIndex(strings.ToLower(val), "!important"); idx >= 0 {
			important = true
			val = strings.TrimSpace(val[:idx])
		}
		if prop == "" || val == "" {
			continue
		}
		decls = append(decls, Declaration{Property: prop, Value: val, Important: important})
	}
	return decls
}

func splitTopLevelSemicolon(s string) []string {
	var parts []string
	depth := 0
	start := 0
	inStr := byte(0)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr != 0 {
			if c == inStr {
				inStr = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			inStr = c
		case '(':
			depth++
		case ')':
			depth--
		case ';':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// parseSelector parses one selector chain into compounds + combinators.
func parseSelector(text string) (Selector, bool) {
	// Normalize explicit combinators to single spaces with sentinel markers.
	text = strings.TrimSpace(text)
	if text == "" {
		return Selector{}, false
	}
	tokens, combs := tokenizeCombinators(text)
	compounds := make([]Compound, 0, len(tokens))
	for _, t := range tokens {
		c, ok := parseCompound(t)
		if !ok {
			return Selector{}, false
		}
		compounds = append(compounds, c)
	}
	return Selector{Compounds: compounds, Combinators: combs}, true
}

func tokenizeCombinators(text string) ([]string, []Combinator) {
	var tokens []string
	var combs []Combinator
	var cur strings.Builder
	depth := 0
	pendingComb := CombDescendant
	haveCur := false
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
			haveCur = false
			if len(tokens) > 1 {
				combs = append(combs, pendingComb)
			}
			pendingComb = CombDescendant
		}
	}
	i := 0
	for i < len(text) {
		c := text[i]
		switch c {
		case '[', '(':
			depth++
			cur.WriteByte(c)
			haveCur = true
		case ']', ')':
			depth--
			cur.WriteByte(c)
		case '>':
			if depth == 0 {
				flush()
				pendingComb = CombChild
				i++
				continue
			}
			cur.WriteByte(c)
		case '+':
			if depth == 0 {
				flush()
				pendingComb = CombAdjacentSibling
				i++
				continue
			}
			cur.WriteByte(c)
		case '~':
			if depth == 0 {
				flush()
				pendingComb = CombGeneralSibling
				i++
				continue
			}
			cur.WriteByte(c)
		case ' ', '\t', '\n':
			if depth == 0 {
				if haveCur {
					flush()
				}
				i++
				continue
			}
			cur.WriteByte(c)
		default:
			cur.WriteByte(c)
			haveCur = true
		}
		i++
	}
	flush()
	return tokens, combs
}

func parseCompound(tok string) (Compound, bool) {
	var c Compound
	i := 0
	// Tag or universal, must come first if present.
	if i < len(tok) && tok[i] == '*' {
		c.Universal = true
		c.Tag = "*"
		i++
	} else {
		start := i
		for i < len(tok) && (isAlphaNum(tok[i]) || tok[i] == '-') {
			i++
		}
		if i > start {
			c.Tag = strings.ToLower(tok[start:i])
		}
	}
	for i < len(tok) {
		switch tok[i] {
		case '#':
			j := i + 1
			for j < len(tok) && (isAlphaNum(tok[j]) || tok[j] == '-' || tok[j] == '_') {
				j++
			}
			c.IDs = append(c.IDs, tok[i+1:j])
			i = j
		case '.':
			j := i + 1
			for j < len(tok) && (isAlphaNum(tok[j]) || tok[j] == '-' || tok[j] == '_') {
				j++
			}
			c.Classes = append(c.Classes, tok[i+1:j])
			i = j
		case '[':
			j := strings.IndexByte(tok[i:], ']')
			if j < 0 {
				return Compound{}, false
			}
			attr, ok := parseAttrSelector(tok[i+1 : i+j])
			if !ok {
				return Compound{}, false
			}
			c.Attrs = append(c.Attrs, attr)
			i += j + 1
		case ':':
			doubleColon := i+1 < len(tok) && tok[i+1] == ':'
			start := i
			if doubleColon {
				i += 2
			} else {
				i++
			}
			j := i
			for j < len(tok) && (isAlphaNum(tok[j]) || tok[j] == '-') {
				j++
			}
			name := tok[i:j]
			args := ""
			if j < len(tok) && tok[j] == '(' {
				k := strings.IndexByte(tok[j:], ')')
				if k < 0 {
					return Compound{}, false
				}
				args = tok[j+1 : j+k]
				j = j + k + 1
			}
			if doubleColon || name == "before" || name == "after" || name == "marker" {
				switch name {
				case "before":
					c.PseudoElem = PseudoElemBefore
				case "after":
					c.PseudoElem = PseudoElemAfter
				case "marker":
					c.PseudoElem = PseudoElemMarker
				}
			} else {
				applyStructuralPseudo(&c, name, args)
			}
			_ = start
			i = j
		default:
			return Compound{}, false
		}
	}
	return c, true
}

func applyStructuralPseudo(c *Compound, name, args string) {
	switch name {
	case "first-child":
		c.Structural = append(c.Structural, PseudoFirstChild)
	case "last-child":
		c.Structural = append(c.Structural, PseudoLastChild)
	case "only-child":
		c.Structural = append(c.Structural, PseudoOnlyChild)
	case "empty":
		c.Structural = append(c.Structural, PseudoEmpty)
	case "root":
		c.Structural = append(c.Structural, PseudoRoot)
	case "nth-child":
		c.Structural = append(c.Structural, PseudoNthChild)
		c.Nth = parseNth(args)
	}
}

// parseNth parses `an+b`, `odd`, `even` per §3.
func parseNth(s string) NthExpr {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	switch s {
	case "odd":
		return NthExpr{A: 2, B: 1}
	case "even":
		return NthExpr{A: 2, B: 0}
	}
	if !strings.Contains(s, "n") {
		b, _ := strconv.Atoi(s)
		return NthExpr{A: 0, B: b}
	}
	idx := strings.Index(s, "n")
	aPart := s[:idx]
	a := 1
	switch aPart {
	case "", "+":
		a = 1
	case "-":
		a = -1
	default:
		a, _ = strconv.Atoi(aPart)
	}
	bPart := s[idx+1:]
	b := 0
	if bPart != "" {
		b, _ = strconv.Atoi(bPart)
	}
	return NthExpr{A: a, B: b}
}

func parseAttrSelector(s string) (AttrSelector, bool) {
	ops := []struct {
		sym string
		op  AttrMatch
	}{
		{"~=", AttrIncludesWord},
		{"|=", AttrDashMatch},
		{"^=", AttrPrefix},
		{"$=", AttrSuffix},
		{"*=", AttrSubstring},
		{"=", AttrEquals},
	}
	for _, o := range ops {
		if idx := strings.Index(s, o.sym); idx >= 0 {
			name := strings.TrimSpace(s[:idx])
			val := strings.TrimSpace(s[idx+len(o.sym):])
			val = strings.Trim(val, `"'`)
			return AttrSelector{Name: name, Op: o.op, Value: val}, true
		}
	}
	return AttrSelector{Name: strings.TrimSpace(s), Op: AttrPresent}, true
}
