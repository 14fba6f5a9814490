package fonts

import (
	"github.com/go-text/typesetting/language"

	"github.com/dociq/pagepdf/ir/semantic"
)

// TextRun is one run of source text shaped against a single font, kept
// alongside the decoded content-stream CIDs so the subset planner can
// also close over glyphs a GSUB substitution would pull in that never
// appear literally as a CID in the emitted stream.
type TextRun struct {
	Runes  []rune
	Script language.Script
}

// Analyzer identifies used glyphs in a document.
type Analyzer struct {
	// Map of font -> set of used CIDs/codes
	UsedGlyphs map[*semantic.Font]map[int]bool
	// TextRuns optionally carries the source text per font; Planner.Plan
	// shapes it and adds the resulting glyph IDs to that font's set. A
	// nil/absent entry skips this step for that font. Subset builds its
	// own Analyzer and nothing fills this map there.
	TextRuns map[*semantic.Font][]TextRun
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		UsedGlyphs: make(map[*semantic.Font]map[int]bool),
		TextRuns:   make(map[*semantic.Font][]TextRun),
	}
}

func (a *Analyzer) Analyze(doc *semantic.Document) {
	for _, page := range doc.Pages {
		a.analyzePage(page)
	}
}

func (a *Analyzer) analyzePage(page *semantic.Page) {
	var currentFont *semantic.Font

	for _, stream := range page.Contents {
		for _, op := range stream.Operations {
			switch op.Operator {
			case "Tf":
				if len(op.Operands) > 0 {
					if name, ok := op.Operands[0].(semantic.NameOperand); ok {
						fontName := name.Value
						if page.Resources != nil && page.Resources.Fonts != nil {
							currentFont = page.Resources.Fonts[fontName]
						}
					}
				}
			case "Tj", "'", "\"":
				if currentFont != nil && len(op.Operands) > 0 {
					if str, ok := op.Operands[0].(semantic.StringOperand); ok {
						a.recordGlyphs(currentFont, str.Value)
					}
				}
			case "TJ":
				if currentFont != nil && len(op.Operands) > 0 {
					if arr, ok := op.Operands[0].(semantic.ArrayOperand); ok {
						for _, item := range arr.Values {
							if str, ok := item.(semantic.StringOperand); ok {
								a.recordGlyphs(currentFont, str.Value)
							}
						}
					}
				}
			}
		}
	}
}

func (a *Analyzer) recordGlyphs(font *semantic.Font, data []byte) {
	if a.UsedGlyphs[font] == nil {
		a.UsedGlyphs[font] = make(map[int]bool)
	}

	if font.Subtype == "Type0" && (font.Encoding == "Identity-H" || font.Encoding == "Identity-V") {
		// 2-byte CIDs
		for i := 0; i < len(data); i += 2 {
			if i+1 < len(data) {
				cid := int(data[i])<<8 | int(data[i+1])
				a.UsedGlyphs[font][cid] = true
			}
		}
	} else {
		// Single byte codes
		for _, b := range data {
			a.UsedGlyphs[font][int(b)] = true
		}
	}
}
