package fonts

import "github.com/dociq/pagepdf/ir/semantic"

// Subset analyzes doc's content streams for used glyphs (§4.7 "Resource
// deduplication" extends naturally to glyph-level dedup) and rewrites
// each Type0/CIDFontType2 font's width table, ToUnicode map, CIDToGIDMap,
// and embedded FontFile2 program down to only the glyphs the document
// actually shows, renumbering CIDs to a dense 0..N range and remapping
// every Tj/TJ string in place to match.
func Subset(doc *semantic.Document) {
	analyzer := NewAnalyzer()
	analyzer.Analyze(doc)
	if len(analyzer.UsedGlyphs) == 0 {
		return
	}
	planner := NewPlanner()
	planner.Plan(analyzer)
	NewSubsetter().Apply(doc, planner)
}
