package writer

import (
	"github.com/dociq/pagepdf/diagnostics"
	"github.com/dociq/pagepdf/ir/semantic"
	"github.com/dociq/pagepdf/paginate"
)

// BuildInput is everything BuildDocument needs to turn a paginated render
// into a forward-built semantic.Document (§4.7 "Emission").
type BuildInput struct {
	Pages    []paginate.Page
	Fonts    FontResolver
	Images   ImageResolver
	Metadata Metadata
	Tagged   bool
}

// BuildDocument converts each paginated page's command canvas into a PDF
// page (content stream + resources), producing the same ir/semantic.
// Document shape the re-parser (C10) builds from an existing PDF — so
// fonts.Analyzer/Planner/Subsetter and optimize.Optimizer apply to
// forward-built documents exactly as they do to re-parsed ones.
func BuildDocument(in BuildInput, report *diagnostics.Report) *semantic.Document {
	doc := &semantic.Document{
		Lang: in.Metadata.Lang,
		Info: &semantic.DocumentInfo{
			Title:    in.Metadata.Title,
			Author:   in.Metadata.Author,
			Subject:  in.Metadata.Subject,
			Creator:  in.Metadata.Creator,
			Producer: in.Metadata.Producer,
		},
	}
	if in.Tagged {
		doc.Marked = true
		doc.StructTree = &semantic.StructureTree{}
	}

	for i, pg := range in.Pages {
		content, res := buildPageContent(pg.Canvas, in.Fonts, in.Images, report)
		w, h := pg.Size.W.Points(), pg.Size.H.Points()
		page := &semantic.Page{
			Index:     i,
			MediaBox:  semantic.Rectangle{LLX: 0, LLY: 0, URX: w, URY: h},
			Resources: res,
			Contents:  []semantic.ContentStream{content},
		}
		doc.Pages = append(doc.Pages, page)
	}
	return doc
}
