package reparse

import (
	"fmt"

	"github.com/dociq/pagepdf/diagnostics"
	"github.com/dociq/pagepdf/ir/semantic"
)

// CompositionPlan is the per-page template-selection policy of §4.10
// "Composition binding": page i of the output uses the template chosen
// by, in priority order, (i) a feature marker carried by the overlay
// page, (ii) an explicit page-number map, (iii) a default template.
//
// Feature markers are supplied by the caller (the engine layer derives
// them from a `data-feature` attribute on the overlay's source element,
// §4.2 "pseudo text content" sibling mechanism) rather than being mined
// from the overlay PDF bytes, since a plain content-stream walk cannot
// recover an authoring-time semantic tag that was never written into the
// PDF object graph.
type CompositionPlan struct {
	// ByFeature maps a feature marker string to a zero-based index into
	// Templates.
	ByFeature map[string]int
	// ByPageTemplate maps a 1-based overlay page number to a zero-based
	// index into Templates.
	ByPageTemplate map[int]int
	// DefaultTemplateID is used when neither of the above match.
	DefaultTemplateID int
	// FeatureMarkers maps a 1-based overlay page number to the feature
	// marker it carries, if any.
	FeatureMarkers map[int]string
	// Translate offsets the template content by (dx, dy) points before
	// the overlay content paints over it (§4.10 "optional translation
	// (dx, dy)").
	Translate [2]float64
}

// templateIndexFor resolves the plan's priority order for one page.
func (p CompositionPlan) templateIndexFor(pageNumber int, numTemplates int) int {
	if feature, ok := p.FeatureMarkers[pageNumber]; ok && feature != "" {
		if idx, ok := p.ByFeature[feature]; ok {
			return idx
		}
	}
	if idx, ok := p.ByPageTemplate[pageNumber]; ok {
		return idx
	}
	idx := p.DefaultTemplateID
	if idx < 0 || idx >= numTemplates {
		idx = 0
	}
	return idx
}

// Compose recomposes an overlay document over a set of single-page (or
// page-indexable) templates, per page, per the binding plan (§4.10,
// scenario S4). Each output page embeds its bound template page as a
// background Form XObject (optionally translated), then appends the
// overlay page's own content operators — "template content stream
// emitted as a background Form XObject ... overlay content is appended
// per page per the binding plan".
//
// Templates may each be a single representative page (the common case:
// one template PDF per named template) or a multi-page document, in
// which case its first page is used as the representative.
func Compose(templates []*semantic.Document, overlay *semantic.Document, plan CompositionPlan, report *diagnostics.Report) (*semantic.Document, error) {
	if len(templates) == 0 {
		return nil, fmt.Errorf("reparse: compose: no templates supplied")
	}
	out := &semantic.Document{
		Lang:       overlay.Lang,
		Info:       overlay.Info,
		Marked:     overlay.Marked,
		StructTree: overlay.StructTree,
	}

	for i, ovPage := range overlay.Pages {
		pageNumber := i + 1
		tmplIdx := plan.templateIndexFor(pageNumber, len(templates))
		tmplDoc := templates[tmplIdx]
		if len(tmplDoc.Pages) == 0 {
			if report != nil {
				report.Add(diagnostics.Record{Kind: diagnostics.KindTemplateError, Where: fmt.Sprintf("page %d", pageNumber), Requested: "template has no pages"})
			}
			out.Pages = append(out.Pages, ovPage)
			continue
		}
		tmplPage := tmplDoc.Pages[0]

		formXObj := semantic.XObject{
			Subtype:   "Form",
			BBox:      tmplPage.MediaBox,
			Resources: tmplPage.Resources,
			Data:      concatContent(tmplPage.Contents),
		}
		if plan.Translate != [2]float64{} {
			formXObj.Matrix = []float64{1, 0, 0, 1, plan.Translate[0], plan.Translate[1]}
		}

		merged := mergeResources(ovPage.Resources, formXObj)
		bgName := uniqueXObjectName(merged, "TemplateBg")
		merged.XObjects[bgName] = formXObj

		prefix := []byte(fmt.Sprintf("q /%s Do Q\n", bgName))
		overlayBytes := concatContent(ovPage.Contents)

		newPage := &semantic.Page{
			Index:       i,
			MediaBox:    ovPage.MediaBox,
			CropBox:     ovPage.CropBox,
			TrimBox:     ovPage.TrimBox,
			BleedBox:    ovPage.BleedBox,
			ArtBox:      ovPage.ArtBox,
			Rotate:      ovPage.Rotate,
			Resources:   merged,
			Contents:    []semantic.ContentStream{{RawBytes: append(prefix, overlayBytes...)}},
			Annotations: ovPage.Annotations,
			UserUnit:    ovPage.UserUnit,
		}
		out.Pages = append(out.Pages, newPage)
	}
	return out, nil
}

// concatContent joins a page's content streams in order (§4.7 "Emission"
// treats a page's Contents array as one logical stream).
func concatContent(streams []semantic.ContentStream) []byte {
	var out []byte
	for _, cs := range streams {
		if len(cs.RawBytes) > 0 {
			out = append(out, cs.RawBytes...)
			out = append(out, '\n')
		}
	}
	return out
}

// mergeResources returns a fresh Resources carrying the overlay page's
// own fonts/xobjects/colorspaces, ready for the composed background form
// to be added under a unique name. The template's resources stay nested
// inside the Form XObject's own /Resources dict (§4.10, writer.ensureXObject)
// rather than being flattened into the overlay's resource table, so
// identically-named template and overlay resources never collide.
func mergeResources(ov *semantic.Resources, _ semantic.XObject) *semantic.Resources {
	out := &semantic.Resources{
		Fonts:       map[string]*semantic.Font{},
		XObjects:    map[string]semantic.XObject{},
		ExtGStates:  map[string]semantic.ExtGState{},
		ColorSpaces: map[string]semantic.ColorSpace{},
		Patterns:    map[string]semantic.Pattern{},
		Shadings:    map[string]semantic.Shading{},
	}
	if ov == nil {
		return out
	}
	for k, v := range ov.Fonts {
		out.Fonts[k] = v
	}
	for k, v := range ov.XObjects {
		out.XObjects[k] = v
	}
	for k, v := range ov.ExtGStates {
		out.ExtGStates[k] = v
	}
	for k, v := range ov.ColorSpaces {
		out.ColorSpaces[k] = v
	}
	for k, v := range ov.Patterns {
		out.Patterns[k] = v
	}
	for k, v := range ov.Shadings {
		out.Shadings[k] = v
	}
	return out
}

// uniqueXObjectName picks a resource name not already used by res, so the
// injected background form never shadows an overlay-declared XObject.
func uniqueXObjectName(res *semantic.Resources, base string) string {
	name := base
	for i := 1; ; i++ {
		if _, taken := res.XObjects[name]; !taken {
			return name
		}
		name = fmt.Sprintf("%s%d", base, i)
	}
}
