package writer

import "github.com/dociq/pagepdf/ir/semantic"

// FontResolver maps the logical font key a canvas.SetFont command carries
// (the primary CSS font-family name, §4.2 "primaryFont") to the embeddable
// font it names. Implemented by engine's asset-backed font catalog, with a
// standard-14 fallback for unregistered family names (§6.2 Asset registry).
type FontResolver interface {
	ResolveFont(family string) (*semantic.Font, error)
}

// ImageResolver maps the logical ref a canvas.DrawImage/DrawForm command
// carries (the source element's `src`/`data` attribute, §4.2 "img/svg/
// embedded-PDF leaf flowables") to its XObject. The same seam serves both
// image and form refs, since both resolve to the /XObject resource
// category (§4.7 "Emission").
type ImageResolver interface {
	ResolveImage(ref string) (*semantic.XObject, error)
}
