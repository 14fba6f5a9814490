package engine

import (
	"fmt"
	"strings"

	"github.com/dociq/pagepdf/filters"
	"github.com/dociq/pagepdf/fonts"
	"github.com/dociq/pagepdf/reparse"
)

// AssetKind enumerates the registry's recognized byte kinds (§6.2).
type AssetKind int

const (
	AssetCSS AssetKind = iota
	AssetFont
	AssetImage
	AssetSVG
	AssetPDF
	AssetOther
)

// Asset is one registered byte blob plus the metadata the render pipeline
// needs to resolve it by name later (§6.2 "An asset has: bytes, kind,
// name, trusted flag").
type Asset struct {
	Name    string
	Kind    AssetKind
	Bytes   []byte
	Trusted bool

	// PageCount is populated for AssetPDF after validation.
	PageCount int
}

// Registry is the asset registry collaborator of §6.2: a render consumes
// a Registry alongside its HTML/CSS/Config. Fonts and PDFs are validated
// on registration; CSS assets are concatenated into the render CSS input
// in registration order (§6.2).
type Registry struct {
	assets    map[string]*Asset
	cssOrder  []string
	fontOrder []string
}

// NewRegistry returns an empty asset registry.
func NewRegistry() *Registry {
	return &Registry{assets: map[string]*Asset{}}
}

// Register validates and stores one asset. Font bytes are parsed to
// confirm the glyph table is readable (§6.2 "Fonts are validated on
// registration: glyph table parseable"); PDF bytes are parsed to confirm
// they are well-formed, unencrypted, and carry a page count (§6.2
// "PDFs are validated: bytes parse, not encrypted, metadata available").
// A failed validation returns an AssetError rather than registering a
// half-usable asset.
func (r *Registry) Register(name string, kind AssetKind, data []byte, trusted bool) error {
	a := &Asset{Name: name, Kind: kind, Bytes: data, Trusted: trusted}
	switch kind {
	case AssetFont:
		if err := validateFont(name, data); err != nil {
			return fmt.Errorf("engine: register font %q: %w", name, err)
		}
		r.fontOrder = append(r.fontOrder, name)
	case AssetPDF:
		doc, err := reparse.Parse(data)
		if err != nil {
			return fmt.Errorf("engine: register pdf %q: %w", name, err)
		}
		a.PageCount = len(doc.Pages)
	case AssetCSS:
		r.cssOrder = append(r.cssOrder, name)
	}
	r.assets[name] = a
	return nil
}

// validateFont confirms font bytes parse into a readable glyph table
// (§6.2). The loader is chosen by the leading bytes: an sfnt/OTTO/true/ttcf
// signature goes to the OpenType loader, a 0x80 PFB segment marker to the
// Type1 parser, and anything else to the OpenType loader. It returns that
// loader's parse error.
func validateFont(name string, data []byte) error {
	if len(data) >= 4 && (data[0] == 0x00 || string(data[:4]) == "OTTO" || string(data[:4]) == "true" || string(data[:4]) == "ttcf") {
		_, err := fonts.LoadOpenType(name, data)
		return err
	}
	if len(data) >= 1 && data[0] == 0x80 {
		_, err := fonts.ParseType1(name, data)
		return err
	}
	_, err := fonts.LoadOpenType(name, data)
	return err
}

// Get returns the named asset, if registered.
func (r *Registry) Get(name string) (*Asset, bool) {
	a, ok := r.assets[name]
	return a, ok
}

// CSS concatenates every registered AssetCSS's source, in registration
// order, ahead of the render's own CSS input (§6.2 "Asset CSS is
// concatenated into the render CSS input in registration order").
func (r *Registry) CSS() string {
	var b strings.Builder
	for _, name := range r.cssOrder {
		b.Write(r.assets[name].Bytes)
		b.WriteByte('\n')
	}
	return b.String()
}

// Fonts returns every registered font asset in registration order.
func (r *Registry) Fonts() []*Asset {
	out := make([]*Asset, 0, len(r.fontOrder))
	for _, name := range r.fontOrder {
		out = append(out, r.assets[name])
	}
	return out
}

// DecodeImage decodes a registered raster-image asset into NRGBA pixels
// plus its dimensions (§6.2, backs the engine's ImageResolver).
func (r *Registry) DecodeImage(name string) (pix []byte, w, h int, err error) {
	a, ok := r.assets[name]
	if !ok {
		return nil, 0, 0, fmt.Errorf("engine: unknown image asset %q", name)
	}
	return filters.DecodeImageToNRGBA(a.Bytes)
}
