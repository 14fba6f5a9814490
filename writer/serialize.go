package writer

import (
	"bytes"
	"fmt"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/dociq/pagepdf/deflate"
	"github.com/dociq/pagepdf/ir/raw"
	"github.com/dociq/pagepdf/ir/semantic"
)

// objectBuilder walks a semantic.Document and allocates the raw.Object
// graph in the fixed traversal order §4.7 determinism invariant (a)
// requires: catalog, pages tree, then for each page its page object,
// fonts before xobjects (each sorted by resource name) and its content
// stream; patterns and shadings are not emitted. Grounded on the
// teacher's writer/object_builder.go
// allocation order (catalogRef/pagesRef first, then per-category "ensure"
// closures keyed by a stable content hash).
type objectBuilder struct {
	cfg     Config
	objects map[raw.ObjectRef]raw.Object
	objNum  int

	fontRefs    map[[32]byte]raw.ObjectRef
	xobjectRefs map[[32]byte]raw.ObjectRef
	dedupHits   int
}

func newObjectBuilder(cfg Config) *objectBuilder {
	return &objectBuilder{
		cfg:         cfg,
		objects:     map[raw.ObjectRef]raw.Object{},
		fontRefs:    map[[32]byte]raw.ObjectRef{},
		xobjectRefs: map[[32]byte]raw.ObjectRef{},
	}
}

func (b *objectBuilder) nextRef() raw.ObjectRef {
	b.objNum++
	return raw.ObjectRef{Num: b.objNum, Gen: 0}
}

// Write builds the object graph for doc and serializes it as PDF bytes
// (§4.7, §6.5). Returns the bytes and the perf Counters of §4.7; the
// error result is always nil.
func Write(doc *semantic.Document, cfg Config) ([]byte, Counters, error) {
	b := newObjectBuilder(cfg)

	catalogRef := b.nextRef()
	pagesRef := b.nextRef()
	pageRefs := make([]raw.ObjectRef, 0, len(doc.Pages))

	unionFonts := raw.Dict()
	unionXObjects := raw.Dict()

	var rawBytes, encodedBytes int64

	for _, p := range doc.Pages {
		ref := b.nextRef()
		pageRefs = append(pageRefs, ref)

		pageDict := raw.Dict()
		pageDict.Set(raw.NameLiteral("Type"), raw.NameLiteral("Page"))
		pageDict.Set(raw.NameLiteral("Parent"), raw.Ref(pagesRef.Num, pagesRef.Gen))
		pageDict.Set(raw.NameLiteral("MediaBox"), rectArray(p.MediaBox))
		if cropSet(p.CropBox) {
			pageDict.Set(raw.NameLiteral("CropBox"), rectArray(p.CropBox))
		}
		if rot := normalizeRotation(p.Rotate); rot != 0 {
			pageDict.Set(raw.NameLiteral("Rotate"), raw.NumberInt(int64(rot)))
		}

		resDict := raw.Dict()
		fontResDict := raw.Dict()
		if p.Resources != nil {
			names := sortedKeys(p.Resources.Fonts)
			for _, fname := range names {
				fRef := b.ensureFont(p.Resources.Fonts[fname])
				fontResDict.Set(raw.NameLiteral(fname), raw.Ref(fRef.Num, fRef.Gen))
				if _, ok := unionFonts.Get(raw.NameLiteral(fname)); !ok {
					unionFonts.Set(raw.NameLiteral(fname), raw.Ref(fRef.Num, fRef.Gen))
				}
			}
		}
		if fontResDict.Len() == 0 {
			fRef := b.ensureFont(nil)
			fontResDict.Set(raw.NameLiteral("F1"), raw.Ref(fRef.Num, fRef.Gen))
		}
		resDict.Set(raw.NameLiteral("Font"), fontResDict)

		if p.Resources != nil && len(p.Resources.ExtGStates) > 0 {
			gsDict := raw.Dict()
			for name, gstate := range p.Resources.ExtGStates {
				entry := raw.Dict()
				if gstate.FillAlpha != nil {
					entry.Set(raw.NameLiteral("ca"), raw.NumberFloat(*gstate.FillAlpha))
				}
				if gstate.StrokeAlpha != nil {
					entry.Set(raw.NameLiteral("CA"), raw.NumberFloat(*gstate.StrokeAlpha))
				}
				gsDict.Set(raw.NameLiteral(name), entry)
			}
			resDict.Set(raw.NameLiteral("ExtGState"), gsDict)
		}

		if p.Resources != nil && len(p.Resources.XObjects) > 0 {
			xDict := raw.Dict()
			names := sortedXObjKeys(p.Resources.XObjects)
			for _, xname := range names {
				xo := p.Resources.XObjects[xname]
				xref, raw0, enc0 := b.ensureXObject(xo, cfg)
				rawBytes += raw0
				encodedBytes += enc0
				xDict.Set(raw.NameLiteral(xname), raw.Ref(xref.Num, xref.Gen))
				if _, ok := unionXObjects.Get(raw.NameLiteral(xname)); !ok {
					unionXObjects.Set(raw.NameLiteral(xname), raw.Ref(xref.Num, xref.Gen))
				}
			}
			resDict.Set(raw.NameLiteral("XObject"), xDict)
		}
		resDict.Set(raw.NameLiteral("ProcSet"), raw.NewArray(raw.NameLiteral("PDF"), raw.NameLiteral("Text"), raw.NameLiteral("ImageC")))
		pageDict.Set(raw.NameLiteral("Resources"), resDict)

		var contentData []byte
		for _, cs := range p.Contents {
			contentData = append(contentData, serializeContentStream(cs)...)
		}
		rawBytes += int64(len(contentData))
		contentRef := b.nextRef()
		streamDict := raw.Dict()
		streamData := contentData
		if cfg.ContentFilter != FilterNone && len(contentData) >= cfg.flateMinBytes() {
			streamData = deflate.Zlib(contentData, deflate.Options{})
			streamDict.Set(raw.NameLiteral("Filter"), raw.NameLiteral("FlateDecode"))
		}
		encodedBytes += int64(len(streamData))
		streamDict.Set(raw.NameLiteral("Length"), raw.NumberInt(int64(len(streamData))))
		b.objects[contentRef] = raw.NewStream(streamDict, streamData)
		pageDict.Set(raw.NameLiteral("Contents"), raw.Ref(contentRef.Num, contentRef.Gen))

		b.objects[ref] = pageDict
	}

	kids := raw.NewArray()
	for _, r := range pageRefs {
		kids.Append(raw.Ref(r.Num, r.Gen))
	}
	pagesDict := raw.Dict()
	pagesDict.Set(raw.NameLiteral("Type"), raw.NameLiteral("Pages"))
	pagesDict.Set(raw.NameLiteral("Count"), raw.NumberInt(int64(len(pageRefs))))
	pagesDict.Set(raw.NameLiteral("Kids"), kids)
	b.objects[pagesRef] = pagesDict

	var infoRef *raw.ObjectRef
	if doc.Info != nil && (doc.Info.Title != "" || doc.Info.Author != "" || doc.Info.Producer != "") {
		ref := b.nextRef()
		infoRef = &ref
		info := raw.Dict()
		if doc.Info.Title != "" {
			info.Set(raw.NameLiteral("Title"), raw.Str([]byte(doc.Info.Title)))
		}
		if doc.Info.Author != "" {
			info.Set(raw.NameLiteral("Author"), raw.Str([]byte(doc.Info.Author)))
		}
		if doc.Info.Subject != "" {
			info.Set(raw.NameLiteral("Subject"), raw.Str([]byte(doc.Info.Subject)))
		}
		if doc.Info.Creator != "" {
			info.Set(raw.NameLiteral("Creator"), raw.Str([]byte(doc.Info.Creator)))
		}
		producer := doc.Info.Producer
		if producer == "" {
			producer = "pagepdf"
		}
		info.Set(raw.NameLiteral("Producer"), raw.Str([]byte(producer)))
		b.objects[ref] = info
	}

	catalog := raw.Dict()
	catalog.Set(raw.NameLiteral("Type"), raw.NameLiteral("Catalog"))
	catalog.Set(raw.NameLiteral("Pages"), raw.Ref(pagesRef.Num, pagesRef.Gen))
	if doc.Lang != "" {
		catalog.Set(raw.NameLiteral("Lang"), raw.Str([]byte(doc.Lang)))
	}
	if doc.Marked {
		var structRef raw.ObjectRef
		if doc.StructTree != nil {
			structRef = b.nextRef()
			structDict := raw.Dict()
			structDict.Set(raw.NameLiteral("Type"), raw.NameLiteral("StructTreeRoot"))
			b.objects[structRef] = structDict
			catalog.Set(raw.NameLiteral("StructTreeRoot"), raw.Ref(structRef.Num, structRef.Gen))
		}
		mark := raw.Dict()
		mark.Set(raw.NameLiteral("Marked"), raw.Bool(true))
		catalog.Set(raw.NameLiteral("MarkInfo"), mark)
	}
	if cfg.OutputIntent != nil {
		oiRef := b.nextRef()
		oi := raw.Dict()
		oi.Set(raw.NameLiteral("Type"), raw.NameLiteral("OutputIntent"))
		oi.Set(raw.NameLiteral("S"), raw.NameLiteral("GTS_PDFX"))
		if cfg.OutputIntent.Identifier != "" {
			oi.Set(raw.NameLiteral("OutputConditionIdentifier"), raw.Str([]byte(cfg.OutputIntent.Identifier)))
		}
		if cfg.OutputIntent.Info != "" {
			oi.Set(raw.NameLiteral("Info"), raw.Str([]byte(cfg.OutputIntent.Info)))
		}
		if len(cfg.OutputIntent.ICCProfile) > 0 {
			profRef := b.nextRef()
			profDict := raw.Dict()
			profDict.Set(raw.NameLiteral("N"), raw.NumberInt(3))
			profDict.Set(raw.NameLiteral("Length"), raw.NumberInt(int64(len(cfg.OutputIntent.ICCProfile))))
			b.objects[profRef] = raw.NewStream(profDict, cfg.OutputIntent.ICCProfile)
			oi.Set(raw.NameLiteral("DestOutputProfile"), raw.Ref(profRef.Num, profRef.Gen))
		}
		b.objects[oiRef] = oi
		catalog.Set(raw.NameLiteral("OutputIntents"), raw.NewArray(raw.Ref(oiRef.Num, oiRef.Gen)))
	}
	if infoRef != nil {
		catalog.Set(raw.NameLiteral("Metadata"), raw.Ref(infoRef.Num, infoRef.Gen))
		// Metadata stream omitted (XMP synthesis out of scope, see DESIGN.md)
		catalog.Set(raw.NameLiteral("Metadata"), nil)
		delete(catalog.KV, "Metadata")
	}
	b.objects[catalogRef] = catalog

	var buf bytes.Buffer
	buf.WriteString("%PDF-" + cfg.pdfVersion() + "\n%\xE2\xE3\xCF\xD3\n")

	ordered := make([]raw.ObjectRef, 0, len(b.objects))
	for ref := range b.objects {
		ordered = append(ordered, ref)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Num < ordered[j].Num })

	offsets := make(map[int]int64, len(ordered))
	for _, ref := range ordered {
		offsets[ref.Num] = int64(buf.Len())
		buf.Write(serializeObject(ref, b.objects[ref]))
	}

	maxObjNum := 0
	if len(ordered) > 0 {
		maxObjNum = ordered[len(ordered)-1].Num
	}
	xrefOffset := int64(buf.Len())
	size := maxObjNum + 1
	buf.WriteString("xref\n0 ")
	fmt.Fprintf(&buf, "%d\n", size)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= maxObjNum; i++ {
		if off, ok := offsets[i]; ok {
			fmt.Fprintf(&buf, "%010d 00000 n \n", off)
		} else {
			buf.WriteString("0000000000 65535 f \n")
		}
	}
	trailer := raw.Dict()
	trailer.Set(raw.NameLiteral("Size"), raw.NumberInt(int64(size)))
	trailer.Set(raw.NameLiteral("Root"), raw.Ref(catalogRef.Num, catalogRef.Gen))
	if infoRef != nil {
		trailer.Set(raw.NameLiteral("Info"), raw.Ref(infoRef.Num, infoRef.Gen))
	}
	buf.WriteString("trailer\n")
	buf.Write(serializePrimitive(trailer))
	buf.WriteString("\nstartxref\n")
	fmt.Fprintf(&buf, "%d\n%%EOF\n", xrefOffset)

	counters := Counters{
		RawBytes:     rawBytes,
		EncodedBytes: encodedBytes,
		ObjectCount:  len(b.objects),
		PageCount:    len(doc.Pages),
		DedupHits:    b.dedupHits,
	}
	if rawBytes > 0 {
		counters.CompressionRate = float64(counters.EncodedBytes) / float64(rawBytes)
	}
	return buf.Bytes(), counters, nil
}

func (b *objectBuilder) ensureFont(font *semantic.Font) raw.ObjectRef {
	base, subtype, encoding := "Helvetica", "Type1", ""
	if font != nil {
		if font.BaseFont != "" {
			base = font.BaseFont
		}
		if font.Subtype != "" {
			subtype = font.Subtype
		}
		encoding = font.Encoding
	}
	key := blake2b.Sum256([]byte(base + "\x00" + subtype + "\x00" + encoding))
	if ref, ok := b.fontRefs[key]; ok {
		b.dedupHits++
		return ref
	}
	ref := b.nextRef()
	dict := raw.Dict()
	dict.Set(raw.NameLiteral("Type"), raw.NameLiteral("Font"))
	dict.Set(raw.NameLiteral("Subtype"), raw.NameLiteral(subtype))
	dict.Set(raw.NameLiteral("BaseFont"), raw.NameLiteral(base))

	if subtype == "Type0" {
		if encoding == "" {
			encoding = "Identity-H"
		}
		dict.Set(raw.NameLiteral("Encoding"), raw.NameLiteral(encoding))
		descRef := b.nextRef()
		descDict := raw.Dict()
		descDict.Set(raw.NameLiteral("Type"), raw.NameLiteral("Font"))
		descSubtype := "CIDFontType2"
		descBase := base
		dw := 1000
		var widths map[int]int
		var csi semantic.CIDSystemInfo
		if font.DescendantFont != nil {
			d := font.DescendantFont
			if d.Subtype != "" {
				descSubtype = d.Subtype
			}
			if d.BaseFont != "" {
				descBase = d.BaseFont
			}
			if d.DW > 0 {
				dw = d.DW
			}
			widths = d.W
			csi = d.CIDSystemInfo
		}
		descDict.Set(raw.NameLiteral("Subtype"), raw.NameLiteral(descSubtype))
		descDict.Set(raw.NameLiteral("BaseFont"), raw.NameLiteral(descBase))
		reg, ord := csi.Registry, csi.Ordering
		if reg == "" {
			reg = "Adobe"
		}
		if ord == "" {
			ord = "Identity"
		}
		cs := raw.Dict()
		cs.Set(raw.NameLiteral("Registry"), raw.Str([]byte(reg)))
		cs.Set(raw.NameLiteral("Ordering"), raw.Str([]byte(ord)))
		cs.Set(raw.NameLiteral("Supplement"), raw.NumberInt(int64(csi.Supplement)))
		descDict.Set(raw.NameLiteral("CIDSystemInfo"), cs)
		descDict.Set(raw.NameLiteral("DW"), raw.NumberInt(int64(dw)))
		if len(widths) > 0 {
			descDict.Set(raw.NameLiteral("W"), encodeCIDWidths(widths))
		}
		if font.DescendantFont != nil && font.DescendantFont.CIDToGIDMapName != "" {
			descDict.Set(raw.NameLiteral("CIDToGIDMap"), raw.NameLiteral(font.DescendantFont.CIDToGIDMapName))
		}
		if font.DescendantFont != nil && font.DescendantFont.Descriptor != nil {
			descDict.Set(raw.NameLiteral("FontDescriptor"), b.ensureFontDescriptor(font.DescendantFont.Descriptor))
		}
		b.objects[descRef] = descDict
		dict.Set(raw.NameLiteral("DescendantFonts"), raw.NewArray(raw.Ref(descRef.Num, descRef.Gen)))
		if len(font.ToUnicode) > 0 {
			dict.Set(raw.NameLiteral("ToUnicode"), b.ensureToUnicode(font.ToUnicode))
		}
	} else {
		if encoding == "" {
			encoding = "WinAnsiEncoding"
		}
		dict.Set(raw.NameLiteral("Encoding"), raw.NameLiteral(encoding))
		if font != nil && len(font.Widths) > 0 {
			first, last, arr := encodeWidths(font.Widths)
			dict.Set(raw.NameLiteral("FirstChar"), raw.NumberInt(int64(first)))
			dict.Set(raw.NameLiteral("LastChar"), raw.NumberInt(int64(last)))
			dict.Set(raw.NameLiteral("Widths"), arr)
		}
		if font != nil && font.Descriptor != nil {
			dict.Set(raw.NameLiteral("FontDescriptor"), b.ensureFontDescriptor(font.Descriptor))
		}
	}

	b.objects[ref] = dict
	b.fontRefs[key] = ref
	return ref
}

func (b *objectBuilder) ensureFontDescriptor(fd *semantic.FontDescriptor) raw.Object {
	ref := b.nextRef()
	dict := raw.Dict()
	dict.Set(raw.NameLiteral("Type"), raw.NameLiteral("FontDescriptor"))
	dict.Set(raw.NameLiteral("FontName"), raw.NameLiteral(fd.FontName))
	dict.Set(raw.NameLiteral("Flags"), raw.NumberInt(int64(fd.Flags)))
	dict.Set(raw.NameLiteral("ItalicAngle"), raw.NumberFloat(fd.ItalicAngle))
	dict.Set(raw.NameLiteral("Ascent"), raw.NumberFloat(fd.Ascent))
	dict.Set(raw.NameLiteral("Descent"), raw.NumberFloat(fd.Descent))
	dict.Set(raw.NameLiteral("CapHeight"), raw.NumberFloat(fd.CapHeight))
	dict.Set(raw.NameLiteral("StemV"), raw.NumberInt(int64(fd.StemV)))
	dict.Set(raw.NameLiteral("FontBBox"), raw.NewArray(
		raw.NumberFloat(fd.FontBBox[0]), raw.NumberFloat(fd.FontBBox[1]),
		raw.NumberFloat(fd.FontBBox[2]), raw.NumberFloat(fd.FontBBox[3])))
	if len(fd.FontFile) > 0 && fd.FontFileType != "" {
		fileRef := b.nextRef()
		fileDict := raw.Dict()
		fileDict.Set(raw.NameLiteral("Length"), raw.NumberInt(int64(len(fd.FontFile))))
		if fd.FontFileType == "FontFile2" {
			fileDict.Set(raw.NameLiteral("Length1"), raw.NumberInt(int64(len(fd.FontFile))))
		}
		b.objects[fileRef] = raw.NewStream(fileDict, fd.FontFile)
		dict.Set(raw.NameLiteral(fd.FontFileType), raw.Ref(fileRef.Num, fileRef.Gen))
	}
	b.objects[ref] = dict
	return raw.Ref(ref.Num, ref.Gen)
}

func (b *objectBuilder) ensureToUnicode(m map[int][]rune) raw.Object {
	ref := b.nextRef()
	var buf bytes.Buffer
	buf.WriteString("/CIDInit /ProcSet findresource begin\n12 dict begin\nbegincmap\n")
	buf.WriteString("1 begincodespacerange\n<0000> <FFFF>\nendcodespacerange\n")
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	fmt.Fprintf(&buf, "%d beginbfchar\n", len(keys))
	for _, k := range keys {
		fmt.Fprintf(&buf, "<%04X> <", k)
		for _, r := range m[k] {
			fmt.Fprintf(&buf, "%04X", r)
		}
		buf.WriteString(">\n")
	}
	buf.WriteString("endbfchar\nendcmap\nCMapName currentdict /CMap defineresource pop\nend\nend\n")
	dict := raw.Dict()
	dict.Set(raw.NameLiteral("Length"), raw.NumberInt(int64(buf.Len())))
	b.objects[ref] = raw.NewStream(dict, buf.Bytes())
	return raw.Ref(ref.Num, ref.Gen)
}

func (b *objectBuilder) ensureXObject(xo semantic.XObject, cfg Config) (raw.ObjectRef, int64, int64) {
	key := blake2b.Sum256(xo.Data)
	if ref, ok := b.xobjectRefs[key]; ok {
		b.dedupHits++
		return ref, 0, 0
	}
	ref := b.nextRef()
	dict := raw.Dict()
	dict.Set(raw.NameLiteral("Type"), raw.NameLiteral("XObject"))
	sub := xo.Subtype
	if sub == "" {
		sub = "Image"
	}
	dict.Set(raw.NameLiteral("Subtype"), raw.NameLiteral(sub))

	data := xo.Data
	rawLen := int64(len(data))
	encLen := rawLen
	if sub == "Image" {
		if xo.Width > 0 {
			dict.Set(raw.NameLiteral("Width"), raw.NumberInt(int64(xo.Width)))
		}
		if xo.Height > 0 {
			dict.Set(raw.NameLiteral("Height"), raw.NumberInt(int64(xo.Height)))
		}
		color := "DeviceRGB"
		if xo.ColorSpace != nil {
			color = xo.ColorSpace.ColorSpaceName()
		}
		dict.Set(raw.NameLiteral("ColorSpace"), raw.NameLiteral(color))
		if xo.BitsPerComponent > 0 {
			dict.Set(raw.NameLiteral("BitsPerComponent"), raw.NumberInt(int64(xo.BitsPerComponent)))
		}
		if xo.Interpolate {
			dict.Set(raw.NameLiteral("Interpolate"), raw.Bool(true))
		}
		if xo.Filter != "" {
			dict.Set(raw.NameLiteral("Filter"), raw.NameLiteral(xo.Filter))
		} else if cfg.ContentFilter != FilterNone && len(data) >= cfg.flateMinBytes() {
			data = deflate.Zlib(data, deflate.Options{})
			dict.Set(raw.NameLiteral("Filter"), raw.NameLiteral("FlateDecode"))
		}
	} else if sub == "Form" {
		dict.Set(raw.NameLiteral("FormType"), raw.NumberInt(1))
		if cropSet(xo.BBox) {
			dict.Set(raw.NameLiteral("BBox"), rectArray(xo.BBox))
		}
		if len(xo.Matrix) == 6 {
			dict.Set(raw.NameLiteral("Matrix"), raw.NewArray(
				raw.NumberFloat(xo.Matrix[0]), raw.NumberFloat(xo.Matrix[1]), raw.NumberFloat(xo.Matrix[2]),
				raw.NumberFloat(xo.Matrix[3]), raw.NumberFloat(xo.Matrix[4]), raw.NumberFloat(xo.Matrix[5])))
		}
		// A Form XObject carries its own /Resources so a recomposed
		// template page (§4.10) resolves fonts/images from its original
		// resource set rather than the embedding page's.
		if xo.Resources != nil {
			dict.Set(raw.NameLiteral("Resources"), b.formResourcesDict(xo.Resources, cfg))
		}
		if cfg.ContentFilter != FilterNone && len(data) >= cfg.flateMinBytes() {
			data = deflate.Zlib(data, deflate.Options{})
			dict.Set(raw.NameLiteral("Filter"), raw.NameLiteral("FlateDecode"))
		}
	}
	encLen = int64(len(data))
	dict.Set(raw.NameLiteral("Length"), raw.NumberInt(int64(len(data))))
	b.objects[ref] = raw.NewStream(dict, data)
	b.xobjectRefs[key] = ref
	return ref, rawLen, encLen
}

// formResourcesDict builds the nested /Resources dict of a Form XObject
// (§4.10 composition: a recomposed template page embeds its own fonts
// and images rather than relying on the host page's resource set).
func (b *objectBuilder) formResourcesDict(res *semantic.Resources, cfg Config) *raw.DictObj {
	resDict := raw.Dict()
	if len(res.Fonts) > 0 {
		fontDict := raw.Dict()
		for _, fname := range sortedKeys(res.Fonts) {
			fRef := b.ensureFont(res.Fonts[fname])
			fontDict.Set(raw.NameLiteral(fname), raw.Ref(fRef.Num, fRef.Gen))
		}
		resDict.Set(raw.NameLiteral("Font"), fontDict)
	}
	if len(res.XObjects) > 0 {
		xDict := raw.Dict()
		for _, xname := range sortedXObjKeys(res.XObjects) {
			xo := res.XObjects[xname]
			xref, _, _ := b.ensureXObject(xo, cfg)
			xDict.Set(raw.NameLiteral(xname), raw.Ref(xref.Num, xref.Gen))
		}
		resDict.Set(raw.NameLiteral("XObject"), xDict)
	}
	if len(res.ExtGStates) > 0 {
		gsDict := raw.Dict()
		for name, gstate := range res.ExtGStates {
			entry := raw.Dict()
			if gstate.FillAlpha != nil {
				entry.Set(raw.NameLiteral("ca"), raw.NumberFloat(*gstate.FillAlpha))
			}
			if gstate.StrokeAlpha != nil {
				entry.Set(raw.NameLiteral("CA"), raw.NumberFloat(*gstate.StrokeAlpha))
			}
			gsDict.Set(raw.NameLiteral(name), entry)
		}
		resDict.Set(raw.NameLiteral("ExtGState"), gsDict)
	}
	resDict.Set(raw.NameLiteral("ProcSet"), raw.NewArray(raw.NameLiteral("PDF"), raw.NameLiteral("Text"), raw.NameLiteral("ImageC")))
	return resDict
}

func sortedKeys(m map[string]*semantic.Font) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedXObjKeys(m map[string]semantic.XObject) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func rectArray(r semantic.Rectangle) *raw.ArrayObj {
	return raw.NewArray(raw.NumberFloat(r.LLX), raw.NumberFloat(r.LLY), raw.NumberFloat(r.URX), raw.NumberFloat(r.URY))
}

func cropSet(r semantic.Rectangle) bool {
	return r.URX != 0 || r.URY != 0 || r.LLX != 0 || r.LLY != 0
}

func normalizeRotation(rot int) int {
	r := rot % 360
	if r < 0 {
		r += 360
	}
	return r
}

func encodeWidths(widths map[int]int) (first, last int, arr *raw.ArrayObj) {
	if len(widths) == 0 {
		return 0, 0, raw.NewArray()
	}
	codes := make([]int, 0, len(widths))
	for c := range widths {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	first, last = codes[0], codes[len(codes)-1]
	arr = raw.NewArray()
	for c := first; c <= last; c++ {
		arr.Append(raw.NumberInt(int64(widths[c])))
	}
	return first, last, arr
}

func encodeCIDWidths(widths map[int]int) *raw.ArrayObj {
	cids := make([]int, 0, len(widths))
	for c := range widths {
		cids = append(cids, c)
	}
	sort.Ints(cids)
	arr := raw.NewArray()
	for _, c := range cids {
		arr.Append(raw.NumberInt(int64(c)))
		arr.Append(raw.NewArray(raw.NumberInt(int64(widths[c]))))
	}
	return arr
}

func serializeObject(ref raw.ObjectRef, obj raw.Object) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %d obj\n", ref.Num, ref.Gen)
	buf.Write(serializePrimitive(obj))
	buf.WriteString("\nendobj\n")
	return buf.Bytes()
}

func serializePrimitive(o raw.Object) []byte {
	if o == nil {
		return []byte("null")
	}
	switch v := o.(type) {
	case raw.NameObj:
		return []byte("/" + v.Value())
	case raw.NumberObj:
		if v.IsInteger() {
			return []byte(fmt.Sprintf("%d", v.Int()))
		}
		return []byte(formatFixed(v.Float()))
	case raw.BoolObj:
		if v.Value() {
			return []byte("true")
		}
		return []byte("false")
	case raw.NullObj:
		return []byte("null")
	case raw.StringObj:
		return escapeLiteralString(v.Value())
	case *raw.ArrayObj:
		var b bytes.Buffer
		b.WriteByte('[')
		for i, it := range v.Items {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.Write(serializePrimitive(it))
		}
		b.WriteByte(']')
		return b.Bytes()
	case *raw.DictObj:
		var b bytes.Buffer
		b.WriteString("<<")
		keys := make([]string, 0, len(v.KV))
		for k := range v.KV {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if v.KV[k] == nil {
				continue
			}
			b.WriteString("/" + k + " ")
			b.Write(serializePrimitive(v.KV[k]))
			b.WriteByte(' ')
		}
		b.WriteString(">>")
		return b.Bytes()
	case *raw.StreamObj:
		var b bytes.Buffer
		b.Write(serializePrimitive(v.Dict))
		b.WriteString("\nstream\n")
		b.Write(v.Data)
		b.WriteString("\nendstream")
		return b.Bytes()
	case raw.RefObj:
		return []byte(fmt.Sprintf("%d %d R", v.Ref().Num, v.Ref().Gen))
	default:
		return []byte("null")
	}
}

// formatFixed applies the canonical decimal policy of §4.7 determinism
// invariant (c): six fractional digits, trailing zeros trimmed, at least
// one digit after the point dropped entirely when the value is integral.
func formatFixed(f float64) string {
	s := fmt.Sprintf("%.6f", f)
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	if s == "" || s == "-" {
		s = "0"
	}
	return s
}

func escapeLiteralString(data []byte) []byte {
	var b bytes.Buffer
	b.WriteByte('(')
	for _, c := range data {
		switch c {
		case '(', ')', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(')')
	return b.Bytes()
}

func serializeContentStream(cs semantic.ContentStream) []byte {
	if len(cs.RawBytes) > 0 {
		return cs.RawBytes
	}
	var buf bytes.Buffer
	for _, op := range cs.Operations {
		for i, operand := range op.Operands {
			if i > 0 {
				buf.WriteByte(' ')
			}
			buf.Write(serializeOperand(operand))
		}
		if len(op.Operands) > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(op.Operator)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func serializeOperand(op semantic.Operand) []byte {
	switch v := op.(type) {
	case semantic.NumberOperand:
		return []byte(formatFixed(v.Value))
	case semantic.NameOperand:
		return []byte("/" + v.Value)
	case semantic.StringOperand:
		return escapeLiteralString(v.Value)
	case semantic.ArrayOperand:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, it := range v.Values {
			if i > 0 {
				buf.WriteByte(' ')
			}
			buf.Write(serializeOperand(it))
		}
		buf.WriteByte(']')
		return buf.Bytes()
	default:
		return []byte("null")
	}
}
