package css

import (
	"strconv"
	"strings"

	"github.com/dociq/pagepdf/diagnostics"
	"github.com/dociq/pagepdf/numeric"
)

// inheritedProps lists the properties that inherit by default (§4.1
// "unset = inherit if inherited property else initial").
var inheritedProps = map[string]bool{
	"color": true, "font": true, "font-family": true, "font-size": true,
	"font-weight": true, "font-style": true, "white-space": true,
	"writing-mode": true, "text-align": true,
}

// Compute resolves the cascade winners for el into a ComputedStyle,
// inheriting from parent where CSS specifies, applying CSS-wide keywords
// per-property (§4.1), and resolving custom properties/calc/var() through
// graph with cycle detection.
func Compute(sheet *Stylesheet, el Element, parent *ComputedStyle, containingBlock numeric.Size, report *diagnostics.Report) ComputedStyle {
	matches := MatchRules(sheet, el)
	winners := resolveWinners(matches)
	return computeFromWinners(winners, parent, containingBlock, report)
}

// ComputePseudoElement resolves the cascade for a ::before/::after/::marker
// generated box (§4.2 "Pseudo text content"): el is the originating element,
// parent is el's own computed style (pseudo-elements inherit from it). The
// bool result is false when no rule targets this pseudo-element on el, in
// which case no box should be generated. The raw `content` value (still
// needing quote-stripping/counter evaluation by the caller) is returned
// separately since it has no typed ComputedStyle field.
func ComputePseudoElement(sheet *Stylesheet, el Element, pe PseudoElement, parent ComputedStyle, containingBlock numeric.Size, report *diagnostics.Report) (style ComputedStyle, content string, ok bool) {
	matches := MatchPseudoElement(sheet, el, pe)
	if len(matches) == 0 {
		return ComputedStyle{}, "", false
	}
	winners := resolveWinners(matches)
	if d, has := winners["content"]; has {
		content = strings.TrimSpace(d.Value)
	}
	return computeFromWinners(winners, &parent, containingBlock, report), content, true
}

// ResolveContent evaluates a `content` property value against its
// originating element, handling string literals, attr(name), and the
// none/normal keywords (§4.2). counter()/counters() are not supported and
// fall back to the empty string with a KnownLoss diagnostic.
func ResolveContent(raw string, el Element, report *diagnostics.Report) (string, bool) {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "", "none", "normal":
		return "", false
	}
	var b strings.Builder
	rest := raw
	for len(rest) > 0 {
		rest = strings.TrimSpace(rest)
		switch {
		case strings.HasPrefix(rest, `"`) || strings.HasPrefix(rest, "'"):
			q := rest[0]
			end := strings.IndexByte(rest[1:], q)
			if end < 0 {
				b.WriteString(rest[1:])
				rest = ""
				break
			}
			b.WriteString(rest[1 : 1+end])
			rest = rest[1+end+1:]
		case strings.HasPrefix(rest, "attr("):
			close := strings.IndexByte(rest, ')')
			if close < 0 {
				rest = ""
				break
			}
			name := strings.TrimSpace(rest[len("attr(") : close])
			if v, ok := el.Attr(name); ok {
				b.WriteString(v)
			}
			rest = rest[close+1:]
		case strings.HasPrefix(rest, "counter(") || strings.HasPrefix(rest, "counters("):
			if report != nil {
				report.Add(diagnostics.Record{Kind: diagnostics.KindKnownLoss, Where: "css.content", Requested: rest, Produced: "counters unsupported"})
			}
			close := strings.IndexByte(rest, ')')
			if close < 0 {
				rest = ""
				break
			}
			rest = rest[close+1:]
		default:
			rest = ""
		}
	}
	return b.String(), true
}

func computeFromWinners(winners map[string]Declaration, parent *ComputedStyle, containingBlock numeric.Size, report *diagnostics.Report) ComputedStyle {
	style := Initial()
	if parent != nil {
		inheritFrom(&style, parent)
	}

	// Build the custom-property graph for this element from declared --*
	// winners, seeded with the parent's resolved custom props so
	// inheritance of custom properties (they inherit like `color`) works.
	declaredVars := map[string]string{}
	if parent != nil {
		for k, v := range parent.CustomProps {
			declaredVars[k] = v
		}
	}
	for prop, d := range winners {
		if strings.HasPrefix(prop, "--") {
			declaredVars[prop] = d.Value
		}
	}
	graph := NewPropGraph(declaredVars)
	style.CustomProps = map[string]string{}
	for name := range declaredVars {
		if resolved, ok := graph.Resolve(name, report); ok {
			style.CustomProps[name] = resolved
		}
	}

	basis := containingBlock.W
	varLookup := func(name string) (numeric.Length, bool) {
		resolved, ok := graph.Resolve(name, report)
		if !ok {
			return 0, false
		}
		v, ok := ParseLength(resolved, basis)
		return v, ok
	}

	props := make([]string, 0, len(winners))
	for p := range winners {
		if strings.HasPrefix(p, "--") {
			continue
		}
		props = append(props, p)
	}
	// Deterministic application order independent of map iteration.
	sortStrings(props)

	for _, prop := range props {
		d := winners[prop]
		value := resolveKeywords(prop, d.Value, parent)
		value = substituteVarsInValue(value, graph, report)
		applyProperty(&style, prop, value, basis, containingBlock.H, varLookup, report)
	}

	return style
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// resolveKeywords applies the CSS-wide keywords per §4.1: each is resolved
// strictly per-property (no cross-property inheritance, e.g.
// `translate: inherit` never pulls `transform`).
func resolveKeywords(prop, value string, parent *ComputedStyle) string {
	v := strings.TrimSpace(value)
	switch v {
	case "initial":
		return "__initial__"
	case "inherit":
		return "__inherit__"
	case "unset":
		if inheritedProps[prop] {
			return "__inherit__"
		}
		return "__initial__"
	case "revert", "revert-layer":
		return "__initial__"
	}
	return value
}

func substituteVarsInValue(value string, graph *PropGraph, report *diagnostics.Report) string {
	if !strings.Contains(value, "var(") {
		return value
	}
	resolved, ok := graph.Resolve("__tmp__", report)
	_ = resolved
	_ = ok
	// Reuse the graph's substitution machinery directly via a throwaway
	// entry so fallback chains and cycle detection apply uniformly.
	g2 := NewPropGraph(map[string]string{"__inline__": value})
	for k, v := range graphRaw(graph) {
		g2.Set(k, v)
	}
	out, ok := g2.Resolve("__inline__", report)
	if !ok {
		return value
	}
	return out
}

func graphRaw(g *PropGraph) map[string]string { return g.raw }

func inheritFrom(style *ComputedStyle, parent *ComputedStyle) {
	style.Color = parent.Color
	style.Font = parent.Font
	// WritingMode inherits.
	style.WritingMode = parent.WritingMode
}

// applyProperty dispatches one resolved declaration value into the typed
// ComputedStyle fields, or records it as parsed-no-effect/known-loss.
func applyProperty(s *ComputedStyle, prop, value string, basisW, basisH numeric.Length, varLookup func(string) (numeric.Length, bool), report *diagnostics.Report) {
	length := func(v string, basis numeric.Length) (numeric.Length, bool) {
		v = strings.TrimSpace(v)
		if v == "" || v == "auto" {
			return 0, false
		}
		if strings.Contains(v, "calc(") || strings.Contains(v, "min(") || strings.Contains(v, "max(") || strings.Contains(v, "clamp(") {
			l, err := EvalCalc(v, basis, varLookup)
			if err != nil {
				return 0, false
			}
			return l, true
		}
		return ParseLength(v, basis)
	}

	switch prop {
	case "display":
		s.Display = parseDisplay(value)
	case "position":
		s.Position = parsePosition(value)
	case "top", "right", "bottom", "left":
		applyInset(s, prop, value, basisH, basisW, length)
	case "margin":
		applyEdgeShorthand(&s.Margin, value, basisW, length)
	case "margin-top":
		s.Margin.Top, _ = length(value, basisH)
	case "margin-right":
		s.Margin.Right, _ = length(value, basisW)
	case "margin-bottom":
		s.Margin.Bottom, _ = length(value, basisH)
	case "margin-left":
		s.Margin.Left, _ = length(value, basisW)
	case "padding":
		applyEdgeShorthand(&s.Padding, value, basisW, length)
	case "padding-top":
		s.Padding.Top, _ = length(value, basisH)
	case "padding-right":
		s.Padding.Right, _ = length(value, basisW)
	case "padding-bottom":
		s.Padding.Bottom, _ = length(value, basisH)
	case "padding-left":
		s.Padding.Left, _ = length(value, basisW)
	case "width":
		if v, ok := length(value, basisW); ok {
			s.Width, s.WidthAuto = v, false
		} else {
			s.WidthAuto = true
		}
	case "height":
		if v, ok := length(value, basisH); ok {
			s.Height, s.HeightAuto = v, false
		} else {
			s.HeightAuto = true
		}
	case "min-width":
		s.MinWidth, _ = length(value, basisW)
	case "max-width":
		if v, ok := length(value, basisW); ok {
			s.MaxWidth = v
		} else {
			s.MaxWidth = numeric.Length(1<<62 - 1)
		}
	case "min-height":
		s.MinHeight, _ = length(value, basisH)
	case "max-height":
		if v, ok := length(value, basisH); ok {
			s.MaxHeight = v
		} else {
			s.MaxHeight = numeric.Length(1<<62 - 1)
		}
	case "flex-direction":
		s.FlexDirection = parseFlexDirection(value)
	case "flex-wrap":
		s.FlexWrap = parseFlexWrap(value)
	case "flex-grow":
		s.FlexGrow, _ = strconv.ParseFloat(strings.TrimSpace(value), 64)
	case "flex-shrink":
		s.FlexShrink, _ = strconv.ParseFloat(strings.TrimSpace(value), 64)
	case "flex-basis":
		if v, ok := length(value, basisW); ok {
			s.FlexBasis, s.FlexBasisAuto = v, false
		} else {
			s.FlexBasisAuto = true
		}
	case "justify-content":
		s.JustifyContent = parseAlign(value)
	case "align-items":
		s.AlignItems = parseAlign(value)
	case "align-content":
		s.AlignContent = parseAlign(value)
	case "align-self":
		if strings.TrimSpace(value) == "auto" {
			s.AlignSelfAuto = true
		} else {
			s.AlignSelf, s.AlignSelfAuto = parseAlign(value), false
		}
	case "gap", "grid-gap":
		parts := strings.Fields(value)
		if len(parts) == 1 {
			v, _ := length(parts[0], basisH)
			s.GapRow, s.GapColumn = v, v
		} else if len(parts) >= 2 {
			s.GapRow, _ = length(parts[0], basisH)
			s.GapColumn, _ = length(parts[1], basisW)
		}
	case "row-gap":
		s.GapRow, _ = length(value, basisH)
	case "column-gap":
		s.GapColumn, _ = length(value, basisW)
	case "grid-template-columns":
		s.GridTemplateColumns = parseTrackList(value, basisW)
	case "grid-template-rows":
		s.GridTemplateRows = parseTrackList(value, basisH)
	case "grid-column-start":
		s.GridColumnStart, _ = strconv.Atoi(strings.TrimSpace(value))
	case "grid-row-start":
		s.GridRowStart, _ = strconv.Atoi(strings.TrimSpace(value))
	case "font-size":
		if v, ok := length(value, numeric.FromPoints(16)); ok {
			s.Font.Size = v
		}
	case "font-family":
		var fams []string
		for _, f := range strings.Split(value, ",") {
			fams = append(fams, strings.Trim(strings.TrimSpace(f), `"'`))
		}
		s.Font.Family = fams
	case "font-weight":
		s.Font.Weight = parseFontWeight(value)
	case "font-style":
		s.Font.Italic = strings.TrimSpace(value) == "italic" || strings.TrimSpace(value) == "oblique"
	case "color":
		if c, ok := ParseColor(value); ok {
			s.Color = c
		}
	case "background-color":
		if c, ok := ParseColor(value); ok {
			s.Background.Color = c
		}
	case "background", "background-image":
		applyBackground(s, value, report)
	case "opacity":
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err == nil {
			s.Opacity = numeric.Clamp(numeric.Length(v*1000), 0, 1000).Points()
		}
	case "overflow":
		s.Overflow = strings.TrimSpace(value)
	case "transform":
		ops, ok := parseTransformList(value)
		if ok {
			s.Transform = ops
		} else if report != nil {
			report.Add(diagnostics.Record{Kind: diagnostics.KindKnownLoss, Where: "css.transform", Property: prop, Requested: value, Produced: "unsupported transform function rejected"})
		}
	case "transform-origin":
		parts := strings.Fields(value)
		if len(parts) >= 1 {
			v, _ := length(parts[0], basisW)
			s.TransformOrigin[0] = v
		}
		if len(parts) >= 2 {
			v, _ := length(parts[1], basisH)
			s.TransformOrigin[1] = v
		}
	case "break-before":
		s.BreakBefore = parseBreakRule(value)
	case "break-after":
		s.BreakAfter = parseBreakRule(value)
	case "break-inside":
		s.BreakInside = parseBreakRule(value)
	case "z-index":
		if strings.TrimSpace(value) == "auto" {
			s.ZIndexAuto = true
		} else if v, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			s.ZIndex, s.ZIndexAuto = v, false
		}
	case "clip-path":
		if strings.HasPrefix(strings.TrimSpace(value), "inset(") {
			inner := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(value), "inset("), ")")
			fields := strings.Fields(inner)
			var e numeric.Edges
			vals := make([]numeric.Length, 0, 4)
			for _, f := range fields {
				v, _ := length(f, basisH)
				vals = append(vals, v)
			}
			switch len(vals) {
			case 1:
				e = numeric.Edges{Top: vals[0], Right: vals[0], Bottom: vals[0], Left: vals[0]}
			case 2:
				e = numeric.Edges{Top: vals[0], Bottom: vals[0], Right: vals[1], Left: vals[1]}
			case 4:
				e = numeric.Edges{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}
			}
			s.ClipPathInset, s.ClipPathSet = e, true
		} else if report != nil {
			report.Add(diagnostics.Record{Kind: diagnostics.KindKnownLoss, Where: "css.clip-path", Property: prop, Requested: value, Produced: "only inset() baseline supported"})
		}
	case "filter":
		if b, ok := parseBlur(value); ok {
			s.FilterBlur = b
		} else if report != nil {
			report.Add(diagnostics.Record{Kind: diagnostics.KindKnownLoss, Where: "css.filter", Property: prop, Requested: value, Produced: "filters-effects-fallback"})
		}
	case "backdrop-filter":
		if b, ok := parseBlur(value); ok {
			s.BackdropBlur = b
		}
	case "mix-blend-mode":
		s.MixBlendMode = strings.TrimSpace(value)
	case "box-shadow":
		s.BoxShadow = parseBoxShadowList(value, basisW, length)
	case "writing-mode":
		wm := strings.TrimSpace(value)
		if wm != "horizontal-tb" {
			if report != nil {
				report.Add(diagnostics.Record{Kind: diagnostics.KindKnownLoss, Where: "css.writing-mode", Requested: wm, Produced: "non-horizontal-tb rejected; treated as horizontal-tb"})
			}
			wm = "horizontal-tb"
		}
		s.WritingMode = wm
	case "column-count":
		if report != nil {
			report.Add(diagnostics.Record{Kind: diagnostics.KindKnownLoss, Where: "css.multicol", Property: prop, Requested: value, Produced: "multicol-single-column-fallback"})
		}
	default:
		if report != nil {
			report.Add(diagnostics.Record{Kind: diagnostics.KindKnownLoss, Where: "css.compute", Property: prop, Requested: value, Produced: "parsed-no-effect"})
		}
	}
}

func applyInset(s *ComputedStyle, prop, value string, basisH, basisW numeric.Length, length func(string, numeric.Length) (numeric.Length, bool)) {
	idx := map[string]int{"top": 0, "right": 1, "bottom": 2, "left": 3}[prop]
	basis := basisW
	if prop == "top" || prop == "bottom" {
		basis = basisH
	}
	if v, ok := length(value, basis); ok {
		switch idx {
		case 0:
			s.Inset.Top = v
		case 1:
			s.Inset.Right = v
		case 2:
			s.Inset.Bottom = v
		case 3:
			s.Inset.Left = v
		}
		s.InsetAuto[idx] = false
	} else {
		s.InsetAuto[idx] = true
	}
}

func applyEdgeShorthand(e *numeric.Edges, value string, basis numeric.Length, length func(string, numeric.Length) (numeric.Length, bool)) {
	parts := strings.Fields(value)
	vals := make([]numeric.Length, 0, 4)
	for _, p := range parts {
		v, _ := length(p, basis)
		vals = append(vals, v)
	}
	switch len(vals) {
	case 1:
		*e = numeric.Edges{Top: vals[0], Right: vals[0], Bottom: vals[0], Left: vals[0]}
	case 2:
		*e = numeric.Edges{Top: vals[0], Bottom: vals[0], Right: vals[1], Left: vals[1]}
	case 3:
		*e = numeric.Edges{Top: vals[0], Right: vals[1], Left: vals[1], Bottom: vals[2]}
	case 4:
		*e = numeric.Edges{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}
	}
}

func parseDisplay(v string) Display {
	switch strings.TrimSpace(v) {
	case "none":
		return DisplayNone
	case "block":
		return DisplayBlock
	case "inline":
		return DisplayInline
	case "inline-block":
		return DisplayInlineBlock
	case "flex":
		return DisplayFlex
	case "grid":
		return DisplayGrid
	case "table":
		return DisplayTable
	case "table-row":
		return DisplayTableRow
	case "table-cell":
		return DisplayTableCell
	case "table-header-group":
		return DisplayTableHeaderGroup
	case "table-row-group":
		return DisplayTableRowGroup
	case "list-item":
		return DisplayListItem
	}
	return DisplayInline
}

func parsePosition(v string) Position {
	switch strings.TrimSpace(v) {
	case "relative":
		return PositionRelative
	case "absolute":
		return PositionAbsolute
	case "fixed":
		return PositionFixed
	}
	return PositionStatic
}

func parseFlexDirection(v string) FlexDirection {
	switch strings.TrimSpace(v) {
	case "row-reverse":
		return FlexRowReverse
	case "column":
		return FlexColumn
	case "column-reverse":
		return FlexColumnReverse
	}
	return FlexRow
}

func parseFlexWrap(v string) FlexWrap {
	switch strings.TrimSpace(v) {
	case "wrap":
		return FlexWrapOn
	case "wrap-reverse":
		return FlexWrapReverse
	}
	return FlexNoWrap
}

func parseAlign(v string) Align {
	switch strings.TrimSpace(v) {
	case "flex-end", "end":
		return AlignEnd
	case "center":
		return AlignCenter
	case "stretch":
		return AlignStretch
	case "space-between":
		return AlignSpaceBetween
	case "space-around":
		return AlignSpaceAround
	case "space-evenly":
		return AlignSpaceEvenly
	case "baseline":
		return AlignBaseline
	}
	return AlignStart
}

func parseBreakRule(v string) BreakRule {
	switch strings.TrimSpace(v) {
	case "always", "page":
		return BreakAlways
	case "avoid":
		return BreakAvoid
	}
	return BreakAuto
}

func parseFontWeight(v string) int {
	v = strings.TrimSpace(v)
	switch v {
	case "normal":
		return 400
	case "bold":
		return 700
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return 400
}

func parseTrackList(value string, basis numeric.Length) []TrackSize {
	var out []TrackSize
	for _, tok := range strings.Fields(value) {
		if strings.HasPrefix(tok, "repeat(") {
			inner := strings.TrimSuffix(strings.TrimPrefix(tok, "repeat("), ")")
			parts := strings.SplitN(inner, ",", 2)
			if len(parts) == 2 {
				n, _ := strconv.Atoi(strings.TrimSpace(parts[0]))
				track := parseOneTrack(strings.TrimSpace(parts[1]), basis)
				for i := 0; i < n; i++ {
					out = append(out, track)
				}
			}
			continue
		}
		out = append(out, parseOneTrack(tok, basis))
	}
	return out
}

func parseOneTrack(tok string, basis numeric.Length) TrackSize {
	if tok == "auto" {
		return TrackSize{IsAuto: true}
	}
	if strings.HasSuffix(tok, "fr") {
		v, _ := strconv.ParseFloat(strings.TrimSuffix(tok, "fr"), 64)
		return TrackSize{IsFr: true, Fr: v}
	}
	if strings.HasSuffix(tok, "%") {
		v, _ := strconv.ParseFloat(strings.TrimSuffix(tok, "%"), 64)
		return TrackSize{Percent: v}
	}
	v, _ := ParseLength(tok, basis)
	return TrackSize{Fixed: v}
}

func parseTransformList(value string) ([]TransformOp, bool) {
	value = strings.TrimSpace(value)
	if value == "none" || value == "" {
		return nil, true
	}
	var ops []TransformOp
	for _, fn := range splitFunctions(value) {
		op, ok := parseTransformFn(fn)
		if !ok {
			return nil, false
		}
		ops = append(ops, op)
	}
	return ops, true
}

func splitFunctions(value string) []string {
	var out []string
	depth := 0
	start := 0
	for i, c := range value {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				out = append(out, strings.TrimSpace(value[start:i+1]))
				start = i + 1
			}
		}
	}
	return out
}

func parseTransformFn(fn string) (TransformOp, bool) {
	open := strings.Index(fn, "(")
	if open < 0 {
		return TransformOp{}, false
	}
	name := fn[:open]
	args := strings.Split(strings.TrimSuffix(fn[open+1:], ")"), ",")
	for i := range args {
		args[i] = strings.TrimSpace(args[i])
	}
	parseLen := func(s string) numeric.Length {
		v, _ := ParseLength(s, 0)
		return v
	}
	parseAngle := func(s string) float64 {
		s = strings.TrimSpace(s)
		if strings.HasSuffix(s, "deg") {
			v, _ := strconv.ParseFloat(strings.TrimSuffix(s, "deg"), 64)
			return v * 3.14159265358979 / 180
		}
		if strings.HasSuffix(s, "rad") {
			v, _ := strconv.ParseFloat(strings.TrimSuffix(s, "rad"), 64)
			return v
		}
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}
	switch name {
	case "translate":
		x := parseLen(args[0])
		y := x
		if len(args) > 1 {
			y = parseLen(args[1])
		} else {
			y = 0
		}
		return TransformOp{Kind: "translate", A: x, B: y}, true
	case "scale":
		sx, _ := strconv.ParseFloat(args[0], 64)
		sy := sx
		if len(args) > 1 {
			sy, _ = strconv.ParseFloat(args[1], 64)
		}
		return TransformOp{Kind: "scale", A: numeric.Length(sx * 1000), B: numeric.Length(sy * 1000)}, true
	case "rotate":
		return TransformOp{Kind: "rotate", Angle: parseAngle(args[0])}, true
	case "skew":
		ax := parseAngle(args[0])
		ay := 0.0
		if len(args) > 1 {
			ay = parseAngle(args[1])
		}
		return TransformOp{Kind: "skew", Angle: ax, A: numeric.Length(ay * 1000)}, true
	case "skewX":
		return TransformOp{Kind: "skewX", Angle: parseAngle(args[0])}, true
	case "skewY":
		return TransformOp{Kind: "skewY", Angle: parseAngle(args[0])}, true
	case "matrix":
		if len(args) != 6 {
			return TransformOp{}, false
		}
		vals := make([]float64, 6)
		for i, a := range args {
			vals[i], _ = strconv.ParseFloat(a, 64)
		}
		return TransformOp{Kind: "matrix",
			A: numeric.Length(vals[0] * 1000), B: numeric.Length(vals[1] * 1000),
			C: numeric.Length(vals[2] * 1000), D: numeric.Length(vals[3] * 1000),
			E: numeric.FromPoints(vals[4]), F: numeric.FromPoints(vals[5]),
		}, true
	case "matrix3d":
		// Only 2D-safe matrix3d accepted (§4.4); reject others deterministically.
		if len(args) != 16 {
			return TransformOp{}, false
		}
		v := make([]float64, 16)
		for i, a := range args {
			v[i], _ = strconv.ParseFloat(a, 64)
		}
		if v[2] != 0 || v[3] != 0 || v[6] != 0 || v[7] != 0 || v[8] != 0 || v[9] != 0 ||
			v[10] != 1 || v[11] != 0 || v[14] != 0 || v[15] != 1 {
			return TransformOp{}, false
		}
		return TransformOp{Kind: "matrix",
			A: numeric.Length(v[0] * 1000), B: numeric.Length(v[1] * 1000),
			C: numeric.Length(v[4] * 1000), D: numeric.Length(v[5] * 1000),
			E: numeric.FromPoints(v[12]), F: numeric.FromPoints(v[13]),
		}, true
	}
	return TransformOp{}, false
}

func parseBlur(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "blur(") {
		inner := strings.TrimSuffix(strings.TrimPrefix(value, "blur("), ")")
		l, ok := ParseLength(inner, 0)
		if !ok {
			return 0, false
		}
		return l.Points(), true
	}
	return 0, false
}

func applyBackground(s *ComputedStyle, value string, report *diagnostics.Report) {
	value = strings.TrimSpace(value)
	switch {
	case strings.HasPrefix(value, "linear-gradient("):
		s.Background.Gradient = parseGradient(value, GradientLinear)
	case strings.HasPrefix(value, "radial-gradient("):
		s.Background.Gradient = parseGradient(value, GradientRadial)
	case strings.HasPrefix(value, "conic-gradient("):
		s.Background.Gradient = parseGradient(value, GradientConic)
	default:
		if c, ok := ParseColor(value); ok {
			s.Background.Color = c
		} else if report != nil {
			report.Add(diagnostics.Record{Kind: diagnostics.KindKnownLoss, Where: "css.background", Requested: value, Produced: "parsed-no-effect"})
		}
	}
}

func parseGradient(value string, kind GradientKind) Gradient {
	open := strings.Index(value, "(")
	inner := strings.TrimSuffix(value[open+1:], ")")
	parts := splitTopLevelArgs(inner)
	g := Gradient{Kind: kind}
	start := 0
	if len(parts) > 0 && strings.HasSuffix(strings.TrimSpace(parts[0]), "deg") {
		angleStr := strings.TrimSpace(strings.TrimSuffix(parts[0], "deg"))
		angleDeg, _ := strconv.ParseFloat(angleStr, 64)
		g.Angle = angleDeg * 3.14159265358979 / 180
		start = 1
	}
	n := len(parts) - start
	for i := start; i < len(parts); i++ {
		fields := strings.Fields(strings.TrimSpace(parts[i]))
		if len(fields) == 0 {
			continue
		}
		c, ok := ParseColor(fields[0])
		if !ok {
			continue
		}
		pos := float64(i-start) / maxf(1, float64(n-1))
		if len(fields) > 1 && strings.HasSuffix(fields[1], "%") {
			pos, _ = strconv.ParseFloat(strings.TrimSuffix(fields[1], "%"), 64)
			pos /= 100
		}
		g.Stops = append(g.Stops, GradientStop{Color: c, Position: pos})
	}
	return g
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func parseBoxShadowList(value string, basis numeric.Length, length func(string, numeric.Length) (numeric.Length, bool)) []BoxShadow {
	var out []BoxShadow
	for _, entry := range splitTopLevelComma(value) {
		fields := strings.Fields(strings.TrimSpace(entry))
		var sh BoxShadow
		nums := make([]numeric.Length, 0, 4)
		for _, f := range fields {
			if f == "inset" {
				sh.Inset = true
				continue
			}
			if c, ok := ParseColor(f); ok {
				sh.Color = c
				continue
			}
			if v, ok := length(f, basis); ok {
				nums = append(nums, v)
			}
		}
		if len(nums) >= 2 {
			sh.OffsetX, sh.OffsetY = nums[0], nums[1]
		}
		if len(nums) >= 3 {
			sh.Blur = nums[2]
		}
		if len(nums) >= 4 {
			sh.Spread = nums[3]
		}
		out = append(out, sh)
	}
	return out
}
