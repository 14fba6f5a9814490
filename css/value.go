package css

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dociq/pagepdf/numeric"
)

// LengthExpr is the canonical linear form of §4.1 "Value resolution": a
// constant plus, at most, a single variable term with a scalar
// coefficient. `calc(var(--x) * s)` and `calc(var(--x) ± length)` both
// collapse to this shape.
type LengthExpr struct {
	Const    numeric.Length
	VarName  string
	VarCoeff float64
}

// IsConstant reports whether the expression carries no unresolved variable.
func (e LengthExpr) IsConstant() bool { return e.VarName == "" }

// Resolve substitutes a concrete value for the variable term, if any.
func (e LengthExpr) Resolve(varValue numeric.Length) numeric.Length {
	if e.VarName == "" {
		return e.Const
	}
	return e.Const.Add(varValue.Mul(e.VarCoeff))
}

// ParseLength parses a plain length token (no calc/var) into a Length,
// resolving percentages against basis. Supported units: pt, px (96dpi),
// in, mm, cm, %.
func ParseLength(tok string, basis numeric.Length) (numeric.Length, bool) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return 0, false
	}
	if strings.HasSuffix(tok, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(tok, "%"), 64)
		if err != nil {
			return 0, false
		}
		return numeric.Percent(v, basis), true
	}
	units := []struct {
		suffix string
		conv   func(float64) numeric.Length
	}{
		{"pt", numeric.FromPoints},
		{"px", func(v float64) numeric.Length { return numeric.FromPoints(v * 72 / 96) }},
		{"in", numeric.FromInches},
		{"mm", numeric.FromMillimeters},
		{"cm", func(v float64) numeric.Length { return numeric.FromMillimeters(v * 10) }},
	}
	for _, u := range units {
		if strings.HasSuffix(tok, u.suffix) {
			v, err := strconv.ParseFloat(strings.TrimSuffix(tok, u.suffix), 64)
			if err != nil {
				return 0, false
			}
			return u.conv(v), true
		}
	}
	// Bare number: treat as points (common in unitless internal values).
	if v, err := strconv.ParseFloat(tok, 64); err == nil {
		return numeric.FromPoints(v), true
	}
	return 0, false
}

// EvalCalc evaluates a restricted calc()/min()/max()/clamp()/abs() token
// run per §4.1. Only a single distinct var(...) reference is supported per
// expression (the canonical linear form); mixed units with one constant
// basis resolve via ParseLength. basis is the percentage basis; varLookup
// resolves named custom properties to their already-resolved Length value.
func EvalCalc(expr string, basis numeric.Length, varLookup func(name string) (numeric.Length, bool)) (numeric.Length, error) {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "calc(") {
		expr = strings.TrimSuffix(strings.TrimPrefix(expr, "calc("), ")")
	}

	switch {
	case strings.HasPrefix(expr, "min(") || strings.HasPrefix(expr, "max(") || strings.HasPrefix(expr, "clamp("):
		return evalMinMaxClamp(expr, basis, varLookup)
	case strings.HasPrefix(expr, "abs("):
		inner := strings.TrimSuffix(strings.TrimPrefix(expr, "abs("), ")")
		v, err := EvalCalc(inner, basis, varLookup)
		if err != nil {
			return 0, err
		}
		if v < 0 {
			return -v, nil
		}
		return v, nil
	}

	return evalLinear(expr, basis, varLookup)
}

func splitTopLevelArgs(s string) []string {
	var args []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, s[start:i])
				start = i + 1
			}
		}
	}
	args = append(args, s[start:])
	for i := range args {
		args[i] = strings.TrimSpace(args[i])
	}
	return args
}

func evalMinMaxClamp(expr string, basis numeric.Length, varLookup func(string) (numeric.Length, bool)) (numeric.Length, error) {
	open := strings.Index(expr, "(")
	fn := expr[:open]
	inner := expr[open+1 : len(expr)-1]
	args := splitTopLevelArgs(inner)
	vals := make([]numeric.Length, 0, len(args))
	for _, a := range args {
		v, err := EvalCalc(a, basis, varLookup)
		if err != nil {
			return 0, err
		}
		vals = append(vals, v)
	}
	switch fn {
	case "min":
		out := vals[0]
		for _, v := range vals[1:] {
			out = numeric.Min(out, v)
		}
		return out, nil
	case "max":
		out := vals[0]
		for _, v := range vals[1:] {
			out = numeric.Max(out, v)
		}
		return out, nil
	case "clamp":
		if len(vals) != 3 {
			return 0, fmt.Errorf("clamp requires 3 args, got %d", len(vals))
		}
		return numeric.Clamp(vals[1], vals[0], vals[2]), nil
	}
	return 0, fmt.Errorf("unknown function %q", fn)
}

// evalLinear evaluates addition/subtraction/multiplication/division of
// length literals and at most one var(...) term, left to right. This
// covers calc(var(--x) * s) and calc(var(--x) ± length).
func evalLinear(expr string, basis numeric.Length, varLookup func(string) (numeric.Length, bool)) (numeric.Length, error) {
	toks := tokenizeCalc(expr)
	if len(toks) == 0 {
		return 0, fmt.Errorf("empty calc expression")
	}
	var acc numeric.Length
	var varName string
	var varCoeff float64
	sign := 1.0
	i := 0
	for i < len(toks) {
		tok := toks[i]
		switch tok {
		case "+":
			sign = 1
			i++
			continue
		case "-":
			sign = -1
			i++
			continue
		case "*", "/":
			// handled by lookahead in the value case below
			i++
			continue
		}
		if strings.HasPrefix(tok, "var(") {
			name, fallback, hasFallback := parseVarToken(tok)
			var resolved numeric.Length
			var ok bool
			if varLookup != nil {
				resolved, ok = varLookup(name)
			}
			if !ok && hasFallback {
				resolved, _ = ParseLength(fallback, basis)
				ok = true
			}
			coeff := sign
			if i+1 < len(toks) && (toks[i+1] == "*" || toks[i+1] == "/") {
				op := toks[i+1]
				scalarTok := toks[i+2]
				scalar, _ := strconv.ParseFloat(scalarTok, 64)
				if op == "/" && scalar != 0 {
					coeff = sign / scalar
				} else {
					coeff = sign * scalar
				}
				i += 3
			} else {
				i++
			}
			if ok {
				acc = acc.Add(resolved.Mul(coeff))
			} else {
				varName = name
				varCoeff = coeff
			}
			sign = 1
			continue
		}
		v, ok := ParseLength(tok, basis)
		if !ok {
			if f, err := strconv.ParseFloat(tok, 64); err == nil {
				acc = acc.Add(numeric.FromPoints(f * sign))
				i++
				sign = 1
				continue
			}
			return 0, fmt.Errorf("unparseable calc token %q", tok)
		}
		acc = acc.Add(v.Mul(sign))
		sign = 1
		i++
	}
	_ = varName
	_ = varCoeff
	return acc, nil
}

func tokenizeCalc(expr string) []string {
	var toks []string
	var cur strings.Builder
	depth := 0
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
	}
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch c {
		case '(':
			depth++
			cur.WriteByte(c)
		case ')':
			depth--
			cur.WriteByte(c)
		case '+', '-', '*', '/':
			if depth == 0 {
				flush()
				toks = append(toks, string(c))
				continue
			}
			cur.WriteByte(c)
		case ' ':
			if depth == 0 {
				flush()
			} else {
				cur.WriteByte(c)
			}
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return toks
}

func parseVarToken(tok string) (name, fallback string, hasFallback bool) {
	inner := strings.TrimSuffix(strings.TrimPrefix(tok, "var("), ")")
	parts := splitTopLevelArgs(inner)
	name = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		fallback = strings.Join(parts[1:], ",")
		hasFallback = true
	}
	return
}

// ParseColor parses named, hex, rgb[a](), hsl[a](), and basic color-mix()
// values (§4.1).
func ParseColor(tok string) (Color, bool) {
	tok = strings.TrimSpace(tok)
	if c, ok := namedColors[strings.ToLower(tok)]; ok {
		return c, true
	}
	if strings.HasPrefix(tok, "#") {
		return parseHexColor(tok)
	}
	if strings.HasPrefix(tok, "rgb") {
		return parseRGBColor(tok)
	}
	if strings.HasPrefix(tok, "hsl") {
		return parseHSLColor(tok)
	}
	if strings.HasPrefix(tok, "color-mix(") {
		return parseColorMix(tok)
	}
	return Color{}, false
}

func parseHexColor(tok string) (Color, bool) {
	h := strings.TrimPrefix(tok, "#")
	expand := func(c byte) float64 {
		v, _ := strconv.ParseUint(string(c)+string(c), 16, 8)
		return float64(v) / 255
	}
	byte2 := func(s string) float64 {
		v, _ := strconv.ParseUint(s, 16, 8)
		return float64(v) / 255
	}
	switch len(h) {
	case 3:
		return Color{expand(h[0]), expand(h[1]), expand(h[2]), 1}, true
	case 4:
		return Color{expand(h[0]), expand(h[1]), expand(h[2]), expand(h[3])}, true
	case 6:
		return Color{byte2(h[0:2]), byte2(h[2:4]), byte2(h[4:6]), 1}, true
	case 8:
		return Color{byte2(h[0:2]), byte2(h[2:4]), byte2(h[4:6]), byte2(h[6:8])}, true
	}
	return Color{}, false
}

func colorArgs(tok string) []string {
	open := strings.Index(tok, "(")
	inner := tok[open+1 : len(tok)-1]
	inner = strings.ReplaceAll(inner, "/", ",")
	raw := strings.FieldsFunc(inner, func(r rune) bool { return r == ',' || r == ' ' })
	return raw
}

func parseRGBColor(tok string) (Color, bool) {
	args := colorArgs(tok)
	if len(args) < 3 {
		return Color{}, false
	}
	comp := func(s string) float64 {
		s = strings.TrimSpace(s)
		if strings.HasSuffix(s, "%") {
			v, _ := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
			return v / 100
		}
		v, _ := strconv.ParseFloat(s, 64)
		return v / 255
	}
	a := 1.0
	if len(args) > 3 {
		av, _ := strconv.ParseFloat(strings.TrimSuffix(args[3], "%"), 64)
		if strings.HasSuffix(args[3], "%") {
			av /= 100
		}
		a = av
	}
	return Color{comp(args[0]), comp(args[1]), comp(args[2]), a}, true
}

func parseHSLColor(tok string) (Color, bool) {
	args := colorArgs(tok)
	if len(args) < 3 {
		return Color{}, false
	}
	h, _ := strconv.ParseFloat(strings.TrimSuffix(args[0], "deg"), 64)
	s, _ := strconv.ParseFloat(strings.TrimSuffix(args[1], "%"), 64)
	l, _ := strconv.ParseFloat(strings.TrimSuffix(args[2], "%"), 64)
	s /= 100
	l /= 100
	a := 1.0
	if len(args) > 3 {
		a, _ = strconv.ParseFloat(strings.TrimSuffix(args[3], "%"), 64)
	}
	r, g, b := hslToRGB(h, s, l)
	return Color{r, g, b, a}, true
}

func hslToRGB(h, s, l float64) (r, g, b float64) {
	h = normAngle(h)
	c := (1 - absf(2*l-1)) * s
	x := c * (1 - absf(modf(h/60, 2)-1))
	m := l - c/2
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}

func normAngle(h float64) float64 {
	for h < 0 {
		h += 360
	}
	for h >= 360 {
		h -= 360
	}
	return h
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func modf(v, m float64) float64 {
	for v >= m {
		v -= m
	}
	for v < 0 {
		v += m
	}
	return v
}

// parseColorMix supports the basic sRGB in-space mix form:
// color-mix(in srgb, c1 p1%, c2 p2%). The interpolation-space argument is
// not inspected: every form is mixed component-wise in sRGB using c1's
// percentage (50% when absent; c2's percentage is ignored), and no
// diagnostic is recorded for other spaces or hue-interpolation forms.
func parseColorMix(tok string) (Color, bool) {
	inner := strings.TrimSuffix(strings.TrimPrefix(tok, "color-mix("), ")")
	parts := splitTopLevelArgs(inner)
	if len(parts) < 3 {
		return Color{}, false
	}
	c1Str := strings.TrimSpace(parts[1])
	c2Str := strings.TrimSpace(parts[2])
	p1 := 50.0
	if fields := strings.Fields(c1Str); len(fields) > 1 && strings.HasSuffix(fields[len(fields)-1], "%") {
		p1, _ = strconv.ParseFloat(strings.TrimSuffix(fields[len(fields)-1], "%"), 64)
		c1Str = strings.Join(fields[:len(fields)-1], " ")
	}
	c1, ok1 := ParseColor(c1Str)
	c2, ok2 := ParseColor(strings.Fields(c2Str)[0])
	if !ok1 || !ok2 {
		return Color{}, false
	}
	t := p1 / 100
	return Color{
		R: c1.R*t + c2.R*(1-t),
		G: c1.G*t + c2.G*(1-t),
		B: c1.B*t + c2.B*(1-t),
		A: c1.A*t + c2.A*(1-t),
	}, true
}

var namedColors = map[string]Color{
	"black":       {0, 0, 0, 1},
	"white":       {1, 1, 1, 1},
	"red":         {1, 0, 0, 1},
	"green":       {0, 0.5, 0, 1},
	"blue":        {0, 0, 1, 1},
	"transparent": {0, 0, 0, 0},
	"gray":        {0.5, 0.5, 0.5, 1},
	"grey":        {0.5, 0.5, 0.5, 1},
	"silver":      {0.75, 0.75, 0.75, 1},
	"yellow":      {1, 1, 0, 1},
	"orange":      {1, 0.647, 0, 1},
	"purple":      {0.5, 0, 0.5, 1},
}
