package css

import (
	"strings"

	"github.com/dociq/pagepdf/diagnostics"
)

// PropGraph is the per-element custom-property graph of §4.1: a map keyed
// by custom-property name to its raw declared value (which may itself
// reference other custom properties via var()). Resolution is
// depth-first with a visited set and bounded cycle detection.
type PropGraph struct {
	raw map[string]string
}

// NewPropGraph builds a graph from declared custom properties.
func NewPropGraph(declared map[string]string) *PropGraph {
	return &PropGraph{raw: declared}
}

// Set re-declares a custom property, invalidating no cache here — callers
// that hold a typed projection must re-resolve; PropGraph itself performs
// no caching so a re-declare is immediately visible to the next Resolve
// (§4.1 "re-declaring a custom property invalidates any cached typed
// projection").
func (g *PropGraph) Set(name, value string) {
	if g.raw == nil {
		g.raw = map[string]string{}
	}
	g.raw[name] = value
}

// Resolve resolves a custom property to its final string value, walking
// var() references depth-first. A cycle returns the declared fallback (if
// any in the reference that closed the cycle); if resolution still fails
// it returns ("", false) and the caller substitutes the type-specific
// initial value plus a diagnostic (§4.1).
func (g *PropGraph) Resolve(name string, report *diagnostics.Report) (string, bool) {
	visited := map[string]bool{}
	val, ok := g.resolve(name, visited, report)
	return val, ok
}

func (g *PropGraph) resolve(name string, visited map[string]bool, report *diagnostics.Report) (string, bool) {
	if visited[name] {
		if report != nil {
			report.Add(diagnostics.Record{
				Kind:     diagnostics.KindKnownLoss,
				Where:    "css.customprops",
				Property: name,
				Produced: "cycle detected; fallback or initial value used",
			})
		}
		return "", false
	}
	visited[name] = true

	raw, exists := g.raw[name]
	if !exists {
		return "", false
	}
	return g.substituteVars(raw, visited, report)
}

// substituteVars walks the token run replacing every var(...) reference
// (left to right, supporting fallback chains) with its resolved value.
func (g *PropGraph) substituteVars(value string, visited map[string]bool, report *diagnostics.Report) (string, bool) {
	out := value
	for {
		idx := strings.Index(out, "var(")
		if idx < 0 {
			return out, true
		}
		end := matchingParen(out, idx+3)
		if end < 0 {
			return out, false
		}
		inner := out[idx+4 : end]
		name, fallback, hasFallback := splitVarArg(inner)

		// Don't mutate the shared visited set across sibling references.
		sub := make(map[string]bool, len(visited))
		for k := range visited {
			sub[k] = true
		}
		resolved, ok := g.resolve(strings.TrimSpace(name), sub, report)
		if !ok {
			if hasFallback {
				resolvedFallback, fbOK := g.substituteVars(fallback, sub, report)
				if fbOK {
					resolved = resolvedFallback
					ok = true
				}
			}
		}
		if !ok {
			return out, false
		}
		out = out[:idx] + resolved + out[end+1:]
	}
}

func matchingParen(s string, openIdx int) int {
	depth := 1
	for i := openIdx + 1; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitVarArg splits `name, fallback` honoring nested parens in fallback.
func splitVarArg(arg string) (name, fallback string, hasFallback bool) {
	idx := strings.Index(arg, ",")
	if idx < 0 {
		return strings.TrimSpace(arg), "", false
	}
	return strings.TrimSpace(arg[:idx]), strings.TrimSpace(arg[idx+1:]), true
}
