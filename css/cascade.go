package css

import (
	"sort"
	"strings"
)

// matchCompound tests one compound against the subject element, ignoring
// combinators (those are tested by the caller walking ancestors/siblings).
func matchCompound(c Compound, el Element) bool {
	if c.Tag != "" && !c.Universal && c.Tag != strings.ToLower(el.TagName()) {
		return false
	}
	for _, id := range c.IDs {
		if id != el.ElementID() {
			return false
		}
	}
	classes := el.ClassList()
	for _, want := range c.Classes {
		if !containsStr(classes, want) {
			return false
		}
	}
	for _, a := range c.Attrs {
		if !matchAttr(a, el) {
			return false
		}
	}
	for _, s := range c.Structural {
		if !matchStructural(s, c.Nth, el) {
			return false
		}
	}
	return true
}

func containsStr(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func matchAttr(a AttrSelector, el Element) bool {
	val, ok := el.Attr(a.Name)
	if !ok {
		return false
	}
	switch a.Op {
	case AttrPresent:
		return true
	case AttrEquals:
		return val == a.Value
	case AttrIncludesWord:
		for _, w := range splitWhitespace(val) {
			if w == a.Value {
				return true
			}
		}
		return false
	case AttrDashMatch:
		return val == a.Value || strings.HasPrefix(val, a.Value+"-")
	case AttrPrefix:
		return strings.HasPrefix(val, a.Value)
	case AttrSuffix:
		return strings.HasSuffix(val, a.Value)
	case AttrSubstring:
		return strings.Contains(val, a.Value)
	}
	return false
}

func matchStructural(s StructuralPseudo, nth NthExpr, el Element) bool {
	switch s {
	case PseudoFirstChild:
		return el.ChildIndex() == 1
	case PseudoLastChild:
		return el.ChildIndex() == el.SiblingCount()
	case PseudoOnlyChild:
		return el.SiblingCount() == 1
	case PseudoEmpty:
		return !el.HasElementChildren()
	case PseudoRoot:
		return el.IsRootElement()
	case PseudoNthChild:
		return nth.Matches(el.ChildIndex())
	}
	return true
}

// matchSelector evaluates combinators right-to-left per §4.1.
func matchSelector(sel Selector, el Element) bool {
	n := len(sel.Compounds)
	if n == 0 {
		return false
	}
	if !matchCompound(sel.Compounds[n-1], el) {
		return false
	}
	cur := el
	for i := n - 2; i >= 0; i-- {
		comb := sel.Combinators[i]
		switch comb {
		case CombChild:
			cur = cur.Parent()
			if cur == nil || !matchCompound(sel.Compounds[i], cur) {
				return false
			}
		case CombDescendant:
			found := false
			anc := cur.Parent()
			for anc != nil {
				if matchCompound(sel.Compounds[i], anc) {
					cur = anc
					found = true
					break
				}
				anc = anc.Parent()
			}
			if !found {
				return false
			}
		case CombAdjacentSibling:
			cur = cur.PrevSiblingElement()
			if cur == nil || !matchCompound(sel.Compounds[i], cur) {
				return false
			}
		case CombGeneralSibling:
			found := false
			sib := cur.PrevSiblingElement()
			for sib != nil {
				if matchCompound(sel.Compounds[i], sib) {
					cur = sib
					found = true
					break
				}
				sib = sib.PrevSiblingElement()
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// matchedDecl pairs a winning declaration with its cascade sort keys.
type matchedDecl struct {
	decl        Declaration
	specificity Specificity
	sourceOrder int
	important   bool
}

// MatchRules returns every declaration from sheet whose selector matches
// el, tagged with its cascade sort keys. The caller (Cascade) performs the
// two-pass normal/important sort of §4.1.
func MatchRules(sheet *Stylesheet, el Element) []matchedDecl {
	var out []matchedDecl
	for _, rule := range sheet.Rules {
		for _, sel := range rule.Selectors {
			if sel.PseudoElemOf() != PseudoElemNone {
				continue // pseudo-element rules are matched separately by flow
			}
			if matchSelector(sel, el) {
				sp := sel.Specificity()
				for _, d := range rule.Declarations {
					out = append(out, matchedDecl{decl: d, specificity: sp, sourceOrder: rule.SourceOrder, important: d.Important})
				}
			}
		}
	}
	return out
}

// PseudoElemOf returns the pseudo-element of the selector's last compound,
// or PseudoElemNone.
func (sel Selector) PseudoElemOf() PseudoElement {
	if len(sel.Compounds) == 0 {
		return PseudoElemNone
	}
	return sel.LastCompound().PseudoElem
}

// MatchPseudoElement returns declarations for rules whose last compound
// targets the given pseudo-element and whose remaining chain matches el.
func MatchPseudoElement(sheet *Stylesheet, el Element, pe PseudoElement) []matchedDecl {
	var out []matchedDecl
	for _, rule := range sheet.Rules {
		for _, sel := range rule.Selectors {
			if sel.PseudoElemOf() != pe {
				continue
			}
			trimmed := sel
			trimmed.Compounds = append([]Compound{}, sel.Compounds...)
			last := len(trimmed.Compounds) - 1
			trimmed.Compounds[last].PseudoElem = PseudoElemNone
			if matchSelector(trimmed, el) {
				sp := sel.Specificity()
				for _, d := range rule.Declarations {
					out = append(out, matchedDecl{decl: d, specificity: sp, sourceOrder: rule.SourceOrder})
				}
			}
		}
	}
	return out
}

// resolveWinners sorts matched declarations into final per-property
// winners using the two-pass (normal, then !important) cascade of §4.1:
// stable tie-break by (specificity, source order), later same-specificity
// wins.
func resolveWinners(matches []matchedDecl) map[string]Declaration {
	normal := make([]matchedDecl, 0, len(matches))
	important := make([]matchedDecl, 0)
	for _, m := range matches {
		if m.important {
			important = append(important, m)
		} else {
			normal = append(normal, m)
		}
	}
	winners := map[string]Declaration{}
	applyPass(normal, winners)
	applyPass(important, winners)
	return winners
}

func applyPass(pass []matchedDecl, winners map[string]Declaration) {
	sort.SliceStable(pass, func(i, j int) bool {
		if pass[i].specificity != pass[j].specificity {
			return pass[i].specificity.Less(pass[j].specificity)
		}
		return pass[i].sourceOrder < pass[j].sourceOrder
	})
	for _, m := range pass {
		winners[strings.ToLower(m.decl.Property)] = m.decl
	}
}
