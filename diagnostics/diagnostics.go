// Package diagnostics carries the structured, tagged records the engine
// attaches to every render regardless of success (§7, §9 "diagnostics
// surface"). Known-loss behaviors, recoverable parse errors, and
// fail-on gating all flow through this one record shape so gates don't
// need to couple to internal state machines.
package diagnostics

// Kind enumerates the taxonomy of §7.
type Kind string

const (
	KindInputError       Kind = "input_error"
	KindAssetError       Kind = "asset_error"
	KindLayoutOverflow   Kind = "layout_overflow"
	KindGlyphCoverage    Kind = "glyph_coverage"
	KindFontSubstitution Kind = "font_substitution"
	KindKnownLoss        Kind = "known_loss"
	KindBudget           Kind = "budget"
	KindTemplateError    Kind = "template_error"
	KindNonConvergence   Kind = "non_convergence"
)

// Record is one structured diagnostic entry (kind, where, requested,
// produced) per §7 and §9.
type Record struct {
	Kind      Kind   `json:"kind"`
	Where     string `json:"where"`
	Requested string `json:"requested,omitempty"`
	Produced  string `json:"produced,omitempty"`
	Selector  string `json:"selector,omitempty"`
	Property  string `json:"property,omitempty"`
}

// Report accumulates diagnostics for a single render. It is not safe for
// concurrent writers without external synchronization; batch rendering
// (§5) gives each document its own Report.
type Report struct {
	records []Record
}

// Add appends a diagnostic record.
func (r *Report) Add(rec Record) { r.records = append(r.records, rec) }

// Records returns all accumulated diagnostics in emission order.
func (r *Report) Records() []Record { return r.records }

// HasKind reports whether any record of the given kind was accumulated.
func (r *Report) HasKind(k Kind) bool {
	for _, rec := range r.records {
		if rec.Kind == k {
			return true
		}
	}
	return false
}

// Gate is a caller-requested fail-fast policy (§7 "Gating policy").
type Gate struct {
	FailOnOverflow     bool
	FailOnMissingGlyph bool
	FailOnFontSubst    bool
	FailOnBudget       bool
	AllowFallbacks     bool
}

// Check returns the first gated diagnostic kind found, or "" if the
// report passes the gate. When AllowFallbacks is set, missing-glyph and
// font-substitution diagnostics remain informational even if their
// individual fail-on flags are set.
func (g Gate) Check(r *Report) (Kind, bool) {
	for _, rec := range r.records {
		switch rec.Kind {
		case KindLayoutOverflow:
			if g.FailOnOverflow {
				return rec.Kind, true
			}
		case KindGlyphCoverage:
			if g.FailOnMissingGlyph && !g.AllowFallbacks {
				return rec.Kind, true
			}
		case KindFontSubstitution:
			if g.FailOnFontSubst && !g.AllowFallbacks {
				return rec.Kind, true
			}
		case KindBudget:
			if g.FailOnBudget {
				return rec.Kind, true
			}
		}
	}
	return "", false
}
