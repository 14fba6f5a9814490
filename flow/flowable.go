package flow

import (
	"github.com/dociq/pagepdf/canvas"
	"github.com/dociq/pagepdf/css"
	"github.com/dociq/pagepdf/numeric"
)

// WrapResult is the measured size plus lazily-produced content a flowable
// returns from Wrap (§3 Flowable, §4.4 "wrap(W,H) produces a measured box
// plus a lazy content stream").
type WrapResult struct {
	Size        numeric.Size
	Baseline    numeric.Length // distance from top of box to first-line baseline
	CanSplit    bool
	BreakBefore bool // true if this node demands a break before itself (break-before)
}

// SplitOutcome enumerates the three outcomes of split() (§4.5).
type SplitOutcome int

const (
	SplitPlaced SplitOutcome = iota // whole flowable placed, no remainder
	SplitPartial
	SplitOverflow
)

// SplitResult is what Split returns: the portion that fits, and a
// remainder flowable to carry to the next frame, if any (§3, §4.5).
type SplitResult struct {
	Outcome   SplitOutcome
	Placed    Flowable
	PlacedH   numeric.Length
	Remainder Flowable
	Reason    string
}

// memoKey is the cache key for the per-node wrap memo (§4.4 "Caching").
type memoKey struct {
	availW, availH numeric.Length
	epoch          int
}

// Flowable is the polymorphic layout node of §3/§4.4: wrap/split/draw.
// Implementations exclusively own their children (§3 Ownership).
type Flowable interface {
	// Wrap measures the node against the available box, idempotent over
	// equal (availW, availH) via the per-node memo keyed by
	// (avail_w, avail_h, style-epoch).
	Wrap(availW, availH numeric.Length, epoch int) WrapResult

	// Split attempts to fit the node within boundary (the remaining
	// block-axis extent of the current frame), given the last Wrap call's
	// result.
	Split(boundary numeric.Length) SplitResult

	// Draw emits commands into canvas for the box this node was last
	// wrapped/split to occupy.
	Draw(cv *canvas.Canvas, box numeric.Rect)

	// BreakRules exposes the break-before/after/inside policy for the
	// pagination state machine (§4.5).
	BreakRules() (before, after, inside css.BreakRule)

	// ZIndex and out-of-flow classification support paint ordering and
	// the fixed-lane split (§4.4 "Paint order", §4.4 "fixed").
	Position() css.Position
	ZIndex() (value int, auto bool)
}

// baseFlowable holds the fields every variant shares: the source style,
// the wrap memo, and the children slice each variant owns exclusively.
type baseFlowable struct {
	Style     css.ComputedStyle
	memo      map[memoKey]WrapResult
	lastBox   numeric.Rect
	lastWrap  WrapResult
	dataFeeds map[string]float64
}

// DataFeeds returns the aggregator contributions this node's source element
// carried (a `data-fb="key=value"` marker, §4.5 "Paginated context"), or nil
// if the element carried none.
func (b *baseFlowable) DataFeeds() map[string]float64 { return b.dataFeeds }

func (b *baseFlowable) setDataFeeds(m map[string]float64) { b.dataFeeds = m }

func (b *baseFlowable) cached(availW, availH numeric.Length, epoch int) (WrapResult, bool) {
	if b.memo == nil {
		return WrapResult{}, false
	}
	r, ok := b.memo[memoKey{availW, availH, epoch}]
	return r, ok
}

func (b *baseFlowable) store(availW, availH numeric.Length, epoch int, r WrapResult) {
	if b.memo == nil {
		b.memo = map[memoKey]WrapResult{}
	}
	b.memo[memoKey{availW, availH, epoch}] = r
}

func (b *baseFlowable) BreakRules() (before, after, inside css.BreakRule) {
	return b.Style.BreakBefore, b.Style.BreakAfter, b.Style.BreakInside
}

func (b *baseFlowable) Position() css.Position { return b.Style.Position }

func (b *baseFlowable) ZIndex() (int, bool) { return b.Style.ZIndex, b.Style.ZIndexAuto }
