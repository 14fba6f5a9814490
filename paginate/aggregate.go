package paginate

import "github.com/dociq/pagepdf/flow"

// AggOp is one of the aggregator operators declared for a `{name: op}`
// paginated-context entry (§4.5 "Paginated context").
type AggOp int

const (
	AggSum AggOp = iota
	AggCount
	AggMin
	AggMax
	AggAvg
)

// AggregatorSpec maps a data-feed key (matching the key half of a
// `data-fb="key=value"` marker) to the operator applied over its values.
type AggregatorSpec map[string]AggOp

// reduce folds a slice of contributed values per the given operator. An
// empty slice reduces to zero for every operator.
func reduce(op AggOp, values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	switch op {
	case AggCount:
		return float64(len(values))
	case AggMin:
		m := values[0]
		for _, v := range values[1:] {
			if v < m {
				m = v
			}
		}
		return m
	case AggMax:
		m := values[0]
		for _, v := range values[1:] {
			if v > m {
				m = v
			}
		}
		return m
	case AggAvg:
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	default: // AggSum
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum
	}
}

// collectFeedValues walks f and groups every contributed value by key.
func collectFeedValues(f flow.Flowable) map[string][]float64 {
	values := map[string][]float64{}
	flow.WalkDataFeeds(f, func(m map[string]float64) {
		for k, v := range m {
			values[k] = append(values[k], v)
		}
	})
	return values
}

// computeTotals reduces every declared aggregator over the whole story,
// independent of how it later gets split across pages (§8 invariant 5:
// the sum of per-page sums must equal the declared total).
func computeTotals(story flow.Flowable, spec AggregatorSpec) map[string]float64 {
	values := collectFeedValues(story)
	totals := make(map[string]float64, len(spec))
	for name, op := range spec {
		totals[name] = reduce(op, values[name])
	}
	return totals
}

// pageLocalSums reduces every declared aggregator over only the portion
// of the story placed on one page.
func pageLocalSums(placed flow.Flowable, spec AggregatorSpec) map[string]float64 {
	if placed == nil {
		return map[string]float64{}
	}
	values := collectFeedValues(placed)
	sums := make(map[string]float64, len(spec))
	for name, op := range spec {
		sums[name] = reduce(op, values[name])
	}
	return sums
}
