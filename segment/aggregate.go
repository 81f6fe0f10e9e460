package segment

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrEmptyRange indicates a zero-width interval reduced by an aggregate
// with no defined empty-input result. Sum is the exception: its empty
// identity is 0. Raw intervals of zero width simply contribute nothing.
var ErrEmptyRange = errors.New("segment: empty range has no defined aggregate")

// Aggregator reduces the values of one interval, for one lane of every
// non-aggregation axis, to a single value. Implementations must be
// stateless: each call observes only its own assigned range.
type Aggregator interface {
	Name() string
	Reduce(values []float64) (float64, error)
}

type aggFunc struct {
	name  string
	empty bool // whether an empty input is defined
	fn    func(values []float64) float64
}

func (a aggFunc) Name() string { return a.name }

func (a aggFunc) Reduce(values []float64) (float64, error) {
	if len(values) == 0 && !a.empty {
		return 0, fmt.Errorf("%w: %s", ErrEmptyRange, a.name)
	}
	return a.fn(values), nil
}

var (
	// Mean averages each interval. Empty intervals are rejected with
	// ErrEmptyRange.
	Mean Aggregator = aggFunc{name: "mean", fn: func(v []float64) float64 { return stat.Mean(v, nil) }}

	// Sum totals each interval. The empty interval sums to 0.
	Sum Aggregator = aggFunc{name: "sum", empty: true, fn: floats.Sum}

	// Max takes the interval maximum. Empty intervals are rejected.
	Max Aggregator = aggFunc{name: "max", fn: floats.Max}

	// Min takes the interval minimum. Empty intervals are rejected.
	Min Aggregator = aggFunc{name: "min", fn: floats.Min}

	// Median takes the interval median. Empty intervals are rejected.
	Median Aggregator = aggFunc{name: "median", fn: func(v []float64) float64 {
		s := append([]float64(nil), v...)
		sort.Float64s(s)
		return stat.Quantile(0.5, stat.Empirical, s, nil)
	}}

	// Raw is the identity variant: intervals are concatenated in order
	// instead of reduced, for callers that need raw sub-sequences rather
	// than one value per segment.
	Raw Aggregator = rawAggregator{}
)

type rawAggregator struct{}

func (rawAggregator) Name() string { return "raw" }

// Reduce is never used for Raw; Sync special-cases the identity.
func (rawAggregator) Reduce([]float64) (float64, error) {
	return 0, errors.New("segment: raw aggregator does not reduce")
}
