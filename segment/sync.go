package segment

import (
	"fmt"

	"github.com/cwbudde/algo-feat/ndarray"
)

// Interval is a half-open [Start, End) index range along the
// aggregation axis. Intervals may be empty, may overlap, may appear out
// of order, and need not cover the axis; indices outside the axis are
// clamped.
type Interval struct {
	Start, End int
}

func (iv Interval) clamp(n int) (Interval, error) {
	if iv.End < iv.Start {
		return Interval{}, fmt.Errorf("segment: interval [%d, %d) has negative width", iv.Start, iv.End)
	}
	if iv.Start < 0 {
		iv.Start = 0
	}
	if iv.End > n {
		iv.End = n
	}
	if iv.Start > n {
		iv.Start = n
	}
	if iv.End < iv.Start {
		iv.End = iv.Start
	}
	return iv, nil
}

// FromCuts converts ascending cut points into covering intervals over
// [0, n): one interval per gap between consecutive cuts, with the first
// interval starting at 0 and the last ending at n. Cut points outside
// [0, n] are clamped.
func FromCuts(cuts []int, n int) []Interval {
	pts := make([]int, 0, len(cuts)+2)
	pts = append(pts, 0)
	for _, c := range cuts {
		if c < 0 {
			c = 0
		}
		if c > n {
			c = n
		}
		pts = append(pts, c)
	}
	pts = append(pts, n)

	out := make([]Interval, 0, len(pts)-1)
	for i := 1; i < len(pts); i++ {
		if pts[i] < pts[i-1] {
			pts[i] = pts[i-1]
		}
		out = append(out, Interval{Start: pts[i-1], End: pts[i]})
	}
	return out
}

// Sync aggregates data over the given intervals along axis.
//
// The output's axis extent equals len(intervals) (or the total clamped
// interval width when agg is Raw); every other axis, batch axes
// included, is unchanged. Aggregation is strictly per interval and per
// lane: applying Sync to a batched array equals applying it to each
// batch slice alone.
//
// axis accepts negative indices. An invalid axis yields
// ndarray.ErrInvalidAxis; an empty interval under a reducing aggregate
// without an empty-input identity yields ErrEmptyRange.
func Sync(data *ndarray.Array[float64], intervals []Interval, axis int, agg Aggregator) (*ndarray.Array[float64], error) {
	if agg == nil {
		agg = Mean
	}
	shape := data.Shape()
	ax, err := ndarray.NormalizeAxis(axis, len(shape))
	if err != nil {
		return nil, err
	}
	n := shape[ax]

	clamped := make([]Interval, len(intervals))
	for i, iv := range intervals {
		if clamped[i], err = iv.clamp(n); err != nil {
			return nil, err
		}
	}

	if _, raw := agg.(rawAggregator); raw {
		return syncRaw(data, clamped, ax)
	}
	return syncReduce(data, clamped, ax, agg)
}

func syncReduce(data *ndarray.Array[float64], intervals []Interval, ax int, agg Aggregator) (*ndarray.Array[float64], error) {
	shape := data.Shape()
	outShape := append([]int(nil), shape...)
	outShape[ax] = len(intervals)
	out := ndarray.New[float64](outShape...)

	// Widest interval bounds the scratch lane.
	maxW := 0
	for _, iv := range intervals {
		if w := iv.End - iv.Start; w > maxW {
			maxW = w
		}
	}
	lane := make([]float64, maxW)

	otherShape := shapeWithout(shape, ax)
	ix := make([]int, len(shape))
	it := ndarray.NewIndexIter(otherShape)
	for oc, ok := it.Next(); ok; oc, ok = it.Next() {
		insertAxis(ix, oc, ax, 0)
		for j, iv := range intervals {
			vals := lane[:iv.End-iv.Start]
			for k := range vals {
				ix[ax] = iv.Start + k
				vals[k] = data.At(ix...)
			}
			v, err := agg.Reduce(vals)
			if err != nil {
				return nil, err
			}
			ix[ax] = j
			out.Set(v, ix...)
		}
	}
	return out, nil
}

func syncRaw(data *ndarray.Array[float64], intervals []Interval, ax int) (*ndarray.Array[float64], error) {
	shape := data.Shape()
	total := 0
	for _, iv := range intervals {
		total += iv.End - iv.Start
	}
	outShape := append([]int(nil), shape...)
	outShape[ax] = total
	out := ndarray.New[float64](outShape...)

	otherShape := shapeWithout(shape, ax)
	ix := make([]int, len(shape))
	it := ndarray.NewIndexIter(otherShape)
	for oc, ok := it.Next(); ok; oc, ok = it.Next() {
		insertAxis(ix, oc, ax, 0)
		pos := 0
		for _, iv := range intervals {
			for k := iv.Start; k < iv.End; k++ {
				ix[ax] = k
				v := data.At(ix...)
				ix[ax] = pos
				out.Set(v, ix...)
				pos++
			}
		}
	}
	return out, nil
}

func shapeWithout(shape []int, ax int) []int {
	out := make([]int, 0, len(shape)-1)
	for k, n := range shape {
		if k == ax {
			continue
		}
		out = append(out, n)
	}
	return out
}

// insertAxis writes the other-axis coordinate oc into ix, leaving
// position ax set to v.
func insertAxis(ix, oc []int, ax, v int) {
	k := 0
	for i := range ix {
		if i == ax {
			ix[i] = v
			continue
		}
		ix[i] = oc[k]
		k++
	}
}
