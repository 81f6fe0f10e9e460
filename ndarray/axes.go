package ndarray

import "fmt"

// Axes is the shape descriptor for one transform invocation: how an
// array's rank splits into leading batch axes and trailing operating
// axes. It is computed once per call and threaded explicitly so that
// axis arithmetic lives in one place.
type Axes struct {
	Rank  int
	Op    []int // operating axis positions, ascending
	Batch []int // batch axis positions, ascending
}

// NormalizeAxis maps axis into [0, rank), accepting negative indices
// counted from the end. Returns ErrInvalidAxis when out of range.
func NormalizeAxis(axis, rank int) (int, error) {
	ax := axis
	if ax < 0 {
		ax += rank
	}
	if ax < 0 || ax >= rank {
		return 0, fmt.Errorf("%w: axis %d for rank %d", ErrInvalidAxis, axis, rank)
	}
	return ax, nil
}

// Split computes the batch/operating split for a shape whose trailing
// opAxes axes are owned by the transform at hand. Returns ErrInvalidAxis
// when the rank is smaller than the number of required operating axes.
func Split(shape []int, opAxes int) (Axes, error) {
	rank := len(shape)
	if opAxes < 0 || opAxes > rank {
		return Axes{}, fmt.Errorf("%w: %d operating axes for rank %d", ErrInvalidAxis, opAxes, rank)
	}
	ax := Axes{Rank: rank}
	nb := rank - opAxes
	for i := range nb {
		ax.Batch = append(ax.Batch, i)
	}
	for i := nb; i < rank; i++ {
		ax.Op = append(ax.Op, i)
	}
	return ax, nil
}

// BatchShape returns the extents of the batch axes for a shape with
// opAxes trailing operating axes.
func BatchShape(shape []int, opAxes int) ([]int, error) {
	ax, err := Split(shape, opAxes)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(ax.Batch))
	for _, b := range ax.Batch {
		out = append(out, shape[b])
	}
	return out, nil
}
