package ndarray

// IndexIter enumerates the coordinate tuples of a shape in row-major
// order. It is the index-space iterator that drives batch iteration:
// the enumeration is decoupled from slice extraction, so the same
// coordinate plan can feed a sequential loop or a parallel scheduler.
//
// An empty shape yields exactly one (empty) coordinate. A shape with a
// zero extent yields none.
type IndexIter struct {
	shape []int
	cur   []int
	out   []int
	done  bool
}

// NewIndexIter returns an iterator over all coordinates of shape.
func NewIndexIter(shape []int) *IndexIter {
	it := &IndexIter{
		shape: append([]int(nil), shape...),
		cur:   make([]int, len(shape)),
		out:   make([]int, len(shape)),
	}
	for _, n := range shape {
		if n == 0 {
			it.done = true
		}
	}
	return it
}

// Next returns the next coordinate and true, or nil and false when the
// index space is exhausted. The returned slice is reused between calls;
// callers that retain it must copy.
func (it *IndexIter) Next() ([]int, bool) {
	if it.done {
		return nil, false
	}
	copy(it.out, it.cur)
	// Advance with carry from the last axis.
	it.done = true
	for k := len(it.shape) - 1; k >= 0; k-- {
		it.cur[k]++
		if it.cur[k] < it.shape[k] {
			it.done = false
			break
		}
		it.cur[k] = 0
	}
	return it.out, true
}

// Count returns the total number of coordinates in shape.
func Count(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// Unravel converts a flat row-major index into a coordinate of shape,
// writing into dst (which must have len(shape)).
func Unravel(flat int, shape, dst []int) {
	for k := len(shape) - 1; k >= 0; k-- {
		if shape[k] == 0 {
			dst[k] = 0
			continue
		}
		dst[k] = flat % shape[k]
		flat /= shape[k]
	}
}
