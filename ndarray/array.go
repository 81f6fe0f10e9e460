package ndarray

import "fmt"

// Scalar enumerates the element types arrays may carry.
type Scalar interface {
	float64 | complex128
}

// Array is a row-major N-dimensional view over a flat backing slice.
//
// The zero value is not usable; construct arrays with [New], [FromSlice],
// or by taking views of an existing array. Views share backing storage
// with their parent. Rank-0 arrays (empty shape, one element) are legal.
type Array[T Scalar] struct {
	shape  []int
	stride []int
	data   []T
	offset int
}

// New allocates a zero-filled contiguous array of the given shape.
func New[T Scalar](shape ...int) *Array[T] {
	size := 1
	for _, n := range shape {
		size *= n
	}
	return &Array[T]{
		shape:  append([]int(nil), shape...),
		stride: contiguousStrides(shape),
		data:   make([]T, size),
	}
}

// FromSlice wraps data (without copying) as an array of the given shape.
// The product of the shape extents must equal len(data).
func FromSlice[T Scalar](data []T, shape ...int) (*Array[T], error) {
	if err := validateShape(shape); err != nil {
		return nil, err
	}
	size := 1
	for _, n := range shape {
		size *= n
	}
	if size != len(data) {
		return nil, fmt.Errorf("%w: shape %v needs %d elements, have %d", ErrShape, shape, size, len(data))
	}
	return &Array[T]{
		shape:  append([]int(nil), shape...),
		stride: contiguousStrides(shape),
		data:   data,
	}, nil
}

func contiguousStrides(shape []int) []int {
	stride := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		stride[i] = acc
		acc *= shape[i]
	}
	return stride
}

// Rank returns the number of axes.
func (a *Array[T]) Rank() int { return len(a.shape) }

// Shape returns a copy of the axis extents.
func (a *Array[T]) Shape() []int { return append([]int(nil), a.shape...) }

// Dim returns the extent of the given axis. Negative axes count from the
// end, as in Dim(-1) for the last axis.
func (a *Array[T]) Dim(axis int) (int, error) {
	ax, err := NormalizeAxis(axis, len(a.shape))
	if err != nil {
		return 0, err
	}
	return a.shape[ax], nil
}

// Size returns the total element count.
func (a *Array[T]) Size() int {
	size := 1
	for _, n := range a.shape {
		size *= n
	}
	return size
}

// Stride returns a copy of the per-axis strides, in elements.
func (a *Array[T]) Stride() []int { return append([]int(nil), a.stride...) }

// At returns the element at the given coordinate. The coordinate must
// supply one index per axis; indices are not range checked beyond the
// backing slice bounds.
func (a *Array[T]) At(ix ...int) T {
	return a.data[a.flatIndex(ix)]
}

// Set stores v at the given coordinate.
func (a *Array[T]) Set(v T, ix ...int) {
	a.data[a.flatIndex(ix)] = v
}

func (a *Array[T]) flatIndex(ix []int) int {
	if len(ix) != len(a.shape) {
		panic(fmt.Sprintf("ndarray: coordinate rank %d does not match array rank %d", len(ix), len(a.shape)))
	}
	pos := a.offset
	for k, i := range ix {
		pos += i * a.stride[k]
	}
	return pos
}

// IsContiguous reports whether the view's elements are densely packed in
// row-major order starting at its offset.
func (a *Array[T]) IsContiguous() bool {
	acc := 1
	for i := len(a.shape) - 1; i >= 0; i-- {
		if a.shape[i] != 1 && a.stride[i] != acc {
			return false
		}
		acc *= a.shape[i]
	}
	return true
}

// Data returns the contiguous backing slice of the view, copying only if
// the view is non-contiguous.
func (a *Array[T]) Data() []T {
	if a.IsContiguous() {
		return a.data[a.offset : a.offset+a.Size()]
	}
	return a.Contiguous().data
}

// Contiguous returns a itself when already contiguous, or a compact
// row-major copy otherwise.
func (a *Array[T]) Contiguous() *Array[T] {
	if a.IsContiguous() {
		return a
	}
	out := New[T](a.shape...)
	it := NewIndexIter(a.shape)
	i := 0
	for ix, ok := it.Next(); ok; ix, ok = it.Next() {
		out.data[i] = a.At(ix...)
		i++
	}
	return out
}

// Clone returns an independent compact copy.
func (a *Array[T]) Clone() *Array[T] {
	out := New[T](a.shape...)
	copy(out.data, a.Data())
	return out
}

// Fill sets every element of the view to v.
func (a *Array[T]) Fill(v T) {
	if a.IsContiguous() {
		d := a.data[a.offset : a.offset+a.Size()]
		for i := range d {
			d[i] = v
		}
		return
	}
	it := NewIndexIter(a.shape)
	for ix, ok := it.Next(); ok; ix, ok = it.Next() {
		a.Set(v, ix...)
	}
}

// Slice returns a view restricted to the half-open range [start, end)
// along the given axis. All other axes are unchanged.
func (a *Array[T]) Slice(axis, start, end int) (*Array[T], error) {
	ax, err := NormalizeAxis(axis, len(a.shape))
	if err != nil {
		return nil, err
	}
	if start < 0 || end < start || end > a.shape[ax] {
		return nil, fmt.Errorf("%w: range [%d, %d) outside axis %d extent %d", ErrShape, start, end, ax, a.shape[ax])
	}
	shape := append([]int(nil), a.shape...)
	shape[ax] = end - start
	return &Array[T]{
		shape:  shape,
		stride: append([]int(nil), a.stride...),
		data:   a.data,
		offset: a.offset + start*a.stride[ax],
	}, nil
}

// Index returns a view with the given axis removed, fixed at position i.
// The result has rank one lower than a.
func (a *Array[T]) Index(axis, i int) (*Array[T], error) {
	ax, err := NormalizeAxis(axis, len(a.shape))
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= a.shape[ax] {
		return nil, fmt.Errorf("%w: index %d outside axis %d extent %d", ErrShape, i, ax, a.shape[ax])
	}
	shape := make([]int, 0, len(a.shape)-1)
	stride := make([]int, 0, len(a.shape)-1)
	for k := range a.shape {
		if k == ax {
			continue
		}
		shape = append(shape, a.shape[k])
		stride = append(stride, a.stride[k])
	}
	return &Array[T]{
		shape:  shape,
		stride: stride,
		data:   a.data,
		offset: a.offset + i*a.stride[ax],
	}, nil
}

// Slab returns a view of the trailing opAxes axes with the leading batch
// coordinate fixed at ix. len(ix) + opAxes must equal the rank.
func (a *Array[T]) Slab(ix []int, opAxes int) (*Array[T], error) {
	if len(ix)+opAxes != len(a.shape) {
		return nil, fmt.Errorf("%w: batch coordinate rank %d + operating axes %d != rank %d",
			ErrShape, len(ix), opAxes, len(a.shape))
	}
	offset := a.offset
	for k, i := range ix {
		if i < 0 || i >= a.shape[k] {
			return nil, fmt.Errorf("%w: index %d outside axis %d extent %d", ErrShape, i, k, a.shape[k])
		}
		offset += i * a.stride[k]
	}
	return &Array[T]{
		shape:  append([]int(nil), a.shape[len(ix):]...),
		stride: append([]int(nil), a.stride[len(ix):]...),
		data:   a.data,
		offset: offset,
	}, nil
}
