package broadcast

import (
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-feat/ndarray"
)

var (
	// ErrShapeMismatch indicates a wrapped transform that is not
	// shape-stable: two batch slices produced differently shaped results.
	ErrShapeMismatch = errors.New("broadcast: per-slice output shapes disagree")

	// ErrEmptyBatch indicates a batch axis of extent zero; with no slice
	// to compute, the transform's output shape cannot be established.
	ErrEmptyBatch = errors.New("broadcast: empty batch axis")
)

// Transform computes one output slab from one input slab. The input
// carries only operating axes; the result may have any rank and extents
// of its own (a sample lane in, a frequency-by-time slab out), as long
// as they are the same for every slice of a batch.
type Transform[T, U ndarray.Scalar] func(in *ndarray.Array[T]) (*ndarray.Array[U], error)

// Apply invokes fn once per batch coordinate of x, where the trailing
// opAxes axes of x are the transform's operating axes, and reassembles
// the per-slice results into an array of shape batch + output.
//
// With zero batch axes Apply degrades to a direct call. An out-of-range
// opAxes (including rank < opAxes) yields ndarray.ErrInvalidAxis; a
// shape-unstable fn yields ErrShapeMismatch. On error no partial output
// is returned.
func Apply[T, U ndarray.Scalar](x *ndarray.Array[T], opAxes int, fn Transform[T, U], opts ...Option) (*ndarray.Array[U], error) {
	return applyIndexed(x, opAxes, func(_ int, in *ndarray.Array[T]) (*ndarray.Array[U], error) {
		return fn(in)
	}, opts)
}

// ApplyWith is Apply with one auxiliary array broadcast in lockstep.
//
// When aux carries only operating axes (rank equals auxOpAxes) the same
// value is shared by every slice, as with a static frequency map. When
// aux carries batch axes they must equal x's batch shape exactly, and
// each invocation receives the aux slab at the same batch coordinate as
// the primary slab; channel 0's value is never reused for other
// channels.
func ApplyWith[T, A, U ndarray.Scalar](
	x *ndarray.Array[T], aux *ndarray.Array[A],
	opAxes, auxOpAxes int,
	fn func(in *ndarray.Array[T], aux *ndarray.Array[A]) (*ndarray.Array[U], error),
	opts ...Option,
) (*ndarray.Array[U], error) {
	batchShape, err := ndarray.BatchShape(x.Shape(), opAxes)
	if err != nil {
		return nil, err
	}

	shared := aux.Rank() == auxOpAxes
	if !shared {
		auxBatch, err := ndarray.BatchShape(aux.Shape(), auxOpAxes)
		if err != nil {
			return nil, err
		}
		if !slices.Equal(auxBatch, batchShape) {
			return nil, fmt.Errorf("%w: auxiliary batch shape %v does not match input batch shape %v",
				ErrShapeMismatch, auxBatch, batchShape)
		}
		aux = aux.Contiguous()
	}

	return applyIndexed(x, opAxes, func(i int, in *ndarray.Array[T]) (*ndarray.Array[U], error) {
		a := aux
		if !shared {
			coords := make([]int, len(batchShape))
			ndarray.Unravel(i, batchShape, coords)
			var err error
			if a, err = aux.Slab(coords, auxOpAxes); err != nil {
				return nil, err
			}
		}
		return fn(in, a)
	}, opts)
}

// Apply2 broadcasts a transform with two coupled outputs (such as a
// pitch map plus its magnitude map). Both outputs must be shape-stable
// across slices; their batch shapes both equal the input's.
func Apply2[T, U, V ndarray.Scalar](
	x *ndarray.Array[T], opAxes int,
	fn func(in *ndarray.Array[T]) (*ndarray.Array[U], *ndarray.Array[V], error),
	opts ...Option,
) (*ndarray.Array[U], *ndarray.Array[V], error) {
	batchShape, err := ndarray.BatchShape(x.Shape(), opAxes)
	if err != nil {
		return nil, nil, err
	}
	if len(batchShape) == 0 {
		return fn(x)
	}

	nb := ndarray.Count(batchShape)
	second := make([]*ndarray.Array[V], nb)

	first, err := applyIndexed(x, opAxes, func(i int, in *ndarray.Array[T]) (*ndarray.Array[U], error) {
		u, v, err := fn(in)
		if err != nil {
			return nil, err
		}
		second[i] = v
		return u, nil
	}, opts)
	if err != nil {
		return nil, nil, err
	}

	outShape := second[0].Shape()
	out := ndarray.New[V](append(slices.Clone(batchShape), outShape...)...)
	slabLen := second[0].Size()
	for i, v := range second {
		if !slices.Equal(v.Shape(), outShape) {
			return nil, nil, shapeMismatch(outShape, v.Shape(), i)
		}
		writeSlab(out, i, slabLen, v)
	}
	return first, out, nil
}

func applyIndexed[T, U ndarray.Scalar](
	x *ndarray.Array[T], opAxes int,
	fn func(i int, in *ndarray.Array[T]) (*ndarray.Array[U], error),
	opts []Option,
) (*ndarray.Array[U], error) {
	batchShape, err := ndarray.BatchShape(x.Shape(), opAxes)
	if err != nil {
		return nil, err
	}
	if len(batchShape) == 0 {
		return fn(0, x)
	}

	nb := ndarray.Count(batchShape)
	if nb == 0 {
		return nil, fmt.Errorf("%w: batch shape %v", ErrEmptyBatch, batchShape)
	}
	x = x.Contiguous()

	// The first slice establishes the output slab shape.
	first, err := slabTransform(x, batchShape, 0, opAxes, fn)
	if err != nil {
		return nil, err
	}
	outShape := first.Shape()

	out := ndarray.New[U](append(slices.Clone(batchShape), outShape...)...)
	slabLen := first.Size()
	writeSlab(out, 0, slabLen, first)

	cfg := applyOptions(opts)
	if cfg.workers <= 1 {
		for i := 1; i < nb; i++ {
			res, err := slabTransform(x, batchShape, i, opAxes, fn)
			if err != nil {
				return nil, err
			}
			if !slices.Equal(res.Shape(), outShape) {
				return nil, shapeMismatch(outShape, res.Shape(), i)
			}
			writeSlab(out, i, slabLen, res)
		}
		return out, nil
	}

	// Slices never share state, so any schedule is valid; each worker
	// writes a disjoint slab of the output.
	var g errgroup.Group
	g.SetLimit(cfg.workers)
	for i := 1; i < nb; i++ {
		g.Go(func() error {
			res, err := slabTransform(x, batchShape, i, opAxes, fn)
			if err != nil {
				return err
			}
			if !slices.Equal(res.Shape(), outShape) {
				return shapeMismatch(outShape, res.Shape(), i)
			}
			writeSlab(out, i, slabLen, res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func slabTransform[T, U ndarray.Scalar](
	x *ndarray.Array[T], batchShape []int, i, opAxes int,
	fn func(i int, in *ndarray.Array[T]) (*ndarray.Array[U], error),
) (*ndarray.Array[U], error) {
	coords := make([]int, len(batchShape))
	ndarray.Unravel(i, batchShape, coords)
	slab, err := x.Slab(coords, opAxes)
	if err != nil {
		return nil, err
	}
	return fn(i, slab)
}

func writeSlab[U ndarray.Scalar](out *ndarray.Array[U], i, slabLen int, res *ndarray.Array[U]) {
	dst := out.Data()[i*slabLen : (i+1)*slabLen]
	copy(dst, res.Data())
}

func shapeMismatch(want, got []int, i int) error {
	return fmt.Errorf("%w: slice %d produced %v, slice 0 produced %v", ErrShapeMismatch, i, got, want)
}
