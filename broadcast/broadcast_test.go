package broadcast

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-feat/ndarray"
)

// laneStats maps a sample lane to [mean, max]: a rank-changing,
// shape-stable transform.
func laneStats(in *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
	d := in.Data()
	if len(d) == 0 {
		return nil, fmt.Errorf("empty lane")
	}
	sum, max := 0.0, d[0]
	for _, v := range d {
		sum += v
		if v > max {
			max = v
		}
	}
	return ndarray.FromSlice([]float64{sum / float64(len(d)), max}, 2)
}

func rampBatch(t *testing.T, shape ...int) *ndarray.Array[float64] {
	t.Helper()
	n := ndarray.Count(shape)
	data := make([]float64, n)
	for i := range data {
		data[i] = float64(i%17) - float64(i%5)
	}
	a, err := ndarray.FromSlice(data, shape...)
	require.NoError(t, err)
	return a
}

func TestApplyBatchIndependence(t *testing.T) {
	x := rampBatch(t, 2, 3, 16)

	out, err := Apply(x, 1, laneStats)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 2}, out.Shape())

	for c := range 2 {
		for f := range 3 {
			slab, err := x.Slab([]int{c, f}, 1)
			require.NoError(t, err)
			want, err := laneStats(slab)
			require.NoError(t, err)

			got, err := out.Slab([]int{c, f}, 1)
			require.NoError(t, err)
			assert.InDeltaSlice(t, want.Data(), got.Data(), 1e-15, "batch (%d,%d)", c, f)
		}
	}
}

func TestApplyNoBatchAxesIsDirectCall(t *testing.T) {
	x := rampBatch(t, 16)
	out, err := Apply(x, 1, laneStats)
	require.NoError(t, err)

	want, err := laneStats(x)
	require.NoError(t, err)
	assert.Equal(t, want.Shape(), out.Shape())
	assert.InDeltaSlice(t, want.Data(), out.Data(), 0)
}

func TestApplyRankTooSmall(t *testing.T) {
	x := ndarray.New[float64]()
	_, err := Apply(x, 1, laneStats)
	require.ErrorIs(t, err, ndarray.ErrInvalidAxis)

	y := rampBatch(t, 8)
	_, err = Apply(y, 2, laneStats)
	require.ErrorIs(t, err, ndarray.ErrInvalidAxis)
}

func TestApplyShapeMismatch(t *testing.T) {
	x := rampBatch(t, 3, 8)
	// Output length depends on the slice's first value: not shape-stable.
	calls := 0
	unstable := func(in *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		calls++
		n := 1 + calls%2
		return ndarray.New[float64](n), nil
	}
	_, err := Apply(x, 1, unstable)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestApplyEmptyBatchAxis(t *testing.T) {
	x := ndarray.New[float64](0, 8)
	_, err := Apply(x, 1, laneStats)
	require.ErrorIs(t, err, ErrEmptyBatch)
}

func TestApplyParallelMatchesSequential(t *testing.T) {
	x := rampBatch(t, 4, 5, 32)

	seq, err := Apply(x, 1, laneStats)
	require.NoError(t, err)
	par, err := Apply(x, 1, laneStats, WithParallel(0))
	require.NoError(t, err)

	assert.Equal(t, seq.Shape(), par.Shape())
	assert.InDeltaSlice(t, seq.Data(), par.Data(), 0)
}

func TestApplyWithSharedAux(t *testing.T) {
	x := rampBatch(t, 2, 8)
	weights, err := ndarray.FromSlice([]float64{1, 2, 3, 4, 5, 6, 7, 8}, 8)
	require.NoError(t, err)

	dot := func(in, aux *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		s := 0.0
		for i, v := range in.Data() {
			s += v * aux.Data()[i]
		}
		return ndarray.FromSlice([]float64{s}, 1)
	}

	out, err := ApplyWith(x, weights, 1, 1, dot)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, out.Shape())

	for c := range 2 {
		slab, err := x.Slab([]int{c}, 1)
		require.NoError(t, err)
		want, err := dot(slab, weights)
		require.NoError(t, err)
		assert.InDelta(t, want.At(0), out.At(c, 0), 1e-15)
	}
}

func TestApplyWithLockstepAux(t *testing.T) {
	x := rampBatch(t, 2, 8)
	aux := rampBatch(t, 2, 8)

	// Record which aux slab each invocation observed.
	firstAuxValue := func(in, a *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		return ndarray.FromSlice([]float64{a.At(0)}, 1)
	}

	out, err := ApplyWith(x, aux, 1, 1, firstAuxValue)
	require.NoError(t, err)
	assert.Equal(t, aux.At(0, 0), out.At(0, 0))
	assert.Equal(t, aux.At(1, 0), out.At(1, 0))
}

func TestApplyWithBatchShapeMismatch(t *testing.T) {
	x := rampBatch(t, 2, 8)
	aux := rampBatch(t, 3, 8)
	fn := func(in, a *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		return in.Clone(), nil
	}
	_, err := ApplyWith(x, aux, 1, 1, fn)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestApply2PairedOutputs(t *testing.T) {
	x := rampBatch(t, 2, 3, 8)

	minMax := func(in *ndarray.Array[float64]) (*ndarray.Array[float64], *ndarray.Array[float64], error) {
		d := in.Data()
		mn, mx := d[0], d[0]
		for _, v := range d {
			if v < mn {
				mn = v
			}
			if v > mx {
				mx = v
			}
		}
		a, _ := ndarray.FromSlice([]float64{mn}, 1)
		b, _ := ndarray.FromSlice([]float64{mx}, 1)
		return a, b, nil
	}

	lo, hi, err := Apply2(x, 1, minMax)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 1}, lo.Shape())
	assert.Equal(t, []int{2, 3, 1}, hi.Shape())

	for c := range 2 {
		for f := range 3 {
			slab, err := x.Slab([]int{c, f}, 1)
			require.NoError(t, err)
			wlo, whi, err := minMax(slab)
			require.NoError(t, err)
			assert.Equal(t, wlo.At(0), lo.At(c, f, 0))
			assert.Equal(t, whi.At(0), hi.At(c, f, 0))
		}
	}
}
