package nnls_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-feat/ndarray"
	"github.com/cwbudde/algo-feat/nnls"
)

func TestSolveDenseRecoversNonNegativeSolution(t *testing.T) {
	a := mat.NewDense(3, 2, []float64{
		1, 0,
		0, 1,
		1, 1,
	})
	// B = A * [2; 3], exactly representable with X >= 0.
	b := mat.NewDense(3, 1, []float64{2, 3, 5})

	x, err := nnls.SolveDense(a, b, nnls.WithMaxIter(2000), nnls.WithTolerance(1e-12))
	require.NoError(t, err)
	require.InDelta(t, 2, x.At(0, 0), 1e-4)
	require.InDelta(t, 3, x.At(1, 0), 1e-4)
}

func TestSolveDenseClampsNegative(t *testing.T) {
	a := mat.NewDense(2, 1, []float64{1, 1})
	b := mat.NewDense(2, 1, []float64{-4, -4})

	x, err := nnls.SolveDense(a, b)
	require.NoError(t, err)
	require.Equal(t, 0.0, x.At(0, 0))
}

func TestSolveBatched(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{
		2, 0,
		0, 4,
	})
	// Two channels with different targets.
	b, err := ndarray.FromSlice([]float64{
		2, 4, // channel 0, row 0 over two frames
		4, 8, // channel 0, row 1
		6, 2,
		12, 4,
	}, 2, 2, 2)
	require.NoError(t, err)

	x, err := nnls.Solve(a, b, nnls.WithMaxIter(5000), nnls.WithTolerance(1e-13))
	require.NoError(t, err)
	require.Equal(t, []int{2, 2, 2}, x.Shape())

	require.InDelta(t, 1, x.At(0, 0, 0), 1e-4)
	require.InDelta(t, 2, x.At(0, 0, 1), 1e-4)
	require.InDelta(t, 1, x.At(0, 1, 0), 1e-4)
	require.InDelta(t, 2, x.At(0, 1, 1), 1e-4)
	require.InDelta(t, 3, x.At(1, 0, 0), 1e-4)
	require.InDelta(t, 1, x.At(1, 1, 1), 1e-4)
}

func TestSolveValidation(t *testing.T) {
	a := mat.NewDense(3, 2, []float64{1, 0, 0, 1, 1, 1})
	b, err := ndarray.FromSlice([]float64{1, 2}, 2, 1)
	require.NoError(t, err)

	_, err = nnls.Solve(a, b) // row mismatch: 3 vs 2
	require.Error(t, err)

	ok, err := ndarray.FromSlice([]float64{1, 2, 3}, 3, 1)
	require.NoError(t, err)
	_, err = nnls.Solve(a, ok, nnls.WithMaxIter(0))
	require.Error(t, err)
}
