package lpc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-feat/internal/testutil"
	"github.com/cwbudde/algo-feat/lpc"
	"github.com/cwbudde/algo-feat/ndarray"
)

// synthAR filters deterministic noise through an autoregressive model
// x[t] = sum_i coef[i]*x[t-i] + e[t].
func synthAR(coef []float64, seed int64, n int) []float64 {
	e := testutil.DeterministicNoise(seed, 1, n)
	x := make([]float64, n)
	for t := range x {
		x[t] = e[t]
		for i, c := range coef {
			if t > i {
				x[t] += c * x[t-i-1]
			}
		}
	}
	return x
}

func TestCoefficientsRecoverAR2(t *testing.T) {
	y, err := ndarray.FromSlice(synthAR([]float64{0.75, -0.5}, 3, 8192), 8192)
	require.NoError(t, err)

	a, err := lpc.Coefficients(y, 2)
	require.NoError(t, err)
	require.Equal(t, []int{3}, a.Shape())
	require.Equal(t, 1.0, a.At(0))
	require.InDelta(t, -0.75, a.At(1), 0.05)
	require.InDelta(t, 0.5, a.At(2), 0.05)
}

func TestCoefficientsBatched(t *testing.T) {
	left := synthAR([]float64{0.9}, 5, 4096)
	right := synthAR([]float64{-0.6}, 7, 4096)
	y, err := ndarray.FromSlice(append(left, right...), 2, 4096)
	require.NoError(t, err)

	a, err := lpc.Coefficients(y, 1)
	require.NoError(t, err)
	require.Equal(t, []int{2, 2}, a.Shape())
	require.InDelta(t, -0.9, a.At(0, 1), 0.05)
	require.InDelta(t, 0.6, a.At(1, 1), 0.05)

	for ch := 0; ch < 2; ch++ {
		lane, err := y.Index(0, ch)
		require.NoError(t, err)
		solo, err := lpc.Coefficients(lane, 1)
		require.NoError(t, err)
		testutil.RequireChannelMatch(t, a, solo, ch, 0)
	}
}

func TestCoefficientsValidation(t *testing.T) {
	y, err := ndarray.FromSlice([]float64{1, 2, 3}, 3)
	require.NoError(t, err)

	_, err = lpc.Coefficients(y, 0)
	require.Error(t, err)
	_, err = lpc.Coefficients(y, 3)
	require.Error(t, err)
}
