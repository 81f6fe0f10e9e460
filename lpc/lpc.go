// Package lpc computes linear prediction coefficients via Burg's method.
package lpc

import (
	"errors"

	"github.com/cwbudde/algo-feat/broadcast"
	"github.com/cwbudde/algo-feat/ndarray"
)

var (
	errOrder = errors.New("lpc: order must be positive")
	errShort = errors.New("lpc: signal shorter than order")
)

// Coefficients estimates order-p linear prediction coefficients for each
// sample lane of y [..., samples], producing [..., order+1] with the
// leading coefficient fixed at 1. The prediction polynomial minimizes
// combined forward and backward residual energy.
func Coefficients(y *ndarray.Array[float64], order int, opts ...broadcast.Option) (*ndarray.Array[float64], error) {
	if order < 1 {
		return nil, errOrder
	}
	return broadcast.Apply(y, 1, func(lane *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		samples := lane.Data()
		if len(samples) <= order {
			return nil, errShort
		}
		return ndarray.FromSlice(burg(samples, order), order+1)
	}, opts...)
}

// burg runs the lattice recursion, updating forward and backward errors
// in place at each order.
func burg(x []float64, order int) []float64 {
	n := len(x)
	a := make([]float64, order+1)
	a[0] = 1

	fwd := append([]float64(nil), x...)
	bwd := append([]float64(nil), x...)
	tmp := make([]float64, order+1)

	var denom float64
	for i := 0; i < n; i++ {
		denom += 2 * x[i] * x[i]
	}
	denom -= fwd[0]*fwd[0] + bwd[n-1]*bwd[n-1]

	for m := 0; m < order; m++ {
		var num float64
		for i := m + 1; i < n; i++ {
			num += fwd[i] * bwd[i-1]
		}
		var k float64
		if denom > 0 {
			k = -2 * num / denom
		}

		copy(tmp, a[:m+2])
		for i := 1; i <= m+1; i++ {
			a[i] = tmp[i] + k*tmp[m+1-i]
		}

		dropF := fwd[m+1]
		dropB := bwd[n-2]
		for i := n - 1; i > m; i-- {
			f := fwd[i]
			b := bwd[i-1]
			fwd[i] = f + k*b
			bwd[i] = b + k*f
		}
		denom = (1-k*k)*denom - dropF*dropF - dropB*dropB
	}
	return a
}
