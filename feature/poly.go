package feature

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-feat/broadcast"
	"github.com/cwbudde/algo-feat/ndarray"
)

// PolyFeatures fits an Order-degree polynomial in frequency to each frame
// of a spectrogram [..., bins, frames] by least squares, producing
// coefficients [..., Order+1, frames] in ascending power order.
//
// With a shared frequency map one Vandermonde factorization serves every
// frame; per-slice maps fit each frame against its own frequencies.
func PolyFeatures(s, freq *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	f, auxOpAxes, err := resolveFrequencies(s, freq, cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	order := cfg.Order
	lane := func(slab, fslab *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		sh := slab.Shape()
		bins, frames := sh[0], sh[1]
		if err := checkFrequencySlab(fslab, bins, frames); err != nil {
			return nil, err
		}
		out := make([]float64, (order+1)*frames)
		if fslab.Rank() == 1 {
			vand := vandermonde(fslab.Data(), order)
			b := mat.NewDense(bins, frames, slab.Data())
			var coef mat.Dense
			if err := coef.Solve(vand, b); err != nil {
				return nil, err
			}
			for j := 0; j <= order; j++ {
				for t := 0; t < frames; t++ {
					out[j*frames+t] = coef.At(j, t)
				}
			}
			return ndarray.FromSlice(out, order+1, frames)
		}
		fcol := make([]float64, bins)
		bcol := make([]float64, bins)
		for t := 0; t < frames; t++ {
			for k := 0; k < bins; k++ {
				fcol[k] = fslab.At(k, t)
				bcol[k] = slab.At(k, t)
			}
			vand := vandermonde(fcol, order)
			var coef mat.Dense
			if err := coef.Solve(vand, mat.NewDense(bins, 1, bcol)); err != nil {
				return nil, err
			}
			for j := 0; j <= order; j++ {
				out[j*frames+t] = coef.At(j, 0)
			}
		}
		return ndarray.FromSlice(out, order+1, frames)
	}
	return broadcast.ApplyWith(s, f, 2, auxOpAxes, lane, cfg.adapterOptions()...)
}

// vandermonde builds the [len(x) x order+1] design matrix with columns
// x^0 .. x^order.
func vandermonde(x []float64, order int) *mat.Dense {
	v := mat.NewDense(len(x), order+1, nil)
	for i, xi := range x {
		p := 1.0
		for j := 0; j <= order; j++ {
			v.Set(i, j, p)
			p *= xi
		}
	}
	return v
}
