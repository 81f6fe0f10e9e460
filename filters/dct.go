package filters

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// DCT builds an orthonormal [nOut x nIn] type-II discrete cosine
// transform basis, the cepstral-lifter stage of MFCC extraction.
func DCT(nOut, nIn int) *mat.Dense {
	if nOut <= 0 || nIn <= 0 {
		return mat.NewDense(1, 1, []float64{1})
	}
	w := mat.NewDense(nOut, nIn, nil)
	scale0 := math.Sqrt(1 / float64(nIn))
	scale := math.Sqrt(2 / float64(nIn))
	for k := range nOut {
		s := scale
		if k == 0 {
			s = scale0
		}
		for n := range nIn {
			w.Set(k, n, s*math.Cos(math.Pi*float64(k)*(float64(n)+0.5)/float64(nIn)))
		}
	}
	return w
}
