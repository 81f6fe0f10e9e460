package feature

import (
	"errors"

	"github.com/cwbudde/algo-feat/broadcast"
	"github.com/cwbudde/algo-feat/ndarray"
)

var errStackSteps = errors.New("feature: stack needs at least one step")

// StackMemory vertically stacks delayed copies of a feature matrix
// [..., d, frames] into [..., d*nSteps, frames]. Block s holds the input
// shifted right by s*delay frames; history that falls before the first
// frame is zero. A negative delay shifts left, exposing future frames
// instead.
func StackMemory(data *ndarray.Array[float64], nSteps, delay int, opts ...Option) (*ndarray.Array[float64], error) {
	if nSteps < 1 {
		return nil, errStackSteps
	}
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	return broadcast.Apply(data, 2, func(slab *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		sh := slab.Shape()
		d, frames := sh[0], sh[1]
		out := make([]float64, d*nSteps*frames)
		for s := 0; s < nSteps; s++ {
			shift := s * delay
			for j := 0; j < d; j++ {
				row := (s*d + j) * frames
				for t := 0; t < frames; t++ {
					src := t - shift
					if src < 0 || src >= frames {
						continue
					}
					out[row+t] = slab.At(j, src)
				}
			}
		}
		return ndarray.FromSlice(out, d*nSteps, frames)
	}, cfg.adapterOptions()...)
}
