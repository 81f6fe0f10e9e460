package stft

import (
	"math/cmplx"

	"github.com/cwbudde/algo-feat/broadcast"
	"github.com/cwbudde/algo-feat/dsp/spectrum"
	"github.com/cwbudde/algo-feat/ndarray"
)

// GriffinLim estimates a signal from a magnitude spectrogram
// ([..., bins, frames]) by alternating projections between the
// magnitude constraint and the STFT consistency constraint. Phases are
// initialized to zero for deterministic output. The result has shape
// [..., samples]; use WithLength to fix the sample count and
// WithIterations for the iteration budget.
func GriffinLim(mag *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	return broadcast.Apply(mag, 2, func(slab *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		return laneGriffinLim(slab, cfg)
	}, parallelOpts(cfg)...)
}

func laneGriffinLim(mag *ndarray.Array[float64], cfg Config) (*ndarray.Array[float64], error) {
	shape := mag.Shape()
	bins, frames := shape[0], shape[1]

	est := ndarray.New[complex128](bins, frames)
	for k := range bins {
		for t := range frames {
			est.Set(complex(mag.At(k, t), 0), k, t)
		}
	}

	for range cfg.Iter {
		inv, err := laneISTFT(est, cfg)
		if err != nil {
			return nil, err
		}

		d, err := laneSTFT(inv.Data(), cfg)
		if err != nil {
			return nil, err
		}

		// Keep the estimated phase, restore the target magnitude.
		ds := d.Shape()
		ph := spectrum.Phase(d.Data())
		for k := range bins {
			for t := range frames {
				var p float64
				if k < ds[0] && t < ds[1] {
					p = ph[k*ds[1]+t]
				}
				est.Set(cmplx.Rect(mag.At(k, t), p), k, t)
			}
		}
	}

	return laneISTFT(est, cfg)
}
