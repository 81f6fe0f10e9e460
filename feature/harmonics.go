package feature

import (
	"errors"
	"sort"

	"github.com/cwbudde/algo-feat/broadcast"
	"github.com/cwbudde/algo-feat/ndarray"
)

var errNoHarmonics = errors.New("feature: harmonic list is empty")

// InterpHarmonics samples a spectrogram [..., bins, frames] at integer or
// fractional multiples of its frequency grid, producing
// [..., len(harmonics), bins, frames]. Values outside the grid are zero.
//
// freq follows the same contract as the spectral features: nil for FFT
// bin centers, rank-1 for a shared map, or batched [bins, frames] maps
// resolved in lockstep with each slice.
func InterpHarmonics(s, freq *ndarray.Array[float64], harmonics []float64, opts ...Option) (*ndarray.Array[float64], error) {
	if len(harmonics) == 0 {
		return nil, errNoHarmonics
	}
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	f, auxOpAxes, err := resolveFrequencies(s, freq, cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	lane := func(slab, fslab *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		sh := slab.Shape()
		bins, frames := sh[0], sh[1]
		if err := checkFrequencySlab(fslab, bins, frames); err != nil {
			return nil, err
		}
		out := make([]float64, len(harmonics)*bins*frames)
		grid := make([]float64, bins)
		col := make([]float64, bins)
		for t := 0; t < frames; t++ {
			for k := 0; k < bins; k++ {
				grid[k] = frequencyAt(fslab, k, t)
				col[k] = slab.At(k, t)
			}
			for h, factor := range harmonics {
				base := h * bins * frames
				for k := 0; k < bins; k++ {
					out[base+k*frames+t] = interpAt(grid, col, grid[k]*factor)
				}
			}
		}
		return ndarray.FromSlice(out, len(harmonics), bins, frames)
	}
	return broadcast.ApplyWith(s, f, 2, auxOpAxes, lane, cfg.adapterOptions()...)
}

// Salience averages harmonic slices of a spectrogram into a single
// [..., bins, frames] map. weights scales each harmonic's contribution;
// nil weights all harmonics equally.
func Salience(s, freq *ndarray.Array[float64], harmonics, weights []float64, opts ...Option) (*ndarray.Array[float64], error) {
	if len(harmonics) == 0 {
		return nil, errNoHarmonics
	}
	if weights != nil && len(weights) != len(harmonics) {
		return nil, errors.New("feature: weights and harmonics differ in length")
	}
	stacked, err := InterpHarmonics(s, freq, harmonics, opts...)
	if err != nil {
		return nil, err
	}
	var total float64
	for i := range harmonics {
		if weights == nil {
			total++
			continue
		}
		total += weights[i]
	}
	if total == 0 {
		total = 1
	}
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	return broadcast.Apply(stacked, 3, func(slab *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		sh := slab.Shape()
		nh, bins, frames := sh[0], sh[1], sh[2]
		out := make([]float64, bins*frames)
		for h := 0; h < nh; h++ {
			w := 1.0
			if weights != nil {
				w = weights[h]
			}
			for k := 0; k < bins; k++ {
				for t := 0; t < frames; t++ {
					out[k*frames+t] += w * slab.At(h, k, t)
				}
			}
		}
		for i := range out {
			out[i] /= total
		}
		return ndarray.FromSlice(out, bins, frames)
	}, cfg.adapterOptions()...)
}

// interpAt linearly interpolates samples over an ascending grid, returning
// zero outside the grid's range.
func interpAt(grid, samples []float64, x float64) float64 {
	n := len(grid)
	if n == 0 || x < grid[0] || x > grid[n-1] {
		return 0
	}
	i := sort.SearchFloat64s(grid, x)
	if i == 0 {
		return samples[0]
	}
	if i >= n {
		return samples[n-1]
	}
	span := grid[i] - grid[i-1]
	if span <= 0 {
		return samples[i]
	}
	w := (x - grid[i-1]) / span
	return samples[i-1]*(1-w) + samples[i]*w
}
