package feature

import (
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-feat/broadcast"
	"github.com/cwbudde/algo-feat/ndarray"
)

// SpectralCentroid computes the magnitude-weighted mean frequency of each
// frame of a spectrogram [..., bins, frames], producing [..., 1, frames].
//
// freq may be nil (FFT bin centers), a shared rank-1 map of length bins,
// or an array with the same batch shape as s carrying a per-slice
// [bins, frames] map.
func SpectralCentroid(s, freq *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	return perFrameWeighted(s, freq, func(f, m []float64, out []float64, t int) {
		out[t] = weightedMean(f, m)
	}, opts...)
}

// SpectralBandwidth computes the second spectral moment about the
// centroid for each frame, producing [..., 1, frames].
func SpectralBandwidth(s, freq *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	return perFrameWeighted(s, freq, func(f, m []float64, out []float64, t int) {
		c := weightedMean(f, m)
		var num, den float64
		for k, v := range m {
			d := f[k] - c
			num += v * d * d
			den += v
		}
		if den < tiny {
			out[t] = 0
			return
		}
		out[t] = math.Sqrt(num / den)
	}, opts...)
}

// SpectralRolloff computes, per frame, the lowest frequency below which
// RollPercent of the spectral energy is contained, producing
// [..., 1, frames].
func SpectralRolloff(s, freq *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	return perFrameWeighted(s, freq, func(f, m []float64, out []float64, t int) {
		var total float64
		for _, v := range m {
			total += v
		}
		threshold := cfg.RollPercent * total
		var cum float64
		out[t] = f[len(f)-1]
		for k, v := range m {
			cum += v
			if cum >= threshold {
				out[t] = f[k]
				return
			}
		}
	}, opts...)
}

// SpectralFlatness computes the ratio of geometric to arithmetic mean of
// the power spectrum for each frame, producing [..., 1, frames].
// Values near 1 indicate noise, values near 0 a tonal spectrum.
func SpectralFlatness(s *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	if s.Rank() < 2 {
		return nil, ndarray.ErrInvalidAxis
	}
	return broadcast.Apply(s, 2, func(slab *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		sh := slab.Shape()
		bins, frames := sh[0], sh[1]
		out := make([]float64, frames)
		for t := 0; t < frames; t++ {
			var logSum, sum float64
			for k := 0; k < bins; k++ {
				p := slab.At(k, t)
				p = p*p + tiny
				logSum += math.Log(p)
				sum += p
			}
			geo := math.Exp(logSum / float64(bins))
			out[t] = geo / (sum / float64(bins))
		}
		return ndarray.FromSlice(out, 1, frames)
	}, cfg.adapterOptions()...)
}

// SpectralContrast computes the per-band difference between spectral
// peaks and valleys in dB, producing [..., NBands+1, frames]. Bands are
// octave-spaced starting at FMin (200 Hz when FMin is zero).
func SpectralContrast(s, freq *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	fmin := cfg.FMin
	if fmin <= 0 {
		fmin = 200
	}
	edges := make([]float64, cfg.NBands+2)
	edges[0] = 0
	for b := 1; b < len(edges); b++ {
		edges[b] = fmin * math.Pow(2, float64(b-1))
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
		out := make([]float64, (cfg.NBands+1)*frames)
		band := make([]float64, 0, bins)
		for t := 0; t < frames; t++ {
			for b := 0; b <= cfg.NBands; b++ {
				band = band[:0]
				for k := 0; k < bins; k++ {
					fk := frequencyAt(fslab, k, t)
					if fk >= edges[b] && fk < edges[b+1] {
						band = append(band, slab.At(k, t))
					}
				}
				out[b*frames+t] = bandContrast(band)
			}
		}
		return ndarray.FromSlice(out, cfg.NBands+1, frames)
	}
	return broadcast.ApplyWith(s, f, 2, auxOpAxes, lane, cfg.adapterOptions()...)
}

// bandContrast returns the peak-to-valley ratio of one frequency band in
// dB, averaging the top and bottom 2% of magnitudes (at least one bin).
func bandContrast(band []float64) float64 {
	if len(band) == 0 {
		return 0
	}
	sorted := append([]float64(nil), band...)
	sort.Float64s(sorted)
	alpha := len(sorted) / 50
	if alpha < 1 {
		alpha = 1
	}
	var valley, peak float64
	for i := 0; i < alpha; i++ {
		valley += sorted[i]
		peak += sorted[len(sorted)-1-i]
	}
	valley /= float64(alpha)
	peak /= float64(alpha)
	return 10 * (math.Log10(peak+tiny) - math.Log10(valley+tiny))
}

// perFrameWeighted runs a per-frame reduction over magnitude and
// frequency lanes, handling shared and per-slice frequency maps.
func perFrameWeighted(
	s, freq *ndarray.Array[float64],
	reduce func(f, m, out []float64, t int),
	opts ...Option,
) (*ndarray.Array[float64], error) {
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
		out := make([]float64, frames)
		fcol := make([]float64, bins)
		mcol := make([]float64, bins)
		for t := 0; t < frames; t++ {
			for k := 0; k < bins; k++ {
				fcol[k] = frequencyAt(fslab, k, t)
				mcol[k] = slab.At(k, t)
			}
			reduce(fcol, mcol, out, t)
		}
		return ndarray.FromSlice(out, 1, frames)
	}
	return broadcast.ApplyWith(s, f, 2, auxOpAxes, lane, cfg.adapterOptions()...)
}

// frequencyAt reads bin k of a frequency lane that is either rank-1
// (static) or [bins, frames] (time varying).
func frequencyAt(f *ndarray.Array[float64], k, t int) float64 {
	if f.Rank() == 1 {
		return f.At(k)
	}
	return f.At(k, t)
}

func checkFrequencySlab(f *ndarray.Array[float64], bins, frames int) error {
	sh := f.Shape()
	switch f.Rank() {
	case 1:
		if sh[0] != bins {
			return fmt.Errorf("feature: frequency map has %d bins, want %d: %w",
				sh[0], bins, broadcast.ErrShapeMismatch)
		}
	case 2:
		if sh[0] != bins || sh[1] != frames {
			return fmt.Errorf("feature: frequency map is [%d, %d], want [%d, %d]: %w",
				sh[0], sh[1], bins, frames, broadcast.ErrShapeMismatch)
		}
	default:
		return fmt.Errorf("feature: frequency map rank %d: %w", f.Rank(), broadcast.ErrShapeMismatch)
	}
	return nil
}

func weightedMean(f, w []float64) float64 {
	var num, den float64
	for k, v := range w {
		num += f[k] * v
		den += v
	}
	if den < tiny {
		return 0
	}
	return num / den
}
