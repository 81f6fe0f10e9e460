package pitch

import (
	"github.com/cwbudde/algo-feat/broadcast"
	"github.com/cwbudde/algo-feat/ndarray"
)

// PipTrack locates pitch candidates in a magnitude spectrogram
// [..., bins, frames] by parabolic interpolation around spectral peaks.
//
// It returns two arrays of the input's shape: interpolated peak
// frequencies in Hz and the corresponding interpolated magnitudes. Both
// are zero away from peaks. Peaks below 10% of a frame's maximum and
// outside [FMin, FMax] are discarded.
func PipTrack(s *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], *ndarray.Array[float64], error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, nil, err
	}
	if s.Rank() < 2 {
		return nil, nil, ndarray.ErrInvalidAxis
	}
	bins := s.Shape()[s.Rank()-2]
	nfft := 2 * (bins - 1)
	binHz := cfg.SampleRate / float64(nfft)

	lane := func(slab *ndarray.Array[float64]) (*ndarray.Array[float64], *ndarray.Array[float64], error) {
		sh := slab.Shape()
		bins, frames := sh[0], sh[1]
		pitches := make([]float64, bins*frames)
		mags := make([]float64, bins*frames)
		for t := 0; t < frames; t++ {
			ref := 0.0
			for k := 0; k < bins; k++ {
				if v := slab.At(k, t); v > ref {
					ref = v
				}
			}
			threshold := 0.1 * ref
			for k := 1; k < bins-1; k++ {
				v := slab.At(k, t)
				if v < threshold || v <= slab.At(k-1, t) || v <= slab.At(k+1, t) {
					continue
				}
				shift, peak := parabolicPeak(slab.At(k-1, t), v, slab.At(k+1, t))
				freq := (float64(k) + shift) * binHz
				if freq < cfg.FMin || freq > cfg.FMax {
					continue
				}
				pitches[k*frames+t] = freq
				mags[k*frames+t] = peak
			}
		}
		p, err := ndarray.FromSlice(pitches, bins, frames)
		if err != nil {
			return nil, nil, err
		}
		m, err := ndarray.FromSlice(mags, bins, frames)
		if err != nil {
			return nil, nil, err
		}
		return p, m, nil
	}
	return broadcast.Apply2(s, 2, lane, cfg.adapterOptions()...)
}

// parabolicPeak fits a parabola through a local maximum and its
// neighbours, returning the fractional bin shift and refined height.
func parabolicPeak(a, b, c float64) (shift, height float64) {
	denom := a - 2*b + c
	if denom == 0 {
		return 0, b
	}
	shift = 0.5 * (a - c) / denom
	if shift > 0.5 {
		shift = 0.5
	}
	if shift < -0.5 {
		shift = -0.5
	}
	height = b - 0.25*(a-c)*shift
	return shift, height
}
