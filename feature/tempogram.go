package feature

import (
	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-feat/broadcast"
	"github.com/cwbudde/algo-feat/dsp/stft"
	"github.com/cwbudde/algo-feat/dsp/window"
	"github.com/cwbudde/algo-feat/ndarray"
)

// Tempogram computes a local autocorrelation of an onset envelope
// [..., frames], producing [..., TempoWindow, frames]. Each output column
// is the windowed autocorrelation of the envelope centered on that frame,
// normalized to unit peak.
func Tempogram(env *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	win := cfg.TempoWindow
	taper, err := window.Hann(win)
	if err != nil {
		return nil, err
	}
	fftSize := nextPowerOfTwo(2 * win)
	return broadcast.Apply(env, 1, func(lane *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		plan, err := algofft.NewPlan64(fftSize)
		if err != nil {
			return nil, err
		}
		samples := lane.Data()
		frames := len(samples)
		out := make([]float64, win*frames)
		frame := make([]float64, win)
		buf := make([]complex128, fftSize)
		spec := make([]complex128, fftSize)
		for t := 0; t < frames; t++ {
			frameAt(frame, samples, t, win, 1)
			for i := range buf {
				buf[i] = 0
			}
			for i, v := range frame {
				buf[i] = complex(v*taper[i], 0)
			}
			if err := plan.Forward(spec, buf); err != nil {
				return nil, err
			}
			for i, v := range spec {
				re := real(v)
				im := imag(v)
				spec[i] = complex(re*re+im*im, 0)
			}
			if err := plan.Inverse(buf, spec); err != nil {
				return nil, err
			}
			peak := tiny
			for l := 0; l < win; l++ {
				if ac := real(buf[l]); ac > peak {
					peak = ac
				}
			}
			for l := 0; l < win; l++ {
				out[l*frames+t] = real(buf[l]) / peak
			}
		}
		return ndarray.FromSlice(out, win, frames)
	}, cfg.adapterOptions()...)
}

// FourierTempogram computes a short-time Fourier transform of an onset
// envelope [..., frames], producing complex output
// [..., 1+nfft/2, frames'] with nfft the next power of two at or above
// TempoWindow and a hop of one frame.
func FourierTempogram(env *ndarray.Array[float64], opts ...Option) (*ndarray.Array[complex128], error) {
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	nfft := nextPowerOfTwo(cfg.TempoWindow)
	stftOpts := []stft.Option{
		stft.WithNFFT(nfft),
		stft.WithHopLength(1),
	}
	if cfg.Parallel > 1 {
		stftOpts = append(stftOpts, stft.WithParallel(cfg.Parallel))
	}
	return stft.STFT(env, stftOpts...)
}
