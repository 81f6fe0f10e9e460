package stft

import (
	"fmt"

	"github.com/cwbudde/algo-feat/broadcast"
	"github.com/cwbudde/algo-feat/dsp/spectrum"
	"github.com/cwbudde/algo-feat/dsp/window"
	"github.com/cwbudde/algo-feat/ndarray"
)

// STFT computes the short-time Fourier transform of y ([..., samples])
// and returns a complex spectrogram of shape [..., bins, frames] with
// bins = 1 + nfft/2. Leading batch axes are preserved; each channel is
// transformed exactly as it would be alone.
func STFT(y *ndarray.Array[float64], opts ...Option) (*ndarray.Array[complex128], error) {
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	return broadcast.Apply(y, 1, func(lane *ndarray.Array[float64]) (*ndarray.Array[complex128], error) {
		return laneSTFT(lane.Data(), cfg)
	}, parallelOpts(cfg)...)
}

func parallelOpts(cfg Config) []broadcast.Option {
	if cfg.Parallel <= 1 {
		return nil
	}
	return []broadcast.Option{broadcast.WithParallel(cfg.Parallel)}
}

func laneSTFT(y []float64, cfg Config) (*ndarray.Array[complex128], error) {
	if cfg.Center {
		y = padCenter(y, cfg.NFFT, cfg.Pad)
	}
	frames, err := frameCount(len(y), cfg.NFFT, cfg.HopLength)
	if err != nil {
		return nil, err
	}

	plan, err := acquirePlan(cfg.NFFT)
	if err != nil {
		return nil, fmt.Errorf("stft: failed to create FFT plan: %w", err)
	}
	defer releasePlan(cfg.NFFT, plan)

	coeffs := cfg.fullWindow()
	bins := cfg.Bins()
	out := ndarray.New[complex128](bins, frames)

	frame := make([]float64, cfg.NFFT)
	buf := make([]complex128, cfg.NFFT)
	for t := range frames {
		pos := t * cfg.HopLength
		copy(frame, y[pos:pos+cfg.NFFT])
		if err := window.ApplyCoefficientsInPlace(frame, coeffs); err != nil {
			return nil, err
		}
		for i, v := range frame {
			buf[i] = complex(v, 0)
		}
		if err := plan.Forward(buf, buf); err != nil {
			return nil, fmt.Errorf("stft: forward FFT failed: %w", err)
		}
		for k := range bins {
			out.Set(buf[k], k, t)
		}
	}
	return out, nil
}

// ISTFT reconstructs a time-domain signal from a complex spectrogram
// ([..., bins, frames]), inverting [STFT] with the same options. The
// output shape is [..., samples].
func ISTFT(d *ndarray.Array[complex128], opts ...Option) (*ndarray.Array[float64], error) {
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	return broadcast.Apply(d, 2, func(slab *ndarray.Array[complex128]) (*ndarray.Array[float64], error) {
		return laneISTFT(slab, cfg)
	}, parallelOpts(cfg)...)
}

func laneISTFT(d *ndarray.Array[complex128], cfg Config) (*ndarray.Array[float64], error) {
	shape := d.Shape()
	bins, frames := shape[0], shape[1]
	if bins != cfg.Bins() {
		return nil, fmt.Errorf("%w: have %d bins for nfft %d", errSpectrum, bins, cfg.NFFT)
	}

	plan, err := acquirePlan(cfg.NFFT)
	if err != nil {
		return nil, fmt.Errorf("stft: failed to create FFT plan: %w", err)
	}
	defer releasePlan(cfg.NFFT, plan)

	coeffs := cfg.fullWindow()
	n := cfg.NFFT + (frames-1)*cfg.HopLength
	wet := make([]float64, n)
	norm := make([]float64, n)

	spec := make([]complex128, cfg.NFFT)
	time := make([]complex128, cfg.NFFT)
	half := cfg.NFFT / 2
	for t := range frames {
		for k := range bins {
			spec[k] = d.At(k, t)
		}
		// Rebuild the conjugate-symmetric upper half.
		spec[0] = complex(real(spec[0]), 0)
		spec[half] = complex(real(spec[half]), 0)
		for k := 1; k < half; k++ {
			spec[cfg.NFFT-k] = complex(real(spec[k]), -imag(spec[k]))
		}

		if err := plan.Inverse(time, spec); err != nil {
			return nil, fmt.Errorf("stft: inverse FFT failed: %w", err)
		}

		pos := t * cfg.HopLength
		for i := range cfg.NFFT {
			w := coeffs[i]
			wet[pos+i] += real(time[i]) * w
			norm[pos+i] += w * w
		}
	}

	for i := range wet {
		if norm[i] > 1e-12 {
			wet[i] /= norm[i]
		}
	}

	if cfg.Center {
		lo := cfg.NFFT / 2
		hi := len(wet) - cfg.NFFT/2
		if hi < lo {
			hi = lo
		}
		wet = wet[lo:hi]
	}
	if cfg.Length > 0 {
		out := make([]float64, cfg.Length)
		copy(out, wet)
		wet = out
	}
	return ndarray.FromSlice(wet, len(wet))
}

// Magnitude returns |D| elementwise, preserving shape.
func Magnitude(d *ndarray.Array[complex128]) *ndarray.Array[float64] {
	out := ndarray.New[float64](d.Shape()...)
	spectrum.MagnitudeInto(out.Data(), d.Data())
	return out
}

// Power returns |D|^2 elementwise, preserving shape.
func Power(d *ndarray.Array[complex128]) *ndarray.Array[float64] {
	out := ndarray.New[float64](d.Shape()...)
	spectrum.PowerInto(out.Data(), d.Data())
	return out
}

// FFTFrequencies returns the center frequency in Hz of each STFT bin.
func FFTFrequencies(sampleRate float64, nfft int) []float64 {
	bins := 1 + nfft/2
	out := make([]float64, bins)
	for k := range out {
		out[k] = sampleRate * float64(k) / float64(nfft)
	}
	return out
}

// Frames converts a frame count and hop into sample offsets.
func Frames(frames, hop int) []int {
	out := make([]int, frames)
	for i := range out {
		out[i] = i * hop
	}
	return out
}
