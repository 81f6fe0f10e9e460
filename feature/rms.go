package feature

import (
	"math"

	"github.com/cwbudde/algo-feat/broadcast"
	"github.com/cwbudde/algo-feat/ndarray"
)

// RMS computes the root-mean-square energy per frame of a signal
// [..., samples], producing [..., 1, frames]. Frames are centered and
// zero padded at the edges.
func RMS(y *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	frameLength, hop := cfg.FrameLength, cfg.HopLength
	return broadcast.Apply(y, 1, func(lane *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		samples := lane.Data()
		frames := frameCount(len(samples), frameLength, hop)
		out := make([]float64, frames)
		frame := make([]float64, frameLength)
		for t := 0; t < frames; t++ {
			frameAt(frame, samples, t, frameLength, hop)
			var sum float64
			for _, v := range frame {
				sum += v * v
			}
			out[t] = math.Sqrt(sum / float64(frameLength))
		}
		return ndarray.FromSlice(out, 1, frames)
	}, cfg.adapterOptions()...)
}

// RMSFromSpectrogram recovers frame energy from a magnitude spectrogram
// [..., bins, frames] by Parseval's theorem, producing [..., 1, frames].
// The DC and Nyquist bins count once, interior bins twice.
func RMSFromSpectrogram(s *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
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
		nfft := float64(2 * (bins - 1))
		out := make([]float64, frames)
		for t := 0; t < frames; t++ {
			var power float64
			for k := 0; k < bins; k++ {
				v := slab.At(k, t)
				p := v * v
				if k > 0 && k < bins-1 {
					p *= 2
				}
				power += p
			}
			out[t] = math.Sqrt(power) / nfft
		}
		return ndarray.FromSlice(out, 1, frames)
	}, cfg.adapterOptions()...)
}

// ZeroCrossingRate computes the fraction of sign changes per frame of a
// signal [..., samples], producing [..., 1, frames]. Zero samples count
// as positive, matching IEEE sign-bit semantics for +0.
func ZeroCrossingRate(y *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	frameLength, hop := cfg.FrameLength, cfg.HopLength
	return broadcast.Apply(y, 1, func(lane *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		samples := lane.Data()
		frames := frameCount(len(samples), frameLength, hop)
		out := make([]float64, frames)
		frame := make([]float64, frameLength)
		for t := 0; t < frames; t++ {
			frameAt(frame, samples, t, frameLength, hop)
			crossings := 0
			for i := 1; i < len(frame); i++ {
				if math.Signbit(frame[i]) != math.Signbit(frame[i-1]) {
					crossings++
				}
			}
			out[t] = float64(crossings) / float64(frameLength)
		}
		return ndarray.FromSlice(out, 1, frames)
	}, cfg.adapterOptions()...)
}
