package feature

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-feat/broadcast"
	"github.com/cwbudde/algo-feat/cqt"
	"github.com/cwbudde/algo-feat/dsp/stft"
	"github.com/cwbudde/algo-feat/dsp/window"
	"github.com/cwbudde/algo-feat/filters"
	"github.com/cwbudde/algo-feat/ndarray"
)

// ChromaSTFT computes a chromagram of y: the power spectrogram is folded
// onto NChroma pitch classes and each frame is normalized to unit peak.
// The result is [..., NChroma, frames].
func ChromaSTFT(y *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	d, err := stft.STFT(y, cfg.STFT...)
	if err != nil {
		return nil, err
	}
	return ChromaFromPower(stft.Power(d), opts...)
}

// ChromaFromPower folds an existing power spectrogram [..., bins, frames]
// onto pitch classes.
func ChromaFromPower(s *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	if s.Rank() < 2 {
		return nil, ndarray.ErrInvalidAxis
	}
	bins := s.Shape()[s.Rank()-2]
	basis, err := filters.Chroma(cfg.SampleRate, 2*(bins-1), cfg.NChroma)
	if err != nil {
		return nil, err
	}
	return broadcast.Apply(s, 2, func(slab *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		chroma, err := project(basis, slab)
		if err != nil {
			return nil, err
		}
		normalizeColumnsPeak(chroma)
		return chroma, nil
	}, cfg.adapterOptions()...)
}

// ChromaCQT computes a chromagram from a pseudo constant-Q spectrogram:
// seven octaves of constant-Q bins at NChroma bins per octave are folded
// onto pitch classes and each frame is normalized to unit peak. The bank
// starts at C1, so class 0 is C. The result is [..., NChroma, frames].
func ChromaCQT(y *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	cqtOpts := []cqt.Option{
		cqt.WithSampleRate(cfg.SampleRate),
		cqt.WithBins(7*cfg.NChroma, cfg.NChroma),
		cqt.WithSTFT(cfg.STFT...),
	}
	if cfg.Parallel > 1 {
		cqtOpts = append(cqtOpts, cqt.WithParallel(cfg.Parallel))
	}
	c, err := cqt.CQT(y, cqtOpts...)
	if err != nil {
		return nil, err
	}
	nChroma := cfg.NChroma
	return broadcast.Apply(c, 2, func(slab *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		sh := slab.Shape()
		bins, frames := sh[0], sh[1]
		folded := ndarray.New[float64](nChroma, frames)
		for b := 0; b < bins; b++ {
			class := b % nChroma
			for t := 0; t < frames; t++ {
				folded.Set(folded.At(class, t)+slab.At(b, t), class, t)
			}
		}
		normalizeColumnsPeak(folded)
		return folded, nil
	}, cfg.adapterOptions()...)
}

// ChromaCENS computes chroma energy normalized statistics: the CQT
// chromagram is L1-normalized per frame, quantized against coarse
// energy thresholds, smoothed over time with a Hann taper of CENSWindow
// frames, and scaled to unit L2 norm per frame. The smoothing makes the
// result robust to local dynamics and articulation.
func ChromaCENS(y *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	chroma, err := ChromaCQT(y, opts...)
	if err != nil {
		return nil, err
	}
	taper, err := window.Hann(cfg.CENSWindow)
	if err != nil {
		return nil, err
	}
	if s := floats.Sum(taper); s > 0 {
		floats.Scale(1/s, taper)
	}
	return broadcast.Apply(chroma, 2, func(slab *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		return censLane(slab, taper), nil
	}, cfg.adapterOptions()...)
}

// censThresholds drive the coarse energy quantization: each
// L1-normalized chroma value collects censWeight for every threshold it
// exceeds.
var censThresholds = []float64{0.05, 0.1, 0.2, 0.4}

const censWeight = 0.25

func censLane(chroma *ndarray.Array[float64], taper []float64) *ndarray.Array[float64] {
	sh := chroma.Shape()
	classes, frames := sh[0], sh[1]

	q := ndarray.New[float64](classes, frames)
	for t := 0; t < frames; t++ {
		norm := 0.0
		for k := 0; k < classes; k++ {
			norm += chroma.At(k, t)
		}
		if norm <= 0 {
			continue
		}
		for k := 0; k < classes; k++ {
			v := chroma.At(k, t) / norm
			quant := 0.0
			for _, th := range censThresholds {
				if v > th {
					quant += censWeight
				}
			}
			q.Set(quant, k, t)
		}
	}

	out := ndarray.New[float64](classes, frames)
	half := len(taper) / 2
	for k := 0; k < classes; k++ {
		for t := 0; t < frames; t++ {
			acc := 0.0
			for j, w := range taper {
				src := t + j - half
				if src < 0 || src >= frames {
					continue
				}
				acc += w * q.At(k, src)
			}
			out.Set(acc, k, t)
		}
	}

	for t := 0; t < frames; t++ {
		ss := 0.0
		for k := 0; k < classes; k++ {
			v := out.At(k, t)
			ss += v * v
		}
		if ss <= 0 {
			continue
		}
		inv := 1 / math.Sqrt(ss)
		for k := 0; k < classes; k++ {
			out.Set(out.At(k, t)*inv, k, t)
		}
	}
	return out
}

// normalizeColumnsPeak scales each column of a [rows, cols] array to unit
// maximum. All-zero columns are left untouched.
func normalizeColumnsPeak(a *ndarray.Array[float64]) {
	sh := a.Shape()
	rows, cols := sh[0], sh[1]
	for t := 0; t < cols; t++ {
		peak := 0.0
		for k := 0; k < rows; k++ {
			if v := a.At(k, t); v > peak {
				peak = v
			}
		}
		if peak <= 0 {
			continue
		}
		for k := 0; k < rows; k++ {
			a.Set(a.At(k, t)/peak, k, t)
		}
	}
}
