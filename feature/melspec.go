package feature

import (
	"github.com/cwbudde/algo-feat/broadcast"
	"github.com/cwbudde/algo-feat/dsp/stft"
	"github.com/cwbudde/algo-feat/filters"
	"github.com/cwbudde/algo-feat/ndarray"
)

// MelSpectrogram computes a mel-scaled power spectrogram of y.
//
// The input carries samples along the last axis; the result carries
// [NMels, frames] operating axes after the preserved batch axes.
func MelSpectrogram(y *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	d, err := stft.STFT(y, cfg.STFT...)
	if err != nil {
		return nil, err
	}
	return melFromPower(stft.Power(d), cfg)
}

// MelFromPower projects an existing power spectrogram [..., bins, frames]
// onto the mel filter bank.
func MelFromPower(s *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	return melFromPower(s, cfg)
}

func melFromPower(s *ndarray.Array[float64], cfg Config) (*ndarray.Array[float64], error) {
	if s.Rank() < 2 {
		return nil, ndarray.ErrInvalidAxis
	}
	bins := s.Shape()[s.Rank()-2]
	nfft := 2 * (bins - 1)
	basis, err := filters.Mel(cfg.SampleRate, nfft, cfg.NMels, cfg.FMin, cfg.FMax)
	if err != nil {
		return nil, err
	}
	return broadcast.Apply(s, 2, func(slab *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		return project(basis, slab)
	}, cfg.adapterOptions()...)
}
