package feature

import (
	"github.com/cwbudde/algo-feat/broadcast"
	"github.com/cwbudde/algo-feat/dsp/spectrum"
	"github.com/cwbudde/algo-feat/filters"
	"github.com/cwbudde/algo-feat/ndarray"
)

// MFCC computes mel-frequency cepstral coefficients of y: a mel power
// spectrogram is converted to dB and projected onto an orthonormal DCT-II
// basis. The result is [..., NMFCC, frames].
//
// The dB reference is the per-slice spectrogram maximum, so coefficients
// for one channel never depend on its neighbours.
func MFCC(y *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	mel, err := MelSpectrogram(y, opts...)
	if err != nil {
		return nil, err
	}
	dct := filters.DCT(cfg.NMFCC, cfg.NMels)
	return broadcast.Apply(mel, 2, func(slab *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		db := spectrum.PowerToDB(slab.Data(), 0, cfg.TopDB)
		sh := slab.Shape()
		scaled, err := ndarray.FromSlice(db, sh...)
		if err != nil {
			return nil, err
		}
		return project(dct, scaled)
	}, cfg.adapterOptions()...)
}

// MFCCFromDB projects an already dB-scaled spectrogram [..., d, frames]
// onto the DCT basis, keeping NMFCC coefficients.
func MFCCFromDB(s *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	if s.Rank() < 2 {
		return nil, ndarray.ErrInvalidAxis
	}
	dct := filters.DCT(cfg.NMFCC, s.Shape()[s.Rank()-2])
	return broadcast.Apply(s, 2, func(slab *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		return project(dct, slab)
	}, cfg.adapterOptions()...)
}
