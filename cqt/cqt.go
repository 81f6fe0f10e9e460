// Package cqt computes pseudo constant-Q spectrograms and their
// approximate inverses.
package cqt

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-feat/broadcast"
	"github.com/cwbudde/algo-feat/dsp/stft"
	"github.com/cwbudde/algo-feat/filters"
	"github.com/cwbudde/algo-feat/ndarray"
	"github.com/cwbudde/algo-feat/nnls"
)

// Config tunes the constant-Q analysis.
type Config struct {
	// SampleRate of the signal in Hz.
	SampleRate float64
	// NBins is the total number of constant-Q bins.
	NBins int
	// BinsPerOctave controls the log-frequency resolution.
	BinsPerOctave int
	// FMin is the center frequency of the lowest bin.
	FMin float64
	// NNLSIter bounds the spectrogram recovery iterations in ICQT.
	NNLSIter int
	// STFT options are forwarded to the underlying transform.
	STFT []stft.Option
	// Parallel is forwarded to the batch adapter.
	Parallel int
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		SampleRate:    22050,
		NBins:         84,
		BinsPerOctave: 12,
		FMin:          32.703195, // C1
		NNLSIter:      100,
	}
}

// WithSampleRate sets the sample rate in Hz.
func WithSampleRate(sr float64) Option {
	return func(c *Config) { c.SampleRate = sr }
}

// WithBins sets the total bin count and bins per octave.
func WithBins(nBins, binsPerOctave int) Option {
	return func(c *Config) {
		c.NBins = nBins
		c.BinsPerOctave = binsPerOctave
	}
}

// WithFMin sets the lowest bin's center frequency.
func WithFMin(fmin float64) Option {
	return func(c *Config) { c.FMin = fmin }
}

// WithNNLSIter bounds the spectrogram recovery iterations in ICQT.
func WithNNLSIter(n int) Option {
	return func(c *Config) { c.NNLSIter = n }
}

// WithSTFT forwards options to the underlying transform.
func WithSTFT(opts ...stft.Option) Option {
	return func(c *Config) { c.STFT = append(c.STFT, opts...) }
}

// WithParallel forwards a worker count to the batch adapter.
func WithParallel(workers int) Option {
	return func(c *Config) { c.Parallel = workers }
}

func applyOptions(opts []Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.SampleRate <= 0 || cfg.FMin <= 0 {
		return cfg, errors.New("cqt: sample rate and fmin must be positive")
	}
	if cfg.NBins <= 0 || cfg.BinsPerOctave <= 0 {
		return cfg, errors.New("cqt: bin counts must be positive")
	}
	if cfg.NNLSIter <= 0 {
		return cfg, errors.New("cqt: nnls iteration count must be positive")
	}
	return cfg, nil
}

// CQT computes a pseudo constant-Q magnitude spectrogram of a signal
// [..., samples] by projecting the short-time Fourier magnitude onto a
// log-frequency filter bank, producing [..., NBins, frames].
func CQT(y *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	d, err := stft.STFT(y, cfg.STFT...)
	if err != nil {
		return nil, err
	}
	mag := stft.Magnitude(d)

	stftCfg, err := stft.ApplyOptions(cfg.STFT...)
	if err != nil {
		return nil, err
	}
	bank, err := filters.ConstantQ(cfg.SampleRate, stftCfg.NFFT, cfg.NBins, cfg.BinsPerOctave, cfg.FMin)
	if err != nil {
		return nil, err
	}

	var adapterOpts []broadcast.Option
	if cfg.Parallel > 1 {
		adapterOpts = append(adapterOpts, broadcast.WithParallel(cfg.Parallel))
	}
	return broadcast.Apply(mag, 2, func(slab *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		sh := slab.Shape()
		src := mat.NewDense(sh[0], sh[1], slab.Data())
		var dst mat.Dense
		dst.Mul(bank, src)
		rows, _ := bank.Dims()
		return ndarray.FromSlice(dst.RawMatrix().Data, rows, sh[1])
	}, adapterOpts...)
}

// ICQT approximately inverts a pseudo constant-Q magnitude spectrogram
// [..., NBins, frames] back to a signal [..., samples]. The linear
// magnitude spectrogram is recovered from the filter bank by
// non-negative least squares, then phase is rebuilt with Griffin-Lim.
func ICQT(c *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	if c.Rank() < 2 {
		return nil, ndarray.ErrInvalidAxis
	}
	if got := c.Shape()[c.Rank()-2]; got != cfg.NBins {
		return nil, errors.New("cqt: bin count does not match configuration")
	}

	stftCfg, err := stft.ApplyOptions(cfg.STFT...)
	if err != nil {
		return nil, err
	}
	bank, err := filters.ConstantQ(cfg.SampleRate, stftCfg.NFFT, cfg.NBins, cfg.BinsPerOctave, cfg.FMin)
	if err != nil {
		return nil, err
	}

	nnlsOpts := []nnls.Option{nnls.WithMaxIter(cfg.NNLSIter)}
	if cfg.Parallel > 1 {
		nnlsOpts = append(nnlsOpts, nnls.WithParallel(cfg.Parallel))
	}
	mag, err := nnls.Solve(bank, c, nnlsOpts...)
	if err != nil {
		return nil, err
	}
	return stft.GriffinLim(mag, cfg.STFT...)
}
