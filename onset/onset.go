// Package onset derives onset-strength envelopes from spectrograms.
package onset

import (
	"errors"

	"github.com/cwbudde/algo-feat/broadcast"
	"github.com/cwbudde/algo-feat/dsp/spectrum"
	"github.com/cwbudde/algo-feat/feature"
	"github.com/cwbudde/algo-feat/ndarray"
)

var errLag = errors.New("onset: lag must be positive")

// Config tunes the onset envelope.
type Config struct {
	// Lag is the frame distance for the spectral difference.
	Lag int
	// MaxPool aggregates flux across bins by maximum instead of mean.
	MaxPool bool
	// Feature options are forwarded to the mel spectrogram stage of
	// StrengthFromSignal.
	Feature []feature.Option
	// Parallel is forwarded to the batch adapter.
	Parallel int
}

// Option mutates a Config.
type Option func(*Config)

// WithLag sets the frame distance for the spectral difference.
func WithLag(n int) Option {
	return func(c *Config) { c.Lag = n }
}

// WithMaxPool pools flux across bins by maximum instead of mean.
func WithMaxPool() Option {
	return func(c *Config) { c.MaxPool = true }
}

// WithFeatureOptions forwards options to the mel spectrogram stage.
func WithFeatureOptions(opts ...feature.Option) Option {
	return func(c *Config) { c.Feature = append(c.Feature, opts...) }
}

// WithParallel forwards a worker count to the batch adapter.
func WithParallel(workers int) Option {
	return func(c *Config) { c.Parallel = workers }
}

func applyOptions(opts []Option) (Config, error) {
	cfg := Config{Lag: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Lag < 1 {
		return cfg, errLag
	}
	return cfg, nil
}

// Strength computes a spectral-flux onset envelope from a power
// spectrogram [..., bins, frames], producing [..., frames]. Each frame's
// strength pools the positive dB differences to the frame Lag steps
// back; the first Lag frames are zero.
//
// The dB reference is taken per slice, so envelopes of different
// channels stay independent.
func Strength(s *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	var adapterOpts []broadcast.Option
	if cfg.Parallel > 1 {
		adapterOpts = append(adapterOpts, broadcast.WithParallel(cfg.Parallel))
	}
	return broadcast.Apply(s, 2, func(slab *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		return strengthLane(slab, cfg)
	}, adapterOpts...)
}

// StrengthFromSignal computes the onset envelope of a signal
// [..., samples] via its mel power spectrogram, producing [..., frames].
func StrengthFromSignal(y *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	mel, err := feature.MelSpectrogram(y, cfg.Feature...)
	if err != nil {
		return nil, err
	}
	return Strength(mel, opts...)
}

func strengthLane(slab *ndarray.Array[float64], cfg Config) (*ndarray.Array[float64], error) {
	sh := slab.Shape()
	bins, frames := sh[0], sh[1]
	db := spectrum.PowerToDB(slab.Data(), 0, 0)

	out := make([]float64, frames)
	for t := cfg.Lag; t < frames; t++ {
		var flux float64
		for k := 0; k < bins; k++ {
			d := db[k*frames+t] - db[k*frames+t-cfg.Lag]
			if d <= 0 {
				continue
			}
			if cfg.MaxPool {
				if d > flux {
					flux = d
				}
				continue
			}
			flux += d
		}
		if !cfg.MaxPool {
			flux /= float64(bins)
		}
		out[t] = flux
	}
	return ndarray.FromSlice(out, frames)
}
