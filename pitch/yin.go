// Package pitch estimates fundamental frequencies from signals and
// spectrograms.
package pitch

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-feat/broadcast"
	"github.com/cwbudde/algo-feat/ndarray"
)

var (
	errFreqRange   = errors.New("pitch: frequency range is empty")
	errFrameLength = errors.New("pitch: frame too short for minimum frequency")
)

// Config tunes the estimators in this package.
type Config struct {
	// SampleRate of the signal in Hz.
	SampleRate float64
	// FMin and FMax bound the search range in Hz.
	FMin float64
	FMax float64
	// FrameLength and HopLength frame the signal.
	FrameLength int
	HopLength   int
	// Threshold is the YIN trough threshold on the cumulative
	// mean-normalized difference.
	Threshold float64
	// Parallel is forwarded to the batch adapter.
	Parallel int
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		SampleRate:  22050,
		FMin:        65,
		FMax:        2093,
		FrameLength: 2048,
		HopLength:   512,
		Threshold:   0.1,
	}
}

// WithSampleRate sets the sample rate in Hz.
func WithSampleRate(sr float64) Option {
	return func(c *Config) { c.SampleRate = sr }
}

// WithFrequencyRange bounds the pitch search.
func WithFrequencyRange(fmin, fmax float64) Option {
	return func(c *Config) {
		c.FMin = fmin
		c.FMax = fmax
	}
}

// WithFrameLength sets the analysis frame length in samples.
func WithFrameLength(n int) Option {
	return func(c *Config) { c.FrameLength = n }
}

// WithHopLength sets the analysis hop in samples.
func WithHopLength(n int) Option {
	return func(c *Config) { c.HopLength = n }
}

// WithThreshold sets the YIN trough threshold.
func WithThreshold(th float64) Option {
	return func(c *Config) { c.Threshold = th }
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
	if cfg.SampleRate <= 0 || cfg.FrameLength <= 0 || cfg.HopLength <= 0 {
		return cfg, errors.New("pitch: sample rate, frame and hop must be positive")
	}
	if cfg.FMin <= 0 || cfg.FMax <= cfg.FMin || cfg.FMax > cfg.SampleRate/2 {
		return cfg, errFreqRange
	}
	return cfg, nil
}

func (c Config) adapterOptions() []broadcast.Option {
	if c.Parallel <= 1 {
		return nil
	}
	return []broadcast.Option{broadcast.WithParallel(c.Parallel)}
}

// Yin estimates the fundamental frequency per frame of a signal
// [..., samples] with the YIN difference-function method, producing
// [..., 1, frames] in Hz. Unvoiced frames fall back to the global
// minimum of the normalized difference.
func Yin(y *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	tauMax := int(cfg.SampleRate / cfg.FMin)
	tauMin := int(cfg.SampleRate / cfg.FMax)
	if tauMin < 1 {
		tauMin = 1
	}
	if tauMax >= cfg.FrameLength/2 {
		return nil, errFrameLength
	}

	return broadcast.Apply(y, 1, func(lane *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		samples := lane.Data()
		frames := 1 + (len(samples)-cfg.FrameLength)/cfg.HopLength
		if frames < 1 {
			return nil, errFrameLength
		}
		out := make([]float64, frames)
		diff := make([]float64, tauMax+1)
		cmndf := make([]float64, tauMax+1)
		for t := 0; t < frames; t++ {
			frame := samples[t*cfg.HopLength : t*cfg.HopLength+cfg.FrameLength]
			out[t] = yinFrame(frame, diff, cmndf, tauMin, tauMax, cfg.Threshold, cfg.SampleRate)
		}
		return ndarray.FromSlice(out, 1, frames)
	}, cfg.adapterOptions()...)
}

// yinFrame runs the difference function, cumulative mean normalization,
// thresholded trough selection and parabolic refinement on one frame.
func yinFrame(frame, diff, cmndf []float64, tauMin, tauMax int, threshold, sr float64) float64 {
	w := len(frame) / 2
	diff[0] = 0
	for tau := 1; tau <= tauMax; tau++ {
		var d float64
		for i := 0; i < w; i++ {
			delta := frame[i] - frame[i+tau]
			d += delta * delta
		}
		diff[tau] = d
	}

	cmndf[0] = 1
	var running float64
	for tau := 1; tau <= tauMax; tau++ {
		running += diff[tau]
		if running == 0 {
			cmndf[tau] = 1
			continue
		}
		cmndf[tau] = diff[tau] * float64(tau) / running
	}

	tau := -1
	for cand := tauMin; cand <= tauMax; cand++ {
		if cmndf[cand] >= threshold {
			continue
		}
		// Ride the trough to its local minimum.
		for cand+1 <= tauMax && cmndf[cand+1] < cmndf[cand] {
			cand++
		}
		tau = cand
		break
	}
	if tau < 0 {
		best := math.Inf(1)
		for cand := tauMin; cand <= tauMax; cand++ {
			if cmndf[cand] < best {
				best = cmndf[cand]
				tau = cand
			}
		}
	}

	refined := parabolicMin(cmndf, tau, tauMin, tauMax)
	return sr / refined
}

// parabolicMin refines an integer lag by fitting a parabola through the
// trough and its neighbours.
func parabolicMin(v []float64, tau, lo, hi int) float64 {
	if tau <= lo || tau >= hi {
		return float64(tau)
	}
	a := v[tau-1]
	b := v[tau]
	c := v[tau+1]
	denom := a - 2*b + c
	if denom == 0 {
		return float64(tau)
	}
	shift := (a - c) / (2 * denom)
	if shift > 0.5 {
		shift = 0.5
	}
	if shift < -0.5 {
		shift = -0.5
	}
	return float64(tau) + shift
}
