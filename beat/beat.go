// Package beat estimates tempo from onset envelopes and aggregates
// features over beat intervals.
package beat

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-feat/broadcast"
	"github.com/cwbudde/algo-feat/feature"
	"github.com/cwbudde/algo-feat/ndarray"
	"github.com/cwbudde/algo-feat/segment"
)

var errTempoRange = errors.New("beat: tempo range is empty")

// Config tunes tempo estimation.
type Config struct {
	// FrameRate is the number of envelope frames per second, usually
	// sample rate divided by the spectrogram hop length.
	FrameRate float64
	// MinBPM and MaxBPM bound the search.
	MinBPM float64
	MaxBPM float64
	// Window is the tempogram window length in frames.
	Window int
	// Parallel is forwarded to the batch adapter.
	Parallel int
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		FrameRate: 22050.0 / 512,
		MinBPM:    30,
		MaxBPM:    300,
		Window:    384,
	}
}

// WithFrameRate sets the envelope frame rate in Hz.
func WithFrameRate(fps float64) Option {
	return func(c *Config) { c.FrameRate = fps }
}

// WithBPMRange bounds the tempo search.
func WithBPMRange(minBPM, maxBPM float64) Option {
	return func(c *Config) {
		c.MinBPM = minBPM
		c.MaxBPM = maxBPM
	}
}

// WithWindow sets the tempogram window length in frames.
func WithWindow(n int) Option {
	return func(c *Config) { c.Window = n }
}

// WithParallel forwards a worker count to the batch adapter.
func WithParallel(workers int) Option {
	return func(c *Config) { c.Parallel = workers }
}

// Tempo estimates the dominant tempo of an onset envelope [..., frames]
// in beats per minute, producing [..., 1]. The tempogram is averaged
// over time and the strongest lag inside the BPM bounds wins.
func Tempo(env *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.FrameRate <= 0 {
		return nil, fmt.Errorf("beat: frame rate %v must be positive", cfg.FrameRate)
	}
	if cfg.MinBPM <= 0 || cfg.MaxBPM <= cfg.MinBPM {
		return nil, errTempoRange
	}

	featOpts := []feature.Option{feature.WithTempoWindow(cfg.Window)}
	var adapterOpts []broadcast.Option
	if cfg.Parallel > 1 {
		featOpts = append(featOpts, feature.WithParallel(cfg.Parallel))
		adapterOpts = append(adapterOpts, broadcast.WithParallel(cfg.Parallel))
	}

	return broadcast.Apply(env, 1, func(lane *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		tg, err := feature.Tempogram(lane, featOpts...)
		if err != nil {
			return nil, err
		}
		sh := tg.Shape()
		lags, frames := sh[0], sh[1]

		bestBPM, bestVal := 0.0, -1.0
		for l := 1; l < lags; l++ {
			bpm := 60 * cfg.FrameRate / float64(l)
			if bpm < cfg.MinBPM || bpm > cfg.MaxBPM {
				continue
			}
			var mean float64
			for t := 0; t < frames; t++ {
				mean += tg.At(l, t)
			}
			mean /= float64(frames)
			if mean > bestVal {
				bestBPM, bestVal = bpm, mean
			}
		}
		if bestVal < 0 {
			return nil, errTempoRange
		}
		return ndarray.FromSlice([]float64{bestBPM}, 1)
	}, adapterOpts...)
}

// Synchronize aggregates a feature array [..., d, frames] over beat
// intervals along the frame axis. beatFrames lists interval boundaries in
// ascending frame order; the implied intervals cover the full range, as
// with segment.FromCuts. A nil agg takes the mean per interval.
func Synchronize(data *ndarray.Array[float64], beatFrames []int, agg segment.Aggregator) (*ndarray.Array[float64], error) {
	if data.Rank() < 1 {
		return nil, ndarray.ErrInvalidAxis
	}
	frames := data.Shape()[data.Rank()-1]
	intervals := segment.FromCuts(beatFrames, frames)
	return segment.Sync(data, intervals, -1, agg)
}
