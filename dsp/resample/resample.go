package resample

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-feat/broadcast"
	"github.com/cwbudde/algo-feat/ndarray"
)

var (
	// ErrInvalidRatio indicates a non-positive up/down ratio.
	ErrInvalidRatio = errors.New("resample: invalid ratio")
	// ErrInvalidRate indicates a non-positive sample rate.
	ErrInvalidRate = errors.New("resample: invalid sample rate")
)

type config struct {
	tapsPerPhase int
	cutoffScale  float64
	kaiserBeta   float64
	maxDen       int
	workers      int
}

// Option configures the resampler.
type Option func(*config)

// WithTapsPerPhase sets the filter length per polyphase branch. More
// taps sharpen the anti-aliasing transition at higher cost.
func WithTapsPerPhase(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.tapsPerPhase = n
		}
	}
}

// WithCutoffScale scales the anti-aliasing cutoff within (0, 1], where 1
// is the theoretical Nyquist limit of the slower rate.
func WithCutoffScale(v float64) Option {
	return func(cfg *config) {
		if v > 0 && v <= 1 {
			cfg.cutoffScale = v
		}
	}
}

// WithKaiserBeta sets the Kaiser window shape parameter.
func WithKaiserBeta(beta float64) Option {
	return func(cfg *config) {
		if beta > 0 {
			cfg.kaiserBeta = beta
		}
	}
}

// WithMaxDenominator caps the rational approximation of the rate ratio.
func WithMaxDenominator(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.maxDen = n
		}
	}
}

// WithParallel forwards a worker count to the batch adapter.
func WithParallel(workers int) Option {
	return func(cfg *config) { cfg.workers = workers }
}

func defaultConfig() config {
	return config{
		tapsPerPhase: 32,
		cutoffScale:  0.92,
		kaiserBeta:   7.5,
		maxDen:       4096,
	}
}

// Converter resamples lanes by a fixed rational ratio.
type Converter struct {
	up, down int
	phases   [][]float64
	workers  int
}

// New creates a converter for the reduced ratio up/down.
func New(up, down int, opts ...Option) (*Converter, error) {
	if up <= 0 || down <= 0 {
		return nil, ErrInvalidRatio
	}
	g := gcd(up, down)
	up /= g
	down /= g

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	phases, err := polyphaseBank(up, down, cfg)
	if err != nil {
		return nil, err
	}
	return &Converter{up: up, down: down, phases: phases, workers: cfg.workers}, nil
}

// NewForRates creates a converter approximating outRate/inRate as a
// rational ratio.
func NewForRates(inRate, outRate float64, opts ...Option) (*Converter, error) {
	if inRate <= 0 || outRate <= 0 || math.IsNaN(inRate) || math.IsNaN(outRate) {
		return nil, ErrInvalidRate
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	up, down := approximateRatio(outRate/inRate, cfg.maxDen)
	return New(up, down, opts...)
}

// Ratio returns the reduced conversion factors.
func (c *Converter) Ratio() (up, down int) { return c.up, c.down }

// OutputLen returns the number of output samples produced for an input
// lane of length n.
func (c *Converter) OutputLen(n int) int {
	if n <= 0 {
		return 0
	}
	return (n*c.up + c.down - 1) / c.down
}

// Lane resamples a single sample slice. Samples beyond either end are
// treated as zero.
func (c *Converter) Lane(input []float64) []float64 {
	out := make([]float64, c.OutputLen(len(input)))
	for m := range out {
		pos := m * c.down
		idx := pos / c.up
		taps := c.phases[pos%c.up]

		var y float64
		for k, coeff := range taps {
			j := idx - k
			if j < 0 || j >= len(input) {
				continue
			}
			y += coeff * input[j]
		}
		out[m] = y
	}
	return out
}

// Apply resamples every lane of y [..., samples], preserving the batch
// axes.
func (c *Converter) Apply(y *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
	var opts []broadcast.Option
	if c.workers > 1 {
		opts = append(opts, broadcast.WithParallel(c.workers))
	}
	return broadcast.Apply(y, 1, func(lane *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		out := c.Lane(lane.Data())
		return ndarray.FromSlice(out, len(out))
	}, opts...)
}

// Apply is a one-shot helper converting y [..., samples] from inRate to
// outRate.
func Apply(y *ndarray.Array[float64], inRate, outRate float64, opts ...Option) (*ndarray.Array[float64], error) {
	c, err := NewForRates(inRate, outRate, opts...)
	if err != nil {
		return nil, err
	}
	return c.Apply(y)
}
