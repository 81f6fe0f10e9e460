package window

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies an analysis window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
	TypeTriangle
	TypeCosine
	TypeWelch
	TypeTukey
)

// Option configures window generation.
type Option func(*config)

type config struct {
	alpha    float64
	periodic bool
}

func defaultConfig() config {
	return config{alpha: 0.5}
}

// WithAlpha configures the shape parameter for parametric windows
// (the taper fraction for Tukey).
func WithAlpha(v float64) Option {
	return func(c *config) {
		if v >= 0 {
			c.alpha = v
		}
	}
}

// WithPeriodic selects the periodic (DFT-even) form used for FFT
// framing instead of the symmetric form used for filter design.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Generate returns window coefficients of the given length.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	for i := range out {
		out[i] = eval(t, samplePosition(i, length, cfg.periodic), cfg)
	}
	return out
}

// samplePosition maps sample index i to x in [0, 1]. The periodic form
// behaves as one sample of a (length+1)-point symmetric window.
func samplePosition(i, length int, periodic bool) float64 {
	den := length - 1
	if periodic {
		den = length
	}
	if den == 0 {
		return 0.5
	}
	return float64(i) / float64(den)
}

func eval(t Type, x float64, cfg config) float64 {
	switch t {
	case TypeHann:
		return 0.5 - 0.5*math.Cos(2*math.Pi*x)
	case TypeHamming:
		return 0.54 - 0.46*math.Cos(2*math.Pi*x)
	case TypeBlackman:
		return 0.42 - 0.5*math.Cos(2*math.Pi*x) + 0.08*math.Cos(4*math.Pi*x)
	case TypeTriangle:
		return 1 - math.Abs(2*x-1)
	case TypeCosine:
		return math.Sin(math.Pi * x)
	case TypeWelch:
		d := 2*x - 1
		return 1 - d*d
	case TypeTukey:
		a := cfg.alpha
		if a <= 0 {
			return 1
		}
		if x < a/2 {
			return 0.5 * (1 + math.Cos(math.Pi*(2*x/a-1)))
		}
		if x > 1-a/2 {
			return 0.5 * (1 + math.Cos(math.Pi*(2*x/a-2/a+1)))
		}
		return 1
	default:
		return 1
	}
}

// Hann returns Hann window coefficients.
func Hann(size int, opts ...Option) ([]float64, error) {
	return Generate(TypeHann, size, opts...), validateLength(size)
}

// Hamming returns Hamming window coefficients.
func Hamming(size int, opts ...Option) ([]float64, error) {
	return Generate(TypeHamming, size, opts...), validateLength(size)
}

// Blackman returns Blackman window coefficients.
func Blackman(size int, opts ...Option) ([]float64, error) {
	return Generate(TypeBlackman, size, opts...), validateLength(size)
}

// ApplyCoefficients multiplies samples with coefficients into a new slice.
func ApplyCoefficients(samples, coeffs []float64) ([]float64, error) {
	if len(samples) != len(coeffs) {
		return nil, errMismatchedLength
	}
	out := make([]float64, len(samples))
	vecmath.MulBlock(out, samples, coeffs)
	return out, nil
}

// ApplyCoefficientsInPlace multiplies samples with coefficients in place.
func ApplyCoefficientsInPlace(samples, coeffs []float64) error {
	if len(samples) != len(coeffs) {
		return errMismatchedLength
	}
	vecmath.MulBlockInPlace(samples, coeffs)
	return nil
}

// SumSquares returns the sum of squared coefficients, the normalization
// the overlap-add inverse needs.
func SumSquares(coeffs []float64) float64 {
	s := 0.0
	for _, c := range coeffs {
		s += c * c
	}
	return s
}
