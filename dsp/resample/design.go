package resample

import (
	"errors"
	"math"
)

// polyphaseBank designs a Kaiser-windowed sinc lowpass at the
// anti-aliasing cutoff of the slower rate and splits it into up
// polyphase branches, with overall DC gain up.
func polyphaseBank(up, down int, cfg config) ([][]float64, error) {
	nTaps := cfg.tapsPerPhase * up
	slower := up
	if down > slower {
		slower = down
	}
	fc := 0.5 / float64(slower) * cfg.cutoffScale
	if fc <= 0 || fc >= 0.5 {
		return nil, errors.New("resample: cutoff outside (0, 0.5)")
	}

	taps := make([]float64, nTaps)
	center := 0.5 * float64(nTaps-1)
	var sum float64
	for n := range taps {
		t := float64(n) - center
		taps[n] = 2 * fc * sinc(2*fc*t) * kaiser(n, nTaps, cfg.kaiserBeta)
		sum += taps[n]
	}
	if sum == 0 {
		return nil, errors.New("resample: designed zero-sum filter")
	}
	scale := float64(up) / sum
	for i := range taps {
		taps[i] *= scale
	}

	phases := make([][]float64, up)
	for p := range phases {
		branch := make([]float64, 0, (nTaps-p+up-1)/up)
		for i := p; i < nTaps; i += up {
			branch = append(branch, taps[i])
		}
		phases[p] = branch
	}
	return phases, nil
}

// approximateRatio expands v as a continued fraction, stopping before
// the denominator exceeds maxDen.
func approximateRatio(v float64, maxDen int) (num, den int) {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1, 1
	}
	p0, q0 := 1.0, 0.0
	p1, q1 := math.Floor(v), 1.0
	x := v
	for {
		frac := x - math.Floor(x)
		if frac == 0 {
			break
		}
		x = 1 / frac
		a := math.Floor(x)
		p2 := a*p1 + p0
		q2 := a*q1 + q0
		if q2 > float64(maxDen) {
			break
		}
		p0, q0 = p1, q1
		p1, q1 = p2, q2
	}

	num = int(math.Round(p1))
	den = int(math.Round(q1))
	if num <= 0 || den <= 0 {
		return 1, 1
	}
	g := gcd(num, den)
	return num / g, den / g
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

func kaiser(i, n int, beta float64) float64 {
	if n <= 1 || beta <= 0 {
		return 1
	}
	t := 2*float64(i)/float64(n-1) - 1
	return besselI0(beta*math.Sqrt(math.Max(0, 1-t*t))) / besselI0(beta)
}

// besselI0 sums the power series of the zeroth-order modified Bessel
// function until convergence.
func besselI0(x float64) float64 {
	sum, term := 1.0, 1.0
	x2 := x * x / 4
	for k := 1; k < 64; k++ {
		term *= x2 / float64(k*k)
		sum += term
		if term < 1e-16*sum {
			break
		}
	}
	return sum
}
