package filters

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Chroma builds a [nChroma x bins] filterbank folding STFT bins onto
// pitch classes. Each bin contributes a wrapped Gaussian around its
// fractional pitch class relative to A440; columns are L2-normalized so
// pure tones land on a single class.
func Chroma(sampleRate float64, nfft, nChroma int) (*mat.Dense, error) {
	if nChroma <= 0 || nfft <= 0 {
		return nil, fmt.Errorf("filters: chroma bank needs nfft > 0 and nChroma > 0: %d, %d", nfft, nChroma)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("filters: sample rate must be > 0: %f", sampleRate)
	}

	bins := 1 + nfft/2
	w := mat.NewDense(nChroma, bins, nil)
	n := float64(nChroma)

	// Half-semitone Gaussian, in chroma-bin units.
	sigma := n / 12.0 * 0.5

	for k := 1; k < bins; k++ {
		f := sampleRate * float64(k) / float64(nfft)
		// Fractional chroma bin of this frequency.
		c := n * math.Log2(f/27.5)
		c = math.Mod(c, n)
		if c < 0 {
			c += n
		}
		for m := range nChroma {
			d := math.Abs(float64(m) - c)
			if n-d < d {
				d = n - d
			}
			w.Set(m, k, math.Exp(-0.5*(d/sigma)*(d/sigma)))
		}
	}

	// Column normalization keeps per-bin energy comparable.
	for k := range bins {
		s := 0.0
		for m := range nChroma {
			v := w.At(m, k)
			s += v * v
		}
		if s == 0 {
			continue
		}
		s = math.Sqrt(s)
		for m := range nChroma {
			w.Set(m, k, w.At(m, k)/s)
		}
	}
	return w, nil
}
