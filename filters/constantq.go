package filters

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ConstantQ builds a [nBins x bins] log-frequency bank projecting STFT
// bins onto geometrically spaced center frequencies starting at fmin
// with binsPerOctave bins per octave. Filters are triangular in
// log-frequency with constant-Q bandwidth, area-normalized.
func ConstantQ(sampleRate float64, nfft, nBins, binsPerOctave int, fmin float64) (*mat.Dense, error) {
	if nBins <= 0 || binsPerOctave <= 0 {
		return nil, fmt.Errorf("filters: constant-q bank needs nBins > 0 and binsPerOctave > 0: %d, %d", nBins, binsPerOctave)
	}
	if fmin <= 0 {
		return nil, fmt.Errorf("filters: constant-q fmin must be > 0: %f", fmin)
	}
	nyquist := sampleRate / 2
	top := fmin * math.Pow(2, float64(nBins)/float64(binsPerOctave))
	if top > nyquist {
		return nil, fmt.Errorf("filters: constant-q top frequency %f exceeds nyquist %f", top, nyquist)
	}

	bins := 1 + nfft/2
	w := mat.NewDense(nBins, bins, nil)

	// Half-width of each filter in octaves.
	half := 1 / float64(binsPerOctave)

	for b := range nBins {
		center := fmin * math.Pow(2, float64(b)/float64(binsPerOctave))
		lo := center * math.Pow(2, -half)
		hi := center * math.Pow(2, half)
		norm := 2 / (hi - lo)
		for k := 1; k < bins; k++ {
			f := sampleRate * float64(k) / float64(nfft)
			if f <= lo || f >= hi {
				continue
			}
			var v float64
			if f <= center {
				v = (f - lo) / (center - lo)
			} else {
				v = (hi - f) / (hi - center)
			}
			w.Set(b, k, v*norm)
		}
	}
	return w, nil
}

// CQFrequencies returns the center frequency of each constant-Q bin.
func CQFrequencies(nBins, binsPerOctave int, fmin float64) []float64 {
	out := make([]float64, nBins)
	for b := range out {
		out[b] = fmin * math.Pow(2, float64(b)/float64(binsPerOctave))
	}
	return out
}
