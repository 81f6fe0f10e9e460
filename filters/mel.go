package filters

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Slaney-style mel scale: linear below 1 kHz, logarithmic above.
const (
	melLinearStep = 200.0 / 3.0
	melLogHz      = 1000.0
	melLogMel     = melLogHz / melLinearStep
)

var melLogStep = math.Log(6.4) / 27.0

// HzToMel converts a frequency in Hz to mels.
func HzToMel(hz float64) float64 {
	if hz < melLogHz {
		return hz / melLinearStep
	}
	return melLogMel + math.Log(hz/melLogHz)/melLogStep
}

// MelToHz converts a frequency in mels to Hz.
func MelToHz(mel float64) float64 {
	if mel < melLogMel {
		return mel * melLinearStep
	}
	return melLogHz * math.Exp(melLogStep*(mel-melLogMel))
}

// Mel builds a [nMels x bins] triangular mel filterbank for an STFT
// with nfft points at the given sample rate, area-normalized per
// filter. fmax <= 0 selects the Nyquist frequency.
func Mel(sampleRate float64, nfft, nMels int, fmin, fmax float64) (*mat.Dense, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("filters: sample rate must be > 0: %f", sampleRate)
	}
	if nMels <= 0 || nfft <= 0 {
		return nil, fmt.Errorf("filters: mel bank needs nfft > 0 and nMels > 0: %d, %d", nfft, nMels)
	}
	if fmax <= 0 {
		fmax = sampleRate / 2
	}
	if fmin < 0 || fmin >= fmax {
		return nil, fmt.Errorf("filters: invalid mel range [%f, %f]", fmin, fmax)
	}

	bins := 1 + nfft/2

	// Filter edge frequencies, uniform in mel space.
	edges := make([]float64, nMels+2)
	lo, hi := HzToMel(fmin), HzToMel(fmax)
	for i := range edges {
		edges[i] = MelToHz(lo + (hi-lo)*float64(i)/float64(nMels+1))
	}

	w := mat.NewDense(nMels, bins, nil)
	for m := range nMels {
		left, center, right := edges[m], edges[m+1], edges[m+2]
		norm := 2 / (right - left)
		for k := range bins {
			f := sampleRate * float64(k) / float64(nfft)
			var v float64
			switch {
			case f <= left || f >= right:
				v = 0
			case f <= center:
				v = (f - left) / (center - left)
			default:
				v = (right - f) / (right - center)
			}
			w.Set(m, k, v*norm)
		}
	}
	return w, nil
}
