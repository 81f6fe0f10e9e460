package stft

import "fmt"

// padCenter extends y by nfft/2 samples on both sides according to the
// pad mode, so that frame t is centered on sample t*hop.
func padCenter(y []float64, nfft int, mode PadMode) []float64 {
	p := nfft / 2
	out := make([]float64, len(y)+2*p)
	copy(out[p:], y)

	if mode == PadConstant || len(y) < 2 {
		return out
	}

	// Mirror without repeating the edge sample.
	period := 2 * (len(y) - 1)
	for i := range p {
		out[p-1-i] = y[mirror(i+1, period, len(y))]
		out[p+len(y)+i] = y[mirror(len(y)+i, period, len(y))]
	}
	return out
}

func mirror(i, period, n int) int {
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}

// frameCount returns the number of analysis frames for a padded signal.
func frameCount(padded, nfft, hop int) (int, error) {
	if padded < nfft {
		return 0, fmt.Errorf("%w: %d padded samples, frame %d", errShort, padded, nfft)
	}
	return 1 + (padded-nfft)/hop, nil
}
