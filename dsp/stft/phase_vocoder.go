package stft

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-feat/broadcast"
	"github.com/cwbudde/algo-feat/ndarray"
)

// PhaseVocoder time-stretches a complex spectrogram by rate (rate > 1
// speeds up, rate < 1 slows down) with phase accumulation, preserving
// batch axes. The output has ceil(frames/rate) frames.
func PhaseVocoder(d *ndarray.Array[complex128], rate float64, opts ...Option) (*ndarray.Array[complex128], error) {
	if rate <= 0 {
		return nil, fmt.Errorf("stft: phase vocoder rate must be > 0: %f", rate)
	}
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	return broadcast.Apply(d, 2, func(slab *ndarray.Array[complex128]) (*ndarray.Array[complex128], error) {
		return lanePhaseVocoder(slab, rate, cfg)
	}, parallelOpts(cfg)...)
}

func lanePhaseVocoder(d *ndarray.Array[complex128], rate float64, cfg Config) (*ndarray.Array[complex128], error) {
	shape := d.Shape()
	bins, frames := shape[0], shape[1]

	// Expected phase advance per hop for each bin.
	advance := make([]float64, bins)
	for k := range advance {
		advance[k] = math.Pi * float64(cfg.HopLength) * float64(k) / float64(bins-1)
	}

	outFrames := int(math.Ceil(float64(frames) / rate))
	out := ndarray.New[complex128](bins, outFrames)

	phase := make([]float64, bins)
	for k := range bins {
		phase[k] = cmplx.Phase(d.At(k, 0))
	}

	col := func(t int, k int) complex128 {
		if t >= frames {
			return 0
		}
		return d.At(k, t)
	}

	step := 0.0
	for t := range outFrames {
		i := int(step)
		frac := step - float64(i)

		for k := range bins {
			a := col(i, k)
			b := col(i+1, k)

			mag := (1-frac)*cmplx.Abs(a) + frac*cmplx.Abs(b)
			out.Set(cmplx.Rect(mag, phase[k]), k, t)

			// Instantaneous frequency from the wrapped phase deviation.
			dp := cmplx.Phase(b) - cmplx.Phase(a) - advance[k]
			dp -= 2 * math.Pi * math.Round(dp/(2*math.Pi))
			phase[k] += advance[k] + dp
		}
		step += rate
	}
	return out, nil
}
