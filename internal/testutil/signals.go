package testutil

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-feat/ndarray"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for
// reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// StereoDistinct returns a [2, length] array whose channels are
// acoustically distinct: different fundamentals plus uncorrelated
// noise floors. Feature transforms must produce different outputs per
// channel on this fixture.
func StereoDistinct(sampleRate float64, length int) *ndarray.Array[float64] {
	left := DeterministicSine(440, sampleRate, 0.8, length)
	right := DeterministicSine(587.33, sampleRate, 0.6, length)
	ln := DeterministicNoise(11, 0.02, length)
	rn := DeterministicNoise(29, 0.05, length)

	data := make([]float64, 0, 2*length)
	for i := range length {
		data = append(data, left[i]+ln[i])
	}
	for i := range length {
		data = append(data, right[i]+rn[i])
	}
	out, err := ndarray.FromSlice(data, 2, length)
	if err != nil {
		panic(err)
	}
	return out
}

// ClickTrack returns a signal with unit impulses every period samples,
// starting at phase.
func ClickTrack(length, period, phase int) []float64 {
	out := make([]float64, length)
	for i := phase; i < length; i += period {
		out[i] = 1
	}
	return out
}

// BatchSines returns an array of the given batch shape with a sample
// lane of length n appended, where every batch slice carries a sine of
// a distinct frequency.
func BatchSines(sampleRate float64, n int, batchShape ...int) *ndarray.Array[float64] {
	shape := append(append([]int(nil), batchShape...), n)
	out := ndarray.New[float64](shape...)
	data := out.Data()

	slices := ndarray.Count(batchShape)
	for s := range slices {
		freq := 110 * math.Pow(1.26, float64(s))
		lane := DeterministicSine(freq, sampleRate, 0.7, n)
		copy(data[s*n:(s+1)*n], lane)
	}
	return out
}
