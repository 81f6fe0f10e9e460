package feature

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-feat/broadcast"
	"github.com/cwbudde/algo-feat/ndarray"
)

const tiny = 1e-10

// project multiplies a [rows x bins] basis onto a [bins, frames] slab and
// returns the [rows, frames] product.
func project(basis *mat.Dense, slab *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
	sh := slab.Shape()
	rows, cols := basis.Dims()
	if cols != sh[0] {
		return nil, fmt.Errorf("feature: basis expects %d bins, spectrogram has %d", cols, sh[0])
	}
	src := mat.NewDense(sh[0], sh[1], slab.Data())
	var dst mat.Dense
	dst.Mul(basis, src)
	return ndarray.FromSlice(dst.RawMatrix().Data, rows, sh[1])
}

func (c Config) adapterOptions() []broadcast.Option {
	if c.Parallel <= 1 {
		return nil
	}
	return []broadcast.Option{broadcast.WithParallel(c.Parallel)}
}

// binFrequencies returns the FFT bin centers implied by a spectrogram with
// the given number of bins, assuming bins = 1 + nfft/2.
func binFrequencies(sr float64, bins int) []float64 {
	nfft := 2 * (bins - 1)
	f := make([]float64, bins)
	for k := range f {
		f[k] = sr * float64(k) / float64(nfft)
	}
	return f
}

// resolveFrequencies validates an optional frequency map against a
// spectrogram. A nil freq yields the static FFT bin centers. A rank-1 freq
// is shared across the batch; otherwise freq must carry the same batch
// shape as the spectrogram with [bins, frames] operating axes.
func resolveFrequencies(s, freq *ndarray.Array[float64], sr float64) (*ndarray.Array[float64], int, error) {
	if s.Rank() < 2 {
		return nil, 0, fmt.Errorf("feature: spectrogram rank %d below 2: %w", s.Rank(), ndarray.ErrInvalidAxis)
	}
	bins := s.Shape()[s.Rank()-2]
	if freq == nil {
		static, err := ndarray.FromSlice(binFrequencies(sr, bins), bins)
		if err != nil {
			return nil, 0, err
		}
		return static, 1, nil
	}
	switch freq.Rank() {
	case 1:
		if freq.Shape()[0] != bins {
			return nil, 0, fmt.Errorf("feature: frequency map has %d bins, spectrogram has %d: %w",
				freq.Shape()[0], bins, broadcast.ErrShapeMismatch)
		}
		return freq, 1, nil
	default:
		return freq, 2, nil
	}
}

// frameCount mirrors the framing used by RMS and ZeroCrossingRate: the
// signal is padded by frameLength/2 on both sides and sliced every hop.
func frameCount(n, frameLength, hop int) int {
	return 1 + (n+2*(frameLength/2)-frameLength)/hop
}

// frameAt copies frame t of a zero-padded lane into dst.
func frameAt(dst, lane []float64, t, frameLength, hop int) {
	pad := frameLength / 2
	start := t*hop - pad
	for i := range dst {
		j := start + i
		if j < 0 || j >= len(lane) {
			dst[i] = 0
			continue
		}
		dst[i] = lane[j]
	}
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
