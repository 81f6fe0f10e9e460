package feature_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-feat/dsp/stft"
	"github.com/cwbudde/algo-feat/feature"
	"github.com/cwbudde/algo-feat/internal/testutil"
	"github.com/cwbudde/algo-feat/ndarray"
)

const sr = 22050

func monoSine(t *testing.T, freq float64, n int) *ndarray.Array[float64] {
	t.Helper()
	y, err := ndarray.FromSlice(testutil.DeterministicSine(freq, sr, 0.5, n), n)
	require.NoError(t, err)
	return y
}

func magSpectrogram(t *testing.T, y *ndarray.Array[float64], opts ...stft.Option) *ndarray.Array[float64] {
	t.Helper()
	d, err := stft.STFT(y, opts...)
	require.NoError(t, err)
	return stft.Magnitude(d)
}

func TestMelSpectrogramShape(t *testing.T) {
	y := monoSine(t, 440, 8192)
	mel, err := feature.MelSpectrogram(y, feature.WithSTFT(stft.WithNFFT(1024)))
	require.NoError(t, err)
	require.Equal(t, 2, mel.Rank())
	require.Equal(t, []int{128, 1 + 8192/256}, mel.Shape())
	testutil.RequireFinite(t, mel.Data())
}

func TestMelSpectrogramChannelIndependence(t *testing.T) {
	stereo := testutil.StereoDistinct(sr, 4096)
	opts := []feature.Option{feature.WithSTFT(stft.WithNFFT(512))}

	batched, err := feature.MelSpectrogram(stereo, opts...)
	require.NoError(t, err)
	for ch := 0; ch < 2; ch++ {
		lane, err := stereo.Index(0, ch)
		require.NoError(t, err)
		solo, err := feature.MelSpectrogram(lane, opts...)
		require.NoError(t, err)
		testutil.RequireChannelMatch(t, batched, solo, ch, 0)
	}
	testutil.RequireChannelsDiffer(t, batched, 0, 1, 1e-12)
}

func TestMFCC(t *testing.T) {
	stereo := testutil.StereoDistinct(sr, 4096)
	opts := []feature.Option{
		feature.WithSTFT(stft.WithNFFT(512)),
		feature.WithMelBands(40),
		feature.WithMFCCCount(13),
	}
	cc, err := feature.MFCC(stereo, opts...)
	require.NoError(t, err)
	require.Equal(t, []int{2, 13, 1 + 4096/128}, cc.Shape())
	testutil.RequireFinite(t, cc.Data())
	testutil.RequireChannelsDiffer(t, cc, 0, 1, 1e-12)

	lane, err := stereo.Index(0, 1)
	require.NoError(t, err)
	solo, err := feature.MFCC(lane, opts...)
	require.NoError(t, err)
	testutil.RequireChannelMatch(t, cc, solo, 1, 0)
}

func TestChromaSTFTPureTone(t *testing.T) {
	// 440 Hz is pitch class A, the reference class of the chroma bank.
	y := monoSine(t, 440, 8192)
	chroma, err := feature.ChromaSTFT(y, feature.WithSTFT(stft.WithNFFT(2048)))
	require.NoError(t, err)
	require.Equal(t, 12, chroma.Shape()[0])

	frames := chroma.Shape()[1]
	mid := frames / 2
	best, bestVal := -1, -1.0
	for c := 0; c < 12; c++ {
		if v := chroma.At(c, mid); v > bestVal {
			best, bestVal = c, v
		}
	}
	require.Equal(t, 0, best)
	require.InDelta(t, 1.0, bestVal, 1e-12) // frames are peak normalized
}

func TestChromaCQTPureTone(t *testing.T) {
	// 440 Hz folds onto pitch class A, nine semitones above the bank's
	// C-aligned origin.
	y := monoSine(t, 440, 8192)
	chroma, err := feature.ChromaCQT(y)
	require.NoError(t, err)
	require.Equal(t, []int{12, 1 + 8192/512}, chroma.Shape())

	mid := chroma.Shape()[1] / 2
	best, bestVal := -1, -1.0
	for c := 0; c < 12; c++ {
		if v := chroma.At(c, mid); v > bestVal {
			best, bestVal = c, v
		}
	}
	require.Equal(t, 9, best)
	require.InDelta(t, 1.0, bestVal, 1e-12)
}

func TestChromaCQTChannelIndependence(t *testing.T) {
	stereo := testutil.StereoDistinct(sr, 4096)
	batched, err := feature.ChromaCQT(stereo)
	require.NoError(t, err)
	for ch := 0; ch < 2; ch++ {
		lane, err := stereo.Index(0, ch)
		require.NoError(t, err)
		solo, err := feature.ChromaCQT(lane)
		require.NoError(t, err)
		testutil.RequireChannelMatch(t, batched, solo, ch, 0)
	}
	testutil.RequireChannelsDiffer(t, batched, 0, 1, 1e-12)
}

func TestChromaCENSUnitFrames(t *testing.T) {
	y := monoSine(t, 440, 8192)
	cens, err := feature.ChromaCENS(y, feature.WithCENSWindow(9))
	require.NoError(t, err)
	require.Equal(t, []int{12, 17}, cens.Shape())

	frames := cens.Shape()[1]
	for f := 0; f < frames; f++ {
		ss := 0.0
		best, bestVal := -1, -1.0
		for k := 0; k < 12; k++ {
			v := cens.At(k, f)
			require.GreaterOrEqual(t, v, 0.0)
			ss += v * v
			if v > bestVal {
				best, bestVal = k, v
			}
		}
		require.InDelta(t, 1.0, ss, 1e-9)
		require.Equal(t, 9, best)
	}
}

func TestChromaCENSChannelIndependence(t *testing.T) {
	stereo := testutil.StereoDistinct(sr, 4096)
	opts := []feature.Option{feature.WithCENSWindow(9)}
	batched, err := feature.ChromaCENS(stereo, opts...)
	require.NoError(t, err)
	for ch := 0; ch < 2; ch++ {
		lane, err := stereo.Index(0, ch)
		require.NoError(t, err)
		solo, err := feature.ChromaCENS(lane, opts...)
		require.NoError(t, err)
		testutil.RequireChannelMatch(t, batched, solo, ch, 0)
	}
	testutil.RequireChannelsDiffer(t, batched, 0, 1, 1e-12)
}

func TestChromaCENSRejectsBadWindow(t *testing.T) {
	y := monoSine(t, 440, 2048)
	_, err := feature.ChromaCENS(y, feature.WithCENSWindow(0))
	require.Error(t, err)
}

func TestSpectralCentroidPureTone(t *testing.T) {
	y := monoSine(t, 440, 8192)
	s := magSpectrogram(t, y, stft.WithNFFT(2048))
	c, err := feature.SpectralCentroid(s, nil)
	require.NoError(t, err)
	require.Equal(t, []int{1, s.Shape()[1]}, c.Shape())

	mid := s.Shape()[1] / 2
	require.InDelta(t, 440, c.At(0, mid), 25)
}

func TestSpectralCentroidLockstepFrequencies(t *testing.T) {
	// Identical channels with per-channel frequency maps: channel 1's
	// doubled map must double its centroid, proving the aux array is
	// resolved per slice rather than shared from channel 0.
	y := monoSine(t, 440, 4096)
	s := magSpectrogram(t, y, stft.WithNFFT(512))
	bins, frames := s.Shape()[0], s.Shape()[1]

	data := make([]float64, 0, 2*bins*frames)
	data = append(data, s.Data()...)
	data = append(data, s.Data()...)
	both, err := ndarray.FromSlice(data, 2, bins, frames)
	require.NoError(t, err)

	freqs := make([]float64, 0, 2*bins*frames)
	for scale := 1.0; scale <= 2; scale++ {
		for k := 0; k < bins; k++ {
			f := scale * sr * float64(k) / 512
			for tt := 0; tt < frames; tt++ {
				freqs = append(freqs, f)
			}
		}
	}
	fmap, err := ndarray.FromSlice(freqs, 2, bins, frames)
	require.NoError(t, err)

	c, err := feature.SpectralCentroid(both, fmap)
	require.NoError(t, err)
	for tt := 0; tt < frames; tt++ {
		require.InDelta(t, 2*c.At(0, 0, tt), c.At(1, 0, tt), 1e-9)
	}
}

func TestSpectralBandwidthNoiseExceedsTone(t *testing.T) {
	tone := magSpectrogram(t, monoSine(t, 440, 4096), stft.WithNFFT(512))
	noiseLane, err := ndarray.FromSlice(testutil.DeterministicNoise(7, 0.5, 4096), 4096)
	require.NoError(t, err)
	noise := magSpectrogram(t, noiseLane, stft.WithNFFT(512))

	bwTone, err := feature.SpectralBandwidth(tone, nil)
	require.NoError(t, err)
	bwNoise, err := feature.SpectralBandwidth(noise, nil)
	require.NoError(t, err)

	mid := tone.Shape()[1] / 2
	require.Greater(t, bwNoise.At(0, mid), bwTone.At(0, mid))
}

func TestSpectralRolloff(t *testing.T) {
	y := monoSine(t, 440, 4096)
	s := magSpectrogram(t, y, stft.WithNFFT(512))
	r, err := feature.SpectralRolloff(s, nil, feature.WithRollPercent(0.85))
	require.NoError(t, err)

	mid := s.Shape()[1] / 2
	v := r.At(0, mid)
	require.GreaterOrEqual(t, v, 0.0)
	require.LessOrEqual(t, v, float64(sr)/2)
	require.InDelta(t, 440, v, 60)
}

func TestSpectralFlatnessSeparatesToneFromNoise(t *testing.T) {
	tone := magSpectrogram(t, monoSine(t, 440, 4096), stft.WithNFFT(512))
	noiseLane, err := ndarray.FromSlice(testutil.DeterministicNoise(13, 0.5, 4096), 4096)
	require.NoError(t, err)
	noise := magSpectrogram(t, noiseLane, stft.WithNFFT(512))

	ft, err := feature.SpectralFlatness(tone)
	require.NoError(t, err)
	fn, err := feature.SpectralFlatness(noise)
	require.NoError(t, err)

	mid := tone.Shape()[1] / 2
	require.Less(t, ft.At(0, mid), 0.01)
	require.Greater(t, fn.At(0, mid), 10*ft.At(0, mid))
}

func TestSpectralContrast(t *testing.T) {
	stereo := testutil.StereoDistinct(sr, 4096)
	d, err := stft.STFT(stereo, stft.WithNFFT(1024))
	require.NoError(t, err)
	s := stft.Magnitude(d)

	c, err := feature.SpectralContrast(s, nil, feature.WithContrastBands(6))
	require.NoError(t, err)
	require.Equal(t, []int{2, 7, s.Shape()[2]}, c.Shape())
	testutil.RequireFinite(t, c.Data())
	testutil.RequireChannelsDiffer(t, c, 0, 1, 1e-12)
}

func TestPolyFeaturesRecoversLinearSpectrum(t *testing.T) {
	const bins, frames = 9, 4
	f := make([]float64, bins)
	for k := range f {
		f[k] = sr * float64(k) / float64(2*(bins-1))
	}
	data := make([]float64, bins*frames)
	for k := 0; k < bins; k++ {
		for tt := 0; tt < frames; tt++ {
			data[k*frames+tt] = 2 + 3e-3*f[k]
		}
	}
	s, err := ndarray.FromSlice(data, bins, frames)
	require.NoError(t, err)

	coef, err := feature.PolyFeatures(s, nil, feature.WithPolyOrder(1))
	require.NoError(t, err)
	require.Equal(t, []int{2, frames}, coef.Shape())
	for tt := 0; tt < frames; tt++ {
		require.InDelta(t, 2.0, coef.At(0, tt), 1e-8)
		require.InDelta(t, 3e-3, coef.At(1, tt), 1e-10)
	}
}

func TestRMSOfSine(t *testing.T) {
	y := monoSine(t, 440, 8192)
	r, err := feature.RMS(y, feature.WithFrameLength(512), feature.WithHopLength(128))
	require.NoError(t, err)
	require.Equal(t, []int{1, 1 + 8192/128}, r.Shape())

	mid := r.Shape()[1] / 2
	require.InDelta(t, 0.5/math.Sqrt2, r.At(0, mid), 0.01)
}

func TestRMSChannelIndependence(t *testing.T) {
	stereo := testutil.StereoDistinct(sr, 4096)
	r, err := feature.RMS(stereo)
	require.NoError(t, err)
	testutil.RequireChannelsDiffer(t, r, 0, 1, 1e-12)

	lane, err := stereo.Index(0, 0)
	require.NoError(t, err)
	solo, err := feature.RMS(lane)
	require.NoError(t, err)
	testutil.RequireChannelMatch(t, r, solo, 0, 0)
}

func TestRMSFromSpectrogram(t *testing.T) {
	stereo := testutil.StereoDistinct(sr, 4096)
	d, err := stft.STFT(stereo, stft.WithNFFT(512))
	require.NoError(t, err)
	s := stft.Magnitude(d)

	r, err := feature.RMSFromSpectrogram(s)
	require.NoError(t, err)
	require.Equal(t, []int{2, 1, s.Shape()[2]}, r.Shape())
	testutil.RequireFinite(t, r.Data())
	for _, v := range r.Data() {
		require.GreaterOrEqual(t, v, 0.0)
	}
	testutil.RequireChannelsDiffer(t, r, 0, 1, 1e-12)
}

func TestZeroCrossingRateOfSine(t *testing.T) {
	y := monoSine(t, 440, 8192)
	z, err := feature.ZeroCrossingRate(y, feature.WithFrameLength(1024), feature.WithHopLength(256))
	require.NoError(t, err)

	mid := z.Shape()[1] / 2
	require.InDelta(t, 2*440.0/sr, z.At(0, mid), 0.005)
}

func TestStackMemory(t *testing.T) {
	s, err := ndarray.FromSlice([]float64{
		1, 2, 3, 4,
		5, 6, 7, 8,
	}, 2, 4)
	require.NoError(t, err)

	stacked, err := feature.StackMemory(s, 2, 1)
	require.NoError(t, err)
	require.Equal(t, []int{4, 4}, stacked.Shape())
	require.Equal(t, []float64{
		1, 2, 3, 4,
		5, 6, 7, 8,
		0, 1, 2, 3,
		0, 5, 6, 7,
	}, stacked.Data())

	_, err = feature.StackMemory(s, 0, 1)
	require.Error(t, err)
}

func TestTempogramDetectsClickPeriod(t *testing.T) {
	const period, frames = 8, 128
	env, err := ndarray.FromSlice(testutil.ClickTrack(frames, period, 0), frames)
	require.NoError(t, err)

	tg, err := feature.Tempogram(env, feature.WithTempoWindow(64))
	require.NoError(t, err)
	require.Equal(t, []int{64, frames}, tg.Shape())

	mid := frames / 2
	require.Greater(t, tg.At(period, mid), 0.3)
	require.Greater(t, tg.At(period, mid), tg.At(period-3, mid))
}

func TestTempogramChannelIndependence(t *testing.T) {
	stereo := testutil.StereoDistinct(sr, 256)
	opts := []feature.Option{feature.WithTempoWindow(64)}

	batched, err := feature.Tempogram(stereo, opts...)
	require.NoError(t, err)
	require.Equal(t, []int{2, 64, 256}, batched.Shape())
	for ch := 0; ch < 2; ch++ {
		lane, err := stereo.Index(0, ch)
		require.NoError(t, err)
		solo, err := feature.Tempogram(lane, opts...)
		require.NoError(t, err)
		testutil.RequireChannelMatch(t, batched, solo, ch, 0)
	}
	testutil.RequireChannelsDiffer(t, batched, 0, 1, 1e-12)
}

func TestFourierTempogramShape(t *testing.T) {
	env, err := ndarray.FromSlice(testutil.ClickTrack(200, 10, 0), 200)
	require.NoError(t, err)

	tg, err := feature.FourierTempogram(env, feature.WithTempoWindow(384))
	require.NoError(t, err)
	require.Equal(t, 2, tg.Rank())
	require.Equal(t, 257, tg.Shape()[0]) // 1 + 512/2
}

func TestInterpHarmonicsIdentity(t *testing.T) {
	y := monoSine(t, 440, 4096)
	s := magSpectrogram(t, y, stft.WithNFFT(512))

	h, err := feature.InterpHarmonics(s, nil, []float64{1})
	require.NoError(t, err)
	require.Equal(t, []int{1, s.Shape()[0], s.Shape()[1]}, h.Shape())
	testutil.RequireSliceNearlyEqual(t, h.Data(), s.Data(), 1e-12)
}

func TestInterpHarmonicsScaling(t *testing.T) {
	// Spectrogram whose value at bin k equals its frequency: sampling at
	// harmonic 2 must read back twice the base frequency while in range.
	const bins, frames = 17, 3
	data := make([]float64, bins*frames)
	f := make([]float64, bins)
	for k := 0; k < bins; k++ {
		f[k] = sr * float64(k) / float64(2*(bins-1))
		for tt := 0; tt < frames; tt++ {
			data[k*frames+tt] = f[k]
		}
	}
	s, err := ndarray.FromSlice(data, bins, frames)
	require.NoError(t, err)

	h, err := feature.InterpHarmonics(s, nil, []float64{2})
	require.NoError(t, err)
	for k := 0; k < bins; k++ {
		want := 2 * f[k]
		if want > f[bins-1] {
			want = 0 // out of range
		}
		require.InDelta(t, want, h.At(0, k, 0), 1e-9)
	}

	_, err = feature.InterpHarmonics(s, nil, nil)
	require.Error(t, err)
}

func TestSalienceUniform(t *testing.T) {
	y := monoSine(t, 440, 4096)
	s := magSpectrogram(t, y, stft.WithNFFT(512))

	sal, err := feature.Salience(s, nil, []float64{1}, nil)
	require.NoError(t, err)
	require.Equal(t, s.Shape(), sal.Shape())
	testutil.RequireSliceNearlyEqual(t, sal.Data(), s.Data(), 1e-12)

	_, err = feature.Salience(s, nil, []float64{1, 2}, []float64{1})
	require.Error(t, err)
}

func TestOptionValidation(t *testing.T) {
	y := monoSine(t, 440, 1024)
	_, err := feature.RMS(y, feature.WithSampleRate(0))
	require.Error(t, err)
	_, err = feature.RMS(y, feature.WithFrameLength(0))
	require.Error(t, err)
	_, err = feature.MelSpectrogram(y, feature.WithMelBands(0))
	require.Error(t, err)
	s := magSpectrogram(t, y, stft.WithNFFT(256))
	_, err = feature.SpectralRolloff(s, nil, feature.WithRollPercent(1.5))
	require.Error(t, err)
}
