package pitch_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-feat/dsp/stft"
	"github.com/cwbudde/algo-feat/internal/testutil"
	"github.com/cwbudde/algo-feat/ndarray"
	"github.com/cwbudde/algo-feat/pitch"
)

const sr = 22050

func TestYinPureTone(t *testing.T) {
	y, err := ndarray.FromSlice(testutil.DeterministicSine(440, sr, 0.7, 8192), 8192)
	require.NoError(t, err)

	f0, err := pitch.Yin(y)
	require.NoError(t, err)
	require.Equal(t, 2, f0.Rank())
	frames := f0.Shape()[1]
	require.Equal(t, 1+(8192-2048)/512, frames)
	for tt := 0; tt < frames; tt++ {
		require.InDelta(t, 440, f0.At(0, tt), 2)
	}
}

func TestYinBatchedChannels(t *testing.T) {
	stereo := testutil.StereoDistinct(sr, 8192)
	f0, err := pitch.Yin(stereo)
	require.NoError(t, err)
	require.Equal(t, 3, f0.Rank())

	mid := f0.Shape()[2] / 2
	require.InDelta(t, 440, f0.At(0, 0, mid), 5)
	require.InDelta(t, 587.33, f0.At(1, 0, mid), 5)

	for ch := 0; ch < 2; ch++ {
		lane, err := stereo.Index(0, ch)
		require.NoError(t, err)
		solo, err := pitch.Yin(lane)
		require.NoError(t, err)
		testutil.RequireChannelMatch(t, f0, solo, ch, 0)
	}
}

func TestYinValidation(t *testing.T) {
	y, err := ndarray.FromSlice(testutil.DeterministicSine(440, sr, 0.7, 4096), 4096)
	require.NoError(t, err)

	_, err = pitch.Yin(y, pitch.WithFrequencyRange(500, 100))
	require.Error(t, err)
	_, err = pitch.Yin(y, pitch.WithFrequencyRange(65, sr)) // above Nyquist
	require.Error(t, err)
	// fmin of 5 Hz needs a longer frame than 2048 samples.
	_, err = pitch.Yin(y, pitch.WithFrequencyRange(5, 2000))
	require.Error(t, err)
}

func TestPipTrackPureTone(t *testing.T) {
	y, err := ndarray.FromSlice(testutil.DeterministicSine(440, sr, 0.7, 8192), 8192)
	require.NoError(t, err)
	d, err := stft.STFT(y, stft.WithNFFT(2048))
	require.NoError(t, err)
	s := stft.Magnitude(d)

	pitches, mags, err := pitch.PipTrack(s)
	require.NoError(t, err)
	require.Equal(t, s.Shape(), pitches.Shape())
	require.Equal(t, s.Shape(), mags.Shape())

	// The strongest candidate in the middle frame sits on 440 Hz.
	mid := s.Shape()[1] / 2
	bins := s.Shape()[0]
	bestK, bestMag := -1, 0.0
	for k := 0; k < bins; k++ {
		if m := mags.At(k, mid); m > bestMag {
			bestK, bestMag = k, m
		}
	}
	require.GreaterOrEqual(t, bestK, 0)
	require.InDelta(t, 440, pitches.At(bestK, mid), 5)
}

func TestPipTrackBatched(t *testing.T) {
	stereo := testutil.StereoDistinct(sr, 8192)
	d, err := stft.STFT(stereo, stft.WithNFFT(2048))
	require.NoError(t, err)
	s := stft.Magnitude(d)

	pitches, mags, err := pitch.PipTrack(s)
	require.NoError(t, err)
	require.Equal(t, s.Shape(), pitches.Shape())
	testutil.RequireChannelsDiffer(t, pitches, 0, 1, 1e-12)

	for ch := 0; ch < 2; ch++ {
		lane, err := s.Index(0, ch)
		require.NoError(t, err)
		soloP, soloM, err := pitch.PipTrack(lane.Contiguous())
		require.NoError(t, err)
		testutil.RequireChannelMatch(t, pitches, soloP, ch, 0)
		testutil.RequireChannelMatch(t, mags, soloM, ch, 0)
	}
}
