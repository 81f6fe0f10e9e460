package onset_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-feat/dsp/stft"
	"github.com/cwbudde/algo-feat/feature"
	"github.com/cwbudde/algo-feat/internal/testutil"
	"github.com/cwbudde/algo-feat/ndarray"
	"github.com/cwbudde/algo-feat/onset"
)

func TestStrengthMarksEnergyJump(t *testing.T) {
	// Silence then a tone: the envelope must peak where the tone starts.
	const n = 8192
	data := make([]float64, n)
	copy(data[n/2:], testutil.DeterministicSine(440, 22050, 0.5, n/2))
	y, err := ndarray.FromSlice(data, n)
	require.NoError(t, err)

	env, err := onset.StrengthFromSignal(y, onset.WithFeatureOptions(
		feature.WithSTFT(stft.WithNFFT(1024), stft.WithHopLength(256))))
	require.NoError(t, err)
	require.Equal(t, 1, env.Rank())

	frames := env.Shape()[0]
	require.Equal(t, 1+n/256, frames)
	require.Equal(t, 0.0, env.At(0))

	peak, peakVal := 0, -1.0
	for i := 0; i < frames; i++ {
		if v := env.At(i); v > peakVal {
			peak, peakVal = i, v
		}
	}
	onsetFrame := (n / 2) / 256
	require.InDelta(t, onsetFrame, peak, 3)
	require.Greater(t, peakVal, 0.0)
}

func TestStrengthChannelIndependence(t *testing.T) {
	stereo := testutil.StereoDistinct(22050, 4096)
	opts := []onset.Option{onset.WithFeatureOptions(feature.WithSTFT(stft.WithNFFT(512)))}

	env, err := onset.StrengthFromSignal(stereo, opts...)
	require.NoError(t, err)
	require.Equal(t, 2, env.Rank())

	for ch := 0; ch < 2; ch++ {
		lane, err := stereo.Index(0, ch)
		require.NoError(t, err)
		solo, err := onset.StrengthFromSignal(lane, opts...)
		require.NoError(t, err)
		testutil.RequireChannelMatch(t, env, solo, ch, 0)
	}
	testutil.RequireChannelsDiffer(t, env, 0, 1, 1e-12)
}

func TestStrengthFromSpectrogram(t *testing.T) {
	stereo := testutil.StereoDistinct(22050, 4096)
	d, err := stft.STFT(stereo, stft.WithNFFT(512))
	require.NoError(t, err)

	env, err := onset.Strength(stft.Power(d))
	require.NoError(t, err)
	require.Equal(t, []int{2, d.Shape()[2]}, env.Shape())
	testutil.RequireFinite(t, env.Data())

	pooled, err := onset.Strength(stft.Power(d), onset.WithMaxPool(), onset.WithLag(2))
	require.NoError(t, err)
	require.Equal(t, env.Shape(), pooled.Shape())
	require.Equal(t, 0.0, pooled.At(0, 1)) // inside the lag

	_, err = onset.Strength(stft.Power(d), onset.WithLag(0))
	require.Error(t, err)
}
