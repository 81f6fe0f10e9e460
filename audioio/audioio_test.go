package audioio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-feat/internal/testutil"
)

// writeWAV encodes 16-bit PCM stereo test audio to a temp file.
func writeWAV(t *testing.T, left, right []float64, rate int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, 2, 1)
	data := make([]int, 0, 2*len(left))
	for i := range left {
		data = append(data, int(left[i]*32767), int(right[i]*32767))
	}
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: 2, SampleRate: rate},
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	return path
}

func TestLoadStereoWAV(t *testing.T) {
	left := testutil.DeterministicSine(440, 22050, 0.5, 2048)
	right := testutil.DeterministicSine(880, 22050, 0.25, 2048)
	path := writeWAV(t, left, right, 22050)

	y, rate, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 22050, rate)
	require.Equal(t, []int{2, 2048}, y.Shape())

	// Quantization to 16 bits costs at most one step.
	for i := 0; i < 2048; i += 97 {
		require.InDelta(t, left[i], y.At(0, i), 1.0/32767)
		require.InDelta(t, right[i], y.At(1, i), 1.0/32767)
	}
}

func TestLoadMonoDownmix(t *testing.T) {
	left := testutil.DeterministicSine(440, 22050, 0.5, 1024)
	right := testutil.DeterministicSine(440, 22050, -0.5, 1024)
	path := writeWAV(t, left, right, 22050)

	y, _, err := Load(path, WithMono())
	require.NoError(t, err)
	require.Equal(t, []int{1024}, y.Shape())

	// Opposite-phase channels cancel when averaged.
	for _, v := range y.Data() {
		require.InDelta(t, 0, v, 2.0/32767)
	}
}

func TestLoadResampleOnLoad(t *testing.T) {
	left := testutil.DeterministicSine(440, 44100, 0.5, 4096)
	right := testutil.DeterministicSine(880, 44100, 0.5, 4096)
	path := writeWAV(t, left, right, 44100)

	y, rate, err := Load(path, WithTargetRate(22050))
	require.NoError(t, err)
	require.Equal(t, 22050, rate)
	require.Equal(t, []int{2, 2048}, y.Shape())
	testutil.RequireFinite(t, y.Data())
}

func TestLoadUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.flac")
	require.NoError(t, os.WriteFile(path, []byte("not audio"), 0o644))

	_, _, err := Load(path)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestPCM16ToFloat(t *testing.T) {
	raw := []byte{0x00, 0x00, 0xFF, 0x7F, 0x00, 0x80, 0x01}
	got := pcm16ToFloat(raw)
	require.Len(t, got, 3)
	require.Equal(t, 0.0, got[0])
	require.InDelta(t, 1, got[1], 1e-4)
	require.Equal(t, -1.0, got[2])
}

func TestDeinterleave(t *testing.T) {
	lanes := deinterleave([]float64{1, 10, 2, 20, 3, 30}, 2)
	require.Equal(t, [][]float64{{1, 2, 3}, {10, 20, 30}}, lanes)
}

func TestDownmixAverage(t *testing.T) {
	c := &clip{channels: [][]float64{{1, 2}, {3, 4}}, rate: 8000}
	c.downmix()
	require.Len(t, c.channels, 1)
	require.Equal(t, []float64{2, 3}, c.channels[0])
}
