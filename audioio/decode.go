package audioio

import (
	"fmt"
	"io"

	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

func decodeWAV(r io.ReadSeeker) (*clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a wav file", ErrUnsupportedFormat)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audioio: wav decode: %w", err)
	}
	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, ErrEmptyStream
	}

	bitDepth := int(dec.BitDepth)
	if buf.SourceBitDepth > 0 {
		bitDepth = buf.SourceBitDepth
	}
	scale := 1 / float64(int64(1)<<(bitDepth-1))

	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float64(v) * scale
	}
	return &clip{
		channels: deinterleave(samples, channels),
		rate:     buf.Format.SampleRate,
	}, nil
}

func decodeMP3(r io.Reader) (*clip, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("audioio: mp3 decode: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("audioio: mp3 read: %w", err)
	}
	// go-mp3 always emits 16-bit little-endian stereo.
	return &clip{
		channels: deinterleave(pcm16ToFloat(raw), 2),
		rate:     dec.SampleRate(),
	}, nil
}

func decodeOgg(r io.Reader) (*clip, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("audioio: ogg decode: %w", err)
	}
	samples := make([]float64, len(data))
	for i, v := range data {
		samples[i] = float64(v)
	}
	return &clip{
		channels: deinterleave(samples, format.Channels),
		rate:     format.SampleRate,
	}, nil
}

// pcm16ToFloat converts little-endian 16-bit PCM bytes to samples in
// [-1, 1). A trailing odd byte is dropped.
func pcm16ToFloat(raw []byte) []float64 {
	n := len(raw) / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v := int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
		out[i] = float64(v) / 32768
	}
	return out
}
