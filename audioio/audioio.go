// Package audioio loads audio files into sample arrays. WAV, MP3 and
// Ogg Vorbis are decoded by file extension; decoded audio can be
// downmixed to mono and resampled on load.
package audioio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-feat/dsp/resample"
	"github.com/cwbudde/algo-feat/ndarray"
)

var (
	// ErrUnsupportedFormat indicates an unrecognized file extension.
	ErrUnsupportedFormat = errors.New("audioio: unsupported format")
	// ErrEmptyStream indicates a file with no decodable samples.
	ErrEmptyStream = errors.New("audioio: no samples decoded")
)

type config struct {
	mono       bool
	targetRate float64
	resample   []resample.Option
}

// Option configures loading.
type Option func(*config)

// WithMono downmixes multichannel audio to a single averaged lane.
func WithMono() Option {
	return func(c *config) { c.mono = true }
}

// WithTargetRate resamples the decoded audio to the given rate in Hz.
func WithTargetRate(rate float64) Option {
	return func(c *config) { c.targetRate = rate }
}

// WithResampleOptions forwards options to the on-load resampler.
func WithResampleOptions(opts ...resample.Option) Option {
	return func(c *config) { c.resample = append(c.resample, opts...) }
}

// Load decodes an audio file into an array and reports its sample rate.
// Multichannel audio becomes [channels, samples]; mono audio, and any
// audio loaded with WithMono, becomes rank-1 [samples].
func Load(path string, opts ...Option) (*ndarray.Array[float64], int, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	clip, err := decode(f, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return nil, 0, err
	}
	return clip.finish(cfg)
}

// clip holds decoded interleaved-free audio: one slice per channel.
type clip struct {
	channels [][]float64
	rate     int
}

func decode(r io.ReadSeeker, ext string) (*clip, error) {
	switch ext {
	case ".wav", ".wave":
		return decodeWAV(r)
	case ".mp3":
		return decodeMP3(r)
	case ".ogg", ".oga":
		return decodeOgg(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func (c *clip) finish(cfg config) (*ndarray.Array[float64], int, error) {
	if len(c.channels) == 0 || len(c.channels[0]) == 0 {
		return nil, 0, ErrEmptyStream
	}
	if cfg.mono && len(c.channels) > 1 {
		c.downmix()
	}

	rate := c.rate
	n := len(c.channels[0])
	data := make([]float64, 0, len(c.channels)*n)
	for _, ch := range c.channels {
		data = append(data, ch...)
	}

	var out *ndarray.Array[float64]
	var err error
	if len(c.channels) == 1 {
		out, err = ndarray.FromSlice(data, n)
	} else {
		out, err = ndarray.FromSlice(data, len(c.channels), n)
	}
	if err != nil {
		return nil, 0, err
	}

	if cfg.targetRate > 0 && cfg.targetRate != float64(rate) {
		out, err = resample.Apply(out, float64(rate), cfg.targetRate, cfg.resample...)
		if err != nil {
			return nil, 0, err
		}
		rate = int(cfg.targetRate)
	}
	return out, rate, nil
}

// downmix averages all channels into channel 0.
func (c *clip) downmix() {
	mixed := c.channels[0]
	scale := 1 / float64(len(c.channels))
	for i := range mixed {
		var sum float64
		for _, ch := range c.channels {
			sum += ch[i]
		}
		mixed[i] = sum * scale
	}
	c.channels = c.channels[:1]
}

// deinterleave splits interleaved normalized samples into channel lanes.
func deinterleave(samples []float64, channels int) [][]float64 {
	frames := len(samples) / channels
	out := make([][]float64, channels)
	for ch := range out {
		lane := make([]float64, frames)
		for i := range lane {
			lane[i] = samples[i*channels+ch]
		}
		out[ch] = lane
	}
	return out
}
