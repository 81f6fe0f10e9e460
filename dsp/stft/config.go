package stft

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-feat/dsp/window"
)

// PadMode selects how signal edges are extended for centered analysis.
type PadMode int

const (
	// PadReflect mirrors the signal around its endpoints.
	PadReflect PadMode = iota
	// PadConstant extends with zeros.
	PadConstant
)

var (
	errFFTSize  = errors.New("stft: fft size must be a power of two")
	errShort    = errors.New("stft: input shorter than one analysis frame")
	errSpectrum = errors.New("stft: spectrogram must have 1 + nfft/2 frequency bins")
)

// Config defines STFT analysis settings.
type Config struct {
	NFFT      int
	WinLength int // defaults to NFFT
	HopLength int // defaults to WinLength/4
	Window    window.Type
	Center    bool
	Pad       PadMode
	Length    int // ISTFT/Griffin-Lim output length; 0 = natural
	Iter      int // Griffin-Lim iterations
	Parallel  int // workers for batch slices; <=1 sequential
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the analysis defaults: 2048-point FFT, Hann
// window, 1/4-window hop, centered frames with reflect padding.
func DefaultConfig() Config {
	return Config{
		NFFT:   2048,
		Window: window.TypeHann,
		Center: true,
		Pad:    PadReflect,
		Iter:   32,
	}
}

// WithNFFT sets the FFT size (must be a power of two).
func WithNFFT(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.NFFT = n
		}
	}
}

// WithWinLength sets the analysis window length. Windows shorter than
// the FFT size are zero-padded to the center of the frame.
func WithWinLength(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.WinLength = n
		}
	}
}

// WithHopLength sets the hop between analysis frames.
func WithHopLength(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.HopLength = n
		}
	}
}

// WithWindow sets the analysis window type.
func WithWindow(t window.Type) Option {
	return func(cfg *Config) { cfg.Window = t }
}

// WithCenter toggles centered analysis frames.
func WithCenter(center bool) Option {
	return func(cfg *Config) { cfg.Center = center }
}

// WithPadMode selects the edge extension used for centered frames.
func WithPadMode(mode PadMode) Option {
	return func(cfg *Config) { cfg.Pad = mode }
}

// WithLength fixes the reconstructed signal length for ISTFT and
// Griffin-Lim.
func WithLength(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.Length = n
		}
	}
}

// WithIterations sets the Griffin-Lim iteration count.
func WithIterations(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.Iter = n
		}
	}
}

// WithParallel computes batch slices concurrently on up to n workers.
// Values below 2 keep the default sequential schedule.
func WithParallel(n int) Option {
	return func(cfg *Config) {
		if n >= 0 {
			cfg.Parallel = n
		}
	}
}

// ApplyOptions resolves opts over the defaults and derives dependent
// fields.
func ApplyOptions(opts ...Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.WinLength <= 0 {
		cfg.WinLength = cfg.NFFT
	}
	if cfg.HopLength <= 0 {
		cfg.HopLength = cfg.WinLength / 4
	}
	if cfg.NFFT&(cfg.NFFT-1) != 0 || cfg.NFFT <= 0 {
		return cfg, fmt.Errorf("%w: %d", errFFTSize, cfg.NFFT)
	}
	if cfg.WinLength > cfg.NFFT {
		return cfg, fmt.Errorf("stft: window length %d exceeds fft size %d", cfg.WinLength, cfg.NFFT)
	}
	if cfg.HopLength <= 0 {
		return cfg, fmt.Errorf("stft: hop length must be > 0: %d", cfg.HopLength)
	}
	return cfg, nil
}

// Bins returns the number of non-negative frequency bins.
func (cfg Config) Bins() int { return 1 + cfg.NFFT/2 }

// fullWindow returns the periodic analysis window padded to NFFT.
func (cfg Config) fullWindow() []float64 {
	w := window.Generate(cfg.Window, cfg.WinLength, window.WithPeriodic())
	if cfg.WinLength == cfg.NFFT {
		return w
	}
	out := make([]float64, cfg.NFFT)
	off := (cfg.NFFT - cfg.WinLength) / 2
	copy(out[off:], w)
	return out
}
