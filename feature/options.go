package feature

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-feat/dsp/stft"
)

var (
	errSampleRate   = errors.New("feature: sample rate must be positive")
	errBandCount    = errors.New("feature: band count must be positive")
	errFrameLength  = errors.New("feature: frame length must be positive")
	errSmoothWindow = errors.New("feature: smoothing window must be positive")
)

// Config collects the tunables shared by the extractors in this package.
type Config struct {
	// SampleRate of the underlying signal in Hz.
	SampleRate float64

	// NMels is the number of mel bands.
	NMels int
	// NChroma is the number of pitch classes.
	NChroma int
	// NMFCC is the number of cepstral coefficients kept.
	NMFCC int
	// NBands is the number of octave bands for spectral contrast.
	NBands int
	// Order is the polynomial order for PolyFeatures.
	Order int

	// FMin and FMax bound the mel filter bank. FMax <= 0 means Nyquist.
	FMin float64
	FMax float64

	// RollPercent is the energy fraction for the spectral rolloff.
	RollPercent float64

	// TopDB clips dB-scaled values below max-TopDB. Zero disables clipping.
	TopDB float64

	// FrameLength and HopLength frame signal-domain features (RMS, ZCR).
	FrameLength int
	HopLength   int

	// TempoWindow is the onset-envelope window for tempograms, in frames.
	TempoWindow int

	// CENSWindow is the temporal smoothing length for ChromaCENS, in
	// frames.
	CENSWindow int

	// STFT options are forwarded to the spectrogram stage of extractors
	// that start from a signal.
	STFT []stft.Option

	// Parallel is forwarded to the batch adapter; values below 2 keep
	// the sequential path.
	Parallel int
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		SampleRate:  22050,
		NMels:       128,
		NChroma:     12,
		NMFCC:       20,
		NBands:      6,
		Order:       1,
		FMin:        0,
		FMax:        0,
		RollPercent: 0.85,
		TopDB:       80,
		FrameLength: 2048,
		HopLength:   512,
		TempoWindow: 384,
		CENSWindow:  41,
	}
}

// ApplyOptions folds opts over the default configuration and validates it.
func ApplyOptions(opts ...Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.SampleRate <= 0 {
		return cfg, errSampleRate
	}
	if cfg.NMels <= 0 || cfg.NChroma <= 0 || cfg.NMFCC <= 0 || cfg.NBands <= 0 {
		return cfg, errBandCount
	}
	if cfg.FrameLength <= 0 || cfg.HopLength <= 0 || cfg.TempoWindow <= 0 {
		return cfg, errFrameLength
	}
	if cfg.CENSWindow <= 0 {
		return cfg, errSmoothWindow
	}
	if cfg.RollPercent <= 0 || cfg.RollPercent > 1 {
		return cfg, fmt.Errorf("feature: roll percent %v outside (0, 1]", cfg.RollPercent)
	}
	if cfg.Order < 0 {
		return cfg, fmt.Errorf("feature: polynomial order %d is negative", cfg.Order)
	}
	return cfg, nil
}

// WithSampleRate sets the sample rate in Hz.
func WithSampleRate(sr float64) Option {
	return func(c *Config) { c.SampleRate = sr }
}

// WithMelBands sets the number of mel bands.
func WithMelBands(n int) Option {
	return func(c *Config) { c.NMels = n }
}

// WithChromaBins sets the number of pitch classes.
func WithChromaBins(n int) Option {
	return func(c *Config) { c.NChroma = n }
}

// WithMFCCCount sets the number of cepstral coefficients.
func WithMFCCCount(n int) Option {
	return func(c *Config) { c.NMFCC = n }
}

// WithContrastBands sets the number of octave bands for spectral contrast.
func WithContrastBands(n int) Option {
	return func(c *Config) { c.NBands = n }
}

// WithPolyOrder sets the polynomial order for PolyFeatures.
func WithPolyOrder(order int) Option {
	return func(c *Config) { c.Order = order }
}

// WithFrequencyRange bounds the mel filter bank.
func WithFrequencyRange(fmin, fmax float64) Option {
	return func(c *Config) {
		c.FMin = fmin
		c.FMax = fmax
	}
}

// WithRollPercent sets the energy fraction for the spectral rolloff.
func WithRollPercent(p float64) Option {
	return func(c *Config) { c.RollPercent = p }
}

// WithTopDB sets the dB clipping range; zero disables clipping.
func WithTopDB(db float64) Option {
	return func(c *Config) { c.TopDB = db }
}

// WithFrameLength sets the frame length for signal-domain features.
func WithFrameLength(n int) Option {
	return func(c *Config) { c.FrameLength = n }
}

// WithHopLength sets the hop length for signal-domain features.
func WithHopLength(n int) Option {
	return func(c *Config) { c.HopLength = n }
}

// WithTempoWindow sets the tempogram window length in frames.
func WithTempoWindow(n int) Option {
	return func(c *Config) { c.TempoWindow = n }
}

// WithCENSWindow sets the temporal smoothing length for ChromaCENS.
func WithCENSWindow(n int) Option {
	return func(c *Config) { c.CENSWindow = n }
}

// WithSTFT forwards options to the spectrogram stage.
func WithSTFT(opts ...stft.Option) Option {
	return func(c *Config) { c.STFT = append(c.STFT, opts...) }
}

// WithParallel forwards a worker count to the batch adapter.
func WithParallel(workers int) Option {
	return func(c *Config) { c.Parallel = workers }
}
