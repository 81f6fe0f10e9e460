// Package stft implements the short-time Fourier transform and its
// inverses over batched signal arrays.
//
// All entry points accept arrays with arbitrary leading batch axes:
// STFT maps [..., samples] to [..., bins, frames], ISTFT maps back, and
// the phase vocoder and Griffin-Lim operate on whole spectrogram slabs.
// Per-channel results are identical to single-channel calls; batch
// plumbing is delegated to the broadcast package.
package stft
