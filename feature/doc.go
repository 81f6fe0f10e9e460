// Package feature extracts frame-level descriptors from signals and
// spectrograms.
//
// Every function accepts arrays with arbitrary leading batch axes and
// preserves them: feature values for one channel never depend on any
// other channel. Spectrogram inputs are [..., bins, frames]; signal
// inputs are [..., samples].
package feature
