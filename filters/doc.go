// Package filters constructs the fixed basis matrices used by the
// feature layer: mel and chroma filterbanks, DCT bases, and
// log-frequency (constant-Q style) banks.
//
// All banks are plain row-major matrices mapping spectrogram bins to
// feature bins; they carry no per-channel state, so sharing one bank
// across batch slices is safe.
package filters
