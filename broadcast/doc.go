// Package broadcast lifts single-slice signal transforms over batched
// arrays.
//
// A transform owns a fixed number of trailing operating axes (one for a
// sample lane, two for a spectrogram slab). Apply invokes it once per
// leading batch coordinate and reassembles the per-slice results, so
// that the output's batch shape always equals the input's and every
// batch index is computed exactly as it would be alone. Per-slice
// independence also makes the iteration order irrelevant, which is what
// permits the optional parallel scheduler.
package broadcast
