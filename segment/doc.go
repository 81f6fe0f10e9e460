// Package segment collapses variable-length frame spans of an
// N-dimensional array into fixed per-segment summaries along one axis.
//
// The typical use is beat-synchronous feature aggregation: frame-level
// data (chroma, MFCC, onset envelopes) plus a list of half-open frame
// intervals yields one aggregated column per interval, with every other
// axis, including channel/batch axes, passed through unchanged.
// Aggregation is a strategy parameter; Raw is the distinguished
// identity that concatenates instead of reducing.
package segment
