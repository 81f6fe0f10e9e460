// Package resample converts sample rates with a polyphase
// Kaiser-windowed sinc filter. It operates offline on whole lanes and
// accepts batched arrays, resampling every lane independently.
package resample
