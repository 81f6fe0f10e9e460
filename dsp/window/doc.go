// Package window generates analysis window functions for spectral
// framing.
//
// Windows default to the symmetric form; the STFT and tempogram layers
// request the periodic (DFT-even) form via WithPeriodic.
package window
