package spectrum

import "math"

const minAmplitude = 1e-10

// PowerToDB converts a power spectrum slice to decibels relative to ref.
//
// ref <= 0 selects the slice's own maximum as reference. topDB > 0
// clips the result to [max - topDB, max]. Both the reference and the
// clipping threshold are computed from this slice alone: when called
// per channel through the broadcasting layer, no statistic leaks
// between channels.
func PowerToDB(power []float64, ref, topDB float64) []float64 {
	if len(power) == 0 {
		return nil
	}
	if ref <= 0 {
		ref = minAmplitude * minAmplitude
		for _, v := range power {
			if v > ref {
				ref = v
			}
		}
	}

	out := make([]float64, len(power))
	logRef := 10 * math.Log10(ref)
	maxDB := math.Inf(-1)
	for i, v := range power {
		if v < minAmplitude*minAmplitude {
			v = minAmplitude * minAmplitude
		}
		out[i] = 10*math.Log10(v) - logRef
		if out[i] > maxDB {
			maxDB = out[i]
		}
	}

	if topDB > 0 {
		floor := maxDB - topDB
		for i := range out {
			if out[i] < floor {
				out[i] = floor
			}
		}
	}
	return out
}

// AmplitudeToDB converts a magnitude spectrum slice to decibels.
// Parameters follow [PowerToDB]; magnitudes are squared into power
// first.
func AmplitudeToDB(mag []float64, ref, topDB float64) []float64 {
	if len(mag) == 0 {
		return nil
	}
	power := make([]float64, len(mag))
	for i, v := range mag {
		power[i] = v * v
	}
	if ref > 0 {
		ref *= ref
	}
	return PowerToDB(power, ref, topDB)
}
