// Package precipitation implements the effective-precipitation
// partitioner: a rainfall intensity model, runoff coefficient, and
// post-rain evaporation loss. Its rate-times-duration subtraction
// shape mirrors a wet/dry-deposition removal function (fractional loss
// applied over an estimated duration), repurposed here for rainfall
// rather than pollutant concentration.
package precipitation

import "math"

// Soil is the minimal soil information the partitioner needs.
type Soil struct {
	InfiltrationMMPH float64
	IsClay           bool
	IsSand           bool
}

// Result is the outcome of partitioning one day's rainfall.
type Result struct {
	DurationHours  float64
	IntensityMMPH  float64
	RunoffCoeff    float64
	PostRunoffMM   float64
	EvaporationMM  float64
	EffectiveMM    float64
}

// estimateDurationHours buckets 24h rainfall into an assumed storm
// duration.
func estimateDurationHours(rainMM float64) float64 {
	switch {
	case rainMM < 2:
		return 0.5
	case rainMM < 5:
		return 1
	case rainMM < 10:
		return 1.5
	case rainMM < 25:
		return 3
	case rainMM < 50:
		return 6
	default:
		return 12
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Partition computes effective precipitation from 24h rainfall rainMM,
// antecedent soil moisture thetaPct (0-100), ambient temperature
// tempC, and the soil the channel is planted in.
func Partition(rainMM, thetaPct, tempC float64, soil Soil) Result {
	if rainMM < 1 {
		return Result{EffectiveMM: 0.3 * rainMM}
	}

	duration := estimateDurationHours(rainMM)
	intensity := rainMM / duration

	runoff := math.Max(0, (intensity-soil.InfiltrationMMPH)/intensity)
	if thetaPct > 70 {
		runoff += 0.1 * (thetaPct - 70) / 30
	} else if thetaPct < 30 {
		runoff -= 0.05 * (30 - thetaPct) / 30
	}
	if soil.IsClay {
		runoff += 0.05
	}
	if soil.IsSand {
		runoff -= 0.05
	}
	runoff = clamp(runoff, 0, 0.8)

	postRunoff := rainMM * (1 - runoff)

	evapRate := 0.1
	if tempC > 25 {
		evapRate += 0.02 * (tempC - 25)
	} else if tempC < 15 {
		evapRate -= 0.01 * (15 - tempC)
	}
	if evapRate < 0 {
		evapRate = 0
	}

	evapDuration := math.Min(duration+2, 6)
	factor := 1.0
	if postRunoff < 5 {
		factor = 1.5
	} else if postRunoff > 20 {
		factor = 0.7
	}
	evaporation := evapRate * evapDuration * factor
	maxEvap := 0.3 * postRunoff
	if evaporation > maxEvap {
		evaporation = maxEvap
	}

	effective := math.Max(0, postRunoff-evaporation)

	return Result{
		DurationHours: duration,
		IntensityMMPH: intensity,
		RunoffCoeff:   runoff,
		PostRunoffMM:  postRunoff,
		EvaporationMM: evaporation,
		EffectiveMM:   effective,
	}
}
