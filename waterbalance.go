package irrigate

// This file implements the soil water balance: AWC/RAW derivation,
// stress-adjusted MAD, deficit accumulation, trigger evaluation, and
// timing projection.

// StressAdjustedP applies the high-temperature and low-humidity stress
// reductions to the plant's base depletion fraction, floored at 20% of
// the base value and ceilinged at the base value itself.
func StressAdjustedP(pBase, tMaxC, optTempMaxC, rhPct float64) (p, stressFactor float64) {
	p = pBase

	if tMaxC > optTempMaxC+5 {
		over := tMaxC - (optTempMaxC + 5)
		frac := over / 10
		if frac > 1 {
			frac = 1
		}
		p -= pBase * 0.30 * frac
	}

	if rhPct < 30 {
		frac := (30 - rhPct) / 30
		if frac > 1 {
			frac = 1
		}
		p -= pBase * 0.20 * frac
	}

	floor := pBase * 0.2
	if p < floor {
		p = floor
	}
	if p > pBase {
		p = pBase
	}
	if pBase == 0 {
		return 0, 1
	}
	return p, p / pBase
}

// DeriveBalance computes the static (pre-deficit) components of a
// channel's water balance: root-zone AWC, wetted AWC, and RAW.
func DeriveBalance(soil *SoilEntry, plant *PlantEntry, method *MethodEntry, rootDepthM, tMaxC, rhPct float64) (wb WaterBalance, stressFactor float64) {
	rootZoneAWC := soil.AWCMMPerM * rootDepthM
	wettedAWC := rootZoneAWC * method.WettingFraction
	p, stress := StressAdjustedP(plant.DepletionFractionP, tMaxC, plant.OptimumTempMaxC, rhPct)
	raw := wettedAWC * p

	wb = WaterBalance{
		RootZoneAWCmm: rootZoneAWC,
		WettedAWCmm:   wettedAWC,
		RAWmm:         raw,
	}
	return wb, stress
}

// Accumulate is the single primitive through which both the daily AUTO
// update and the realtime fractional-ET accumulator mutate a channel's
// deficit, so the two cadences never double-count a change. deltaETc,
// deltaRain, and deltaApplied are all in mm, already scaled to whatever
// time window the caller is accounting for.
func (wb *WaterBalance) Accumulate(deltaETc, deltaRain, deltaApplied float64) {
	d := wb.DeficitMM + deltaETc - deltaRain - deltaApplied
	if d < 0 {
		d = 0
	}
	if d > wb.WettedAWCmm {
		d = wb.WettedAWCmm
	}
	wb.DeficitMM = d
}

// IrrigationVolumeToMM converts an applied irrigation volume (L) into
// an equivalent depth (mm) over the channel's coverage area, at a
// fixed in-zone efficiency of 0.8.
func IrrigationVolumeToMM(volumeL, areaM2 float64) float64 {
	if areaM2 <= 0 {
		return 0
	}
	const inZoneEfficiency = 0.8
	// 1 mm over 1 m^2 = 1 L.
	return (volumeL * inZoneEfficiency) / areaM2
}

// EvaluateTrigger returns whether irrigation is needed.
func EvaluateTrigger(wb WaterBalance) bool {
	return wb.DeficitMM >= wb.RAWmm && wb.DeficitMM >= 2 && wb.WettedAWCmm >= 5
}

// TimingProjectionHours estimates the hours remaining until the
// trigger fires, given the current deficit, RAW, and a daily ET rate
// (mm/day), capped at 168h.
func TimingProjectionHours(wb WaterBalance, dailyET float64) float64 {
	remaining := wb.RAWmm - wb.DeficitMM
	if remaining <= 0 || dailyET <= 0 {
		return 0
	}
	hourlyET := dailyET / 24
	var margin float64
	switch {
	case dailyET > 8:
		margin = 2
	case dailyET < 3:
		margin = 4
	default:
		margin = 3
	}
	hours := remaining/hourlyET - margin
	if hours < 0 {
		hours = 0
	}
	if hours > 168 {
		hours = 168
	}
	return hours
}
