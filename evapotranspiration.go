package irrigate

import "math"

// This file implements reference evapotranspiration: the
// Penman-Monteith estimator (degraded: assumed wind/radiation) and the
// Hargreaves-Samani fallback. Each code path in the engine calls
// exactly one of these; they are never mixed within a single decision.

const stefanBoltzmann = 4.903e-9 // MJ K^-4 m^-2 day^-1

func clampET0(et0 float64, cap float64) float64 {
	if et0 < 0 {
		return 0
	}
	if et0 > cap {
		return cap
	}
	return et0
}

// PenmanMonteithET0 computes reference ET (mm/day) from temperature,
// humidity, and pressure, using the assumed constants documented in
// the Constants struct (wind, sunshine ratio, albedo) and a zero soil
// heat flux. Requires valid temperature, humidity, and pressure.
func PenmanMonteithET0(env EnvReading, latDeg float64, doy int, c *Constants) (float64, bool) {
	ra, raValid := ExtraterrestrialRadiation(latDeg, doy)
	if !raValid {
		// Extraterrestrial radiation is undefined (polar conditions);
		// Penman-Monteith cannot proceed on this path.
		return 0, false
	}

	tMin, tMax, tMean := env.TempMinC, env.TempMaxC, env.TempMeanC
	nOverN := c.AssumedSunshineRatio
	rs := (0.25 + 0.50*nOverN) * ra
	rns := (1 - c.AssumedAlbedo) * rs
	rso := 0.75 * ra

	ea := ActualVaporPressureKPa(tMin, tMax, env.HumidityPct)

	tMinK := tMin + 273.16
	tMaxK := tMax + 273.16
	rnl := stefanBoltzmann * ((math.Pow(tMaxK, 4) + math.Pow(tMinK, 4)) / 2) *
		(0.34 - 0.14*math.Sqrt(ea)) * (1.35*rs/rso - 0.35)

	rn := rns - rnl

	delta := SlopeSatVaporCurve(tMean)
	pressureKPa := hPaToKPa(env.PressureHPa)
	gamma := PsychrometricConstant(pressureKPa)
	es := (SaturationVaporPressureKPa(tMin) + SaturationVaporPressureKPa(tMax)) / 2
	vpd := es - ea
	if vpd < 0 {
		vpd = 0
	}

	wind := c.AssumedWindMS
	numerator := 0.408*delta*rn + gamma*(900/(tMean+273))*wind*vpd
	denominator := delta + gamma*(1+0.34*wind)
	et0 := numerator / denominator

	return clampET0(et0, c.ET0HardCapMMPerDay), true
}

// HargreavesSamaniET0 computes reference ET (mm/day) from temperature
// alone (plus the astronomical Ra), for use when humidity/pressure are
// unavailable but temperature is valid.
func HargreavesSamaniET0(tempMinC, tempMeanC, tempMaxC float64, latDeg float64, doy int, c *Constants) (float64, bool) {
	ra, raValid := ExtraterrestrialRadiation(latDeg, doy)
	if !raValid {
		return 0, false
	}
	spread := tempMaxC - tempMinC
	if spread < 0 {
		spread = 0
	}
	et0 := 0.0023 * (tempMeanC + 17.8) * math.Sqrt(spread) * ra
	return clampET0(et0, c.ET0HardCapMMPerDay), true
}

// HeuristicET0 is the SIMPLIFIED-recovery-rung estimator: a
// temperature-only heuristic. Besides the SIMPLIFIED rung, estimateET0
// uses it only when Hargreaves-Samani cannot run because Ra is
// undefined (polar conditions); invalid humidity and pressure alone
// select Hargreaves-Samani, not this. It has no solar-geometry
// dependency, so it remains usable even when day-of-year/latitude
// inputs are unreliable.
func HeuristicET0(tempMeanC float64, c *Constants) float64 {
	vpdApprox := SaturationVaporPressureKPa(tempMeanC) * 0.5
	if vpdApprox < c.HeuristicVPDFloorKPa {
		vpdApprox = c.HeuristicVPDFloorKPa
	}
	et0 := c.HeuristicETCoeff * (tempMeanC + c.HeuristicETTempOffset) * vpdApprox * 10
	if et0 < c.HeuristicETMin {
		et0 = c.HeuristicETMin
	}
	if et0 > c.HeuristicETMax {
		et0 = c.HeuristicETMax
	}
	return et0
}
