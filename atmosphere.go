package irrigate

import "math"

// This file implements the atmosphere primitives used by the
// reference-ET estimator and the water-balance stress adjustment.

// SaturationVaporPressureKPa returns es(T), the saturation vapor
// pressure (kPa) at temperature T (deg C).
func SaturationVaporPressureKPa(tempC float64) float64 {
	return 0.6108 * math.Exp(17.27*tempC/(tempC+237.3))
}

// SlopeSatVaporCurve returns Δ(T), the slope of the saturation vapor
// pressure curve (kPa/degC) at temperature T.
func SlopeSatVaporCurve(tempC float64) float64 {
	es := SaturationVaporPressureKPa(tempC)
	return 4098 * es / ((tempC + 237.3) * (tempC + 237.3))
}

// PsychrometricConstant returns γ(P) (kPa/degC) for atmospheric
// pressure P (kPa).
func PsychrometricConstant(pressureKPa float64) float64 {
	return 0.000665 * pressureKPa
}

// ActualVaporPressureKPa derives ea from mean saturation vapor
// pressure and relative humidity (0-100).
func ActualVaporPressureKPa(tempMinC, tempMaxC, humidityPct float64) float64 {
	esMin := SaturationVaporPressureKPa(tempMinC)
	esMax := SaturationVaporPressureKPa(tempMaxC)
	esMean := (esMin + esMax) / 2
	return esMean * humidityPct / 100
}

// hPaToKPa converts hectopascals to kilopascals.
func hPaToKPa(hpa float64) float64 { return hpa / 10 }
