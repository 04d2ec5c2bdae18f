package irrigate

import "math"

// This file implements the astronomical primitives: extraterrestrial
// radiation, solar declination, and NOAA-polynomial sunrise/sunset
// timing, closed-form in day-of-year and latitude.

const solarConstantMJ = 0.0820 // Gsc, MJ m^-2 min^-1

// declinationRad returns the solar declination δ (radians) for day of
// year J (1..366).
func declinationRad(doy int) float64 {
	return 0.409 * math.Sin(2*math.Pi*float64(doy)/365-1.39)
}

// inverseEarthSunDistance returns dr, the inverse relative Earth-Sun
// distance for day of year J.
func inverseEarthSunDistance(doy int) float64 {
	return 1 + 0.033*math.Cos(2*math.Pi*float64(doy)/365)
}

// sunsetHourAngle returns ωs (radians) given latitude φ (radians) and
// declination δ (radians), and whether the computation is well-defined
// (false on polar day/night, where |cos ωs| > 1).
func sunsetHourAngle(latRad, declRad float64) (omega float64, ok bool) {
	x := -math.Tan(latRad) * math.Tan(declRad)
	if x < -1 || x > 1 {
		return 0, false
	}
	return math.Acos(x), true
}

// ExtraterrestrialRadiation returns Ra (MJ m^-2 day^-1) per FAO-56,
// for latitude latDeg and day of year doy.
func ExtraterrestrialRadiation(latDeg float64, doy int) (ra float64, valid bool) {
	latRad := latDeg * math.Pi / 180
	decl := declinationRad(doy)
	dr := inverseEarthSunDistance(doy)
	omega, ok := sunsetHourAngle(latRad, decl)
	if !ok {
		return 0, false
	}
	const minutesPerDay = 1440.0
	ra = (minutesPerDay / math.Pi) * solarConstantMJ * dr *
		(omega*math.Sin(latRad)*math.Sin(decl) + math.Cos(latRad)*math.Cos(decl)*math.Sin(omega))
	return ra, true
}

// fallbackSunriseMin, fallbackSunsetMin are the polar-condition
// fallback times, expressed as minutes after local midnight.
const (
	fallbackSunriseMin = 6 * 60
	fallbackSunsetMin  = 20 * 60
)

// SolarTimesNOAA computes sunrise/sunset using the NOAA solar-position
// polynomial approximation, for day of year doy, longitude lonDeg
// (east positive), and timezone offset tzHours from UTC.
func SolarTimesNOAA(latDeg, lonDeg float64, doy int, tzHours float64) SolarTimes {
	gamma := 2 * math.Pi * float64(doy-1) / 365

	// Equation of time, minutes (6-term trig polynomial).
	eqTime := 229.18 * (0.000075 +
		0.001868*math.Cos(gamma) - 0.032077*math.Sin(gamma) -
		0.014615*math.Cos(2*gamma) - 0.040849*math.Sin(2*gamma))

	// Solar declination, radians (7-term polynomial).
	decl := 0.006918 - 0.399912*math.Cos(gamma) + 0.070257*math.Sin(gamma) -
		0.006758*math.Cos(2*gamma) + 0.000907*math.Sin(2*gamma) -
		0.002697*math.Cos(3*gamma) + 0.00148*math.Sin(3*gamma)

	latRad := latDeg * math.Pi / 180
	const zenith = 90.833 * math.Pi / 180 // includes atmospheric refraction

	cosH := (math.Cos(zenith)/(math.Cos(latRad)*math.Cos(decl)) - math.Tan(latRad)*math.Tan(decl))

	if cosH > 1 || cosH < -1 {
		st := SolarTimes{
			SunriseMin:       fallbackSunriseMin,
			SunsetMin:        fallbackSunsetMin,
			CalculationValid: false,
		}
		if cosH > 1 {
			st.IsPolarNight = true
		} else {
			st.IsPolarDay = true
		}
		return st
	}

	omegaH := math.Acos(cosH)
	omegaDeg := omegaH * 180 / math.Pi

	sunriseMinutes := 720 - 4*lonDeg - eqTime + 60*tzHours - omegaDeg*4
	sunsetMinutes := 720 - 4*lonDeg - eqTime + 60*tzHours + omegaDeg*4

	return SolarTimes{
		SunriseMin:       wrapMinutes(sunriseMinutes),
		SunsetMin:        wrapMinutes(sunsetMinutes),
		CalculationValid: true,
	}
}

func wrapMinutes(m float64) int {
	im := int(math.Round(m))
	im %= 1440
	if im < 0 {
		im += 1440
	}
	return im
}
