package astro

import "math"

// LahiriAyanamsha returns the Lahiri ayanamsha (precession offset
// between the tropical and sidereal zodiacs), in degrees, for the given
// Julian date. The polynomial is evaluated in T = (jd - 2415020) /
// 36525, the time argument Lahiri's original tables use, not Julian
// centuries from J2000.
func LahiriAyanamsha(jd float64) float64 {
	t := (jd - 2415020.0) / 36525.0
	return 22.460148 + 1.3960440*t + 0.000308*t*t
}

// ToSidereal subtracts the ayanamsha from a tropical ecliptic longitude
// and normalises the result to [0, 360).
func ToSidereal(tropicalLongitudeDeg, ayanamshaDeg float64) float64 {
	return normalizeDegrees(tropicalLongitudeDeg - ayanamshaDeg)
}

func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
