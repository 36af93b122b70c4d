package astro

import "math"

// GMST returns Greenwich mean sidereal time, in degrees, at the given
// Julian date (IAU 1982 polynomial).
func GMST(jd float64) float64 {
	t := JulianCenturiesSinceJ2000(jd)
	sec := 67310.54841 +
		(876600*3600+8640184.812866)*t +
		0.093104*t*t -
		6.2e-6*t*t*t
	deg := math.Mod(sec/240, 360) // 240 seconds of time per degree
	if deg < 0 {
		deg += 360
	}
	return deg
}

// MeanLunarNode returns the mean longitude of the Moon's ascending
// node, in degrees, at the given Julian date (IAU polynomial).
func MeanLunarNode(jd float64) float64 {
	t := JulianCenturiesSinceJ2000(jd)
	deg := 125.04452 - 1934.136261*t + 0.0020708*t*t + t*t*t/450000
	return normalizeDegrees(deg)
}
