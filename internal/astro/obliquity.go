package astro

// MeanObliquity returns the mean obliquity of the ecliptic, in degrees,
// at the given Julian date (IAU 1980 polynomial, arcsecond terms
// converted to degrees).
func MeanObliquity(jd float64) float64 {
	t := JulianCenturiesSinceJ2000(jd)
	arcsec := 46.8150*t + 0.00059*t*t - 0.001813*t*t*t
	return 23.43929111 - arcsec/3600
}
