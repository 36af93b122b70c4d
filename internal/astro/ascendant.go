package astro

import "math"

// Ascendant returns the tropical ecliptic longitude, in degrees, of
// the rising point for an observer at latitudeDeg/longitudeDeg (east
// positive) at the given Julian date. This is a simplified equal-house
// model: it fixes the horizon crossing itself but makes no attempt at
// Placidus-style intermediate cusps, which is the only house system
// the birth-chart caller needs from the core's vector output.
func Ascendant(jd, latitudeDeg, longitudeDeg, obliquityDeg float64) float64 {
	lstDeg := GMST(jd) + longitudeDeg
	ramc := normalizeDegrees(lstDeg) * math.Pi / 180
	eps := obliquityDeg * math.Pi / 180
	lat := latitudeDeg * math.Pi / 180

	y := -math.Cos(ramc)
	x := math.Sin(ramc)*math.Cos(eps) + math.Tan(lat)*math.Sin(eps)
	lambda := math.Atan2(y, x)
	deg := lambda * 180 / math.Pi
	return normalizeDegrees(deg)
}
