// Package astro holds the closed-form astronomical helpers that sit
// between the raw ephemeris decoder (internal/seph) and the chart
// assembly layer: Julian-day conversion, ayanamsha, obliquity, sidereal
// time, and the ecliptic-longitude projection.
package astro

import (
	"math"
	"time"
)

// J2000 is the Julian date of the J2000.0 epoch, 2000-01-01 12:00 TT.
const J2000 = 2451545.0

// JulianDay converts a UTC timestamp to a Julian date using the
// standard Gregorian-calendar algorithm (valid for dates after
// 4801 BC).
func JulianDay(t time.Time) float64 {
	t = t.UTC()
	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())
	h := float64(t.Hour())
	min := float64(t.Minute())
	s := float64(t.Second()) + float64(t.Nanosecond())/1e9

	if m <= 2 {
		y--
		m += 12
	}
	a := math.Floor(y / 100)
	b := 2 - a + math.Floor(a/4)

	jd := math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + d + b - 1524.5
	jd += (h + min/60 + s/3600) / 24
	return jd
}

// JulianCenturiesSinceJ2000 returns T, the number of Julian centuries
// of TT elapsed since J2000.0, the time argument used by most of the
// polynomials below.
func JulianCenturiesSinceJ2000(jd float64) float64 {
	return (jd - J2000) / 36525
}
