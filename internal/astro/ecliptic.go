package astro

import (
	"math"

	"example.com/sephchart/internal/seph"
)

// EclipticLongitude projects a J2000 equatorial vector onto the
// ecliptic of date, given the mean obliquity epsDeg in degrees.
func EclipticLongitude(v seph.Vector, epsDeg float64) float64 {
	eps := epsDeg * math.Pi / 180
	lambda := math.Atan2(v.Y*math.Cos(eps)+v.Z*math.Sin(eps), v.X)
	deg := lambda * 180 / math.Pi
	return normalizeDegrees(deg)
}

// Sub subtracts b from a, component-wise.
func Sub(a, b seph.Vector) seph.Vector {
	return seph.Vector{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

// Negate flips the sign of every component.
func Negate(v seph.Vector) seph.Vector {
	return seph.Vector{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// Magnitude returns the Euclidean norm of v.
func Magnitude(v seph.Vector) float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// GeocentricBody applies the heliocentric/geocentric composition rule
// (section 6): the file's body id 0 stores Earth's heliocentric
// position, so the Sun is its negation; the Moon is already
// geocentric; every other heliocentric body needs the Earth vector
// subtracted.
func GeocentricBody(bodyID int32, bodyVec, earthVec seph.Vector, flags seph.BodyFlags) seph.Vector {
	const sunBodyID = 0
	const moonBodyID = 1

	switch {
	case bodyID == sunBodyID:
		return Negate(bodyVec)
	case bodyID == moonBodyID:
		return bodyVec
	case flags.Heliocentric():
		return Sub(bodyVec, earthVec)
	default:
		return bodyVec
	}
}
