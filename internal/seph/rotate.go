package seph

import "math"

// moonBodyID is the sole body that uses the angle-combination variant
// of the rotation angles (section 4.4 step 2).
const moonBodyID int32 = 1

// Fixed J2000 mean obliquity, used to rotate from the ecliptic-aligned
// intermediate frame into equatorial axes.
const (
	j2000SinEps = 0.39777715572793088
	j2000CosEps = 0.91748206215761929
)

// rotateSegment converts segp in place from the body's instantaneous
// orbital plane to J2000 equatorial axes. Rotating the Chebyshev
// coefficients rather than the evaluated vector is exact because the
// rotation is linear, so the cache can hold a ready-to-evaluate
// representation and the evaluator stays body-agnostic.
func rotateSegment(segp []float64, rec *bodyRecord, tseg0 float64) {
	ncoe := rec.ncoe
	t := tseg0 + rec.dseg/2
	tdiff := (t - rec.telem) / 365250.0

	var qav, pav float64
	if rec.id == moonBodyID {
		dn := math.Mod(rec.prot+tdiff*rec.dprot, 2*math.Pi)
		base := rec.qrot + tdiff*rec.dqrot
		qav = base * math.Cos(dn)
		pav = base * math.Sin(dn)
	} else {
		qav = rec.qrot + tdiff*rec.dqrot
		pav = rec.prot + tdiff*rec.dprot
	}

	x := segp[0:ncoe]
	y := segp[ncoe : 2*ncoe]
	z := segp[2*ncoe : 3*ncoe]

	if rec.flags.Ellipse() && rec.refep != nil {
		omtild := math.Mod(rec.peri+tdiff*rec.dperi, 2*math.Pi)
		c := math.Cos(omtild)
		s := math.Sin(omtild)
		nx := make([]float64, ncoe)
		ny := make([]float64, ncoe)
		for i := 0; i < ncoe; i++ {
			nx[i] = x[i] + c*rec.refep[i] - s*rec.refep[i+ncoe]
			ny[i] = y[i] + c*rec.refep[i+ncoe] + s*rec.refep[i]
		}
		x, y = nx, ny
	}

	h := 1 / (1 + qav*qav + pav*pav)
	uiz := [3]float64{2 * pav * h, -2 * qav * h, (1 - qav*qav - pav*pav) * h}
	uiyRaw := [3]float64{-uiz[1], uiz[0], 0}

	uz := normalize(uiz)
	uy := normalize(uiyRaw)
	ux := cross(uy, uz)

	for i := 0; i < ncoe; i++ {
		xbar := [3]float64{x[i], y[i], z[i]}
		xr := dot(ux, xbar)
		yr := dot(uy, xbar)
		zr := dot(uz, xbar)

		yrr := j2000CosEps*yr + j2000SinEps*zr
		zrr := -j2000SinEps*yr + j2000CosEps*zr

		segp[i] = xr
		segp[i+ncoe] = yrr
		segp[i+2*ncoe] = zrr
	}
}

func normalize(v [3]float64) [3]float64 {
	n := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	return [3]float64{v[0] / n, v[1] / n, v[2] / n}
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}
