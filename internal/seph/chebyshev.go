package seph

// evalChebyshev evaluates a Chebyshev series via Clenshaw recurrence at
// x in [-1, +1], using the half-coefficient convention the file's
// producer expects: the result is (br - bpp2) / 2, not br itself.
func evalChebyshev(c []float64, x float64) float64 {
	var br, bpp, bpp2 float64
	for j := len(c) - 1; j >= 0; j-- {
		bpp2 = bpp
		bpp = br
		br = 2*x*bpp - bpp2 + c[j]
	}
	return (br - bpp2) / 2
}
