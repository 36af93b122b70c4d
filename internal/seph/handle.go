package seph

import (
	"fmt"
	"math"
)

// Position returns body's rectangular coordinates at the given Julian
// date. A cache miss or a segment boundary crossing triggers a
// re-decode (section 4.3); a failed decode never mutates the existing
// cache, so a caller that ignores the error still sees the previous
// segment's state.
func (h *Handle) Position(body int32, jd float64) (Vector, error) {
	rec, ok := h.bodies[body]
	if !ok {
		return Vector{}, ErrUnknownBody
	}
	if jd < rec.tfstart || jd > rec.tfend {
		return Vector{}, fmt.Errorf("%w: jd %g outside [%g,%g] for body %d", ErrOutOfRange, jd, rec.tfstart, rec.tfend, body)
	}

	if !rec.haveSegment || jd < rec.tseg0 || jd > rec.tseg1 {
		iseg := int64(math.Floor((jd - rec.tfstart) / rec.dseg))
		tseg0 := rec.tfstart + float64(iseg)*rec.dseg
		tseg1 := tseg0 + rec.dseg
		if err := h.decodeSegment(rec, iseg, tseg0, tseg1); err != nil {
			return Vector{}, err
		}
	}

	tau := 2*(jd-rec.tseg0)/rec.dseg - 1
	return Vector{
		X: evalChebyshev(rec.segp[0:rec.ncoe], tau),
		Y: evalChebyshev(rec.segp[rec.ncoe:2*rec.ncoe], tau),
		Z: evalChebyshev(rec.segp[2*rec.ncoe:3*rec.ncoe], tau),
	}, nil
}
