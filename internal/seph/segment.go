package seph

import "fmt"

// classBitWidth maps the six precision classes (section 4.3) to the
// width, in bits, of one packed coefficient in that class. Classes 0-3
// are byte-aligned big-integer codes; classes 4 and 5 pack several
// coefficients into one byte.
var classBitWidth = [6]int{32, 24, 16, 8, 4, 2}

// readNsize decodes the per-coordinate segment sub-header: either four
// or six 4-bit counts, one per precision class, depending on whether
// the high bit of the first byte signals the extended six-class form.
func readNsize(buf []byte, pos *int) ([6]int, error) {
	if *pos+2 > len(buf) {
		return [6]int{}, ErrShortRead
	}
	c0, c1 := buf[*pos], buf[*pos+1]
	*pos += 2

	if c0&0x80 == 0 {
		return [6]int{int(c0 >> 4), int(c0 & 0xF), int(c1 >> 4), int(c1 & 0xF), 0, 0}, nil
	}
	if *pos+2 > len(buf) {
		return [6]int{}, ErrShortRead
	}
	e0, e1 := buf[*pos], buf[*pos+1]
	*pos += 2
	return [6]int{int(c1 >> 4), int(c1 & 0xF), int(e0 >> 4), int(e0 & 0xF), int(e1 >> 4), int(e1 & 0xF)}, nil
}

// decodeCoeffClass reads n coefficients packed at bitWidth bits each,
// starting at byte *pos, and returns their scaled floating values. For
// bitWidth >= 8 (classes 0-3) each coefficient is its own little-endian
// byte-aligned code with the sign in bit 0. For bitWidth < 8 (classes 4
// and 5) several coefficients share one byte, highest sub-field first,
// sign in the sub-field's own top bit. The two sign conventions are
// genuinely different and are kept separate rather than unified.
func decodeCoeffClass(buf []byte, pos *int, n int, bitWidth int, scale float64) ([]float64, error) {
	out := make([]float64, n)
	if bitWidth >= 8 {
		nbytes := bitWidth / 8
		for i := 0; i < n; i++ {
			if *pos+nbytes > len(buf) {
				return nil, ErrShortRead
			}
			var code uint32
			for j := 0; j < nbytes; j++ {
				code |= uint32(buf[*pos+j]) << (8 * j)
			}
			*pos += nbytes
			out[i] = signMagnitudeLSB(code, scale)
		}
		return out, nil
	}

	fieldsPerByte := 8 / bitWidth
	mask := uint32(1<<bitWidth) - 1
	nbytes := (n + fieldsPerByte - 1) / fieldsPerByte
	if *pos+nbytes > len(buf) {
		return nil, ErrShortRead
	}
	for i := 0; i < n; i++ {
		byteIdx := i / fieldsPerByte
		fieldInByte := i % fieldsPerByte
		shift := (fieldsPerByte - 1 - fieldInByte) * bitWidth
		field := (uint32(buf[*pos+byteIdx]) >> shift) & mask
		out[i] = signMagnitudeTopBit(field, bitWidth, scale)
	}
	*pos += nbytes
	return out, nil
}

// signMagnitudeLSB implements the classes 0-3 convention: sign is bit 0,
// magnitude is the remaining bits shifted into place.
func signMagnitudeLSB(code uint32, scale float64) float64 {
	if code&1 == 0 {
		return float64(code>>1) * scale
	}
	return -float64((code+1)>>1) * scale
}

// signMagnitudeTopBit implements the classes 4-5 convention: sign is
// the sub-field's own top bit.
func signMagnitudeTopBit(field uint32, bitWidth int, scale float64) float64 {
	topBit := uint32(1) << (bitWidth - 1)
	if field&topBit == 0 {
		return float64(field>>1) * scale
	}
	return -float64((field+topBit)>>1) * scale
}

// decodeCoordinate reads one coordinate's full coefficient set: a
// sub-header followed by coefficients from each non-empty class, in
// class order.
func decodeCoordinate(buf []byte, pos *int, ncoe int, scale float64) ([]float64, error) {
	nsize, err := readNsize(buf, pos)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, ncoe)
	for class, n := range nsize {
		if n == 0 {
			continue
		}
		vals, err := decodeCoeffClass(buf, pos, n, classBitWidth[class], scale)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
	}
	if len(out) != ncoe {
		return nil, fmt.Errorf("%w: decoded %d coefficients, want %d", ErrCorruptSegment, len(out), ncoe)
	}
	return out, nil
}

// decodeSegment locates and decompresses the segment covering
// [tseg0, tseg1), applying the rotation back-transform if the body is
// flagged for it, and only then publishes the result onto rec. A
// failure at any point leaves rec's existing cache untouched.
func (h *Handle) decodeSegment(rec *bodyRecord, iseg int64, tseg0, tseg1 float64) error {
	offPos := rec.indexTableOffset + iseg*3
	oc := newCursor(h.image, h.reorder, h.diskBigEnd)
	oc.seek(offPos)
	segOffset, err := oc.readInt(3)
	if err != nil {
		return err
	}
	if segOffset < 0 || int64(segOffset) >= int64(len(h.image)) {
		return fmt.Errorf("%w: segment offset %d out of bounds", ErrCorruptSegment, segOffset)
	}

	scale := rec.rmax / (2e9)
	pos := int(segOffset)
	segp := make([]float64, 3*rec.ncoe)
	for k := 0; k < 3; k++ {
		vals, err := decodeCoordinate(h.image, &pos, rec.ncoe, scale)
		if err != nil {
			return err
		}
		copy(segp[k*rec.ncoe:(k+1)*rec.ncoe], vals)
	}

	if rec.flags.Rotate() {
		rotateSegment(segp, rec, tseg0)
	}

	rec.segp = segp
	rec.tseg0 = tseg0
	rec.tseg1 = tseg1
	rec.haveSegment = true
	return nil
}
