// Package fixture builds deterministic, synthetic SE1-format byte
// images for testing internal/seph without depending on a real
// Swiss Ephemeris distribution file. It duplicates the packing rules
// of internal/seph from the outside, as an independent encoder, so
// tests built on it exercise the decoder rather than its own mirror.
package fixture

import (
	"encoding/binary"
	"fmt"
	"math"

	"example.com/sephchart/internal/seph"
)

const sentinelValue = 0x616263

var classBitWidth = [6]int{32, 24, 16, 8, 4, 2}

// writer accumulates a file image. Numeric fields (ints, doubles) are
// byte-reversed on append when reversed is set, matching a producer
// that wrote the whole constant area in the opposite byte order; raw
// spans (banner text, single bytes, packed segment payloads) never
// are, since segment payload bytes are never passed through the
// endian adapter.
type writer struct {
	buf      []byte
	reversed bool
}

func (w *writer) pos() int { return len(w.buf) }

func (w *writer) putRaw(b []byte) { w.buf = append(w.buf, b...) }

func (w *writer) putByte(b byte) { w.buf = append(w.buf, b) }

func (w *writer) putInt(v int64, size int) {
	b := make([]byte, size)
	for i := 0; i < size; i++ {
		b[i] = byte(v >> (8 * i))
	}
	if w.reversed {
		reverseBytes(b)
	}
	w.buf = append(w.buf, b...)
}

func (w *writer) putFloat64(v float64) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	if w.reversed {
		reverseBytes(b)
	}
	w.buf = append(w.buf, b...)
}

func (w *writer) patchInt(at int, v int64, size int) {
	b := make([]byte, size)
	for i := 0; i < size; i++ {
		b[i] = byte(v >> (8 * i))
	}
	if w.reversed {
		reverseBytes(b)
	}
	copy(w.buf[at:at+size], b)
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// SegmentCoords packs one coordinate's (x, y, or z) coefficients for
// one segment. Codes[class] holds already sign-encoded values for
// that precision class: for classes 0-3 an LSB-sign code, for classes
// 4-5 a top-bit-sign sub-field value. A nil or empty slice means that
// class contributes no coefficients.
type SegmentCoords struct {
	Codes [6][]uint32
}

func (s SegmentCoords) counts() [6]int {
	var c [6]int
	for i, codes := range s.Codes {
		c[i] = len(codes)
	}
	return c
}

func (s SegmentCoords) total() int {
	n := 0
	for _, c := range s.counts() {
		n += c
	}
	return n
}

// encodeNsize renders the per-coordinate sub-header: the short
// four-nibble form when classes 4 and 5 are unused, otherwise the
// extended six-nibble form signalled by the high bit of the first
// byte.
func encodeNsize(counts [6]int) ([]byte, error) {
	for i, c := range counts {
		if c < 0 || c > 15 {
			return nil, fmt.Errorf("fixture: class %d count %d out of nibble range", i, c)
		}
	}
	if counts[4] == 0 && counts[5] == 0 {
		if counts[0] > 7 {
			return nil, fmt.Errorf("fixture: class 0 count %d would collide with extended-form flag bit", counts[0])
		}
		c0 := byte(counts[0]<<4) | byte(counts[1])
		c1 := byte(counts[2]<<4) | byte(counts[3])
		return []byte{c0, c1}, nil
	}
	c0 := byte(0x80)
	c1 := byte(counts[0]<<4) | byte(counts[1])
	e0 := byte(counts[2]<<4) | byte(counts[3])
	e1 := byte(counts[4]<<4) | byte(counts[5])
	return []byte{c0, c1, e0, e1}, nil
}

// encodeClassCodes packs one class's already-encoded values at
// bitWidth bits each, mirroring decodeCoeffClass's byte layout in
// reverse: little-endian byte-aligned codes for bitWidth>=8, several
// sub-fields per byte (highest first) for bitWidth<8.
func encodeClassCodes(codes []uint32, bitWidth int) []byte {
	if bitWidth >= 8 {
		nbytes := bitWidth / 8
		out := make([]byte, 0, nbytes*len(codes))
		for _, code := range codes {
			for j := 0; j < nbytes; j++ {
				out = append(out, byte(code>>(8*j)))
			}
		}
		return out
	}
	fieldsPerByte := 8 / bitWidth
	mask := uint32(1<<bitWidth) - 1
	nbytes := (len(codes) + fieldsPerByte - 1) / fieldsPerByte
	out := make([]byte, nbytes)
	for i, code := range codes {
		byteIdx := i / fieldsPerByte
		fieldInByte := i % fieldsPerByte
		shift := (fieldsPerByte - 1 - fieldInByte) * bitWidth
		out[byteIdx] |= byte(code&mask) << shift
	}
	return out
}

// EncodeCoordinate renders one coordinate's full on-disk byte span:
// the sub-header followed by every non-empty class's packed codes, in
// class order.
func EncodeCoordinate(c SegmentCoords) ([]byte, error) {
	hdr, err := encodeNsize(c.counts())
	if err != nil {
		return nil, err
	}
	out := append([]byte{}, hdr...)
	for class, codes := range c.Codes {
		if len(codes) == 0 {
			continue
		}
		out = append(out, encodeClassCodes(codes, classBitWidth[class])...)
	}
	return out, nil
}

// EncodeSegment renders a full three-coordinate segment payload
// (x, then y, then z), the byte span a 3-byte index table entry
// points at.
func EncodeSegment(x, y, z SegmentCoords) ([]byte, error) {
	var out []byte
	for _, c := range []SegmentCoords{x, y, z} {
		span, err := EncodeCoordinate(c)
		if err != nil {
			return nil, err
		}
		out = append(out, span...)
	}
	return out, nil
}

// EncodeLSBSign encodes a class 0-3 coefficient: sign in bit 0,
// magnitude shifted up by one. This is the exact inverse of
// internal/seph's signMagnitudeLSB, written independently from it.
func EncodeLSBSign(magnitude uint32, negative bool) uint32 {
	if !negative {
		return magnitude << 1
	}
	return 2*magnitude - 1
}

// EncodeTopBitSign encodes a class 4-5 sub-field: sign in the field's
// own top bit, magnitude in the remaining bits. Exact inverse of
// internal/seph's signMagnitudeTopBit.
func EncodeTopBitSign(magnitude uint32, negative bool, bitWidth int) uint32 {
	topBit := uint32(1) << (bitWidth - 1)
	if !negative {
		return magnitude << 1
	}
	return 2*magnitude - topBit
}

// Segment is one body's time-ordered segment: the packed coefficient
// payload for its three coordinates.
type Segment struct {
	X, Y, Z SegmentCoords
}

// Body describes one body's header record and its time-ordered
// segments. Ncoe must equal every segment coordinate's total().
type Body struct {
	ID       int32
	Flags    seph.BodyFlags
	Ncoe     int
	Rmax     float64
	Tfstart  float64
	Tfend    float64
	Dseg     float64
	Telem    float64
	Prot     float64
	Dprot    float64
	Qrot     float64
	Dqrot    float64
	Peri     float64
	Dperi    float64
	Refep    []float64
	Segments []Segment
}

// File describes a complete synthetic SE1 image.
type File struct {
	Reversed    bool
	TfstartFile float64
	TfendFile   float64
	Bodies      []Body
}

// Build renders a File into bytes accepted by seph.OpenBytes.
func Build(f File) ([]byte, error) {
	for _, b := range f.Bodies {
		for segIdx, seg := range b.Segments {
			for _, c := range []SegmentCoords{seg.X, seg.Y, seg.Z} {
				if c.total() != b.Ncoe {
					return nil, fmt.Errorf("fixture: body %d segment %d has %d coefficients, want ncoe %d", b.ID, segIdx, c.total(), b.Ncoe)
				}
			}
		}
	}

	w := &writer{reversed: f.Reversed}
	w.putRaw([]byte("SE1 fixture banner line 1\r\n"))
	w.putRaw([]byte("SE1 fixture banner line 2\r\n"))
	w.putRaw([]byte("SE1 fixture banner line 3\r\n"))

	w.putInt(sentinelValue, 4)
	w.putInt(0, 4) // file length, sanity only
	w.putInt(0, 4) // ephemeris numbering
	w.putFloat64(f.TfstartFile)
	w.putFloat64(f.TfendFile)

	w.putInt(int64(len(f.Bodies)), 2)
	for _, b := range f.Bodies {
		w.putInt(int64(b.ID), 2)
	}
	w.putInt(0, 4)              // CRC, unvalidated
	for i := 0; i < 5; i++ {
		w.putFloat64(0)
	}

	offsetFieldPos := make([]int, len(f.Bodies))
	for i, b := range f.Bodies {
		offsetFieldPos[i] = w.pos()
		w.putInt(0, 4) // index_table_offset, patched below
		w.putByte(byte(b.Flags))
		w.putByte(byte(b.Ncoe))
		w.putInt(int64(math.Round(b.Rmax*1000)), 4)
		for _, v := range []float64{b.Tfstart, b.Tfend, b.Dseg, b.Telem, b.Prot, b.Dprot, b.Qrot, b.Dqrot, b.Peri, b.Dperi} {
			w.putFloat64(v)
		}
		if b.Flags.Ellipse() {
			if len(b.Refep) != 2*b.Ncoe {
				return nil, fmt.Errorf("fixture: body %d refep has %d doubles, want %d", b.ID, len(b.Refep), 2*b.Ncoe)
			}
			for _, v := range b.Refep {
				w.putFloat64(v)
			}
		}
	}

	indexTablePos := make([]int, len(f.Bodies))
	for i, b := range f.Bodies {
		indexTablePos[i] = w.pos()
		for range b.Segments {
			w.putInt(0, 3) // segment offset, patched below
		}
	}

	for i, b := range f.Bodies {
		w.patchInt(offsetFieldPos[i], int64(indexTablePos[i]), 4)
		for segIdx, seg := range b.Segments {
			payload, err := EncodeSegment(seg.X, seg.Y, seg.Z)
			if err != nil {
				return nil, err
			}
			segPos := w.pos()
			w.patchInt(indexTablePos[i]+segIdx*3, int64(segPos), 3)
			w.putRaw(payload)
		}
	}

	return w.buf, nil
}
