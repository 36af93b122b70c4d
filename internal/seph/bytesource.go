package seph

import (
	"encoding/binary"
	"fmt"
	"math"
)

// cursor is a local, by-value position into a Handle's immutable file
// image. Passing it by value (rather than storing a mutable offset on
// the Handle itself, as a naive port of the original reader would) is
// what keeps a single Handle's read path free of hidden state between
// calls; the mutable state the spec actually calls for — the per-body
// segment cache — lives on bodyRecord instead.
type cursor struct {
	img     []byte
	pos     int64
	reorder bool
	bigEnd  bool
}

func newCursor(img []byte, reorder, bigEnd bool) cursor {
	return cursor{img: img, reorder: reorder, bigEnd: bigEnd}
}

func (c *cursor) seek(pos int64) { c.pos = pos }
func (c cursor) tell() int64     { return c.pos }

// readRaw advances the cursor by size*count bytes and returns the span.
// A short read is always fatal.
func (c *cursor) readRaw(size, count int) ([]byte, error) {
	n := int64(size) * int64(count)
	if n < 0 || c.pos+n > int64(len(c.img)) {
		return nil, fmt.Errorf("%w: wanted %d bytes at offset %d, image is %d bytes", ErrShortRead, n, c.pos, len(c.img))
	}
	span := c.img[c.pos : c.pos+n]
	c.pos += n
	return span, nil
}

// readLine consumes bytes up to the next CRLF and returns the preceding
// span as text. Used only by the header's three banner lines.
func (c *cursor) readLine() (string, error) {
	start := c.pos
	for i := c.pos; i+1 < int64(len(c.img)); i++ {
		if c.img[i] == '\r' && c.img[i+1] == '\n' {
			line := string(c.img[start:i])
			c.pos = i + 2
			return line, nil
		}
	}
	return "", fmt.Errorf("%w: no CRLF terminator found starting at offset %d", ErrInvalidHeader, start)
}

// readInt reinterprets an on-disk integer of width onDiskSize into a
// signed 32-bit host value, applying the reorder/placement rules of
// spec.md section 4.1.
func (c *cursor) readInt(onDiskSize int) (int32, error) {
	buf, err := c.readRaw(onDiskSize, 1)
	if err != nil {
		return 0, err
	}
	return reinterpretInt32(buf, onDiskSize, c.reorder, c.bigEnd)
}

func (c *cursor) readShort() (int16, error) {
	buf, err := c.readRaw(2, 1)
	if err != nil {
		return 0, err
	}
	v, err := reinterpretInt32(buf, 2, c.reorder, c.bigEnd)
	if err != nil {
		return 0, err
	}
	return int16(v), nil
}

func (c *cursor) readByte() (uint8, error) {
	buf, err := c.readRaw(1, 1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (c *cursor) readDouble() (float64, error) {
	buf, err := c.readRaw(8, 1)
	if err != nil {
		return 0, err
	}
	bits, err := reinterpretUint64(buf, c.reorder)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

func (c *cursor) readDoubleArray(count int) ([]float64, error) {
	out := make([]float64, count)
	for i := range out {
		v, err := c.readDouble()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// reinterpretInt32 places an onDiskSize-byte on-disk integer into a
// signed 32-bit host value. size==corrsize (4) is the common case: a
// straight (possibly byte-reversed) little-endian decode. size 2 is
// sign-extended and size 1 is taken as an unsigned byte. size 3 is
// used only for the segment-offset table; its placement follows spec.md section 4.1's low/high-byte rule, mirrored
// under reordering.
func reinterpretInt32(buf []byte, size int, reorder, bigEnd bool) (int32, error) {
	switch size {
	case 1:
		return int32(buf[0]), nil
	case 4:
		b := [4]byte{buf[0], buf[1], buf[2], buf[3]}
		if reorder {
			b = [4]byte{buf[3], buf[2], buf[1], buf[0]}
		}
		return int32(binary.LittleEndian.Uint32(b[:])), nil
	case 2:
		b := [2]byte{buf[0], buf[1]}
		if reorder {
			b = [2]byte{buf[1], buf[0]}
		}
		return int32(int16(binary.LittleEndian.Uint16(b[:]))), nil
	case 3:
		bb := [3]byte{buf[0], buf[1], buf[2]}
		if reorder {
			bb = [3]byte{buf[2], buf[1], buf[0]}
		}
		placeHigh := bigEnd != reorder
		var container [4]byte
		if placeHigh {
			container = [4]byte{0, bb[0], bb[1], bb[2]}
		} else {
			container = [4]byte{bb[0], bb[1], bb[2], 0}
		}
		return int32(binary.LittleEndian.Uint32(container[:])), nil
	default:
		return 0, fmt.Errorf("%w: unsupported on-disk integer width %d", ErrInvalidHeader, size)
	}
}

func reinterpretUint64(buf []byte, reorder bool) (uint64, error) {
	if len(buf) != 8 {
		return 0, fmt.Errorf("%w: double read needs 8 bytes, got %d", ErrShortRead, len(buf))
	}
	b := [8]byte{}
	copy(b[:], buf)
	if reorder {
		for i, j := 0, 7; i < j; i, j = i+1, j-1 {
			b[i], b[j] = b[j], b[i]
		}
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
