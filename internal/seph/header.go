package seph

import (
	"fmt"
	"os"

	"example.com/sephchart/internal/common"
)

// digestChunkSize bounds how much of the image is fed to the hasher at
// once, so opening a multi-megabyte file doesn't require a second
// full-size copy for the hash input.
const digestChunkSize = 64 * 1024

const sentinelValue = 0x616263

// Open reads the file at path fully into memory and parses its constant
// area (three banner lines, endian sentinel, file extent, body table).
func Open(path string) (*Handle, error) {
	img, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return OpenBytes(img)
}

// OpenBytes parses an already-materialised ephemeris file image. Exposed
// separately so fixtures (internal/seph/fixture) and tests never touch
// the filesystem.
func OpenBytes(img []byte) (*Handle, error) {
	// Banner lines and the sentinel itself are read without knowing the
	// reorder mode yet, since they don't involve multi-byte numbers.
	c := newCursor(img, false, false)

	for i := 0; i < 3; i++ {
		if _, err := c.readLine(); err != nil {
			return nil, err
		}
	}

	sentinelPos := c.tell()
	raw, err := c.readRaw(4, 1)
	if err != nil {
		return nil, err
	}
	reorder, bigEnd, err := detectByteOrder(raw)
	if err != nil {
		return nil, fmt.Errorf("%w at offset %d", err, sentinelPos)
	}
	c.reorder = reorder
	c.bigEnd = bigEnd

	if _, err := c.readInt(4); err != nil { // file length, sanity only
		return nil, err
	}
	if _, err := c.readInt(4); err != nil { // ephemeris numbering
		return nil, err
	}
	tfstartFile, err := c.readDouble()
	if err != nil {
		return nil, err
	}
	tfendFile, err := c.readDouble()
	if err != nil {
		return nil, err
	}

	nplanRaw, err := c.readShort()
	if err != nil {
		return nil, err
	}
	nplan := int(nplanRaw)
	if nplan < 0 {
		nplan += 1 << 16
	}
	idWidth := 2
	if nplan > 256 {
		idWidth = 4
		nplan %= 256
	}
	bodyIDs := make([]int32, nplan)
	for i := range bodyIDs {
		id, err := c.readInt(idWidth)
		if err != nil {
			return nil, err
		}
		bodyIDs[i] = id
	}

	if _, err := c.readInt(4); err != nil { // CRC, unvalidated
		return nil, err
	}
	if _, err := c.readDoubleArray(5); err != nil { // unused globals
		return nil, err
	}

	bodies := make(map[int32]*bodyRecord, nplan)
	for _, id := range bodyIDs {
		rec, err := readBodyRecord(&c, id)
		if err != nil {
			return nil, err
		}
		if err := validateBodyRecord(rec, tfstartFile, tfendFile); err != nil {
			return nil, err
		}
		bodies[id] = rec
	}

	return &Handle{
		image:       img,
		digest:      digestImage(img),
		reorder:     reorder,
		diskBigEnd:  bigEnd,
		tfstartFile: tfstartFile,
		tfendFile:   tfendFile,
		bodies:      bodies,
		bodyIDs:     bodyIDs,
	}, nil
}

// digestImage hashes the file image in fixed-size chunks through
// common.Hasher rather than in one shot, mirroring how a streamed read
// of a much larger ephemeris file would be hashed incrementally.
func digestImage(img []byte) string {
	h := common.NewHasher()
	for off := 0; off < len(img); off += digestChunkSize {
		end := off + digestChunkSize
		if end > len(img) {
			end = len(img)
		}
		h.Write(img[off:end])
	}
	return h.Sum()
}

// detectByteOrder implements spec.md section 4.2 step 2: try the raw
// bytes as a little-endian host int first, then byte-reversed.
func detectByteOrder(raw []byte) (reorder, bigEnd bool, err error) {
	v, decErr := reinterpretInt32(raw, 4, false, false)
	if decErr == nil && v == sentinelValue {
		return false, false, nil
	}
	vr, decErr := reinterpretInt32(raw, 4, true, false)
	if decErr == nil && vr == sentinelValue {
		return true, true, nil
	}
	return false, false, ErrInvalidHeader
}

func readBodyRecord(c *cursor, id int32) (*bodyRecord, error) {
	offset, err := c.readInt(4)
	if err != nil {
		return nil, err
	}
	flagsByte, err := c.readByte()
	if err != nil {
		return nil, err
	}
	ncoeByte, err := c.readByte()
	if err != nil {
		return nil, err
	}
	rmaxRaw, err := c.readInt(4)
	if err != nil {
		return nil, err
	}
	vals, err := c.readDoubleArray(10)
	if err != nil {
		return nil, err
	}

	rec := &bodyRecord{
		id:               id,
		indexTableOffset: int64(offset),
		flags:            BodyFlags(flagsByte),
		ncoe:             int(ncoeByte),
		rmax:             float64(rmaxRaw) / 1000.0,
		tfstart:          vals[0],
		tfend:            vals[1],
		dseg:             vals[2],
		telem:            vals[3],
		prot:             vals[4],
		dprot:            vals[5],
		qrot:             vals[6],
		dqrot:            vals[7],
		peri:             vals[8],
		dperi:            vals[9],
	}
	if rec.flags.Ellipse() {
		refep, err := c.readDoubleArray(2 * rec.ncoe)
		if err != nil {
			return nil, err
		}
		rec.refep = refep
	}
	return rec, nil
}

func validateBodyRecord(rec *bodyRecord, tfstartFile, tfendFile float64) error {
	if rec.ncoe < 1 {
		return fmt.Errorf("%w: body %d has ncoe %d", ErrInvalidHeader, rec.id, rec.ncoe)
	}
	if rec.dseg <= 0 {
		return fmt.Errorf("%w: body %d has non-positive dseg %g", ErrInvalidHeader, rec.id, rec.dseg)
	}
	if rec.tfstart > rec.tfend {
		return fmt.Errorf("%w: body %d has tfstart > tfend", ErrInvalidHeader, rec.id)
	}
	if rec.tfstart < tfstartFile || rec.tfend > tfendFile {
		return fmt.Errorf("%w: body %d window [%g,%g] outside file window [%g,%g]",
			ErrInvalidHeader, rec.id, rec.tfstart, rec.tfend, tfstartFile, tfendFile)
	}
	return nil
}
