package seph

// BodyFlags is a bitset over the per-body hints read from the header's
// constant area.
type BodyFlags uint8

const (
	FlagHeliocentric BodyFlags = 1 << 0
	FlagRotate       BodyFlags = 1 << 1
	FlagEllipse      BodyFlags = 1 << 2
)

func (f BodyFlags) Heliocentric() bool { return f&FlagHeliocentric != 0 }
func (f BodyFlags) Rotate() bool       { return f&FlagRotate != 0 }
func (f BodyFlags) Ellipse() bool      { return f&FlagEllipse != 0 }

// Vector is a rectangular coordinate triple in AU, J2000 equatorial axes.
type Vector struct {
	X, Y, Z float64
}

// bodyRecord is immutable after header parsing, save for the mutable
// segment cache at the bottom.
type bodyRecord struct {
	id int32

	indexTableOffset int64
	flags            BodyFlags
	ncoe             int
	rmax             float64

	tfstart, tfend, dseg float64
	telem, prot, dprot   float64
	qrot, dqrot          float64
	peri, dperi          float64

	refep []float64 // len 2*ncoe, present iff flags.Ellipse()

	// mutable per-body cache
	segp         []float64 // len 3*ncoe, laid out [x|y|z]
	tseg0, tseg1 float64
	haveSegment  bool
}

// Handle owns a fully materialised ephemeris file image and the parsed
// per-body metadata table. It is single-owner: concurrent callers must
// synchronise externally (see seph.HandlePool for a ready-made pool).
type Handle struct {
	image  []byte
	digest string

	reorder    bool
	diskBigEnd bool

	tfstartFile float64
	tfendFile   float64

	bodies  map[int32]*bodyRecord
	bodyIDs []int32
}

// Digest returns the hex SHA-256 digest of the file image, computed once
// at open time, so callers (e.g. sephctl validate) can cite which exact
// bytes a chart was derived from without rehashing the file.
func (h *Handle) Digest() string {
	return h.digest
}

// Validity returns the file's overall validity window in Julian days.
func (h *Handle) Validity() (start, end float64) {
	return h.tfstartFile, h.tfendFile
}

// Flags returns the per-body flag bitset for the given body id.
func (h *Handle) Flags(body int32) (BodyFlags, error) {
	rec, ok := h.bodies[body]
	if !ok {
		return 0, ErrUnknownBody
	}
	return rec.flags, nil
}

// BodyIDs returns the body ids present in this file, in the order the
// header lists them.
func (h *Handle) BodyIDs() []int32 {
	out := make([]int32, len(h.bodyIDs))
	copy(out, h.bodyIDs)
	return out
}
