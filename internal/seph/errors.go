package seph

import "errors"

// Sentinel errors surfaced verbatim to callers. All decode failures are
// fatal to the current call; none leave the handle's per-body cache
// poisoned (see Handle.Position).
var (
	ErrInvalidHeader  = errors.New("seph: invalid header")
	ErrUnknownBody    = errors.New("seph: unknown body")
	ErrOutOfRange     = errors.New("seph: julian date out of range")
	ErrShortRead      = errors.New("seph: short read")
	ErrCorruptSegment = errors.New("seph: corrupt segment")
)
