package seph

import "sync"

// HandlePool guards a single Handle with a mutex so that request
// handlers sharing one opened file don't need to reopen it per call.
// section 5 recommends either one handle per request or a
// mutex-guarded pool; a long-lived daemon favours the latter since
// opening re-reads and re-parses the whole file image.
type HandlePool struct {
	mu sync.Mutex
	h  *Handle
}

func NewHandlePool(h *Handle) *HandlePool {
	return &HandlePool{h: h}
}

// Position acquires exclusive access to the underlying handle for the
// duration of one decode.
func (p *HandlePool) Position(body int32, jd float64) (Vector, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.h.Position(body, jd)
}

func (p *HandlePool) Flags(body int32) (BodyFlags, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.h.Flags(body)
}

func (p *HandlePool) Validity() (start, end float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.h.Validity()
}

func (p *HandlePool) BodyIDs() []int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.h.BodyIDs()
}
