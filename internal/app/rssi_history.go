package app

// RSSIRing is a circular buffer for RSSI history values.
type RSSIRing struct {
	buf   []float64
	pos   int
	count int
}

// NewRSSIRing creates a new circular buffer with the given capacity.
func NewRSSIRing(capacity int) *RSSIRing {
	return &RSSIRing{buf: make([]float64, capacity)}
}

// Push adds a value, overwriting the oldest once full.
func (r *RSSIRing) Push(val float64) {
	r.buf[r.pos] = val
	r.pos = (r.pos + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// Values returns all stored values in chronological order.
func (r *RSSIRing) Values() []float64 {
	if r.count == 0 {
		return nil
	}
	result := make([]float64, r.count)
	if r.count < len(r.buf) {
		copy(result, r.buf[:r.count])
	} else {
		n := copy(result, r.buf[r.pos:])
		copy(result[n:], r.buf[:r.pos])
	}
	return result
}

// Len returns the number of stored values.
func (r *RSSIRing) Len() int { return r.count }

// signalHistory keeps one ring per device currently on the dial.
type signalHistory struct {
	size  int
	rings map[string]*RSSIRing
}

func newSignalHistory(size int) *signalHistory {
	return &signalHistory{size: size, rings: make(map[string]*RSSIRing)}
}

func (h *signalHistory) record(id string, rssi int) {
	r, ok := h.rings[id]
	if !ok {
		r = NewRSSIRing(h.size)
		h.rings[id] = r
	}
	r.Push(float64(rssi))
}

func (h *signalHistory) values(id string) []float64 {
	if r, ok := h.rings[id]; ok {
		return r.Values()
	}
	return nil
}

func (h *signalHistory) drop(ids ...string) {
	for _, id := range ids {
		delete(h.rings, id)
	}
}

// retain drops every ring whose device is not in keep.
func (h *signalHistory) retain(keep map[string]int) {
	for id := range h.rings {
		if _, ok := keep[id]; !ok {
			delete(h.rings, id)
		}
	}
}

func (h *signalHistory) reset() {
	h.rings = make(map[string]*RSSIRing)
}
