package dial

import (
	"sort"
	"time"
)

// StaleRSSI is the reading shown for a device that stopped reporting.
const StaleRSSI = -120

// Signal is either an active reading or stale.
type Signal struct {
	rssi  int
	stale bool
}

// Active returns a live signal reading.
func Active(rssi int) Signal { return Signal{rssi: rssi} }

// Stale returns the signal of a device that stopped reporting.
func Stale() Signal { return Signal{stale: true} }

// IsStale reports whether the device has gone silent.
func (s Signal) IsStale() bool { return s.stale }

// RSSI returns the last reading and whether it is live.
func (s Signal) RSSI() (int, bool) {
	if s.stale {
		return 0, false
	}
	return s.rssi, true
}

// Display returns the reading to show, StaleRSSI when stale.
func (s Signal) Display() int {
	if s.stale {
		return StaleRSSI
	}
	return s.rssi
}

// SightingKind classifies a discovery event.
type SightingKind int

const (
	SightingFirst SightingKind = iota
	SightingRepeat
	SightingRevived
)

func (k SightingKind) String() string {
	switch k {
	case SightingFirst:
		return "first"
	case SightingRevived:
		return "revived"
	default:
		return "repeat"
	}
}

// Record is what the registry knows about one device.
type Record struct {
	ID       string
	Name     string
	Signal   Signal
	LastSeen time.Time
}

// DisplayName returns the device name or "[unnamed]" if empty.
func (r Record) DisplayName() string {
	if r.Name == "" {
		return "[unnamed]"
	}
	return r.Name
}

// Registry holds one record per known device. It is owned by a single
// goroutine and never touches slot assignments.
type Registry struct {
	records map[string]*Record
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[string]*Record)}
}

// Observe records a sighting and classifies it.
func (r *Registry) Observe(id, name string, rssi int, now time.Time) SightingKind {
	existing, ok := r.records[id]
	if !ok {
		r.records[id] = &Record{
			ID:       id,
			Name:     name,
			Signal:   Active(rssi),
			LastSeen: now,
		}
		return SightingFirst
	}

	kind := SightingRepeat
	if existing.Signal.IsStale() {
		kind = SightingRevived
	}
	existing.Signal = Active(rssi)
	existing.LastSeen = now
	if name != "" {
		existing.Name = name
	}
	return kind
}

// SweepStale marks every active record silent for longer than timeout as
// stale and returns their ids in sorted order. LastSeen is left alone.
func (r *Registry) SweepStale(now time.Time, timeout time.Duration) []string {
	var marked []string
	for id, rec := range r.records {
		if rec.Signal.IsStale() {
			continue
		}
		if now.Sub(rec.LastSeen) > timeout {
			rec.Signal = Stale()
			marked = append(marked, id)
		}
	}
	sort.Strings(marked)
	return marked
}

// Remove deletes a record. Unknown ids are a no-op.
func (r *Registry) Remove(id string) bool {
	if _, ok := r.records[id]; !ok {
		return false
	}
	delete(r.records, id)
	return true
}

// Get returns a copy of the record for id.
func (r *Registry) Get(id string) (Record, bool) {
	rec, ok := r.records[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// LastSeen returns the last real sighting time of id.
func (r *Registry) LastSeen(id string) (time.Time, bool) {
	rec, ok := r.records[id]
	if !ok {
		return time.Time{}, false
	}
	return rec.LastSeen, true
}

// Len returns the number of known devices.
func (r *Registry) Len() int {
	return len(r.records)
}

// Records returns a copy of every record keyed by id.
func (r *Registry) Records() map[string]Record {
	out := make(map[string]Record, len(r.records))
	for id, rec := range r.records {
		out[id] = *rec
	}
	return out
}
