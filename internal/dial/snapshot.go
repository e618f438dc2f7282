package dial

import (
	"math"
	"sort"
)

// Snapshot is an immutable view of the engine between two events.
type Snapshot struct {
	ring    Ring
	active  bool
	session string

	slots   map[string]int
	owners  map[int]string
	records map[string]Record
}

func newSnapshot(e *Engine) *Snapshot {
	slots := e.alloc.Assignment()
	owners := make(map[int]string, len(slots))
	for id, s := range slots {
		owners[s] = id
	}
	return &Snapshot{
		ring:    e.ring,
		active:  e.active,
		session: e.session,
		slots:   slots,
		owners:  owners,
		records: e.registry.Records(),
	}
}

// Ring returns the layout the snapshot was taken with.
func (s *Snapshot) Ring() Ring { return s.ring }

// Active reports whether scanning was running.
func (s *Snapshot) Active() bool { return s.active }

// Session returns the scan session id, empty before the first session.
func (s *Snapshot) Session() string { return s.session }

// Assignment returns a copy of the id -> slot mapping.
func (s *Snapshot) Assignment() map[string]int {
	out := make(map[string]int, len(s.slots))
	for id, slot := range s.slots {
		out[id] = slot
	}
	return out
}

// Records returns a copy of the id -> record mapping.
func (s *Snapshot) Records() map[string]Record {
	out := make(map[string]Record, len(s.records))
	for id, r := range s.records {
		out[id] = r
	}
	return out
}

// Record returns the record of id.
func (s *Snapshot) Record(id string) (Record, bool) {
	r, ok := s.records[id]
	return r, ok
}

// Slot returns the slot held by id.
func (s *Snapshot) Slot(id string) (int, bool) {
	slot, ok := s.slots[id]
	return slot, ok
}

// SlotOwner returns the device drawn in slot.
func (s *Snapshot) SlotOwner(slot int) (string, bool) {
	id, ok := s.owners[slot]
	return id, ok
}

// Slotted returns the slotted device ids ordered by slot.
func (s *Snapshot) Slotted() []string {
	ids := make([]string, 0, len(s.slots))
	for id := range s.slots {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.slots[ids[i]] < s.slots[ids[j]]
	})
	return ids
}

// Len returns the number of slotted devices.
func (s *Snapshot) Len() int { return len(s.slots) }

// HitTest maps a point given as angle (degrees, drawing convention) and
// fraction of the dial radius to the device drawn there. Points off the
// dial, on an excluded slot or on an empty slot hit nothing.
func (s *Snapshot) HitTest(angle, radiusFraction float64) (string, bool) {
	if !(radiusFraction >= 0 && radiusFraction <= 1) || s.ring.Divisions() == 0 {
		return "", false
	}
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return "", false
	}
	slot := s.ring.SlotAt(angle)
	if s.ring.IsExcluded(slot) {
		return "", false
	}
	return s.SlotOwner(slot)
}
