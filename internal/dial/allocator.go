package dial

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// walkStride is prime and larger than any supported division count, so
// the walk visits every slot before it repeats.
const walkStride = 151

// Outcome is the allocator's decision for one sighting.
type Outcome int

const (
	OutcomeAssigned Outcome = iota
	OutcomeKept
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAssigned:
		return "assigned"
	case OutcomeKept:
		return "kept"
	default:
		return "rejected"
	}
}

// Placement describes where a sighting landed. Evicted names the device
// that lost its slot to make room, if any.
type Placement struct {
	Outcome Outcome
	Slot    int
	Evicted string
}

var rejected = Placement{Outcome: OutcomeRejected, Slot: -1}

// Allocator owns the id -> slot mapping. Evicting a device removes its
// registry record too; staleness alone never frees a slot.
type Allocator struct {
	ring     Ring
	registry *Registry
	slots    map[string]int
	owners   map[int]string
	hash     func(string) uint32
}

// NewAllocator creates an empty allocator over ring, reading last-seen
// times from registry when choosing eviction victims.
func NewAllocator(ring Ring, registry *Registry) *Allocator {
	return &Allocator{
		ring:     ring,
		registry: registry,
		slots:    make(map[string]int),
		owners:   make(map[int]string),
		hash:     Hash,
	}
}

// Ring returns the current layout.
func (a *Allocator) Ring() Ring { return a.ring }

// Len returns the number of slotted devices.
func (a *Allocator) Len() int { return len(a.slots) }

// Slot returns the slot held by id.
func (a *Allocator) Slot(id string) (int, bool) {
	s, ok := a.slots[id]
	return s, ok
}

// SlotOwner returns the device holding slot.
func (a *Allocator) SlotOwner(slot int) (string, bool) {
	id, ok := a.owners[slot]
	return id, ok
}

// Assignment returns a copy of the id -> slot mapping.
func (a *Allocator) Assignment() map[string]int {
	out := make(map[string]int, len(a.slots))
	for id, s := range a.slots {
		out[id] = s
	}
	return out
}

// OnSighting decides the slot for a device the registry just classified.
// A slotted device keeps its slot. Otherwise it gets the first free slot
// on its walk, or the slot of the least recently seen device
// when the ring is full.
func (a *Allocator) OnSighting(id string, kind SightingKind) (Placement, error) {
	if slot, ok := a.slots[id]; ok {
		if kind == SightingFirst {
			// The registry had no record, so this slot was orphaned.
			return Placement{Outcome: OutcomeKept, Slot: slot},
				fmt.Errorf("%w: slot %d held by %s without a record", ErrInvariant, slot, id)
		}
		return Placement{Outcome: OutcomeKept, Slot: slot}, nil
	}

	if len(a.slots) < a.ring.Capacity() {
		slot, err := a.walk(id)
		if err != nil {
			return rejected, err
		}
		a.assign(id, slot)
		return Placement{Outcome: OutcomeAssigned, Slot: slot}, nil
	}

	victim, ok := a.victim()
	if !ok {
		return rejected, fmt.Errorf("%w: ring full (capacity %d) with no eviction candidate",
			ErrInvariant, a.ring.Capacity())
	}
	slot := a.slots[victim]
	a.evict(victim)
	a.assign(id, slot)
	return Placement{Outcome: OutcomeAssigned, Slot: slot, Evicted: victim}, nil
}

// Remove drops id's slot and record. It reports whether either existed.
func (a *Allocator) Remove(id string) bool {
	_, slotted := a.slots[id]
	a.release(id)
	known := a.registry.Remove(id)
	return slotted || known
}

// Reconfigure switches to ring. Devices whose slot is now excluded are
// evicted, the least recently seen devices are evicted while the count
// exceeds the new capacity, and devices whose slot no longer exists are
// re-placed through the walk. Everyone else keeps their slot. The
// evicted ids are returned sorted.
func (a *Allocator) Reconfigure(ring Ring) ([]string, error) {
	a.ring = ring

	var evicted []string
	for id, slot := range a.slots {
		if ring.IsExcluded(slot) {
			evicted = append(evicted, id)
		}
	}
	for _, id := range evicted {
		a.evict(id)
	}

	for len(a.slots) > ring.Capacity() {
		victim, ok := a.victim()
		if !ok {
			break
		}
		a.evict(victim)
		evicted = append(evicted, victim)
	}

	var displaced []string
	for id, slot := range a.slots {
		if !ring.InRange(slot) {
			displaced = append(displaced, id)
		}
	}
	sort.Strings(displaced)
	for _, id := range displaced {
		a.release(id)
	}

	var errs []error
	for _, id := range displaced {
		slot, err := a.walk(id)
		if err != nil {
			a.registry.Remove(id)
			evicted = append(evicted, id)
			errs = append(errs, err)
			continue
		}
		a.assign(id, slot)
	}

	sort.Strings(evicted)
	return evicted, errors.Join(errs...)
}

func (a *Allocator) walk(id string) (int, error) {
	m := a.ring.Divisions()
	if m == 0 {
		return -1, fmt.Errorf("%w: ring has no divisions", ErrInvariant)
	}

	candidate := int(a.hash(id) % uint32(m))
	for i := 0; i < m; i++ {
		if _, taken := a.owners[candidate]; !taken && !a.ring.IsExcluded(candidate) {
			return candidate, nil
		}
		candidate = (candidate + walkStride) % m
	}
	return -1, fmt.Errorf("%w: no free slot for %s (assigned %d, capacity %d, divisions %d)",
		ErrInvariant, id, len(a.slots), a.ring.Capacity(), m)
}

// victim returns the slotted device with the oldest LastSeen, ties going
// to the smallest id. A slot with no record counts as oldest.
func (a *Allocator) victim() (string, bool) {
	var (
		best     string
		bestSeen time.Time
		found    bool
	)
	for id := range a.slots {
		seen, _ := a.registry.LastSeen(id)
		if !found || seen.Before(bestSeen) || (seen.Equal(bestSeen) && id < best) {
			best, bestSeen, found = id, seen, true
		}
	}
	return best, found
}

func (a *Allocator) assign(id string, slot int) {
	a.slots[id] = slot
	a.owners[slot] = id
}

func (a *Allocator) release(id string) {
	if slot, ok := a.slots[id]; ok {
		delete(a.owners, slot)
		delete(a.slots, id)
	}
}

func (a *Allocator) evict(id string) {
	a.release(id)
	a.registry.Remove(id)
}
