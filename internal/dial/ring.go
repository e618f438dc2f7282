package dial

import "fmt"

// Ring is the immutable layout derived from a usable capacity. Divisions,
// the excluded set and the rotation are always computed together, so a
// Ring value never mixes two configurations.
type Ring struct {
	capacity  int
	divisions int
	rotation  float64
	excluded  []int
	reserved  []bool // indexed by slot
}

// NewRing builds the layout for capacity usable slots.
func NewRing(capacity int) (Ring, error) {
	if capacity < 1 {
		return Ring{}, fmt.Errorf("%w: %d", ErrCapacityOutOfRange, capacity)
	}

	divisions := Divisions(capacity)
	excluded := ExcludedSlots(divisions, capacity)
	reserved := make([]bool, divisions)
	for _, s := range excluded {
		reserved[s] = true
	}

	return Ring{
		capacity:  capacity,
		divisions: divisions,
		rotation:  RotationOffset(divisions, len(excluded)),
		excluded:  excluded,
		reserved:  reserved,
	}, nil
}

// Capacity is the number of devices the ring can show at once.
func (r Ring) Capacity() int { return r.capacity }

// Divisions is the total number of positions on the ring.
func (r Ring) Divisions() int { return r.divisions }

// Rotation is the parity-dependent offset applied to every slot angle.
func (r Ring) Rotation() float64 { return r.rotation }

// Excluded returns a copy of the reserved slot indices.
func (r Ring) Excluded() []int {
	out := make([]int, len(r.excluded))
	copy(out, r.excluded)
	return out
}

// IsExcluded reports whether slot is reserved for the settings control.
func (r Ring) IsExcluded(slot int) bool {
	return slot >= 0 && slot < len(r.reserved) && r.reserved[slot]
}

// InRange reports whether slot is a valid index on this ring.
func (r Ring) InRange(slot int) bool {
	return slot >= 0 && slot < r.divisions
}

// StartAngle returns the leading edge of slot i on this ring.
func (r Ring) StartAngle(i int) float64 {
	return StartAngle(i, r.divisions, r.rotation)
}

// MidpointAngle returns the center of slot i on this ring.
func (r Ring) MidpointAngle(i int) float64 {
	return MidpointAngle(i, r.divisions, r.rotation)
}

// SliceAngle returns the width of one slot on this ring.
func (r Ring) SliceAngle() float64 {
	return SliceAngle(r.divisions)
}

// SlotAt maps an angle to the slot drawn there.
func (r Ring) SlotAt(angle float64) int {
	return AngleToSlot(angle, r.divisions, r.rotation)
}
