package dial

// ExcludedSlots returns the slots reserved for the settings control,
// centered on divisions/2 (the bottom of the ring), in ascending order.
//
// An even count straddles the center as [center-half, center+half); an
// odd count is the closed interval [center-half, center+half].
func ExcludedSlots(divisions, capacity int) []int {
	excluded := divisions - capacity
	if excluded <= 0 {
		return nil
	}

	center := divisions / 2
	half := excluded / 2

	lo, hi := center-half, center+half
	if excluded%2 == 1 {
		hi++
	}

	slots := make([]int, 0, excluded)
	for i := lo; i < hi; i++ {
		slots = append(slots, i)
	}
	return slots
}
