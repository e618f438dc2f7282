package dial

import "errors"

var (
	// ErrCapacityOutOfRange is a configuration error. The previous
	// configuration stays in effect.
	ErrCapacityOutOfRange = errors.New("capacity out of range")

	// ErrInvariant means divisions, capacity and the excluded set were
	// not consistent, e.g. the slot walk found no free slot below capacity.
	// Only the current operation fails.
	ErrInvariant = errors.New("slot invariant violated")

	// ErrInactive is returned for discovery and sweep events that arrive
	// while scanning is stopped.
	ErrInactive = errors.New("scanning inactive")
)
