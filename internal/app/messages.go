package app

import "time"

// TickMsg triggers a frame update for animation.
type TickMsg time.Time

// SweepMsg triggers the staleness sweep. Gen ties it to the scan session
// that armed it; sweeps from an earlier session are dropped.
type SweepMsg struct {
	Gen int
	At  time.Time
}
