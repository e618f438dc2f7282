package radar

import (
	"math"
	"time"

	"ble-dial.klederson.com/internal/config"
)

// Sweep is the rotating scanning indicator drawn inside the ring. It only
// moves while scanning is active.
type Sweep struct {
	Angle   float64 // radians [0, 2π), 0=north, clockwise
	last    time.Time
	running bool
}

// NewSweep creates a stopped sweep pointing north.
func NewSweep() *Sweep {
	return &Sweep{}
}

// Start resumes rotation from the current angle.
func (s *Sweep) Start(now time.Time) {
	s.running = true
	s.last = now
}

// Pause freezes the sweep in place.
func (s *Sweep) Pause() { s.running = false }

// Running reports whether the sweep is rotating.
func (s *Sweep) Running() bool { return s.running }

// Update advances the sweep to now.
func (s *Sweep) Update(now time.Time) {
	if !s.running {
		return
	}
	elapsed := now.Sub(s.last).Seconds()
	s.last = now
	if elapsed <= 0 {
		return
	}
	rps := float64(config.SweepSpeedRPM) / 60.0
	s.Angle = NormalizeAngle(s.Angle + elapsed*rps*2*math.Pi)
}

// Degrees returns the current sweep angle in degrees.
func (s *Sweep) Degrees() float64 {
	return s.Angle * 180 / math.Pi
}

// Intensity returns the glow [0, 1] for a cell angle. The sweep has a
// trailing glow of SweepTrailDeg degrees and is dark while paused.
func (s *Sweep) Intensity(cellAngle float64) float64 {
	if !s.running {
		return 0
	}
	diff := NormalizeAngle(s.Angle - cellAngle)
	trailRad := config.SweepTrailDeg * math.Pi / 180.0
	if diff > trailRad {
		return 0
	}
	return 1.0 - diff/trailRad
}
