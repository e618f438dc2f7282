package config

import "time"

const (
	// Dial display
	AspectRatio         = 0.5  // Terminal char aspect correction (chars are ~2:1 tall)
	InnerRadiusFraction = 0.62 // Inner edge of the device band, as a fraction of the dial radius
	RimFraction         = 0.9  // Band fraction above which the "last seen" rim is drawn
	SliceGapRatio       = 0.92 // Drawn share of each slot; the rest is a gap
	SweepSpeedRPM       = 30   // Scanning indicator rotations per minute
	SweepTrailDeg       = 60.0 // Scanning indicator trail in degrees
	TargetFPS           = 15   // Target frames per second

	// Brightness mapping (dBm)
	RSSIFloor     = -100
	RSSICeiling   = -40
	MinBrightness = 0.3  // Dimmest a slot or rim ever gets
	PausedDimming = 0.85 // Brightness factor while scanning is paused

	// Device management
	DefaultCapacity      = 22
	DefaultStaleTimeout  = 5 * time.Second // Mark devices stale after this much silence
	DefaultSweepInterval = 2 * time.Second // How often to run the staleness sweep
	HistoryLen           = 48              // RSSI samples kept per device for the sparkline

	// Feedback
	ChimeDuration = 500 * time.Millisecond
	ChimeGap      = 50 * time.Millisecond

	// Scanner
	ClassicScanSec = 8   // hcitool scan duration in seconds
	ClassicRSSI    = -75 // hcitool scan doesn't report RSSI

	// Demo mode
	DemoRSSIMin = -90
	DemoRSSIMax = -40

	// App
	AppName    = "BLE-DIAL"
	AppVersion = "1.0"
	EnvPrefix  = "BLEDIAL_"
)

// DemoInterval returns how often demo mode invents a device. Bigger
// rings fill faster.
func DemoInterval(capacity int) time.Duration {
	switch {
	case capacity >= 30:
		return 500 * time.Millisecond
	case capacity >= 20:
		return 750 * time.Millisecond
	default:
		return time.Second
	}
}
