package radar

import (
	"time"

	"ble-dial.klederson.com/internal/config"
	"ble-dial.klederson.com/internal/dial"
	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
)

const slotSaturation = 0.85

// Brightness maps a signal to [MinBrightness, 1]. Stronger is brighter;
// stale signals sit at the floor.
func Brightness(sig dial.Signal) float64 {
	rssi, live := sig.RSSI()
	if !live {
		return config.MinBrightness
	}
	t := float64(rssi-config.RSSIFloor) / float64(config.RSSICeiling-config.RSSIFloor)
	return config.MinBrightness + (1-config.MinBrightness)*clamp01(t)
}

// RimFade dims the "last seen" rim from 1 to MinBrightness over the stale
// timeout.
func RimFade(since, staleTimeout time.Duration) float64 {
	if staleTimeout <= 0 || since <= 0 {
		return 1
	}
	t := clamp01(float64(since) / float64(staleTimeout))
	return 1 - (1-config.MinBrightness)*t
}

// SlotColor is the device hue at the given brightness.
func SlotColor(hue, brightness float64) lipgloss.Color {
	return lipgloss.Color(colorful.Hsv(hue, slotSaturation, clamp01(brightness)).Hex())
}

// Dim scales a hex color's value by factor.
func Dim(hex string, factor float64) lipgloss.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return lipgloss.Color(hex)
	}
	h, s, v := c.Hsv()
	return lipgloss.Color(colorful.Hsv(h, s, clamp01(v*factor)).Hex())
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
