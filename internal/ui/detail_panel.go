package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"ble-dial.klederson.com/internal/config"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// DeviceDetail is what the detail overlay shows for the selected device.
type DeviceDetail struct {
	ID       string
	Name     string
	Slot     int
	Angle    float64 // slot midpoint, degrees
	RSSI     int
	Stale    bool
	LastSeen time.Time
	History  []float64
	Color    lipgloss.Color
}

// RenderDetailPanel renders the device detail overlay that replaces the
// dial area.
func RenderDetailPanel(d DeviceDetail, now time.Time, width, height int) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}

	title := StylePanelTitle.Render("DEVICE DETAIL")
	escHint := StyleHelp.Render("[B]lock  [ESC]")
	titleLine := title + strings.Repeat(" ", max(0, innerW-lipgloss.Width(title)-lipgloss.Width(escHint))) + escHint

	lines := []string{titleLine, StyleRule.Render(strings.Repeat("-", innerW)), ""}

	labelSty := lipgloss.NewStyle().Foreground(ColorMidGreen)
	valSty := lipgloss.NewStyle().Foreground(ColorMatrixGreen).Bold(true)

	name := d.Name
	if name == "" {
		name = "[unnamed]"
	}
	signal := fmt.Sprintf("%d dBm", d.RSSI)
	if d.Stale {
		signal = "stale"
	}

	fields := []struct{ label, value string }{
		{"Name", name},
		{"Address", d.ID},
		{"Slot", fmt.Sprintf("%d  (%s)", d.Slot, compassPoint(d.Angle))},
		{"Signal", signal},
		{"Last", formatLastSeen(d.LastSeen, now)},
	}
	for _, f := range fields {
		lines = append(lines, labelSty.Render(fmt.Sprintf("  %-10s", f.label))+valSty.Render(f.value))
	}
	lines = append(lines, labelSty.Render(fmt.Sprintf("  %-10s", "Color"))+
		lipgloss.NewStyle().Foreground(d.Color).Render("████"), "")

	barWidth := innerW - 22
	if barWidth < 10 {
		barWidth = 10
	}
	if !d.Stale {
		lines = append(lines, labelSty.Render("  Signal ")+renderSignalBar(d.RSSI, barWidth), "")
	}

	if len(d.History) > 0 {
		sparkW := innerW - 4
		if sparkW < 10 {
			sparkW = 10
		}
		lines = append(lines, labelSty.Render("  RSSI History:"),
			"  "+lipgloss.NewStyle().Foreground(ColorGreen).Render(renderSparkline(d.History, sparkW)))
	}

	content := strings.Join(clampLines(lines, height-2), "\n")
	return StylePanelActive.Width(width - 2).Height(height - 2).Render(content)
}

func renderSignalBar(rssi, width int) string {
	ratio := float64(rssi-config.RSSIFloor) / float64(config.RSSICeiling-config.RSSIFloor)
	ratio = math.Max(0, math.Min(1, ratio))
	filled := int(math.Round(ratio * float64(width)))

	filledPart := lipgloss.NewStyle().Foreground(ColorMatrixGreen).Render(strings.Repeat("|", filled))
	emptyPart := lipgloss.NewStyle().Foreground(ColorDimGreen).Render(strings.Repeat("-", width-filled))
	return StyleHelp.Render("[") + filledPart + emptyPart + StyleHelp.Render("]")
}

func renderSparkline(values []float64, width int) string {
	if len(values) == 0 {
		return ""
	}
	chars := []byte{'_', '.', '-', '~', '^'}

	start := 0
	if len(values) > width {
		start = len(values) - width
	}
	values = values[start:]

	minV, maxV := values[0], values[0]
	for _, v := range values {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	rng := maxV - minV
	if rng < 1 {
		rng = 1
	}

	var sb strings.Builder
	for _, v := range values {
		idx := int((v - minV) / rng * float64(len(chars)-1))
		idx = max(0, min(idx, len(chars)-1))
		sb.WriteByte(chars[idx])
	}
	return sb.String()
}

// compassPoint names a drawing-convention angle (0 east, clockwise).
func compassPoint(deg float64) string {
	dirs := []string{"E", "SE", "S", "SW", "W", "NW", "N", "NE"}
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	return dirs[int(math.Round(a/45))%8]
}

func formatLastSeen(t, now time.Time) string {
	if now.Sub(t) < time.Second {
		return "now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
