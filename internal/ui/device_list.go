package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// DeviceEntry is one row of the device list.
type DeviceEntry struct {
	ID    string
	Name  string
	Slot  int
	RSSI  int
	Stale bool
	Color lipgloss.Color // slot color on the dial
}

const linesPerDevice = 3 // 2 content + 1 blank

// RenderDeviceList renders the scrollable device list panel with a cursor.
// The header stays fixed at the top; only the entries scroll.
func RenderDeviceList(devices []DeviceEntry, width, height, cursor, capacity int) string {
	innerW := width - 4
	if innerW < 10 {
		innerW = 10
	}

	title := StylePanelTitle.Render(fmt.Sprintf("DEVICES [%d/%d]", len(devices), capacity))
	separator := StyleRule.Render(strings.Repeat("-", innerW))
	headerLines := []string{title, separator}

	innerH := height - 2
	if innerH < len(headerLines)+1 {
		innerH = len(headerLines) + 1
	}
	devSpace := innerH - len(headerLines)

	var devLines []string
	if len(devices) == 0 {
		devLines = append(devLines, "",
			StyleHelp.Render(" No devices..."),
			StyleHelp.Render(" Waiting for scan"))
	} else {
		maxVisible := devSpace / linesPerDevice
		if maxVisible < 1 {
			maxVisible = 1
		}
		viewStart := 0
		if cursor >= maxVisible {
			viewStart = cursor - maxVisible + 1
		}
		for i := viewStart; i < len(devices) && len(devLines) < devSpace; i++ {
			devLines = append(devLines, renderDeviceEntry(devices[i], innerW, i == cursor)...)
		}
	}

	all := append(headerLines, clampLines(devLines, devSpace)...)
	rendered := StylePanelBorder.Width(width - 2).Height(innerH).Render(strings.Join(all, "\n"))
	return strings.Join(clampLines(strings.Split(rendered, "\n"), height), "\n")
}

func renderDeviceEntry(d DeviceEntry, maxW int, isCursor bool) []string {
	name := d.Name
	if name == "" {
		name = "[unnamed]"
	}
	nameMax := maxW - 10
	if nameMax < 4 {
		nameMax = 4
	}
	if len(name) > nameMax {
		name = name[:nameMax]
	}

	signal := fmt.Sprintf("%ddBm", d.RSSI)
	if d.Stale {
		signal = "stale"
	}

	cursor := "  "
	if isCursor {
		cursor = ">>"
	}

	raw1 := truncRaw(fmt.Sprintf("%s #%02d %s", cursor, d.Slot, name), maxW)
	raw2 := truncRaw(fmt.Sprintf("       %s  %s", d.ID, signal), maxW)

	if isCursor {
		return []string{StyleCursorRow.Render(raw1), StyleCursorRow.Render(raw2), ""}
	}

	swatch := lipgloss.NewStyle().Foreground(d.Color).Render("█")
	nameStyle, sigStyle := StyleDeviceName, StyleDeviceRSSI
	if d.Stale {
		nameStyle, sigStyle = StyleDeviceStale, StyleDeviceStale
	}
	line1 := fmt.Sprintf("   %s%s %s", swatch, StyleHelp.Render(fmt.Sprintf("%02d", d.Slot)), nameStyle.Render(name))
	line2 := fmt.Sprintf("       %s  %s", StyleDeviceMAC.Render(d.ID), sigStyle.Render(signal))
	return []string{line1, line2, ""}
}

// truncRaw pads or truncates a raw string to exactly w characters.
func truncRaw(s string, w int) string {
	if len(s) > w {
		return s[:w]
	}
	return s + strings.Repeat(" ", w-len(s))
}
