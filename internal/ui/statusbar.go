package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the bottom bar shows.
type StatusInfo struct {
	Scanning  bool
	Slotted   int
	Capacity  int
	Divisions int
	Stale     int
	Chime     bool
	Flash     string // name of a device that just arrived
	Message   string // last error or notice
	IsError   bool
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, s StatusInfo) string {
	status := StyleStatusPaused.Render("[PAUSED]")
	if s.Scanning {
		status = StyleStatusScanning.Render("[SCANNING]")
	}

	chime := "off"
	if s.Chime {
		chime = "on"
	}
	info := fmt.Sprintf(" Slots: %d/%d  Ring: %d  Stale: %d  Chime: %s",
		s.Slotted, s.Capacity, s.Divisions, s.Stale, chime)

	content := status + StyleStatusBar.UnsetPadding().Render(info)
	if s.Flash != "" {
		content += "  " + StyleFlash.Render(" + "+s.Flash+" ")
	}
	if s.Message != "" {
		msgStyle := StyleHelp
		if s.IsError {
			msgStyle = StyleStatusError
		}
		content += "  " + msgStyle.Render(s.Message)
	}

	gap := width - lipgloss.Width(content) - 2
	if gap < 0 {
		gap = 0
	}
	return StyleStatusBar.Width(width).Render(content + strings.Repeat(" ", gap))
}
