package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BlockedRow is one blocklist entry in the settings overlay.
type BlockedRow struct {
	Address string
	Name    string
}

// SettingsView is the state shown by the settings overlay.
type SettingsView struct {
	Capacity    int
	MinCapacity int
	MaxCapacity int
	Divisions   int
	Excluded    int
	Chime       bool
	Demo        bool
	Blocked     []BlockedRow
	Cursor      int // index into Blocked
}

// RenderSettingsPanel renders the settings overlay that replaces the dial
// area.
func RenderSettingsPanel(s SettingsView, width, height int) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}

	title := StylePanelTitle.Render("SETTINGS")
	escHint := StyleHelp.Render("[ESC]")
	titleLine := title + strings.Repeat(" ", max(0, innerW-lipgloss.Width(title)-lipgloss.Width(escHint))) + escHint
	lines := []string{titleLine, StyleRule.Render(strings.Repeat("-", innerW)), ""}

	labelSty := lipgloss.NewStyle().Foreground(ColorMidGreen)
	valSty := lipgloss.NewStyle().Foreground(ColorMatrixGreen).Bold(true)
	row := func(key, label, value string) string {
		return " " + StyleMenuKey.Render(fmt.Sprintf("[%-3s]", key)) + labelSty.Render(fmt.Sprintf(" %-14s", label)) + valSty.Render(value)
	}

	lines = append(lines,
		row("+/-", "Usable slots", fmt.Sprintf("%d  (%d..%d)", s.Capacity, s.MinCapacity, s.MaxCapacity)),
		"       "+StyleHelp.Render(fmt.Sprintf("ring of %d, %d reserved", s.Divisions, s.Excluded)),
		row("C", "Chime", toggle(s.Chime)),
		row("T", "Test mode", toggle(s.Demo)),
		"",
		StylePanelTitle.Render(fmt.Sprintf("BLOCKED [%d]", len(s.Blocked))),
	)

	if len(s.Blocked) == 0 {
		lines = append(lines, StyleHelp.Render("  No blocked devices"))
	} else {
		lines = append(lines, StyleHelp.Render("  [U] unblock  [X] clear all"))
		room := height - 2 - len(lines)
		start := 0
		if room > 0 && s.Cursor >= room {
			start = s.Cursor - room + 1
		}
		for i := start; i < len(s.Blocked); i++ {
			b := s.Blocked[i]
			name := b.Name
			if name == "" {
				name = "[unnamed]"
			}
			raw := truncRaw(fmt.Sprintf("  %s  %s", b.Address, name), innerW)
			if i == s.Cursor {
				lines = append(lines, StyleCursorRow.Render(raw))
			} else {
				lines = append(lines, StyleDeviceMAC.Render(raw))
			}
		}
	}

	content := strings.Join(clampLines(lines, height-2), "\n")
	return StylePanelActive.Width(width - 2).Height(height - 2).Render(content)
}

func toggle(on bool) string {
	if on {
		return StyleCheckOn.Render("[x] on")
	}
	return StyleCheckOff.Render("[ ] off")
}
