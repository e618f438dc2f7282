package ui

import "github.com/charmbracelet/lipgloss"

// ComposeLayout joins the dial panel and device list horizontally,
// with menu bar on top and status bar on bottom.
func ComposeLayout(menuBar, dialPanel, deviceList, statusBar string) string {
	middle := lipgloss.JoinHorizontal(lipgloss.Top, dialPanel, deviceList)
	return lipgloss.JoinVertical(lipgloss.Left, menuBar, middle, statusBar)
}

// RenderDialPanel wraps dial content with a styled border. The dial
// itself is drawn by the radar package.
func RenderDialPanel(width, height int, dialContent, legend string) string {
	content := dialContent + "\n" + legend
	return StylePanelBorder.Width(width - 2).Height(height - 2).Render(content)
}

// clampLines pads or truncates rendered output to exactly height lines.
// lipgloss Height() only sets a minimum.
func clampLines(lines []string, height int) []string {
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return lines
}
