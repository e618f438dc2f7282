package app

import (
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
)

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "q", "Q", "ctrl+c":
		m.stopScanner()
		return m, tea.Quit

	case "s", "S":
		if m.scanning {
			return m, nil
		}
		if err := m.startScanning(); err != nil {
			m.setError(err.Error())
			return m, nil
		}
		m.setNotice("scanning")
		return m, sweepCmd(m.gen, m.cfg.Dial.SweepInterval.Duration())

	case "p", "P":
		m.stopScanning()
		return m, nil

	case "+", "=":
		m.reconfigure(m.shared.engine.Ring().Capacity() + 1)
		return m, nil

	case "-", "_":
		m.reconfigure(m.shared.engine.Ring().Capacity() - 1)
		return m, nil

	case "t", "T":
		return m, m.toggleDemo()

	case "c", "C":
		m.toggleChime()
		return m, nil

	case ",":
		m.openSettings()
		return m, nil

	case "esc":
		m.overlay = overlayNone
		m.selected = ""
		return m, nil
	}

	if m.overlay == overlaySettings {
		return m.handleSettingsKey(key)
	}

	switch key {
	case "b", "B":
		m.block(m.focused())

	case "enter":
		if id := m.focused(); id != "" {
			m.selected = id
			m.overlay = overlayDetail
		}

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.slotted())-1 {
			m.cursor++
		}

	case "home":
		m.cursor = 0

	case "end":
		if n := len(m.slotted()); n > 0 {
			m.cursor = n - 1
		}
	}
	return m, nil
}

func (m AppModel) handleSettingsKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		if m.blockedCursor > 0 {
			m.blockedCursor--
		}

	case "down", "j":
		if m.blockedCursor < len(m.blockedEntries)-1 {
			m.blockedCursor++
		}

	case "u", "U":
		if m.blockedCursor < len(m.blockedEntries) {
			m.unblock(m.blockedEntries[m.blockedCursor].Address)
		}

	case "x", "X":
		m.clearBlocked()
	}
	return m, nil
}

func (m AppModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if m.overlay != overlayNone {
		return m, nil
	}

	l := m.layout()
	col, row := msg.X-l.dialX, msg.Y-l.dialY
	if col < 0 || row < 0 || col >= l.frame.Width || row >= l.frame.Height {
		return m, nil
	}

	angle, raw := l.frame.Locate(col, row)
	frac, ok := l.frame.DialFraction(raw)
	if !ok {
		return m, nil
	}
	if id, ok := m.shared.engine.HitTest(angle, frac); ok {
		m.selected = id
		m.overlay = overlayDetail
		for i, sid := range m.slotted() {
			if sid == id {
				m.cursor = i
			}
		}
		return m, nil
	}
	ring := m.shared.engine.Ring()
	if ring.Divisions() > 0 && ring.IsExcluded(ring.SlotAt(angle)) {
		m.openSettings()
	}
	return m, nil
}

func (m *AppModel) openSettings() {
	m.overlay = overlaySettings
	m.selected = ""
	m.refreshBlocked()
}

// focused is the device under the list cursor.
func (m *AppModel) focused() string {
	if m.selected != "" {
		return m.selected
	}
	ids := m.slotted()
	if m.cursor < len(ids) {
		return ids[m.cursor]
	}
	return ""
}

func itoa(n int) string { return strconv.Itoa(n) }
