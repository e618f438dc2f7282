package app

import (
	"ble-dial.klederson.com/internal/dial"
	"ble-dial.klederson.com/internal/radar"
	"ble-dial.klederson.com/internal/ui"
)

// screen is the computed layout for the current terminal size.
type screen struct {
	bodyH int
	dialW int
	listW int
	dialX int // terminal column of the dial frame origin
	dialY int // terminal row of the dial frame origin
	frame radar.Frame
}

const (
	menuH   = 1
	statusH = 1
)

func (m AppModel) layout() screen {
	bodyH := m.height - menuH - statusH
	if bodyH < 5 {
		bodyH = 5
	}
	dialW := m.width * 3 / 4
	if dialW < 30 {
		dialW = 30
	}
	listW := m.width - dialW
	if listW < 15 {
		listW = 15
		dialW = m.width - listW
	}

	// Inside the border, one line is kept for the legend.
	innerH := bodyH - 3
	return screen{
		bodyH: bodyH,
		dialW: dialW,
		listW: listW,
		dialX: 1,
		dialY: menuH + 1,
		frame: radar.NewFrame(dialW-2, innerH),
	}
}

func (m AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	now := m.shared.clock()
	snap := m.shared.engine.Snapshot()
	l := m.layout()

	source := m.cfg.Scan.Adapter
	if m.demo {
		source = "demo"
	}
	menuBar := ui.RenderMenuBar(m.width, source, m.scanning)

	view := m.overlay
	if _, ok := snap.Slot(m.selected); view == overlayDetail && !ok {
		view = overlayNone
	}

	var panel string
	switch view {
	case overlayDetail:
		panel = ui.RenderDetailPanel(m.detail(snap), now, l.dialW, l.bodyH)
	case overlaySettings:
		panel = ui.RenderSettingsPanel(m.settingsView(snap), l.dialW, l.bodyH)
	default:
		content := radar.Render(l.frame, radar.View{
			Snapshot:     snap,
			Sweep:        m.shared.sweep,
			Now:          now,
			StaleTimeout: m.shared.engine.StaleTimeout(),
			Selected:     m.focusedOn(snap),
		})
		panel = ui.RenderDialPanel(l.dialW, l.bodyH, content, radar.RenderLegend(l.dialW-2))
	}

	entries, stale := deviceEntries(snap)
	list := ui.RenderDeviceList(entries, l.listW, l.bodyH, m.cursor, snap.Ring().Capacity())

	flash, _ := m.shared.announcer.Flash(now)
	status := ui.RenderStatusBar(m.width, ui.StatusInfo{
		Scanning:  m.scanning,
		Slotted:   snap.Len(),
		Capacity:  snap.Ring().Capacity(),
		Divisions: snap.Ring().Divisions(),
		Stale:     stale,
		Chime:     m.shared.announcer.Chime(),
		Flash:     flash,
		Message:   m.message,
		IsError:   m.isError,
	})

	return ui.ComposeLayout(menuBar, panel, list, status)
}

func (m AppModel) focusedOn(snap *dial.Snapshot) string {
	if m.selected != "" {
		return m.selected
	}
	ids := snap.Slotted()
	if m.cursor < len(ids) {
		return ids[m.cursor]
	}
	return ""
}

func deviceEntries(snap *dial.Snapshot) ([]ui.DeviceEntry, int) {
	ids := snap.Slotted()
	entries := make([]ui.DeviceEntry, 0, len(ids))
	stale := 0
	for _, id := range ids {
		rec, _ := snap.Record(id)
		slot, _ := snap.Slot(id)
		if rec.Signal.IsStale() {
			stale++
		}
		entries = append(entries, ui.DeviceEntry{
			ID:    id,
			Name:  rec.Name,
			Slot:  slot,
			RSSI:  rec.Signal.Display(),
			Stale: rec.Signal.IsStale(),
			Color: radar.SlotColor(dial.Hue(id), radar.Brightness(rec.Signal)),
		})
	}
	return entries, stale
}

func (m AppModel) detail(snap *dial.Snapshot) ui.DeviceDetail {
	rec, _ := snap.Record(m.selected)
	slot, _ := snap.Slot(m.selected)
	return ui.DeviceDetail{
		ID:       m.selected,
		Name:     rec.Name,
		Slot:     slot,
		Angle:    snap.Ring().MidpointAngle(slot),
		RSSI:     rec.Signal.Display(),
		Stale:    rec.Signal.IsStale(),
		LastSeen: rec.LastSeen,
		History:  m.shared.history.values(m.selected),
		Color:    radar.SlotColor(dial.Hue(m.selected), radar.Brightness(rec.Signal)),
	}
}

func (m AppModel) settingsView(snap *dial.Snapshot) ui.SettingsView {
	ring := snap.Ring()
	rows := make([]ui.BlockedRow, 0, len(m.blockedEntries))
	for _, b := range m.blockedEntries {
		rows = append(rows, ui.BlockedRow{Address: b.Address, Name: b.Name})
	}
	return ui.SettingsView{
		Capacity:    ring.Capacity(),
		MinCapacity: dial.MinCapacity,
		MaxCapacity: dial.MaxCapacity,
		Divisions:   ring.Divisions(),
		Excluded:    len(ring.Excluded()),
		Chime:       m.shared.announcer.Chime(),
		Demo:        m.demo,
		Blocked:     rows,
		Cursor:      m.blockedCursor,
	}
}
