package app

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"ble-dial.klederson.com/internal/bluetooth"
	"ble-dial.klederson.com/internal/config"
	"ble-dial.klederson.com/internal/dial"
	"ble-dial.klederson.com/internal/feedback"
	"ble-dial.klederson.com/internal/store"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Unix(1_700_000_000, 0)

type fakeScanner struct {
	demo    bool
	started int
	stopped int
	err     error
}

func (f *fakeScanner) Start(bluetooth.Sink) error {
	f.started++
	return f.err
}

func (f *fakeScanner) Stop() { f.stopped++ }

type nullSink struct{}

func (nullSink) Send(tea.Msg) {}

type dropCounter struct{ n int }

func (c *dropCounter) BlockedDropped() { c.n++ }

type harness struct {
	model    AppModel
	store    *store.Store
	engine   *dial.Engine
	bell     *bytes.Buffer
	dropped  *dropCounter
	scanners []*fakeScanner
	now      time.Time
	startErr error
}

func newHarness(t *testing.T, capacity int) *harness {
	t.Helper()
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	engine, err := dial.NewEngine(capacity, 5*time.Second)
	require.NoError(t, err)

	h := &harness{store: st, engine: engine, bell: &bytes.Buffer{}, dropped: &dropCounter{}, now: t0}
	m, err := New(Options{
		Config:    config.Default(),
		Engine:    engine,
		Store:     st,
		Announcer: feedback.NewAnnouncer(h.bell, true),
		Counter:   h.dropped,
		Clock:     func() time.Time { return h.now },
		Scanners: func(demo bool, _ int) bluetooth.Scanner {
			sc := &fakeScanner{demo: demo, err: h.startErr}
			h.scanners = append(h.scanners, sc)
			return sc
		},
	})
	require.NoError(t, err)
	h.model = m
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	require.NoError(t, h.model.Start(nullSink{}))
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(AppModel)
	return cmd
}

func (h *harness) key(k string) tea.Cmd {
	switch k {
	case "esc":
		return h.send(tea.KeyMsg{Type: tea.KeyEsc})
	case "enter":
		return h.send(tea.KeyMsg{Type: tea.KeyEnter})
	case "down":
		return h.send(tea.KeyMsg{Type: tea.KeyDown})
	}
	return h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
}

func (h *harness) sight(addr string, rssi int) {
	h.send(bluetooth.DiscoveredMsg{Address: addr, Name: "dev " + addr[len(addr)-2:], RSSI: rssi, Source: bluetooth.SourceBLE})
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestStartActivatesSession(t *testing.T) {
	h := newHarness(t, 22)
	h.start(t)

	assert.True(t, h.model.scanning)
	assert.True(t, h.engine.Active())
	require.Len(t, h.scanners, 1)
	assert.Equal(t, 1, h.scanners[0].started)
	assert.False(t, h.scanners[0].demo)
}

func TestStartFailureLeavesModelPaused(t *testing.T) {
	h := newHarness(t, 22)
	h.startErr = errors.New("adapter busy")

	assert.Error(t, h.model.Start(nullSink{}))
	assert.False(t, h.model.scanning)
	assert.False(t, h.engine.Active())
}

func TestDiscoveryPlacesDeviceAndAnnounces(t *testing.T) {
	h := newHarness(t, 22)
	h.start(t)

	h.sight("AA:BB:CC:DD:EE:01", -60)

	snap := h.engine.Snapshot()
	assert.Equal(t, 1, snap.Len())
	_, ok := snap.Slot("AA:BB:CC:DD:EE:01")
	assert.True(t, ok)
	assert.Equal(t, []float64{-60}, h.model.shared.history.values("AA:BB:CC:DD:EE:01"))
	assert.Equal(t, 1, h.model.shared.announcer.Pending(), "arrival queues a bell")

	flash, ok := h.model.shared.announcer.Flash(h.now)
	assert.True(t, ok)
	assert.Equal(t, "dev 01", flash)

	// A repeat sighting updates history without ringing again.
	h.now = h.now.Add(time.Second)
	h.sight("AA:BB:CC:DD:EE:01", -55)
	assert.Equal(t, []float64{-60, -55}, h.model.shared.history.values("AA:BB:CC:DD:EE:01"))
	assert.Equal(t, 1, h.model.shared.announcer.Pending())
}

func TestDiscoveryIgnoredWhilePaused(t *testing.T) {
	h := newHarness(t, 22)
	h.sight("AA:BB:CC:DD:EE:01", -60)
	assert.Equal(t, 0, h.engine.Snapshot().Len())
}

func TestBlockedDevicesNeverReachTheEngine(t *testing.T) {
	h := newHarness(t, 22)
	require.NoError(t, h.store.Block("AA:BB:CC:DD:EE:01", "Tag"))
	h = rebuild(t, h)
	h.start(t)

	h.sight("AA:BB:CC:DD:EE:01", -50)
	assert.Equal(t, 0, h.engine.Snapshot().Len())
	assert.Equal(t, 1, h.dropped.n)
}

// rebuild creates a new model over the same store so the blocklist is
// loaded at construction.
func rebuild(t *testing.T, h *harness) *harness {
	t.Helper()
	m, err := New(Options{
		Config:    config.Default(),
		Engine:    h.engine,
		Store:     h.store,
		Announcer: feedback.NewAnnouncer(h.bell, true),
		Counter:   h.dropped,
		Clock:     func() time.Time { return h.now },
		Scanners: func(demo bool, _ int) bluetooth.Scanner {
			sc := &fakeScanner{demo: demo}
			h.scanners = append(h.scanners, sc)
			return sc
		},
	})
	require.NoError(t, err)
	h.model = m
	return h
}

func TestSweepMarksStaleAndRearms(t *testing.T) {
	h := newHarness(t, 22)
	h.start(t)
	h.sight("AA:BB:CC:DD:EE:01", -60)

	cmd := h.send(SweepMsg{Gen: h.model.gen, At: t0.Add(6 * time.Second)})
	assert.NotNil(t, cmd)

	rec, ok := h.engine.Snapshot().Record("AA:BB:CC:DD:EE:01")
	require.True(t, ok)
	assert.True(t, rec.Signal.IsStale())
	_, ok = h.engine.Snapshot().Slot("AA:BB:CC:DD:EE:01")
	assert.True(t, ok, "stale devices keep their slot")
}

func TestSweepFromEarlierSessionIsDropped(t *testing.T) {
	h := newHarness(t, 22)
	h.start(t)
	h.sight("AA:BB:CC:DD:EE:01", -60)

	cmd := h.send(SweepMsg{Gen: h.model.gen - 1, At: t0.Add(time.Minute)})
	assert.Nil(t, cmd)
	rec, _ := h.engine.Snapshot().Record("AA:BB:CC:DD:EE:01")
	assert.False(t, rec.Signal.IsStale())
}

func TestPauseAndResume(t *testing.T) {
	h := newHarness(t, 22)
	h.start(t)
	h.sight("AA:BB:CC:DD:EE:01", -60)

	h.key("p")
	assert.False(t, h.model.scanning)
	assert.False(t, h.engine.Active())
	assert.Equal(t, 1, h.scanners[0].stopped)
	assert.Equal(t, 1, h.engine.Snapshot().Len(), "last state stays visible")

	cmd := h.key("s")
	assert.NotNil(t, cmd)
	assert.True(t, h.model.scanning)
	assert.Equal(t, 0, h.engine.Snapshot().Len(), "new session starts empty")
	assert.Len(t, h.scanners, 2)
}

func TestCapacityKeysReconfigureAndPersist(t *testing.T) {
	h := newHarness(t, 22)
	h.start(t)

	h.key("+")
	assert.Equal(t, 23, h.engine.Ring().Capacity())
	capacity, ok, err := h.store.Capacity()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 23, capacity)

	h.key("-")
	h.key("-")
	assert.Equal(t, 21, h.engine.Ring().Capacity())
	assert.False(t, h.model.isError)
}

func TestCapacityOutOfRangeShowsError(t *testing.T) {
	h := newHarness(t, dial.MinCapacity)
	h.key("-")

	assert.Equal(t, dial.MinCapacity, h.engine.Ring().Capacity())
	assert.True(t, h.model.isError)
	assert.Contains(t, h.model.message, "capacity")
	_, ok, err := h.store.Capacity()
	require.NoError(t, err)
	assert.False(t, ok, "rejected change is not persisted")
}

func TestBlockFocusedDevice(t *testing.T) {
	h := newHarness(t, 22)
	h.start(t)
	h.sight("AA:BB:CC:DD:EE:01", -60)
	h.sight("AA:BB:CC:DD:EE:02", -70)
	ids := h.engine.Snapshot().Slotted()
	require.Len(t, ids, 2)

	h.key("down")
	h.key("b")

	victim := ids[1]
	blocked, err := h.store.IsBlocked(victim)
	require.NoError(t, err)
	assert.True(t, blocked)
	_, ok := h.engine.Snapshot().Record(victim)
	assert.False(t, ok)
	assert.Nil(t, h.model.shared.history.values(victim))
	assert.Equal(t, 0, h.model.cursor, "cursor clamps to remaining devices")

	h.sight(victim, -40)
	assert.Equal(t, 1, h.engine.Snapshot().Len())
	assert.Equal(t, 1, h.dropped.n)
}

func TestSettingsOverlayUnblockAndClear(t *testing.T) {
	h := newHarness(t, 22)
	require.NoError(t, h.store.Block("AA:00:00:00:00:01", "One"))
	require.NoError(t, h.store.Block("AA:00:00:00:00:02", "Two"))
	h = rebuild(t, h)

	h.key(",")
	require.Equal(t, overlaySettings, h.model.overlay)
	require.Len(t, h.model.blockedEntries, 2)

	h.key("u")
	assert.Len(t, h.model.blockedEntries, 1)
	assert.False(t, h.model.shared.blocked["AA:00:00:00:00:01"])

	h.key("x")
	assert.Empty(t, h.model.blockedEntries)
	list, err := h.store.Blocked()
	require.NoError(t, err)
	assert.Empty(t, list)

	h.key("esc")
	assert.Equal(t, overlayNone, h.model.overlay)
}

func TestChimeTogglePersists(t *testing.T) {
	h := newHarness(t, 22)
	h.key("c")

	assert.False(t, h.model.shared.announcer.Chime())
	on, ok, err := h.store.Chime()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, on)
}

func TestDemoToggleRestartsSession(t *testing.T) {
	h := newHarness(t, 22)
	h.start(t)
	h.sight("AA:BB:CC:DD:EE:01", -60)

	cmd := h.key("t")
	assert.NotNil(t, cmd)
	assert.True(t, h.model.demo)
	require.Len(t, h.scanners, 2)
	assert.Equal(t, 1, h.scanners[0].stopped)
	assert.True(t, h.scanners[1].demo)
	assert.Equal(t, 0, h.engine.Snapshot().Len())
}

func TestEnterOpensDetail(t *testing.T) {
	h := newHarness(t, 22)
	h.start(t)
	h.sight("AA:BB:CC:DD:EE:01", -60)

	h.key("enter")
	assert.Equal(t, overlayDetail, h.model.overlay)
	assert.Equal(t, "AA:BB:CC:DD:EE:01", h.model.selected)

	h.send(tea.WindowSizeMsg{Width: 160, Height: 50})
	assert.Contains(t, h.model.View(), "DEVICE DETAIL")
}

func TestMouseClickSelectsSlotOwner(t *testing.T) {
	h := newHarness(t, 22)
	h.start(t)
	h.send(tea.WindowSizeMsg{Width: 200, Height: 64})
	h.sight("AA:BB:CC:DD:EE:01", -60)

	slot, ok := h.engine.Snapshot().Slot("AA:BB:CC:DD:EE:01")
	require.True(t, ok)

	l := h.model.layout()
	col, row := l.frame.Cell(h.engine.Ring().MidpointAngle(slot), 0.8)
	h.send(tea.MouseMsg{X: col + l.dialX, Y: row + l.dialY, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})

	assert.Equal(t, overlayDetail, h.model.overlay)
	assert.Equal(t, "AA:BB:CC:DD:EE:01", h.model.selected)
}

func TestMouseClickOnDrawnRimSelectsSlotOwner(t *testing.T) {
	h := newHarness(t, 22)
	h.start(t)
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	h.sight("AA:BB:CC:DD:EE:01", -60)

	slot, ok := h.engine.Snapshot().Slot("AA:BB:CC:DD:EE:01")
	require.True(t, ok)
	ring := h.engine.Ring()
	l := h.model.layout()

	col, row, found := -1, -1, false
	for r := 0; r < l.frame.Height && !found; r++ {
		for c := 0; c < l.frame.Width; c++ {
			angle, frac := l.frame.Locate(c, r)
			if frac > 1 && frac <= l.frame.Limit() && ring.SlotAt(angle) == slot {
				col, row, found = c, r, true
				break
			}
		}
	}
	require.True(t, found, "slot %d has drawn cells past radius 1", slot)

	h.send(tea.MouseMsg{X: col + l.dialX, Y: row + l.dialY, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.Equal(t, overlayDetail, h.model.overlay)
	assert.Equal(t, "AA:BB:CC:DD:EE:01", h.model.selected)
}

func TestMouseClickOnExclusionOpensSettings(t *testing.T) {
	h := newHarness(t, 22)
	h.send(tea.WindowSizeMsg{Width: 200, Height: 64})

	ring := h.engine.Ring()
	excluded := ring.Excluded()
	require.NotEmpty(t, excluded)

	l := h.model.layout()
	col, row := l.frame.Cell(ring.MidpointAngle(excluded[0]), 0.8)
	h.send(tea.MouseMsg{X: col + l.dialX, Y: row + l.dialY, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})

	assert.Equal(t, overlaySettings, h.model.overlay)
}

func TestViewRendersDial(t *testing.T) {
	h := newHarness(t, 22)
	assert.Equal(t, "Initializing...", h.model.View())

	h.start(t)
	h.send(tea.WindowSizeMsg{Width: 160, Height: 50})
	h.sight("AA:BB:CC:DD:EE:01", -60)

	out := h.model.View()
	assert.Contains(t, out, "DEVICES [1/22]")
	assert.Contains(t, out, "SCANNING")
}

func TestScanErrorShowsInStatus(t *testing.T) {
	h := newHarness(t, 22)
	h.send(bluetooth.ScanErrorMsg{Source: bluetooth.SourceClassic, Err: errors.New("hcitool missing")})
	assert.True(t, h.model.isError)
	assert.Contains(t, h.model.message, "hcitool missing")
}

func TestQuitStopsScanner(t *testing.T) {
	h := newHarness(t, 22)
	h.start(t)
	cmd := h.key("q")
	require.NotNil(t, cmd)
	assert.Equal(t, 1, h.scanners[0].stopped)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestSignalHistoryRetain(t *testing.T) {
	hist := newSignalHistory(3)
	for _, v := range []int{-80, -70, -60, -50} {
		hist.record("a", v)
	}
	hist.record("b", -90)
	assert.Equal(t, []float64{-70, -60, -50}, hist.values("a"))

	hist.retain(map[string]int{"a": 1})
	assert.Nil(t, hist.values("b"))
	hist.reset()
	assert.Nil(t, hist.values("a"))
}
