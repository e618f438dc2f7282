package app

import (
	"errors"
	"time"

	"ble-dial.klederson.com/internal/bluetooth"
	"ble-dial.klederson.com/internal/config"
	"ble-dial.klederson.com/internal/dial"
	"ble-dial.klederson.com/internal/feedback"
	"ble-dial.klederson.com/internal/logger"
	"ble-dial.klederson.com/internal/radar"
	"ble-dial.klederson.com/internal/store"
	tea "github.com/charmbracelet/bubbletea"
)

// ScannerFactory builds the discovery source for live or test mode.
type ScannerFactory func(demo bool, capacity int) bluetooth.Scanner

// BlockCounter counts advertisements dropped by the blocklist.
type BlockCounter interface {
	BlockedDropped()
}

type overlay int

const (
	overlayNone overlay = iota
	overlayDetail
	overlaySettings
)

// shared holds state shared between the Bubble Tea model copies and main.go.
// Because Bubble Tea uses value receivers, pointer fields ensure all copies
// see the same underlying data.
type shared struct {
	engine    *dial.Engine
	store     *store.Store
	announcer *feedback.Announcer
	counter   BlockCounter
	sweep     *radar.Sweep
	history   *signalHistory
	blocked   map[string]bool

	newScanner ScannerFactory
	scanner    bluetooth.Scanner
	sink       bluetooth.Sink
	clock      func() time.Time
}

// AppModel is the root Bubble Tea model. It is the only code that mutates
// the engine.
type AppModel struct {
	width  int
	height int

	cfg      *config.Config
	scanning bool
	demo     bool
	gen      int

	overlay        overlay
	cursor         int    // device list
	selected       string // device in the detail overlay
	blockedCursor  int    // settings overlay
	blockedEntries []store.BlockedDevice

	message string
	isError bool

	shared *shared
}

// Options wires an AppModel to its collaborators.
type Options struct {
	Config    *config.Config
	Engine    *dial.Engine
	Store     *store.Store
	Announcer *feedback.Announcer
	Counter   BlockCounter
	Scanners  ScannerFactory
	Clock     func() time.Time
}

// New creates an AppModel. Scanning starts with Start.
func New(opts Options) (AppModel, error) {
	if opts.Engine == nil || opts.Store == nil || opts.Config == nil {
		return AppModel{}, errors.New("app: config, engine and store are required")
	}
	blocked, err := opts.Store.BlockedSet()
	if err != nil {
		return AppModel{}, err
	}
	if opts.Announcer == nil {
		opts.Announcer = feedback.NewAnnouncer(nil, false)
	}
	if opts.Scanners == nil {
		opts.Scanners = DefaultScanners(opts.Config)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return AppModel{
		cfg:  opts.Config,
		demo: opts.Config.Scan.Demo,
		shared: &shared{
			engine:     opts.Engine,
			store:      opts.Store,
			announcer:  opts.Announcer,
			counter:    opts.Counter,
			sweep:      radar.NewSweep(),
			history:    newSignalHistory(config.HistoryLen),
			blocked:    blocked,
			newScanner: opts.Scanners,
			clock:      opts.Clock,
		},
	}, nil
}

// DefaultScanners returns the production factory: the demo generator in
// test mode, otherwise BLE plus hcitool inquiries when enabled.
func DefaultScanners(cfg *config.Config) ScannerFactory {
	return func(demo bool, capacity int) bluetooth.Scanner {
		if demo {
			return bluetooth.NewDemoScanner(capacity)
		}
		group := bluetooth.Group{bluetooth.NewBLEScanner(cfg.Scan.Adapter)}
		if cfg.Scan.Classic && bluetooth.ClassicScannerAvailable() {
			group = append(group, bluetooth.NewClassicScanner(time.Duration(config.ClassicScanSec)*time.Second))
		}
		return group
	}
}

// Start begins a scan session and feeds sightings to sink. Must be called
// before p.Run(). A failing scanner leaves the model paused.
func (m *AppModel) Start(sink bluetooth.Sink) error {
	m.shared.sink = sink
	return m.startScanning()
}

// Stop halts the scanner. Safe to call more than once.
func (m *AppModel) Stop() {
	m.stopScanner()
}

func (m AppModel) Init() tea.Cmd {
	if m.scanning {
		return tea.Batch(tickCmd(), sweepCmd(m.gen, m.cfg.Dial.SweepInterval.Duration()))
	}
	return tickCmd()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case TickMsg:
		m.shared.sweep.Update(time.Time(msg))
		return m, tickCmd()

	case SweepMsg:
		return m.handleSweep(msg)

	case bluetooth.DiscoveredMsg:
		m.handleDiscovery(msg)
		return m, nil

	case bluetooth.ScanErrorMsg:
		m.setError(msg.Error())
		return m, nil
	}
	return m, nil
}

func (m *AppModel) handleSweep(msg SweepMsg) (tea.Model, tea.Cmd) {
	if msg.Gen != m.gen || !m.scanning {
		return *m, nil
	}
	if _, err := m.shared.engine.OnTick(msg.At); err != nil {
		logger.Warn("sweep_refused", "error", err)
		return *m, nil
	}
	m.shared.history.retain(m.shared.engine.CurrentAssignment())
	return *m, sweepCmd(m.gen, m.cfg.Dial.SweepInterval.Duration())
}

func (m *AppModel) handleDiscovery(msg bluetooth.DiscoveredMsg) {
	if m.shared.blocked[msg.Address] {
		if m.shared.counter != nil {
			m.shared.counter.BlockedDropped()
		}
		return
	}
	if !m.scanning {
		return
	}

	now := m.shared.clock()
	arrival, err := m.shared.engine.OnDiscovery(msg.Address, msg.Name, msg.RSSI, now)
	if errors.Is(err, dial.ErrInactive) {
		return
	}
	if arrival.Placement.Evicted != "" {
		m.shared.history.drop(arrival.Placement.Evicted)
	}
	if err != nil {
		m.setError("slot error: " + err.Error())
	}
	if arrival.Placement.Outcome == dial.OutcomeRejected {
		return
	}

	m.shared.history.record(msg.Address, msg.RSSI)
	if arrival.Announce {
		rec, _ := m.shared.engine.Snapshot().Record(msg.Address)
		m.shared.announcer.Announce(rec.DisplayName(), now)
	}
	m.clampCursor()
}

func (m *AppModel) startScanning() error {
	if m.scanning {
		return nil
	}
	now := m.shared.clock()
	session := m.shared.engine.Activate()
	m.shared.history.reset()
	m.cursor = 0
	m.gen++

	if m.shared.sink != nil {
		sc := m.shared.newScanner(m.demo, m.shared.engine.Ring().Capacity())
		if err := sc.Start(m.shared.sink); err != nil {
			m.shared.engine.Deactivate()
			return err
		}
		m.shared.scanner = sc
	}

	m.scanning = true
	m.shared.sweep.Start(now)
	logger.Info("scan_started", "session", session, "demo", m.demo)
	return nil
}

func (m *AppModel) stopScanning() {
	if !m.scanning {
		return
	}
	m.stopScanner()
	m.shared.engine.Deactivate()
	m.shared.sweep.Pause()
	m.scanning = false
	m.gen++
	logger.Info("scan_paused")
}

func (m *AppModel) stopScanner() {
	if m.shared.scanner != nil {
		m.shared.scanner.Stop()
		m.shared.scanner = nil
	}
}

func (m *AppModel) reconfigure(capacity int) {
	evicted, err := m.shared.engine.Reconfigure(capacity)
	if errors.Is(err, dial.ErrCapacityOutOfRange) {
		m.setError(err.Error())
		return
	}
	m.shared.history.drop(evicted...)
	if err != nil {
		m.setError("slot error: " + err.Error())
	}
	if err := m.shared.store.SetCapacity(capacity); err != nil {
		logger.Error("save_capacity_failed", "error", err)
	}
	if d, ok := m.shared.scanner.(interface{ SetCapacity(int) }); ok {
		d.SetCapacity(capacity)
	}
	m.clampCursor()
	m.setNotice("usable slots: " + itoa(capacity))
}

func (m *AppModel) block(id string) {
	if id == "" {
		return
	}
	rec, _ := m.shared.engine.Snapshot().Record(id)
	if err := m.shared.store.Block(id, rec.Name); err != nil {
		m.setError(err.Error())
		return
	}
	m.shared.blocked[id] = true
	m.shared.engine.RemoveExplicit(id)
	m.shared.history.drop(id)
	if m.selected == id {
		m.selected = ""
		m.overlay = overlayNone
	}
	m.clampCursor()
	m.setNotice("blocked " + rec.DisplayName())
}

func (m *AppModel) unblock(address string) {
	if _, err := m.shared.store.Unblock(address); err != nil {
		m.setError(err.Error())
		return
	}
	delete(m.shared.blocked, address)
	m.refreshBlocked()
	m.setNotice("unblocked " + address)
}

func (m *AppModel) clearBlocked() {
	n, err := m.shared.store.ClearBlocked()
	if err != nil {
		m.setError(err.Error())
		return
	}
	m.shared.blocked = make(map[string]bool)
	m.refreshBlocked()
	m.setNotice("cleared " + itoa(n) + " blocked")
}

func (m *AppModel) refreshBlocked() {
	list, err := m.shared.store.Blocked()
	if err != nil {
		m.setError(err.Error())
		return
	}
	m.blockedEntries = list
	if m.blockedCursor >= len(list) {
		m.blockedCursor = max(0, len(list)-1)
	}
}

func (m *AppModel) toggleChime() {
	on := !m.shared.announcer.Chime()
	m.shared.announcer.SetChime(on)
	if err := m.shared.store.SetChime(on); err != nil {
		logger.Error("save_chime_failed", "error", err)
	}
}

// toggleDemo switches between live scanning and test mode. A running
// session restarts so the two sources never share a dial.
func (m *AppModel) toggleDemo() tea.Cmd {
	wasScanning := m.scanning
	m.stopScanning()
	m.demo = !m.demo
	if !wasScanning {
		return nil
	}
	if err := m.startScanning(); err != nil {
		m.setError(err.Error())
		return nil
	}
	return sweepCmd(m.gen, m.cfg.Dial.SweepInterval.Duration())
}

func (m *AppModel) slotted() []string {
	return m.shared.engine.Snapshot().Slotted()
}

func (m *AppModel) clampCursor() {
	n := m.shared.engine.Snapshot().Len()
	if m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}

func (m *AppModel) setError(s string) {
	m.message, m.isError = s, true
}

func (m *AppModel) setNotice(s string) {
	m.message, m.isError = s, false
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(config.TargetFPS), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func sweepCmd(gen int, every time.Duration) tea.Cmd {
	return tea.Tick(every, func(t time.Time) tea.Msg {
		return SweepMsg{Gen: gen, At: t}
	})
}
