package dial

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Supported usable capacity range for user configuration.
const (
	MinCapacity = 10
	MaxCapacity = 50
)

// Observer receives engine events, typically to update metrics.
type Observer interface {
	Sighting(kind SightingKind, outcome Outcome)
	Evicted(reason string, n int)
	MarkedStale(n int)
	InvariantViolation()
	Occupancy(slotted, capacity int)
}

type nopObserver struct{}

func (nopObserver) Sighting(SightingKind, Outcome) {}
func (nopObserver) Evicted(string, int)            {}
func (nopObserver) MarkedStale(int)                {}
func (nopObserver) InvariantViolation()            {}
func (nopObserver) Occupancy(int, int)             {}

// Arrival is the result of one discovery event. Announce is set for new
// devices and for devices coming back after going stale.
type Arrival struct {
	ID        string
	Kind      SightingKind
	Placement Placement
	Announce  bool
}

// Engine is the single owner of the registry and the allocator. All
// mutating methods must be called from one goroutine (the UI event loop);
// other goroutines read the published Snapshot.
type Engine struct {
	registry *Registry
	alloc    *Allocator
	ring     Ring

	staleTimeout time.Duration
	minCapacity  int
	maxCapacity  int

	active  bool
	session string

	log *slog.Logger
	obs Observer

	snap atomic.Pointer[Snapshot]
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for sessions, evictions and invariant
// violations.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithObserver registers an Observer for engine events.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.obs = o }
}

// WithCapacityRange overrides the accepted capacity range.
func WithCapacityRange(lo, hi int) Option {
	return func(e *Engine) {
		e.minCapacity = lo
		e.maxCapacity = hi
	}
}

// NewEngine creates an inactive engine for capacity usable slots.
func NewEngine(capacity int, staleTimeout time.Duration, opts ...Option) (*Engine, error) {
	e := &Engine{
		staleTimeout: staleTimeout,
		minCapacity:  MinCapacity,
		maxCapacity:  MaxCapacity,
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		obs:          nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.checkCapacity(capacity); err != nil {
		return nil, err
	}
	ring, err := NewRing(capacity)
	if err != nil {
		return nil, err
	}
	e.ring = ring
	e.reset()
	e.publish()
	return e, nil
}

// Activate starts a new scan session with empty state.
func (e *Engine) Activate() string {
	e.reset()
	e.active = true
	e.session = uuid.New().String()
	e.log.Info("scan_session_started", "session", e.session,
		"capacity", e.ring.Capacity(), "divisions", e.ring.Divisions())
	e.publish()
	return e.session
}

// Deactivate stops the session. Discovery and sweep events are refused
// until Activate is called again; the last state stays visible.
func (e *Engine) Deactivate() {
	if !e.active {
		return
	}
	e.active = false
	e.log.Info("scan_session_stopped", "session", e.session, "devices", e.registry.Len())
	e.publish()
}

// Active reports whether a scan session is running.
func (e *Engine) Active() bool { return e.active }

// Ring returns the current layout.
func (e *Engine) Ring() Ring { return e.ring }

// StaleTimeout returns the silence period after which a device is stale.
func (e *Engine) StaleTimeout() time.Duration { return e.staleTimeout }

// OnDiscovery handles one advertisement.
func (e *Engine) OnDiscovery(id, name string, rssi int, now time.Time) (Arrival, error) {
	if !e.active {
		return Arrival{}, ErrInactive
	}

	kind := e.registry.Observe(id, name, rssi, now)
	placement, err := e.alloc.OnSighting(id, kind)

	arrival := Arrival{
		ID:        id,
		Kind:      kind,
		Placement: placement,
		Announce:  kind != SightingRepeat,
	}

	e.obs.Sighting(kind, placement.Outcome)
	if placement.Evicted != "" {
		e.log.Debug("slot_evicted", "victim", placement.Evicted, "slot", placement.Slot, "for", id)
		e.obs.Evicted("capacity", 1)
	}
	if err != nil {
		e.violation("discovery", id, err)
	}
	if kind != SightingRepeat || placement.Outcome != OutcomeKept {
		e.log.Debug("device_sighted", "id", id, "kind", kind.String(),
			"outcome", placement.Outcome.String(), "slot", placement.Slot)
	}

	e.publish()
	return arrival, err
}

// OnTick runs the staleness sweep and returns the ids that went stale.
func (e *Engine) OnTick(now time.Time) ([]string, error) {
	if !e.active {
		return nil, ErrInactive
	}
	marked := e.registry.SweepStale(now, e.staleTimeout)
	if len(marked) > 0 {
		e.obs.MarkedStale(len(marked))
		e.log.Debug("devices_stale", "count", len(marked))
		e.publish()
	}
	return marked, nil
}

// Reconfigure changes the usable capacity. An out-of-range capacity is
// rejected before anything changes.
func (e *Engine) Reconfigure(capacity int) ([]string, error) {
	if err := e.checkCapacity(capacity); err != nil {
		return nil, err
	}
	if capacity == e.ring.Capacity() {
		return nil, nil
	}
	ring, err := NewRing(capacity)
	if err != nil {
		return nil, err
	}

	evicted, err := e.alloc.Reconfigure(ring)
	e.ring = ring
	if len(evicted) > 0 {
		e.obs.Evicted("reconfigure", len(evicted))
	}
	if err != nil {
		e.violation("reconfigure", "", err)
	}
	e.log.Info("ring_reconfigured", "capacity", capacity,
		"divisions", ring.Divisions(), "excluded", len(ring.Excluded()), "evicted", len(evicted))

	e.publish()
	return evicted, err
}

// RemoveExplicit drops a device's slot and record, e.g. when it is
// blocked. Unknown ids are a no-op and return false.
func (e *Engine) RemoveExplicit(id string) bool {
	if !e.alloc.Remove(id) {
		return false
	}
	e.log.Info("device_removed", "id", id)
	e.publish()
	return true
}

// CurrentAssignment returns the id -> slot mapping.
func (e *Engine) CurrentAssignment() map[string]int {
	return e.Snapshot().Assignment()
}

// CurrentRecords returns the id -> record mapping.
func (e *Engine) CurrentRecords() map[string]Record {
	return e.Snapshot().Records()
}

// HitTest returns the device drawn at angle (degrees, drawing
// convention) and radius fraction of the dial.
func (e *Engine) HitTest(angle, radiusFraction float64) (string, bool) {
	return e.Snapshot().HitTest(angle, radiusFraction)
}

// Snapshot returns the state published after the last mutation. It is
// safe to call from any goroutine.
func (e *Engine) Snapshot() *Snapshot {
	return e.snap.Load()
}

func (e *Engine) checkCapacity(capacity int) error {
	if capacity < e.minCapacity || capacity > e.maxCapacity {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrCapacityOutOfRange,
			capacity, e.minCapacity, e.maxCapacity)
	}
	return nil
}

func (e *Engine) reset() {
	e.registry = NewRegistry()
	e.alloc = NewAllocator(e.ring, e.registry)
}

func (e *Engine) violation(op, id string, err error) {
	e.obs.InvariantViolation()
	e.log.Error("slot_invariant_violation", "op", op, "id", id, "session", e.session,
		"capacity", e.ring.Capacity(), "divisions", e.ring.Divisions(), "error", err)
}

func (e *Engine) publish() {
	e.obs.Occupancy(e.alloc.Len(), e.ring.Capacity())
	e.snap.Store(newSnapshot(e))
}
