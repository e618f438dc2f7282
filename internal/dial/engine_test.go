package dial

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	sightings  map[Outcome]int
	evicted    map[string]int
	stale      int
	violations int
	slotted    int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{sightings: map[Outcome]int{}, evicted: map[string]int{}}
}

func (o *countingObserver) Sighting(_ SightingKind, out Outcome) { o.sightings[out]++ }
func (o *countingObserver) Evicted(reason string, n int)         { o.evicted[reason] += n }
func (o *countingObserver) MarkedStale(n int)                    { o.stale += n }
func (o *countingObserver) InvariantViolation()                  { o.violations++ }
func (o *countingObserver) Occupancy(slotted, _ int)             { o.slotted = slotted }

func newActiveEngine(t *testing.T, capacity int, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(capacity, 5*time.Second, opts...)
	require.NoError(t, err)
	e.Activate()
	return e
}

func TestEngineRejectsEventsWhileInactive(t *testing.T) {
	e, err := NewEngine(22, 5*time.Second)
	require.NoError(t, err)

	_, err = e.OnDiscovery("AA", "", -50, at(0))
	assert.ErrorIs(t, err, ErrInactive)
	_, err = e.OnTick(at(1))
	assert.ErrorIs(t, err, ErrInactive)
	assert.Empty(t, e.CurrentRecords())

	e.Activate()
	_, err = e.OnDiscovery("AA", "", -50, at(2))
	require.NoError(t, err)

	e.Deactivate()
	_, err = e.OnDiscovery("BB", "", -50, at(3))
	assert.ErrorIs(t, err, ErrInactive)
	assert.Len(t, e.CurrentRecords(), 1, "state stays visible after stopping")
	assert.False(t, e.Snapshot().Active())
}

func TestEngineActivateStartsFreshSession(t *testing.T) {
	e := newActiveEngine(t, 22)
	first := e.Snapshot().Session()
	_, err := e.OnDiscovery("AA", "", -50, at(0))
	require.NoError(t, err)

	second := e.Activate()
	assert.NotEqual(t, first, second)
	assert.Empty(t, e.CurrentAssignment())
	assert.Empty(t, e.CurrentRecords())
}

func TestEngineAnnouncesFirstAndRevived(t *testing.T) {
	e := newActiveEngine(t, 22)

	a, err := e.OnDiscovery("AA", "Band", -50, at(0))
	require.NoError(t, err)
	assert.Equal(t, SightingFirst, a.Kind)
	assert.True(t, a.Announce)
	assert.Equal(t, OutcomeAssigned, a.Placement.Outcome)

	a, err = e.OnDiscovery("AA", "", -52, at(1))
	require.NoError(t, err)
	assert.Equal(t, SightingRepeat, a.Kind)
	assert.False(t, a.Announce)
	assert.Equal(t, OutcomeKept, a.Placement.Outcome)

	stale, err := e.OnTick(at(7))
	require.NoError(t, err)
	assert.Equal(t, []string{"AA"}, stale)

	rec := e.CurrentRecords()["AA"]
	assert.True(t, rec.Signal.IsStale())
	assert.Equal(t, at(1), rec.LastSeen)
	_, slotted := e.CurrentAssignment()["AA"]
	assert.True(t, slotted, "stale devices keep their slot")

	a, err = e.OnDiscovery("AA", "", -60, at(8))
	require.NoError(t, err)
	assert.Equal(t, SightingRevived, a.Kind)
	assert.True(t, a.Announce)
	assert.Equal(t, OutcomeKept, a.Placement.Outcome)
}

func TestEngineEvictionPolicy(t *testing.T) {
	obs := newCountingObserver()
	e := newActiveEngine(t, 3, WithCapacityRange(1, 50), WithObserver(obs))

	for i, id := range []string{"A", "B", "C"} {
		_, err := e.OnDiscovery(id, "", -50, at(float64(i)))
		require.NoError(t, err)
	}
	_, err := e.OnDiscovery("A", "", -50, at(3))
	require.NoError(t, err)

	d, err := e.OnDiscovery("D", "", -50, at(4))
	require.NoError(t, err)
	assert.Equal(t, "B", d.Placement.Evicted)

	recs := e.CurrentRecords()
	assert.NotContains(t, recs, "B")
	assert.Contains(t, recs, "D")
	assert.Equal(t, 1, obs.evicted["capacity"])
	assert.Equal(t, 3, obs.slotted)
	assert.Zero(t, obs.violations)
}

func TestEngineReconfigure(t *testing.T) {
	t.Run("out of range leaves state intact", func(t *testing.T) {
		e := newActiveEngine(t, 22)
		_, err := e.OnDiscovery("AA", "", -50, at(0))
		require.NoError(t, err)
		before := e.CurrentAssignment()

		for _, c := range []int{0, 9, 51, -3} {
			_, err := e.Reconfigure(c)
			assert.ErrorIs(t, err, ErrCapacityOutOfRange, "capacity %d", c)
		}
		assert.Equal(t, 22, e.Ring().Capacity())
		assert.Equal(t, 24, e.Ring().Divisions())
		assert.Equal(t, before, e.CurrentAssignment())
	})

	t.Run("same capacity is a no-op", func(t *testing.T) {
		e := newActiveEngine(t, 22)
		evicted, err := e.Reconfigure(22)
		assert.NoError(t, err)
		assert.Empty(t, evicted)
	})

	t.Run("ring and snapshot swap together", func(t *testing.T) {
		e := newActiveEngine(t, 22)
		for i := 0; i < 22; i++ {
			_, err := e.OnDiscovery(fmt.Sprintf("dev-%02d", i), "", -50, at(float64(i)))
			require.NoError(t, err)
		}
		evicted, err := e.Reconfigure(10)
		require.NoError(t, err)
		assert.NotEmpty(t, evicted)

		snap := e.Snapshot()
		assert.Equal(t, 11, snap.Ring().Divisions())
		assert.Equal(t, []int{5}, snap.Ring().Excluded())
		assert.LessOrEqual(t, snap.Len(), 10)
		for id, slot := range snap.Assignment() {
			assert.True(t, snap.Ring().InRange(slot), id)
			assert.False(t, snap.Ring().IsExcluded(slot), id)
		}
	})

	t.Run("allowed while stopped", func(t *testing.T) {
		e, err := NewEngine(22, 5*time.Second)
		require.NoError(t, err)
		_, err = e.Reconfigure(40)
		require.NoError(t, err)
		assert.Equal(t, 40, e.Snapshot().Ring().Capacity())
	})
}

func TestEngineRemoveExplicit(t *testing.T) {
	e := newActiveEngine(t, 22)
	_, err := e.OnDiscovery("AA", "", -50, at(0))
	require.NoError(t, err)

	assert.True(t, e.RemoveExplicit("AA"))
	assert.Empty(t, e.CurrentAssignment())
	assert.Empty(t, e.CurrentRecords())
	assert.False(t, e.RemoveExplicit("AA"))
	assert.False(t, e.RemoveExplicit("unknown"))
}

func TestEngineHitTest(t *testing.T) {
	e := newActiveEngine(t, 22)
	a, err := e.OnDiscovery("AA", "", -50, at(0))
	require.NoError(t, err)
	ring := e.Ring()

	id, ok := e.HitTest(ring.MidpointAngle(a.Placement.Slot), 0.9)
	assert.True(t, ok)
	assert.Equal(t, "AA", id)

	_, ok = e.HitTest(ring.MidpointAngle(a.Placement.Slot), 1.01)
	assert.False(t, ok, "outside the dial radius")
	_, ok = e.HitTest(ring.MidpointAngle(a.Placement.Slot), -0.1)
	assert.False(t, ok)
	_, ok = e.HitTest(ring.MidpointAngle(a.Placement.Slot), math.NaN())
	assert.False(t, ok, "NaN radius")
	_, ok = e.HitTest(math.NaN(), 0.9)
	assert.False(t, ok, "NaN angle")
	_, ok = e.HitTest(math.Inf(1), 0.9)
	assert.False(t, ok, "infinite angle")

	for _, s := range ring.Excluded() {
		_, ok = e.HitTest(ring.MidpointAngle(s), 0.5)
		assert.False(t, ok, "excluded slot %d", s)
	}

	empty := (a.Placement.Slot + 1) % ring.Divisions()
	if !ring.IsExcluded(empty) {
		_, ok = e.HitTest(ring.MidpointAngle(empty), 0.5)
		assert.False(t, ok)
	}
}

func TestSnapshotIsImmutable(t *testing.T) {
	e := newActiveEngine(t, 22)
	_, err := e.OnDiscovery("AA", "", -50, at(0))
	require.NoError(t, err)

	before := e.Snapshot()
	_, err = e.OnDiscovery("BB", "", -50, at(1))
	require.NoError(t, err)
	e.RemoveExplicit("AA")

	assert.Equal(t, 1, before.Len())
	_, ok := before.Record("AA")
	assert.True(t, ok)
	assert.Equal(t, []string{"BB"}, e.Snapshot().Slotted())
}

func TestEngineReportsInvariantViolation(t *testing.T) {
	obs := newCountingObserver()
	e := newActiveEngine(t, 3, WithCapacityRange(1, 50), WithObserver(obs))
	for _, s := range []int{0, 1, 3} {
		e.alloc.owners[s] = "phantom"
	}

	a, err := e.OnDiscovery("new", "", -50, at(0))
	assert.ErrorIs(t, err, ErrInvariant)
	assert.Equal(t, OutcomeRejected, a.Placement.Outcome)
	assert.Equal(t, 1, obs.violations)
	assert.Equal(t, 1, obs.sightings[OutcomeRejected])
}
