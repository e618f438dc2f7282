package dial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func at(sec float64) time.Time {
	return t0.Add(time.Duration(sec * float64(time.Second)))
}

func TestRegistryObserveKinds(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, SightingFirst, r.Observe("AA", "Watch", -60, at(0)))
	assert.Equal(t, SightingRepeat, r.Observe("AA", "", -55, at(1)))

	rec, ok := r.Get("AA")
	require.True(t, ok)
	assert.Equal(t, "Watch", rec.Name, "empty name keeps the known one")
	rssi, live := rec.Signal.RSSI()
	assert.True(t, live)
	assert.Equal(t, -55, rssi)
	assert.Equal(t, at(1), rec.LastSeen)

	marked := r.SweepStale(at(10), 5*time.Second)
	assert.Equal(t, []string{"AA"}, marked)

	assert.Equal(t, SightingRevived, r.Observe("AA", "Watch 2", -70, at(11)))
	rec, _ = r.Get("AA")
	assert.False(t, rec.Signal.IsStale())
	assert.Equal(t, "Watch 2", rec.Name)
	assert.Equal(t, at(11), rec.LastSeen)
}

func TestRegistrySweepStale(t *testing.T) {
	r := NewRegistry()
	r.Observe("old", "", -80, at(0))
	r.Observe("edge", "", -80, at(5))
	r.Observe("new", "", -80, at(9))

	marked := r.SweepStale(at(10), 5*time.Second)
	assert.Equal(t, []string{"old"}, marked, "exactly timeout old is not stale yet")

	rec, _ := r.Get("old")
	assert.True(t, rec.Signal.IsStale())
	assert.Equal(t, StaleRSSI, rec.Signal.Display())
	assert.Equal(t, at(0), rec.LastSeen, "sweep must not touch LastSeen")

	// Already stale records are not reported twice.
	marked = r.SweepStale(at(20), 5*time.Second)
	assert.Equal(t, []string{"edge", "new"}, marked)
	assert.Empty(t, r.SweepStale(at(30), 5*time.Second))
	assert.Equal(t, 3, r.Len(), "staleness never removes records")
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	r.Observe("AA", "", -50, at(0))

	assert.True(t, r.Remove("AA"))
	assert.False(t, r.Remove("AA"))
	assert.False(t, r.Remove("never-seen"))
	_, ok := r.LastSeen("AA")
	assert.False(t, ok)
}

func TestRegistryRecordsIsCopy(t *testing.T) {
	r := NewRegistry()
	r.Observe("AA", "n", -50, at(0))

	recs := r.Records()
	rec := recs["AA"]
	rec.Name = "changed"
	recs["AA"] = rec
	delete(recs, "AA")

	got, ok := r.Get("AA")
	require.True(t, ok)
	assert.Equal(t, "n", got.Name)
}

func TestSignalVariant(t *testing.T) {
	s := Active(StaleRSSI)
	assert.False(t, s.IsStale(), "a -120 reading is still a live reading")
	v, live := s.RSSI()
	assert.True(t, live)
	assert.Equal(t, StaleRSSI, v)

	_, live = Stale().RSSI()
	assert.False(t, live)
}

func TestRecordDisplayName(t *testing.T) {
	assert.Equal(t, "[unnamed]", Record{}.DisplayName())
	assert.Equal(t, "Tile", Record{Name: "Tile"}.DisplayName())
}
