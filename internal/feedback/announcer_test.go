package feedback

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

var t0 = time.Unix(1_700_000_000, 0)

// bellRecorder notes when each bell was written.
type bellRecorder struct {
	mu sync.Mutex
	at []time.Time
}

func (b *bellRecorder) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := 0; i < strings.Count(string(p), bell); i++ {
		b.at = append(b.at, time.Now())
	}
	return len(p), nil
}

func (b *bellRecorder) times() []time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]time.Time(nil), b.at...)
}

func TestSimultaneousArrivalsRingInTurn(t *testing.T) {
	rec := &bellRecorder{}
	a := NewAnnouncer(rec, true)
	period := 40 * time.Millisecond
	a.limiter = rate.NewLimiter(rate.Every(period), 1)

	assert.True(t, a.Announce("Watch", t0))
	assert.True(t, a.Announce("Phone", t0))
	assert.True(t, a.Announce("Tag", t0))
	assert.Equal(t, 3, a.Pending())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	require.Eventually(t, func() bool { return len(rec.times()) == 3 }, 2*time.Second, 5*time.Millisecond)
	at := rec.times()
	for i := 1; i < len(at); i++ {
		assert.GreaterOrEqual(t, at[i].Sub(at[i-1]), period-10*time.Millisecond, "bell %d", i)
	}
	assert.Equal(t, 0, a.Pending())
}

func TestBacklogIsBounded(t *testing.T) {
	a := NewAnnouncer(&bytes.Buffer{}, true)

	queued := 0
	for i := 0; i < maxBacklog+5; i++ {
		if a.Announce("Tag", t0) {
			queued++
		}
	}
	assert.Equal(t, maxBacklog, queued)
	assert.Equal(t, maxBacklog, a.Pending())
}

func TestRunStopsWithContext(t *testing.T) {
	a := NewAnnouncer(&bellRecorder{}, true)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestChimeOff(t *testing.T) {
	var out bytes.Buffer
	a := NewAnnouncer(&out, false)

	assert.False(t, a.Announce("Watch", t0))
	assert.Equal(t, 0, a.Pending())

	name, ok := a.Flash(t0.Add(100 * time.Millisecond))
	assert.True(t, ok, "flash shows even when silent")
	assert.Equal(t, "Watch", name)

	a.SetChime(true)
	assert.True(t, a.Chime())
	assert.True(t, a.Announce("Phone", t0.Add(time.Second)))
	assert.Equal(t, 1, a.Pending())
}

func TestFlashExpires(t *testing.T) {
	a := NewAnnouncer(nil, true)
	_, ok := a.Flash(t0)
	assert.False(t, ok)

	assert.False(t, a.Announce("Tag", t0), "no writer, nothing queued")
	name, ok := a.Flash(t0.Add(499 * time.Millisecond))
	assert.True(t, ok)
	assert.Equal(t, "Tag", name)

	_, ok = a.Flash(t0.Add(500 * time.Millisecond))
	assert.False(t, ok)
}
