// Package feedback announces device arrivals with a terminal bell and a
// short status flash.
package feedback

import (
	"context"
	"io"
	"sync"
	"time"

	"ble-dial.klederson.com/internal/config"
	"golang.org/x/time/rate"
)

const bell = "\a"

// maxBacklog bounds how many bells may wait to be played.
const maxBacklog = 16

// Announcer queues one bell per arrival and plays them in order, one per
// chime period. The flash is shown for every announcement.
type Announcer struct {
	mu      sync.Mutex
	out     io.Writer
	chime   bool
	limiter *rate.Limiter
	bells   chan struct{}

	flashText  string
	flashUntil time.Time
}

// NewAnnouncer writes bells to out when chime is on.
func NewAnnouncer(out io.Writer, chime bool) *Announcer {
	period := config.ChimeDuration + config.ChimeGap
	return &Announcer{
		out:     out,
		chime:   chime,
		limiter: rate.NewLimiter(rate.Every(period), 1),
		bells:   make(chan struct{}, maxBacklog),
	}
}

// SetChime toggles the bell.
func (a *Announcer) SetChime(on bool) {
	a.mu.Lock()
	a.chime = on
	a.mu.Unlock()
}

// Chime reports whether the bell is on.
func (a *Announcer) Chime() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.chime
}

// Announce records an arrival at now and queues a bell when chime is on.
// It reports whether a bell was queued; arrivals past a full backlog only
// flash.
func (a *Announcer) Announce(name string, now time.Time) bool {
	a.mu.Lock()
	a.flashText = name
	a.flashUntil = now.Add(config.ChimeDuration)
	ring := a.chime && a.out != nil
	a.mu.Unlock()

	if !ring {
		return false
	}
	select {
	case a.bells <- struct{}{}:
		return true
	default:
		return false
	}
}

// Pending returns the number of queued bells.
func (a *Announcer) Pending() int {
	return len(a.bells)
}

// Run plays queued bells until ctx is done. Bells queued before the chime
// was turned off are skipped.
func (a *Announcer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.bells:
		}
		if err := a.limiter.Wait(ctx); err != nil {
			return
		}
		if a.Chime() {
			_, _ = io.WriteString(a.out, bell)
		}
	}
}

// Flash returns the name to highlight at now, if any.
func (a *Announcer) Flash(now time.Time) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.flashText == "" || !now.Before(a.flashUntil) {
		return "", false
	}
	return a.flashText, true
}
