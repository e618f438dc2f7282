package bluetooth

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"ble-dial.klederson.com/internal/config"
)

// maxRegulars bounds how many invented devices the demo keeps revisiting.
const maxRegulars = 64

// DemoScanner invents devices for test mode. Every interval it announces a
// brand new device and, some of the time, re-sights one it made earlier so
// repeat and revived sightings show up too.
type DemoScanner struct {
	mu       sync.Mutex
	interval time.Duration
	rng      *rand.Rand
	regulars []string
	cancel   context.CancelFunc
}

// NewDemoScanner paces itself for capacity usable slots.
func NewDemoScanner(capacity int) *DemoScanner {
	return &DemoScanner{
		interval: config.DemoInterval(capacity),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetCapacity changes the pace after a ring reconfiguration.
func (s *DemoScanner) SetCapacity(capacity int) {
	s.mu.Lock()
	s.interval = config.DemoInterval(capacity)
	s.mu.Unlock()
}

// Start begins emitting in a goroutine.
func (s *DemoScanner) Start(sink Sink) error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.loop(ctx, sink)
	return nil
}

// Stop halts the generator. Known regulars are kept for the next Start.
func (s *DemoScanner) Stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *DemoScanner) loop(ctx context.Context, sink Sink) {
	for {
		s.mu.Lock()
		wait := s.interval
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		for _, msg := range s.Next() {
			sink.Send(msg)
		}
	}
}

// Next returns the sightings for one interval.
func (s *DemoScanner) Next() []DiscoveredMsg {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []DiscoveredMsg
	if len(s.regulars) > 0 && s.rng.Intn(2) == 0 {
		addr := s.regulars[s.rng.Intn(len(s.regulars))]
		out = append(out, s.sighting(addr))
	}

	addr := s.randomMAC()
	for s.known(addr) {
		addr = s.randomMAC()
	}
	if len(s.regulars) < maxRegulars {
		s.regulars = append(s.regulars, addr)
	} else {
		s.regulars[s.rng.Intn(maxRegulars)] = addr
	}
	return append(out, s.sighting(addr))
}

func (s *DemoScanner) known(addr string) bool {
	for _, r := range s.regulars {
		if r == addr {
			return true
		}
	}
	return false
}

func (s *DemoScanner) sighting(addr string) DiscoveredMsg {
	span := config.DemoRSSIMax - config.DemoRSSIMin
	return DiscoveredMsg{
		Address: addr,
		Name:    DemoName(addr),
		RSSI:    config.DemoRSSIMin + s.rng.Intn(span),
		Source:  SourceDemo,
	}
}

// DemoName is "Test " followed by the last two octets of addr.
func DemoName(addr string) string {
	if len(addr) > 5 {
		addr = addr[len(addr)-5:]
	}
	return "Test " + addr
}

func (s *DemoScanner) randomMAC() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = byte(s.rng.Intn(256))
	}
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", b[0], b[1], b[2], b[3], b[4], b[5])
}
