// Package metrics exports dial engine activity as Prometheus series.
package metrics

import (
	"net/http"

	"ble-dial.klederson.com/internal/dial"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bledial"

// Recorder implements dial.Observer. Each Recorder owns its registry so
// tests and multiple engines do not collide on the default one.
type Recorder struct {
	reg *prometheus.Registry

	sightings  *prometheus.CounterVec
	evictions  *prometheus.CounterVec
	stale      prometheus.Counter
	violations prometheus.Counter
	blocked    prometheus.Counter
	slotted    prometheus.Gauge
	capacity   prometheus.Gauge
}

var _ dial.Observer = (*Recorder)(nil)

// New creates a Recorder with Go runtime collectors attached.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		sightings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sightings_total",
			Help:      "Discovery events by sighting kind and slot outcome.",
		}, []string{"kind", "outcome"}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Devices evicted from the dial, by reason.",
		}, []string{"reason"}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_marked_total",
			Help:      "Devices marked stale by the sweep.",
		}),
		violations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invariant_violations_total",
			Help:      "Slot invariant violations detected by the engine.",
		}),
		blocked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocked_dropped_total",
			Help:      "Advertisements dropped because the address is blocked.",
		}),
		slotted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "slotted_devices",
			Help:      "Devices currently holding a slot.",
		}),
		capacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "usable_slots",
			Help:      "Configured usable slot count.",
		}),
	}
	r.reg.MustRegister(
		r.sightings, r.evictions, r.stale, r.violations, r.blocked, r.slotted, r.capacity,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *Recorder) Sighting(kind dial.SightingKind, outcome dial.Outcome) {
	r.sightings.WithLabelValues(kind.String(), outcome.String()).Inc()
}

func (r *Recorder) Evicted(reason string, n int) {
	r.evictions.WithLabelValues(reason).Add(float64(n))
}

func (r *Recorder) MarkedStale(n int) { r.stale.Add(float64(n)) }

func (r *Recorder) InvariantViolation() { r.violations.Inc() }

func (r *Recorder) Occupancy(slotted, capacity int) {
	r.slotted.Set(float64(slotted))
	r.capacity.Set(float64(capacity))
}

// BlockedDropped counts an advertisement filtered by the blocklist.
func (r *Recorder) BlockedDropped() { r.blocked.Inc() }
