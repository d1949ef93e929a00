package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/grimleaf/grimleaf/internal/bot"
	"github.com/grimleaf/grimleaf/internal/event"
)

// Metrics bridges the event bus and the session snapshot into
// Prometheus collectors. Event streams become counters; snapshot
// numbers become gauges refreshed by the broadcast loop.
type Metrics struct {
	registry *prometheus.Registry

	stateChanges  *prometheus.CounterVec
	breaksTaken   *prometheus.CounterVec
	recoveries    prometheus.Counter
	captureStalls prometheus.Counter
	cycleSeconds  prometheus.Histogram

	itemsProcessed prometheus.Gauge
	itemsPerHour   prometheus.Gauge
	bankTrips      prometheus.Gauge
	misclicks      prometheus.Gauge
	fatigueLevel   prometheus.Gauge
	uptimeSeconds  prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stateChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grimleaf_state_transitions_total",
			Help: "Controller state transitions by destination state.",
		}, []string{"to"}),
		breaksTaken: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grimleaf_breaks_total",
			Help: "Breaks taken by kind.",
		}, []string{"kind"}),
		recoveries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grimleaf_recovery_attempts_total",
			Help: "Perception recovery attempts.",
		}),
		captureStalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grimleaf_capture_stalls_total",
			Help: "Capture watchdog stall reports.",
		}),
		cycleSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grimleaf_cycle_duration_seconds",
			Help:    "Full bank-and-process cycle duration.",
			Buckets: prometheus.ExponentialBuckets(15, 2, 8),
		}),
		itemsProcessed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grimleaf_items_processed",
			Help: "Items processed this session.",
		}),
		itemsPerHour: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grimleaf_items_per_hour",
			Help: "Processing rate over the whole session.",
		}),
		bankTrips: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grimleaf_bank_trips",
			Help: "Bank round trips this session.",
		}),
		misclicks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grimleaf_misclicks",
			Help: "Injected misclicks this session.",
		}),
		fatigueLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grimleaf_fatigue_level",
			Help: "Operator fatigue model level, 0 to 1.",
		}),
		uptimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grimleaf_session_uptime_seconds",
			Help: "Seconds since the session started.",
		}),
	}

	m.registry.MustRegister(
		m.stateChanges,
		m.breaksTaken,
		m.recoveries,
		m.captureStalls,
		m.cycleSeconds,
		m.itemsProcessed,
		m.itemsPerHour,
		m.bankTrips,
		m.misclicks,
		m.fatigueLevel,
		m.uptimeSeconds,
	)

	return m
}

// Handle consumes bus events. Registered with the event listener.
func (m *Metrics) Handle(ctx context.Context, e event.Event) error {
	switch evt := e.(type) {
	case event.StateChangedEvent:
		m.stateChanges.WithLabelValues(evt.To).Inc()
	case event.BreakStartedEvent:
		m.breaksTaken.WithLabelValues(evt.Kind).Inc()
	case event.RecoveryAttemptedEvent:
		m.recoveries.Inc()
	case event.CaptureStalledEvent:
		m.captureStalls.Inc()
	case event.CycleCompletedEvent:
		m.cycleSeconds.Observe(evt.Elapsed.Seconds())
	}
	return nil
}

// ObserveSnapshot refreshes the gauges from the session snapshot.
func (m *Metrics) ObserveSnapshot(snap bot.Snapshot) {
	m.itemsProcessed.Set(float64(snap.ItemsProcessed))
	m.itemsPerHour.Set(snap.ItemsPerHour)
	m.bankTrips.Set(float64(snap.BankTrips))
	m.misclicks.Set(float64(snap.Misclicks))
	m.fatigueLevel.Set(snap.Fatigue.FatigueLevel)
	m.uptimeSeconds.Set(snap.UptimeSeconds)
}

// Handler serves the metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
