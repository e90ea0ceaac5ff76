package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "taxsync"

// Metrics groups the engine's prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	remoteCalls      *prometheus.CounterVec
	remoteDuration   *prometheus.HistogramVec
	lifecycleEvents  *prometheus.CounterVec
	retriesScheduled *prometheus.CounterVec
	retriesFired     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		remoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_calls_total",
			Help:      "Calls to the remote tax service by method and outcome.",
		}, []string{"method", "outcome"}),
		remoteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_call_duration_seconds",
			Help:      "Latency of remote tax service calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		lifecycleEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_events_total",
			Help:      "Order lifecycle events handled, by event and outcome.",
		}, []string{"event", "outcome"}),
		retriesScheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_scheduled_total",
			Help:      "Retries booked, by hook.",
		}, []string{"hook"}),
		retriesFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_fired_total",
			Help:      "Due retries executed, by hook.",
		}, []string{"hook"}),
	}

	reg.MustRegister(m.remoteCalls, m.remoteDuration, m.lifecycleEvents, m.retriesScheduled, m.retriesFired)
	return m
}

func (m *Metrics) ObserveRemoteCall(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.remoteCalls.WithLabelValues(method, outcome).Inc()
	if elapsed > 0 {
		m.remoteDuration.WithLabelValues(method).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) ObserveLifecycleEvent(event, outcome string) {
	if m == nil {
		return
	}
	m.lifecycleEvents.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) RetryScheduled(hook string) {
	if m == nil {
		return
	}
	m.retriesScheduled.WithLabelValues(hook).Inc()
}

func (m *Metrics) RetryFired(hook string) {
	if m == nil {
		return
	}
	m.retriesFired.WithLabelValues(hook).Inc()
}
