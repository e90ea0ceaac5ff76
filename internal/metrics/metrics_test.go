package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRemoteCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRemoteCall("CalculateTax", "success", 10*time.Millisecond)
	m.ObserveRemoteCall("CalculateTax", "success", 20*time.Millisecond)
	m.ObserveRemoteCall("CancelTax", "unavailable", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.remoteCalls.WithLabelValues("CalculateTax", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.remoteCalls.WithLabelValues("CancelTax", "unavailable")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveRemoteCall("CalculateTax", "success", time.Second)
		m.ObserveLifecycleEvent("order_completed", "ok")
		m.RetryScheduled("missed_order_retry")
		m.RetryFired("missed_order_retry")
	})
}
