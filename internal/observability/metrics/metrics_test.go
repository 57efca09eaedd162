package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveRequest("slots", "ok", 0.12)
	m.ObserveRequest("reserve", "rejected", 0.4)
	m.ObserveStaleSlots()
	m.ObserveRollback("cancel")
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveRequest("slots", "ok", 0.1)
	m.ObserveStaleSlots()
	m.ObserveRollback("complete")
}
