package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking client flows.
type BookingMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	staleSlotsTotal prometheus.Counter
	agendaRollbacks *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turnos",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total backend API requests",
		}, []string{"operation", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "turnos",
			Subsystem: "api",
			Name:      "request_latency_seconds",
			Help:      "Latency of backend API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		staleSlotsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "turnos",
			Subsystem: "wizard",
			Name:      "stale_slot_responses_total",
			Help:      "Slot responses discarded because the selected date changed",
		}),
		agendaRollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turnos",
			Subsystem: "agenda",
			Name:      "rollbacks_total",
			Help:      "Optimistic agenda updates rolled back after server rejection",
		}, []string{"action"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestLatency, m.staleSlotsTotal, m.agendaRollbacks)
	return m
}

func (m *BookingMetrics) ObserveRequest(operation, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(operation, status).Inc()
	m.requestLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *BookingMetrics) ObserveStaleSlots() {
	if m == nil {
		return
	}
	m.staleSlotsTotal.Inc()
}

func (m *BookingMetrics) ObserveRollback(action string) {
	if m == nil {
		return
	}
	m.agendaRollbacks.WithLabelValues(action).Inc()
}
