package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for booking lifecycle events.
type BookingMetrics struct {
	mutationsTotal *prometheus.CounterVec
	conflictsTotal prometheus.Counter
	notifyTotal    *prometheus.CounterVec
}

// NewBookingMetrics registers booking collectors on reg (default registerer when nil).
func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		mutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "mutations_total",
			Help:      "Booking writes by operation and resulting status",
		}, []string{"operation", "status"}),
		conflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "slot_conflicts_total",
			Help:      "Booking writes rejected because the slot was no longer free",
		}),
		notifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "notifications_total",
			Help:      "Customer notifications by kind and outcome",
		}, []string{"kind", "outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.mutationsTotal, m.conflictsTotal, m.notifyTotal)
	return m
}

func (m *BookingMetrics) ObserveMutation(operation, status string) {
	if m == nil {
		return
	}
	m.mutationsTotal.WithLabelValues(operation, status).Inc()
}

func (m *BookingMetrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.conflictsTotal.Inc()
}

func (m *BookingMetrics) ObserveNotification(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.notifyTotal.WithLabelValues(kind, outcome).Inc()
}

// AvailabilityMetrics tracks availability computations.
type AvailabilityMetrics struct {
	requestsTotal *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	daysTotal     *prometheus.CounterVec
}

// NewAvailabilityMetrics registers availability collectors on reg (default registerer when nil).
func NewAvailabilityMetrics(reg prometheus.Registerer) *AvailabilityMetrics {
	m := &AvailabilityMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "availability",
			Name:      "requests_total",
			Help:      "Availability lookups by kind and outcome",
		}, []string{"kind", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "availability",
			Name:      "latency_seconds",
			Help:      "Latency of availability computations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		daysTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "availability",
			Name:      "days_total",
			Help:      "Computed calendar days by status",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.latency, m.daysTotal)
	return m
}

func (m *AvailabilityMetrics) ObserveRequest(kind string, err error, seconds float64) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.requestsTotal.WithLabelValues(kind, outcome).Inc()
	m.latency.WithLabelValues(kind).Observe(seconds)
}

func (m *AvailabilityMetrics) ObserveDay(status string) {
	if m == nil {
		return
	}
	m.daysTotal.WithLabelValues(status).Inc()
}
