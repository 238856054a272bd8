// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Logins             *prometheus.CounterVec
	AttendanceRecorded *prometheus.CounterVec
	StatusUpdates      prometheus.Counter
	RealtimeEvents     *prometheus.CounterVec
	RealtimeDropped    *prometheus.CounterVec
	Subscribers        prometheus.Gauge
	HTTPDuration       *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "absensi",
			Name:      "operator_logins_total",
			Help:      "Operator login attempts by result.",
		}, []string{"result"}),
		AttendanceRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "absensi",
			Name:      "attendance_submissions_total",
			Help:      "Attendance submissions by result.",
		}, []string{"result"}),
		StatusUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "absensi",
			Name:      "attendance_status_updates_total",
			Help:      "Successful status corrections.",
		}),
		RealtimeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "absensi",
			Name:      "realtime_events_total",
			Help:      "Events fanned out to local subscribers.",
		}, []string{"event"}),
		RealtimeDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "absensi",
			Name:      "realtime_dropped_total",
			Help:      "Events dropped because a subscriber buffer was full.",
		}, []string{"event"}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "absensi",
			Name:      "realtime_subscribers",
			Help:      "Connected realtime viewers.",
		}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "absensi",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.Logins,
			m.AttendanceRecorded,
			m.StatusUpdates,
			m.RealtimeEvents,
			m.RealtimeDropped,
			m.Subscribers,
			m.HTTPDuration,
		)
	}
	return m
}

func (m *Metrics) LoginResult(result string) {
	if m != nil {
		m.Logins.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) SubmissionResult(result string) {
	if m != nil {
		m.AttendanceRecorded.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) StatusUpdated() {
	if m != nil {
		m.StatusUpdates.Inc()
	}
}

func (m *Metrics) EventDelivered(event string) {
	if m != nil {
		m.RealtimeEvents.WithLabelValues(event).Inc()
	}
}

func (m *Metrics) EventDropped(event string) {
	if m != nil {
		m.RealtimeDropped.WithLabelValues(event).Inc()
	}
}

func (m *Metrics) SetSubscribers(n int) {
	if m != nil {
		m.Subscribers.Set(float64(n))
	}
}

func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	if m != nil {
		m.HTTPDuration.WithLabelValues(method, route, status).Observe(seconds)
	}
}
