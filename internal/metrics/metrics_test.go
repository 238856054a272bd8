package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersRegisterAndIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.LoginResult("ok")
	m.LoginResult("ok")
	m.LoginResult("failed")
	m.SubmissionResult("conflict")
	m.StatusUpdated()
	m.EventDelivered("attendance-added")
	m.EventDropped("attendance-added")
	m.SetSubscribers(3)

	if got := testutil.ToFloat64(m.Logins.WithLabelValues("ok")); got != 2 {
		t.Fatalf("logins ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.AttendanceRecorded.WithLabelValues("conflict")); got != 1 {
		t.Fatalf("conflict submissions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StatusUpdates); got != 1 {
		t.Fatalf("status updates = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Subscribers); got != 3 {
		t.Fatalf("subscribers = %v, want 3", got)
	}
	if n := testutil.CollectAndCount(m.RealtimeDropped); n != 1 {
		t.Fatalf("dropped series = %d, want 1", n)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.LoginResult("ok")
	m.SubmissionResult("ok")
	m.StatusUpdated()
	m.EventDelivered("x")
	m.EventDropped("x")
	m.SetSubscribers(1)
	m.ObserveHTTP("GET", "/", "200", 0.1)
}
