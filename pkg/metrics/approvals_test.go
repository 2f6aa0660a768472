package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestApprovalMetricsCountsTransitions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewApprovalMetrics(reg)
	m.IncTransition("approve")
	m.IncTransition("approve")
	m.IncTransition("reject")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	got, err := fetchCounterValue(mfs, "churchhub_approval_transitions_total", "transition", "approve")
	if err != nil {
		t.Fatalf("fetch approve: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected approve=2, got %f", got)
	}
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("GET", "/api/v1/events/{id}", 200, 20*time.Millisecond)
	m.Observe("GET", "", 404, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "churchhub_http_requests_total", "route", "/api/v1/events/{id}"); err != nil || got != 1 {
		t.Fatalf("expected one request for route, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "churchhub_http_requests_total", "route", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected unknown route bucket, got %f err=%v", got, err)
	}
	if got, err := fetchHistogramSum(mfs, "churchhub_http_request_duration_seconds", "method", "GET"); err != nil || got <= 0 {
		t.Fatalf("expected latency observed, got %f err=%v", got, err)
	}
}
