// v0
// internal/observability/metrics_test.go
package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsEndpointExposesCounters(t *testing.T) {
	m := NewMetrics()
	m.CycleCompleted()
	m.CycleCompleted()
	m.AlertSpoken("emergency")
	m.InterventionDelivered("stress_reduction")
	m.DispatchFailed()
	m.ReasonerRequest(120 * time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"engine_cycles_total 2",
		`engine_alerts_total{kind="emergency"} 1`,
		`engine_interventions_total{type="stress_reduction"} 1`,
		"engine_dispatch_failures_total 1",
		"reasoner_request_duration_seconds_count 1",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q\n%s", want, body)
		}
	}
}

func TestWrapHandlerRecordsStatus(t *testing.T) {
	m := NewMetrics()
	h := m.WrapHandler("/status", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status passthrough: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `http_requests_total{route="/status",status="418"} 1`) {
		t.Fatal("request counter not recorded")
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.CycleCompleted()
	m.PollFailed()
	m.AlertSpoken("change")
	m.InterventionDelivered("break_reminder")
	m.DispatchFailed()
	m.ReasonerRequest(time.Second)
	m.SetCircuitBreakerState("reasoner", 1)
}
