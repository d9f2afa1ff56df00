// v1
// internal/observability/metrics.go
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry           *prometheus.Registry
	cyclesTotal        prometheus.Counter
	pollFailures       prometheus.Counter
	alertsTotal        *prometheus.CounterVec
	interventionsTotal *prometheus.CounterVec
	dispatchFailures   prometheus.Counter
	reasonerDuration   prometheus.Histogram
	httpRequestsTotal  *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	cbState            *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engine_cycles_total",
			Help: "Total count of completed monitoring cycles.",
		}),
		pollFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engine_poll_failures_total",
			Help: "Total sensor polls that returned no reading.",
		}),
		alertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_alerts_total",
			Help: "Total spoken alerts by kind (emergency, change, summary).",
		}, []string{"kind"}),
		interventionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_interventions_total",
			Help: "Total interventions delivered by type.",
		}, []string{"type"}),
		dispatchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engine_dispatch_failures_total",
			Help: "Total action dispatches that reported failure.",
		}),
		reasonerDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reasoner_request_duration_seconds",
			Help:    "Histogram of reasoning service round-trip durations.",
			Buckets: prometheus.DefBuckets,
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		cbState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cb_state",
			Help: "Circuit breaker state gauge (0 closed, 1 open, 2 half-open).",
		}, []string{"target"}),
	}

	m.registry.MustRegister(
		m.cyclesTotal,
		m.pollFailures,
		m.alertsTotal,
		m.interventionsTotal,
		m.dispatchFailures,
		m.reasonerDuration,
		m.httpRequestsTotal,
		m.httpDuration,
		m.cbState,
	)

	m.cbState.WithLabelValues("reasoner").Set(0)
	m.cbState.WithLabelValues("ledger").Set(0)

	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		duration := time.Since(start).Seconds()
		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(duration)
		}
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CycleCompleted() {
	if m == nil {
		return
	}
	m.cyclesTotal.Inc()
}

func (m *Metrics) PollFailed() {
	if m == nil {
		return
	}
	m.pollFailures.Inc()
}

func (m *Metrics) AlertSpoken(kind string) {
	if m == nil {
		return
	}
	m.alertsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) InterventionDelivered(kind string) {
	if m == nil {
		return
	}
	m.interventionsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) DispatchFailed() {
	if m == nil {
		return
	}
	m.dispatchFailures.Inc()
}

func (m *Metrics) ReasonerRequest(duration time.Duration) {
	if m == nil {
		return
	}
	m.reasonerDuration.Observe(duration.Seconds())
}

func (m *Metrics) SetCircuitBreakerState(target string, state float64) {
	if m == nil {
		return
	}
	m.cbState.WithLabelValues(target).Set(state)
}
