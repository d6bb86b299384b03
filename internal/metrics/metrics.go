// Package metrics holds the Prometheus collectors for the reviewer service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	supabaseCalls    *prometheus.CounterVec
	supabaseDuration *prometheus.HistogramVec

	reviewsSubmitted prometheus.Counter
	reviewsRejected  *prometheus.CounterVec
	authEvents       *prometheus.CounterVec
	statsStreams     prometheus.Gauge
}

// New creates and registers all collectors under namespace.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "fonts_reviewer"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),

		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"service", "method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"service", "method", "path"}),

		supabaseCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "supabase",
			Name:      "calls_total",
			Help:      "Supabase REST and auth calls by resource and outcome.",
		}, []string{"resource", "method", "status"}),
		supabaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "supabase",
			Name:      "call_duration_seconds",
			Help:      "Duration of Supabase calls.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}, []string{"resource", "method"}),

		reviewsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reviews",
			Name:      "submitted_total",
			Help:      "Reviews accepted.",
		}),
		reviewsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reviews",
			Name:      "rejected_total",
			Help:      "Review submissions rejected, by error code.",
		}, []string{"code"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "events_total",
			Help:      "Sign-up, sign-in and sign-out attempts by outcome.",
		}, []string{"event", "outcome"}),
		statsStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stats",
			Name:      "open_streams",
			Help:      "Open user-stats websocket streams.",
		}),
	}

	m.registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.supabaseCalls,
		m.supabaseDuration,
		m.reviewsSubmitted,
		m.reviewsRejected,
		m.authEvents,
		m.statsStreams,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler exposing the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncrementInFlight() { m.httpInFlight.Inc() }
func (m *Metrics) DecrementInFlight() { m.httpInFlight.Dec() }

// RecordHTTPRequest records one served request. path should be a route
// template so label cardinality stays bounded.
func (m *Metrics) RecordHTTPRequest(service, method, path, status string, duration time.Duration) {
	m.httpRequests.WithLabelValues(service, method, path, status).Inc()
	m.httpDuration.WithLabelValues(service, method, path).Observe(duration.Seconds())
}

// ObserveSupabaseCall matches the Supabase client's Observer signature.
// Transport failures are recorded with status "network".
func (m *Metrics) ObserveSupabaseCall(resource, method string, status int, duration time.Duration, err error) {
	label := strconv.Itoa(status)
	if status == 0 && err != nil {
		label = "network"
	}
	m.supabaseCalls.WithLabelValues(resource, method, label).Inc()
	m.supabaseDuration.WithLabelValues(resource, method).Observe(duration.Seconds())
}

func (m *Metrics) RecordReviewSubmitted() {
	m.reviewsSubmitted.Inc()
}

func (m *Metrics) RecordReviewRejected(code string) {
	if code == "" {
		code = "unknown"
	}
	m.reviewsRejected.WithLabelValues(code).Inc()
}

// RecordAuthEvent counts an auth attempt; outcome is "success" or an error code.
func (m *Metrics) RecordAuthEvent(event, outcome string) {
	m.authEvents.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) StreamOpened() { m.statsStreams.Inc() }
func (m *Metrics) StreamClosed() { m.statsStreams.Dec() }
