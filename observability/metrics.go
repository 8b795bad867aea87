package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type apiMetrics struct {
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	rejections  *prometheus.CounterVec
	subscribers prometheus.Gauge
}

var (
	apiMetricsOnce sync.Once
	apiRegistry    *apiMetrics
)

// API returns the collectors describing the HTTP surface.
func API() *apiMetrics {
	apiMetricsOnce.Do(func() {
		apiRegistry = &apiMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ricks",
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "HTTP requests by route, method and status code.",
			}, []string{"route", "method", "code"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "ricks",
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "HTTP handler latency by route.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			}, []string{"route"}),
			rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ricks",
				Subsystem: "api",
				Name:      "rejections_total",
				Help:      "Requests refused before reaching a handler.",
			}, []string{"reason"}),
			subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "ricks",
				Subsystem: "api",
				Name:      "stream_subscribers",
				Help:      "Open websocket event streams.",
			}),
		}
		prometheus.MustRegister(
			apiRegistry.requests,
			apiRegistry.latency,
			apiRegistry.rejections,
			apiRegistry.subscribers,
		)
	})
	return apiRegistry
}

// ObserveRequest records a finished request. route should be the router
// pattern, not the raw path, to keep label cardinality bounded.
func (m *apiMetrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordRejection counts a request refused by middleware: "rate",
// "signature", "replay" or "admin_token".
func (m *apiMetrics) RecordRejection(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.rejections.WithLabelValues(reason).Inc()
}

// StreamOpened and StreamClosed track websocket subscribers.
func (m *apiMetrics) StreamOpened() {
	if m != nil {
		m.subscribers.Inc()
	}
}

func (m *apiMetrics) StreamClosed() {
	if m != nil {
		m.subscribers.Dec()
	}
}
