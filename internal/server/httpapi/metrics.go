package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector records per-request metrics and serves the scrape
// endpoint.
type MetricsCollector struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration prometheus.Histogram
}

// NewMetricsCollector creates a collector with its own registry.
func NewMetricsCollector() *MetricsCollector {
	registry := prometheus.NewRegistry()

	c := &MetricsCollector{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authkeeper_http_requests_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "authkeeper_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(c.requestsTotal, c.requestDuration)

	return c
}

// Middleware records status code and latency for every request.
func (c *MetricsCollector) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			c.requestsTotal.WithLabelValues(strconv.Itoa(rec.statusCode)).Inc()
			c.requestDuration.Observe(time.Since(start).Seconds())
		})
	}
}

// Handler serves the prometheus scrape endpoint for this collector's
// registry.
func (c *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
