// ABOUTME: Prometheus instrumentation for HTTP routes and studio events
// ABOUTME: Counts requests by route and status, login outcomes and uploaded bytes

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crochet_studio"

// Metrics holds the server's collectors.
type Metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	logins    *prometheus.CounterVec
	blobBytes prometheus.Counter
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		logins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		blobBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blob_bytes_stored_total",
			Help:      "Bytes of newly stored blob content.",
		}),
	}
}

// Instrument returns middleware recording requests under the route label.
// A nil Metrics instruments nothing.
func (m *Metrics) Instrument(route string) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if m == nil {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrap(w)
			next(wrapped, r)

			m.requests.WithLabelValues(route, r.Method, strconv.Itoa(wrapped.statusCode)).Inc()
			m.duration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		}
	}
}

// ObserveLogin counts a login attempt. Outcomes are "success", "rejected"
// and "error".
func (m *Metrics) ObserveLogin(outcome string) {
	if m != nil {
		m.logins.WithLabelValues(outcome).Inc()
	}
}

// ObserveBlobBytes adds n newly stored bytes.
func (m *Metrics) ObserveBlobBytes(n int64) {
	if m != nil {
		m.blobBytes.Add(float64(n))
	}
}

// LoginCounter exposes the login counter for outcome.
func (m *Metrics) LoginCounter(outcome string) prometheus.Counter {
	return m.logins.WithLabelValues(outcome)
}

// BlobBytesCounter exposes the stored bytes counter.
func (m *Metrics) BlobBytesCounter() prometheus.Counter {
	return m.blobBytes
}
