package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics records calls made to the booking backend.
type UpstreamMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewUpstreamMetrics registers the upstream client metrics on the
// provided registerer.
func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	if reg == nil {
		return &UpstreamMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_requests",
		Help: "Requests sent to the booking backend by resource and outcome.",
	}, []string{"resource", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of booking backend requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource"})
	reg.MustRegister(requests, duration)
	return &UpstreamMetrics{
		requests: requests,
		duration: duration,
	}
}

// IncRequest increments the request counter. Outcome is "ok",
// "client_error", "server_error", "network" or "timeout".
func (u *UpstreamMetrics) IncRequest(resource, outcome string) {
	if u == nil || u.requests == nil {
		return
	}
	u.requests.WithLabelValues(normalizeLabel(resource), normalizeLabel(outcome)).Inc()
}

// ObserveDuration records the duration of a backend request.
func (u *UpstreamMetrics) ObserveDuration(resource string, duration time.Duration) {
	if u == nil || u.duration == nil {
		return
	}
	u.duration.WithLabelValues(normalizeLabel(resource)).Observe(duration.Seconds())
}
