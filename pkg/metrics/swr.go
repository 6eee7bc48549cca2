package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SWRMetrics records cache behaviour for stale-while-revalidate lookups.
type SWRMetrics struct {
	hits         *prometheus.CounterVec
	staleServed  *prometheus.CounterVec
	revalidation *prometheus.CounterVec
	fetchLatency *prometheus.HistogramVec
}

// NewSWRMetrics registers the cache metrics on the provided registerer.
func NewSWRMetrics(reg prometheus.Registerer) *SWRMetrics {
	if reg == nil {
		return &SWRMetrics{}
	}
	hits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "swr_cache_hits",
		Help: "Cache lookups served without an upstream fetch.",
	}, []string{"cache", "state"})
	staleServed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "swr_stale_served",
		Help: "Lookups that returned stale data while revalidating.",
	}, []string{"cache"})
	revalidation := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "swr_revalidations",
		Help: "Background revalidation fetches by outcome.",
	}, []string{"cache", "outcome"})
	fetchLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "swr_fetch_duration_seconds",
		Help:    "Duration of upstream fetches triggered by the cache.",
		Buckets: prometheus.DefBuckets,
	}, []string{"cache"})
	reg.MustRegister(hits, staleServed, revalidation, fetchLatency)
	return &SWRMetrics{
		hits:         hits,
		staleServed:  staleServed,
		revalidation: revalidation,
		fetchLatency: fetchLatency,
	}
}

// IncHit increments the hit counter for the named cache. State is
// "fresh" or "stale".
func (s *SWRMetrics) IncHit(cache, state string) {
	if s == nil || s.hits == nil {
		return
	}
	s.hits.WithLabelValues(normalizeLabel(cache), normalizeLabel(state)).Inc()
}

// IncStaleServed increments the stale-served counter for the named cache.
func (s *SWRMetrics) IncStaleServed(cache string) {
	if s == nil || s.staleServed == nil {
		return
	}
	s.staleServed.WithLabelValues(normalizeLabel(cache)).Inc()
}

// IncRevalidation increments the revalidation counter. Outcome is
// "success", "error" or "discarded".
func (s *SWRMetrics) IncRevalidation(cache, outcome string) {
	if s == nil || s.revalidation == nil {
		return
	}
	s.revalidation.WithLabelValues(normalizeLabel(cache), normalizeLabel(outcome)).Inc()
}

// ObserveFetch records how long an upstream fetch took.
func (s *SWRMetrics) ObserveFetch(cache string, duration time.Duration) {
	if s == nil || s.fetchLatency == nil {
		return
	}
	s.fetchLatency.WithLabelValues(normalizeLabel(cache)).Observe(duration.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
