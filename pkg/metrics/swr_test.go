package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestSWRMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewSWRMetrics(reg)
	cache := "tours"
	metrics.IncHit(cache, "fresh")
	metrics.IncStaleServed(cache)
	metrics.IncRevalidation(cache, "success")
	metrics.IncRevalidation(cache, "discarded")
	metrics.ObserveFetch(cache, 120*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "swr_cache_hits", "cache", cache); err != nil {
		t.Fatalf("fetch hits: %v", err)
	} else if got != 1 {
		t.Fatalf("expected hits=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "swr_stale_served", "cache", cache); err != nil {
		t.Fatalf("fetch stale served: %v", err)
	} else if got != 1 {
		t.Fatalf("expected stale_served=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "swr_fetch_duration_seconds", "cache", cache); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected fetch duration sum > 0, got %f", got)
	}
}

func TestUpstreamMetricsNilReceiverIsSafe(t *testing.T) {
	var m *UpstreamMetrics
	m.IncRequest("tours", "ok")
	m.ObserveDuration("tours", time.Second)

	empty := NewUpstreamMetrics(nil)
	empty.IncRequest("tours", "ok")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
