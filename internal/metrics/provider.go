package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Provider operation labels.
const (
	OpEmbed     = "embed"
	OpChat      = "chat"
	OpRetrieve  = "retrieve"
	OpHealth    = "health"
	StatusOK    = "ok"
	StatusError = "error"
)

// Outbound provider and search pipeline metrics.
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seeker",
			Name:      "provider_requests_total",
			Help:      "Total number of outbound provider requests",
		},
		[]string{"provider", "operation", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "seeker",
			Name:      "provider_request_duration_seconds",
			Help:      "Outbound provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "operation"},
	)

	TokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seeker",
			Name:      "llm_tokens_total",
			Help:      "Total language model tokens consumed",
		},
		[]string{"model", "type"}, // type: prompt / completion
	)

	SynthesisFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seeker",
			Name:      "synthesis_fallbacks_total",
			Help:      "Searches answered with the fallback text",
		},
		[]string{"reason"}, // error / empty
	)

	SourcesReturned = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "seeker",
			Name:      "search_sources_returned",
			Help:      "Number of sources returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
		[]string{"backend"},
	)
)

var registerOnce sync.Once

// RegisterProviderMetrics registers provider and search metrics with the default registry.
// Safe to call more than once.
func RegisterProviderMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ProviderRequestsTotal,
			ProviderRequestDuration,
			TokensTotal,
			SynthesisFallbacksTotal,
			SourcesReturned,
		)
	})
}

// ObserveProvider records one outbound call started at start.
func ObserveProvider(provider, operation string, start time.Time, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	ProviderRequestsTotal.WithLabelValues(provider, operation, status).Inc()
	ProviderRequestDuration.WithLabelValues(provider, operation).Observe(time.Since(start).Seconds())
}
