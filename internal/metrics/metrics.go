// Package metrics exposes Prometheus collectors for the relay's provider
// traffic. Collectors register on the default registry; the API serves them
// through promhttp.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "waoowaoo",
			Name:      "provider_requests_total",
			Help:      "Total number of provider API requests",
		},
		[]string{"provider", "operation", "status"},
	)

	providerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "waoowaoo",
			Name:      "provider_request_duration_seconds",
			Help:      "Provider API request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "operation"},
	)

	tokensUsedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "waoowaoo",
			Name:      "tokens_used_total",
			Help:      "Total number of chat tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	pollResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "waoowaoo",
			Name:      "poll_results_total",
			Help:      "Poll outcomes grouped by mapped status",
		},
		[]string{"provider", "status"},
	)
)

// RecordProviderRequest counts one provider API call and observes its latency.
func RecordProviderRequest(provider, operation, status string, duration time.Duration) {
	providerRequestsTotal.WithLabelValues(provider, operation, status).Inc()
	providerRequestDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordTokens accumulates prompt and completion token usage per chat model.
func RecordTokens(provider, model string, promptTokens, completionTokens int) {
	tokensUsedTotal.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	tokensUsedTotal.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
}

// RecordPollResult counts one mapped poll outcome.
func RecordPollResult(provider, status string) {
	pollResultsTotal.WithLabelValues(provider, status).Inc()
}
