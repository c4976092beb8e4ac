package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for provider call counters
const (
	OutcomeSuccess     = "success"
	OutcomeNotFound    = "not_found"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

var (
	providerCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metadarr_provider_calls_total",
		Help: "Number of metadata provider calls by provider and outcome",
	}, []string{"provider", "outcome"})

	lookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metadarr_lookups_total",
		Help: "Number of resolver lookups by kind and result",
	}, []string{"kind", "result"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metadarr_http_requests_total",
		Help: "Number of HTTP requests by method and status code",
	}, []string{"method", "status"})
)

// RecordProviderCall increments the call counter for a provider. The counter
// is observability only and plays no part in resolution correctness.
func RecordProviderCall(provider, outcome string) {
	providerCalls.WithLabelValues(provider, outcome).Inc()
}

// RecordLookup increments the resolver lookup counter
func RecordLookup(kind, result string) {
	lookups.WithLabelValues(kind, result).Inc()
}

// RecordHTTPRequest increments the HTTP request counter
func RecordHTTPRequest(method string, status int) {
	httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
