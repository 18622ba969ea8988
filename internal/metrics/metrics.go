// Package metrics holds the Prometheus instruments for verge.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "verge"

// Registry is verge's own registry so the default Go collectors stay out
// of CLI runs.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// ProfileRuns counts profiling runs by outcome (ok, not_found,
	// excluded, no_history, bad_metrics, error).
	ProfileRuns = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_runs_total",
		Help:      "Profiling runs by outcome.",
	}, []string{"outcome"})

	// ProfileDuration covers acquisition plus computation.
	ProfileDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "profile_duration_seconds",
		Help:      "Wall time of a full profiling run.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
	})

	ProviderRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_requests_total",
		Help:      "Requests to the data provider by endpoint and result.",
	}, []string{"endpoint", "result"})

	CacheLookups = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Snapshot cache lookups by kind and result.",
	}, []string{"kind", "result"})

	OpponentsSkipped = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "opponents_skipped_total",
		Help:      "Opponents left out of style aggregation by reason.",
	}, []string{"reason"})

	HTTPRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP API requests by route and status code.",
	}, []string{"route", "code"})
)

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
