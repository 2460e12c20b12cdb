// Package metrics exposes Prometheus metrics for search, hydration and the HTTP API.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Hit outcomes counted by HydrateHitsTotal.
const (
	OutcomeHydrated = "hydrated"
	OutcomeMissing  = "missing"
)

var (
	// HydrateFetchesTotal counts record store batch fetches made during hydration.
	HydrateFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hydra",
			Name:      "hydrate_fetches_total",
			Help:      "Total number of record store batch fetches",
		},
		[]string{"collection", "status"},
	)

	// HydrateFetchSize observes the number of unique ids per batch fetch.
	HydrateFetchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hydra",
			Name:      "hydrate_fetch_ids",
			Help:      "Unique record ids per batch fetch",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250},
		},
		[]string{"collection"},
	)

	// HydrateHitsTotal counts search hits by hydration outcome.
	HydrateHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hydra",
			Name:      "hydrate_hits_total",
			Help:      "Search hits by hydration outcome",
		},
		[]string{"collection", "outcome"}, // "hydrated" / "missing"
	)

	// SearchDuration observes end-to-end search latency.
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hydra",
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds, including hydration",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"collection", "hydrate"},
	)
)

func init() {
	prometheus.MustRegister(HydrateFetchesTotal)
	prometheus.MustRegister(HydrateFetchSize)
	prometheus.MustRegister(HydrateHitsTotal)
	prometheus.MustRegister(SearchDuration)
}
