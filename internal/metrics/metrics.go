// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcer_searches_total",
			Help: "Total number of sourcing searches by outcome",
		},
		[]string{"outcome"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sourcer_search_duration_seconds",
			Help:    "Duration of sourcing searches in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		},
		[]string{"outcome"},
	)

	ProviderPages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcer_provider_pages_total",
			Help: "Total number of provider pages fetched per destination",
		},
		[]string{"destination"},
	)

	DestinationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcer_destination_failures_total",
			Help: "Total number of destination searches that failed",
		},
		[]string{"destination", "stage"},
	)

	OracleFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcer_oracle_fallbacks_total",
			Help: "Total number of generated queries replaced by the rule-based query",
		},
		[]string{"destination", "reason"},
	)

	CreditsCharged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sourcer_credits_charged_total",
			Help: "Total number of credit units charged",
		},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcer_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)
)
