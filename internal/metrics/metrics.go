// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placematch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "placematch_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placematch_upstream_requests_total",
			Help: "Outbound requests to third-party services by outcome",
		},
		[]string{"service", "outcome"},
	)

	EnrichmentResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placematch_enrichment_results_total",
			Help: "Best-effort enrichment lookups by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	MatchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placematch_match_attempts_total",
			Help: "Completion attempts by matcher state and result",
		},
		[]string{"state", "outcome"},
	)
)
