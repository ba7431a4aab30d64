// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration observes handler latency by route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imagetosong_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// ProfilesCalculated counts completed quiz aggregations.
	ProfilesCalculated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "imagetosong_profiles_calculated_total",
			Help: "Quiz profiles calculated",
		},
	)

	// Recommendations counts recommendation responses by mode (personalized, anonymous, fallback).
	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagetosong_recommendations_total",
			Help: "Recommendation responses by mode",
		},
		[]string{"mode"},
	)

	// CatalogQueries counts catalog queries by bucket and outcome.
	CatalogQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagetosong_catalog_queries_total",
			Help: "Catalog search queries by provenance bucket (or search) and outcome",
		},
		[]string{"bucket", "outcome"},
	)

	// Captions counts image analyses by method (model, color, cache, neutral).
	Captions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagetosong_captions_total",
			Help: "Image analyses by method",
		},
		[]string{"method"},
	)

	// RelevanceScores is the distribution of ranked recommendation scores.
	RelevanceScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "imagetosong_relevance_score",
			Help:    "Relevance scores of returned recommendations",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	// BreakerState reports circuit breaker state per collaborator (0 closed, 1 half-open, 2 open).
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "imagetosong_circuit_breaker_state",
			Help: "Circuit breaker state by collaborator",
		},
		[]string{"name"},
	)
)
