// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics registers the Prometheus collectors exposed on /metrics.
//
// Collectors are package-level and registered once with the default
// registry, so any number of routers can share them.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "choseby_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route pattern and status.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	aggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "choseby_aggregation_duration_seconds",
			Help:    "Time spent computing decision results.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		},
		[]string{"source"},
	)

	evaluationsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "choseby_evaluations_submitted_total",
			Help: "Evaluations submitted, split into first submissions and updates.",
		},
		[]string{"kind"},
	)

	scoresStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "choseby_scores_stored_total",
			Help: "Individual option/criterion scores written.",
		},
	)

	conflictsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "choseby_option_conflicts_total",
			Help: "Options classified at each conflict level when results are computed.",
		},
		[]string{"level"},
	)

	decisionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "choseby_decision_transitions_total",
			Help: "Decision lifecycle transitions.",
		},
		[]string{"status"},
	)
)

// Aggregation sources
const (
	SourceLive     = "live"
	SourceSnapshot = "snapshot"
)

// ObserveRequest records one served HTTP request.
func ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// ObserveAggregation records how long one aggregation took and the conflict
// level of every option it produced.
func ObserveAggregation(source string, d time.Duration, optionConflicts []string) {
	aggregationDuration.WithLabelValues(source).Observe(d.Seconds())
	for _, level := range optionConflicts {
		conflictsDetected.WithLabelValues(level).Inc()
	}
}

// EvaluationSubmitted counts a stored submission and its cells.
func EvaluationSubmitted(updated bool, cells int) {
	kind := "new"
	if updated {
		kind = "update"
	}
	evaluationsSubmitted.WithLabelValues(kind).Inc()
	scoresStored.Add(float64(cells))
}

// DecisionTransitioned counts a decision entering status.
func DecisionTransitioned(status string) {
	decisionTransitions.WithLabelValues(status).Inc()
}
