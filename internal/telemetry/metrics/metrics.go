// Package metrics registers the Prometheus metrics exposed on /metrics.
//
// HTTP metrics are labelled with the gin route template (c.FullPath()), never the raw URL,
// so user-supplied path segments cannot inflate label cardinality.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmgate_http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "farmgate_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// ProfilesResolvedTotal counts profiles published by the profile store, by verdict and mode.
	ProfilesResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmgate_profiles_resolved_total",
			Help: "Navigation profiles resolved, by verdict and mode.",
		},
		[]string{"verdict", "mode"},
	)

	// GuardDecisionsTotal counts route guard decisions; outcome is "allow" or "redirect".
	GuardDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmgate_guard_decisions_total",
			Help: "Route guard decisions, by verdict and outcome.",
		},
		[]string{"verdict", "outcome"},
	)

	// StaleResultsDroppedTotal counts fetch results discarded because a newer request had completed.
	StaleResultsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmgate_stale_results_dropped_total",
			Help: "Session or membership fetch results dropped by last-write-wins ordering.",
		},
		[]string{"source"},
	)

	ProfileSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "farmgate_profile_stream_subscribers",
		Help: "Open navigation profile streams.",
	})

	MembershipActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmgate_membership_actions_total",
			Help: "Membership administration actions, by action and result.",
		},
		[]string{"action", "result"},
	)
)
