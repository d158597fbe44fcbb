package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloodlink_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// EmergencyPosts counts created emergency posts by poster role.
	EmergencyPosts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloodlink_emergency_posts_total",
			Help: "Total number of emergency posts created",
		},
		[]string{"role"},
	)

	// AvailabilityChecks counts inventory matcher runs and their outcome (match|none|error).
	AvailabilityChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloodlink_availability_checks_total",
			Help: "Total number of pre-post inventory availability checks",
		},
		[]string{"result"},
	)

	// Participations counts recorded volunteer participations.
	Participations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bloodlink_participations_total",
			Help: "Total number of volunteer participations recorded",
		},
	)

	// ActiveSessions tracks active refresh sessions (not expired/revoked).
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bloodlink_active_sessions",
			Help: "Number of active sessions",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bloodlink_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
