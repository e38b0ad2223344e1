package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Claim saga metrics, exposed on /metrics.
var (
	// claimOutcomes counts finished claim attempts.
	// Labels: outcome (success, conflict, isolation_violation, verification_failed, ...)
	claimOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qwikker",
		Subsystem: "claims",
		Name:      "outcomes_total",
		Help:      "Finished claim attempts by outcome",
	}, []string{"outcome"})

	// claimDuration measures the full saga, compensation included.
	claimDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "qwikker",
		Subsystem: "claims",
		Name:      "duration_seconds",
		Help:      "Claim saga latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 45},
	}, []string{"outcome"})

	// compensationSteps counts rollback steps.
	// Labels: step (delete_identity, revert_lock), result (ok, failed)
	compensationSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qwikker",
		Subsystem: "claims",
		Name:      "compensation_steps_total",
		Help:      "Claim rollback steps by result",
	}, []string{"step", "result"})

	// notificationFailures counts best-effort notifications that failed.
	// Labels: channel (email, sms)
	notificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qwikker",
		Subsystem: "claims",
		Name:      "notification_failures_total",
		Help:      "Failed claim notifications by channel",
	}, []string{"channel"})
)
