// Package metrics declares the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CheckIns counts check-in decisions by outcome (admitted, expired, not_found).
	CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gym_checkins_total",
		Help: "Check-in decisions by outcome.",
	}, []string{"result"})

	Renewals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gym_renewals_total",
		Help: "Completed membership renewals.",
	})

	// RenewalConflicts counts compare-and-swap retries lost to a concurrent renewal or edit.
	RenewalConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gym_renewal_conflicts_total",
		Help: "Renewal attempts that lost a concurrent update race.",
	})

	PaymentAmount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gym_payment_amount_total",
		Help: "Sum of renewal payment amounts recorded, in currency units.",
	})

	AttendanceLogged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gym_attendance_logged_total",
		Help: "Attendance log entries written.",
	})

	// AttendanceFailures counts best-effort attendance writes that were dropped, by stage.
	AttendanceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gym_attendance_failures_total",
		Help: "Attendance log writes that failed, by stage (publish, record).",
	}, []string{"stage"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gym_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
