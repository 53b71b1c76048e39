package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Account lifecycle
	RegistrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_registrations_total",
		Help: "Total number of successful user registrations.",
	})
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_login_attempts_total",
		Help: "Total number of login attempts (successful and failed).",
	}, []string{"status"}) // status: "success" or "failed"

	// OTP engine
	OTPIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_otp_issued_total",
		Help: "Total number of OTPs stored, by purpose.",
	}, []string{"purpose"})
	OTPVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_otp_verifications_total",
		Help: "Total number of OTP verification attempts, by purpose and result.",
	}, []string{"purpose", "result"}) // result: "success" or "failed"

	// Token issuer
	TokenRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_token_refresh_total",
		Help: "Total number of access-token refresh attempts, by result.",
	}, []string{"result"})

	// Best-effort OTP delivery
	NotificationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_notification_failures_total",
		Help: "Total number of OTP deliveries that failed, by channel.",
	}, []string{"channel"}) // channel: "sms" or "email"

	TodosCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_todos_created_total",
		Help: "Total number of todos created.",
	})
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
