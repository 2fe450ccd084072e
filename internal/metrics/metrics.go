package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PaymentInitiationsTotal counts initiation attempts by result
	PaymentInitiationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenantpay_payment_initiations_total",
			Help: "Payment initiation attempts by result",
		},
		[]string{"result"},
	)

	// PollAttemptsTotal counts individual status queries
	PollAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tenantpay_poll_attempts_total",
			Help: "Status poll queries issued",
		},
	)

	// PollTransientErrorsTotal counts status queries that failed transiently
	PollTransientErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tenantpay_poll_transient_errors_total",
			Help: "Status poll queries that failed and were absorbed into the attempt budget",
		},
	)

	// PollOutcomesTotal counts terminal poll outcomes
	PollOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenantpay_poll_outcomes_total",
			Help: "Terminal poll outcomes by kind",
		},
		[]string{"outcome"},
	)

	// FeeAmount observes the gateway fee charged per initiated payment
	FeeAmount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tenantpay_fee_amount_rupees",
			Help:    "Gateway fee per initiated payment in rupees",
			Buckets: []float64{10, 50, 100, 200, 500, 1000},
		},
	)
)

// Initiation result labels
const (
	ResultOK                  = "ok"
	ResultAuthRequired        = "auth_required"
	ResultDuplicate           = "duplicate"
	ResultFailed              = "failed"
	ResultRedirectUnavailable = "redirect_unavailable"
)

// Poll outcome labels
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeTimeout   = "timeout"
	OutcomeCancelled = "cancelled"
)
