package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		PaymentVerifyRequests,
		PaymentVerifyDuration,
		PaymentEffectsTotal,
	)
}

var (
	// Count of verify calls grouped by result and bounded reason.
	// result: ok|fail
	// reason (fail only): bad_json|not_found|already_completed|forbidden|signature|internal
	PaymentVerifyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verify_requests_total",
			Help: "Count of /api/payments/verify calls by result and reason.",
		},
		[]string{"result", "reason"},
	)

	PaymentVerifyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_verify_duration_seconds",
			Help:    "Duration of /api/payments/verify handler in seconds.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"result"},
	)

	// result: applied|skipped|failed|reconciled
	PaymentEffectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_effects_total",
			Help: "Success-effect applications for paid payments by result.",
		},
		[]string{"result"},
	)
)

func IncEffects(result string) {
	PaymentEffectsTotal.WithLabelValues(norm(result)).Inc()
}
