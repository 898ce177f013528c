package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		invoicesAllocatedTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment lifecycle events by resulting status (pending/paid/overdue/cancelled).",
		},
		[]string{"status"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "The total monetary value of paid payments in whole units, labeled by currency.",
		},
		[]string{"currency"},
	)

	invoicesAllocatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "invoices_allocated_total",
			Help: "Invoice numbers handed out by the counter allocator.",
		},
	)
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func AddPaymentRevenue(currency string, amount int64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}

func IncInvoiceAllocated() { invoicesAllocatedTotal.Inc() }
