package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(notificationsTotal, workerTasksTotal) }

var (
	// audience: admin|member|telegram
	// status: sent|error|dropped
	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Payment notifications by audience and delivery status.",
		},
		[]string{"audience", "status"},
	)

	workerTasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_tasks_total",
			Help: "Background tasks run by the worker pool, labeled by status.",
		},
		[]string{"status"}, // 'completed', 'failed', 'rejected'
	)
)

func IncNotification(audience, status string) {
	notificationsTotal.WithLabelValues(norm(audience), norm(status)).Inc()
}

func IncWorkerTask(status string) {
	workerTasksTotal.WithLabelValues(norm(status)).Inc()
}
