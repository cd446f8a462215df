package delivery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	processed *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		processed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notifier",
			Subsystem: "delivery",
			Name:      "processed_total",
			Help:      "Notifications that reached a terminal status",
		}, []string{"type", "status"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notifier",
			Subsystem: "delivery",
			Name:      "failures_total",
			Help:      "Delivery failures by error type",
		}, []string{"kind"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "notifier",
			Subsystem: "delivery",
			Name:      "process_duration_seconds",
			Help:      "Time spent in Process per notification",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
	}
}
