package retention

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	remindersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_retention_reminders_total",
		Help: "Retention reminders handed to the email transport, by days remaining.",
	}, []string{"days_remaining"})

	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "courier_retention_scan_duration_seconds",
		Help:    "Wall time of one retention scan.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})
)
