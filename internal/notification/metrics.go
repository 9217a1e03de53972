package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// notificationsTotal counts every per-channel outcome of a dispatch.
var notificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "courier",
		Name:      "notifications_total",
		Help:      "Notification channel outcomes by event, channel, recipient type and outcome.",
	},
	[]string{"event", "channel", "recipient", "outcome"},
)
