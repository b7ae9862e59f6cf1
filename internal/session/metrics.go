package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voxdash",
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session state transitions by target state.",
		},
		[]string{"to"},
	)

	providerEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voxdash",
			Subsystem: "session",
			Name:      "provider_events_total",
			Help:      "Provider events received by the controller.",
		},
		[]string{"event"},
	)

	updatesDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "voxdash",
			Subsystem: "session",
			Name:      "updates_dropped_total",
			Help:      "Snapshots not delivered because the update channel was full.",
		},
	)
)
