package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var snapshotWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "voxdash",
		Subsystem: "store",
		Name:      "snapshot_writes_total",
		Help:      "Collection snapshot writes by collection and outcome.",
	},
	[]string{"collection", "result"},
)
