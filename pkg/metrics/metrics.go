package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RowsProcessed counts rows that made it through settlement computation.
var RowsProcessed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "powermarket_rows_processed_total",
		Help: "Total number of input rows successfully computed",
	},
	[]string{"market"},
)

// RowsRejected counts rows rejected during normalization, by error kind.
var RowsRejected = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "powermarket_rows_rejected_total",
		Help: "Total number of input rows rejected during normalization",
	},
	[]string{"kind"},
)

// AlertsEmitted counts risk alerts by severity.
var AlertsEmitted = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "powermarket_alerts_emitted_total",
		Help: "Total number of risk alerts emitted by the rule engine",
	},
	[]string{"severity"},
)

// BatchDuration records wall time spent computing a full batch.
var BatchDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "powermarket_batch_duration_seconds",
		Help:    "Wall time in seconds to run a full batch through the engine",
		Buckets: prometheus.DefBuckets,
	},
)

func init() {
	prometheus.MustRegister(RowsProcessed, RowsRejected, AlertsEmitted)
	prometheus.MustRegister(BatchDuration)
}
