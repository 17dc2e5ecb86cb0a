// Package pipeline runs a batch of raw rows through the engine:
// normalize, compute, then the two independent reductions (aggregation and
// risk evaluation). Row-level failures are collected alongside the computed
// records; one bad row never aborts the batch, and nothing is retried
// because the computation is deterministic.
package pipeline

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voltedge/powermarket/internal/aggregator"
	"github.com/voltedge/powermarket/internal/normalizer"
	"github.com/voltedge/powermarket/internal/riskengine"
	"github.com/voltedge/powermarket/internal/settlement"
	"github.com/voltedge/powermarket/pkg/metrics"
	"github.com/voltedge/powermarket/pkg/models"
)

// RowFailure pairs a rejected row's position in the batch with the reason.
type RowFailure struct {
	Row int   `json:"row"`
	Err error `json:"-"`

	Reason string `json:"reason"`
}

// Result is the partial-success outcome of a batch run.
type Result struct {
	Records  []models.MarketRecord
	Failures []RowFailure
}

// Engine wires the stages together.
type Engine struct {
	risk    *riskengine.Engine
	logger  *zap.Logger
	workers int
}

// New creates a pipeline engine. workers bounds the parallel fan-out; values
// below 1 mean serial execution.
func New(risk *riskengine.Engine, logger *zap.Logger, workers int) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers < 1 {
		workers = 1
	}
	return &Engine{risk: risk, logger: logger, workers: workers}
}

// Run normalizes and computes every row, collecting per-row failures.
// Output record order follows input row order regardless of worker count,
// so downstream reductions are deterministic.
func (e *Engine) Run(rows []map[string]string) Result {
	start := time.Now()
	defer func() {
		metrics.BatchDuration.Observe(time.Since(start).Seconds())
	}()

	type slot struct {
		rec models.MarketRecord
		err error
	}
	slots := make([]slot, len(rows))

	var wg sync.WaitGroup
	chunk := (len(rows) + e.workers - 1) / e.workers
	for w := 0; w < e.workers && w*chunk < len(rows); w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(rows) {
			hi = len(rows)
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				slots[i].rec, slots[i].err = computeRow(rows[i])
			}
		}(lo, hi)
	}
	wg.Wait()

	result := Result{Records: make([]models.MarketRecord, 0, len(rows))}
	for i := range slots {
		if err := slots[i].err; err != nil {
			result.Failures = append(result.Failures, RowFailure{Row: i, Err: err, Reason: err.Error()})
			metrics.RowsRejected.WithLabelValues(failureKind(err)).Inc()
			e.logger.Warn("row rejected", zap.Int("row", i), zap.Error(err))
			continue
		}
		metrics.RowsProcessed.WithLabelValues(string(slots[i].rec.Market)).Inc()
		result.Records = append(result.Records, slots[i].rec)
	}

	e.logger.Info("batch computed",
		zap.Int("rows", len(rows)),
		zap.Int("records", len(result.Records)),
		zap.Int("rejected", len(result.Failures)))
	return result
}

func computeRow(row map[string]string) (models.MarketRecord, error) {
	in, err := normalizer.Normalize(row)
	if err != nil {
		return models.MarketRecord{}, err
	}
	return settlement.Compute(in)
}

func failureKind(err error) string {
	if rowErr, ok := err.(*normalizer.RowError); ok {
		return string(rowErr.Kind)
	}
	return "compute"
}

// Alerts evaluates the risk rule set over the computed records. Evaluation
// partitions across the configured workers; per-record alert lists are
// concatenated in record order and sorted once globally, which matches the
// serial result exactly.
func (e *Engine) Alerts(records []models.MarketRecord) []models.Alert {
	if e.workers == 1 || len(records) < 2 {
		alerts := e.risk.Evaluate(records)
		countAlerts(alerts)
		return alerts
	}

	parts := make([][]models.Alert, e.workers)
	var wg sync.WaitGroup
	chunk := (len(records) + e.workers - 1) / e.workers
	for w := 0; w < e.workers && w*chunk < len(records); w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(records) {
			hi = len(records)
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				parts[w] = append(parts[w], e.risk.EvaluateRecord(&records[i])...)
			}
		}(w, lo, hi)
	}
	wg.Wait()

	var alerts []models.Alert
	for _, p := range parts {
		alerts = append(alerts, p...)
	}
	riskengine.SortBySeverity(alerts)
	countAlerts(alerts)
	return alerts
}

func countAlerts(alerts []models.Alert) {
	for i := range alerts {
		metrics.AlertsEmitted.WithLabelValues(alerts[i].Severity.String()).Inc()
	}
}

// Aggregates computes the three standard dimension groupings independently.
// With multiple workers each dimension folds record partitions separately
// and merges the partial buckets; the additive merge makes the result
// identical to a serial fold.
func (e *Engine) Aggregates(records []models.MarketRecord) map[aggregator.Dimension]map[string]*models.AggregateBucket {
	dims := []aggregator.Dimension{aggregator.DimensionMarket, aggregator.DimensionAsset, aggregator.DimensionDate}
	out := make(map[aggregator.Dimension]map[string]*models.AggregateBucket, len(dims))
	for _, dim := range dims {
		out[dim] = e.aggregateDim(records, dim)
	}
	return out
}

func (e *Engine) aggregateDim(records []models.MarketRecord, dim aggregator.Dimension) map[string]*models.AggregateBucket {
	if e.workers == 1 || len(records) < 2 {
		return aggregator.Aggregate(records, dim)
	}

	parts := make([]map[string]*models.AggregateBucket, e.workers)
	var wg sync.WaitGroup
	chunk := (len(records) + e.workers - 1) / e.workers
	for w := 0; w < e.workers && w*chunk < len(records); w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(records) {
			hi = len(records)
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			parts[w] = aggregator.Fold(records[lo:hi], dim)
		}(w, lo, hi)
	}
	wg.Wait()

	merged := make(map[string]*models.AggregateBucket)
	for _, p := range parts {
		if p != nil {
			aggregator.Merge(merged, p)
		}
	}
	aggregator.Finalize(merged)
	return merged
}
