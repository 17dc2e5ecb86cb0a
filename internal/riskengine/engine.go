// Package riskengine evaluates a fixed, ordered set of threshold rules
// against computed records and emits severity-ranked alerts.
package riskengine

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/voltedge/powermarket/pkg/models"
)

// Thresholds are the tunable rule limits. Values mirror the desk's standing
// alert configuration.
type Thresholds struct {
	// BasisCompression is the real-time node-hub spread, $/MWh, below which
	// a real-time market record is flagged.
	BasisCompression decimal.Decimal
	// ImbalanceCostRatio flags imbalance cost exceeding this share of
	// day-ahead revenue.
	ImbalanceCostRatio decimal.Decimal
	// DayAheadBasisCompression is the day-ahead node-hub spread floor, $/MWh.
	DayAheadBasisCompression decimal.Decimal
	// BudgetMissPct flags generation variance below this percentage.
	BudgetMissPct decimal.Decimal
}

// DefaultThresholds returns the standing rule limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BasisCompression:         decimal.NewFromFloat(2.0),
		ImbalanceCostRatio:       decimal.NewFromFloat(0.10),
		DayAheadBasisCompression: decimal.NewFromFloat(2.5),
		BudgetMissPct:            decimal.NewFromInt(-5),
	}
}

// Rule is one independently evaluable check. check returns the metric value
// and message when the rule fires. Rules must be total: a rule that cannot
// be evaluated for a record (for example a zero denominator) declines to
// fire rather than failing the batch.
type Rule struct {
	Name     string
	Severity models.Severity
	check    func(rec *models.MarketRecord, t Thresholds) (decimal.Decimal, string, bool)
}

// Engine holds the ordered rule set. Evaluation order is fixed so that equal
// severities keep a deterministic relative order in the output.
type Engine struct {
	rules      []Rule
	thresholds Thresholds
	logger     *zap.Logger
}

// NewEngine creates an engine with the standard rule set.
func NewEngine(thresholds Thresholds, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		rules:      defaultRules(),
		thresholds: thresholds,
		logger:     logger,
	}
}

// Evaluate runs every rule against every record and returns the alerts
// sorted by severity, most severe first. The sort is stable: equal
// severities keep rule-evaluation order within a record and record order
// across the batch.
func (e *Engine) Evaluate(records []models.MarketRecord) []models.Alert {
	alerts := make([]models.Alert, 0)
	for i := range records {
		alerts = append(alerts, e.EvaluateRecord(&records[i])...)
	}
	SortBySeverity(alerts)
	e.logger.Debug("risk evaluation complete",
		zap.Int("records", len(records)),
		zap.Int("alerts", len(alerts)))
	return alerts
}

// EvaluateRecord runs the rule set against a single record in rule order.
// The returned alerts are unsorted; callers folding partitions concatenate
// per-record results and apply the single global sort afterwards.
func (e *Engine) EvaluateRecord(rec *models.MarketRecord) []models.Alert {
	var alerts []models.Alert
	for _, rule := range e.rules {
		metric, message, fired := rule.check(rec, e.thresholds)
		if !fired {
			continue
		}
		alerts = append(alerts, models.Alert{
			ID:          uuid.New(),
			Severity:    rule.Severity,
			AssetID:     rec.AssetID,
			Date:        rec.Date,
			Market:      rec.Market,
			Rule:        rule.Name,
			MetricValue: metric,
			Message:     message,
		})
	}
	return alerts
}

// SortBySeverity orders alerts most severe first, preserving emission order
// for equal severities.
func SortBySeverity(alerts []models.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Severity < alerts[j].Severity
	})
}

func defaultRules() []Rule {
	return []Rule{
		{
			Name:     "Negative P&L",
			Severity: models.SeverityCritical,
			check: func(rec *models.MarketRecord, _ Thresholds) (decimal.Decimal, string, bool) {
				if !rec.NetPL.IsNegative() {
					return decimal.Zero, "", false
				}
				return rec.NetPL, fmt.Sprintf("Loss of $%s", rec.NetPL.Abs().Round(0)), true
			},
		},
		{
			Name:     "Basis Compression",
			Severity: models.SeverityHigh,
			check: func(rec *models.MarketRecord, t Thresholds) (decimal.Decimal, string, bool) {
				if rec.Market.Family() != models.FamilyRealTime {
					return decimal.Zero, "", false
				}
				spread := rec.NodePrice.Sub(rec.HubPrice)
				if spread.GreaterThanOrEqual(t.BasisCompression) {
					return decimal.Zero, "", false
				}
				return spread, fmt.Sprintf("RT basis only $%s/MWh", spread.StringFixed(2)), true
			},
		},
		{
			Name:     "High Imbalance Cost",
			Severity: models.SeverityHigh,
			check: func(rec *models.MarketRecord, t Thresholds) (decimal.Decimal, string, bool) {
				if !rec.ImbalanceCost.IsPositive() {
					return decimal.Zero, "", false
				}
				// Zero or negative day-ahead revenue makes the ratio
				// meaningless; skip rather than divide.
				if !rec.DayAheadRevenue.IsPositive() {
					return decimal.Zero, "", false
				}
				ratio := rec.ImbalanceCost.Div(rec.DayAheadRevenue)
				if ratio.LessThanOrEqual(t.ImbalanceCostRatio) {
					return decimal.Zero, "", false
				}
				pct := ratio.Mul(decimal.NewFromInt(100))
				return rec.ImbalanceCost, fmt.Sprintf("%s%% of DA revenue", pct.StringFixed(1)), true
			},
		},
		{
			Name:     "DA Basis Compression",
			Severity: models.SeverityMedium,
			check: func(rec *models.MarketRecord, t Thresholds) (decimal.Decimal, string, bool) {
				if rec.Market.Family() != models.FamilyTwoSettlement {
					return decimal.Zero, "", false
				}
				basis := rec.DayAheadNodePrice.Sub(rec.DayAheadHubPrice)
				if basis.GreaterThanOrEqual(t.DayAheadBasisCompression) {
					return decimal.Zero, "", false
				}
				return basis, fmt.Sprintf("DA basis only $%s/MWh", basis.StringFixed(2)), true
			},
		},
		{
			Name:     "Budget Miss",
			Severity: models.SeverityMedium,
			check: func(rec *models.MarketRecord, t Thresholds) (decimal.Decimal, string, bool) {
				if rec.GenerationVariancePct.GreaterThanOrEqual(t.BudgetMissPct) {
					return decimal.Zero, "", false
				}
				return rec.GenerationVariancePct,
					fmt.Sprintf("%s%% below budget", rec.GenerationVariancePct.Abs().StringFixed(1)), true
			},
		},
		{
			Name:     "Fixed-Shape Buy-Back",
			Severity: models.SeverityHigh,
			check: func(rec *models.MarketRecord, _ Thresholds) (decimal.Decimal, string, bool) {
				if !rec.FixedShapeCost.IsPositive() {
					return decimal.Zero, "", false
				}
				return rec.FixedShapeCost,
					fmt.Sprintf("Fixed-shape buy-back cost $%s", rec.FixedShapeCost.Round(0)), true
			},
		},
		{
			Name:     "Proxy Variance Cost",
			Severity: models.SeverityMedium,
			check: func(rec *models.MarketRecord, _ Thresholds) (decimal.Decimal, string, bool) {
				if !rec.ProxyCost.IsPositive() {
					return decimal.Zero, "", false
				}
				return rec.ProxyCost, fmt.Sprintf("Proxy buy-back cost $%s", rec.ProxyCost.Round(0)), true
			},
		},
		{
			Name:     "Weather Event",
			Severity: models.SeverityMedium,
			check: func(rec *models.MarketRecord, _ Thresholds) (decimal.Decimal, string, bool) {
				if rec.WeatherEvent == "" || rec.WeatherEvent == models.WeatherNormal {
					return decimal.Zero, "", false
				}
				return decimal.Zero, rec.WeatherEvent, true
			},
		},
	}
}
