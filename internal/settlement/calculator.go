// Package settlement derives revenue, cost and P&L metrics for one
// asset-day record. Computation is total and pure: every derived field is a
// function of the record's own inputs, and the same inputs always produce
// the same outputs.
package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/voltedge/powermarket/pkg/models"
)

// Shortfall bought back under a fixed-shape obligation carries a 5% penalty
// on the real-time node price.
var fixedShapePenalty = decimal.NewFromFloat(1.05)

var hundred = decimal.NewFromInt(100)

// UnknownMechanismError reports a real-time record whose mechanism is
// outside the closed set.
type UnknownMechanismError struct {
	Mechanism models.Mechanism
}

func (e *UnknownMechanismError) Error() string {
	return fmt.Sprintf("unknown settlement mechanism %q", e.Mechanism)
}

// Compute fills in the derived fields for one record.
//
// Zero-denominator policy: when budget_generation_mwh is zero the generation
// variance is reported as 0 rather than failing the record; the engine must
// stay total over arbitrary input.
func Compute(in models.RecordInputs) (models.MarketRecord, error) {
	rec := models.MarketRecord{RecordInputs: in}

	switch in.Market.Family() {
	case models.FamilyRealTime:
		if err := computeRealTime(&rec); err != nil {
			return models.MarketRecord{}, err
		}
	case models.FamilyTwoSettlement:
		computeTwoSettlement(&rec)
	}

	rec.TotalCost = in.OperatingCost.Add(in.MarketingCost)
	rec.NetPL = rec.TotalRevenue.Sub(rec.TotalCost)
	rec.GenerationVariancePct = variancePct(in.ActualGenerationMWh, in.BudgetGenerationMWh)

	return rec, nil
}

// computeRealTime settles metered generation against real-time hub and node
// prices, with a mechanism-specific buy-back charge.
func computeRealTime(rec *models.MarketRecord) error {
	actual := rec.ActualGenerationMWh
	contracted := actual.Mul(rec.ContractCoveragePct)

	rec.ContractRevenue = contracted.Mul(rec.ContractPrice)

	// Spread captured between locational and reference pricing: the full
	// output sells at the node while the contracted portion is bought back
	// at the hub.
	rec.BasisRevenue = actual.Mul(rec.NodePrice).Sub(contracted.Mul(rec.HubPrice))

	switch rec.Mechanism {
	case models.MechanismAsGenerated:
		// Settles on metered output directly; no buy-back.

	case models.MechanismFixedShape:
		target := decimal.Zero
		if rec.ShapedTargetMWh.Valid {
			target = rec.ShapedTargetMWh.Decimal
		}
		shortfall := target.Sub(actual)
		if shortfall.IsPositive() {
			rec.ShortfallMWh = shortfall
			rec.FixedShapeCost = shortfall.Mul(rec.NodePrice).Mul(fixedShapePenalty)
		}

	case models.MechanismProxyGeneration:
		proxy := decimal.Zero
		if rec.ProxyGenerationMWh.Valid {
			proxy = rec.ProxyGenerationMWh.Decimal
		}
		// Asymmetric: only charged when the proxy overstates actual output.
		shortfall := proxy.Sub(actual)
		if shortfall.IsPositive() {
			rec.ShortfallMWh = shortfall
			rec.ProxyCost = shortfall.Mul(rec.NodePrice)
		}

	default:
		return &UnknownMechanismError{Mechanism: rec.Mechanism}
	}

	rec.TotalRevenue = rec.ContractRevenue.
		Add(rec.BasisRevenue).
		Sub(rec.FixedShapeCost).
		Sub(rec.ProxyCost)
	return nil
}

// computeTwoSettlement settles a day-ahead schedule with the deviation
// priced at the real-time node.
func computeTwoSettlement(rec *models.MarketRecord) {
	actual := rec.ActualGenerationMWh
	schedule := rec.DayAheadScheduleMWh

	rec.ContractRevenue = actual.Mul(rec.ContractCoveragePct).Mul(rec.ContractPrice)
	rec.DayAheadRevenue = schedule.Mul(rec.DayAheadHubPrice)
	rec.BasisRevenue = schedule.Mul(rec.DayAheadNodePrice.Sub(rec.DayAheadHubPrice))

	rec.ImbalanceMWh = actual.Sub(schedule)
	if rec.ImbalanceMWh.IsNegative() {
		rec.ImbalanceCost = rec.ImbalanceMWh.Abs().Mul(rec.RealtimeNodePrice)
	} else {
		rec.ImbalanceRevenue = rec.ImbalanceMWh.Mul(rec.RealtimeNodePrice)
	}

	rec.TotalRevenue = rec.ContractRevenue.
		Add(rec.DayAheadRevenue).
		Add(rec.BasisRevenue).
		Add(rec.ImbalanceRevenue).
		Sub(rec.ImbalanceCost)
}

func variancePct(actual, budget decimal.Decimal) decimal.Decimal {
	if budget.IsZero() {
		return decimal.Zero
	}
	return actual.Sub(budget).Div(budget).Mul(hundred)
}
