// Package normalizer validates and coerces raw tabular rows into typed
// record inputs. It is a pure transform: one row in, one RecordInputs or one
// RowError out, and a bad row never aborts the batch.
package normalizer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/voltedge/powermarket/pkg/models"
)

// ErrorKind classifies why a row was rejected.
type ErrorKind string

const (
	KindMissingRequiredField ErrorKind = "missing_required_field"
	KindUnknownMarket        ErrorKind = "unknown_market"
	KindUnknownMechanism     ErrorKind = "unknown_mechanism"
	KindInvalidNumber        ErrorKind = "invalid_number"
	KindInvalidValue         ErrorKind = "invalid_value"
)

// RowError describes a single rejected row.
type RowError struct {
	Kind   ErrorKind
	Field  string
	Reason string
}

func (e *RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: field %q: %s", e.Kind, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Fields the settlement calculator cannot work without.
var requiredFields = []string{
	"date",
	"asset_id",
	"market",
	"actual_generation_mwh",
	"budget_generation_mwh",
}

// numericFields are the columns the engine consumes as numbers. Anything
// else in the row passes through as text.
var numericFields = map[string]bool{
	"capacity_mw":            true,
	"contract_coverage_pct":  true,
	"contract_price":         true,
	"actual_generation_mwh":  true,
	"budget_generation_mwh":  true,
	"hub_price":              true,
	"node_price":             true,
	"operating_cost":         true,
	"marketing_cost":         true,
	"shaped_target_mwh":      true,
	"proxy_generation_mwh":   true,
	"day_ahead_schedule_mwh": true,
	"day_ahead_hub_price":    true,
	"day_ahead_node_price":   true,
	"realtime_node_price":    true,
}

var textFields = map[string]bool{
	"date":          true,
	"asset_id":      true,
	"market":        true,
	"mechanism":     true,
	"weather_event": true,
}

// Normalize coerces one raw row into typed record inputs.
//
// Numeric columns must parse as decimals when present; empty numeric columns
// default to zero except the optional per-mechanism fields, which stay
// absent. Missing required fields, unknown market or mechanism tags, and
// malformed numbers reject the row with a *RowError.
func Normalize(row map[string]string) (models.RecordInputs, error) {
	var in models.RecordInputs

	for _, field := range requiredFields {
		if strings.TrimSpace(row[field]) == "" {
			return in, &RowError{Kind: KindMissingRequiredField, Field: field, Reason: "required field is missing or empty"}
		}
	}

	market, err := models.ParseMarket(strings.TrimSpace(row["market"]))
	if err != nil {
		return in, &RowError{Kind: KindUnknownMarket, Field: "market", Reason: err.Error()}
	}
	in.Market = market

	in.Date = strings.TrimSpace(row["date"])
	in.AssetID = strings.TrimSpace(row["asset_id"])

	nums := make(map[string]decimal.Decimal, len(numericFields))
	present := make(map[string]bool, len(numericFields))
	for field := range numericFields {
		raw := strings.TrimSpace(row[field])
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return in, &RowError{Kind: KindInvalidNumber, Field: field, Reason: fmt.Sprintf("cannot parse %q as a number", raw)}
		}
		nums[field] = d
		present[field] = true
	}

	in.CapacityMW = nums["capacity_mw"]
	in.ContractCoveragePct = nums["contract_coverage_pct"]
	in.ContractPrice = nums["contract_price"]
	in.ActualGenerationMWh = nums["actual_generation_mwh"]
	in.BudgetGenerationMWh = nums["budget_generation_mwh"]
	in.HubPrice = nums["hub_price"]
	in.NodePrice = nums["node_price"]
	in.OperatingCost = nums["operating_cost"]
	in.MarketingCost = nums["marketing_cost"]
	in.DayAheadScheduleMWh = nums["day_ahead_schedule_mwh"]
	in.DayAheadHubPrice = nums["day_ahead_hub_price"]
	in.DayAheadNodePrice = nums["day_ahead_node_price"]
	in.RealtimeNodePrice = nums["realtime_node_price"]

	if present["shaped_target_mwh"] {
		in.ShapedTargetMWh = decimal.NewNullDecimal(nums["shaped_target_mwh"])
	}
	if present["proxy_generation_mwh"] {
		in.ProxyGenerationMWh = decimal.NewNullDecimal(nums["proxy_generation_mwh"])
	}

	if err := validateRanges(&in); err != nil {
		return in, err
	}

	// Mechanism only matters for real-time settled markets; a missing tag
	// defaults to plain as-generated settlement.
	if market.Family() == models.FamilyRealTime {
		rawMech := strings.TrimSpace(row["mechanism"])
		if rawMech == "" {
			in.Mechanism = models.MechanismAsGenerated
		} else {
			mech, err := models.ParseMechanism(rawMech)
			if err != nil {
				return in, &RowError{Kind: KindUnknownMechanism, Field: "mechanism", Reason: err.Error()}
			}
			in.Mechanism = mech
		}
	}

	in.WeatherEvent = strings.TrimSpace(row["weather_event"])
	if in.WeatherEvent == "" || strings.EqualFold(in.WeatherEvent, models.WeatherNormal) {
		in.WeatherEvent = models.WeatherNormal
	}

	for field, value := range row {
		if numericFields[field] || textFields[field] {
			continue
		}
		if in.Extra == nil {
			in.Extra = make(map[string]string)
		}
		in.Extra[field] = value
	}

	return in, nil
}

func validateRanges(in *models.RecordInputs) error {
	if in.ActualGenerationMWh.IsNegative() {
		return &RowError{Kind: KindInvalidValue, Field: "actual_generation_mwh", Reason: "generation cannot be negative"}
	}
	if in.BudgetGenerationMWh.IsNegative() {
		return &RowError{Kind: KindInvalidValue, Field: "budget_generation_mwh", Reason: "generation cannot be negative"}
	}
	if in.OperatingCost.IsNegative() || in.MarketingCost.IsNegative() {
		return &RowError{Kind: KindInvalidValue, Field: "operating_cost", Reason: "costs cannot be negative"}
	}
	one := decimal.NewFromInt(1)
	if in.ContractCoveragePct.IsNegative() || in.ContractCoveragePct.GreaterThan(one) {
		return &RowError{Kind: KindInvalidValue, Field: "contract_coverage_pct", Reason: "coverage must be between 0 and 1"}
	}
	return nil
}
