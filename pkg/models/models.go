// Package models defines the shared data model for the power market
// settlement analytics engine: typed asset-day records, computed settlement
// metrics, aggregate buckets and risk alerts.
package models

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Market identifies the ISO a record settles in.
type Market string

const (
	MarketERCOT Market = "ERCOT"
	MarketPJM   Market = "PJM"
	MarketMISO  Market = "MISO"
)

// SettlementFamily groups markets by how generation is settled.
type SettlementFamily int8

const (
	// FamilyRealTime settles metered generation against real-time hub and
	// node prices (ERCOT).
	FamilyRealTime SettlementFamily = iota
	// FamilyTwoSettlement settles a day-ahead schedule with real-time
	// imbalance pricing (PJM, MISO).
	FamilyTwoSettlement
)

// ParseMarket validates a raw market tag.
func ParseMarket(s string) (Market, error) {
	switch Market(s) {
	case MarketERCOT, MarketPJM, MarketMISO:
		return Market(s), nil
	default:
		return "", fmt.Errorf("unknown market %q", s)
	}
}

// Family returns the settlement family for the market.
func (m Market) Family() SettlementFamily {
	if m == MarketERCOT {
		return FamilyRealTime
	}
	return FamilyTwoSettlement
}

func (f SettlementFamily) String() string {
	if f == FamilyRealTime {
		return "real-time"
	}
	return "two-settlement"
}

// Mechanism is the generation-accounting method for real-time settled
// assets. Two-settlement markets do not carry a mechanism.
type Mechanism string

const (
	MechanismAsGenerated     Mechanism = "as-generated"
	MechanismFixedShape      Mechanism = "fixed-shape"
	MechanismProxyGeneration Mechanism = "proxy-generation"
)

// ParseMechanism validates a raw mechanism tag.
func ParseMechanism(s string) (Mechanism, error) {
	switch Mechanism(s) {
	case MechanismAsGenerated, MechanismFixedShape, MechanismProxyGeneration:
		return Mechanism(s), nil
	default:
		return "", fmt.Errorf("unknown mechanism %q", s)
	}
}

// WeatherNormal is the default weather tag; anything else marks an event day.
const WeatherNormal = "normal"

// RecordInputs holds the validated observed inputs for one asset-day. It is
// the normalizer's output and the settlement calculator's input. Optional
// per-mechanism fields use NullDecimal so "not applicable" is explicit
// rather than signalled by a zero value.
type RecordInputs struct {
	Date    string `json:"date"`
	AssetID string `json:"asset_id"`

	Market              Market          `json:"market"`
	Mechanism           Mechanism       `json:"mechanism,omitempty"`
	CapacityMW          decimal.Decimal `json:"capacity_mw"`
	ContractCoveragePct decimal.Decimal `json:"contract_coverage_pct"`
	ContractPrice       decimal.Decimal `json:"contract_price"`

	ActualGenerationMWh decimal.Decimal `json:"actual_generation_mwh"`
	BudgetGenerationMWh decimal.Decimal `json:"budget_generation_mwh"`
	HubPrice            decimal.Decimal `json:"hub_price"`
	NodePrice           decimal.Decimal `json:"node_price"`
	OperatingCost       decimal.Decimal `json:"operating_cost"`
	MarketingCost       decimal.Decimal `json:"marketing_cost"`
	WeatherEvent        string          `json:"weather_event"`

	// Real-time family, per-mechanism.
	ShapedTargetMWh    decimal.NullDecimal `json:"shaped_target_mwh,omitempty"`
	ProxyGenerationMWh decimal.NullDecimal `json:"proxy_generation_mwh,omitempty"`

	// Two-settlement family.
	DayAheadScheduleMWh decimal.Decimal `json:"day_ahead_schedule_mwh"`
	DayAheadHubPrice    decimal.Decimal `json:"day_ahead_hub_price"`
	DayAheadNodePrice   decimal.Decimal `json:"day_ahead_node_price"`
	RealtimeNodePrice   decimal.Decimal `json:"realtime_node_price"`

	// Columns the engine does not recognize pass through untouched.
	Extra map[string]string `json:"extra,omitempty"`
}

// MarketRecord is one fully computed asset-day observation. Derived fields
// are written once by the settlement calculator and never mutated after;
// every derived value is a pure function of the record's own inputs.
type MarketRecord struct {
	RecordInputs

	GenerationVariancePct decimal.Decimal `json:"generation_variance_pct"`
	ContractRevenue       decimal.Decimal `json:"contract_revenue"`
	BasisRevenue          decimal.Decimal `json:"basis_revenue"`
	DayAheadRevenue       decimal.Decimal `json:"day_ahead_revenue"`
	ImbalanceMWh          decimal.Decimal `json:"imbalance_mwh"`
	ImbalanceRevenue      decimal.Decimal `json:"imbalance_revenue"`
	ImbalanceCost         decimal.Decimal `json:"imbalance_cost"`
	ShortfallMWh          decimal.Decimal `json:"shortfall_mwh"`
	FixedShapeCost        decimal.Decimal `json:"fixed_shape_cost"`
	ProxyCost             decimal.Decimal `json:"proxy_cost"`
	TotalRevenue          decimal.Decimal `json:"total_revenue"`
	TotalCost             decimal.Decimal `json:"total_cost"`
	NetPL                 decimal.Decimal `json:"net_pl"`
}

// Severity ranks alerts; lower ordinal is more severe.
type Severity int8

const (
	SeverityCritical Severity = iota
	SeverityHigh
	SeverityMedium
	SeverityLow
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	case SeverityLow:
		return "low"
	default:
		return "unknown"
	}
}

// ParseSeverity maps a severity name back to its ordinal.
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "critical":
		return SeverityCritical, nil
	case "high":
		return SeverityHigh, nil
	case "medium":
		return SeverityMedium, nil
	case "low":
		return SeverityLow, nil
	default:
		return 0, fmt.Errorf("unknown severity %q", s)
	}
}

// MarshalJSON emits the severity name rather than the ordinal.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Alert is one triggered risk rule for one record. Message is derived from
// the other fields and carries no independent state.
type Alert struct {
	ID          uuid.UUID       `json:"id"`
	Severity    Severity        `json:"severity"`
	AssetID     string          `json:"asset_id"`
	Date        string          `json:"date"`
	Market      Market          `json:"market"`
	Rule        string          `json:"rule"`
	MetricValue decimal.Decimal `json:"metric_value"`
	Message     string          `json:"message"`
}

// AggregateBucket accumulates sums for one grouping key. Ratio fields are
// populated only after every contributing record has been folded in.
type AggregateBucket struct {
	Key string `json:"key"`

	Revenue             decimal.Decimal `json:"revenue"`
	Cost                decimal.Decimal `json:"cost"`
	Margin              decimal.Decimal `json:"margin"`
	ActualGenerationMWh decimal.Decimal `json:"actual_generation_mwh"`
	BudgetGenerationMWh decimal.Decimal `json:"budget_generation_mwh"`
	BasisRevenue        decimal.Decimal `json:"basis_revenue"`
	ImbalanceCost       decimal.Decimal `json:"imbalance_cost"`
	RecordCount         int             `json:"record_count"`

	MarginPct             decimal.Decimal `json:"margin_pct"`
	GenerationVariancePct decimal.Decimal `json:"generation_variance_pct"`
}

// BudgetPerformance summarizes one asset's generation against budget over
// the batch window.
type BudgetPerformance struct {
	AssetID               string          `json:"asset_id"`
	Market                Market          `json:"market"`
	ActualGenerationMWh   decimal.Decimal `json:"actual_generation_mwh"`
	BudgetGenerationMWh   decimal.Decimal `json:"budget_generation_mwh"`
	TotalRevenue          decimal.Decimal `json:"total_revenue"`
	Days                  int             `json:"days"`
	GenerationVariancePct decimal.Decimal `json:"generation_variance_pct"`
	AvgDailyRevenue       decimal.Decimal `json:"avg_daily_revenue"`
}
