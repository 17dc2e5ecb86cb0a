package normalizer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltedge/powermarket/pkg/models"
)

func validRow() map[string]string {
	return map[string]string{
		"date":                  "2026-01-15",
		"asset_id":              "West Texas Solar 1",
		"market":                "ERCOT",
		"mechanism":             "as-generated",
		"contract_coverage_pct": "0.75",
		"contract_price":        "28.50",
		"actual_generation_mwh": "140.5",
		"budget_generation_mwh": "150.0",
		"hub_price":             "27.10",
		"node_price":            "30.40",
		"operating_cost":        "2054.79",
		"marketing_cost":        "684.93",
		"weather_event":         "normal",
	}
}

func TestNormalizeValidRow(t *testing.T) {
	in, err := Normalize(validRow())
	require.NoError(t, err)

	assert.Equal(t, "2026-01-15", in.Date)
	assert.Equal(t, "West Texas Solar 1", in.AssetID)
	assert.Equal(t, models.MarketERCOT, in.Market)
	assert.Equal(t, models.MechanismAsGenerated, in.Mechanism)
	assert.True(t, in.ActualGenerationMWh.Equal(decimal.NewFromFloat(140.5)))
	assert.True(t, in.HubPrice.Equal(decimal.NewFromFloat(27.10)))
	assert.Equal(t, models.WeatherNormal, in.WeatherEvent)
	assert.False(t, in.ShapedTargetMWh.Valid)
	assert.False(t, in.ProxyGenerationMWh.Valid)
}

func TestNormalizeMissingRequiredField(t *testing.T) {
	for _, field := range []string{"date", "asset_id", "market", "actual_generation_mwh", "budget_generation_mwh"} {
		row := validRow()
		delete(row, field)

		_, err := Normalize(row)
		require.Error(t, err, "field %s", field)
		var rowErr *RowError
		require.ErrorAs(t, err, &rowErr)
		assert.Equal(t, KindMissingRequiredField, rowErr.Kind)
		assert.Equal(t, field, rowErr.Field)
	}
}

func TestNormalizeBlankRequiredField(t *testing.T) {
	row := validRow()
	row["asset_id"] = "   "

	_, err := Normalize(row)
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, KindMissingRequiredField, rowErr.Kind)
}

func TestNormalizeUnknownMarket(t *testing.T) {
	row := validRow()
	row["market"] = "CAISO"

	_, err := Normalize(row)
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, KindUnknownMarket, rowErr.Kind)
}

func TestNormalizeUnknownMechanism(t *testing.T) {
	row := validRow()
	row["mechanism"] = "virtual"

	_, err := Normalize(row)
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, KindUnknownMechanism, rowErr.Kind)
}

func TestNormalizeMechanismDefaultsToAsGenerated(t *testing.T) {
	row := validRow()
	delete(row, "mechanism")

	in, err := Normalize(row)
	require.NoError(t, err)
	assert.Equal(t, models.MechanismAsGenerated, in.Mechanism)
}

func TestNormalizeMechanismIgnoredForTwoSettlement(t *testing.T) {
	row := validRow()
	row["market"] = "PJM"
	row["mechanism"] = "whatever"
	row["day_ahead_schedule_mwh"] = "150"
	row["day_ahead_hub_price"] = "32"
	row["day_ahead_node_price"] = "34.5"
	row["realtime_node_price"] = "41.2"

	in, err := Normalize(row)
	require.NoError(t, err)
	assert.Empty(t, string(in.Mechanism))
	assert.True(t, in.DayAheadScheduleMWh.Equal(decimal.NewFromInt(150)))
}

func TestNormalizeInvalidNumber(t *testing.T) {
	row := validRow()
	row["hub_price"] = "n/a"

	_, err := Normalize(row)
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, KindInvalidNumber, rowErr.Kind)
	assert.Equal(t, "hub_price", rowErr.Field)
}

func TestNormalizeOptionalMechanismFields(t *testing.T) {
	row := validRow()
	row["mechanism"] = "fixed-shape"
	row["shaped_target_mwh"] = "160.25"

	in, err := Normalize(row)
	require.NoError(t, err)
	require.True(t, in.ShapedTargetMWh.Valid)
	assert.True(t, in.ShapedTargetMWh.Decimal.Equal(decimal.NewFromFloat(160.25)))
	assert.False(t, in.ProxyGenerationMWh.Valid)
}

func TestNormalizeRangeValidation(t *testing.T) {
	cases := []struct {
		field string
		value string
	}{
		{"actual_generation_mwh", "-10"},
		{"budget_generation_mwh", "-1"},
		{"operating_cost", "-500"},
		{"contract_coverage_pct", "1.5"},
		{"contract_coverage_pct", "-0.1"},
	}
	for _, tc := range cases {
		row := validRow()
		row[tc.field] = tc.value

		_, err := Normalize(row)
		require.Error(t, err, "%s=%s", tc.field, tc.value)
		var rowErr *RowError
		require.ErrorAs(t, err, &rowErr)
		assert.Equal(t, KindInvalidValue, rowErr.Kind)
	}
}

func TestNormalizeWeatherCanonicalization(t *testing.T) {
	row := validRow()
	row["weather_event"] = "Normal"
	in, err := Normalize(row)
	require.NoError(t, err)
	assert.Equal(t, models.WeatherNormal, in.WeatherEvent)

	row["weather_event"] = ""
	in, err = Normalize(row)
	require.NoError(t, err)
	assert.Equal(t, models.WeatherNormal, in.WeatherEvent)

	row["weather_event"] = "Winter Storm"
	in, err = Normalize(row)
	require.NoError(t, err)
	assert.Equal(t, "Winter Storm", in.WeatherEvent)
}

func TestNormalizeExtraColumnsPassThrough(t *testing.T) {
	row := validRow()
	row["operator_notes"] = "panel washing scheduled"
	row["region"] = "west"

	in, err := Normalize(row)
	require.NoError(t, err)
	assert.Equal(t, "panel washing scheduled", in.Extra["operator_notes"])
	assert.Equal(t, "west", in.Extra["region"])
	assert.Len(t, in.Extra, 2)
}
