package settlement

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltedge/powermarket/pkg/models"
)

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func assertDecimal(t *testing.T, expected float64, actual decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual),
		"expected %v, got %s", expected, actual.String())
}

func realTimeInputs() models.RecordInputs {
	return models.RecordInputs{
		Date:                "2026-01-15",
		AssetID:             "West Texas Solar 1",
		Market:              models.MarketERCOT,
		Mechanism:           models.MechanismAsGenerated,
		ContractCoveragePct: dec(0.8),
		ContractPrice:       dec(30),
		ActualGenerationMWh: dec(200),
		BudgetGenerationMWh: dec(210),
		HubPrice:            dec(25),
		NodePrice:           dec(28),
		OperatingCost:       dec(2000),
		MarketingCost:       dec(500),
		WeatherEvent:        models.WeatherNormal,
	}
}

func twoSettlementInputs() models.RecordInputs {
	return models.RecordInputs{
		Date:                "2026-01-15",
		AssetID:             "Illinois Solar Farm A",
		Market:              models.MarketPJM,
		ContractCoveragePct: dec(0.9),
		ContractPrice:       dec(35),
		ActualGenerationMWh: dec(180),
		BudgetGenerationMWh: dec(190),
		DayAheadScheduleMWh: dec(200),
		DayAheadHubPrice:    dec(32),
		DayAheadNodePrice:   dec(35),
		RealtimeNodePrice:   dec(40),
		OperatingCost:       dec(3000),
		MarketingCost:       dec(1000),
		WeatherEvent:        models.WeatherNormal,
	}
}

func TestComputeAsGenerated(t *testing.T) {
	rec, err := Compute(realTimeInputs())
	require.NoError(t, err)

	// contracted = 200 * 0.8 = 160
	assertDecimal(t, 160*30, rec.ContractRevenue)
	// basis = 200*28 - 160*25 = 5600 - 4000
	assertDecimal(t, 1600, rec.BasisRevenue)
	assert.True(t, rec.FixedShapeCost.IsZero())
	assert.True(t, rec.ProxyCost.IsZero())
	assertDecimal(t, 4800+1600, rec.TotalRevenue)
	assertDecimal(t, 2500, rec.TotalCost)
	assertDecimal(t, 6400-2500, rec.NetPL)
}

func TestComputeFixedShapeShortfall(t *testing.T) {
	in := realTimeInputs()
	in.Mechanism = models.MechanismFixedShape
	in.ShapedTargetMWh = decimal.NewNullDecimal(dec(240))
	in.NodePrice = dec(30)

	rec, err := Compute(in)
	require.NoError(t, err)

	// shortfall 40 MWh bought back at 30 with the 5% penalty
	assertDecimal(t, 40, rec.ShortfallMWh)
	assertDecimal(t, 40*30*1.05, rec.FixedShapeCost)
	assertDecimal(t, 1260, rec.FixedShapeCost)
}

func TestComputeFixedShapeOverGeneration(t *testing.T) {
	in := realTimeInputs()
	in.Mechanism = models.MechanismFixedShape
	in.ShapedTargetMWh = decimal.NewNullDecimal(dec(150))

	rec, err := Compute(in)
	require.NoError(t, err)

	// Meeting the shape carries no charge.
	assert.True(t, rec.FixedShapeCost.IsZero())
	assert.True(t, rec.ShortfallMWh.IsZero())
}

func TestComputeProxyAsymmetry(t *testing.T) {
	in := realTimeInputs()
	in.Mechanism = models.MechanismProxyGeneration
	in.NodePrice = dec(30)

	in.ProxyGenerationMWh = decimal.NewNullDecimal(dec(220))
	over, err := Compute(in)
	require.NoError(t, err)
	assertDecimal(t, 20*30, over.ProxyCost)

	// Proxy below actual: no charge and no credit.
	in.ProxyGenerationMWh = decimal.NewNullDecimal(dec(180))
	under, err := Compute(in)
	require.NoError(t, err)
	assert.True(t, under.ProxyCost.IsZero())
	assert.True(t, under.TotalRevenue.Equal(
		under.ContractRevenue.Add(under.BasisRevenue)))
}

func TestComputeUnknownMechanism(t *testing.T) {
	in := realTimeInputs()
	in.Mechanism = models.Mechanism("virtual")

	_, err := Compute(in)
	require.Error(t, err)
	var mechErr *UnknownMechanismError
	require.ErrorAs(t, err, &mechErr)
	assert.Equal(t, models.Mechanism("virtual"), mechErr.Mechanism)
}

func TestComputeTwoSettlement(t *testing.T) {
	rec, err := Compute(twoSettlementInputs())
	require.NoError(t, err)

	assertDecimal(t, 180*0.9*35, rec.ContractRevenue)
	assertDecimal(t, 200*32, rec.DayAheadRevenue)
	assertDecimal(t, 200*3, rec.BasisRevenue)

	// Under-delivery: 20 MWh bought back at the real-time node.
	assertDecimal(t, -20, rec.ImbalanceMWh)
	assertDecimal(t, 20*40, rec.ImbalanceCost)
	assert.True(t, rec.ImbalanceRevenue.IsZero())

	expectedRevenue := rec.ContractRevenue.
		Add(rec.DayAheadRevenue).
		Add(rec.BasisRevenue).
		Sub(rec.ImbalanceCost)
	assert.True(t, rec.TotalRevenue.Equal(expectedRevenue))
	assert.True(t, rec.NetPL.Equal(rec.TotalRevenue.Sub(rec.TotalCost)))
}

func TestComputeTwoSettlementOverDelivery(t *testing.T) {
	in := twoSettlementInputs()
	in.ActualGenerationMWh = dec(230)

	rec, err := Compute(in)
	require.NoError(t, err)

	assertDecimal(t, 30, rec.ImbalanceMWh)
	assertDecimal(t, 30*40, rec.ImbalanceRevenue)
	assert.True(t, rec.ImbalanceCost.IsZero())
}

func TestComputeTwoSettlementExactSchedule(t *testing.T) {
	in := twoSettlementInputs()
	in.ActualGenerationMWh = in.DayAheadScheduleMWh

	rec, err := Compute(in)
	require.NoError(t, err)

	assert.True(t, rec.ImbalanceMWh.IsZero())
	assert.True(t, rec.ImbalanceCost.IsZero())
	assert.True(t, rec.ImbalanceRevenue.IsZero())
}

func TestGenerationVariance(t *testing.T) {
	in := realTimeInputs()
	in.ActualGenerationMWh = dec(500)
	in.BudgetGenerationMWh = dec(600)

	rec, err := Compute(in)
	require.NoError(t, err)

	// (500-600)/600 * 100
	expected := dec(-100).Div(dec(600)).Mul(dec(100))
	assert.True(t, rec.GenerationVariancePct.Equal(expected))
	assert.True(t, rec.GenerationVariancePct.LessThan(dec(-16)))
	assert.True(t, rec.GenerationVariancePct.GreaterThan(dec(-17)))
}

func TestGenerationVarianceZeroBudget(t *testing.T) {
	in := realTimeInputs()
	in.BudgetGenerationMWh = decimal.Zero

	rec, err := Compute(in)
	require.NoError(t, err)
	assert.True(t, rec.GenerationVariancePct.IsZero())
}

func TestComputeIsDeterministic(t *testing.T) {
	in := twoSettlementInputs()
	a, err := Compute(in)
	require.NoError(t, err)
	b, err := Compute(in)
	require.NoError(t, err)
	assert.True(t, a.NetPL.Equal(b.NetPL))
	assert.True(t, a.TotalRevenue.Equal(b.TotalRevenue))
	assert.True(t, a.TotalCost.Equal(b.TotalCost))
}
