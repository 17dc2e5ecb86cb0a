// Package aggregator reduces computed records into per-dimension summary
// buckets. The fold is purely additive, so record order never changes the
// result and partial folds from parallel workers merge associatively.
package aggregator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/voltedge/powermarket/pkg/models"
)

// Dimension selects the grouping key for one aggregation pass. The engine
// computes each requested dimension independently, not a cross-product.
type Dimension string

const (
	DimensionMarket Dimension = "market"
	DimensionAsset  Dimension = "asset"
	DimensionDate   Dimension = "date"
)

// ParseDimension validates a dimension name from a caller.
func ParseDimension(s string) (Dimension, error) {
	switch Dimension(s) {
	case DimensionMarket, DimensionAsset, DimensionDate:
		return Dimension(s), nil
	default:
		return "", fmt.Errorf("unknown aggregation dimension %q", s)
	}
}

func keyOf(rec *models.MarketRecord, dim Dimension) string {
	switch dim {
	case DimensionAsset:
		return rec.AssetID
	case DimensionDate:
		return rec.Date
	default:
		return string(rec.Market)
	}
}

// Fold accumulates sums per key without computing ratios, so partial results
// from record partitions can still be merged.
func Fold(records []models.MarketRecord, dim Dimension) map[string]*models.AggregateBucket {
	buckets := make(map[string]*models.AggregateBucket)
	for i := range records {
		rec := &records[i]
		key := keyOf(rec, dim)
		b, ok := buckets[key]
		if !ok {
			b = &models.AggregateBucket{Key: key}
			buckets[key] = b
		}
		b.Revenue = b.Revenue.Add(rec.TotalRevenue)
		b.Cost = b.Cost.Add(rec.TotalCost)
		b.Margin = b.Margin.Add(rec.NetPL)
		b.ActualGenerationMWh = b.ActualGenerationMWh.Add(rec.ActualGenerationMWh)
		b.BudgetGenerationMWh = b.BudgetGenerationMWh.Add(rec.BudgetGenerationMWh)
		// BasisRevenue already carries whichever of locational or day-ahead
		// basis applies to the record's market.
		b.BasisRevenue = b.BasisRevenue.Add(rec.BasisRevenue)
		b.ImbalanceCost = b.ImbalanceCost.Add(rec.ImbalanceCost)
		b.RecordCount++
	}
	return buckets
}

// Merge adds src's sums into dst. Buckets must not have been finalized yet.
func Merge(dst, src map[string]*models.AggregateBucket) {
	for key, s := range src {
		d, ok := dst[key]
		if !ok {
			dst[key] = s
			continue
		}
		d.Revenue = d.Revenue.Add(s.Revenue)
		d.Cost = d.Cost.Add(s.Cost)
		d.Margin = d.Margin.Add(s.Margin)
		d.ActualGenerationMWh = d.ActualGenerationMWh.Add(s.ActualGenerationMWh)
		d.BudgetGenerationMWh = d.BudgetGenerationMWh.Add(s.BudgetGenerationMWh)
		d.BasisRevenue = d.BasisRevenue.Add(s.BasisRevenue)
		d.ImbalanceCost = d.ImbalanceCost.Add(s.ImbalanceCost)
		d.RecordCount += s.RecordCount
	}
}

// Finalize computes per-bucket ratios once every contributing record has
// been folded in. Zero denominators resolve to a zero ratio.
func Finalize(buckets map[string]*models.AggregateBucket) {
	hundred := decimal.NewFromInt(100)
	for _, b := range buckets {
		if !b.Revenue.IsZero() {
			b.MarginPct = b.Margin.Div(b.Revenue).Mul(hundred)
		}
		if !b.BudgetGenerationMWh.IsZero() {
			b.GenerationVariancePct = b.ActualGenerationMWh.
				Sub(b.BudgetGenerationMWh).
				Div(b.BudgetGenerationMWh).
				Mul(hundred)
		}
	}
}

// Aggregate folds and finalizes in one pass for callers that hold the full
// record collection.
func Aggregate(records []models.MarketRecord, dim Dimension) map[string]*models.AggregateBucket {
	buckets := Fold(records, dim)
	Finalize(buckets)
	return buckets
}

// BudgetByAsset builds the per-asset budget performance view, ordered worst
// generation variance first.
func BudgetByAsset(records []models.MarketRecord) []models.BudgetPerformance {
	byAsset := make(map[string]*models.BudgetPerformance)
	for i := range records {
		rec := &records[i]
		p, ok := byAsset[rec.AssetID]
		if !ok {
			p = &models.BudgetPerformance{AssetID: rec.AssetID, Market: rec.Market}
			byAsset[rec.AssetID] = p
		}
		p.ActualGenerationMWh = p.ActualGenerationMWh.Add(rec.ActualGenerationMWh)
		p.BudgetGenerationMWh = p.BudgetGenerationMWh.Add(rec.BudgetGenerationMWh)
		p.TotalRevenue = p.TotalRevenue.Add(rec.TotalRevenue)
		p.Days++
	}

	hundred := decimal.NewFromInt(100)
	out := make([]models.BudgetPerformance, 0, len(byAsset))
	for _, p := range byAsset {
		if !p.BudgetGenerationMWh.IsZero() {
			p.GenerationVariancePct = p.ActualGenerationMWh.
				Sub(p.BudgetGenerationMWh).
				Div(p.BudgetGenerationMWh).
				Mul(hundred)
		}
		if p.Days > 0 {
			p.AvgDailyRevenue = p.TotalRevenue.Div(decimal.NewFromInt(int64(p.Days)))
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].GenerationVariancePct.Cmp(out[j].GenerationVariancePct); c != 0 {
			return c < 0
		}
		return out[i].AssetID < out[j].AssetID
	})
	return out
}
