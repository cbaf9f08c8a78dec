// Package allocation converts momentum signals into capped target weights.
package allocation

import (
	"github.com/shopspring/decimal"

	"github.com/vh1572/alpaca-rebalance/internal/market"
)

// DefaultMaxPerAsset caps any single instrument at 30% of equity.
const DefaultMaxPerAsset = 0.30

// ComputeWeights assigns each positive-momentum symbol a weight proportional
// to its share of the total positive return, capped at maxPerAsset. Symbols
// with non-positive momentum never receive weight, so the book stays long
// only. When no symbol has positive momentum the result is empty: hold cash,
// do not force liquidation of existing positions.
//
// The cap is applied after the proportional split and the weights are NOT
// renormalized afterward. When the cap binds, the cross-symbol sum falls
// below 1.0 and the shortfall stays in cash. Input order is preserved.
func ComputeWeights(samples []market.MomentumSample, maxPerAsset decimal.Decimal) []market.TargetWeight {
	if maxPerAsset.LessThanOrEqual(decimal.Zero) {
		maxPerAsset = decimal.NewFromFloat(DefaultMaxPerAsset)
	}

	positive := make([]market.MomentumSample, 0, len(samples))
	total := decimal.Zero
	for _, sample := range samples {
		if sample.ReturnPct <= 0 {
			continue
		}
		positive = append(positive, sample)
		total = total.Add(decimal.NewFromFloat(sample.ReturnPct))
	}
	if len(positive) == 0 {
		return nil
	}

	weights := make([]market.TargetWeight, 0, len(positive))
	for _, sample := range positive {
		weight := decimal.NewFromFloat(sample.ReturnPct).Div(total)
		if weight.GreaterThan(maxPerAsset) {
			weight = maxPerAsset
		}
		weights = append(weights, market.TargetWeight{Symbol: sample.Symbol, Weight: weight})
	}
	return weights
}
