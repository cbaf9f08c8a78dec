// Package planner diffs target weights against current holdings and emits
// the minimal set of market orders that converges toward the targets.
package planner

import (
	"github.com/shopspring/decimal"

	"github.com/vh1572/alpaca-rebalance/internal/execution"
	"github.com/vh1572/alpaca-rebalance/internal/market"
)

// Plan produces one order per target whose value gap rounds to at least one
// whole share. For each target: targetValue = totalEquity * weight, current
// value defaults to zero for symbols not held, and qty = floor(|delta| /
// price). Symbols without a price this cycle are skipped outright — missing
// price data means the symbol cannot be traded safely right now. Output
// preserves the input weight ordering.
//
// Held symbols absent from the target set are left alone: this planner tilts
// toward winners and never actively exits a position whose momentum merely
// went quiet. Liquidation only happens through a sell delta on a symbol that
// still carries weight.
func Plan(weights []market.TargetWeight, snapshot market.AccountSnapshot, prices map[string]decimal.Decimal) []execution.Order {
	totalEquity := snapshot.TotalEquity()
	currentValues := snapshot.ValueBySymbol()

	orders := make([]execution.Order, 0, len(weights))
	for _, target := range weights {
		price, ok := prices[target.Symbol]
		if !ok || price.LessThanOrEqual(decimal.Zero) {
			continue
		}

		targetValue := totalEquity.Mul(target.Weight)
		currentValue := currentValues[target.Symbol]
		delta := targetValue.Sub(currentValue)

		qty := delta.Abs().Div(price).Floor().IntPart()
		if qty == 0 {
			continue
		}

		side := execution.Buy
		if delta.IsNegative() {
			side = execution.Sell
		}
		orders = append(orders, execution.NewMarketOrder(target.Symbol, side, qty))
	}
	return orders
}
