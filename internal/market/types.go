// Package market standardizes payloads shared between the broker, scoring,
// and planning layers.
package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar is a single OHLC bar reduced to the fields the scorer consumes.
type Bar struct {
	Open      decimal.Decimal
	Close     decimal.Decimal
	Timestamp time.Time
}

// PricePoint carries the latest tradable price for one symbol.
type PricePoint struct {
	Symbol string
	Price  decimal.Decimal
}

// MomentumSample expresses the trailing-window return for one symbol.
// Positive values bias toward allocation, non-positive values never do.
type MomentumSample struct {
	Symbol    string
	ReturnPct float64
}

// TargetWeight is the fraction of total equity a symbol should occupy
// after rebalancing. Weight is always in (0, maxPerAsset].
type TargetWeight struct {
	Symbol string
	Weight decimal.Decimal
}

// Position is one holding from the account snapshot. MarketValue is signed.
type Position struct {
	Symbol      string
	MarketValue decimal.Decimal
}

// AccountSnapshot is the live account state, re-read fresh every cycle.
type AccountSnapshot struct {
	Cash      decimal.Decimal
	Positions []Position
}

// TotalEquity returns cash plus the market value of every position.
func (s AccountSnapshot) TotalEquity() decimal.Decimal {
	total := s.Cash
	for _, pos := range s.Positions {
		total = total.Add(pos.MarketValue)
	}
	return total
}

// ValueBySymbol indexes position market values for planner lookups.
func (s AccountSnapshot) ValueBySymbol() map[string]decimal.Decimal {
	values := make(map[string]decimal.Decimal, len(s.Positions))
	for _, pos := range s.Positions {
		values[pos.Symbol] = pos.MarketValue
	}
	return values
}
