// Package broker defines the brokerage capability the rebalancer consumes.
package broker

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vh1572/alpaca-rebalance/internal/execution"
	"github.com/vh1572/alpaca-rebalance/internal/market"
)

// Client is the full brokerage surface: market data, account state, and
// order entry. Adapters own their own timeouts and retries; the core places
// none. Symbols missing from the price or bar maps are a coverage condition
// the caller must tolerate, never an error.
type Client interface {
	// GetLatestPrices returns the most recent price per symbol. Symbols
	// without current data are absent from the map.
	GetLatestPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)

	// GetMomentumBars returns the trailing bar window per symbol at 1-minute
	// resolution, oldest bar first.
	GetMomentumBars(ctx context.Context, symbols []string, window time.Duration) (map[string][]market.Bar, error)

	// GetAccountSnapshot returns live cash and positions.
	GetAccountSnapshot(ctx context.Context) (market.AccountSnapshot, error)

	// SubmitOrder places a single order and reports acceptance.
	SubmitOrder(ctx context.Context, order execution.Order) error
}
