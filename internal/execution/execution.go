// Package execution handles order construction and submission to the broker.
package execution

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vh1572/alpaca-rebalance/internal/metrics"
)

// Side enumerates order directions.
type Side string

const (
	// Buy increases exposure toward the target weight.
	Buy Side = "buy"
	// Sell trims exposure back toward the target weight.
	Sell Side = "sell"
)

// Order is a market day order sized in whole shares. Orders are ephemeral:
// constructed, submitted, and not tracked further.
type Order struct {
	Symbol      string `json:"symbol"`
	Side        Side   `json:"side"`
	Qty         int64  `json:"qty"`
	Type        string `json:"type"`
	TimeInForce string `json:"time_in_force"`
}

// NewMarketOrder builds a market day order, the only order shape this system
// ever sends.
func NewMarketOrder(symbol string, side Side, qty int64) Order {
	return Order{Symbol: symbol, Side: side, Qty: qty, Type: "market", TimeInForce: "day"}
}

// Submitter is the slice of the broker the executor needs.
type Submitter interface {
	SubmitOrder(ctx context.Context, order Order) error
}

// Recorder captures submitted orders for later inspection.
type Recorder interface {
	Record(Order)
}

// Executor pushes planned orders to the broker one at a time.
type Executor struct {
	log      zerolog.Logger
	broker   Submitter
	recorder Recorder
}

// NewExecutor wires the broker and an optional order recorder.
func NewExecutor(log zerolog.Logger, broker Submitter, recorder Recorder) *Executor {
	return &Executor{log: log, broker: broker, recorder: recorder}
}

// SubmitAll sends orders sequentially. The first broker rejection aborts the
// remaining submissions for this cycle: no retry, no rollback of orders that
// already went out. Returns the number of orders successfully submitted.
func (e *Executor) SubmitAll(ctx context.Context, orders []Order) (int, error) {
	for i, order := range orders {
		if err := e.broker.SubmitOrder(ctx, order); err != nil {
			metrics.OrderFailuresTotal.WithLabelValues(order.Symbol).Inc()
			return i, fmt.Errorf("submit %s %s x%d: %w", order.Side, order.Symbol, order.Qty, err)
		}
		metrics.OrdersTotal.WithLabelValues(order.Symbol, string(order.Side)).Inc()
		if e.recorder != nil {
			e.recorder.Record(order)
		}
		e.log.Info().
			Str("sym", order.Symbol).
			Str("side", string(order.Side)).
			Int64("qty", order.Qty).
			Msg("order submitted")
	}
	return len(orders), nil
}
