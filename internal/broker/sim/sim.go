// Package sim is an in-memory broker for dry runs: synthetic drifting
// prices, immediate fills, no network.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vh1572/alpaca-rebalance/internal/execution"
	"github.com/vh1572/alpaca-rebalance/internal/market"
)

var (
	defaultStartPrice = decimal.NewFromInt(100)
	barDrift          = decimal.NewFromFloat(0.1) // per-minute synthetic climb
)

type positionState struct {
	Qty     int64
	AvgCost decimal.Decimal
}

// Broker simulates an account with virtual cash and instant market fills.
// Prices walk upward deterministically so a dry run always finds momentum.
type Broker struct {
	mu         sync.Mutex
	cash       decimal.Decimal
	positions  map[string]positionState
	lastPrices map[string]decimal.Decimal
	now        func() time.Time
}

// NewBroker seeds the account with starting cash and a base price per symbol.
func NewBroker(startingCash decimal.Decimal, symbols []string) *Broker {
	prices := make(map[string]decimal.Decimal, len(symbols))
	step := decimal.NewFromInt(0)
	for _, sym := range symbols {
		// Spread base prices out so symbols do not shadow each other.
		prices[sym] = defaultStartPrice.Add(step)
		step = step.Add(decimal.NewFromInt(10))
	}
	return &Broker{
		cash:       startingCash,
		positions:  make(map[string]positionState),
		lastPrices: prices,
		now:        time.Now,
	}
}

// GetLatestPrices advances the synthetic walk one step and returns the marks.
func (b *Broker) GetLatestPrices(_ context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]decimal.Decimal, len(symbols))
	for _, sym := range symbols {
		px, ok := b.lastPrices[sym]
		if !ok {
			continue
		}
		px = px.Add(barDrift)
		b.lastPrices[sym] = px
		out[sym] = px
	}
	return out, nil
}

// GetMomentumBars synthesizes a climbing 1-minute bar window ending at the
// current mark, so every tracked symbol shows positive momentum.
func (b *Broker) GetMomentumBars(_ context.Context, symbols []string, window time.Duration) (map[string][]market.Bar, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	minutes := int(window.Minutes())
	if minutes < 2 {
		minutes = 2
	}
	end := b.now()

	out := make(map[string][]market.Bar, len(symbols))
	for _, sym := range symbols {
		last, ok := b.lastPrices[sym]
		if !ok {
			continue
		}
		series := make([]market.Bar, 0, minutes)
		open := last.Sub(barDrift.Mul(decimal.NewFromInt(int64(minutes))))
		for i := 0; i < minutes; i++ {
			closePx := open.Add(barDrift)
			series = append(series, market.Bar{
				Open:      open,
				Close:     closePx,
				Timestamp: end.Add(-time.Duration(minutes-i) * time.Minute),
			})
			open = closePx
		}
		out[sym] = series
	}
	return out, nil
}

// GetAccountSnapshot marks open positions at the latest synthetic prices.
func (b *Broker) GetAccountSnapshot(_ context.Context) (market.AccountSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := market.AccountSnapshot{Cash: b.cash, Positions: make([]market.Position, 0, len(b.positions))}
	for sym, pos := range b.positions {
		mark, ok := b.lastPrices[sym]
		if !ok {
			mark = pos.AvgCost
		}
		snap.Positions = append(snap.Positions, market.Position{
			Symbol:      sym,
			MarketValue: mark.Mul(decimal.NewFromInt(pos.Qty)),
		})
	}
	return snap, nil
}

// SubmitOrder fills immediately at the latest mark, mutating balances.
func (b *Broker) SubmitOrder(_ context.Context, order execution.Order) error {
	if order.Qty <= 0 {
		return errors.New("quantity must be positive")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	price, ok := b.lastPrices[order.Symbol]
	if !ok {
		return fmt.Errorf("no market for %s", order.Symbol)
	}
	notional := price.Mul(decimal.NewFromInt(order.Qty))
	state := b.positions[order.Symbol]

	switch order.Side {
	case execution.Buy:
		if notional.GreaterThan(b.cash) {
			return errors.New("insufficient cash for buy")
		}
		newQty := state.Qty + order.Qty
		newAvg := price
		if state.Qty > 0 {
			held := state.AvgCost.Mul(decimal.NewFromInt(state.Qty))
			newAvg = held.Add(notional).Div(decimal.NewFromInt(newQty))
		}
		b.cash = b.cash.Sub(notional)
		b.positions[order.Symbol] = positionState{Qty: newQty, AvgCost: newAvg}

	case execution.Sell:
		if state.Qty < order.Qty {
			return errors.New("insufficient position to sell")
		}
		b.cash = b.cash.Add(notional)
		newQty := state.Qty - order.Qty
		if newQty == 0 {
			delete(b.positions, order.Symbol)
		} else {
			b.positions[order.Symbol] = positionState{Qty: newQty, AvgCost: state.AvgCost}
		}

	default:
		return fmt.Errorf("unknown order side %q", order.Side)
	}
	return nil
}
