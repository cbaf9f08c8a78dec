// Command paper runs a few rebalance cycles back to back against an
// in-memory simulated broker, with no network and no delays. Useful for
// eyeballing the engine's decisions before pointing it at a real account.
package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vh1572/alpaca-rebalance/internal/broker/sim"
	"github.com/vh1572/alpaca-rebalance/internal/config"
	"github.com/vh1572/alpaca-rebalance/internal/execution"
	"github.com/vh1572/alpaca-rebalance/internal/journal"
	"github.com/vh1572/alpaca-rebalance/internal/scheduler"
	"github.com/vh1572/alpaca-rebalance/internal/util"
)

const cycles = 3

func main() {
	log := util.NewLogger("info")

	watchlist := []string{"SPY", "QQQ", "TLT", "GLD"}
	if raw := os.Getenv("WATCHLIST"); raw != "" {
		watchlist = config.ParseWatchlist(raw)
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	broker := sim.NewBroker(decimal.NewFromInt(100000), watchlist)
	ledger := journal.NewLedger(32)
	exec := execution.NewExecutor(log, broker, ledger)

	s := scheduler.New(scheduler.Options{
		Broker:      broker,
		Executor:    exec,
		Log:         log,
		Symbols:     watchlist,
		Interval:    time.Hour,
		MaxPerAsset: decimal.NewFromFloat(0.3),
	})

	for i := 0; i < cycles; i++ {
		if err := s.RunCycle(ctx); err != nil {
			log.Error().Err(err).Int("cycle", i+1).Msg("cycle failed")
		}
	}

	snap, err := broker.GetAccountSnapshot(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("read final account")
	}
	log.Info().
		Int("orders", len(ledger.Snapshot())).
		Str("cash", snap.Cash.StringFixed(2)).
		Str("equity", snap.TotalEquity().StringFixed(2)).
		Int("positions", len(snap.Positions)).
		Msg("paper run complete")
}
