// Package scheduler drives the rebalance cycle on a fixed-delay cadence and
// keeps one cycle's failure from touching the next.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/vh1572/alpaca-rebalance/internal/allocation"
	"github.com/vh1572/alpaca-rebalance/internal/broker"
	"github.com/vh1572/alpaca-rebalance/internal/execution"
	"github.com/vh1572/alpaca-rebalance/internal/market"
	"github.com/vh1572/alpaca-rebalance/internal/metrics"
	"github.com/vh1572/alpaca-rebalance/internal/momentum"
	"github.com/vh1572/alpaca-rebalance/internal/planner"
)

const (
	// MinInterval floors the cadence regardless of configuration. Anything
	// faster trades against rate-limited, bar-lagged data.
	MinInterval = 15 * time.Minute

	defaultWindow = time.Hour
)

// Options wires a Scheduler.
type Options struct {
	Broker      broker.Client
	Executor    *execution.Executor
	Log         zerolog.Logger
	Symbols     []string
	Interval    time.Duration // clamped up to MinInterval
	Window      time.Duration // trailing momentum window; defaults to 1h
	MaxPerAsset decimal.Decimal
}

// Scheduler owns the rebalance loop lifecycle. It is either idle between
// cycles or running exactly one; cycles never overlap because the next delay
// only starts once the previous cycle settles.
type Scheduler struct {
	broker      broker.Client
	executor    *execution.Executor
	log         zerolog.Logger
	symbols     []string
	interval    time.Duration
	window      time.Duration
	maxPerAsset decimal.Decimal

	sleep func(ctx context.Context, d time.Duration) error
}

// New clamps the interval to MinInterval and applies window defaults.
func New(opts Options) *Scheduler {
	interval := opts.Interval
	if interval < MinInterval {
		interval = MinInterval
	}
	window := opts.Window
	if window <= 0 {
		window = defaultWindow
	}
	return &Scheduler{
		broker:      opts.Broker,
		executor:    opts.Executor,
		log:         opts.Log,
		symbols:     opts.Symbols,
		interval:    interval,
		window:      window,
		maxPerAsset: opts.MaxPerAsset,
		sleep:       sleepContext,
	}
}

// Interval reports the effective inter-cycle delay after clamping.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Run executes the first cycle immediately, then repeats fixed-delay until
// the context is canceled. Cycle failures are logged and counted, never
// propagated: the loop only ever stops on cancellation.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info().
		Strs("symbols", s.symbols).
		Dur("interval", s.interval).
		Msg("starting momentum rebalancer")

	for {
		if err := s.RunCycle(ctx); err != nil {
			metrics.CyclesTotal.WithLabelValues("error").Inc()
			s.log.Error().Err(err).Msg("rebalance cycle failed")
		} else {
			metrics.CyclesTotal.WithLabelValues("ok").Inc()
		}

		if err := s.sleep(ctx, s.interval); err != nil {
			s.log.Info().Msg("scheduler stopped")
			return nil
		}
	}
}

// RunCycle performs one fetch-score-allocate-plan-execute pass. The three
// fetches run concurrently and the cycle is all-or-nothing: any fetch error
// aborts before computation, leaving account state untouched.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	s.log.Info().Msg("beginning rebalance cycle")

	var (
		prices   map[string]decimal.Decimal
		bars     map[string][]market.Bar
		snapshot market.AccountSnapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		prices, err = s.broker.GetLatestPrices(gctx, s.symbols)
		return err
	})
	g.Go(func() error {
		var err error
		bars, err = s.broker.GetMomentumBars(gctx, s.symbols, s.window)
		return err
	})
	g.Go(func() error {
		var err error
		snapshot, err = s.broker.GetAccountSnapshot(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	samples := momentum.Score(bars)
	weights := allocation.ComputeWeights(samples, s.maxPerAsset)
	publishWeights(weights)
	if len(weights) == 0 {
		s.log.Info().Msg("no assets with positive momentum; holding cash")
		return nil
	}
	s.log.Info().Str("weights", humanWeights(weights)).Msg("momentum tilt weights")

	orders := planner.Plan(weights, snapshot, prices)
	if len(orders) == 0 {
		s.log.Info().Msg("portfolio already aligned with targets")
		return nil
	}

	s.log.Info().Int("orders", len(orders)).Msg("submitting orders")
	sent, err := s.executor.SubmitAll(ctx, orders)
	if err != nil {
		return fmt.Errorf("execute after %d of %d orders: %w", sent, len(orders), err)
	}
	return nil
}

func publishWeights(weights []market.TargetWeight) {
	metrics.TargetWeight.Reset()
	for _, w := range weights {
		metrics.TargetWeight.WithLabelValues(w.Symbol).Set(w.Weight.InexactFloat64())
	}
}

func humanWeights(weights []market.TargetWeight) string {
	parts := make([]string, len(weights))
	hundred := decimal.NewFromInt(100)
	for i, w := range weights {
		parts[i] = fmt.Sprintf("%s:%s%%", w.Symbol, w.Weight.Mul(hundred).StringFixed(1))
	}
	return strings.Join(parts, ", ")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
