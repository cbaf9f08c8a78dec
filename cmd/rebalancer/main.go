package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/vh1572/alpaca-rebalance/internal/broker/alpaca"
	"github.com/vh1572/alpaca-rebalance/internal/config"
	"github.com/vh1572/alpaca-rebalance/internal/execution"
	"github.com/vh1572/alpaca-rebalance/internal/journal"
	"github.com/vh1572/alpaca-rebalance/internal/metrics"
	"github.com/vh1572/alpaca-rebalance/internal/scheduler"
	"github.com/vh1572/alpaca-rebalance/internal/util"
)

func main() {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	log := util.NewLogger("info")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log = util.NewLogger(cfg.App.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := alpaca.NewClient(alpaca.Config{
		APIKey:    cfg.Alpaca.APIKey,
		APISecret: cfg.Alpaca.APISecret,
		BaseURL:   cfg.Alpaca.BaseURL,
		DataURL:   cfg.Alpaca.DataURL,
	}, log)

	var recorder execution.Recorder
	if cfg.Rebalance.JournalPath != "" {
		jsonl, err := journal.NewJSONLRecorder(cfg.Rebalance.JournalPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open order journal")
		}
		defer jsonl.Close()
		recorder = jsonl
	}

	updates := make(chan alpaca.TradeUpdate, 64)
	go func() {
		if err := client.StreamTradeUpdates(ctx, updates); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("trade update stream ended")
		}
	}()
	go func() {
		for update := range updates {
			log.Info().
				Str("event", update.Event).
				Str("sym", update.Symbol).
				Str("side", update.Side).
				Str("qty", update.Qty).
				Msg("trade update")
		}
	}()

	s := scheduler.New(scheduler.Options{
		Broker:      client,
		Executor:    execution.NewExecutor(log, client, recorder),
		Log:         log,
		Symbols:     cfg.Rebalance.Watchlist,
		Interval:    cfg.Rebalance.Interval(),
		Window:      cfg.Rebalance.Window(),
		MaxPerAsset: decimal.NewFromFloat(cfg.Rebalance.MaxPerAsset),
	})

	if err := s.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("scheduler stopped")
	}
	log.Info().Msg("shutting down")
}
