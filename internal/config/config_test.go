package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("WATCHLIST", "")
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "rebalancer-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.App.LogLevel != "debug" {
		t.Fatalf("unexpected App.LogLevel: %s", cfg.App.LogLevel)
	}
	if len(cfg.Rebalance.Watchlist) != 2 || cfg.Rebalance.Watchlist[0] != "SPY" {
		t.Fatalf("unexpected watchlist: %+v", cfg.Rebalance.Watchlist)
	}
	if cfg.Rebalance.MaxPerAsset != 0.25 {
		t.Fatalf("unexpected max_per_asset: %v", cfg.Rebalance.MaxPerAsset)
	}
	if cfg.Rebalance.JournalPath != "data/orders.jsonl" {
		t.Fatalf("unexpected journal path: %s", cfg.Rebalance.JournalPath)
	}
	if cfg.Alpaca.BaseURL != "https://paper-api.alpaca.markets" {
		t.Fatalf("unexpected base url: %s", cfg.Alpaca.BaseURL)
	}
}

func TestIntervalFloorsCadence(t *testing.T) {
	r := Rebalance{CadenceMinutes: 5}
	if r.Interval() != 15*time.Minute {
		t.Fatalf("expected 15m floor, got %s", r.Interval())
	}

	r = Rebalance{CadenceMinutes: 60}
	if r.Interval() != time.Hour {
		t.Fatalf("expected configured cadence kept, got %s", r.Interval())
	}
}

func TestWindowDefault(t *testing.T) {
	r := Rebalance{}
	if r.Window() != time.Hour {
		t.Fatalf("expected 1h default window, got %s", r.Window())
	}
	r = Rebalance{WindowMinutes: 30}
	if r.Window() != 30*time.Minute {
		t.Fatalf("expected 30m window, got %s", r.Window())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("APCA_API_KEY_ID", "env-key")
	t.Setenv("APCA_API_SECRET_KEY", "env-secret")
	t.Setenv("WATCHLIST", " spy , tlt ,, gld ")

	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Alpaca.APIKey != "env-key" || cfg.Alpaca.APISecret != "env-secret" {
		t.Fatalf("env credentials not applied: %+v", cfg.Alpaca)
	}
	want := []string{"SPY", "TLT", "GLD"}
	if len(cfg.Rebalance.Watchlist) != len(want) {
		t.Fatalf("unexpected watchlist: %+v", cfg.Rebalance.Watchlist)
	}
	for i, sym := range want {
		if cfg.Rebalance.Watchlist[i] != sym {
			t.Fatalf("expected %s at index %d, got %s", sym, i, cfg.Rebalance.Watchlist[i])
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func TestValidateRequiresCredentials(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing-credentials error")
	}
}
