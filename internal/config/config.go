// Package config exposes strongly typed application configuration structs
// loaded from YAML, with credentials and watchlist overrides from env.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MinCadenceMinutes floors the rebalance cadence. The scheduler clamps again
// at construction so a hand-wired scheduler cannot bypass the floor either.
const MinCadenceMinutes = 15

// App captures process-wide runtime settings such as name, environment,
// metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Alpaca describes brokerage connectivity. Credentials never live in YAML;
// they are read from APCA_API_KEY_ID / APCA_API_SECRET_KEY.
type Alpaca struct {
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
	APIKey    string `yaml:"-"`
	APISecret string `yaml:"-"`
}

// Rebalance groups the knobs of the allocation engine and its cadence.
type Rebalance struct {
	Watchlist      []string `yaml:"watchlist"`
	CadenceMinutes int      `yaml:"cadence_minutes"`
	WindowMinutes  int      `yaml:"window_minutes"`
	MaxPerAsset    float64  `yaml:"max_per_asset"`
	JournalPath    string   `yaml:"journal_path"`
}

// Interval returns the effective inter-cycle delay, floor applied.
func (r Rebalance) Interval() time.Duration {
	minutes := r.CadenceMinutes
	if minutes < MinCadenceMinutes {
		minutes = MinCadenceMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// Window returns the trailing momentum window.
func (r Rebalance) Window() time.Duration {
	if r.WindowMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(r.WindowMinutes) * time.Minute
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App       App       `yaml:"app"`
	Alpaca    Alpaca    `yaml:"alpaca"`
	Rebalance Rebalance `yaml:"rebalance"`
}

// Load reads a YAML file from disk, hydrates a Config struct, applies
// defaults, and layers env overrides on top.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.applyDefaults()
	config.applyEnv()
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.MetricsAddr == "" {
		c.App.MetricsAddr = ":9102"
	}
	if len(c.Rebalance.Watchlist) == 0 {
		c.Rebalance.Watchlist = []string{"SPY", "QQQ", "TLT", "GLD", "BTCUSD", "ETHUSD"}
	}
	if c.Rebalance.CadenceMinutes == 0 {
		c.Rebalance.CadenceMinutes = MinCadenceMinutes
	}
	if c.Rebalance.MaxPerAsset <= 0 || c.Rebalance.MaxPerAsset > 1 {
		c.Rebalance.MaxPerAsset = 0.30
	}
}

func (c *Config) applyEnv() {
	if key := os.Getenv("APCA_API_KEY_ID"); key != "" {
		c.Alpaca.APIKey = key
	}
	if secret := os.Getenv("APCA_API_SECRET_KEY"); secret != "" {
		c.Alpaca.APISecret = secret
	}
	if base := os.Getenv("APCA_API_BASE_URL"); base != "" {
		c.Alpaca.BaseURL = base
	}
	if watchlist := os.Getenv("WATCHLIST"); watchlist != "" {
		c.Rebalance.Watchlist = ParseWatchlist(watchlist)
	}
}

// ParseWatchlist splits a comma-separated symbol list, trimming and
// uppercasing entries and dropping blanks.
func ParseWatchlist(raw string) []string {
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, part := range parts {
		sym := strings.ToUpper(strings.TrimSpace(part))
		if sym == "" {
			continue
		}
		symbols = append(symbols, sym)
	}
	return symbols
}

// Validate reports configuration a live run cannot proceed without.
func (c *Config) Validate() error {
	if c.Alpaca.APIKey == "" || c.Alpaca.APISecret == "" {
		return fmt.Errorf("missing Alpaca credentials: set APCA_API_KEY_ID and APCA_API_SECRET_KEY")
	}
	if len(c.Rebalance.Watchlist) == 0 {
		return fmt.Errorf("empty watchlist")
	}
	return nil
}
