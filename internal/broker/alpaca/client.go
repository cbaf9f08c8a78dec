// Package alpaca adapts the Alpaca v2 trading and market-data REST APIs to
// the broker.Client capability.
package alpaca

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/vh1572/alpaca-rebalance/internal/execution"
	"github.com/vh1572/alpaca-rebalance/internal/market"
)

const (
	defaultBaseURL = "https://paper-api.alpaca.markets"
	defaultDataURL = "https://data.alpaca.markets"
)

// Config carries credentials and endpoint overrides for the adapter.
type Config struct {
	APIKey    string
	APISecret string
	BaseURL   string // trading API; defaults to the paper endpoint
	DataURL   string // market data API
}

// Client talks to Alpaca over REST. It owns a 10-second request timeout;
// callers place no timeout of their own on broker calls.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient builds an adapter with endpoint defaults applied.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.DataURL == "" {
		cfg.DataURL = defaultDataURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	cfg.DataURL = strings.TrimSuffix(cfg.DataURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

type latestBarsResponse struct {
	Bars map[string]latestBar `json:"bars"`
}

type latestBar struct {
	Open      float64   `json:"o"`
	Close     float64   `json:"c"`
	Timestamp time.Time `json:"t"`
}

type barsResponse struct {
	Bars          map[string][]latestBar `json:"bars"`
	NextPageToken *string                `json:"next_page_token"`
}

type accountResponse struct {
	Cash string `json:"cash"`
}

type positionResponse struct {
	Symbol      string `json:"symbol"`
	MarketValue string `json:"market_value"`
}

type orderRequest struct {
	Symbol      string `json:"symbol"`
	Qty         string `json:"qty"`
	Side        string `json:"side"`
	Type        string `json:"type"`
	TimeInForce string `json:"time_in_force"`
}

// GetLatestPrices returns the latest 1-minute bar close per symbol. Symbols
// Alpaca has no current bar for are simply absent from the result.
func (c *Client) GetLatestPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/v2/stocks/bars/latest?symbols=%s", c.cfg.DataURL, url.QueryEscape(strings.Join(symbols, ",")))

	var resp latestBarsResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("latest bars: %w", err)
	}

	prices := make(map[string]decimal.Decimal, len(resp.Bars))
	for sym, bar := range resp.Bars {
		if bar.Close <= 0 {
			continue
		}
		prices[sym] = decimal.NewFromFloat(bar.Close)
	}
	return prices, nil
}

// GetMomentumBars returns the trailing window of 1-minute bars per symbol,
// oldest first, paging through Alpaca's cursor until exhausted.
func (c *Client) GetMomentumBars(ctx context.Context, symbols []string, window time.Duration) (map[string][]market.Bar, error) {
	end := time.Now().UTC()
	start := end.Add(-window)

	bars := make(map[string][]market.Bar, len(symbols))
	pageToken := ""
	for {
		values := url.Values{}
		values.Set("symbols", strings.Join(symbols, ","))
		values.Set("timeframe", "1Min")
		values.Set("start", start.Format(time.RFC3339))
		values.Set("end", end.Format(time.RFC3339))
		if pageToken != "" {
			values.Set("page_token", pageToken)
		}
		endpoint := fmt.Sprintf("%s/v2/stocks/bars?%s", c.cfg.DataURL, values.Encode())

		var resp barsResponse
		if err := c.getJSON(ctx, endpoint, &resp); err != nil {
			return nil, fmt.Errorf("momentum bars: %w", err)
		}
		for sym, series := range resp.Bars {
			for _, b := range series {
				bars[sym] = append(bars[sym], market.Bar{
					Open:      decimal.NewFromFloat(b.Open),
					Close:     decimal.NewFromFloat(b.Close),
					Timestamp: b.Timestamp,
				})
			}
		}
		if resp.NextPageToken == nil || *resp.NextPageToken == "" {
			break
		}
		pageToken = *resp.NextPageToken
	}
	return bars, nil
}

// GetAccountSnapshot reads cash and open positions in two calls.
func (c *Client) GetAccountSnapshot(ctx context.Context) (market.AccountSnapshot, error) {
	var account accountResponse
	if err := c.getJSON(ctx, c.cfg.BaseURL+"/v2/account", &account); err != nil {
		return market.AccountSnapshot{}, fmt.Errorf("account: %w", err)
	}
	cash, err := decimal.NewFromString(account.Cash)
	if err != nil {
		return market.AccountSnapshot{}, fmt.Errorf("parse cash %q: %w", account.Cash, err)
	}

	var positions []positionResponse
	if err := c.getJSON(ctx, c.cfg.BaseURL+"/v2/positions", &positions); err != nil {
		return market.AccountSnapshot{}, fmt.Errorf("positions: %w", err)
	}

	snapshot := market.AccountSnapshot{Cash: cash, Positions: make([]market.Position, 0, len(positions))}
	for _, pos := range positions {
		value, err := decimal.NewFromString(pos.MarketValue)
		if err != nil {
			return market.AccountSnapshot{}, fmt.Errorf("parse %s market value %q: %w", pos.Symbol, pos.MarketValue, err)
		}
		snapshot.Positions = append(snapshot.Positions, market.Position{Symbol: pos.Symbol, MarketValue: value})
	}
	return snapshot, nil
}

// SubmitOrder places a market day order.
func (c *Client) SubmitOrder(ctx context.Context, order execution.Order) error {
	payload, err := json.Marshal(orderRequest{
		Symbol:      order.Symbol,
		Qty:         strconv.FormatInt(order.Qty, 10),
		Side:        string(order.Side),
		Type:        order.Type,
		TimeInForce: order.TimeInForce,
	})
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v2/orders", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post order: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("order rejected: %s", readErrorBody(resp))
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", readErrorBody(resp))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("APCA-API-KEY-ID", c.cfg.APIKey)
	req.Header.Set("APCA-API-SECRET-KEY", c.cfg.APISecret)
}

func readErrorBody(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	text := strings.TrimSpace(string(body))
	if text == "" {
		return resp.Status
	}
	return fmt.Sprintf("%s: %s", resp.Status, text)
}
