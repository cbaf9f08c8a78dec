package alpaca

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/vh1572/alpaca-rebalance/internal/execution"
)

func newTestClient(trading, data *httptest.Server) *Client {
	cfg := Config{APIKey: "key", APISecret: "secret"}
	if trading != nil {
		cfg.BaseURL = trading.URL
	}
	if data != nil {
		cfg.DataURL = data.URL
	}
	return NewClient(cfg, zerolog.Nop())
}

func TestGetLatestPrices(t *testing.T) {
	data := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("APCA-API-KEY-ID") != "key" {
			t.Fatalf("missing auth header")
		}
		if r.URL.Path != "/v2/stocks/bars/latest" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"bars":{"SPY":{"o":100,"c":101.5,"t":"2026-08-28T15:59:00Z"},"HALTED":{"o":0,"c":0,"t":"2026-08-28T15:59:00Z"}}}`))
	}))
	defer data.Close()

	client := newTestClient(nil, data)
	prices, err := client.GetLatestPrices(context.Background(), []string{"SPY", "HALTED", "MISSING"})
	if err != nil {
		t.Fatalf("GetLatestPrices returned error: %v", err)
	}
	if len(prices) != 1 {
		t.Fatalf("expected one price, got %+v", prices)
	}
	if !prices["SPY"].Equal(decimal.NewFromFloat(101.5)) {
		t.Fatalf("unexpected SPY price: %s", prices["SPY"])
	}
}

func TestGetMomentumBarsPaging(t *testing.T) {
	page := 0
	data := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/stocks/bars" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("timeframe") != "1Min" {
			t.Fatalf("unexpected timeframe: %s", r.URL.Query().Get("timeframe"))
		}
		page++
		if page == 1 {
			w.Write([]byte(`{"bars":{"SPY":[{"o":100,"c":100.5,"t":"2026-08-28T15:00:00Z"}]},"next_page_token":"tok"}`))
			return
		}
		if r.URL.Query().Get("page_token") != "tok" {
			t.Fatalf("expected page token on second request")
		}
		w.Write([]byte(`{"bars":{"SPY":[{"o":100.5,"c":102,"t":"2026-08-28T15:01:00Z"}]},"next_page_token":null}`))
	}))
	defer data.Close()

	client := newTestClient(nil, data)
	bars, err := client.GetMomentumBars(context.Background(), []string{"SPY"}, time.Hour)
	if err != nil {
		t.Fatalf("GetMomentumBars returned error: %v", err)
	}
	if len(bars["SPY"]) != 2 {
		t.Fatalf("expected two bars across pages, got %d", len(bars["SPY"]))
	}
	if !bars["SPY"][1].Close.Equal(decimal.NewFromInt(102)) {
		t.Fatalf("unexpected last close: %s", bars["SPY"][1].Close)
	}
}

func TestGetAccountSnapshot(t *testing.T) {
	trading := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/account":
			w.Write([]byte(`{"cash":"2500.50"}`))
		case "/v2/positions":
			w.Write([]byte(`[{"symbol":"SPY","market_value":"7499.50"}]`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer trading.Close()

	client := newTestClient(trading, nil)
	snap, err := client.GetAccountSnapshot(context.Background())
	if err != nil {
		t.Fatalf("GetAccountSnapshot returned error: %v", err)
	}
	if !snap.TotalEquity().Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("unexpected equity: %s", snap.TotalEquity())
	}
	if len(snap.Positions) != 1 || snap.Positions[0].Symbol != "SPY" {
		t.Fatalf("unexpected positions: %+v", snap.Positions)
	}
}

func TestSubmitOrder(t *testing.T) {
	var got orderRequest
	trading := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/orders" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode order body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer trading.Close()

	client := newTestClient(trading, nil)
	err := client.SubmitOrder(context.Background(), execution.NewMarketOrder("SPY", execution.Buy, 30))
	if err != nil {
		t.Fatalf("SubmitOrder returned error: %v", err)
	}
	if got.Symbol != "SPY" || got.Qty != "30" || got.Side != "buy" || got.Type != "market" || got.TimeInForce != "day" {
		t.Fatalf("unexpected order payload: %+v", got)
	}
}

func TestSubmitOrderRejected(t *testing.T) {
	trading := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"insufficient buying power"}`, http.StatusForbidden)
	}))
	defer trading.Close()

	client := newTestClient(trading, nil)
	err := client.SubmitOrder(context.Background(), execution.NewMarketOrder("SPY", execution.Buy, 30))
	if err == nil {
		t.Fatalf("expected rejection error")
	}
}
