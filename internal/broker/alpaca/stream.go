package alpaca

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// TradeUpdate is one order lifecycle event from the trading stream.
type TradeUpdate struct {
	Event  string
	Symbol string
	Qty    string
	Side   string
	At     time.Time
}

type streamEnvelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

type tradeUpdateData struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Order     struct {
		Symbol string `json:"symbol"`
		Qty    string `json:"qty"`
		Side   string `json:"side"`
	} `json:"order"`
}

type streamAuth struct {
	Action string `json:"action"`
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

type streamListen struct {
	Action string `json:"action"`
	Data   struct {
		Streams []string `json:"streams"`
	} `json:"data"`
}

// StreamTradeUpdates pushes order lifecycle events onto out until the context
// is canceled, reconnecting with capped backoff on any transport failure. The
// stream is observability only: its health never affects the rebalance loop.
func (c *Client) StreamTradeUpdates(ctx context.Context, out chan<- TradeUpdate) error {
	wsURL := strings.Replace(c.cfg.BaseURL, "https://", "wss://", 1) + "/stream"
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := c.consumeTradeStream(ctx, wsURL, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn().Err(err).Msg("trade update stream disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (c *Client) consumeTradeStream(ctx context.Context, wsURL string, out chan<- TradeUpdate) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.WriteJSON(streamAuth{Action: "auth", Key: c.cfg.APIKey, Secret: c.cfg.APISecret}); err != nil {
		return fmt.Errorf("stream auth: %w", err)
	}
	listen := streamListen{Action: "listen"}
	listen.Data.Streams = []string{"trade_updates"}
	if err := conn.WriteJSON(listen); err != nil {
		return fmt.Errorf("stream listen: %w", err)
	}

	c.log.Info().Str("url", wsURL).Msg("connected trade update stream")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					c.log.Warn().Err(err).Msg("trade stream ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var env streamEnvelope
		if err := json.Unmarshal(message, &env); err != nil {
			c.log.Warn().Err(err).Msg("failed to decode stream message")
			continue
		}
		if env.Stream != "trade_updates" {
			continue
		}
		var data tradeUpdateData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			c.log.Warn().Err(err).Msg("failed to decode trade update")
			continue
		}

		update := TradeUpdate{
			Event:  data.Event,
			Symbol: data.Order.Symbol,
			Qty:    data.Order.Qty,
			Side:   data.Order.Side,
			At:     data.Timestamp,
		}
		select {
		case out <- update:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
