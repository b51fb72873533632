package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"coinwise-go/internal/market"
	"coinwise-go/internal/metrics"
)

const defaultUpbitURL = "wss://api.upbit.com/websocket/v1"

type upbitTicker struct {
	Type              string  `json:"type"`
	Code              string  `json:"code"`
	TradePrice        float64 `json:"trade_price"`
	SignedChangeRate  float64 `json:"signed_change_rate"`
	AccTradeVolume24h float64 `json:"acc_trade_volume_24h"`
	TradeTimestamp    int64   `json:"trade_timestamp"`
}

type upbitSubscription struct {
	Ticket string   `json:"ticket,omitempty"`
	Type   string   `json:"type,omitempty"`
	Codes  []string `json:"codes,omitempty"`
}

func (c *Connector) consumeUpbit(ctx context.Context, out chan<- market.Tick) error {
	symbols := c.snapshotSymbols()
	if len(symbols) == 0 {
		return fmt.Errorf("upbit feed requires at least one symbol")
	}

	dialer := websocket.Dialer{HandshakeTimeout: c.dialTimeout}
	conn, _, err := dialer.DialContext(ctx, c.upbitURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	request := []upbitSubscription{
		{Ticket: "coinwise"},
		{Type: "ticker", Codes: symbols},
	}
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(request); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	c.log.Info().Str("provider", ProviderUpbit).Strs("symbols", symbols).Msg("connected market data feed")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(appData string) error {
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
					c.log.Warn().Err(err).Msg("upbit ping failed")
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

		tick, err := normalizeUpbitFrame(message)
		if err != nil {
			// Malformed frames are non-fatal: log and drop.
			c.log.Warn().Err(err).Msg("dropping malformed upbit frame")
			continue
		}

		select {
		case out <- tick:
			c.markTick(tick.Symbol, tick.ReceivedAt)
			metrics.TicksTotal.WithLabelValues(tick.Symbol).Inc()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// normalizeUpbitFrame decodes one websocket payload into a strict market.Tick.
// Partial or non-ticker frames are rejected rather than propagated downstream.
func normalizeUpbitFrame(message []byte) (market.Tick, error) {
	var frame upbitTicker
	if err := json.Unmarshal(message, &frame); err != nil {
		return market.Tick{}, err
	}
	if frame.Type != "" && frame.Type != "ticker" {
		return market.Tick{}, fmt.Errorf("unexpected frame type %q", frame.Type)
	}
	if frame.Code == "" {
		return market.Tick{}, fmt.Errorf("frame missing symbol code")
	}
	if frame.TradePrice <= 0 {
		return market.Tick{}, fmt.Errorf("frame for %s missing trade price", frame.Code)
	}

	receivedAt := time.Now()
	if frame.TradeTimestamp > 0 {
		receivedAt = time.UnixMilli(frame.TradeTimestamp)
	}
	return market.Tick{
		Symbol:        frame.Code,
		Price:         frame.TradePrice,
		ChangePercent: frame.SignedChangeRate * 100,
		Volume:        frame.AccTradeVolume24h,
		ReceivedAt:    receivedAt,
	}, nil
}
