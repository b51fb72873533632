package exchange

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"coinwise-go/internal/market"
)

func TestSetSymbolsDeduplicatesAndSorts(t *testing.T) {
	c := NewConnector(ProviderStub, []string{"KRW-ETH", "KRW-BTC", " KRW-ETH ", ""}, zerolog.Nop())

	got := c.snapshotSymbols()
	want := []string{"KRW-BTC", "KRW-ETH"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestStubFeedDeliversTicks(t *testing.T) {
	c := NewConnector(ProviderStub, []string{"KRW-BTC", "KRW-ETH"}, zerolog.Nop())
	out := make(chan market.Tick, 16)

	if err := c.Start(context.Background(), out); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Stop()

	if !c.Active() {
		t.Fatalf("connector should report active after Start")
	}

	seen := make(map[string]bool)
	deadline := time.After(5 * time.Second)
	for len(seen) < 2 {
		select {
		case tick := <-out:
			if tick.Price <= 0 {
				t.Fatalf("stub emitted non-positive price: %+v", tick)
			}
			if tick.ReceivedAt.IsZero() {
				t.Fatalf("stub emitted zero timestamp")
			}
			seen[tick.Symbol] = true
		case <-deadline:
			t.Fatalf("timed out waiting for ticks, saw %v", seen)
		}
	}

	last := c.LastTicks()
	if len(last) < 2 {
		t.Fatalf("expected liveness timestamps for both symbols, got %v", last)
	}
}

func TestStartTwiceFails(t *testing.T) {
	c := NewConnector(ProviderStub, []string{"KRW-BTC"}, zerolog.Nop())
	out := make(chan market.Tick, 16)

	if err := c.Start(context.Background(), out); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer c.Stop()

	if err := c.Start(context.Background(), out); err == nil {
		t.Fatalf("second Start should fail while running")
	}
}

func TestStopCancelsPendingReconnect(t *testing.T) {
	// Point at a dead endpoint so the first dial fails and the connector parks
	// in its reconnect wait. Stop must not sit out the full delay.
	c := NewConnector(ProviderUpbit, []string{"KRW-BTC"}, zerolog.Nop(),
		WithUpbitURL("ws://127.0.0.1:9"),
		WithReconnectDelay(time.Hour),
	)
	out := make(chan market.Tick, 1)

	if err := c.Start(context.Background(), out); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		c.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatalf("Stop did not cancel the pending reconnect")
	}
	if c.Active() {
		t.Fatalf("connector should report inactive after Stop")
	}
}

func TestStopAfterContextCancelReturns(t *testing.T) {
	c := NewConnector(ProviderStub, []string{"KRW-BTC"}, zerolog.Nop())
	out := make(chan market.Tick, 16)

	ctx, cancel := context.WithCancel(context.Background())
	if err := c.Start(ctx, out); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()

	// Stop after the parent context already ended must still return cleanly.
	done := make(chan struct{})
	go func() {
		c.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Stop hung after context cancellation")
	}
}

func TestNormalizeUpbitFrame(t *testing.T) {
	good := []byte(`{"type":"ticker","code":"KRW-BTC","trade_price":52000000,"signed_change_rate":-0.031,"acc_trade_volume_24h":1234.5,"trade_timestamp":1700000000000}`)
	tick, err := normalizeUpbitFrame(good)
	if err != nil {
		t.Fatalf("normalizeUpbitFrame: %v", err)
	}
	if tick.Symbol != "KRW-BTC" || tick.Price != 52_000_000 {
		t.Fatalf("unexpected tick %+v", tick)
	}
	// Upbit reports the change as a rate; downstream wants percent.
	if diff := tick.ChangePercent - (-3.1); diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected change percent -3.1, got %v", tick.ChangePercent)
	}
	if tick.Volume != 1234.5 {
		t.Fatalf("expected volume 1234.5, got %v", tick.Volume)
	}
	if tick.ReceivedAt.UnixMilli() != 1_700_000_000_000 {
		t.Fatalf("expected trade timestamp carried through, got %v", tick.ReceivedAt)
	}
}

func TestNormalizeUpbitFrameRejectsMalformed(t *testing.T) {
	cases := map[string][]byte{
		"invalid json":  []byte(`{not json`),
		"wrong type":    []byte(`{"type":"orderbook","code":"KRW-BTC","trade_price":100}`),
		"missing code":  []byte(`{"type":"ticker","trade_price":100}`),
		"missing price": []byte(`{"type":"ticker","code":"KRW-BTC"}`),
		"zero price":    []byte(`{"type":"ticker","code":"KRW-BTC","trade_price":0}`),
	}
	for name, frame := range cases {
		if _, err := normalizeUpbitFrame(frame); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
