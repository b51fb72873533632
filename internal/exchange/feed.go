// Package exchange hosts connectors for market data streams and venue metadata.
package exchange

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"coinwise-go/internal/market"
	"coinwise-go/internal/metrics"
)

const (
	// ProviderStub emits deterministic synthetic ticks (useful for tests/offline work).
	ProviderStub = "stub"
	// ProviderUpbit streams live KRW ticker frames from Upbit public websockets.
	ProviderUpbit = "upbit"
)

const (
	defaultReconnectDelay = 5 * time.Second
	defaultDialTimeout    = 10 * time.Second
)

// Connector maintains a push subscription to a ticker stream and normalizes
// inbound frames into market.Tick. While active it reconnects after a fixed
// delay on connection loss; Stop cancels any pending reconnect.
type Connector struct {
	provider       string
	log            zerolog.Logger
	reconnectDelay time.Duration
	dialTimeout    time.Duration
	upbitURL       string

	mu        sync.RWMutex
	symbols   []string
	lastTicks map[string]time.Time
	active    bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// Option configures Connector construction parameters.
type Option func(*Connector)

// WithReconnectDelay overrides the fixed delay between reconnect attempts.
func WithReconnectDelay(d time.Duration) Option {
	return func(c *Connector) {
		if d > 0 {
			c.reconnectDelay = d
		}
	}
}

// WithUpbitURL points the connector at an alternate websocket endpoint.
func WithUpbitURL(url string) Option {
	return func(c *Connector) {
		if url != "" {
			c.upbitURL = url
		}
	}
}

// NewConnector constructs a connector backed by the requested provider.
func NewConnector(provider string, symbols []string, log zerolog.Logger, opts ...Option) *Connector {
	if provider == "" {
		provider = ProviderStub
	}
	c := &Connector{
		provider:       strings.ToLower(provider),
		log:            log,
		reconnectDelay: defaultReconnectDelay,
		dialTimeout:    defaultDialTimeout,
		upbitURL:       defaultUpbitURL,
		lastTicks:      make(map[string]time.Time),
	}
	c.setSymbols(symbols)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetSymbols replaces the tracked symbol list (deduplicated, sorted for
// determinism). A running subscription keeps its old list; changing the set
// while running requires Stop followed by Start.
func (c *Connector) SetSymbols(symbols []string) {
	c.setSymbols(symbols)
}

func (c *Connector) setSymbols(symbols []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	unique := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		sym = strings.TrimSpace(sym)
		if sym == "" {
			continue
		}
		unique[sym] = struct{}{}
	}
	c.symbols = c.symbols[:0]
	for sym := range unique {
		c.symbols = append(c.symbols, sym)
	}
	sort.Strings(c.symbols)
}

func (c *Connector) snapshotSymbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.symbols))
	copy(out, c.symbols)
	return out
}

// Active reports whether the connector currently owns a subscription loop.
func (c *Connector) Active() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// LastTicks returns when each symbol last delivered a tick, for liveness checks.
func (c *Connector) LastTicks() map[string]time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]time.Time, len(c.lastTicks))
	for sym, ts := range c.lastTicks {
		out[sym] = ts
	}
	return out
}

func (c *Connector) markTick(symbol string, ts time.Time) {
	c.mu.Lock()
	c.lastTicks[symbol] = ts
	c.mu.Unlock()
}

// Start opens the subscription and pushes normalized ticks onto out until
// Stop is called or the parent context ends.
func (c *Connector) Start(ctx context.Context, out chan<- market.Tick) error {
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return fmt.Errorf("connector already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.active = true
	c.cancel = cancel
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.run(runCtx, out)
	return nil
}

// Stop tears down the connection and cancels any pending reconnect timer.
// It blocks until the subscription loop has exited.
func (c *Connector) Stop() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.active = false
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	cancel()
	<-done
}

func (c *Connector) run(ctx context.Context, out chan<- market.Tick) {
	defer func() {
		c.mu.Lock()
		c.active = false
		c.mu.Unlock()
		close(c.done)
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		err := c.consume(ctx, out)
		if err == nil || ctx.Err() != nil {
			return
		}
		c.log.Warn().Err(err).Str("provider", c.provider).Msg("feed disconnected, retrying")
		metrics.FeedReconnectsTotal.Inc()
		// Fixed-delay reconnect; Stop cancels the wait through the context.
		select {
		case <-time.After(c.reconnectDelay):
		case <-ctx.Done():
			return
		}
	}
}

func (c *Connector) consume(ctx context.Context, out chan<- market.Tick) error {
	switch c.provider {
	case ProviderUpbit:
		return c.consumeUpbit(ctx, out)
	default:
		return c.consumeStub(ctx, out)
	}
}

// consumeStub synthesizes a deterministic slow price oscillation per symbol.
func (c *Connector) consumeStub(ctx context.Context, out chan<- market.Tick) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	step := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			step++
			for i, sym := range c.snapshotSymbols() {
				base := 100.0 * float64(i+1)
				px := base + math.Sin(float64(step)/10)*base*0.01
				tick := market.Tick{
					Symbol:        sym,
					Price:         px,
					ChangePercent: math.Sin(float64(step)/10) * 2,
					Volume:        1000,
					ReceivedAt:    ts,
				}
				select {
				case out <- tick:
					c.markTick(sym, ts)
					metrics.TicksTotal.WithLabelValues(sym).Inc()
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}
