// Package engine wires the tick pipeline: history update, indicator scoring,
// sentiment fetch, signal decision, and ledger execution.
package engine

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"coinwise-go/internal/allocation"
	"coinwise-go/internal/exchange"
	"coinwise-go/internal/history"
	"coinwise-go/internal/indicator"
	"coinwise-go/internal/market"
	"coinwise-go/internal/monitor"
	"coinwise-go/internal/portfolio"
	"coinwise-go/internal/sentiment"
	"coinwise-go/internal/strategy"
)

const (
	defaultWorkers       = 4
	defaultTickBuffer    = 1024
	defaultShardBuffer   = 256
	defaultSweepInterval = 3 * time.Minute
)

// Config bounds the pipeline and carries the allocation settings.
type Config struct {
	Symbols          []string
	MaxCoinsToTrade  int
	ReserveCashRatio float64
	Workers          int
	TickBuffer       int
	SweepInterval    time.Duration
}

// Deps are the collaborators the engine orchestrates.
type Deps struct {
	Feed       *exchange.Connector
	History    *history.Store
	Calculator *indicator.Calculator
	Sentiment  sentiment.Provider
	Generator  *strategy.Generator
	Account    *portfolio.Account
	Sink       monitor.Sink
	Log        zerolog.Logger
}

// Engine runs one pipeline per inbound tick. Ticks are partitioned across a
// bounded worker set by symbol hash, so processing stays ordered per symbol
// while different symbols proceed concurrently.
type Engine struct {
	cfg  Config
	deps Deps

	mu        sync.RWMutex
	active    bool
	cancel    context.CancelFunc
	startedAt time.Time
	wg        sync.WaitGroup

	signalSubs []func(market.Signal)

	ticks   atomic.Uint64
	signals atomic.Uint64
	trades  atomic.Uint64
	rejects atomic.Uint64
}

// Stats is a monitoring snapshot of pipeline throughput.
type Stats struct {
	Active    bool
	Uptime    time.Duration
	Ticks     uint64
	Signals   uint64
	Trades    uint64
	Rejects   uint64
	LastTicks map[string]time.Time
}

// New builds an engine, filling unset config fields with defaults.
func New(cfg Config, deps Deps) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.TickBuffer <= 0 {
		cfg.TickBuffer = defaultTickBuffer
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if cfg.MaxCoinsToTrade <= 0 {
		cfg.MaxCoinsToTrade = len(cfg.Symbols)
	}
	return &Engine{cfg: cfg, deps: deps}
}

// Start opens the feed and launches the worker pool. It returns once the
// pipeline is running; Stop tears it down.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.active {
		e.mu.Unlock()
		return fmt.Errorf("engine already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.active = true
	e.cancel = cancel
	e.startedAt = time.Now()
	e.mu.Unlock()

	ticks := make(chan market.Tick, e.cfg.TickBuffer)
	if err := e.deps.Feed.Start(runCtx, ticks); err != nil {
		e.mu.Lock()
		e.active = false
		e.mu.Unlock()
		cancel()
		return fmt.Errorf("start feed: %w", err)
	}

	shards := make([]chan market.Tick, e.cfg.Workers)
	for i := range shards {
		shards[i] = make(chan market.Tick, defaultShardBuffer)
	}

	for _, shard := range shards {
		e.wg.Add(1)
		go e.worker(runCtx, shard)
	}

	e.wg.Add(1)
	go e.dispatch(runCtx, ticks, shards)

	e.wg.Add(1)
	go e.sweeper(runCtx)

	e.deps.Sink.Log("engine started", monitor.LevelInfo)
	return nil
}

// Stop cancels the pipeline, tears down the feed (including any pending
// reconnect), and waits for in-flight work to drain.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return
	}
	e.active = false
	cancel := e.cancel
	e.mu.Unlock()

	cancel()
	e.deps.Feed.Stop()
	e.wg.Wait()
	e.deps.Sink.Log("engine stopped", monitor.LevelInfo)
}

func (e *Engine) isActive() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.active
}

// dispatch routes ticks to a fixed shard per symbol, preserving per-symbol
// ordering across the concurrent workers.
func (e *Engine) dispatch(ctx context.Context, ticks <-chan market.Tick, shards []chan market.Tick) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-ticks:
			shard := shards[shardFor(tick.Symbol, len(shards))]
			select {
			case shard <- tick:
			case <-ctx.Done():
				return
			}
		}
	}
}

func shardFor(symbol string, shards int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	return int(h.Sum32() % uint32(shards))
}

func (e *Engine) worker(ctx context.Context, shard <-chan market.Tick) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-shard:
			e.processTick(ctx, tick)
		}
	}
}

// sweeper expires cooldown/result caches on a low-priority timer, outside the
// hot path.
func (e *Engine) sweeper(ctx context.Context) {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.deps.Generator.Sweep()
			if cached, ok := e.deps.Sentiment.(*sentiment.Cached); ok {
				cached.Sweep()
			}
		}
	}
}

// processTick runs one full pipeline pass. Every mutating stage re-checks the
// active flag because the sentiment fetch can outlive a Stop call.
func (e *Engine) processTick(ctx context.Context, tick market.Tick) {
	if !e.isActive() {
		return
	}
	e.ticks.Add(1)

	e.deps.History.Record(tick.Symbol, tick.Price)
	e.deps.Account.UpdatePrice(tick.Symbol, tick.Price)

	tech := e.deps.Calculator.Compute(e.deps.History.Prices(tick.Symbol), tick.ChangePercent, tick.Volume)

	// Dominant suspension point: the provider may block on I/O while other
	// symbols keep flowing through their own shards.
	sent, err := e.deps.Sentiment.Score(ctx, tick.Symbol)
	if err != nil {
		sent = sentiment.Neutral()
	}
	if ctx.Err() != nil || !e.isActive() {
		return
	}

	plan := allocation.Compute(e.cfg.Symbols, e.cfg.MaxCoinsToTrade, e.cfg.ReserveCashRatio)
	cashRatio, positionRatio := e.deps.Account.Exposure(tick.Symbol)
	holding, held := e.deps.Account.Position(tick.Symbol)

	in := strategy.Input{
		Tick:            tick,
		Technical:       tech,
		Sentiment:       sent,
		Held:            held,
		HoldingQuantity: holding.Quantity,
		ProfitRate:      holding.ProfitRate,
		CashRatio:       cashRatio,
		PositionRatio:   positionRatio,
		Plan:            plan,
	}
	sig := e.deps.Generator.Evaluate(in)
	if sig == nil {
		return
	}
	e.signals.Add(1)
	e.notifySignal(*sig)

	if !e.isActive() {
		return
	}
	result, err := e.deps.Account.ExecuteSignal(*sig, plan)
	if err != nil {
		// Malformed signal shape is an upstream defect, the only hard error.
		e.deps.Log.Error().Err(err).Str("sym", sig.Symbol).Msg("signal execution failed")
		e.deps.Sink.Log(fmt.Sprintf("execution error for %s: %v", sig.Symbol, err), monitor.LevelError)
		return
	}
	if result.Executed {
		e.trades.Add(1)
		e.deps.Sink.Log(fmt.Sprintf("%s %s qty=%.6f px=%.2f (%s)",
			result.Trade.Side, result.Trade.Symbol, result.Trade.Quantity, result.Trade.Price, sig.Reason), monitor.LevelInfo)
	} else {
		e.rejects.Add(1)
		e.deps.Sink.Log(fmt.Sprintf("%s %s rejected: %s", sig.Type, sig.Symbol, result.Reason), monitor.LevelWarn)
	}
}

// SubscribeSignals registers a callback invoked for every emitted signal.
func (e *Engine) SubscribeSignals(fn func(market.Signal)) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	e.signalSubs = append(e.signalSubs, fn)
	e.mu.Unlock()
}

func (e *Engine) notifySignal(sig market.Signal) {
	e.mu.RLock()
	subs := make([]func(market.Signal), len(e.signalSubs))
	copy(subs, e.signalSubs)
	e.mu.RUnlock()
	for _, fn := range subs {
		fn(sig)
	}
}

// PortfolioSummary exposes the ledger snapshot for the presentation layer.
func (e *Engine) PortfolioSummary() portfolio.Summary {
	return e.deps.Account.Summary()
}

// Stats reports pipeline throughput and per-symbol feed liveness.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	active := e.active
	startedAt := e.startedAt
	e.mu.RUnlock()

	var uptime time.Duration
	if active {
		uptime = time.Since(startedAt)
	}
	return Stats{
		Active:    active,
		Uptime:    uptime,
		Ticks:     e.ticks.Load(),
		Signals:   e.signals.Load(),
		Trades:    e.trades.Load(),
		Rejects:   e.rejects.Load(),
		LastTicks: e.deps.Feed.LastTicks(),
	}
}

// ResetLedger restores the paper ledger to baseline. Price history survives;
// only FullReset clears it.
func (e *Engine) ResetLedger() {
	e.deps.Account.Reset()
	e.deps.Sink.Log("ledger reset", monitor.LevelInfo)
}

// FullReset restores the ledger and drops all buffered price history.
func (e *Engine) FullReset() {
	e.deps.Account.Reset()
	e.deps.History.Reset()
	e.deps.Sink.Log("full engine reset", monitor.LevelInfo)
}
