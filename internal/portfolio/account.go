// Package portfolio tracks virtual cash, holdings, and trade history while
// signals execute in paper mode.
package portfolio

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"coinwise-go/internal/allocation"
	"coinwise-go/internal/execution"
	"coinwise-go/internal/market"
	"coinwise-go/internal/metrics"
)

const epsilon = 1e-9

// TradeRecorder captures executed trades for later inspection.
type TradeRecorder interface {
	Record(execution.Trade)
}

type holdingState struct {
	Qty       float64
	AvgPrice  float64
	LastPrice float64
}

// Holding exposes a read-only view of a single position with derived fields.
type Holding struct {
	Symbol       string
	Quantity     float64
	AvgPrice     float64
	LastPrice    float64
	CurrentValue float64
	ProfitRate   float64
}

// Performance aggregates realized results across the session.
type Performance struct {
	TotalReturn float64 // (totalValue - baseline) / baseline
	WinRate     float64 // profitable sells / total sells
	RealizedPnL float64
}

// Summary is a consistent snapshot of the ledger.
type Summary struct {
	Cash         float64
	BaselineCash float64
	TotalValue   float64
	Holdings     []Holding
	Trades       []execution.Trade
	Performance  Performance
}

// Account is the paper ledger. Every mutation runs under one mutex so that
// two concurrent evaluations can never both pass a stale cash check.
type Account struct {
	mu           sync.Mutex
	baselineCash float64
	cash         float64
	minNotional  float64
	holdings     map[string]*holdingState
	trades       []execution.Trade
	realizedPnL  float64
	totalSells   int
	winningSells int
	recorder     TradeRecorder
	log          zerolog.Logger
}

// NewAccount constructs a ledger seeded with baseline cash. minNotional
// rejects dust buys; recorder may be nil.
func NewAccount(baselineCash, minNotional float64, recorder TradeRecorder, log zerolog.Logger) *Account {
	return &Account{
		baselineCash: baselineCash,
		cash:         baselineCash,
		minNotional:  minNotional,
		holdings:     make(map[string]*holdingState),
		recorder:     recorder,
		log:          log,
	}
}

// BaselineCash returns the starting bankroll.
func (a *Account) BaselineCash() float64 { return a.baselineCash }

// ExecuteSignal applies an accepted signal to the ledger under the supplied
// allocation plan. Infeasible executions come back as structured rejections;
// an error is returned only for malformed signals, which indicate an upstream
// defect.
func (a *Account) ExecuteSignal(sig market.Signal, plan allocation.Plan) (execution.Result, error) {
	if sig.Symbol == "" || sig.Price <= 0 {
		return execution.Result{}, fmt.Errorf("malformed signal: symbol=%q price=%.8f", sig.Symbol, sig.Price)
	}
	if sig.Type != market.SignalBuy && sig.Type != market.SignalSell {
		return execution.Result{}, fmt.Errorf("malformed signal: unknown type %q", sig.Type)
	}
	mult := sig.SizeMultiplier
	if mult <= 0 {
		mult = 1
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var result execution.Result
	switch sig.Type {
	case market.SignalBuy:
		result = a.buyLocked(sig, plan, mult)
	case market.SignalSell:
		result = a.sellLocked(sig, mult)
	}

	if result.Executed {
		trade := *result.Trade
		a.trades = append(a.trades, trade)
		metrics.TradesTotal.WithLabelValues(trade.Symbol, string(trade.Side)).Inc()
		if a.recorder != nil {
			a.recorder.Record(trade)
		}
		a.log.Info().
			Str("sym", trade.Symbol).
			Str("side", string(trade.Side)).
			Float64("qty", trade.Quantity).
			Float64("px", trade.Price).
			Float64("amount", trade.Amount).
			Msg("trade executed")
	} else {
		metrics.TradeRejectsTotal.WithLabelValues(result.Reason).Inc()
		a.log.Debug().
			Str("sym", sig.Symbol).
			Str("side", string(sig.Type)).
			Str("reason", result.Reason).
			Msg("trade rejected")
	}
	return result, nil
}

func (a *Account) buyLocked(sig market.Signal, plan allocation.Plan, mult float64) execution.Result {
	amount := a.totalValueLocked() * plan.MaxPositionSize * mult
	if amount > a.cash {
		amount = a.cash
	}
	if amount <= epsilon {
		return execution.Rejected(execution.ReasonInsufficientCash)
	}
	if a.minNotional > 0 && amount < a.minNotional {
		return execution.Rejected(execution.ReasonBelowMinNotional)
	}

	qty := amount / sig.Price
	state := a.holdings[sig.Symbol]
	if state == nil {
		state = &holdingState{}
		a.holdings[sig.Symbol] = state
	}
	newQty := state.Qty + qty
	state.AvgPrice = (state.AvgPrice*state.Qty + amount) / newQty
	state.Qty = newQty
	state.LastPrice = sig.Price
	a.cash -= amount

	return execution.Filled(execution.NewTrade(sig.Symbol, execution.Buy, sig.Price, qty, amount, a.stamp(sig.Ts)))
}

func (a *Account) sellLocked(sig market.Signal, mult float64) execution.Result {
	state := a.holdings[sig.Symbol]
	if state == nil || state.Qty <= epsilon {
		return execution.Rejected(execution.ReasonNothingHeld)
	}
	if mult > 1 {
		mult = 1
	}
	qty := state.Qty * mult
	if qty > state.Qty {
		qty = state.Qty
	}
	amount := qty * sig.Price
	realized := (sig.Price - state.AvgPrice) * qty

	a.cash += amount
	a.realizedPnL += realized
	a.totalSells++
	if realized > 0 {
		a.winningSells++
	}

	state.Qty -= qty
	state.LastPrice = sig.Price
	if state.Qty <= epsilon {
		delete(a.holdings, sig.Symbol)
	}

	trade := execution.NewTrade(sig.Symbol, execution.Sell, sig.Price, qty, amount, a.stamp(sig.Ts))
	trade.RealizedProfit = realized
	trade.Reason = sig.Reason
	return execution.Filled(trade)
}

func (a *Account) stamp(ts time.Time) time.Time {
	if ts.IsZero() {
		return time.Now()
	}
	return ts
}

// UpdatePrice revalues a held symbol with the latest tick price. It never
// creates a trade; unknown symbols are a no-op.
func (a *Account) UpdatePrice(symbol string, price float64) {
	if price <= 0 {
		return
	}
	a.mu.Lock()
	if state, ok := a.holdings[symbol]; ok {
		state.LastPrice = price
	}
	a.mu.Unlock()
}

// Position returns the current holding view for a symbol.
func (a *Account) Position(symbol string) (Holding, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	state, ok := a.holdings[symbol]
	if !ok {
		return Holding{}, false
	}
	return a.holdingViewLocked(symbol, state), true
}

// Exposure reports the cash ratio of the portfolio and the symbol's share of
// total value; both feed the buy-side gates.
func (a *Account) Exposure(symbol string) (cashRatio, positionRatio float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	total := a.totalValueLocked()
	if total <= epsilon {
		return 0, 0
	}
	cashRatio = a.cash / total
	if state, ok := a.holdings[symbol]; ok {
		positionRatio = state.Qty * state.LastPrice / total
	}
	return cashRatio, positionRatio
}

// Summary returns a consistent snapshot of cash, holdings, trade history, and
// performance stats.
func (a *Account) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	holdings := make([]Holding, 0, len(a.holdings))
	for sym, state := range a.holdings {
		holdings = append(holdings, a.holdingViewLocked(sym, state))
	}
	trades := make([]execution.Trade, len(a.trades))
	copy(trades, a.trades)

	total := a.totalValueLocked()
	perf := Performance{RealizedPnL: a.realizedPnL}
	if a.baselineCash > 0 {
		perf.TotalReturn = (total - a.baselineCash) / a.baselineCash
	}
	if a.totalSells > 0 {
		perf.WinRate = float64(a.winningSells) / float64(a.totalSells)
	}

	return Summary{
		Cash:         a.cash,
		BaselineCash: a.baselineCash,
		TotalValue:   total,
		Holdings:     holdings,
		Trades:       trades,
		Performance:  perf,
	}
}

// Reset restores baseline cash and clears holdings and trade history. Price
// history is owned elsewhere and unaffected.
func (a *Account) Reset() {
	a.mu.Lock()
	a.cash = a.baselineCash
	a.holdings = make(map[string]*holdingState)
	a.trades = nil
	a.realizedPnL = 0
	a.totalSells = 0
	a.winningSells = 0
	a.mu.Unlock()
	a.log.Info().Msg("ledger reset to baseline")
}

func (a *Account) holdingViewLocked(symbol string, state *holdingState) Holding {
	h := Holding{
		Symbol:       symbol,
		Quantity:     state.Qty,
		AvgPrice:     state.AvgPrice,
		LastPrice:    state.LastPrice,
		CurrentValue: state.Qty * state.LastPrice,
	}
	if state.AvgPrice > 0 {
		h.ProfitRate = (state.LastPrice - state.AvgPrice) / state.AvgPrice
	}
	return h
}

func (a *Account) totalValueLocked() float64 {
	total := a.cash
	for _, state := range a.holdings {
		total += state.Qty * state.LastPrice
	}
	return total
}
