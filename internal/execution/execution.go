// Package execution defines the trade records and rejection results produced
// when signals are applied to the paper ledger.
package execution

import (
	"time"

	"coinwise-go/pkg/id"
)

// Side enumerates trade directions.
type Side string

const (
	// Buy indicates a long fill.
	Buy Side = "BUY"
	// Sell indicates a position reduction.
	Sell Side = "SELL"
)

// Rejection reasons surfaced in Result.Reason. Rejections are structured
// values, never errors.
const (
	ReasonInsufficientCash = "insufficient_cash"
	ReasonBelowMinNotional = "below_min_notional"
	ReasonNothingHeld      = "nothing_held"
)

// Trade is an immutable record of one executed paper fill.
type Trade struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	Side           Side      `json:"side"`
	Price          float64   `json:"price"`
	Quantity       float64   `json:"quantity"`
	Amount         float64   `json:"amount"`
	RealizedProfit float64   `json:"realized_profit,omitempty"` // SELL only
	Reason         string    `json:"reason,omitempty"`
	Ts             time.Time `json:"ts"`
}

// NewTrade stamps a fill with a time-sortable identifier.
func NewTrade(symbol string, side Side, price, qty, amount float64, ts time.Time) Trade {
	return Trade{
		ID:       id.New(),
		Symbol:   symbol,
		Side:     side,
		Price:    price,
		Quantity: qty,
		Amount:   amount,
		Ts:       ts,
	}
}

// Result reports the outcome of applying one signal to the ledger.
type Result struct {
	Executed bool
	Reason   string
	Trade    *Trade
}

// Rejected wraps a structured non-fatal rejection.
func Rejected(reason string) Result {
	return Result{Reason: reason}
}

// Filled wraps a successful execution.
func Filled(trade Trade) Result {
	return Result{Executed: true, Trade: &trade}
}
