package strategy

import (
	"fmt"

	"coinwise-go/internal/market"
)

// candidate is a fully formed decision produced by one rule.
type candidate struct {
	side       market.SignalType
	multiplier float64
	reason     string
}

type rule struct {
	name string
	eval func(in Input, composite float64, cfg Config) *candidate
}

// orderedRules is evaluated top to bottom; the first match wins. Stop-loss
// always holds top priority.
var orderedRules = []rule{
	{"stop_loss", stopLossRule},
	{"dip_buy", dipBuyRule},
	{"threshold_sell", thresholdSellRule},
	{"take_profit_sell", takeProfitSellRule},
	{"weak_signal_sell", weakSignalSellRule},
}

// stopLossRule exits a held position once its loss breaches the stop, no
// matter what the other gates say. Stop-loss sells always use full size.
func stopLossRule(in Input, _ float64, cfg Config) *candidate {
	if !in.Held || in.ProfitRate > cfg.StopLossRate {
		return nil
	}
	return &candidate{
		side:       market.SignalSell,
		multiplier: 1.0,
		reason:     fmt.Sprintf("stop loss: profit %.2f%% <= %.2f%%", in.ProfitRate*100, cfg.StopLossRate*100),
	}
}

// dipBuyRule buys a dip when the composite is strong enough and both the
// reserve-cash and per-symbol allocation gates leave headroom.
func dipBuyRule(in Input, composite float64, cfg Config) *candidate {
	if in.Tick.ChangePercent > cfg.BuyThreshold {
		return nil
	}
	if composite < cfg.MinBuyScore {
		return nil
	}
	if !in.Plan.Feasible {
		return nil
	}
	if in.CashRatio <= in.Plan.ReserveCashRatio {
		return nil
	}
	if in.PositionRatio >= in.Plan.MaxPositionSize {
		return nil
	}

	multiplier := 0.7
	switch market.StrengthFor(composite) {
	case market.StrengthVeryStrong, market.StrengthStrong:
		multiplier = 1.5
	case market.StrengthModerate:
		multiplier = 1.0
	}
	return &candidate{
		side:       market.SignalBuy,
		multiplier: multiplier,
		reason:     fmt.Sprintf("dip buy: change %.2f%% composite %.1f", in.Tick.ChangePercent, composite),
	}
}

// thresholdSellRule trims a holding into a rally the composite does not back.
func thresholdSellRule(in Input, composite float64, cfg Config) *candidate {
	if !in.Held || in.Tick.ChangePercent < cfg.SellThreshold || composite >= cfg.WeakSellCutoff {
		return nil
	}
	return &candidate{
		side:       market.SignalSell,
		multiplier: 0.5,
		reason:     fmt.Sprintf("rally sell: change %.2f%% composite %.1f", in.Tick.ChangePercent, composite),
	}
}

// takeProfitSellRule locks in profit once the target is reached while RSI
// shows overbought conditions.
func takeProfitSellRule(in Input, _ float64, cfg Config) *candidate {
	if !in.Held || in.ProfitRate < cfg.TakeProfitRate || in.Technical.RSI < cfg.RSIOverbought {
		return nil
	}
	return &candidate{
		side:       market.SignalSell,
		multiplier: 0.8,
		reason:     fmt.Sprintf("take profit: %.2f%% rsi %.0f", in.ProfitRate*100, in.Technical.RSI),
	}
}

// weakSignalSellRule sheds a small winner when the technical picture turns
// very weak. Thresholds are externally supplied configuration.
func weakSignalSellRule(in Input, _ float64, cfg Config) *candidate {
	if !in.Held || in.Technical.Strength != market.StrengthVeryWeak {
		return nil
	}
	if in.ProfitRate <= 0 || in.ProfitRate > cfg.WeakSellMaxProfitRate {
		return nil
	}
	return &candidate{
		side:       market.SignalSell,
		multiplier: 0.3,
		reason:     fmt.Sprintf("weak signal: strength %s profit %.2f%%", in.Technical.Strength, in.ProfitRate*100),
	}
}
