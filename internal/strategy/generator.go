// Package strategy merges technical and sentiment scores into trading signals
// through an ordered rule chain with per-symbol cooldowns.
package strategy

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"coinwise-go/internal/allocation"
	"coinwise-go/internal/market"
	"coinwise-go/internal/metrics"
)

// Clock abstracts time so cooldown and cache behavior is testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a wall-clock implementation.
func SystemClock() Clock { return systemClock{} }

// Config carries every externally supplied decision threshold. All numbers
// are configuration, not constants; zero values fall back to the defaults in
// withDefaults.
type Config struct {
	BuyThreshold          float64 // changePercent at/below which a dip buy is considered
	SellThreshold         float64 // changePercent at/above which a weak rally sell is considered
	MinBuyScore           float64
	WeakSellCutoff        float64
	StopLossRate          float64 // profitRate at/below which stop-loss fires (negative)
	TakeProfitRate        float64
	WeakSellMaxProfitRate float64
	RSIOversold           float64
	RSIOverbought         float64
	WeightTechnical       float64
	WeightSentiment       float64
	Cooldown              time.Duration
	ResultTTL             time.Duration
}

func (c Config) withDefaults() Config {
	if c.BuyThreshold == 0 {
		c.BuyThreshold = -2.0
	}
	if c.SellThreshold == 0 {
		c.SellThreshold = 2.0
	}
	if c.MinBuyScore == 0 {
		c.MinBuyScore = 7.0
	}
	if c.WeakSellCutoff == 0 {
		c.WeakSellCutoff = 5.0
	}
	if c.StopLossRate == 0 {
		c.StopLossRate = -0.05
	}
	if c.TakeProfitRate == 0 {
		c.TakeProfitRate = 0.10
	}
	if c.WeakSellMaxProfitRate == 0 {
		c.WeakSellMaxProfitRate = 0.01
	}
	if c.RSIOversold == 0 {
		c.RSIOversold = 30
	}
	if c.RSIOverbought == 0 {
		c.RSIOverbought = 70
	}
	if c.WeightTechnical == 0 {
		c.WeightTechnical = 0.7
	}
	if c.WeightSentiment == 0 {
		c.WeightSentiment = 0.3
	}
	if c.Cooldown == 0 {
		c.Cooldown = 5 * time.Minute
	}
	if c.ResultTTL == 0 {
		c.ResultTTL = 30 * time.Second
	}
	return c
}

// Input bundles everything one evaluation needs. The generator never reaches
// into the ledger itself; holding state arrives as a snapshot.
type Input struct {
	Tick            market.Tick
	Technical       market.TechnicalScore
	Sentiment       market.SentimentScore
	Held            bool
	HoldingQuantity float64
	ProfitRate      float64
	CashRatio       float64
	PositionRatio   float64
	Plan            allocation.Plan
}

type resultEntry struct {
	at      time.Time
	emitted bool
}

// Generator owns the per-symbol cooldown map and the short-lived result cache
// that absorbs duplicate near-simultaneous ticks.
type Generator struct {
	cfg   Config
	clock Clock
	log   zerolog.Logger

	mu        sync.Mutex
	cooldowns map[string]time.Time
	results   map[string]resultEntry
}

// NewGenerator builds a generator; a nil clock selects the system clock.
func NewGenerator(cfg Config, clock Clock, log zerolog.Logger) *Generator {
	if clock == nil {
		clock = SystemClock()
	}
	return &Generator{
		cfg:       cfg.withDefaults(),
		clock:     clock,
		log:       log,
		cooldowns: make(map[string]time.Time),
		results:   make(map[string]resultEntry),
	}
}

// Evaluate runs the rule chain and returns an accepted signal, or nil for an
// explicit no-signal outcome. Accepting a signal stamps the symbol's cooldown.
func (g *Generator) Evaluate(in Input) *market.Signal {
	sym := in.Tick.Symbol
	if sym == "" || in.Tick.Price <= 0 {
		return nil
	}
	now := g.clock.Now()

	g.mu.Lock()
	if last, ok := g.cooldowns[sym]; ok && now.Sub(last) < g.cfg.Cooldown {
		g.mu.Unlock()
		return nil
	}
	if entry, ok := g.results[sym]; ok && now.Sub(entry.at) < g.cfg.ResultTTL {
		// A near-simultaneous tick already got an answer; reuse it.
		g.mu.Unlock()
		return nil
	}
	g.mu.Unlock()

	composite := g.compositeScore(in)

	var sig *market.Signal
	for _, r := range orderedRules {
		cand := r.eval(in, composite, g.cfg)
		if cand == nil {
			continue
		}
		sig = &market.Signal{
			Symbol:         sym,
			Type:           cand.side,
			Price:          in.Tick.Price,
			TotalScore:     composite,
			SizeMultiplier: cand.multiplier,
			Reason:         cand.reason,
			Ts:             now,
		}
		g.log.Debug().
			Str("sym", sym).
			Str("rule", r.name).
			Str("side", string(cand.side)).
			Float64("composite", composite).
			Msg("signal candidate accepted")
		break
	}

	g.mu.Lock()
	g.results[sym] = resultEntry{at: now, emitted: sig != nil}
	if sig != nil {
		g.cooldowns[sym] = now
	}
	g.mu.Unlock()

	if sig != nil {
		metrics.SignalsTotal.WithLabelValues(sym, string(sig.Type)).Inc()
	}
	return sig
}

// compositeScore blends the technical and sentiment scores, then applies the
// sentiment-strength alignment multiplier.
func (g *Generator) compositeScore(in Input) float64 {
	wTech := g.cfg.WeightTechnical
	wSent := g.cfg.WeightSentiment
	total := wTech + wSent
	if total <= 0 {
		return in.Technical.TotalScore
	}
	base := (in.Technical.TotalScore*wTech + in.Sentiment.Score*wSent) / total
	return clamp(base*alignmentMultiplier(in.Sentiment), 0, 10)
}

// alignmentMultiplier amplifies the composite when strong sentiment agrees
// with an upward trend and dampens it on strong opposition.
func alignmentMultiplier(sent market.SentimentScore) float64 {
	strong := sent.Strength == market.StrengthStrong || sent.Strength == market.StrengthVeryStrong
	if !strong {
		return 1.0
	}
	switch sent.Trend {
	case market.TrendUp:
		return 1.25
	case market.TrendDown:
		return 0.75
	default:
		return 1.0
	}
}

// Sweep drops expired cooldown and result-cache entries. A low-priority
// background timer calls this outside the hot path.
func (g *Generator) Sweep() {
	now := g.clock.Now()
	g.mu.Lock()
	for sym, last := range g.cooldowns {
		if now.Sub(last) >= g.cfg.Cooldown {
			delete(g.cooldowns, sym)
		}
	}
	for sym, entry := range g.results {
		if now.Sub(entry.at) >= g.cfg.ResultTTL {
			delete(g.results, sym)
		}
	}
	g.mu.Unlock()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
