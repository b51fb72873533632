// Package sentiment consumes externally computed sentiment scores. The text
// analysis pipeline itself lives outside this engine; only its numeric output
// is read here.
package sentiment

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"coinwise-go/internal/market"
)

// Provider hands back the latest sentiment reading for a symbol.
type Provider interface {
	Score(ctx context.Context, symbol string) (market.SentimentScore, error)
}

// Neutral is the default reading used when no sentiment is available.
// A provider failure degrades to this value, treated as a normal result.
func Neutral() market.SentimentScore {
	return market.SentimentScore{
		Score:    5,
		Strength: market.StrengthWeak,
		Trend:    market.TrendFlat,
	}
}

// Static serves fixed per-symbol readings; unknown symbols get the neutral
// default. Useful for tests and offline runs.
type Static struct {
	mu     sync.RWMutex
	scores map[string]market.SentimentScore
}

// NewStatic builds a static provider from the given readings (may be nil).
func NewStatic(scores map[string]market.SentimentScore) *Static {
	if scores == nil {
		scores = make(map[string]market.SentimentScore)
	}
	return &Static{scores: scores}
}

// Set replaces the reading for a symbol.
func (s *Static) Set(symbol string, score market.SentimentScore) {
	s.mu.Lock()
	s.scores[symbol] = score
	s.mu.Unlock()
}

// Score returns the stored reading or the neutral default.
func (s *Static) Score(_ context.Context, symbol string) (market.SentimentScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if score, ok := s.scores[symbol]; ok {
		return score, nil
	}
	return Neutral(), nil
}

// Clock abstracts time for cache expiry in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a wall-clock implementation.
func SystemClock() Clock { return systemClock{} }

type cacheEntry struct {
	score market.SentimentScore
	at    time.Time
}

// Cached decorates a Provider with a per-symbol TTL cache and downgrades
// provider failures to the neutral default.
type Cached struct {
	inner Provider
	ttl   time.Duration
	clock Clock
	log   zerolog.Logger

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCached wraps the inner provider with a TTL cache.
func NewCached(inner Provider, ttl time.Duration, clock Clock, log zerolog.Logger) *Cached {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Cached{
		inner:   inner,
		ttl:     ttl,
		clock:   clock,
		log:     log,
		entries: make(map[string]cacheEntry),
	}
}

// Score serves from cache while fresh; otherwise it consults the inner
// provider. A fetch failure is logged and answered with the neutral default.
func (c *Cached) Score(ctx context.Context, symbol string) (market.SentimentScore, error) {
	now := c.clock.Now()

	c.mu.Lock()
	if entry, ok := c.entries[symbol]; ok && now.Sub(entry.at) < c.ttl {
		c.mu.Unlock()
		return entry.score, nil
	}
	c.mu.Unlock()

	score, err := c.inner.Score(ctx, symbol)
	if err != nil {
		c.log.Warn().Err(err).Str("sym", symbol).Msg("sentiment fetch failed, using neutral")
		return Neutral(), nil
	}

	c.mu.Lock()
	c.entries[symbol] = cacheEntry{score: score, at: now}
	c.mu.Unlock()
	return score, nil
}

// Sweep drops expired cache entries; called from a background timer.
func (c *Cached) Sweep() {
	now := c.clock.Now()
	c.mu.Lock()
	for sym, entry := range c.entries {
		if now.Sub(entry.at) >= c.ttl {
			delete(c.entries, sym)
		}
	}
	c.mu.Unlock()
}
