// Package indicator computes streaming technical scores over buffered prices.
package indicator

import (
	"math"

	"coinwise-go/internal/market"
)

// Config tunes the lookback windows used by the calculator. Zero values fall
// back to the defaults below.
type Config struct {
	MinSamples    int
	RSIPeriod     int
	MAShortPeriod int
	MALongPeriod  int
	TrendLookback int
}

const (
	defaultMinSamples    = 20
	defaultRSIPeriod     = 14
	defaultMAShortPeriod = 20
	defaultMALongPeriod  = 60
	defaultTrendLookback = 5

	neutralScore = 5.0
)

// Sub-score weights for the composite.
const (
	weightRSI    = 0.35
	weightMA     = 0.25
	weightVolume = 0.20
	weightTrend  = 0.20
)

// Calculator turns a price series plus the latest tick stats into a
// TechnicalScore. It never fails: with insufficient data it returns a
// well-formed neutral score.
type Calculator struct {
	cfg Config
}

// NewCalculator builds a calculator, filling unset config fields with defaults.
func NewCalculator(cfg Config) *Calculator {
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = defaultMinSamples
	}
	if cfg.RSIPeriod <= 0 {
		cfg.RSIPeriod = defaultRSIPeriod
	}
	if cfg.MAShortPeriod <= 0 {
		cfg.MAShortPeriod = defaultMAShortPeriod
	}
	if cfg.MALongPeriod <= 0 {
		cfg.MALongPeriod = defaultMALongPeriod
	}
	if cfg.TrendLookback <= 0 {
		cfg.TrendLookback = defaultTrendLookback
	}
	return &Calculator{cfg: cfg}
}

// Neutral returns the well-formed default used whenever the buffer is too
// short to score. Insufficient data is not an error.
func Neutral() market.TechnicalScore {
	return market.TechnicalScore{
		RSI:         50,
		RSIScore:    neutralScore,
		MAScore:     neutralScore,
		VolumeScore: neutralScore,
		TrendScore:  neutralScore,
		TotalScore:  neutralScore,
		Strength:    market.StrengthWeak,
	}
}

// Compute scores the supplied chronological price series. changePercent and
// volume come from the latest tick.
func (c *Calculator) Compute(prices []float64, changePercent, volume float64) market.TechnicalScore {
	if len(prices) < c.cfg.MinSamples {
		return Neutral()
	}

	rsi := relativeStrength(prices, c.cfg.RSIPeriod)
	score := market.TechnicalScore{
		RSI:         rsi,
		RSIScore:    scoreRSI(rsi),
		MAScore:     scoreMA(prices, c.cfg.MAShortPeriod, c.cfg.MALongPeriod),
		VolumeScore: scoreVolume(changePercent, volume),
		TrendScore:  scoreTrend(prices, c.cfg.TrendLookback),
	}
	total := weightRSI*score.RSIScore +
		weightMA*score.MAScore +
		weightVolume*score.VolumeScore +
		weightTrend*score.TrendScore
	score.TotalScore = clamp(total, 0, 10)
	score.Strength = market.StrengthFor(score.TotalScore)
	return score
}

// relativeStrength computes a classic Wilder RSI over the trailing period.
// With no losses in the window the RSI saturates at 100.
func relativeStrength(prices []float64, period int) float64 {
	if len(prices) < period+1 {
		return 50
	}
	window := prices[len(prices)-period-1:]
	var gains, losses float64
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// scoreRSI maps RSI into the discrete contrarian bucket table. Boundaries are
// inclusive on the lower bucket: RSI exactly 30 still scores 9.
func scoreRSI(rsi float64) float64 {
	switch {
	case rsi <= 25:
		return 10
	case rsi <= 30:
		return 9
	case rsi <= 40:
		return 7
	case rsi >= 75:
		return 0
	case rsi >= 70:
		return 1
	case rsi >= 60:
		return 3
	default:
		return neutralScore
	}
}

// scoreMA classifies the latest price against the short MA and, when enough
// data exists, the short MA against the long MA.
func scoreMA(prices []float64, short, long int) float64 {
	if len(prices) < short {
		return neutralScore
	}
	price := prices[len(prices)-1]
	maShort := mean(prices[len(prices)-short:])
	if len(prices) < long {
		switch {
		case price > maShort:
			return 7
		case price < maShort:
			return 3
		default:
			return neutralScore
		}
	}
	maLong := mean(prices[len(prices)-long:])
	switch {
	case price > maShort && maShort > maLong:
		return 9 // strong up
	case price > maShort:
		return 7 // up
	case price < maShort && maShort < maLong:
		return 1 // strong down
	case price < maShort:
		return 3 // down
	default:
		return neutralScore
	}
}

// scoreVolume reacts to the magnitude of the 24h change combined with a
// present volume signal: large move with volume scores high, muted move low.
func scoreVolume(changePercent, volume float64) float64 {
	move := math.Abs(changePercent)
	hasVolume := volume > 0
	switch {
	case move >= 5:
		if hasVolume {
			return 10
		}
		return 7
	case move >= 3:
		if hasVolume {
			return 8
		}
		return 6
	case move >= 1:
		return neutralScore
	default:
		return 3
	}
}

// scoreTrend buckets the short-term percentage delta over the lookback window.
func scoreTrend(prices []float64, lookback int) float64 {
	if len(prices) < lookback+1 {
		return neutralScore
	}
	anchor := prices[len(prices)-lookback-1]
	if anchor <= 0 {
		return neutralScore
	}
	delta := (prices[len(prices)-1] - anchor) / anchor * 100
	switch {
	case delta >= 3:
		return 9
	case delta >= 1.5:
		return 7
	case delta > -1.5:
		return neutralScore
	case delta > -3:
		return 3
	default:
		return 1
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
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
