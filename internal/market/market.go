// Package market standardizes payloads shared between data ingestion and signal layers.
package market

import "time"

// Tick models one normalized price update for a single trading symbol.
type Tick struct {
	Symbol        string
	Price         float64
	ChangePercent float64 // signed 24h change, e.g. -2.5
	Volume        float64
	ReceivedAt    time.Time
}

// Strength labels a composite score qualitatively.
type Strength string

const (
	StrengthVeryWeak   Strength = "very_weak"
	StrengthWeak       Strength = "weak"
	StrengthModerate   Strength = "moderate"
	StrengthStrong     Strength = "strong"
	StrengthVeryStrong Strength = "very_strong"
)

// StrengthFor maps a 0-10 composite score onto its qualitative label.
func StrengthFor(score float64) Strength {
	switch {
	case score >= 8.5:
		return StrengthVeryStrong
	case score >= 7.5:
		return StrengthStrong
	case score >= 6.5:
		return StrengthModerate
	case score >= 5.5:
		return StrengthWeak
	default:
		return StrengthVeryWeak
	}
}

// TechnicalScore bundles the indicator sub-scores with the weighted composite.
type TechnicalScore struct {
	RSI         float64
	MAScore     float64
	VolumeScore float64
	TrendScore  float64
	RSIScore    float64
	TotalScore  float64 // 0-10
	Strength    Strength
}

// Trend expresses the direction attached to a sentiment reading.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// SentimentScore is the externally supplied sentiment shape; the engine
// consumes it but never computes it.
type SentimentScore struct {
	Score    float64 // 0-10
	Strength Strength
	Trend    Trend
}

// SignalType enumerates the directions a signal can take.
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
)

// Signal expresses an actionable trading decision for a single symbol.
// Only accepted signals become trades.
type Signal struct {
	Symbol         string
	Type           SignalType
	Price          float64
	TotalScore     float64
	SizeMultiplier float64
	Reason         string
	Ts             time.Time
}
