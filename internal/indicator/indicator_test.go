package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinwise-go/internal/market"
)

func rising(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func TestComputeNeutralBelowMinSamples(t *testing.T) {
	calc := NewCalculator(Config{})

	for _, n := range []int{0, 1, 19} {
		score := calc.Compute(rising(n), 3, 1000)
		assert.InDelta(t, 5.0, score.TotalScore, 1e-9, "n=%d", n)
		assert.Equal(t, market.StrengthWeak, score.Strength, "n=%d", n)
		assert.InDelta(t, 5.0, score.RSIScore, 1e-9)
		assert.InDelta(t, 5.0, score.MAScore, 1e-9)
		assert.InDelta(t, 5.0, score.VolumeScore, 1e-9)
		assert.InDelta(t, 5.0, score.TrendScore, 1e-9)
	}
}

func TestRelativeStrengthSaturatesWithoutLosses(t *testing.T) {
	rsi := relativeStrength(rising(21), 14)
	assert.Equal(t, 100.0, rsi)
}

func TestRelativeStrengthBalancedSeries(t *testing.T) {
	// Alternating equal gains and losses settle at the midpoint.
	prices := make([]float64, 30)
	for i := range prices {
		if i%2 == 0 {
			prices[i] = 100
		} else {
			prices[i] = 101
		}
	}
	rsi := relativeStrength(prices, 14)
	assert.InDelta(t, 50.0, rsi, 1e-6)
}

func TestScoreRSIBuckets(t *testing.T) {
	cases := map[float64]float64{
		20:   10,
		25:   10,
		25.1: 9,
		30:   9, // boundary maps to the inclusive lower bucket
		30.1: 7,
		40:   7,
		50:   5,
		60:   3,
		69.9: 3,
		70:   1,
		74.9: 1,
		75:   0,
		100:  0,
	}
	for rsi, expected := range cases {
		assert.Equal(t, expected, scoreRSI(rsi), "rsi=%.1f", rsi)
	}
}

func TestScoreMATiers(t *testing.T) {
	// Rising 60-sample series: price above MA20 above MA60.
	assert.Equal(t, 9.0, scoreMA(rising(60), 20, 60))

	// Falling series inverts the relationship.
	falling := make([]float64, 60)
	for i := range falling {
		falling[i] = float64(60 - i)
	}
	assert.Equal(t, 1.0, scoreMA(falling, 20, 60))

	// Short buffer: price vs MA20 only.
	short := make([]float64, 20)
	for i := range short {
		short[i] = 100
	}
	short[19] = 101
	assert.Equal(t, 7.0, scoreMA(short, 20, 60))
	short[19] = 99
	assert.Equal(t, 3.0, scoreMA(short, 20, 60))

	// Below the short window there is nothing to compare.
	assert.Equal(t, 5.0, scoreMA(rising(10), 20, 60))
}

func TestScoreVolumeBuckets(t *testing.T) {
	assert.Equal(t, 10.0, scoreVolume(6, 1000))
	assert.Equal(t, 10.0, scoreVolume(-6, 1000))
	assert.Equal(t, 7.0, scoreVolume(6, 0))
	assert.Equal(t, 8.0, scoreVolume(3.5, 500))
	assert.Equal(t, 6.0, scoreVolume(3.5, 0))
	assert.Equal(t, 5.0, scoreVolume(2, 1000))
	assert.Equal(t, 3.0, scoreVolume(0.5, 1000))
}

func TestScoreTrendBuckets(t *testing.T) {
	series := func(last float64) []float64 {
		// anchor is 5 steps back at 100
		return []float64{100, 100, 100, 100, 100, last}
	}
	assert.Equal(t, 9.0, scoreTrend(series(104), 5))
	assert.Equal(t, 7.0, scoreTrend(series(101.6), 5))
	assert.Equal(t, 5.0, scoreTrend(series(100), 5))
	assert.Equal(t, 3.0, scoreTrend(series(97.2), 5))
	assert.Equal(t, 1.0, scoreTrend(series(95), 5))
	assert.Equal(t, 5.0, scoreTrend([]float64{100, 101}, 5))
}

func TestComputeWeightedComposite(t *testing.T) {
	calc := NewCalculator(Config{})

	// Steadily rising series: RSI saturates (sub-score 0), MA strongly up (9),
	// large move with volume (10), trend 60/55-1 ≈ +9.1% (9).
	score := calc.Compute(rising(60), 5, 1000)
	require.Equal(t, 100.0, score.RSI)
	assert.Equal(t, 0.0, score.RSIScore)
	assert.Equal(t, 9.0, score.MAScore)
	assert.Equal(t, 10.0, score.VolumeScore)
	assert.Equal(t, 9.0, score.TrendScore)

	expected := 0.35*0 + 0.25*9 + 0.20*10 + 0.20*9
	assert.InDelta(t, expected, score.TotalScore, 1e-9)
	assert.Equal(t, market.StrengthWeak, score.Strength)
}

func TestComputeNeverOutOfRange(t *testing.T) {
	calc := NewCalculator(Config{})
	for _, change := range []float64{-10, -3, 0, 3, 10} {
		score := calc.Compute(rising(100), change, 1e9)
		assert.GreaterOrEqual(t, score.TotalScore, 0.0)
		assert.LessOrEqual(t, score.TotalScore, 10.0)
	}
}

func TestStrengthLabels(t *testing.T) {
	cases := map[float64]market.Strength{
		9.0: market.StrengthVeryStrong,
		8.5: market.StrengthVeryStrong,
		8.0: market.StrengthStrong,
		7.5: market.StrengthStrong,
		7.0: market.StrengthModerate,
		6.5: market.StrengthModerate,
		6.0: market.StrengthWeak,
		5.5: market.StrengthWeak,
		5.0: market.StrengthVeryWeak,
		0.0: market.StrengthVeryWeak,
	}
	for score, expected := range cases {
		assert.Equal(t, expected, market.StrengthFor(score), "score=%.1f", score)
	}
}
