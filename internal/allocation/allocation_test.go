package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeUniformSplit(t *testing.T) {
	plan := Compute([]string{"KRW-BTC", "KRW-ETH", "KRW-XRP"}, 5, 0.25)

	require.True(t, plan.Feasible)
	assert.Equal(t, 3, plan.ActiveSymbolCount)
	assert.InDelta(t, 0.25, plan.MaxPositionSize, 1e-9)
	assert.Equal(t, []string{"KRW-BTC", "KRW-ETH", "KRW-XRP"}, plan.TargetSymbols)

	// Allocations plus the cash reserve cover the whole portfolio.
	total := plan.MaxPositionSize*float64(plan.ActiveSymbolCount) + plan.ReserveCashRatio
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestComputeTruncatesToMaxSymbols(t *testing.T) {
	symbols := []string{"KRW-BTC", "KRW-ETH", "KRW-XRP", "KRW-SOL"}
	plan := Compute(symbols, 2, 0.2)

	require.True(t, plan.Feasible)
	assert.Equal(t, 2, plan.ActiveSymbolCount)
	assert.Equal(t, []string{"KRW-BTC", "KRW-ETH"}, plan.TargetSymbols)
	assert.InDelta(t, 0.4, plan.MaxPositionSize, 1e-9)
}

func TestComputeEmptyUniverse(t *testing.T) {
	plan := Compute(nil, 5, 0.3)

	assert.False(t, plan.Feasible)
	assert.Equal(t, 0, plan.ActiveSymbolCount)
	assert.Zero(t, plan.MaxPositionSize)
	assert.Empty(t, plan.TargetSymbols)
	assert.InDelta(t, 0.3, plan.ReserveCashRatio, 1e-9)
}

func TestComputeClampsReserveRatio(t *testing.T) {
	plan := Compute([]string{"KRW-BTC"}, 1, -0.5)
	assert.InDelta(t, 1.0, plan.MaxPositionSize, 1e-9)

	plan = Compute([]string{"KRW-BTC"}, 1, 2)
	assert.Zero(t, plan.MaxPositionSize)
	assert.InDelta(t, 1.0, plan.ReserveCashRatio, 1e-9)
}

func TestComputeNeverCachesAcrossCalls(t *testing.T) {
	first := Compute([]string{"KRW-BTC", "KRW-ETH"}, 5, 0.2)
	second := Compute([]string{"KRW-BTC"}, 5, 0.5)

	assert.InDelta(t, 0.4, first.MaxPositionSize, 1e-9)
	assert.InDelta(t, 0.5, second.MaxPositionSize, 1e-9)
}
