// Package allocation sizes per-symbol position targets from the active
// universe and the reserve-cash ratio.
package allocation

// Plan carries the per-symbol target fraction of portfolio value. A plan with
// Feasible == false means no symbols were available to allocate; that is an
// explicit result, not an error.
type Plan struct {
	MaxPositionSize   float64 // fraction of total value per symbol
	ReserveCashRatio  float64
	ActiveSymbolCount int
	TargetSymbols     []string
	Feasible          bool
}

// Compute derives a uniform allocation across at most maxSymbols of the
// active list, keeping reserveCashRatio of the portfolio in cash. It is
// recomputed on every call since the universe and settings can change between
// calls; results are never cached.
func Compute(activeSymbols []string, maxSymbols int, reserveCashRatio float64) Plan {
	if reserveCashRatio < 0 {
		reserveCashRatio = 0
	}
	if reserveCashRatio > 1 {
		reserveCashRatio = 1
	}

	activeCount := len(activeSymbols)
	if maxSymbols > 0 && activeCount > maxSymbols {
		activeCount = maxSymbols
	}
	if activeCount == 0 {
		return Plan{ReserveCashRatio: reserveCashRatio}
	}

	targets := make([]string, activeCount)
	copy(targets, activeSymbols[:activeCount])

	return Plan{
		MaxPositionSize:   (1 - reserveCashRatio) / float64(activeCount),
		ReserveCashRatio:  reserveCashRatio,
		ActiveSymbolCount: activeCount,
		TargetSymbols:     targets,
		Feasible:          true,
	}
}
