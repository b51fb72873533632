package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingEvictsOldestBeyondCapacity(t *testing.T) {
	ring := NewRing(3)
	for _, px := range []float64{1, 2, 3, 4, 5} {
		ring.Add(px)
	}

	require.Equal(t, 3, ring.Len())
	assert.Equal(t, []float64{3, 4, 5}, ring.Values())
	assert.Equal(t, 5.0, ring.Last())
}

func TestRingPartialFill(t *testing.T) {
	ring := NewRing(10)
	ring.Add(42)
	ring.Add(43)

	assert.Equal(t, 2, ring.Len())
	assert.Equal(t, []float64{42, 43}, ring.Values())
	assert.Equal(t, 43.0, ring.Last())
}

func TestStoreIsolatesSymbols(t *testing.T) {
	store := NewStore(5)
	store.Record("KRW-BTC", 100)
	store.Record("KRW-BTC", 101)
	store.Record("KRW-ETH", 50)

	assert.Equal(t, []float64{100, 101}, store.Prices("KRW-BTC"))
	assert.Equal(t, []float64{50}, store.Prices("KRW-ETH"))
	assert.Equal(t, 2, store.Len("KRW-BTC"))
	assert.Nil(t, store.Prices("KRW-XRP"))
	assert.ElementsMatch(t, []string{"KRW-BTC", "KRW-ETH"}, store.Symbols())
}

func TestStoreIgnoresInvalidInput(t *testing.T) {
	store := NewStore(5)
	store.Record("", 100)
	store.Record("KRW-BTC", 0)
	store.Record("KRW-BTC", -5)

	assert.Equal(t, 0, store.Len("KRW-BTC"))
	assert.Empty(t, store.Symbols())
}

func TestStoreBoundedPerSymbol(t *testing.T) {
	store := NewStore(100)
	for i := 0; i < 250; i++ {
		store.Record("KRW-BTC", float64(i+1))
	}

	prices := store.Prices("KRW-BTC")
	require.Len(t, prices, 100)
	assert.Equal(t, 151.0, prices[0])
	assert.Equal(t, 250.0, prices[99])
}

func TestStoreReset(t *testing.T) {
	store := NewStore(5)
	store.Record("KRW-BTC", 100)
	store.Reset()

	assert.Equal(t, 0, store.Len("KRW-BTC"))
	assert.Empty(t, store.Symbols())
}
