// Package history keeps bounded per-symbol price series feeding indicator math.
package history

import "sync"

// DefaultCapacity bounds each per-symbol price buffer.
const DefaultCapacity = 100

// Ring is a fixed-capacity FIFO of prices. Oldest entries are evicted once
// the buffer fills.
type Ring struct {
	values []float64
	size   int
	index  int
	filled bool
}

// NewRing allocates a ring holding at most size prices.
func NewRing(size int) *Ring {
	if size <= 0 {
		size = DefaultCapacity
	}
	return &Ring{
		values: make([]float64, size),
		size:   size,
	}
}

// Add appends a price, evicting the oldest beyond capacity.
func (r *Ring) Add(value float64) {
	r.values[r.index] = value
	r.index = (r.index + 1) % r.size
	if r.index == 0 {
		r.filled = true
	}
}

// Len reports how many prices the ring currently holds.
func (r *Ring) Len() int {
	if r.filled {
		return r.size
	}
	return r.index
}

// Values returns the held prices in chronological order.
func (r *Ring) Values() []float64 {
	length := r.Len()
	result := make([]float64, 0, length)
	if length == 0 {
		return result
	}
	if r.filled {
		result = append(result, r.values[r.index:]...)
	}
	result = append(result, r.values[:r.index]...)
	return result
}

// Last returns the most recent price, or 0 when empty.
func (r *Ring) Last() float64 {
	if r.Len() == 0 {
		return 0
	}
	idx := r.index - 1
	if idx < 0 {
		idx = r.size - 1
	}
	return r.values[idx]
}

// Store maps symbols onto bounded price rings. A symbol's ring is created on
// first record; writes for different symbols never contend on the same ring.
type Store struct {
	mu       sync.RWMutex
	capacity int
	rings    map[string]*Ring
}

// NewStore builds an empty store with the given per-symbol capacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		rings:    make(map[string]*Ring),
	}
}

// Record appends a price to the symbol's buffer, creating it on first use.
// Non-positive prices are ignored.
func (s *Store) Record(symbol string, price float64) {
	if symbol == "" || price <= 0 {
		return
	}
	s.mu.Lock()
	ring := s.rings[symbol]
	if ring == nil {
		ring = NewRing(s.capacity)
		s.rings[symbol] = ring
	}
	ring.Add(price)
	s.mu.Unlock()
}

// Prices returns a chronological copy of the symbol's buffer.
func (s *Store) Prices(symbol string) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ring := s.rings[symbol]
	if ring == nil {
		return nil
	}
	return ring.Values()
}

// Len reports how many prices are buffered for the symbol.
func (s *Store) Len(symbol string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ring := s.rings[symbol]
	if ring == nil {
		return 0
	}
	return ring.Len()
}

// Symbols lists every symbol with at least one recorded price.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.rings))
	for sym := range s.rings {
		out = append(out, sym)
	}
	return out
}

// Reset drops every buffer. Only a full engine reset calls this; the ledger
// reset leaves price history untouched.
func (s *Store) Reset() {
	s.mu.Lock()
	s.rings = make(map[string]*Ring)
	s.mu.Unlock()
}
