package exchange

import "strings"

// Metadata reports whether a symbol is tradable on the venue. It is consulted
// only at startup or when the subscription set changes.
type Metadata interface {
	Tradable(symbol string) bool
}

// StaticMetadata marks every symbol tradable except an explicit deny list.
type StaticMetadata struct {
	disabled map[string]struct{}
}

// NewStaticMetadata builds a metadata source from a deny list (may be empty).
func NewStaticMetadata(disabled []string) *StaticMetadata {
	set := make(map[string]struct{}, len(disabled))
	for _, sym := range disabled {
		sym = strings.TrimSpace(sym)
		if sym != "" {
			set[sym] = struct{}{}
		}
	}
	return &StaticMetadata{disabled: set}
}

// Tradable implements Metadata.
func (m *StaticMetadata) Tradable(symbol string) bool {
	_, blocked := m.disabled[symbol]
	return !blocked
}

// FilterTradable drops symbols the venue reports as untradable.
func FilterTradable(meta Metadata, symbols []string) []string {
	if meta == nil {
		return symbols
	}
	out := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if meta.Tradable(sym) {
			out = append(out, sym)
		}
	}
	return out
}
