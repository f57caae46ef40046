package domain

import (
	"fmt"
	"strings"
)

// Pair describes a tradable instrument: buying the pair spends Quote to
// acquire Base, selling spends Base to acquire Quote.
type Pair struct {
	Name  string
	Base  string
	Quote string
}

// PairRegistry holds the instruments served by the exchange. It is built
// once at startup and never mutated, so it needs no locking.
type PairRegistry struct {
	pairs map[string]Pair // upper-cased name → pair
	names []string
}

// NewPairRegistry creates a registry from pairs. Pair names are compared
// case-insensitively, so "btcusd" and "BTCUSD" are duplicates.
func NewPairRegistry(pairs ...Pair) (*PairRegistry, error) {
	r := &PairRegistry{
		pairs: make(map[string]Pair, len(pairs)),
		names: make([]string, 0, len(pairs)),
	}
	for _, p := range pairs {
		key := strings.ToUpper(p.Name)
		if _, dup := r.pairs[key]; dup {
			return nil, fmt.Errorf("duplicate pair %q", p.Name)
		}
		r.pairs[key] = p
		r.names = append(r.names, p.Name)
	}
	return r, nil
}

// Lookup returns the pair with the given name, ignoring case.
func (r *PairRegistry) Lookup(name string) (Pair, bool) {
	p, ok := r.pairs[strings.ToUpper(name)]
	return p, ok
}

// All returns the registered pairs in registration order.
func (r *PairRegistry) All() []Pair {
	result := make([]Pair, 0, len(r.names))
	for _, name := range r.names {
		result = append(result, r.pairs[strings.ToUpper(name)])
	}
	return result
}

// ParsePairs parses a comma-separated list of NAME=BASE/QUOTE entries,
// e.g. "BTCUSD=BTC/USD,ETHUSD=ETH/USD".
func ParsePairs(s string) ([]Pair, error) {
	var pairs []Pair
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, assets, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("pair %q: expected NAME=BASE/QUOTE", entry)
		}
		base, quote, ok := strings.Cut(assets, "/")
		name, base, quote = strings.TrimSpace(name), strings.TrimSpace(base), strings.TrimSpace(quote)
		if !ok || name == "" || base == "" || quote == "" {
			return nil, fmt.Errorf("pair %q: expected NAME=BASE/QUOTE", entry)
		}
		if strings.EqualFold(base, quote) {
			return nil, fmt.Errorf("pair %q: base and quote must differ", entry)
		}
		pairs = append(pairs, Pair{Name: name, Base: base, Quote: quote})
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("at least one pair is required")
	}
	return pairs, nil
}
