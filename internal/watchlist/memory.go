package watchlist

import (
	"context"
	"slices"
	"sync"

	"stockwatch/internal/market"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	symbols []market.Symbol
	names   map[market.Symbol]string
	events  broker
}

// NewMemoryStore creates a store seeded with entries, in order.
func NewMemoryStore(entries ...Entry) *MemoryStore {
	s := &MemoryStore{names: make(map[market.Symbol]string)}
	for _, e := range entries {
		sym := market.NormalizeSymbol(string(e.Symbol))
		if sym == "" || slices.Contains(s.symbols, sym) {
			continue
		}
		s.symbols = append(s.symbols, sym)
		s.names[sym] = e.CompanyName
	}
	return s
}

func (s *MemoryStore) Symbols(_ context.Context) ([]market.Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.symbols), nil
}

func (s *MemoryStore) CompanyName(_ context.Context, symbol market.Symbol) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.names[symbol], nil
}

func (s *MemoryStore) Contains(_ context.Context, symbol market.Symbol) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.symbols, symbol), nil
}

func (s *MemoryStore) Add(_ context.Context, symbol market.Symbol, companyName string) error {
	symbol = market.NormalizeSymbol(string(symbol))
	if symbol == "" {
		return ErrEmptySymbol
	}

	s.mu.Lock()
	if slices.Contains(s.symbols, symbol) {
		s.mu.Unlock()
		return nil
	}
	s.symbols = append(s.symbols, symbol)
	s.names[symbol] = companyName
	s.mu.Unlock()

	s.events.publish(Event{Kind: Added, Symbol: symbol})
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, symbol market.Symbol) error {
	symbol = market.NormalizeSymbol(string(symbol))

	s.mu.Lock()
	i := slices.Index(s.symbols, symbol)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	s.symbols = slices.Delete(s.symbols, i, i+1)
	delete(s.names, symbol)
	s.mu.Unlock()

	s.events.publish(Event{Kind: Removed, Symbol: symbol})
	return nil
}

// Replace swaps the whole list for entries and publishes a Reset event.
func (s *MemoryStore) Replace(_ context.Context, entries []Entry) error {
	fresh := NewMemoryStore(entries...)

	s.mu.Lock()
	s.symbols = fresh.symbols
	s.names = fresh.names
	s.mu.Unlock()

	s.events.publish(Event{Kind: Reset})
	return nil
}

func (s *MemoryStore) Subscribe() (<-chan Event, func()) {
	return s.events.subscribe()
}
