package cache

import (
	"sync"
	"time"

	"stockwatch/internal/market"
)

// Entry is the cached time series for one symbol.
type Entry struct {
	Symbol    market.Symbol
	Series    market.TimeSeries
	FetchedAt time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the clock used to stamp and age entries.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithMaxAge makes entries older than maxAge read as misses.
// A zero maxAge keeps entries until they are invalidated.
func WithMaxAge(maxAge time.Duration) Option {
	return func(c *Cache) { c.maxAge = maxAge }
}

// Cache maps symbols to their most recently fetched time series.
//
// Reads take a shared lock and may run concurrently; Put and the
// invalidation methods are serialized.
type Cache struct {
	mu      sync.RWMutex
	entries map[market.Symbol]Entry
	now     func() time.Time
	maxAge  time.Duration
}

// New creates an empty Cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[market.Symbol]Entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached series for symbol.
func (c *Cache) Get(symbol market.Symbol) (market.TimeSeries, bool) {
	e, ok := c.Entry(symbol)
	if !ok {
		return nil, false
	}
	return e.Series, true
}

// Entry returns the full cache entry for symbol.
func (c *Cache) Entry(symbol market.Symbol) (Entry, bool) {
	c.mu.RLock()
	e, ok := c.entries[symbol]
	c.mu.RUnlock()

	if !ok || c.expired(e) {
		return Entry{}, false
	}
	return e, true
}

// Put stores series under symbol, replacing any existing entry.
func (c *Cache) Put(symbol market.Symbol, series market.TimeSeries) {
	e := Entry{
		Symbol:    symbol,
		Series:    series,
		FetchedAt: c.now(),
	}

	c.mu.Lock()
	c.entries[symbol] = e
	c.mu.Unlock()
}

// Invalidate removes the entry for symbol, if any.
func (c *Cache) Invalidate(symbol market.Symbol) {
	c.mu.Lock()
	delete(c.entries, symbol)
	c.mu.Unlock()
}

// InvalidateAll removes every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[market.Symbol]Entry)
	c.mu.Unlock()
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return len(c.Symbols())
}

// Symbols returns the symbols with live entries, in no particular order.
func (c *Cache) Symbols() []market.Symbol {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]market.Symbol, 0, len(c.entries))
	for sym, e := range c.entries {
		if !c.expired(e) {
			out = append(out, sym)
		}
	}
	return out
}

func (c *Cache) expired(e Entry) bool {
	return c.maxAge > 0 && c.now().Sub(e.FetchedAt) > c.maxAge
}
