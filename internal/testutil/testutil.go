package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"stockwatch/internal/market"
)

// MockFetcher is a mock implementation of the fetcher.Fetcher interface for testing.
// It records every symbol it was asked for.
type MockFetcher struct {
	FetchFunc func(ctx context.Context, symbol market.Symbol, window market.Window) (market.TimeSeries, error)

	mu    sync.Mutex
	calls []market.Symbol
}

// Fetch implements the fetcher.Fetcher interface
func (m *MockFetcher) Fetch(ctx context.Context, symbol market.Symbol, window market.Window) (market.TimeSeries, error) {
	m.mu.Lock()
	m.calls = append(m.calls, symbol)
	m.mu.Unlock()

	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, symbol, window)
	}
	return nil, nil
}

// Calls returns the symbols fetched so far, in call order.
func (m *MockFetcher) Calls() []market.Symbol {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]market.Symbol, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times symbol was fetched.
func (m *MockFetcher) CallCount(symbol market.Symbol) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.calls {
		if s == symbol {
			n++
		}
	}
	return n
}

// NewMockFetcher creates a mock fetcher that serves fixed series and errors per symbol.
// Symbols in neither map return an empty series.
func NewMockFetcher(series map[market.Symbol]market.TimeSeries, errs map[market.Symbol]error) *MockFetcher {
	return &MockFetcher{
		FetchFunc: func(_ context.Context, symbol market.Symbol, _ market.Window) (market.TimeSeries, error) {
			if err, ok := errs[symbol]; ok {
				return nil, err
			}
			return series[symbol], nil
		},
	}
}

// MockSearcher is a mock implementation of the fetcher.Searcher interface for testing.
type MockSearcher struct {
	SearchFunc func(ctx context.Context, query string) ([]market.SearchResult, error)

	mu      sync.Mutex
	queries []string
}

// Search implements the fetcher.Searcher interface
func (m *MockSearcher) Search(ctx context.Context, query string) ([]market.SearchResult, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()

	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query)
	}
	return []market.SearchResult{{Symbol: query, DisplaySymbol: query}}, nil
}

// Queries returns the queries searched so far, in call order.
func (m *MockSearcher) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.queries))
	copy(out, m.queries)
	return out
}

// DailySeries builds a most-recent-first series with one candle per day,
// ending on latest. closes are given most recent first.
func DailySeries(latest time.Time, closes ...string) market.TimeSeries {
	out := make(market.TimeSeries, len(closes))
	for i, c := range closes {
		price := decimal.RequireFromString(c)
		out[i] = market.CandlePoint{
			Date:   latest.AddDate(0, 0, -i),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: 1000,
		}
	}
	return out
}
