package fetcher

import (
	"context"

	"stockwatch/internal/market"
)

// Fetcher retrieves the recent price time series for a symbol.
//
// Implementations perform exactly one outbound call per Fetch and do not
// retry; retry policy belongs to the caller. Errors are *FetchError values.
type Fetcher interface {
	// Fetch returns the candles for symbol inside window, most recent first.
	Fetch(ctx context.Context, symbol market.Symbol, window market.Window) (market.TimeSeries, error)
}

// Searcher resolves a free-text query to matching symbols.
type Searcher interface {
	Search(ctx context.Context, query string) ([]market.SearchResult, error)
}

// FetcherFunc adapts an ordinary function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, symbol market.Symbol, window market.Window) (market.TimeSeries, error)

// Fetch calls f(ctx, symbol, window).
func (f FetcherFunc) Fetch(ctx context.Context, symbol market.Symbol, window market.Window) (market.TimeSeries, error) {
	return f(ctx, symbol, window)
}
