package fetcher

import "stockwatch/internal/market"

// Result represents the outcome of a fetch operation.
// It's sent through a channel from worker goroutines to the pipeline
// that collects them once every worker has reported.
type Result struct {
	// Symbol identifies the series that was requested
	Symbol market.Symbol

	// Series is the fetched time series, most recent first
	Series market.TimeSeries

	// Err contains any error that occurred during the fetch operation.
	// If Err is not nil, Series should be considered invalid.
	Err error
}
