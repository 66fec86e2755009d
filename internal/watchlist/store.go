// Package watchlist holds the set of symbols a user tracks and notifies
// subscribers when that set changes.
package watchlist

import (
	"context"
	"errors"

	"stockwatch/internal/market"
)

// ErrEmptySymbol is returned when adding a blank symbol.
var ErrEmptySymbol = errors.New("watchlist: empty symbol")

// Store is the watchlist collaborator consumed by the aggregation pipeline.
type Store interface {
	// Symbols returns the tracked symbols in the order they were added.
	Symbols(ctx context.Context) ([]market.Symbol, error)
	// CompanyName returns the display name stored for symbol, or "".
	CompanyName(ctx context.Context, symbol market.Symbol) (string, error)
	// Contains reports whether symbol is tracked.
	Contains(ctx context.Context, symbol market.Symbol) (bool, error)
	// Add tracks symbol under companyName. Adding a tracked symbol is a no-op.
	Add(ctx context.Context, symbol market.Symbol, companyName string) error
	// Remove stops tracking symbol. Removing an untracked symbol is a no-op.
	Remove(ctx context.Context, symbol market.Symbol) error
	// Subscribe registers for change events until the returned func is called.
	Subscribe() (<-chan Event, func())
}

// Entry is a symbol together with its company name.
type Entry struct {
	Symbol      market.Symbol
	CompanyName string
}

// DefaultEntries is the list a new user starts with.
func DefaultEntries() []Entry {
	return []Entry{
		{"AAPL", "Apple Inc."},
		{"MSFT", "Microsoft Corporation"},
		{"SNAP", "Snap Inc."},
		{"GOOG", "Alphabet"},
		{"AMZN", "Amazon.com, Inc."},
		{"FB", "Facebook Inc."},
		{"NVDA", "Nvidia Inc."},
		{"NKE", "Nike"},
		{"PINS", "Pinterest Inc."},
	}
}
