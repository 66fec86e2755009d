package market

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// Symbol is an uppercase ticker symbol, e.g. "AAPL".
type Symbol string

// NormalizeSymbol trims surrounding whitespace and upper-cases a ticker.
func NormalizeSymbol(s string) Symbol {
	return Symbol(strings.ToUpper(strings.TrimSpace(s)))
}

// String implements fmt.Stringer
func (s Symbol) String() string {
	return string(s)
}

// CandlePoint is one time-bucketed price record for a symbol.
type CandlePoint struct {
	Date   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// TimeSeries is an ordered sequence of candles, most recent first.
//
// The ordering is supplied by the data source and is not verified by
// consumers of the series.
type TimeSeries []CandlePoint

// Window is the inclusive time range requested from a market data source.
type Window struct {
	From time.Time
	To   time.Time
}

// DefaultWindow returns the trailing window of the given number of days
// ending one day before now, so that incomplete current-day data is skipped.
func DefaultWindow(now time.Time, days int) Window {
	to := now.Add(-day)
	return Window{
		From: to.Add(-time.Duration(days) * day),
		To:   to,
	}
}

// Contains reports whether t falls inside the window, compared at calendar-day resolution.
func (w Window) Contains(t time.Time) bool {
	d := truncateDay(t)
	return !d.Before(truncateDay(w.From)) && !d.After(truncateDay(w.To))
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
