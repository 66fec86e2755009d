// Package metrics derives display values from a price time series.
//
// Every function assumes the series is ordered most recent first, as
// delivered by the market data source. Nothing here sorts or checks it.
package metrics

import (
	"github.com/shopspring/decimal"

	"stockwatch/internal/market"
)

// Direction classifies the sign of a change.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// LatestClose returns the close of the first (most recent) candle.
func LatestClose(series market.TimeSeries) (decimal.Decimal, bool) {
	if len(series) == 0 {
		return decimal.Zero, false
	}
	return series[0].Close, true
}

// PriorClose returns the close of the first candle whose calendar day
// differs from the most recent candle's day.
func PriorClose(series market.TimeSeries) (decimal.Decimal, bool) {
	if len(series) == 0 {
		return decimal.Zero, false
	}
	latest := series[0].Date
	for _, p := range series[1:] {
		if !market.SameDay(p.Date, latest) {
			return p.Close, true
		}
	}
	return decimal.Zero, false
}

// ChangePercentage returns 1 - prior/latest as a fraction.
//
// The result is zero when either close is missing or the latest close is
// zero. Note the formula differs from (latest-prior)/prior in magnitude;
// consumers depend on this exact definition.
func ChangePercentage(series market.TimeSeries) decimal.Decimal {
	latest, ok := LatestClose(series)
	if !ok || latest.IsZero() {
		return decimal.Zero
	}
	prior, ok := PriorClose(series)
	if !ok {
		return decimal.Zero
	}
	return decimal.NewFromInt(1).Sub(prior.Div(latest))
}

// DirectionOf maps non-negative changes to Up and negative ones to Down.
func DirectionOf(change decimal.Decimal) Direction {
	if change.IsNegative() {
		return Down
	}
	return Up
}

// Sparkline returns the closes ordered oldest first, ready for charting.
func Sparkline(series market.TimeSeries) []float64 {
	out := make([]float64, len(series))
	for i, p := range series {
		out[len(series)-1-i] = p.Close.InexactFloat64()
	}
	return out
}
