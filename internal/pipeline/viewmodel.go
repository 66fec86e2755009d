package pipeline

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"stockwatch/internal/market"
	"stockwatch/internal/metrics"
)

// ViewModel is one render-ready watchlist row.
type ViewModel struct {
	Symbol               market.Symbol
	CompanyName          string
	LatestPriceFormatted string
	ChangePercentage     decimal.Decimal
	ChangeFormatted      string
	Direction            metrics.Direction
	Sparkline            []float64 // closes, oldest first
	VolumeFormatted      string
}

func (p *Pipeline) viewModel(ctx context.Context, symbol market.Symbol, series market.TimeSeries) ViewModel {
	name, err := p.store.CompanyName(ctx, symbol)
	if err != nil {
		slog.Warn("company name lookup failed", "symbol", symbol, "error", err)
	}

	change := metrics.ChangePercentage(series)
	vm := ViewModel{
		Symbol:           symbol,
		CompanyName:      name,
		ChangePercentage: change,
		ChangeFormatted:  p.formatter.FormatPercentage(change),
		Direction:        metrics.DirectionOf(change),
		Sparkline:        metrics.Sparkline(series),
	}
	if latest, ok := metrics.LatestClose(series); ok {
		vm.LatestPriceFormatted = p.formatter.FormatPrice(latest)
		vm.VolumeFormatted = metrics.FormatVolume(series[0].Volume)
	}
	return vm
}
