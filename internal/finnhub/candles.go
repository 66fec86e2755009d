package finnhub

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"stockwatch/internal/fetcher"
	"stockwatch/internal/market"
)

const statusNoData = "no_data"

// candleResponse is the stock/candle payload: parallel arrays in ascending time order.
type candleResponse struct {
	Close  []decimal.Decimal `json:"c"`
	High   []decimal.Decimal `json:"h"`
	Low    []decimal.Decimal `json:"l"`
	Open   []decimal.Decimal `json:"o"`
	Time   []int64           `json:"t"`
	Volume []int64           `json:"v"`
	Status string            `json:"s"`
}

// Fetch retrieves the candles for symbol inside window, most recent first.
func (c *Client) Fetch(ctx context.Context, symbol market.Symbol, window market.Window) (market.TimeSeries, error) {
	if blank(string(symbol)) {
		return nil, fetcher.NewInvalidRequestError(0, "empty symbol")
	}
	if window.To.Before(window.From) {
		return nil, fetcher.NewInvalidRequestError(0, fmt.Sprintf("window ends before it starts for %s", symbol))
	}

	var result candleResponse
	err := c.get(ctx, pathCandles, map[string]string{
		"symbol":     string(symbol),
		"resolution": c.resolution,
		"from":       unixString(window.From),
		"to":         unixString(window.To),
	}, &result)
	if err != nil {
		return nil, err
	}

	return result.series(symbol)
}

// series converts the ascending arrays to a most-recent-first TimeSeries.
func (r candleResponse) series(symbol market.Symbol) (market.TimeSeries, error) {
	if r.Status == statusNoData {
		return market.TimeSeries{}, nil
	}
	if r.Status != "ok" {
		return nil, fetcher.NewDecodeError(fmt.Errorf("unexpected candle status %q for %s", r.Status, symbol))
	}

	n := len(r.Time)
	if len(r.Close) != n || len(r.Open) != n || len(r.High) != n || len(r.Low) != n || len(r.Volume) != n {
		return nil, fetcher.NewDecodeError(fmt.Errorf("candle arrays for %s have mismatched lengths", symbol))
	}

	out := make(market.TimeSeries, n)
	for i := 0; i < n; i++ {
		j := n - 1 - i
		out[i] = market.CandlePoint{
			Date:   time.Unix(r.Time[j], 0).UTC(),
			Open:   r.Open[j],
			High:   r.High[j],
			Low:    r.Low[j],
			Close:  r.Close[j],
			Volume: r.Volume[j],
		}
	}
	return out, nil
}
