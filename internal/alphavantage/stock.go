package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"resty.dev/v3"

	"stockwatch/internal/fetcher"
	"stockwatch/internal/market"
	"stockwatch/internal/ratelimit"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://www.alphavantage.co/query"

const dateLayout = "2006-01-02"

type dailyBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// DailySeriesResponse represents the AlphaVantage TIME_SERIES_DAILY response
type DailySeriesResponse struct {
	TimeSeries   map[string]dailyBar `json:"Time Series (Daily)"`
	Note         string              `json:"Note"`
	Information  string              `json:"Information"`
	ErrorMessage string              `json:"Error Message"`
}

// StockFetcher fetches daily candles from AlphaVantage
type StockFetcher struct {
	apiKey  string
	client  *resty.Client
	limiter *ratelimit.Limiter
}

// NewStockFetcher creates a new daily candle fetcher
func NewStockFetcher(apiKey, baseURL string, limiter *ratelimit.Limiter, retryCount int) *StockFetcher {
	return &StockFetcher{
		apiKey:  apiKey,
		client:  fetcher.NewHTTPClient(baseURL, retryCount),
		limiter: limiter,
	}
}

// Fetch retrieves the daily candles for symbol inside window, most recent first.
// The API returns an unordered object keyed by date, so the bars are sorted here.
func (f *StockFetcher) Fetch(ctx context.Context, symbol market.Symbol, window market.Window) (market.TimeSeries, error) {
	if symbol == "" {
		return nil, fetcher.NewInvalidRequestError(0, "empty symbol")
	}

	if err := f.limiter.Wait(ctx, ratelimit.APIAlphaVantage); err != nil {
		return nil, fetcher.ClassifyTransportError(err)
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"apikey":     f.apiKey,
			"function":   "TIME_SERIES_DAILY",
			"symbol":     string(symbol),
			"outputsize": "compact",
		}).
		Get("")
	if err != nil {
		return nil, fetcher.ClassifyTransportError(fmt.Errorf("failed to fetch daily series for %s: %w", symbol, err))
	}

	if !resp.IsSuccess() {
		return nil, fetcher.ClassifyHTTPError(resp.StatusCode())
	}

	var result DailySeriesResponse
	if err := json.Unmarshal(resp.Bytes(), &result); err != nil {
		return nil, fetcher.NewDecodeError(err)
	}

	switch {
	case result.Note != "" || result.Information != "":
		return nil, fetcher.NewRateLimitError(0)
	case result.ErrorMessage != "":
		return nil, fetcher.NewInvalidRequestError(0, result.ErrorMessage)
	case result.TimeSeries == nil:
		return nil, fetcher.NewDecodeError(fmt.Errorf("time series not found in response for %s", symbol))
	}

	return result.series(window)
}

func (r DailySeriesResponse) series(window market.Window) (market.TimeSeries, error) {
	out := make(market.TimeSeries, 0, len(r.TimeSeries))
	for day, bar := range r.TimeSeries {
		date, err := time.Parse(dateLayout, day)
		if err != nil {
			return nil, fetcher.NewDecodeError(fmt.Errorf("parse date %q: %w", day, err))
		}
		if !window.Contains(date) {
			continue
		}

		point, err := bar.candle(date)
		if err != nil {
			return nil, fetcher.NewDecodeError(fmt.Errorf("bar %s: %w", day, err))
		}
		out = append(out, point)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (b dailyBar) candle(date time.Time) (market.CandlePoint, error) {
	p := market.CandlePoint{Date: date}
	fields := []struct {
		raw string
		dst *decimal.Decimal
	}{
		{b.Open, &p.Open},
		{b.High, &p.High},
		{b.Low, &p.Low},
		{b.Close, &p.Close},
	}
	for _, f := range fields {
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return market.CandlePoint{}, fmt.Errorf("failed to parse price: %w", err)
		}
		*f.dst = v
	}

	volume, err := strconv.ParseInt(b.Volume, 10, 64)
	if err != nil {
		return market.CandlePoint{}, fmt.Errorf("failed to parse volume: %w", err)
	}
	p.Volume = volume
	return p, nil
}
