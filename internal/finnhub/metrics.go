package finnhub

import (
	"context"

	"stockwatch/internal/fetcher"
	"stockwatch/internal/market"
)

type metricsResponse struct {
	Metric struct {
		TenDayAverageVolume float64 `json:"10DayAverageTradingVolume"`
		WeekHigh52          float64 `json:"52WeekHigh"`
		WeekLow52           float64 `json:"52WeekLow"`
		WeekLow52Date       string  `json:"52WeekLowDate"`
		PriceReturn52Week   float64 `json:"52WeekPriceReturnDaily"`
		Beta                float64 `json:"beta"`
	} `json:"metric"`
}

// FinancialMetrics returns headline fundamentals for symbol.
func (c *Client) FinancialMetrics(ctx context.Context, symbol market.Symbol) (market.FinancialMetrics, error) {
	symbol = market.NormalizeSymbol(string(symbol))
	if symbol == "" {
		return market.FinancialMetrics{}, fetcher.NewInvalidRequestError(0, "empty symbol")
	}

	var result metricsResponse
	if err := c.get(ctx, pathMetrics, map[string]string{
		"symbol": string(symbol),
		"metric": "all",
	}, &result); err != nil {
		return market.FinancialMetrics{}, err
	}

	m := result.Metric
	return market.FinancialMetrics{
		Symbol:              symbol,
		TenDayAverageVolume: m.TenDayAverageVolume,
		WeekHigh52:          m.WeekHigh52,
		WeekLow52:           m.WeekLow52,
		WeekLow52Date:       m.WeekLow52Date,
		PriceReturn52Week:   m.PriceReturn52Week,
		Beta:                m.Beta,
	}, nil
}
