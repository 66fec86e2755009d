package market

import "time"

// SearchResult is one match returned by a symbol lookup.
type SearchResult struct {
	Description   string `json:"description"`
	DisplaySymbol string `json:"displaySymbol"`
	Symbol        string `json:"symbol"`
	Type          string `json:"type"`
}

// NewsStory is a single headline returned by the news endpoints.
type NewsStory struct {
	Category string    `json:"category"`
	Datetime time.Time `json:"datetime"`
	Headline string    `json:"headline"`
	Image    string    `json:"image"`
	Related  string    `json:"related"`
	Source   string    `json:"source"`
	Summary  string    `json:"summary"`
	URL      string    `json:"url"`
}

// FinancialMetrics holds the headline fundamentals shown for a symbol.
type FinancialMetrics struct {
	Symbol              Symbol
	TenDayAverageVolume float64 // millions of shares
	WeekHigh52          float64
	WeekLow52           float64
	WeekLow52Date       string
	PriceReturn52Week   float64
	Beta                float64
}
