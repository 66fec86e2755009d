package finnhub

import (
	"context"

	"stockwatch/internal/fetcher"
	"stockwatch/internal/market"
)

type searchResponse struct {
	Count  int                   `json:"count"`
	Result []market.SearchResult `json:"result"`
}

// Search looks up symbols matching query by ticker or company name.
func (c *Client) Search(ctx context.Context, query string) ([]market.SearchResult, error) {
	if blank(query) {
		return nil, fetcher.NewInvalidRequestError(0, "empty search query")
	}

	var result searchResponse
	if err := c.get(ctx, pathSearch, map[string]string{"q": query}, &result); err != nil {
		return nil, err
	}
	if result.Result == nil {
		return []market.SearchResult{}, nil
	}
	return result.Result, nil
}
