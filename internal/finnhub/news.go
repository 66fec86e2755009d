package finnhub

import (
	"context"
	"time"

	"stockwatch/internal/market"
)

const (
	newsDateLayout = "2006-01-02"
	newsLookback   = 7 * 24 * time.Hour
)

// NewsQuery selects top stories when Symbol is empty, company news otherwise.
type NewsQuery struct {
	Symbol market.Symbol
}

// Title is the heading shown above the stories.
func (q NewsQuery) Title() string {
	if q.Symbol == "" {
		return "Top Stories"
	}
	return string(market.NormalizeSymbol(string(q.Symbol)))
}

type newsStory struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Image    string `json:"image"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// News returns general market headlines, or the past week's stories for a company.
func (c *Client) News(ctx context.Context, q NewsQuery) ([]market.NewsStory, error) {
	path := pathNews
	params := map[string]string{"category": "general"}

	if q.Symbol != "" {
		today := c.now()
		path = pathCompanyNews
		params = map[string]string{
			"symbol": string(market.NormalizeSymbol(string(q.Symbol))),
			"from":   today.Add(-newsLookback).Format(newsDateLayout),
			"to":     today.Format(newsDateLayout),
		}
	}

	var raw []newsStory
	if err := c.get(ctx, path, params, &raw); err != nil {
		return nil, err
	}

	out := make([]market.NewsStory, len(raw))
	for i, s := range raw {
		out[i] = market.NewsStory{
			Category: s.Category,
			Datetime: time.Unix(s.Datetime, 0).UTC(),
			Headline: s.Headline,
			Image:    s.Image,
			Related:  s.Related,
			Source:   s.Source,
			Summary:  s.Summary,
			URL:      s.URL,
		}
	}
	return out, nil
}
