package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// API represents the different external APIs we interact with
type API string

const (
	// APIFinnhub represents the Finnhub REST API
	APIFinnhub API = "finnhub"
	// APIAlphaVantage represents the AlphaVantage API
	APIAlphaVantage API = "alphavantage"
)

// Limits maps each API to its sustained requests-per-second rate.
type Limits map[API]rate.Limit

// DefaultLimits returns conservative limits for the free tiers:
// Finnhub allows 60 calls per minute, AlphaVantage 5 per minute.
func DefaultLimits() Limits {
	return Limits{
		APIFinnhub:      rate.Limit(1),
		APIAlphaVantage: rate.Limit(1.0 / 12.0),
	}
}

// Limiter manages rate limits for different APIs.
// Instances are passed explicitly to the API clients that share them.
type Limiter struct {
	limiters map[API]*rate.Limiter
	mu       sync.RWMutex
}

// New creates a Limiter with a burst of one request for every API in limits.
func New(limits Limits) *Limiter {
	l := &Limiter{
		limiters: make(map[API]*rate.Limiter, len(limits)),
	}
	for api, limit := range limits {
		l.limiters[api] = rate.NewLimiter(limit, 1)
	}
	return l
}

// Unlimited returns a Limiter that never blocks.
func Unlimited() *Limiter {
	return New(nil)
}

// SetLimit changes the rate for api, creating its limiter if needed.
func (l *Limiter) SetLimit(api API, limit rate.Limit) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.limiters[api]; ok {
		existing.SetLimit(limit)
		return
	}
	l.limiters[api] = rate.NewLimiter(limit, 1)
}

// Wait blocks until the rate limiter permits an event for the given API
// It returns an error if the context is canceled before the event can proceed
func (l *Limiter) Wait(ctx context.Context, api API) error {
	if l == nil {
		return nil
	}

	l.mu.RLock()
	limiter, exists := l.limiters[api]
	l.mu.RUnlock()

	if !exists {
		// If no limiter exists for this API, allow the request without limiting
		return nil
	}

	return limiter.Wait(ctx)
}

// Allow reports whether an event for the given API may happen now
func (l *Limiter) Allow(api API) bool {
	if l == nil {
		return true
	}

	l.mu.RLock()
	limiter, exists := l.limiters[api]
	l.mu.RUnlock()

	if !exists {
		return true
	}

	return limiter.Allow()
}
