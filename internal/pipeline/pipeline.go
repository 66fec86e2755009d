// Package pipeline turns the watchlist into render-ready view models,
// fetching uncached symbols concurrently and tolerating partial failure.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/pool"

	"stockwatch/internal/cache"
	"stockwatch/internal/dispatch"
	"stockwatch/internal/fetcher"
	"stockwatch/internal/market"
	"stockwatch/internal/metrics"
	"stockwatch/internal/watchlist"
)

const defaultWindowDays = 7

// Stats summarizes one aggregation pass.
type Stats struct {
	Requested int // distinct symbols on the watchlist
	CacheHits int // symbols served from the cache without a fetch
	Fetched   int // fetches that succeeded
	Failed    int // fetches that failed; these symbols are absent from Items
}

// Report is the outcome of one aggregation pass.
type Report struct {
	Items    []ViewModel
	Stats    Stats
	Failures map[market.Symbol]error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWindowDays sets how many trailing days are requested for each symbol.
func WithWindowDays(days int) Option {
	return func(p *Pipeline) { p.windowDays = days }
}

// WithMaxConcurrency bounds the number of fetches in flight. Zero means unbounded.
func WithMaxConcurrency(n int) Option {
	return func(p *Pipeline) { p.maxConcurrency = n }
}

// WithFormatter sets the formatter used for prices and percentages.
func WithFormatter(f *metrics.Formatter) Option {
	return func(p *Pipeline) { p.formatter = f }
}

// WithClock overrides the clock used to compute the fetch window.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithChangeHandler registers fn to run after each watchlist event has
// been applied to the cache by Watch.
func WithChangeHandler(fn func(watchlist.Event)) Option {
	return func(p *Pipeline) { p.onChange = fn }
}

// Pipeline aggregates the watchlist into view models.
type Pipeline struct {
	fetcher fetcher.Fetcher
	cache   *cache.Cache
	store   watchlist.Store

	formatter      *metrics.Formatter
	windowDays     int
	maxConcurrency int
	now            func() time.Time
	onChange       func(watchlist.Event)
}

// New creates a Pipeline over the given collaborators.
func New(f fetcher.Fetcher, c *cache.Cache, s watchlist.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:    f,
		cache:      c,
		store:      s,
		formatter:  metrics.DefaultFormatter(),
		windowDays: defaultWindowDays,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Aggregate runs one pass: symbols missing from the cache are fetched in
// parallel, and view models are built once every fetch has reported.
//
// A failed fetch is logged and its symbol left out of the report; it never
// fails the pass. The returned error only reflects the watchlist store.
// Items follow watchlist order.
func (p *Pipeline) Aggregate(ctx context.Context) (Report, error) {
	symbols, err := p.store.Symbols(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list watchlist: %w", err)
	}
	symbols = unique(symbols)

	missing := make([]market.Symbol, 0, len(symbols))
	for _, sym := range symbols {
		if _, ok := p.cache.Get(sym); !ok {
			missing = append(missing, sym)
		}
	}

	failures := p.fetchAll(ctx, missing)

	report := Report{
		Items:    make([]ViewModel, 0, len(symbols)),
		Failures: failures,
		Stats: Stats{
			Requested: len(symbols),
			CacheHits: len(symbols) - len(missing),
			Fetched:   len(missing) - len(failures),
			Failed:    len(failures),
		},
	}

	for _, sym := range symbols {
		if _, failed := failures[sym]; failed {
			continue
		}
		series, ok := p.cache.Get(sym)
		if !ok {
			// invalidated while the pass was running
			continue
		}
		report.Items = append(report.Items, p.viewModel(ctx, sym, series))
	}

	slog.Debug("aggregation pass complete",
		"requested", report.Stats.Requested,
		"cache_hits", report.Stats.CacheHits,
		"fetched", report.Stats.Fetched,
		"failed", report.Stats.Failed)

	return report, nil
}

// Refresh runs Aggregate in the background and posts done on q exactly once.
func (p *Pipeline) Refresh(ctx context.Context, q *dispatch.Queue, done func(Report, error)) {
	go func() {
		report, err := p.Aggregate(ctx)
		if !q.Post(func() { done(report, err) }) {
			slog.Warn("dispatch queue closed, dropping aggregation result")
		}
	}()
}

// fetchAll launches one task per symbol and returns after all of them have
// finished. Successful series are written to the cache by the task itself.
func (p *Pipeline) fetchAll(ctx context.Context, symbols []market.Symbol) map[market.Symbol]error {
	failures := make(map[market.Symbol]error)
	if len(symbols) == 0 {
		return failures
	}

	window := market.DefaultWindow(p.now(), p.windowDays)
	results := make(chan fetcher.Result, len(symbols))

	tasks := pool.New()
	if p.maxConcurrency > 0 {
		tasks = tasks.WithMaxGoroutines(p.maxConcurrency)
	}
	for _, sym := range symbols {
		tasks.Go(func() {
			series, err := p.fetcher.Fetch(ctx, sym, window)
			if err == nil {
				p.cache.Put(sym, series)
			}
			results <- fetcher.Result{Symbol: sym, Series: series, Err: err}
		})
	}
	tasks.Wait()
	close(results)

	for result := range results {
		if result.Err != nil {
			slog.Warn("fetch failed, omitting symbol from this pass",
				"symbol", result.Symbol,
				"error_type", fetcher.KindOf(result.Err),
				"error", result.Err)
			failures[result.Symbol] = result.Err
		}
	}
	return failures
}

// Watch applies watchlist changes to the cache until ctx is done or the
// returned stop func is called. A removed symbol is evicted; a reset
// clears the whole cache. Added symbols need nothing: they miss on the
// next pass.
func (p *Pipeline) Watch(ctx context.Context) (stop func()) {
	events, unsubscribe := p.store.Subscribe()
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				p.apply(ev)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (p *Pipeline) apply(ev watchlist.Event) {
	switch ev.Kind {
	case watchlist.Removed:
		p.cache.Invalidate(ev.Symbol)
	case watchlist.Reset:
		p.cache.InvalidateAll()
	}
	slog.Debug("watchlist changed", "kind", ev.Kind, "symbol", ev.Symbol)

	if p.onChange != nil {
		p.onChange(ev)
	}
}

func unique(symbols []market.Symbol) []market.Symbol {
	seen := make(map[market.Symbol]struct{}, len(symbols))
	out := symbols[:0:0]
	for _, s := range symbols {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
