package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"stockwatch/internal/alphavantage"
	"stockwatch/internal/cache"
	"stockwatch/internal/config"
	"stockwatch/internal/dispatch"
	"stockwatch/internal/fetcher"
	"stockwatch/internal/finnhub"
	"stockwatch/internal/market"
	"stockwatch/internal/metrics"
	"stockwatch/internal/pipeline"
	"stockwatch/internal/ratelimit"
	"stockwatch/internal/scheduler"
	"stockwatch/internal/search"
	"stockwatch/internal/watchlist"
)

const defaultWatchSchedule = "@every 1m"

// app is the wired object graph behind every command.
type app struct {
	cfg *config.Config
	out io.Writer

	finnhub   *finnhub.Client
	store     watchlist.Store
	cache     *cache.Cache
	pipeline  *pipeline.Pipeline
	queue     *dispatch.Queue
	formatter *metrics.Formatter

	closers []func() error
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

func newApp(ctx context.Context, cfg *config.Config, out io.Writer) (*app, error) {
	limits := ratelimit.DefaultLimits()
	if cfg.RequestsPerSecond > 0 {
		limits[ratelimit.APIFinnhub] = rate.Limit(cfg.RequestsPerSecond)
	} else {
		delete(limits, ratelimit.APIFinnhub)
	}
	limiter := ratelimit.New(limits)

	fh := finnhub.NewClient(cfg.FinnhubAPIKey, cfg.FinnhubBaseURL,
		finnhub.WithLimiter(limiter),
		finnhub.WithRetryCount(cfg.RetryCount),
		finnhub.WithResolution(cfg.Resolution),
	)

	var source fetcher.Fetcher = fh
	if cfg.Provider == config.ProviderAlphaVantage {
		source = alphavantage.NewStockFetcher(cfg.AlphavantageAPIKey, cfg.AlphavantageBaseURL, limiter, cfg.RetryCount)
	}

	a := &app{
		cfg:       cfg,
		out:       out,
		finnhub:   fh,
		cache:     cache.New(),
		queue:     dispatch.NewQueue(),
		formatter: metrics.DefaultFormatter(),
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.store = store

	a.pipeline = pipeline.New(source, a.cache, a.store,
		pipeline.WithWindowDays(cfg.WindowDays),
		pipeline.WithMaxConcurrency(cfg.MaxConcurrency),
		pipeline.WithFormatter(a.formatter),
		pipeline.WithChangeHandler(func(ev watchlist.Event) {
			slog.Info("watchlist changed", "kind", ev.Kind, "symbol", ev.Symbol)
		}),
	)

	queueCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.queue.Run(queueCtx)
	}()

	return a, nil
}

func (a *app) openStore(ctx context.Context) (watchlist.Store, error) {
	defaults := watchlist.DefaultEntries()
	if len(a.cfg.Symbols) > 0 {
		defaults = make([]watchlist.Entry, 0, len(a.cfg.Symbols))
		for _, s := range a.cfg.Symbols {
			defaults = append(defaults, watchlist.Entry{Symbol: market.NormalizeSymbol(s)})
		}
	}

	if a.cfg.WatchlistDB == "" {
		return watchlist.NewMemoryStore(defaults...), nil
	}

	store, err := watchlist.OpenSQLite(ctx, a.cfg.WatchlistDB, defaults)
	if err != nil {
		return nil, fmt.Errorf("failed to open watchlist: %w", err)
	}
	a.closers = append(a.closers, store.Close)
	return store, nil
}

// Close stops the dispatch queue and releases the watchlist database.
func (a *app) Close() error {
	a.queue.Close()
	a.cancel()
	a.wg.Wait()

	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// refreshOnce runs a single aggregation pass and prints the table.
func (a *app) refreshOnce(ctx context.Context) error {
	errc := make(chan error, 1)
	a.pipeline.Refresh(ctx, a.queue, func(report pipeline.Report, err error) {
		if err == nil {
			a.render(report)
		}
		errc <- err
	})

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// watch re-runs the pipeline on the refresh schedule until ctx is done.
func (a *app) watch(ctx context.Context) error {
	stop := a.pipeline.Watch(ctx)
	defer stop()

	if err := a.refreshOnce(ctx); err != nil {
		return err
	}

	spec := a.cfg.RefreshSchedule
	if spec == "" {
		spec = defaultWatchSchedule
	}

	sched := scheduler.New()
	if err := sched.Register("watchlist-refresh", spec, func(jobCtx context.Context) {
		if err := a.refreshOnce(jobCtx); err != nil {
			slog.Error("scheduled refresh failed", "error", err)
		}
	}); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	<-ctx.Done()
	return nil
}

func (a *app) add(ctx context.Context, symbol, name string) error {
	sym := market.NormalizeSymbol(symbol)
	if err := a.store.Add(ctx, sym, strings.TrimSpace(name)); err != nil {
		return fmt.Errorf("failed to add %s: %w", sym, err)
	}
	slog.Info("symbol added", "symbol", sym)
	return nil
}

func (a *app) remove(ctx context.Context, symbol string) error {
	sym := market.NormalizeSymbol(symbol)
	if err := a.store.Remove(ctx, sym); err != nil {
		return fmt.Errorf("failed to remove %s: %w", sym, err)
	}
	a.cache.Invalidate(sym)
	slog.Info("symbol removed", "symbol", sym)
	return nil
}

// search feeds queries through the debouncer as if they were typed in
// quick succession and prints the results of the one that fires.
func (a *app) search(ctx context.Context, queries []string) error {
	if strings.TrimSpace(queries[len(queries)-1]) == "" {
		return fetcher.NewInvalidRequestError(0, "empty search query")
	}

	done := make(chan struct{})
	var once sync.Once
	d := search.New(a.finnhub, a.cfg.SearchQuietWindow, a.queue, func(query string, results []market.SearchResult) {
		a.renderSearch(query, results)
		once.Do(func() { close(done) })
	})
	defer d.Close()

	for _, q := range queries {
		d.Submit(q)
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *app) news(ctx context.Context, symbol string) error {
	q := finnhub.NewsQuery{Symbol: market.NormalizeSymbol(symbol)}
	stories, err := a.finnhub.News(ctx, q)
	if err != nil {
		return fmt.Errorf("failed to fetch news: %w", err)
	}
	a.renderNews(q.Title(), stories)
	return nil
}

func (a *app) financials(ctx context.Context, symbol string) error {
	m, err := a.finnhub.FinancialMetrics(ctx, market.NormalizeSymbol(symbol))
	if err != nil {
		return fmt.Errorf("failed to fetch metrics: %w", err)
	}
	a.renderMetrics(m)
	return nil
}
