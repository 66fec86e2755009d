// Package search rate-limits free-text symbol lookups so that only the
// last query typed within a quiet window reaches the network.
package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"stockwatch/internal/dispatch"
	"stockwatch/internal/fetcher"
	"stockwatch/internal/market"
)

// DefaultQuietWindow is how long input must settle before a search fires.
const DefaultQuietWindow = 300 * time.Millisecond

// ResultHandler receives the results for query. It runs on the dispatch queue.
type ResultHandler func(query string, results []market.SearchResult)

// PendingSearch is a query waiting for its quiet window to elapse.
type PendingSearch struct {
	Query       string
	ScheduledAt time.Time
}

// Debouncer delays searches until input has been quiet for a fixed window.
//
// Each Submit or Cancel bumps a generation counter. A timer only fires a
// request if its generation is still current, and a response is dropped if
// results from a newer generation were already delivered.
type Debouncer struct {
	searcher fetcher.Searcher
	quiet    time.Duration
	queue    *dispatch.Queue
	handler  ResultHandler

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	generation uint64
	timer      *time.Timer
	pending    *PendingSearch

	// delivered is only touched on the dispatch queue.
	delivered uint64
}

// New creates a Debouncer. Results are delivered to handler on q.
func New(searcher fetcher.Searcher, quiet time.Duration, q *dispatch.Queue, handler ResultHandler) *Debouncer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Debouncer{
		searcher: searcher,
		quiet:    quiet,
		queue:    q,
		handler:  handler,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Submit replaces any pending search with query. A blank query only
// cancels what was pending.
func (d *Debouncer) Submit(query string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	if strings.TrimSpace(query) == "" {
		return
	}

	gen := d.generation
	d.pending = &PendingSearch{Query: query, ScheduledAt: time.Now()}
	d.timer = time.AfterFunc(d.quiet, func() { d.fire(gen) })
}

// Cancel drops the pending search, if any. A request already in flight
// still completes.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// Pending returns the search waiting to fire.
func (d *Debouncer) Pending() (PendingSearch, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return PendingSearch{}, false
	}
	return *d.pending, true
}

// Close cancels the pending search and aborts any request in flight.
func (d *Debouncer) Close() {
	d.Cancel()
	d.cancel()
}

func (d *Debouncer) stopLocked() {
	d.generation++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.generation || d.pending == nil {
		d.mu.Unlock()
		return
	}
	query := d.pending.Query
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	results, err := d.searcher.Search(d.ctx, query)
	if err != nil {
		slog.Warn("search failed, clearing results",
			"query", query,
			"error_type", fetcher.KindOf(err),
			"error", err)
		results = nil
	}
	if results == nil {
		results = []market.SearchResult{}
	}

	d.queue.Post(func() {
		if gen < d.delivered {
			slog.Debug("dropping stale search response", "query", query, "generation", gen)
			return
		}
		d.delivered = gen
		d.handler(query, results)
	})
}
