package search

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"stockwatch/internal/dispatch"
	"stockwatch/internal/fetcher"
	"stockwatch/internal/market"
	"stockwatch/internal/testutil"
)

type delivery struct {
	query   string
	results []market.SearchResult
}

func setup(t *testing.T, searcher fetcher.Searcher, quiet time.Duration) (*Debouncer, <-chan delivery) {
	t.Helper()

	q := dispatch.NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go q.Run(ctx)

	out := make(chan delivery, 16)
	d := New(searcher, quiet, q, func(query string, results []market.SearchResult) {
		out <- delivery{query, results}
	})
	t.Cleanup(d.Close)
	return d, out
}

func expectDelivery(t *testing.T, out <-chan delivery) delivery {
	t.Helper()
	select {
	case got := <-out:
		return got
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for search results")
		return delivery{}
	}
}

func expectNothing(t *testing.T, out <-chan delivery, wait time.Duration) {
	t.Helper()
	select {
	case got := <-out:
		t.Fatalf("unexpected delivery for %q", got.query)
	case <-time.After(wait):
	}
}

func TestSubmit_OnlyLatestQueryFires(t *testing.T) {
	searcher := &testutil.MockSearcher{}
	d, out := setup(t, searcher, DefaultQuietWindow)

	d.Submit("AAP")
	time.Sleep(100 * time.Millisecond)
	d.Submit("AAPL")

	got := expectDelivery(t, out)
	if got.query != "AAPL" {
		t.Errorf("delivered query = %q, want AAPL", got.query)
	}
	expectNothing(t, out, 400*time.Millisecond)

	if queries := searcher.Queries(); !slices.Equal(queries, []string{"AAPL"}) {
		t.Errorf("searched %v, want [AAPL]", queries)
	}
}

func TestSubmit_WaitsForQuietWindow(t *testing.T) {
	searcher := &testutil.MockSearcher{}
	d, out := setup(t, searcher, 150*time.Millisecond)

	start := time.Now()
	d.Submit("MSFT")
	expectDelivery(t, out)

	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("search fired after %v, want >= 150ms", elapsed)
	}
}

func TestSubmit_BlankQueryCancels(t *testing.T) {
	searcher := &testutil.MockSearcher{}
	d, out := setup(t, searcher, 50*time.Millisecond)

	d.Submit("GOO")
	d.Submit("   ")

	if _, ok := d.Pending(); ok {
		t.Error("Pending() reported a search after blank submit")
	}
	expectNothing(t, out, 150*time.Millisecond)
	if len(searcher.Queries()) != 0 {
		t.Errorf("searched %v, want nothing", searcher.Queries())
	}
}

func TestCancel(t *testing.T) {
	searcher := &testutil.MockSearcher{}
	d, out := setup(t, searcher, 50*time.Millisecond)

	d.Submit("NVDA")
	p, ok := d.Pending()
	if !ok || p.Query != "NVDA" {
		t.Fatalf("Pending() = %+v, %v; want NVDA, true", p, ok)
	}

	d.Cancel()
	if _, ok := d.Pending(); ok {
		t.Error("Pending() reported a search after Cancel()")
	}
	expectNothing(t, out, 150*time.Millisecond)
}

func TestSearchError_DeliversEmptyResults(t *testing.T) {
	searcher := &testutil.MockSearcher{
		SearchFunc: func(context.Context, string) ([]market.SearchResult, error) {
			return nil, fetcher.NewNetworkError(errors.New("no route to host"))
		},
	}
	d, out := setup(t, searcher, 10*time.Millisecond)

	d.Submit("AAPL")
	got := expectDelivery(t, out)

	if got.results == nil || len(got.results) != 0 {
		t.Errorf("results = %#v, want empty non-nil slice", got.results)
	}
}

func TestStaleResponseDropped(t *testing.T) {
	var (
		mu      sync.Mutex
		release = make(chan struct{})
	)
	searcher := &testutil.MockSearcher{
		SearchFunc: func(_ context.Context, query string) ([]market.SearchResult, error) {
			if query == "slow" {
				<-release
			}
			mu.Lock()
			defer mu.Unlock()
			return []market.SearchResult{{Symbol: query}}, nil
		},
	}
	d, out := setup(t, searcher, 10*time.Millisecond)

	d.Submit("slow")
	time.Sleep(50 * time.Millisecond) // "slow" is now in flight
	d.Submit("fast")

	got := expectDelivery(t, out)
	if got.query != "fast" {
		t.Fatalf("first delivery = %q, want fast", got.query)
	}

	close(release)
	expectNothing(t, out, 100*time.Millisecond)
}

func TestPending_ScheduledAt(t *testing.T) {
	d, _ := setup(t, &testutil.MockSearcher{}, time.Hour)

	before := time.Now()
	d.Submit("AMZN")
	p, ok := d.Pending()
	if !ok {
		t.Fatal("Pending() reported nothing after Submit()")
	}
	if p.ScheduledAt.Before(before) {
		t.Errorf("ScheduledAt = %v, want >= %v", p.ScheduledAt, before)
	}
}
