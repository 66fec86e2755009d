package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestQueue_RunsInOrderOnOneGoroutine(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	const n = 200
	var (
		got     []int
		running int
		overlap bool
		done    = make(chan struct{})
	)

	for i := 0; i < n; i++ {
		i := i
		if !q.Post(func() {
			running++
			if running > 1 {
				overlap = true
			}
			got = append(got, i)
			running--
			if i == n-1 {
				close(done)
			}
		}) {
			t.Fatalf("Post() = false on open queue")
		}
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for posted functions")
	}

	if overlap {
		t.Error("posted functions ran concurrently")
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("got[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestQueue_ConcurrentPosters(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	var (
		wg      sync.WaitGroup
		counter int
		done    = make(chan struct{})
	)
	const posters, each = 10, 50

	for p := 0; p < posters; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				q.Post(func() { counter++ })
			}
		}()
	}
	wg.Wait()
	q.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for queue to drain")
	}
	if counter != posters*each {
		t.Errorf("counter = %d, want %d", counter, posters*each)
	}
}

func TestQueue_PostAfterClose(t *testing.T) {
	q := NewQueue()
	q.Close()
	q.Close()

	if q.Post(func() {}) {
		t.Error("Post() after Close() = true, want false")
	}
}

func TestQueue_RunStopsOnContext(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after context cancellation")
	}
}
