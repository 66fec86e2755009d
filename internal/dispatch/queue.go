// Package dispatch provides a serial execution context for callbacks that
// touch presentation-facing state.
package dispatch

import (
	"context"
	"sync"
)

const defaultBuffer = 64

// Queue runs posted functions one at a time, in the order they were posted,
// on the single goroutine that calls Run.
type Queue struct {
	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
}

// NewQueue creates a Queue. It does nothing until Run is called.
func NewQueue() *Queue {
	return &Queue{
		tasks: make(chan func(), defaultBuffer),
		done:  make(chan struct{}),
	}
}

// Run executes posted functions until ctx is cancelled or Close is called.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.done:
			return
		case fn := <-q.tasks:
			fn()
		}
	}
}

// Post schedules fn. It blocks while the buffer is full and reports false
// if the queue was closed first.
func (q *Queue) Post(fn func()) bool {
	select {
	case <-q.done:
		return false
	default:
	}

	select {
	case q.tasks <- fn:
		return true
	case <-q.done:
		return false
	}
}

// Close stops Run. Functions still buffered are discarded.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}
