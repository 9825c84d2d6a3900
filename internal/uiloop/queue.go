// Package uiloop is the event queue of the UI goroutine.
//
// Any goroutine may Post a task; only the goroutine that owns the window
// runs them, through Drain (called once per UI tick) or Run (headless).
package uiloop

import (
	"context"
	"sync"
)

// DefaultCapacity bounds the number of tasks waiting for the UI goroutine.
const DefaultCapacity = 64

// Queue is a bounded, non-blocking task queue. It implements camview.Dispatcher.
type Queue struct {
	tasks chan func()

	mu     sync.RWMutex
	closed bool
}

// New returns a queue holding at most capacity pending tasks.
// A non-positive capacity selects DefaultCapacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{tasks: make(chan func(), capacity)}
}

// Post enqueues task without blocking. It returns false if the queue is
// closed or full, in which case the task will never run.
func (q *Queue) Post(task func()) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}

	select {
	case q.tasks <- task:
		return true
	default:
		return false
	}
}

// Drain runs every task pending at the time of the call on the calling
// goroutine and returns how many ran. Tasks posted by running tasks wait for
// the next Drain.
func (q *Queue) Drain() int {
	n := len(q.tasks)
	ran := 0
	for range n {
		select {
		case task := <-q.tasks:
			task()
			ran++
		default:
			return ran
		}
	}
	return ran
}

// Run executes tasks as they arrive until ctx is cancelled. It is the UI loop
// for headless use; windowed front ends call Drain from their own tick.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-q.tasks:
			task()
		}
	}
}

// Pending returns the number of queued tasks.
func (q *Queue) Pending() int {
	return len(q.tasks)
}

// Close rejects further posts. Tasks already queued stay drainable.
// Idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}
