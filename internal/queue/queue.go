// Package queue provides the acknowledged event channel between the
// filesystem watcher and the dispatch workers.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Jake-Brewer/auto-commit/internal/model"
)

// ErrClosed is returned by Put after the queue has been closed.
var ErrClosed = errors.New("queue is closed")

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 256

// Queue carries file events with task acknowledgment: an event counts as
// outstanding from Put until a consumer acknowledges it with Done, so
// Join reports idle only when nothing is queued and nothing is being
// processed. Safe for multiple producers and consumers.
type Queue struct {
	ch          chan model.FileEvent
	done        chan struct{}
	idle        chan struct{}
	outstanding int
	closed      bool
	mu          sync.Mutex
}

// New creates a queue with the given buffer capacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	idle := make(chan struct{})
	close(idle) // an empty queue starts idle
	return &Queue{
		ch:   make(chan model.FileEvent, capacity),
		done: make(chan struct{}),
		idle: idle,
	}
}

// Put enqueues an event, blocking while the buffer is full. It fails
// with ErrClosed once the queue has been closed.
func (q *Queue) Put(ev model.FileEvent) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.track()
	q.mu.Unlock()

	select {
	case q.ch <- ev:
		return nil
	case <-q.done:
		q.mu.Lock()
		q.release()
		q.mu.Unlock()
		return ErrClosed
	}
}

// Get waits up to timeout for an event. The second result is false when
// the wait timed out or the queue closed with nothing left to drain.
// Every successful Get must be paired with exactly one Done.
func (q *Queue) Get(timeout time.Duration) (model.FileEvent, bool) {
	// Buffered events are drained even after Close.
	select {
	case ev := <-q.ch:
		return ev, true
	default:
	}

	select {
	case <-q.done:
		return q.drainOne()
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ev := <-q.ch:
		return ev, true
	case <-q.done:
		return q.drainOne()
	case <-timer.C:
		return model.FileEvent{}, false
	}
}

func (q *Queue) drainOne() (model.FileEvent, bool) {
	select {
	case ev := <-q.ch:
		return ev, true
	default:
		return model.FileEvent{}, false
	}
}

// Done acknowledges one event previously returned by Get. Calling it
// more times than events were dequeued is a programming error and
// panics.
func (q *Queue) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.release()
}

// Join blocks until every enqueued event has been acknowledged, or until
// ctx ends.
func (q *Queue) Join(ctx context.Context) error {
	q.mu.Lock()
	if q.outstanding == 0 {
		q.mu.Unlock()
		return nil
	}
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len reports how many events are buffered and not yet dequeued.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close stops the queue. Subsequent Puts fail, blocked calls wake, and
// Get keeps draining whatever is already buffered. Close is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	close(q.done)
}

// track registers one outstanding event. Caller holds mu.
func (q *Queue) track() {
	if q.outstanding == 0 {
		q.idle = make(chan struct{})
	}
	q.outstanding++
}

// release retires one outstanding event. Caller holds mu.
func (q *Queue) release() {
	if q.outstanding <= 0 {
		panic("queue: Done called with nothing outstanding")
	}
	q.outstanding--
	if q.outstanding == 0 {
		close(q.idle)
	}
}
