package engine

import (
	"sync"

	"github.com/roach88/ontic/internal/contract"
	"github.com/roach88/ontic/internal/ir"
)

// Reply is what a submitted call resolves to.
type Reply struct {
	Result contract.Result
	Err    error
}

// request is a call waiting for the Run loop. Exactly one of op and method
// is set.
type request struct {
	op     contract.Operation
	method string
	args   ir.List
	reply  chan Reply
}

// requestQueue is an unbounded, thread-safe FIFO of pending calls.
//
// A buffered signal channel of size 1 lets the Run loop wait with select so
// it still notices context cancellation.
type requestQueue struct {
	mu     sync.Mutex
	items  []request
	closed bool
	signal chan struct{}
}

func newRequestQueue() *requestQueue {
	return &requestQueue{
		items:  make([]request, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a request to the back of the queue.
// Returns false if the queue is closed.
func (q *requestQueue) Enqueue(r request) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.items = append(q.items, r)

	// Non-blocking; the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front request without blocking.
func (q *requestQueue) TryDequeue() (request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return request{}, false
	}

	r := q.items[0]
	// Clear the slot so the backing array does not pin reply channels.
	q.items[0] = request{}

	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}

	return r, true
}

// Wait returns a channel that signals when requests may be available.
// It is closed when the queue closes.
func (q *requestQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *requestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops further enqueues and wakes waiters.
func (q *requestQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}

// Closed reports whether Close has been called.
func (q *requestQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
