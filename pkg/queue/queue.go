// Package queue implements the bounded handoff queue between the acceptor
// goroutine and the fixed-size worker pool (spec.md §4.4). The reference
// proxy hand-rolls this as a circular buffer (sbuf_t) guarded by one mutex
// and two counting semaphores for "slots free" / "items available"; a
// buffered channel is the idiomatic Go substitute for exactly that
// discipline, so Queue is a thin typed wrapper over one.
package queue

import (
	"context"
	"net"

	"github.com/cacheproxy/webproxy/pkg/proxyerrors"
)

// Queue is a bounded FIFO handoff of accepted connections. Push blocks
// while the queue is full; Pop blocks while it is empty. The zero value is
// not usable; use New.
type Queue struct {
	ch chan net.Conn
}

// New returns a queue with the given capacity (spec.md's SBUFSIZE).
func New(capacity int) *Queue {
	return &Queue{ch: make(chan net.Conn, capacity)}
}

// Push enqueues conn, blocking if the queue is at capacity. It returns a
// client-io proxyerrors.Error wrapping ctx.Err() if ctx is cancelled
// before a slot becomes available, so the
// acceptor can unblock during shutdown instead of leaking a goroutine on a
// connection no worker will ever claim.
func (q *Queue) Push(ctx context.Context, conn net.Conn) error {
	select {
	case q.ch <- conn:
		return nil
	case <-ctx.Done():
		return proxyerrors.NewClientIOError("queue_push", ctx.Err())
	}
}

// Pop dequeues the next connection, blocking if the queue is empty. It
// returns a client-io proxyerrors.Error wrapping ctx.Err() if ctx is
// cancelled first, and ok=false with a nil
// error if the queue was closed and drained.
func (q *Queue) Pop(ctx context.Context) (conn net.Conn, ok bool, err error) {
	select {
	case c, open := <-q.ch:
		return c, open, nil
	case <-ctx.Done():
		return nil, false, proxyerrors.NewClientIOError("queue_pop", ctx.Err())
	}
}

// Close signals that no further connections will be pushed. Workers still
// drain any connections already queued before their Pop calls observe
// ok=false.
func (q *Queue) Close() {
	close(q.ch)
}

// Len reports the number of connections currently queued, for the admin
// surface's queue_depth gauge.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap reports the queue's fixed capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}
