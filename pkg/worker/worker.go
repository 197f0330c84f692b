// Package worker runs the fixed-size pool that drains the handoff queue
// and executes one transaction per connection (spec.md §4.5). Workers are
// detached at creation and never joined, matching the reference proxy's
// fire-and-forget thread pool.
package worker

import (
	"context"
	"net"

	"go.uber.org/zap"

	"github.com/cacheproxy/webproxy/pkg/queue"
	"github.com/cacheproxy/webproxy/pkg/transaction"
)

// Pool runs a fixed number of worker goroutines, each repeatedly popping a
// connection from q and handing it to engine for one transaction.
type Pool struct {
	Queue  *queue.Queue
	Engine *transaction.Engine
	Log    *zap.Logger
	Size   int
}

// New returns a Pool of the given size. log may be nil, in which case a
// no-op logger is used.
func New(q *queue.Queue, engine *transaction.Engine, log *zap.Logger, size int) *Pool {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool{Queue: q, Engine: engine, Log: log, Size: size}
}

// Run starts Size worker goroutines. It returns immediately; workers run
// until ctx is cancelled or the queue is closed and drained.
func (p *Pool) Run(ctx context.Context) {
	for i := 0; i < p.Size; i++ {
		go p.loop(ctx, i)
	}
}

func (p *Pool) loop(ctx context.Context, id int) {
	log := p.Log.With(zap.Int("worker_id", id))
	for {
		conn, ok, err := p.Queue.Pop(ctx)
		if err != nil {
			log.Debug("worker stopping", zap.Error(err))
			return
		}
		if !ok {
			log.Debug("queue closed and drained, worker exiting")
			return
		}
		p.serve(ctx, conn)
	}
}

// serve runs one transaction and always closes the connection afterward.
func (p *Pool) serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	p.Engine.Serve(ctx, conn)
}
