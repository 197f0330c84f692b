// Package acceptor runs the listening-socket accept loop (spec.md §4.8):
// bind the given port, accept connections forever, and hand each one to
// the bounded queue. The acceptor never terminates on its own; transient
// accept errors are logged and skipped.
package acceptor

import (
	"context"
	"net"

	"go.uber.org/zap"

	"github.com/cacheproxy/webproxy/pkg/queue"
)

// Acceptor binds a listener and feeds accepted connections into a queue.
type Acceptor struct {
	Queue *queue.Queue
	Log   *zap.Logger
}

// New returns an Acceptor pushing accepted connections onto q. log may be
// nil, in which case a no-op logger is used.
func New(q *queue.Queue, log *zap.Logger) *Acceptor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Acceptor{Queue: q, Log: log}
}

// Run binds addr and accepts connections until ctx is cancelled. It blocks
// the calling goroutine.
func (a *Acceptor) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	a.Log.Info("listening", zap.String("addr", ln.Addr().String()))

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			a.Log.Warn("accept error", zap.Error(err))
			continue
		}

		if err := a.Queue.Push(ctx, conn); err != nil {
			a.Log.Debug("queue push cancelled", zap.Error(err))
			conn.Close()
			return nil
		}
	}
}
