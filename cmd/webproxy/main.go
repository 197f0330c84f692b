// Command webproxy runs the caching HTTP/1.0 forward proxy. It takes
// exactly one positional argument, the listening port, per spec.md §6;
// --metrics-addr and --log-level are operational flags with defaults and
// do not count toward that positional contract.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cacheproxy/webproxy/pkg/acceptor"
	"github.com/cacheproxy/webproxy/pkg/cache"
	"github.com/cacheproxy/webproxy/pkg/config"
	"github.com/cacheproxy/webproxy/pkg/logging"
	"github.com/cacheproxy/webproxy/pkg/metrics"
	"github.com/cacheproxy/webproxy/pkg/origin"
	"github.com/cacheproxy/webproxy/pkg/queue"
	"github.com/cacheproxy/webproxy/pkg/transaction"
	"github.com/cacheproxy/webproxy/pkg/worker"
)

var (
	metricsAddr string
	logLevel    string
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webproxy <port>",
		Short: "A caching, concurrent HTTP/1.0 forward proxy",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				fmt.Fprintln(os.Stderr, "usage: webproxy <port>")
				os.Exit(1)
			}
			return run(args[0])
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "127.0.0.1:6060", "admin/metrics listener address")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func run(port string) error {
	if _, err := net.LookupPort("tcp", port); err != nil {
		return fmt.Errorf("invalid port %q: %w", port, err)
	}

	log, err := logging.New(logLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	c := cache.New(log)
	q := queue.New(config.SBufSize)
	dialer := origin.NewDialer()

	reg := prometheus.NewRegistry()
	recorder := metrics.NewRegistry(reg, c, q)

	engine := transaction.New(c, dialer)
	engine.Log = log
	engine.Recorder = recorder

	pool := worker.New(q, engine, log, config.NThreads)
	acc := acceptor.New(q, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The reference proxy ignores SIGPIPE process-wide so a client hangup
	// mid-write never kills the process; in Go a failed Write already
	// just returns an error, but we still install the ignore disposition
	// for readers coming from the original C proxy (spec.md §5).
	signal.Ignore(syscall.SIGPIPE)

	pool.Run(ctx)

	// The acceptor and worker pool are fire-and-forget (spec.md
	// §4.5/§4.8): they stop when ctx is cancelled but are never waited on.
	// Only the admin HTTP surface is shut down gracefully and awaited.
	go func() {
		if err := acc.Run(ctx, ":"+port); err != nil {
			log.Error("acceptor stopped", zap.Error(err))
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	adminServer := &http.Server{
		Addr:    metricsAddr,
		Handler: metrics.Router(reg, c),
	}
	g.Go(func() error {
		log.Info("admin surface listening", zap.String("addr", metricsAddr))
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return adminServer.Shutdown(context.Background())
	})

	return g.Wait()
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
