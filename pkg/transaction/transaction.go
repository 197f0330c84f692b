// Package transaction implements serve_one, the per-connection
// orchestration engine (spec.md §4.6): parse the request line, consult the
// cache, otherwise dial the origin, rewrite and forward the request, relay
// the response byte-transparently, and opportunistically cache it. Every
// step and its ordering follows spec.md §4.6 verbatim; this package only
// adds the transaction-ID and metrics plumbing SPEC_FULL.md's ambient
// stack calls for.
package transaction

import (
	"context"
	"io"
	"net"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cacheproxy/webproxy/pkg/cache"
	"github.com/cacheproxy/webproxy/pkg/config"
	"github.com/cacheproxy/webproxy/pkg/errorpage"
	"github.com/cacheproxy/webproxy/pkg/header"
	"github.com/cacheproxy/webproxy/pkg/origin"
	"github.com/cacheproxy/webproxy/pkg/rio"
	"github.com/cacheproxy/webproxy/pkg/timing"
	"github.com/cacheproxy/webproxy/pkg/uri"
)

// Recorder receives one observation per completed transaction, for the
// admin metrics surface. Implementations must not block or error.
type Recorder interface {
	ObserveTransaction(outcome string, bytesRelayed int64, m timing.Metrics)
}

type noopRecorder struct{}

func (noopRecorder) ObserveTransaction(string, int64, timing.Metrics) {}

// Engine holds the dependencies serve_one needs to run a transaction:
// the shared cache, the origin dialer, a logger, and a metrics recorder.
type Engine struct {
	Cache    *cache.Cache
	Dialer   *origin.Dialer
	Log      *zap.Logger
	Recorder Recorder
}

// New returns an Engine with the given cache and dialer, a no-op logger,
// and a no-op recorder. Callers wire in a real logger/recorder separately.
func New(c *cache.Cache, d *origin.Dialer) *Engine {
	return &Engine{Cache: c, Dialer: d, Log: zap.NewNop(), Recorder: noopRecorder{}}
}

// Serve runs one transaction to completion on conn. It never panics on
// client or origin I/O errors; every failure path ends the transaction by
// returning, per spec.md §4.6/§7. The caller owns conn and closes it.
func (e *Engine) Serve(ctx context.Context, conn net.Conn) {
	txID := uuid.NewString()
	timer := timing.NewTimer()
	r := rio.New(conn)
	log := e.Log.With(zap.String("txn_id", txID))

	requestLine, err := r.ReadLine(config.MaxLine)
	if err != nil {
		// EOF before any request line, or a read error: return silently
		// (spec.md §4.6 step 1, §7 "no response" case).
		return
	}

	method, reqURI, ok := tokenizeRequestLine(requestLine)
	if !ok {
		e.writeError(r, log, errorpage.BadRequest, "malformed request line")
		return
	}

	if !strings.EqualFold(method, "GET") {
		log.Info("unsupported method", zap.String("method", method), zap.String("uri", reqURI))
		e.writeError(r, log, errorpage.NotImplemented, method)
		return
	}

	if entry, hit := e.Cache.Find(reqURI); hit {
		if err := r.WriteFull(entry.Content); err != nil {
			log.Debug("client write failed during cache hit relay", zap.Error(err))
			e.record("error", 0, timer)
			return
		}
		e.Cache.Touch(entry)
		log.Info("cache hit", zap.String("uri", reqURI), zap.Int("bytes", entry.Size))
		e.record("hit", int64(entry.Size), timer)
		return
	}

	parsed, err := uri.Parse(reqURI)
	if err != nil {
		log.Info("bad uri", zap.String("uri", reqURI), zap.Error(err))
		e.writeError(r, log, errorpage.BadRequest, reqURI)
		e.record("error", 0, timer)
		return
	}

	timer.StartConnect()
	originConn, err := e.Dialer.Dial(ctx, parsed.Host, parsed.Port)
	timer.EndConnect()
	if err != nil {
		log.Warn("origin connect failed", zap.String("uri", reqURI), zap.Error(err))
		e.writeError(r, log, errorpage.NotFound, reqURI)
		e.record("error", 0, timer)
		return
	}
	defer originConn.Close()
	originReader := rio.New(originConn)

	requestBlock, err := header.Build(r, parsed.Path, parsed.Host)
	if err != nil {
		// A client I/O error while consuming the headers: no response was
		// ever sent to the origin, so there is nothing to relay.
		log.Debug("failed to read client headers", zap.Error(err))
		e.record("error", 0, timer)
		return
	}

	if err := originReader.WriteFull([]byte(requestBlock)); err != nil {
		log.Warn("failed to forward request to origin", zap.String("uri", reqURI), zap.Error(err))
		e.writeError(r, log, errorpage.BadGateway, reqURI)
		e.record("error", 0, timer)
		return
	}

	timer.StartTTFB()
	bytesRelayed, cacheable, cached := e.relay(r, originReader, log, timer)
	log.Info("relayed response",
		zap.String("uri", reqURI),
		zap.Int64("bytes", bytesRelayed),
		zap.Bool("cacheable", cacheable),
	)

	if cacheable && bytesRelayed > 0 {
		if err := e.Cache.Insert(reqURI, cached); err != nil {
			log.Debug("cache insert skipped", zap.Error(err))
		}
	}

	outcome := "miss"
	if bytesRelayed == 0 {
		outcome = "error"
	}
	e.record(outcome, bytesRelayed, timer)
}

// relay copies the origin's byte stream to the client verbatim (spec.md
// §4.6 step 9), while maintaining a rolling copy of up to MAX_OBJECT_SIZE
// bytes for opportunistic caching (step 10). It never returns an error:
// client write failures end the relay early but are not fatal to the
// worker (spec.md §4.6, §7).
func (e *Engine) relay(client *rio.Reader, originConn *rio.Reader, log *zap.Logger, t *timing.Timer) (bytesRelayed int64, cacheable bool, cached []byte) {
	buf := make([]byte, config.MaxLine)
	cacheable = true
	cached = make([]byte, 0, config.MaxObjectSize)
	firstByte := true

	for {
		n, err := originConn.ReadN(buf)
		if n > 0 {
			if firstByte {
				t.EndTTFB()
				firstByte = false
			}
			if werr := client.WriteFull(buf[:n]); werr != nil {
				// Client went away mid-relay: stop relaying and do not
				// cache, since the response read so far may be incomplete.
				log.Debug("client write failed mid-relay", zap.Error(werr))
				return bytesRelayed, false, nil
			}
			bytesRelayed += int64(n)
			if cacheable {
				if len(cached)+n > config.MaxObjectSize {
					cacheable = false
					cached = nil
				} else {
					cached = append(cached, buf[:n]...)
				}
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Debug("origin read failed mid-relay", zap.Error(err))
			}
			break
		}
	}
	return bytesRelayed, cacheable, cached
}

// writeError renders and writes one of the proxy's synthetic error
// documents to the client. Failures writing it are logged, not surfaced:
// by this point the transaction is already ending.
func (e *Engine) writeError(r *rio.Reader, log *zap.Logger, kind errorpage.Kind, detail string) {
	if err := r.WriteFull(errorpage.Render(kind, detail)); err != nil {
		log.Debug("failed to write error response", zap.String("detail", detail), zap.Error(err))
	}
}

func (e *Engine) record(outcome string, bytesRelayed int64, timer *timing.Timer) {
	if e.Recorder == nil {
		return
	}
	e.Recorder.ObserveTransaction(outcome, bytesRelayed, timer.Metrics(bytesRelayed))
}

// tokenizeRequestLine splits "METHOD URI VERSION" on whitespace. Extra
// whitespace runs are tolerated; fewer than three tokens is malformed.
func tokenizeRequestLine(line string) (method, uri string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return "", "", false
	}
	return fields[0], fields[1], true
}
