// Package timing provides per-transaction performance measurement for the
// proxy, trimmed from a general-purpose HTTP client timing package down to
// the phases a forward-proxy transaction actually has: no DNS-timing or
// TLS-handshake phases, since the proxy never caches DNS answers and never
// terminates TLS (spec Non-goals).
package timing

import (
	"fmt"
	"time"
)

// Metrics captures the timing and size information for one transaction.
type Metrics struct {
	// OriginConnect is the time spent dialing the origin server (zero on cache hit).
	OriginConnect time.Duration
	// TTFB is the time spent waiting for the first byte of the origin's response
	// (zero on cache hit).
	TTFB time.Duration
	// TotalTime is the total end-to-end transaction time.
	TotalTime time.Duration
	// BytesRelayed is the number of response bytes written to the client.
	BytesRelayed int64
}

// Timer measures the phases of a single transaction.
type Timer struct {
	start        time.Time
	connectStart time.Time
	connectEnd   time.Time
	ttfbStart    time.Time
	ttfbEnd      time.Time
}

// NewTimer starts a new transaction timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// StartConnect marks the beginning of the origin dial.
func (t *Timer) StartConnect() { t.connectStart = time.Now() }

// EndConnect marks the end of the origin dial.
func (t *Timer) EndConnect() { t.connectEnd = time.Now() }

// StartTTFB marks when the proxy begins waiting for the origin's first byte.
func (t *Timer) StartTTFB() { t.ttfbStart = time.Now() }

// EndTTFB marks when the origin's first byte arrived.
func (t *Timer) EndTTFB() { t.ttfbEnd = time.Now() }

// Metrics returns the measured phases plus the total elapsed time and the
// supplied byte count.
func (t *Timer) Metrics(bytesRelayed int64) Metrics {
	m := Metrics{
		TotalTime:    time.Since(t.start),
		BytesRelayed: bytesRelayed,
	}
	if !t.connectStart.IsZero() && !t.connectEnd.IsZero() {
		m.OriginConnect = t.connectEnd.Sub(t.connectStart)
	}
	if !t.ttfbStart.IsZero() && !t.ttfbEnd.IsZero() {
		m.TTFB = t.ttfbEnd.Sub(t.ttfbStart)
	}
	return m
}

// String provides a human-readable summary, used in debug logging.
func (m Metrics) String() string {
	return fmt.Sprintf("connect=%v ttfb=%v total=%v bytes=%d",
		m.OriginConnect, m.TTFB, m.TotalTime, m.BytesRelayed)
}
