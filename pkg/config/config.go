// Package config defines the tuning constants for the proxy's core
// pipeline. These mirror the compile-time constants of the original
// proxy lab this project reimplements; they are deliberately not
// exposed as CLI flags or environment variables — the proxy's behavioral
// configuration surface is the listening port only.
package config

const (
	// MaxCacheSize is the ceiling on the sum of all cached entry sizes, in bytes.
	MaxCacheSize = 1_049_000

	// MaxObjectSize is the largest response body eligible for caching, in bytes.
	MaxObjectSize = 102_400

	// NThreads is the fixed size of the worker pool.
	NThreads = 4

	// SBufSize is the capacity of the handoff queue between the acceptor and workers.
	SBufSize = 16

	// MaxLine bounds a single buffered line read and sizes the relay buffer.
	// The outbound request header block is not bounded by it.
	MaxLine = 8192
)

// UserAgent is the User-Agent header the proxy always substitutes for the
// client's own, matching the reference implementation byte-for-byte.
const UserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:10.0.3) Gecko/20120305 Firefox/10.0.3"
