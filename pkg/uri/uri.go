// Package uri splits the absolute-URI of a forward-proxy GET request into
// its host, port, and path components. It is grounded on the
// upstream-proxy URL parser of the library this project grew out of, generalized from "parse an outbound proxy
// endpoint" to "parse the request target itself" — the same host/port
// splitting problem, applied one layer up the stack.
package uri

import (
	"strings"

	"github.com/cacheproxy/webproxy/pkg/proxyerrors"
)

const (
	scheme      = "http://"
	defaultPort = "80"
)

// Parsed holds the dissected components of a request-line URI.
type Parsed struct {
	Host string
	Port string
	Path string
}

// Parse splits a raw request-line URI of the form http://host[:port]/path
// into its host, port, and path. It never mutates or retains the input
// string, since the caller reuses it verbatim as the cache key.
//
// Rules (matching the reference proxy's parse_uri, minus its
// null-byte-on-missing-port bug — see DESIGN.md):
//   - the "http://" prefix is required, case-insensitively;
//   - the first '/' after the prefix begins the path; if absent, path is "/";
//   - within the pre-path segment, a ':' (if present) splits host from port;
//     if absent, port defaults to "80".
func Parse(raw string) (Parsed, error) {
	if len(raw) < len(scheme) || !strings.EqualFold(raw[:len(scheme)], scheme) {
		return Parsed{}, proxyerrors.NewParseError(raw, "uri missing http:// prefix", nil)
	}

	rest := raw[len(scheme):]

	path := "/"
	prePath := rest
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		path = rest[idx:]
		prePath = rest[:idx]
	}

	host := prePath
	port := defaultPort
	if idx := strings.IndexByte(prePath, ':'); idx >= 0 {
		host = prePath[:idx]
		port = prePath[idx+1:]
	}

	if host == "" {
		return Parsed{}, proxyerrors.NewParseError(raw, "uri missing host", nil)
	}

	return Parsed{Host: host, Port: port, Path: path}, nil
}
