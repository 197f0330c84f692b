// Package header builds the outbound request block the proxy sends to an
// origin server, rewriting the client's headers per the fixed policy in
// spec.md §4.2. Reads are line-oriented through pkg/rio, the same bounded
// line reader the transaction engine uses for the request line itself.
package header

import (
	"strings"

	"github.com/cacheproxy/webproxy/pkg/config"
	"github.com/cacheproxy/webproxy/pkg/rio"
)

const (
	hdrHost            = "Host:"
	hdrUserAgent       = "User-Agent:"
	hdrConnection      = "Connection:"
	hdrProxyConnection = "Proxy-Connection:"
)

// Build consumes the client's request headers from r (up to and including
// the terminating blank line) and returns the full outbound request block:
// the GET request line for path, followed by the rewritten headers, ending
// in the blank line. host is the parsed request host, used to synthesize
// a Host header when the client didn't send one.
//
// Policy (spec.md §4.2): Host is forwarded verbatim if present; User-Agent,
// Connection, and Proxy-Connection are always dropped and replaced with
// the mandated overrides; every other header is forwarded verbatim.
func Build(r *rio.Reader, path, host string) (string, error) {
	var other strings.Builder
	var hostLine string
	hostSeen := false

	for {
		line, err := r.ReadLine(config.MaxLine)
		if err != nil {
			return "", err
		}
		if line == "" {
			break
		}

		switch {
		case hasPrefixFold(line, hdrHost):
			hostLine = line + "\r\n"
			hostSeen = true
		case hasPrefixFold(line, hdrUserAgent),
			hasPrefixFold(line, hdrConnection),
			hasPrefixFold(line, hdrProxyConnection):
			// dropped: replaced by the mandatory overrides below
		default:
			other.WriteString(line)
			other.WriteString("\r\n")
		}
	}

	var b strings.Builder
	b.WriteString("GET ")
	b.WriteString(path)
	b.WriteString(" HTTP/1.0\r\n")

	if hostSeen {
		b.WriteString(hostLine)
	} else {
		b.WriteString("Host: ")
		b.WriteString(host)
		b.WriteString("\r\n")
	}

	b.WriteString("Connection: close\r\n")
	b.WriteString("Proxy-Connection: close\r\n")
	b.WriteString("User-Agent: ")
	b.WriteString(config.UserAgent)
	b.WriteString("\r\n")
	b.WriteString(other.String())
	b.WriteString("\r\n")

	return b.String(), nil
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
