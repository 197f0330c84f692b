// Package origin dials the upstream server for a single proxied request.
// The reference proxy opens one short-lived connection per request and
// never reuses or pools it (spec.md's persistent-connections Non-goal), so
// this package is deliberately just a timeout-bounded net.Dial wrapper —
// the connection-pooling and TLS machinery this project's teacher repo
// built for its HTTP client has no home here.
package origin

import (
	"context"
	"net"
	"time"

	"github.com/cacheproxy/webproxy/pkg/proxyerrors"
)

// DefaultConnectTimeout bounds how long a single origin dial may take
// before the transaction engine gives up and returns a 404 to the client.
const DefaultConnectTimeout = 10 * time.Second

// Dialer opens origin connections with a fixed connect timeout.
type Dialer struct {
	Timeout time.Duration
}

// NewDialer returns a Dialer using DefaultConnectTimeout.
func NewDialer() *Dialer {
	return &Dialer{Timeout: DefaultConnectTimeout}
}

// Dial opens a single TCP connection to host:port. The caller owns the
// returned connection for the lifetime of one transaction and must close
// it itself; Dialer never pools or reuses connections.
func (d *Dialer) Dial(ctx context.Context, host, port string) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, proxyerrors.NewOriginError(host+":"+port, "connect", err)
	}
	return conn, nil
}
