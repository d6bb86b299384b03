// Package connectivity probes whether the Supabase backend is reachable.
package connectivity

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	svcerrors "github.com/watxaut/FontsReviewerApp/internal/errors"
)

const defaultTimeout = 3 * time.Second

// Checker dials the backend host to decide whether it is reachable.
type Checker struct {
	addr    string
	timeout time.Duration
	dial    func(ctx context.Context, network, addr string) (net.Conn, error)
}

// New builds a checker for the host of baseURL. The port defaults to the
// scheme's well-known port.
func New(baseURL string, timeout time.Duration) (*Checker, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", baseURL)
	}
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "http":
			port = "80"
		case "https":
			port = "443"
		default:
			return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
		}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	d := &net.Dialer{}
	return &Checker{
		addr:    net.JoinHostPort(u.Hostname(), port),
		timeout: timeout,
		dial:    d.DialContext,
	}, nil
}

// Addr is the host:port being probed.
func (c *Checker) Addr() string {
	return c.addr
}

// Check returns a NO_INTERNET ServiceError when the backend cannot be
// reached within the timeout.
func (c *Checker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dial(ctx, "tcp", c.addr)
	if err != nil {
		return svcerrors.NoInternet(fmt.Errorf("dial %s: %w", c.addr, err))
	}
	_ = conn.Close()
	return nil
}
