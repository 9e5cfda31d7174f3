// Package finger implements the Finger user information protocol client.
package finger

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"castor/fetcher"
)

// DefaultPort is used when the address does not name one.
const DefaultPort = "79"

// Client fetches finger:// addresses.
type Client struct {
	transport *fetcher.Transport
	logger    *slog.Logger
}

// NewClient creates a client that connects through transport.
func NewClient(transport *fetcher.Transport, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{transport: transport, logger: logger}
}

// Username returns the user queried by u: the userinfo name when present,
// otherwise the path without its leading slash. An empty name lists the
// users on the host.
func Username(u *url.URL) string {
	if u.User != nil && u.User.Username() != "" {
		return u.User.Username()
	}
	return strings.TrimPrefix(u.Path, "/")
}

// Fetch sends the query for u and returns the whole response as Body.
func (c *Client) Fetch(ctx context.Context, u *url.URL) (*fetcher.Result, error) {
	port := u.Port()
	if port == "" {
		port = DefaultPort
	}
	user := Username(u)

	start := time.Now()
	conn, addr, err := c.transport.Dial(ctx, u.Hostname(), port)
	if err != nil {
		return nil, err
	}
	body, err := c.transport.Exchange(conn, addr, user+"\r\n")
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	c.logger.Debug("finger fetch", "addr", addr, "user", user, "bytes", len(body), "elapsed", elapsed)
	return &fetcher.Result{Body: body, Addr: addr, FetchTime: elapsed}, nil
}
