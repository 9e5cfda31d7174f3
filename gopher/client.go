// Package gopher implements the Gopher protocol client and menu format.
package gopher

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"castor/fetcher"
)

// DefaultPort is used when the address does not name one.
const DefaultPort = "70"

// Client fetches gopher:// addresses.
type Client struct {
	transport *fetcher.Transport
	rule      SelectorRule
	logger    *slog.Logger
}

// NewClient creates a client that connects through transport and builds
// selectors with rule.
func NewClient(transport *fetcher.Transport, rule SelectorRule, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{transport: transport, rule: rule, logger: logger}
}

// Fetch sends the selector for u. Gopher has no response header, so the
// whole response is returned as Body.
func (c *Client) Fetch(ctx context.Context, u *url.URL) (*fetcher.Result, error) {
	port := u.Port()
	if port == "" {
		port = DefaultPort
	}
	sel := Selector(u, c.rule)

	start := time.Now()
	conn, addr, err := c.transport.Dial(ctx, u.Hostname(), port)
	if err != nil {
		return nil, err
	}
	body, err := c.transport.Exchange(conn, addr, sel+"\r\n")
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	c.logger.Debug("gopher fetch", "addr", addr, "selector", sel, "bytes", len(body), "elapsed", elapsed)
	return &fetcher.Result{Body: body, Addr: addr, FetchTime: elapsed}, nil
}
