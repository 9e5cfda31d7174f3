// Package gemini implements the Gemini protocol client, its response header
// state machine and the text/gemini line format.
package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"castor/fetcher"
)

// DefaultPort is used when the address does not name one.
const DefaultPort = "1965"

// maxRequestBytes is the longest URL a server is required to accept.
const maxRequestBytes = 1024

// ErrRequestTooLong is returned for addresses that do not fit in a request.
var ErrRequestTooLong = errors.New("request url longer than 1024 bytes")

// Client fetches gemini:// addresses.
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

// Fetch sends the request line for u and returns the header line as Meta
// and everything after it as Body.
func (c *Client) Fetch(ctx context.Context, u *url.URL) (*fetcher.Result, error) {
	req := u.String()
	if len(req) > maxRequestBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrRequestTooLong, len(req))
	}

	port := u.Port()
	if port == "" {
		port = DefaultPort
	}

	start := time.Now()
	conn, addr, err := c.transport.DialTLS(ctx, u.Hostname(), port)
	if err != nil {
		return nil, err
	}
	data, err := c.transport.Exchange(conn, addr, req+"\r\n")
	if err != nil {
		return nil, err
	}

	meta, body := SplitHeader(data)
	elapsed := time.Since(start)
	c.logger.Debug("gemini fetch", "url", req, "addr", addr, "bytes", len(data), "elapsed", elapsed)

	return &fetcher.Result{Meta: meta, Body: body, Addr: addr, FetchTime: elapsed}, nil
}

// SplitHeader splits a response at the first CRLF. A response without one
// is all header.
func SplitHeader(data []byte) (meta, body []byte) {
	i := bytes.Index(data, []byte("\r\n"))
	if i < 0 {
		return data, []byte{}
	}
	return data[:i], data[i+2:]
}
