// Package fetcher provides the connection plumbing shared by the protocol
// clients: name resolution, connect with timeout, optional TLS, one request
// line and a bounded read until the server closes the connection.
package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"time"

	"golang.org/x/net/idna"
	"golang.org/x/net/proxy"
)

// Result is the raw outcome of one request.
type Result struct {
	Meta      []byte // header line, nil for protocols without one
	Body      []byte
	Addr      string // host:port that was dialed
	FetchTime time.Duration
}

// Options configures the transport.
type Options struct {
	ConnectTimeout time.Duration
	IdleTimeout    time.Duration // per-read deadline, 0 = wait forever
	MaxBodyBytes   int64         // 0 = unlimited

	// AcceptAnyCertificate disables certificate and hostname verification.
	// Gemini servers overwhelmingly use self-signed certificates.
	AcceptAnyCertificate bool

	// Proxy is an optional proxy URL such as socks5://127.0.0.1:1080.
	Proxy string
}

// DefaultOptions returns the defaults used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ConnectTimeout:       5 * time.Second,
		IdleTimeout:          30 * time.Second,
		MaxBodyBytes:         16 << 20,
		AcceptAnyCertificate: true,
	}
}

// Transport dials servers and exchanges a single request/response.
type Transport struct {
	opts     Options
	resolver *net.Resolver
	dialer   proxy.ContextDialer // nil when connecting directly
	logger   *slog.Logger
}

// New creates a transport. An invalid proxy URL is reported here rather
// than on first use.
func New(opts Options, logger *slog.Logger) (*Transport, error) {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultOptions().ConnectTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	t := &Transport{
		opts:     opts,
		resolver: net.DefaultResolver,
		logger:   logger,
	}

	if opts.Proxy != "" {
		u, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parsing proxy url: %w", err)
		}
		d, err := proxy.FromURL(u, &net.Dialer{Timeout: opts.ConnectTimeout})
		if err != nil {
			return nil, fmt.Errorf("configuring proxy: %w", err)
		}
		cd, ok := d.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("proxy %s does not support dialing with a context", u.Scheme)
		}
		t.dialer = cd
	}
	return t, nil
}

// Options returns the transport's configuration.
func (t *Transport) Options() Options {
	return t.opts
}

// Dial resolves host and connects to it on port. Only the first resolved
// address is tried.
func (t *Transport) Dial(ctx context.Context, host, port string) (net.Conn, string, error) {
	asciiHost, err := toASCII(host)
	if err != nil {
		addr := net.JoinHostPort(host, port)
		return nil, addr, &Error{Kind: ErrResolutionFailed, Addr: addr, Err: err}
	}
	addr := net.JoinHostPort(asciiHost, port)

	ctx, cancel := context.WithTimeout(ctx, t.opts.ConnectTimeout)
	defer cancel()

	if t.dialer != nil {
		// The proxy resolves the name on our behalf.
		conn, err := t.dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, addr, &Error{Kind: ErrConnectFailed, Addr: addr, Err: err}
		}
		return conn, addr, nil
	}

	ips, err := t.resolver.LookupHost(ctx, asciiHost)
	if err != nil {
		return nil, addr, &Error{Kind: ErrResolutionFailed, Addr: addr, Err: err}
	}
	if len(ips) == 0 {
		return nil, addr, &Error{Kind: ErrResolutionFailed, Addr: addr, Err: errors.New("no addresses found")}
	}

	target := net.JoinHostPort(ips[0], port)
	t.logger.Debug("connecting", "addr", addr, "ip", ips[0])

	d := &net.Dialer{Timeout: t.opts.ConnectTimeout}
	conn, err := d.DialContext(ctx, "tcp", target)
	if err != nil {
		return nil, addr, &Error{Kind: ErrConnectFailed, Addr: addr, Err: err}
	}
	return conn, addr, nil
}

// DialTLS connects like Dial and performs a TLS handshake using host for SNI.
func (t *Transport) DialTLS(ctx context.Context, host, port string) (net.Conn, string, error) {
	conn, addr, err := t.Dial(ctx, host, port)
	if err != nil {
		return nil, addr, err
	}

	serverName, _ := toASCII(host)
	cfg := &tls.Config{
		ServerName:         serverName,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: t.opts.AcceptAnyCertificate,
	}
	tlsConn := tls.Client(conn, cfg)

	hsCtx, cancel := context.WithTimeout(ctx, t.opts.ConnectTimeout)
	defer cancel()
	if err := tlsConn.HandshakeContext(hsCtx); err != nil {
		conn.Close()
		return nil, addr, &Error{Kind: ErrHandshakeFailed, Addr: addr, Err: err}
	}
	return tlsConn, addr, nil
}

// Exchange writes request to conn, reads until the peer closes and closes
// conn. The read is bounded by the idle timeout and the body size limit.
func (t *Transport) Exchange(conn net.Conn, addr, request string) ([]byte, error) {
	defer conn.Close()

	if t.opts.IdleTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(t.opts.IdleTimeout)); err != nil {
			return nil, &Error{Kind: ErrIOFailed, Addr: addr, Err: fmt.Errorf("setting write deadline: %w", err)}
		}
	}
	if _, err := io.WriteString(conn, request); err != nil {
		return nil, &Error{Kind: ErrIOFailed, Addr: addr, Err: fmt.Errorf("writing request: %w", err)}
	}

	data, err := t.readAll(conn)
	if err != nil {
		return nil, &Error{Kind: ErrIOFailed, Addr: addr, Err: err}
	}
	return data, nil
}

func (t *Transport) readAll(conn net.Conn) ([]byte, error) {
	var r io.Reader = &idleReader{conn: conn, idle: t.opts.IdleTimeout}
	limit := t.opts.MaxBodyBytes
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}

	data, err := io.ReadAll(r)
	if err != nil && !isCloseNotify(err) {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (limit %d bytes)", ErrBodyTooLarge, limit)
	}
	return data, nil
}

// idleReader pushes the read deadline forward before every read so a slow
// but live server is not cut off, while a silent one is.
type idleReader struct {
	conn net.Conn
	idle time.Duration
}

func (r *idleReader) Read(p []byte) (int, error) {
	if r.idle > 0 {
		if err := r.conn.SetReadDeadline(time.Now().Add(r.idle)); err != nil {
			return 0, fmt.Errorf("setting read deadline: %w", err)
		}
	}
	return r.conn.Read(p)
}

// isCloseNotify reports errors raised by servers that drop the TCP
// connection without a TLS close_notify. The data read so far is complete.
func isCloseNotify(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF)
}

func toASCII(host string) (string, error) {
	if net.ParseIP(host) != nil {
		return host, nil
	}
	return idna.Lookup.ToASCII(host)
}
