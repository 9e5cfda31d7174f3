package fetcher

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// serve accepts a single connection, reads one request line and hands it to
// respond along with the connection.
func serve(t *testing.T, respond func(req string, conn net.Conn)) (host, port string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		line, _ := bufio.NewReader(conn).ReadString('\n')
		respond(line, conn)
	}()

	host, port, err = net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	return host, port
}

func newTransport(t *testing.T, opts Options) *Transport {
	t.Helper()
	tr, err := New(opts, nil)
	require.NoError(t, err)
	return tr
}

func TestExchangeReadsUntilClose(t *testing.T) {
	got := make(chan string, 1)
	host, port := serve(t, func(req string, conn net.Conn) {
		got <- req
		io.WriteString(conn, "hello\r\nworld")
	})

	tr := newTransport(t, DefaultOptions())
	conn, addr, err := tr.Dial(context.Background(), host, port)
	require.NoError(t, err)
	require.Equal(t, net.JoinHostPort(host, port), addr)

	data, err := tr.Exchange(conn, addr, "selector\r\n")
	require.NoError(t, err)
	require.Equal(t, "hello\r\nworld", string(data))
	require.Equal(t, "selector\r\n", <-got)
}

func TestExchangeBodyLimit(t *testing.T) {
	host, port := serve(t, func(_ string, conn net.Conn) {
		io.WriteString(conn, strings.Repeat("x", 64))
	})

	opts := DefaultOptions()
	opts.MaxBodyBytes = 16
	tr := newTransport(t, opts)

	conn, addr, err := tr.Dial(context.Background(), host, port)
	require.NoError(t, err)
	_, err = tr.Exchange(conn, addr, "\r\n")
	require.ErrorIs(t, err, ErrIOFailed)
	require.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestExchangeBodyAtLimit(t *testing.T) {
	host, port := serve(t, func(_ string, conn net.Conn) {
		io.WriteString(conn, strings.Repeat("x", 16))
	})

	opts := DefaultOptions()
	opts.MaxBodyBytes = 16
	tr := newTransport(t, opts)

	conn, addr, err := tr.Dial(context.Background(), host, port)
	require.NoError(t, err)
	data, err := tr.Exchange(conn, addr, "\r\n")
	require.NoError(t, err)
	require.Len(t, data, 16)
}

func TestExchangeIdleTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	host, port := serve(t, func(_ string, conn net.Conn) {
		io.WriteString(conn, "partial")
		<-release
	})

	opts := DefaultOptions()
	opts.IdleTimeout = 100 * time.Millisecond
	tr := newTransport(t, opts)

	conn, addr, err := tr.Dial(context.Background(), host, port)
	require.NoError(t, err)

	start := time.Now()
	_, err = tr.Exchange(conn, addr, "\r\n")
	require.ErrorIs(t, err, ErrIOFailed)
	var netErr net.Error
	require.True(t, errors.As(err, &netErr) && netErr.Timeout(), "expected a timeout, got %v", err)
	require.Less(t, time.Since(start), 5*time.Second)
}

// stuckConn is a connection whose deadlines cannot be set.
type stuckConn struct {
	net.Conn
	failWrite bool
}

var errNoDeadline = errors.New("deadline not supported")

func (c *stuckConn) SetWriteDeadline(time.Time) error {
	if c.failWrite {
		return errNoDeadline
	}
	return nil
}

func (c *stuckConn) SetReadDeadline(time.Time) error { return errNoDeadline }

func TestExchangeDeadlineErrors(t *testing.T) {
	for _, failWrite := range []bool{true, false} {
		client, server := net.Pipe()
		go func() {
			io.Copy(io.Discard, server)
			server.Close()
		}()

		opts := DefaultOptions()
		opts.IdleTimeout = time.Second
		tr := newTransport(t, opts)

		_, err := tr.Exchange(&stuckConn{Conn: client, failWrite: failWrite}, "h.org:70", "\r\n")
		require.ErrorIs(t, err, ErrIOFailed, "failWrite=%v", failWrite)
		require.ErrorIs(t, err, errNoDeadline, "failWrite=%v", failWrite)
	}
}

func TestDialConnectFailed(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port, _ := net.SplitHostPort(ln.Addr().String())
	ln.Close()

	tr := newTransport(t, DefaultOptions())
	_, addr, err := tr.Dial(context.Background(), host, port)
	require.ErrorIs(t, err, ErrConnectFailed)

	var ferr *Error
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, net.JoinHostPort(host, port), ferr.Addr)
	require.Equal(t, ferr.Addr, addr)
	require.NotNil(t, errors.Unwrap(err))
}

func TestDialResolutionFailed(t *testing.T) {
	opts := DefaultOptions()
	opts.ConnectTimeout = 2 * time.Second
	tr := newTransport(t, opts)

	_, _, err := tr.Dial(context.Background(), "no-such-host.invalid", "1965")
	require.ErrorIs(t, err, ErrResolutionFailed)
}

func TestDialTLSHandshakeFailed(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		io.WriteString(conn, "this is not tls\r\n")
		conn.Close()
	}()
	host, port, _ := net.SplitHostPort(ln.Addr().String())

	opts := DefaultOptions()
	opts.ConnectTimeout = 2 * time.Second
	tr := newTransport(t, opts)

	_, _, err = tr.DialTLS(context.Background(), host, port)
	require.ErrorIs(t, err, ErrHandshakeFailed)
}

func TestNewRejectsBadProxy(t *testing.T) {
	opts := DefaultOptions()
	opts.Proxy = "gopher://proxy.example:70"
	_, err := New(opts, nil)
	require.Error(t, err)
}

func TestNewDefaultsConnectTimeout(t *testing.T) {
	tr := newTransport(t, Options{})
	require.Equal(t, 5*time.Second, tr.Options().ConnectTimeout)
}

func TestToASCII(t *testing.T) {
	got, err := toASCII("bücher.example")
	require.NoError(t, err)
	require.Equal(t, "xn--bcher-kva.example", got)

	got, err = toASCII("::1")
	require.NoError(t, err)
	require.Equal(t, "::1", got)
}
