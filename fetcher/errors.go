package fetcher

import (
	"errors"
	"fmt"
)

// Failure kinds. Match them with errors.Is against an *Error.
var (
	ErrResolutionFailed = errors.New("name resolution failed")
	ErrConnectFailed    = errors.New("connect failed")
	ErrHandshakeFailed  = errors.New("tls handshake failed")
	ErrIOFailed         = errors.New("i/o failed")
)

// ErrBodyTooLarge is wrapped in an ErrIOFailed error when a response
// exceeds the configured size limit.
var ErrBodyTooLarge = errors.New("response body too large")

// Error is a network failure against a specific server.
type Error struct {
	Kind error
	Addr string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Addr, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrConnectFailed) and friends work.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}
