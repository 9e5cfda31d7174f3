package gemini

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Status codes defined by the Gemini protocol.
const (
	StatusInput          = 10
	StatusSensitiveInput = 11

	StatusSuccess = 20

	StatusRedirectTemporary = 30
	StatusRedirectPermanent = 31

	StatusTemporaryFailure  = 40
	StatusServerUnavailable = 41
	StatusCGIError          = 42
	StatusProxyError        = 43
	StatusSlowDown          = 44

	StatusPermanentFailure     = 50
	StatusNotFound             = 51
	StatusGone                 = 52
	StatusProxyRequestRefused  = 53
	StatusBadRequest           = 59

	StatusCertificateRequired      = 60
	StatusCertificateNotAuthorised = 61
	StatusCertificateNotValid      = 62
)

// DefaultMIME is assumed when a success response has an empty meta field.
const DefaultMIME = "text/gemini; charset=utf-8"

// Category is the class of a status, given by its first digit.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryInput
	CategorySuccess
	CategoryRedirect
	CategoryTemporaryFailure
	CategoryPermanentFailure
	CategoryCertificateRequired
)

func (c Category) String() string {
	switch c {
	case CategoryInput:
		return "input"
	case CategorySuccess:
		return "success"
	case CategoryRedirect:
		return "redirect"
	case CategoryTemporaryFailure:
		return "temporary failure"
	case CategoryPermanentFailure:
		return "permanent failure"
	case CategoryCertificateRequired:
		return "certificate required"
	default:
		return "unknown"
	}
}

// ErrMalformedStatus is returned for header lines that do not start with a
// two digit status code.
var ErrMalformedStatus = errors.New("malformed status line")

// StatusError reports the offending header line.
type StatusError struct {
	Line string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %q", ErrMalformedStatus, e.Line)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrMalformedStatus
}

// Status is a decoded response header.
type Status struct {
	Code int
	Meta string
}

// ParseStatus decodes a header line of the form "<digit><digit>[ <meta>]".
// A trailing CRLF is ignored.
func ParseStatus(line []byte) (Status, error) {
	s := strings.TrimRight(string(line), "\r\n")
	if len(s) < 2 || !isDigit(s[0]) || !isDigit(s[1]) {
		return Status{}, &StatusError{Line: s}
	}
	if len(s) > 2 && s[2] != ' ' && s[2] != '\t' {
		return Status{}, &StatusError{Line: s}
	}

	code, _ := strconv.Atoi(s[:2])
	return Status{Code: code, Meta: strings.TrimSpace(s[2:])}, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// Category classifies the status by its first digit.
func (s Status) Category() Category {
	switch s.Code / 10 {
	case 1:
		return CategoryInput
	case 2:
		return CategorySuccess
	case 3:
		return CategoryRedirect
	case 4:
		return CategoryTemporaryFailure
	case 5:
		return CategoryPermanentFailure
	case 6:
		return CategoryCertificateRequired
	default:
		return CategoryUnknown
	}
}

// Sensitive reports whether the requested input should not be echoed.
func (s Status) Sensitive() bool {
	return s.Code == StatusSensitiveInput
}

// Permanent reports whether a redirect is permanent. Unassigned 3x codes are
// treated as permanent.
func (s Status) Permanent() bool {
	return s.Category() == CategoryRedirect && s.Code != StatusRedirectTemporary
}

// MIME returns the media type of a success response.
func (s Status) MIME() string {
	if s.Meta == "" {
		return DefaultMIME
	}
	return s.Meta
}

// IsText reports whether a success response should be displayed rather than
// downloaded.
func (s Status) IsText() bool {
	return strings.HasPrefix(strings.ToLower(s.MIME()), "text/")
}

// Description is a short human readable name for the status code.
func (s Status) Description() string {
	switch s.Code {
	case StatusInput:
		return "input requested"
	case StatusSensitiveInput:
		return "sensitive input requested"
	case StatusSuccess:
		return "success"
	case StatusRedirectTemporary:
		return "temporary redirect"
	case StatusRedirectPermanent:
		return "permanent redirect"
	case StatusServerUnavailable:
		return "server unavailable"
	case StatusCGIError:
		return "CGI error"
	case StatusProxyError:
		return "proxy error"
	case StatusSlowDown:
		return "slow down"
	case StatusNotFound:
		return "not found"
	case StatusGone:
		return "gone"
	case StatusProxyRequestRefused:
		return "proxy request refused"
	case StatusBadRequest:
		return "bad request"
	case StatusCertificateRequired:
		return "client certificate required"
	case StatusCertificateNotAuthorised:
		return "certificate not authorised"
	case StatusCertificateNotValid:
		return "certificate not valid"
	}
	return s.Category().String()
}

func (s Status) String() string {
	if s.Meta == "" {
		return fmt.Sprintf("%d %s", s.Code, s.Description())
	}
	return fmt.Sprintf("%d %s: %s", s.Code, s.Description(), s.Meta)
}
