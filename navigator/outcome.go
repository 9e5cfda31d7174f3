package navigator

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"time"

	"castor/document"
	"castor/gemini"
	"castor/gopher"
)

// Navigation failures.
var (
	ErrTooManyRedirects  = errors.New("too many redirects")
	ErrUnsupportedScheme = errors.New("unsupported scheme")
	ErrStatus            = errors.New("server returned a failure status")
	ErrNoHistory         = errors.New("no previous page")
)

// StatusError carries a Gemini failure status.
type StatusError struct {
	Status gemini.Status
}

func (e *StatusError) Error() string {
	return e.Status.String()
}

func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// State is a step of a single navigation.
type State int

const (
	Resolving State = iota
	Fetching
	Interpreting
	Redirecting
	Terminal
)

func (s State) String() string {
	switch s {
	case Resolving:
		return "resolving"
	case Fetching:
		return "fetching"
	case Interpreting:
		return "interpreting"
	case Redirecting:
		return "redirecting"
	default:
		return "terminal"
	}
}

// Kind is how a navigation ended.
type Kind int

const (
	Success Kind = iota
	Error
	Download
	Prompt
	External
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Error:
		return "error"
	case Download:
		return "download"
	case Prompt:
		return "prompt"
	case External:
		return "external"
	}
	return "unknown"
}

// Format selects the line parser for a successful body.
type Format int

const (
	FormatPlain Format = iota
	FormatGemini
	FormatGopherMenu
)

// Outcome is the terminal state of a navigation.
type Outcome struct {
	Kind Kind
	URL  *url.URL // final address after redirects

	Format Format
	MIME   string
	Body   []byte

	// Prompt and Sensitive are set for Kind == Prompt.
	Prompt    string
	Sensitive bool

	Err       error
	Redirects []*url.URL
	FetchTime time.Duration
}

func failed(u *url.URL, err error) *Outcome {
	return &Outcome{Kind: Error, URL: u, Err: err}
}

// Elements parses the body of a successful outcome. Text bodies are decoded
// according to their charset parameter first.
func (o *Outcome) Elements() (iter.Seq[document.Element], error) {
	if o.Kind != Success {
		return nil, fmt.Errorf("outcome is %v, not success", o.Kind)
	}
	switch o.Format {
	case FormatGemini:
		r, err := gemini.Decode(o.MIME, bytes.NewReader(o.Body))
		if err != nil {
			return nil, err
		}
		return gemini.Parse(r), nil
	case FormatGopherMenu:
		return gopher.Parse(bytes.NewReader(o.Body)), nil
	default:
		r, err := gemini.Decode(o.MIME, bytes.NewReader(o.Body))
		if err != nil {
			return nil, err
		}
		return document.PlainLines(r), nil
	}
}
