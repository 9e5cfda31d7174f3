// Package resolver turns user input and link targets into absolute,
// scheme-qualified addresses.
package resolver

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"castor/history"
)

// ErrInvalidURL is returned when a reference cannot be made into a usable
// absolute address.
var ErrInvalidURL = errors.New("invalid url")

// Error describes a reference that failed to resolve.
type Error struct {
	Ref string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("resolving %q: %v", e.Ref, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Context supplies the navigation state a relative reference is resolved
// against. *history.History implements it.
type Context interface {
	CurrentHost() (string, bool)
	CurrentDirectory() (string, bool)
}

// Base is a Context rooted at a fixed address, used for links and redirects
// that are relative to the document they came from.
type Base struct {
	URL *url.URL
}

func (b Base) CurrentHost() (string, bool) {
	if b.URL == nil || b.URL.Host == "" {
		return "", false
	}
	return b.URL.Host, true
}

func (b Base) CurrentDirectory() (string, bool) {
	if b.URL == nil {
		return "", false
	}
	return history.Directory(b.URL), true
}

// Schemes the resolver knows how to build addresses for.
var Schemes = []string{"gemini", "gopher", "finger"}

// SchemeOf picks the protocol family used to resolve a piece of user input:
// an explicit known scheme wins, then the scheme of the page being viewed,
// then gemini.
func SchemeOf(ref, current string) string {
	lower := strings.ToLower(ref)
	for _, s := range Schemes {
		if strings.HasPrefix(lower, s+"://") {
			return s
		}
	}
	for _, s := range Schemes {
		if current == s {
			return s
		}
	}
	return "gemini"
}

// Resolve makes ref absolute for the given scheme. The rules are applied in
// order: already absolute, scheme-relative (//host/path), root-relative
// (/path) on the current host, relative to the current directory, and
// finally a bare host when there is no navigation context.
func Resolve(scheme, ref string, ctx Context) (*url.URL, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, &Error{Ref: ref, Err: ErrInvalidURL}
	}
	prefix := scheme + "://"

	var host, dir string
	var hasHost bool
	if ctx != nil {
		host, hasHost = ctx.CurrentHost()
		if hasHost {
			dir, _ = ctx.CurrentDirectory()
		}
	}

	var raw string
	switch {
	case strings.HasPrefix(strings.ToLower(ref), prefix):
		raw = ref
	case strings.HasPrefix(ref, "//"):
		raw = scheme + ":" + ref
	case strings.HasPrefix(ref, "/") && hasHost:
		raw = prefix + host + ref
	case hasHost && dir != "":
		return join(dir, ref)
	default:
		raw = prefix + ref
	}
	return parse(ref, raw)
}

func join(dir, ref string) (*url.URL, error) {
	base, err := url.Parse(dir)
	if err != nil {
		return nil, &Error{Ref: ref, Err: fmt.Errorf("%w: %v", ErrInvalidURL, err)}
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return nil, &Error{Ref: ref, Err: fmt.Errorf("%w: %v", ErrInvalidURL, err)}
	}
	return validate(ref, base.ResolveReference(rel))
}

func parse(ref, raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &Error{Ref: ref, Err: fmt.Errorf("%w: %v", ErrInvalidURL, err)}
	}
	return validate(ref, u)
}

func validate(ref string, u *url.URL) (*url.URL, error) {
	if !u.IsAbs() {
		return nil, &Error{Ref: ref, Err: fmt.Errorf("%w: missing scheme", ErrInvalidURL)}
	}
	if u.Host == "" || u.Hostname() == "" {
		return nil, &Error{Ref: ref, Err: fmt.Errorf("%w: missing host", ErrInvalidURL)}
	}
	return u, nil
}
