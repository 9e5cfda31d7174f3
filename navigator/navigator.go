// Package navigator dispatches fetches to the protocol clients, interprets
// their responses and keeps the navigation history.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/url"
	"path"
	"strings"
	"sync"

	"castor/document"
	"castor/fetcher"
	"castor/gemini"
	"castor/gopher"
	"castor/history"
	"castor/resolver"
)

// DefaultMaxRedirects bounds the redirect chain of a single navigation.
const DefaultMaxRedirects = 5

// Client fetches one address.
type Client interface {
	Fetch(ctx context.Context, u *url.URL) (*fetcher.Result, error)
}

// Options configures a Navigator.
type Options struct {
	MaxRedirects int
	Logger       *slog.Logger
}

// Navigator drives navigation for one browsing session.
type Navigator struct {
	history      *history.History
	clients      map[string]Client
	maxRedirects int
	logger       *slog.Logger

	mu        sync.Mutex
	itemTypes map[string]byte // gopher item type of addresses reached through a menu
}

// New creates a navigator that fetches with clients, keyed by scheme.
func New(h *history.History, clients map[string]Client, opts Options) *Navigator {
	if h == nil {
		h = history.New()
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Navigator{
		history:      h,
		clients:      clients,
		maxRedirects: opts.MaxRedirects,
		logger:       opts.Logger,
		itemTypes:    map[string]byte{},
	}
}

// History returns the session history.
func (n *Navigator) History() *history.History {
	return n.history
}

// Visit resolves user input against the current page and opens it.
func (n *Navigator) Visit(ctx context.Context, input string) *Outcome {
	current := ""
	if u, ok := n.history.Current(); ok {
		current = u.Scheme
	}
	scheme := resolver.SchemeOf(input, current)

	n.trace(Resolving, nil, "input", input, "scheme", scheme)
	u, err := resolver.Resolve(scheme, input, n.history)
	if err != nil {
		return failed(nil, err)
	}
	return n.Open(ctx, u)
}

// Open fetches an absolute address and records it in the history on
// success.
func (n *Navigator) Open(ctx context.Context, u *url.URL) *Outcome {
	return n.navigate(ctx, u, true, 0)
}

// Follow opens a link found on the page at base. Web and unknown links are
// handed back as External outcomes for the caller to open elsewhere.
func (n *Navigator) Follow(ctx context.Context, link document.Link, base *url.URL) *Outcome {
	u, err := ResolveLink(link, base)
	if err != nil {
		return failed(nil, err)
	}
	if link.Kind == document.LinkHTTP || link.Kind == document.LinkUnknown {
		return &Outcome{Kind: External, URL: u}
	}
	return n.navigate(ctx, u, true, link.ItemType)
}

// Back pops the current page and fetches the one before it. The history is
// not appended to.
func (n *Navigator) Back(ctx context.Context) *Outcome {
	u, ok := n.history.GoBack()
	if !ok {
		return failed(nil, ErrNoHistory)
	}
	return n.navigate(ctx, u, false, 0)
}

// Reload fetches the current page again.
func (n *Navigator) Reload(ctx context.Context) *Outcome {
	u, ok := n.history.Current()
	if !ok {
		return failed(nil, ErrNoHistory)
	}
	return n.navigate(ctx, u, false, 0)
}

// Submit answers an input prompt by requesting the prompting address with
// value as its query.
func (n *Navigator) Submit(ctx context.Context, prompt *Outcome, value string) *Outcome {
	if prompt == nil || prompt.Kind != Prompt || prompt.URL == nil {
		return failed(nil, errors.New("submit: not an input prompt"))
	}
	u := *prompt.URL
	u.RawQuery = EscapeQuery(value)
	u.Fragment = ""
	return n.navigate(ctx, &u, true, 0)
}

// EscapeQuery percent-encodes an input value for use as a query.
func EscapeQuery(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}

func (n *Navigator) navigate(ctx context.Context, u *url.URL, record bool, itemType byte) *Outcome {
	if itemType == 0 {
		itemType = n.itemType(u)
	}
	var redirects []*url.URL
	for {
		client, ok := n.clients[u.Scheme]
		if !ok {
			return n.finish(&Outcome{Kind: Error, URL: u, Redirects: redirects,
				Err: fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)}, false)
		}

		n.trace(Fetching, u)
		res, err := client.Fetch(ctx, u)
		if err != nil {
			return n.finish(&Outcome{Kind: Error, URL: u, Redirects: redirects, Err: err}, false)
		}

		if u.Scheme != "gemini" {
			n.rememberItemType(u, itemType)
			o := interpretPlain(u, itemType, res)
			o.Redirects = redirects
			return n.finish(o, record)
		}

		n.trace(Interpreting, u)
		st, err := gemini.ParseStatus(res.Meta)
		if err != nil {
			return n.finish(&Outcome{Kind: Error, URL: u, Redirects: redirects, Err: err}, false)
		}

		if st.Category() != gemini.CategoryRedirect {
			o := interpretGemini(u, st, res)
			o.Redirects = redirects
			return n.finish(o, record)
		}

		n.trace(Redirecting, u, "status", st.Code, "target", st.Meta)
		if len(redirects) >= n.maxRedirects {
			return n.finish(&Outcome{Kind: Error, URL: u, Redirects: redirects,
				Err: fmt.Errorf("%w: stopped after %d", ErrTooManyRedirects, len(redirects))}, false)
		}
		next, err := resolver.Resolve(resolver.SchemeOf(st.Meta, u.Scheme), st.Meta, resolver.Base{URL: u})
		if err != nil {
			return n.finish(&Outcome{Kind: Error, URL: u, Redirects: redirects,
				Err: fmt.Errorf("redirect from %s: %w", u, err)}, false)
		}
		redirects = append(redirects, next)
		u = next
		itemType = 0
	}
}

// itemType returns the gopher item type u was last opened with, or 0.
func (n *Navigator) itemType(u *url.URL) byte {
	if u.Scheme != "gopher" {
		return 0
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.itemTypes[u.String()]
}

func (n *Navigator) rememberItemType(u *url.URL, itemType byte) {
	if u.Scheme != "gopher" || itemType == 0 {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.itemTypes[u.String()] = itemType
}

func (n *Navigator) finish(o *Outcome, record bool) *Outcome {
	n.trace(Terminal, o.URL, "outcome", o.Kind, "error", o.Err)
	if o.Kind == Success && record {
		n.history.Append(o.URL)
	}
	return o
}

func (n *Navigator) trace(s State, u *url.URL, args ...any) {
	if !n.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	attrs := []any{"state", s.String()}
	if u != nil {
		attrs = append(attrs, "url", u.String())
	}
	n.logger.Debug("navigate", append(attrs, args...)...)
}

func interpretGemini(u *url.URL, st gemini.Status, res *fetcher.Result) *Outcome {
	switch st.Category() {
	case gemini.CategoryInput:
		return &Outcome{Kind: Prompt, URL: u, Prompt: st.Meta, Sensitive: st.Sensitive()}
	case gemini.CategorySuccess:
		o := &Outcome{URL: u, MIME: st.MIME(), Body: res.Body, FetchTime: res.FetchTime}
		if !st.IsText() {
			o.Kind = Download
			return o
		}
		o.Kind = Success
		if mt, _ := gemini.MediaType(o.MIME); mt == "text/gemini" {
			o.Format = FormatGemini
		}
		return o
	default:
		return &Outcome{Kind: Error, URL: u, Err: &StatusError{Status: st}}
	}
}

func interpretPlain(u *url.URL, itemType byte, res *fetcher.Result) *Outcome {
	o := &Outcome{Kind: Success, URL: u, MIME: "text/plain", Body: res.Body, FetchTime: res.FetchTime}
	if u.Scheme != "gopher" {
		return o
	}

	if itemType == 0 {
		itemType = gopher.ItemTypeOf(u)
	}
	switch {
	case (document.Link{ItemType: itemType}).IsBinary():
		o.Kind = Download
		o.MIME = guessMIME(u.Path)
	case itemType == '0', itemType == 'h':
		// Type h documents are shown as their markup.
	default:
		o.Format = FormatGopherMenu
	}
	return o
}

func guessMIME(p string) string {
	if t := mime.TypeByExtension(path.Ext(p)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// ResolveLink makes a parsed link absolute relative to the page it was
// found on.
func ResolveLink(link document.Link, base *url.URL) (*url.URL, error) {
	if link.URL != nil && link.Kind != document.LinkRelative {
		return link.URL, nil
	}
	scheme := "gemini"
	if base != nil {
		scheme = base.Scheme
	}
	return resolver.Resolve(scheme, link.Ref, resolver.Base{URL: base})
}

// ParseLink parses the link line of an element found on the page at base
// and resolves it against that page.
func ParseLink(el document.Element, base *url.URL) (document.Link, error) {
	var (
		link document.Link
		err  error
	)
	if base != nil && base.Scheme == "gopher" {
		link, err = gopher.ParseLink(el.Text)
	} else {
		link, err = gemini.ParseLink(el.Text)
	}
	if err != nil {
		return document.Link{}, err
	}

	u, err := ResolveLink(link, base)
	if err != nil {
		return document.Link{}, err
	}
	link.URL = u
	if link.Kind == document.LinkRelative {
		link.Kind = document.KindForScheme(u.Scheme)
	}
	return link, nil
}
