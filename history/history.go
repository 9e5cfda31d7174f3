// Package history holds the in-memory navigation stack of a browsing session.
package history

import (
	"net/url"
	"sync"
)

// History is the ordered list of visited addresses. The last entry is the
// current page. It is safe for concurrent use.
type History struct {
	mu      sync.Mutex
	entries []*url.URL
}

// New returns an empty history.
func New() *History {
	return &History{}
}

// Append pushes u as the new current page.
func (h *History) Append(u *url.URL) {
	if u == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, clone(u))
}

// Current returns the current page, if any.
func (h *History) Current() (*url.URL, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return nil, false
	}
	return clone(h.entries[len(h.entries)-1]), true
}

// CurrentHost returns the host (with port, when present) of the current page.
func (h *History) CurrentHost() (string, bool) {
	cur, ok := h.Current()
	if !ok || cur.Host == "" {
		return "", false
	}
	return cur.Host, true
}

// CurrentDirectory returns the current address with its last path segment
// removed, e.g. gemini://h.org/a/b.gmi -> gemini://h.org/a/.
func (h *History) CurrentDirectory() (string, bool) {
	cur, ok := h.Current()
	if !ok {
		return "", false
	}
	return Directory(cur), true
}

// GoBack drops the current page and returns the one before it. It returns
// false, leaving the history untouched, when there is nothing to go back to.
func (h *History) GoBack() (*url.URL, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) < 2 {
		return nil, false
	}
	h.entries = h.entries[:len(h.entries)-1]
	return clone(h.entries[len(h.entries)-1]), true
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Entries returns a copy of the stack, oldest first.
func (h *History) Entries() []*url.URL {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*url.URL, len(h.entries))
	for i, u := range h.entries {
		out[i] = clone(u)
	}
	return out
}

// Directory returns u with the query, fragment and last path segment
// stripped. An empty path becomes "/".
func Directory(u *url.URL) string {
	dir := u.ResolveReference(&url.URL{Path: "./"})
	dir.RawQuery = ""
	dir.Fragment = ""
	return dir.String()
}

func clone(u *url.URL) *url.URL {
	c := *u
	if u.User != nil {
		user := *u.User
		c.User = &user
	}
	return &c
}
