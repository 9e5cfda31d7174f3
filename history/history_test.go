package history

import (
	"net/url"
	"sync"
	"testing"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestGoBack(t *testing.T) {
	h := New()
	h.Append(mustParse(t, "gemini://a.org/"))
	h.Append(mustParse(t, "gemini://b.org/"))
	h.Append(mustParse(t, "gemini://c.org/"))

	prev, ok := h.GoBack()
	if !ok || prev.String() != "gemini://b.org/" {
		t.Fatalf("first GoBack = %v, %v; want gemini://b.org/", prev, ok)
	}
	prev, ok = h.GoBack()
	if !ok || prev.String() != "gemini://a.org/" {
		t.Fatalf("second GoBack = %v, %v; want gemini://a.org/", prev, ok)
	}
	if prev, ok = h.GoBack(); ok {
		t.Fatalf("third GoBack = %v, want none", prev)
	}
	if h.Len() != 1 {
		t.Errorf("expected the first page to stay current, got %d entries", h.Len())
	}
}

func TestEmptyHistory(t *testing.T) {
	h := New()
	if _, ok := h.Current(); ok {
		t.Error("expected no current page")
	}
	if _, ok := h.CurrentHost(); ok {
		t.Error("expected no current host")
	}
	if _, ok := h.CurrentDirectory(); ok {
		t.Error("expected no current directory")
	}
	if _, ok := h.GoBack(); ok {
		t.Error("expected GoBack to fail on empty history")
	}
}

func TestCurrentContext(t *testing.T) {
	tests := []struct {
		name    string
		current string
		host    string
		dir     string
	}{
		{"bare host", "gemini://h.org", "h.org", "gemini://h.org/"},
		{"file in directory", "gemini://h.org/docs/spec.gmi", "h.org", "gemini://h.org/docs/"},
		{"directory", "gemini://h.org/docs/", "h.org", "gemini://h.org/docs/"},
		{"query dropped", "gemini://h.org/search?q=x", "h.org", "gemini://h.org/"},
		{"port kept", "gopher://h.org:7070/1/menu", "h.org:7070", "gopher://h.org:7070/1/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			h.Append(mustParse(t, tt.current))

			host, ok := h.CurrentHost()
			if !ok || host != tt.host {
				t.Errorf("CurrentHost() = %q, %v; want %q", host, ok, tt.host)
			}
			dir, ok := h.CurrentDirectory()
			if !ok || dir != tt.dir {
				t.Errorf("CurrentDirectory() = %q, %v; want %q", dir, ok, tt.dir)
			}
		})
	}
}

func TestEntriesAreCopies(t *testing.T) {
	h := New()
	u := mustParse(t, "gemini://h.org/")
	h.Append(u)
	u.Host = "changed.org"

	entries := h.Entries()
	if entries[0].Host != "h.org" {
		t.Fatalf("history shares caller's URL: %v", entries[0])
	}
	entries[0].Host = "again.org"
	if cur, _ := h.Current(); cur.Host != "h.org" {
		t.Errorf("Entries leaked internal state: %v", cur)
	}
}

func TestConcurrentAccess(t *testing.T) {
	h := New()
	h.Append(mustParse(t, "gemini://root.org/"))
	page := mustParse(t, "gemini://h.org/page")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			h.Append(page)
		}()
		go func() {
			defer wg.Done()
			h.CurrentHost()
			h.CurrentDirectory()
		}()
		go func() {
			defer wg.Done()
			h.GoBack()
		}()
	}
	wg.Wait()

	if h.Len() < 1 {
		t.Errorf("GoBack must never empty the history, got %d entries", h.Len())
	}
}
