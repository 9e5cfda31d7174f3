// Package bookmarks provides persistent bookmark storage.
package bookmarks

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/natefinch/atomic"
)

// Bookmark is a saved address.
type Bookmark struct {
	URL     string    `toml:"url"`
	Title   string    `toml:"title"`
	AddedAt time.Time `toml:"added_at"`
}

// Store manages the bookmark collection.
type Store struct {
	path      string
	Bookmarks []Bookmark `toml:"bookmark"`
}

// Load reads bookmarks from path. A missing file gives an empty store.
func Load(path string) (*Store, error) {
	store := &Store{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading bookmarks: %w", err)
	}

	if _, err := toml.Decode(string(data), store); err != nil {
		return nil, fmt.Errorf("parsing bookmarks %s: %w", path, err)
	}
	return store, nil
}

// Save writes bookmarks to disk, replacing the file atomically.
func (s *Store) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating bookmarks directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return fmt.Errorf("encoding bookmarks: %w", err)
	}
	if err := atomic.WriteFile(s.path, &buf); err != nil {
		return fmt.Errorf("writing bookmarks: %w", err)
	}
	return nil
}

// Add adds a new bookmark, avoiding duplicates by URL.
func (s *Store) Add(url, title string) bool {
	for _, b := range s.Bookmarks {
		if b.URL == url {
			return false
		}
	}

	s.Bookmarks = append(s.Bookmarks, Bookmark{
		URL:     url,
		Title:   title,
		AddedAt: time.Now().UTC().Truncate(time.Second),
	})
	return true
}

// Remove removes a bookmark by index.
func (s *Store) Remove(index int) bool {
	if index < 0 || index >= len(s.Bookmarks) {
		return false
	}
	s.Bookmarks = append(s.Bookmarks[:index], s.Bookmarks[index+1:]...)
	return true
}

// List returns a copy of the bookmarks in insertion order.
func (s *Store) List() []Bookmark {
	return append([]Bookmark(nil), s.Bookmarks...)
}

// Len returns the number of bookmarks.
func (s *Store) Len() int {
	return len(s.Bookmarks)
}
