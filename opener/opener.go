// Package opener saves downloaded bodies and hands files and web addresses
// to the platform's default application.
package opener

import (
	"bytes"
	"fmt"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"github.com/pkg/browser"
)

// Opener writes downloads into a directory and opens them.
type Opener struct {
	Dir string // defaults to os.TempDir()

	// OpenFile and OpenURL launch the platform handler. They default to
	// github.com/pkg/browser.
	OpenFile func(path string) error
	OpenURL  func(u string) error

	Logger *slog.Logger
}

// New returns an opener writing to the system temp directory.
func New(logger *slog.Logger) *Opener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Opener{
		Dir:      os.TempDir(),
		OpenFile: browser.OpenFile,
		OpenURL:  browser.OpenURL,
		Logger:   logger,
	}
}

// Save writes body to a new file named after u and returns its path.
func (o *Opener) Save(u *url.URL, mimeType string, body []byte) (string, error) {
	dir := o.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating download directory: %w", err)
	}

	p := filepath.Join(dir, FileName(u, mimeType))
	if err := atomic.WriteFile(p, bytes.NewReader(body)); err != nil {
		return "", fmt.Errorf("saving download: %w", err)
	}
	o.logger().Info("saved download", "url", u.String(), "path", p, "bytes", len(body))
	return p, nil
}

// Download saves body and opens the file with the default application.
func (o *Opener) Download(u *url.URL, mimeType string, body []byte) (string, error) {
	p, err := o.Save(u, mimeType, body)
	if err != nil {
		return "", err
	}
	open := o.OpenFile
	if open == nil {
		open = browser.OpenFile
	}
	if err := open(p); err != nil {
		return p, fmt.Errorf("opening %s: %w", p, err)
	}
	return p, nil
}

// Browse opens a web or other external address.
func (o *Opener) Browse(u *url.URL) error {
	open := o.OpenURL
	if open == nil {
		open = browser.OpenURL
	}
	o.logger().Info("opening externally", "url", u.String())
	if err := open(u.String()); err != nil {
		return fmt.Errorf("opening %s: %w", u, err)
	}
	return nil
}

func (o *Opener) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// FileName derives a download file name from the last path segment of u,
// prefixed with a unique id. An extension is added from mimeType when the
// name has none.
func FileName(u *url.URL, mimeType string) string {
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		base = ""
	}
	base = strings.Map(func(r rune) rune {
		if r == os.PathSeparator || r < ' ' {
			return '_'
		}
		return r
	}, base)

	name := uuid.NewString()
	if base != "" {
		name += "-" + base
	}
	if path.Ext(base) == "" {
		mt, _, _ := mime.ParseMediaType(mimeType)
		if exts, _ := mime.ExtensionsByType(mt); len(exts) > 0 {
			name += exts[0]
		}
	}
	return name
}
