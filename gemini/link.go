package gemini

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"castor/document"
)

// ErrNotALink is returned by ParseLink for lines that are not link lines.
var ErrNotALink = errors.New("not a link line")

// ParseLink parses a "=> target [label]" line. Targets with a scheme are
// classified by it; targets without one are relative and carry no URL.
func ParseLink(line string) (document.Link, error) {
	m := linkRe.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
	if m == nil {
		return document.Link{}, fmt.Errorf("%w: %q", ErrNotALink, line)
	}
	ref, label := m[1], strings.TrimSpace(m[2])

	u, err := url.Parse(ref)
	if err != nil {
		return document.Link{}, fmt.Errorf("parsing link target %q: %w", ref, err)
	}

	link := document.Link{Ref: ref, Label: label}
	if u.Scheme == "" {
		link.Kind = document.LinkRelative
		return link, nil
	}
	link.Kind = document.KindForScheme(u.Scheme)
	link.URL = u
	return link, nil
}
