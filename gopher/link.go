package gopher

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"castor/document"
)

// ErrNotALink is returned for menu lines that do not point anywhere.
var ErrNotALink = errors.New("not a link line")

// ErrMalformedLink is returned for link lines with missing fields.
var ErrMalformedLink = errors.New("malformed menu line")

const urlPrefix = "URL:"

// ParseLink parses a menu line of the form
// "<type><label>\t<selector>\t<host>\t<port>". Type h entries whose selector
// starts with "URL:" point at the embedded address and are classified by its
// scheme; everything else becomes a gopher:// link on the named host.
func ParseLink(line string) (document.Link, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return document.Link{}, ErrNotALink
	}
	itemType := line[0]
	if itemType == 'i' || itemType == '3' {
		return document.Link{}, fmt.Errorf("%w: %q", ErrNotALink, line)
	}

	fields := strings.Split(line, "\t")
	if len(fields) < 2 {
		return document.Link{}, fmt.Errorf("%w: %q", ErrMalformedLink, line)
	}
	label := fields[0][1:]
	selector := fields[1]

	if itemType == 'h' && strings.HasPrefix(selector, urlPrefix) {
		ref := selector[len(urlPrefix):]
		u, err := url.Parse(ref)
		if err != nil {
			return document.Link{}, fmt.Errorf("parsing %q: %w", ref, err)
		}
		return document.Link{
			Kind:     document.KindForScheme(u.Scheme),
			URL:      u,
			Ref:      ref,
			Label:    label,
			ItemType: itemType,
		}, nil
	}

	if len(fields) < 3 || strings.TrimSpace(fields[2]) == "" {
		return document.Link{}, fmt.Errorf("%w: no host in %q", ErrMalformedLink, line)
	}
	host := strings.TrimSpace(fields[2])
	port := DefaultPort
	if len(fields) > 3 && strings.TrimSpace(fields[3]) != "" {
		port = strings.TrimSpace(fields[3])
	}
	if !strings.HasPrefix(selector, "/") {
		selector = "/" + selector
	}

	u := &url.URL{Scheme: "gopher", Host: net.JoinHostPort(host, port), Path: selector}
	return document.Link{
		Kind:     document.LinkGopher,
		URL:      u,
		Ref:      u.String(),
		Label:    label,
		ItemType: itemType,
	}, nil
}
