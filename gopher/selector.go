package gopher

import (
	"fmt"
	"net/url"
	"strings"
)

// SelectorRule controls how an address path is turned into a selector.
type SelectorRule int

const (
	// SelectorStrict strips a leading /0/, /1/ or /g/ item type segment.
	SelectorStrict SelectorRule = iota
	// SelectorLoose strips the first two characters of any path that
	// starts with /0, /1 or /g.
	SelectorLoose
	// SelectorNone sends the path unchanged.
	SelectorNone
)

func (r SelectorRule) String() string {
	switch r {
	case SelectorLoose:
		return "loose"
	case SelectorNone:
		return "none"
	default:
		return "strict"
	}
}

// ParseSelectorRule maps a configuration value to a rule.
func ParseSelectorRule(s string) (SelectorRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return SelectorStrict, nil
	case "loose":
		return SelectorLoose, nil
	case "none":
		return SelectorNone, nil
	}
	return SelectorStrict, fmt.Errorf("unknown gopher selector rule %q", s)
}

var typePrefixes = []string{"/0", "/1", "/g"}

// Selector builds the selector sent for u. The root path yields the empty
// selector; a query is appended after "?" and the result is percent-decoded.
func Selector(u *url.URL, rule SelectorRule) string {
	path := u.EscapedPath()
	if path == "/" {
		path = ""
	}

	switch rule {
	case SelectorStrict:
		for _, p := range typePrefixes {
			if strings.HasPrefix(path, p+"/") {
				path = path[len(p):]
				break
			}
		}
	case SelectorLoose:
		for _, p := range typePrefixes {
			if strings.HasPrefix(path, p) {
				path = path[len(p):]
				break
			}
		}
	}

	sel := path
	if u.RawQuery != "" {
		sel += "?" + u.RawQuery
	}
	if decoded, err := url.PathUnescape(sel); err == nil {
		return decoded
	}
	return sel
}

// ItemTypeOf guesses the item type from a /<type>/ leading path segment.
// It returns 0 when the path carries none.
func ItemTypeOf(u *url.URL) byte {
	p := u.Path
	if len(p) >= 3 && p[0] == '/' && p[2] == '/' {
		return p[1]
	}
	return 0
}
