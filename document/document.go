// Package document defines the content model shared by the protocol parsers
// and the renderer: typed document elements and typed link targets.
package document

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"log/slog"
	"net/url"
	"strings"
)

// Kind identifies the type of a document element.
type Kind int

const (
	PlainText Kind = iota
	Heading
	ListItem
	LinkItem
	ExternalLinkItem
	Image
	PreformattedToggle
)

func (k Kind) String() string {
	switch k {
	case Heading:
		return "heading"
	case ListItem:
		return "list-item"
	case LinkItem:
		return "link"
	case ExternalLinkItem:
		return "external-link"
	case Image:
		return "image"
	case PreformattedToggle:
		return "preformatted-toggle"
	default:
		return "text"
	}
}

// Element is one line of a parsed document.
//
// For LinkItem, ExternalLinkItem and Image the Text field holds the raw
// line so it can be handed to the protocol's link parser.
type Element struct {
	Kind         Kind
	Level        int // heading level 1-3
	Text         string
	Preformatted bool
}

// IsLink reports whether the element carries a link line.
func (e Element) IsLink() bool {
	return e.Kind == LinkItem || e.Kind == ExternalLinkItem || e.Kind == Image
}

// LinkKind identifies the protocol family of a link target.
type LinkKind int

const (
	LinkUnknown LinkKind = iota
	LinkGemini
	LinkGopher
	LinkHTTP
	LinkFinger
	LinkRelative
)

func (k LinkKind) String() string {
	switch k {
	case LinkGemini:
		return "gemini"
	case LinkGopher:
		return "gopher"
	case LinkHTTP:
		return "http"
	case LinkFinger:
		return "finger"
	case LinkRelative:
		return "relative"
	default:
		return "unknown"
	}
}

// Link is a typed reference parsed from a single link line.
type Link struct {
	Kind     LinkKind
	URL      *url.URL // nil for LinkRelative until resolved
	Ref      string   // target exactly as written in the line
	Label    string
	ItemType byte // gopher item type, 0 when not a gopher menu entry
}

// KindForScheme maps a URL scheme to its link kind.
func KindForScheme(scheme string) LinkKind {
	switch strings.ToLower(scheme) {
	case "gemini":
		return LinkGemini
	case "gopher":
		return LinkGopher
	case "http", "https":
		return LinkHTTP
	case "finger":
		return LinkFinger
	default:
		return LinkUnknown
	}
}

// Target returns the best string form of the link destination.
func (l Link) Target() string {
	if l.URL != nil {
		return l.URL.String()
	}
	return l.Ref
}

// IsBinary reports whether the link points at a gopher item that should be
// downloaded rather than displayed.
func (l Link) IsBinary() bool {
	switch l.ItemType {
	case 'I', 'g', '9', '5', 's', ';':
		return true
	}
	return false
}

// DisplayLabel returns the label shown for the link on a page served over
// the given scheme. Links leaving that protocol get a suffix naming where
// they go.
func (l Link) DisplayLabel(pageScheme string) string {
	label := l.Label
	if label == "" {
		label = l.Target()
	}

	if l.ItemType == 'I' || l.ItemType == 'g' {
		return label + " [Image]"
	}

	switch l.Kind {
	case LinkHTTP:
		return label + " [WWW]"
	case LinkGopher:
		if pageScheme != "gopher" {
			return label + " [Gopher]"
		}
	case LinkFinger:
		if pageScheme != "finger" {
			return label + " [Finger]"
		}
	case LinkGemini:
		if pageScheme != "gemini" {
			return label + " [Gemini]"
		}
	}
	return label
}

// Lines yields the lines of r with "\n" or "\r\n" terminators removed.
// Lines are not length limited; the body size cap bounds them. A read error
// ends the sequence after the last complete line and is logged. The sequence
// consumes r and cannot be restarted.
func Lines(r io.Reader) iter.Seq[string] {
	return func(yield func(string) bool) {
		br := bufio.NewReader(r)
		for {
			line, err := br.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				slog.Debug("reading document", "error", err)
				return
			}
			if line != "" {
				line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
				if !yield(line) {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}
}

// PlainLines turns a plain-text body into preformatted text elements.
func PlainLines(r io.Reader) iter.Seq[Element] {
	return func(yield func(Element) bool) {
		for line := range Lines(r) {
			if !yield(Element{Kind: PlainText, Text: line, Preformatted: true}) {
				return
			}
		}
	}
}
