package gopher

import (
	"io"
	"iter"
	"strings"

	"castor/document"
)

// Parse classifies the lines of a gopher menu by item type. A line holding
// a single "." ends the listing. The sequence reads r as it is consumed and
// cannot be restarted.
func Parse(r io.Reader) iter.Seq[document.Element] {
	return func(yield func(document.Element) bool) {
		for line := range document.Lines(r) {
			if line == "." {
				return
			}
			if !yield(classify(line)) {
				return
			}
		}
	}
}

func classify(line string) document.Element {
	if line == "" {
		return document.Element{Kind: document.PlainText}
	}

	switch line[0] {
	case '0', '1':
		return document.Element{Kind: document.LinkItem, Text: line}
	case 'h':
		return document.Element{Kind: document.ExternalLinkItem, Text: line}
	case 'I', 'g':
		return document.Element{Kind: document.Image, Text: line}
	case 'i', '3':
		return document.Element{Kind: document.PlainText, Text: display(line)}
	default:
		return document.Element{Kind: document.PlainText, Text: line}
	}
}

// display returns the display string of a menu line without its type byte.
func display(line string) string {
	field, _, _ := strings.Cut(line, "\t")
	return field[1:]
}
