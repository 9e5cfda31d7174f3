package gemini

import (
	"io"
	"iter"
	"regexp"
	"strings"

	"castor/document"
)

var (
	h1Re   = regexp.MustCompile(`^#\s+(.*)$`)
	h2Re   = regexp.MustCompile(`^##\s+(.*)$`)
	h3Re   = regexp.MustCompile(`^###\s+(.*)$`)
	listRe = regexp.MustCompile(`^\*\s+([^*]*)$`)
	linkRe = regexp.MustCompile(`^=>\s*(\S+)\s*(.*)$`)
)

const preformattedPrefix = "```"

// Parse classifies each line of a text/gemini body. The sequence reads r as
// it is consumed and cannot be restarted.
func Parse(r io.Reader) iter.Seq[document.Element] {
	return func(yield func(document.Element) bool) {
		pre := false
		for line := range document.Lines(r) {
			var el document.Element
			switch {
			case strings.HasPrefix(line, preformattedPrefix):
				pre = !pre
				el = document.Element{
					Kind: document.PreformattedToggle,
					Text: strings.TrimSpace(line[len(preformattedPrefix):]),
				}
			case pre:
				el = document.Element{Kind: document.PlainText, Text: line, Preformatted: true}
			default:
				el = classify(line)
			}
			if !yield(el) {
				return
			}
		}
	}
}

func classify(line string) document.Element {
	if m := h1Re.FindStringSubmatch(line); m != nil {
		return document.Element{Kind: document.Heading, Level: 1, Text: m[1]}
	}
	if m := h2Re.FindStringSubmatch(line); m != nil {
		return document.Element{Kind: document.Heading, Level: 2, Text: m[1]}
	}
	if m := h3Re.FindStringSubmatch(line); m != nil {
		return document.Element{Kind: document.Heading, Level: 3, Text: m[1]}
	}
	if m := listRe.FindStringSubmatch(line); m != nil {
		return document.Element{Kind: document.ListItem, Text: m[1]}
	}
	if linkRe.MatchString(line) {
		return document.Element{Kind: document.LinkItem, Text: line}
	}
	return document.Element{Kind: document.PlainText, Text: line}
}
