package render

import (
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"castor/document"
)

// Palette holds the colors of each element kind. Empty means the terminal
// default.
type Palette struct {
	H1, H2, H3, List, Text, Background string
}

// Bullets holds the characters prefixed to headings and list items.
type Bullets struct {
	H1, H2, H3, List string
}

// Options configures a page renderer.
type Options struct {
	Width     int
	Monospace bool // print text lines as-is instead of wrapping them
	Palette   Palette
	Bullets   Bullets
	Logger    *slog.Logger
}

// LinkFunc parses and resolves the link line carried by an element.
type LinkFunc func(document.Element) (document.Link, error)

// Page writes one document to a terminal.
type Page struct {
	w      io.Writer
	scheme string
	opts   Options

	h1, h2, h3, list, text, link, number lipgloss.Style
}

// NewPage returns a renderer for a document served over scheme.
func NewPage(w io.Writer, scheme string, opts Options) *Page {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	r := lipgloss.NewRenderer(w)
	base := r.NewStyle().TabWidth(lipgloss.NoTabConversion)
	if opts.Palette.Background != "" {
		base = base.Background(lipgloss.Color(opts.Palette.Background))
	}
	colored := func(c string) lipgloss.Style {
		if c == "" {
			return base
		}
		return base.Foreground(lipgloss.Color(c))
	}

	return &Page{
		w:      w,
		scheme: scheme,
		opts:   opts,
		h1:     colored(opts.Palette.H1).Bold(true),
		h2:     colored(opts.Palette.H2).Bold(true),
		h3:     colored(opts.Palette.H3),
		list:   colored(opts.Palette.List),
		text:   colored(opts.Palette.Text),
		link:   colored(opts.Palette.Text).Underline(true),
		number: base.Faint(true),
	}
}

// Render writes the elements and returns the links in the order they were
// numbered. Link lines that fail to parse are skipped.
func (p *Page) Render(elements iter.Seq[document.Element], linkFor LinkFunc) ([]document.Link, error) {
	var links []document.Link
	for el := range elements {
		el.Text = Sanitize(el.Text)
		var lines []string
		switch el.Kind {
		case document.Heading:
			lines = p.heading(el)
		case document.ListItem:
			lines = p.indented(p.list, p.opts.Bullets.List, el.Text)
		case document.LinkItem, document.ExternalLinkItem, document.Image:
			link, err := linkFor(el)
			if err != nil {
				p.opts.Logger.Debug("skipping link line", "line", el.Text, "error", err)
				continue
			}
			links = append(links, link)
			lines = p.linkLines(len(links), link)
		case document.PreformattedToggle:
			continue
		default:
			lines = p.plain(el)
		}

		for _, l := range lines {
			if _, err := fmt.Fprintln(p.w, l); err != nil {
				return links, fmt.Errorf("writing page: %w", err)
			}
		}
	}
	return links, nil
}

func (p *Page) heading(el document.Element) []string {
	style, bullet := p.h1, p.opts.Bullets.H1
	switch el.Level {
	case 2:
		style, bullet = p.h2, p.opts.Bullets.H2
	case 3:
		style, bullet = p.h3, p.opts.Bullets.H3
	}
	return p.indented(style, bullet, el.Text)
}

// indented wraps text after prefix and aligns continuation lines under the
// first character of text.
func (p *Page) indented(style lipgloss.Style, prefix, text string) []string {
	if prefix != "" {
		prefix += " "
	}
	pad := strings.Repeat(" ", StringWidth(prefix))

	var out []string
	for i, l := range p.wrap(text, p.opts.Width-StringWidth(prefix)) {
		lead := pad
		if i == 0 {
			lead = prefix
		}
		out = append(out, style.Render(lead+l))
	}
	return out
}

func (p *Page) linkLines(n int, link document.Link) []string {
	num := fmt.Sprintf("[%d] ", n)
	label := link.DisplayLabel(p.scheme)
	pad := strings.Repeat(" ", len(num))

	var out []string
	for i, l := range p.wrap(label, p.opts.Width-len(num)) {
		lead := pad
		if i == 0 {
			lead = p.number.Render(num)
		}
		out = append(out, lead+p.link.Render(l))
	}
	return out
}

func (p *Page) plain(el document.Element) []string {
	if el.Preformatted || p.opts.Monospace {
		return []string{p.text.Render(el.Text)}
	}
	var out []string
	for _, l := range WrapText(el.Text, p.opts.Width) {
		out = append(out, p.text.Render(l))
	}
	return out
}

func (p *Page) wrap(text string, width int) []string {
	if p.opts.Monospace || width < 10 {
		return []string{text}
	}
	lines := WrapText(text, width)
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
