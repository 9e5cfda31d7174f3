// Package repl runs the interactive line-oriented browsing session.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"castor/bookmarks"
	"castor/config"
	"castor/document"
	"castor/navigator"
	"castor/render"
)

// Prompter reads a line of user input. *liner.State implements it.
type Prompter interface {
	Prompt(prompt string) (string, error)
	PasswordPrompt(prompt string) (string, error)
}

// Opener hands downloads and external addresses to the platform.
type Opener interface {
	Download(u *url.URL, mimeType string, body []byte) (string, error)
	Browse(u *url.URL) error
}

// Session holds the state of one interactive session: the page on screen
// and its numbered links.
type Session struct {
	Nav       *navigator.Navigator
	Bookmarks *bookmarks.Store
	Opener    Opener
	Config    *config.Config
	Out       io.Writer
	Input     Prompter // nil disables input prompts
	Logger    *slog.Logger

	page  *url.URL
	links []document.Link
}

// ErrQuit is returned by Handle when the user asks to leave.
var ErrQuit = errors.New("quit")

const help = `commands:
  <number>   follow link
  b          back
  r          reload
  a          bookmark this page
  l          list bookmarks
  d <number> delete bookmark
  hist       list visited pages
  q          quit
  anything else is visited as an address`

// Handle executes one command line.
func (s *Session) Handle(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return nil
	case "q":
		return ErrQuit
	case "?", "h":
		fmt.Fprintln(s.Out, help)
		return nil
	case "b":
		return s.Show(ctx, s.Nav.Back(ctx))
	case "r":
		return s.Show(ctx, s.Nav.Reload(ctx))
	case "a":
		return s.addBookmark()
	case "l":
		return s.listBookmarks()
	case "hist":
		s.listHistory()
		return nil
	}

	if rest, ok := strings.CutPrefix(line, "d "); ok {
		return s.removeBookmark(strings.TrimSpace(rest))
	}

	if n, err := strconv.Atoi(line); err == nil {
		if n < 1 || n > len(s.links) {
			fmt.Fprintf(s.Out, "no link %d\n", n)
			return nil
		}
		return s.Show(ctx, s.Nav.Follow(ctx, s.links[n-1], s.page))
	}
	return s.Show(ctx, s.Nav.Visit(ctx, line))
}

// Show presents the outcome of a navigation.
func (s *Session) Show(ctx context.Context, o *navigator.Outcome) error {
	switch o.Kind {
	case navigator.Success:
		return s.render(o)

	case navigator.Prompt:
		if s.Input == nil {
			fmt.Fprintf(s.Out, "input requested: %s\n", o.Prompt)
			return nil
		}
		read := s.Input.Prompt
		if o.Sensitive {
			read = s.Input.PasswordPrompt
		}
		value, err := read(o.Prompt + ": ")
		if errors.Is(err, liner.ErrPromptAborted) {
			return nil
		}
		if err != nil {
			return err
		}
		return s.Show(ctx, s.Nav.Submit(ctx, o, value))

	case navigator.Download:
		p, err := s.Opener.Download(o.URL, o.MIME, o.Body)
		if err != nil {
			fmt.Fprintf(s.Out, "error: %v\n", err)
			return nil
		}
		fmt.Fprintf(s.Out, "saved %s (%s)\n", p, o.MIME)
		return nil

	case navigator.External:
		if err := s.Opener.Browse(o.URL); err != nil {
			fmt.Fprintf(s.Out, "error: %v\n", err)
		}
		return nil

	default:
		fmt.Fprintf(s.Out, "error: %v\n", o.Err)
		return nil
	}
}

func (s *Session) render(o *navigator.Outcome) error {
	elements, err := o.Elements()
	if err != nil {
		fmt.Fprintf(s.Out, "error: %v\n", err)
		return nil
	}

	page := render.NewPage(s.Out, o.URL.Scheme, s.renderOptions(o.URL.Scheme))
	links, err := page.Render(elements, func(el document.Element) (document.Link, error) {
		return navigator.ParseLink(el, o.URL)
	})
	if err != nil {
		return err
	}
	s.page, s.links = o.URL, links
	s.logger().Debug("rendered page", "url", o.URL.String(), "links", len(links), "elapsed", o.FetchTime)
	return nil
}

func (s *Session) renderOptions(scheme string) render.Options {
	c := s.Config
	if c == nil {
		c = config.Default()
	}
	return render.Options{
		Width:     render.Width(c.Display.Width),
		Monospace: c.Monospace(scheme),
		Palette: render.Palette{
			H1:         c.Colors.H1,
			H2:         c.Colors.H2,
			H3:         c.Colors.H3,
			List:       c.Colors.List,
			Text:       c.Colors.Text,
			Background: c.Colors.Background,
		},
		Bullets: render.Bullets{
			H1:   c.Characters.H1,
			H2:   c.Characters.H2,
			H3:   c.Characters.H3,
			List: c.Characters.List,
		},
		Logger: s.logger(),
	}
}

func (s *Session) addBookmark() error {
	if s.page == nil {
		fmt.Fprintln(s.Out, "nothing to bookmark")
		return nil
	}
	if !s.Bookmarks.Add(s.page.String(), "") {
		fmt.Fprintln(s.Out, "already bookmarked")
		return nil
	}
	if err := s.Bookmarks.Save(); err != nil {
		return fmt.Errorf("saving bookmarks: %w", err)
	}
	fmt.Fprintf(s.Out, "bookmarked %s\n", s.page)
	return nil
}

func (s *Session) removeBookmark(arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil || !s.Bookmarks.Remove(n-1) {
		fmt.Fprintf(s.Out, "no bookmark %s\n", arg)
		return nil
	}
	if err := s.Bookmarks.Save(); err != nil {
		return fmt.Errorf("saving bookmarks: %w", err)
	}
	fmt.Fprintf(s.Out, "deleted bookmark %d\n", n)
	return nil
}

// listBookmarks prints the bookmarks and makes them the numbered links.
func (s *Session) listBookmarks() error {
	list := s.Bookmarks.List()
	if len(list) == 0 {
		fmt.Fprintln(s.Out, "no bookmarks")
		return nil
	}

	links := make([]document.Link, 0, len(list))
	for _, b := range list {
		u, err := url.Parse(b.URL)
		if err != nil {
			s.logger().Debug("skipping bookmark", "url", b.URL, "error", err)
			continue
		}
		links = append(links, document.Link{Kind: document.KindForScheme(u.Scheme), URL: u, Ref: b.URL, Label: b.Title})
	}
	s.printLinks(links)
	return nil
}

// listHistory prints the visited pages, oldest first, and makes them the
// numbered links.
func (s *Session) listHistory() {
	entries := s.Nav.History().Entries()
	if len(entries) == 0 {
		fmt.Fprintln(s.Out, "no history")
		return
	}
	links := make([]document.Link, 0, len(entries))
	for _, u := range entries {
		links = append(links, document.Link{Kind: document.KindForScheme(u.Scheme), URL: u, Ref: u.String()})
	}
	s.printLinks(links)
}

// printLinks lists links one per line, cut to the display width, and makes
// them the numbered links.
func (s *Session) printLinks(links []document.Link) {
	width := s.renderOptions("").Width
	for i, l := range links {
		num := fmt.Sprintf("[%d] ", i+1)
		text := l.Target()
		if l.Label != "" {
			text = l.Label + " " + text
		}
		fmt.Fprintln(s.Out, num+render.Truncate(render.Sanitize(text), width-len(num)))
	}
	s.links = links
}

// Run reads commands until the user quits or input ends. start, when not
// empty, is visited first.
func (s *Session) Run(ctx context.Context, line *liner.State, start string) error {
	s.Input = line
	if start != "" {
		if err := s.Handle(ctx, start); err != nil {
			return err
		}
	}

	for {
		input, err := line.Prompt("castor> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}

		err = s.Handle(ctx, input)
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (s *Session) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
