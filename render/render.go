// Package render turns parsed documents into styled terminal text.
package render

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"golang.org/x/sys/unix"
)

// DefaultWidth is used when the terminal size cannot be determined.
const DefaultWidth = 80

// TerminalSize returns the current terminal dimensions.
func TerminalSize() (width, height int, err error) {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, fmt.Errorf("getting terminal size: %w", err)
	}
	return int(ws.Col), int(ws.Row), nil
}

// Width returns configured when positive, otherwise the terminal width,
// falling back to DefaultWidth when output is not a terminal.
func Width(configured int) int {
	if configured > 0 {
		return configured
	}
	if w, _, err := TerminalSize(); err == nil && w > 0 {
		return w
	}
	return DefaultWidth
}

// StringWidth returns the display width of a string in terminal cells.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// WrapText wraps text to fit within a given width in terminal cells.
func WrapText(text string, width int) []string {
	if width <= 0 {
		return nil
	}

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		var currentLine strings.Builder
		currentWidth := 0

		for _, word := range words {
			wordWidth := StringWidth(word)

			switch {
			case currentWidth == 0 && wordWidth > width:
				lines = append(lines, breakWord(word, width)...)
			case currentWidth == 0:
				currentLine.WriteString(word)
				currentWidth = wordWidth
			case currentWidth+1+wordWidth <= width:
				currentLine.WriteByte(' ')
				currentLine.WriteString(word)
				currentWidth += 1 + wordWidth
			default:
				lines = append(lines, currentLine.String())
				currentLine.Reset()
				currentWidth = 0
				if wordWidth > width {
					lines = append(lines, breakWord(word, width)...)
				} else {
					currentLine.WriteString(word)
					currentWidth = wordWidth
				}
			}
		}

		if currentWidth > 0 {
			lines = append(lines, currentLine.String())
		}
	}

	return lines
}

func breakWord(word string, maxWidth int) []string {
	var result []string
	var line strings.Builder
	lineWidth := 0

	for _, r := range word {
		w := runewidth.RuneWidth(r)
		if lineWidth+w > maxWidth && line.Len() > 0 {
			result = append(result, line.String())
			line.Reset()
			lineWidth = 0
		}
		line.WriteRune(r)
		lineWidth += w
	}
	if line.Len() > 0 {
		result = append(result, line.String())
	}
	return result
}

// Truncate truncates a string adding ellipsis if needed.
func Truncate(s string, width int) string {
	if StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

// Sanitize removes terminal escape sequences and control characters other
// than tab and newline so server text cannot drive the terminal.
func Sanitize(s string) string {
	if !strings.ContainsFunc(s, isControl) {
		return s
	}

	var sb strings.Builder
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '\x1b':
			size = escapeLen(s[i:])
		case isControl(r):
		default:
			sb.WriteString(s[i : i+size])
		}
		i += size
	}
	return sb.String()
}

// escapeLen returns the length of the escape sequence at the start of s.
// Unterminated sequences run to the end of s.
func escapeLen(s string) int {
	if len(s) < 2 {
		return len(s)
	}
	switch s[1] {
	case '[': // CSI ends with a byte in 0x40-0x7e
		for i := 2; i < len(s); i++ {
			if s[i] >= 0x40 && s[i] <= 0x7e {
				return i + 1
			}
		}
	case ']': // OSC ends with BEL or ESC \
		for i := 2; i < len(s); i++ {
			if s[i] == '\a' {
				return i + 1
			}
			if s[i] == '\x1b' && i+1 < len(s) && s[i+1] == '\\' {
				return i + 2
			}
		}
	default:
		return 2
	}
	return len(s)
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' {
		return false
	}
	return r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0)
}
