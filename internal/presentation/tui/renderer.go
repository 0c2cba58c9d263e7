package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders bot text as markdown using
// glamour. When rich is false, or glamour cannot be set up, text passes
// through unchanged.
func NewRenderer(rich bool) func(string) string {
	if !rich {
		return plain
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return plain
	}
	return func(markdown string) string {
		out, err := r.Render(markdown)
		if err != nil {
			return markdown
		}
		return strings.TrimRight(out, "\n")
	}
}

func plain(s string) string { return s }
