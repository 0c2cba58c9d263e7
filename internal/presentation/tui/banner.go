package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Pressline banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{" ___                  _ _", "#818cf8"},
		{"| _ \\_ _ ___ ______| (_)_ _  ___", "#a78bfa"},
		{"|  _/ '_/ -_|_-<_-<| | | ' \\/ -_)", "#c084fc"},
		{"|_| |_| \\___/__/__/|_|_|_||_\\___|", "#e879f9"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  "+version).Faint())
	fmt.Fprintln(w)
}
