package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the ritual banner and version to w. Colors are only applied when
// w is a terminal.
func PrintBanner(w io.Writer, version string) {
	lines := []struct {
		text, color string
	}{
		{`   ___  _ _              _ `, "#f59e0b"},
		{`  | _ \(_) |_ _  _ __ _ | |`, "#f97316"},
		{`  |   /| |  _| || / _' || |`, "#ef4444"},
		{`  |_|_\|_|\__|\_,_\__,_||_|`, "#e11d48"},
	}

	p := termenv.Ascii
	if IsTerminal(w) {
		p = termenv.ColorProfile()
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, p.String("  gesture ritual engine "+version).Faint())
	fmt.Fprintln(w)
}
