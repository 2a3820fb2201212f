package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() (func(string) (string, error), error) {
	// Automatically detect light/dark background
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	return r.Render, nil
}

// WriteMarkdown renders md through glamour when w is a terminal and writes it raw
// otherwise, so pipes and files receive plain markdown.
func WriteMarkdown(w io.Writer, md string) error {
	if !IsTerminal(w) {
		_, err := io.WriteString(w, md)
		return err
	}
	render, err := NewRenderer()
	if err != nil {
		return err
	}
	out, err := render(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
