package ritual

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/ritual/pkg/domain"
	"github.com/aretw0/ritual/pkg/session"
)

// Runner feeds a line-oriented event stream into a session driver.
// Every input line is one JSON-encoded domain.InputEvent; blank lines and lines starting
// with '#' are skipped. Every accepted or rejected event produces one JSON line on Output.
type Runner struct {
	Input  io.Reader
	Output io.Writer
}

// RunLine is the output record of one input line.
type RunLine struct {
	Line int `json:"line"`
	session.Outcome
}

// Run dispatches events until Input is exhausted or ctx is cancelled.
func (r *Runner) Run(ctx context.Context, driver *session.Driver) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	if err := driver.Start(ctx); err != nil {
		return err
	}

	enc := json.NewEncoder(r.Output)
	scanner := bufio.NewScanner(r.Input)
	n := 0
	for scanner.Scan() {
		n++
		if err := ctx.Err(); err != nil {
			return err
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var ev domain.InputEvent
		if err := json.Unmarshal([]byte(text), &ev); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		if !ev.Type.Known() {
			return fmt.Errorf("line %d: unknown event type %q", n, ev.Type)
		}

		out, err := driver.Dispatch(ctx, ev)
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		if err := enc.Encode(RunLine{Line: n, Outcome: out}); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("input error: %w", err)
	}
	return nil
}
