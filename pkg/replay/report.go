package replay

import (
	"fmt"
	"strings"
)

// Markdown renders the report as a Markdown document.
func (r Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# Fixture verification\n\n")
	b.WriteString("| Fixture | Ritual | Result | Details |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, res := range r.Results {
		verdict := "pass"
		var details []string
		if !res.Passed {
			verdict = "**fail**"
			for _, m := range res.Mismatches {
				details = append(details, fmt.Sprintf("`%s`: expected %s, got %s", m.Field, escapeCell(m.Expected), escapeCell(m.Actual)))
			}
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", res.Name, res.Ritual, verdict, strings.Join(details, "<br>"))
	}
	fmt.Fprintf(&b, "\n**%d passed, %d failed**\n", r.Passed, r.Failed)
	return b.String()
}

// Markdown renders a replay result: the per-event frames followed by the signals.
func (r Result) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Replay: %s\n\n", r.Trace)
	fmt.Fprintf(&b, "Ritual **%s** (%s): drag %.0fpx, hold %.0fms.\n\n",
		r.Ritual.ID, r.Ritual.Title, r.Ritual.Thresholds.DragThresholdPx, r.Ritual.Thresholds.HoldDurationMs)

	b.WriteString("| # | Event | Accepted | Stage | Seal | Total |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, f := range r.Frames {
		accepted := "yes"
		if !f.Accepted {
			accepted = "no"
		}
		fmt.Fprintf(&b, "| %d | `%s` | %s | %s | %s | %.2f |\n",
			f.Index, f.Event.String(), accepted, f.Stage, f.Snapshot.SealStatus, f.Snapshot.TotalProgress)
	}

	b.WriteString("\n## Signals\n\n")
	if len(r.Signals) == 0 {
		b.WriteString("_none_\n")
	}
	for _, s := range r.Signals {
		if s.Title != "" {
			fmt.Fprintf(&b, "- `%s` %s\n", s.Name(), s.Title)
		} else {
			fmt.Fprintf(&b, "- `%s`\n", s.Name())
		}
	}
	fmt.Fprintf(&b, "\nFingerprint `%s`\n", r.Fingerprint())
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
