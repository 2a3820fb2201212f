package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/ritual/pkg/domain"
	"github.com/aretw0/ritual/pkg/replay"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	VisitedStages []domain.Stage
	CurrentStage  domain.Stage
	// Blocked marks a release that landed before both thresholds held.
	Blocked bool
}

// edge is one forward move of the stage machine.
type edge struct {
	from, to domain.Stage
	label    string
}

// forwardEdges lists every stage change an accepted event can cause, except reset.
func forwardEdges(th domain.Thresholds) []edge {
	return []edge{
		{domain.StageIdle, domain.StageDragging, "pointer_down"},
		{domain.StageDragging, domain.StageDragSatisfied, fmt.Sprintf("drag >= %gpx, ratio >= %g", th.DragThresholdPx, th.DragDirectionRatio)},
		{domain.StageDragSatisfied, domain.StageHolding, "hold_tick"},
		{domain.StageHolding, domain.StageHoldSatisfied, fmt.Sprintf("hold >= %gms", th.HoldDurationMs)},
		{domain.StageHoldSatisfied, domain.StageSealed, "pointer_up"},
	}
}

// GenerateMermaid produces a Mermaid flowchart of the ritual's stage machine.
// Idle and sealed are drawn as circles; every other stage as a rectangle.
// Reset edges are dotted. Overlay styles are applied if provided.
func GenerateMermaid(ritual domain.Ritual, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")
	sb.WriteString(fmt.Sprintf("    %%%% %s\n", ritual.ID))

	for _, st := range domain.Stages {
		opener, closer := "[", "]"
		if st == domain.StageIdle || st == domain.StageSealed {
			opener, closer = "((", "))"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", sanitizeMermaidID(string(st)), opener, st, closer))
	}

	for _, e := range forwardEdges(ritual.Thresholds) {
		label := strings.ReplaceAll(e.label, "\"", "'")
		sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n",
			sanitizeMermaidID(string(e.from)), label, sanitizeMermaidID(string(e.to))))
	}

	for _, st := range domain.Stages[1:] {
		sb.WriteString(fmt.Sprintf("    %s -. reset .-> %s\n",
			sanitizeMermaidID(string(st)), sanitizeMermaidID(string(domain.StageIdle))))
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef blocked fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")

		visited := make(map[domain.Stage]bool)
		for _, st := range overlay.VisitedStages {
			if !visited[st] && st.Valid() {
				visited[st] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", sanitizeMermaidID(string(st))))
			}
		}

		if overlay.CurrentStage.Valid() {
			class := "current"
			if overlay.Blocked {
				class = "blocked"
			}
			sb.WriteString(fmt.Sprintf("    class %s %s;\n", sanitizeMermaidID(string(overlay.CurrentStage)), class))
		}
	}

	return sb.String()
}

// OverlayFromReplay marks the stages a replay passed through and where it ended.
func OverlayFromReplay(res replay.Result) *GraphOverlay {
	overlay := &GraphOverlay{
		VisitedStages: []domain.Stage{domain.StageIdle},
		CurrentStage:  res.FinalState.Stage,
		Blocked:       res.FinalState.Release.Blocked && !res.FinalState.Release.Committed,
	}
	for _, f := range res.Frames {
		if f.Accepted {
			overlay.VisitedStages = append(overlay.VisitedStages, f.Stage)
		}
	}
	return overlay
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
