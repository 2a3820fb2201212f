package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/ritual/pkg/domain"
)

func anchor(r domain.Ritual, marker, note string) domain.Signal {
	return domain.Signal{
		Kind:     domain.SignalAnchor,
		Marker:   marker,
		RitualID: r.ID,
		AnchorID: r.ID + "." + marker,
		Note:     note,
	}
}

func evidence(r domain.Ritual, marker string, level domain.EvidenceLevel, title, detail, action string) domain.Signal {
	return domain.Signal{
		Kind:     domain.SignalEvidence,
		Marker:   marker,
		RitualID: r.ID,
		Level:    level,
		Title:    title,
		Detail:   detail,
		Action:   action,
	}
}

func dragSatisfiedBundle(s domain.RitualState, r domain.Ritual) []domain.Signal {
	return []domain.Signal{
		anchor(r, domain.MarkerDragSatisfied, "drag threshold crossed"),
		evidence(r, domain.MarkerDragSatisfied, domain.LevelInfo,
			"Drag intent verified",
			fmt.Sprintf("distance %.0fpx of %.0fpx, direction ratio %.2f (min %.2f)",
				s.Drag.DistancePx, r.Thresholds.DragThresholdPx,
				s.Drag.DirectionRatio, r.Thresholds.DragDirectionRatio),
			"hold"),
	}
}

func holdSatisfiedBundle(s domain.RitualState, r domain.Ritual) []domain.Signal {
	return []domain.Signal{
		anchor(r, domain.MarkerHoldSatisfied, "hold duration reached"),
		evidence(r, domain.MarkerHoldSatisfied, domain.LevelInfo,
			"Hold threshold satisfied",
			fmt.Sprintf("held %.0fms over %d ticks", s.Hold.ElapsedMs, s.Hold.TickCount),
			"release"),
	}
}

func sealBundle(s domain.RitualState, r domain.Ritual) []domain.Signal {
	return []domain.Signal{
		anchor(r, domain.MarkerSealed, "released after drag and hold"),
		evidence(r, domain.MarkerSealed, domain.LevelSuccess,
			"Sealed",
			fmt.Sprintf("%s sealed at stage %s", r.ID, s.Stage),
			"none"),
		evidence(r, domain.MarkerPrimaryEvidence, domain.LevelSuccess,
			"Primary evidence satisfied",
			fmt.Sprintf("drag %.0fpx, hold %.0fms", s.Drag.DistancePx, s.Hold.ElapsedMs),
			"advance"),
	}
}

func releaseBlockedBundle(s domain.RitualState, r domain.Ritual) []domain.Signal {
	var missing []string
	if !s.Drag.ThresholdReached {
		missing = append(missing, "drag")
	}
	if !s.Hold.ThresholdReached {
		missing = append(missing, "hold")
	}
	return []domain.Signal{
		anchor(r, domain.MarkerReleaseBlocked, "release before thresholds"),
		evidence(r, domain.MarkerReleaseBlocked, domain.LevelWarning,
			"Release blocked",
			"missing: "+strings.Join(missing, ", "),
			"retry"),
	}
}

func resetSignal(r domain.Ritual) domain.Signal {
	return evidence(r, domain.MarkerReset, domain.LevelInfo, "Ritual reset", "state returned to idle", "restart")
}
