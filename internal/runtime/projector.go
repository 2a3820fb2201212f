package runtime

import "github.com/aretw0/ritual/pkg/domain"

// Project derives the UI snapshot of a state. It is pure and total: any state, even a
// hand-crafted inconsistent one, yields a snapshot with ratios inside [0, 1].
// Step statuses read the sticky flags of the state and never re-check thresholds, so the
// snapshot cannot disagree with the state about completion.
func Project(s domain.RitualState, r domain.Ritual) domain.Snapshot {
	th := r.Thresholds
	w := r.Weights

	drag := ratio(s.Drag.DistancePx, th.DragThresholdPx)
	hold := ratio(s.Hold.ElapsedMs, th.HoldDurationMs)
	release := 0.0
	if s.Release.Committed {
		release = 1
	}

	total := 1.0
	if !s.Sealed() {
		total = domain.Clamp(w.Drag*drag+w.Hold*hold+w.Release*release, 0, w.Cap)
		total = domain.Clamp(total, 0, 1)
	}

	status := sealStatus(s)
	return domain.Snapshot{
		RitualID:        r.ID,
		Stage:           s.Stage,
		DragProgress:    drag,
		HoldProgress:    hold,
		ReleaseProgress: release,
		TotalProgress:   total,
		SealStatus:      status,
		LabelKey:        "ritual." + r.ID + ".seal." + string(status),
		ReleaseReady:    s.ReleaseReady(),
		HandleOffsetPx:  handleOffset(s, th),
		DirectionRatio:  domain.Clamp(s.Drag.DirectionRatio, 0, 1),
		ElapsedMs:       domain.Clamp(s.Hold.ElapsedMs, 0, th.HoldDurationMs),
		RemainingMs:     domain.Clamp(th.HoldDurationMs-s.Hold.ElapsedMs, 0, th.HoldDurationMs),
		Steps:           steps(s, r),
	}
}

func ratio(v, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return domain.Clamp(v/limit, 0, 1)
}

func sealStatus(s domain.RitualState) domain.SealStatus {
	switch {
	case s.Sealed():
		return domain.SealSealed
	case s.Release.Blocked:
		return domain.SealBlocked
	case s.Hold.ThresholdReached:
		return domain.SealReady
	case s.Stage == domain.StageHolding:
		return domain.SealHolding
	case s.Drag.ThresholdReached:
		return domain.SealDragReady
	case s.Stage == domain.StageDragging:
		return domain.SealArming
	default:
		return domain.SealOpen
	}
}

func steps(s domain.RitualState, r domain.Ritual) []domain.StepView {
	drag := domain.StepActive
	if s.Drag.ThresholdReached {
		drag = domain.StepComplete
	}

	hold := domain.StepLocked
	switch {
	case s.Hold.ThresholdReached:
		hold = domain.StepComplete
	case s.Drag.ThresholdReached:
		hold = domain.StepActive
	}

	release := domain.StepLocked
	switch {
	case s.Release.Committed:
		release = domain.StepComplete
	case s.ReleaseReady():
		release = domain.StepActive
	}

	view := func(id string, st domain.StepStatus) domain.StepView {
		return domain.StepView{
			ID:       id,
			Status:   st,
			LabelKey: "ritual." + r.ID + ".step." + id + "." + string(st),
		}
	}
	return []domain.StepView{
		view(domain.StepDrag, drag),
		view(domain.StepHold, hold),
		view(domain.StepRelease, release),
	}
}

// handleOffset is where the UI should draw the drag handle. Past the drag threshold the
// handle follows a rubber-band curve: an overshoot o renders as o*s/(s+o), so it never
// travels more than ReleaseSnapPx beyond the threshold.
func handleOffset(s domain.RitualState, th domain.Thresholds) float64 {
	switch {
	case s.Sealed():
		return th.DragMaxTravelPx
	case !s.PointerActive:
		if s.Drag.ThresholdReached {
			return th.DragThresholdPx
		}
		return 0
	}

	dx := domain.Clamp(s.Drag.DxPx, 0, th.DragMaxTravelPx)
	if dx <= th.DragThresholdPx {
		return dx
	}
	snap := th.ReleaseSnapPx
	if snap <= 0 {
		return th.DragThresholdPx
	}
	over := dx - th.DragThresholdPx
	return th.DragThresholdPx + over*snap/(snap+over)
}
