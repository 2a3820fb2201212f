package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/ritual/internal/runtime"
	"github.com/aretw0/ritual/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_HooksObserveEveryStep(t *testing.T) {
	var records []domain.TransitionRecord
	var signals []string

	engine := runtime.NewEngine(canonical(t), runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnTransition: func(_ context.Context, rec *domain.TransitionRecord) {
			records = append(records, *rec)
		},
		OnSignal: func(_ context.Context, sig domain.Signal) {
			signals = append(signals, sig.Name())
		},
	}))

	ctx := context.Background()
	state := engine.Initial()
	for _, ev := range []domain.InputEvent{
		domain.PointerDown(1, 0, 0),
		domain.PointerMove(2, 10, 0), // foreign, rejected
		domain.PointerMove(1, 200, 0),
	} {
		state = engine.Step(ctx, state, ev).State
	}

	require.Len(t, records, 3)
	assert.True(t, records[0].Accepted)
	assert.Equal(t, domain.StageIdle, records[0].From)
	assert.Equal(t, domain.StageDragging, records[0].To)
	assert.False(t, records[1].Accepted)
	assert.Equal(t, records[1].From, records[1].To)
	assert.Equal(t, domain.StageDragSatisfied, records[2].To)
	assert.Len(t, records[2].Signals, 2)
	assert.Equal(t, "first-proof", records[2].RitualID)

	assert.Equal(t, []string{"anchor:drag-satisfied", "evidence:drag-satisfied"}, signals)
}

func TestEngine_StepMatchesTransition(t *testing.T) {
	r := canonical(t)
	engine := runtime.NewEngine(r)

	events := append([]domain.InputEvent{
		domain.PointerDown(1, 0, 0),
		domain.PointerMove(1, 190, 10),
	}, ticks(30, 40)...)
	events = append(events, domain.PointerUp(1, 190, 10))

	ctx := context.Background()
	viaEngine := engine.Initial()
	viaReducer := domain.NewState()
	for _, ev := range events {
		a := engine.Step(ctx, viaEngine, ev)
		b := runtime.Transition(viaReducer, ev, r)
		require.Equal(t, b, a)
		viaEngine, viaReducer = a.State, b.State
	}

	assert.True(t, viaEngine.Sealed())
	assert.Equal(t, runtime.Project(viaReducer, r), engine.Project(viaEngine))
	assert.Equal(t, r, engine.Ritual())
}
