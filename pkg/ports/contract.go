package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/ritual/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		rec := sampleRecord(sessionID)

		err := store.Save(ctx, sessionID, rec)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, rec.SessionID, loaded.SessionID)
		assert.Equal(t, rec.RitualID, loaded.RitualID)
		assert.Equal(t, rec.State, loaded.State)
		assert.Equal(t, rec.Overrides, loaded.Overrides)
		assert.True(t, rec.UpdatedAt.Equal(loaded.UpdatedAt), "UpdatedAt: want %s, got %s", rec.UpdatedAt, loaded.UpdatedAt)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		rec := sampleRecord(sessionID)
		rec.State.Stage = domain.StageSealed
		rec.State.Release.Committed = true
		require.NoError(t, store.Save(ctx, sessionID, rec))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, domain.StageSealed, loaded.State.Stage)
		assert.True(t, loaded.State.Release.Committed)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, sampleRecord(sessionID)))

		err := store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, sampleRecord(id1)))
		require.NoError(t, store.Save(ctx, id2, sampleRecord(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

func sampleRecord(sessionID string) *domain.SessionRecord {
	state := domain.NewState().WithMarker("anchor:drag-satisfied").WithMarker("evidence:drag-satisfied")
	state.Stage = domain.StageHolding
	state.PointerActive = true
	state.ActivePointerID = 7
	state.Origin = domain.Point{X: 10, Y: 20}
	state.Current = domain.Point{X: 210.5, Y: 24}
	state.Drag = domain.DragMetrics{
		DxPx: 200.5, DyPx: 4, DistancePx: 200.5, DirectionRatio: 0.98,
		DirectionValid: true, ThresholdReached: true,
	}
	state.Hold = domain.HoldMetrics{ElapsedMs: 480, TickCount: 10}

	return &domain.SessionRecord{
		SessionID: sessionID,
		RitualID:  domain.PresetFirstProof,
		Overrides: domain.Overrides{HoldDurationMs: domain.Float(1500)},
		State:     state,
		UpdatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}
