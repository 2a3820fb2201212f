package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/ritual/pkg/domain"
	"github.com/aretw0/ritual/pkg/registry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sealedTrace = `
name: mcp
ritual: first-proof
steps:
  - {type: pointer_down, pointer_id: 1, x: 0, y: 0}
  - {type: pointer_move, pointer_id: 1, x: 200, y: 0}
  - {type: hold_tick, pointer_id: 1, delta_ms: 64, repeat: 18}
  - {type: pointer_up, pointer_id: 1, x: 200, y: 0}
`

func newTestServer() *Server {
	return NewServer(registry.NewWithPresets(), "test")
}

func TestListRituals(t *testing.T) {
	s := newTestServer()
	res, err := s.handleListRituals(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)

	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	var rituals []domain.Ritual
	require.NoError(t, json.Unmarshal([]byte(text.Text), &rituals))
	ids := []string{}
	for _, r := range rituals {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"07", "13", "first-proof"}, ids)
}

func TestReplayTrace(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	resp, err := s.handleReplayTrace(ctx, mcp.CallToolRequest{}, map[string]interface{}{"trace": sealedTrace})
	require.NoError(t, err)
	assert.Equal(t, domain.StageSealed, resp.Stage)
	assert.Equal(t, domain.SealSealed, resp.SealStatus)
	assert.Equal(t, 1.0, resp.TotalProgress)
	assert.Equal(t, 21, resp.Frames)
	assert.Contains(t, resp.Signals, "evidence:sealed")
	assert.Len(t, resp.Fingerprint, 64)

	again, err := s.handleReplayTrace(ctx, mcp.CallToolRequest{}, map[string]interface{}{"trace": sealedTrace})
	require.NoError(t, err)
	assert.Equal(t, resp.Fingerprint, again.Fingerprint)

	_, err = s.handleReplayTrace(ctx, mcp.CallToolRequest{}, map[string]interface{}{"trace": "ritual: nope\nsteps: []"})
	assert.ErrorIs(t, err, domain.ErrUnknownRitual)

	_, err = s.handleReplayTrace(ctx, mcp.CallToolRequest{}, map[string]interface{}{})
	assert.Error(t, err)
}

func TestVerifyFixtures(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	report, err := s.handleVerifyFixtures(ctx, mcp.CallToolRequest{}, map[string]interface{}{})
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Positive(t, report.Passed)

	custom := `
fixtures:
  - name: wrong-stage
    ritual: first-proof
    steps:
      - {type: pointer_down, pointer_id: 1, x: 0, y: 0}
    expect:
      stage: sealed
`
	report, err = s.handleVerifyFixtures(ctx, mcp.CallToolRequest{}, map[string]interface{}{"fixtures": custom})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "stage", report.Results[0].Mismatches[0].Field)
}

func TestProjectState(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	state := domain.NewState()
	state.Stage = domain.StageHolding
	state.PointerActive = true
	state.ActivePointerID = 1
	state.Drag = domain.DragMetrics{DxPx: 200, DistancePx: 200, DirectionRatio: 1, DirectionValid: true, ThresholdReached: true}
	state.Hold = domain.HoldMetrics{ElapsedMs: 550}
	raw, err := json.Marshal(state)
	require.NoError(t, err)

	snap, err := s.handleProjectState(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"ritual_id": "first-proof",
		"state":     string(raw),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SealHolding, snap.SealStatus)
	assert.InDelta(t, 0.5, snap.HoldProgress, 1e-9)
	assert.InDelta(t, 550, snap.RemainingMs, 1e-9)

	snap, err = s.handleProjectState(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"ritual_id": "first-proof",
		"state":     string(raw),
		"overrides": `{"hold_duration_ms": 1100, "drag_threshold_px": 400}`,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, snap.DragProgress, 1e-9)

	// string numbers decode, misspelled keys and malformed values are ignored
	snap, err = s.handleProjectState(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"ritual_id": "first-proof",
		"state":     string(raw),
		"overrides": `{"hold_duration_ms": "2200", "drag_thresold_px": 400, "release_snap_px": "wide"}`,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, snap.HoldProgress, 1e-9)
	assert.InDelta(t, 1, snap.DragProgress, 1e-9)

	_, err = s.handleProjectState(ctx, mcp.CallToolRequest{}, map[string]interface{}{"ritual_id": "first-proof", "state": "{"})
	assert.Error(t, err)
	_, err = s.handleProjectState(ctx, mcp.CallToolRequest{}, map[string]interface{}{"ritual_id": "first-proof", "state": `{"stage":"flying"}`})
	assert.Error(t, err)
	_, err = s.handleProjectState(ctx, mcp.CallToolRequest{}, map[string]interface{}{"ritual_id": "nope", "state": "{}"})
	assert.ErrorIs(t, err, domain.ErrUnknownRitual)
}
