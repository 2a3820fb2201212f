package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/ritual/internal/cli"
	"github.com/aretw0/ritual/internal/config"
	"github.com/aretw0/ritual/pkg/domain"
	"github.com/aretw0/ritual/pkg/replay"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sealTrace = `name: seal
ritual: first-proof
steps:
  - {type: pointer_down, pointer_id: 1, x: 0, y: 0}
  - {type: pointer_move, pointer_id: 1, x: 200, y: 0}
  - {type: hold_tick, pointer_id: 1, delta_ms: 64, repeat: 18}
  - {type: pointer_up, pointer_id: 1, x: 200, y: 0}
`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("RITUAL_LOG_LEVEL", "error")

	// rootCmd is shared: flags set by an earlier test must not leak into this one.
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func writeTrace(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sealTrace), 0o644))
	return path
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ritual version v")
}

func TestPresetsCmd(t *testing.T) {
	out, err := execute(t, "", "presets")
	require.NoError(t, err)
	assert.Contains(t, out, "first-proof")
	assert.Contains(t, out, "180px")
	assert.Contains(t, out, "1800ms")

	out, err = execute(t, "", "presets", "--json")
	require.NoError(t, err)
	var rituals []domain.Ritual
	require.NoError(t, json.Unmarshal([]byte(out), &rituals))
	assert.Len(t, rituals, 3)
}

func TestReplayCmd(t *testing.T) {
	path := writeTrace(t)

	out, err := execute(t, "", "replay", path)
	require.NoError(t, err)
	assert.Contains(t, out, "# Replay: seal")
	assert.Contains(t, out, "`evidence:sealed` Sealed")

	out, err = execute(t, "", "replay", path, "--json")
	require.NoError(t, err)
	var res replay.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, domain.SealSealed, res.FinalSnapshot.SealStatus)
	assert.Len(t, res.Frames, 21)

	// Preset 07 needs a 220px drag, so the same trace never seals.
	out, err = execute(t, "", "replay", path, "--json", "--ritual", domain.PresetSlide07)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.NotEqual(t, domain.SealSealed, res.FinalSnapshot.SealStatus)

	_, err = execute(t, "", "replay", path, "--ritual", "nope")
	assert.ErrorIs(t, err, domain.ErrUnknownRitual)
}

func TestDeterminismCmd(t *testing.T) {
	out, err := execute(t, "", "determinism", writeTrace(t), "-n", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "iterations:    3")
	assert.Contains(t, out, "deterministic: true")
}

func TestVerifyCmd(t *testing.T) {
	out, err := execute(t, "", "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "# Fixture verification")
	assert.Contains(t, out, " 0 failed")

	dir := t.TempDir()
	bad := `fixtures:
  - name: wrong
    ritual: first-proof
    steps:
      - {type: pointer_down, pointer_id: 1}
    expect:
      stage: sealed
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(bad), 0o644))
	out, err = execute(t, "", "verify", dir)
	assert.ErrorContains(t, err, "1 of 1 fixtures failed")
	assert.Contains(t, out, "**fail**")
}

func TestGraphCmd(t *testing.T) {
	out, err := execute(t, "", "graph", "13")
	require.NoError(t, err)
	assert.Contains(t, out, "graph LR")
	assert.Contains(t, out, `"hold >= 1800ms"`)
	assert.NotContains(t, out, "classDef")

	out, err = execute(t, "", "graph", "--trace", writeTrace(t))
	require.NoError(t, err)
	assert.Contains(t, out, "class sealed current;")
}

func TestRunCmd(t *testing.T) {
	var in strings.Builder
	in.WriteString(`{"type":"pointer_down","pointer_id":1}` + "\n")
	in.WriteString(`{"type":"pointer_move","pointer_id":1,"x":200}` + "\n")

	out, err := execute(t, in.String(), "run")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], `"seal_status":"drag-verified"`)
}

func TestSessionCmds(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sessions")
	ctx := context.Background()

	cfg := config.Config{StoreKind: config.StoreFile, StorePath: dir, FrameInterval: 1}
	st, err := cli.Build(ctx, cfg, nil)
	require.NoError(t, err)
	_, err = st.Manager.Open(ctx, "s1", domain.PresetFirstProof, nil)
	require.NoError(t, err)
	_, err = st.Manager.Dispatch(ctx, "s1", domain.PointerDown(1, 0, 0))
	require.NoError(t, err)
	require.NoError(t, st.Close(ctx))

	flags := []string{"--store", "file", "--store-path", dir}

	out, err := execute(t, "", append([]string{"session", "ls"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "- s1")

	out, err = execute(t, "", append([]string{"session", "inspect", "s1"}, flags...)...)
	require.NoError(t, err)
	var got inspection
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, domain.PresetFirstProof, got.Record.RitualID)
	assert.Equal(t, domain.StageDragging, got.Snapshot.Stage)

	out, err = execute(t, "", append([]string{"session", "rm", "s1"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed session 's1'")

	out, err = execute(t, "", append([]string{"session", "ls"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found.")

	_, err = execute(t, "", append([]string{"session", "inspect", "s1"}, flags...)...)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRootCmd_InvalidStore(t *testing.T) {
	_, err := execute(t, "", "session", "ls", "--store", "etcd")
	assert.ErrorContains(t, err, "unknown store")
}
