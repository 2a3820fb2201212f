package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/ritual/internal/config"
	"github.com/aretw0/ritual/pkg/adapters/memory"
	"github.com/aretw0/ritual/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sealingEvents() []domain.InputEvent {
	events := []domain.InputEvent{
		domain.PointerDown(1, 0, 0),
		domain.PointerMove(1, 200, 0),
	}
	for i := 0; i < 18; i++ {
		events = append(events, domain.HoldTick(1, 64))
	}
	return append(events, domain.PointerUp(1, 200, 0))
}

func baseConfig() config.Config {
	return config.Config{
		LogLevel:      "info",
		StoreKind:     config.StoreMemory,
		FrameInterval: 16 * time.Millisecond,
		LockTTL:       time.Second,
	}
}

func runSealing(t *testing.T, st *Stack, sessionID string) {
	t.Helper()
	ctx := context.Background()

	_, err := st.Manager.Open(ctx, sessionID, domain.PresetFirstProof, nil)
	require.NoError(t, err)
	for _, ev := range sealingEvents() {
		_, err := st.Manager.Dispatch(ctx, sessionID, ev)
		require.NoError(t, err)
	}
}

func TestBuild_Backends(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name string
		mut  func(cfg *config.Config, dir string)
	}{
		{"memory", func(cfg *config.Config, dir string) {}},
		{"file", func(cfg *config.Config, dir string) {
			cfg.StoreKind = config.StoreFile
			cfg.StorePath = filepath.Join(dir, "sessions")
		}},
		{"sqlite", func(cfg *config.Config, dir string) {
			cfg.StoreKind = config.StoreSQLite
			cfg.StorePath = filepath.Join(dir, "db", "ritual.db")
		}},
		{"redis", func(cfg *config.Config, dir string) {
			cfg.StoreKind = config.StoreRedis
			cfg.RedisAddr = mr.Addr()
			cfg.SessionTTL = time.Hour
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			cfg := baseConfig()
			tt.mut(&cfg, t.TempDir())

			st, err := Build(ctx, cfg, nil)
			require.NoError(t, err)

			runSealing(t, st, "s-"+tt.name)

			snap, err := st.Manager.Snapshot(ctx, "s-"+tt.name)
			require.NoError(t, err)
			assert.Equal(t, domain.SealSealed, snap.SealStatus)
			assert.True(t, st.Recorder.Satisfied("s-"+tt.name, domain.MarkerSealed))

			history, err := st.Manager.History(ctx, "s-"+tt.name)
			require.NoError(t, err)
			assert.NotEmpty(t, history)

			ids, err := st.Manager.List(ctx)
			require.NoError(t, err)
			assert.Contains(t, ids, "s-"+tt.name)

			families, err := st.Registry.Gather()
			require.NoError(t, err)
			assert.NotEmpty(t, families)

			require.NoError(t, st.Close(ctx))
		})
	}
}

func TestBuild_ExtraSinksAndHoldLoops(t *testing.T) {
	ctx := context.Background()
	journal := memory.NewJournal()

	st, err := Build(ctx, baseConfig(), nil, WithSinks(journal), WithHoldLoops(), WithStreamDrops(func() uint64 { return 2 }))
	require.NoError(t, err)
	defer func() { require.NoError(t, st.Close(ctx)) }()

	_, err = st.Manager.Open(ctx, "s1", domain.PresetFirstProof, nil)
	require.NoError(t, err)
	_, err = st.Manager.Dispatch(ctx, "s1", domain.PointerDown(1, 0, 0))
	require.NoError(t, err)
	_, err = st.Manager.Dispatch(ctx, "s1", domain.PointerMove(1, 200, 0))
	require.NoError(t, err)

	assert.Equal(t, 1, st.Manager.HoldLoops())

	got, err := journal.History(ctx, "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, got, "extra sinks see every signal")

	families, err := st.Registry.Gather()
	require.NoError(t, err)
	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "ritual_stream_dropped_total")
}

func TestOpenBackend_Encryption(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))

	cfg := baseConfig()
	cfg.StoreKind = config.StoreFile
	cfg.StorePath = dir
	cfg.EncryptionKey = key

	st, err := Build(ctx, cfg, nil)
	require.NoError(t, err)
	runSealing(t, st, "secret")
	require.NoError(t, st.Close(ctx))

	raw, err := os.ReadFile(filepath.Join(dir, "secret.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"envelope"`)
	assert.NotContains(t, string(raw), `"sealed"`, "the stage is not readable at rest")

	st, err = Build(ctx, cfg, nil)
	require.NoError(t, err)
	rec, err := st.Manager.Record(ctx, "secret")
	require.NoError(t, err)
	assert.Equal(t, domain.StageSealed, rec.State.Stage)
	require.NoError(t, st.Close(ctx))

	cfg.EncryptionKey = "short"
	_, err = OpenBackend(ctx, cfg)
	assert.ErrorContains(t, err, "encryption key")
}

func TestOpenBackend_UnknownStore(t *testing.T) {
	cfg := baseConfig()
	cfg.StoreKind = "etcd"
	_, err := OpenBackend(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown store")
}

func TestNewLogger(t *testing.T) {
	cfg := baseConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "ritual.jsonl")

	logger, closeLog, err := NewLogger(cfg)
	require.NoError(t, err)
	logger.Info("hello", "k", "v")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)

	cfg.LogLevel = "loud"
	_, _, err = NewLogger(cfg)
	assert.Error(t, err)
}

func TestLoadFixtures(t *testing.T) {
	cat, err := LoadFixtures("")
	require.NoError(t, err)
	assert.NotNil(t, cat)

	_, err = LoadFixtures(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
