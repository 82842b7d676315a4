package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/mudcore/internal/core/storage"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestLoadLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mud.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: 0.0.0.0:4000
tick_interval: 250ms
start_room: square
storage_driver: sqlite
`), 0o600))
	t.Setenv("MUD_START_ROOM", "gate")
	t.Setenv("MUD_STRICT", "true")
	t.Setenv("MUD_AUTOSAVE_INTERVAL", "30s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:4000", cfg.ListenAddr, "file overrides defaults")
	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, storage.DriverSQLite, cfg.StorageDriver)
	assert.Equal(t, "gate", cfg.StartRoom, "environment overrides the file")
	assert.True(t, cfg.Strict)
	assert.Equal(t, 30*time.Second, cfg.AutosaveInterval)
	assert.Equal(t, DefaultConfig().SQLitePath, cfg.SQLitePath, "untouched fields keep defaults")
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("MUD_MOVE_DELAY", "3")
	t.Setenv("MUD_ADMINS", "root,wizard")
	t.Setenv("MUD_TOKENS", "abc:bob,def:alice")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MoveDelay)
	assert.Equal(t, []string{"root", "wizard"}, cfg.Admins)
	assert.Equal(t, map[string]string{"abc": "bob", "def": "alice"}, cfg.Tokens)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("MUD_MOVE_DELAY", "soon")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ListenAddr = ""
	cfg.TickInterval = 0
	cfg.StorageDriver = "tape"
	cfg.LogEncoding = "xml"

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	for _, want := range []string{"listen address", "tick interval", "storage driver", "log encoding"} {
		assert.Contains(t, err.Error(), want)
	}
}
