package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Listen)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "http://localhost:3000", cfg.Client.BackendURL)
	assert.Equal(t, "unit.db", filepath.Base(cfg.Server.DBPath))
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  listen: ":8080"
  db_path: /tmp/from-file.db
  log_level: debug
  cors_origins: ["http://localhost:5173"]
client:
  backend_url: http://example.test
  poll_interval: 2s
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, "/tmp/from-file.db", cfg.Server.DBPath)
	assert.Equal(t, slog.LevelDebug, cfg.Server.Level())
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 2*time.Second, cfg.Client.PollInterval)
	assert.Equal(t, "json", cfg.Server.LogFormat, "unset keys keep defaults")

	t.Setenv("PORT", "4000")
	t.Setenv("UNIT_DB", "/tmp/from-env.db")
	t.Setenv("UNIT_AGENT_ID", "agent-1")
	t.Setenv("UNIT_CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":4000", cfg.Server.Listen)
	assert.Equal(t, "/tmp/from-env.db", cfg.Server.DBPath)
	assert.Equal(t, "agent-1", cfg.Client.AgentID)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Client.AgentID = "3b7c"
	cfg.Client.PollInterval = 750 * time.Millisecond
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "3b7c", loaded.Client.AgentID)
	assert.Equal(t, 750*time.Millisecond, loaded.Client.PollInterval)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	Server{LogLevel: "warn", LogFormat: "text"}.NewLogger(&buf).Info("hidden")
	assert.Empty(t, buf.String())

	Server{LogLevel: "bogus"}.NewLogger(&buf).Info("shown", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
