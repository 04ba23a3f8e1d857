package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "data/post-review.db", cfg.Database.Path)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.False(t, cfg.Workflow.StrictTransitions)
	assert.Equal(t, 30*time.Minute, cfg.Workflow.CacheExpiry)
	assert.True(t, cfg.Events.WebsocketEnabled)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: 9090
  read_timeout: 5s
database:
  path: /tmp/review.db
logger:
  level: debug
  format: console
workflow:
  strict_transitions: true
  cache_expiry: 2m
events:
  websocket_enabled: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "/tmp/review.db", cfg.Database.Path)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.True(t, cfg.Workflow.StrictTransitions)
	assert.Equal(t, 2*time.Minute, cfg.Workflow.CacheExpiry)
	assert.False(t, cfg.Events.WebsocketEnabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("POST_REVIEW_WORKFLOW_STRICT_TRANSITIONS", "true")
	t.Setenv("POST_REVIEW_LOGGER_LEVEL", "warn")
	t.Setenv("PORT", "7000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Workflow.StrictTransitions)
	assert.Equal(t, "warn", cfg.Logger.Level)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestLoad_PrefixedPortWins(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("POST_REVIEW_SERVER_PORT", "7100")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.Server.Port)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "logger:\n  level: loud\n")
		_, err := Load(path)
		assert.ErrorContains(t, err, "logger.level")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Path: "x.db"},
			Logger:   LoggerConfig{Level: "info", Format: "json"},
			Workflow: WorkflowConfig{CacheExpiry: time.Minute},
			Events:   EventsConfig{WebsocketEnabled: true, SendBufferSize: 1},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"bad format", func(c *Config) { c.Logger.Format = "xml" }},
		{"zero cache expiry", func(c *Config) { c.Workflow.CacheExpiry = 0 }},
		{"zero send buffer", func(c *Config) { c.Events.SendBufferSize = 0 }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "POST_REVIEW_TEST_DOTENV=loaded\n")
	t.Cleanup(func() { os.Unsetenv("POST_REVIEW_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), path))
	assert.Equal(t, "loaded", os.Getenv("POST_REVIEW_TEST_DOTENV"))
}

func TestAdapters(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cc := cfg.ToContainerConfig()
	require.NoError(t, cc.Validate())
	assert.Equal(t, cfg.Database.Path, cc.Database.Path)
	assert.Equal(t, cfg.Workflow.CacheExpiry, cc.Workflow.CacheExpiry)
	assert.Equal(t, cfg.Events.SendBufferSize, cc.Events.SendBufferSize)

	assert.Equal(t, cfg.Server.Port, cfg.ToServerConfig().Port)
	assert.Equal(t, cfg.Logger.Level, cfg.ToLoggerConfig().Level)
}
