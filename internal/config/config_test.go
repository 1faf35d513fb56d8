package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "namegrouper", cfg.Name)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "_", cfg.Grouping.DefaultDelimiter)
	assert.Equal(t, "prefix", cfg.Grouping.DefaultStrategy)
	assert.Equal(t, 1, cfg.Grouping.MoveRetries)
	assert.Equal(t, "data/namegrouper.db", cfg.Storage.DatabasePath)
	assert.True(t, cfg.Logging.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/namegrouper.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.Port, cfg.Server.Port)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
server:
  host: 127.0.0.1
  port: 9090
  base_url: https://groups.example.com
storage:
  database_path: /var/lib/namegrouper/tasks.db
grouping:
  default_delimiter: "-"
  default_strategy: trie
  move_retries: 3
logging:
  enabled: false
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://groups.example.com", cfg.Server.BaseURL)
	assert.Equal(t, "/var/lib/namegrouper/tasks.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "-", cfg.Grouping.DefaultDelimiter)
	assert.Equal(t, "trie", cfg.Grouping.DefaultStrategy)
	assert.Equal(t, 3, cfg.Grouping.MoveRetries)
	assert.False(t, cfg.Logging.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched sections keep their defaults
	assert.Equal(t, "15s", cfg.Server.ReadTimeout)
	assert.Equal(t, "namegrouper", cfg.Name)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.Port = 8080
	cfg.Grouping.DefaultDelimiter = "-"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, loaded.Server.Port)
	assert.Equal(t, "-", loaded.Grouping.DefaultDelimiter)
}

func TestAddress(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 8000
	assert.Equal(t, "localhost:8000", cfg.Address())
}

func TestDurationGetters(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 15*time.Second, cfg.GetReadTimeout())
	assert.Equal(t, 15*time.Second, cfg.GetWriteTimeout())
	assert.Equal(t, 10*time.Second, cfg.GetShutdownTimeout())

	cfg.Server.ReadTimeout = "2m"
	assert.Equal(t, 2*time.Minute, cfg.GetReadTimeout())

	// Unparseable values fall back to the defaults
	cfg.Server.ReadTimeout = "soon"
	cfg.Server.ShutdownTimeout = "eventually"
	assert.Equal(t, 15*time.Second, cfg.GetReadTimeout())
	assert.Equal(t, 10*time.Second, cfg.GetShutdownTimeout())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Storage.DatabasePath = "" },
			wantErr: "database_path",
		},
		{
			name:    "multi-character delimiter",
			mutate:  func(c *Config) { c.Grouping.DefaultDelimiter = "--" },
			wantErr: "default_delimiter",
		},
		{
			name:    "unknown strategy",
			mutate:  func(c *Config) { c.Grouping.DefaultStrategy = "suffix" },
			wantErr: "invalid default_strategy",
		},
		{
			name:    "negative move retries",
			mutate:  func(c *Config) { c.Grouping.MoveRetries = -1 },
			wantErr: "move_retries",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid logging level",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid logging format",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}
