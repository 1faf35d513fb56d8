// Package config loads and watches the namegrouper configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"namegrouper/internal/words"
)

// Config holds all namegrouper configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// HTTP server
	Server ServerConfig `yaml:"server"`

	// Task persistence
	Storage StorageConfig `yaml:"storage"`

	// Grouping defaults
	Grouping GroupingConfig `yaml:"grouping"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// BaseURL forces the host part of resource URLs in responses. When
	// empty, URLs are derived from the incoming request.
	BaseURL string `yaml:"base_url"`

	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// StorageConfig configures the SQLite task store.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// GroupingConfig configures grouping defaults.
type GroupingConfig struct {
	// DefaultDelimiter is used when a request does not name one.
	DefaultDelimiter string `yaml:"default_delimiter"`

	// DefaultStrategy selects the grouping algorithm: prefix or trie.
	DefaultStrategy string `yaml:"default_strategy"`

	// MoveRetries bounds how often a move request reloads and retries
	// after losing a version race before giving up with a conflict.
	MoveRetries int `yaml:"move_retries"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Enabled    bool            `yaml:"enabled"`
	Directory  string          `yaml:"directory"`
	Level      string          `yaml:"level"`  // debug, info, warn, error
	Format     string          `yaml:"format"` // json, text
	Categories map[string]bool `yaml:"categories"`
	Audit      bool            `yaml:"audit"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "namegrouper",
		Version: "1.0.0",

		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     "15s",
			WriteTimeout:    "15s",
			ShutdownTimeout: "10s",
		},

		Storage: StorageConfig{
			DatabasePath: "data/namegrouper.db",
		},

		Grouping: GroupingConfig{
			DefaultDelimiter: words.DefaultDelimiter,
			DefaultStrategy:  words.StrategyPrefix,
			MoveRetries:      1,
		},

		Logging: LoggingConfig{
			Enabled:   true,
			Directory: "logs",
			Level:     "info",
			Format:    "text",
			Audit:     true,
		},
	}
}

// Load loads configuration from a YAML file. A missing file is not an
// error; defaults plus environment overrides are used instead.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Keep defaults
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if host := os.Getenv("NAMEGROUPER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("NAMEGROUPER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if url := os.Getenv("NAMEGROUPER_BASE_URL"); url != "" {
		c.Server.BaseURL = url
	}

	// Database path from environment
	if path := os.Getenv("NAMEGROUPER_DB"); path != "" {
		c.Storage.DatabasePath = path
	}

	if delimiter := os.Getenv("NAMEGROUPER_DELIMITER"); delimiter != "" {
		c.Grouping.DefaultDelimiter = delimiter
	}
	if strategy := os.Getenv("NAMEGROUPER_STRATEGY"); strategy != "" {
		c.Grouping.DefaultStrategy = strategy
	}

	if level := os.Getenv("NAMEGROUPER_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if dir := os.Getenv("NAMEGROUPER_LOG_DIR"); dir != "" {
		c.Logging.Directory = dir
	}
}

// Address returns the host:port the server listens on.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetReadTimeout returns the server read timeout as a duration.
func (c *Config) GetReadTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ReadTimeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// GetWriteTimeout returns the server write timeout as a duration.
func (c *Config) GetWriteTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.WriteTimeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// GetShutdownTimeout returns the graceful shutdown timeout as a duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// ValidLogLevels lists all supported logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("storage database_path must not be empty")
	}

	if utf8.RuneCountInString(c.Grouping.DefaultDelimiter) > 1 {
		return fmt.Errorf("default_delimiter must be at most one character, got %q", c.Grouping.DefaultDelimiter)
	}

	validStrategy := false
	for _, s := range words.Strategies() {
		if c.Grouping.DefaultStrategy == s {
			validStrategy = true
			break
		}
	}
	if !validStrategy {
		return fmt.Errorf("invalid default_strategy: %s (valid: %v)", c.Grouping.DefaultStrategy, words.Strategies())
	}

	if c.Grouping.MoveRetries < 0 {
		return fmt.Errorf("move_retries must not be negative")
	}

	validLevel := false
	for _, l := range ValidLogLevels {
		if c.Logging.Level == l {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid logging level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid logging format: %s (valid: [json text])", c.Logging.Format)
	}

	return nil
}
