package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"

	"github.com/lovstudio/lovcode/backend/internal/shared/paths"
)

// FileEnvVar names the environment variable pointing at an optional config file.
const FileEnvVar = "LOVCODE_CONFIG"

// Config holds all application configuration.
//
// Precedence, lowest first: Default(), the optional config file, environment
// variables. CLI flags in cmd/server are applied last.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
	Workspace WorkspaceConfig `yaml:"workspace" toml:"workspace"`
	Terminal  TerminalConfig  `yaml:"terminal" toml:"terminal"`
	Stream    StreamConfig    `yaml:"stream" toml:"stream"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" yaml:"port" toml:"port"`
	Host string `envconfig:"HOST" yaml:"host" toml:"host"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" yaml:"development" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" yaml:"enabled" toml:"enabled"`
}

// WorkspaceConfig holds workspace persistence configuration.
type WorkspaceConfig struct {
	Path string `envconfig:"WORKSPACE_PATH" yaml:"path" toml:"path"`
}

// TerminalConfig holds PTY defaults.
type TerminalConfig struct {
	// Shell overrides $SHELL as the default program. Empty means resolve
	// from the environment at spawn time.
	Shell string `envconfig:"LOVCODE_SHELL" yaml:"shell" toml:"shell"`
	Cols  int    `envconfig:"PTY_COLS" yaml:"cols" toml:"cols"`
	Rows  int    `envconfig:"PTY_ROWS" yaml:"rows" toml:"rows"`
}

// StreamConfig holds event stream configuration.
type StreamConfig struct {
	ClientBuffer int `envconfig:"WS_CLIENT_BUFFER" yaml:"client_buffer" toml:"client_buffer"`
}

// Load builds configuration from defaults, the file named by LOVCODE_CONFIG
// (if any) and environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if file := os.Getenv(FileEnvVar); file != "" {
		if err := cfg.mergeFile(file); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.Workspace.Path = paths.Expand(cfg.Workspace.Path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile builds configuration from defaults overlaid with a single file.
// Environment variables are not consulted.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	cfg.Workspace.Path = paths.Expand(cfg.Workspace.Path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "4317",
			Host: "127.0.0.1",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		// Leaves headroom for keystroke-rate writes from several terminals.
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 200,
			Burst:             400,
			Enabled:           true,
		},
		Workspace: WorkspaceConfig{
			Path: paths.DefaultWorkspacePath(),
		},
		Terminal: TerminalConfig{
			Cols: 80,
			Rows: 24,
		},
		Stream: StreamConfig{
			ClientBuffer: 256,
		},
	}
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("invalid config: server port is required")
	}
	if c.Workspace.Path == "" {
		return fmt.Errorf("invalid config: workspace path is required")
	}
	if c.Terminal.Cols <= 0 || c.Terminal.Rows <= 0 {
		return fmt.Errorf("invalid config: terminal size must be positive, got %dx%d", c.Terminal.Cols, c.Terminal.Rows)
	}
	if c.Stream.ClientBuffer <= 0 {
		return fmt.Errorf("invalid config: stream client buffer must be positive")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("invalid config: rate limit values must be positive")
	}
	return nil
}

// Addr returns host:port for the HTTP listener.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse YAML config %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse TOML config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file extension %q", ext)
	}
	return nil
}
