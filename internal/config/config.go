// Package config provides configuration management for the flatblog server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Storage StorageConfig `yaml:"storage" toml:"storage"`
	Log     LogConfig     `yaml:"log" toml:"log"`
	Tracing TracingConfig `yaml:"tracing" toml:"tracing"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr                string          `yaml:"addr" toml:"addr"`
	ReadTimeoutSeconds  int             `yaml:"read_timeout_seconds" toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int             `yaml:"write_timeout_seconds" toml:"write_timeout_seconds"`
	RateLimit           RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
}

// RateLimitConfig limits mutating requests.
type RateLimitConfig struct {
	Disabled          bool    `yaml:"disabled" toml:"disabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int     `yaml:"burst" toml:"burst"`
}

// StorageConfig locates the posts file and the directories served to clients.
type StorageConfig struct {
	PostsFile string `yaml:"posts_file" toml:"posts_file"`
	PublicDir string `yaml:"public_dir" toml:"public_dir"`
	ExportDir string `yaml:"export_dir" toml:"export_dir"` // Defaults to <public_dir>/posts
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // text or json
}

// TracingConfig configures OTLP trace export. An empty endpoint disables it.
type TracingConfig struct {
	Endpoint    string   `yaml:"endpoint" toml:"endpoint"`
	ServiceName string   `yaml:"service_name" toml:"service_name"`
	Environment string   `yaml:"environment" toml:"environment"`   // deployment.environment resource attribute
	SampleRatio *float64 `yaml:"sample_ratio" toml:"sample_ratio"` // pointer to distinguish unset from 0
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var config Config
	config.applyDefaults()
	config.applyEnv()
	return &config
}

// Load reads and parses a configuration file from the specified path.
// Files ending in .toml are parsed as TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	// #nosec G304 -- path is provided by user as configuration file path
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	config.applyDefaults()
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault loads path, falling back to defaults when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		return cfg, cfg.Validate()
	}
	return cfg, err
}

func (c *Config) applyDefaults() {
	// Server
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 10
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 10
	}
	if c.Server.RateLimit.RequestsPerSecond == 0 && c.Server.RateLimit.Burst == 0 {
		c.Server.RateLimit.RequestsPerSecond = 20
		c.Server.RateLimit.Burst = 40
	}

	// Storage
	if c.Storage.PostsFile == "" {
		c.Storage.PostsFile = "posts.json"
	}
	if c.Storage.PublicDir == "" {
		c.Storage.PublicDir = "public"
	}
	if c.Storage.ExportDir == "" {
		c.Storage.ExportDir = filepath.Join(c.Storage.PublicDir, "posts")
	}

	// Logging
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Tracing
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "flatblog"
	}
	if c.Tracing.SampleRatio == nil {
		defaultRatio := 1.0
		c.Tracing.SampleRatio = &defaultRatio
	}
}

// applyEnv overrides file values with environment variables (env vars take precedence).
func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if addr := os.Getenv("FLATBLOG_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if postsFile := os.Getenv("FLATBLOG_POSTS_FILE"); postsFile != "" {
		c.Storage.PostsFile = postsFile
	}
	if exportDir := os.Getenv("FLATBLOG_EXPORT_DIR"); exportDir != "" {
		c.Storage.ExportDir = exportDir
	}
	if level := os.Getenv("FLATBLOG_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		c.Tracing.Endpoint = endpoint
	}
	if env := os.Getenv("ENV"); env != "" {
		c.Tracing.Environment = env
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	// Validate server settings
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}
	if c.Server.ReadTimeoutSeconds < 1 || c.Server.ReadTimeoutSeconds > 600 {
		return fmt.Errorf("server.read_timeout_seconds must be between 1 and 600, got %d", c.Server.ReadTimeoutSeconds)
	}
	if c.Server.WriteTimeoutSeconds < 1 || c.Server.WriteTimeoutSeconds > 600 {
		return fmt.Errorf("server.write_timeout_seconds must be between 1 and 600, got %d", c.Server.WriteTimeoutSeconds)
	}
	if c.Server.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("server.rate_limit.requests_per_second cannot be negative, got %.2f", c.Server.RateLimit.RequestsPerSecond)
	}
	if c.RateLimitEnabled() && c.Server.RateLimit.Burst < 1 {
		return fmt.Errorf("server.rate_limit.burst must be at least 1 when rate limiting is enabled, got %d", c.Server.RateLimit.Burst)
	}

	// Validate storage paths
	if c.Storage.PostsFile == "" {
		return fmt.Errorf("storage.posts_file cannot be empty")
	}
	if info, err := os.Stat(c.Storage.PostsFile); err == nil && info.IsDir() {
		return fmt.Errorf("storage.posts_file is a directory: %s", c.Storage.PostsFile)
	}

	// Validate logging
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	// Validate tracing
	if c.Tracing.SampleRatio != nil && (*c.Tracing.SampleRatio < 0 || *c.Tracing.SampleRatio > 1.0) {
		return fmt.Errorf("tracing.sample_ratio must be between 0.0 and 1.0, got %.2f", *c.Tracing.SampleRatio)
	}

	return nil
}

// RateLimitEnabled reports whether mutating requests are rate limited.
func (c *Config) RateLimitEnabled() bool {
	return !c.Server.RateLimit.Disabled && c.Server.RateLimit.RequestsPerSecond > 0
}

// TracingEnabled reports whether an OTLP endpoint is configured.
func (c *Config) TracingEnabled() bool {
	return c.Tracing.Endpoint != ""
}
