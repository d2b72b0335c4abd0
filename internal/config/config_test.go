package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable applyEnv reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT",
		"FLATBLOG_ADDR",
		"FLATBLOG_POSTS_FILE",
		"FLATBLOG_EXPORT_DIR",
		"FLATBLOG_LOG_LEVEL",
		"OTEL_EXPORTER_OTLP_ENDPOINT",
		"ENV",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		wantErr  bool
		wantAddr string
	}{
		{
			name:     "valid yaml config",
			filename: "config.yaml",
			content: `
server:
  addr: ":8080"
  read_timeout_seconds: 5
storage:
  posts_file: "data/posts.json"
log:
  level: "debug"
  format: "json"
`,
			wantAddr: ":8080",
		},
		{
			name:     "minimal yaml config with defaults",
			filename: "config.yaml",
			content: `
log:
  level: "warn"
`,
			wantAddr: ":5000",
		},
		{
			name:     "valid toml config",
			filename: "config.toml",
			content: `
[server]
addr = ":9090"

[storage]
posts_file = "posts.json"
`,
			wantAddr: ":9090",
		},
		{
			name:     "invalid yaml",
			filename: "config.yaml",
			content:  `invalid: [yaml`,
			wantErr:  true,
		},
		{
			name:     "invalid toml",
			filename: "config.toml",
			content:  `[server`,
			wantErr:  true,
		},
		{
			name:     "invalid log level",
			filename: "config.yaml",
			content: `
log:
  level: "loud"
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			configPath := writeFile(t, tt.filename, tt.content)

			cfg, err := Load(configPath)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.wantAddr, cfg.Server.Addr)
			assert.NotEmpty(t, cfg.Storage.PostsFile)
			assert.NotEmpty(t, cfg.Log.Format)
			assert.NotNil(t, cfg.Tracing.SampleRatio)
		})
	}
}

func TestLoad_NonExistent(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadOrDefault(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, "posts.json", cfg.Storage.PostsFile)
	assert.Equal(t, filepath.Join("public", "posts"), cfg.Storage.ExportDir)
	assert.True(t, cfg.RateLimitEnabled(), "rate limiting should be enabled by default")
	assert.False(t, cfg.TracingEnabled(), "tracing should be disabled by default")
	assert.Empty(t, cfg.Tracing.Environment)
}

func TestLoadOrDefault_InvalidFile(t *testing.T) {
	clearEnv(t)
	configPath := writeFile(t, "config.yaml", `invalid: [yaml`)

	_, err := LoadOrDefault(configPath)
	assert.Error(t, err, "parse errors must not fall back to defaults")
}

func TestExportDirFollowsPublicDir(t *testing.T) {
	clearEnv(t)
	configPath := writeFile(t, "config.yaml", `
storage:
  public_dir: "static"
`)

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("static", "posts"), cfg.Storage.ExportDir)
}

func TestTracingEnvironmentFromFile(t *testing.T) {
	clearEnv(t)
	configPath := writeFile(t, "config.toml", `
[tracing]
endpoint = "collector:4318"
environment = "staging"
`)

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.True(t, cfg.TracingEnabled())
	assert.Equal(t, "staging", cfg.Tracing.Environment)
}

func TestEnvOverrides(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(*testing.T, *Config)
	}{
		{
			name: "PORT sets addr",
			env:  map[string]string{"PORT": "7000"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, ":7000", c.Server.Addr)
			},
		},
		{
			name: "FLATBLOG_ADDR takes precedence over PORT",
			env:  map[string]string{"PORT": "7000", "FLATBLOG_ADDR": "127.0.0.1:7001"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "127.0.0.1:7001", c.Server.Addr)
			},
		},
		{
			name: "posts file and export dir",
			env:  map[string]string{"FLATBLOG_POSTS_FILE": "other.json", "FLATBLOG_EXPORT_DIR": "out"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "other.json", c.Storage.PostsFile)
				assert.Equal(t, "out", c.Storage.ExportDir)
			},
		},
		{
			name: "log level",
			env:  map[string]string{"FLATBLOG_LOG_LEVEL": "debug"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "debug", c.Log.Level)
			},
		},
		{
			name: "otel endpoint enables tracing",
			env:  map[string]string{"OTEL_EXPORTER_OTLP_ENDPOINT": "collector:4318"},
			check: func(t *testing.T, c *Config) {
				assert.True(t, c.TracingEnabled())
			},
		},
		{
			name: "ENV sets the tracing environment",
			env:  map[string]string{"ENV": "production"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "production", c.Tracing.Environment)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load(writeFile(t, "config.yaml", "server:\n  addr: \":1234\"\n"))
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestValidate_ErrorCases(t *testing.T) {
	clearEnv(t)
	badRatio := 1.5

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "empty addr",
			mutate:  func(c *Config) { c.Server.Addr = "" },
			wantErr: "server.addr",
		},
		{
			name:    "read timeout too high",
			mutate:  func(c *Config) { c.Server.ReadTimeoutSeconds = 601 },
			wantErr: "read_timeout_seconds",
		},
		{
			name:    "write timeout too low",
			mutate:  func(c *Config) { c.Server.WriteTimeoutSeconds = 0 },
			wantErr: "write_timeout_seconds",
		},
		{
			name:    "negative rate",
			mutate:  func(c *Config) { c.Server.RateLimit.RequestsPerSecond = -1 },
			wantErr: "requests_per_second",
		},
		{
			name:    "zero burst with rate limiting",
			mutate:  func(c *Config) { c.Server.RateLimit.Burst = 0 },
			wantErr: "burst",
		},
		{
			name: "zero burst with rate limiting disabled",
			mutate: func(c *Config) {
				c.Server.RateLimit.Disabled = true
				c.Server.RateLimit.Burst = 0
			},
		},
		{
			name:    "empty posts file",
			mutate:  func(c *Config) { c.Storage.PostsFile = "" },
			wantErr: "posts_file",
		},
		{
			name:    "posts file is a directory",
			mutate:  func(c *Config) { c.Storage.PostsFile = t.TempDir() },
			wantErr: "is a directory",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log.format",
		},
		{
			name:    "sample ratio out of range",
			mutate:  func(c *Config) { c.Tracing.SampleRatio = &badRatio },
			wantErr: "sample_ratio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
