package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clubhouse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval())
	assert.Equal(t, 10*time.Minute, cfg.RefreshWindow())
	assert.Zero(t, cfg.DigestInterval())
	assert.True(t, cfg.LocalLoginEnabled())
	assert.False(t, cfg.GoogleEnabled())
	assert.False(t, cfg.Server.TrustProxy, "forwarded headers are ignored by default")
	assert.Equal(t, 200*time.Millisecond, cfg.SlowRequest())
	assert.Equal(t, 500*time.Millisecond, cfg.SlowFileCall())
	assert.Equal(t, 50*time.Millisecond, cfg.SlowQuery())
}

func TestLoad_MissingFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server, cfg.Server)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
  allowed_origins: ["https://club.example"]
storage:
  backend: postgres
  postgres_dsn: postgres://localhost/clubhouse
  check_revision: true
files:
  athletes: athletes-file
auth:
  refresh_window: 30m
email:
  digest_interval: 168h
logging:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, []string{"https://club.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
	assert.True(t, cfg.Storage.CheckRevision)
	assert.Equal(t, 3, cfg.Storage.MaxAttempts, "unset keys keep their defaults")
	assert.Equal(t, 30*time.Minute, cfg.RefreshWindow())
	assert.Equal(t, 168*time.Hour, cfg.DigestInterval())
	assert.Equal(t, slog.LevelDebug, cfg.Logging.SlogLevel())
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestEnvOverrides(t *testing.T) {
	t.Run("strings and file ids", func(t *testing.T) {
		t.Setenv("CLUBHOUSE_ADDR", ":7000")
		t.Setenv("CLUBHOUSE_FILE_USERS", "users-file")
		t.Setenv("CLUBHOUSE_LOG_FORMAT", "json")
		t.Setenv("CLUBHOUSE_SLOW_QUERY", "5ms")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 5*time.Millisecond, cfg.SlowQuery())
		assert.Equal(t, ":7000", cfg.Server.Addr)
		assert.Equal(t, "users-file", cfg.Files.Users)
		assert.Equal(t, "json", cfg.Logging.Format)
	})

	t.Run("env beats file", func(t *testing.T) {
		path := writeConfig(t, "server:\n  addr: \":9000\"\n")
		t.Setenv("CLUBHOUSE_ADDR", ":7000")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":7000", cfg.Server.Addr)
	})

	t.Run("booleans and lists", func(t *testing.T) {
		t.Setenv("CLUBHOUSE_LOCAL_LOGIN", "false")
		t.Setenv("CLUBHOUSE_CHECK_REVISION", "1")
		t.Setenv("CLUBHOUSE_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
		t.Setenv("CLUBHOUSE_RATE_LIMIT", "25")
		t.Setenv("CLUBHOUSE_TRUST_PROXY", "true")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.True(t, cfg.Server.TrustProxy)
		assert.False(t, cfg.Server.LocalLogin)
		assert.True(t, cfg.Storage.CheckRevision)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
		assert.Equal(t, 25, cfg.Server.RateLimit)
	})

	t.Run("bad boolean", func(t *testing.T) {
		t.Setenv("CLUBHOUSE_SECURE_COOKIES", "maybe")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CLUBHOUSE_SECURE_COOKIES")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
		errText string
	}{
		{"defaults", func(*Config) {}, nil, ""},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "s3" }, ErrUnknownBackend, ""},
		{"backend is case-insensitive", func(c *Config) { c.Storage.Backend = " Memory " }, nil, ""},
		{"drive without client", func(c *Config) { c.Storage.Backend = BackendDrive }, ErrNoGoogleClient, ""},
		{"postgres without dsn", func(c *Config) { c.Storage.Backend = BackendPostgres }, ErrNoPostgresDSN, ""},
		{"firestore without project", func(c *Config) { c.Storage.Backend = BackendFirestore }, ErrNoFirestore, ""},
		{"short csrf key", func(c *Config) { c.Server.CSRFKey = "abcd" }, ErrBadCSRFKey, ""},
		{"good csrf key", func(c *Config) { c.Server.CSRFKey = strings.Repeat("ab", 32) }, nil, ""},
		{"bad duration", func(c *Config) { c.Auth.RefreshInterval = "soon" }, nil, "auth.refresh_interval"},
		{"negative duration", func(c *Config) { c.Email.DigestInterval = "-1h" }, nil, "email.digest_interval"},
		{"bad slow threshold", func(c *Config) { c.Storage.SlowFileCall = "fast" }, nil, "storage.slow_file_call"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestFileIDs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Files.Plans = "custom-plans"

	ids := cfg.FileIDs()
	assert.Equal(t, "athletes", ids.Athletes)
	assert.Equal(t, "custom-plans", ids.Plans)

	cfg.Storage.Backend = BackendDrive
	ids = cfg.FileIDs()
	assert.Empty(t, ids.Athletes, "drive ids are never guessed")
	assert.Equal(t, "custom-plans", ids.Plans)
	assert.False(t, cfg.LocalLoginEnabled())
}

func TestLoggingHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(LoggingConfig{Level: "warn", Format: "json"}.Handler(&buf))
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
}
