// Package config loads the server configuration: defaults, an optional YAML
// file, a .env file and CLUBHOUSE_* environment overrides, in that order.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendDrive     = "drive"
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
)

// Backends lists every supported storage backend.
var Backends = []string{BackendDrive, BackendSQLite, BackendPostgres, BackendFirestore, BackendMemory}

// PathEnv names the variable holding the YAML config path.
const PathEnv = "CLUBHOUSE_CONFIG"

var (
	ErrUnknownBackend = errors.New("unknown storage backend")
	ErrBadCSRFKey     = errors.New("csrf_key must be 64 hex characters")
	ErrNoGoogleClient = errors.New("the drive backend needs auth.google_client_id and auth.google_client_secret")
	ErrNoPostgresDSN  = errors.New("the postgres backend needs storage.postgres_dsn")
	ErrNoFirestore    = errors.New("the firestore backend needs storage.firestore_project")
)

// Config is the whole server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Files   FilesConfig   `yaml:"files"`
	Auth    AuthConfig    `yaml:"auth"`
	Email   EmailConfig   `yaml:"email"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener and its security middleware.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	StaticDir       string   `yaml:"static_dir"`
	SecureCookies   bool     `yaml:"secure_cookies"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	CSRFKey         string   `yaml:"csrf_key"` // hex, 32 bytes
	LocalLogin      bool     `yaml:"local_login"`
	RateLimit       int      `yaml:"rate_limit"` // requests per second per IP
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
	Perf            bool     `yaml:"perf"`
	SlowRequest     string   `yaml:"slow_request"` // warn threshold
	// TrustProxy takes the client IP from X-Forwarded-For and X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy bool `yaml:"trust_proxy"`
}

// StorageConfig selects and configures the file backend.
type StorageConfig struct {
	Backend             string `yaml:"backend"`
	CheckRevision       bool   `yaml:"check_revision"`
	MaxAttempts         int    `yaml:"max_attempts"`
	SQLitePath          string `yaml:"sqlite_path"`
	PostgresDSN         string `yaml:"postgres_dsn"`
	FirestoreProject    string `yaml:"firestore_project"`
	FirestoreCollection string `yaml:"firestore_collection"`
	DriveFolderID       string `yaml:"drive_folder_id"`
	SlowFileCall        string `yaml:"slow_file_call"`
	SlowQuery           string `yaml:"slow_query"`
}

// FilesConfig holds the file identifier of each document.
type FilesConfig struct {
	Athletes   string `yaml:"athletes"`
	Attendance string `yaml:"attendance"`
	Plans      string `yaml:"plans"`
	Logs       string `yaml:"logs"`
	Exercises  string `yaml:"exercises"`
	Users      string `yaml:"users"`
}

// AuthConfig configures sign-in and token refresh.
type AuthConfig struct {
	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	RedirectURL        string `yaml:"redirect_url"`
	RefreshInterval    string `yaml:"refresh_interval"`
	RefreshWindow      string `yaml:"refresh_window"`
	AdminEmail         string `yaml:"admin_email"`
	AdminPassword      string `yaml:"admin_password"`
}

// EmailConfig configures outgoing mail and the digest schedule.
type EmailConfig struct {
	ResendKey      string `yaml:"resend_key"`
	From           string `yaml:"from"`
	DigestInterval string `yaml:"digest_interval"` // empty disables the digest worker
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			StaticDir:       "static",
			LocalLogin:      true,
			RateLimit:       10,
			ShutdownTimeout: "15s",
			Perf:            true,
			SlowRequest:     "200ms",
		},
		Storage: StorageConfig{
			Backend:             BackendSQLite,
			MaxAttempts:         3,
			SQLitePath:          "clubhouse.db",
			FirestoreCollection: "clubhouseFiles",
			SlowFileCall:        "500ms",
			SlowQuery:           "50ms",
		},
		Auth: AuthConfig{
			RefreshInterval: "5m",
			RefreshWindow:   "10m",
		},
		Email: EmailConfig{
			From: "Clubhouse <digest@clubhouse.example>",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// FromEnvironment loads .env if present, then the YAML file named by
// CLUBHOUSE_CONFIG, then environment overrides.
func FromEnvironment() (*Config, error) {
	_ = godotenv.Load()
	return Load(os.Getenv(PathEnv))
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. An empty path or a missing file leaves the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides copies CLUBHOUSE_* variables over the loaded values.
func (c *Config) applyEnvOverrides() error {
	strs := []struct {
		key string
		dst *string
	}{
		{"CLUBHOUSE_ADDR", &c.Server.Addr},
		{"CLUBHOUSE_STATIC_DIR", &c.Server.StaticDir},
		{"CLUBHOUSE_CSRF_KEY", &c.Server.CSRFKey},
		{"CLUBHOUSE_SLOW_REQUEST", &c.Server.SlowRequest},
		{"CLUBHOUSE_STORAGE", &c.Storage.Backend},
		{"CLUBHOUSE_SQLITE_PATH", &c.Storage.SQLitePath},
		{"CLUBHOUSE_POSTGRES_DSN", &c.Storage.PostgresDSN},
		{"CLUBHOUSE_FIRESTORE_PROJECT", &c.Storage.FirestoreProject},
		{"CLUBHOUSE_FIRESTORE_COLLECTION", &c.Storage.FirestoreCollection},
		{"CLUBHOUSE_DRIVE_FOLDER", &c.Storage.DriveFolderID},
		{"CLUBHOUSE_SLOW_FILE_CALL", &c.Storage.SlowFileCall},
		{"CLUBHOUSE_SLOW_QUERY", &c.Storage.SlowQuery},
		{"CLUBHOUSE_FILE_ATHLETES", &c.Files.Athletes},
		{"CLUBHOUSE_FILE_ATTENDANCE", &c.Files.Attendance},
		{"CLUBHOUSE_FILE_PLANS", &c.Files.Plans},
		{"CLUBHOUSE_FILE_LOGS", &c.Files.Logs},
		{"CLUBHOUSE_FILE_EXERCISES", &c.Files.Exercises},
		{"CLUBHOUSE_FILE_USERS", &c.Files.Users},
		{"CLUBHOUSE_GOOGLE_CLIENT_ID", &c.Auth.GoogleClientID},
		{"CLUBHOUSE_GOOGLE_CLIENT_SECRET", &c.Auth.GoogleClientSecret},
		{"CLUBHOUSE_GOOGLE_REDIRECT_URL", &c.Auth.RedirectURL},
		{"CLUBHOUSE_ADMIN_EMAIL", &c.Auth.AdminEmail},
		{"CLUBHOUSE_ADMIN_PASSWORD", &c.Auth.AdminPassword},
		{"CLUBHOUSE_RESEND_KEY", &c.Email.ResendKey},
		{"CLUBHOUSE_EMAIL_FROM", &c.Email.From},
		{"CLUBHOUSE_DIGEST_INTERVAL", &c.Email.DigestInterval},
		{"CLUBHOUSE_LOG_LEVEL", &c.Logging.Level},
		{"CLUBHOUSE_LOG_FORMAT", &c.Logging.Format},
	}
	for _, s := range strs {
		if v := os.Getenv(s.key); v != "" {
			*s.dst = v
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"CLUBHOUSE_SECURE_COOKIES", &c.Server.SecureCookies},
		{"CLUBHOUSE_LOCAL_LOGIN", &c.Server.LocalLogin},
		{"CLUBHOUSE_PERF", &c.Server.Perf},
		{"CLUBHOUSE_TRUST_PROXY", &c.Server.TrustProxy},
		{"CLUBHOUSE_CHECK_REVISION", &c.Storage.CheckRevision},
	}
	for _, b := range bools {
		v := os.Getenv(b.key)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", b.key, err)
		}
		*b.dst = parsed
	}

	if v := os.Getenv("CLUBHOUSE_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CLUBHOUSE_RATE_LIMIT: %w", err)
		}
		c.Server.RateLimit = n
	}
	if v := os.Getenv("CLUBHOUSE_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate reports the first configuration problem that would stop the
// server from starting. Missing file IDs are not checked here; they fail the
// requests that need them.
func (c *Config) Validate() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if !slices.Contains(Backends, c.Storage.Backend) {
		return fmt.Errorf("%w %q", ErrUnknownBackend, c.Storage.Backend)
	}
	if c.Server.CSRFKey != "" {
		if _, err := c.CSRFKeyBytes(); err != nil {
			return err
		}
	}
	for name, v := range map[string]string{
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"server.slow_request":     c.Server.SlowRequest,
		"storage.slow_file_call":  c.Storage.SlowFileCall,
		"storage.slow_query":      c.Storage.SlowQuery,
		"auth.refresh_interval":   c.Auth.RefreshInterval,
		"auth.refresh_window":     c.Auth.RefreshWindow,
		"email.digest_interval":   c.Email.DigestInterval,
	} {
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			return fmt.Errorf("%s: invalid duration %q", name, v)
		}
	}

	switch c.Storage.Backend {
	case BackendDrive:
		if c.Auth.GoogleClientID == "" || c.Auth.GoogleClientSecret == "" {
			return ErrNoGoogleClient
		}
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return ErrNoPostgresDSN
		}
	case BackendFirestore:
		if c.Storage.FirestoreProject == "" {
			return ErrNoFirestore
		}
	}
	return nil
}

// SelfHosted reports whether documents live in a backend this server owns,
// where file IDs default to document names and files are created at start.
func (c *Config) SelfHosted() bool {
	return c.Storage.Backend != BackendDrive
}

// FileIDs returns the configured file identifiers. On self-hosted backends an
// unset identifier defaults to the document name.
func (c *Config) FileIDs() FilesConfig {
	f := c.Files
	if !c.SelfHosted() {
		return f
	}
	for _, p := range []struct {
		dst  *string
		name string
	}{
		{&f.Athletes, "athletes"},
		{&f.Attendance, "attendance"},
		{&f.Plans, "plans"},
		{&f.Logs, "logs"},
		{&f.Exercises, "exercises"},
		{&f.Users, "users"},
	} {
		if *p.dst == "" {
			*p.dst = p.name
		}
	}
	return f
}

// LocalLoginEnabled reports whether email/password sign-in is offered.
// Drive documents are read with the user's Google token, so the drive backend
// always signs in through Google.
func (c *Config) LocalLoginEnabled() bool {
	return c.Server.LocalLogin && c.SelfHosted()
}

// GoogleEnabled reports whether a Google OAuth client is configured.
func (c *Config) GoogleEnabled() bool {
	return c.Auth.GoogleClientID != "" && c.Auth.GoogleClientSecret != ""
}

// CSRFKeyBytes decodes the CSRF key. An empty key returns nil.
func (c *Config) CSRFKeyBytes() ([]byte, error) {
	if c.Server.CSRFKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.Server.CSRFKey)
	if err != nil || len(key) != 32 {
		return nil, ErrBadCSRFKey
	}
	return key, nil
}

// ShutdownTimeout returns how long graceful shutdown may take.
func (c *Config) ShutdownTimeout() time.Duration {
	return duration(c.Server.ShutdownTimeout, 15*time.Second)
}

// RefreshInterval returns how often session tokens are checked.
func (c *Config) RefreshInterval() time.Duration {
	return duration(c.Auth.RefreshInterval, 5*time.Minute)
}

// RefreshWindow returns how close to expiry a token is refreshed.
func (c *Config) RefreshWindow() time.Duration {
	return duration(c.Auth.RefreshWindow, 10*time.Minute)
}

// DigestInterval returns the digest worker period, 0 when disabled.
func (c *Config) DigestInterval() time.Duration {
	return duration(c.Email.DigestInterval, 0)
}

// SlowRequest returns the latency above which a request is logged as slow.
func (c *Config) SlowRequest() time.Duration {
	return duration(c.Server.SlowRequest, 200*time.Millisecond)
}

// SlowFileCall returns the latency above which a file backend call is logged
// as slow.
func (c *Config) SlowFileCall() time.Duration {
	return duration(c.Storage.SlowFileCall, 500*time.Millisecond)
}

// SlowQuery returns the latency above which a SQLite statement is logged as
// slow.
func (c *Config) SlowQuery() time.Duration {
	return duration(c.Storage.SlowQuery, 50*time.Millisecond)
}

func duration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
