// Package config resolves the service configuration.
//
// Precedence, highest first: command-line flags bound by cmd/server, process
// environment, .env files, built-in defaults. .env files never override a
// variable that is already set in the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Keys as viper sees them. AutomaticEnv upper-cases them, so "database_url"
// reads DATABASE_URL.
const (
	KeyPort            = "port"
	KeyDatabaseURL     = "database_url"
	KeyDBPath          = "db_path"
	KeyCurrentUserID   = "current_user_id"
	KeyLogLevel        = "log_level"
	KeyLogFormat       = "log_format"
	KeyCORSOrigins     = "cors_origins"
	KeySeedOnStart     = "seed_on_start"
	KeyShutdownTimeout = "shutdown_timeout"
)

// Config is the resolved configuration.
type Config struct {
	Port            int
	DatabaseURL     string // postgres://, postgresql://, sqlite:// or file: target; empty means DBPath
	DBPath          string
	CurrentUserID   int64 // the fixed actor every favorites call runs as
	LogLevel        slog.Level
	LogFormat       string // text or json
	CORSOrigins     []string
	SeedOnStart     bool
	ShutdownTimeout time.Duration
}

// LoadEnvFiles loads the given .env files, skipping any that don't exist.
// Earlier files win over later ones, and the real environment wins over both.
func LoadEnvFiles(files ...string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// NewViper returns a viper instance with defaults set and environment lookup
// enabled. Callers may bind flags onto it before calling FromViper.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyPort, 3000)
	v.SetDefault(KeyDatabaseURL, "")
	v.SetDefault(KeyDBPath, "data/starwars.db")
	v.SetDefault(KeyCurrentUserID, 1)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyCORSOrigins, "*")
	v.SetDefault(KeySeedOnStart, true)
	v.SetDefault(KeyShutdownTimeout, "30s")
	v.AutomaticEnv()
	return v
}

// Load reads .env and .env.local, then resolves the configuration from the
// environment and defaults.
func Load() (*Config, error) {
	LoadEnvFiles(".env", ".env.local")
	return FromViper(NewViper())
}

// FromViper validates and converts the raw values held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabaseURL: strings.TrimSpace(v.GetString(KeyDatabaseURL)),
		DBPath:      strings.TrimSpace(v.GetString(KeyDBPath)),
		LogFormat:   strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat))),
		CORSOrigins: splitList(v.GetString(KeyCORSOrigins)),
	}

	// viper's GetInt turns "abc" into 0 without complaint, so numbers are
	// parsed from their string form.
	port, err := strconv.Atoi(strings.TrimSpace(v.GetString(KeyPort)))
	if err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("config: PORT must be a number between 1 and 65535, got %q", v.GetString(KeyPort))
	}
	cfg.Port = port

	userID, err := strconv.ParseInt(strings.TrimSpace(v.GetString(KeyCurrentUserID)), 10, 64)
	if err != nil || userID < 1 {
		return nil, fmt.Errorf("config: CURRENT_USER_ID must be a positive integer, got %q", v.GetString(KeyCurrentUserID))
	}
	cfg.CurrentUserID = userID

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString(KeyLogLevel))); err != nil {
		return nil, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("config: LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	seed, err := strconv.ParseBool(strings.TrimSpace(v.GetString(KeySeedOnStart)))
	if err != nil {
		return nil, fmt.Errorf("config: SEED_ON_START must be a boolean, got %q", v.GetString(KeySeedOnStart))
	}
	cfg.SeedOnStart = seed

	timeout, err := time.ParseDuration(strings.TrimSpace(v.GetString(KeyShutdownTimeout)))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("config: SHUTDOWN_TIMEOUT must be a positive duration, got %q", v.GetString(KeyShutdownTimeout))
	}
	cfg.ShutdownTimeout = timeout

	if cfg.DatabaseURL == "" && cfg.DBPath == "" {
		return nil, fmt.Errorf("config: one of DATABASE_URL or DB_PATH is required")
	}

	return cfg, nil
}

// NewLogger builds the process logger described by the config.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
