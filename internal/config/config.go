// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
// Label styling lives in the YAML settings file, not here.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"labelpress/internal/settings"
	"labelpress/internal/store"
)

// Label storage backends.
const (
	BackendCSV      = "csv"
	BackendPostgres = "postgres"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// DataDir holds label_config.yaml and binder_labels.csv.
	DataDir string

	// Backend selects where labels are stored: "csv" or "postgres".
	Backend string

	// PostgreSQL connection, used when Backend is "postgres".
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// PDF rendering
	ChromePath      string
	ChromeNoSandbox bool
	PDFTimeout      time.Duration
	// PDFRateLimit is the number of PDF requests a client may make per minute.
	PDFRateLimit int
	// TrustProxy keys the rate limiter by X-Forwarded-For.
	TrustProxy bool

	// CORSOrigins lists the origins allowed to call /api.
	CORSOrigins []string

	LogLevel slog.Level
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if a value cannot be
// parsed or critical values are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "127.0.0.1"),
		Port: envOrDefault("APP_PORT", "5000"),
		Env:  envOrDefault("APP_ENV", "development"),

		DataDir: envOrDefault("DATA_DIR", "data"),
		Backend: strings.ToLower(envOrDefault("LABEL_BACKEND", BackendCSV)),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "labelpress"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "labelpress"),

		ChromePath: os.Getenv("CHROME_PATH"),

		CORSOrigins: splitList(envOrDefault("CORS_ORIGINS", "http://localhost:5000,http://127.0.0.1:5000")),
	}

	var err error
	if cfg.ChromeNoSandbox, err = envBool("CHROME_NO_SANDBOX", false); err != nil {
		return nil, err
	}
	if cfg.PDFTimeout, err = envDuration("PDF_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.PDFRateLimit, err = envInt("PDF_RATE_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.TrustProxy, err = envBool("TRUST_PROXY", false); err != nil {
		return nil, err
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(envOrDefault("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	switch cfg.Backend {
	case BackendCSV, BackendPostgres:
	default:
		return nil, fmt.Errorf("LABEL_BACKEND must be %q or %q, got %q", BackendCSV, BackendPostgres, cfg.Backend)
	}

	if cfg.Env == "production" && cfg.Backend == BackendPostgres {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// SettingsPath returns the path of the YAML style configuration.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.DataDir, settings.FileName)
}

// LabelsPath returns the path of the CSV label file.
func (c *Config) LabelsPath() string {
	return filepath.Join(c.DataDir, store.LabelsFileName)
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

// splitList splits a comma-separated list, dropping blank entries.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
