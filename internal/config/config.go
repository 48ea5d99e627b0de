// Package config provides environment-driven configuration for the graph builder.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/citadelrisk/graphbuilder/internal/db"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

const defaultBatchSize = 500

// Config holds all application configuration values.
type Config struct {
	DatabaseDriver string
	DatabaseURL    Secret
	DBMaxConns     int

	Port        string
	MetricsPort string
	ListenHost  string
	CORSOrigins []string
	APIKeys     Secret

	LogLevel  string
	LogFormat string

	ConnectorsFile      string
	LookupBatchSize     int
	LookupTimeout       time.Duration
	LookupRetries       int
	LookupRetryInterval time.Duration
	TraversalConcurrent bool
	DotBinary           string

	RunRetentionDays int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseDriver: envOrDefault("DATABASE_DRIVER", db.DriverPostgres),
		DatabaseURL:    Secret(envOrDefault("DATABASE_URL", "")),
		Port:           envOrDefault("PORT", "3040"),
		MetricsPort:    envOrDefault("METRICS_PORT", "9091"),
		ListenHost:     envOrDefault("LISTEN_HOST", "127.0.0.1"),
		APIKeys:        Secret(envOrDefault("API_KEYS", "")),
		LogLevel:       envOrDefault("LOG_LEVEL", "info"),
		LogFormat:      envOrDefault("LOG_FORMAT", "text"),
		ConnectorsFile: envOrDefault("CONNECTORS_FILE", ""),
		DotBinary:      envOrDefault("DOT_BINARY", "dot"),
	}

	var err error

	if cfg.DBMaxConns, err = envInt("DB_MAX_CONNS", 16, 1, 256); err != nil {
		return nil, err
	}

	if cfg.LookupBatchSize, err = envInt("LOOKUP_BATCH_SIZE", defaultBatchSize, 1, 10000); err != nil {
		return nil, err
	}

	if cfg.LookupRetries, err = envInt("LOOKUP_RETRIES", 0, 0, 10); err != nil {
		return nil, err
	}

	if cfg.RunRetentionDays, err = envInt("RUN_RETENTION_DAYS", 90, 0, 3650); err != nil {
		return nil, err
	}

	if cfg.LookupTimeout, err = envDuration("LOOKUP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	if cfg.LookupRetryInterval, err = envDuration("LOOKUP_RETRY_INTERVAL", 200*time.Millisecond); err != nil {
		return nil, err
	}

	if cfg.TraversalConcurrent, err = strconv.ParseBool(envOrDefault("TRAVERSAL_CONCURRENT", "true")); err != nil {
		return nil, fmt.Errorf("TRAVERSAL_CONCURRENT must be a boolean: %w", err)
	}

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3002")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the API listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// MetricsAddr returns the metrics listen address in host:port format.
func (c *Config) MetricsAddr() string {
	return c.ListenHost + ":" + c.MetricsPort
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func envInt(key string, fallback, lo, hi int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, lo, hi)
	}

	return v, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration such as 30s", key)
	}

	return d, nil
}
