package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"github.com/citadelrisk/graphbuilder/internal/db"
)

func (c *Config) validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateNetwork(); err != nil {
		return err
	}

	if err := c.validateCORS(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	if c.DatabaseURL.Value() == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	switch c.DatabaseDriver {
	case db.DriverPostgres:
		return validatePostgresURL(c.DatabaseURL.Value())
	case db.DriverMySQL:
		if _, err := mysql.ParseDSN(c.DatabaseURL.Value()); err != nil {
			return fmt.Errorf("DATABASE_URL is not a valid mysql DSN: %w", err)
		}
	case db.DriverSQLite:
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres, mysql or sqlite, got %q", c.DatabaseDriver)
	}

	return nil
}

func validatePostgresURL(raw string) error {
	dbURL, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}

	if dbURL.Scheme != "postgres" && dbURL.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL scheme must be postgres:// or postgresql://")
	}

	dbHost := dbURL.Hostname()
	if dbHost == "" {
		return fmt.Errorf("DATABASE_URL must include a host")
	}

	if !isLoopback(dbHost) && dbURL.Query().Get("sslmode") == "disable" {
		return fmt.Errorf("DATABASE_URL sslmode=disable is not allowed for non-local host %q", dbHost)
	}

	return nil
}

func (c *Config) validateNetwork() error {
	port, err := parsePort("PORT", c.Port)
	if err != nil {
		return err
	}

	metricsPort, err := parsePort("METRICS_PORT", c.MetricsPort)
	if err != nil {
		return err
	}

	if metricsPort == port {
		return fmt.Errorf("METRICS_PORT must differ from PORT")
	}

	// Loopback for local runs, wildcard for containers behind an external boundary.
	if !isLoopback(c.ListenHost) && c.ListenHost != "0.0.0.0" && c.ListenHost != "::" {
		return fmt.Errorf("LISTEN_HOST must be a loopback address or 0.0.0.0/:: for containers (got %q)", c.ListenHost)
	}

	return nil
}

func parsePort(key, raw string) (int, error) {
	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}

	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("%s must be between 1 and 65535", key)
	}

	return port, nil
}

func (c *Config) validateCORS() error {
	if len(c.CORSOrigins) == 0 {
		return fmt.Errorf("CORS_ORIGINS must list at least one origin")
	}

	for _, origin := range c.CORSOrigins {
		if strings.ContainsAny(origin, "*?[]") {
			return fmt.Errorf("CORS_ORIGINS must not contain wildcards or glob characters, got %q", origin)
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS contains invalid origin %q (must have scheme and host)", origin)
		}
	}

	return nil
}

func (c *Config) validateLogging() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}

	return nil
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
