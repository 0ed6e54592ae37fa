package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateOMDb(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateBulk(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Backend {
	case BackendSQLite:
		if strings.TrimSpace(c.Database.SQLitePath) == "" {
			return errors.New("database.sqlite_path must be set")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.Database.PostgresDSN) == "" {
			return errors.New("database.postgres_dsn is required for the postgres backend. Set CATALOGSYNC_DATABASE_URL or edit the config file")
		}
	default:
		return fmt.Errorf("database.backend must be %q or %q, got %q", BackendSQLite, BackendPostgres, c.Database.Backend)
	}
	return nil
}

func (c *Config) validateOMDb() error {
	if c.OMDb.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/catalogsync/config.toml"
		}
		return fmt.Errorf("omdb.api_key is required. Set OMDB_API_KEY env var or edit %s (create with 'catalogsync config init')", defaultPath)
	}
	if _, err := url.ParseRequestURI(c.OMDb.BaseURL); err != nil {
		return fmt.Errorf("omdb.base_url is invalid: %w", err)
	}
	switch c.OMDb.Plot {
	case "short", "full":
	default:
		return fmt.Errorf("omdb.plot must be short or full, got %q", c.OMDb.Plot)
	}
	if c.OMDb.RequestsPerSecond < 0 {
		return errors.New("omdb.requests_per_second must be zero (unlimited) or positive")
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.Enabled && c.TMDB.APIKey == "" {
		return errors.New("tmdb.api_key is required when tmdb.enabled is true. Set TMDB_API_KEY env var")
	}
	return nil
}

func (c *Config) validateBulk() error {
	if c.Bulk.BatchCap <= 0 {
		return errors.New("bulk.batch_cap must be positive")
	}
	if c.Bulk.ItemTimeoutSeconds <= 0 {
		return errors.New("bulk.item_timeout_seconds must be positive")
	}
	if c.Bulk.MaxRetries < 0 {
		return errors.New("bulk.max_retries must be zero or positive")
	}
	if c.Bulk.BackoffUnitMillis < 0 {
		return errors.New("bulk.backoff_unit_ms must be zero or positive")
	}
	switch c.Bulk.Dispatch {
	case DispatchInProcess:
	case DispatchHTTP:
		if _, err := url.ParseRequestURI(c.Server.InternalBaseURL); err != nil {
			return fmt.Errorf("server.internal_base_url is invalid: %w", err)
		}
	default:
		return fmt.Errorf("bulk.dispatch must be %q or %q, got %q", DispatchInProcess, DispatchHTTP, c.Bulk.Dispatch)
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.TTLSeconds < 0 {
		return errors.New("cache.ttl_seconds must be zero (no expiry) or positive")
	}
	if c.Cache.CleanupIntervalSeconds < 0 {
		return errors.New("cache.cleanup_interval_seconds must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
