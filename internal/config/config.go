package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains state and log directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Server contains HTTP API configuration.
type Server struct {
	Bind            string `toml:"bind"`
	Token           string `toml:"token"`
	SessionSecret   string `toml:"session_secret"`
	InternalBaseURL string `toml:"internal_base_url"`
}

// Database selects and configures the persistence backend.
type Database struct {
	Backend     string `toml:"backend"`
	SQLitePath  string `toml:"sqlite_path"`
	PostgresDSN string `toml:"postgres_dsn"`
	MaxConns    int    `toml:"max_conns"`
}

// OMDb contains configuration for the catalog metadata provider.
type OMDb struct {
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Plot              string  `toml:"plot"`
}

// TMDB contains configuration for the optional secondary ID lookup.
type TMDB struct {
	Enabled  bool   `toml:"enabled"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Language string `toml:"language"`
}

// Artwork contains configuration for poster downloads.
type Artwork struct {
	Enabled        bool   `toml:"enabled"`
	Dir            string `toml:"dir"`
	PublicPrefix   string `toml:"public_prefix"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxBytes       int64  `toml:"max_bytes"`
}

// Bulk contains the batch import policy.
type Bulk struct {
	BatchCap           int    `toml:"batch_cap"`
	ItemTimeoutSeconds int    `toml:"item_timeout_seconds"`
	MaxRetries         int    `toml:"max_retries"`
	BackoffUnitMillis  int    `toml:"backoff_unit_ms"`
	Dispatch           string `toml:"dispatch"`
}

// Cache contains configuration for the catalog read cache.
type Cache struct {
	TTLSeconds             int `toml:"ttl_seconds"`
	CleanupIntervalSeconds int `toml:"cleanup_interval_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for catalogsync.
//
// Configuration sections by subsystem:
//   - Paths: state directory (import lock, default SQLite file) and logs
//   - Server: HTTP bind address and credentials
//   - Database: sqlite or postgres backend selection
//   - OMDb: catalog metadata provider
//   - TMDB: optional secondary external ID lookup
//   - Artwork: poster download target
//   - Bulk: batch cap, timeouts and retry policy
//   - Cache: read cache expiry
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Server   Server   `toml:"server"`
	Database Database `toml:"database"`
	OMDb     OMDb     `toml:"omdb"`
	TMDB     TMDB     `toml:"tmdb"`
	Artwork  Artwork  `toml:"artwork"`
	Bulk     Bulk     `toml:"bulk"`
	Cache    Cache    `toml:"cache"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/catalogsync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("catalogsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state, log and artwork directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StateDir, c.Paths.LogDir}
	if c.Artwork.Enabled {
		dirs = append(dirs, c.Artwork.Dir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ImportLockPath is the advisory lock file that serializes imports across processes.
func (c *Config) ImportLockPath() string {
	return filepath.Join(c.Paths.StateDir, "import.lock")
}

// ItemTimeout is the per-attempt deadline applied to each bulk item.
func (c *Config) ItemTimeout() time.Duration {
	return time.Duration(c.Bulk.ItemTimeoutSeconds) * time.Second
}

// TTL is the default cache entry lifetime.
func (c Cache) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// CleanupInterval is how often expired cache entries are purged.
func (c Cache) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalSeconds) * time.Second
}

// BackoffUnit is the linear retry delay multiplier.
func (c *Config) BackoffUnit() time.Duration {
	return time.Duration(c.Bulk.BackoffUnitMillis) * time.Millisecond
}

// BulkWriteTimeout bounds how long one bulk request may hold the connection:
// every capped item exhausting every attempt plus the accumulated backoff.
func (c *Config) BulkWriteTimeout() time.Duration {
	attempts := time.Duration(1 + c.Bulk.MaxRetries)
	perItem := c.ItemTimeout() * attempts
	var backoff time.Duration
	for k := 1; k <= c.Bulk.MaxRetries; k++ {
		backoff += c.BackoffUnit() * time.Duration(k)
	}
	return time.Duration(c.Bulk.BatchCap)*(perItem+backoff) + 30*time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
