package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	if err := c.normalizeDatabase(); err != nil {
		return err
	}
	c.normalizeOMDb()
	c.normalizeTMDB()
	if err := c.normalizeArtwork(); err != nil {
		return err
	}
	c.normalizeBulk()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	if c.Server.Token == "" {
		if value, ok := os.LookupEnv("CATALOGSYNC_API_TOKEN"); ok {
			c.Server.Token = strings.TrimSpace(value)
		}
	}
	c.Server.InternalBaseURL = strings.TrimRight(strings.TrimSpace(c.Server.InternalBaseURL), "/")
	if c.Server.InternalBaseURL == "" {
		c.Server.InternalBaseURL = "http://" + c.Server.Bind
	}
}

func (c *Config) normalizeDatabase() error {
	c.Database.Backend = strings.ToLower(strings.TrimSpace(c.Database.Backend))
	if c.Database.Backend == "" {
		c.Database.Backend = defaultDatabaseBackend
	}
	if c.Database.PostgresDSN == "" {
		if value, ok := os.LookupEnv("CATALOGSYNC_DATABASE_URL"); ok {
			c.Database.PostgresDSN = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Database.SQLitePath) == "" {
		c.Database.SQLitePath = filepath.Join(c.Paths.StateDir, defaultSQLiteFile)
	}
	var err error
	if c.Database.SQLitePath, err = expandPath(c.Database.SQLitePath); err != nil {
		return fmt.Errorf("database.sqlite_path: %w", err)
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = defaultPostgresMaxConns
	}
	return nil
}

func (c *Config) normalizeOMDb() {
	if c.OMDb.APIKey == "" {
		if value, ok := os.LookupEnv("OMDB_API_KEY"); ok {
			c.OMDb.APIKey = value
		}
	}
	c.OMDb.APIKey = strings.TrimSpace(c.OMDb.APIKey)
	c.OMDb.BaseURL = strings.TrimSpace(c.OMDb.BaseURL)
	if c.OMDb.BaseURL == "" {
		c.OMDb.BaseURL = defaultOMDbBaseURL
	}
	c.OMDb.Plot = strings.ToLower(strings.TrimSpace(c.OMDb.Plot))
	if c.OMDb.Plot == "" {
		c.OMDb.Plot = defaultOMDbPlot
	}
	if c.OMDb.TimeoutSeconds <= 0 {
		c.OMDb.TimeoutSeconds = defaultOMDbTimeoutSeconds
	}
}

func (c *Config) normalizeTMDB() {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = value
		}
	}
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimSpace(c.TMDB.BaseURL)
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	if strings.TrimSpace(c.TMDB.Language) == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
}

func (c *Config) normalizeArtwork() error {
	var err error
	if strings.TrimSpace(c.Artwork.Dir) == "" {
		c.Artwork.Dir = defaultArtworkDir
	}
	if c.Artwork.Dir, err = expandPath(c.Artwork.Dir); err != nil {
		return fmt.Errorf("artwork.dir: %w", err)
	}
	c.Artwork.PublicPrefix = strings.TrimRight(strings.TrimSpace(c.Artwork.PublicPrefix), "/")
	if c.Artwork.TimeoutSeconds <= 0 {
		c.Artwork.TimeoutSeconds = defaultArtworkTimeoutSeconds
	}
	if c.Artwork.MaxBytes <= 0 {
		c.Artwork.MaxBytes = defaultArtworkMaxBytes
	}
	return nil
}

func (c *Config) normalizeBulk() {
	c.Bulk.Dispatch = strings.ToLower(strings.TrimSpace(c.Bulk.Dispatch))
	if c.Bulk.Dispatch == "" {
		c.Bulk.Dispatch = defaultBulkDispatch
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
