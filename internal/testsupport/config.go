package testsupport

import (
	"path/filepath"
	"testing"

	"catalogsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It points the database at a fresh SQLite file and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.OMDb.APIKey = "test"
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Database.Backend = config.BackendSQLite
	cfgVal.Database.SQLitePath = filepath.Join(base, "state", "catalog.db")
	cfgVal.Artwork.Dir = filepath.Join(base, "artwork")
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Bulk.BackoffUnitMillis = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithOMDbURL points the provider client at a test server.
func WithOMDbURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OMDb.BaseURL = url
		b.cfg.OMDb.RequestsPerSecond = 0
	}
}

// WithArtworkDisabled turns poster downloads off.
func WithArtworkDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Artwork.Enabled = false
	}
}

// WithAPIToken sets the bearer token accepted by the API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.Token = token
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
