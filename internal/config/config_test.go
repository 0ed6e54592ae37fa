package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"catalogsync/internal/config"
)

func TestLoadDefaultConfigUsesEnvOMDbKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("OMDB_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "catalogsync")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Database.Backend != config.BackendSQLite {
		t.Fatalf("expected sqlite backend by default, got %q", cfg.Database.Backend)
	}
	if cfg.Database.SQLitePath != filepath.Join(wantState, "catalog.db") {
		t.Fatalf("unexpected sqlite path: %q", cfg.Database.SQLitePath)
	}
	if cfg.OMDb.APIKey != "test-key" {
		t.Fatalf("expected OMDb key from env, got %q", cfg.OMDb.APIKey)
	}
	if cfg.Server.Bind != "127.0.0.1:7488" {
		t.Fatalf("unexpected bind: %q", cfg.Server.Bind)
	}
	if cfg.Server.InternalBaseURL != "http://127.0.0.1:7488" {
		t.Fatalf("unexpected internal base url: %q", cfg.Server.InternalBaseURL)
	}
	if cfg.Bulk.BatchCap != 10 || cfg.Bulk.MaxRetries != 2 || cfg.Bulk.ItemTimeoutSeconds != 120 {
		t.Fatalf("unexpected bulk defaults: %+v", cfg.Bulk)
	}
	if cfg.Bulk.Dispatch != config.DispatchInProcess {
		t.Fatalf("expected in-process dispatch by default, got %q", cfg.Bulk.Dispatch)
	}
	if cfg.TMDB.Enabled {
		t.Fatal("expected TMDB lookup disabled by default")
	}
	if cfg.ImportLockPath() != filepath.Join(wantState, "import.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.ImportLockPath())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir, cfg.Artwork.Dir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "catalogsync.toml")

	type payload struct {
		Database struct {
			Backend     string `toml:"backend"`
			PostgresDSN string `toml:"postgres_dsn"`
		} `toml:"database"`
		OMDb struct {
			APIKey  string `toml:"api_key"`
			BaseURL string `toml:"base_url"`
		} `toml:"omdb"`
		Bulk struct {
			BatchCap   int    `toml:"batch_cap"`
			MaxRetries int    `toml:"max_retries"`
			Dispatch   string `toml:"dispatch"`
		} `toml:"bulk"`
	}
	custom := payload{}
	custom.Database.Backend = " Postgres "
	custom.Database.PostgresDSN = "postgres://catalog@localhost/catalog"
	custom.OMDb.APIKey = "abc123"
	custom.OMDb.BaseURL = "https://example.com/omdb/"
	custom.Bulk.BatchCap = 5
	custom.Bulk.MaxRetries = 0
	custom.Bulk.Dispatch = "HTTP"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Database.Backend != config.BackendPostgres {
		t.Fatalf("expected backend to normalize to postgres, got %q", cfg.Database.Backend)
	}
	if cfg.OMDb.BaseURL != "https://example.com/omdb/" {
		t.Fatalf("expected OMDb base url override, got %q", cfg.OMDb.BaseURL)
	}
	if cfg.Bulk.BatchCap != 5 || cfg.Bulk.MaxRetries != 0 {
		t.Fatalf("unexpected bulk overrides: %+v", cfg.Bulk)
	}
	if cfg.Bulk.Dispatch != config.DispatchHTTP {
		t.Fatalf("expected dispatch to normalize to http, got %q", cfg.Bulk.Dispatch)
	}
}

func TestEnvFallbacksFillEmptyValues(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "catalogsync.toml")
	contents := "[database]\nbackend = \"postgres\"\n[omdb]\napi_key = \"file-omdb\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OMDB_API_KEY", "env-omdb")
	t.Setenv("CATALOGSYNC_DATABASE_URL", "postgres://env/catalog")
	t.Setenv("CATALOGSYNC_API_TOKEN", "env-token")
	t.Setenv("TMDB_API_KEY", "env-tmdb")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.OMDb.APIKey != "file-omdb" {
		t.Errorf("expected file OMDb key to win, got %q", cfg.OMDb.APIKey)
	}
	if cfg.Database.PostgresDSN != "postgres://env/catalog" {
		t.Errorf("expected DSN from env, got %q", cfg.Database.PostgresDSN)
	}
	if cfg.Server.Token != "env-token" {
		t.Errorf("expected API token from env, got %q", cfg.Server.Token)
	}
	if cfg.TMDB.APIKey != "env-tmdb" {
		t.Errorf("expected TMDB key from env, got %q", cfg.TMDB.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[bulk]") {
		t.Fatalf("sample config missing bulk section: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Bulk.BatchCap != config.Default().Bulk.BatchCap {
		t.Fatalf("sample batch cap %d diverges from default", cfg.Bulk.BatchCap)
	}
	if !strings.Contains(cfg.Paths.StateDir, "catalogsync") {
		t.Fatalf("expected state dir to contain catalogsync, got %q", cfg.Paths.StateDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	valid := func() config.Config {
		cfg := config.Default()
		cfg.OMDb.APIKey = "key"
		return cfg
	}

	base := valid()
	if err := base.Validate(); err != nil {
		t.Fatalf("expected defaults with key to validate, got %v", err)
	}

	cases := map[string]func(*config.Config){
		"missing omdb key":       func(c *config.Config) { c.OMDb.APIKey = "" },
		"unknown backend":        func(c *config.Config) { c.Database.Backend = "mysql" },
		"postgres without dsn":   func(c *config.Config) { c.Database.Backend = config.BackendPostgres },
		"zero batch cap":         func(c *config.Config) { c.Bulk.BatchCap = 0 },
		"negative retries":       func(c *config.Config) { c.Bulk.MaxRetries = -1 },
		"zero item timeout":      func(c *config.Config) { c.Bulk.ItemTimeoutSeconds = 0 },
		"unknown dispatch":       func(c *config.Config) { c.Bulk.Dispatch = "queue" },
		"tmdb enabled no key":    func(c *config.Config) { c.TMDB.Enabled = true },
		"bad plot":               func(c *config.Config) { c.OMDb.Plot = "medium" },
		"bad log format":         func(c *config.Config) { c.Logging.Format = "xml" },
		"negative cache ttl":     func(c *config.Config) { c.Cache.TTLSeconds = -5 },
		"negative rate limiting": func(c *config.Config) { c.OMDb.RequestsPerSecond = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", name)
			}
		})
	}
}

func TestBulkTimeouts(t *testing.T) {
	cfg := config.Default()
	if got := cfg.ItemTimeout(); got != 120*time.Second {
		t.Fatalf("unexpected item timeout: %v", got)
	}
	if got := cfg.BackoffUnit(); got != 2*time.Second {
		t.Fatalf("unexpected backoff unit: %v", got)
	}
	// 10 items * (3 attempts * 120s + (2s + 4s)) + 30s slack
	want := 10*(360*time.Second+6*time.Second) + 30*time.Second
	if got := cfg.BulkWriteTimeout(); got != want {
		t.Fatalf("unexpected bulk write timeout: got %v want %v", got, want)
	}
}
