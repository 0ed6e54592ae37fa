package config

const (
	defaultStateDir               = "~/.local/share/catalogsync"
	defaultLogDir                 = "~/.local/share/catalogsync/logs"
	defaultArtworkDir             = "~/.local/share/catalogsync/artwork"
	defaultArtworkPublicPrefix    = "/artwork"
	defaultArtworkTimeoutSeconds  = 30
	defaultArtworkMaxBytes        = 10 << 20
	defaultServerBind             = "127.0.0.1:7488"
	defaultDatabaseBackend        = BackendSQLite
	defaultSQLiteFile             = "catalog.db"
	defaultSQLitePath             = "~/.local/share/catalogsync/catalog.db"
	defaultPostgresMaxConns       = 10
	defaultOMDbBaseURL            = "https://www.omdbapi.com/"
	defaultOMDbTimeoutSeconds     = 15
	defaultOMDbRequestsPerSecond  = 5
	defaultOMDbPlot               = "full"
	defaultTMDBBaseURL            = "https://api.themoviedb.org/3"
	defaultTMDBLanguage           = "en-US"
	defaultBulkBatchCap           = 10
	defaultBulkItemTimeoutSeconds = 120
	defaultBulkMaxRetries         = 2
	defaultBulkBackoffUnitMillis  = 2000
	defaultBulkDispatch           = DispatchInProcess
	defaultCacheTTLSeconds        = 300
	defaultCacheCleanupSeconds    = 600
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Database backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Bulk dispatch modes.
const (
	DispatchInProcess = "inprocess"
	DispatchHTTP      = "http"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Server: Server{
			Bind: defaultServerBind,
		},
		Database: Database{
			Backend:    defaultDatabaseBackend,
			SQLitePath: defaultSQLitePath,
			MaxConns:   defaultPostgresMaxConns,
		},
		OMDb: OMDb{
			BaseURL:           defaultOMDbBaseURL,
			TimeoutSeconds:    defaultOMDbTimeoutSeconds,
			RequestsPerSecond: defaultOMDbRequestsPerSecond,
			Plot:              defaultOMDbPlot,
		},
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
		},
		Artwork: Artwork{
			Enabled:        true,
			Dir:            defaultArtworkDir,
			PublicPrefix:   defaultArtworkPublicPrefix,
			TimeoutSeconds: defaultArtworkTimeoutSeconds,
			MaxBytes:       defaultArtworkMaxBytes,
		},
		Bulk: Bulk{
			BatchCap:           defaultBulkBatchCap,
			ItemTimeoutSeconds: defaultBulkItemTimeoutSeconds,
			MaxRetries:         defaultBulkMaxRetries,
			BackoffUnitMillis:  defaultBulkBackoffUnitMillis,
			Dispatch:           defaultBulkDispatch,
		},
		Cache: Cache{
			TTLSeconds:             defaultCacheTTLSeconds,
			CleanupIntervalSeconds: defaultCacheCleanupSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
