package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"catalogsync/internal/api"
	"catalogsync/internal/artwork"
	"catalogsync/internal/auth"
	"catalogsync/internal/bulk"
	"catalogsync/internal/cache"
	"catalogsync/internal/config"
	"catalogsync/internal/importer"
	"catalogsync/internal/logging"
	"catalogsync/internal/metrics"
	"catalogsync/internal/omdb"
	"catalogsync/internal/store"
	"catalogsync/internal/tmdb"
)

// app is the wired service graph shared by every command.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	cache    *cache.Cache
	metrics  *metrics.Metrics
	importer *importer.Service
	bulk     *bulk.Coordinator
	auth     *auth.Authenticator
}

func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	st, err := store.Open(ctx, cfg)
	if err != nil {
		logging.ErrorWithContext(logger, "open catalog store", "store_open_failed",
			logging.String("backend", cfg.Database.Backend),
			logging.String(logging.FieldErrorHint, "check database settings and file permissions"),
			logging.Error(err),
		)
		return nil, fmt.Errorf("open store: %w", err)
	}

	fetcher, err := omdb.New(cfg.OMDb.APIKey, cfg.OMDb.BaseURL,
		omdb.WithRateLimit(cfg.OMDb.RequestsPerSecond),
		omdb.WithPlot(cfg.OMDb.Plot),
		omdb.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.OMDb.TimeoutSeconds) * time.Second}),
		omdb.WithLogger(logger),
	)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("create omdb client: %w", err)
	}

	m := metrics.New()
	c := cache.New(cfg.Cache.TTL(), cfg.Cache.CleanupInterval())

	opts := []importer.Option{
		importer.WithMetrics(m),
		importer.WithLogger(logger),
		importer.WithLockPath(cfg.ImportLockPath()),
	}
	if cfg.TMDB.Enabled {
		resolver, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language, tmdb.WithLogger(logger))
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("create tmdb client: %w", err)
		}
		opts = append(opts, importer.WithResolver(resolver))
	}
	if cfg.Artwork.Enabled {
		opts = append(opts, importer.WithImageStore(artwork.New(cfg.Artwork, logger)))
	}
	imp := importer.New(st, fetcher, opts...)

	coordinator := bulk.NewCoordinator(newDispatcher(cfg, imp),
		bulk.WithPolicy(bulk.PolicyFromConfig(cfg)),
		bulk.WithRepairer(st),
		bulk.WithInvalidator(c),
		bulk.WithMetrics(m),
		bulk.WithLogger(logger),
	)

	logger.Debug("service graph ready",
		logging.String("backend", st.Backend()),
		logging.String("dispatch", cfg.Bulk.Dispatch),
		logging.Bool("tmdb", cfg.TMDB.Enabled),
		logging.Bool("artwork", cfg.Artwork.Enabled),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		cache:    c,
		metrics:  m,
		importer: imp,
		bulk:     coordinator,
		auth:     auth.New(cfg.Server.Token, auth.SessionsFromSecret(cfg.Server.SessionSecret)),
	}, nil
}

func newDispatcher(cfg *config.Config, imp importer.Importer) bulk.Dispatcher {
	if cfg.Bulk.Dispatch == config.DispatchHTTP {
		return bulk.HTTPDispatcher{
			BaseURL: cfg.Server.InternalBaseURL,
			Client:  &http.Client{Timeout: cfg.ItemTimeout()},
		}
	}
	return bulk.InProcessDispatcher{Importer: imp}
}

func (a *app) server() *api.Server {
	return api.NewServer(a.cfg, api.Deps{
		Importer: a.importer,
		Bulk:     a.bulk,
		Reader:   a.store,
		Cache:    a.cache,
		Metrics:  a.metrics,
		Auth:     a.auth,
		Health:   a.store,
	}, a.logger)
}

func (a *app) Close() error {
	if a == nil || a.store == nil {
		return nil
	}
	return a.store.Close()
}
