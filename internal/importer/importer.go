package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"catalogsync/internal/artwork"
	"catalogsync/internal/catalog"
	"catalogsync/internal/logging"
	"catalogsync/internal/metrics"
	"catalogsync/internal/omdb"
	"catalogsync/internal/services"
	"catalogsync/internal/store"
	"catalogsync/internal/tmdb"
)

const lockRetryDelay = 200 * time.Millisecond

// Importer is the operation the bulk coordinator and the API dispatch to.
type Importer interface {
	Import(ctx context.Context, externalID, quality string) (*Result, error)
}

// Service imports titles into a store.Gateway.
type Service struct {
	store    store.Gateway
	fetcher  omdb.Fetcher
	images   artwork.ImageStore
	resolver tmdb.Resolver
	metrics  *metrics.Metrics
	logger   *slog.Logger

	sem  chan struct{}
	lock *flock.Flock
}

var _ Importer = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithImageStore enables poster downloads.
func WithImageStore(images artwork.ImageStore) Option {
	return func(s *Service) { s.images = images }
}

// WithResolver enables TMDB ID enrichment.
func WithResolver(resolver tmdb.Resolver) Option {
	return func(s *Service) { s.resolver = resolver }
}

// WithMetrics records import outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logging.NewComponentLogger(logger, "importer") }
}

// WithLockPath serializes imports across processes through the given file.
func WithLockPath(path string) Option {
	return func(s *Service) {
		if strings.TrimSpace(path) != "" {
			s.lock = flock.New(path)
		}
	}
}

// New constructs an import service.
func New(gw store.Gateway, fetcher omdb.Fetcher, opts ...Option) *Service {
	s := &Service{
		store:   gw,
		fetcher: fetcher,
		logger:  logging.NewComponentLogger(nil, "importer"),
		sem:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Import fetches externalID and writes its entity graph. Only the fetch and the
// Title upsert can fail the import; child failures are counted in the Result.
func (s *Service) Import(ctx context.Context, externalID, quality string) (*Result, error) {
	start := time.Now()
	result, err := s.run(ctx, externalID, quality)
	s.metrics.ObserveImport(outcomeLabel(err), time.Since(start))
	if result != nil {
		s.metrics.AddGraphFailures("link", result.LinkFailures)
		s.metrics.AddGraphFailures("episode", result.EpisodesFailed)
	}
	return result, err
}

func (s *Service) run(ctx context.Context, externalID, quality string) (*Result, error) {
	id := strings.TrimSpace(externalID)
	if id == "" {
		return nil, services.Wrap(services.ErrValidation, "importer", "import", "external id is required", nil)
	}
	q, err := catalog.ParseQuality(quality)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "importer", "import", "", err)
	}

	correlationID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		correlationID = uuid.NewString()
		ctx = services.WithRequestID(ctx, correlationID)
	}
	ctx = services.WithExternalID(ctx, id)

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	fetchCtx := services.WithStep(ctx, "fetch")
	title, err := s.fetcher.FetchTitle(fetchCtx, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			logging.WithContext(fetchCtx, s.logger).Info("title not found at provider")
		}
		return nil, err
	}

	s.enrich(fetchCtx, title)
	poster, backdrop := s.storeArtwork(services.WithStep(ctx, "artwork"), title)

	graphCtx := services.WithStep(ctx, "graph")
	titleID, err := s.store.UpsertTitle(graphCtx, store.TitleRecord{
		IMDbID:       title.IMDbID,
		TMDBID:       title.TMDBID,
		Title:        title.Title,
		Synopsis:     title.Synopsis,
		ReleaseDate:  title.ReleaseDate,
		Year:         title.Year,
		Rating:       title.Rating,
		Runtime:      title.Runtime,
		PosterPath:   poster,
		BackdropPath: backdrop,
		Quality:      q,
		Kind:         title.Kind,
		TotalSeasons: title.TotalSeasons,
		Country:      title.Country,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert title %s: %w", title.IMDbID, err)
	}

	result := &Result{
		Success:       true,
		TitleID:       titleID,
		ExternalID:    title.IMDbID,
		Title:         title.Title,
		Kind:          title.Kind,
		CorrelationID: correlationID,
	}

	s.linkAll(graphCtx, titleID, store.Countries, title.Countries, result)
	s.linkAll(graphCtx, titleID, store.Genres, title.Genres, result)
	s.linkAll(graphCtx, titleID, store.Actors, title.Actors, result)

	if title.Kind == catalog.KindSeries && title.TotalSeasons > 0 {
		if err := s.importSeasons(services.WithStep(ctx, "seasons"), title, titleID, result); err != nil {
			result.Success = false
			return result, err
		}
	}

	logging.WithContext(ctx, s.logger).Info("title imported",
		logging.Int64("title_id", titleID),
		logging.String("kind", string(title.Kind)),
		logging.Int("seasons_imported", result.SeasonsImported),
		logging.Int("episodes_imported", result.EpisodesImported),
		logging.Int("seasons_skipped", result.SeasonsSkipped),
		logging.Int("episodes_failed", result.EpisodesFailed),
		logging.Int("link_failures", result.LinkFailures),
	)
	return result, nil
}

// acquire takes the in-process slot and then the cross-process lock file.
func (s *Service) acquire(ctx context.Context) (func(), error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, services.Wrap(services.ErrTimeout, "importer", "acquire lock", "waiting for a running import", ctx.Err())
	}
	if s.lock == nil {
		return func() { <-s.sem }, nil
	}

	if err := os.MkdirAll(filepath.Dir(s.lock.Path()), 0o755); err != nil {
		<-s.sem
		return nil, services.Wrap(services.ErrConfiguration, "importer", "acquire lock", "create lock directory", err)
	}
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		<-s.sem
		if err == nil {
			err = ctx.Err()
		}
		return nil, services.Wrap(services.ErrTimeout, "importer", "acquire lock", "another process holds "+s.lock.Path(), err)
	}
	return func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release import lock", logging.Error(err))
		}
		<-s.sem
	}, nil
}

func (s *Service) enrich(ctx context.Context, title *catalog.NormalizedTitle) {
	if s.resolver == nil {
		return
	}
	tmdbID, err := s.resolver.FindByIMDbID(ctx, title.IMDbID, title.Kind)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "tmdb lookup failed", "tmdb_lookup",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check tmdb.api_key or disable tmdb.enabled"),
			logging.String(logging.FieldImpact, "title stored without a tmdb id"),
		)
		return
	}
	title.TMDBID = tmdbID
}

func (s *Service) storeArtwork(ctx context.Context, title *catalog.NormalizedTitle) (string, string) {
	if s.images == nil || title.PosterURL == "" {
		return "", ""
	}
	poster := s.images.StoreImage(ctx, title.PosterURL, title.IMDbID+"-poster")
	backdrop := poster
	if title.BackdropURL != "" && title.BackdropURL != title.PosterURL {
		backdrop = s.images.StoreImage(ctx, title.BackdropURL, title.IMDbID+"-backdrop")
	}
	return poster, backdrop
}

func (s *Service) linkAll(ctx context.Context, titleID int64, lookup store.Lookup, names []string, result *Result) {
	for _, name := range names {
		lookupID, err := s.store.FindOrCreate(ctx, lookup, name)
		if err == nil {
			err = s.store.Link(ctx, lookup, titleID, lookupID)
		}
		if err != nil {
			result.LinkFailures++
			logging.WarnWithContext(logging.WithContext(ctx, s.logger), "link skipped", "graph_link_failed",
				logging.String("lookup", lookup.String()),
				logging.String("name", name),
				logging.Error(err),
				logging.String(logging.FieldImpact, "title stored without this "+lookup.String()+" link"),
			)
		}
	}
}

func (s *Service) importSeasons(ctx context.Context, title *catalog.NormalizedTitle, titleID int64, result *Result) error {
	for number := 1; number <= title.TotalSeasons; number++ {
		if err := ctx.Err(); err != nil {
			return services.Wrap(services.ErrTimeout, "importer", "import seasons",
				fmt.Sprintf("stopped before season %d", number), err)
		}
		seasonCtx := services.WithStep(ctx, fmt.Sprintf("season %d", number))
		logger := logging.WithContext(seasonCtx, s.logger).With(logging.Int(logging.FieldSeason, number))

		season, err := s.fetcher.FetchSeason(seasonCtx, title.IMDbID, number)
		if err != nil {
			result.SeasonsSkipped++
			if errors.Is(err, services.ErrNotFound) {
				logger.Info("season not found at provider")
				continue
			}
			logging.WarnWithContext(logger, "season fetch failed", "season_fetch_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "season and its episodes skipped"),
			)
			continue
		}

		seasonID, err := s.store.UpsertSeason(seasonCtx, store.SeasonRecord{
			TitleID:      titleID,
			Number:       number,
			Title:        season.Title,
			EpisodeCount: season.EpisodeCount,
		})
		if err != nil {
			result.SeasonsSkipped++
			logging.WarnWithContext(logger, "season upsert failed", "season_upsert_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "season and its episodes skipped"),
			)
			continue
		}
		result.SeasonsImported++

		for _, ep := range season.Episodes {
			if err := s.importEpisode(seasonCtx, seasonID, ep); err != nil {
				result.EpisodesFailed++
				logging.WarnWithContext(logger, "episode skipped", "episode_upsert_failed",
					logging.Int(logging.FieldEpisode, ep.Number),
					logging.String("episode_title", ep.Title),
					logging.Error(err),
					logging.String(logging.FieldImpact, "episode missing from catalog"),
				)
				continue
			}
			result.EpisodesImported++
		}
	}
	return nil
}

func (s *Service) importEpisode(ctx context.Context, seasonID int64, ep catalog.NormalizedEpisode) error {
	if ep.Number <= 0 {
		return services.Wrap(services.ErrValidation, "importer", "import episode", "provider episode number is not a positive integer", nil)
	}
	_, err := s.store.UpsertEpisode(ctx, store.EpisodeRecord{
		SeasonID:    seasonID,
		Number:      ep.Number,
		Title:       ep.Title,
		IMDbID:      ep.IMDbID,
		ReleaseDate: ep.ReleaseDate,
		Rating:      ep.Rating,
	})
	return err
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, services.ErrValidation):
		return "invalid"
	case errors.Is(err, services.ErrNotFound):
		return "not_found"
	default:
		return "failed"
	}
}
