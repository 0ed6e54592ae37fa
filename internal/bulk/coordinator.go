package bulk

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"catalogsync/internal/cache"
	"catalogsync/internal/catalog"
	"catalogsync/internal/config"
	"catalogsync/internal/logging"
	"catalogsync/internal/metrics"
	"catalogsync/internal/services"
)

// Request is a bulk import submission.
type Request struct {
	ExternalIDs []string `json:"externalIds"`
	Kind        string   `json:"kind"`
	Quality     string   `json:"quality,omitempty"`
}

// ItemSuccess describes an imported item.
type ItemSuccess struct {
	ExternalID       string       `json:"externalId"`
	Title            string       `json:"title"`
	Kind             catalog.Kind `json:"kind"`
	SeasonsImported  int          `json:"seasonsImported"`
	EpisodesImported int          `json:"episodesImported"`
	SeasonsSkipped   int          `json:"seasonsSkipped"`
	EpisodesFailed   int          `json:"episodesFailed"`
	Attempts         int          `json:"attempts"`
}

// ItemFailure describes an item that exhausted its attempts or failed
// permanently.
type ItemFailure struct {
	ExternalID string `json:"externalId"`
	Error      string `json:"error"`
	Detail     string `json:"detail,omitempty"`
	Status     int    `json:"status,omitempty"`
	Attempts   int    `json:"attempts"`
}

// Results partitions item outcomes in submission order.
type Results struct {
	Success []ItemSuccess `json:"success"`
	Failed  []ItemFailure `json:"failed"`
}

// Report is the full accounting of a batch.
type Report struct {
	Success  bool    `json:"success"`
	Imported int     `json:"imported"`
	Failed   int     `json:"failed"`
	Skipped  int     `json:"skipped"`
	Total    int     `json:"total"`
	Results  Results `json:"results"`
}

// Policy bounds a batch.
type Policy struct {
	BatchCap    int
	ItemTimeout time.Duration
	MaxRetries  int
	BackoffUnit time.Duration
}

// PolicyFromConfig reads the [bulk] section.
func PolicyFromConfig(cfg *config.Config) Policy {
	return Policy{
		BatchCap:    cfg.Bulk.BatchCap,
		ItemTimeout: cfg.ItemTimeout(),
		MaxRetries:  cfg.Bulk.MaxRetries,
		BackoffUnit: cfg.BackoffUnit(),
	}
}

// DefaultPolicy mirrors the configuration defaults.
func DefaultPolicy() Policy {
	cfg := config.Default()
	return PolicyFromConfig(&cfg)
}

// SequenceRepairer realigns primary-key counters.
type SequenceRepairer interface {
	RepairSequences(ctx context.Context) error
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Coordinator runs batches.
type Coordinator struct {
	dispatcher  Dispatcher
	repairer    SequenceRepairer
	invalidator cache.Invalidator
	metrics     *metrics.Metrics
	logger      *slog.Logger
	policy      Policy
	sleep       SleepFunc
}

// Option configures a Coordinator.
type Option func(*Coordinator)

func WithPolicy(p Policy) Option { return func(c *Coordinator) { c.policy = p } }

func WithRepairer(r SequenceRepairer) Option { return func(c *Coordinator) { c.repairer = r } }

func WithInvalidator(inv cache.Invalidator) Option {
	return func(c *Coordinator) { c.invalidator = inv }
}

func WithMetrics(m *metrics.Metrics) Option { return func(c *Coordinator) { c.metrics = m } }

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logging.NewComponentLogger(logger, "bulk") }
}

// WithSleep replaces the backoff wait, mainly for tests.
func WithSleep(fn SleepFunc) Option {
	return func(c *Coordinator) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// NewCoordinator builds a coordinator around d.
func NewCoordinator(d Dispatcher, opts ...Option) *Coordinator {
	c := &Coordinator{
		dispatcher: d,
		logger:     logging.NewComponentLogger(nil, "bulk"),
		policy:     DefaultPolicy(),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InvalidationPatterns are the cache namespaces refreshed after a batch that
// stored titles of the given kinds. Repeated and empty kinds are ignored.
func InvalidationPatterns(kinds ...catalog.Kind) []string {
	patterns := make([]string, 0, 3*len(kinds)+1)
	seen := make(map[catalog.Kind]bool, len(kinds))
	for _, kind := range kinds {
		if kind == "" || seen[kind] {
			continue
		}
		seen[kind] = true
		patterns = append(patterns,
			"titles:"+string(kind)+":*",
			"latest:"+string(kind)+":*",
			"trending:"+string(kind)+":*",
		)
	}
	return append(patterns, "similar:*")
}

// Run processes a batch. Only an invalid request returns an error; item
// failures, cancellation and maintenance problems are reported in the Report.
func (c *Coordinator) Run(ctx context.Context, req Request) (*Report, error) {
	kind, err := catalog.ParseKind(req.Kind)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "bulk", "run", "", err)
	}
	if _, err := catalog.ParseQuality(req.Quality); err != nil {
		return nil, services.Wrap(services.ErrValidation, "bulk", "run", "", err)
	}
	ids := make([]string, 0, len(req.ExternalIDs))
	for _, id := range req.ExternalIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	if len(ids) == 0 {
		return nil, services.Wrap(services.ErrValidation, "bulk", "run", "externalIds must contain at least one id", nil)
	}

	logger := logging.WithContext(ctx, c.logger)
	c.repair(ctx, logger)

	process := ids
	if limit := c.policy.BatchCap; limit > 0 && len(ids) > limit {
		process = ids[:limit]
	}

	report := &Report{
		Success: true,
		Total:   len(ids),
		Skipped: len(ids) - len(process),
		Results: Results{Success: []ItemSuccess{}, Failed: []ItemFailure{}},
	}
	if report.Skipped > 0 {
		logger.Info("bulk batch capped",
			logging.Int("processed", len(process)),
			logging.Int("skipped", report.Skipped),
		)
	}

	for _, id := range process {
		item := Item{ExternalID: id, Kind: kind, Quality: req.Quality}
		if err := ctx.Err(); err != nil {
			report.Results.Failed = append(report.Results.Failed, ItemFailure{ExternalID: id, Error: err.Error()})
			continue
		}
		success, failure := c.runItem(ctx, item)
		if success != nil {
			report.Results.Success = append(report.Results.Success, *success)
		} else {
			report.Results.Failed = append(report.Results.Failed, *failure)
		}
	}

	report.Imported = len(report.Results.Success)
	report.Failed = len(report.Results.Failed)
	c.metrics.AddBulkItems("success", report.Imported)
	c.metrics.AddBulkItems("failed", report.Failed)
	c.metrics.AddBulkItems("skipped", report.Skipped)

	if report.Imported > 0 {
		c.invalidate(logger, storedKinds(kind, report.Results.Success))
	}

	logger.Info("bulk batch finished",
		logging.String("kind", string(kind)),
		logging.Int("imported", report.Imported),
		logging.Int("failed", report.Failed),
		logging.Int("skipped", report.Skipped),
		logging.Int("total", report.Total),
	)
	return report, nil
}

func (c *Coordinator) repair(ctx context.Context, logger *slog.Logger) {
	if c.repairer == nil {
		return
	}
	if err := c.repairer.RepairSequences(ctx); err != nil {
		logging.WarnWithContext(logger, "sequence repair failed", "sequence_repair_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run catalogsync repair-sequences and check database permissions"),
			logging.String(logging.FieldImpact, "inserts may collide with existing ids"),
		)
	}
}

// runItem is the bounded retry loop for one item: 1+MaxRetries attempts, the
// wait before attempt k+1 being BackoffUnit*k.
func (c *Coordinator) runItem(ctx context.Context, item Item) (*ItemSuccess, *ItemFailure) {
	ctx = services.WithExternalID(ctx, item.ExternalID)
	logger := logging.WithContext(ctx, c.logger)
	maxAttempts := 1 + max(c.policy.MaxRetries, 0)

	var last Outcome
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		out, timedOut := c.attempt(ctx, item)
		last = out
		class := Classify(out, timedOut)

		if class == ClassSuccess {
			res := out.Result
			if res.Kind != "" && res.Kind != item.Kind {
				logging.WarnWithContext(logger, "imported title kind differs from batch kind", "bulk_kind_mismatch",
					logging.String("requested", string(item.Kind)),
					logging.String("stored", string(res.Kind)),
					logging.String(logging.FieldErrorHint, "submit the id with its provider kind"),
					logging.String(logging.FieldImpact, "title listed under its stored kind"),
				)
			}
			return &ItemSuccess{
				ExternalID:       item.ExternalID,
				Title:            res.Title,
				Kind:             res.Kind,
				SeasonsImported:  res.SeasonsImported,
				EpisodesImported: res.EpisodesImported,
				SeasonsSkipped:   res.SeasonsSkipped,
				EpisodesFailed:   res.EpisodesFailed,
				Attempts:         attempt,
			}, nil
		}
		if timedOut && out.Message == "" {
			last.Message = fmt.Sprintf("attempt timed out after %v", c.policy.ItemTimeout)
		}

		attemptLog := logger.With(
			logging.Int(logging.FieldAttempt, attempt),
			logging.Int("status", out.StatusCode),
			logging.String("class", class.String()),
			logging.String("error", last.Message),
		)
		if ctx.Err() != nil {
			return nil, failure(item, last, attempt, ctx.Err().Error())
		}
		if class == ClassPermanent {
			attemptLog.Info("bulk item failed permanently")
			return nil, failure(item, last, attempt, "")
		}
		if attempt == maxAttempts {
			logging.WarnWithContext(attemptLog, "bulk item retries exhausted", "bulk_retries_exhausted",
				logging.String(logging.FieldErrorHint, "check provider availability and credentials"),
				logging.String(logging.FieldImpact, "title not imported in this batch"),
			)
			return nil, failure(item, last, attempt, "")
		}

		delay := c.policy.BackoffUnit * time.Duration(attempt)
		attemptLog.Info("bulk item retrying", logging.Duration("backoff", delay))
		c.metrics.IncBulkRetry()
		if err := c.sleep(ctx, delay); err != nil {
			return nil, failure(item, last, attempt, err.Error())
		}
	}
	return nil, failure(item, last, maxAttempts, "")
}

func (c *Coordinator) attempt(ctx context.Context, item Item) (Outcome, bool) {
	if c.policy.ItemTimeout <= 0 {
		return c.dispatcher.Dispatch(ctx, item), false
	}
	attemptCtx, cancel := context.WithTimeout(ctx, c.policy.ItemTimeout)
	defer cancel()
	out := c.dispatcher.Dispatch(attemptCtx, item)
	timedOut := attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil
	return out, timedOut
}

func failure(item Item, out Outcome, attempts int, override string) *ItemFailure {
	message := out.Message
	if override != "" {
		message = override
	}
	if message == "" && out.Err != nil {
		message = out.Err.Error()
	}
	if message == "" {
		message = "import failed"
	}
	return &ItemFailure{
		ExternalID: item.ExternalID,
		Error:      message,
		Detail:     out.Detail,
		Status:     out.StatusCode,
		Attempts:   attempts,
	}
}

// storedKinds lists the batch kind first, then any other kind the provider
// reported for an imported title.
func storedKinds(requested catalog.Kind, successes []ItemSuccess) []catalog.Kind {
	kinds := []catalog.Kind{requested}
	for _, s := range successes {
		if s.Kind != "" && s.Kind != requested {
			kinds = append(kinds, s.Kind)
		}
	}
	return kinds
}

func (c *Coordinator) invalidate(logger *slog.Logger, kinds []catalog.Kind) {
	if c.invalidator == nil {
		return
	}
	removed := 0
	for _, pattern := range InvalidationPatterns(kinds...) {
		n, err := c.invalidator.Invalidate(pattern)
		if err != nil {
			logging.WarnWithContext(logger, "cache invalidation failed", "cache_invalidation_failed",
				logging.String("pattern", pattern),
				logging.Error(err),
				logging.String(logging.FieldImpact, "catalog reads may be stale until entries expire"),
			)
			continue
		}
		removed += n
	}
	c.metrics.AddCacheInvalidations(removed)
	logger.Debug("cache invalidated", logging.Any("kinds", kinds), logging.Int("keys", removed))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
