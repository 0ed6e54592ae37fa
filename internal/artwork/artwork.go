// Package artwork downloads provider posters into a local directory served
// under a public prefix. Every failure degrades to "no artwork".
package artwork

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"catalogsync/internal/config"
	"catalogsync/internal/fileutil"
	"catalogsync/internal/logging"
)

// ImageStore persists a remote image and returns its public path, or "" when
// the image could not be stored.
type ImageStore interface {
	StoreImage(ctx context.Context, sourceURL, logicalName string) string
}

// Store writes images beneath a directory.
type Store struct {
	dir        string
	prefix     string
	maxBytes   int64
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ImageStore = (*Store)(nil)

var unsafeName = regexp.MustCompile(`[^a-z0-9._-]+`)

var allowedExt = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {},
}

// New constructs a Store from the artwork config section.
func New(cfg config.Artwork, logger *slog.Logger) *Store {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Store{
		dir:        cfg.Dir,
		prefix:     strings.TrimRight(cfg.PublicPrefix, "/"),
		maxBytes:   cfg.MaxBytes,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewComponentLogger(logger, "artwork"),
	}
}

// WithHTTPClient swaps the download client.
func (s *Store) WithHTTPClient(client *http.Client) *Store {
	if client != nil {
		s.httpClient = client
	}
	return s
}

// StoreImage downloads sourceURL to <dir>/<logicalName><ext> and returns
// <prefix>/<file>.
func (s *Store) StoreImage(ctx context.Context, sourceURL, logicalName string) string {
	logger := logging.WithContext(ctx, s.logger)
	file, err := fileName(sourceURL, logicalName)
	if err != nil {
		logging.WarnWithContext(logger, "artwork skipped", "artwork_invalid",
			logging.Error(err),
			logging.String(logging.FieldImpact, "title stored without artwork"),
		)
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		logger.Warn("artwork request build failed", logging.Error(err))
		return ""
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		logging.WarnWithContext(logger, "artwork download failed", "artwork_download",
			logging.Error(err),
			logging.String("url", sourceURL),
			logging.String(logging.FieldErrorHint, "check network access to the image host"),
			logging.String(logging.FieldImpact, "title stored without artwork"),
		)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logging.WarnWithContext(logger, "artwork download rejected", "artwork_download",
			logging.Int("status", resp.StatusCode),
			logging.String("url", sourceURL),
			logging.String(logging.FieldImpact, "title stored without artwork"),
		)
		return ""
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		logging.WarnWithContext(logger, "artwork has unexpected content type", "artwork_content_type",
			logging.String("content_type", ct),
			logging.String(logging.FieldImpact, "title stored without artwork"),
		)
		return ""
	}

	written, err := fileutil.WriteAtomic(s.dir, file, resp.Body, s.maxBytes)
	if err != nil {
		logging.WarnWithContext(logger, "artwork write failed", "artwork_write",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check artwork.dir permissions and artwork.max_bytes"),
			logging.String(logging.FieldImpact, "title stored without artwork"),
		)
		return ""
	}
	logger.Debug("artwork stored", logging.String("file", file), logging.Int64("bytes", written))
	return s.prefix + "/" + file
}

func fileName(sourceURL, logicalName string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(sourceURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", fmt.Errorf("unsupported image url %q", sourceURL)
	}
	base := unsafeName.ReplaceAllString(strings.ToLower(strings.TrimSpace(logicalName)), "-")
	base = strings.Trim(base, "-.")
	if base == "" {
		return "", fmt.Errorf("logical name %q has no usable characters", logicalName)
	}
	ext := strings.ToLower(path.Ext(parsed.Path))
	if _, ok := allowedExt[ext]; !ok {
		ext = ".jpg"
	}
	return base + ext, nil
}
