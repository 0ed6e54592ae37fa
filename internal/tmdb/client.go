// Package tmdb resolves the secondary TMDB identifier for a title already
// known by its IMDb ID.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"catalogsync/internal/catalog"
	"catalogsync/internal/logging"
	"catalogsync/internal/services"
)

// Match is a single entry of a /find response.
type Match struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
}

// FindResponse models the TMDB /find payload.
type FindResponse struct {
	MovieResults []Match `json:"movie_results"`
	TVResults    []Match `json:"tv_results"`
}

// Resolver looks up TMDB identifiers.
type Resolver interface {
	FindByIMDbID(ctx context.Context, imdbID string, kind catalog.Kind) (int64, error)
}

// Client provides access to the TMDB find endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Resolver = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "tmdb")
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logging.NewComponentLogger(nil, "tmdb"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// FindByIMDbID returns the TMDB ID matching imdbID. Series prefer tv_results,
// movies prefer movie_results; the other list is used as a fallback. No match
// yields an error wrapping services.ErrNotFound.
func (c *Client) FindByIMDbID(ctx context.Context, imdbID string, kind catalog.Kind) (int64, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return 0, services.Wrap(services.ErrValidation, "tmdb", "find", "imdb id must not be empty", nil)
	}
	endpoint, err := url.Parse(c.baseURL + "/find/" + url.PathEscape(imdbID))
	if err != nil {
		return 0, fmt.Errorf("parse tmdb url: %w", err)
	}
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("external_source", "imdb_id")
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, "tmdb", "find", fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	c.logger.Debug("tmdb find",
		logging.String(logging.FieldExternalID, imdbID),
		logging.Int("status", resp.StatusCode),
		logging.Duration("latency", latency),
	)

	if resp.StatusCode != http.StatusOK {
		marker := services.ErrPermanent
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			marker = services.ErrTransient
		}
		return 0, services.Wrap(marker, "tmdb", "find", fmt.Sprintf("returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	var payload FindResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, services.Wrap(services.ErrPermanent, "tmdb", "find", "decode response", err)
	}

	primary, fallback := payload.MovieResults, payload.TVResults
	if kind == catalog.KindSeries {
		primary, fallback = fallback, primary
	}
	for _, list := range [][]Match{primary, fallback} {
		for _, match := range list {
			if match.ID > 0 {
				return match.ID, nil
			}
		}
	}
	return 0, services.Wrap(services.ErrNotFound, "tmdb", "find", "no match for "+imdbID, nil)
}
