package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"catalogsync/internal/catalog"
	"catalogsync/internal/logging"
	"catalogsync/internal/services"
)

// Fetcher is the metadata surface the importer depends on.
type Fetcher interface {
	FetchTitle(ctx context.Context, id string) (*catalog.NormalizedTitle, error)
	FetchSeason(ctx context.Context, id string, season int) (*catalog.NormalizedSeason, error)
}

// Client talks to an OMDb-compatible API.
type Client struct {
	apiKey     string
	baseURL    string
	plot       string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

var _ Fetcher = (*Client)(nil)

const maxBodyBytes = 2 << 20

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

// WithRateLimit caps outgoing requests per second. Zero disables throttling.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger attaches a logger for request latency tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "omdb")
	}
}

// WithPlot selects the short or full synopsis.
func WithPlot(plot string) Option {
	return func(c *Client) {
		if p := strings.TrimSpace(plot); p != "" {
			c.plot = p
		}
	}
}

// New creates an OMDb client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("omdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("omdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		plot:       "full",
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logging.NewComponentLogger(nil, "omdb"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// FetchTitle looks up a movie or series by IMDb ID.
func (c *Client) FetchTitle(ctx context.Context, id string) (*catalog.NormalizedTitle, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrValidation, "omdb", "fetch title", "id must not be empty", nil)
	}
	params := url.Values{}
	params.Set("i", id)
	params.Set("plot", c.plot)

	var payload titlePayload
	if err := c.get(ctx, "title lookup", params, &payload, &payload.envelope); err != nil {
		return nil, err
	}
	title := normalizeTitle(payload)
	if title.IMDbID == "" {
		title.IMDbID = id
	}
	if title.Title == "" {
		return nil, &ProviderError{Operation: "title lookup", Message: "response carried no title", Kind: services.ErrPermanent}
	}
	return title, nil
}

// FetchSeason lists one season of a series. A missing season yields an error
// wrapping services.ErrNotFound.
func (c *Client) FetchSeason(ctx context.Context, id string, season int) (*catalog.NormalizedSeason, error) {
	id = strings.TrimSpace(id)
	if id == "" || season <= 0 {
		return nil, services.Wrap(services.ErrValidation, "omdb", "fetch season",
			fmt.Sprintf("invalid id %q or season %d", id, season), nil)
	}
	params := url.Values{}
	params.Set("i", id)
	params.Set("Season", strconv.Itoa(season))

	var payload seasonPayload
	if err := c.get(ctx, "season lookup", params, &payload, &payload.envelope); err != nil {
		return nil, err
	}
	return normalizeSeason(season, payload), nil
}

// get issues one request and decodes the body into dst. env must point at the
// envelope embedded in dst.
func (c *Client) get(ctx context.Context, operation string, params url.Values, dst any, env *envelope) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &ProviderError{Operation: operation, Message: "rate limiter", Kind: services.ErrTransient, Err: err}
		}
	}

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("parse omdb url: %w", err)
	}
	query := endpoint.Query()
	for key, values := range params {
		query[key] = values
	}
	query.Set("apikey", c.apiKey)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return &ProviderError{Operation: operation, Message: fmt.Sprintf("request failed (latency=%v)", latency), Kind: services.ErrTransient, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("omdb request",
		logging.String("operation", operation),
		logging.String("id", params.Get("i")),
		logging.Int("status", resp.StatusCode),
		logging.Duration("latency", latency),
	)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &ProviderError{Operation: operation, Status: resp.StatusCode, Message: "read body", Kind: services.ErrTransient, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		message := strings.TrimSpace(string(body))
		var failure envelope
		if json.Unmarshal(body, &failure) == nil && failure.Error != "" {
			message = failure.Error
		}
		if len(message) > 200 {
			message = message[:200]
		}
		return &ProviderError{Operation: operation, Status: resp.StatusCode, Message: message, Kind: classifyStatus(resp.StatusCode)}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return &ProviderError{Operation: operation, Status: resp.StatusCode, Message: "decode response", Kind: services.ErrPermanent, Err: err}
	}
	if !env.ok() {
		return &ProviderError{Operation: operation, Status: resp.StatusCode, Message: env.Error, Kind: classifyMessage(env.Error)}
	}
	return nil
}
