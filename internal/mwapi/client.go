package mwapi

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"media-lightbox/internal/cache"
	"media-lightbox/internal/logging"
	"media-lightbox/internal/metrics"
)

var logger = logging.For("mwapi")

// DefaultMaxAge is how long responses are cached when no max age is configured.
const DefaultMaxAge = 24 * time.Hour

const maxResponseBytes = 8 << 20

// Client performs cached API requests against one endpoint.
type Client struct {
	apiURL     string
	httpClient *http.Client
	store      cache.Store
	maxAge     time.Duration
	retry      RetryConfig
	userAgent  string
	group      singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCache caches responses in store for maxAge.
func WithCache(store cache.Store, maxAge time.Duration) Option {
	return func(c *Client) {
		c.store = store
		c.maxAge = maxAge
	}
}

// WithRetry sets the retry policy.
func WithRetry(config RetryConfig) Option {
	return func(c *Client) {
		c.retry = config
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client for the api.php endpoint at apiURL.
func NewClient(apiURL string, opts ...Option) *Client {
	c := &Client{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		store:      cache.Nop{},
		maxAge:     DefaultMaxAge,
		retry:      DefaultRetryConfig(),
		userAgent:  "media-lightbox/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIURL returns the endpoint.
func (c *Client) APIURL() string {
	return c.apiURL
}

// ForEndpoint returns a client for another endpoint sharing this client's
// HTTP client, cache and retry policy.
func (c *Client) ForEndpoint(apiURL string) *Client {
	if apiURL == "" || apiURL == c.apiURL {
		return c
	}
	return &Client{
		apiURL:     apiURL,
		httpClient: c.httpClient,
		store:      c.store,
		maxAge:     c.maxAge,
		retry:      c.retry,
		userAgent:  c.userAgent,
	}
}

// cacheKey hashes the full request so keys have a fixed length.
func (c *Client) cacheKey(module string, query string) string {
	sum := blake2b.Sum256([]byte(c.apiURL + "?" + query))
	return module + ":" + hex.EncodeToString(sum[:])
}

// Get performs a GET request with params and decodes the response into out.
// module names the request in metrics and cache keys.
func (c *Client) Get(ctx context.Context, module string, params url.Values, out any) error {
	query := make(url.Values, len(params)+2)
	for k, v := range params {
		query[k] = v
	}
	query.Set("format", "json")
	query.Set("formatversion", "2")
	encoded := query.Encode()
	key := c.cacheKey(module, encoded)

	backend := c.store.Backend()
	if body, err := c.store.Get(ctx, key); err == nil {
		metrics.APICacheHits.WithLabelValues(backend).Inc()
		return decode(module, body, out)
	} else if !errors.Is(err, cache.ErrMiss) {
		logger.Warn("cache read for %s failed: %v", module, err)
	}
	metrics.APICacheMisses.WithLabelValues(backend).Inc()

	// The shared request must not die with the first caller; each caller
	// still stops waiting when its own context ends.
	ch := c.group.DoChan(key, func() (any, error) {
		return c.fetch(context.WithoutCancel(ctx), module, encoded)
	})
	var result singleflight.Result
	select {
	case result = <-ch:
	case <-ctx.Done():
		return ctx.Err()
	}
	if result.Err != nil {
		return result.Err
	}
	body := result.Val.([]byte)

	if err := decode(module, body, out); err != nil {
		return err
	}

	if err := c.store.Set(ctx, key, body, c.maxAge); err != nil {
		logger.Warn("cache write for %s failed: %v", module, err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, module, query string) ([]byte, error) {
	start := time.Now()
	target := c.apiURL + "?" + query

	var body []byte
	err := withRetry(ctx, c.retry, func() error {
		var err error
		body, err = c.do(ctx, module, target)
		return err
	}, func(attempt int, err error) {
		metrics.APIRetryAttempts.WithLabelValues(module).Inc()
		logger.Debug("%s request failed, retrying (attempt %d/%d): %v", module, attempt, c.retry.MaxRetries, err)
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.APIRequestsTotal.WithLabelValues(module, status).Inc()
	metrics.APIRequestDuration.WithLabelValues(module).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, fmt.Errorf("%s request: %w", module, err)
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, module, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: target}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	// Error payloads are not cached.
	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if envelope.Error != nil {
		envelope.Error.Module = module
		return nil, envelope.Error
	}
	return body, nil
}

func decode(module string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w from %s: %v", ErrBadResponse, module, err)
	}
	return nil
}
