package dataapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/azariak/PolymarketDataVisualizer/internal/cache"
)

const DefaultHost = "https://data-api.polymarket.com"

// maxBodyBytes caps a single page; a full 10k-row trades page is a few MB.
const maxBodyBytes = 64 << 20

// ErrBodyTooLarge means a response exceeded the per-page size cap.
var ErrBodyTooLarge = errors.New("response body too large")

type Client struct {
	host         string
	httpClient   *http.Client
	cache        cache.Store
	cacheTTL     time.Duration
	logger       *zap.Logger
	maxBodyBytes int64
}

// RequestError is a non-200 answer from the data API.
type RequestError struct {
	Status int
	Path   string
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("data api %s: status %d: %s", e.Path, e.Status, e.Body)
}

type Option func(*Client)

// WithCache stores successful bodies under their full URL for ttl.
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = store
		c.cacheTTL = ttl
	}
}

// WithMaxBodyBytes overrides the per-response size cap.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

type bypassCacheKey struct{}

// BypassCache marks ctx so GetJSON skips cached bodies and always asks
// upstream. Fresh answers are still written to the cache.
func BypassCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassCacheKey{}, true)
}

func bypassesCache(ctx context.Context) bool {
	v, _ := ctx.Value(bypassCacheKey{}).(bool)
	return v
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(httpClient *http.Client, host string, opts ...Option) *Client {
	if host == "" {
		host = DefaultHost
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	c := &Client{
		host:         strings.TrimRight(host, "/"),
		httpClient:   httpClient,
		logger:       zap.NewNop(),
		maxBodyBytes: maxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

func (c *Client) Host() string {
	return c.host
}

// GetJSON performs a GET against path and returns the raw body of a 200 answer.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.host + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}

	if c.cache != nil && c.cacheTTL > 0 && !bypassesCache(ctx) {
		body, found, err := c.cache.Get(ctx, fullURL)
		if err != nil {
			c.logger.Warn("response cache get failed", zap.String("path", path), zap.Error(err))
		} else if found {
			return body, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, fmt.Errorf("data api %s: %w (limit %d bytes)", path, ErrBodyTooLarge, c.maxBodyBytes)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &RequestError{Status: resp.StatusCode, Path: path, Body: truncate(strings.TrimSpace(string(body)), 512)}
	}

	if c.cache != nil && c.cacheTTL > 0 {
		if err := c.cache.Set(ctx, fullURL, body, c.cacheTTL); err != nil {
			c.logger.Warn("response cache set failed", zap.String("path", path), zap.Error(err))
		}
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
