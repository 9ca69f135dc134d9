// Package catalog consume la API pública del catálogo musical (Deezer).
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Client define las consultas de solo lectura al catálogo.
type Client interface {
	Search(ctx context.Context, query string) (json.RawMessage, error)
	Track(ctx context.Context, id string) (json.RawMessage, error)
	Album(ctx context.Context, id string) (json.RawMessage, error)
	Artist(ctx context.Context, id string) (json.RawMessage, error)
}

var (
	ErrFetchFailed  = errors.New("catalog fetch failed")
	ErrInvalidQuery = errors.New("catalog query invalid")
)

// UpstreamError es una respuesta no exitosa del catálogo.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("catalog upstream status=%d", e.Status)
}

func (e *UpstreamError) Unwrap() error {
	return ErrFetchFailed
}

const maxBodyBytes = 4 << 20

// HTTPClient implementa Client contra la API HTTP. No reintenta.
type HTTPClient struct {
	baseURL  string
	client   *http.Client
	cache    Cache
	cacheTTL time.Duration
	logger   *zap.Logger
	group    singleflight.Group
}

type Option func(*HTTPClient)

func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *HTTPClient) {
		if cache != nil {
			c.cache = cache
			c.cacheTTL = ttl
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		if client != nil {
			c.client = client
		}
	}
}

// NewHTTPClient construye el cliente; timeout <= 0 usa 10s.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger, opts ...Option) *HTTPClient {
	if baseURL == "" {
		baseURL = "https://api.deezer.com"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) Search(ctx context.Context, query string) (json.RawMessage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidQuery
	}
	return c.get(ctx, "/search?q="+url.QueryEscape(query))
}

func (c *HTTPClient) Track(ctx context.Context, id string) (json.RawMessage, error) {
	return c.getByID(ctx, "track", id)
}

func (c *HTTPClient) Album(ctx context.Context, id string) (json.RawMessage, error) {
	return c.getByID(ctx, "album", id)
}

func (c *HTTPClient) Artist(ctx context.Context, id string) (json.RawMessage, error) {
	return c.getByID(ctx, "artist", id)
}

func (c *HTTPClient) getByID(ctx context.Context, kind, id string) (json.RawMessage, error) {
	if !isNumericID(id) {
		return nil, ErrInvalidQuery
	}
	return c.get(ctx, "/"+kind+"/"+id)
}

func (c *HTTPClient) get(ctx context.Context, path string) (json.RawMessage, error) {
	if c.cache != nil {
		cached, ok, err := c.cache.Get(path)
		if err != nil {
			c.logger.Warn("catalog cache get failed", zap.Error(err), zap.String("path", path))
		} else if ok {
			return json.RawMessage(cached), nil
		}
	}

	// La consulta compartida no depende del contexto del primer llamador;
	// la acota el timeout del http.Client.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(path, func() (interface{}, error) {
		return c.fetch(shared, path)
	})
	var body []byte
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		body = res.Val.([]byte)
	}

	if c.cache != nil {
		if err := c.cache.Set(path, body, c.cacheTTL); err != nil {
			c.logger.Warn("catalog cache set failed", zap.Error(err), zap.String("path", path))
		}
	}
	return json.RawMessage(body), nil
}

func (c *HTTPClient) fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: do request: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrFetchFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("catalog error status",
			zap.Int("status", resp.StatusCode),
			zap.String("path", path),
		)
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: response is not json", ErrFetchFailed)
	}
	return body, nil
}

func isNumericID(id string) bool {
	if id == "" || len(id) > 20 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
