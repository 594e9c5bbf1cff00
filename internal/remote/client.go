// Package remote is the HTTP client for the persistence service that
// stores projects, studies, and annotations. The engine depends only
// on CRUD per entity kind; transport details stay behind this package.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the persistence API base URL.
	DefaultBaseURL = "https://api.cura.seibert-lab.org/v1"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit caps outbound requests per second.
	RateLimit = 10.0
)

// Kind names one entity collection of the persistence API.
type Kind string

const (
	KindStudy         Kind = "studies"
	KindAnnotation    Kind = "annotations"
	KindProject       Kind = "projects"
	KindCondition     Kind = "conditions"
	KindPoint         Kind = "points"
	KindMetaAnalysis  Kind = "meta-analyses"
	KindSpecification Kind = "specifications"
)

// Client is a rate-limited HTTP client for the persistence API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
	logger     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a persistence API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    DefaultBaseURL,
		logger:     zap.NewNop(),
	}

	// Check for API key in environment
	if key := os.Getenv("CURA_API_KEY"); key != "" {
		c.apiKey = key
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// do issues one request and decodes the JSON response into out, which
// may be nil for operations with no payload.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.Debug("persistence request", zap.String("method", method), zap.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, path); err != nil {
		return err
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response for %s: %w", path, err)
	}
	return nil
}

// checkStatus converts an error response into an APIError carrying the
// server's message when one is present.
func checkStatus(resp *http.Response, resource string) error {
	if resp.StatusCode < 400 {
		return nil
	}

	msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
	var payload struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16)); err == nil {
		if json.Unmarshal(data, &payload) == nil {
			if payload.Message != "" {
				msg = payload.Message
			} else if payload.Detail != "" {
				msg = payload.Detail
			}
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    msg,
		Resource:   strings.TrimPrefix(resource, "/"),
	}
}

// Create persists a new entity and returns the server's snapshot,
// which carries the assigned id.
func Create[T any](ctx context.Context, c *Client, kind Kind, payload T) (T, error) {
	var out T
	if err := c.do(ctx, http.MethodPost, "/"+string(kind), payload, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Read fetches one entity by id.
func Read[T any](ctx context.Context, c *Client, kind Kind, id string) (T, error) {
	var out T
	if err := c.do(ctx, http.MethodGet, "/"+string(kind)+"/"+id, nil, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Update applies a partial update and returns the resulting snapshot.
func Update[T any](ctx context.Context, c *Client, kind Kind, id string, partial any) (T, error) {
	var out T
	if err := c.do(ctx, http.MethodPut, "/"+string(kind)+"/"+id, partial, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Delete removes one entity by id.
func Delete(ctx context.Context, c *Client, kind Kind, id string) error {
	return c.do(ctx, http.MethodDelete, "/"+string(kind)+"/"+id, nil, nil)
}

// List fetches every entity of a collection, optionally scoped to a
// parent project.
func List[T any](ctx context.Context, c *Client, kind Kind, projectID string) ([]T, error) {
	path := "/" + string(kind)
	if projectID != "" {
		q := url.Values{"project": {projectID}}
		path += "?" + q.Encode()
	}
	var out []T
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EntityClient binds a Client to one entity kind and element type. It
// satisfies the resource interfaces the sync coordinator consumes.
type EntityClient[T any] struct {
	c    *Client
	kind Kind
}

// NewEntityClient returns a typed view over one collection.
func NewEntityClient[T any](c *Client, kind Kind) *EntityClient[T] {
	return &EntityClient[T]{c: c, kind: kind}
}

func (e *EntityClient[T]) Create(ctx context.Context, payload T) (T, error) {
	return Create[T](ctx, e.c, e.kind, payload)
}

func (e *EntityClient[T]) Read(ctx context.Context, id string) (T, error) {
	return Read[T](ctx, e.c, e.kind, id)
}

func (e *EntityClient[T]) Update(ctx context.Context, id string, partial any) (T, error) {
	return Update[T](ctx, e.c, e.kind, id, partial)
}

func (e *EntityClient[T]) Delete(ctx context.Context, id string) error {
	return Delete(ctx, e.c, e.kind, id)
}
