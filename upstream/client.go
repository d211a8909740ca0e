// Package upstream is the HTTP transport to the BaseQL GraphQL endpoint.
// A Client is created once from validated configuration and is safe for
// concurrent use; it holds no per-request state.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/vektah/gqlparser/v2/gqlerror"
	"golang.org/x/time/rate"

	"github.com/xFoundry/baseql-mcp/gqlquery"
)

const bearerPrefix = "Bearer "

// Config holds the connection settings for the upstream endpoint.
type Config struct {
	Endpoint string
	APIKey   string

	// RequestsPerSecond paces outgoing requests. <= 0 disables pacing.
	RequestsPerSecond float64
	// Burst is the limiter bucket size; defaults to 1 when pacing is on.
	Burst int

	UserAgent string
}

// Request is a GraphQL request body.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// response is the GraphQL response envelope.
type response struct {
	Data   json.RawMessage `json:"data"`
	Errors gqlerror.List   `json:"errors,omitempty"`
}

// Client executes GraphQL requests against BaseQL.
type Client struct {
	endpoint      string
	authorization string
	userAgent     string
	httpClient    *http.Client
	limiter       *rate.Limiter
	logger        *slog.Logger
}

// Option configures a Client during construction.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient validates cfg and builds a Client. A missing endpoint or API key
// is a configuration error.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, configError("BaseQL endpoint is not set", "endpoint")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, configError("BaseQL API key is not set", "api_key")
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, configError(fmt.Sprintf("BaseQL endpoint %q is not an http(s) URL", cfg.Endpoint), "endpoint")
	}

	c := &Client{
		endpoint:      cfg.Endpoint,
		authorization: BearerToken(cfg.APIKey),
		userAgent:     cfg.UserAgent,
		httpClient:    &http.Client{},
		logger:        slog.Default(),
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "upstream")
	return c, nil
}

// BearerToken normalizes an API key into an Authorization header value,
// adding the "Bearer " prefix only when it is missing.
func BearerToken(key string) string {
	key = strings.TrimSpace(key)
	if strings.HasPrefix(key, bearerPrefix) {
		return key
	}
	return bearerPrefix + key
}

// Endpoint returns the configured endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Execute sends req and returns the response's data member.
//
// Errors:
//   - *HTTPError for non-2xx responses
//   - *GraphQLError when the response carries a non-empty errors list
//   - a wrapped transport or decode error otherwise
func (c *Client) Execute(ctx context.Context, req Request) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", c.authorization)
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug("sending request", "operation", req.OperationName, "bytes", len(body))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// BaseQL reports GraphQL errors with a 400 status and a normal
		// envelope; prefer those messages over the raw body.
		var env response
		if json.Unmarshal(raw, &env) == nil && len(env.Errors) > 0 {
			return nil, &GraphQLError{Errors: env.Errors, Data: env.Data}
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
	}

	var env response
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(env.Errors) > 0 {
		return nil, &GraphQLError{Errors: env.Errors, Data: env.Data}
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("response has neither data nor errors")
	}
	return env.Data, nil
}

func configError(msg, key string) error {
	return &gqlquery.Error{
		Code:    gqlquery.ErrConfiguration,
		Message: msg,
		Details: map[string]any{"key": key},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
