// Package gateway translates structured operations into BaseQL GraphQL
// requests and normalizes the responses. A Service is safe for concurrent
// use: it holds configuration only and keeps no state between requests.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xFoundry/baseql-mcp/gqlquery"
	"github.com/xFoundry/baseql-mcp/metrics"
	"github.com/xFoundry/baseql-mcp/upstream"
)

// Search match modes.
const (
	SearchExact    = "exact"
	SearchContains = "contains"
)

// Executor sends one GraphQL request and returns its data member.
// *upstream.Client satisfies it.
type Executor interface {
	Execute(ctx context.Context, req upstream.Request) (json.RawMessage, error)
}

// Config holds the settings a Service is built from.
type Config struct {
	Upstream upstream.Config
	// SearchMatch is SearchExact (default) or SearchContains.
	SearchMatch string
}

// Service runs gateway operations.
type Service struct {
	exec        Executor
	configErr   error
	searchMatch string
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// Option configures a Service during construction.
type Option func(*Service)

// WithExecutor uses e instead of an upstream.Client built from Config.
func WithExecutor(e Executor) Option {
	return func(s *Service) {
		s.exec = e
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithMetrics records operation and upstream metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New builds a Service. Unless WithExecutor is given, an upstream.Client is
// built from cfg.Upstream. When that fails the Service is still returned:
// every operation then reports CONFIGURATION_ERROR, and ConfigError returns
// the cause.
func New(cfg Config, opts ...Option) *Service {
	s := &Service{
		searchMatch: cfg.SearchMatch,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "gateway")

	switch s.searchMatch {
	case SearchExact, SearchContains:
	case "":
		s.searchMatch = SearchExact
	default:
		s.logger.Warn("unknown search match mode, using exact", "value", s.searchMatch)
		s.searchMatch = SearchExact
	}

	if s.exec == nil {
		client, err := upstream.NewClient(cfg.Upstream, upstream.WithLogger(s.logger))
		if err != nil {
			s.configErr = err
			s.logger.Warn("BaseQL is not configured, operations will fail until it is", "error", err)
		} else {
			s.exec = client
		}
	}
	return s
}

// ConfigError returns why the service has no upstream, or nil.
func (s *Service) ConfigError() error {
	if s.exec != nil {
		return nil
	}
	if s.configErr != nil {
		return s.configErr
	}
	return errors.New("no executor configured")
}

// Dispatch runs the named operation with JSON arguments. Arguments are
// validated against the operation schema before anything is sent upstream.
// Empty or null arguments are treated as {}.
func (s *Service) Dispatch(ctx context.Context, operation string, args json.RawMessage) (any, error) {
	op, ok := lookup(operation)
	if !ok {
		return nil, &gqlquery.Error{
			Code:    gqlquery.ErrMethodNotFound,
			Message: "unknown operation: " + operation,
			Details: map[string]any{"operation": operation, "available": OperationNames()},
		}
	}
	if trimmed := strings.TrimSpace(string(args)); trimmed == "" || trimmed == "null" {
		args = json.RawMessage("{}")
	}

	logger := s.logger.With("operation", operation, "request_id", uuid.NewString())
	logger.Debug("dispatching operation")
	start := time.Now()

	result, err := s.run(ctx, op, args)

	elapsed := time.Since(start)
	code := gqlquery.CodeOf(err)
	if code == "" {
		code = "OK"
	}
	s.metrics.ObserveOperation(operation, code, elapsed)
	if err != nil {
		logger.Warn("operation failed", "code", code, "error", err, "duration", elapsed)
		return nil, err
	}
	logger.Info("operation completed", "duration", elapsed)
	return result, nil
}

func (s *Service) run(ctx context.Context, op *Operation, args json.RawMessage) (any, error) {
	if err := op.validate(args); err != nil {
		return nil, err
	}
	return op.run(ctx, s, args)
}

// ready fails with CONFIGURATION_ERROR when there is no executor.
func (s *Service) ready() error {
	if s.exec != nil {
		return nil
	}
	return &gqlquery.Error{
		Code: gqlquery.ErrConfiguration,
		Message: "BaseQL is not configured: set BASEQL_ENDPOINT and BASEQL_API_KEY " +
			"(or endpoint and api_key in the config file) and restart",
		Details: map[string]any{"cause": s.ConfigError().Error()},
		Err:     s.configErr,
	}
}

// execute sends req and normalizes failures to UPSTREAM_ERROR.
func (s *Service) execute(ctx context.Context, req upstream.Request) (json.RawMessage, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	data, err := s.exec.Execute(ctx, req)
	s.metrics.ObserveUpstream(upstreamOutcome(err))
	if err != nil {
		return nil, upstreamFailure(err)
	}
	return data, nil
}

func upstreamOutcome(err error) string {
	var gqlErr *upstream.GraphQLError
	var httpErr *upstream.HTTPError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &gqlErr):
		return "graphql_error"
	case errors.As(err, &httpErr):
		return "http_error"
	default:
		return "transport_error"
	}
}

// upstreamFailure wraps an executor error as UPSTREAM_ERROR. Errors that
// already carry a code pass through.
func upstreamFailure(err error) error {
	var coded *gqlquery.Error
	if errors.As(err, &coded) {
		return err
	}

	e := &gqlquery.Error{
		Code:    gqlquery.ErrUpstream,
		Message: "BaseQL request failed: " + err.Error(),
		Err:     err,
	}
	var gqlErr *upstream.GraphQLError
	var httpErr *upstream.HTTPError
	switch {
	case errors.As(err, &gqlErr):
		e.Message = "BaseQL returned errors: " + gqlErr.Error()
		e.Details = map[string]any{"errors": gqlErr.Errors}
	case errors.As(err, &httpErr):
		e.Details = map[string]any{"status": httpErr.StatusCode}
	}
	return e
}

var upstreamHints = []struct {
	match string
	hint  string
}{
	{"Unknown type", "table names are case-sensitive; check them with listTables"},
	{"Unknown argument", "BaseQL accepts only _filter, _order_by, _page_size and _page; use the filter, sort, limit and offset parameters"},
	{"Cannot query field", "check the table name with listTables and field names with getTableSchema"},
	{"Unknown field", "check field names with getTableSchema"},
}

// withHints appends remediation hints to an UPSTREAM_ERROR whose message
// matches a known BaseQL failure.
func withHints(err error) error {
	var e *gqlquery.Error
	if !errors.As(err, &e) || e.Code != gqlquery.ErrUpstream {
		return err
	}
	var hints []string
	for _, h := range upstreamHints {
		if strings.Contains(e.Message, h.match) {
			hints = append(hints, h.hint)
		}
	}
	if len(hints) == 0 {
		return err
	}
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details["hints"] = hints
	e.Message += " (hint: " + strings.Join(hints, "; ") + ")"
	return e
}
