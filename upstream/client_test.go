package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xFoundry/baseql-mcp/gqlquery"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

// --- NewClient tests ---

func TestNewClient_MissingConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		key  string
	}{
		{"no endpoint", Config{APIKey: "k"}, "endpoint"},
		{"blank endpoint", Config{Endpoint: "  ", APIKey: "k"}, "endpoint"},
		{"no key", Config{Endpoint: "https://api.baseql.com/airtable/graphql/app"}, "api_key"},
		{"bad scheme", Config{Endpoint: "ftp://example.com", APIKey: "k"}, "endpoint"},
		{"not a url", Config{Endpoint: "just-text", APIKey: "k"}, "endpoint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.cfg)
			require.Error(t, err)
			assert.Nil(t, c)

			var e *gqlquery.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, gqlquery.ErrConfiguration, e.Code)
			assert.Equal(t, tt.key, e.Details["key"])
		})
	}
}

// --- BearerToken tests ---

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "Bearer abc", BearerToken("abc"))
	assert.Equal(t, "Bearer abc", BearerToken("Bearer abc"))
	assert.Equal(t, "Bearer abc", BearerToken("  abc\n"))
}

// --- Execute tests ---

func TestExecute_SendsRequest(t *testing.T) {
	var got Request
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "baseql-mcp/test", r.Header.Get("User-Agent"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))

		_, _ = w.Write([]byte(`{"data":{"users":[{"id":"r1"}]}}`))
	})

	c, err := NewClient(Config{Endpoint: srv.URL, APIKey: "Bearer secret", UserAgent: "baseql-mcp/test"})
	require.NoError(t, err)

	data, err := c.Execute(context.Background(), Request{
		Query:         "query QueryTable { users { id } }",
		Variables:     map[string]any{"x": 1.0},
		OperationName: "QueryTable",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"users":[{"id":"r1"}]}`, string(data))
	assert.Equal(t, "QueryTable", got.OperationName)
	assert.Equal(t, map[string]any{"x": 1.0}, got.Variables)
}

func TestExecute_GraphQLErrors(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":null,"errors":[{"message":"Cannot query field \"nope\" on type \"users\".","locations":[{"line":3,"column":5}]},{"message":"second"}]}`))
	})
	c, err := NewClient(Config{Endpoint: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), Request{Query: "{ users { nope } }"})
	require.Error(t, err)

	var ge *GraphQLError
	require.ErrorAs(t, err, &ge)
	assert.Len(t, ge.Errors, 2)
	assert.Equal(t, 3, ge.Errors[0].Locations[0].Line)
	assert.Equal(t, `Cannot query field "nope" on type "users".; second`, ge.Error())
}

func TestExecute_ErrorEnvelopeOnBadRequest(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"Syntax Error: Expected Name, found <EOF>."}]}`))
	})
	c, err := NewClient(Config{Endpoint: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), Request{Query: "{"})
	var ge *GraphQLError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, []string{"Syntax Error: Expected Name, found <EOF>."}, ge.Messages())
}

func TestExecute_HTTPError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	})
	c, err := NewClient(Config{Endpoint: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), Request{Query: "{ a }"})
	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.StatusCode)
	assert.Contains(t, he.Error(), "invalid token")
}

func TestExecute_MalformedBody(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	})
	c, err := NewClient(Config{Endpoint: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), Request{Query: "{ a }"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestExecute_MissingData(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	c, err := NewClient(Config{Endpoint: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), Request{Query: "{ a }"})
	require.Error(t, err)
}

func TestExecute_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(Config{Endpoint: url, APIKey: "k"})
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), Request{Query: "{ a }"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request to")
}

func TestExecute_RateLimitedHonorsContext(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"data":{}}`))
	})
	c, err := NewClient(Config{Endpoint: srv.URL, APIKey: "k", RequestsPerSecond: 0.001, Burst: 1})
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), Request{Query: "{ a }"})
	require.NoError(t, err)

	// The bucket is now empty and refills far slower than the deadline.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Execute(ctx, Request{Query: "{ a }"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
