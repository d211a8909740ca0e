package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xFoundry/baseql-mcp/gqlquery"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BASEQL_ENDPOINT", "")
	t.Setenv("BASEQL_API_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Endpoint)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, SearchExact, cfg.SearchMatch)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1, cfg.Burst)
	assert.Equal(t, gqlquery.JSONOutput, cfg.OutputMode())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("BASEQL_ENDPOINT", "https://api.baseql.com/airtable/graphql/appXYZ")
	t.Setenv("BASEQL_API_KEY", "Bearer tok")
	t.Setenv("BASEQL_OUTPUT_FORMAT", "compact")
	t.Setenv("BASEQL_REQUESTS_PER_SECOND", "2.5")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://api.baseql.com/airtable/graphql/appXYZ", cfg.Endpoint)
	assert.Equal(t, "Bearer tok", cfg.APIKey)
	assert.Equal(t, 2.5, cfg.RequestsPerSecond)
	assert.Equal(t, gqlquery.CompactOutput, cfg.OutputMode())

	up := cfg.Upstream("ua")
	assert.Equal(t, cfg.Endpoint, up.Endpoint)
	assert.Equal(t, "ua", up.UserAgent)
}

func TestLoad_File(t *testing.T) {
	t.Setenv("BASEQL_ENDPOINT", "")
	t.Setenv("BASEQL_API_KEY", "")

	path := filepath.Join(t.TempDir(), "baseql.yaml")
	require.NoError(t, os.WriteFile(path, []byte("endpoint: https://example.com/graphql\napi_key: abc\nsearch_match: contains\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/graphql", cfg.Endpoint)
	assert.Equal(t, "abc", cfg.APIKey)
	assert.Equal(t, SearchContains, cfg.SearchMatch)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, gqlquery.ErrConfiguration, gqlquery.CodeOf(err))
}

func TestValidate_Rejects(t *testing.T) {
	tests := map[string]Config{
		"output":   {OutputFormat: "xml"},
		"search":   {SearchMatch: "fuzzy"},
		"level":    {LogLevel: "trace"},
		"format":   {LogFormat: "yaml"},
		"negative": {RequestsPerSecond: -1},
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, gqlquery.ErrConfiguration, gqlquery.CodeOf(err))
		})
	}
}

func TestValidate_Normalizes(t *testing.T) {
	cfg := Config{Endpoint: "  https://x.io/graphql ", APIKey: " k ", SearchMatch: "CONTAINS", LogLevel: "DEBUG"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://x.io/graphql", cfg.Endpoint)
	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, SearchContains, cfg.SearchMatch)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 1, cfg.Burst)
}
