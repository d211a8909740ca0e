// Command baseql-mcp serves a BaseQL GraphQL endpoint to LLM clients as
// MCP tools.
//
// Usage:
//
//	baseql-mcp serve [--metrics-addr :9090]
//	baseql-mcp call listTables
//	baseql-mcp call queryTable '{"tableName":"people","limit":5}' --format compact
//	baseql-mcp operations
//
// Configuration comes from BASEQL_* environment variables and an optional
// config file (--config or BASEQL_CONFIG).
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/xFoundry/baseql-mcp/config"
	"github.com/xFoundry/baseql-mcp/gateway"
	"github.com/xFoundry/baseql-mcp/gateway/cobraext"
	"github.com/xFoundry/baseql-mcp/gqlquery"
	"github.com/xFoundry/baseql-mcp/metrics"
)

// Build information
const (
	Version = "0.1.0"
	appName = "baseql-mcp"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	runtime := runtimeLoader(&configPath)
	serve := cobraext.ServeCommand(runtime)

	root := &cobra.Command{
		Use:           appName,
		Short:         "BaseQL gateway for LLM clients",
		Long:          "Translates structured table operations into BaseQL GraphQL requests. Without a subcommand, serves MCP on stdio.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			serve.SetContext(cmd.Context())
			serve.SetIn(cmd.InOrStdin())
			serve.SetOut(cmd.OutOrStdout())
			return serve.RunE(serve, args)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv(config.EnvPrefix+"_CONFIG"),
		"Path to a config file (yaml, json or toml)")

	root.AddCommand(serve)
	root.AddCommand(cobraext.CallCommand(runtime))
	root.AddCommand(cobraext.OperationsCommand())
	return root
}

// runtimeLoader builds the runtime once, on first use.
func runtimeLoader(configPath *string) cobraext.RuntimeFunc {
	var (
		once sync.Once
		rt   *cobraext.Runtime
		err  error
	)
	return func() (*cobraext.Runtime, error) {
		once.Do(func() {
			rt, err = buildRuntime(*configPath)
		})
		return rt, err
	}
}

func buildRuntime(configPath string) (*cobraext.Runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	m := metrics.New()
	svc := gateway.New(gateway.Config{
		Upstream:    cfg.Upstream(appName + "/" + Version),
		SearchMatch: cfg.SearchMatch,
	}, gateway.WithLogger(logger), gateway.WithMetrics(m))

	return &cobraext.Runtime{
		Service: svc,
		Metrics: m,
		Mode:    cfg.OutputMode(),
		Version: Version,
		Logger:  logger,
	}, nil
}

// printError writes coded errors as their JSON envelope and anything else
// as plain text.
func printError(w io.Writer, err error) {
	var e *gqlquery.Error
	if errors.As(err, &e) {
		if raw, merr := json.Marshal(e); merr == nil {
			_, _ = fmt.Fprintln(w, string(raw))
			return
		}
	}
	_, _ = fmt.Fprintln(w, "Error:", err)
}
