// Package cobraext provides Cobra command factories for the gateway.
// It isolates the github.com/spf13/cobra dependency from the gateway and
// MCP packages.
package cobraext

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/xFoundry/baseql-mcp/gateway"
	"github.com/xFoundry/baseql-mcp/gateway/mcpext"
	"github.com/xFoundry/baseql-mcp/gqlquery"
	"github.com/xFoundry/baseql-mcp/metrics"
)

// Runtime is what the commands need once flags are parsed.
type Runtime struct {
	Service *gateway.Service
	Metrics *metrics.Metrics
	Mode    gqlquery.OutputMode
	Version string
	Logger  *slog.Logger
}

// RuntimeFunc builds the Runtime. It runs inside RunE, after flag parsing,
// so it may depend on persistent flags such as a config path.
type RuntimeFunc func() (*Runtime, error)

// outputMode resolves the --format flag, falling back to the configured mode.
func outputMode(flag string, fallback gqlquery.OutputMode) (gqlquery.OutputMode, error) {
	if flag == "" {
		return fallback, nil
	}
	return gqlquery.ParseOutputMode(flag)
}

// ServeCommand creates a "serve" subcommand that speaks MCP over stdio.
// With --metrics-addr, Prometheus metrics are served on that address.
func ServeCommand(runtime RuntimeFunc) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the BaseQL tools over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtime()
			if err != nil {
				return err
			}
			logger := rt.Logger
			if logger == nil {
				logger = slog.Default()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if metricsAddr != "" && rt.Metrics != nil {
				shutdown := serveMetrics(metricsAddr, rt.Metrics, logger)
				defer shutdown()
			}

			s := mcpext.NewServer(rt.Version, rt.Service, mcpext.WithOutputMode(rt.Mode))
			stdio := server.NewStdioServer(s)
			logger.Info("serving MCP on stdio", "version", rt.Version)
			return stdio.Listen(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", `Address for the Prometheus /metrics endpoint (e.g. ":9090"); empty disables it`)
	return cmd
}

func serveMetrics(addr string, m *metrics.Metrics, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// CallCommand creates a "call" subcommand that runs one operation with JSON
// arguments and prints the result. "-" reads the arguments from stdin.
func CallCommand(runtime RuntimeFunc) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "call <operation> [json-args]",
		Short: "Run one gateway operation and print its result",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtime()
			if err != nil {
				return err
			}
			mode, err := outputMode(format, rt.Mode)
			if err != nil {
				return err
			}

			raw := []byte("{}")
			if len(args) == 2 {
				raw = []byte(args[1])
				if args[1] == "-" {
					if raw, err = io.ReadAll(cmd.InOrStdin()); err != nil {
						return fmt.Errorf("read arguments: %w", err)
					}
				}
			}
			if !json.Valid(raw) {
				return &gqlquery.Error{
					Code:    gqlquery.ErrInvalidArgument,
					Message: "arguments must be a JSON object",
					Details: map[string]any{"value": string(raw)},
				}
			}

			result, err := rt.Service.Dispatch(cmd.Context(), args[0], raw)
			if err != nil {
				return err
			}
			out, err := gqlquery.Render(result, nil, mode)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", "", `Output format: "json" or "compact"/"llm" (default from config)`)
	return cmd
}

// catalogEntry is the printed form of one operation.
type catalogEntry struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  []gateway.ParameterDef `json:"parameters"`
	InputSchema json.RawMessage        `json:"inputSchema"`
	Examples    []string               `json:"examples,omitempty"`
}

// OperationsCommand creates an "operations" subcommand that prints the
// operation catalog.
func OperationsCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "operations",
		Short: "List the available operations and their arguments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := outputMode(format, gqlquery.JSONOutput)
			if err != nil {
				return err
			}

			ops := gateway.Operations()
			if mode == gqlquery.CompactOutput {
				var b strings.Builder
				for _, op := range ops {
					names := make([]string, 0, len(op.Parameters))
					for _, p := range op.Parameters {
						if p.Optional {
							names = append(names, p.Name+"?")
						} else {
							names = append(names, p.Name)
						}
					}
					fmt.Fprintf(&b, "%s(%s): %s\n", op.Name, strings.Join(names, ", "), op.Description)
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), b.String())
				return err
			}

			entries := make([]catalogEntry, 0, len(ops))
			for _, op := range ops {
				entries = append(entries, catalogEntry{
					Name:        op.Name,
					Description: op.Description,
					Parameters:  op.Parameters,
					InputSchema: op.RawInputSchema(),
					Examples:    op.Examples,
				})
			}
			data, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", "", `Output format: "json" or "compact"/"llm"`)
	return cmd
}

// AddCommands adds the "serve", "call" and "operations" commands to parent.
func AddCommands(parent *cobra.Command, runtime RuntimeFunc) {
	parent.AddCommand(ServeCommand(runtime))
	parent.AddCommand(CallCommand(runtime))
	parent.AddCommand(OperationsCommand())
}
