// Package mcpext exposes a gateway.Service over the Model Context Protocol.
// It registers one tool per catalog operation and the schema resource on a
// mark3labs/mcp-go server; the protocol itself is handled by that library.
package mcpext

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/xFoundry/baseql-mcp/gateway"
	"github.com/xFoundry/baseql-mcp/gqlquery"
)

// ServerName is the implementation name reported to MCP clients.
const ServerName = "baseql-mcp"

// Option configures registration.
type Option func(*options)

type options struct {
	mode gqlquery.OutputMode
}

// WithOutputMode selects how tool results are serialized. JSON is the default.
func WithOutputMode(mode gqlquery.OutputMode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// NewServer creates an MCP server with tools and resources registered for svc.
func NewServer(version string, svc *gateway.Service, opts ...Option) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
	)
	Register(s, svc, opts...)
	return s
}

// Register adds every gateway operation as a read-only tool, and the full
// schema as a resource, to s.
func Register(s *server.MCPServer, svc *gateway.Service, opts ...Option) {
	o := &options{mode: gqlquery.JSONOutput}
	for _, opt := range opts {
		opt(o)
	}

	for _, op := range gateway.Operations() {
		tool := mcp.NewToolWithRawSchema(op.Name, op.Description, op.RawInputSchema())
		tool.Annotations = mcp.ToolAnnotation{
			Title:           op.Name,
			ReadOnlyHint:    mcp.ToBoolPtr(true),
			DestructiveHint: mcp.ToBoolPtr(false),
			IdempotentHint:  mcp.ToBoolPtr(true),
			OpenWorldHint:   mcp.ToBoolPtr(true),
		}
		s.AddTool(tool, toolHandler(svc, op.Name, o.mode))
	}

	resource := mcp.NewResource(gateway.SchemaResourceURI, "BaseQL schema",
		mcp.WithResourceDescription("Full GraphQL introspection of the connected base"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(resource, schemaHandler(svc))
}

func toolHandler(svc *gateway.Service, operation string, mode gqlquery.OutputMode) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(request.GetArguments())
		if err != nil {
			return errorResult(&gqlquery.Error{
				Code:    gqlquery.ErrInvalidArgument,
				Message: "arguments are not JSON-serializable: " + err.Error(),
			}), nil
		}

		result, err := svc.Dispatch(ctx, operation, args)
		if err != nil {
			return errorResult(err), nil
		}

		out, err := gqlquery.Render(result, nil, mode)
		if err != nil {
			return errorResult(err), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}

func schemaHandler(svc *gateway.Service) server.ResourceHandlerFunc {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := svc.SchemaResource(ctx)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      gateway.SchemaResourceURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}

// errorResult wraps err in a tool error carrying the JSON envelope
// {code, message, details}.
func errorResult(err error) *mcp.CallToolResult {
	var e *gqlquery.Error
	if !errors.As(err, &e) {
		e = &gqlquery.Error{Code: gqlquery.ErrInternal, Message: err.Error()}
	}
	envelope, merr := json.Marshal(e)
	if merr != nil {
		envelope, _ = json.Marshal(&gqlquery.Error{Code: e.Code, Message: e.Message})
	}
	return mcp.NewToolResultError(string(envelope))
}
