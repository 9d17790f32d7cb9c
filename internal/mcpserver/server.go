package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/yourorg/mcpdemo/internal/registry"
	"github.com/yourorg/mcpdemo/pkg/metrics"
	"github.com/yourorg/mcpdemo/pkg/version"
)

// ErrorPayload is the body of a failed tool call
type ErrorPayload struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail classifies a failure as not_found, validation or execution
type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NewServer creates an MCP server exposing every tool and resource in reg
func NewServer(log *slog.Logger, name string, reg *registry.Registry) *server.MCPServer {
	return NewServerWithMetrics(log, name, reg, nil)
}

// NewServerWithMetrics creates an MCP server exposing reg, recording per-call metrics when m is non-nil
func NewServerWithMetrics(log *slog.Logger, name string, reg *registry.Registry, m *metrics.Metrics) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		name,
		version.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithLogging(),
		server.WithRecovery(),
	)

	ops := reg.Tools()
	toolNames := make([]string, 0, len(ops))
	for _, op := range ops {
		handler := toolHandler(log, reg, op.Name)
		if m != nil {
			handler = wrapWithMetrics(op.Name, m, handler)
		}
		mcpServer.AddTool(toolFor(op), handler)
		toolNames = append(toolNames, op.Name)
	}

	resources := reg.Resources()
	uris := make([]string, 0, len(resources))
	for _, res := range resources {
		mcpServer.AddResource(resourceFor(res), resourceHandler(log, reg, res, m))
		uris = append(uris, res.URI)
	}

	if m != nil {
		m.SetRegistrySize(len(ops), len(resources))
	}

	log.Info("MCP server initialized",
		"name", name,
		"version", version.Version,
		"tools", toolNames,
		"resources", uris,
	)

	return mcpServer
}

// NewHTTPHandler wraps mcpServer in the streamable HTTP transport
func NewHTTPHandler(mcpServer *server.MCPServer, stateless bool) http.Handler {
	return server.NewStreamableHTTPServer(mcpServer, server.WithStateLess(stateless))
}

// HandleRequest processes one raw JSON-RPC message and returns the encoded reply.
// Notifications produce no reply and return nil.
func HandleRequest(ctx context.Context, mcpServer *server.MCPServer, raw []byte) ([]byte, error) {
	reply := mcpServer.HandleMessage(ctx, json.RawMessage(raw))
	if reply == nil {
		return nil, nil
	}
	out, err := json.Marshal(reply)
	if err != nil {
		return nil, fmt.Errorf("encode reply: %w", err)
	}
	return out, nil
}

// toolFor describes op as an MCP tool with a JSON schema for its parameters
func toolFor(op registry.Operation) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(op.Description)}

	for _, p := range op.Params {
		props := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			props = append(props, mcp.Required())
		}

		switch p.Type {
		case registry.TypeString:
			opts = append(opts, mcp.WithString(p.Name, props...))
		case registry.TypeNumber, registry.TypeInteger:
			opts = append(opts, mcp.WithNumber(p.Name, props...))
		case registry.TypeBoolean:
			opts = append(opts, mcp.WithBoolean(p.Name, props...))
		case registry.TypeObject:
			opts = append(opts, mcp.WithObject(p.Name, props...))
		case registry.TypeArray:
			opts = append(opts, mcp.WithArray(p.Name, props...))
		}
	}

	return mcp.NewTool(op.Name, opts...)
}

func resourceFor(res registry.Resource) mcp.Resource {
	opts := []mcp.ResourceOption{mcp.WithResourceDescription(res.Description)}
	if res.MIMEType != "" {
		opts = append(opts, mcp.WithMIMEType(res.MIMEType))
	}
	return mcp.NewResource(res.URI, res.Name, opts...)
}

// toolHandler dispatches a call through the registry. Registry errors are
// reported in the tool result and never returned to the transport.
func toolHandler(log *slog.Logger, reg *registry.Registry, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := reg.Invoke(ctx, name, request.GetArguments())
		if err != nil {
			return errorResult(log, name, err), nil
		}

		text, err := formatResult(result)
		if err != nil {
			log.Error("failed to encode tool result", "tool", name, "error", err)
			return errorResult(log, name, &registry.ExecutionError{Target: name, Err: err}), nil
		}

		log.Info("tool executed", "tool", name)

		return mcp.NewToolResultStructured(map[string]any{"result": result}, text), nil
	}
}

func resourceHandler(log *slog.Logger, reg *registry.Registry, res registry.Resource, m *metrics.Metrics) server.ResourceHandlerFunc {
	mimeType := res.MIMEType
	if mimeType == "" {
		mimeType = "application/json"
	}

	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		payload, err := reg.Read(ctx, res.URI)
		if err == nil {
			var data []byte
			data, err = json.Marshal(payload)
			if err == nil {
				recordRead(m, res.URI, "success")
				return []mcp.ResourceContents{
					mcp.TextResourceContents{
						URI:      res.URI,
						MIMEType: mimeType,
						Text:     string(data),
					},
				}, nil
			}
			err = &registry.ExecutionError{Target: res.URI, Err: err}
		}

		kind := registry.Kind(err)
		recordRead(m, res.URI, kind)
		log.Error("resource read failed", "uri", res.URI, "kind", kind, "error", err)
		return nil, err
	}
}

func recordRead(m *metrics.Metrics, uri, status string) {
	if m != nil {
		m.MCPResourceReadsTotal.WithLabelValues(uri, status).Inc()
	}
}

// errorResult converts a registry error into a structured error result
func errorResult(log *slog.Logger, tool string, err error) *mcp.CallToolResult {
	kind := registry.Kind(err)

	var execErr *registry.ExecutionError
	if errors.As(err, &execErr) {
		log.Error("tool execution failed", "tool", tool, "error", err)
	} else {
		log.Warn("tool call rejected", "tool", tool, "kind", kind, "error", err)
	}

	body, marshalErr := json.Marshal(ErrorPayload{Error: ErrorDetail{Kind: kind, Message: err.Error()}})
	if marshalErr != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultError(string(body))
}

// formatResult renders a handler result as the text content of a tool result
func formatResult(v any) (string, error) {
	switch r := v.(type) {
	case string:
		return r, nil
	case float64:
		return strconv.FormatFloat(r, 'f', -1, 64), nil
	case nil:
		return "null", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// wrapWithMetrics wraps a tool handler with metrics tracking
func wrapWithMetrics(toolName string, m *metrics.Metrics, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		// Track in-flight tool calls
		m.MCPToolCallsInFlight.Inc()
		defer m.MCPToolCallsInFlight.Dec()

		result, err := handler(ctx, request)

		status := "success"
		if err != nil {
			status = "error"
		} else if result != nil && result.IsError {
			status = resultKind(result)
		}

		m.MCPToolCallsTotal.WithLabelValues(toolName, status).Inc()
		m.MCPToolCallDuration.WithLabelValues(toolName).Observe(time.Since(start).Seconds())

		return result, err
	}
}

// resultKind recovers the error kind from an error result produced by errorResult
func resultKind(result *mcp.CallToolResult) string {
	if len(result.Content) > 0 {
		if text, ok := result.Content[0].(mcp.TextContent); ok {
			var payload ErrorPayload
			if json.Unmarshal([]byte(text.Text), &payload) == nil && payload.Error.Kind != "" {
				return payload.Error.Kind
			}
		}
	}
	return "error"
}
