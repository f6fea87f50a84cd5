package common

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gutenmorgen/internal/instrumentation"
	"github.com/teemow/gutenmorgen/internal/server"
)

func levelFor(success bool) slog.Level {
	if success {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// toolTarget splits a tool name like "morgen_list_events" into its verb and
// resource ("list", "events") for the audit record. Names without a verb
// part yield empty strings, which the audit record omits.
func toolTarget(toolName string) (operation, resource string) {
	name := strings.TrimPrefix(toolName, "morgen_")
	operation, resource, ok := strings.Cut(name, "_")
	if !ok {
		return "", ""
	}
	return operation, resource
}

// InstrumentedToolHandler wraps a tool handler with metrics and audit
// logging.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(
	toolName string,
	sc *server.ServerContext,
	handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error),
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		invocation := instrumentation.NewToolInvocation(toolName).
			WithTarget(toolTarget(toolName))

		result, err := handler(ctx, request)

		if err != nil {
			invocation.CompleteWithError(err)
		} else if result != nil && result.IsError {
			invocation.CompleteWithError(nil)
		} else {
			invocation.CompleteSuccess()
		}

		sc.Metrics().RecordToolInvocation(ctx, toolName, invocation.Success, invocation.Duration)
		sc.Logger().LogAttrs(ctx, levelFor(invocation.Success), "tool invocation", invocation.LogAttrs()...)

		return result, err
	}
}
