package event_tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gutenmorgen/internal/server"
)

// RegisterEventTools registers all calendar-related tools with the MCP
// server. Mutating tools are skipped in read-only mode.
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := registerReadTools(s, sc); err != nil {
		return fmt.Errorf("failed to register calendar read tools: %w", err)
	}
	if err := RegisterSchedulingTools(s, sc); err != nil {
		return fmt.Errorf("failed to register scheduling tools: %w", err)
	}
	if sc.ReadOnly() {
		return nil
	}
	if err := registerWriteTools(s, sc); err != nil {
		return fmt.Errorf("failed to register calendar write tools: %w", err)
	}
	return nil
}

// jsonResult marshals v as an indented JSON tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}
