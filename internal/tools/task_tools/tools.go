package task_tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gutenmorgen/internal/server"
)

// RegisterTaskTools registers all task-related tools with the MCP server.
// Mutating tools are skipped in read-only mode.
func RegisterTaskTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := registerReadTools(s, sc); err != nil {
		return fmt.Errorf("failed to register task read tools: %w", err)
	}
	if sc.ReadOnly() {
		return nil
	}
	if err := registerWriteTools(s, sc); err != nil {
		return fmt.Errorf("failed to register task write tools: %w", err)
	}
	return nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}
