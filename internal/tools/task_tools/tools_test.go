package task_tools

import (
	"context"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/teemow/gutenmorgen/internal/config"
	"github.com/teemow/gutenmorgen/internal/server"
)

func TestRegisterTaskTools(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "0.0.0")
	sc := server.NewServerContext(context.Background(), nil, config.File{}, nil, nil, false)
	require.NoError(t, RegisterTaskTools(s, sc))
}

func TestRegisterTaskToolsReadOnly(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "0.0.0")
	sc := server.NewServerContext(context.Background(), nil, config.File{}, nil, nil, true)
	require.NoError(t, RegisterTaskTools(s, sc))
}
