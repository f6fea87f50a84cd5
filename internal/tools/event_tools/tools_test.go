package event_tools

import (
	"context"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/gutenmorgen/internal/config"
	"github.com/teemow/gutenmorgen/internal/server"
)

func TestRegisterEventTools(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "0.0.0")
	sc := server.NewServerContext(context.Background(), nil, config.File{}, nil, nil, false)
	require.NoError(t, RegisterEventTools(s, sc))
}

func TestRegisterEventToolsReadOnly(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "0.0.0")
	sc := server.NewServerContext(context.Background(), nil, config.File{}, nil, nil, true)
	require.NoError(t, RegisterEventTools(s, sc))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Work", "Team Cal"}, splitList("Work, Team Cal"))
	assert.Equal(t, []string{"One"}, splitList("One,,"))
	assert.Empty(t, splitList(" , "))
}
