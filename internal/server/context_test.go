package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/gutenmorgen/internal/config"
)

func TestServerContextLifecycle(t *testing.T) {
	sc := NewServerContext(context.Background(), nil, config.File{}, nil, nil, false)

	assert.False(t, sc.IsShutdown())
	assert.NotNil(t, sc.Logger())
	assert.NotNil(t, sc.Metrics(), "no-op metrics when no provider")
	assert.False(t, sc.ReadOnly())

	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.Error(t, sc.Context().Err(), "context cancelled on shutdown")

	// Idempotent.
	require.NoError(t, sc.Shutdown())
}

func TestServerContextReadOnly(t *testing.T) {
	sc := NewServerContext(context.Background(), nil, config.File{DefaultGroup: "work"}, nil, nil, true)
	assert.True(t, sc.ReadOnly())
	assert.Equal(t, "work", sc.ConfigFile().DefaultGroup)
}
