package instrumentation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderDisabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Nil(t, p.Handler())
	require.NotNil(t, p.Metrics())
	// No-op recorder must be safe to use.
	p.Metrics().RecordRateLimitWait(context.Background(), 5)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProviderEnabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{
		Enabled:        true,
		ServiceName:    "gutenmorgen-test",
		ServiceVersion: "0.0.0",
	})
	require.NoError(t, err)
	defer func() { _ = p.Shutdown(context.Background()) }()

	assert.True(t, p.Enabled())
	assert.NotNil(t, p.Handler())
	require.NotNil(t, p.Metrics())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("GM_METRICS_ENABLED", "")
	t.Setenv("GM_METRICS_ADDR", "")
	t.Setenv("GM_METRICS_DETAILED", "")

	cfg := ConfigFromEnv("gutenmorgen", "1.0.0")
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "gutenmorgen", cfg.ServiceName)

	t.Setenv("GM_METRICS_ADDR", ":9464")
	cfg = ConfigFromEnv("gutenmorgen", "1.0.0")
	assert.True(t, cfg.Enabled, "a listen address implies metrics")
	assert.Equal(t, ":9464", cfg.ListenAddr)

	t.Setenv("GM_METRICS_ADDR", "")
	t.Setenv("GM_METRICS_ENABLED", "true")
	t.Setenv("GM_METRICS_DETAILED", "true")
	cfg = ConfigFromEnv("gutenmorgen", "1.0.0")
	assert.True(t, cfg.Enabled)
	assert.True(t, cfg.DetailedLabels)
}
