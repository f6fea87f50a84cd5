package morgen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestResolver(t *testing.T) *AuthResolver {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	return NewAuthResolver(testSettings("https://unused.invalid"), http.DefaultClient, t.TempDir(), nil)
}

func TestHeaderFallsBackToAPIKey(t *testing.T) {
	r := newTestResolver(t)
	assert.Equal(t, "ApiKey test-key", r.Header(context.Background()))
}

func TestHeaderPrefersExplicitBearerToken(t *testing.T) {
	r := newTestResolver(t)
	r.settings.BearerToken = "explicit-token"
	assert.Equal(t, "Bearer explicit-token", r.Header(context.Background()))
}

func TestHeaderUsesCachedBearerToken(t *testing.T) {
	r := newTestResolver(t)
	tok := oauth2.Token{AccessToken: "cached-token", Expiry: time.Now().Add(time.Hour)}
	raw, err := json.Marshal(tok)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(r.bearerPath, raw, 0o600))

	assert.Equal(t, "Bearer cached-token", r.Header(context.Background()))
}

func TestHeaderIgnoresNearlyExpiredBearerToken(t *testing.T) {
	r := newTestResolver(t)
	// Inside the safety margin: must not be reused.
	tok := oauth2.Token{AccessToken: "stale-token", Expiry: time.Now().Add(time.Minute)}
	raw, err := json.Marshal(tok)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(r.bearerPath, raw, 0o600))

	assert.Equal(t, "ApiKey test-key", r.Header(context.Background()))
}

func TestHeaderIgnoresCorruptBearerFile(t *testing.T) {
	r := newTestResolver(t)
	require.NoError(t, os.WriteFile(r.bearerPath, []byte("not json"), 0o600))
	assert.Equal(t, "ApiKey test-key", r.Header(context.Background()))
}

func writeDesktopConfig(t *testing.T, dir string, payload map[string]any) {
	t.Helper()
	morgenDir := filepath.Join(dir, "Morgen")
	require.NoError(t, os.MkdirAll(morgenDir, 0o755))
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(morgenDir, "config.json"), raw, 0o600))
}

func TestHeaderNegotiatesFromDesktopCredentials(t *testing.T) {
	refreshSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refresh-123", body["refreshToken"])
		assert.Equal(t, "device-456", body["deviceId"])
		_, _ = w.Write([]byte(`{"accessToken":"fresh-token","expiresIn":3600}`))
	}))
	defer refreshSrv.Close()

	configDir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", configDir)
	writeDesktopConfig(t, configDir, map[string]any{
		"morgen-refresh-token": "refresh-123",
		"morgen-device-id":     "device-456",
	})

	cacheDir := t.TempDir()
	r := NewAuthResolver(testSettings("https://unused.invalid"), http.DefaultClient, cacheDir, nil)
	r.refreshURL = refreshSrv.URL

	assert.Equal(t, "Bearer fresh-token", r.Header(context.Background()))

	// The negotiated credential is persisted for the next process.
	raw, err := os.ReadFile(filepath.Join(cacheDir, "bearer.json"))
	require.NoError(t, err)
	var persisted oauth2.Token
	require.NoError(t, json.Unmarshal(raw, &persisted))
	assert.Equal(t, "fresh-token", persisted.AccessToken)
	assert.True(t, persisted.Expiry.After(time.Now().Add(30*time.Minute)))
}

func TestHeaderFallsBackWhenRefreshRejected(t *testing.T) {
	refreshSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer refreshSrv.Close()

	configDir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", configDir)
	writeDesktopConfig(t, configDir, map[string]any{
		"morgen-refresh-token": "refresh-123",
		"morgen-device-id":     "device-456",
	})

	r := NewAuthResolver(testSettings("https://unused.invalid"), http.DefaultClient, t.TempDir(), nil)
	r.refreshURL = refreshSrv.URL

	assert.Equal(t, "ApiKey test-key", r.Header(context.Background()))
}

func TestReadDesktopCredentials(t *testing.T) {
	dir := t.TempDir()
	writeDesktopConfig(t, dir, map[string]any{
		"morgen-refresh-token": "r",
		"morgen-device-id":     "d",
		"unrelated":            true,
	})

	refresh, device, ok := ReadDesktopCredentials(filepath.Join(dir, "Morgen", "config.json"))
	require.True(t, ok)
	assert.Equal(t, "r", refresh)
	assert.Equal(t, "d", device)

	_, _, ok = ReadDesktopCredentials(filepath.Join(dir, "missing.json"))
	assert.False(t, ok)
}

func TestReadDesktopCredentialsIncomplete(t *testing.T) {
	dir := t.TempDir()
	writeDesktopConfig(t, dir, map[string]any{"morgen-refresh-token": "r"})
	_, _, ok := ReadDesktopCredentials(filepath.Join(dir, "Morgen", "config.json"))
	assert.False(t, ok)
}

func TestFindDesktopConfigXDG(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)
	writeDesktopConfig(t, configDir, map[string]any{})

	path, ok := FindDesktopConfig()
	require.True(t, ok)
	assert.Equal(t, filepath.Join(configDir, "Morgen", "config.json"), path)
}

func TestFindDesktopConfigMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	_, ok := FindDesktopConfig()
	assert.False(t, ok)
}
