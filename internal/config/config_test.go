package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	keyring "github.com/zalando/go-keyring"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("GM_CONFIG", path)
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"MORGEN_API_KEY", "MORGEN_BASE_URL", "MORGEN_TIMEOUT", "MORGEN_MAX_RETRIES", "MORGEN_BEARER_TOKEN"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("GM_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	keyring.MockInit()
	t.Setenv("MORGEN_API_KEY", "env-key")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env-key", s.APIKey)
	assert.Equal(t, DefaultBaseURL, s.BaseURL)
	assert.Equal(t, DefaultSyncBaseURL, s.SyncBaseURL)
	assert.Equal(t, DefaultTimeout, s.Timeout)
	assert.Equal(t, DefaultMaxRetries, s.MaxRetries)
}

func TestEnvOverridesConfigFile(t *testing.T) {
	clearEnv(t)
	keyring.MockInit()
	writeConfig(t, "api_key: file-key\nbase_url: https://example.test/v3\n")
	t.Setenv("MORGEN_API_KEY", "env-key")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env-key", s.APIKey)
	assert.Equal(t, "https://example.test/v3", s.BaseURL)
}

func TestLoadFromConfigFile(t *testing.T) {
	clearEnv(t)
	keyring.MockInit()
	writeConfig(t, "api_key: file-key\ntimeout: 10s\nmax_retries: 5\n")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "file-key", s.APIKey)
	assert.Equal(t, 10*time.Second, s.Timeout)
	assert.Equal(t, 5, s.MaxRetries)
}

func TestLoadFromKeyring(t *testing.T) {
	clearEnv(t)
	keyring.MockInit()
	require.NoError(t, StoreAPIKey("ring-key"))

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ring-key", s.APIKey)
}

func TestMissingAPIKey(t *testing.T) {
	clearEnv(t)
	keyring.MockInit()

	_, err := Load()
	require.Error(t, err)

	var missing ErrMissingAPIKey
	require.ErrorAs(t, err, &missing)
	assert.NotEmpty(t, missing.Suggestions())
}

func TestInvalidTimeoutEnv(t *testing.T) {
	clearEnv(t)
	keyring.MockInit()
	t.Setenv("MORGEN_API_KEY", "k")
	t.Setenv("MORGEN_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestTimeoutEnvSeconds(t *testing.T) {
	clearEnv(t)
	keyring.MockInit()
	t.Setenv("MORGEN_API_KEY", "k")
	t.Setenv("MORGEN_TIMEOUT", "2.5")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2500*time.Millisecond, s.Timeout)
}

func TestMaxRetriesEnv(t *testing.T) {
	clearEnv(t)
	keyring.MockInit()
	t.Setenv("MORGEN_API_KEY", "k")
	t.Setenv("MORGEN_MAX_RETRIES", "0")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, s.MaxRetries)
}

func TestMissingConfigFileIsFine(t *testing.T) {
	clearEnv(t)
	keyring.MockInit()
	t.Setenv("MORGEN_API_KEY", "k")

	_, err := Load()
	assert.NoError(t, err)
}

func TestMalformedConfigFileErrors(t *testing.T) {
	clearEnv(t)
	keyring.MockInit()
	writeConfig(t, "api_key: [unclosed\n")

	_, err := Load()
	assert.Error(t, err)
}

func TestGroupsParsedFromConfig(t *testing.T) {
	clearEnv(t)
	writeConfig(t, `
default_group: work
groups:
  work:
    accounts: ["me@corp.com:google"]
    calendars: ["Team", "1:1s"]
`)

	f, err := LoadFile()
	require.NoError(t, err)
	assert.Equal(t, "work", f.DefaultGroup)
	require.Contains(t, f.Groups, "work")
	assert.Equal(t, []string{"me@corp.com:google"}, f.Groups["work"].Accounts)
	assert.Equal(t, []string{"Team", "1:1s"}, f.Groups["work"].Calendars)
}
