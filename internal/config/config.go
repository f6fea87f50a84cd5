// Package config loads immutable per-process settings for the Morgen API
// client from environment variables, the user config file, and the OS keyring.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	keyring "github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultBaseURL is the Morgen v3 API host.
	DefaultBaseURL = "https://api.morgen.so/v3"
	// DefaultSyncBaseURL is the Morgen sync API host, used by RSVP.
	DefaultSyncBaseURL = "https://sync.morgen.so/v1"

	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 2

	configFileName = "config.yaml"
	appDir         = "gutenmorgen"

	keyringService = "gutenmorgen"
	keyringUser    = "morgen-api-key"
)

// Settings is the immutable per-process configuration. It is constructed once
// at startup and passed by value into the client, auth resolver, and executor.
type Settings struct {
	APIKey      string
	BearerToken string // explicit override; normally negotiated at runtime
	BaseURL     string
	SyncBaseURL string
	Timeout     time.Duration
	MaxRetries  int
	CacheDir    string
}

// File is the on-disk YAML configuration shape. Calendar groups live in the
// same file; see the groups package.
type File struct {
	APIKey       string                 `yaml:"api_key"`
	BaseURL      string                 `yaml:"base_url"`
	CacheDir     string                 `yaml:"cache_dir"`
	Timeout      string                 `yaml:"timeout"`
	MaxRetries   *int                   `yaml:"max_retries"`
	DefaultGroup string                 `yaml:"default_group"`
	ActiveOnly   bool                   `yaml:"active_only"`
	Groups       map[string]GroupsEntry `yaml:"groups"`
}

// GroupsEntry is one named calendar group in the config file.
type GroupsEntry struct {
	Accounts  []string `yaml:"accounts"`
	Calendars []string `yaml:"calendars"`
}

// ErrMissingAPIKey is returned when no API key can be found anywhere.
type ErrMissingAPIKey struct{}

func (ErrMissingAPIKey) Error() string {
	return "MORGEN_API_KEY is not set"
}

// Type returns the machine-readable error kind.
func (ErrMissingAPIKey) Type() string { return "authentication_error" }

// Suggestions returns remediation hints for the missing-key error.
func (ErrMissingAPIKey) Suggestions() []string {
	return []string{
		"Set MORGEN_API_KEY in your environment",
		"Or add api_key to " + Path(),
		"Get a key at https://platform.morgen.so/",
	}
}

// Path returns the config file location, honoring GM_CONFIG and
// XDG_CONFIG_HOME.
func Path() string {
	if explicit := os.Getenv("GM_CONFIG"); explicit != "" {
		return explicit
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir, configFileName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return configFileName
	}
	return filepath.Join(home, ".config", appDir, configFileName)
}

// LoadFile reads and parses the config file. A missing file yields zero-value
// settings, not an error; the file is optional.
func LoadFile() (File, error) {
	return loadFileFrom(Path())
}

func loadFileFrom(path string) (File, error) {
	var f File
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return f, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return f, fmt.Errorf("parse config %s: %w", path, err)
	}
	return f, nil
}

// Load builds Settings with precedence env var > config file > OS keyring for
// the API key, and env var > config file > default for everything else.
func Load() (Settings, error) {
	file, err := LoadFile()
	if err != nil {
		return Settings{}, err
	}

	apiKey := os.Getenv("MORGEN_API_KEY")
	if apiKey == "" {
		apiKey = file.APIKey
	}
	if apiKey == "" {
		// Keyring lookup is best effort: a locked or absent keyring is
		// the same as no stored key.
		if stored, kerr := keyring.Get(keyringService, keyringUser); kerr == nil {
			apiKey = stored
		}
	}
	if apiKey == "" {
		return Settings{}, ErrMissingAPIKey{}
	}

	s := Settings{
		APIKey:      apiKey,
		BearerToken: os.Getenv("MORGEN_BEARER_TOKEN"),
		BaseURL:     DefaultBaseURL,
		SyncBaseURL: DefaultSyncBaseURL,
		Timeout:     DefaultTimeout,
		MaxRetries:  DefaultMaxRetries,
	}

	if v := os.Getenv("MORGEN_BASE_URL"); v != "" {
		s.BaseURL = v
	} else if file.BaseURL != "" {
		s.BaseURL = file.BaseURL
	}

	if v := os.Getenv("MORGEN_CACHE_DIR"); v != "" {
		s.CacheDir = v
	} else if file.CacheDir != "" {
		s.CacheDir = file.CacheDir
	}

	if v := os.Getenv("MORGEN_TIMEOUT"); v != "" {
		secs, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			return Settings{}, fmt.Errorf("invalid MORGEN_TIMEOUT %q: %w", v, perr)
		}
		s.Timeout = time.Duration(secs * float64(time.Second))
	} else if file.Timeout != "" {
		d, perr := time.ParseDuration(file.Timeout)
		if perr != nil {
			return Settings{}, fmt.Errorf("invalid timeout in config: %w", perr)
		}
		s.Timeout = d
	}

	if v := os.Getenv("MORGEN_MAX_RETRIES"); v != "" {
		n, perr := strconv.Atoi(v)
		if perr != nil || n < 0 {
			return Settings{}, fmt.Errorf("invalid MORGEN_MAX_RETRIES %q", v)
		}
		s.MaxRetries = n
	} else if file.MaxRetries != nil && *file.MaxRetries >= 0 {
		s.MaxRetries = *file.MaxRetries
	}

	return s, nil
}

// StoreAPIKey saves the API key to the OS keyring.
func StoreAPIKey(key string) error {
	return keyring.Set(keyringService, keyringUser, key)
}
