package morgen

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/gutenmorgen/internal/config"
	"github.com/teemow/gutenmorgen/internal/logging"
)

// The Morgen API enforces two independent rate-limit pools: a low-budget one
// for static API keys and a much higher one for bearer tokens issued to the
// desktop app. AuthResolver transparently prefers the bearer path by
// borrowing the desktop app's refresh token, and falls back to the API key on
// any failure. Callers never see which credential is active and never see an
// error from resolution: exactly one valid Authorization header comes out.

const (
	// refreshEndpoint exchanges a desktop-app refresh token for a
	// short-lived access token. Fixed host, independent of Settings.BaseURL.
	refreshEndpoint = "https://api.morgen.so/identity/refresh"

	// bearerFileName is the dedicated credential cache file. It holds a
	// single record, refreshed proactively, and lives outside the generic
	// response cache because its lifecycle is different.
	bearerFileName = "bearer.json"

	// expiryMargin is how much remaining validity a cached token needs
	// before it is reused instead of re-negotiated.
	expiryMargin = 5 * time.Minute
)

// AuthResolver selects the Authorization header for each request.
type AuthResolver struct {
	settings   config.Settings
	httpClient *http.Client
	logger     *slog.Logger

	refreshURL string
	bearerPath string
	now        func() time.Time
}

// NewAuthResolver builds a resolver. cacheDir is where the bearer credential
// file lives; when empty the default cache directory is used.
func NewAuthResolver(settings config.Settings, httpClient *http.Client, cacheDir string, logger *slog.Logger) *AuthResolver {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: settings.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cacheDir == "" {
		cacheDir = settings.CacheDir
	}
	return &AuthResolver{
		settings:   settings,
		httpClient: httpClient,
		logger:     logger,
		refreshURL: refreshEndpoint,
		bearerPath: filepath.Join(cacheDir, bearerFileName),
		now:        time.Now,
	}
}

// Header returns the Authorization header value for the next request:
// "Bearer <token>" when a valid bearer credential is obtainable, otherwise
// "ApiKey <key>". It never fails; every bearer-path error is absorbed.
func (r *AuthResolver) Header(ctx context.Context) string {
	if r.settings.BearerToken != "" {
		return "Bearer " + r.settings.BearerToken
	}

	if tok := r.cachedToken(); tok != nil {
		return "Bearer " + tok.AccessToken
	}

	if tok := r.negotiate(ctx); tok != nil {
		return "Bearer " + tok.AccessToken
	}

	return "ApiKey " + r.settings.APIKey
}

// cachedToken loads the persisted bearer credential if it still has more than
// the safety margin of validity left.
func (r *AuthResolver) cachedToken() *oauth2.Token {
	raw, err := os.ReadFile(r.bearerPath)
	if err != nil {
		return nil
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil
	}
	if tok.AccessToken == "" || !r.now().Add(expiryMargin).Before(tok.Expiry) {
		return nil
	}
	return &tok
}

// negotiate obtains a fresh bearer credential from the desktop app's refresh
// token and persists it. Returns nil on any failure.
func (r *AuthResolver) negotiate(ctx context.Context) *oauth2.Token {
	path, ok := FindDesktopConfig()
	if !ok {
		return nil
	}
	refreshToken, deviceID, ok := ReadDesktopCredentials(path)
	if !ok {
		return nil
	}

	tok := r.RefreshBearerCredential(ctx, refreshToken, deviceID)
	if tok == nil {
		return nil
	}

	if raw, err := json.Marshal(tok); err == nil {
		if err := os.WriteFile(r.bearerPath, raw, 0o600); err != nil {
			r.logger.Debug("bearer credential cache write failed", logging.Err(err))
		}
	}
	r.logger.Debug("bearer credential negotiated",
		slog.String("token", logging.SanitizeToken(tok.AccessToken)))
	return tok
}

// RefreshBearerCredential exchanges a long-lived refresh token for a
// short-lived access token. Returns nil on any failure: non-2xx status,
// transport error, or malformed response.
func (r *AuthResolver) RefreshBearerCredential(ctx context.Context, refreshToken, deviceID string) *oauth2.Token {
	payload, err := json.Marshal(map[string]string{
		"refreshToken": refreshToken,
		"deviceId":     deviceID,
	})
	if err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.refreshURL, bytes.NewReader(payload))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.logger.Debug("bearer refresh failed", logging.Err(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.logger.Debug("bearer refresh rejected", slog.Int("status", resp.StatusCode))
		return nil
	}

	var body struct {
		AccessToken string  `json:"accessToken"`
		ExpiresIn   float64 `json:"expiresIn"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.AccessToken == "" {
		return nil
	}

	return &oauth2.Token{
		AccessToken: body.AccessToken,
		TokenType:   "Bearer",
		Expiry:      r.now().Add(time.Duration(body.ExpiresIn) * time.Second),
	}
}

// FindDesktopConfig locates the Morgen desktop app's config.json.
//
// Search order: the macOS application-support path, then $XDG_CONFIG_HOME
// (default ~/.config).
func FindDesktopConfig() (string, bool) {
	home := os.Getenv("HOME")
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return "", false
		}
	}

	macPath := filepath.Join(home, "Library", "Application Support", "Morgen", "config.json")
	if fileExists(macPath) {
		return macPath, true
	}

	var xdgPath string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		xdgPath = filepath.Join(xdg, "Morgen", "config.json")
	} else {
		xdgPath = filepath.Join(home, ".config", "Morgen", "config.json")
	}
	if fileExists(xdgPath) {
		return xdgPath, true
	}

	return "", false
}

// ReadDesktopCredentials reads the refresh token and device id from the
// desktop app config. Returns ok=false on any failure.
func ReadDesktopCredentials(path string) (refreshToken, deviceID string, ok bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", false
	}
	var cfg map[string]any
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return "", "", false
	}
	refreshToken, _ = cfg["morgen-refresh-token"].(string)
	deviceID, _ = cfg["morgen-device-id"].(string)
	if refreshToken == "" || deviceID == "" {
		return "", "", false
	}
	return refreshToken, deviceID, true
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
