package morgen

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/gutenmorgen/internal/config"
)

func testSettings(baseURL string) config.Settings {
	return config.Settings{
		APIKey:      "test-key",
		BaseURL:     baseURL,
		SyncBaseURL: baseURL,
		Timeout:     5 * time.Second,
	}
}

// newTestExecutor points an executor at a test server with the bearer path
// disabled (no desktop config under the temp HOME).
func newTestExecutor(t *testing.T, baseURL string, maxRetries int, onRetry RetryFunc) *executor {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	settings := testSettings(baseURL)
	auth := NewAuthResolver(settings, http.DefaultClient, t.TempDir(), nil)
	e := newExecutor(http.DefaultClient, baseURL, auth, maxRetries, onRetry, nil, nil)
	e.sleep = func(time.Duration) { t.Fatal("executor slept; callback owns the wait") }
	return e
}

func TestExecuteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ApiKey test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"data":{"tags":[]}}`))
	}))
	defer srv.Close()

	e := newTestExecutor(t, srv.URL, 0, nil)
	raw, err := e.execute(context.Background(), http.MethodGet, "/tags/list", nil, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"tags":[]}}`, string(raw))
}

func TestExecuteRetriesExactlyMaxTimes(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	var calls []int
	onRetry := func(wait, attempt, maxRetries int) {
		calls = append(calls, attempt)
		assert.Equal(t, 7, wait)
		assert.Equal(t, 2, maxRetries)
	}

	e := newTestExecutor(t, srv.URL, 2, onRetry)
	_, err := e.execute(context.Background(), http.MethodGet, "/tasks/list", nil, nil)

	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, 7, rle.WaitSeconds)
	assert.Equal(t, []int{1, 2}, calls, "callback runs once per retry")
	assert.Equal(t, 3, requests, "initial attempt plus two retries")
}

func TestExecuteZeroRetriesFailsImmediately(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := newTestExecutor(t, srv.URL, 0, func(int, int, int) {
		t.Fatal("callback must not run with zero retries")
	})
	_, err := e.execute(context.Background(), http.MethodGet, "/tasks/list", nil, nil)

	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, defaultWaitSeconds, rle.WaitSeconds)
	assert.Equal(t, 1, requests)
}

func TestExecuteRecoversAfterRetry(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.Header().Set("Retry-After", "5")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var callbackRan bool
	e := newTestExecutor(t, srv.URL, 3, func(int, int, int) { callbackRan = true })
	raw, err := e.execute(context.Background(), http.MethodGet, "/tasks/list", nil, nil)

	require.NoError(t, err)
	assert.True(t, callbackRan)
	assert.Equal(t, 2, requests)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
}

func TestExecuteStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(t *testing.T, err error)
	}{
		{http.StatusUnauthorized, func(t *testing.T, err error) {
			var e *AuthenticationError
			require.ErrorAs(t, err, &e)
			assert.Equal(t, "authentication_error", e.Type())
		}},
		{http.StatusNotFound, func(t *testing.T, err error) {
			var e *NotFoundError
			require.ErrorAs(t, err, &e)
			assert.Equal(t, "not_found", e.Type())
		}},
		{http.StatusInternalServerError, func(t *testing.T, err error) {
			var e *APIError
			require.ErrorAs(t, err, &e)
			assert.Equal(t, http.StatusInternalServerError, e.StatusCode)
		}},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			e := newTestExecutor(t, srv.URL, 0, nil)
			_, err := e.execute(context.Background(), http.MethodGet, "/whatever", nil, nil)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestExecuteNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	e := newTestExecutor(t, srv.URL, 0, nil)
	raw, err := e.execute(context.Background(), http.MethodPost, "/tasks/delete", nil, map[string]any{"id": "t1"})
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestExecuteAbsoluteURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/events/rsvp", r.URL.Path)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	e := newTestExecutor(t, "https://unused.invalid", 0, nil)
	_, err := e.execute(context.Background(), http.MethodPost, srv.URL+"/v1/events/rsvp", nil, map[string]any{})
	require.NoError(t, err)
}

func TestExecuteTransportError(t *testing.T) {
	e := newTestExecutor(t, "http://127.0.0.1:1", 0, nil)
	_, err := e.execute(context.Background(), http.MethodGet, "/tags/list", nil, nil)
	require.Error(t, err)
	var rle *RateLimitError
	assert.False(t, errors.As(err, &rle), "transport errors are not retried")
}

func TestClampWait(t *testing.T) {
	tests := []struct {
		header string
		want   int
	}{
		{"", 15},
		{"garbage", 15},
		{"1", 5},
		{"30", 30},
		{"120", 60},
		{"5", 5},
		{"60", 60},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clampWait(tt.header), "Retry-After=%q", tt.header)
	}
}
