package morgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/teemow/gutenmorgen/internal/logging"
)

// Rate-limit wait handling. The server publishes an exact wait in the
// Retry-After header, so there is no exponential backoff: the hint is used
// directly, defaulted when missing, and clamped to avoid both hammering and
// indefinite stalls.
const (
	defaultWaitSeconds = 15
	waitFloorSeconds   = 5
	waitCeilSeconds    = 60
)

// RetryFunc is invoked before each retry after a rate-limit response. The
// callback owns the wait: it must block for waitSeconds before returning.
// This lets a human-facing caller tick a countdown once per second while an
// agent-facing caller emits one line and sleeps in one shot. attempt counts
// from 1 up to maxRetries.
type RetryFunc func(waitSeconds, attempt, maxRetries int)

// MetricsRecorder receives instrumentation events from the request pipeline.
// A nil recorder disables instrumentation.
type MetricsRecorder interface {
	RecordAPIRequest(ctx context.Context, method, path string, status int, elapsed time.Duration)
	RecordRateLimitWait(ctx context.Context, seconds int)
	RecordCacheLookup(ctx context.Context, key string, hit bool)
}

// executor issues one logical API request, looping on rate-limit responses up
// to maxRetries additional attempts and mapping terminal failures to typed
// errors. Retries apply only to 429; everything else fails fast.
type executor struct {
	httpClient *http.Client
	baseURL    string
	auth       *AuthResolver
	maxRetries int
	onRetry    RetryFunc
	logger     *slog.Logger
	metrics    MetricsRecorder
	sleep      func(time.Duration)
}

func newExecutor(httpClient *http.Client, baseURL string, auth *AuthResolver, maxRetries int, onRetry RetryFunc, logger *slog.Logger, metrics MetricsRecorder) *executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &executor{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		auth:       auth,
		maxRetries: maxRetries,
		onRetry:    onRetry,
		logger:     logger,
		metrics:    metrics,
		sleep:      time.Sleep,
	}
}

// resolveURL resolves a relative path against the default host; an absolute
// URL is used verbatim. The RSVP endpoint lives on a different host than the
// rest of the API, so this generalization is required.
func (e *executor) resolveURL(path string, query url.Values) string {
	target := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		target = e.baseURL + path
	}
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

// execute performs one logical request. A 204 yields (nil, nil); any other
// success yields the raw JSON body.
func (e *executor) execute(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	target := e.resolveURL(path, query)

	for attempt := 0; ; {
		raw, wait, retryable, err := e.attempt(ctx, method, target, payload)
		if err != nil || !retryable {
			return raw, err
		}

		if attempt >= e.maxRetries {
			return nil, &RateLimitError{
				Message:     fmt.Sprintf("Rate limit exceeded after %d retries. Retry after %ds", e.maxRetries, wait),
				WaitSeconds: wait,
			}
		}
		attempt++

		e.logger.Debug("rate limited, retrying",
			logging.Wait(wait), logging.Attempt(attempt), slog.Int("max_retries", e.maxRetries))
		if e.metrics != nil {
			e.metrics.RecordRateLimitWait(ctx, wait)
		}
		if e.onRetry != nil {
			// The callback performs the wait.
			e.onRetry(wait, attempt, e.maxRetries)
		} else {
			e.sleep(time.Duration(wait) * time.Second)
		}
	}
}

// attempt makes one HTTP attempt. retryable is true only for a rate-limit
// response, in which case wait carries the clamped server hint.
func (e *executor) attempt(ctx context.Context, method, target string, payload []byte) (raw json.RawMessage, wait int, retryable bool, err error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, 0, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", e.auth.Header(ctx))

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, 0, false, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	if e.metrics != nil {
		e.metrics.RecordAPIRequest(ctx, method, req.URL.Path, resp.StatusCode, time.Since(start))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, clampWait(resp.Header.Get("Retry-After")), true, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, 0, false, &AuthenticationError{Message: "Invalid or missing API key"}
	case resp.StatusCode == http.StatusNotFound:
		return nil, 0, false, &NotFoundError{Message: "Resource not found: " + req.URL.Path}
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(resp.Body)
		return nil, 0, false, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	case resp.StatusCode == http.StatusNoContent:
		return nil, 0, false, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, false, fmt.Errorf("read response: %w", err)
	}
	if len(body) > 0 && !json.Valid(body) {
		return nil, 0, false, &APIError{StatusCode: resp.StatusCode, Body: "malformed JSON response"}
	}
	return body, 0, false, nil
}

// clampWait parses a Retry-After hint in seconds, defaulting when absent or
// unparseable, and clamps the result to [waitFloorSeconds, waitCeilSeconds].
func clampWait(retryAfter string) int {
	wait := defaultWaitSeconds
	if retryAfter != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil {
			wait = parsed
		}
	}
	if wait < waitFloorSeconds {
		return waitFloorSeconds
	}
	if wait > waitCeilSeconds {
		return waitCeilSeconds
	}
	return wait
}
