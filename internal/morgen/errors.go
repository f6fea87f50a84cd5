package morgen

import "fmt"

// Error kinds surfaced to the CLI boundary. Cache failures and bearer
// negotiation failures never appear here; those are absorbed inside their
// components and degrade to a miss or an API-key fallback.

// Error is implemented by all surfaced Morgen errors. Type is a stable
// machine-readable kind; Suggestions are actionable remediation hints.
type Error interface {
	error
	Type() string
	Suggestions() []string
}

// AuthenticationError indicates an invalid or missing credential (HTTP 401).
// Never retried.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return e.Message }

func (e *AuthenticationError) Type() string { return "authentication_error" }

func (e *AuthenticationError) Suggestions() []string {
	return []string{
		"Set MORGEN_API_KEY in your environment or config file",
		"Verify the key at https://platform.morgen.so/",
	}
}

// NotFoundError indicates the requested resource does not exist (HTTP 404).
// Never retried.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

func (e *NotFoundError) Type() string { return "not_found" }

func (e *NotFoundError) Suggestions() []string { return nil }

// RateLimitError indicates the retry budget was exhausted on repeated 429
// responses. WaitSeconds carries the server's last wait hint.
type RateLimitError struct {
	Message     string
	WaitSeconds int
}

func (e *RateLimitError) Error() string { return e.Message }

func (e *RateLimitError) Type() string { return "rate_limit_error" }

func (e *RateLimitError) Suggestions() []string {
	return []string{
		fmt.Sprintf("Wait %d seconds before retrying", e.WaitSeconds),
		"Reduce request frequency (100 pts / 15 min on API-key auth)",
		"Install the Morgen desktop app for higher rate limits via bearer auth",
	}
}

// APIError is any other >= 400 response. Carries the raw status and body for
// diagnostics. Never retried.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Type() string { return "api_error" }

func (e *APIError) Suggestions() []string { return nil }
