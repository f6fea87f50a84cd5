// Package logging provides slog attribute helpers with canonical key names
// so log output stays consistent and greppable across the codebase.
package logging

import (
	"fmt"
	"log/slog"
	"os"
)

// Canonical log attribute keys.
const (
	KeyOperation = "operation"
	KeyResource  = "resource"
	KeyCacheKey  = "cache_key"
	KeyAccount   = "account"
	KeySource    = "source"
	KeyStatus    = "status"
	KeyWait      = "wait_seconds"
	KeyAttempt   = "attempt"
	KeyError     = "error"
	KeyTool      = "tool"
)

// New returns a text slog.Logger writing to stderr. Verbose selects debug
// level; otherwise only warnings and errors are emitted, keeping stdout
// clean for command output.
func New(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Resource returns a slog attribute for the API resource name.
func Resource(resource string) slog.Attr {
	return slog.String(KeyResource, resource)
}

// CacheKey returns a slog attribute for a cache key.
func CacheKey(key string) slog.Attr {
	return slog.String(KeyCacheKey, key)
}

// Account returns a slog attribute for an integration account id.
func Account(id string) slog.Attr {
	return slog.String(KeyAccount, id)
}

// Source returns a slog attribute for a task source.
func Source(source string) slog.Attr {
	return slog.String(KeySource, source)
}

// Wait returns a slog attribute for a retry wait in seconds.
func Wait(seconds int) slog.Attr {
	return slog.Int(KeyWait, seconds)
}

// Attempt returns a slog attribute for a retry attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// Tool returns a slog attribute for an MCP tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Err returns a slog attribute for an error. A nil error yields an empty
// group attribute that slog omits from output, so Err(maybeNil) is safe.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// SanitizeToken masks a credential for logging. Only the length is exposed;
// even partial token prefixes can aid attacks.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
