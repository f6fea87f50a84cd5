package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod = "method"
	attrPath   = "path"
	attrStatus = "status"
	attrResult = "result"
	attrKey    = "key"
	attrTool   = "tool"
)

// Metrics records client and tool telemetry. The zero value is a no-op
// recorder, which is what disabled instrumentation hands out.
type Metrics struct {
	apiRequestsTotal   metric.Int64Counter
	apiRequestDuration metric.Float64Histogram

	cacheOperationsTotal metric.Int64Counter
	rateLimitWaitsTotal  metric.Int64Counter
	rateLimitWaitSeconds metric.Float64Counter

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	detailedLabels bool
}

// NewMetrics registers all instruments on the meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}

	var err error

	m.apiRequestsTotal, err = meter.Int64Counter(
		"morgen_api_requests_total",
		metric.WithDescription("Total number of Morgen API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create morgen_api_requests_total counter: %w", err)
	}

	m.apiRequestDuration, err = meter.Float64Histogram(
		"morgen_api_request_duration_seconds",
		metric.WithDescription("Morgen API request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("create morgen_api_request_duration_seconds histogram: %w", err)
	}

	m.cacheOperationsTotal, err = meter.Int64Counter(
		"morgen_cache_operations_total",
		metric.WithDescription("Total number of response cache lookups"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create morgen_cache_operations_total counter: %w", err)
	}

	m.rateLimitWaitsTotal, err = meter.Int64Counter(
		"morgen_rate_limit_waits_total",
		metric.WithDescription("Total number of rate-limit retry waits"),
		metric.WithUnit("{wait}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create morgen_rate_limit_waits_total counter: %w", err)
	}

	m.rateLimitWaitSeconds, err = meter.Float64Counter(
		"morgen_rate_limit_wait_seconds_total",
		metric.WithDescription("Total seconds spent waiting on rate limits"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create morgen_rate_limit_wait_seconds_total counter: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordAPIRequest records one HTTP attempt against the API.
func (m *Metrics) RecordAPIRequest(ctx context.Context, method, path string, status int, elapsed time.Duration) {
	if m.apiRequestsTotal == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrStatus, strconv.Itoa(status)),
	}
	if m.detailedLabels {
		attrs = append(attrs, attribute.String(attrPath, path))
	}
	set := metric.WithAttributeSet(attribute.NewSet(attrs...))
	m.apiRequestsTotal.Add(ctx, 1, set)
	m.apiRequestDuration.Record(ctx, elapsed.Seconds(), set)
}

// RecordRateLimitWait records one rate-limit wait and its length.
func (m *Metrics) RecordRateLimitWait(ctx context.Context, seconds int) {
	if m.rateLimitWaitsTotal == nil {
		return
	}
	m.rateLimitWaitsTotal.Add(ctx, 1)
	m.rateLimitWaitSeconds.Add(ctx, float64(seconds))
}

// RecordCacheLookup records a cache hit or miss. The key is reduced to its
// resource class so fingerprinted event keys and per-id keys do not explode
// label cardinality.
func (m *Metrics) RecordCacheLookup(ctx context.Context, key string, hit bool) {
	if m.cacheOperationsTotal == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheOperationsTotal.Add(ctx, 1, metric.WithAttributeSet(attribute.NewSet(
		attribute.String(attrKey, keyClass(key)),
		attribute.String(attrResult, result),
	)))
}

// RecordToolInvocation records one MCP tool call.
func (m *Metrics) RecordToolInvocation(ctx context.Context, tool string, success bool, elapsed time.Duration) {
	if m.toolInvocationsTotal == nil {
		return
	}
	result := "error"
	if success {
		result = "success"
	}
	set := metric.WithAttributeSet(attribute.NewSet(
		attribute.String(attrTool, tool),
		attribute.String(attrResult, result),
	))
	m.toolInvocationsTotal.Add(ctx, 1, set)
	m.toolDuration.Record(ctx, elapsed.Seconds(), set)
}

// keyClass strips the variable suffix from a cache key, leaving the resource
// prefix ("tasks/abc123" -> "tasks").
func keyClass(key string) string {
	if idx := strings.IndexByte(key, '/'); idx >= 0 {
		return key[:idx]
	}
	return key
}
