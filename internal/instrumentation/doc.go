// Package instrumentation provides OpenTelemetry metrics for the Morgen API
// client and the MCP server, exported in Prometheus format.
//
// Instrumentation is off by default: the CLI is a short-lived process and
// only the long-running serve mode benefits from a scrape endpoint. When
// enabled, the provider owns a dedicated Prometheus registry and hands out a
// Metrics recorder that the API client and tool layer feed.
package instrumentation
