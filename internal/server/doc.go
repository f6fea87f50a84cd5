// Package server holds the shared state for the MCP server: the Morgen API
// client, the loaded configuration, instrumentation, and the optional
// metrics listener.
package server
