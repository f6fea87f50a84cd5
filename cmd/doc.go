// Package cmd implements the gm command-line interface.
//
// This package provides the following commands:
//   - accounts, calendars, events, tasks, tags, lists: Morgen API resources
//   - availability: free-slot search within working hours
//   - groups: show configured calendar groups
//   - cache: inspect and clear the response cache
//   - auth: store the API key in the OS keyring
//   - serve: start the MCP server to provide tools for AI assistants
//   - generate-docs: generate markdown documentation for all MCP tools
//   - version: display version information
//
// Every command supports --json for machine-readable output, which also
// switches rate-limit retry feedback from an interactive countdown to a
// single parseable line.
package cmd
