// Package event_tools exposes calendar operations as MCP tools: account and
// calendar discovery, event listing across accounts, event writes, RSVP, and
// free-slot search.
package event_tools
