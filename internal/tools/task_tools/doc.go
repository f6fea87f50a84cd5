// Package task_tools exposes task operations as MCP tools: aggregated
// listing across sources, single-task reads, task writes, scheduling tasks
// onto the calendar, and tag and task list discovery.
package task_tools
