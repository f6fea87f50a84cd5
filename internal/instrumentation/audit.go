package instrumentation

import (
	"log/slog"
	"time"

	"github.com/teemow/gutenmorgen/internal/logging"
)

// ToolInvocation captures one MCP tool call for audit logging. The tool
// layer creates one per call, completes it, and logs the attributes.
type ToolInvocation struct {
	Tool      string
	Operation string // list, get, create, update, delete
	Resource  string // events, tasks, tags, ...

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string
}

// NewToolInvocation starts the clock for one tool call.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{Tool: tool, StartTime: time.Now()}
}

// WithTarget records what the tool operated on.
func (ti *ToolInvocation) WithTarget(operation, resource string) *ToolInvocation {
	ti.Operation = operation
	ti.Resource = resource
	return ti
}

// CompleteSuccess marks the call successful and stamps the duration.
func (ti *ToolInvocation) CompleteSuccess() {
	ti.Success = true
	ti.Duration = time.Since(ti.StartTime)
}

// CompleteWithError marks the call failed and stamps the duration.
func (ti *ToolInvocation) CompleteWithError(err error) {
	ti.Success = false
	ti.Duration = time.Since(ti.StartTime)
	if err != nil {
		ti.Error = err.Error()
	}
}

// LogAttrs returns the structured-log attributes for this invocation, using
// the canonical keys shared with the client's own logging.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		logging.Tool(ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	if ti.Operation != "" {
		attrs = append(attrs, logging.Operation(ti.Operation))
	}
	if ti.Resource != "" {
		attrs = append(attrs, logging.Resource(ti.Resource))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, ti.Error))
	}
	return attrs
}
