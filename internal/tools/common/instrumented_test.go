package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToolTarget(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		resource  string
	}{
		{name: "morgen_list_events", operation: "list", resource: "events"},
		{name: "morgen_find_free_slots", operation: "find", resource: "free_slots"},
		{name: "morgen_list_task_lists", operation: "list", resource: "task_lists"},
		{name: "morgen_rsvp_event", operation: "rsvp", resource: "event"},
		{name: "oddball", operation: "", resource: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			operation, resource := toolTarget(tt.name)
			assert.Equal(t, tt.operation, operation)
			assert.Equal(t, tt.resource, resource)
		})
	}
}
