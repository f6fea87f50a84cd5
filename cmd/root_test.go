package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/gutenmorgen/internal/config"
	"github.com/teemow/gutenmorgen/internal/morgen"
)

func TestJoinNonEmpty(t *testing.T) {
	tests := []struct {
		name     string
		parts    []string
		expected string
	}{
		{name: "all set", parts: []string{"a", "b", "c"}, expected: "a / b / c"},
		{name: "some empty", parts: []string{"", "b", ""}, expected: "b"},
		{name: "all empty", parts: []string{"", ""}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, joinNonEmpty(tt.parts, " / "))
		})
	}
}

func TestResolveEventFilterCalendarOverride(t *testing.T) {
	app := &appContext{file: config.File{}}

	filter, err := resolveEventFilter(app, "", "Work, Personal,,  Team ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Work", "Personal", "Team"}, filter.CalendarNames)
}

func TestResolveEventFilterUnknownGroup(t *testing.T) {
	app := &appContext{file: config.File{
		Groups: map[string]config.GroupsEntry{"work": {}},
	}}

	_, err := resolveEventFilter(app, "nope", "")
	require.Error(t, err)
}

func TestClassifyErrorUnwrapsWrappedTypes(t *testing.T) {
	// The aggregator wraps typed errors with call-site context; the kind
	// and suggestions must survive the wrapping.
	wrapped := fmt.Errorf("list native tasks: %w", &morgen.AuthenticationError{Message: "invalid key"})

	errType, suggestions := classifyError(wrapped)
	assert.Equal(t, "authentication_error", errType)
	assert.NotEmpty(t, suggestions)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "plain", err: errors.New("boom"), expected: "error"},
		{name: "direct", err: &morgen.NotFoundError{Message: "gone"}, expected: "not_found"},
		{
			name:     "wrapped rate limit",
			err:      fmt.Errorf("list tasks for account a-1: %w", &morgen.RateLimitError{Message: "slow down", WaitSeconds: 30}),
			expected: "rate_limit_error",
		},
		{name: "missing key", err: config.ErrMissingAPIKey{}, expected: "authentication_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errType, _ := classifyError(tt.err)
			assert.Equal(t, tt.expected, errType)
		})
	}
}

func TestRetryFeedbackAgentMode(t *testing.T) {
	var buf bytes.Buffer
	retryFeedback(true, &buf)(0, 1, 2)

	var payload struct {
		Retry struct {
			Wait    int `json:"wait"`
			Attempt int `json:"attempt"`
			Max     int `json:"max"`
		} `json:"retry"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
	assert.Equal(t, 1, payload.Retry.Attempt)
	assert.Equal(t, 2, payload.Retry.Max)
}

func TestRetryFeedbackHumanMode(t *testing.T) {
	var buf bytes.Buffer
	retryFeedback(false, &buf)(0, 1, 2)
	assert.Contains(t, buf.String(), "Retrying now")
}

func TestTaskDone(t *testing.T) {
	assert.False(t, taskDone(morgen.Task{Progress: "open"}))
	assert.True(t, taskDone(morgen.Task{Progress: "completed"}))
	assert.True(t, taskDone(morgen.Task{Status: "completed"}))
}

func TestAtClock(t *testing.T) {
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	got, err := atClock(day, "09:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC), got)

	_, err = atClock(day, "930")
	require.Error(t, err)
}

func TestGetCategoryFromToolName(t *testing.T) {
	assert.Equal(t, "Calendar Tools", getCategoryFromToolName("morgen_list_events"))
	assert.Equal(t, "Calendar Tools", getCategoryFromToolName("morgen_find_free_slots"))
	assert.Equal(t, "Task Tools", getCategoryFromToolName("morgen_list_tasks"))
	assert.Equal(t, "Task Tools", getCategoryFromToolName("morgen_list_tags"))
	assert.Equal(t, "Other", getCategoryFromToolName("unrelated"))
}
