package retry

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanTicksOncePerSecond(t *testing.T) {
	var buf bytes.Buffer
	var slept []time.Duration
	fn := human(&buf, func(d time.Duration) { slept = append(slept, d) })

	fn(3, 1, 2)

	require.Len(t, slept, 3)
	for _, d := range slept {
		assert.Equal(t, time.Second, d)
	}
	out := buf.String()
	assert.Contains(t, out, "Retrying in 3s")
	assert.Contains(t, out, "Retrying in 1s")
	assert.Contains(t, out, "attempt 1/2")
	assert.Contains(t, out, "Retrying now")
}

func TestAgentEmitsOneLineAndSleepsOnce(t *testing.T) {
	var buf bytes.Buffer
	var slept []time.Duration
	fn := agent(&buf, func(d time.Duration) { slept = append(slept, d) })

	fn(15, 2, 3)

	require.Equal(t, []time.Duration{15 * time.Second}, slept)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var payload struct {
		Retry struct {
			Wait    int `json:"wait"`
			Attempt int `json:"attempt"`
			Max     int `json:"max"`
		} `json:"retry"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &payload))
	assert.Equal(t, 15, payload.Retry.Wait)
	assert.Equal(t, 2, payload.Retry.Attempt)
	assert.Equal(t, 3, payload.Retry.Max)
}
