// Package retry provides the two rate-limit wait presenters: an interactive
// per-second countdown for humans and a single machine-readable line for
// agents driving the CLI. Both satisfy the client's retry callback contract,
// which makes the callback responsible for performing the wait.
package retry

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	countdownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	doneStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// Func mirrors the client's retry callback signature.
type Func func(waitSeconds, attempt, maxRetries int)

// Human returns a callback that ticks a visible countdown on w, one line
// update per second, then announces the retry. Output goes to stderr in
// practice so piped JSON stays clean.
func Human(w io.Writer) Func {
	return human(w, time.Sleep)
}

func human(w io.Writer, sleep func(time.Duration)) Func {
	return func(waitSeconds, attempt, maxRetries int) {
		for remaining := waitSeconds; remaining > 0; remaining-- {
			msg := countdownStyle.Render(
				fmt.Sprintf("Rate limited. Retrying in %ds... (attempt %d/%d)", remaining, attempt, maxRetries))
			fmt.Fprintf(w, "\r\033[K%s", msg)
			sleep(time.Second)
		}
		fmt.Fprintf(w, "\r\033[K%s\n", doneStyle.Render("Retrying now..."))
	}
}

// Agent returns a callback that emits one compact JSON line describing the
// wait, then sleeps in a single shot. Agents parse the line and know exactly
// how long the command will stall.
func Agent(w io.Writer) Func {
	return agent(w, time.Sleep)
}

func agent(w io.Writer, sleep func(time.Duration)) Func {
	return func(waitSeconds, attempt, maxRetries int) {
		line, _ := json.Marshal(map[string]any{
			"retry": map[string]int{
				"wait":    waitSeconds,
				"attempt": attempt,
				"max":     maxRetries,
			},
		})
		fmt.Fprintf(w, "%s\n", line)
		sleep(time.Duration(waitSeconds) * time.Second)
	}
}
