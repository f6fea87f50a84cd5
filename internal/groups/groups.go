// Package groups resolves named calendar groups from the config file into
// event-listing filters. A group names a set of accounts ("email" or
// "email:provider" selectors) and calendar names; commands pass the resolved
// filter to the client's fan-out listing.
package groups

import (
	"fmt"
	"sort"
	"strings"

	"github.com/teemow/gutenmorgen/internal/config"
	"github.com/teemow/gutenmorgen/internal/morgen"
)

// All is the escape hatch group name: it bypasses every configured group and
// the active-only default, listing everything.
const All = "all"

// NotFoundError reports a group name that is not configured.
type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("calendar group %q is not configured", e.Name)
}

// Type implements the CLI's typed-error contract.
func (e *NotFoundError) Type() string { return "group_not_found" }

// Suggestions lists the configured groups so the user can correct the name.
func (e *NotFoundError) Suggestions() []string {
	if len(e.Available) == 0 {
		return []string{"Define groups under 'groups:' in " + config.Path()}
	}
	return []string{"Available groups: " + strings.Join(e.Available, ", ")}
}

// Resolve maps a group name to an event filter. Precedence: an explicit name
// wins, then the configured default group, then the bare active-only
// setting. The name "all" always resolves to an unrestricted filter.
func Resolve(file config.File, name string) (morgen.ListEventsFilter, error) {
	if name == All {
		return morgen.ListEventsFilter{}, nil
	}
	if name == "" {
		name = file.DefaultGroup
	}
	if name == "" || name == All {
		return morgen.ListEventsFilter{ActiveOnly: file.ActiveOnly}, nil
	}

	entry, ok := file.Groups[name]
	if !ok {
		return morgen.ListEventsFilter{}, &NotFoundError{Name: name, Available: Names(file)}
	}
	return morgen.ListEventsFilter{
		AccountKeys:   entry.Accounts,
		CalendarNames: entry.Calendars,
	}, nil
}

// Names returns the configured group names, sorted.
func Names(file config.File) []string {
	names := make([]string, 0, len(file.Groups))
	for name := range file.Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
