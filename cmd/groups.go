package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/gutenmorgen/internal/config"
	"github.com/teemow/gutenmorgen/internal/groups"
)

// newGroupsCmd shows the calendar groups configured in the config file. It
// works without an API key so the config can be inspected before
// authentication is set up.
func newGroupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "Show configured calendar groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := config.LoadFile()
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(map[string]any{
					"groups":        file.Groups,
					"default_group": file.DefaultGroup,
					"active_only":   file.ActiveOnly,
				})
			}

			names := groups.Names(file)
			if len(names) == 0 {
				fmt.Println("No calendar groups configured.")
				fmt.Printf("Add a 'groups' section to %s\n", config.Path())
				return nil
			}
			for _, name := range names {
				marker := ""
				if name == file.DefaultGroup {
					marker = "  (default)"
				}
				fmt.Printf("%s%s\n", name, marker)
				entry := file.Groups[name]
				if len(entry.Accounts) > 0 {
					fmt.Printf("  accounts:  %s\n", strings.Join(entry.Accounts, ", "))
				}
				if len(entry.Calendars) > 0 {
					fmt.Printf("  calendars: %s\n", strings.Join(entry.Calendars, ", "))
				}
			}
			return nil
		},
	}
}
