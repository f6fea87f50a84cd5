package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAccountsCmd() *cobra.Command {
	var tasksOnly bool

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List connected calendar and task integration accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			accounts, err := app.client.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}
			if tasksOnly {
				accounts, err = app.client.ListTaskAccounts(cmd.Context())
				if err != nil {
					return err
				}
			}

			if jsonOutput {
				return printJSON(accounts)
			}
			for _, a := range accounts {
				label := joinNonEmpty([]string{a.PreferredEmail, a.ProviderUserDisplayName, a.Name}, " / ")
				if label == "" {
					label = a.ID
				}
				fmt.Printf("%s  [%s]  %s\n", label, a.IntegrationID, strings.Join(a.IntegrationGroups, ","))
				fmt.Printf("  id: %s\n", a.ID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&tasksOnly, "tasks", false, "Only accounts with task integrations")
	return cmd
}

func newCalendarsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calendars",
		Short: "List all calendars across connected accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			calendars, err := app.client.ListCalendars(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(calendars)
			}
			for _, c := range calendars {
				active := ""
				if c.IsActiveByDefault != nil && *c.IsActiveByDefault {
					active = "  (active)"
				}
				fmt.Printf("%s%s\n", c.Name, active)
				fmt.Printf("  id: %s  account: %s\n", c.EffectiveID(), c.AccountID)
			}
			return nil
		},
	}
}

func newListsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lists",
		Short: "List task lists (projects/folders)",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			lists, err := app.client.ListTaskLists(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(lists)
			}
			for _, l := range lists {
				fmt.Printf("%s  (id: %s)\n", l.Name, l.ID)
			}
			return nil
		},
	}
}
