package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/gutenmorgen/internal/groups"
	"github.com/teemow/gutenmorgen/internal/morgen"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List and manage calendar events",
	}
	cmd.AddCommand(newEventsListCmd())
	cmd.AddCommand(newEventsCreateCmd())
	cmd.AddCommand(newEventsUpdateCmd())
	cmd.AddCommand(newEventsDeleteCmd())
	cmd.AddCommand(newEventsRSVPCmd())
	return cmd
}

// resolveEventFilter combines the group flag with explicit calendar names.
func resolveEventFilter(app *appContext, group, calendars string) (morgen.ListEventsFilter, error) {
	filter, err := groups.Resolve(app.file, group)
	if err != nil {
		return morgen.ListEventsFilter{}, err
	}
	if calendars != "" {
		var names []string
		for _, n := range strings.Split(calendars, ",") {
			if trimmed := strings.TrimSpace(n); trimmed != "" {
				names = append(names, trimmed)
			}
		}
		filter.CalendarNames = names
	}
	return filter, nil
}

func newEventsListCmd() *cobra.Command {
	var (
		start     string
		end       string
		days      int
		group     string
		calendars string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events within a time range, merged across all accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			if start == "" {
				start = time.Now().Format("2006-01-02T00:00:00")
			}
			if end == "" {
				endTime, perr := time.Parse("2006-01-02T15:04:05", start)
				if perr != nil {
					return fmt.Errorf("invalid --start %q: %w", start, perr)
				}
				end = endTime.AddDate(0, 0, days).Format("2006-01-02T15:04:05")
			}

			filter, err := resolveEventFilter(app, group, calendars)
			if err != nil {
				return err
			}

			events, err := app.client.ListAllEvents(cmd.Context(), start, end, filter)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(events)
			}
			for _, e := range events {
				fmt.Printf("%s  %s\n", e.Start, e.Title)
				fmt.Printf("  id: %s  calendar: %s  account: %s\n", e.ID, e.CalendarID, e.AccountID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Range start (ISO 8601, default today 00:00)")
	cmd.Flags().StringVar(&end, "end", "", "Range end (ISO 8601, default start + --days)")
	cmd.Flags().IntVar(&days, "days", 1, "Number of days when --end is not given")
	cmd.Flags().StringVar(&group, "group", "", "Calendar group from the config file; 'all' bypasses groups")
	cmd.Flags().StringVar(&calendars, "calendars", "", "Comma-separated calendar names")
	return cmd
}

func newEventsCreateCmd() *cobra.Command {
	var (
		title       string
		start       string
		duration    string
		calendarID  string
		accountID   string
		description string
		timeZone    string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a calendar event",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			eventData := map[string]any{
				"title":      title,
				"start":      start,
				"duration":   duration,
				"calendarId": calendarID,
				"accountId":  accountID,
			}
			if description != "" {
				eventData["description"] = description
			}
			if timeZone != "" {
				eventData["timeZone"] = timeZone
			}

			event, err := app.client.CreateEvent(cmd.Context(), eventData)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(event)
			}
			if event != nil {
				fmt.Printf("Created event %s\n", event.ID)
			} else {
				fmt.Println("Created event")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Event title")
	cmd.Flags().StringVar(&start, "start", "", "Start time (ISO 8601)")
	cmd.Flags().StringVar(&duration, "duration", "PT30M", "Duration (ISO 8601)")
	cmd.Flags().StringVar(&calendarID, "calendar", "", "Target calendar ID")
	cmd.Flags().StringVar(&accountID, "account", "", "Account owning the calendar")
	cmd.Flags().StringVar(&description, "description", "", "Event description")
	cmd.Flags().StringVar(&timeZone, "timezone", "", "IANA timezone (default: system)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("calendar")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func newEventsUpdateCmd() *cobra.Command {
	var (
		id         string
		calendarID string
		accountID  string
		title      string
		start      string
		duration   string
		seriesMode string
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a calendar event",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			eventData := map[string]any{
				"id":         id,
				"calendarId": calendarID,
				"accountId":  accountID,
			}
			for key, value := range map[string]string{
				"title": title, "start": start, "duration": duration,
			} {
				if value != "" {
					eventData[key] = value
				}
			}

			event, err := app.client.UpdateEvent(cmd.Context(), eventData, seriesMode)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(event)
			}
			fmt.Println("Updated event")
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Event ID")
	cmd.Flags().StringVar(&calendarID, "calendar", "", "Calendar containing the event")
	cmd.Flags().StringVar(&accountID, "account", "", "Account owning the event")
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&start, "start", "", "New start time (ISO 8601)")
	cmd.Flags().StringVar(&duration, "duration", "", "New duration (ISO 8601)")
	cmd.Flags().StringVar(&seriesMode, "series", "", "Recurring events: 'single', 'future', or 'all'")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("calendar")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func newEventsDeleteCmd() *cobra.Command {
	var (
		id         string
		calendarID string
		accountID  string
		seriesMode string
	)

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a calendar event",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			eventData := map[string]any{
				"id":         id,
				"calendarId": calendarID,
				"accountId":  accountID,
			}
			if err := app.client.DeleteEvent(cmd.Context(), eventData, seriesMode); err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(map[string]string{"deleted": id})
			}
			fmt.Println("Deleted event")
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Event ID")
	cmd.Flags().StringVar(&calendarID, "calendar", "", "Calendar containing the event")
	cmd.Flags().StringVar(&accountID, "account", "", "Account owning the event")
	cmd.Flags().StringVar(&seriesMode, "series", "", "Recurring events: 'single', 'future', or 'all'")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("calendar")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func newEventsRSVPCmd() *cobra.Command {
	var (
		action     string
		eventID    string
		calendarID string
		accountID  string
		notify     bool
		comment    string
		seriesMode string
	)

	cmd := &cobra.Command{
		Use:   "rsvp",
		Short: "Respond to a calendar invitation",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch action {
			case "accept", "decline", "tentative":
			default:
				return fmt.Errorf("invalid --action %q (accept, decline, tentative)", action)
			}

			app, err := newAppContext()
			if err != nil {
				return err
			}

			result, err := app.client.RSVPEvent(cmd.Context(), morgen.RSVPRequest{
				Action:           action,
				EventID:          eventID,
				CalendarID:       calendarID,
				AccountID:        accountID,
				NotifyOrganizer:  notify,
				Comment:          comment,
				SeriesUpdateMode: seriesMode,
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				if result == nil {
					result = map[string]any{"status": "sent"}
				}
				return printJSON(result)
			}
			fmt.Printf("RSVP sent: %s\n", action)
			return nil
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "Response: accept, decline, or tentative")
	cmd.Flags().StringVar(&eventID, "id", "", "Event ID")
	cmd.Flags().StringVar(&calendarID, "calendar", "", "Calendar containing the event")
	cmd.Flags().StringVar(&accountID, "account", "", "Account owning the calendar")
	cmd.Flags().BoolVar(&notify, "notify", false, "Notify the organizer")
	cmd.Flags().StringVar(&comment, "comment", "", "Response comment")
	cmd.Flags().StringVar(&seriesMode, "series", "", "Recurring events: 'single', 'future', or 'all'")
	_ = cmd.MarkFlagRequired("action")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("calendar")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}
