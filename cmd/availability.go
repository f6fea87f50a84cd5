package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/gutenmorgen/internal/timeutil"
)

func newAvailabilityCmd() *cobra.Command {
	var (
		date        string
		workStart   string
		workEnd     string
		minDuration int
		group       string
		calendars   string
	)

	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Find free time slots on a day within working hours",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			loc, err := time.LoadLocation(timeutil.LocalTimeZone())
			if err != nil {
				loc = time.Local
			}
			if date == "" {
				date = time.Now().In(loc).Format("2006-01-02")
			}
			day, err := time.ParseInLocation("2006-01-02", date, loc)
			if err != nil {
				return fmt.Errorf("invalid --date %q: %w", date, err)
			}
			windowStart, err := atClock(day, workStart)
			if err != nil {
				return fmt.Errorf("invalid --work-start %q: %w", workStart, err)
			}
			windowEnd, err := atClock(day, workEnd)
			if err != nil {
				return fmt.Errorf("invalid --work-end %q: %w", workEnd, err)
			}

			filter, err := resolveEventFilter(app, group, calendars)
			if err != nil {
				return err
			}

			dayEnd := day.AddDate(0, 0, 1)
			events, err := app.client.ListAllEvents(cmd.Context(),
				day.Format("2006-01-02T15:04:05"), dayEnd.Format("2006-01-02T15:04:05"), filter)
			if err != nil {
				return err
			}

			busy := make([]timeutil.Interval, 0, len(events))
			for _, event := range events {
				if event.Start == "" {
					continue
				}
				start, perr := timeutil.ParseEventTime(event.Start, loc)
				if perr != nil {
					continue
				}
				duration := time.Hour
				if event.Duration != "" {
					if d, derr := timeutil.ParseISODuration(event.Duration); derr == nil {
						duration = d
					}
				}
				busy = append(busy, timeutil.Interval{Start: start, End: start.Add(duration)})
			}

			slots := timeutil.FreeSlots(busy, windowStart, windowEnd,
				time.Duration(minDuration)*time.Minute)

			if jsonOutput {
				type freeSlot struct {
					Start   string `json:"start"`
					End     string `json:"end"`
					Minutes int    `json:"minutes"`
				}
				out := make([]freeSlot, 0, len(slots))
				for _, slot := range slots {
					out = append(out, freeSlot{
						Start:   slot.Start.Format(time.RFC3339),
						End:     slot.End.Format(time.RFC3339),
						Minutes: int(slot.Duration() / time.Minute),
					})
				}
				return printJSON(out)
			}

			if len(slots) == 0 {
				fmt.Printf("No free slots on %s between %s and %s\n", date, workStart, workEnd)
				return nil
			}
			fmt.Printf("Free slots on %s:\n", date)
			for _, slot := range slots {
				fmt.Printf("  %s - %s  (%d min)\n",
					slot.Start.Format("15:04"), slot.End.Format("15:04"),
					int(slot.Duration()/time.Minute))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to search (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&workStart, "work-start", "09:00", "Start of working hours (HH:MM)")
	cmd.Flags().StringVar(&workEnd, "work-end", "17:00", "End of working hours (HH:MM)")
	cmd.Flags().IntVar(&minDuration, "min-duration", 30, "Minimum slot length in minutes")
	cmd.Flags().StringVar(&group, "group", "", "Calendar group from the config file; 'all' bypasses groups")
	cmd.Flags().StringVar(&calendars, "calendars", "", "Comma-separated calendar names")
	return cmd
}

func atClock(day time.Time, clock string) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, day.Location()), nil
}
