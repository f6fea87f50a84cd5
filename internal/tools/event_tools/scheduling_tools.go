package event_tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gutenmorgen/internal/groups"
	"github.com/teemow/gutenmorgen/internal/server"
	"github.com/teemow/gutenmorgen/internal/timeutil"
	"github.com/teemow/gutenmorgen/internal/tools/common"
)

// RegisterSchedulingTools registers the free-slot search tool.
func RegisterSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	findFreeSlotsTool := mcp.NewTool("morgen_find_free_slots",
		mcp.WithDescription("Find free time slots on a day within working hours, across all calendars"),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("The day to search (YYYY-MM-DD)"),
		),
		mcp.WithString("workStart",
			mcp.Description("Start of working hours (HH:MM, default 09:00)"),
		),
		mcp.WithString("workEnd",
			mcp.Description("End of working hours (HH:MM, default 17:00)"),
		),
		mcp.WithNumber("minDurationMinutes",
			mcp.Description("Minimum slot length in minutes (default 30)"),
		),
		mcp.WithString("group",
			mcp.Description("Calendar group from the config file; 'all' bypasses groups"),
		),
	)
	s.AddTool(findFreeSlotsTool, common.InstrumentedToolHandler("morgen_find_free_slots", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFindFreeSlots(ctx, request, sc)
		}))
	return nil
}

type freeSlot struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Minutes int    `json:"minutes"`
}

func handleFindFreeSlots(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	date, ok := common.RequiredStringArg(args, "date")
	if !ok {
		return mcp.NewToolResultError("date is required"), nil
	}
	loc, err := time.LoadLocation(timeutil.LocalTimeZone())
	if err != nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid date format: %v", err)), nil
	}

	windowStart, err := atClock(day, common.StringArg(args, "workStart", "09:00"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid workStart: %v", err)), nil
	}
	windowEnd, err := atClock(day, common.StringArg(args, "workEnd", "17:00"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid workEnd: %v", err)), nil
	}
	minDuration := time.Duration(common.IntArg(args, "minDurationMinutes", 30)) * time.Minute

	filter, err := groups.Resolve(sc.ConfigFile(), common.StringArg(args, "group", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	dayEnd := day.AddDate(0, 0, 1)
	events, err := sc.Client().ListAllEvents(ctx,
		day.Format("2006-01-02T15:04:05"), dayEnd.Format("2006-01-02T15:04:05"), filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list events: %v", err)), nil
	}

	busy := make([]timeutil.Interval, 0, len(events))
	for _, event := range events {
		if event.Start == "" {
			continue
		}
		start, err := timeutil.ParseEventTime(event.Start, loc)
		if err != nil {
			continue
		}
		duration := time.Hour
		if event.Duration != "" {
			if d, err := timeutil.ParseISODuration(event.Duration); err == nil {
				duration = d
			}
		}
		busy = append(busy, timeutil.Interval{Start: start, End: start.Add(duration)})
	}

	slots := timeutil.FreeSlots(busy, windowStart, windowEnd, minDuration)
	out := make([]freeSlot, 0, len(slots))
	for _, slot := range slots {
		out = append(out, freeSlot{
			Start:   slot.Start.Format(time.RFC3339),
			End:     slot.End.Format(time.RFC3339),
			Minutes: int(slot.Duration() / time.Minute),
		})
	}
	return jsonResult(out)
}

func atClock(day time.Time, clock string) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, day.Location()), nil
}
