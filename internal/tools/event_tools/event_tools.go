package event_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gutenmorgen/internal/groups"
	"github.com/teemow/gutenmorgen/internal/morgen"
	"github.com/teemow/gutenmorgen/internal/server"
	"github.com/teemow/gutenmorgen/internal/tools/common"
)

func registerReadTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listAccountsTool := mcp.NewTool("morgen_list_accounts",
		mcp.WithDescription("List connected calendar and task integration accounts"),
	)
	s.AddTool(listAccountsTool, common.InstrumentedToolHandler("morgen_list_accounts", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			accounts, err := sc.Client().ListAccounts(ctx)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to list accounts: %v", err)), nil
			}
			return jsonResult(accounts)
		}))

	listCalendarsTool := mcp.NewTool("morgen_list_calendars",
		mcp.WithDescription("List all calendars across connected accounts"),
	)
	s.AddTool(listCalendarsTool, common.InstrumentedToolHandler("morgen_list_calendars", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			calendars, err := sc.Client().ListCalendars(ctx)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to list calendars: %v", err)), nil
			}
			return jsonResult(calendars)
		}))

	listEventsTool := mcp.NewTool("morgen_list_events",
		mcp.WithDescription("List calendar events within a time range, merged across all accounts"),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start of the range (ISO 8601, e.g. '2026-08-25T00:00:00')"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End of the range (ISO 8601)"),
		),
		mcp.WithString("group",
			mcp.Description("Calendar group from the config file; 'all' bypasses groups"),
		),
		mcp.WithString("calendars",
			mcp.Description("Comma-separated calendar names to include (overrides group calendars)"),
		),
	)
	s.AddTool(listEventsTool, common.InstrumentedToolHandler("morgen_list_events", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		}))

	return nil
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	start, ok := common.RequiredStringArg(args, "start")
	if !ok {
		return mcp.NewToolResultError("start is required"), nil
	}
	end, ok := common.RequiredStringArg(args, "end")
	if !ok {
		return mcp.NewToolResultError("end is required"), nil
	}

	filter, err := groups.Resolve(sc.ConfigFile(), common.StringArg(args, "group", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if calendars := common.StringArg(args, "calendars", ""); calendars != "" {
		filter.CalendarNames = splitList(calendars)
	}

	events, err := sc.Client().ListAllEvents(ctx, start, end, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list events: %v", err)), nil
	}
	return jsonResult(events)
}

func registerWriteTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	createEventTool := mcp.NewTool("morgen_create_event",
		mcp.WithDescription("Create a calendar event"),
		mcp.WithString("title", mcp.Required(), mcp.Description("Event title")),
		mcp.WithString("start", mcp.Required(), mcp.Description("Start time (ISO 8601)")),
		mcp.WithString("duration", mcp.Required(), mcp.Description("Duration (ISO 8601, e.g. 'PT30M')")),
		mcp.WithString("calendarId", mcp.Required(), mcp.Description("Target calendar ID")),
		mcp.WithString("accountId", mcp.Required(), mcp.Description("Account owning the calendar")),
		mcp.WithString("description", mcp.Description("Event description")),
		mcp.WithString("timeZone", mcp.Description("IANA timezone; defaults to the system timezone")),
	)
	s.AddTool(createEventTool, common.InstrumentedToolHandler("morgen_create_event", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateEvent(ctx, request, sc)
		}))

	updateEventTool := mcp.NewTool("morgen_update_event",
		mcp.WithDescription("Update an existing calendar event"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Event ID")),
		mcp.WithString("accountId", mcp.Required(), mcp.Description("Account owning the event")),
		mcp.WithString("calendarId", mcp.Required(), mcp.Description("Calendar containing the event")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("start", mcp.Description("New start time (ISO 8601)")),
		mcp.WithString("duration", mcp.Description("New duration (ISO 8601)")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("seriesUpdateMode",
			mcp.Description("For recurring events: 'single', 'future', or 'all'"),
		),
	)
	s.AddTool(updateEventTool, common.InstrumentedToolHandler("morgen_update_event", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateEvent(ctx, request, sc)
		}))

	deleteEventTool := mcp.NewTool("morgen_delete_event",
		mcp.WithDescription("Delete a calendar event"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Event ID")),
		mcp.WithString("accountId", mcp.Required(), mcp.Description("Account owning the event")),
		mcp.WithString("calendarId", mcp.Required(), mcp.Description("Calendar containing the event")),
		mcp.WithString("seriesUpdateMode",
			mcp.Description("For recurring events: 'single', 'future', or 'all'"),
		),
	)
	s.AddTool(deleteEventTool, common.InstrumentedToolHandler("morgen_delete_event", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteEvent(ctx, request, sc)
		}))

	rsvpEventTool := mcp.NewTool("morgen_rsvp_event",
		mcp.WithDescription("Respond to a calendar invitation"),
		mcp.WithString("action", mcp.Required(),
			mcp.Description("Response: 'accept', 'decline', or 'tentative'"),
		),
		mcp.WithString("eventId", mcp.Required(), mcp.Description("Event ID")),
		mcp.WithString("calendarId", mcp.Required(), mcp.Description("Calendar containing the event")),
		mcp.WithString("accountId", mcp.Required(), mcp.Description("Account owning the calendar")),
		mcp.WithBoolean("notifyOrganizer", mcp.Description("Send a response notification to the organizer")),
		mcp.WithString("comment", mcp.Description("Optional response comment")),
		mcp.WithString("seriesUpdateMode",
			mcp.Description("For recurring events: 'single', 'future', or 'all'"),
		),
	)
	s.AddTool(rsvpEventTool, common.InstrumentedToolHandler("morgen_rsvp_event", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleRSVPEvent(ctx, request, sc)
		}))

	return nil
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventData := map[string]any{}
	for _, key := range []string{"title", "start", "duration", "calendarId", "accountId"} {
		v, ok := common.RequiredStringArg(args, key)
		if !ok {
			return mcp.NewToolResultError(key + " is required"), nil
		}
		eventData[key] = v
	}
	if description := common.StringArg(args, "description", ""); description != "" {
		eventData["description"] = description
	}
	if timeZone := common.StringArg(args, "timeZone", ""); timeZone != "" {
		eventData["timeZone"] = timeZone
	}

	event, err := sc.Client().CreateEvent(ctx, eventData)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create event: %v", err)), nil
	}
	return jsonResult(event)
}

func handleUpdateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventData := map[string]any{}
	for _, key := range []string{"id", "accountId", "calendarId"} {
		v, ok := common.RequiredStringArg(args, key)
		if !ok {
			return mcp.NewToolResultError(key + " is required"), nil
		}
		eventData[key] = v
	}
	for _, key := range []string{"title", "start", "duration", "description"} {
		if v := common.StringArg(args, key, ""); v != "" {
			eventData[key] = v
		}
	}

	event, err := sc.Client().UpdateEvent(ctx, eventData, common.StringArg(args, "seriesUpdateMode", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update event: %v", err)), nil
	}
	return jsonResult(event)
}

func handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventData := map[string]any{}
	for _, key := range []string{"id", "accountId", "calendarId"} {
		v, ok := common.RequiredStringArg(args, key)
		if !ok {
			return mcp.NewToolResultError(key + " is required"), nil
		}
		eventData[key] = v
	}

	if err := sc.Client().DeleteEvent(ctx, eventData, common.StringArg(args, "seriesUpdateMode", "")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete event: %v", err)), nil
	}
	return mcp.NewToolResultText("Event deleted"), nil
}

func handleRSVPEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	req := morgen.RSVPRequest{
		NotifyOrganizer:  common.BoolArg(args, "notifyOrganizer", false),
		Comment:          common.StringArg(args, "comment", ""),
		SeriesUpdateMode: common.StringArg(args, "seriesUpdateMode", ""),
	}
	var ok bool
	if req.Action, ok = common.RequiredStringArg(args, "action"); !ok {
		return mcp.NewToolResultError("action is required"), nil
	}
	switch req.Action {
	case "accept", "decline", "tentative":
	default:
		return mcp.NewToolResultError("action must be 'accept', 'decline', or 'tentative'"), nil
	}
	if req.EventID, ok = common.RequiredStringArg(args, "eventId"); !ok {
		return mcp.NewToolResultError("eventId is required"), nil
	}
	if req.CalendarID, ok = common.RequiredStringArg(args, "calendarId"); !ok {
		return mcp.NewToolResultError("calendarId is required"), nil
	}
	if req.AccountID, ok = common.RequiredStringArg(args, "accountId"); !ok {
		return mcp.NewToolResultError("accountId is required"), nil
	}

	result, err := sc.Client().RSVPEvent(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to RSVP: %v", err)), nil
	}
	if result == nil {
		return mcp.NewToolResultText("RSVP sent"), nil
	}
	return jsonResult(result)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
