package task_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gutenmorgen/internal/morgen"
	"github.com/teemow/gutenmorgen/internal/server"
	"github.com/teemow/gutenmorgen/internal/tools/common"
)

func registerReadTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listTasksTool := mcp.NewTool("morgen_list_tasks",
		mcp.WithDescription("List tasks aggregated across the Morgen backend and connected integrations (Linear, Notion, Todoist, ...)"),
		mcp.WithString("source",
			mcp.Description("Only tasks from one source, e.g. 'morgen', 'linear', 'notion'"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Per-source page size (default 100)"),
		),
		mcp.WithString("updatedAfter",
			mcp.Description("Only native tasks modified after this time (ISO 8601)"),
		),
		mcp.WithBoolean("showCompleted",
			mcp.Description("Include completed tasks (default false)"),
		),
	)
	s.AddTool(listTasksTool, common.InstrumentedToolHandler("morgen_list_tasks", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListTasks(ctx, request, sc)
		}))

	getTaskTool := mcp.NewTool("morgen_get_task",
		mcp.WithDescription("Get details of a single task"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
	)
	s.AddTool(getTaskTool, common.InstrumentedToolHandler("morgen_get_task", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, ok := common.RequiredStringArg(request.GetArguments(), "id")
			if !ok {
				return mcp.NewToolResultError("id is required"), nil
			}
			task, err := sc.Client().GetTask(ctx, id)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to get task: %v", err)), nil
			}
			return jsonResult(task)
		}))

	listTagsTool := mcp.NewTool("morgen_list_tags",
		mcp.WithDescription("List all task tags"),
	)
	s.AddTool(listTagsTool, common.InstrumentedToolHandler("morgen_list_tags", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			tags, err := sc.Client().ListTags(ctx)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to list tags: %v", err)), nil
			}
			return jsonResult(tags)
		}))

	listTaskListsTool := mcp.NewTool("morgen_list_task_lists",
		mcp.WithDescription("List task lists (projects/folders)"),
	)
	s.AddTool(listTaskListsTool, common.InstrumentedToolHandler("morgen_list_task_lists", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			lists, err := sc.Client().ListTaskLists(ctx)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to list task lists: %v", err)), nil
			}
			return jsonResult(lists)
		}))

	return nil
}

func handleListTasks(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	resp, err := sc.Client().ListAllTasks(ctx, morgen.ListAllTasksOptions{
		Source:       common.StringArg(args, "source", ""),
		Limit:        common.IntArg(args, "limit", 100),
		UpdatedAfter: common.StringArg(args, "updatedAfter", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list tasks: %v", err)), nil
	}

	tags, err := sc.Client().ListTags(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list tags: %v", err)), nil
	}
	lists, err := sc.Client().ListTaskLists(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list task lists: %v", err)), nil
	}

	tasks := morgen.EnrichTasks(resp.Tasks, resp.LabelDefs, tags, lists)
	if !common.BoolArg(args, "showCompleted", false) {
		open := tasks[:0]
		for _, task := range tasks {
			if task.Progress != "completed" && task.Status != "completed" {
				open = append(open, task)
			}
		}
		tasks = open
	}
	return jsonResult(tasks)
}

func registerWriteTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	createTaskTool := mcp.NewTool("morgen_create_task",
		mcp.WithDescription("Create a task in the Morgen backend"),
		mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
		mcp.WithString("description", mcp.Description("Task description")),
		mcp.WithString("due", mcp.Description("Due date (ISO 8601)")),
		mcp.WithNumber("priority", mcp.Description("Priority (1=highest, 9=lowest)")),
		mcp.WithString("taskListId", mcp.Description("Target task list")),
	)
	s.AddTool(createTaskTool, common.InstrumentedToolHandler("morgen_create_task", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateTask(ctx, request, sc)
		}))

	updateTaskTool := mcp.NewTool("morgen_update_task",
		mcp.WithDescription("Update an existing task"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("due", mcp.Description("New due date (ISO 8601)")),
		mcp.WithNumber("priority", mcp.Description("New priority")),
	)
	s.AddTool(updateTaskTool, common.InstrumentedToolHandler("morgen_update_task", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateTask(ctx, request, sc)
		}))

	closeTaskTool := mcp.NewTool("morgen_close_task",
		mcp.WithDescription("Mark a task as completed"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
	)
	s.AddTool(closeTaskTool, common.InstrumentedToolHandler("morgen_close_task", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleTaskAction(ctx, request, sc, sc.Client().CloseTask)
		}))

	reopenTaskTool := mcp.NewTool("morgen_reopen_task",
		mcp.WithDescription("Reopen a completed task"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
	)
	s.AddTool(reopenTaskTool, common.InstrumentedToolHandler("morgen_reopen_task", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleTaskAction(ctx, request, sc, sc.Client().ReopenTask)
		}))

	deleteTaskTool := mcp.NewTool("morgen_delete_task",
		mcp.WithDescription("Delete a task"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
	)
	s.AddTool(deleteTaskTool, common.InstrumentedToolHandler("morgen_delete_task", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, ok := common.RequiredStringArg(request.GetArguments(), "id")
			if !ok {
				return mcp.NewToolResultError("id is required"), nil
			}
			if err := sc.Client().DeleteTask(ctx, id); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to delete task: %v", err)), nil
			}
			return mcp.NewToolResultText("Task deleted"), nil
		}))

	scheduleTaskTool := mcp.NewTool("morgen_schedule_task",
		mcp.WithDescription("Create a calendar event for working on a task (time blocking)"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
		mcp.WithString("start", mcp.Required(), mcp.Description("Event start time (ISO 8601)")),
		mcp.WithString("calendarId", mcp.Required(), mcp.Description("Target calendar ID")),
		mcp.WithString("accountId", mcp.Required(), mcp.Description("Account owning the calendar")),
		mcp.WithNumber("durationMinutes",
			mcp.Description("Event length in minutes; defaults to the task's estimate or 30"),
		),
	)
	s.AddTool(scheduleTaskTool, common.InstrumentedToolHandler("morgen_schedule_task", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleScheduleTask(ctx, request, sc)
		}))

	return nil
}

func handleCreateTask(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	title, ok := common.RequiredStringArg(args, "title")
	if !ok {
		return mcp.NewToolResultError("title is required"), nil
	}
	taskData := map[string]any{"title": title}
	for _, key := range []string{"description", "due", "taskListId"} {
		if v := common.StringArg(args, key, ""); v != "" {
			taskData[key] = v
		}
	}
	if priority := common.IntArg(args, "priority", 0); priority > 0 {
		taskData["priority"] = priority
	}

	task, err := sc.Client().CreateTask(ctx, taskData)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create task: %v", err)), nil
	}
	return jsonResult(task)
}

func handleUpdateTask(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	id, ok := common.RequiredStringArg(args, "id")
	if !ok {
		return mcp.NewToolResultError("id is required"), nil
	}
	taskData := map[string]any{"id": id}
	for _, key := range []string{"title", "description", "due"} {
		if v := common.StringArg(args, key, ""); v != "" {
			taskData[key] = v
		}
	}
	if priority := common.IntArg(args, "priority", 0); priority > 0 {
		taskData["priority"] = priority
	}

	task, err := sc.Client().UpdateTask(ctx, taskData)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update task: %v", err)), nil
	}
	return jsonResult(task)
}

func handleTaskAction(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext, action func(context.Context, string) (*morgen.Task, error)) (*mcp.CallToolResult, error) {
	id, ok := common.RequiredStringArg(request.GetArguments(), "id")
	if !ok {
		return mcp.NewToolResultError("id is required"), nil
	}
	task, err := action(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed: %v", err)), nil
	}
	if task == nil {
		return mcp.NewToolResultText("Done"), nil
	}
	return jsonResult(task)
}

func handleScheduleTask(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	var id, start, calendarID, accountID string
	var ok bool
	if id, ok = common.RequiredStringArg(args, "id"); !ok {
		return mcp.NewToolResultError("id is required"), nil
	}
	if start, ok = common.RequiredStringArg(args, "start"); !ok {
		return mcp.NewToolResultError("start is required"), nil
	}
	if calendarID, ok = common.RequiredStringArg(args, "calendarId"); !ok {
		return mcp.NewToolResultError("calendarId is required"), nil
	}
	if accountID, ok = common.RequiredStringArg(args, "accountId"); !ok {
		return mcp.NewToolResultError("accountId is required"), nil
	}

	event, err := sc.Client().ScheduleTask(ctx, id, start, calendarID, accountID, morgen.ScheduleTaskOptions{
		DurationMinutes: common.IntArg(args, "durationMinutes", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to schedule task: %v", err)), nil
	}
	return jsonResult(event)
}
