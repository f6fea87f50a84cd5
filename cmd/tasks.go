package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/gutenmorgen/internal/morgen"
	"github.com/teemow/gutenmorgen/internal/timeutil"
)

func newTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and manage tasks across all connected task integrations",
	}
	cmd.AddCommand(newTasksListCmd())
	cmd.AddCommand(newTasksGetCmd())
	cmd.AddCommand(newTasksCreateCmd())
	cmd.AddCommand(newTasksUpdateCmd())
	cmd.AddCommand(newTasksCloseCmd())
	cmd.AddCommand(newTasksReopenCmd())
	cmd.AddCommand(newTasksMoveCmd())
	cmd.AddCommand(newTasksDeleteCmd())
	cmd.AddCommand(newTasksScheduleCmd())
	return cmd
}

// enrichedTasks runs the fan-out listing and resolves tag names, list names,
// and source metadata so the output is self-describing.
func enrichedTasks(cmd *cobra.Command, app *appContext, opts morgen.ListAllTasksOptions) ([]morgen.Task, error) {
	resp, err := app.client.ListAllTasks(cmd.Context(), opts)
	if err != nil {
		return nil, err
	}
	tags, err := app.client.ListTags(cmd.Context())
	if err != nil {
		return nil, err
	}
	lists, err := app.client.ListTaskLists(cmd.Context())
	if err != nil {
		return nil, err
	}
	return morgen.EnrichTasks(resp.Tasks, resp.LabelDefs, tags, lists), nil
}

func taskDone(t morgen.Task) bool {
	return t.Progress == "completed" || t.Status == "completed"
}

// taskListFilters are the client-side filters applied after enrichment.
type taskListFilters struct {
	status        string
	due           string
	overdue       bool
	priority      int
	prioritySet   bool
	tag           string
	list          string
	showCompleted bool
}

func (f taskListFilters) keep(t morgen.Task, now time.Time) bool {
	if !f.showCompleted && taskDone(t) {
		return false
	}
	if f.status != "" &&
		!strings.EqualFold(t.Progress, f.status) &&
		!strings.EqualFold(t.SourceStatus, f.status) {
		return false
	}
	if f.prioritySet && (t.Priority == nil || *t.Priority != f.priority) {
		return false
	}
	if f.due != "" {
		if t.Due == "" || !strings.HasPrefix(t.Due, f.due) {
			return false
		}
	}
	if f.overdue {
		due, err := timeutil.ParseEventTime(t.Due, now.Location())
		if t.Due == "" || err != nil || !due.Before(now) {
			return false
		}
	}
	if f.tag != "" && !containsFold(t.TagNames, f.tag) && !containsFold(t.Tags, f.tag) {
		return false
	}
	if f.list != "" &&
		!strings.EqualFold(t.ListName, f.list) && t.TaskListID != f.list {
		return false
	}
	return true
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}

func newTasksListCmd() *cobra.Command {
	var (
		source        string
		limit         int
		updatedAfter  string
		groupBySource bool
		filters       taskListFilters
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks merged across Morgen and external integrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			tasks, err := enrichedTasks(cmd, app, morgen.ListAllTasksOptions{
				Source:       source,
				Limit:        limit,
				UpdatedAfter: updatedAfter,
			})
			if err != nil {
				return err
			}

			filters.prioritySet = cmd.Flags().Changed("priority")
			now := time.Now()
			kept := tasks[:0]
			for _, t := range tasks {
				if filters.keep(t, now) {
					kept = append(kept, t)
				}
			}
			tasks = kept

			if groupBySource {
				return printTasksBySource(tasks)
			}
			if jsonOutput {
				return printJSON(tasks)
			}
			for _, t := range tasks {
				printTaskLine(t)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Only tasks from one integration (e.g. morgen, linear, notion)")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum tasks per source")
	cmd.Flags().StringVar(&updatedAfter, "updated-after", "", "Only native tasks updated after this time (ISO 8601)")
	cmd.Flags().BoolVar(&filters.showCompleted, "all", false, "Include completed tasks")
	cmd.Flags().StringVar(&filters.status, "status", "", "Only tasks whose progress or source status matches")
	cmd.Flags().StringVar(&filters.due, "due", "", "Only tasks due on this date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&filters.overdue, "overdue", false, "Only tasks past their due date")
	cmd.Flags().IntVar(&filters.priority, "priority", 0, "Only tasks with this priority")
	cmd.Flags().StringVar(&filters.tag, "tag", "", "Only tasks carrying this tag (name or id)")
	cmd.Flags().StringVar(&filters.list, "list", "", "Only tasks in this list (name or id)")
	cmd.Flags().BoolVar(&groupBySource, "group-by-source", false, "Group output by integration")
	return cmd
}

func printTaskLine(t morgen.Task) {
	marker := " "
	if taskDone(t) {
		marker = "x"
	}
	fmt.Printf("[%s] %s\n", marker, t.Title)
	meta := []string{"id: " + t.ID, "source: " + t.Source}
	if t.SourceID != "" {
		meta = append(meta, t.SourceID)
	}
	if t.SourceStatus != "" {
		meta = append(meta, "status: "+t.SourceStatus)
	}
	if t.Due != "" {
		meta = append(meta, "due: "+t.Due)
	}
	if t.ListName != "" {
		meta = append(meta, "list: "+t.ListName)
	}
	fmt.Printf("    %s\n", joinNonEmpty(meta, "  "))
}

func printTasksBySource(tasks []morgen.Task) error {
	bySource := make(map[string][]morgen.Task)
	for _, t := range tasks {
		bySource[t.Source] = append(bySource[t.Source], t)
	}

	if jsonOutput {
		return printJSON(bySource)
	}

	sources := make([]string, 0, len(bySource))
	for source := range bySource {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	for _, source := range sources {
		fmt.Printf("%s (%d)\n", source, len(bySource[source]))
		for _, t := range bySource[source] {
			printTaskLine(t)
		}
	}
	return nil
}

func newTasksGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <task-id>",
		Short: "Show a single task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			task, err := app.client.GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(task)
			}
			fmt.Printf("%s\n", task.Title)
			if task.Description != "" {
				fmt.Printf("  %s\n", task.Description)
			}
			fmt.Printf("  id: %s  progress: %s\n", task.ID, task.Progress)
			if task.Due != "" {
				fmt.Printf("  due: %s\n", task.Due)
			}
			return nil
		},
	}
}

func newTasksCreateCmd() *cobra.Command {
	var (
		title       string
		description string
		due         string
		listID      string
		priority    int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task in Morgen",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			taskData := map[string]any{"title": title}
			if description != "" {
				taskData["description"] = description
			}
			if due != "" {
				taskData["due"] = due
			}
			if listID != "" {
				taskData["taskListId"] = listID
			}
			if cmd.Flags().Changed("priority") {
				taskData["priority"] = priority
			}

			task, err := app.client.CreateTask(cmd.Context(), taskData)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(task)
			}
			if task != nil {
				fmt.Printf("Created task %s\n", task.ID)
			} else {
				fmt.Println("Created task")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Task title")
	cmd.Flags().StringVar(&description, "description", "", "Task description")
	cmd.Flags().StringVar(&due, "due", "", "Due date (ISO 8601)")
	cmd.Flags().StringVar(&listID, "list", "", "Task list ID")
	cmd.Flags().IntVar(&priority, "priority", 0, "Priority (1 highest)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newTasksUpdateCmd() *cobra.Command {
	var (
		title       string
		description string
		due         string
		listID      string
	)

	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Update a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			taskData := map[string]any{"id": args[0]}
			for key, value := range map[string]string{
				"title": title, "description": description, "due": due, "taskListId": listID,
			} {
				if value != "" {
					taskData[key] = value
				}
			}

			task, err := app.client.UpdateTask(cmd.Context(), taskData)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(task)
			}
			fmt.Println("Updated task")
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&due, "due", "", "New due date (ISO 8601)")
	cmd.Flags().StringVar(&listID, "list", "", "New task list ID")
	return cmd
}

func newTasksCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close <task-id>",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}
			task, err := app.client.CloseTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(task)
			}
			fmt.Println("Closed task")
			return nil
		},
	}
}

func newTasksReopenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reopen <task-id>",
		Short: "Reopen a completed task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}
			task, err := app.client.ReopenTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(task)
			}
			fmt.Println("Reopened task")
			return nil
		},
	}
}

func newTasksMoveCmd() *cobra.Command {
	var (
		after  string
		parent string
	)

	cmd := &cobra.Command{
		Use:   "move <task-id>",
		Short: "Reorder a task or make it a subtask",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}
			task, err := app.client.MoveTask(cmd.Context(), args[0], after, parent)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(task)
			}
			fmt.Println("Moved task")
			return nil
		},
	}

	cmd.Flags().StringVar(&after, "after", "", "Place after this task ID")
	cmd.Flags().StringVar(&parent, "parent", "", "Make this a subtask of the given task ID")
	return cmd
}

func newTasksDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}
			if err := app.client.DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(map[string]string{"deleted": args[0]})
			}
			fmt.Println("Deleted task")
			return nil
		},
	}
}

func newTasksScheduleCmd() *cobra.Command {
	var (
		start      string
		calendarID string
		accountID  string
		duration   int
		timeZone   string
	)

	cmd := &cobra.Command{
		Use:   "schedule <task-id>",
		Short: "Create a calendar event blocking time for a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			event, err := app.client.ScheduleTask(cmd.Context(), args[0], start, calendarID, accountID,
				morgen.ScheduleTaskOptions{
					DurationMinutes: duration,
					TimeZone:        timeZone,
				})
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(event)
			}
			if event != nil {
				fmt.Printf("Scheduled task as event %s\n", event.ID)
			} else {
				fmt.Println("Scheduled task")
			}
			return nil
		},
		Args: cobra.ExactArgs(1),
	}

	cmd.Flags().StringVar(&start, "start", "", "Event start time (ISO 8601)")
	cmd.Flags().StringVar(&calendarID, "calendar", "", "Target calendar ID")
	cmd.Flags().StringVar(&accountID, "account", "", "Account owning the calendar")
	cmd.Flags().IntVar(&duration, "duration", 0, "Block length in minutes (default: task estimate or 30)")
	cmd.Flags().StringVar(&timeZone, "timezone", "", "IANA timezone (default: system)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("calendar")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}
