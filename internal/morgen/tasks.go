package morgen

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strconv"

	"github.com/teemow/gutenmorgen/internal/cache"
	"github.com/teemow/gutenmorgen/internal/logging"
)

// statusLabelIDs are the label definition ids known to carry a task's
// source-side status. Checked in order; the first label present on a task
// wins. The second entry is Notion's URL-encoded status property id.
var statusLabelIDs = []string{
	"state",
	"notion%3A%2F%2Fprojects%2Fstatus_property",
}

// ListAllTasksOptions filter the aggregate task listing.
type ListAllTasksOptions struct {
	// Source keeps only tasks from one integration ("morgen", "linear",
	// "notion", ...). Empty means all sources. The native backend is
	// skipped entirely when a non-native source is requested.
	Source string
	// Limit is the per-source page size.
	Limit int
	// UpdatedAfter filters native tasks by modification time (ISO 8601).
	// External integrations ignore it.
	UpdatedAfter string
}

// ListAllTasks aggregates tasks across the native backend and every
// connected task integration into one compound response. Native tasks come
// first, then each external account in discovery order. Label definitions
// and spaces from all sources are concatenated so EnrichTasks can resolve
// source-specific vocabularies. Any single source failing aborts the whole
// listing: a silently partial task list is worse than an error.
func (c *Client) ListAllTasks(ctx context.Context, opts ListAllTasksOptions) (*TaskListResponse, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	var result TaskListResponse

	if opts.Source == "" || opts.Source == SourceMorgen {
		tasks, err := c.ListTasks(ctx, opts.Limit, opts.UpdatedAfter)
		if err != nil {
			return nil, fmt.Errorf("list native tasks: %w", err)
		}
		result.Tasks = append(result.Tasks, tasks...)
	}

	if opts.Source == SourceMorgen {
		return &result, nil
	}

	accounts, err := c.ListTaskAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list task accounts: %w", err)
	}

	for _, account := range accounts {
		if opts.Source != "" && account.IntegrationID != opts.Source {
			continue
		}
		part, err := c.listAccountTasks(ctx, account.ID, opts.Limit)
		if err != nil {
			return nil, fmt.Errorf("list tasks for account %s: %w", account.ID, err)
		}
		result.Tasks = append(result.Tasks, part.Tasks...)
		result.LabelDefs = append(result.LabelDefs, part.LabelDefs...)
		result.Spaces = append(result.Spaces, part.Spaces...)
		c.logger.Debug("aggregated source",
			logging.Source(account.IntegrationID), logging.Account(account.ID),
			slog.Int("tasks", len(part.Tasks)))
	}

	return &result, nil
}

// listAccountTasks fetches one external account's compound task payload,
// cached per account so each integration's tasks expire independently.
func (c *Client) listAccountTasks(ctx context.Context, accountID string, limit int) (*TaskListResponse, error) {
	key := "tasks/" + accountID
	var cached TaskListResponse
	if c.cachedAs(ctx, key, &cached) {
		return &cached, nil
	}

	query := url.Values{
		"accountId": {accountID},
		"limit":     {strconv.Itoa(limit)},
	}
	raw, err := c.exec.execute(ctx, http.MethodGet, "/tasks/list", query, nil)
	if err != nil {
		return nil, err
	}

	part, err := decodeTaskListResponse(raw)
	if err != nil {
		return nil, err
	}
	c.put(key, part, cache.TTLTasks)
	c.logger.Debug("fetched external tasks",
		logging.Account(accountID), logging.CacheKey(key))
	return part, nil
}

// decodeTaskListResponse unwraps a compound task payload: tasks plus the
// accompanying labelDefs and spaces.
func decodeTaskListResponse(raw json.RawMessage) (*TaskListResponse, error) {
	inner := unwrapData(raw)

	var resp TaskListResponse
	if err := json.Unmarshal(inner, &resp); err != nil {
		// A bare array of tasks is also a valid shape.
		var tasks []Task
		if json.Unmarshal(inner, &tasks) != nil {
			return nil, fmt.Errorf("decode tasks: %w", err)
		}
		resp = TaskListResponse{Tasks: tasks}
	}

	for _, t := range resp.Tasks {
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("decode tasks: %w", err)
		}
	}
	return &resp, nil
}

// EnrichTasks returns tasks with normalized cross-source metadata filled in:
//
//   - Source: the integration id, defaulting to the native backend
//   - SourceID: the human-readable identifier label (e.g. "ENG-123")
//   - SourceURL: the link back to the item in its source system
//   - SourceStatus: the display name of the source-side status, resolved
//     through the label definitions' value vocabularies
//   - TagNames: tag ids resolved to names
//   - ListName: the task list id resolved to its name
//
// Inputs are not mutated.
func EnrichTasks(tasks []Task, labelDefs []LabelDef, tags []Tag, lists []TaskList) []Task {
	tagNames := make(map[string]string, len(tags))
	for _, tag := range tags {
		tagNames[tag.ID] = tag.Name
	}
	listNames := make(map[string]string, len(lists))
	for _, list := range lists {
		listNames[list.ID] = list.Name
	}
	defsByID := make(map[string]LabelDef, len(labelDefs))
	for _, def := range labelDefs {
		defsByID[def.ID] = def
	}

	out := make([]Task, len(tasks))
	for i, task := range tasks {
		t := task

		t.Source = t.IntegrationID
		if t.Source == "" {
			t.Source = SourceMorgen
		}

		if value, ok := labelValue(t.Labels, "identifier"); ok {
			t.SourceID = fmt.Sprint(value)
		}
		if link, ok := t.Links["original"]; ok {
			t.SourceURL = link.Href
		}
		t.SourceStatus = resolveStatus(t.Labels, defsByID)

		if len(t.Tags) > 0 {
			names := make([]string, 0, len(t.Tags))
			for _, id := range t.Tags {
				if name, ok := tagNames[id]; ok {
					names = append(names, name)
				} else {
					names = append(names, id)
				}
			}
			t.TagNames = names
		}
		if t.TaskListID != "" {
			if name, ok := listNames[t.TaskListID]; ok {
				t.ListName = name
			}
		}

		out[i] = t
	}
	return out
}

// labelValue returns the value of the label with the given id.
func labelValue(labels []TaskLabel, id string) (any, bool) {
	for _, l := range labels {
		if l.ID == id {
			return l.Value, true
		}
	}
	return nil, false
}

// resolveStatus maps a task's status label to its display name. The raw
// label value is an opaque enum member; the matching label definition's
// vocabulary translates it. An unknown value falls back to its raw string
// form so the status is never silently dropped.
func resolveStatus(labels []TaskLabel, defsByID map[string]LabelDef) string {
	for _, id := range statusLabelIDs {
		value, ok := labelValue(labels, id)
		if !ok || value == nil {
			continue
		}
		if def, ok := defsByID[id]; ok {
			for _, v := range def.Values {
				// Label values are opaque JSON; objects and arrays are
				// uncomparable with ==, so compare structurally.
				if v.Label != "" && reflect.DeepEqual(v.Value, value) {
					return v.Label
				}
			}
		}
		return fmt.Sprint(value)
	}
	return ""
}
