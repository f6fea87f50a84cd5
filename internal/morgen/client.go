package morgen

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/teemow/gutenmorgen/internal/cache"
	"github.com/teemow/gutenmorgen/internal/config"
	"github.com/teemow/gutenmorgen/internal/logging"
	"github.com/teemow/gutenmorgen/internal/timeutil"
)

// Client is the typed Morgen API client. Read methods go through the cache
// (read-through/write-through with per-resource TTLs); write methods always
// hit the network and invalidate every cache prefix related to the written
// resource, so the cache can never serve a stale read after a write.
//
// Constructed without a cache, the client bypasses caching entirely.
type Client struct {
	settings config.Settings
	cache    *cache.Store
	exec     *executor
	auth     *AuthResolver
	logger   *slog.Logger
	metrics  MetricsRecorder
}

type clientOptions struct {
	cache      *cache.Store
	onRetry    RetryFunc
	httpClient *http.Client
	logger     *slog.Logger
	metrics    MetricsRecorder
}

// Option configures a Client.
type Option func(*clientOptions)

// WithCache attaches a response cache. Without it every call goes to the
// network (the --no-cache path).
func WithCache(store *cache.Store) Option {
	return func(o *clientOptions) { o.cache = store }
}

// WithRetryCallback sets the rate-limit retry callback. The callback owns
// the wait; see RetryFunc.
func WithRetryCallback(fn RetryFunc) Option {
	return func(o *clientOptions) { o.onRetry = fn }
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

// WithMetrics attaches a metrics recorder to the request pipeline and cache
// lookups.
func WithMetrics(m MetricsRecorder) Option {
	return func(o *clientOptions) { o.metrics = m }
}

// NewClient builds a Client from settings.
func NewClient(settings config.Settings, opts ...Option) *Client {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: settings.Timeout}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	cacheDir := settings.CacheDir
	if cacheDir == "" {
		cacheDir = cache.DefaultDir()
	}
	auth := NewAuthResolver(settings, o.httpClient, cacheDir, o.logger)

	return &Client{
		settings: settings,
		cache:    o.cache,
		exec:     newExecutor(o.httpClient, settings.BaseURL, auth, settings.MaxRetries, o.onRetry, o.logger, o.metrics),
		auth:     auth,
		logger:   o.logger,
		metrics:  o.metrics,
	}
}

// ----- cache plumbing -----

// cachedAs returns true and fills dest when key holds a fresh entry that
// still decodes under the current schema. Re-decoding on every hit keeps
// cached payloads subject to current validation and default-filling.
func (c *Client) cachedAs(ctx context.Context, key string, dest any) bool {
	if c.cache == nil {
		return false
	}
	raw := c.cache.Get(key)
	hit := raw != nil && json.Unmarshal(raw, dest) == nil
	if c.metrics != nil {
		c.metrics.RecordCacheLookup(ctx, key, hit)
	}
	if hit {
		c.logger.Debug("cache hit", logging.CacheKey(key))
	}
	return hit
}

// put stores a freshly fetched value; a nil cache makes it a no-op.
func (c *Client) put(key string, value any, ttl time.Duration) {
	if c.cache != nil {
		c.cache.Set(key, value, ttl)
	}
}

func (c *Client) invalidate(prefix string) {
	if c.cache != nil {
		c.cache.Invalidate(prefix)
	}
}

// ----- accounts -----

// ListAccounts lists connected calendar and integration accounts.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var cached []Account
	if c.cachedAs(ctx, "accounts", &cached) {
		return cached, nil
	}
	raw, err := c.exec.execute(ctx, http.MethodGet, "/integrations/accounts/list", nil, nil)
	if err != nil {
		return nil, err
	}
	accounts, err := decodeList[Account](raw, "accounts")
	if err != nil {
		return nil, err
	}
	c.put("accounts", accounts, cache.TTLAccounts)
	return accounts, nil
}

// ListTaskAccounts lists accounts with task integrations (Linear, Notion,
// Todoist, ...), cached separately with a long TTL since integrations change
// rarely.
func (c *Client) ListTaskAccounts(ctx context.Context) ([]Account, error) {
	var cached []Account
	if c.cachedAs(ctx, "task_accounts", &cached) {
		return cached, nil
	}
	accounts, err := c.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]Account, 0, len(accounts))
	for _, a := range accounts {
		if a.HasGroup("tasks") {
			result = append(result, a)
		}
	}
	c.put("task_accounts", result, cache.TTLTaskAccounts)
	return result, nil
}

// ----- calendars -----

// ListCalendars lists all calendars across accounts.
func (c *Client) ListCalendars(ctx context.Context) ([]Calendar, error) {
	var cached []Calendar
	if c.cachedAs(ctx, "calendars", &cached) {
		return cached, nil
	}
	raw, err := c.exec.execute(ctx, http.MethodGet, "/calendars/list", nil, nil)
	if err != nil {
		return nil, err
	}
	calendars, err := decodeList[Calendar](raw, "calendars")
	if err != nil {
		return nil, err
	}
	c.put("calendars", calendars, cache.TTLCalendars)
	return calendars, nil
}

// ----- events -----

// eventsCacheKey fingerprints a date-ranged event query so distinct filter
// parameter sets get distinct cache entries.
func eventsCacheKey(accountID string, calendarIDs []string, start, end string) string {
	sorted := append([]string(nil), calendarIDs...)
	sort.Strings(sorted)
	raw := accountID + ":" + strings.Join(sorted, ",") + ":" + start + ":" + end
	sum := sha256.Sum256([]byte(raw))
	return "events/" + hex.EncodeToString(sum[:])[:12]
}

// ListEvents lists events in a date range for one account.
func (c *Client) ListEvents(ctx context.Context, accountID string, calendarIDs []string, start, end string) ([]Event, error) {
	key := eventsCacheKey(accountID, calendarIDs, start, end)
	var cached []Event
	if c.cachedAs(ctx, key, &cached) {
		return cached, nil
	}
	query := url.Values{
		"accountId":   {accountID},
		"calendarIds": {strings.Join(calendarIDs, ",")},
		"start":       {start},
		"end":         {end},
	}
	raw, err := c.exec.execute(ctx, http.MethodGet, "/events/list", query, nil)
	if err != nil {
		return nil, err
	}
	events, err := decodeList[Event](raw, "events")
	if err != nil {
		return nil, err
	}
	c.put(key, events, cache.TTLEvents)
	return events, nil
}

// ListEventsFilter narrows ListAllEvents to configured accounts/calendars.
type ListEventsFilter struct {
	// AccountKeys are "email" or "email:provider" selectors; empty means
	// all accounts.
	AccountKeys []string
	// CalendarNames whitelists calendars by name and takes priority over
	// ActiveOnly.
	CalendarNames []string
	// ActiveOnly keeps only calendars marked active by default.
	ActiveOnly bool
}

// ListAllEvents fans out ListEvents across calendar-capable accounts in
// discovery order and drops "(via Morgen)" synced copies so the same event
// never shows up twice.
func (c *Client) ListAllEvents(ctx context.Context, start, end string, filter ListEventsFilter) ([]Event, error) {
	accounts, err := c.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	calendars, err := c.ListCalendars(ctx)
	if err != nil {
		return nil, err
	}

	if len(filter.AccountKeys) > 0 {
		var kept []Account
		for _, a := range accounts {
			for _, key := range filter.AccountKeys {
				if MatchAccount(a, key) {
					kept = append(kept, a)
					break
				}
			}
		}
		accounts = kept
	}

	if len(filter.CalendarNames) > 0 {
		names := make(map[string]bool, len(filter.CalendarNames))
		for _, n := range filter.CalendarNames {
			names[n] = true
		}
		var kept []Calendar
		for _, cal := range calendars {
			if names[cal.Name] {
				kept = append(kept, cal)
			}
		}
		calendars = kept
	} else if filter.ActiveOnly {
		var kept []Calendar
		for _, cal := range calendars {
			if cal.IsActiveByDefault != nil && *cal.IsActiveByDefault {
				kept = append(kept, cal)
			}
		}
		calendars = kept
	}

	calsByAccount := map[string][]string{}
	for _, cal := range calendars {
		if cal.AccountID == "" || cal.EffectiveID() == "" {
			continue
		}
		calsByAccount[cal.AccountID] = append(calsByAccount[cal.AccountID], cal.EffectiveID())
	}

	var all []Event
	for _, account := range accounts {
		if !account.HasGroup("calendars") {
			continue
		}
		calIDs := calsByAccount[account.ID]
		if len(calIDs) == 0 {
			continue
		}
		events, err := c.ListEvents(ctx, account.ID, calIDs, start, end)
		if err != nil {
			return nil, err
		}
		all = append(all, events...)
	}

	deduped := all[:0]
	for _, e := range all {
		if !strings.Contains(e.Title, "(via Morgen)") {
			deduped = append(deduped, e)
		}
	}
	return deduped, nil
}

// MatchAccount reports whether an account matches an "email" or
// "email:provider" selector. Google accounts often have a null
// preferredEmail, so the emails list is also checked.
func MatchAccount(account Account, key string) bool {
	email, provider, hasProvider := strings.Cut(key, ":")
	if hasProvider && account.IntegrationID != provider {
		return false
	}
	if account.PreferredEmail == email {
		return true
	}
	for _, e := range account.Emails {
		if e == email {
			return true
		}
	}
	return false
}

func seriesQuery(seriesUpdateMode string) url.Values {
	if seriesUpdateMode == "" {
		return nil
	}
	return url.Values{"seriesUpdateMode": {seriesUpdateMode}}
}

// CreateEvent creates an event. eventData is sent as-is, so callers can set
// provider-specific fields like "morgen.so:metadata".
func (c *Client) CreateEvent(ctx context.Context, eventData map[string]any) (*Event, error) {
	raw, err := c.exec.execute(ctx, http.MethodPost, "/events/create", nil, eventData)
	if err != nil {
		return nil, err
	}
	c.invalidate("events")
	return decodeSingle[Event](raw, "event")
}

// UpdateEvent updates an event. seriesUpdateMode controls how recurring
// series are affected ("single", "future", "all"); empty leaves it to the
// server default.
func (c *Client) UpdateEvent(ctx context.Context, eventData map[string]any, seriesUpdateMode string) (*Event, error) {
	raw, err := c.exec.execute(ctx, http.MethodPost, "/events/update", seriesQuery(seriesUpdateMode), eventData)
	if err != nil {
		return nil, err
	}
	c.invalidate("events")
	return decodeSingle[Event](raw, "event")
}

// DeleteEvent deletes an event.
func (c *Client) DeleteEvent(ctx context.Context, eventData map[string]any, seriesUpdateMode string) error {
	_, err := c.exec.execute(ctx, http.MethodPost, "/events/delete", seriesQuery(seriesUpdateMode), eventData)
	if err != nil {
		return err
	}
	c.invalidate("events")
	return nil
}

// RSVPRequest describes a response to a calendar invitation.
type RSVPRequest struct {
	Action           string // accept, decline, tentative
	EventID          string
	CalendarID       string
	AccountID        string
	NotifyOrganizer  bool
	Comment          string
	SeriesUpdateMode string
}

// RSVPEvent responds to an invitation. This is the one write that targets
// the sync host instead of the v3 API host, so the executor is handed an
// absolute URL.
func (c *Client) RSVPEvent(ctx context.Context, req RSVPRequest) (map[string]any, error) {
	body := map[string]any{
		"action":          req.Action,
		"eventId":         req.EventID,
		"calendarId":      req.CalendarID,
		"accountId":       req.AccountID,
		"notifyOrganizer": req.NotifyOrganizer,
	}
	if req.Comment != "" {
		body["comment"] = req.Comment
	}
	target := strings.TrimSuffix(c.settings.SyncBaseURL, "/") + "/events/rsvp"
	raw, err := c.exec.execute(ctx, http.MethodPost, target, seriesQuery(req.SeriesUpdateMode), body)
	if err != nil {
		return nil, err
	}
	c.invalidate("events")
	if len(raw) == 0 {
		return nil, nil
	}
	var result map[string]any
	if err := json.Unmarshal(unwrapData(raw), &result); err != nil {
		return nil, fmt.Errorf("decode rsvp response: %w", err)
	}
	return result, nil
}

// ----- tasks -----

// ListTasks lists native tasks.
func (c *Client) ListTasks(ctx context.Context, limit int, updatedAfter string) ([]Task, error) {
	var cached []Task
	if c.cachedAs(ctx, "tasks/list", &cached) {
		return cached, nil
	}
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if updatedAfter != "" {
		query.Set("updatedAfter", updatedAfter)
	}
	raw, err := c.exec.execute(ctx, http.MethodGet, "/tasks/list", query, nil)
	if err != nil {
		return nil, err
	}
	tasks, err := decodeList[Task](raw, "tasks")
	if err != nil {
		return nil, err
	}
	c.put("tasks/list", tasks, cache.TTLTasks)
	return tasks, nil
}

// GetTask fetches a single task by id.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	key := "tasks/" + taskID
	var cached Task
	if c.cachedAs(ctx, key, &cached) {
		return &cached, nil
	}
	raw, err := c.exec.execute(ctx, http.MethodGet, "/tasks/", url.Values{"id": {taskID}}, nil)
	if err != nil {
		return nil, err
	}
	task, err := decodeSingle[Task](raw, "task")
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, &NotFoundError{Message: fmt.Sprintf("Task %s not found", taskID)}
	}
	c.put(key, task, cache.TTLSingle)
	return task, nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, taskData map[string]any) (*Task, error) {
	return c.taskWrite(ctx, "/tasks/create", taskData)
}

// UpdateTask updates a task.
func (c *Client) UpdateTask(ctx context.Context, taskData map[string]any) (*Task, error) {
	return c.taskWrite(ctx, "/tasks/update", taskData)
}

// CloseTask marks a task completed.
func (c *Client) CloseTask(ctx context.Context, taskID string) (*Task, error) {
	return c.taskWrite(ctx, "/tasks/close", map[string]any{"id": taskID})
}

// ReopenTask reopens a completed task.
func (c *Client) ReopenTask(ctx context.Context, taskID string) (*Task, error) {
	return c.taskWrite(ctx, "/tasks/reopen", map[string]any{"id": taskID})
}

// MoveTask reorders or nests a task. Empty after/parent are omitted.
func (c *Client) MoveTask(ctx context.Context, taskID, after, parent string) (*Task, error) {
	payload := map[string]any{"id": taskID}
	if after != "" {
		payload["after"] = after
	}
	if parent != "" {
		payload["parent"] = parent
	}
	return c.taskWrite(ctx, "/tasks/move", payload)
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	_, err := c.exec.execute(ctx, http.MethodPost, "/tasks/delete", nil, map[string]any{"id": taskID})
	if err != nil {
		return err
	}
	c.invalidate("tasks")
	return nil
}

func (c *Client) taskWrite(ctx context.Context, path string, payload map[string]any) (*Task, error) {
	raw, err := c.exec.execute(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return nil, err
	}
	c.invalidate("tasks")
	return decodeSingle[Task](raw, "task")
}

// ScheduleTaskOptions tweak ScheduleTask.
type ScheduleTaskOptions struct {
	// DurationMinutes overrides the task's estimated duration.
	DurationMinutes int
	// TimeZone defaults to the system timezone; the API requires one for
	// timed events.
	TimeZone string
}

// ScheduleTask creates a calendar event linked to a task: the event title
// comes from the task, the duration from the explicit override, the task's
// estimate, or a 30 minute default, and the link lives in
// morgen.so:metadata.taskId.
func (c *Client) ScheduleTask(ctx context.Context, taskID, start, calendarID, accountID string, opts ScheduleTaskOptions) (*Event, error) {
	task, err := c.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	title := task.Title
	if title == "" {
		title = "Untitled task"
	}

	duration := "PT30M"
	if opts.DurationMinutes > 0 {
		duration = fmt.Sprintf("PT%dM", opts.DurationMinutes)
	} else if task.EstimatedDuration != "" {
		duration = task.EstimatedDuration
	}

	timeZone := opts.TimeZone
	if timeZone == "" {
		timeZone = timeutil.LocalTimeZone()
	}

	return c.CreateEvent(ctx, map[string]any{
		"title":              title,
		"start":              start,
		"duration":           duration,
		"calendarId":         calendarID,
		"accountId":          accountID,
		"showWithoutTime":    false,
		"timeZone":           timeZone,
		"morgen.so:metadata": map[string]any{"taskId": taskID},
	})
}

// ----- task lists -----

// ListTaskLists lists task lists (projects/folders).
func (c *Client) ListTaskLists(ctx context.Context) ([]TaskList, error) {
	var cached []TaskList
	if c.cachedAs(ctx, "taskLists", &cached) {
		return cached, nil
	}
	raw, err := c.exec.execute(ctx, http.MethodGet, "/taskLists/list", nil, nil)
	if err != nil {
		return nil, err
	}
	lists, err := decodeList[TaskList](raw, "taskLists")
	if err != nil {
		return nil, err
	}
	c.put("taskLists", lists, cache.TTLTaskLists)
	return lists, nil
}

// ----- tags -----

// ListTags lists all tags.
func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	var cached []Tag
	if c.cachedAs(ctx, "tags", &cached) {
		return cached, nil
	}
	raw, err := c.exec.execute(ctx, http.MethodGet, "/tags/list", nil, nil)
	if err != nil {
		return nil, err
	}
	tags, err := decodeList[Tag](raw, "tags")
	if err != nil {
		return nil, err
	}
	c.put("tags", tags, cache.TTLTags)
	return tags, nil
}

// GetTag fetches a single tag by id.
func (c *Client) GetTag(ctx context.Context, tagID string) (*Tag, error) {
	key := "tags/" + tagID
	var cached Tag
	if c.cachedAs(ctx, key, &cached) {
		return &cached, nil
	}
	raw, err := c.exec.execute(ctx, http.MethodGet, "/tags/", url.Values{"id": {tagID}}, nil)
	if err != nil {
		return nil, err
	}
	tag, err := decodeSingle[Tag](raw, "tag")
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, &NotFoundError{Message: fmt.Sprintf("Tag %s not found", tagID)}
	}
	c.put(key, tag, cache.TTLSingle)
	return tag, nil
}

// CreateTag creates a tag.
func (c *Client) CreateTag(ctx context.Context, tagData map[string]any) (*Tag, error) {
	raw, err := c.exec.execute(ctx, http.MethodPost, "/tags/create", nil, tagData)
	if err != nil {
		return nil, err
	}
	c.invalidate("tags")
	return decodeSingle[Tag](raw, "tag")
}

// UpdateTag updates a tag.
func (c *Client) UpdateTag(ctx context.Context, tagData map[string]any) (*Tag, error) {
	raw, err := c.exec.execute(ctx, http.MethodPost, "/tags/update", nil, tagData)
	if err != nil {
		return nil, err
	}
	c.invalidate("tags")
	return decodeSingle[Tag](raw, "tag")
}

// DeleteTag deletes a tag.
func (c *Client) DeleteTag(ctx context.Context, tagID string) error {
	_, err := c.exec.execute(ctx, http.MethodPost, "/tags/delete", nil, map[string]any{"id": tagID})
	if err != nil {
		return err
	}
	c.invalidate("tags")
	return nil
}
