package morgen

import (
	"encoding/json"
	"fmt"
)

// Models mirror Morgen v3 API resources. Decoding ignores unknown upstream
// fields, so API additions never break the client; optional fields stay
// zero-valued when absent. Models are value objects: validated once after
// decoding and never mutated afterwards.

// SourceMorgen is the native task source, assumed when a task carries no
// integration identifier.
const SourceMorgen = "morgen"

// Account is a connected calendar or task integration account.
type Account struct {
	ID                      string   `json:"id"`
	Name                    string   `json:"name,omitempty"`
	ProviderUserDisplayName string   `json:"providerUserDisplayName,omitempty"`
	PreferredEmail          string   `json:"preferredEmail,omitempty"`
	Emails                  []string `json:"emails,omitempty"`
	IntegrationID           string   `json:"integrationId,omitempty"`
	IntegrationGroups       []string `json:"integrationGroups,omitempty"`
	ProviderID              string   `json:"providerId,omitempty"`
	ProviderAccountID       string   `json:"providerAccountId,omitempty"`
}

func (a Account) validate() error { return requireID("account", a.ID) }

// HasGroup reports whether the account belongs to an integration group such
// as "calendars" or "tasks".
func (a Account) HasGroup(group string) bool {
	for _, g := range a.IntegrationGroups {
		if g == group {
			return true
		}
	}
	return false
}

// Calendar is a calendar within an account.
type Calendar struct {
	ID                string `json:"id"`
	CalendarID        string `json:"calendarId,omitempty"`
	AccountID         string `json:"accountId,omitempty"`
	Name              string `json:"name,omitempty"`
	Color             string `json:"color,omitempty"`
	Writable          *bool  `json:"writable,omitempty"`
	IsActiveByDefault *bool  `json:"isActiveByDefault,omitempty"`
	MyRights          any    `json:"myRights,omitempty"` // dict or string depending on provider
}

func (c Calendar) validate() error { return requireID("calendar", c.ID) }

// EffectiveID returns the calendar identifier, falling back to the provider
// calendarId when the Morgen id is absent.
func (c Calendar) EffectiveID() string {
	if c.ID != "" {
		return c.ID
	}
	return c.CalendarID
}

// Event is a calendar event.
type Event struct {
	ID                 string         `json:"id"`
	Title              string         `json:"title,omitempty"`
	Description        string         `json:"description,omitempty"`
	Start              string         `json:"start,omitempty"`
	End                string         `json:"end,omitempty"`
	Duration           string         `json:"duration,omitempty"`
	CalendarID         string         `json:"calendarId,omitempty"`
	AccountID          string         `json:"accountId,omitempty"`
	Participants       map[string]any `json:"participants,omitempty"`
	Locations          map[string]any `json:"locations,omitempty"`
	ShowAs             string         `json:"showAs,omitempty"`
	ShowWithoutTime    *bool          `json:"showWithoutTime,omitempty"`
	TimeZone           string         `json:"timeZone,omitempty"`
	Metadata           map[string]any `json:"morgen.so:metadata,omitempty"`
	RequestVirtualRoom string         `json:"morgen.so:requestVirtualRoom,omitempty"`
}

func (e Event) validate() error { return requireID("event", e.ID) }

// TaskLabel is one opaque label attached to an external task. External
// integrations encode identifiers and statuses here.
type TaskLabel struct {
	ID    string `json:"id"`
	Value any    `json:"value,omitempty"`
}

// Link is one entry of a task's links map.
type Link struct {
	Href string `json:"href,omitempty"`
}

// Task is a task item from the native backend or an external integration.
//
// The Source* and TagNames fields are not part of the upstream payload; they
// are populated by EnrichTasks with normalized cross-source metadata.
type Task struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description,omitempty"`
	Progress           string          `json:"progress,omitempty"`
	Status             string          `json:"status,omitempty"`
	Priority           *int            `json:"priority,omitempty"`
	Due                string          `json:"due,omitempty"`
	CreatedAt          string          `json:"createdAt,omitempty"`
	UpdatedAt          string          `json:"updatedAt,omitempty"`
	CompletedAt        string          `json:"completedAt,omitempty"`
	ParentID           string          `json:"parentId,omitempty"`
	Tags               []string        `json:"tags,omitempty"`
	TaskListID         string          `json:"taskListId,omitempty"`
	EstimatedDuration  string          `json:"estimatedDuration,omitempty"`
	IntegrationID      string          `json:"integrationId,omitempty"`
	AccountID          string          `json:"accountId,omitempty"`
	Labels             []TaskLabel     `json:"labels,omitempty"`
	Links              map[string]Link `json:"links,omitempty"`
	OccurrenceStart    string          `json:"occurrenceStart,omitempty"`
	Position           *int            `json:"position,omitempty"`
	EarliestStart      string          `json:"earliestStart,omitempty"`
	DescriptionContent string          `json:"descriptionContentType,omitempty"`

	Source       string   `json:"source,omitempty"`
	SourceID     string   `json:"sourceId,omitempty"`
	SourceURL    string   `json:"sourceUrl,omitempty"`
	SourceStatus string   `json:"sourceStatus,omitempty"`
	TagNames     []string `json:"tagNames,omitempty"`
	ListName     string   `json:"listName,omitempty"`
}

// UnmarshalJSON applies the native-source default: a task without an
// integration identifier belongs to the Morgen backend. Downstream
// grouping-by-source relies on this never being empty.
func (t *Task) UnmarshalJSON(data []byte) error {
	type alias Task
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.IntegrationID == "" {
		a.IntegrationID = SourceMorgen
	}
	*t = Task(a)
	return nil
}

func (t Task) validate() error { return requireID("task", t.ID) }

// LabelValue is one value of a label definition's vocabulary, mapping an
// opaque value to a human-readable display name.
type LabelValue struct {
	Value any    `json:"value,omitempty"`
	Label string `json:"label,omitempty"`
}

// LabelDef is a label definition from an external integration's task list
// response. It carries the vocabulary used to resolve status display names.
type LabelDef struct {
	ID     string       `json:"id"`
	Label  string       `json:"label,omitempty"`
	Type   string       `json:"type,omitempty"`
	Values []LabelValue `json:"values,omitempty"`
}

func (l LabelDef) validate() error { return requireID("labelDef", l.ID) }

// Space is a project or grouping from an external integration.
type Space struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

func (s Space) validate() error { return requireID("space", s.ID) }

// TaskListResponse is the compound payload of a task list query: tasks plus
// the source-specific label vocabularies and groupings that accompany them.
type TaskListResponse struct {
	Tasks     []Task     `json:"tasks"`
	LabelDefs []LabelDef `json:"labelDefs,omitempty"`
	Spaces    []Space    `json:"spaces,omitempty"`
}

// TaskList is a task list (project/folder for tasks).
type TaskList struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Role        string `json:"role,omitempty"`
	ServiceName string `json:"serviceName,omitempty"`
	Position    *int   `json:"position,omitempty"`
	Created     string `json:"created,omitempty"`
	Updated     string `json:"updated,omitempty"`
}

func (l TaskList) validate() error { return requireID("taskList", l.ID) }

// Tag is a task tag.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

func (t Tag) validate() error { return requireID("tag", t.ID) }

func requireID(kind, id string) error {
	if id == "" {
		return fmt.Errorf("%s record is missing required id", kind)
	}
	return nil
}
