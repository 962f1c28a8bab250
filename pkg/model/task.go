package model

import (
	"encoding/json"
	"strings"
	"time"
)

// DueKind tells a date-only due apart from one carrying a time of day.
type DueKind int

const (
	DueDateOnly DueKind = iota
	DueDateTime
)

const (
	// DateLayout is the calendar-day layout used by the task API.
	DateLayout = "2006-01-02"
	// FloatingLayout is a datetime without a zone, read in the user's timezone.
	FloatingLayout = "2006-01-02T15:04:05"
)

// Due is the due block of a task as the task API reports it.
type Due struct {
	Kind        DueKind
	Date        string // YYYY-MM-DD
	Datetime    string // RFC3339 or floating FloatingLayout, empty for DueDateOnly
	String      string // free-text description, e.g. "every day at 3pm"
	IsRecurring bool
	Timezone    string
	Lang        string
}

type dueJSON struct {
	Date        string `json:"date"`
	Datetime    string `json:"datetime,omitempty"`
	String      string `json:"string"`
	IsRecurring bool   `json:"is_recurring"`
	Timezone    string `json:"timezone,omitempty"`
	Lang        string `json:"lang,omitempty"`
}

// UnmarshalJSON accepts both the split date/datetime shape and the newer shape
// where a time of day is folded into "date".
func (d *Due) UnmarshalJSON(b []byte) error {
	var raw dueJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*d = Due{
		Date:        raw.Date,
		Datetime:    raw.Datetime,
		String:      raw.String,
		IsRecurring: raw.IsRecurring,
		Timezone:    raw.Timezone,
		Lang:        raw.Lang,
	}
	if d.Datetime == "" && strings.Contains(raw.Date, "T") {
		d.Datetime = raw.Date
	}
	if len(d.Date) > len(DateLayout) {
		d.Date = d.Date[:len(DateLayout)]
	}
	if d.Datetime != "" {
		d.Kind = DueDateTime
	}
	return nil
}

// MarshalJSON implements the json.Marshaler interface for Due.
func (d Due) MarshalJSON() ([]byte, error) {
	raw := dueJSON{
		Date:        d.Date,
		String:      d.String,
		IsRecurring: d.IsRecurring,
		Timezone:    d.Timezone,
		Lang:        d.Lang,
	}
	if d.Kind == DueDateTime {
		raw.Datetime = d.Datetime
	}
	return json.Marshal(raw)
}

// DueAt builds a date-time Due for t, keeping the description of prev if any.
func DueAt(t time.Time, prev *Due) *Due {
	d := &Due{
		Kind:     DueDateTime,
		Date:     t.Format(DateLayout),
		Datetime: t.Format(FloatingLayout),
	}
	if prev != nil {
		d.String = prev.String
		d.IsRecurring = prev.IsRecurring
		d.Lang = prev.Lang
	}
	return d
}

// DueOn builds a date-only Due for the calendar day of t.
func DueOn(t time.Time, prev *Due) *Due {
	d := &Due{Kind: DueDateOnly, Date: t.Format(DateLayout)}
	if prev != nil {
		d.String = prev.String
		d.IsRecurring = prev.IsRecurring
		d.Lang = prev.Lang
	}
	return d
}

// Task is a task from the task API plus the transient flags the front end sets.
type Task struct {
	ID          string   `json:"id"`
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	Due         *Due     `json:"due,omitempty"`
	Priority    int      `json:"priority"`
	ContextID   string   `json:"project_id,omitempty"`
	Labels      []string `json:"labels,omitempty"`

	// Summoned names the view hash that pulled this task forward, "" when not summoned.
	Summoned    string `json:"-"`
	Skip        bool   `json:"-"`
	FirstDue    bool   `json:"-"`
	CloseTiming bool   `json:"-"`
}

// DueKey identifies the due block for caching derived due data.
func (t *Task) DueKey() string {
	if t.Due == nil {
		return t.ID
	}
	return t.ID + "|" + t.Due.Date + "|" + t.Due.Datetime + "|" + t.Due.String
}

// Context is a task container (a project in the task API).
type Context struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ChildOrder int    `json:"child_order"`
	Color      string `json:"color"`
}

// Comment is a note attached to a task.
type Comment struct {
	ID       string    `json:"id"`
	TaskID   string    `json:"item_id"`
	Content  string    `json:"content"`
	PostedAt time.Time `json:"posted_at"`
}

// Clock is a time of day.
type Clock struct {
	Hour   int
	Minute int
}

// On projects the clock onto the calendar day of base, in base's location.
func (c Clock) On(base time.Time) time.Time {
	return time.Date(base.Year(), base.Month(), base.Day(), c.Hour, c.Minute, 0, 0, base.Location())
}

// TaskUpdate moves a task to a new due instant. AllDay keeps only the calendar day.
type TaskUpdate struct {
	TaskID string
	At     time.Time
	AllDay bool
}
