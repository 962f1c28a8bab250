package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Confirmation records whether a completion log entry has been seen on the server.
type Confirmation int

const (
	// Unspecified marks entries written before confirmation was tracked.
	Unspecified Confirmation = iota
	Temporary
	Confirmed
)

// MarshalJSON writes the tri-state as true (temporary), false (confirmed) or null.
func (c Confirmation) MarshalJSON() ([]byte, error) {
	switch c {
	case Temporary:
		return []byte("true"), nil
	case Confirmed:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements the json.Unmarshaler interface for Confirmation.
func (c *Confirmation) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case "true":
		*c = Temporary
	case "false":
		*c = Confirmed
	case "null":
		*c = Unspecified
	default:
		return fmt.Errorf("invalid temporary flag %s", b)
	}
	return nil
}

// TaskActivity is one entry of the completed-task log.
type TaskActivity struct {
	ID        string       `json:"id,omitempty"`
	Date      time.Time    `json:"date"`
	TaskID    string       `json:"taskId"`
	ContextID string       `json:"contextId,omitempty"`
	Title     string       `json:"title"`
	Temporary Confirmation `json:"temporary"`
}

// IsTemporary reports whether the entry is a local, unconfirmed completion.
func (a TaskActivity) IsTemporary() bool { return a.Temporary == Temporary }

// IsConfirmed reports whether the server has reported the entry.
func (a TaskActivity) IsConfirmed() bool { return a.Temporary == Confirmed }

type activityJSON struct {
	ID        string       `json:"id,omitempty"`
	Date      string       `json:"date"`
	TaskID    string       `json:"taskId"`
	ContextID string       `json:"contextId,omitempty"`
	Title     string       `json:"title"`
	Temporary Confirmation `json:"temporary"`
}

// MarshalJSON stores the timestamp as an ISO-8601 string with millisecond precision.
func (a TaskActivity) MarshalJSON() ([]byte, error) {
	return json.Marshal(activityJSON{
		ID:        a.ID,
		Date:      a.Date.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		TaskID:    a.TaskID,
		ContextID: a.ContextID,
		Title:     a.Title,
		Temporary: a.Temporary,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface for TaskActivity.
func (a *TaskActivity) UnmarshalJSON(b []byte) error {
	var raw activityJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	date, err := time.Parse(time.RFC3339Nano, raw.Date)
	if err != nil {
		return fmt.Errorf("failed to parse activity date '%s': %w", raw.Date, err)
	}
	*a = TaskActivity{
		ID:        raw.ID,
		Date:      date,
		TaskID:    raw.TaskID,
		ContextID: raw.ContextID,
		Title:     raw.Title,
		Temporary: raw.Temporary,
	}
	return nil
}

// NewTemporaryActivity records a local completion ahead of server confirmation.
func NewTemporaryActivity(task *Task, at time.Time) TaskActivity {
	return TaskActivity{
		ID:        uuid.NewString(),
		Date:      at,
		TaskID:    task.ID,
		ContextID: task.ContextID,
		Title:     task.Content,
		Temporary: Temporary,
	}
}

// Coverage says whether held activity brackets a requested date range.
type Coverage struct {
	StartCovered bool
	EndCovered   bool
}
