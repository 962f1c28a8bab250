package google

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/nextup/pkg/model"
	"google.golang.org/api/calendar/v3"
)

const (
	// TaskIDProperty is the private extended property holding an event's mirror key.
	TaskIDProperty = "nextup_task_id"

	// DefaultDuration is the length of a mirrored event.
	DefaultDuration = 30 * time.Minute

	// NoColor leaves the calendar's default event color.
	NoColor = ""

	donePrefix = "done:"
)

// DoneKey is the mirror key of a completion event.
func DoneKey(activityID string) string {
	return donePrefix + activityID
}

func isDoneKey(key string) bool {
	return strings.HasPrefix(key, donePrefix)
}

// ConvertTaskToCalendarEvent builds the event for a task due at start.
func ConvertTaskToCalendarEvent(task *model.Task, start, now time.Time, ctx *model.Context, colorID string) (*calendar.Event, error) {
	if task == nil {
		return nil, fmt.Errorf("could not convert nil Task")
	}
	if start.IsZero() {
		return nil, fmt.Errorf("task has no due time: %s", task.ID)
	}

	summary := task.Content
	if start.Before(now) {
		summary = "! " + summary
	}

	var desc strings.Builder
	if len(task.Labels) > 0 {
		for _, l := range task.Labels {
			fmt.Fprintf(&desc, "#%s ", l)
		}
		desc.WriteString("\n\n")
	}
	fmt.Fprintf(&desc, "Priority: p%d\n", 5-task.Priority)
	if ctx != nil {
		fmt.Fprintf(&desc, "Project: %s\n", ctx.Name)
	}
	if task.Due != nil && task.Due.String != "" {
		fmt.Fprintf(&desc, "Due: %s\n", task.Due.String)
	}
	fmt.Fprintf(&desc, "ID: %s\n", task.ID)
	if task.Description != "" {
		fmt.Fprintf(&desc, "\nNotes:\n%s\n", task.Description)
	}

	return newEvent(summary, desc.String(), colorID, task.ID, start, start.Add(DefaultDuration)), nil
}

// ConvertActivityToCalendarEvent builds the event for a completion, ending when it was logged.
func ConvertActivityToCalendarEvent(a model.TaskActivity, ctx *model.Context, colorID string) *calendar.Event {
	var desc strings.Builder
	if ctx != nil {
		fmt.Fprintf(&desc, "Project: %s\n", ctx.Name)
	}
	fmt.Fprintf(&desc, "ID: %s\n", a.TaskID)
	if a.IsTemporary() {
		desc.WriteString("\nAccounting:\n• awaiting server confirmation\n")
	}
	return newEvent("✓ "+a.Title, desc.String(), colorID, DoneKey(a.ID), a.Date.Add(-DefaultDuration), a.Date)
}

func newEvent(summary, desc, colorID, key string, start, end time.Time) *calendar.Event {
	return &calendar.Event{
		Summary:     summary,
		Description: desc,
		ColorId:     colorID,
		Start:       &calendar.EventDateTime{DateTime: start.UTC().Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: end.UTC().Format(time.RFC3339)},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{TaskIDProperty: key},
		},
	}
}

// EventNeedsUpdate returns a patch with the fields of target that differ from existing,
// or nil when the event is current.
func EventNeedsUpdate(existing, target *calendar.Event) (*calendar.Event, error) {
	patch := &calendar.Event{}
	needsUpdate := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		needsUpdate = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		needsUpdate = true
	}
	if existing.ColorId != target.ColorId {
		patch.ColorId = target.ColorId
		needsUpdate = true
	}

	sameStart, err := sameInstant(existing.Start, target.Start)
	if err != nil {
		return nil, err
	}
	sameEnd, err := sameInstant(existing.End, target.End)
	if err != nil {
		return nil, err
	}
	if !sameStart || !sameEnd {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch, nil
	}
	return nil, nil
}

func sameInstant(a, b *calendar.EventDateTime) (bool, error) {
	if a == nil || b == nil {
		return a == b, nil
	}
	at, err := time.Parse(time.RFC3339, a.DateTime)
	if err != nil {
		return false, err
	}
	bt, err := time.Parse(time.RFC3339, b.DateTime)
	if err != nil {
		return false, err
	}
	return at.Equal(bt), nil
}
