package google

import (
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/nextup/pkg/model"
	"google.golang.org/api/calendar/v3"
)

func TestConvertTaskToCalendarEvent(t *testing.T) {
	start := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	task := &model.Task{
		ID:          "12345",
		Content:     "Test Task",
		Description: "Note 1",
		Priority:    4,
		Labels:      []string{"buy", "food"},
		Due:         model.DueAt(start, &model.Due{String: "every day at noon"}),
	}
	ctx := &model.Context{ID: "p1", Name: "Work"}

	event, err := ConvertTaskToCalendarEvent(task, start, start.Add(-time.Hour), ctx, "7")
	if err != nil {
		t.Fatalf("ConvertTaskToCalendarEvent failed: %v", err)
	}

	if event.ExtendedProperties == nil || event.ExtendedProperties.Private == nil {
		t.Fatal("ExtendedProperties or Private map is nil")
	}
	if val, ok := event.ExtendedProperties.Private[TaskIDProperty]; !ok || val != task.ID {
		t.Errorf("Expected %s %s, got %v", TaskIDProperty, task.ID, val)
	}
	if event.Summary != "Test Task" || event.ColorId != "7" {
		t.Errorf("Unexpected summary or color: %q %q", event.Summary, event.ColorId)
	}
	if event.Start.DateTime != "2023-01-01T12:00:00Z" || event.End.DateTime != "2023-01-01T12:30:00Z" {
		t.Errorf("Unexpected times %s - %s", event.Start.DateTime, event.End.DateTime)
	}
	for _, want := range []string{"#buy #food", "Priority: p1", "Project: Work", "Due: every day at noon", "Note 1"} {
		if !strings.Contains(event.Description, want) {
			t.Errorf("Expected description to contain %q, got: %s", want, event.Description)
		}
	}
}

func TestConvertOverdueTask(t *testing.T) {
	start := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	task := &model.Task{ID: "1", Content: "Late"}
	event, err := ConvertTaskToCalendarEvent(task, start, start.Add(time.Minute), nil, NoColor)
	if err != nil {
		t.Fatal(err)
	}
	if event.Summary != "! Late" {
		t.Errorf("Expected overdue prefix, got %q", event.Summary)
	}

	if _, err := ConvertTaskToCalendarEvent(task, time.Time{}, start, nil, NoColor); err == nil {
		t.Error("Expected an error for a task without a due time")
	}
}

func TestConvertActivity(t *testing.T) {
	at := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	a := model.TaskActivity{ID: "a1", TaskID: "1", Title: "Stretch", Date: at, Temporary: model.Temporary}
	event := ConvertActivityToCalendarEvent(a, nil, NoColor)
	if event.Summary != "✓ Stretch" {
		t.Errorf("Unexpected summary %q", event.Summary)
	}
	if event.ExtendedProperties.Private[TaskIDProperty] != DoneKey("a1") {
		t.Errorf("Expected done key, got %v", event.ExtendedProperties.Private)
	}
	if event.End.DateTime != "2023-01-01T12:00:00Z" || event.Start.DateTime != "2023-01-01T11:30:00Z" {
		t.Errorf("Unexpected times %s - %s", event.Start.DateTime, event.End.DateTime)
	}
	if !strings.Contains(event.Description, "awaiting server confirmation") {
		t.Errorf("Expected temporary note, got %s", event.Description)
	}
}

func TestEventNeedsUpdate(t *testing.T) {
	at := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	base := newEvent("A", "d", "1", "k", at, at.Add(DefaultDuration))

	same := newEvent("A", "d", "1", "k", at.In(time.FixedZone("x", 3600)), at.Add(DefaultDuration))
	same.Start.DateTime = at.In(time.FixedZone("x", 3600)).Format(time.RFC3339)
	patch, err := EventNeedsUpdate(base, same)
	if err != nil || patch != nil {
		t.Errorf("Expected no patch, got %+v (%v)", patch, err)
	}

	moved := newEvent("B", "d", "1", "k", at.Add(time.Hour), at.Add(time.Hour+DefaultDuration))
	patch, err = EventNeedsUpdate(base, moved)
	if err != nil || patch == nil {
		t.Fatalf("Expected a patch, got %v", err)
	}
	if patch.Summary != "B" || patch.Start == nil || patch.Description != "" {
		t.Errorf("Unexpected patch %+v", patch)
	}

	bad := &calendar.Event{Start: &calendar.EventDateTime{DateTime: "nope"}, End: base.End}
	if _, err := EventNeedsUpdate(bad, base); err == nil {
		t.Error("Expected a parse error")
	}
}
