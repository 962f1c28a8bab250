package deferral

import (
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/nextup/pkg/model"
	"github.com/harrisonrobin/nextup/pkg/ordering"
	"github.com/harrisonrobin/nextup/pkg/timeparse"
)

var loc = time.UTC

func schedulerAt(now time.Time) *Scheduler {
	engine := ordering.New(timeparse.New(), func() time.Time { return now })
	return New(engine, loc)
}

func byText(buttons []model.DeferButton, text string) model.DeferButton {
	for _, b := range buttons {
		if b.Text == text {
			return b
		}
	}
	return model.DeferButton{}
}

func TestCreateButtonsLadder(t *testing.T) {
	buttons := schedulerAt(time.Now()).CreateButtons()
	if len(buttons) != 17 {
		t.Fatalf("Expected 17 buttons, got %d", len(buttons))
	}
	if buttons[0].Text != "tomorrow" || buttons[1].Offset != time.Minute || buttons[16].Offset != 24*time.Hour {
		t.Errorf("Unexpected ladder ends: %+v ... %+v", buttons[0], buttons[16])
	}
	for i := 2; i < len(buttons); i++ {
		if buttons[i].Offset <= buttons[i-1].Offset {
			t.Errorf("Expected increasing offsets at %d", i)
		}
	}
}

func TestRollover(t *testing.T) {
	now := time.Date(2024, 6, 12, 23, 30, 0, 0, loc)
	buttons := schedulerAt(now).UpdateMilliseconds(nil, nil)

	ten := byText(buttons, "10 min")
	if ten.Styling == model.StyleNextDay {
		t.Errorf("Expected 10 min to stay same-day, got %+v", ten)
	}
	if ten.Value != "11:40 PM" {
		t.Errorf("Expected '11:40 PM', got '%s'", ten.Value)
	}

	hour := byText(buttons, "1 hr")
	if hour.Styling != model.StyleNextDay {
		t.Errorf("Expected 1 hr to roll over, got %+v", hour)
	}
	if !strings.HasSuffix(hour.Value, " hrs") {
		t.Errorf("Expected an 'N hrs' label, got '%s'", hour.Value)
	}
}

func TestRolloverMorningFloor(t *testing.T) {
	now := time.Date(2024, 6, 12, 23, 30, 0, 0, loc)
	buttons := schedulerAt(now).UpdateMilliseconds(nil, nil)
	sixAM := time.Date(2024, 6, 13, 6, 0, 0, 0, loc)

	// 30 min lands on midnight, the first button past it.
	first := byText(buttons, "30 min")
	if !first.At.Equal(sixAM) {
		t.Errorf("Expected first rolled button at 6 AM, got %v", first.At)
	}
	second := byText(buttons, "45 min")
	if !second.At.Equal(sixAM.Add(time.Hour)) {
		t.Errorf("Expected second rolled button at 7 AM, got %v", second.At)
	}
	day := byText(buttons, "24 hrs")
	if !day.At.Equal(now.Add(24 * time.Hour)) {
		t.Errorf("Expected 24 hrs to keep its own time, got %v", day.At)
	}
	for i := 2; i < len(buttons); i++ {
		if buttons[i].At.Before(buttons[i-1].At) {
			t.Errorf("Expected non-decreasing times, %s before %s", buttons[i].Text, buttons[i-1].Text)
		}
		if !buttons[i].At.Equal(now.Add(buttons[i].Offset)) {
			t.Errorf("Offset of %s does not match its time", buttons[i].Text)
		}
	}
}

func TestRounding(t *testing.T) {
	now := time.Date(2024, 6, 12, 9, 2, 0, 0, loc)
	buttons := schedulerAt(now).UpdateMilliseconds(nil, nil)

	if got := byText(buttons, "3 min").At; !got.Equal(time.Date(2024, 6, 12, 9, 5, 0, 0, loc)) {
		t.Errorf("Expected 3 min unrounded at 9:05, got %v", got)
	}
	if got := byText(buttons, "10 min").At; !got.Equal(time.Date(2024, 6, 12, 9, 10, 0, 0, loc)) {
		t.Errorf("Expected 10 min rounded to 9:10, got %v", got)
	}
	if got := byText(buttons, "1.5 hrs").At; !got.Equal(time.Date(2024, 6, 12, 10, 30, 0, 0, loc)) {
		t.Errorf("Expected 1.5 hrs rounded to 10:30, got %v", got)
	}
	if got := byText(buttons, "2 hrs").Value; got != "11 AM" {
		t.Errorf("Expected '11 AM', got '%s'", got)
	}
}

func TestTomorrowButton(t *testing.T) {
	now := time.Date(2024, 6, 12, 9, 0, 0, 0, loc)
	s := schedulerAt(now)

	task := &model.Task{ID: "1", Due: &model.Due{Kind: model.DueDateOnly, Date: "2024-06-11", String: "every day at 3pm"}}
	b := s.UpdateMilliseconds(task, nil)[0]
	if b.Disabled {
		t.Fatal("Expected tomorrow button enabled")
	}
	if !b.At.Equal(time.Date(2024, 6, 13, 15, 0, 0, 0, loc)) {
		t.Errorf("Expected tomorrow at 3 PM, got %v", b.At)
	}
	if b.Value != "3 PM" {
		t.Errorf("Expected '3 PM', got '%s'", b.Value)
	}

	untimed := &model.Task{ID: "2", Due: &model.Due{Kind: model.DueDateOnly, Date: "2024-06-11", String: "every day"}}
	if b := s.UpdateMilliseconds(untimed, nil)[0]; !b.Disabled {
		t.Errorf("Expected tomorrow disabled without a time of day, got %+v", b)
	}

	// A datetime alone does not give the description a time of day.
	timed := &model.Task{ID: "3", Due: model.DueAt(time.Date(2024, 6, 11, 8, 0, 0, 0, loc), &model.Due{String: "every day"})}
	if b := s.UpdateMilliseconds(timed, nil)[0]; !b.Disabled {
		t.Errorf("Expected tomorrow disabled for an untimed description, got %+v", b)
	}
}

func TestAnnotateBuckets(t *testing.T) {
	now := time.Date(2024, 6, 12, 9, 0, 0, 0, loc)
	s := schedulerAt(now)
	self := &model.Task{ID: "self", Priority: 4, Due: model.DueAt(now.Add(20*time.Minute), nil)}
	tasks := []*model.Task{
		self,
		{ID: "a", Priority: 2, Due: model.DueAt(now.Add(11*time.Minute), nil)},
		{ID: "b", Priority: 3, Due: model.DueAt(now.Add(12*time.Minute), nil)},
		{ID: "c", Priority: 1, Due: model.DueAt(now.Add(5*time.Hour), nil)},
		{ID: "far", Priority: 4, Due: model.DueAt(now.Add(30*time.Hour), nil)},
		{ID: "past", Priority: 4, Due: model.DueAt(now.Add(-time.Hour), nil)},
		{ID: "all-day", Priority: 4, Due: model.DueOn(now, nil)},
	}

	buttons := s.UpdateMilliseconds(self, tasks)

	ten := byText(buttons, "10 min")
	if ten.Count != 2 || ten.Priority != 3 {
		t.Errorf("Expected 10 min bucket with 2 tasks at priority 3, got %+v", ten)
	}
	four := byText(buttons, "4 hrs")
	if four.Count != 1 || four.Priority != 1 {
		t.Errorf("Expected 4 hrs bucket with 1 task, got %+v", four)
	}

	total := 0
	for _, b := range buttons {
		total += b.Count
	}
	if total != 3 {
		t.Errorf("Expected 3 tasks counted once each, got %d", total)
	}
	if fifteen := byText(buttons, "15 min"); fifteen.Count != 0 || fifteen.Priority != 0 {
		t.Errorf("Expected empty 15 min bucket, got %+v", fifteen)
	}
}
