package todoist

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/harrisonrobin/nextup/pkg/activity"
	"github.com/harrisonrobin/nextup/pkg/model"
)

// LocalTimezone is used when the profile carries no timezone.
const LocalTimezone = "local"

// User is the part of the profile the front end needs.
type User struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	TzInfo   *struct {
		Timezone string `json:"timezone"`
	} `json:"tz_info"`
}

// Timezone returns the profile timezone name, or LocalTimezone.
func (u User) Timezone() string {
	if u.TzInfo == nil || u.TzInfo.Timezone == "" {
		return LocalTimezone
	}
	return u.TzInfo.Timezone
}

// Location loads the profile timezone, falling back to time.Local.
func (u User) Location() *time.Location {
	name := u.Timezone()
	if name == LocalTimezone {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("Warning: unknown timezone %q, using local time: %v", name, err)
		return time.Local
	}
	return loc
}

// User fetches the profile.
func (c *Client) User(ctx context.Context) (User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/user", nil, nil, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Tasks fetches every active task.
func (c *Client) Tasks(ctx context.Context) ([]*model.Task, error) {
	return all[*model.Task](ctx, c, "/tasks", nil)
}

// Projects fetches every container.
func (c *Client) Projects(ctx context.Context) ([]model.Context, error) {
	return all[model.Context](ctx, c, "/projects", nil)
}

// Comments fetches the comment thread of a task.
func (c *Client) Comments(ctx context.Context, taskID string) ([]model.Comment, error) {
	return all[model.Comment](ctx, c, "/comments", url.Values{"task_id": {taskID}})
}

// CloseTask completes a task.
func (c *Client) CloseTask(ctx context.Context, taskID string) error {
	return c.do(ctx, http.MethodPost, "/tasks/"+url.PathEscape(taskID)+"/close", nil, nil, nil)
}

type dueUpdate struct {
	DueDate     string `json:"due_date,omitempty"`
	DueDatetime string `json:"due_datetime,omitempty"`
	DueString   string `json:"due_string,omitempty"`
	DueLang     string `json:"due_lang,omitempty"`
}

// UpdateDue moves a task's due date. Date-times are sent in UTC. A recurring
// task also sends its description so the recurrence survives the move.
func (c *Client) UpdateDue(ctx context.Context, taskID string, due *model.Due) error {
	var body dueUpdate
	if due.IsRecurring && due.String != "" {
		body.DueString = due.String
		body.DueLang = due.Lang
	}
	switch due.Kind {
	case model.DueDateTime:
		at, err := time.Parse(time.RFC3339, due.Datetime)
		if err != nil {
			at, err = time.ParseInLocation(model.FloatingLayout, due.Datetime, c.location())
			if err != nil {
				return fmt.Errorf("invalid due datetime %q: %w", due.Datetime, err)
			}
		}
		body.DueDatetime = at.UTC().Format(time.RFC3339)
	default:
		body.DueDate = due.Date
	}
	return c.do(ctx, http.MethodPost, "/tasks/"+url.PathEscape(taskID), nil, body, nil)
}

type activityEvent struct {
	ID              flexID    `json:"id"`
	ObjectID        flexID    `json:"object_id"`
	ParentProjectID flexID    `json:"parent_project_id"`
	EventDate       time.Time `json:"event_date"`
	ExtraData       struct {
		Content string `json:"content"`
	} `json:"extra_data"`
}

// Activities fetches one page of task completion events.
func (c *Client) Activities(ctx context.Context, q activity.Query) (activity.Page, error) {
	query := url.Values{
		"object_type": {"item"},
		"event_type":  {"completed"},
		"limit":       {strconv.Itoa(PageLimit)},
	}
	if q.Cursor != "" {
		query.Set("cursor", q.Cursor)
	}
	if q.TaskID != "" {
		query.Set("object_id", q.TaskID)
	}

	var p page[activityEvent]
	if err := c.do(ctx, http.MethodGet, "/activities", query, nil, &p); err != nil {
		return activity.Page{}, err
	}

	out := activity.Page{NextCursor: p.NextCursor}
	for _, ev := range p.Results {
		out.Entries = append(out.Entries, model.TaskActivity{
			ID:        string(ev.ID),
			Date:      ev.EventDate,
			TaskID:    string(ev.ObjectID),
			ContextID: string(ev.ParentProjectID),
			Title:     ev.ExtraData.Content,
			Temporary: model.Confirmed,
		})
	}
	return out, nil
}
