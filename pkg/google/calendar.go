package google

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/harrisonrobin/nextup/pkg/colors"
	"github.com/harrisonrobin/nextup/pkg/index"
	"github.com/harrisonrobin/nextup/pkg/model"
	"github.com/harrisonrobin/nextup/pkg/ordering"
	"google.golang.org/api/calendar/v3"
)

// CalendarClient is a Google Calendar API client.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string
	index      *index.EventIndex
	colors     *colors.ColorCache
}

// NewCalendarClient creates a new Google Calendar client.
func NewCalendarClient(srv *calendar.Service, calendarID string, idx *index.EventIndex, cc *colors.ColorCache) *CalendarClient {
	return &CalendarClient{srv: srv, calendarID: calendarID, index: idx, colors: cc}
}

// FindCalendar resolves a calendar name to its id.
func FindCalendar(ctx context.Context, srv *calendar.Service, name string) (string, error) {
	calendarList, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to retrieve calendar list: %w", err)
	}
	for _, item := range calendarList.Items {
		if item.Summary == name {
			return item.Id, nil
		}
	}
	return "", fmt.Errorf("calendar '%s' not found", name)
}

// SyncEvent creates the event for key or patches the existing one.
func (c *CalendarClient) SyncEvent(ctx context.Context, key string, event *calendar.Event) (*calendar.Event, error) {
	var existing *calendar.Event
	if c.index != nil {
		if eventID := c.index.Get(key); eventID != "" {
			ev, err := c.srv.Events.Get(c.calendarID, eventID).Context(ctx).Do()
			if err == nil && ev.Status != "cancelled" {
				existing = ev
			}
		}
	}

	if existing == nil {
		var err error
		existing, err = c.GetEventByTaskID(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("error searching for event: %w", err)
		}
	}

	if existing != nil {
		patch, err := EventNeedsUpdate(existing, event)
		if err != nil {
			return nil, fmt.Errorf("could not compare %s with its calendar event: %w", key, err)
		}
		if patch == nil {
			c.remember(key, existing.Id)
			return existing, nil
		}
		updated, err := c.PatchEvent(ctx, existing.Id, patch)
		if err != nil {
			return nil, err
		}
		c.remember(key, updated.Id)
		return updated, nil
	}

	created, err := c.srv.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	c.remember(key, created.Id)
	return created, nil
}

func (c *CalendarClient) remember(key, eventID string) {
	if c.index != nil {
		c.index.Set(key, eventID)
	}
}

// PatchEvent performs a partial update on an event.
func (c *CalendarClient) PatchEvent(ctx context.Context, eventID string, patch *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Patch(c.calendarID, eventID, patch).Context(ctx).Do()
}

// DeleteEvent deletes an event from the calendar.
func (c *CalendarClient) DeleteEvent(ctx context.Context, eventID string) error {
	return c.srv.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
}

// ListEvents fetches events starting after timeMin.
func (c *CalendarClient) ListEvents(ctx context.Context, timeMin time.Time) ([]*calendar.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).TimeMin(timeMin.Format(time.RFC3339)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve events from calendar: %w", err)
	}
	return events.Items, nil
}

// GetEventByTaskID searches for the event carrying key in its private properties.
func (c *CalendarClient) GetEventByTaskID(ctx context.Context, key string) (*calendar.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", TaskIDProperty, key)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(events.Items) > 0 {
		return events.Items[0], nil
	}
	return nil, nil
}

// MirrorInput is the day being mirrored.
type MirrorInput struct {
	Tasks    []*model.Task
	Contexts []model.Context
	Activity []model.TaskActivity
	Location *time.Location
	Now      time.Time
}

// MirrorStats counts what a mirror pass did.
type MirrorStats struct {
	Synced  int
	Removed int
}

// Mirror upserts today's agenda and completions, and removes events of tasks that
// left the agenda. Completion events are never removed.
func (c *CalendarClient) Mirror(ctx context.Context, engine *ordering.Engine, in MirrorInput) (MirrorStats, error) {
	loc := in.Location
	if loc == nil {
		loc = time.Local
	}
	contexts := make(map[string]*model.Context, len(in.Contexts))
	for i := range in.Contexts {
		contexts[in.Contexts[i].ID] = &in.Contexts[i]
	}

	var stats MirrorStats
	var errs []error
	live := make(map[string]bool)

	for _, t := range engine.Agenda(in.Tasks, in.Now, loc) {
		info, _ := engine.Resolve(t, loc)
		start := info.At
		if info.AllDay {
			start = info.Clock.On(info.At)
		}
		ctxt := contexts[t.ContextID]
		ev, err := ConvertTaskToCalendarEvent(t, start, in.Now, ctxt, c.colors.GetColorID(ctxt))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		live[t.ID] = true
		if _, err := c.SyncEvent(ctx, t.ID, ev); err != nil {
			errs = append(errs, fmt.Errorf("sync %s: %w", t.ID, err))
			continue
		}
		stats.Synced++
	}

	for _, a := range in.Activity {
		if !ordering.SameDay(a.Date, in.Now, loc) || a.ID == "" {
			continue
		}
		ctxt := contexts[a.ContextID]
		key := DoneKey(a.ID)
		live[key] = true
		if _, err := c.SyncEvent(ctx, key, ConvertActivityToCalendarEvent(a, ctxt, c.colors.GetColorID(ctxt))); err != nil {
			errs = append(errs, fmt.Errorf("sync completion %s: %w", a.ID, err))
			continue
		}
		stats.Synced++
	}

	if c.index != nil {
		for _, key := range c.index.TaskIDs() {
			if live[key] {
				continue
			}
			if !isDoneKey(key) {
				if err := c.DeleteEvent(ctx, c.index.Get(key)); err != nil {
					log.Printf("Warning: could not delete event for %s: %v", key, err)
					continue
				}
				stats.Removed++
			}
			c.index.Remove(key)
		}
		if err := c.index.Save(); err != nil {
			errs = append(errs, fmt.Errorf("save event index: %w", err))
		}
	}
	if err := c.colors.Save(); err != nil {
		errs = append(errs, fmt.Errorf("save color cache: %w", err))
	}

	return stats, errors.Join(errs...)
}
