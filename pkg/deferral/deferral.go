// Package deferral computes the ladder of "defer to" buttons and annotates each with
// the tasks that would come due in its window.
package deferral

import (
	"fmt"
	"math"
	"time"

	"github.com/harrisonrobin/nextup/pkg/model"
	"github.com/harrisonrobin/nextup/pkg/ordering"
	"github.com/harrisonrobin/nextup/pkg/timeparse"
)

const (
	// Lookahead bounds which tasks are counted against the buttons.
	Lookahead = 25 * time.Hour
	// MorningFloor is where buttons that cross midnight start.
	MorningFloor = 6 * time.Hour
)

type rung struct {
	text    string
	offset  time.Duration
	styling model.Styling
}

var ladder = []rung{
	{"tomorrow", 0, model.StyleTomorrow},
	{"1 min", time.Minute, model.StyleMinutes},
	{"3 min", 3 * time.Minute, model.StyleMinutes},
	{"10 min", 10 * time.Minute, model.StyleMinutes},
	{"15 min", 15 * time.Minute, model.StyleMinutes},
	{"30 min", 30 * time.Minute, model.StyleMinutes},
	{"45 min", 45 * time.Minute, model.StyleMinutes},
	{"1 hr", time.Hour, model.StyleHours},
	{"1.5 hrs", 90 * time.Minute, model.StyleHours},
	{"2 hrs", 2 * time.Hour, model.StyleHours},
	{"3 hrs", 3 * time.Hour, model.StyleHours},
	{"4 hrs", 4 * time.Hour, model.StyleHours},
	{"6 hrs", 6 * time.Hour, model.StyleHours},
	{"8 hrs", 8 * time.Hour, model.StyleHours},
	{"12 hrs", 12 * time.Hour, model.StyleHours},
	{"18 hrs", 18 * time.Hour, model.StyleHours},
	{"24 hrs", 24 * time.Hour, model.StyleHours},
}

// granularity is the rounding applied to the clock time of ladder index i.
func granularity(i int) time.Duration {
	switch {
	case i <= 2:
		return 0
	case i <= 7:
		return 5 * time.Minute
	default:
		return 15 * time.Minute
	}
}

// Scheduler builds defer buttons relative to the engine's clock.
type Scheduler struct {
	engine *ordering.Engine
	loc    *time.Location
}

// New creates a Scheduler. A nil loc means time.Local.
func New(engine *ordering.Engine, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{engine: engine, loc: loc}
}

// SetLocation changes the user's timezone.
func (s *Scheduler) SetLocation(loc *time.Location) {
	if loc != nil {
		s.loc = loc
	}
}

// CreateButtons returns the bare ladder, before any clock is applied.
func (s *Scheduler) CreateButtons() []model.DeferButton {
	buttons := make([]model.DeferButton, len(ladder))
	for i, r := range ladder {
		buttons[i] = model.DeferButton{Text: r.text, Offset: r.offset, Styling: r.styling}
	}
	return buttons
}

// UpdateMilliseconds resolves every button against now for deferring task, and counts
// the other tasks that come due inside each button's window.
func (s *Scheduler) UpdateMilliseconds(task *model.Task, tasks []*model.Task) []model.DeferButton {
	now := s.engine.Now().In(s.loc)
	buttons := s.CreateButtons()

	buttons[0] = s.tomorrow(buttons[0], task, now)

	rolled := 0
	for i := 1; i < len(buttons); i++ {
		b := &buttons[i]
		target := now.Add(b.Offset)
		if g := granularity(i); g > 0 {
			target = roundClock(target, g)
		}

		if ordering.SameDay(target, now, s.loc) {
			b.Value = timeparse.FormatClock(target)
		} else {
			floor := ordering.StartOfDay(now.AddDate(0, 0, 1)).Add(MorningFloor + time.Duration(rolled)*time.Hour)
			if target.Before(floor) {
				target = floor
			}
			rolled++
			b.Styling = model.StyleNextDay
			b.Value = fmt.Sprintf("%d hrs", int(math.Round(target.Sub(now).Hours())))
		}
		b.At = target
		b.Offset = target.Sub(now)
	}

	s.annotate(buttons, task, tasks, now)
	return buttons
}

func (s *Scheduler) tomorrow(b model.DeferButton, task *model.Task, now time.Time) model.DeferButton {
	b.Disabled = true
	if task == nil || task.Due == nil || s.engine.Extractor() == nil {
		return b
	}
	clock, ok := s.engine.Extractor().Extract(task.Due.String)
	if !ok {
		return b
	}
	at := clock.On(now.AddDate(0, 0, 1))
	b.At = at
	b.Offset = at.Sub(now)
	b.Value = timeparse.FormatClock(at)
	b.Disabled = false
	return b
}

// annotate buckets upcoming timed tasks into [button, next button) windows.
// A task lands in at most one bucket.
func (s *Scheduler) annotate(buttons []model.DeferButton, task *model.Task, tasks []*model.Task, now time.Time) {
	type pending struct {
		at       time.Time
		priority int
	}
	horizon := now.Add(Lookahead)
	var pool []pending
	for _, t := range tasks {
		if task != nil && t.ID == task.ID {
			continue
		}
		info, ok := s.engine.Resolve(t, s.loc)
		if !ok || !info.HasClock {
			continue
		}
		at := info.At
		if info.AllDay {
			at = info.Clock.On(info.At)
		}
		if at.Before(now) || !at.Before(horizon) {
			continue
		}
		pool = append(pool, pending{at: at, priority: t.Priority})
	}

	for i := 1; i < len(buttons); i++ {
		start := buttons[i].At
		end := horizon
		if i+1 < len(buttons) {
			end = buttons[i+1].At
		}
		rest := pool[:0]
		for _, p := range pool {
			if !p.at.Before(start) && p.at.Before(end) {
				buttons[i].Count++
				buttons[i].Priority = max(buttons[i].Priority, p.priority)
				continue
			}
			rest = append(rest, p)
		}
		pool = rest
	}
}

// roundClock rounds t's wall clock to the nearest multiple of g.
func roundClock(t time.Time, g time.Duration) time.Time {
	midnight := ordering.StartOfDay(t)
	return midnight.Add(t.Sub(midnight).Round(g))
}
