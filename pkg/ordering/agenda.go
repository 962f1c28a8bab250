package ordering

import (
	"slices"
	"time"

	"github.com/harrisonrobin/nextup/pkg/model"
)

// View hashes of the agenda views that drive their own queue.
const (
	TodayHash    = "#today"
	TomorrowHash = "#tomorrow"
)

// Agenda lists the tasks with a time of day on day's calendar day, earliest first.
// Each item's CloseTiming flag is set when it falls within CloseTimingWindow of the
// item before it.
func (e *Engine) Agenda(tasks []*model.Task, day time.Time, loc *time.Location) []*model.Task {
	if loc == nil {
		loc = time.Local
	}
	type item struct {
		task *model.Task
		at   time.Time
	}
	var items []item
	for _, t := range tasks {
		info, ok := e.Resolve(t, loc)
		if !ok || !info.HasClock {
			continue
		}
		at := info.At
		if info.AllDay {
			at = info.Clock.On(info.At)
		}
		if SameDay(at, day, loc) {
			items = append(items, item{task: t, at: at})
		}
	}
	slices.SortStableFunc(items, func(a, b item) int { return a.at.Compare(b.at) })

	out := make([]*model.Task, len(items))
	for i, it := range items {
		it.task.CloseTiming = i > 0 && it.at.Sub(items[i-1].at) < CloseTimingWindow
		out[i] = it.task
	}
	return out
}

// AgendaFor resolves a view hash to its agenda, or nil for other views.
func (e *Engine) AgendaFor(hash string, tasks []*model.Task, loc *time.Location) []*model.Task {
	if loc == nil {
		loc = time.Local
	}
	now := e.now().In(loc)
	switch hash {
	case TodayHash:
		return e.Agenda(tasks, now, loc)
	case TomorrowHash:
		return e.Agenda(tasks, now.AddDate(0, 0, 1), loc)
	}
	return nil
}

// IsAgendaHash reports whether hash names a view that manages its own queue.
func IsAgendaHash(hash string) bool {
	return hash == TodayHash || hash == TomorrowHash
}
