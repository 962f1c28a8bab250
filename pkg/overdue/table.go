// Package overdue finds tasks left dated on an earlier day and moves them onto today.
package overdue

import (
	"time"

	"github.com/harrisonrobin/nextup/pkg/model"
	"github.com/harrisonrobin/nextup/pkg/ordering"
)

// Resolver derives due data for a task.
type Resolver interface {
	Resolve(t *model.Task, loc *time.Location) (ordering.Info, bool)
}

// Sweep returns an update for every task whose due day precedes today. Tasks with a
// time of day keep it on today's date; the rest become due today without one.
func Sweep(tasks []*model.Task, now time.Time, loc *time.Location, r Resolver) []model.TaskUpdate {
	if loc == nil {
		loc = time.Local
	}
	today := ordering.StartOfDay(now.In(loc))

	var swept []model.TaskUpdate
	for _, t := range tasks {
		info, ok := r.Resolve(t, loc)
		if !ok || !ordering.StartOfDay(info.At).Before(today) {
			continue
		}
		if info.HasClock {
			swept = append(swept, model.TaskUpdate{TaskID: t.ID, At: info.Clock.On(today)})
		} else {
			swept = append(swept, model.TaskUpdate{TaskID: t.ID, At: today, AllDay: true})
		}
	}
	return swept
}
