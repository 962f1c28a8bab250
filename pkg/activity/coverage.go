package activity

import (
	"time"

	"github.com/harrisonrobin/nextup/pkg/model"
)

// Timeframe is an inclusive range of calendar days.
type Timeframe struct {
	Start time.Time
	End   time.Time
}

// LastYear is the lookback used when a task is selected.
func LastYear(now time.Time) Timeframe {
	return Timeframe{Start: now.AddDate(-1, 0, 0), End: now}
}

// day maps t to its calendar day as a comparable integer.
func day(t time.Time, loc *time.Location) int {
	y, m, d := t.In(loc).Date()
	return y*10000 + int(m)*100 + d
}

// Filter keeps the entries whose day lies inside tf and, when taskID is set,
// belong to that task.
func Filter(entries []model.TaskActivity, tf Timeframe, taskID string, loc *time.Location) []model.TaskActivity {
	start, end := day(tf.Start, loc), day(tf.End, loc)
	var out []model.TaskActivity
	for _, a := range entries {
		if taskID != "" && a.TaskID != taskID {
			continue
		}
		if d := day(a.Date, loc); d >= start && d <= end {
			out = append(out, a)
		}
	}
	return out
}

// ForTask keeps the entries for taskID, or all entries when it is empty.
func ForTask(entries []model.TaskActivity, taskID string) []model.TaskActivity {
	if taskID == "" {
		return entries
	}
	var out []model.TaskActivity
	for _, a := range entries {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	return out
}

// ComputeCoverage reports whether entries reach back to tf.Start and forward to tf.End.
func ComputeCoverage(entries []model.TaskActivity, tf Timeframe, loc *time.Location) model.Coverage {
	start, end := day(tf.Start, loc), day(tf.End, loc)
	var cov model.Coverage
	for _, a := range entries {
		d := day(a.Date, loc)
		if d <= start {
			cov.StartCovered = true
		}
		if d >= end {
			cov.EndCovered = true
		}
		if cov.StartCovered && cov.EndCovered {
			break
		}
	}
	return cov
}

// includesDay reports whether now's calendar day lies inside tf.
func includesDay(tf Timeframe, now time.Time, loc *time.Location) bool {
	d := day(now, loc)
	return d >= day(tf.Start, loc) && d <= day(tf.End, loc)
}
