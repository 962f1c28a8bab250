package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/harrisonrobin/nextup/pkg/model"
)

// MaxEmptyPages ends pagination after this many consecutive empty pages.
const MaxEmptyPages = 2

// Query asks the server for one page of completion events.
type Query struct {
	Cursor string
	TaskID string
}

// Page is one page of completion events.
type Page struct {
	Entries    []model.TaskActivity
	NextCursor string
}

// Source is the remote completed-task history.
type Source interface {
	Activities(ctx context.Context, q Query) (Page, error)
}

// Holder owns the activity held in memory.
type Holder interface {
	Activity() []model.TaskActivity
	MergeActivity(entries []model.TaskActivity)
}

// Outcome is the reconciled result of a background fetch.
type Outcome struct {
	Data []model.TaskActivity
	Err  error
}

// Result is the best local answer plus, when a fetch was needed, a channel that
// delivers the reconciled answer once.
type Result struct {
	Data []model.TaskActivity
	Done <-chan Outcome
}

// Engine answers activity queries from held data and the remote history.
type Engine struct {
	source Source
	holder Holder
	loc    *time.Location
	now    func() time.Time
}

// NewEngine creates an Engine. A nil loc means time.Local and a nil now time.Now.
func NewEngine(source Source, holder Holder, loc *time.Location, now func() time.Time) *Engine {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{source: source, holder: holder, loc: loc, now: now}
}

// SetLocation changes the timezone used for calendar-day comparisons.
func (e *Engine) SetLocation(loc *time.Location) {
	if loc != nil {
		e.loc = loc
	}
}

// Get returns held activity for tf (optionally for one task). When held data does not
// cover tf, or tf includes today, a fetch runs in the background and its reconciled
// result is delivered on Result.Done.
func (e *Engine) Get(ctx context.Context, tf Timeframe, taskID string) Result {
	held := e.holder.Activity()
	local := Filter(held, tf, taskID, e.loc)

	cov := ComputeCoverage(ForTask(held, taskID), tf, e.loc)
	if !includesDay(tf, e.now(), e.loc) && cov.StartCovered && cov.EndCovered {
		return Result{Data: local}
	}

	done := make(chan Outcome, 1)
	go func() {
		defer close(done)
		acc, err := e.FetchAll(ctx, tf, taskID, held)
		e.holder.MergeActivity(acc)
		done <- Outcome{Data: Filter(acc, tf, taskID, e.loc), Err: err}
	}()
	return Result{Data: local, Done: done}
}

// FetchAll pages through the remote history, merging each page into held, until the
// cursor runs out, the accumulated data covers tf, or MaxEmptyPages empty pages arrive
// in a row. On error it returns what was accumulated so far.
func (e *Engine) FetchAll(ctx context.Context, tf Timeframe, taskID string, held []model.TaskActivity) ([]model.TaskActivity, error) {
	acc := held
	startIsToday := day(tf.Start, e.loc) == day(e.now(), e.loc)
	cursor := ""
	empty := 0

	for {
		if err := ctx.Err(); err != nil {
			return acc, err
		}
		page, err := e.source.Activities(ctx, Query{Cursor: cursor, TaskID: taskID})
		if err != nil {
			return acc, fmt.Errorf("failed to fetch activity page: %w", err)
		}

		if len(page.Entries) == 0 {
			empty++
		} else {
			empty = 0
			acc = Merge(acc, page.Entries)
		}

		cov := ComputeCoverage(ForTask(acc, taskID), tf, e.loc)
		if finished(page.NextCursor, cov, startIsToday, empty) {
			return acc, nil
		}
		cursor = page.NextCursor
	}
}

func finished(next string, cov model.Coverage, startIsToday bool, empty int) bool {
	return next == "" ||
		(cov.StartCovered && (cov.EndCovered || startIsToday)) ||
		empty >= MaxEmptyPages
}
