// Package reconcile applies optimistic due-date mutations to the held tasks and
// confirms them with the task API.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/harrisonrobin/nextup/pkg/model"
	"github.com/harrisonrobin/nextup/pkg/notify"
	"github.com/harrisonrobin/nextup/pkg/ordering"
	"github.com/harrisonrobin/nextup/pkg/overdue"
	"github.com/harrisonrobin/nextup/pkg/selector"
	"github.com/harrisonrobin/nextup/pkg/state"
)

// DonePlaceholder is how far a completed task is pushed until the server confirms it.
const DonePlaceholder = 5 * time.Minute

// Status is the outcome of a mutation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result reports a mutation. Err joins every failure when Status is StatusError.
type Result struct {
	Status Status
	Err    error
}

func result(err error) Result {
	if err != nil {
		return Result{Status: StatusError, Err: err}
	}
	return Result{Status: StatusSuccess}
}

// Remote is the part of the task API mutations are confirmed with.
type Remote interface {
	CloseTask(ctx context.Context, taskID string) error
	UpdateDue(ctx context.Context, taskID string, due *model.Due) error
}

// Selector is re-run after every mutation.
type Selector interface {
	Update(ctx context.Context) selector.Decision
}

// Reconciler owns task mutations.
type Reconciler struct {
	store    *state.Store
	engine   *ordering.Engine
	selector Selector
	remote   Remote
	notifier notify.Notifier
}

// New creates a Reconciler.
func New(store *state.Store, engine *ordering.Engine, sel Selector, remote Remote, n notify.Notifier) *Reconciler {
	if n == nil {
		n = notify.Discard{}
	}
	return &Reconciler{store: store, engine: engine, selector: sel, remote: remote, notifier: n}
}

// Rederive recomputes the due list from scratch and re-runs the selector.
func (r *Reconciler) Rederive(ctx context.Context) selector.Decision {
	r.store.Do(func(st *state.State) {
		st.Due = r.engine.Order(st.Tasks, st.Contexts, ordering.Options{Location: st.Location})
	})
	return r.selector.Update(ctx)
}

// UpdateTaskResources moves each task to its new due time, earliest first. A task
// whose new time has already passed is re-inserted into the due list at its sorted
// position; otherwise it leaves the due list. A moved task loses its summon, so the
// selector stops presenting it.
func (r *Reconciler) UpdateTaskResources(ctx context.Context, updates []model.TaskUpdate) {
	sorted := slices.Clone(updates)
	slices.SortStableFunc(sorted, func(a, b model.TaskUpdate) int { return a.At.Compare(b.At) })
	now := r.engine.Now()

	r.store.Do(func(st *state.State) {
		loc := st.Location
		compare := r.engine.Comparator(st.Contexts, loc)
		for _, u := range sorted {
			t := st.Task(u.TaskID)
			if t == nil {
				continue
			}
			t.Summoned = ""
			t.Skip = false
			if u.AllDay {
				t.Due = model.DueOn(u.At.In(loc), t.Due)
			} else {
				t.Due = model.DueAt(u.At.In(loc), t.Due)
			}

			if i := st.DueIndex(t.ID); i >= 0 {
				st.Due = slices.Delete(st.Due, i, i+1)
			}
			info, ok := r.engine.Resolve(t, loc)
			if !ok || !info.At.Before(now) {
				continue
			}
			pos := sort.Search(len(st.Due), func(i int) bool { return compare(st.Due[i], t) > 0 })
			st.Due = slices.Insert(st.Due, pos, t)
		}
	})
	r.selector.Update(ctx)
}

// HandleTaskDone completes a task: it is pushed out of the due list right away, a
// temporary completion is logged, and the server is asked to close it. A failed
// close is reported but not rolled back; the next refresh restores consistency.
func (r *Reconciler) HandleTaskDone(ctx context.Context, taskID string) Result {
	now := r.engine.Now()
	found := false
	r.store.Do(func(st *state.State) {
		t := st.Task(taskID)
		if t == nil {
			return
		}
		found = true
		st.Previous = nil
		st.Activity = append(st.Activity, model.NewTemporaryActivity(t, now))
	})
	if !found {
		return result(fmt.Errorf("task %s not found", taskID))
	}

	r.UpdateTaskResources(ctx, []model.TaskUpdate{{TaskID: taskID, At: now.Add(DonePlaceholder)}})

	if err := r.remote.CloseTask(ctx, taskID); err != nil {
		err = fmt.Errorf("failed to complete task: %w", err)
		r.notifier.Error(err)
		return result(err)
	}
	return result(nil)
}

// HandleTaskDefer moves tasks to new times locally, then confirms each with the
// server. Failures are collected; the local moves stay applied.
func (r *Reconciler) HandleTaskDefer(ctx context.Context, updates []model.TaskUpdate) Result {
	if len(updates) == 0 {
		return result(nil)
	}
	r.UpdateTaskResources(ctx, updates)

	type pending struct {
		id, title string
		due       model.Due
	}
	var confirm []pending
	r.store.Read(func(st *state.State) {
		for _, u := range updates {
			if t := st.Task(u.TaskID); t != nil && t.Due != nil {
				confirm = append(confirm, pending{id: t.ID, title: t.Content, due: *t.Due})
			}
		}
	})

	var errs []error
	for _, p := range confirm {
		due := p.due
		if err := r.remote.UpdateDue(ctx, p.id, &due); err != nil {
			errs = append(errs, fmt.Errorf("failed to defer %q: %w", p.title, err))
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		r.notifier.Error(err)
	}
	return result(err)
}

// HandleOverdueTasks moves every task due on an earlier day onto today, keeping its
// time of day.
func (r *Reconciler) HandleOverdueTasks(ctx context.Context, tasks []*model.Task) Result {
	updates := overdue.Sweep(tasks, r.engine.Now(), r.store.Location(), r.engine)
	return r.HandleTaskDefer(ctx, updates)
}
