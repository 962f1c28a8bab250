// Package app wires the engines around one state store and runs refreshes.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/harrisonrobin/nextup/pkg/activity"
	"github.com/harrisonrobin/nextup/pkg/deferral"
	"github.com/harrisonrobin/nextup/pkg/kvstore"
	"github.com/harrisonrobin/nextup/pkg/model"
	"github.com/harrisonrobin/nextup/pkg/notify"
	"github.com/harrisonrobin/nextup/pkg/ordering"
	"github.com/harrisonrobin/nextup/pkg/reconcile"
	"github.com/harrisonrobin/nextup/pkg/selector"
	"github.com/harrisonrobin/nextup/pkg/state"
	"github.com/harrisonrobin/nextup/pkg/timeparse"
	"github.com/harrisonrobin/nextup/pkg/todoist"
)

var (
	// ErrNoTask is returned when an operation names a task that is not held.
	ErrNoTask = errors.New("no such task")
	// ErrUnknownButton is returned when no defer button carries the given label.
	ErrUnknownButton = errors.New("unknown defer button")
)

// API is the remote task API.
type API interface {
	User(ctx context.Context) (todoist.User, error)
	Tasks(ctx context.Context) ([]*model.Task, error)
	Projects(ctx context.Context) ([]model.Context, error)
	SetLocation(loc *time.Location)
	selector.CommentSource
	activity.Source
	reconcile.Remote
}

// Persistence is where the offline snapshot and settings live.
type Persistence interface {
	LoadCache() (kvstore.Cache, error)
	SaveCache(c kvstore.Cache) error
	SelectedContext() (string, error)
	SetSelectedContext(id string) error
	Clear() error
}

// Options configures New.
type Options struct {
	Now      func() time.Time
	Location *time.Location // overrides the profile timezone
	Debounce time.Duration
	Timer    selector.Timer
	Notifier notify.Notifier
}

// App is the assembled front end.
type App struct {
	Store      *state.Store
	Engine     *ordering.Engine
	Activity   *activity.Engine
	Scheduler  *deferral.Scheduler
	Selector   *selector.Selector
	Reconciler *reconcile.Reconciler

	api      API
	persist  Persistence
	override *time.Location
}

// New wires the engines together.
func New(api API, persist Persistence, opts Options) *App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Log{}
	}

	store := state.New()
	engine := ordering.New(timeparse.New(), opts.Now)
	acts := activity.NewEngine(api, store, nil, opts.Now)

	var selOpts []selector.Option
	if opts.Debounce > 0 {
		selOpts = append(selOpts, selector.WithDebounce(opts.Debounce))
	}
	if opts.Timer != nil {
		selOpts = append(selOpts, selector.WithTimer(opts.Timer))
	}
	sel := selector.New(store, engine, api, acts, opts.Notifier, selOpts...)

	a := &App{
		Store:      store,
		Engine:     engine,
		Activity:   acts,
		Scheduler:  deferral.New(engine, nil),
		Selector:   sel,
		Reconciler: reconcile.New(store, engine, sel, api, opts.Notifier),
		api:        api,
		persist:    persist,
		override:   opts.Location,
	}
	if opts.Location != nil {
		a.setLocation(opts.Location)
	}
	return a
}

func (a *App) setLocation(loc *time.Location) {
	a.Store.Do(func(st *state.State) { st.Location = loc })
	a.api.SetLocation(loc)
	a.Activity.SetLocation(loc)
	a.Scheduler.SetLocation(loc)
}

// LoadCache restores the offline snapshot and re-derives the due list from it.
func (a *App) LoadCache(ctx context.Context) error {
	c, err := a.persist.LoadCache()
	if err != nil {
		return fmt.Errorf("failed to load cache: %w", err)
	}
	if a.override == nil && c.Timezone != "" {
		if loc, err := time.LoadLocation(c.Timezone); err == nil {
			a.setLocation(loc)
		} else {
			log.Printf("Warning: cached timezone %q is unknown: %v", c.Timezone, err)
		}
	}
	selected, err := a.persist.SelectedContext()
	if err != nil {
		log.Printf("Warning: could not read selected context: %v", err)
	}
	a.Store.Do(func(st *state.State) {
		st.Tasks = c.Tasks
		st.Contexts = c.Contexts
		st.Activity = c.Activity
		st.SelectedContext = selected
	})
	a.Reconciler.Rederive(ctx)
	return nil
}

// SaveCache writes the offline snapshot.
func (a *App) SaveCache() error {
	snap := a.Store.Snapshot()
	return a.persist.SaveCache(kvstore.Cache{
		Tasks:    snap.Tasks,
		Contexts: snap.Contexts,
		Activity: snap.Activity,
		Timezone: snap.Location.String(),
	})
}

// Refresh pulls the profile, containers and tasks, moves stale tasks onto today,
// re-derives the due list and persists the snapshot.
func (a *App) Refresh(ctx context.Context) (selector.Decision, error) {
	user, err := a.api.User(ctx)
	if err != nil {
		return selector.Decision{}, fmt.Errorf("failed to fetch user: %w", err)
	}
	loc := a.override
	if loc == nil {
		loc = user.Location()
	}
	a.setLocation(loc)

	contexts, err := a.api.Projects(ctx)
	if err != nil {
		return selector.Decision{}, fmt.Errorf("failed to fetch projects: %w", err)
	}
	tasks, err := a.api.Tasks(ctx)
	if err != nil {
		return selector.Decision{}, fmt.Errorf("failed to fetch tasks: %w", err)
	}

	a.Store.Do(func(st *state.State) {
		st.Tasks = tasks
		st.Contexts = contexts
	})

	var errs []error
	if res := a.Reconciler.HandleOverdueTasks(ctx, tasks); res.Status == reconcile.StatusError {
		errs = append(errs, res.Err)
	}
	d := a.Reconciler.Rederive(ctx)

	if err := a.SaveCache(); err != nil {
		errs = append(errs, fmt.Errorf("failed to save cache: %w", err))
	}
	return d, errors.Join(errs...)
}

// Current returns the presented task, or nil.
func (a *App) Current() *model.Task {
	var t *model.Task
	a.Store.Read(func(st *state.State) { t = st.FirstDue })
	return t
}

// Due returns the ordered due list.
func (a *App) Due() []*model.Task {
	return a.Store.Snapshot().Due
}

// Upcoming lists what comes due before the end of tomorrow, latest first.
func (a *App) Upcoming() []*model.Task {
	snap := a.Store.Snapshot()
	return a.Engine.Order(snap.Tasks, snap.Contexts, ordering.Options{Location: snap.Location, Reverse: true})
}

// Agenda lists today's or tomorrow's timed tasks for a view hash.
func (a *App) Agenda(hash string) []*model.Task {
	snap := a.Store.Snapshot()
	return a.Engine.AgendaFor(hash, snap.Tasks, snap.Location)
}

// Buttons computes the defer ladder for a task.
func (a *App) Buttons(taskID string) ([]model.DeferButton, error) {
	snap := a.Store.Snapshot()
	t := taskIn(snap.Tasks, taskID)
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoTask, taskID)
	}
	return a.Scheduler.UpdateMilliseconds(t, snap.Tasks), nil
}

// Done completes a task and persists the snapshot.
func (a *App) Done(ctx context.Context, taskID string) reconcile.Result {
	res := a.Reconciler.HandleTaskDone(ctx, taskID)
	a.saveQuietly()
	return res
}

// Defer moves a task to at, or to at's day when allDay is set.
func (a *App) Defer(ctx context.Context, taskID string, at time.Time, allDay bool) reconcile.Result {
	res := a.Reconciler.HandleTaskDefer(ctx, []model.TaskUpdate{{TaskID: taskID, At: at, AllDay: allDay}})
	a.saveQuietly()
	return res
}

// DeferButton moves a task to the instant of one of its defer buttons.
func (a *App) DeferButton(ctx context.Context, taskID string, label string) reconcile.Result {
	buttons, err := a.Buttons(taskID)
	if err != nil {
		return reconcile.Result{Status: reconcile.StatusError, Err: err}
	}
	for _, b := range buttons {
		if b.Text != label {
			continue
		}
		if b.Disabled {
			return reconcile.Result{Status: reconcile.StatusError, Err: fmt.Errorf("button %q is disabled", label)}
		}
		return a.Defer(ctx, taskID, b.At, false)
	}
	return reconcile.Result{Status: reconcile.StatusError, Err: fmt.Errorf("%w %q", ErrUnknownButton, label)}
}

// SelectContext sets and persists the container filter.
func (a *App) SelectContext(ctx context.Context, contextID string) (selector.Decision, error) {
	d := a.Selector.SelectContext(ctx, contextID)
	if err := a.persist.SetSelectedContext(contextID); err != nil {
		return d, fmt.Errorf("failed to save selected context: %w", err)
	}
	return d, nil
}

// ActivityLog returns completions in tf, waiting for a background fetch if one runs.
func (a *App) ActivityLog(ctx context.Context, tf activity.Timeframe, taskID string) ([]model.TaskActivity, error) {
	res := a.Activity.Get(ctx, tf, taskID)
	if res.Done == nil {
		return res.Data, nil
	}
	select {
	case out, ok := <-res.Done:
		if !ok {
			return res.Data, nil
		}
		a.saveQuietly()
		return out.Data, out.Err
	case <-ctx.Done():
		return res.Data, ctx.Err()
	}
}

// Logout drops held data, memoized due info and everything persisted.
func (a *App) Logout() error {
	a.Store.Reset()
	a.Engine.Forget()
	if err := a.persist.Clear(); err != nil {
		return fmt.Errorf("failed to clear local data: %w", err)
	}
	return nil
}

func (a *App) saveQuietly() {
	if err := a.SaveCache(); err != nil {
		log.Printf("Warning: failed to save cache: %v", err)
	}
}

func taskIn(tasks []*model.Task, id string) *model.Task {
	for _, t := range tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}
