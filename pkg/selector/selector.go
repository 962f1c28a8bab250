// Package selector decides which single task is presented next.
package selector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harrisonrobin/nextup/pkg/activity"
	"github.com/harrisonrobin/nextup/pkg/model"
	"github.com/harrisonrobin/nextup/pkg/notify"
	"github.com/harrisonrobin/nextup/pkg/ordering"
	"github.com/harrisonrobin/nextup/pkg/state"
)

// DefaultDebounce suppresses further change prompts after one is shown.
const DefaultDebounce = 2 * time.Second

// NoMoreInContext is shown when the container filter runs dry.
const NoMoreInContext = "No more tasks in context"

// CommentSource fetches a task's comment thread.
type CommentSource interface {
	Comments(ctx context.Context, taskID string) ([]model.Comment, error)
}

// ActivityLoader answers activity queries.
type ActivityLoader interface {
	Get(ctx context.Context, tf activity.Timeframe, taskID string) activity.Result
}

// Decision describes what an Update did.
type Decision struct {
	Task          *model.Task
	Changed       bool
	Notified      bool
	FilterCleared bool
	Debounced     bool
}

// Selector picks the first-due task out of the store's due list.
type Selector struct {
	store    *state.Store
	engine   *ordering.Engine
	comments CommentSource
	activity ActivityLoader
	timer    Timer
	notifier notify.Notifier
	debounce time.Duration

	wg sync.WaitGroup
}

// Option configures a Selector.
type Option func(*Selector)

// WithTimer replaces the debounce timer.
func WithTimer(t Timer) Option {
	return func(s *Selector) { s.timer = t }
}

// WithDebounce changes how long prompts are suppressed after one is shown.
func WithDebounce(d time.Duration) Option {
	return func(s *Selector) { s.debounce = d }
}

// New creates a Selector. comments and loader may be nil.
func New(store *state.Store, engine *ordering.Engine, comments CommentSource, loader ActivityLoader, n notify.Notifier, opts ...Option) *Selector {
	if n == nil {
		n = notify.Discard{}
	}
	s := &Selector{
		store:    store,
		engine:   engine,
		comments: comments,
		activity: loader,
		timer:    NewWallTimer(),
		notifier: n,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Update re-derives the presented task from the due list. While the debounce timer
// is armed it does nothing.
func (s *Selector) Update(ctx context.Context) Decision {
	if s.timer.Armed() {
		return Decision{Debounced: true}
	}

	var (
		d    Decision
		prev *model.Task
	)
	s.store.Do(func(st *state.State) {
		if st.FirstDue != nil && st.FirstDue.Summoned != "" {
			d.Task = st.FirstDue
			return
		}

		due := st.Due
		if len(due) == 0 {
			d.Changed = st.FirstDue != nil
			setFirst(st, nil)
			st.Pending = nil
			return
		}

		if st.SelectedContext != "" {
			filtered := inContext(due, st.SelectedContext)
			if len(filtered) == 0 {
				st.SelectedContext = ""
				d.FilterCleared = true
			} else {
				due = filtered
			}
		}

		candidate := due[0]
		if st.FirstDue != nil && st.FirstDue.ID == candidate.ID {
			// Same task, possibly a fresh copy from a refresh.
			setFirst(st, candidate)
			d.Task = candidate
			return
		}

		prev = st.Previous
		if st.FirstDue != nil && prev != nil && prev.ID != candidate.ID &&
			(st.SelectedContext == "" || prev.ContextID == st.SelectedContext) &&
			!ordering.IsAgendaHash(st.Hash) {
			st.Pending = candidate
			d.Task = st.FirstDue
			d.Notified = true
			return
		}

		setFirst(st, candidate)
		d.Task = candidate
		d.Changed = true
	})

	if d.FilterCleared {
		s.notifier.Info(NoMoreInContext)
	}
	if d.Notified {
		s.timer.Arm(s.debounce)
		s.notifier.FirstTaskChanged(prev, pendingOf(s.store))
	}
	if d.Changed && d.Task != nil {
		s.load(ctx, d.Task)
	}
	return d
}

func pendingOf(store *state.Store) *model.Task {
	var t *model.Task
	store.Read(func(st *state.State) { t = st.Pending })
	return t
}

// Accept presents the task a change prompt was shown for.
func (s *Selector) Accept(ctx context.Context) *model.Task {
	var t *model.Task
	s.store.Do(func(st *state.State) {
		if st.Pending == nil {
			return
		}
		t = st.Pending
		setFirst(st, t)
	})
	s.timer.Cancel()
	if t != nil {
		s.load(ctx, t)
	}
	return t
}

// Dismiss keeps the current task and drops the pending change.
func (s *Selector) Dismiss() {
	s.store.Do(func(st *state.State) {
		st.Pending = nil
	})
}

// Summon presents taskID explicitly on behalf of the view hash.
func (s *Selector) Summon(ctx context.Context, taskID, hash string) (*model.Task, error) {
	var t *model.Task
	s.store.Do(func(st *state.State) {
		t = st.Task(taskID)
		if t == nil {
			return
		}
		t.Summoned = hash
		t.Skip = false
		st.Hash = hash
		setFirst(st, t)
	})
	if t == nil {
		return nil, fmt.Errorf("task %s not found", taskID)
	}
	s.timer.Cancel()
	s.load(ctx, t)
	return t, nil
}

// Skip moves past the presented task within the hash's agenda. When the agenda has
// nothing left, the summon state is cleared and normal selection resumes.
func (s *Selector) Skip(ctx context.Context, hash string) Decision {
	var next *model.Task
	s.store.Do(func(st *state.State) {
		current := st.FirstDue
		if current != nil {
			current.Skip = true
		}
		queue := s.engine.AgendaFor(hash, st.Tasks, st.Location)
		start := 0
		if current != nil {
			for i, t := range queue {
				if t.ID == current.ID {
					start = i + 1
					break
				}
			}
		}
		for _, t := range queue[start:] {
			if !t.Skip {
				next = t
				break
			}
		}
		if next == nil {
			return
		}
		if current != nil {
			current.Summoned = ""
		}
		next.Summoned = hash
		st.Hash = hash
		setFirst(st, next)
	})
	if next != nil {
		s.load(ctx, next)
		return Decision{Task: next, Changed: true}
	}
	return s.ClearSummon(ctx)
}

// ClearSummon drops all summon and skip marks and re-runs normal selection.
func (s *Selector) ClearSummon(ctx context.Context) Decision {
	s.store.Do(func(st *state.State) {
		for _, t := range st.Tasks {
			t.Summoned = ""
			t.Skip = false
		}
		setFirst(st, nil)
		st.Previous = nil
		st.Pending = nil
	})
	s.timer.Cancel()
	return s.Update(ctx)
}

// SelectContext sets the container filter ("" clears it) and re-runs selection.
func (s *Selector) SelectContext(ctx context.Context, contextID string) Decision {
	s.store.Do(func(st *state.State) {
		st.SelectedContext = contextID
	})
	return s.Update(ctx)
}

// SetHash records the current view.
func (s *Selector) SetHash(hash string) {
	s.store.Do(func(st *state.State) {
		st.Hash = hash
	})
}

// Wait blocks until background comment and activity loads finish.
func (s *Selector) Wait() {
	s.wg.Wait()
}

// load fetches the comment thread and a year of activity for t in the background.
func (s *Selector) load(ctx context.Context, t *model.Task) {
	id := t.ID
	if s.comments != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			comments, err := s.comments.Comments(ctx, id)
			if err != nil {
				s.notifier.Error(fmt.Errorf("failed to load comments: %w", err))
				return
			}
			s.store.SetComments(id, comments)
		}()
	}
	if s.activity != nil {
		res := s.activity.Get(ctx, activity.LastYear(s.engine.Now()), id)
		if res.Done != nil {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				if out := <-res.Done; out.Err != nil {
					s.notifier.Error(fmt.Errorf("failed to load activity: %w", out.Err))
				}
			}()
		}
	}
}

func setFirst(st *state.State, t *model.Task) {
	if st.FirstDue != nil {
		st.FirstDue.FirstDue = false
	}
	st.FirstDue = t
	st.Pending = nil
	if t != nil {
		t.FirstDue = true
		st.Previous = t
	}
}

func inContext(tasks []*model.Task, contextID string) []*model.Task {
	var out []*model.Task
	for _, t := range tasks {
		if t.ContextID == contextID {
			out = append(out, t)
		}
	}
	return out
}
