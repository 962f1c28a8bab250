// Package state holds the process-wide task, container and activity collections.
//
// All reads and writes go through a Store. Do runs a read-compute-write step as one
// critical section and notifies subscribers after it, so engines never observe a
// half-applied mutation.
package state

import (
	"slices"
	"sync"
	"time"

	"github.com/harrisonrobin/nextup/pkg/activity"
	"github.com/harrisonrobin/nextup/pkg/model"
)

// State is the data guarded by a Store.
type State struct {
	Tasks    []*model.Task
	Contexts []model.Context
	Activity []model.TaskActivity

	// Due is the ordered subset of Tasks that is currently due.
	Due []*model.Task
	// FirstDue is the task being presented.
	FirstDue *model.Task
	// Previous pins the last presented task so a change can be announced.
	Previous *model.Task
	// Pending is a new head waiting for the user to accept the change.
	Pending *model.Task

	SelectedContext string
	Hash            string
	Location        *time.Location
	Comments        map[string][]model.Comment
}

// Task returns the task with id, or nil.
func (s *State) Task(id string) *model.Task {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// DueIndex returns the position of id in Due, or -1.
func (s *State) DueIndex(id string) int {
	return slices.IndexFunc(s.Due, func(t *model.Task) bool { return t.ID == id })
}

// Store guards a State.
type Store struct {
	mu    sync.Mutex
	state State

	subMu sync.Mutex
	subs  map[int]func()
	next  int
}

// New returns a Store with empty collections and the local timezone.
func New() *Store {
	st := &Store{subs: make(map[int]func())}
	st.state = empty()
	return st
}

func empty() State {
	return State{
		Location: time.Local,
		Comments: make(map[string][]model.Comment),
	}
}

// Do runs fn with exclusive access to the state, then notifies subscribers.
func (st *Store) Do(fn func(s *State)) {
	st.mu.Lock()
	fn(&st.state)
	st.mu.Unlock()
	st.notify()
}

// Read runs fn with exclusive access and does not notify.
func (st *Store) Read(fn func(s *State)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(&st.state)
}

// Snapshot returns a shallow copy of the state. Slices are copied; tasks are shared.
func (st *Store) Snapshot() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.state
	s.Tasks = slices.Clone(s.Tasks)
	s.Contexts = slices.Clone(s.Contexts)
	s.Activity = slices.Clone(s.Activity)
	s.Due = slices.Clone(s.Due)
	return s
}

// Location returns the user's timezone.
func (st *Store) Location() *time.Location {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state.Location
}

// Activity returns a copy of the held activity.
func (st *Store) Activity() []model.TaskActivity {
	st.mu.Lock()
	defer st.mu.Unlock()
	return slices.Clone(st.state.Activity)
}

// MergeActivity folds entries into the held activity.
func (st *Store) MergeActivity(entries []model.TaskActivity) {
	st.Do(func(s *State) {
		s.Activity = activity.Merge(s.Activity, entries)
	})
}

// SetComments attaches a fetched comment thread to a task.
func (st *Store) SetComments(taskID string, comments []model.Comment) {
	st.Do(func(s *State) {
		s.Comments[taskID] = comments
	})
}

// Subscribe registers fn to run after every change. It returns the unsubscribe func.
func (st *Store) Subscribe(fn func()) func() {
	st.subMu.Lock()
	defer st.subMu.Unlock()
	id := st.next
	st.next++
	st.subs[id] = fn
	return func() {
		st.subMu.Lock()
		defer st.subMu.Unlock()
		delete(st.subs, id)
	}
}

func (st *Store) notify() {
	st.subMu.Lock()
	fns := make([]func(), 0, len(st.subs))
	for _, fn := range st.subs {
		fns = append(fns, fn)
	}
	st.subMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Reset drops everything held, as on logout.
func (st *Store) Reset() {
	st.Do(func(s *State) {
		*s = empty()
	})
}
