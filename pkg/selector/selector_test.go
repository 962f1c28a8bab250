package selector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/harrisonrobin/nextup/pkg/model"
	"github.com/harrisonrobin/nextup/pkg/ordering"
	"github.com/harrisonrobin/nextup/pkg/state"
	"github.com/harrisonrobin/nextup/pkg/timeparse"
)

var loc = time.UTC

func now() time.Time { return time.Date(2024, 6, 12, 9, 0, 0, 0, loc) }

type fakeTimer struct {
	armed bool
	arms  int
}

func (f *fakeTimer) Arm(d time.Duration) {
	f.armed = true
	f.arms++
}

func (f *fakeTimer) Cancel()     { f.armed = false }
func (f *fakeTimer) Armed() bool { return f.armed }

type recorder struct {
	mu      sync.Mutex
	changes [][2]string
	infos   []string
	errs    []error
}

func (r *recorder) FirstTaskChanged(prev, next *model.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, [2]string{prev.ID, next.ID})
}

func (r *recorder) Info(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos = append(r.infos, msg)
}

func (r *recorder) Error(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

type fakeComments struct {
	err error
}

func (f fakeComments) Comments(ctx context.Context, taskID string) ([]model.Comment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []model.Comment{{ID: "c-" + taskID, TaskID: taskID, Content: "note"}}, nil
}

type fixture struct {
	store *state.Store
	sel   *Selector
	timer *fakeTimer
	rec   *recorder
}

func newFixture(comments CommentSource) *fixture {
	store := state.New()
	store.Do(func(s *state.State) { s.Location = loc })
	engine := ordering.New(timeparse.New(), now)
	timer := &fakeTimer{}
	rec := &recorder{}
	return &fixture{
		store: store,
		sel:   New(store, engine, comments, nil, rec, WithTimer(timer)),
		timer: timer,
		rec:   rec,
	}
}

func TestUpdateNoDueClearsSelection(t *testing.T) {
	f := newFixture(nil)
	a := &model.Task{ID: "A", FirstDue: true}
	f.store.Do(func(s *state.State) {
		s.Tasks = []*model.Task{a}
		s.FirstDue = a
	})

	d := f.sel.Update(context.Background())
	if d.Task != nil || !d.Changed {
		t.Errorf("Expected selection cleared, got %+v", d)
	}
	if a.FirstDue {
		t.Error("Expected FirstDue flag cleared")
	}
}

func TestUpdateSelectsHead(t *testing.T) {
	f := newFixture(fakeComments{})
	a, b := &model.Task{ID: "A"}, &model.Task{ID: "B"}
	f.store.Do(func(s *state.State) {
		s.Tasks = []*model.Task{a, b}
		s.Due = []*model.Task{a, b}
	})

	d := f.sel.Update(context.Background())
	f.sel.Wait()
	if d.Task != a || !d.Changed || d.Notified {
		t.Fatalf("Expected silent selection of A, got %+v", d)
	}
	if !a.FirstDue {
		t.Error("Expected FirstDue flag on A")
	}
	snap := f.store.Snapshot()
	if len(snap.Comments["A"]) != 1 {
		t.Errorf("Expected comments attached to A, got %+v", snap.Comments)
	}
}

func TestNotificationGate(t *testing.T) {
	tests := []struct {
		hash       string
		filter     string
		wantNotify bool
	}{
		{"#inbox", "c1", true},
		{"#today", "c1", false},
		{"#tomorrow", "", false},
		{"#inbox", "", true},
	}
	for _, tt := range tests {
		f := newFixture(nil)
		a := &model.Task{ID: "A", ContextID: "c1"}
		b := &model.Task{ID: "B", ContextID: "c1"}
		f.store.Do(func(s *state.State) {
			s.Tasks = []*model.Task{a, b}
			s.Due = []*model.Task{b}
			s.FirstDue = a
			s.Previous = a
			s.SelectedContext = tt.filter
			s.Hash = tt.hash
		})

		d := f.sel.Update(context.Background())
		if d.Notified != tt.wantNotify {
			t.Errorf("hash=%s filter=%q: expected notify=%v, got %+v", tt.hash, tt.filter, tt.wantNotify, d)
			continue
		}
		snap := f.store.Snapshot()
		if tt.wantNotify {
			if snap.FirstDue != a || snap.Pending != b {
				t.Errorf("hash=%s: expected A kept with B pending", tt.hash)
			}
			if len(f.rec.changes) != 1 || f.rec.changes[0] != [2]string{"A", "B"} {
				t.Errorf("hash=%s: expected a change prompt, got %v", tt.hash, f.rec.changes)
			}
			if !f.timer.armed {
				t.Errorf("hash=%s: expected debounce armed", tt.hash)
			}
		} else if snap.FirstDue != b {
			t.Errorf("hash=%s: expected silent swap to B", tt.hash)
		}
	}
}

func TestPreviousInOtherContextSwapsSilently(t *testing.T) {
	f := newFixture(nil)
	a := &model.Task{ID: "A", ContextID: "c2"}
	b := &model.Task{ID: "B", ContextID: "c1"}
	f.store.Do(func(s *state.State) {
		s.Tasks = []*model.Task{a, b}
		s.Due = []*model.Task{b, a}
		s.FirstDue = a
		s.Previous = a
		s.SelectedContext = "c1"
		s.Hash = "#inbox"
	})
	if d := f.sel.Update(context.Background()); d.Notified || d.Task != b {
		t.Errorf("Expected silent swap to B, got %+v", d)
	}
}

func TestNoPromptWhenNothingPresented(t *testing.T) {
	f := newFixture(nil)
	a := &model.Task{ID: "A"}
	b := &model.Task{ID: "B"}
	f.store.Do(func(s *state.State) {
		s.Tasks = []*model.Task{a, b}
		s.Due = []*model.Task{a}
		s.Hash = "#inbox"
	})
	if d := f.sel.Update(context.Background()); d.Task != a {
		t.Fatalf("Expected A presented, got %+v", d)
	}

	f.store.Do(func(s *state.State) { s.Due = nil })
	if d := f.sel.Update(context.Background()); d.Task != nil {
		t.Fatalf("Expected nothing presented, got %+v", d)
	}

	f.store.Do(func(s *state.State) { s.Due = []*model.Task{b} })
	d := f.sel.Update(context.Background())
	if d.Notified || d.Task != b || !d.Changed {
		t.Errorf("Expected B presented without a prompt, got %+v", d)
	}
	snap := f.store.Snapshot()
	if snap.FirstDue != b || snap.Pending != nil {
		t.Errorf("Unexpected state: first=%v pending=%v", snap.FirstDue, snap.Pending)
	}
	if len(f.rec.changes) != 0 || f.timer.armed {
		t.Errorf("Expected no change prompt, got %v", f.rec.changes)
	}
}

func TestDebounceMakesUpdateNoop(t *testing.T) {
	f := newFixture(nil)
	a := &model.Task{ID: "A"}
	f.store.Do(func(s *state.State) {
		s.Tasks = []*model.Task{a}
		s.Due = []*model.Task{a}
	})
	f.timer.armed = true

	d := f.sel.Update(context.Background())
	if !d.Debounced || d.Task != nil {
		t.Errorf("Expected a debounced no-op, got %+v", d)
	}
	if f.store.Snapshot().FirstDue != nil {
		t.Error("Expected no selection while debounced")
	}
}

func TestAcceptPresentsPending(t *testing.T) {
	f := newFixture(nil)
	a := &model.Task{ID: "A"}
	b := &model.Task{ID: "B"}
	f.store.Do(func(s *state.State) {
		s.Tasks = []*model.Task{a, b}
		s.Due = []*model.Task{b}
		s.FirstDue = a
		s.Previous = a
		s.Hash = "#inbox"
	})
	f.sel.Update(context.Background())

	if got := f.sel.Accept(context.Background()); got != b {
		t.Fatalf("Expected B accepted, got %v", got)
	}
	snap := f.store.Snapshot()
	if snap.FirstDue != b || snap.Pending != nil || a.FirstDue || !b.FirstDue {
		t.Errorf("Unexpected state after accept: first=%v pending=%v", snap.FirstDue, snap.Pending)
	}
	if f.timer.armed {
		t.Error("Expected debounce cancelled")
	}
}

func TestContextFilterFallsBack(t *testing.T) {
	f := newFixture(nil)
	a := &model.Task{ID: "A", ContextID: "c2"}
	f.store.Do(func(s *state.State) {
		s.Tasks = []*model.Task{a}
		s.Due = []*model.Task{a}
		s.SelectedContext = "c1"
	})

	d := f.sel.Update(context.Background())
	if !d.FilterCleared || d.Task != a {
		t.Errorf("Expected filter cleared and A selected, got %+v", d)
	}
	if len(f.rec.infos) != 1 || f.rec.infos[0] != NoMoreInContext {
		t.Errorf("Expected a no-more-tasks notice, got %v", f.rec.infos)
	}
	if f.store.Snapshot().SelectedContext != "" {
		t.Error("Expected filter cleared in state")
	}
}

func TestContextFilterApplies(t *testing.T) {
	f := newFixture(nil)
	a := &model.Task{ID: "A", ContextID: "c2"}
	b := &model.Task{ID: "B", ContextID: "c1"}
	f.store.Do(func(s *state.State) {
		s.Tasks = []*model.Task{a, b}
		s.Due = []*model.Task{a, b}
	})
	if d := f.sel.SelectContext(context.Background(), "c1"); d.Task != b {
		t.Errorf("Expected B from c1, got %+v", d)
	}
}

func agendaTask(id string, hour int) *model.Task {
	return &model.Task{ID: id, Due: model.DueAt(time.Date(2024, 6, 12, hour, 0, 0, 0, loc), nil)}
}

func TestSummonAndSkip(t *testing.T) {
	f := newFixture(nil)
	a, b, c := agendaTask("A", 13), agendaTask("B", 14), agendaTask("C", 15)
	other := &model.Task{ID: "X"}
	f.store.Do(func(s *state.State) {
		s.Tasks = []*model.Task{c, a, b, other}
		s.Due = []*model.Task{other}
	})

	got, err := f.sel.Summon(context.Background(), "A", ordering.TodayHash)
	if err != nil || got != a || a.Summoned != ordering.TodayHash {
		t.Fatalf("Expected A summoned, got %v (%v)", got, err)
	}
	if d := f.sel.Update(context.Background()); d.Task != a {
		t.Errorf("Expected summon to override the due head, got %+v", d)
	}

	if d := f.sel.Skip(context.Background(), ordering.TodayHash); d.Task != b {
		t.Fatalf("Expected skip to B, got %+v", d)
	}
	if !a.Skip || a.Summoned != "" || b.Summoned != ordering.TodayHash {
		t.Errorf("Unexpected flags after skip: a=%+v b=%+v", a, b)
	}
	if d := f.sel.Skip(context.Background(), ordering.TodayHash); d.Task != c {
		t.Fatalf("Expected skip to C, got %+v", d)
	}

	d := f.sel.Skip(context.Background(), ordering.TodayHash)
	if d.Task != other {
		t.Errorf("Expected fallback to normal selection, got %+v", d)
	}
	for _, task := range []*model.Task{a, b, c} {
		if task.Summoned != "" || task.Skip {
			t.Errorf("Expected summon state cleared on %s", task.ID)
		}
	}
	if d.Notified {
		t.Error("Expected silent fallback")
	}
}

func TestSummonUnknownTask(t *testing.T) {
	f := newFixture(nil)
	if _, err := f.sel.Summon(context.Background(), "missing", ordering.TodayHash); err == nil {
		t.Error("Expected an error for an unknown task")
	}
}

func TestCommentErrorIsNotified(t *testing.T) {
	f := newFixture(fakeComments{err: errors.New("offline")})
	a := &model.Task{ID: "A"}
	f.store.Do(func(s *state.State) {
		s.Tasks = []*model.Task{a}
		s.Due = []*model.Task{a}
	})
	f.sel.Update(context.Background())
	f.sel.Wait()
	if len(f.rec.errs) != 1 {
		t.Errorf("Expected one error notice, got %v", f.rec.errs)
	}
}

func TestUpdateAdoptsRefreshedCopy(t *testing.T) {
	f := newFixture(nil)
	stale := &model.Task{ID: "A", Content: "old", FirstDue: true}
	fresh := &model.Task{ID: "A", Content: "new"}
	f.store.Do(func(s *state.State) {
		s.FirstDue = stale
		s.Previous = stale
		s.Tasks = []*model.Task{fresh}
		s.Due = []*model.Task{fresh}
	})

	d := f.sel.Update(context.Background())
	if d.Task != fresh || d.Changed || d.Notified {
		t.Errorf("Expected the fresh copy kept silently, got %+v", d)
	}
	if stale.FirstDue || !fresh.FirstDue {
		t.Error("Expected the FirstDue flag moved to the fresh copy")
	}
}
